package database

import (
	"path/filepath"
	"testing"
	"time"

	"cinebase/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(Config{DatabasePath: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMovieUpsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMovieRepository(db.Connection())

	movie := &models.Movie{
		ID:             "20183782",
		Title:          "기생충",
		OriginalTitle:  "Parasite",
		ReleaseDate:    "20190530",
		Genres:         []string{"드라마"},
		RuntimeMinutes: 131,
		PosterURL:      "https://img.example.com/parasite.jpg",
		Description:    "전원 백수인 기택네 가족.",
		AudienceTotal:  10083172,
	}
	if err := repo.Upsert(movie); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := repo.GetByID("20183782")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil {
		t.Fatal("expected movie, got nil")
	}
	if got.Title != "기생충" || got.RuntimeMinutes != 131 {
		t.Errorf("unexpected movie: %+v", got)
	}
	if len(got.Genres) != 1 || got.Genres[0] != "드라마" {
		t.Errorf("genres = %v", got.Genres)
	}
	if got.AudienceTotal != 10083172 {
		t.Errorf("audience = %d", got.AudienceTotal)
	}
}

func TestMovieGetAbsentReturnsNil(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMovieRepository(db.Connection())

	got, err := repo.GetByID("missing")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for absent movie, got %+v", got)
	}
}

func TestMovieUpsertPreservesCreatedAt(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMovieRepository(db.Connection())

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := repo.Upsert(&models.Movie{ID: "m1", Title: "기생충", CreatedAt: created}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	// Second write overwrites everything except the creation stamp.
	if err := repo.Upsert(&models.Movie{ID: "m1", Title: "기생충 (재개봉)", Description: "updated"}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := repo.GetByID("m1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != "기생충 (재개봉)" || got.Description != "updated" {
		t.Errorf("update not applied: %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("created_at changed: %v, want %v", got.CreatedAt, created)
	}

	count, err := repo.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestMovieListOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMovieRepository(db.Connection())

	for _, m := range []models.Movie{
		{ID: "a", Title: "older", ReleaseDate: "20180101"},
		{ID: "b", Title: "newest", ReleaseDate: "20240101"},
		{ID: "c", Title: "middle", ReleaseDate: "20200101"},
	} {
		if err := repo.Upsert(&m); err != nil {
			t.Fatalf("Upsert %s: %v", m.ID, err)
		}
	}

	movies, err := repo.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(movies) != 3 {
		t.Fatalf("got %d movies, want 3", len(movies))
	}
	if movies[0].ID != "b" || movies[1].ID != "c" || movies[2].ID != "a" {
		t.Errorf("unexpected order: %s, %s, %s", movies[0].ID, movies[1].ID, movies[2].ID)
	}
}

func TestMovieListTitles(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMovieRepository(db.Connection())

	if err := repo.Upsert(&models.Movie{ID: "m1", Title: "기생충"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := repo.Upsert(&models.Movie{ID: "m2", Title: "괴물"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	pairs, err := repo.ListTitles()
	if err != nil {
		t.Fatalf("ListTitles: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("got %d pairs, want 2", len(pairs))
	}
	titles := map[string]string{}
	for _, p := range pairs {
		titles[p.ID] = p.Title
	}
	if titles["m1"] != "기생충" || titles["m2"] != "괴물" {
		t.Errorf("unexpected pairs: %v", titles)
	}
}

func TestMovieDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMovieRepository(db.Connection())

	if err := repo.Upsert(&models.Movie{ID: "m1", Title: "기생충"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := repo.Delete("m1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete("m1"); err == nil {
		t.Error("deleting an absent movie should error")
	}
}
