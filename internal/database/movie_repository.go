package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cinebase/models"
)

// MovieRepository persists catalog records in the movies table.
type MovieRepository struct {
	db *sql.DB
}

// NewMovieRepository creates a movie repository.
func NewMovieRepository(db *sql.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

// TitlePair is the projection used by the duplicate scan.
type TitlePair struct {
	ID    string
	Title string
}

// Upsert inserts the movie or, when the id already exists, overwrites every
// column except created_at with the new values (last-writer-wins).
func (r *MovieRepository) Upsert(movie *models.Movie) error {
	if movie.CreatedAt.IsZero() {
		movie.CreatedAt = time.Now().UTC()
	}

	genres, err := json.Marshal(movie.Genres)
	if err != nil {
		return fmt.Errorf("encode genres: %w", err)
	}
	if movie.Genres == nil {
		genres = []byte("[]")
	}

	query := `
		INSERT INTO movies (id, title, original_title, release_date, genres,
			runtime_minutes, poster_url, description, audience_total, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			original_title = excluded.original_title,
			release_date = excluded.release_date,
			genres = excluded.genres,
			runtime_minutes = excluded.runtime_minutes,
			poster_url = excluded.poster_url,
			description = excluded.description,
			audience_total = excluded.audience_total
	`
	_, err = r.db.Exec(query,
		movie.ID, movie.Title, movie.OriginalTitle, movie.ReleaseDate, string(genres),
		movie.RuntimeMinutes, movie.PosterURL, movie.Description, movie.AudienceTotal,
		movie.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert movie: %w", err)
	}
	return nil
}

// GetByID returns the movie with the given id, or nil if absent.
func (r *MovieRepository) GetByID(id string) (*models.Movie, error) {
	query := `
		SELECT id, title, original_title, release_date, genres, runtime_minutes,
			poster_url, description, audience_total, created_at
		FROM movies WHERE id = ?
	`
	movie, err := scanMovie(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get movie: %w", err)
	}
	return movie, nil
}

// List returns all movies ordered by release date, newest first.
func (r *MovieRepository) List() ([]models.Movie, error) {
	query := `
		SELECT id, title, original_title, release_date, genres, runtime_minutes,
			poster_url, description, audience_total, created_at
		FROM movies
		ORDER BY release_date DESC, created_at DESC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	var movies []models.Movie
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		movies = append(movies, *movie)
	}
	return movies, rows.Err()
}

// ListTitles returns every (id, title) pair for the duplicate scan.
func (r *MovieRepository) ListTitles() ([]TitlePair, error) {
	rows, err := r.db.Query(`SELECT id, title FROM movies`)
	if err != nil {
		return nil, fmt.Errorf("list movie titles: %w", err)
	}
	defer rows.Close()

	var pairs []TitlePair
	for rows.Next() {
		var p TitlePair
		if err := rows.Scan(&p.ID, &p.Title); err != nil {
			return nil, fmt.Errorf("scan movie title: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// Delete removes a movie by id. Returns an error if no row matched.
func (r *MovieRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM movies WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete movie: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("movie not found: %s", id)
	}
	return nil
}

// Count returns the number of stored movies.
func (r *MovieRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM movies`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(row rowScanner) (*models.Movie, error) {
	var movie models.Movie
	var genres string
	err := row.Scan(&movie.ID, &movie.Title, &movie.OriginalTitle, &movie.ReleaseDate,
		&genres, &movie.RuntimeMinutes, &movie.PosterURL, &movie.Description,
		&movie.AudienceTotal, &movie.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(genres), &movie.Genres); err != nil {
		movie.Genres = nil
	}
	return &movie, nil
}
