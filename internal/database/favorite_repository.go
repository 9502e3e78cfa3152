package database

import (
	"database/sql"
	"fmt"
	"time"

	"cinebase/models"
)

// FavoriteRepository persists per-account movie bookmarks.
type FavoriteRepository struct {
	db *sql.DB
}

// NewFavoriteRepository creates a favorite repository.
func NewFavoriteRepository(db *sql.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Add records a favorite. Adding twice is a no-op.
func (r *FavoriteRepository) Add(accountID, movieID string) error {
	_, err := r.db.Exec(`
		INSERT INTO favorites (account_id, movie_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(account_id, movie_id) DO NOTHING`,
		accountID, movieID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

// Remove deletes a favorite, reporting whether a row existed.
func (r *FavoriteRepository) Remove(accountID, movieID string) (bool, error) {
	result, err := r.db.Exec(`
		DELETE FROM favorites WHERE account_id = ? AND movie_id = ?`,
		accountID, movieID)
	if err != nil {
		return false, fmt.Errorf("remove favorite: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Exists reports whether the account favorited the movie.
func (r *FavoriteRepository) Exists(accountID, movieID string) (bool, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM favorites WHERE account_id = ? AND movie_id = ?`,
		accountID, movieID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return count > 0, nil
}

// ListMovies returns the account's favorited movies joined with catalog rows,
// most recently favorited first.
func (r *FavoriteRepository) ListMovies(accountID string) ([]models.Movie, error) {
	rows, err := r.db.Query(`
		SELECT m.id, m.title, m.original_title, m.release_date, m.genres,
			m.runtime_minutes, m.poster_url, m.description, m.audience_total, m.created_at
		FROM favorites f
		JOIN movies m ON m.id = f.movie_id
		WHERE f.account_id = ?
		ORDER BY f.created_at DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	var movies []models.Movie
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("scan favorite movie: %w", err)
		}
		movies = append(movies, *movie)
	}
	return movies, rows.Err()
}
