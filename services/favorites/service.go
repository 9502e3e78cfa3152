package favorites

import (
	"errors"

	"cinebase/models"
)

var (
	ErrMovieNotFound    = errors.New("movie not found")
	ErrFavoriteNotFound = errors.New("favorite not found")
)

// favoriteStore is the slice of the favorite repository the service needs.
type favoriteStore interface {
	Add(accountID, movieID string) error
	Remove(accountID, movieID string) (bool, error)
	Exists(accountID, movieID string) (bool, error)
	ListMovies(accountID string) ([]models.Movie, error)
}

type movieStore interface {
	GetByID(id string) (*models.Movie, error)
}

// Service manages per-account movie bookmarks.
type Service struct {
	store  favoriteStore
	movies movieStore
}

// NewService creates the favorites service.
func NewService(store favoriteStore, movies movieStore) *Service {
	return &Service{store: store, movies: movies}
}

// Add bookmarks a movie for the account. Adding an already-bookmarked movie
// is a no-op.
func (s *Service) Add(accountID, movieID string) error {
	movie, err := s.movies.GetByID(movieID)
	if err != nil {
		return err
	}
	if movie == nil {
		return ErrMovieNotFound
	}
	return s.store.Add(accountID, movieID)
}

// Remove drops the bookmark.
func (s *Service) Remove(accountID, movieID string) error {
	removed, err := s.store.Remove(accountID, movieID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrFavoriteNotFound
	}
	return nil
}

// Status reports whether the account bookmarked the movie.
func (s *Service) Status(accountID, movieID string) (bool, error) {
	return s.store.Exists(accountID, movieID)
}

// List returns the account's bookmarked movies, most recent first.
func (s *Service) List(accountID string) ([]models.Movie, error) {
	return s.store.ListMovies(accountID)
}
