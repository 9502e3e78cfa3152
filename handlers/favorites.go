package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"cinebase/api"
	"cinebase/models"
	"cinebase/services/favorites"
)

type favoriteService interface {
	Add(accountID, movieID string) error
	Remove(accountID, movieID string) error
	Status(accountID, movieID string) (bool, error)
	List(accountID string) ([]models.Movie, error)
}

var _ favoriteService = (*favorites.Service)(nil)

// FavoritesHandler serves the signed-in account's movie bookmarks. All
// routes sit behind the auth middleware.
type FavoritesHandler struct {
	Service favoriteService
}

func NewFavoritesHandler(service favoriteService) *FavoritesHandler {
	return &FavoritesHandler{Service: service}
}

// List returns the account's bookmarked movies, most recent first.
func (h *FavoritesHandler) List(w http.ResponseWriter, r *http.Request) {
	movies, err := h.Service.List(api.GetAccountID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if movies == nil {
		movies = []models.Movie{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(movies)
}

// Add bookmarks a movie.
func (h *FavoritesHandler) Add(w http.ResponseWriter, r *http.Request) {
	movieID := mux.Vars(r)["id"]

	if err := h.Service.Add(api.GetAccountID(r), movieID); err != nil {
		writeFavoriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"favorited": true})
}

// Remove drops the bookmark.
func (h *FavoritesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	movieID := mux.Vars(r)["id"]

	if err := h.Service.Remove(api.GetAccountID(r), movieID); err != nil {
		writeFavoriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"favorited": false})
}

// Status reports whether the account bookmarked the movie.
func (h *FavoritesHandler) Status(w http.ResponseWriter, r *http.Request) {
	movieID := mux.Vars(r)["id"]

	favorited, err := h.Service.Status(api.GetAccountID(r), movieID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"favorited": favorited})
}

func writeFavoriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, favorites.ErrMovieNotFound), errors.Is(err, favorites.ErrFavoriteNotFound):
		status = http.StatusNotFound
	}

	writeError(w, status, err.Error())
}
