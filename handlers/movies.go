package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"cinebase/internal/database"
	"cinebase/models"
	"cinebase/services/metadata"
)

type movieCatalog interface {
	List() ([]models.Movie, error)
	GetByID(id string) (*models.Movie, error)
	Delete(id string) error
}

var _ movieCatalog = (*database.MovieRepository)(nil)

type metadataService interface {
	BoxOffice(ctx context.Context, date string) ([]models.BoxOfficeEntry, error)
	CompleteMovie(ctx context.Context, code, title string) (*models.Movie, error)
	IngestBoxOffice(ctx context.Context, date string) ([]models.IngestResult, error)
	AddFromSearch(ctx context.Context, docID, title string) (*models.Movie, error)
}

var _ metadataService = (*metadata.Service)(nil)

// MoviesHandler serves the catalog and the ingestion surface.
type MoviesHandler struct {
	Catalog  movieCatalog
	Metadata metadataService
}

func NewMoviesHandler(catalog movieCatalog, metadataSvc metadataService) *MoviesHandler {
	return &MoviesHandler{Catalog: catalog, Metadata: metadataSvc}
}

// List returns every stored movie, newest release first.
func (h *MoviesHandler) List(w http.ResponseWriter, r *http.Request) {
	movies, err := h.Catalog.List()
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

// Get returns one stored movie by id.
func (h *MoviesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	movie, err := h.Catalog.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if movie == nil {
		writeError(w, http.StatusNotFound, "movie not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(movie)
}

// Delete removes a stored movie. Admin only.
func (h *MoviesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	movie, err := h.Catalog.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if movie == nil {
		writeError(w, http.StatusNotFound, "movie not found")
		return
	}

	if err := h.Catalog.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}

// BoxOffice returns the ranked daily list without saving anything. The date
// query param accepts YYYYMMDD or YYYY-MM-DD and defaults to yesterday.
func (h *MoviesHandler) BoxOffice(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Metadata.BoxOffice(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		writeMetadataError(w, err)
		return
	}
	if entries == nil {
		entries = []models.BoxOfficeEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

// Complete returns the enriched record for one movie code without saving it.
func (h *MoviesHandler) Complete(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	title := r.URL.Query().Get("title")

	movie, err := h.Metadata.CompleteMovie(r.Context(), code, title)
	if err != nil {
		writeMetadataError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(movie)
}

// Ingest runs the full pipeline for a date's ranked list. Admin only. The
// response reports per-movie outcomes; a partial failure is still a 200.
func (h *MoviesHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Date string `json:"date"`
	}
	if r.Body != nil {
		// An empty body means "yesterday"; ignore decode errors for it.
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	results, err := h.Metadata.IngestBoxOffice(r.Context(), body.Date)
	if err != nil {
		writeMetadataError(w, err)
		return
	}
	if results == nil {
		results = []models.IngestResult{}
	}

	saved := 0
	for _, res := range results {
		if res.Success {
			saved++
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"saved":   saved,
		"total":   len(results),
		"results": results,
	})
}

// AddFromSearch saves a movie built from one search candidate. Admin only.
func (h *MoviesHandler) AddFromSearch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DocID string `json:"docId"`
		Title string `json:"title"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	movie, err := h.Metadata.AddFromSearch(r.Context(), body.DocID, body.Title)
	if err != nil {
		writeMetadataError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(movie)
}

func writeMetadataError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var fetchErr *metadata.FetchError
	var parseErr *metadata.ParseError
	switch {
	case errors.Is(err, metadata.ErrMovieCodeRequired), errors.Is(err, metadata.ErrTitleRequired):
		status = http.StatusBadRequest
	case errors.Is(err, metadata.ErrCandidateNotFound):
		status = http.StatusNotFound
	case errors.Is(err, metadata.ErrSearchNotConfigured):
		status = http.StatusServiceUnavailable
	case errors.As(err, &fetchErr), errors.As(err, &parseErr):
		status = http.StatusBadGateway
	}

	writeError(w, status, err.Error())
}
