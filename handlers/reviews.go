package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"cinebase/api"
	"cinebase/models"
	"cinebase/services/reviews"
)

type reviewService interface {
	Create(movieID, author, content, password, userID string) (*models.Review, error)
	ListByMovie(movieID string) ([]models.Review, error)
	ListAll() ([]models.Review, error)
	Delete(id, password, userID string, isAdmin bool) error
	CreateReply(reviewID, author, content, userID string) (*models.Reply, error)
	ListReplies(reviewID string) ([]models.Reply, error)
	DeleteReply(id, userID string, isAdmin bool) error
}

var _ reviewService = (*reviews.Service)(nil)

// ReviewsHandler serves guest reviews and their replies.
type ReviewsHandler struct {
	Service reviewService
}

func NewReviewsHandler(service reviewService) *ReviewsHandler {
	return &ReviewsHandler{Service: service}
}

// ListByMovie returns a movie's reviews, newest first.
func (h *ReviewsHandler) ListByMovie(w http.ResponseWriter, r *http.Request) {
	movieID := mux.Vars(r)["id"]

	items, err := h.Service.ListByMovie(movieID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if items == nil {
		items = []models.Review{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

// ListAll returns every review for the moderation surface. Admin only.
func (h *ReviewsHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if items == nil {
		items = []models.Review{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

// Create posts a new review on a movie. Guests supply author, content and a
// delete password; signed-in callers additionally get their account attached.
func (h *ReviewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	movieID := mux.Vars(r)["id"]

	var body struct {
		Author   string `json:"author"`
		Content  string `json:"content"`
		Password string `json:"password"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	review, err := h.Service.Create(movieID, body.Author, body.Content, body.Password, api.GetAccountID(r))
	if err != nil {
		writeReviewError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(review)
}

// Delete removes a review. The caller proves ownership with the review
// password, their signed-in account, or admin rights.
func (h *ReviewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var body struct {
		Password string `json:"password"`
	}
	if r.Body != nil {
		// Password is optional for owners and admins.
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	if err := h.Service.Delete(id, body.Password, api.GetAccountID(r), api.IsAdmin(r)); err != nil {
		writeReviewError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}

// ListReplies returns a review's replies, oldest first.
func (h *ReviewsHandler) ListReplies(w http.ResponseWriter, r *http.Request) {
	reviewID := mux.Vars(r)["id"]

	items, err := h.Service.ListReplies(reviewID)
	if err != nil {
		writeReviewError(w, err)
		return
	}
	if items == nil {
		items = []models.Reply{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

// CreateReply posts a reply under a review.
func (h *ReviewsHandler) CreateReply(w http.ResponseWriter, r *http.Request) {
	reviewID := mux.Vars(r)["id"]

	var body struct {
		Author  string `json:"author"`
		Content string `json:"content"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := h.Service.CreateReply(reviewID, body.Author, body.Content, api.GetAccountID(r))
	if err != nil {
		writeReviewError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(reply)
}

// DeleteReply removes a reply. Only its signed-in author or an admin may.
func (h *ReviewsHandler) DeleteReply(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.Service.DeleteReply(id, api.GetAccountID(r), api.IsAdmin(r)); err != nil {
		writeReviewError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}

func writeReviewError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, reviews.ErrAuthorRequired),
		errors.Is(err, reviews.ErrContentRequired),
		errors.Is(err, reviews.ErrPasswordRequired):
		status = http.StatusBadRequest
	case errors.Is(err, reviews.ErrMovieNotFound),
		errors.Is(err, reviews.ErrReviewNotFound),
		errors.Is(err, reviews.ErrReplyNotFound):
		status = http.StatusNotFound
	case errors.Is(err, reviews.ErrNotAllowed):
		status = http.StatusForbidden
	}

	writeError(w, status, err.Error())
}
