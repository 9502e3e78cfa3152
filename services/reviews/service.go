package reviews

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"cinebase/models"
)

var (
	ErrMovieNotFound    = errors.New("movie not found")
	ErrReviewNotFound   = errors.New("review not found")
	ErrReplyNotFound    = errors.New("reply not found")
	ErrAuthorRequired   = errors.New("author is required")
	ErrContentRequired  = errors.New("content is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrNotAllowed       = errors.New("not allowed to delete")
)

// reviewStore is the slice of the review repository the service needs.
type reviewStore interface {
	CreateReview(review *models.Review) error
	GetReview(id string) (*models.Review, error)
	ListByMovie(movieID string) ([]models.Review, error)
	ListAll() ([]models.Review, error)
	DeleteReview(id string) error
	CreateReply(reply *models.Reply) error
	GetReply(id string) (*models.Reply, error)
	ListReplies(reviewID string) ([]models.Reply, error)
	DeleteReply(id string) error
}

// movieStore answers movie-existence checks before a review is attached.
type movieStore interface {
	GetByID(id string) (*models.Movie, error)
}

// Service manages guest reviews and their replies. Reviews are gated by a
// shared password chosen at creation; a signed-in author or an admin can
// delete without it.
type Service struct {
	store  reviewStore
	movies movieStore
}

// NewService creates the reviews service.
func NewService(store reviewStore, movies movieStore) *Service {
	return &Service{store: store, movies: movies}
}

// Create validates and stores a new review for a movie. userID is the
// optional account of a signed-in author.
func (s *Service) Create(movieID, author, content, password, userID string) (*models.Review, error) {
	author = strings.TrimSpace(author)
	content = strings.TrimSpace(content)
	password = strings.TrimSpace(password)

	if author == "" {
		return nil, ErrAuthorRequired
	}
	if content == "" {
		return nil, ErrContentRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	movie, err := s.movies.GetByID(movieID)
	if err != nil {
		return nil, err
	}
	if movie == nil {
		return nil, ErrMovieNotFound
	}

	review := &models.Review{
		ID:       uuid.NewString(),
		MovieID:  movieID,
		Author:   author,
		Content:  content,
		Password: password,
		UserID:   strings.TrimSpace(userID),
	}
	if err := s.store.CreateReview(review); err != nil {
		return nil, err
	}
	return review, nil
}

// ListByMovie returns a movie's reviews, newest first.
func (s *Service) ListByMovie(movieID string) ([]models.Review, error) {
	return s.store.ListByMovie(movieID)
}

// ListAll returns every review for the moderation surface.
func (s *Service) ListAll() ([]models.Review, error) {
	return s.store.ListAll()
}

// Delete removes a review when the caller proves ownership: the review's
// password, the signed-in author's account, or admin. Replies go with it.
func (s *Service) Delete(id, password, userID string, isAdmin bool) error {
	review, err := s.store.GetReview(id)
	if err != nil {
		return err
	}
	if review == nil {
		return ErrReviewNotFound
	}

	if !s.mayDelete(review, password, userID, isAdmin) {
		return ErrNotAllowed
	}

	return s.store.DeleteReview(id)
}

func (s *Service) mayDelete(review *models.Review, password, userID string, isAdmin bool) bool {
	if isAdmin {
		return true
	}
	if userID != "" && review.UserID == userID {
		return true
	}
	password = strings.TrimSpace(password)
	return password != "" && review.Password == password
}

// CreateReply validates and stores a reply under an existing review.
func (s *Service) CreateReply(reviewID, author, content, userID string) (*models.Reply, error) {
	author = strings.TrimSpace(author)
	content = strings.TrimSpace(content)

	if author == "" {
		return nil, ErrAuthorRequired
	}
	if content == "" {
		return nil, ErrContentRequired
	}

	review, err := s.store.GetReview(reviewID)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, ErrReviewNotFound
	}

	reply := &models.Reply{
		ID:       uuid.NewString(),
		ReviewID: reviewID,
		Author:   author,
		Content:  content,
		UserID:   strings.TrimSpace(userID),
	}
	if err := s.store.CreateReply(reply); err != nil {
		return nil, err
	}
	return reply, nil
}

// ListReplies returns a review's replies, oldest first.
func (s *Service) ListReplies(reviewID string) ([]models.Reply, error) {
	review, err := s.store.GetReview(reviewID)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, ErrReviewNotFound
	}
	return s.store.ListReplies(reviewID)
}

// DeleteReply removes a reply when the caller is its signed-in author or an
// admin.
func (s *Service) DeleteReply(id, userID string, isAdmin bool) error {
	reply, err := s.store.GetReply(id)
	if err != nil {
		return err
	}
	if reply == nil {
		return ErrReplyNotFound
	}

	if !isAdmin && (userID == "" || reply.UserID != userID) {
		return ErrNotAllowed
	}

	return s.store.DeleteReply(id)
}
