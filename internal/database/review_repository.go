package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cinebase/models"
)

// ReviewRepository persists reviews and their replies.
type ReviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a review repository.
func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// CreateReview inserts a new review.
func (r *ReviewRepository) CreateReview(review *models.Review) error {
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(`
		INSERT INTO reviews (id, movie_id, author, content, password, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		review.ID, review.MovieID, review.Author, review.Content, review.Password,
		review.UserID, review.CreatedAt)
	if err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

// GetReview returns the review with the given id, or nil if absent.
func (r *ReviewRepository) GetReview(id string) (*models.Review, error) {
	row := r.db.QueryRow(`
		SELECT id, movie_id, author, content, password, user_id, created_at
		FROM reviews WHERE id = ?`, id)

	var review models.Review
	err := row.Scan(&review.ID, &review.MovieID, &review.Author, &review.Content,
		&review.Password, &review.UserID, &review.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	return &review, nil
}

// ListByMovie returns a movie's reviews, newest first.
func (r *ReviewRepository) ListByMovie(movieID string) ([]models.Review, error) {
	rows, err := r.db.Query(`
		SELECT id, movie_id, author, content, password, user_id, created_at
		FROM reviews WHERE movie_id = ?
		ORDER BY created_at DESC`, movieID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var review models.Review
		if err := rows.Scan(&review.ID, &review.MovieID, &review.Author, &review.Content,
			&review.Password, &review.UserID, &review.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

// ListAll returns every review, newest first. Used by the moderation surface.
func (r *ReviewRepository) ListAll() ([]models.Review, error) {
	rows, err := r.db.Query(`
		SELECT id, movie_id, author, content, password, user_id, created_at
		FROM reviews ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list all reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var review models.Review
		if err := rows.Scan(&review.ID, &review.MovieID, &review.Author, &review.Content,
			&review.Password, &review.UserID, &review.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

// DeleteReview removes a review and, via the cascade, its replies. Returns an
// error if no row matched.
func (r *ReviewRepository) DeleteReview(id string) error {
	// Delete replies explicitly as well; the cascade only fires when the
	// foreign_keys pragma survived the connection string.
	if _, err := r.db.Exec(`DELETE FROM review_replies WHERE review_id = ?`, id); err != nil {
		return fmt.Errorf("delete review replies: %w", err)
	}

	result, err := r.db.Exec(`DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("review not found: %s", id)
	}
	return nil
}

// CreateReply inserts a new reply under a review.
func (r *ReviewRepository) CreateReply(reply *models.Reply) error {
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(`
		INSERT INTO review_replies (id, review_id, author, content, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		reply.ID, reply.ReviewID, reply.Author, reply.Content, reply.UserID, reply.CreatedAt)
	if err != nil {
		return fmt.Errorf("create reply: %w", err)
	}
	return nil
}

// GetReply returns the reply with the given id, or nil if absent.
func (r *ReviewRepository) GetReply(id string) (*models.Reply, error) {
	row := r.db.QueryRow(`
		SELECT id, review_id, author, content, user_id, created_at
		FROM review_replies WHERE id = ?`, id)

	var reply models.Reply
	err := row.Scan(&reply.ID, &reply.ReviewID, &reply.Author, &reply.Content,
		&reply.UserID, &reply.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reply: %w", err)
	}
	return &reply, nil
}

// ListReplies returns a review's replies, oldest first.
func (r *ReviewRepository) ListReplies(reviewID string) ([]models.Reply, error) {
	rows, err := r.db.Query(`
		SELECT id, review_id, author, content, user_id, created_at
		FROM review_replies WHERE review_id = ?
		ORDER BY created_at ASC`, reviewID)
	if err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}
	defer rows.Close()

	var replies []models.Reply
	for rows.Next() {
		var reply models.Reply
		if err := rows.Scan(&reply.ID, &reply.ReviewID, &reply.Author, &reply.Content,
			&reply.UserID, &reply.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reply: %w", err)
		}
		replies = append(replies, reply)
	}
	return replies, rows.Err()
}

// DeleteReply removes a reply by id. Returns an error if no row matched.
func (r *ReviewRepository) DeleteReply(id string) error {
	result, err := r.db.Exec(`DELETE FROM review_replies WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reply: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("reply not found: %s", id)
	}
	return nil
}
