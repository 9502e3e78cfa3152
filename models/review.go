package models

import "time"

// Review is a per-movie guest review. Password is a plain shared secret the
// author supplies at creation and repeats to delete; it is never serialized
// in API responses.
type Review struct {
	ID        string    `json:"id"`
	MovieID   string    `json:"movieId"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Password  string    `json:"-"`
	UserID    string    `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Reply is a threaded response to a review.
type Reply struct {
	ID        string    `json:"id"`
	ReviewID  string    `json:"reviewId"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	UserID    string    `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
