package models

import "time"

// Favorite links an account to a movie it bookmarked.
type Favorite struct {
	AccountID string    `json:"accountId"`
	MovieID   string    `json:"movieId"`
	CreatedAt time.Time `json:"createdAt"`
}
