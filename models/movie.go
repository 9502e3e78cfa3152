package models

import "time"

// Movie is the persisted catalog record. The ID is the stable code from the
// box-office registry, or a search-source document ID for manually added
// titles. ReleaseDate is kept as the loosely-formatted string the sources
// return (YYYYMMDD or YYYY-MM-DD) and is not validated.
type Movie struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	OriginalTitle  string    `json:"originalTitle,omitempty"`
	ReleaseDate    string    `json:"releaseDate"`
	Genres         []string  `json:"genres"`
	RuntimeMinutes int       `json:"runtimeMinutes,omitempty"`
	PosterURL      string    `json:"posterUrl,omitempty"`
	Description    string    `json:"description,omitempty"`
	AudienceTotal  int64     `json:"audienceTotal,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// BoxOfficeEntry is one row of the daily ranked box-office list.
type BoxOfficeEntry struct {
	Rank          int    `json:"rank"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	OpenDate      string `json:"openDate"`
	AudienceCount int64  `json:"audienceCount"`
	AudienceTotal int64  `json:"audienceTotal"`
}

// IngestResult reports the outcome of one movie's pipeline during a batch
// ingest. Failures are carried per item; a batch never aborts as a whole.
type IngestResult struct {
	Code    string `json:"code"`
	Title   string `json:"title"`
	MovieID string `json:"movieId,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
