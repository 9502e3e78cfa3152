package metadata

import (
	"errors"
	"fmt"
)

var (
	// ErrSearchNotConfigured is returned when a search-dependent operation
	// runs without a search API key.
	ErrSearchNotConfigured = errors.New("search source not configured")

	// ErrCandidateNotFound is returned when an add-from-search request names
	// a document id absent from the search results.
	ErrCandidateNotFound = errors.New("search candidate not found")

	// ErrMovieCodeRequired and ErrTitleRequired flag missing required input.
	ErrMovieCodeRequired = errors.New("movie code is required")
	ErrTitleRequired     = errors.New("title is required")
)

// FetchError reports a network failure or non-2xx response from an external
// movie-data source.
type FetchError struct {
	Source string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s fetch failed: status %d", e.Source, e.Status)
	}
	return fmt.Sprintf("%s fetch failed: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a response body that is not valid JSON or lacks the
// expected shape.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s response malformed: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
