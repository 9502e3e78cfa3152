package metadata

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"cinebase/internal/database"
	"cinebase/models"
)

// movieStore is the slice of the movie repository the pipeline needs.
type movieStore interface {
	Upsert(movie *models.Movie) error
	ListTitles() ([]database.TitlePair, error)
}

// Config holds the external-source settings for the metadata service.
type Config struct {
	KobisAPIKey  string
	KMDBAPIKey   string
	KobisBaseURL string // override for tests; empty uses the public endpoint
	KMDBBaseURL  string

	// DedupCacheTTL bounds the duplicate-scan memoization window.
	DedupCacheTTL time.Duration

	// IngestWorkers caps concurrent per-movie pipelines during batch ingest.
	IngestWorkers int
}

// Service runs the box-office ingestion pipeline: ranked list, per-code
// detail, free-text search, reconciliation, dedup and upsert.
type Service struct {
	kobis   *kobisClient
	kmdb    *kmdbClient
	store   movieStore
	dedup   *memoCache
	workers int
}

// NewService creates the metadata service. httpc may be nil to use a default
// client with a timeout.
func NewService(cfg Config, store movieStore, httpc *http.Client) *Service {
	ttl := cfg.DedupCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	workers := cfg.IngestWorkers
	if workers < 1 {
		workers = 5
	}
	return &Service{
		kobis:   newKobisClient(cfg.KobisAPIKey, cfg.KobisBaseURL, httpc),
		kmdb:    newKMDBClient(cfg.KMDBAPIKey, cfg.KMDBBaseURL, httpc),
		store:   store,
		dedup:   newMemoCache(ttl),
		workers: workers,
	}
}

// NormalizeDate converts a YYYY-MM-DD date to the YYYYMMDD form the sources
// expect, defaulting to yesterday when empty.
func NormalizeDate(date string) string {
	d := strings.TrimSpace(date)
	if d == "" {
		return Yesterday()
	}
	return strings.ReplaceAll(d, "-", "")
}

// Yesterday returns yesterday's date as YYYYMMDD, the latest day the
// box-office source has data for.
func Yesterday() string {
	return time.Now().AddDate(0, 0, -1).Format("20060102")
}

// BoxOffice returns the ranked list for a date without persisting anything.
func (s *Service) BoxOffice(ctx context.Context, date string) ([]models.BoxOfficeEntry, error) {
	return s.kobis.DailyBoxOffice(ctx, NormalizeDate(date))
}

// CompleteMovie builds the fully enriched record for one movie code: detail
// fetch, candidate search, reconciliation. Nothing is saved. When the detail
// record lacks a display title, the caller's title fills it and doubles as
// the search query.
func (s *Service) CompleteMovie(ctx context.Context, code, title string) (*models.Movie, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrMovieCodeRequired
	}

	detail, err := s.kobis.MovieInfo(ctx, code)
	if err != nil {
		return nil, err
	}

	movie := &models.Movie{
		ID:             detail.Code,
		Title:          detail.Title,
		OriginalTitle:  detail.TitleEn,
		ReleaseDate:    detail.OpenDate,
		Genres:         detail.Genres,
		RuntimeMinutes: detail.RuntimeMinutes,
	}
	if movie.ID == "" {
		movie.ID = code
	}
	if movie.Title == "" {
		movie.Title = strings.TrimSpace(title)
	}

	query := movie.Title

	if !s.kmdb.isConfigured() || query == "" {
		return movie, nil
	}

	candidates, err := s.kmdb.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	match := SelectBestCandidate(Primary{
		Title:          movie.Title,
		ReleaseDate:    movie.ReleaseDate,
		RuntimeMinutes: movie.RuntimeMinutes,
		Genres:         movie.Genres,
	}, candidates)
	if match == nil {
		log.Printf("[metadata] no search match title=%q candidates=%d", query, len(candidates))
		return movie, nil
	}

	log.Printf("[metadata] search match title=%q docId=%s score=%d", query, match.Candidate.DOCID, match.Score)

	if poster := ExtractPosterURL(match.Candidate); poster != "" {
		movie.PosterURL = poster
	}
	if plot := ExtractPlot(match.Candidate); plot != "" {
		movie.Description = plot
	}

	return movie, nil
}

// CheckDuplicate reports whether a stored movie shares the incoming title's
// normalized form, returning the existing id when one does. A failed scan is
// treated as "not a duplicate" so ingestion proceeds (fail open); the
// failure is logged.
func (s *Service) CheckDuplicate(title string) (bool, string) {
	key := NormalizeTitle(title)
	if key == "" {
		return false, ""
	}

	if cached, ok := s.dedup.get(key); ok {
		return cached.isDuplicate, cached.existingID
	}

	pairs, err := s.store.ListTitles()
	if err != nil {
		log.Printf("[metadata] duplicate scan failed; treating %q as new: %v", title, err)
		return false, ""
	}

	result := dupResult{}
	for _, pair := range pairs {
		if NormalizeTitle(pair.Title) == key {
			result = dupResult{isDuplicate: true, existingID: pair.ID}
			break
		}
	}

	s.dedup.set(key, result)
	return result.isDuplicate, result.existingID
}

// SaveMovie upserts the record, first substituting the id of an existing
// movie whose title normalizes to the same form so the write becomes an
// update rather than a duplicate insert.
func (s *Service) SaveMovie(movie *models.Movie) (*models.Movie, error) {
	if movie == nil || strings.TrimSpace(movie.Title) == "" {
		return nil, ErrTitleRequired
	}

	if isDup, existingID := s.CheckDuplicate(movie.Title); isDup && existingID != "" && existingID != movie.ID {
		log.Printf("[metadata] movie %q already stored as id=%s; updating", movie.Title, existingID)
		movie.ID = existingID
	}

	if err := s.store.Upsert(movie); err != nil {
		return nil, err
	}

	s.dedup.invalidate()
	return movie, nil
}

// IngestBoxOffice runs the full pipeline for every entry of a date's ranked
// list. Per-movie pipelines run concurrently and independently; one failure
// is reported in its slot and never aborts the rest.
func (s *Service) IngestBoxOffice(ctx context.Context, date string) ([]models.IngestResult, error) {
	entries, err := s.BoxOffice(ctx, date)
	if err != nil {
		return nil, err
	}

	results := make([]models.IngestResult, len(entries))
	p := pool.New().WithMaxGoroutines(s.workers)
	for idx, entry := range entries {
		idx, entry := idx, entry
		p.Go(func() {
			result := models.IngestResult{Code: entry.Code, Title: entry.Name}

			movie, err := s.CompleteMovie(ctx, entry.Code, entry.Name)
			if err != nil {
				result.Error = err.Error()
				results[idx] = result
				return
			}
			movie.AudienceTotal = entry.AudienceTotal

			saved, err := s.SaveMovie(movie)
			if err != nil {
				result.Error = err.Error()
				results[idx] = result
				return
			}

			result.Success = true
			result.MovieID = saved.ID
			results[idx] = result
		})
	}
	p.Wait()

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	log.Printf("[metadata] ingest date=%s saved=%d/%d", NormalizeDate(date), succeeded, len(entries))

	return results, nil
}

// AddFromSearch saves a movie built directly from one search candidate,
// selected by its document id among the results for the given title.
func (s *Service) AddFromSearch(ctx context.Context, docID, title string) (*models.Movie, error) {
	if strings.TrimSpace(docID) == "" {
		return nil, ErrMovieCodeRequired
	}
	if strings.TrimSpace(title) == "" {
		return nil, ErrTitleRequired
	}
	if !s.kmdb.isConfigured() {
		return nil, ErrSearchNotConfigured
	}

	candidates, err := s.kmdb.Search(ctx, title)
	if err != nil {
		return nil, err
	}

	var found *Candidate
	for idx := range candidates {
		if candidates[idx].DOCID == docID {
			found = &candidates[idx]
			break
		}
	}
	if found == nil {
		return nil, ErrCandidateNotFound
	}

	releaseDate := found.RepRlsDate
	if releaseDate == "" {
		releaseDate = found.ProdYear
	}
	runtime, _ := strconv.Atoi(strings.TrimSpace(found.Runtime))

	var genres []string
	for _, g := range strings.Split(found.Genre, ",") {
		if name := strings.TrimSpace(g); name != "" {
			genres = append(genres, name)
		}
	}

	movie := &models.Movie{
		ID:             docID,
		Title:          CleanTitle(found.Title),
		OriginalTitle:  found.TitleEng,
		ReleaseDate:    releaseDate,
		Genres:         genres,
		RuntimeMinutes: runtime,
		PosterURL:      ExtractPosterURL(found),
		Description:    ExtractPlot(found),
	}

	return s.SaveMovie(movie)
}
