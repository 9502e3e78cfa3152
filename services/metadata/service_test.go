package metadata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinebase/internal/database"
	"cinebase/models"
)

type fakeStore struct {
	mu      sync.Mutex
	movies  map[string]models.Movie
	listErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{movies: make(map[string]models.Movie)}
}

func (s *fakeStore) Upsert(movie *models.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.movies[movie.ID]; ok {
		movie.CreatedAt = existing.CreatedAt
	} else if movie.CreatedAt.IsZero() {
		movie.CreatedAt = time.Now().UTC()
	}
	s.movies[movie.ID] = *movie
	return nil
}

func (s *fakeStore) ListTitles() ([]database.TitlePair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var pairs []database.TitlePair
	for id, m := range s.movies {
		pairs = append(pairs, database.TitlePair{ID: id, Title: m.Title})
	}
	return pairs, nil
}

// newTestSources stands up a combined upstream that answers both the ranked
// list and the search endpoints, keyed on URL path and query.
func newTestSources(t *testing.T, failCodes map[string]bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "searchDailyBoxOfficeList"):
			w.Write([]byte(boxOfficeBody))
		case strings.Contains(r.URL.Path, "searchMovieInfo"):
			code := r.URL.Query().Get("movieCd")
			if failCodes[code] {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			if code == "20183782" {
				w.Write([]byte(movieInfoBody))
				return
			}
			if code == "19990000" {
				// Some registry records carry no display title at all.
				w.Write([]byte(`{"movieInfoResult": {"movieInfo": {"movieCd": "19990000", "movieNm": "", "movieNmEn": "", "openDt": "", "showTm": "0", "genres": []}}}`))
				return
			}
			w.Write([]byte(`{"movieInfoResult": {"movieInfo": {"movieCd": "` + code + `", "movieNm": "알라딘", "movieNmEn": "Aladdin", "openDt": "20190523", "showTm": "128", "genres": []}}}`))
		default:
			// search endpoint
			if r.URL.Query().Get("query") == "기생충" {
				w.Write([]byte(kmdbSearchBody))
				return
			}
			w.Write([]byte(`{"TotalCount": 0, "Data": []}`))
		}
	}))
}

func newTestService(t *testing.T, store *fakeStore, srv *httptest.Server, kmdbKey string) *Service {
	t.Helper()
	return NewService(Config{
		KobisAPIKey:   "test-key",
		KMDBAPIKey:    kmdbKey,
		KobisBaseURL:  srv.URL,
		KMDBBaseURL:   srv.URL + "/search",
		DedupCacheTTL: time.Minute,
		IngestWorkers: 2,
	}, store, srv.Client())
}

func TestCompleteMovieEnriched(t *testing.T) {
	srv := newTestSources(t, nil)
	defer srv.Close()

	svc := newTestService(t, newFakeStore(), srv, "kmdb-key")

	movie, err := svc.CompleteMovie(context.Background(), "20183782", "")
	require.NoError(t, err)

	assert.Equal(t, "20183782", movie.ID)
	assert.Equal(t, "기생충", movie.Title)
	assert.Equal(t, "Parasite", movie.OriginalTitle)
	assert.Equal(t, 131, movie.RuntimeMinutes)
	assert.Equal(t, "https://search.pstatic.net/poster1.jpg", movie.PosterURL)
	assert.Equal(t, "전원 백수인 기택네 가족.", movie.Description)
}

func TestCompleteMovieWithoutSearchKey(t *testing.T) {
	srv := newTestSources(t, nil)
	defer srv.Close()

	svc := newTestService(t, newFakeStore(), srv, "")

	movie, err := svc.CompleteMovie(context.Background(), "20183782", "")
	require.NoError(t, err)

	// The canonical record survives; enrichment fields stay empty.
	assert.Equal(t, "기생충", movie.Title)
	assert.Empty(t, movie.PosterURL)
	assert.Empty(t, movie.Description)
}

func TestCompleteMovieTitleFallback(t *testing.T) {
	srv := newTestSources(t, nil)
	defer srv.Close()

	svc := newTestService(t, newFakeStore(), srv, "kmdb-key")

	movie, err := svc.CompleteMovie(context.Background(), "19990000", "기생충")
	require.NoError(t, err)

	// The registry record had no display title; the caller's fills it and
	// drives the candidate search.
	assert.Equal(t, "기생충", movie.Title)
	assert.Equal(t, "https://search.pstatic.net/poster1.jpg", movie.PosterURL)
}

func TestCompleteMovieRequiresCode(t *testing.T) {
	srv := newTestSources(t, nil)
	defer srv.Close()

	svc := newTestService(t, newFakeStore(), srv, "")
	_, err := svc.CompleteMovie(context.Background(), "  ", "기생충")
	assert.ErrorIs(t, err, ErrMovieCodeRequired)
}

func TestSaveMovieDedupUpdatesExisting(t *testing.T) {
	srv := newTestSources(t, nil)
	defer srv.Close()

	store := newFakeStore()
	store.movies["old-id"] = models.Movie{ID: "old-id", Title: "기생충", CreatedAt: time.Now().UTC()}

	svc := newTestService(t, store, srv, "")

	saved, err := svc.SaveMovie(&models.Movie{ID: "new-id", Title: " 기생충!! ", Description: "updated"})
	require.NoError(t, err)

	assert.Equal(t, "old-id", saved.ID, "duplicate title should reuse the stored id")
	assert.Len(t, store.movies, 1)
	assert.Equal(t, "updated", store.movies["old-id"].Description)
}

func TestSaveMovieRequiresTitle(t *testing.T) {
	srv := newTestSources(t, nil)
	defer srv.Close()

	svc := newTestService(t, newFakeStore(), srv, "")
	_, err := svc.SaveMovie(&models.Movie{ID: "x", Title: "  "})
	assert.ErrorIs(t, err, ErrTitleRequired)
}

func TestCheckDuplicateFailOpen(t *testing.T) {
	srv := newTestSources(t, nil)
	defer srv.Close()

	store := newFakeStore()
	store.listErr = errors.New("database locked")

	svc := newTestService(t, store, srv, "")

	isDup, existingID := svc.CheckDuplicate("기생충")
	assert.False(t, isDup, "scan failure must be treated as non-duplicate")
	assert.Empty(t, existingID)
}

func TestCheckDuplicateMemoized(t *testing.T) {
	srv := newTestSources(t, nil)
	defer srv.Close()

	store := newFakeStore()
	store.movies["m1"] = models.Movie{ID: "m1", Title: "기생충"}

	svc := newTestService(t, store, srv, "")

	isDup, id := svc.CheckDuplicate("기생충")
	require.True(t, isDup)
	require.Equal(t, "m1", id)

	// A scan failure after the first lookup must not surface while the memo
	// entry is fresh.
	store.listErr = errors.New("database locked")
	isDup, id = svc.CheckDuplicate("기 생 충")
	assert.True(t, isDup)
	assert.Equal(t, "m1", id)
}

func TestIngestBoxOfficePartialFailure(t *testing.T) {
	srv := newTestSources(t, map[string]bool{"20196309": true})
	defer srv.Close()

	store := newFakeStore()
	svc := newTestService(t, store, srv, "kmdb-key")

	results, err := svc.IngestBoxOffice(context.Background(), "2019-06-01")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.True(t, results[0].Success)
	assert.Equal(t, "20183782", results[0].MovieID)
	assert.False(t, results[1].Success)
	assert.NotEmpty(t, results[1].Error)

	assert.Len(t, store.movies, 1)
	saved := store.movies["20183782"]
	assert.Equal(t, int64(10083172), saved.AudienceTotal)
}

func TestAddFromSearch(t *testing.T) {
	srv := newTestSources(t, nil)
	defer srv.Close()

	store := newFakeStore()
	svc := newTestService(t, store, srv, "kmdb-key")

	movie, err := svc.AddFromSearch(context.Background(), "F12345", "기생충")
	require.NoError(t, err)

	assert.Equal(t, "F12345", movie.ID)
	assert.Equal(t, "기생충", movie.Title)
	assert.Equal(t, []string{"드라마", "스릴러"}, movie.Genres)
	assert.Equal(t, 131, movie.RuntimeMinutes)
	assert.Len(t, store.movies, 1)
}

func TestAddFromSearchUnknownDocID(t *testing.T) {
	srv := newTestSources(t, nil)
	defer srv.Close()

	svc := newTestService(t, newFakeStore(), srv, "kmdb-key")
	_, err := svc.AddFromSearch(context.Background(), "nope", "기생충")
	assert.ErrorIs(t, err, ErrCandidateNotFound)
}

func TestAddFromSearchNotConfigured(t *testing.T) {
	srv := newTestSources(t, nil)
	defer srv.Close()

	svc := newTestService(t, newFakeStore(), srv, "")
	_, err := svc.AddFromSearch(context.Background(), "F12345", "기생충")
	assert.ErrorIs(t, err, ErrSearchNotConfigured)
}

func TestNormalizeDate(t *testing.T) {
	assert.Equal(t, "20190601", NormalizeDate("2019-06-01"))
	assert.Equal(t, "20190601", NormalizeDate("20190601"))
	assert.Equal(t, Yesterday(), NormalizeDate("  "))
}
