package metadata

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// Match scoring weights. These values (and the 3-point acceptance threshold)
// are tunables carried over for behavioral compatibility, not a calibrated
// similarity metric.
const (
	scoreExactTitle    = 5
	scoreTitleContains = 3
	scoreYearMatch     = 3
	scoreHasDirector   = 1
	matchThreshold     = 3
)

// Primary is the canonical record the reconciler enriches: registry title,
// release date, runtime and genres from the detail source.
type Primary struct {
	Title          string
	ReleaseDate    string
	RuntimeMinutes int
	Genres         []string
}

// Match pairs the selected candidate with its score.
type Match struct {
	Candidate *Candidate
	Score     int
}

// highlight markup embedded in search-result titles
var titleTagRe = regexp.MustCompile(`!HS|!HE`)

// everything that is not an ASCII word character, whitespace, or Hangul
var nonWordRe = regexp.MustCompile(`[^\w\s가-힣]`)

// CleanTitle strips the search source's highlight tokens from a title.
func CleanTitle(title string) string {
	return strings.TrimSpace(titleTagRe.ReplaceAllString(title, ""))
}

// NormalizeTitle reduces a title to its canonical comparable form: strip
// everything outside the word/Hangul range, lower-case, drop all whitespace.
// Two titles are duplicates iff their normalized forms are equal.
func NormalizeTitle(title string) string {
	stripped := nonWordRe.ReplaceAllString(title, "")
	return strings.Join(strings.Fields(strings.ToLower(stripped)), "")
}

// normalizeForMatch is the looser variant used for candidate scoring: it
// collapses runs of whitespace instead of removing them.
func normalizeForMatch(title string) string {
	stripped := nonWordRe.ReplaceAllString(title, "")
	return strings.Join(strings.Fields(strings.ToLower(stripped)), " ")
}

// ReleaseYear extracts the 4-digit year prefix of a loosely-formatted
// release date.
func ReleaseYear(releaseDate string) string {
	date := strings.TrimSpace(releaseDate)
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}

// SelectBestCandidate scores each candidate against the primary record and
// returns the best one, or nil when no candidate reaches the acceptance
// threshold. Candidates are visited in input order and only a strictly
// higher score displaces the current best, so the first candidate reaching
// the maximum wins ties.
func SelectBestCandidate(primary Primary, candidates []Candidate) *Match {
	primaryNorm := normalizeForMatch(primary.Title)
	primaryYear := ReleaseYear(primary.ReleaseDate)

	var best *Match
	for idx := range candidates {
		candidate := &candidates[idx]
		score := scoreCandidate(primaryNorm, primaryYear, candidate)
		if best == nil || score > best.Score {
			best = &Match{Candidate: candidate, Score: score}
		}
	}

	if best == nil || best.Score < matchThreshold {
		return nil
	}
	return best
}

func scoreCandidate(primaryNorm, primaryYear string, candidate *Candidate) int {
	candidateNorm := normalizeForMatch(CleanTitle(candidate.Title))

	score := 0
	switch {
	case primaryNorm != "" && primaryNorm == candidateNorm:
		score += scoreExactTitle
	case primaryNorm != "" && candidateNorm != "" &&
		(strings.Contains(primaryNorm, candidateNorm) || strings.Contains(candidateNorm, primaryNorm)):
		score += scoreTitleContains
	}

	if primaryYear != "" && strings.TrimSpace(candidate.ProdYear) == primaryYear {
		score += scoreYearMatch
	}

	if len(candidate.Directors) > 0 {
		score += scoreHasDirector
	}

	return score
}

// posterFieldNames is the explicit ordered list of fields tried before the
// key scan.
var posterFieldNames = []string{"posters", "posterUrl", "poster"}

// ExtractPosterURL walks the candidate's poster-bearing fields in a fixed
// order and returns the first value that yields a valid absolute URL, or ""
// when none does. Pipe-delimited values contribute their first non-empty
// segment; a missing protocol prefix is repaired with https.
func ExtractPosterURL(candidate *Candidate) string {
	for _, value := range posterFieldValues(candidate) {
		if u := normalizePosterURL(value); u != "" {
			return u
		}
	}
	return ""
}

func posterFieldValues(candidate *Candidate) []string {
	var values []string
	seen := make(map[string]bool)

	lookup := func(name string) (string, bool) {
		if name == "posters" && candidate.Posters != "" {
			return candidate.Posters, true
		}
		if v, ok := candidate.extra[name]; ok {
			return v, true
		}
		return "", false
	}

	for _, name := range posterFieldNames {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			values = append(values, v)
			seen[strings.ToLower(name)] = true
		}
	}

	// Last resort: scan remaining fields whose key mentions "poster",
	// sorted so the result is deterministic.
	var scanKeys []string
	for key := range candidate.extra {
		lower := strings.ToLower(key)
		if seen[lower] || !strings.Contains(lower, "poster") {
			continue
		}
		scanKeys = append(scanKeys, key)
	}
	sort.Strings(scanKeys)
	for _, key := range scanKeys {
		if v := candidate.extra[key]; strings.TrimSpace(v) != "" {
			values = append(values, v)
		}
	}

	return values
}

func normalizePosterURL(value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return ""
	}

	if strings.Contains(raw, "|") {
		raw = ""
		for _, segment := range strings.Split(value, "|") {
			if s := strings.TrimSpace(segment); s != "" {
				raw = s
				break
			}
		}
		if raw == "" {
			return ""
		}
	}

	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return ""
	}
	return raw
}

// ExtractPlot prefers the flat plot field and falls back to the first entry
// of the nested plots structure.
func ExtractPlot(candidate *Candidate) string {
	if plot := strings.TrimSpace(candidate.Plot); plot != "" {
		return plot
	}
	if len(candidate.PlotTexts) > 0 {
		return candidate.PlotTexts[0]
	}
	return ""
}
