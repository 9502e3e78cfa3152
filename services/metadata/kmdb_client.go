package metadata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Minimal KMDB client (free-text search over the movie database collection).

const defaultKMDBBaseURL = "http://api.koreafilm.or.kr/openapi-data2/wisenut/search_api/search_json2.jsp"

type kmdbClient struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

func newKMDBClient(apiKey, baseURL string, httpc *http.Client) *kmdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultKMDBBaseURL
	}
	return &kmdbClient{apiKey: apiKey, baseURL: baseURL, httpc: httpc}
}

func (c *kmdbClient) isConfigured() bool {
	return strings.TrimSpace(c.apiKey) != ""
}

// Candidate is one loosely-matching search result. Only the fields the
// reconciler consumes are typed; every other string-valued field is kept in
// extra so the poster extractor can fall back to a key scan.
type Candidate struct {
	DOCID      string
	Title      string
	TitleEng   string
	TitleOrg   string
	ProdYear   string
	RepRlsDate string
	Runtime    string
	Rating     string
	Genre      string
	Plot       string
	PlotTexts  []string
	Directors  []string
	Posters    string

	extra map[string]string
}

// UnmarshalJSON decodes the typed fields and collects the remaining
// string-valued fields for the poster key scan.
func (c *Candidate) UnmarshalJSON(data []byte) error {
	var raw struct {
		DOCID      string `json:"DOCID"`
		Title      string `json:"title"`
		TitleEng   string `json:"titleEng"`
		TitleOrg   string `json:"titleOrg"`
		ProdYear   string `json:"prodYear"`
		RepRlsDate string `json:"repRlsDate"`
		Runtime    string `json:"runtime"`
		Rating     string `json:"rating"`
		Genre      string `json:"genre"`
		Plot       string `json:"plot"`
		Posters    string `json:"posters"`
		Directors  struct {
			Director []struct {
				DirectorNm string `json:"directorNm"`
			} `json:"director"`
		} `json:"directors"`
		Plots struct {
			Plot []struct {
				PlotText string `json:"plotText"`
			} `json:"plot"`
		} `json:"plots"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.DOCID = raw.DOCID
	c.Title = raw.Title
	c.TitleEng = raw.TitleEng
	c.TitleOrg = raw.TitleOrg
	c.ProdYear = raw.ProdYear
	c.RepRlsDate = raw.RepRlsDate
	c.Runtime = raw.Runtime
	c.Rating = raw.Rating
	c.Genre = raw.Genre
	c.Plot = raw.Plot
	c.Posters = raw.Posters

	c.Directors = c.Directors[:0]
	for _, d := range raw.Directors.Director {
		if name := strings.TrimSpace(d.DirectorNm); name != "" {
			c.Directors = append(c.Directors, name)
		}
	}
	c.PlotTexts = c.PlotTexts[:0]
	for _, p := range raw.Plots.Plot {
		if text := strings.TrimSpace(p.PlotText); text != "" {
			c.PlotTexts = append(c.PlotTexts, text)
		}
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err == nil {
		c.extra = make(map[string]string)
		for key, value := range fields {
			if s, ok := value.(string); ok {
				c.extra[key] = s
			}
		}
	}

	return nil
}

type kmdbSearchResponse struct {
	TotalCount int `json:"TotalCount"`
	Data       []struct {
		CollName string      `json:"CollName"`
		Count    int         `json:"Count"`
		Result   []Candidate `json:"Result"`
	} `json:"Data"`
}

// Search returns up to listCount candidates for the free-text title query.
func (c *kmdbClient) Search(ctx context.Context, title string) ([]Candidate, error) {
	params := url.Values{}
	params.Set("collection", "kmdb_new2")
	params.Set("ServiceKey", c.apiKey)
	params.Set("detail", "Y")
	params.Set("listCount", "10")
	params.Set("query", title)

	endpoint := c.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{Source: "kmdb", Err: err}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &FetchError{Source: "kmdb", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{Source: "kmdb", Status: resp.StatusCode}
	}

	var body kmdbSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &ParseError{Source: "kmdb", Err: err}
	}

	var candidates []Candidate
	for _, coll := range body.Data {
		candidates = append(candidates, coll.Result...)
	}
	return candidates, nil
}
