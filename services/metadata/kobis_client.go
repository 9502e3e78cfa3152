package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cinebase/models"
)

// Minimal KOBIS client (daily box office ranking and per-code movie detail).

const defaultKobisBaseURL = "http://www.kobis.or.kr/kobisopenapi/webservice/rest"

type kobisClient struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

func newKobisClient(apiKey, baseURL string, httpc *http.Client) *kobisClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultKobisBaseURL
	}
	return &kobisClient{apiKey: apiKey, baseURL: baseURL, httpc: httpc}
}

// MovieDetail is the canonical record the registry returns for a movie code.
type MovieDetail struct {
	Code           string
	Title          string
	TitleEn        string
	OpenDate       string
	RuntimeMinutes int
	Genres         []string
}

type kobisBoxOfficeResponse struct {
	BoxOfficeResult struct {
		DailyBoxOfficeList []struct {
			Rank    string `json:"rank"`
			MovieCd string `json:"movieCd"`
			MovieNm string `json:"movieNm"`
			OpenDt  string `json:"openDt"`
			AudiCnt string `json:"audiCnt"`
			AudiAcc string `json:"audiAcc"`
		} `json:"dailyBoxOfficeList"`
	} `json:"boxOfficeResult"`
}

type kobisMovieInfoResponse struct {
	MovieInfoResult struct {
		MovieInfo struct {
			MovieCd   string `json:"movieCd"`
			MovieNm   string `json:"movieNm"`
			MovieNmEn string `json:"movieNmEn"`
			OpenDt    string `json:"openDt"`
			ShowTm    string `json:"showTm"`
			Genres    []struct {
				GenreNm string `json:"genreNm"`
			} `json:"genres"`
		} `json:"movieInfo"`
	} `json:"movieInfoResult"`
}

// DailyBoxOffice returns the ranked list for the given YYYYMMDD date.
func (c *kobisClient) DailyBoxOffice(ctx context.Context, date string) ([]models.BoxOfficeEntry, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("targetDt", date)

	var resp kobisBoxOfficeResponse
	if err := c.doGET(ctx, "/boxoffice/searchDailyBoxOfficeList.json", params, &resp); err != nil {
		return nil, err
	}

	list := resp.BoxOfficeResult.DailyBoxOfficeList
	if list == nil {
		return nil, &ParseError{Source: "kobis", Err: errors.New("missing dailyBoxOfficeList")}
	}

	rows := make([]models.BoxOfficeEntry, 0, len(list))
	for _, entry := range list {
		rank, _ := strconv.Atoi(entry.Rank)
		audiCnt, _ := strconv.ParseInt(entry.AudiCnt, 10, 64)
		audiAcc, _ := strconv.ParseInt(entry.AudiAcc, 10, 64)
		rows = append(rows, models.BoxOfficeEntry{
			Rank:          rank,
			Code:          entry.MovieCd,
			Name:          entry.MovieNm,
			OpenDate:      entry.OpenDt,
			AudienceCount: audiCnt,
			AudienceTotal: audiAcc,
		})
	}
	return rows, nil
}

// MovieInfo fetches the canonical detail record for a movie code.
func (c *kobisClient) MovieInfo(ctx context.Context, code string) (*MovieDetail, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("movieCd", code)

	var resp kobisMovieInfoResponse
	if err := c.doGET(ctx, "/movie/searchMovieInfo.json", params, &resp); err != nil {
		return nil, err
	}

	info := resp.MovieInfoResult.MovieInfo
	if info.MovieCd == "" && info.MovieNm == "" {
		return nil, &ParseError{Source: "kobis", Err: fmt.Errorf("missing movieInfo for code %s", code)}
	}

	runtime, _ := strconv.Atoi(strings.TrimSpace(info.ShowTm))
	genres := make([]string, 0, len(info.Genres))
	for _, g := range info.Genres {
		if name := strings.TrimSpace(g.GenreNm); name != "" {
			genres = append(genres, name)
		}
	}

	return &MovieDetail{
		Code:           info.MovieCd,
		Title:          info.MovieNm,
		TitleEn:        info.MovieNmEn,
		OpenDate:       info.OpenDt,
		RuntimeMinutes: runtime,
		Genres:         genres,
	}, nil
}

func (c *kobisClient) doGET(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &FetchError{Source: "kobis", Err: err}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return &FetchError{Source: "kobis", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &FetchError{Source: "kobis", Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ParseError{Source: "kobis", Err: err}
	}
	return nil
}
