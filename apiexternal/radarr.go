package apiexternal

import (
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

type RadarrMovie struct {
	Title            string `json:"title"`
	Year             int    `json:"year"`
	TmdbID           int    `json:"tmdbId"`
	ImdbID           string `json:"imdbId"`
	TitleSlug        string `json:"titleSlug"`
	Overview         string `json:"overview"`
	Status           string `json:"status"`
	Monitored        bool   `json:"monitored"`
	ID               int    `json:"id,omitempty"`
	QualityProfileID int    `json:"qualityProfileId,omitempty"`
	RootFolderPath   string `json:"rootFolderPath,omitempty"`
}

type RadarrClient struct {
	BaseURL string
	ApiKey  string
	Client  *RLHTTPClient
}

var RadarrApi RadarrClient

func NewRadarrClient(baseurl string, apikey string, seconds int, calls int) {
	if seconds == 0 {
		seconds = 1
	}
	if calls == 0 {
		calls = 5
	}
	rl := rate.NewLimiter(rate.Every(time.Duration(seconds)*time.Second), calls)
	RadarrApi = RadarrClient{BaseURL: baseurl, ApiKey: apikey, Client: NewClient(rl, 0)}
}

func (r RadarrClient) LookupMovie(term string) ([]RadarrMovie, error) {
	req := jsonRequest("GET", r.BaseURL+"/api/v3/movie/lookup?term="+url.QueryEscape(term), "")
	req.Header.Set("X-Api-Key", r.ApiKey)
	var result []RadarrMovie
	err := r.Client.DoJson(req, &result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r RadarrClient) LookupMovieByTmdb(tmdbid int) ([]RadarrMovie, error) {
	return r.LookupMovie("tmdb:" + strconv.Itoa(tmdbid))
}

func (r RadarrClient) AddMovie(movie RadarrMovie) (RadarrMovie, error) {
	body, _ := json.Marshal(movie)
	req := jsonRequest("POST", r.BaseURL+"/api/v3/movie", string(body))
	req.Header.Set("X-Api-Key", r.ApiKey)
	var result RadarrMovie
	err := r.Client.DoJson(req, &result)
	if err != nil {
		return RadarrMovie{}, err
	}
	return result, nil
}
