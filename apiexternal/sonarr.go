package apiexternal

import (
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

type SonarrSeries struct {
	Title             string `json:"title"`
	Year              int    `json:"year"`
	TvdbID            int    `json:"tvdbId"`
	ImdbID            string `json:"imdbId"`
	TitleSlug         string `json:"titleSlug"`
	Overview          string `json:"overview"`
	Status            string `json:"status"`
	Monitored         bool   `json:"monitored"`
	ID                int    `json:"id,omitempty"`
	QualityProfileID  int    `json:"qualityProfileId,omitempty"`
	RootFolderPath    string `json:"rootFolderPath,omitempty"`
	SeasonFolder      bool   `json:"seasonFolder,omitempty"`
}

type SonarrClient struct {
	BaseURL string
	ApiKey  string
	Client  *RLHTTPClient
}

var SonarrApi SonarrClient

func NewSonarrClient(baseurl string, apikey string, seconds int, calls int) {
	if seconds == 0 {
		seconds = 1
	}
	if calls == 0 {
		calls = 5
	}
	rl := rate.NewLimiter(rate.Every(time.Duration(seconds)*time.Second), calls)
	SonarrApi = SonarrClient{BaseURL: baseurl, ApiKey: apikey, Client: NewClient(rl, 0)}
}

func (s SonarrClient) LookupSeries(term string) ([]SonarrSeries, error) {
	req := jsonRequest("GET", s.BaseURL+"/api/v3/series/lookup?term="+url.QueryEscape(term), "")
	req.Header.Set("X-Api-Key", s.ApiKey)
	var result []SonarrSeries
	err := s.Client.DoJson(req, &result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s SonarrClient) LookupSeriesByTvdb(tvdbid int) ([]SonarrSeries, error) {
	return s.LookupSeries("tvdb:" + strconv.Itoa(tvdbid))
}

func (s SonarrClient) AddSeries(series SonarrSeries) (SonarrSeries, error) {
	body, _ := json.Marshal(series)
	req := jsonRequest("POST", s.BaseURL+"/api/v3/series", string(body))
	req.Header.Set("X-Api-Key", s.ApiKey)
	var result SonarrSeries
	err := s.Client.DoJson(req, &result)
	if err != nil {
		return SonarrSeries{}, err
	}
	return result, nil
}
