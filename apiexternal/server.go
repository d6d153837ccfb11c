package apiexternal

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ServerClient talks to the media management server that owns all state.
// Every endpoint shape is a fixed contract, there is no negotiation.
type ServerClient struct {
	BaseURL string
	ApiKey  string
	Client  *RLHTTPClient
}

var ServerApi ServerClient

func NewServerClient(baseurl string, apikey string, seconds int, calls int, timeoutseconds int) {
	if seconds == 0 {
		seconds = 1
	}
	if calls == 0 {
		calls = 10
	}
	rl := rate.NewLimiter(rate.Every(time.Duration(seconds)*time.Second), calls)
	ServerApi = ServerClient{BaseURL: strings.TrimRight(baseurl, "/"), ApiKey: apikey, Client: NewClient(rl, timeoutseconds)}
}

// ActionResponse is the common status/message envelope.
type ActionResponse struct {
	Status  string `json:"status,omitempty"`
	Success bool   `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Ok reports whether the server accepted the action.
func (a ActionResponse) Ok() bool {
	return a.Success || strings.EqualFold(a.Status, "success")
}

// Text returns the server message, falling back to a generic one.
func (a ActionResponse) Text() string {
	if a.Message != "" {
		return a.Message
	}
	if a.Error != "" {
		return a.Error
	}
	if a.Ok() {
		return "ok"
	}
	return "communication error - please retry"
}

type MoveResponse struct {
	ActionResponse
	TaskID string `json:"task_id,omitempty"`
}

// MoveStatus is returned by both move status endpoints.
// Successes is only filled by the bulk endpoint.
type MoveStatus struct {
	Status    string   `json:"status"`
	Message   string   `json:"message,omitempty"`
	Successes []string `json:"successes,omitempty"`
}

type BulkMoveItem struct {
	PlexID      string `json:"plex_id"`
	MediaType   string `json:"media_type"`
	Destination string `json:"destination"`
}

type StagingFile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	MediaType string `json:"media_type"`
	Size      int64  `json:"size"`
}

type Candidate struct {
	Title  string `json:"title"`
	Year   int    `json:"year"`
	ImdbID string `json:"imdb_id,omitempty"`
	TvdbID int    `json:"tvdb_id,omitempty"`
	TmdbID int    `json:"tmdb_id,omitempty"`
}

type Enrichment struct {
	Title    string `json:"title"`
	Year     int    `json:"year"`
	Overview string `json:"overview"`
	Poster   string `json:"poster"`
	Status   string `json:"status"`
}

type PlexUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type WatchedResponse struct {
	ActionResponse
	NewStatus     *bool  `json:"new_status,omitempty"`
	NewStatusHTML string `json:"new_status_html,omitempty"`
}

func (s ServerClient) apiurl(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return s.BaseURL + path + sep + "apikey=" + url.QueryEscape(s.ApiKey)
}

func (s ServerClient) Move(mediaID string, mediaType string, newPath string) (MoveResponse, error) {
	body, _ := json.Marshal(map[string]string{"mediaId": mediaID, "mediaType": mediaType, "newPath": newPath})
	var result MoveResponse
	err := s.Client.DoJson(jsonRequest("POST", s.apiurl("/api/media/move"), string(body)), &result)
	if err != nil {
		return MoveResponse{}, err
	}
	return result, nil
}

func (s ServerClient) MoveStatus() (MoveStatus, error) {
	var result MoveStatus
	err := s.Client.DoJson(jsonRequest("GET", s.apiurl("/api/media/move_status"), ""), &result)
	if err != nil {
		return MoveStatus{}, err
	}
	return result, nil
}

func (s ServerClient) BulkMove(items []BulkMoveItem) (MoveResponse, error) {
	body, _ := json.Marshal(map[string]interface{}{"items": items})
	var result MoveResponse
	err := s.Client.DoJson(jsonRequest("POST", s.apiurl("/api/media/bulk_move"), string(body)), &result)
	if err != nil {
		return MoveResponse{}, err
	}
	return result, nil
}

func (s ServerClient) BulkMoveStatus(taskID string) (MoveStatus, error) {
	var result MoveStatus
	err := s.Client.DoJson(jsonRequest("GET", s.apiurl("/api/media/bulk_move_status/"+url.PathEscape(taskID)), ""), &result)
	if err != nil {
		return MoveStatus{}, err
	}
	return result, nil
}

func (s ServerClient) ToggleWatched(ratingKey string, userID string) (WatchedResponse, error) {
	body, _ := json.Marshal(map[string]string{"ratingKey": ratingKey, "userId": userID})
	var result WatchedResponse
	err := s.Client.DoJson(jsonRequest("POST", s.apiurl("/api/toggle_watched_status"), string(body)), &result)
	if err != nil {
		return WatchedResponse{}, err
	}
	return result, nil
}

func (s ServerClient) ToggleMonitored(mediaType string, id string, monitored bool) (ActionResponse, error) {
	body, _ := json.Marshal(map[string]interface{}{"mediaType": mediaType, "id": id, "monitored": monitored})
	var result ActionResponse
	err := s.Client.DoJson(jsonRequest("POST", s.apiurl("/api/toggle_monitored"), string(body)), &result)
	if err != nil {
		return ActionResponse{}, err
	}
	return result, nil
}

type stagingResponse struct {
	ActionResponse
	Files []StagingFile `json:"files"`
}

func (s ServerClient) Staging(mediaType string, filter string) ([]StagingFile, error) {
	u := "/api/staging"
	vals := url.Values{}
	if mediaType != "" {
		vals.Set("media_type", mediaType)
	}
	if filter != "" {
		vals.Set("filter", filter)
	}
	if len(vals) != 0 {
		u += "?" + vals.Encode()
	}
	var result stagingResponse
	err := s.Client.DoJson(jsonRequest("GET", s.apiurl(u), ""), &result)
	if err != nil {
		return nil, err
	}
	return result.Files, nil
}

type lookupResponse struct {
	ActionResponse
	Results []Candidate `json:"results"`
}

func (s ServerClient) Lookup(query string, mediaType string) ([]Candidate, error) {
	vals := url.Values{}
	vals.Set("query", query)
	vals.Set("media_type", mediaType)
	var result lookupResponse
	err := s.Client.DoJson(jsonRequest("GET", s.apiurl("/api/lookup?"+vals.Encode()), ""), &result)
	if err != nil {
		return nil, err
	}
	return result.Results, nil
}

func (s ServerClient) Enrich(id string) (Enrichment, error) {
	var result Enrichment
	err := s.Client.DoJson(jsonRequest("GET", s.apiurl("/api/enrich/"+url.PathEscape(id)), ""), &result)
	if err != nil {
		return Enrichment{}, err
	}
	return result, nil
}

func (s ServerClient) MapStaging(fileID string, mediaType string, targetID string) (ActionResponse, error) {
	body, _ := json.Marshal(map[string]string{"fileId": fileID, "mediaType": mediaType, "targetId": targetID})
	var result ActionResponse
	err := s.Client.DoJson(jsonRequest("POST", s.apiurl("/api/staging/map"), string(body)), &result)
	if err != nil {
		return ActionResponse{}, err
	}
	return result, nil
}

// QueueBatch posts a queue action for several torrent hashes. This endpoint
// takes a classic form body with a repeated hash key, not json.
func (s ServerClient) QueueBatch(action string, hashes []string) (ActionResponse, error) {
	vals := url.Values{}
	vals.Set("action", action)
	for idx := range hashes {
		vals.Add("hash", hashes[idx])
	}
	var result ActionResponse
	err := s.Client.DoJson(formRequest(s.apiurl("/api/queue/batch"), vals.Encode()), &result)
	if err != nil {
		return ActionResponse{}, err
	}
	return result, nil
}

// BulkDelete removes several staging files. Form encoded with a repeated id key.
func (s ServerClient) BulkDelete(ids []string) (ActionResponse, error) {
	vals := url.Values{}
	for idx := range ids {
		vals.Add("id", ids[idx])
	}
	var result ActionResponse
	err := s.Client.DoJson(formRequest(s.apiurl("/api/staging/bulk_delete"), vals.Encode()), &result)
	if err != nil {
		return ActionResponse{}, err
	}
	return result, nil
}

type usersResponse struct {
	ActionResponse
	Users []PlexUser `json:"users"`
}

func (s ServerClient) Users() ([]PlexUser, error) {
	var result usersResponse
	err := s.Client.DoJson(jsonRequest("GET", s.apiurl("/api/users"), ""), &result)
	if err != nil {
		return nil, err
	}
	return result.Users, nil
}
