package apiexternal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

//RLHTTPClient Rate Limited HTTP Client
type RLHTTPClient struct {
	client      *http.Client
	Ratelimiter *rate.Limiter
}

//DoJson dispatches the HTTP request and decodes the json body into jsonobj
func (c *RLHTTPClient) DoJson(req *http.Request, jsonobj interface{}) error {
	if c.Ratelimiter != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.Ratelimiter.Wait(ctx); err != nil {
			return errors.New("please wait")
		}
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || resp.StatusCode == 204 {
		return errors.New(strconv.Itoa(resp.StatusCode))
	}
	errd := json.NewDecoder(resp.Body).Decode(&jsonobj)
	if errd != nil {
		return errd
	}
	return nil
}

func jsonRequest(method string, url string, body string) *http.Request {
	req, _ := http.NewRequest(method, url, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func formRequest(url string, form string) *http.Request {
	req, _ := http.NewRequest("POST", url, strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

//NewClient return http client with a ratelimiter
func NewClient(rl *rate.Limiter, timeoutseconds int) *RLHTTPClient {
	if timeoutseconds == 0 {
		timeoutseconds = 10
	}
	c := &RLHTTPClient{
		client: &http.Client{Timeout: time.Duration(timeoutseconds) * time.Second,
			Transport: &http.Transport{MaxIdleConns: 20, MaxConnsPerHost: 10, DisableCompression: false, IdleConnTimeout: 20 * time.Second}},
		Ratelimiter: rl,
	}
	return c
}
