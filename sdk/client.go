// Package sdk provides a Go client for a scorekit server: an HTTP client for
// the REST surface and a websocket consumer for live high score notifications.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"scorekit/core"
)

// Client talks to a scorekit HTTP API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithAuthToken sets the bearer token sent with every request.
func WithAuthToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a client for the API rooted at baseURL, e.g.
// "http://localhost:8080/api".
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		buf = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
			apiErr.Message = resp.Status
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// SubmitScore records a score for the authenticated user and returns the
// stored record.
func (c *Client) SubmitScore(ctx context.Context, score int) (core.ScoreRecord, error) {
	var rec core.ScoreRecord
	err := c.do(ctx, http.MethodPost, "/scores", map[string]int{"score": score}, &rec)
	return rec, err
}

// TopScores returns up to limit leaderboard entries, best first.
func (c *Client) TopScores(ctx context.Context, limit int) ([]core.ScoreRecord, error) {
	var records []core.ScoreRecord
	err := c.do(ctx, http.MethodGet, "/leaderboard?limit="+strconv.Itoa(limit), nil, &records)
	return records, err
}

// TopScore returns the single best entry, or an empty slice when the board
// has no scores yet.
func (c *Client) TopScore(ctx context.Context) ([]core.ScoreRecord, error) {
	var records []core.ScoreRecord
	err := c.do(ctx, http.MethodGet, "/leaderboard/top", nil, &records)
	return records, err
}

// MyScores returns the authenticated user's submissions, newest first.
func (c *Client) MyScores(ctx context.Context) ([]core.ScoreRecord, error) {
	var records []core.ScoreRecord
	err := c.do(ctx, http.MethodGet, "/users/me/scores", nil, &records)
	return records, err
}

// MyBestScore returns the authenticated user's best submission.
func (c *Client) MyBestScore(ctx context.Context) (core.ScoreRecord, error) {
	var rec core.ScoreRecord
	err := c.do(ctx, http.MethodGet, "/users/me/scores/best", nil, &rec)
	return rec, err
}

// MyRanking returns the authenticated user's leaderboard position.
func (c *Client) MyRanking(ctx context.Context) (core.Ranking, error) {
	var r core.Ranking
	err := c.do(ctx, http.MethodGet, "/users/me/ranking", nil, &r)
	return r, err
}

// Stats returns aggregate leaderboard statistics.
func (c *Client) Stats(ctx context.Context) (core.Stats, error) {
	var st core.Stats
	err := c.do(ctx, http.MethodGet, "/leaderboard/stats", nil, &st)
	return st, err
}

// Health reports whether the server considers itself healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

// NotificationURL derives the websocket endpoint from the client's base URL.
func (c *Client) NotificationURL() (string, error) {
	u, err := url.Parse(c.baseURL + "/ws")
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return u.String(), nil
}
