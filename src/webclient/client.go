package webclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// Result is the outcome of a publish attempt. Code is the HTTP status of a
// completed exchange; 0 means the exchange never completed (timeout, DNS,
// refused connection) and renders as "unknown". Only 200 is a success and
// failures are never retried automatically; an admin re-runs the selection.
type Result struct {
	Code int
}

// OK reports whether the website accepted the video.
func (r Result) OK() bool { return r.Code == http.StatusOK }

func (r Result) String() string {
	if r.Code == 0 {
		return "unknown"
	}
	return strconv.Itoa(r.Code)
}

// Client pushes the chosen video to the game website's backend and can read
// back the video the site currently displays.
type Client struct {
	endpointURL string
	statusURL   string
	token       string
	client      *http.Client
}

func New(endpointURL, statusURL, token string) *Client {
	return &Client{
		endpointURL: endpointURL,
		statusURL:   statusURL,
		token:       token,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type publishRequest struct {
	VideoURL string `json:"video_url"`
}

// Publish POSTs the video URL with bearer auth and returns the status
// outcome. Transport-level failures map to the unknown sentinel instead of
// an error so callers can treat both shapes uniformly.
func (c *Client) Publish(ctx context.Context, videoURL string) Result {
	payload, err := json.Marshal(publishRequest{VideoURL: videoURL})
	if err != nil {
		return Result{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL, bytes.NewBuffer(payload))
	if err != nil {
		return Result{}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}
	}
	defer resp.Body.Close()

	return Result{Code: resp.StatusCode}
}

type featuredResponse struct {
	VideoURL  *string `json:"video_url"`
	UpdatedAt *string `json:"updatedAt"`
}

// CurrentFeatured reads the video currently displayed on the website.
// Best effort: any failure yields ok=false, never an error.
func (c *Client) CurrentFeatured(ctx context.Context) (string, time.Time, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.statusURL, nil)
	if err != nil {
		return "", time.Time{}, false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", time.Time{}, false
	}
	defer resp.Body.Close()

	var body featuredResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", time.Time{}, false
	}
	if body.VideoURL == nil {
		return "", time.Time{}, false
	}

	var updatedAt time.Time
	if body.UpdatedAt != nil {
		if parsed, err := time.Parse(time.RFC3339, *body.UpdatedAt); err == nil {
			updatedAt = parsed
		}
	}

	return *body.VideoURL, updatedAt, true
}
