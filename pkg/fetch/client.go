// Package fetch loads the JSON documents a scene is built from.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"rando/internal/models"
)

const (
	defaultUserAgent = "rando-scene/1.0"
	// maxBodySize caps a single document. DEM grids are the largest payloads.
	maxBodySize = 64 << 20
)

var (
	errInvalidJSON  = errors.New("response body is not valid JSON")
	errBodyTooLarge = errors.New("response body too large")
)

// Client fetches JSON documents over HTTP.
type Client struct {
	httpClient *http.Client
	userAgent  string
	// maxBody overrides maxBodySize when positive.
	maxBody int64
}

// NewClient returns a Client with the given request timeout. A zero timeout
// leaves requests bounded by their context only.
func NewClient(userAgent string, timeout time.Duration) *Client {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
	}
}

// FetchJSON GETs url and returns the raw body. Every failure is a
// *models.TransportError.
func (c *Client) FetchJSON(ctx context.Context, url string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &models.TransportError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &models.TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &models.TransportError{
			URL:    url,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	limit := c.bodyLimit()
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, &models.TransportError{URL: url, Status: resp.StatusCode, Err: err}
	}
	if int64(len(body)) > limit {
		return nil, &models.TransportError{
			URL:    url,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("%w: more than %d bytes", errBodyTooLarge, limit),
		}
	}
	return validJSON(url, body)
}

func (c *Client) bodyLimit() int64 {
	if c.maxBody > 0 {
		return c.maxBody
	}
	return maxBodySize
}

func validJSON(url string, body []byte) (json.RawMessage, error) {
	if !json.Valid(body) {
		return nil, &models.TransportError{URL: url, Err: errInvalidJSON}
	}
	return json.RawMessage(body), nil
}
