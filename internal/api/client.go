package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"servodash/internal/models"
)

// StatusError is returned for any non-2xx response, whatever the body says.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("HTTP %d", e.Code) }

type Client struct {
	base string
	http *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient swaps the transport, for tests.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

func (c *Client) Latest(ctx context.Context) (models.TelemetrySample, error) {
	var out models.TelemetrySample
	err := c.getJSON(ctx, "/api/latest", &out)
	return out, err
}

func (c *Client) Stats(ctx context.Context) (models.SystemStats, error) {
	var out models.SystemStats
	err := c.getJSON(ctx, "/api/stats", &out)
	return out, err
}

func (c *Client) Measurements(ctx context.Context, limit int) ([]models.HistoryRow, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	var out []models.HistoryRow
	if err := c.getJSON(ctx, "/api/measurements?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, p string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+p, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 2048))
		return &StatusError{Code: res.StatusCode}
	}
	b, err := io.ReadAll(io.LimitReader(res.Body, 10<<20))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode %s: %w", p, err)
	}
	return nil
}
