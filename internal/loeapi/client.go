package loeapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Jurkash/ha-loe-outages/internal/schedule"
)

const defaultTimeout = 10 * time.Second

// TransportError describes a failed request to the outage schedule API.
type TransportError struct {
	Endpoint string
	Status   int
	Body     string
	Err      error
}

func (e *TransportError) Error() string {
	if e == nil {
		return "transport error"
	}
	if e.Err != nil {
		return fmt.Sprintf("schedule request failed for %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("schedule request failed for %s: status %d: %s", e.Endpoint, e.Status, e.Body)
}

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Client talks to the remote outage schedule API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return NewClientWithHTTPClient(baseURL, &http.Client{Timeout: defaultTimeout})
}

func NewClientWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if httpClient.Timeout == 0 {
		httpClient.Timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		httpClient: httpClient,
	}
}

// FetchHistory retrieves the complete published schedule set. Decode order
// is preserved; the store sorts on adoption.
func (c *Client) FetchHistory(ctx context.Context) ([]schedule.Schedule, error) {
	body, err := c.get(ctx, c.baseURL+"/Schedule")
	if err != nil {
		return nil, err
	}
	return schedule.DecodeSchedules(body)
}

// FetchLatest retrieves only the most recently published schedule.
func (c *Client) FetchLatest(ctx context.Context) (schedule.Schedule, error) {
	body, err := c.get(ctx, c.baseURL+"/Schedule/latest")
	if err != nil {
		return schedule.Schedule{}, err
	}
	return schedule.DecodeSchedule(body)
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, &TransportError{Endpoint: endpoint, Status: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	return body, nil
}
