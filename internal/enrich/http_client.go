package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultHTTPTimeout = 15 * time.Second

// Config controls how the HTTP client reaches the upstream profile API.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Name       string
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPClient fetches profiles from a JSON API and maps them to Profile.
type HTTPClient struct {
	name       string
	baseURL    string
	apiKey     string
	httpClient httpDoer
}

// NewHTTPClient constructs an HTTP provider with the given configuration.
func NewHTTPClient(cfg Config) *HTTPClient {
	name := cfg.Name
	if name == "" {
		name = "http"
	}
	return &HTTPClient{
		name:       name,
		baseURL:    normalizeBaseURL(cfg.BaseURL),
		apiKey:     cfg.APIKey,
		httpClient: resolveHTTPClient(cfg.HTTPClient),
	}
}

// Name identifies the provider in logs and metrics.
func (c *HTTPClient) Name() string { return c.name }

type profileResponse struct {
	Height        *int     `json:"height"`
	Weight        *int     `json:"weight"`
	Positions     []string `json:"positions"`
	Nationalities []string `json:"nationalities"`
}

// FetchProfile retrieves the upstream profile for one client. Deadline
// overruns are classified as TimeoutError so callers can tell a slow
// provider from a broken one.
func (c *HTTPClient) FetchProfile(ctx context.Context, clientID string) (Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/profiles/"+clientID, nil)
	if err != nil {
		return Profile{}, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Profile{}, &TimeoutError{Provider: c.name, Err: err}
		}
		return Profile{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return Profile{}, &NotFoundError{ClientID: clientID}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Profile{}, fmt.Errorf("enrich: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Profile{}, err
	}
	return Profile{
		HeightCM:      payload.Height,
		WeightKG:      payload.Weight,
		Positions:     payload.Positions,
		Nationalities: payload.Nationalities,
	}, nil
}

func normalizeBaseURL(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimRight(raw, "/")
}

func resolveHTTPClient(client *http.Client) httpDoer {
	if client != nil {
		return client
	}
	return &http.Client{Timeout: defaultHTTPTimeout}
}
