package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/kelsos/dash33/internal/config"
	"github.com/kelsos/dash33/internal/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// HTTPError is returned for any response whose status is not 200
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: HTTP error %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: HTTP error %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// APIClient handles all HTTP communication with the wallet service
type APIClient struct {
	config     *config.Config
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client with the given configuration
func NewAPIClient(cfg *config.Config) *APIClient {
	return &APIClient{
		config:  cfg,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// BuildURL constructs a full URL for the given endpoint
func (c *APIClient) BuildURL(endpoint string) string {
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return c.baseURL + endpoint
}

// Get makes a GET request to the specified endpoint
func (c *APIClient) Get(ctx context.Context, endpoint string, result interface{}) error {
	return c.request(ctx, http.MethodGet, endpoint, nil, result)
}

// Post makes a POST request to the specified endpoint
func (c *APIClient) Post(ctx context.Context, endpoint string, body interface{}, result interface{}) error {
	return c.request(ctx, http.MethodPost, endpoint, body, result)
}

// request is the core HTTP request method
func (c *APIClient) request(ctx context.Context, method, endpoint string, body interface{}, result interface{}) error {
	url := c.BuildURL(endpoint)
	start := time.Now()
	logger.Debug("Starting %s request to %s", method, url)

	var requestBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error marshaling request body: %w", err)
		}
		requestBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, requestBody)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		elapsed := time.Since(start)
		logger.Error("Request to %s failed after %v: %v", url, elapsed, err)
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	elapsed := time.Since(start)
	logger.Debug("Request to %s completed in %v with status %d", url, elapsed, resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logger.Error("%s: HTTP error %d: %s", url, resp.StatusCode, string(bodyBytes))
		return &HTTPError{
			Method:     method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(bodyBytes)),
		}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			logger.Error("%s: Error decoding response: %v", url, err)
			return fmt.Errorf("error decoding response: %w", err)
		}
	}

	return nil
}

// Ping checks if the endpoint answers with 200
func (c *APIClient) Ping(ctx context.Context, endpoint string) error {
	return c.request(ctx, http.MethodGet, endpoint, nil, nil)
}

// WaitForAPIReady pings endpoint until it answers or the configured attempts run out
func (c *APIClient) WaitForAPIReady(ctx context.Context, endpoint string) bool {
	attempts := c.config.APIReadyAttempts
	logger.Info("Checking API readiness...")

	for attempt := 1; attempt <= attempts; attempt++ {
		logger.Debug("Checking API readiness (attempt %d/%d)...", attempt, attempts)

		if err := c.Ping(ctx, endpoint); err == nil {
			logger.Info("API is ready!")
			return true
		}

		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			logger.Error("Stopped waiting for API: %v", ctx.Err())
			return false
		case <-time.After(c.config.APIReadyDelay):
		}
	}

	logger.Error("API failed to become ready after %d attempts", attempts)
	return false
}

// PathEscape escapes a single path segment such as a wallet id
func PathEscape(segment string) string {
	return url.PathEscape(segment)
}
