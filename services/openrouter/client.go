package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"
)

const (
	// BaseURL is the OpenRouter API base URL
	BaseURL = "https://openrouter.ai/api/v1"
	// DefaultTimeout is the default HTTP client timeout for regular API calls
	DefaultTimeout = 30 * time.Second
	// DefaultDialTimeout is the timeout for establishing TCP connections
	DefaultDialTimeout = 10 * time.Second
	// DefaultTLSTimeout is the timeout for TLS handshake
	DefaultTLSTimeout = 10 * time.Second
	// DefaultHeaderTimeout is the timeout for waiting for response headers
	DefaultHeaderTimeout = 30 * time.Second
	// DefaultIdleTimeout is the keep-alive probe interval
	DefaultIdleTimeout = 90 * time.Second
)

// Client handles all OpenRouter API interactions
type Client struct {
	apiKey          string
	baseURL         string
	referer         string
	appTitle        string
	httpClient      *http.Client // For regular API calls
	streamingClient *http.Client // For streaming requests (no client-level timeout)
	retryConfig     RetryConfig
}

// Config holds configuration for the OpenRouter client
type Config struct {
	APIKey      string
	BaseURL     string
	Referer     string // Sent as HTTP-Referer, identifies the calling app
	AppTitle    string // Sent as X-Title
	Timeout     time.Duration
	RetryConfig *RetryConfig
}

// RetryConfig holds retry configuration for failed requests
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     2,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
	}
}

// NewClient creates a new OpenRouter API client
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Referer == "" {
		config.Referer = "https://galaxy-chat.app"
	}
	if config.AppTitle == "" {
		config.AppTitle = "Galaxy Chat"
	}

	retryConfig := DefaultRetryConfig()
	if config.RetryConfig != nil {
		retryConfig = *config.RetryConfig
	}

	// Do NOT set http.Client.Timeout for streaming, it kills long-running
	// streams. Transport-level timeouts cover connection establishment only.
	streamingTransport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   DefaultDialTimeout,
			KeepAlive: DefaultIdleTimeout,
		}).DialContext,
		TLSHandshakeTimeout:   DefaultTLSTimeout,
		ResponseHeaderTimeout: DefaultHeaderTimeout,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
	}

	return &Client{
		apiKey:   config.APIKey,
		baseURL:  config.BaseURL,
		referer:  config.Referer,
		appTitle: config.AppTitle,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		streamingClient: &http.Client{
			Transport: streamingTransport,
		},
		retryConfig: retryConfig,
	}
}

// GetRetryConfig returns the retry configuration
func (c *Client) GetRetryConfig() RetryConfig {
	return c.retryConfig
}

// setHeaders applies the auth and attribution headers OpenRouter expects
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", c.referer)
	req.Header.Set("X-Title", c.appTitle)
}

// IsRetryableStatusCode checks if an HTTP status code should trigger a retry
// Retryable codes: 408 (Timeout), 429 (Rate Limit), 5xx (Server errors)
func IsRetryableStatusCode(statusCode int) bool {
	return statusCode == 408 || statusCode == 429 || statusCode >= 500
}

// CalculateBackoff returns the backoff duration for a given retry attempt
// Uses exponential backoff: initialBackoff * 2^attempt, capped at maxBackoff
func CalculateBackoff(attempt int, config RetryConfig) time.Duration {
	backoff := config.InitialBackoff * time.Duration(1<<uint(attempt))
	if backoff > config.MaxBackoff {
		return config.MaxBackoff
	}
	return backoff
}

// ParseRetryAfter extracts the retry-after header value from a response
// Returns 0 if the header is not present or cannot be parsed
func ParseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}

	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(retryAfter); err == nil {
		duration := time.Until(t)
		if duration > 0 {
			return duration
		}
	}

	return 0
}

// doRequest performs an HTTP request to the OpenRouter API
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	url := c.baseURL + endpoint
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr APIError
		if err := json.Unmarshal(respBody, &apiErr); err != nil || apiErr.ErrorInfo.Message == "" {
			return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
		}
		apiErr.StatusCode = resp.StatusCode
		return &apiErr
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// APIError represents an OpenRouter API error response
type APIError struct {
	ErrorInfo struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	StatusCode int `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("OpenRouter API error (status %d): %s", e.StatusCode, e.ErrorInfo.Message)
}
