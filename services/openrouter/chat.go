package openrouter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultTemperature is used when the request does not set one
	DefaultTemperature = 0.7
	// DefaultMaxTokens bounds completion length per assistant turn
	DefaultMaxTokens = 2000
)

// ChatMessage represents a message in a chat conversation
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// ChatCompletionRequest represents a request for chat completion
type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

// applyDefaults fills zero-value tuning fields
func (r *ChatCompletionRequest) applyDefaults() {
	if r.Temperature == 0 {
		r.Temperature = DefaultTemperature
	}
	if r.MaxTokens == 0 {
		r.MaxTokens = DefaultMaxTokens
	}
}

// ChatCompletionResponse represents a non-streaming completion response
type ChatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// ExtractContent extracts the assistant content from a completion response
func (r *ChatCompletionResponse) ExtractContent() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// StreamChunkDelta represents the delta content in a streaming chunk
type StreamChunkDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// StreamChunkChoice represents a choice in a streaming chunk
type StreamChunkChoice struct {
	Index        int              `json:"index"`
	Delta        StreamChunkDelta `json:"delta"`
	FinishReason string           `json:"finish_reason,omitempty"`
}

// StreamChunk represents a chunk in a streaming response
type StreamChunk struct {
	ID      string              `json:"id"`
	Model   string              `json:"model"`
	Created int                 `json:"created"`
	Choices []StreamChunkChoice `json:"choices"`
}

// GetContent returns the content delta from the first choice
func (c *StreamChunk) GetContent() string {
	if len(c.Choices) == 0 {
		return ""
	}
	return c.Choices[0].Delta.Content
}

// GetFinishReason returns the finish reason from the first choice
func (c *StreamChunk) GetFinishReason() string {
	if len(c.Choices) == 0 {
		return ""
	}
	return c.Choices[0].FinishReason
}

// CreateChatCompletion creates a chat completion (non-streaming)
func (c *Client) CreateChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error) {
	req.Stream = false
	req.applyDefaults()

	var result ChatCompletionResponse
	if err := c.doRequest(ctx, "POST", "/chat/completions", req, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// StreamChatCompletion creates a streaming chat completion, invoking the
// callback once per content chunk. Transient failures before any chunk is
// delivered are retried with exponential backoff.
func (c *Client) StreamChatCompletion(ctx context.Context, req ChatCompletionRequest, callback func(StreamChunk) error) error {
	retryConfig := c.GetRetryConfig()
	var lastErr error

	for attempt := 0; attempt <= retryConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := CalculateBackoff(attempt-1, retryConfig)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		delivered, err := c.doStreamRequest(ctx, req, callback)
		if err == nil {
			return nil
		}

		lastErr = err

		// Once chunks reached the callback a retry would duplicate output
		if delivered || !isStreamErrorRetryable(err) {
			return err
		}
	}

	return fmt.Errorf("streaming failed after %d attempts: %w", retryConfig.MaxRetries+1, lastErr)
}

// isStreamErrorRetryable determines if a streaming error should trigger a retry
func isStreamErrorRetryable(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()

	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "EOF") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "no such host") {
		return true
	}

	for _, code := range []string{"408", "429", "500", "502", "503", "504"} {
		if strings.Contains(errStr, fmt.Sprintf("status %s", code)) {
			return true
		}
	}

	return false
}

// doStreamRequest performs the actual streaming request. The bool result
// reports whether any chunk was delivered to the callback.
func (c *Client) doStreamRequest(ctx context.Context, req ChatCompletionRequest, callback func(StreamChunk) error) (bool, error) {
	req.Stream = true
	req.applyDefaults()

	jsonBody, err := json.Marshal(req)
	if err != nil {
		return false, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(httpReq)
	httpReq.Header.Set("Accept", "text/event-stream")

	// Streaming client has no client-level timeout so generation can run
	// as long as the upstream keeps sending
	resp, err := c.streamingClient.Do(httpReq)
	if err != nil {
		return false, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("streaming failed with status %d: %s", resp.StatusCode, string(body))
	}

	delivered := false
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}

		if strings.HasPrefix(line, "data: ") {
			data := strings.TrimPrefix(line, "data: ")

			if data == "[DONE]" {
				break
			}

			var chunk StreamChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				// Malformed chunk, keep reading
				continue
			}

			delivered = true
			if err := callback(chunk); err != nil {
				return delivered, fmt.Errorf("callback error: %w", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return delivered, fmt.Errorf("stream reading error: %w", err)
	}

	return delivered, nil
}
