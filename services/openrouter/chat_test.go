package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func fastRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}
}

func sseChunk(content string) string {
	chunk := StreamChunk{
		Choices: []StreamChunkChoice{{Delta: StreamChunkDelta{Content: content}}},
	}
	data, _ := json.Marshal(chunk)
	return fmt.Sprintf("data: %s\n\n", data)
}

func TestStreamChatCompletion(t *testing.T) {
	var gotBody ChatCompletionRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseChunk("Hello"))
		fmt.Fprint(w, ": keep-alive comment\n\n")
		fmt.Fprint(w, sseChunk(" world"))
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})

	var full string
	err := client.StreamChatCompletion(context.Background(), ChatCompletionRequest{
		Model:    "mistralai/mistral-7b-instruct:free",
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	}, func(chunk StreamChunk) error {
		full += chunk.GetContent()
		return nil
	})
	if err != nil {
		t.Fatalf("StreamChatCompletion failed: %v", err)
	}

	if full != "Hello world" {
		t.Errorf("accumulated content = %q, want %q", full, "Hello world")
	}
	if !gotBody.Stream {
		t.Error("request should set stream: true")
	}
	if gotBody.Temperature != DefaultTemperature {
		t.Errorf("temperature = %v, want default %v", gotBody.Temperature, DefaultTemperature)
	}
	if gotBody.MaxTokens != DefaultMaxTokens {
		t.Errorf("max_tokens = %d, want default %d", gotBody.MaxTokens, DefaultMaxTokens)
	}
}

func TestStreamChatCompletionRetriesBeforeFirstChunk(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseChunk("ok"))
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewClient(Config{
		APIKey:      "test-key",
		BaseURL:     server.URL,
		RetryConfig: fastRetryConfig(),
	})

	var full string
	err := client.StreamChatCompletion(context.Background(), ChatCompletionRequest{Model: "m"}, func(chunk StreamChunk) error {
		full += chunk.GetContent()
		return nil
	})
	if err != nil {
		t.Fatalf("StreamChatCompletion failed: %v", err)
	}

	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	if full != "ok" {
		t.Errorf("content = %q, want %q", full, "ok")
	}
}

func TestStreamChatCompletionNoRetryAfterDelivery(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseChunk("partial"))
	}))
	defer server.Close()

	client := NewClient(Config{
		APIKey:      "test-key",
		BaseURL:     server.URL,
		RetryConfig: fastRetryConfig(),
	})

	callbackErr := errors.New("downstream client went away")
	err := client.StreamChatCompletion(context.Background(), ChatCompletionRequest{Model: "m"}, func(chunk StreamChunk) error {
		return callbackErr
	})
	if err == nil {
		t.Fatal("expected the callback error to surface")
	}
	if !errors.Is(err, callbackErr) {
		t.Errorf("error = %v, want wrapped callback error", err)
	}

	// A retry here would replay content the client already received
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestStreamChatCompletionExhaustsRetries(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(Config{
		APIKey:      "test-key",
		BaseURL:     server.URL,
		RetryConfig: fastRetryConfig(),
	})

	err := client.StreamChatCompletion(context.Background(), ChatCompletionRequest{Model: "m"}, func(chunk StreamChunk) error {
		t.Error("callback should never fire")
		return nil
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3 (initial + 2 retries)", attempts)
	}
}

func TestStreamChunkAccessors(t *testing.T) {
	empty := StreamChunk{}
	if empty.GetContent() != "" || empty.GetFinishReason() != "" {
		t.Error("empty chunk should yield empty content and finish reason")
	}

	chunk := StreamChunk{Choices: []StreamChunkChoice{{
		Delta:        StreamChunkDelta{Content: "hi"},
		FinishReason: "stop",
	}}}
	if chunk.GetContent() != "hi" {
		t.Errorf("GetContent = %q", chunk.GetContent())
	}
	if chunk.GetFinishReason() != "stop" {
		t.Errorf("GetFinishReason = %q", chunk.GetFinishReason())
	}
}

func TestCalculateBackoff(t *testing.T) {
	config := RetryConfig{
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{10, 30 * time.Second}, // capped
	}

	for _, tt := range tests {
		if got := CalculateBackoff(tt.attempt, config); got != tt.want {
			t.Errorf("CalculateBackoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestIsRetryableStatusCode(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503} {
		if !IsRetryableStatusCode(code) {
			t.Errorf("status %d should be retryable", code)
		}
	}
	for _, code := range []int{200, 400, 401, 404} {
		if IsRetryableStatusCode(code) {
			t.Errorf("status %d should not be retryable", code)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	resp := &http.Response{Header: http.Header{"Retry-After": []string{"3"}}}
	if got := ParseRetryAfter(resp); got != 3*time.Second {
		t.Errorf("ParseRetryAfter = %v, want 3s", got)
	}

	if got := ParseRetryAfter(&http.Response{Header: http.Header{}}); got != 0 {
		t.Errorf("missing header: got %v, want 0", got)
	}
	if got := ParseRetryAfter(nil); got != 0 {
		t.Errorf("nil response: got %v, want 0", got)
	}
}
