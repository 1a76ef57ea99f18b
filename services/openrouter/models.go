package openrouter

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Franc-dev/galaxy-chat/utils/cache"
)

// ErrNoAvailableModels is returned when none of the prioritized models are
// currently offered upstream. Requests must fail rather than fall back to an
// arbitrary model.
var ErrNoAvailableModels = errors.New("no prioritized model is currently available")

const (
	// ModelCacheKey is the Redis key holding the cached model list
	ModelCacheKey = "openrouter:models"
	// ModelCacheTTL bounds how stale the cached model list may get
	ModelCacheTTL = 5 * time.Minute
)

// ModelPriority is the ordered list of acceptable chat models. Earlier
// entries win when available. Free-tier models lead so quota burn stays low.
var ModelPriority = []string{
	"mistralai/mistral-7b-instruct:free",
	"google/gemini-flash-1.5",
	"meta-llama/llama-3.2-3b-instruct:free",
	"microsoft/phi-3-mini-128k-instruct:free",
	"huggingface/zephyr-7b-beta:free",
	"openchat/openchat-7b:free",
	"gryphe/mythomist-7b:free",
	"undi95/toppy-m-7b:free",
}

// Model describes one model offered by OpenRouter
type Model struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ContextLength int    `json:"context_length"`
	Pricing       struct {
		Prompt     string `json:"prompt"`
		Completion string `json:"completion"`
	} `json:"pricing"`
}

type modelListResponse struct {
	Data []Model `json:"data"`
}

// ListModels fetches the live model catalog from OpenRouter
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	var result modelListResponse
	if err := c.doRequest(ctx, "GET", "/models", nil, &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

// ModelSelector picks a usable model against the live catalog, caching the
// catalog in Redis so every chat request does not hit the upstream API.
// A nil cache degrades to fetching on every call.
type ModelSelector struct {
	client *Client
	cache  *cache.RedisCache
}

// NewModelSelector creates a model selector backed by the given client
func NewModelSelector(client *Client, redisCache *cache.RedisCache) *ModelSelector {
	return &ModelSelector{
		client: client,
		cache:  redisCache,
	}
}

// AvailableModels returns the current model catalog, served from cache
// when fresh
func (s *ModelSelector) AvailableModels(ctx context.Context) ([]Model, error) {
	if s.cache != nil {
		var cached []Model
		if err := s.cache.GetJSON(ctx, ModelCacheKey, &cached); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	models, err := s.client.ListModels(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, ModelCacheKey, models, ModelCacheTTL); err != nil {
			log.Printf("failed to cache model list: %v", err)
		}
	}

	return models, nil
}

// RefreshCache forces a catalog fetch and rewrites the cache entry.
// Called from the cron scheduler so interactive requests mostly hit cache.
func (s *ModelSelector) RefreshCache(ctx context.Context) error {
	models, err := s.client.ListModels(ctx)
	if err != nil {
		return err
	}
	if s.cache == nil {
		return nil
	}
	return s.cache.SetJSON(ctx, ModelCacheKey, models, ModelCacheTTL)
}

// Select returns the model ID to use for a chat request. The agent's
// preferred model jumps the priority queue when it is available; otherwise
// the first available model from ModelPriority wins.
func (s *ModelSelector) Select(ctx context.Context, preferred string) (string, error) {
	models, err := s.AvailableModels(ctx)
	if err != nil {
		return "", err
	}
	return SelectModel(models, preferred)
}

// SelectModel resolves a model ID from the given catalog. Exposed separately
// so the selection rules are testable without network or cache.
func SelectModel(available []Model, preferred string) (string, error) {
	availableIDs := make(map[string]bool, len(available))
	for _, m := range available {
		availableIDs[m.ID] = true
	}

	if preferred != "" && availableIDs[preferred] {
		return preferred, nil
	}

	for _, id := range ModelPriority {
		if availableIDs[id] {
			return id, nil
		}
	}

	return "", ErrNoAvailableModels
}
