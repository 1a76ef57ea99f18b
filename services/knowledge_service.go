package services

import (
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/Franc-dev/galaxy-chat/model"
)

const (
	// MaxRelevantItems caps how many knowledge items get injected into a prompt
	MaxRelevantItems = 5

	fullMatchScore = 10
	tagMatchScore  = 5
	wordMatchScore = 1
	minWordLength  = 2
)

// KnowledgeService looks up and ranks user knowledge items for prompt injection
type KnowledgeService struct {
	db *gorm.DB
}

// NewKnowledgeService creates a new knowledge service
func NewKnowledgeService(db *gorm.DB) *KnowledgeService {
	return &KnowledgeService{db: db}
}

// ItemsForAgent returns the user's knowledge items applicable to an agent.
// Items with a null agent_id apply to all of the owner's agents.
func (s *KnowledgeService) ItemsForAgent(userID, agentID uint) ([]model.KnowledgeItem, error) {
	var items []model.KnowledgeItem
	err := s.db.
		Where("user_id = ? AND (agent_id IS NULL OR agent_id = ?)", userID, agentID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// RelevantItems fetches the user's items for the agent and ranks them
// against the query
func (s *KnowledgeService) RelevantItems(userID, agentID uint, query string) ([]model.KnowledgeItem, error) {
	items, err := s.ItemsForAgent(userID, agentID)
	if err != nil {
		return nil, err
	}
	return RankKnowledge(items, query), nil
}

type scoredItem struct {
	item  model.KnowledgeItem
	score int
	order int
}

// RankKnowledge scores items against the query and returns the top matches.
// A blank query matches nothing. Scoring favors whole-query hits, then tag
// hits, then individual word hits.
func RankKnowledge(items []model.KnowledgeItem, query string) []model.KnowledgeItem {
	queryLower := strings.ToLower(strings.TrimSpace(query))
	if queryLower == "" {
		return nil
	}

	queryWords := strings.Fields(queryLower)

	// Short tokens still count for tag matches, only the word score skips them
	var longWords []string
	for _, w := range queryWords {
		if len(w) > minWordLength {
			longWords = append(longWords, w)
		}
	}

	var scored []scoredItem
	for i, item := range items {
		searchable := strings.ToLower(item.Title + " " + item.Content + " " + strings.Join(item.Tags, " "))

		score := 0
		if strings.Contains(searchable, queryLower) {
			score += fullMatchScore
		}
		for _, word := range longWords {
			if strings.Contains(searchable, word) {
				score += wordMatchScore
			}
		}
		for _, tag := range item.Tags {
			tagLower := strings.ToLower(tag)
			for _, word := range queryWords {
				if strings.Contains(tagLower, word) {
					score += tagMatchScore
					break
				}
			}
		}

		if score > 0 {
			scored = append(scored, scoredItem{item: item, score: score, order: i})
		}
	}

	// Stable by original position so equal scores keep their input order
	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].score > scored[b].score
	})

	if len(scored) > MaxRelevantItems {
		scored = scored[:MaxRelevantItems]
	}

	result := make([]model.KnowledgeItem, len(scored))
	for i, s := range scored {
		result[i] = s.item
	}
	return result
}

// ComposeSystemPrompt appends a knowledge base section to the agent's base
// prompt. With no items the base prompt passes through untouched.
func ComposeSystemPrompt(basePrompt string, items []model.KnowledgeItem) string {
	if len(items) == 0 {
		return basePrompt
	}

	sections := make([]string, len(items))
	for i, item := range items {
		heading := "## " + item.Title
		if len(item.Tags) > 0 {
			heading += fmt.Sprintf(" [Tags: %s]", strings.Join(item.Tags, ", "))
		}
		sections[i] = heading + "\n" + item.Content
	}

	return basePrompt +
		"\n\nKNOWLEDGE BASE:\n" +
		strings.Join(sections, "\n\n---\n\n") +
		"\n\nUse the above knowledge base information to inform your responses when relevant. Reference specific information from the knowledge base when it applies."
}
