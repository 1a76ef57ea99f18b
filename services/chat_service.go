package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/Franc-dev/galaxy-chat/model"
	"github.com/Franc-dev/galaxy-chat/services/openrouter"
)

var (
	// ErrAgentNotFound is returned when the requested agent is missing or disabled
	ErrAgentNotFound = errors.New("agent not found")
	// ErrMessageNotFound is returned when a message lookup misses
	ErrMessageNotFound = errors.New("message not found")
	// ErrGatewayNotConfigured is returned when no upstream LLM client is wired
	ErrGatewayNotConfigured = errors.New("llm gateway not configured")
)

// ChatService orchestrates a chat turn: knowledge injection, model
// selection, conversation bookkeeping, quota and streaming.
type ChatService struct {
	db        *gorm.DB
	knowledge *KnowledgeService
	quota     *QuotaService
	selector  *openrouter.ModelSelector
	client    *openrouter.Client
}

// NewChatService creates a new chat service
func NewChatService(db *gorm.DB, client *openrouter.Client, selector *openrouter.ModelSelector) *ChatService {
	return &ChatService{
		db:        db,
		knowledge: NewKnowledgeService(db),
		quota:     NewQuotaService(db),
		selector:  selector,
		client:    client,
	}
}

// Quota exposes the quota service for handlers that report quota state
func (s *ChatService) Quota() *QuotaService {
	return s.quota
}

// TurnRequest is the validated input for one chat turn
type TurnRequest struct {
	Messages       []openrouter.ChatMessage
	AgentID        uint
	ConversationID uint // 0 means create a new conversation
}

// Turn holds everything resolved before streaming starts
type Turn struct {
	User         *model.User
	Agent        *model.Agent
	Conversation *model.Conversation
	Model        string
	// Upstream payload: composed system prompt followed by the history
	// the client sent
	Messages  []openrouter.ChatMessage
	Remaining int
}

// latestUserContent returns the content of the last user-role message
func latestUserContent(messages []openrouter.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}

// PrepareTurn resolves agent, knowledge, model, conversation and quota for
// a chat turn. Quota is consumed last so a turn that fails on model
// selection or conversation lookup costs the user nothing.
func (s *ChatService) PrepareTurn(ctx context.Context, user *model.User, req TurnRequest) (*Turn, error) {
	if s.client == nil || s.selector == nil {
		return nil, ErrGatewayNotConfigured
	}

	if err := s.quota.ResetIfStale(user); err != nil {
		return nil, err
	}
	if !s.quota.HasQuota(user) {
		return nil, ErrQuotaExceeded
	}

	var agent model.Agent
	if err := s.db.Where("id = ? AND is_active = ?", req.AgentID, true).First(&agent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAgentNotFound
		}
		return nil, err
	}

	userQuery := latestUserContent(req.Messages)

	relevant, err := s.knowledge.RelevantItems(user.ID, agent.ID, userQuery)
	if err != nil {
		return nil, err
	}
	systemPrompt := ComposeSystemPrompt(agent.SystemPrompt, relevant)

	modelID, err := s.selector.Select(ctx, agent.Model)
	if err != nil {
		return nil, err
	}

	conversation, err := s.resolveConversation(user.ID, agent.ID, req.ConversationID, userQuery)
	if err != nil {
		return nil, err
	}

	userMsg := &model.Message{
		ConversationID: conversation.ID,
		Role:           model.MessageRoleUser,
		Content:        userQuery,
		Model:          modelID,
		Status:         model.MessageStatusSent,
	}
	if err := s.db.Create(userMsg).Error; err != nil {
		return nil, fmt.Errorf("failed to persist user message: %w", err)
	}

	if err := s.quota.Consume(user); err != nil {
		return nil, err
	}

	upstream := make([]openrouter.ChatMessage, 0, len(req.Messages)+1)
	upstream = append(upstream, openrouter.ChatMessage{Role: "system", Content: systemPrompt})
	upstream = append(upstream, req.Messages...)

	return &Turn{
		User:         user,
		Agent:        &agent,
		Conversation: conversation,
		Model:        modelID,
		Messages:     upstream,
		Remaining:    s.quota.Remaining(user),
	}, nil
}

// resolveConversation loads the supplied conversation (owned by the user)
// or creates a new one titled from the first user message. A supplied id
// that misses falls back to creating, so a deleted or foreign conversation
// never fails the turn.
func (s *ChatService) resolveConversation(userID, agentID, conversationID uint, firstMessage string) (*model.Conversation, error) {
	if conversationID != 0 {
		var conversation model.Conversation
		err := s.db.Where("id = ? AND user_id = ?", conversationID, userID).First(&conversation).Error
		if err == nil {
			return &conversation, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	conversation := &model.Conversation{
		UserID:  userID,
		AgentID: agentID,
		Title:   model.DeriveTitle(firstMessage),
	}
	if err := s.db.Create(conversation).Error; err != nil {
		return nil, err
	}
	return conversation, nil
}

// StreamReply streams the assistant completion, invoking onChunk per
// content delta, and returns the accumulated text. The returned error, if
// any, reflects a mid-stream upstream failure.
func (s *ChatService) StreamReply(ctx context.Context, turn *Turn, onChunk func(content string) error) (string, error) {
	var full string

	err := s.client.StreamChatCompletion(ctx, openrouter.ChatCompletionRequest{
		Model:    turn.Model,
		Messages: turn.Messages,
	}, func(chunk openrouter.StreamChunk) error {
		content := chunk.GetContent()
		if content == "" {
			return nil
		}
		full += content
		return onChunk(content)
	})

	return full, err
}

// FinishTurn persists the assistant message after streaming. Partial text
// from a failed stream is kept with status FAILED so the turn is visible in
// history. Persistence errors are logged, never surfaced: the content
// already reached the client.
func (s *ChatService) FinishTurn(turn *Turn, content string, streamFailed bool) {
	if content == "" && streamFailed {
		return
	}

	status := model.MessageStatusSent
	if streamFailed {
		status = model.MessageStatusFailed
	}

	assistantMsg := &model.Message{
		ConversationID: turn.Conversation.ID,
		Role:           model.MessageRoleAssistant,
		Content:        content,
		Model:          turn.Model,
		Status:         status,
	}
	if err := s.db.Create(assistantMsg).Error; err != nil {
		log.Printf("failed to persist assistant message for conversation %d: %v", turn.Conversation.ID, err)
		return
	}

	// Touch the conversation so list ordering reflects activity
	if err := s.db.Model(turn.Conversation).Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).Error; err != nil {
		log.Printf("failed to touch conversation %d: %v", turn.Conversation.ID, err)
	}
}

// EditMessage updates a message's content and marks it EDITED. Ownership
// is enforced through the parent conversation.
func (s *ChatService) EditMessage(userID, messageID uint, content string) (*model.Message, error) {
	var msg model.Message
	err := s.db.
		Joins("JOIN conversations ON conversations.id = messages.conversation_id").
		Where("messages.id = ? AND conversations.user_id = ?", messageID, userID).
		First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}

	msg.Content = content
	msg.Status = model.MessageStatusEdited
	if err := s.db.Save(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// DeleteMessage removes a message the user owns. Deleting an absent
// message is not an error, so retried deletes stay safe.
func (s *ChatService) DeleteMessage(userID, messageID uint) error {
	return s.db.
		Where("id = ? AND conversation_id IN (?)",
			messageID,
			s.db.Model(&model.Conversation{}).Select("id").Where("user_id = ?", userID),
		).
		Delete(&model.Message{}).Error
}
