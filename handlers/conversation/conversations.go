package conversation

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/Franc-dev/galaxy-chat/model"
	"github.com/Franc-dev/galaxy-chat/utils/middleware"
	"github.com/Franc-dev/galaxy-chat/utils/response"
)

// ConversationHandler handles conversation listing and lifecycle
type ConversationHandler struct {
	db *gorm.DB
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(db *gorm.DB) *ConversationHandler {
	return &ConversationHandler{db: db}
}

// ConversationSummary is a list entry: the conversation, its agent and the
// most recent message
type ConversationSummary struct {
	model.Conversation
	LatestMessage *model.Message `json:"latest_message,omitempty"`
}

// List returns the user's conversations, most recently active first.
// With ?conversation_id= it returns that single conversation with its full
// message history instead.
func (h *ConversationHandler) List(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	if idParam := c.Query("conversation_id"); idParam != "" {
		id, err := strconv.ParseUint(idParam, 10, 64)
		if err != nil {
			return response.BadRequest(c, "Invalid conversation ID")
		}
		return h.getOne(c, user.ID, uint(id))
	}

	var conversations []model.Conversation
	err := h.db.
		Preload("Agent").
		Where("user_id = ?", user.ID).
		Order("updated_at DESC").
		Find(&conversations).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch conversations")
	}

	summaries, err := h.attachLatestMessages(conversations)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch conversations")
	}

	return response.Success(c, fiber.Map{"conversations": summaries})
}

// attachLatestMessages loads the newest message per conversation in one query
func (h *ConversationHandler) attachLatestMessages(conversations []model.Conversation) ([]ConversationSummary, error) {
	summaries := make([]ConversationSummary, len(conversations))
	if len(conversations) == 0 {
		return summaries, nil
	}

	ids := make([]uint, len(conversations))
	for i, conv := range conversations {
		ids[i] = conv.ID
		summaries[i] = ConversationSummary{Conversation: conv}
	}

	var latest []model.Message
	err := h.db.
		Where("id IN (?)",
			h.db.Model(&model.Message{}).
				Select("MAX(id)").
				Where("conversation_id IN ?", ids).
				Group("conversation_id"),
		).
		Find(&latest).Error
	if err != nil {
		return nil, err
	}

	byConversation := make(map[uint]model.Message, len(latest))
	for _, msg := range latest {
		byConversation[msg.ConversationID] = msg
	}
	for i := range summaries {
		if msg, found := byConversation[summaries[i].ID]; found {
			m := msg
			summaries[i].LatestMessage = &m
		}
	}

	return summaries, nil
}

func (h *ConversationHandler) getOne(c *fiber.Ctx, userID, conversationID uint) error {
	var conversation model.Conversation
	err := h.db.
		Preload("Agent").
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("messages.created_at ASC")
		}).
		Where("id = ? AND user_id = ?", conversationID, userID).
		First(&conversation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Conversation not found")
		}
		return response.InternalServerError(c, "Failed to fetch conversation")
	}

	return response.Success(c, fiber.Map{"conversation": conversation})
}

// CreateRequest is the body of POST /conversations
type CreateRequest struct {
	AgentID uint `json:"agent_id"`
}

// Create returns a conversation for the user+agent pair. An existing
// conversation is only reused when it has at least one message; empty ones
// never block a fresh start.
func (h *ConversationHandler) Create(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.AgentID == 0 {
		return response.BadRequest(c, "Agent ID is required")
	}

	var agent model.Agent
	if err := h.db.Where("id = ? AND is_active = ?", req.AgentID, true).First(&agent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Agent not found")
		}
		return response.InternalServerError(c, "Failed to load agent")
	}

	var conversation model.Conversation
	err := h.db.
		Preload("Agent").
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("messages.created_at ASC")
		}).
		Where("user_id = ? AND agent_id = ?", user.ID, req.AgentID).
		Where("EXISTS (SELECT 1 FROM messages WHERE messages.conversation_id = conversations.id)").
		First(&conversation).Error
	if err == nil {
		return response.Success(c, fiber.Map{"conversation": conversation})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return response.InternalServerError(c, "Failed to load conversation")
	}

	conversation = model.Conversation{
		UserID:  user.ID,
		AgentID: req.AgentID,
		Title:   "New Conversation",
	}
	if err := h.db.Create(&conversation).Error; err != nil {
		return response.InternalServerError(c, "Failed to create conversation")
	}
	conversation.Agent = agent

	return response.Created(c, fiber.Map{"conversation": conversation})
}

// Delete removes one of the user's conversations and its messages
func (h *ConversationHandler) Delete(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	conversationID, err := strconv.ParseUint(c.Query("conversation_id"), 10, 64)
	if err != nil || conversationID == 0 {
		return response.BadRequest(c, "Conversation ID is required")
	}

	result := h.db.
		Where("id = ? AND user_id = ?", conversationID, user.ID).
		Delete(&model.Conversation{})
	if result.Error != nil {
		return response.InternalServerError(c, "Failed to delete conversation")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Conversation not found")
	}

	// Messages cascade at the database level; clear soft-deleted leftovers
	// for sqlite where the FK cascade is not emitted by AutoMigrate
	h.db.Where("conversation_id = ?", conversationID).Delete(&model.Message{})

	return response.SuccessWithMessage(c, "Conversation deleted", nil)
}
