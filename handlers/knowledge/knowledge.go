package knowledge

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Franc-dev/galaxy-chat/model"
	"github.com/Franc-dev/galaxy-chat/utils/middleware"
	"github.com/Franc-dev/galaxy-chat/utils/response"
	"github.com/Franc-dev/galaxy-chat/utils/validation"
)

// KnowledgeHandler handles user knowledge item CRUD
type KnowledgeHandler struct {
	db *gorm.DB
}

// NewKnowledgeHandler creates a new knowledge handler
func NewKnowledgeHandler(db *gorm.DB) *KnowledgeHandler {
	return &KnowledgeHandler{db: db}
}

// List returns the user's knowledge items, optionally scoped to an agent.
// With ?agent_id= the result includes both agent-scoped and unscoped items,
// matching what prompt injection would see.
func (h *KnowledgeHandler) List(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	query := h.db.Where("user_id = ?", user.ID)

	if agentParam := c.Query("agent_id"); agentParam != "" {
		agentID, err := strconv.ParseUint(agentParam, 10, 64)
		if err != nil {
			return response.BadRequest(c, "Invalid agent ID")
		}
		query = query.Where("agent_id IS NULL OR agent_id = ?", uint(agentID))
	}

	var items []model.KnowledgeItem
	if err := query.Order("created_at DESC").Find(&items).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch knowledge items")
	}

	return response.Success(c, fiber.Map{"items": items})
}

// CreateRequest is the body of POST /knowledge
type CreateRequest struct {
	Title   string   `json:"title" validate:"required"`
	Content string   `json:"content" validate:"required"`
	AgentID *uint    `json:"agent_id,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// Create stores a new knowledge item owned by the user
func (h *KnowledgeHandler) Create(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req.Title = validation.SanitizeString(req.Title)
	req.Content = validation.SanitizeString(req.Content)
	if req.Title == "" || req.Content == "" {
		return response.BadRequest(c, "Title and content are required")
	}

	if req.AgentID != nil {
		var agent model.Agent
		if err := h.db.First(&agent, *req.AgentID).Error; err != nil {
			return response.NotFound(c, "Agent not found")
		}
	}

	item := model.KnowledgeItem{
		UserID:  user.ID,
		AgentID: req.AgentID,
		Title:   req.Title,
		Content: req.Content,
		Tags:    datatypes.JSONSlice[string](req.Tags),
	}
	if err := h.db.Create(&item).Error; err != nil {
		return response.InternalServerError(c, "Failed to create knowledge item")
	}

	return response.Created(c, fiber.Map{"item": item})
}

// Delete removes a knowledge item the user owns
func (h *KnowledgeHandler) Delete(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	itemID, err := strconv.ParseUint(c.Query("id"), 10, 64)
	if err != nil || itemID == 0 {
		return response.BadRequest(c, "Knowledge item ID is required")
	}

	result := h.db.
		Where("id = ? AND user_id = ?", itemID, user.ID).
		Delete(&model.KnowledgeItem{})
	if result.Error != nil {
		return response.InternalServerError(c, "Failed to delete knowledge item")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Knowledge item not found")
	}

	return response.SuccessWithMessage(c, "Knowledge item deleted", nil)
}
