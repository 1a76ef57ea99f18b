package agent

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/Franc-dev/galaxy-chat/model"
	"github.com/Franc-dev/galaxy-chat/utils/response"
	"github.com/Franc-dev/galaxy-chat/utils/validation"
)

// AgentHandler handles agent persona listing and creation
type AgentHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewAgentHandler creates a new agent handler
func NewAgentHandler(db *gorm.DB) *AgentHandler {
	return &AgentHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// List returns all active agents
func (h *AgentHandler) List(c *fiber.Ctx) error {
	var agents []model.Agent
	if err := h.db.Where("is_active = ?", true).Order("id ASC").Find(&agents).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch agents")
	}

	return response.Success(c, fiber.Map{"agents": agents})
}

// CreateRequest is the body of POST /agents (admin only)
type CreateRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=100"`
	Description  string `json:"description"`
	SystemPrompt string `json:"system_prompt" validate:"required"`
	Avatar       string `json:"avatar,omitempty"`
	Model        string `json:"model,omitempty"`
}

// Create adds a new agent persona
func (h *AgentHandler) Create(c *fiber.Ctx) error {
	var req CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	agent := model.Agent{
		Name:         req.Name,
		Description:  req.Description,
		SystemPrompt: req.SystemPrompt,
		Avatar:       req.Avatar,
		Model:        req.Model,
		IsActive:     true,
	}
	if agent.Avatar == "" {
		agent.Avatar = "🤖"
	}

	if err := h.db.Create(&agent).Error; err != nil {
		return response.InternalServerError(c, "Failed to create agent")
	}

	return response.Created(c, fiber.Map{"agent": agent})
}
