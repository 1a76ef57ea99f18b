package admin

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/Franc-dev/galaxy-chat/model"
	"github.com/Franc-dev/galaxy-chat/utils/middleware"
	"github.com/Franc-dev/galaxy-chat/utils/response"
)

// AdminHandler handles user administration and platform stats
type AdminHandler struct {
	db *gorm.DB
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

// AdminUserRow is one row of the admin user listing
type AdminUserRow struct {
	ID                 uint           `json:"id"`
	Email              string         `json:"email"`
	Name               string         `json:"name"`
	Role               model.UserRole `json:"role"`
	MessagesUsed       int            `json:"messages_used"`
	MessageLimit       int            `json:"message_limit"`
	IsActive           bool           `json:"is_active"`
	CreatedAt          time.Time      `json:"created_at"`
	LastReset          time.Time      `json:"last_reset"`
	ConversationCount  int64          `json:"conversation_count"`
	KnowledgeItemCount int64          `json:"knowledge_item_count"`
}

// ListUsers returns a paginated user listing with per-user conversation and
// knowledge item counts
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)

	var total int64
	if err := h.db.Model(&model.User{}).Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count users")
	}

	pagination := response.CalculatePagination(page, limit, total)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	var rows []AdminUserRow
	err := h.db.Model(&model.User{}).
		Select(`users.id, users.email, users.name, users.role,
			users.messages_used, users.message_limit, users.is_active,
			users.created_at, users.last_reset,
			(SELECT COUNT(*) FROM conversations WHERE conversations.user_id = users.id AND conversations.deleted_at IS NULL) AS conversation_count,
			(SELECT COUNT(*) FROM knowledge_items WHERE knowledge_items.user_id = users.id AND knowledge_items.deleted_at IS NULL) AS knowledge_item_count`).
		Order("users.created_at DESC").
		Limit(pagination.PerPage).
		Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch users")
	}

	return response.Paginated(c, rows, pagination)
}

// UpdateUserRequest is the body of PUT /admin/users
type UpdateUserRequest struct {
	UserID       uint            `json:"user_id"`
	MessageLimit *int            `json:"message_limit,omitempty"`
	IsActive     *bool           `json:"is_active,omitempty"`
	Role         *model.UserRole `json:"role,omitempty"`
}

// UpdateUser adjusts a user's quota limit, active flag or role
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	admin, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.UserID == 0 {
		return response.BadRequest(c, "User ID is required")
	}

	updates := map[string]interface{}{}
	if req.MessageLimit != nil {
		if *req.MessageLimit < 0 {
			return response.BadRequest(c, "Message limit cannot be negative")
		}
		updates["message_limit"] = *req.MessageLimit
	}
	if req.IsActive != nil {
		// An admin locking themselves out helps nobody
		if req.UserID == admin.ID && !*req.IsActive {
			return response.BadRequest(c, "You cannot deactivate your own account")
		}
		updates["is_active"] = *req.IsActive
	}
	if req.Role != nil {
		switch *req.Role {
		case model.RoleUser, model.RoleAdmin, model.RoleSuperAdmin:
			updates["role"] = *req.Role
		default:
			return response.BadRequest(c, "Invalid role")
		}
	}
	if len(updates) == 0 {
		return response.BadRequest(c, "Nothing to update")
	}

	var user model.User
	if err := h.db.First(&user, req.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to load user")
	}

	if err := h.db.Model(&user).Updates(updates).Error; err != nil {
		return response.InternalServerError(c, "Failed to update user")
	}

	return response.Success(c, fiber.Map{"user": fiber.Map{
		"id":            user.ID,
		"email":         user.Email,
		"name":          user.Name,
		"role":          user.Role,
		"messages_used": user.MessagesUsed,
		"message_limit": user.MessageLimit,
		"is_active":     user.IsActive,
	}})
}
