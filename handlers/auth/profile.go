package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Franc-dev/galaxy-chat/services"
	"github.com/Franc-dev/galaxy-chat/utils/middleware"
	"github.com/Franc-dev/galaxy-chat/utils/response"
)

// ProfileResponse is the authenticated user's profile plus quota state
type ProfileResponse struct {
	UserResponse
	MessagesRemaining int `json:"messages_remaining"`
}

// GetUser returns the authenticated user's profile. The quota counter is
// lazily reset here so the reported remaining count is never stale.
func (h *AuthHandler) GetUser(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	quota := services.NewQuotaService(h.db)
	if err := quota.ResetIfStale(user); err != nil {
		return response.InternalServerError(c, "Failed to refresh quota")
	}

	return response.Success(c, ProfileResponse{
		UserResponse:      toUserResponse(user),
		MessagesRemaining: quota.Remaining(user),
	})
}
