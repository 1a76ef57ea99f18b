package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Franc-dev/galaxy-chat/model"
	"github.com/Franc-dev/galaxy-chat/utils/response"
)

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshToken handles token refresh
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.RefreshToken == "" {
		return response.BadRequest(c, "Refresh token is required")
	}

	claims, err := h.jwtManager.ValidateToken(req.RefreshToken)
	if err != nil {
		return response.Unauthorized(c, "Invalid or expired refresh token")
	}

	if claims.TokenType != "refresh" {
		return response.Unauthorized(c, "Invalid token type")
	}

	// Re-read the user so role or deactivation changes take effect
	var user model.User
	if err := h.db.First(&user, claims.UserID).Error; err != nil {
		return response.Unauthorized(c, "User not found")
	}
	if !user.IsActive {
		return response.Unauthorized(c, "Account has been deactivated")
	}

	res, errResp := h.issueTokens(c, &user)
	if errResp != nil {
		return errResp
	}

	return response.Success(c, res)
}
