package admin

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Franc-dev/galaxy-chat/model"
	"github.com/Franc-dev/galaxy-chat/utils/response"
)

// ModelUsage counts messages generated per upstream model
type ModelUsage struct {
	Model string `json:"model"`
	Count int64  `json:"count"`
}

// StatsResponse aggregates platform-wide totals for the admin dashboard
type StatsResponse struct {
	TotalUsers         int64        `json:"total_users"`
	ActiveUsers        int64        `json:"active_users"`
	TotalConversations int64        `json:"total_conversations"`
	TotalMessages      int64        `json:"total_messages"`
	KnowledgeItems     int64        `json:"knowledge_items"`
	TodayMessages      int64        `json:"today_messages"`
	ModelUsage         []ModelUsage `json:"model_usage"`
}

// Stats returns platform totals and per-model message counts
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	var stats StatsResponse

	counts := []struct {
		dest  *int64
		query func() error
	}{
		{&stats.TotalUsers, func() error {
			return h.db.Model(&model.User{}).Count(&stats.TotalUsers).Error
		}},
		{&stats.ActiveUsers, func() error {
			return h.db.Model(&model.User{}).Where("is_active = ?", true).Count(&stats.ActiveUsers).Error
		}},
		{&stats.TotalConversations, func() error {
			return h.db.Model(&model.Conversation{}).Count(&stats.TotalConversations).Error
		}},
		{&stats.TotalMessages, func() error {
			return h.db.Model(&model.Message{}).Count(&stats.TotalMessages).Error
		}},
		{&stats.KnowledgeItems, func() error {
			return h.db.Model(&model.KnowledgeItem{}).Count(&stats.KnowledgeItems).Error
		}},
		{&stats.TodayMessages, func() error {
			now := time.Now()
			midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
			return h.db.Model(&model.Message{}).Where("created_at >= ?", midnight).Count(&stats.TodayMessages).Error
		}},
	}
	for _, count := range counts {
		if err := count.query(); err != nil {
			return response.InternalServerError(c, "Failed to fetch stats")
		}
	}

	err := h.db.Model(&model.Message{}).
		Select("model, COUNT(*) AS count").
		Where("model <> ''").
		Group("model").
		Order("count DESC").
		Scan(&stats.ModelUsage).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch model usage")
	}

	return response.Success(c, fiber.Map{"stats": stats})
}
