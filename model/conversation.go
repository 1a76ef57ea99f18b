package model

import (
	"time"

	"gorm.io/gorm"
)

// Conversation groups messages under one user+agent pair
type Conversation struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	AgentID   uint           `gorm:"not null;index" json:"agent_id"`
	Title     string         `gorm:"type:varchar(255)" json:"title"`

	// Relationships
	User     User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Agent    Agent     `gorm:"foreignKey:AgentID" json:"agent,omitempty"`
	Messages []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

// TableName specifies the table name for Conversation
func (Conversation) TableName() string {
	return "conversations"
}

// DeriveTitle builds a conversation title from the first user message,
// truncated to 50 characters with an ellipsis
func DeriveTitle(firstMessage string) string {
	const maxLen = 50
	runes := []rune(firstMessage)
	if len(runes) <= maxLen {
		return firstMessage
	}
	return string(runes[:maxLen]) + "..."
}
