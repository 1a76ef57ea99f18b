package model

import (
	"time"

	"gorm.io/gorm"
)

// MessageRole represents the role of the message sender
type MessageRole string

const (
	MessageRoleUser      MessageRole = "USER"
	MessageRoleAssistant MessageRole = "ASSISTANT"
)

// MessageStatus represents the lifecycle status of a message
type MessageStatus string

const (
	MessageStatusSent   MessageStatus = "SENT"   // Message was delivered/generated in full
	MessageStatusEdited MessageStatus = "EDITED" // Content was edited after the fact
	MessageStatusFailed MessageStatus = "FAILED" // Generation was cut off by an upstream error
)

// Message represents a single turn in a conversation
type Message struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	ConversationID uint           `gorm:"not null;index" json:"conversation_id"`
	Role           MessageRole    `gorm:"type:varchar(20);not null" json:"role"`
	Content        string         `gorm:"type:text;not null" json:"content"`
	Model          string         `gorm:"type:varchar(100)" json:"model,omitempty"`
	Status         MessageStatus  `gorm:"type:varchar(20);default:'SENT'" json:"status"`

	// Relationships
	Conversation Conversation `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Message
func (Message) TableName() string {
	return "messages"
}
