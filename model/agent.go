package model

import (
	"time"

	"gorm.io/gorm"
)

// Agent represents an AI persona with a fixed system prompt and an
// optional preferred upstream model
type Agent struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Name         string         `gorm:"not null" json:"name"`
	Description  string         `gorm:"type:text" json:"description"`
	SystemPrompt string         `gorm:"type:text;not null" json:"system_prompt"`
	Avatar       string         `gorm:"type:varchar(16);default:'🤖'" json:"avatar"`
	Model        string         `gorm:"type:varchar(100)" json:"model,omitempty"` // preferred upstream model id, empty = use priority list
	IsActive     bool           `gorm:"default:true" json:"is_active"`

	// Relationships
	Conversations []Conversation `gorm:"foreignKey:AgentID" json:"-"`
}
