package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// KnowledgeItem is a user-authored reference snippet injected into prompts
// when relevant. AgentID is nullable: null means the item applies to all
// of the owner's agents.
type KnowledgeItem struct {
	ID        uint                        `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
	DeletedAt gorm.DeletedAt              `gorm:"index" json:"-"`
	UserID    uint                        `gorm:"not null;index" json:"user_id"`
	AgentID   *uint                       `gorm:"index" json:"agent_id,omitempty"`
	Title     string                      `gorm:"not null" json:"title"`
	Content   string                      `gorm:"type:text;not null" json:"content"`
	Tags      datatypes.JSONSlice[string] `json:"tags"`

	// Relationships
	User  User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Agent *Agent `gorm:"foreignKey:AgentID" json:"-"`
}

// TableName specifies the table name for KnowledgeItem
func (KnowledgeItem) TableName() string {
	return "knowledge_items"
}
