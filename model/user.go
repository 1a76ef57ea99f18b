package model

import (
	"time"

	"gorm.io/gorm"
)

// UserRole represents the access level of a user
type UserRole string

const (
	RoleUser       UserRole = "USER"
	RoleAdmin      UserRole = "ADMIN"
	RoleSuperAdmin UserRole = "SUPER_ADMIN"
)

// IsAdmin reports whether the role is exempt from message quotas
func (r UserRole) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// DefaultMessageLimit is the daily message allowance for new users
const DefaultMessageLimit = 20

// AdminMessagesRemaining is the sentinel remaining-count reported for
// admin roles, which are not subject to the quota
const AdminMessagesRemaining = 999

// User represents a registered user with daily quota state
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"` // Never expose password in JSON
	Name         string         `json:"name"`
	Role         UserRole       `gorm:"type:varchar(20);default:'USER'" json:"role"`
	MessagesUsed int            `gorm:"default:0" json:"messages_used"`
	MessageLimit int            `gorm:"default:20" json:"message_limit"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	LastReset    time.Time      `gorm:"autoCreateTime" json:"last_reset"`

	// Relationships
	Conversations  []Conversation  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	KnowledgeItems []KnowledgeItem `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
