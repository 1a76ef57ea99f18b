package services

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/Franc-dev/galaxy-chat/model"
)

// ErrQuotaExceeded is returned when a user has no messages left today
var ErrQuotaExceeded = errors.New("daily message limit reached")

// QuotaWindow is how long a usage window lasts before counters reset
const QuotaWindow = 24 * time.Hour

// QuotaService enforces per-user daily message limits. Admin roles are
// exempt and never consume quota.
type QuotaService struct {
	db *gorm.DB
}

// NewQuotaService creates a new quota service
func NewQuotaService(db *gorm.DB) *QuotaService {
	return &QuotaService{db: db}
}

// ResetIfStale zeroes the usage counter when the user's window has lapsed.
// Runs lazily on read paths so counters are correct even between sweeps.
func (s *QuotaService) ResetIfStale(user *model.User) error {
	if time.Since(user.LastReset) < QuotaWindow {
		return nil
	}

	now := time.Now()
	err := s.db.Model(&model.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"messages_used": 0,
			"last_reset":    now,
		}).Error
	if err != nil {
		return err
	}

	user.MessagesUsed = 0
	user.LastReset = now
	return nil
}

// Remaining returns how many messages the user can still send in this window
func (s *QuotaService) Remaining(user *model.User) int {
	if user.Role.IsAdmin() {
		return model.AdminMessagesRemaining
	}

	remaining := user.MessageLimit - user.MessagesUsed
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// HasQuota reports whether the user can send at least one more message
func (s *QuotaService) HasQuota(user *model.User) bool {
	if user.Role.IsAdmin() {
		return true
	}
	return user.MessagesUsed < user.MessageLimit
}

// Consume charges one message against the user's quota. The increment is a
// conditional UPDATE so two concurrent requests cannot both take the last
// slot. Returns ErrQuotaExceeded when nothing was left to consume.
func (s *QuotaService) Consume(user *model.User) error {
	if user.Role.IsAdmin() {
		return nil
	}

	if err := s.ResetIfStale(user); err != nil {
		return err
	}

	result := s.db.Model(&model.User{}).
		Where("id = ? AND messages_used < message_limit", user.ID).
		Update("messages_used", gorm.Expr("messages_used + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrQuotaExceeded
	}

	user.MessagesUsed++
	return nil
}

// SweepStaleWindows resets counters for every user whose window has lapsed.
// Invoked by the nightly cron job so idle accounts do not carry stale usage.
func (s *QuotaService) SweepStaleWindows() error {
	cutoff := time.Now().Add(-QuotaWindow)

	result := s.db.Model(&model.User{}).
		Where("last_reset <= ? AND messages_used > 0", cutoff).
		Updates(map[string]interface{}{
			"messages_used": 0,
			"last_reset":    time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected > 0 {
		log.Printf("quota sweep reset %d user(s)", result.RowsAffected)
	}
	return nil
}
