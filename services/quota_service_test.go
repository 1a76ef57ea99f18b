package services

import (
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Franc-dev/galaxy-chat/model"
)

// testDB opens an in-memory SQLite database with the full schema
func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.Agent{},
		&model.Conversation{},
		&model.Message{},
		&model.KnowledgeItem{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB, used, limit int, role model.UserRole) *model.User {
	t.Helper()

	user := &model.User{
		Email:        "user@example.com",
		PasswordHash: "x",
		Name:         "user",
		Role:         role,
		MessagesUsed: used,
		MessageLimit: limit,
		IsActive:     true,
		LastReset:    time.Now(),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func TestConsumeBelowLimit(t *testing.T) {
	db := testDB(t)
	svc := NewQuotaService(db)
	user := createUser(t, db, 3, 20, model.RoleUser)

	if err := svc.Consume(user); err != nil {
		t.Fatalf("Consume below limit failed: %v", err)
	}
	if user.MessagesUsed != 4 {
		t.Errorf("in-memory counter = %d, want 4", user.MessagesUsed)
	}
	if got := svc.Remaining(user); got != 16 {
		t.Errorf("Remaining = %d, want 16", got)
	}

	var stored model.User
	db.First(&stored, user.ID)
	if stored.MessagesUsed != 4 {
		t.Errorf("persisted counter = %d, want 4", stored.MessagesUsed)
	}
}

func TestConsumeAtLimitRejects(t *testing.T) {
	db := testDB(t)
	svc := NewQuotaService(db)
	user := createUser(t, db, 20, 20, model.RoleUser)

	if svc.HasQuota(user) {
		t.Error("HasQuota should be false at the limit")
	}

	err := svc.Consume(user)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("Consume at limit: got %v, want ErrQuotaExceeded", err)
	}

	var stored model.User
	db.First(&stored, user.ID)
	if stored.MessagesUsed != 20 {
		t.Errorf("counter moved past the limit: %d", stored.MessagesUsed)
	}
}

func TestConsumeRefusesOverdraw(t *testing.T) {
	db := testDB(t)
	svc := NewQuotaService(db)
	user := createUser(t, db, 0, 3, model.RoleUser)

	for i := 0; i < 3; i++ {
		if err := svc.Consume(user); err != nil {
			t.Fatalf("Consume #%d failed: %v", i+1, err)
		}
	}

	// A stale in-memory copy must not be able to take a fourth slot: the
	// conditional UPDATE sees the real counter
	stale := *user
	stale.MessagesUsed = 0
	if err := svc.Consume(&stale); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("overdraw with stale counter: got %v, want ErrQuotaExceeded", err)
	}

	var stored model.User
	db.First(&stored, user.ID)
	if stored.MessagesUsed != 3 {
		t.Errorf("persisted counter = %d, want 3", stored.MessagesUsed)
	}
}

func TestConsumeAdminExempt(t *testing.T) {
	db := testDB(t)
	svc := NewQuotaService(db)
	admin := createUser(t, db, 20, 20, model.RoleAdmin)

	if !svc.HasQuota(admin) {
		t.Error("admin should always have quota")
	}
	if err := svc.Consume(admin); err != nil {
		t.Fatalf("admin Consume failed: %v", err)
	}
	if got := svc.Remaining(admin); got != model.AdminMessagesRemaining {
		t.Errorf("admin Remaining = %d, want %d", got, model.AdminMessagesRemaining)
	}

	var stored model.User
	db.First(&stored, admin.ID)
	if stored.MessagesUsed != 20 {
		t.Errorf("admin counter changed: %d", stored.MessagesUsed)
	}
}

func TestResetIfStale(t *testing.T) {
	db := testDB(t)
	svc := NewQuotaService(db)
	user := createUser(t, db, 15, 20, model.RoleUser)

	// Fresh window: nothing happens
	if err := svc.ResetIfStale(user); err != nil {
		t.Fatalf("ResetIfStale failed: %v", err)
	}
	if user.MessagesUsed != 15 {
		t.Errorf("fresh window was reset: %d", user.MessagesUsed)
	}

	// Age the window past 24h
	stale := time.Now().Add(-QuotaWindow - time.Minute)
	db.Model(user).Update("last_reset", stale)
	user.LastReset = stale

	if err := svc.ResetIfStale(user); err != nil {
		t.Fatalf("ResetIfStale failed: %v", err)
	}
	if user.MessagesUsed != 0 {
		t.Errorf("stale window not reset in memory: %d", user.MessagesUsed)
	}

	var stored model.User
	db.First(&stored, user.ID)
	if stored.MessagesUsed != 0 {
		t.Errorf("stale window not reset in database: %d", stored.MessagesUsed)
	}
	if time.Since(stored.LastReset) > time.Minute {
		t.Errorf("last_reset not refreshed: %v", stored.LastReset)
	}
}

func TestSweepStaleWindows(t *testing.T) {
	db := testDB(t)
	svc := NewQuotaService(db)

	stale := &model.User{
		Email:        "stale@example.com",
		PasswordHash: "x",
		MessagesUsed: 12,
		MessageLimit: 20,
		IsActive:     true,
		LastReset:    time.Now().Add(-QuotaWindow - time.Hour),
	}
	fresh := &model.User{
		Email:        "fresh@example.com",
		PasswordHash: "x",
		MessagesUsed: 5,
		MessageLimit: 20,
		IsActive:     true,
		LastReset:    time.Now(),
	}
	if err := db.Create(stale).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(fresh).Error; err != nil {
		t.Fatal(err)
	}

	if err := svc.SweepStaleWindows(); err != nil {
		t.Fatalf("SweepStaleWindows failed: %v", err)
	}

	var staleAfter, freshAfter model.User
	db.First(&staleAfter, stale.ID)
	db.First(&freshAfter, fresh.ID)

	if staleAfter.MessagesUsed != 0 {
		t.Errorf("stale user not swept: %d", staleAfter.MessagesUsed)
	}
	if freshAfter.MessagesUsed != 5 {
		t.Errorf("fresh user was swept: %d", freshAfter.MessagesUsed)
	}
}
