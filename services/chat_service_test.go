package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/Franc-dev/galaxy-chat/model"
	"github.com/Franc-dev/galaxy-chat/services/openrouter"
)

func seedChatFixtures(t *testing.T, db *gorm.DB) (*model.User, *model.Agent, *model.Conversation, *model.Message) {
	t.Helper()

	user := createUser(t, db, 0, 20, model.RoleUser)

	agent := &model.Agent{
		Name:         "General Assistant",
		SystemPrompt: "You are a helpful assistant.",
		IsActive:     true,
	}
	if err := db.Create(agent).Error; err != nil {
		t.Fatal(err)
	}

	conversation := &model.Conversation{
		UserID:  user.ID,
		AgentID: agent.ID,
		Title:   "Test conversation",
	}
	if err := db.Create(conversation).Error; err != nil {
		t.Fatal(err)
	}

	msg := &model.Message{
		ConversationID: conversation.ID,
		Role:           model.MessageRoleUser,
		Content:        "original content",
		Status:         model.MessageStatusSent,
	}
	if err := db.Create(msg).Error; err != nil {
		t.Fatal(err)
	}

	return user, agent, conversation, msg
}

func TestResolveConversationCreatesWithDerivedTitle(t *testing.T) {
	db := testDB(t)
	svc := NewChatService(db, nil, nil)
	user, agent, _, _ := seedChatFixtures(t, db)

	conversation, err := svc.resolveConversation(user.ID, agent.ID, 0, "What is the capital of France?")
	if err != nil {
		t.Fatalf("resolveConversation failed: %v", err)
	}
	if conversation.ID == 0 {
		t.Fatal("new conversation was not persisted")
	}
	if conversation.Title != "What is the capital of France?" {
		t.Errorf("title = %q", conversation.Title)
	}
	if conversation.UserID != user.ID || conversation.AgentID != agent.ID {
		t.Errorf("ownership wrong: user=%d agent=%d", conversation.UserID, conversation.AgentID)
	}
}

func TestResolveConversationCreatesOnMiss(t *testing.T) {
	db := testDB(t)
	svc := NewChatService(db, nil, nil)
	user, agent, _, _ := seedChatFixtures(t, db)

	// A stale id (deleted conversation, client bug) must not fail the turn
	conversation, err := svc.resolveConversation(user.ID, agent.ID, 99999, "hello there")
	if err != nil {
		t.Fatalf("resolveConversation failed: %v", err)
	}
	if conversation.ID == 0 || conversation.ID == 99999 {
		t.Fatalf("expected a fresh conversation, got id %d", conversation.ID)
	}
	if conversation.Title != "hello there" {
		t.Errorf("title = %q", conversation.Title)
	}
	if conversation.UserID != user.ID {
		t.Errorf("owner = %d, want %d", conversation.UserID, user.ID)
	}
}

func TestResolveConversationForeignIDCreatesFresh(t *testing.T) {
	db := testDB(t)
	svc := NewChatService(db, nil, nil)
	_, agent, conversation, _ := seedChatFixtures(t, db)

	other := &model.User{Email: "other@example.com", PasswordHash: "x", IsActive: true}
	if err := db.Create(other).Error; err != nil {
		t.Fatal(err)
	}

	// Someone else's id never resolves; the caller gets their own conversation
	got, err := svc.resolveConversation(other.ID, agent.ID, conversation.ID, "borrowed id")
	if err != nil {
		t.Fatalf("resolveConversation failed: %v", err)
	}
	if got.ID == conversation.ID {
		t.Fatal("foreign conversation must not be handed out")
	}
	if got.UserID != other.ID {
		t.Errorf("owner = %d, want %d", got.UserID, other.ID)
	}
}

func TestPrepareTurnWithoutGateway(t *testing.T) {
	db := testDB(t)
	svc := NewChatService(db, nil, nil)
	user, agent, _, _ := seedChatFixtures(t, db)

	_, err := svc.PrepareTurn(context.Background(), user, TurnRequest{
		Messages: []openrouter.ChatMessage{{Role: "user", Content: "hi"}},
		AgentID:  agent.ID,
	})
	if !errors.Is(err, ErrGatewayNotConfigured) {
		t.Fatalf("no gateway: got %v, want ErrGatewayNotConfigured", err)
	}
}

func TestEditMessage(t *testing.T) {
	db := testDB(t)
	svc := NewChatService(db, nil, nil)
	user, _, _, msg := seedChatFixtures(t, db)

	edited, err := svc.EditMessage(user.ID, msg.ID, "rewritten content")
	if err != nil {
		t.Fatalf("EditMessage failed: %v", err)
	}
	if edited.Content != "rewritten content" {
		t.Errorf("content = %q", edited.Content)
	}
	if edited.Status != model.MessageStatusEdited {
		t.Errorf("status = %q, want EDITED", edited.Status)
	}

	var stored model.Message
	db.First(&stored, msg.ID)
	if stored.Content != "rewritten content" || stored.Status != model.MessageStatusEdited {
		t.Errorf("edit not persisted: %+v", stored)
	}
}

func TestEditMessageOwnership(t *testing.T) {
	db := testDB(t)
	svc := NewChatService(db, nil, nil)
	_, _, _, msg := seedChatFixtures(t, db)

	other := &model.User{Email: "other@example.com", PasswordHash: "x", IsActive: true}
	if err := db.Create(other).Error; err != nil {
		t.Fatal(err)
	}

	_, err := svc.EditMessage(other.ID, msg.ID, "hijacked")
	if !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("foreign edit: got %v, want ErrMessageNotFound", err)
	}

	var stored model.Message
	db.First(&stored, msg.ID)
	if stored.Content != "original content" {
		t.Errorf("foreign edit changed content: %q", stored.Content)
	}
}

func TestDeleteMessageIdempotent(t *testing.T) {
	db := testDB(t)
	svc := NewChatService(db, nil, nil)
	user, _, _, msg := seedChatFixtures(t, db)

	if err := svc.DeleteMessage(user.ID, msg.ID); err != nil {
		t.Fatalf("DeleteMessage failed: %v", err)
	}

	var count int64
	db.Model(&model.Message{}).Where("id = ?", msg.ID).Count(&count)
	if count != 0 {
		t.Error("message still visible after delete")
	}

	// Deleting again, and deleting ids that never existed, must not error
	if err := svc.DeleteMessage(user.ID, msg.ID); err != nil {
		t.Errorf("repeat delete errored: %v", err)
	}
	if err := svc.DeleteMessage(user.ID, 99999); err != nil {
		t.Errorf("unknown id delete errored: %v", err)
	}
}

func TestDeleteMessageOwnership(t *testing.T) {
	db := testDB(t)
	svc := NewChatService(db, nil, nil)
	_, _, _, msg := seedChatFixtures(t, db)

	other := &model.User{Email: "other@example.com", PasswordHash: "x", IsActive: true}
	if err := db.Create(other).Error; err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteMessage(other.ID, msg.ID); err != nil {
		t.Fatalf("DeleteMessage failed: %v", err)
	}

	var count int64
	db.Model(&model.Message{}).Where("id = ?", msg.ID).Count(&count)
	if count != 1 {
		t.Error("foreign delete removed someone else's message")
	}
}

func TestLatestUserContent(t *testing.T) {
	messages := []openrouter.ChatMessage{
		{Role: "user", Content: "first question"},
		{Role: "assistant", Content: "an answer"},
		{Role: "user", Content: "follow up"},
	}
	if got := latestUserContent(messages); got != "follow up" {
		t.Errorf("latestUserContent = %q, want %q", got, "follow up")
	}
	if got := latestUserContent(nil); got != "" {
		t.Errorf("latestUserContent(nil) = %q, want empty", got)
	}
}

func TestFinishTurnPersistsAssistantMessage(t *testing.T) {
	db := testDB(t)
	svc := NewChatService(db, nil, nil)
	user, agent, conversation, _ := seedChatFixtures(t, db)

	turn := &Turn{
		User:         user,
		Agent:        agent,
		Conversation: conversation,
		Model:        "mistralai/mistral-7b-instruct:free",
	}

	svc.FinishTurn(turn, "the full reply", false)

	var stored model.Message
	err := db.Where("conversation_id = ? AND role = ?", conversation.ID, model.MessageRoleAssistant).
		First(&stored).Error
	if err != nil {
		t.Fatalf("assistant message missing: %v", err)
	}
	if stored.Content != "the full reply" {
		t.Errorf("content = %q", stored.Content)
	}
	if stored.Status != model.MessageStatusSent {
		t.Errorf("status = %q, want SENT", stored.Status)
	}
	if stored.Model != turn.Model {
		t.Errorf("model = %q", stored.Model)
	}
}

func TestFinishTurnKeepsPartialOnFailure(t *testing.T) {
	db := testDB(t)
	svc := NewChatService(db, nil, nil)
	_, _, conversation, _ := seedChatFixtures(t, db)

	turn := &Turn{Conversation: conversation, Model: "m"}

	// Partial text from a broken stream is kept, marked FAILED
	svc.FinishTurn(turn, "partial rep", true)

	var stored model.Message
	err := db.Where("conversation_id = ? AND role = ?", conversation.ID, model.MessageRoleAssistant).
		First(&stored).Error
	if err != nil {
		t.Fatalf("partial message missing: %v", err)
	}
	if stored.Status != model.MessageStatusFailed {
		t.Errorf("status = %q, want FAILED", stored.Status)
	}

	// A failure before any content arrived leaves nothing behind
	empty := &model.Conversation{UserID: conversation.UserID, AgentID: conversation.AgentID, Title: "t"}
	if err := db.Create(empty).Error; err != nil {
		t.Fatal(err)
	}
	svc.FinishTurn(&Turn{Conversation: empty, Model: "m"}, "", true)

	var count int64
	db.Model(&model.Message{}).Where("conversation_id = ?", empty.ID).Count(&count)
	if count != 0 {
		t.Errorf("empty failed turn persisted %d message(s)", count)
	}
}
