package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/Franc-dev/galaxy-chat/services"
	"github.com/Franc-dev/galaxy-chat/services/openrouter"
	"github.com/Franc-dev/galaxy-chat/utils/middleware"
	"github.com/Franc-dev/galaxy-chat/utils/response"
	"github.com/Franc-dev/galaxy-chat/utils/sse"
)

// ChatHandler handles chat turn streaming and message editing
type ChatHandler struct {
	chatService *services.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// SendMessageRequest is the body of POST /chat
type SendMessageRequest struct {
	Messages       []openrouter.ChatMessage `json:"messages"`
	AgentID        uint                     `json:"agent_id"`
	ConversationID uint                     `json:"conversation_id,omitempty"`
}

// SendMessage runs one chat turn and streams the assistant reply as SSE.
// Conversation id and remaining quota travel in response headers since the
// body is the event stream.
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.AgentID == 0 {
		return response.BadRequest(c, "Agent ID is required")
	}
	if len(req.Messages) == 0 {
		return response.BadRequest(c, "Messages are required")
	}

	turn, err := h.chatService.PrepareTurn(c.Context(), user, services.TurnRequest{
		Messages:       req.Messages,
		AgentID:        req.AgentID,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrQuotaExceeded):
			return response.QuotaExceeded(c, user.MessagesUsed, user.MessageLimit)
		case errors.Is(err, services.ErrAgentNotFound):
			return response.NotFound(c, "Agent not found")
		case errors.Is(err, services.ErrGatewayNotConfigured):
			return response.ServiceUnavailable(c, "AI gateway is not configured")
		case errors.Is(err, openrouter.ErrNoAvailableModels):
			return response.ServiceUnavailable(c, "No AI models are currently available. Please try again later.")
		default:
			return response.InternalServerError(c, "Failed to start chat")
		}
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Conversation-Id", strconv.FormatUint(uint64(turn.Conversation.ID), 10))
	c.Set("X-Messages-Remaining", strconv.Itoa(turn.Remaining))
	c.Set("X-Model-Used", turn.Model)

	// The stream outlives this handler, so it must not borrow the request
	// context
	streamCtx := context.Background()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		fmt.Fprintf(w, "event: start\n")
		fmt.Fprintf(w, "data: {\"status\":\"streaming\",\"model\":%q}\n\n", turn.Model)
		w.Flush()

		content, streamErr := h.chatService.StreamReply(streamCtx, turn, func(chunk string) error {
			return sse.SendChunk(w, chunk)
		})

		h.chatService.FinishTurn(turn, content, streamErr != nil)

		if streamErr != nil {
			sse.SendError(w, streamErr)
			return
		}

		sse.SendDone(w)
	})

	return nil
}

// EditMessageRequest is the body of PUT /chat
type EditMessageRequest struct {
	MessageID uint   `json:"message_id"`
	Content   string `json:"content"`
}

// EditMessage rewrites a message's content and marks it EDITED
func (h *ChatHandler) EditMessage(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req EditMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.MessageID == 0 || req.Content == "" {
		return response.BadRequest(c, "Message ID and content are required")
	}

	msg, err := h.chatService.EditMessage(user.ID, req.MessageID, req.Content)
	if err != nil {
		if errors.Is(err, services.ErrMessageNotFound) {
			return response.NotFound(c, "Message not found")
		}
		return response.InternalServerError(c, "Failed to edit message")
	}

	return response.Success(c, msg)
}

// DeleteMessage removes a message. Deleting an already-absent message
// succeeds so client retries stay safe.
func (h *ChatHandler) DeleteMessage(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	messageID, err := strconv.ParseUint(c.Query("message_id"), 10, 64)
	if err != nil || messageID == 0 {
		return response.BadRequest(c, "Message ID is required")
	}

	if err := h.chatService.DeleteMessage(user.ID, uint(messageID)); err != nil {
		return response.InternalServerError(c, "Failed to delete message")
	}

	return response.SuccessWithMessage(c, "Message deleted", nil)
}
