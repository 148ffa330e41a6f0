package server

import (
	"hearth/internal/models"
	"hearth/internal/service"

	"github.com/gofiber/fiber/v2"
)

const maxHistoryLimit = 500

// SendMessageRequest is the body of POST /api/chats/:chatId/messages.
type SendMessageRequest struct {
	Text string `json:"text"`
}

// GetConversationWith handles GET /api/chats/with/:userId
func (s *Server) GetConversationWith(c *fiber.Ctx) error {
	id, err := s.chatService.ConversationWith(currentUserID(c), pathParam(c, "userId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"conversation_id": id})
}

// GetMessages handles GET /api/chats/:chatId/messages. A positive limit is
// capped at maxHistoryLimit; without one the whole conversation is returned.
func (s *Server) GetMessages(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		return respondError(c, models.NewValidationError("limit must not be negative"))
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	id := models.ConversationID(pathParam(c, "chatId"))
	messages, err := s.chatService.GetRecentMessages(c.UserContext(), id, currentUserID(c), limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(messages)
}

// SendMessage handles POST /api/chats/:chatId/messages
func (s *Server) SendMessage(c *fiber.Ctx) error {
	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	msg, err := s.chatService.SendMessage(c.UserContext(), service.SendMessageInput{
		ConversationID: models.ConversationID(pathParam(c, "chatId")),
		SenderID:       currentUserID(c),
		Text:           req.Text,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}
