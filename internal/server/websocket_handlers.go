package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"hearth/internal/cache"
	"hearth/internal/middleware"
	"hearth/internal/models"
	"hearth/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const wsTicketTTL = 30 * time.Second

var errInvalidTicket = errors.New("invalid websocket ticket")

// IssueWSTicket handles POST /api/ws/ticket. Browsers cannot set headers on
// websocket upgrades, so they exchange a bearer token for a single-use ticket.
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	ticket := uuid.NewString()
	if err := s.redis.Set(c.UserContext(), cache.WSTicketKey(ticket), currentUserID(c), wsTicketTTL).Err(); err != nil {
		return respondError(c, models.NewStoreUnavailableError(err))
	}
	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(wsTicketTTL.Seconds()),
	})
}

// redeemWSTicket consumes ticket atomically and returns its user.
func (s *Server) redeemWSTicket(ctx context.Context, ticket string) (string, error) {
	userID, err := s.redis.GetDel(ctx, cache.WSTicketKey(ticket)).Result()
	if errors.Is(err, redis.Nil) {
		return "", errInvalidTicket
	}
	if err != nil {
		return "", err
	}
	if models.ValidateUserID(userID) != nil {
		return "", errInvalidTicket
	}
	return userID, nil
}

// WebsocketHandler handles GET /api/ws: the authenticated user's event stream.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals("userID").(string)
		if !ok || userID == "" {
			_ = conn.Close()
			return
		}

		base := s.shutdownCtx
		if base == nil {
			base = context.Background()
		}
		ctx, cancel := context.WithCancel(base)
		defer cancel()

		sub, err := s.hub.Subscribe(ctx, userID)
		if err != nil {
			middleware.Logger.Warn("websocket subscribe failed",
				slog.String("user_id", userID), slog.String("error", err.Error()))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"subscribe failed"}`))
			_ = conn.Close()
			return
		}

		notifications.NewClient(conn, sub).Serve()
	})
}
