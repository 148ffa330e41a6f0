package server

import (
	"log/slog"
	"net/url"

	"hearth/internal/middleware"
	"hearth/internal/models"

	"github.com/gofiber/fiber/v2"
)

// currentUserID returns the authenticated user set by AuthRequired.
func currentUserID(c *fiber.Ctx) string {
	userID, _ := c.Locals("userID").(string)
	return userID
}

// pathParam returns the URL-decoded route parameter name.
func pathParam(c *fiber.Ctx, name string) string {
	raw := c.Params(name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// respondError writes err with the status its code maps to. Server-side
// failures are logged; client errors are not.
func respondError(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()), slog.String("error", err.Error()))
	}
	return models.RespondWithError(c, status, err)
}
