// Package handlers implements the HTTP routes of the web front-end.
package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	u "pdfgen/internal/utils"
)

// NewErrorHandler renders every error as {"error": message}. Errors that are
// not *fiber.Error become a plain 500 without their text.
func NewErrorHandler(bodyLimitMB int) fiber.ErrorHandler {
	tooLarge := fmt.Sprintf("File too large. Maximum size is %dMB.", bodyLimitMB)

	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		msg := "Internal Server Error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			msg = fe.Message
		}
		if code == fiber.StatusRequestEntityTooLarge {
			msg = tooLarge
		}

		u.Warn("Request failed", "path", c.Path(), "status", code, "message", msg)
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
}
