package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/jjutv/tubesource/errors"
)

// NewErrorHandler maps AppErrors onto the wire format every endpoint
// shares. Per-source diagnostic detail stays in the logs; clients get a
// single consolidated message.
func NewErrorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		if e, ok := errors.As(err); ok {
			code = e.Code
			message = e.Message
		} else if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			message = e.Message
		}

		log.WithFields(logrus.Fields{
			"request_id": c.Get("X-Request-ID"),
			"path":       c.Path(),
			"method":     c.Method(),
			"status":     code,
			"error":      err,
		}).Error("Request error")

		return c.Status(code).JSON(fiber.Map{
			"success":    false,
			"error":      message,
			"request_id": c.Get("X-Request-ID"),
		})
	}
}
