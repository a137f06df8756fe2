package api

import (
	"errors"

	synister "github.com/ChitterSync/SynisterChat"
	"github.com/ChitterSync/SynisterChat/internal/chat"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// errorHandler maps domain errors to HTTP statuses.
func errorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		msg := "Internal server error"

		var fe *fiber.Error
		switch {
		case errors.As(err, &fe):
			code, msg = fe.Code, fe.Message
		case errors.Is(err, synister.ErrNotFound):
			code, msg = fiber.StatusNotFound, "Not found"
		case errors.Is(err, synister.ErrOwnerNotFound):
			code, msg = fiber.StatusForbidden, "Owner not provisioned"
		case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrEmptyTitle):
			code, msg = fiber.StatusBadRequest, err.Error()
		}

		if code >= fiber.StatusInternalServerError {
			log.WithError(err).WithField("path", c.Path()).Error("request failed")
		}

		return c.Status(code).JSON(fiber.Map{
			"error": msg,
		})
	}
}
