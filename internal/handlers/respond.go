package handlers

import (
	"errors"
	"log/slog"

	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/dto"
	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/services"
	"github.com/gofiber/fiber/v2"
)

// respondError maps service errors to the response envelope. 4xx responses
// carry the error message; 5xx responses hide details and log the raw error.
func respondError(c *fiber.Ctx, err error) error {
	var status int
	message := err.Error()

	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrUserExists),
		errors.Is(err, services.ErrInvalidOTP),
		errors.Is(err, services.ErrOTPExpired):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrPendingNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidIDToken):
		status = fiber.StatusUnauthorized
	case errors.Is(err, services.ErrMailDelivery):
		slog.Error("email delivery failed", "path", c.Path(), "error", err)
		status = fiber.StatusInternalServerError
		message = "Failed to send email"
	default:
		slog.Error("unhandled service error", "path", c.Path(), "error", err)
		status = fiber.StatusInternalServerError
		message = "Internal server error"
	}

	return c.Status(status).JSON(dto.Response{Success: false, Message: message})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.Response{
		Success: false, Message: message,
	})
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.Response{
		Success: false, Message: message,
	})
}
