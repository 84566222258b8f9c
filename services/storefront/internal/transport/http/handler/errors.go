package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/storefront/pkg/mylogger"
	"github.com/sakashimaa/storefront/pkg/utils"
	"github.com/sakashimaa/storefront/services/storefront/internal/client"
	"github.com/sakashimaa/storefront/services/storefront/internal/domain"
	"go.uber.org/zap"
)

func mapErrorStatus(err error) int {
	var statusErr *client.StatusError
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrSessionChanged):
		return fiber.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	case errors.As(err, &statusErr) && statusErr.StatusCode >= 400 && statusErr.StatusCode < 500:
		return statusErr.StatusCode
	case errors.Is(err, domain.ErrNetwork):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func writeError(c *fiber.Ctx, logger *zap.Logger, msg string, err error) error {
	code := mapErrorStatus(err)

	mylogger.Warn(
		c.UserContext(),
		logger,
		msg,
		zap.Int("http_status", code),
		zap.Error(err),
	)

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return c.Status(code).JSON(fiber.Map{
			"error": utils.FormatValidationError(validationErrs),
		})
	}

	body := err.Error()
	if code >= fiber.StatusInternalServerError {
		body = http.StatusText(code)
	}

	return c.Status(code).JSON(fiber.Map{
		"error": body,
	})
}

func badRequest(c *fiber.Ctx, logger *zap.Logger, msg string, err error) error {
	mylogger.Warn(c.UserContext(), logger, msg, zap.Error(err))

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": utils.FormatValidationError(validationErrs),
		})
	}

	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "invalid request body",
	})
}
