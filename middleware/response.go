package middleware

import (
	"learnhub/apperrors"
	"learnhub/config"

	"github.com/gofiber/fiber/v2"
)

func JsonResponse(c *fiber.Ctx, statusCode int, status bool, message string, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

func ValidationErrorResponse(c *fiber.Ctx, errors map[string]string) error {
	return JsonResponse(c, fiber.StatusUnprocessableEntity, false, "Validation failed!", errors)
}

// StatusFor maps an error kind onto its HTTP status
func StatusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindNotFound:
		return fiber.StatusNotFound
	case apperrors.KindForbidden:
		return fiber.StatusForbidden
	case apperrors.KindValidation:
		return fiber.StatusUnprocessableEntity
	case apperrors.KindPaymentVerification:
		return fiber.StatusBadRequest
	case apperrors.KindConflict:
		return fiber.StatusConflict
	case apperrors.KindUpstreamUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorResponse renders err with its stable kind. The underlying cause is
// only included in development.
func ErrorResponse(c *fiber.Ctx, err error) error {
	kind := apperrors.KindOf(err)
	body := fiber.Map{
		"status":  false,
		"message": apperrors.MessageOf(err),
		"data":    nil,
		"error":   kind,
	}
	if config.AppConfig != nil && config.AppConfig.IsDevelopment() {
		body["detail"] = err.Error()
	}
	return c.Status(StatusFor(kind)).JSON(body)
}
