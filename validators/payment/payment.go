package paymentValidator

import (
	"strings"

	"learnhub/middleware"
	"learnhub/validators"

	"github.com/gofiber/fiber/v2"
)

type CreateOrderRequest struct {
	CourseID uint `json:"courseId" validate:"required,gt=0"`
}

// CreateOrder validator middleware
func CreateOrder() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CreateOrderRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCreateOrder", reqData)
		return c.Next()
	}
}

// VerifyPaymentRequest carries the gateway confirmation. Free courses send
// only courseId.
type VerifyPaymentRequest struct {
	CourseID  uint   `json:"courseId" validate:"required,gt=0"`
	OrderID   string `json:"orderId" validate:"omitempty,max=100"`
	PaymentID string `json:"paymentId" validate:"omitempty,max=100"`
	Signature string `json:"signature" validate:"omitempty,max=256"`
}

// VerifyPayment validator middleware
func VerifyPayment() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(VerifyPaymentRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		reqData.OrderID = strings.TrimSpace(reqData.OrderID)
		reqData.PaymentID = strings.TrimSpace(reqData.PaymentID)
		reqData.Signature = strings.TrimSpace(reqData.Signature)

		errors := validators.Struct(reqData)
		// all three travel together
		if reqData.OrderID != "" || reqData.PaymentID != "" || reqData.Signature != "" {
			if reqData.OrderID == "" {
				errors["orderId"] = "orderId is required!"
			}
			if reqData.PaymentID == "" {
				errors["paymentId"] = "paymentId is required!"
			}
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedVerifyPayment", reqData)
		return c.Next()
	}
}
