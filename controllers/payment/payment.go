package paymentController

import (
	"learnhub/middleware"
	"learnhub/services"
	paymentValidator "learnhub/validators/payment"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	enrollments *services.EnrollmentService
}

func NewHandler(enrollments *services.EnrollmentService) *Handler {
	return &Handler{enrollments: enrollments}
}

// CreateOrder issues a payment intent for the course price. Free courses get
// a zero-amount order that verify-payment accepts without a signature.
func (h *Handler) CreateOrder(c *fiber.Ctx) error {
	userId, ok := middleware.UserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	reqData, ok := c.Locals("validatedCreateOrder").(*paymentValidator.CreateOrderRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	intent, err := h.enrollments.CreatePaymentIntent(c.UserContext(), userId, reqData.CourseID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Order created successfully.", intent)
}

func (h *Handler) VerifyPayment(c *fiber.Ctx) error {
	userId, ok := middleware.UserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	reqData, ok := c.Locals("validatedVerifyPayment").(*paymentValidator.VerifyPaymentRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	enrollment, created, err := h.enrollments.VerifyAndCommit(c.UserContext(), services.Confirmation{
		StudentID: userId,
		CourseID:  reqData.CourseID,
		OrderID:   reqData.OrderID,
		PaymentID: reqData.PaymentID,
		Signature: reqData.Signature,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	if !created {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Already enrolled.", enrollment)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Payment verified and enrollment successful.", enrollment)
}

func (h *Handler) MyEnrollments(c *fiber.Ctx) error {
	userId, ok := middleware.UserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	enrollments, err := h.enrollments.ListEnrollments(c.UserContext(), userId)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully.", enrollments)
}
