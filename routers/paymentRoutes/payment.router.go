package paymentRoutes

import (
	paymentController "learnhub/controllers/payment"
	"learnhub/middleware"
	paymentValidator "learnhub/validators/payment"

	"github.com/gofiber/fiber/v2"
)

func SetupPaymentRoutes(app *fiber.App, h *paymentController.Handler) {
	paymentGroup := app.Group("/payments", middleware.JWTMiddleware)

	paymentGroup.Post("/create-order", paymentValidator.CreateOrder(), h.CreateOrder)
	paymentGroup.Post("/verify-payment", paymentValidator.VerifyPayment(), h.VerifyPayment)
	paymentGroup.Get("/my-enrollments", h.MyEnrollments)
}
