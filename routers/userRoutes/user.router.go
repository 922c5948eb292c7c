package userProfileRoutes

import (
	userProfileController "learnhub/controllers/userControllers"
	"learnhub/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(app *fiber.App, h *userProfileController.Handler) {
	userGroup := app.Group("/user", middleware.JWTMiddleware)

	userGroup.Get("/profile", h.Profile)
	userGroup.Get("/courses", h.EnrolledCourses)
}
