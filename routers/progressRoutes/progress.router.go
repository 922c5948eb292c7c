package progressRoutes

import (
	progressController "learnhub/controllers/progress"
	"learnhub/middleware"
	progressValidator "learnhub/validators/progress"

	"github.com/gofiber/fiber/v2"
)

func SetupProgressRoutes(app *fiber.App, h *progressController.Handler) {
	progressGroup := app.Group("/progress", middleware.JWTMiddleware)

	progressGroup.Post("/mark-complete", progressValidator.MarkComplete(), h.MarkComplete)
	progressGroup.Get("/:courseId", progressValidator.CourseParam(), h.GetProgress)
}
