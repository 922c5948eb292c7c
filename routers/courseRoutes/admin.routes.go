package courseRoutes

import (
	courseController "learnhub/controllers/course"
	"learnhub/middleware"
	"learnhub/models"
	validators "learnhub/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminRoutes sets up moderation, user management and reconciliation
func SetupAdminRoutes(app *fiber.App, h *courseController.Handler) {
	adminGroup := app.Group("/admin", middleware.JWTMiddleware, middleware.RequireRoles(models.RoleAdmin))

	adminGroup.Get("/courses", h.AdminListCourses)
	adminGroup.Put("/course/:id/status", validators.UpdateStatus(), h.AdminUpdateStatus)

	adminGroup.Get("/users", h.AdminListUsers)
	adminGroup.Put("/user/:id/role", validators.UpdateUserRole(), h.AdminUpdateUserRole)

	adminGroup.Post("/reconcile", h.AdminReconcile)
}
