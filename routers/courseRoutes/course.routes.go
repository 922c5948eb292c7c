package courseRoutes

import (
	courseController "learnhub/controllers/course"
	"learnhub/middleware"
	"learnhub/models"
	validators "learnhub/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up the catalog, review and instructor routes
func SetupCourseRoutes(app *fiber.App, h *courseController.Handler) {
	courseGroup := app.Group("/course")
	instructorOnly := middleware.RequireRoles(models.RoleInstructor, models.RoleAdmin)

	// Public catalog
	courseGroup.Get("/list", validators.CourseList(), h.ListCourses)
	courseGroup.Get("/:id", validators.CourseIDParam(), h.GetCourse)
	courseGroup.Get("/:id/reviews", validators.CourseIDParam(), h.ListReviews)

	// Reviews
	courseGroup.Post("/:id/reviews", middleware.JWTMiddleware, validators.SubmitReview(), h.SubmitReview)

	// Authoring
	courseGroup.Post("/create", middleware.JWTMiddleware, instructorOnly, validators.CreateCourse(), h.CreateCourse)
	courseGroup.Put("/:id/content", middleware.JWTMiddleware, instructorOnly, validators.UpdateContent(), h.UpdateContent)
	courseGroup.Delete("/:id", middleware.JWTMiddleware, instructorOnly, validators.CourseIDParam(), h.DeleteCourse)

	instructorGroup := app.Group("/instructor", middleware.JWTMiddleware, instructorOnly)
	instructorGroup.Get("/courses", h.InstructorCourses)
	instructorGroup.Get("/analytics", h.InstructorAnalytics)
}
