package userProfileController

import (
	"learnhub/middleware"
	"learnhub/services"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	users       *services.UserService
	enrollments *services.EnrollmentService
}

func NewHandler(users *services.UserService, enrollments *services.EnrollmentService) *Handler {
	return &Handler{users: users, enrollments: enrollments}
}

func (h *Handler) Profile(c *fiber.Ctx) error {
	userId, ok := middleware.UserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	user, err := h.users.Profile(c.UserContext(), userId)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile fetched successfully.", user)
}

// EnrolledCourses lists the courses in the student's enrolled set
func (h *Handler) EnrolledCourses(c *fiber.Ctx) error {
	userId, ok := middleware.UserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courses, err := h.enrollments.EnrolledCourses(c.UserContext(), userId)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrolled courses fetched successfully.", courses)
}
