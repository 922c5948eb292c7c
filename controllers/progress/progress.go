package progressController

import (
	"learnhub/middleware"
	"learnhub/services"
	progressValidator "learnhub/validators/progress"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	progress *services.ProgressService
}

func NewHandler(progress *services.ProgressService) *Handler {
	return &Handler{progress: progress}
}

func (h *Handler) MarkComplete(c *fiber.Ctx) error {
	userId, ok := middleware.UserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	reqData, ok := c.Locals("validatedMarkComplete").(*progressValidator.MarkCompleteRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	progress, err := h.progress.MarkLessonComplete(c.UserContext(), userId, reqData.CourseID, reqData.LessonID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson marked as complete.", progress)
}

func (h *Handler) GetProgress(c *fiber.Ctx) error {
	userId, ok := middleware.UserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID, _ := c.Locals("courseID").(uint)

	progress, err := h.progress.GetProgress(c.UserContext(), userId, courseID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully.", progress)
}
