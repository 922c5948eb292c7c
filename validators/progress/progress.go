package progressValidator

import (
	"strings"

	"learnhub/middleware"
	"learnhub/validators"

	"github.com/gofiber/fiber/v2"
)

type MarkCompleteRequest struct {
	CourseID uint   `json:"courseId" validate:"required,gt=0"`
	LessonID string `json:"lessonId" validate:"required,max=32,lessonkey"`
}

// MarkComplete validator middleware
func MarkComplete() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(MarkCompleteRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.LessonID = strings.TrimSpace(reqData.LessonID)

		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedMarkComplete", reqData)
		return c.Next()
	}
}

// CourseParam validates the :courseId path parameter
func CourseParam() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseID, ok := validators.ParseID(c.Params("courseId"))
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Course ID!", nil)
		}
		c.Locals("courseID", courseID)
		return c.Next()
	}
}
