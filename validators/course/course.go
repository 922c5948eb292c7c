package courseValidator

import (
	"strings"

	"learnhub/middleware"
	"learnhub/models/course"
	"learnhub/validators"

	"github.com/gofiber/fiber/v2"
)

// ============ Course Validators ============

// CourseIDParam validates the :id path parameter
func CourseIDParam() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseID, ok := validators.ParseID(c.Params("id"))
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Course ID!", nil)
		}
		c.Locals("courseID", courseID)
		return c.Next()
	}
}

type ListCoursesRequest struct {
	Search   string `query:"search" json:"search" validate:"max=100"`
	Category string `query:"category" json:"category" validate:"max=100"`
	Page     int    `query:"page" json:"page" validate:"gte=0"`
	Limit    int    `query:"limit" json:"limit" validate:"gte=0,lte=100"`
}

// CourseList validates listing query parameters
func CourseList() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ListCoursesRequest)
		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}
		reqData.Search = strings.TrimSpace(reqData.Search)

		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCourseList", reqData)
		return c.Next()
	}
}

type LessonInput struct {
	Title    string `json:"title" validate:"required,max=200"`
	Type     string `json:"type" validate:"required,oneof=Video Article Quiz"`
	Content  string `json:"content"`
	Duration int    `json:"duration" validate:"gte=0"`
	Order    int    `json:"order"`
}

type ModuleInput struct {
	Title   string        `json:"title" validate:"required,max=200"`
	Order   int           `json:"order"`
	Lessons []LessonInput `json:"lessons" validate:"dive"`
}

type ChapterInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
	VideoURL    string `json:"videoUrl" validate:"omitempty,url"`
	Duration    string `json:"duration"`
	Order       int    `json:"order"`
}

type CreateCourseRequest struct {
	Title        string         `json:"title" validate:"required,min=3,max=200"`
	Description  string         `json:"description" validate:"required,min=5"`
	Category     string         `json:"category" validate:"max=100"`
	Level        string         `json:"level" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	Language     string         `json:"language" validate:"max=50"`
	ThumbnailURL string         `json:"thumbnail_url" validate:"omitempty,url"`
	Price        float64        `json:"price" validate:"gte=0"`
	Modules      []ModuleInput  `json:"modules" validate:"dive"`
	Chapters     []ChapterInput `json:"chapters" validate:"dive"`
}

// ToCourse maps the request onto a course model
func (r *CreateCourseRequest) ToCourse() course.Course {
	return course.Course{
		Title:        r.Title,
		Description:  r.Description,
		Category:     r.Category,
		Level:        r.Level,
		Language:     r.Language,
		ThumbnailURL: r.ThumbnailURL,
		Price:        r.Price,
		Modules:      ToModules(r.Modules),
		Chapters:     ToChapters(r.Chapters),
	}
}

func ToModules(in []ModuleInput) []course.Module {
	if in == nil {
		return nil
	}
	out := make([]course.Module, len(in))
	for i, m := range in {
		lessons := make([]course.Lesson, len(m.Lessons))
		for j, l := range m.Lessons {
			lessons[j] = course.Lesson{Title: l.Title, Type: l.Type, Content: l.Content, Duration: l.Duration, Order: l.Order}
		}
		out[i] = course.Module{Title: m.Title, Order: m.Order, Lessons: lessons}
	}
	return out
}

func ToChapters(in []ChapterInput) []course.Chapter {
	if in == nil {
		return nil
	}
	out := make([]course.Chapter, len(in))
	for i, ch := range in {
		out[i] = course.Chapter{Title: ch.Title, Description: ch.Description, VideoURL: ch.VideoURL, Duration: ch.Duration, Order: ch.Order}
	}
	return out
}

// CreateCourse validates instructor course creation request
func CreateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CreateCourseRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.Title = strings.TrimSpace(reqData.Title)
		reqData.Description = strings.TrimSpace(reqData.Description)

		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCourse", reqData)
		return c.Next()
	}
}

type UpdateContentRequest struct {
	Title       *string        `json:"title" validate:"omitempty,min=3,max=200"`
	Description *string        `json:"description" validate:"omitempty,min=5"`
	Category    *string        `json:"category" validate:"omitempty,max=100"`
	Level       *string        `json:"level" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	Price       *float64       `json:"price" validate:"omitempty,gte=0"`
	Modules     []ModuleInput  `json:"modules" validate:"omitempty,dive"`
	Chapters    []ChapterInput `json:"chapters" validate:"omitempty,dive"`
}

// UpdateContent validates a partial course update
func UpdateContent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseID, ok := validators.ParseID(c.Params("id"))
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Course ID!", nil)
		}

		reqData := new(UpdateContentRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("courseID", courseID)
		c.Locals("validatedContent", reqData)
		return c.Next()
	}
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft pending approved rejected"`
}

// UpdateStatus validates admin course moderation request
func UpdateStatus() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseID, ok := validators.ParseID(c.Params("id"))
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Course ID!", nil)
		}

		reqData := new(UpdateStatusRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.Status = strings.ToLower(strings.TrimSpace(reqData.Status))
		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("courseID", courseID)
		c.Locals("validatedStatus", reqData)
		return c.Next()
	}
}

type SubmitReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// SubmitReview validates a review submission
func SubmitReview() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseID, ok := validators.ParseID(c.Params("id"))
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Course ID!", nil)
		}

		reqData := new(SubmitReviewRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.Comment = strings.TrimSpace(reqData.Comment)
		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("courseID", courseID)
		c.Locals("validatedReview", reqData)
		return c.Next()
	}
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=student instructor admin"`
}

// UpdateUserRole validates admin role changes
func UpdateUserRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := validators.ParseID(c.Params("id"))
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid User ID!", nil)
		}
		reqData := new(UpdateRoleRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.Role = strings.ToLower(strings.TrimSpace(reqData.Role))
		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}
		c.Locals("targetUserID", userID)
		c.Locals("validatedRole", reqData)
		return c.Next()
	}
}
