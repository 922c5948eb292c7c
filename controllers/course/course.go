package courseController

import (
	"learnhub/middleware"
	"learnhub/models/course"
	"learnhub/services"
	courseValidator "learnhub/validators/course"

	"github.com/gofiber/fiber/v2"
)

// Handler serves catalog, review, instructor and admin course routes
type Handler struct {
	catalog    *services.Catalog
	ratings    *services.RatingService
	analytics  *services.AnalyticsService
	reconciler *services.Reconciler
	users      *services.UserService
}

func NewHandler(catalog *services.Catalog, ratings *services.RatingService, analytics *services.AnalyticsService, reconciler *services.Reconciler, users *services.UserService) *Handler {
	return &Handler{
		catalog:    catalog,
		ratings:    ratings,
		analytics:  analytics,
		reconciler: reconciler,
		users:      users,
	}
}

// ============ Public catalog ============

func (h *Handler) ListCourses(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedCourseList").(*courseValidator.ListCoursesRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	courses, total, err := h.catalog.ListApproved(c.UserContext(), services.ListFilter{
		Search:   reqData.Search,
		Category: reqData.Category,
		Page:     reqData.Page,
		Limit:    reqData.Limit,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully.", fiber.Map{
		"courses": courses,
		"total":   total,
	})
}

// GetCourse returns an approved course. Unpublished courses look missing.
func (h *Handler) GetCourse(c *fiber.Ctx) error {
	courseID, _ := c.Locals("courseID").(uint)

	found, err := h.catalog.FindByID(c.UserContext(), courseID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	if found.Status != course.StatusApproved {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course fetched successfully.", found)
}

// ============ Reviews ============

func (h *Handler) ListReviews(c *fiber.Ctx) error {
	courseID, _ := c.Locals("courseID").(uint)

	reviews, err := h.ratings.ListReviews(c.UserContext(), courseID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Reviews fetched successfully.", reviews)
}

func (h *Handler) SubmitReview(c *fiber.Ctx) error {
	userId, ok := middleware.UserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID, _ := c.Locals("courseID").(uint)
	reqData, ok := c.Locals("validatedReview").(*courseValidator.SubmitReviewRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	review, created, err := h.ratings.SubmitReview(c.UserContext(), courseID, userId, reqData.Rating, reqData.Comment)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	if created {
		return middleware.JsonResponse(c, fiber.StatusCreated, true, "Review submitted successfully.", review)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Review updated successfully.", review)
}

// ============ Instructor ============

func (h *Handler) CreateCourse(c *fiber.Ctx) error {
	userId, ok := middleware.UserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	reqData, ok := c.Locals("validatedCourse").(*courseValidator.CreateCourseRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	created, err := h.catalog.Create(c.UserContext(), userId, reqData.ToCourse())
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created successfully.", created)
}

func (h *Handler) UpdateContent(c *fiber.Ctx) error {
	userId, ok := middleware.UserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID, _ := c.Locals("courseID").(uint)
	reqData, ok := c.Locals("validatedContent").(*courseValidator.UpdateContentRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	updated, err := h.catalog.UpdateContent(c.UserContext(), userId, middleware.Role(c), courseID, services.ContentUpdate{
		Title:       reqData.Title,
		Description: reqData.Description,
		Category:    reqData.Category,
		Level:       reqData.Level,
		Price:       reqData.Price,
		Modules:     courseValidator.ToModules(reqData.Modules),
		Chapters:    courseValidator.ToChapters(reqData.Chapters),
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course updated successfully.", updated)
}

func (h *Handler) DeleteCourse(c *fiber.Ctx) error {
	userId, ok := middleware.UserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID, _ := c.Locals("courseID").(uint)

	if err := h.catalog.Delete(c.UserContext(), userId, middleware.Role(c), courseID); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course deleted.", nil)
}

func (h *Handler) InstructorCourses(c *fiber.Ctx) error {
	userId, ok := middleware.UserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courses, err := h.catalog.ListByInstructor(c.UserContext(), userId)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully.", courses)
}

func (h *Handler) InstructorAnalytics(c *fiber.Ctx) error {
	userId, ok := middleware.UserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	stats, err := h.analytics.Instructor(c.UserContext(), userId)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Analytics fetched successfully.", stats)
}
