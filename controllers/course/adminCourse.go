package courseController

import (
	"learnhub/middleware"
	courseValidator "learnhub/validators/course"

	"github.com/gofiber/fiber/v2"
)

// ============ Admin ============

// AdminListCourses lists every course regardless of status
func (h *Handler) AdminListCourses(c *fiber.Ctx) error {
	courses, err := h.catalog.ListAll(c.UserContext())
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully.", courses)
}

func (h *Handler) AdminUpdateStatus(c *fiber.Ctx) error {
	courseID, _ := c.Locals("courseID").(uint)
	reqData, ok := c.Locals("validatedStatus").(*courseValidator.UpdateStatusRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	updated, err := h.catalog.SetStatus(c.UserContext(), courseID, reqData.Status)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course status updated successfully.", updated)
}

// AdminReconcile runs a reconciliation pass on demand
func (h *Handler) AdminReconcile(c *fiber.Ctx) error {
	report, err := h.reconciler.Run(c.UserContext())
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Reconciliation completed.", report)
}

func (h *Handler) AdminListUsers(c *fiber.Ctx) error {
	users, err := h.users.List(c.UserContext())
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Users fetched successfully.", users)
}

func (h *Handler) AdminUpdateUserRole(c *fiber.Ctx) error {
	targetID, _ := c.Locals("targetUserID").(uint)
	reqData, ok := c.Locals("validatedRole").(*courseValidator.UpdateRoleRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	user, err := h.users.SetRole(c.UserContext(), targetID, reqData.Role)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "User role updated successfully.", user)
}
