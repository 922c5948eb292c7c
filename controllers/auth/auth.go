package authController

import (
	"learnhub/apperrors"
	"learnhub/middleware"
	"learnhub/models"
	"learnhub/services"
	authValidator "learnhub/validators/auth"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	users *services.UserService
}

func NewHandler(users *services.UserService) *Handler {
	return &Handler{users: users}
}

type userPayload struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func sessionFor(user *models.User) (fiber.Map, error) {
	token, err := middleware.GenerateJWT(user.ID, user.Name, user.Role, user.Email)
	if err != nil {
		return nil, err
	}
	return fiber.Map{
		"token": token,
		"user":  userPayload{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role},
	}, nil
}

// Register creates an account and logs it in straight away
func (h *Handler) Register(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedUser").(*authValidator.RegisterRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	user, err := h.users.Register(c.UserContext(), reqData.Name, reqData.Email, reqData.Password, reqData.Role)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	session, err := sessionFor(user)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate token!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "User registered successfully.", session)
}

func (h *Handler) Login(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedLogin").(*authValidator.LoginRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	user, err := h.users.Authenticate(c.UserContext(), reqData.Email, reqData.Password)
	if err != nil {
		if apperrors.Is(err, apperrors.KindValidation) {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
		}
		return middleware.ErrorResponse(c, err)
	}

	session, err := sessionFor(user)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate token!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login successful.", session)
}
