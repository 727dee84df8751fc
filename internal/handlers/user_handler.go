package handlers

import (
	"strconv"

	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/dto"
	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/middleware"
	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/services"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetUserProfile returns a user by id. The id round-trips as a decimal
// string.
func (h *UserHandler) GetUserProfile(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "Invalid user id")
	}

	user, err := h.userService.GetByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.Response{
		Success: true,
		Message: "User profile retrieved successfully",
		Data:    user,
	})
}

// Me returns the authenticated user with the profile preloaded.
func (h *UserHandler) Me(c *fiber.Ctx) error {
	ident, err := middleware.CurrentUser(c)
	if err != nil {
		return unauthorized(c, "Unauthorized")
	}

	user, err := h.userService.Me(c.UserContext(), ident.UserID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.Response{
		Success: true,
		Message: "User profile retrieved successfully",
		Data:    user,
	})
}
