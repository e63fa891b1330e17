package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/nomadland/nomadland/internal/database"
	"github.com/nomadland/nomadland/internal/middleware"
	"github.com/nomadland/nomadland/internal/models"
)

// GetUserProfile returns a user's public profile with activity stats
func (h *Handler) GetUserProfile(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	user, err := h.db.GetUserByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return Error(c, fiber.StatusNotFound, "user not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get user")
	}

	stats, err := h.db.GetUserStats(c.Context(), id)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to get user stats")
	}

	return Success(c, fiber.Map{
		"user":  user.ToPublic(),
		"stats": stats,
	})
}

// UpdateCurrentUser updates the authenticated user's profile
func (h *Handler) UpdateCurrentUser(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req models.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.Username != nil {
		if len(*req.Username) < 3 || len(*req.Username) > 50 {
			return Error(c, fiber.StatusBadRequest, "username must be between 3 and 50 characters")
		}
	}
	if req.HomeRegionID != nil {
		if _, err := h.db.GetRegionByID(c.Context(), *req.HomeRegionID); err != nil {
			if errors.Is(err, database.ErrRegionNotFound) {
				return Error(c, fiber.StatusBadRequest, "home region does not exist")
			}
			return Error(c, fiber.StatusInternalServerError, "failed to validate region")
		}
	}

	user, err := h.db.UpdateUser(c.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, database.ErrUsernameExists) {
			return Error(c, fiber.StatusConflict, "username already taken")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to update profile")
	}

	return Success(c, user)
}

// ChangePassword changes the authenticated user's password
func (h *Handler) ChangePassword(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req models.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if len(req.NewPassword) < 8 {
		return Error(c, fiber.StatusBadRequest, "new password must be at least 8 characters")
	}

	user, err := h.db.GetUserByID(c.Context(), userID)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to get user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return Error(c, fiber.StatusUnauthorized, "current password is incorrect")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to process password")
	}

	if err := h.db.UpdateUserPassword(c.Context(), userID, string(hashedPassword)); err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to change password")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "password changed successfully",
	})
}
