package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/nomadland/nomadland/internal/database"
	"github.com/nomadland/nomadland/internal/middleware"
	"github.com/nomadland/nomadland/internal/models"
)

// AdminListUsers returns a paginated list of all users (admin only)
func (h *Handler) AdminListUsers(c *fiber.Ctx) error {
	params := &models.UserListParams{
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
		Search: c.Query("search"),
		Role:   c.Query("role"),
	}
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 50
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	users, total, err := h.db.AdminListUsers(c.Context(), params)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to list users")
	}

	return SuccessWithMeta(c, users, total, params.Limit, params.Offset)
}

// AdminCreateUser creates a user with an explicit role (admin only)
func (h *Handler) AdminCreateUser(c *fiber.Ctx) error {
	var req models.AdminCreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if !emailRegex.MatchString(req.Email) {
		return Error(c, fiber.StatusBadRequest, "invalid email format")
	}
	if len(req.Password) < 8 {
		return Error(c, fiber.StatusBadRequest, "password must be at least 8 characters")
	}
	switch req.Role {
	case models.RoleUser, models.RoleModerator, models.RoleAdmin:
	default:
		return Error(c, fiber.StatusBadRequest, "invalid role")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to process password")
	}

	user, err := h.db.CreateUser(c.Context(), &models.RegisterRequest{
		Email:    req.Email,
		Username: req.Username,
	}, string(hashedPassword))
	if err != nil {
		if errors.Is(err, database.ErrEmailExists) {
			return Error(c, fiber.StatusConflict, "email already registered")
		}
		if errors.Is(err, database.ErrUsernameExists) {
			return Error(c, fiber.StatusConflict, "username already taken")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to create user")
	}

	// Apply the requested role after creation; new accounts default to user
	if req.Role != models.RoleUser {
		role := req.Role
		user, err = h.db.AdminUpdateUser(c.Context(), user.ID, &models.AdminUpdateUserRequest{
			Role: &role,
		}, nil)
		if err != nil {
			return Error(c, fiber.StatusInternalServerError, "failed to set user role")
		}
	}

	return Created(c, user)
}

// AdminUpdateUser updates any user's account (admin only)
func (h *Handler) AdminUpdateUser(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var req models.AdminUpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.Email != nil && !emailRegex.MatchString(*req.Email) {
		return Error(c, fiber.StatusBadRequest, "invalid email format")
	}
	if req.Role != nil {
		switch *req.Role {
		case models.RoleUser, models.RoleModerator, models.RoleAdmin:
		default:
			return Error(c, fiber.StatusBadRequest, "invalid role")
		}
	}

	var passwordHash *string
	if req.Password != nil {
		if len(*req.Password) < 8 {
			return Error(c, fiber.StatusBadRequest, "password must be at least 8 characters")
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return Error(c, fiber.StatusInternalServerError, "failed to process password")
		}
		s := string(hashed)
		passwordHash = &s
	}

	user, err := h.db.AdminUpdateUser(c.Context(), id, &req, passwordHash)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return Error(c, fiber.StatusNotFound, "user not found")
		}
		if errors.Is(err, database.ErrEmailExists) {
			return Error(c, fiber.StatusConflict, "email already registered")
		}
		if errors.Is(err, database.ErrUsernameExists) {
			return Error(c, fiber.StatusConflict, "username already taken")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to update user")
	}

	return Success(c, user)
}

// AdminDeleteUser deletes a user account (admin only)
func (h *Handler) AdminDeleteUser(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	if id == middleware.GetUserID(c) {
		return Error(c, fiber.StatusBadRequest, "you cannot delete your own account")
	}

	if err := h.db.DeleteUser(c.Context(), id); err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return Error(c, fiber.StatusNotFound, "user not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to delete user")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "user deleted successfully",
	})
}

// AdminStats returns site-wide entity counts (admin only)
func (h *Handler) AdminStats(c *fiber.Ctx) error {
	stats, err := h.db.GetServiceStats(c.Context())
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to get stats")
	}

	return Success(c, stats)
}

// ModerationQueue returns pending points and events awaiting review
// (moderator only)
func (h *Handler) ModerationQueue(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 100 {
		limit = 50
	}

	points, pointTotal, err := h.db.ListPoints(c.Context(), &models.PointListParams{
		Limit:  limit,
		Status: string(models.PointStatusPending),
	})
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to list pending points")
	}

	// A template's date range is irrelevant for moderation, so use a window
	// wide enough to match everything.
	events, err := h.db.ListEventTemplates(c.Context(), &models.EventListParams{
		From:   time.Time{},
		To:     time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC),
		Status: string(models.EventStatusPending),
	})
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to list pending events")
	}

	return Success(c, fiber.Map{
		"points":       points,
		"point_total":  pointTotal,
		"events":       events,
		"event_total":  len(events),
	})
}
