package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nomadland/nomadland/internal/config"
	"github.com/nomadland/nomadland/internal/database"
	"github.com/nomadland/nomadland/internal/models"
	"github.com/nomadland/nomadland/internal/services"
)

// Handler holds all handler dependencies
type Handler struct {
	db           *database.DB
	cfg          *config.Config
	emailService *services.EmailService
	storage      *services.StorageService
	eventCache   *services.EventCache
}

// New creates a new Handler instance. storage and eventCache may be nil when
// S3 or Redis are not configured.
func New(db *database.DB, cfg *config.Config, storage *services.StorageService, eventCache *services.EventCache) *Handler {
	return &Handler{
		db:           db,
		cfg:          cfg,
		emailService: services.NewEmailService(cfg),
		storage:      storage,
		eventCache:   eventCache,
	}
}

// ErrorHandler is a custom error handler for Fiber
func ErrorHandler(c *fiber.Ctx, err error) error {
	// Default to 500
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	// Check if it's a Fiber error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}

// APIResponse is a standard API response structure
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Meta contains pagination metadata
type Meta struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Success returns a successful response
func Success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
	})
}

// SuccessWithMeta returns a successful response with pagination
func SuccessWithMeta(c *fiber.Ctx, data interface{}, total, limit, offset int) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
		Meta: &Meta{
			Total:  total,
			Limit:  limit,
			Offset: offset,
		},
	})
}

// Created returns a 201 response with data
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(APIResponse{
		Success: true,
		Data:    data,
	})
}

// Error returns an error response
func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(APIResponse{
		Success: false,
		Error:   message,
	})
}

// CreateEmailVerificationChecker creates the function used by the
// email-verification middleware. Verification is only enforced when SMTP is
// configured; otherwise nobody could ever receive the link.
func (h *Handler) CreateEmailVerificationChecker() func(c *fiber.Ctx) (required bool, verified bool, isAdmin bool, err error) {
	return func(c *fiber.Ctx) (bool, bool, bool, error) {
		userID, ok := c.Locals("user_id").(int)
		if !ok || userID == 0 {
			return false, false, false, nil
		}

		role, _ := c.Locals("user_role").(models.Role)

		// Admins are always exempt
		if role == models.RoleAdmin {
			return false, true, true, nil
		}

		if !h.emailService.IsConfigured() {
			return false, true, false, nil
		}

		user, err := h.db.GetUserByID(c.Context(), userID)
		if err != nil {
			return true, false, false, err
		}

		return true, user.EmailVerified, false, nil
	}
}
