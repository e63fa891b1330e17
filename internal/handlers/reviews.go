package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/nomadland/nomadland/internal/database"
	"github.com/nomadland/nomadland/internal/middleware"
	"github.com/nomadland/nomadland/internal/models"
)

// ListPointReviews returns reviews for a point with author profiles
func (h *Handler) ListPointReviews(c *fiber.Ctx) error {
	pointID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid point id")
	}

	if _, err := h.db.GetPointByID(c.Context(), pointID); err != nil {
		if errors.Is(err, database.ErrPointNotFound) {
			return Error(c, fiber.StatusNotFound, "point not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get point")
	}

	params := &models.ReviewListParams{
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 50
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	reviews, total, err := h.db.ListReviewsByPoint(c.Context(), pointID, params)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to list reviews")
	}

	return SuccessWithMeta(c, reviews, total, params.Limit, params.Offset)
}

// SubmitReview creates or replaces the current user's review of a point
func (h *Handler) SubmitReview(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	pointID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid point id")
	}

	var req models.CreateReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.Rating < 1 || req.Rating > 5 {
		return Error(c, fiber.StatusBadRequest, "rating must be between 1 and 5")
	}

	point, err := h.db.GetPointByID(c.Context(), pointID)
	if err != nil {
		if errors.Is(err, database.ErrPointNotFound) {
			return Error(c, fiber.StatusNotFound, "point not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get point")
	}

	if point.Status != models.PointStatusActive {
		return Error(c, fiber.StatusBadRequest, "point is not active")
	}

	review, err := h.db.UpsertReview(c.Context(), pointID, userID, &req)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to save review")
	}

	return Created(c, review)
}

// DeleteReview deletes a review. Only the author or a moderator may delete.
func (h *Handler) DeleteReview(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid review id")
	}

	review, err := h.db.GetReviewByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrReviewNotFound) {
			return Error(c, fiber.StatusNotFound, "review not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get review")
	}

	if !canModify(c, &review.UserID) {
		return Error(c, fiber.StatusForbidden, "you can only delete your own reviews")
	}

	if err := h.db.DeleteReview(c.Context(), id); err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to delete review")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "review deleted successfully",
	})
}
