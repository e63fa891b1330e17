package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/nomadland/nomadland/internal/database"
	"github.com/nomadland/nomadland/internal/geo"
	"github.com/nomadland/nomadland/internal/middleware"
	"github.com/nomadland/nomadland/internal/models"
)

// ListPoints returns a paginated list of points of interest
func (h *Handler) ListPoints(c *fiber.Ctx) error {
	params := &models.PointListParams{
		Limit:    c.QueryInt("limit", 50),
		Offset:   c.QueryInt("offset", 0),
		Search:   c.Query("search"),
		Category: c.Query("category"),
		RegionID: c.QueryInt("region_id", 0),
	}

	// Validate limits
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 50
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	// Only moderators may see non-active points
	if status := c.Query("status"); status != "" {
		if middleware.GetUserRole(c) == models.RoleUser {
			return Error(c, fiber.StatusForbidden, "moderator access required to filter by status")
		}
		params.Status = status
	}

	points, total, err := h.db.ListPoints(c.Context(), params)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to list points")
	}

	return SuccessWithMeta(c, points, total, params.Limit, params.Offset)
}

// GetPoint returns a single point by ID
func (h *Handler) GetPoint(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid point id")
	}

	point, err := h.db.GetPointByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrPointNotFound) {
			return Error(c, fiber.StatusNotFound, "point not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get point")
	}

	// Hide unmoderated points from regular users, except their own
	if point.Status != models.PointStatusActive {
		isOwner := point.CreatedBy != nil && *point.CreatedBy == middleware.GetUserID(c)
		if !isOwner && middleware.GetUserRole(c) == models.RoleUser {
			return Error(c, fiber.StatusNotFound, "point not found")
		}
	}

	return Success(c, point)
}

// CreatePoint submits a new point of interest. Regular users' points start
// in pending status and only become visible after moderation; moderator and
// admin submissions go live immediately.
func (h *Handler) CreatePoint(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req models.CreatePointRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if msg := h.validatePointRequest(c, &req); msg != "" {
		return Error(c, fiber.StatusBadRequest, msg)
	}

	status := models.PointStatusPending
	if middleware.GetUserRole(c) != models.RoleUser {
		status = models.PointStatusActive
	}

	point, err := h.db.CreatePoint(c.Context(), &req, userID, status)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to create point")
	}

	return Created(c, point)
}

// UpdatePoint updates a point. Only the owner or a moderator may edit.
func (h *Handler) UpdatePoint(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid point id")
	}

	point, err := h.db.GetPointByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrPointNotFound) {
			return Error(c, fiber.StatusNotFound, "point not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get point")
	}

	if !canModify(c, point.CreatedBy) {
		return Error(c, fiber.StatusForbidden, "you can only edit your own points")
	}

	var req models.UpdatePointRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.Category != nil && !models.IsValidPointCategory(*req.Category) {
		return Error(c, fiber.StatusBadRequest, "invalid category")
	}
	if req.Latitude != nil && (*req.Latitude < -90 || *req.Latitude > 90) {
		return Error(c, fiber.StatusBadRequest, "latitude must be between -90 and 90")
	}
	if req.Longitude != nil && (*req.Longitude < -180 || *req.Longitude > 180) {
		return Error(c, fiber.StatusBadRequest, "longitude must be between -180 and 180")
	}

	// When the region or coordinates change, re-check membership
	lat := point.Latitude
	lng := point.Longitude
	regionID := point.RegionID
	if req.Latitude != nil {
		lat = *req.Latitude
	}
	if req.Longitude != nil {
		lng = *req.Longitude
	}
	if req.RegionID != nil {
		regionID = req.RegionID
	}
	if regionID != nil {
		if msg := h.checkRegionMembership(c, *regionID, lat, lng); msg != "" {
			return Error(c, fiber.StatusBadRequest, msg)
		}
	}

	updated, err := h.db.UpdatePoint(c.Context(), id, &req)
	if err != nil {
		if errors.Is(err, database.ErrPointNotFound) {
			return Error(c, fiber.StatusNotFound, "point not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to update point")
	}

	return Success(c, updated)
}

// ModeratePoint sets a point's moderation status (moderator only)
func (h *Handler) ModeratePoint(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid point id")
	}

	var req struct {
		Status models.PointStatus `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	switch req.Status {
	case models.PointStatusPending, models.PointStatusActive, models.PointStatusRejected:
	default:
		return Error(c, fiber.StatusBadRequest, "invalid status")
	}

	if err := h.db.SetPointStatus(c.Context(), id, req.Status); err != nil {
		if errors.Is(err, database.ErrPointNotFound) {
			return Error(c, fiber.StatusNotFound, "point not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to update point status")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "point status updated",
	})
}

// DeletePoint deletes a point. Only the owner or a moderator may delete.
func (h *Handler) DeletePoint(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid point id")
	}

	point, err := h.db.GetPointByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrPointNotFound) {
			return Error(c, fiber.StatusNotFound, "point not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get point")
	}

	if !canModify(c, point.CreatedBy) {
		return Error(c, fiber.StatusForbidden, "you can only delete your own points")
	}

	if err := h.db.DeletePoint(c.Context(), id); err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to delete point")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "point deleted successfully",
	})
}

func (h *Handler) validatePointRequest(c *fiber.Ctx, req *models.CreatePointRequest) string {
	if req.Name == "" {
		return "name is required"
	}
	if !models.IsValidPointCategory(req.Category) {
		return "invalid category"
	}
	if req.Latitude < -90 || req.Latitude > 90 {
		return "latitude must be between -90 and 90"
	}
	if req.Longitude < -180 || req.Longitude > 180 {
		return "longitude must be between -180 and 180"
	}
	if req.RegionID != nil {
		return h.checkRegionMembership(c, *req.RegionID, req.Latitude, req.Longitude)
	}
	return ""
}

// checkRegionMembership verifies that the coordinate falls inside the
// region's boundary. Regions without a boundary accept any coordinate.
func (h *Handler) checkRegionMembership(c *fiber.Ctx, regionID int, lat, lng float64) string {
	region, err := h.db.GetRegionByID(c.Context(), regionID)
	if err != nil {
		if errors.Is(err, database.ErrRegionNotFound) {
			return "region does not exist"
		}
		return "failed to validate region"
	}
	if len(region.Boundary) >= 3 && !geo.IsInside(geo.Point{Lat: lat, Lng: lng}, region.Boundary) {
		return "location is outside the region boundary"
	}
	return ""
}

// canModify reports whether the current user owns the resource or has
// moderator privileges.
func canModify(c *fiber.Ctx, createdBy *int) bool {
	userID := middleware.GetUserID(c)
	if createdBy != nil && *createdBy == userID {
		return true
	}
	role := middleware.GetUserRole(c)
	return role == models.RoleAdmin || role == models.RoleModerator
}
