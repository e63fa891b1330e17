package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/nomadland/nomadland/internal/database"
	"github.com/nomadland/nomadland/internal/geo"
	"github.com/nomadland/nomadland/internal/models"
)

// ListRegions returns a paginated list of regions
func (h *Handler) ListRegions(c *fiber.Ctx) error {
	params := &models.RegionListParams{
		Limit:   c.QueryInt("limit", 50),
		Offset:  c.QueryInt("offset", 0),
		Search:  c.Query("search"),
		Country: c.Query("country"),
	}

	// Validate limits
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 50
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	regions, total, err := h.db.ListRegions(c.Context(), params)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to list regions")
	}

	return SuccessWithMeta(c, regions, total, params.Limit, params.Offset)
}

// GetRegion returns a single region by ID or slug
func (h *Handler) GetRegion(c *fiber.Ctx) error {
	param := c.Params("id")

	var (
		region *models.RegionWithStats
		err    error
	)
	if id, convErr := strconv.Atoi(param); convErr == nil {
		region, err = h.db.GetRegionByID(c.Context(), id)
	} else {
		region, err = h.db.GetRegionBySlug(c.Context(), param)
	}
	if err != nil {
		if errors.Is(err, database.ErrRegionNotFound) {
			return Error(c, fiber.StatusNotFound, "region not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get region")
	}

	return Success(c, region)
}

// RegionContains reports whether a coordinate lies inside a region's boundary
func (h *Handler) RegionContains(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid region id")
	}

	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "lat is required and must be a number")
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "lng is required and must be a number")
	}

	region, err := h.db.GetRegionByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrRegionNotFound) {
			return Error(c, fiber.StatusNotFound, "region not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get region")
	}

	if len(region.Boundary) < 3 {
		return Error(c, fiber.StatusUnprocessableEntity, "region has no boundary")
	}

	inside := geo.IsInside(geo.Point{Lat: lat, Lng: lng}, region.Boundary)

	return Success(c, fiber.Map{
		"region_id": region.ID,
		"lat":       lat,
		"lng":       lng,
		"inside":    inside,
	})
}

// LocateRegion finds which region (if any) contains a coordinate
func (h *Handler) LocateRegion(c *fiber.Ctx) error {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "lat is required and must be a number")
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "lng is required and must be a number")
	}

	regions, err := h.db.ListRegionBoundaries(c.Context())
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to load region boundaries")
	}

	p := geo.Point{Lat: lat, Lng: lng}
	for _, region := range regions {
		if geo.IsInside(p, region.Boundary) {
			return Success(c, region)
		}
	}

	return Success(c, nil)
}

// CreateRegion creates a new region (admin only)
func (h *Handler) CreateRegion(c *fiber.Ctx) error {
	var req models.CreateRegionRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	// Validate required fields
	if req.Name == "" {
		return Error(c, fiber.StatusBadRequest, "name is required")
	}
	if req.Slug == "" {
		return Error(c, fiber.StatusBadRequest, "slug is required")
	}
	if req.Country == "" {
		return Error(c, fiber.StatusBadRequest, "country is required")
	}
	if msg := validateBoundary(req.Boundary); msg != "" {
		return Error(c, fiber.StatusBadRequest, msg)
	}

	// Initialize boundary as empty ring if nil
	if req.Boundary == nil {
		req.Boundary = [][2]float64{}
	}

	region, err := h.db.CreateRegion(c.Context(), &req)
	if err != nil {
		if errors.Is(err, database.ErrRegionExists) {
			return Error(c, fiber.StatusConflict, "a region with that slug already exists")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to create region")
	}

	return Created(c, region)
}

// UpdateRegion updates an existing region (admin only)
func (h *Handler) UpdateRegion(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid region id")
	}

	var req models.UpdateRegionRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.Boundary != nil {
		if msg := validateBoundary(*req.Boundary); msg != "" {
			return Error(c, fiber.StatusBadRequest, msg)
		}
	}

	region, err := h.db.UpdateRegion(c.Context(), id, &req)
	if err != nil {
		if errors.Is(err, database.ErrRegionNotFound) {
			return Error(c, fiber.StatusNotFound, "region not found")
		}
		if errors.Is(err, database.ErrRegionExists) {
			return Error(c, fiber.StatusConflict, "a region with that slug already exists")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to update region")
	}

	return Success(c, region)
}

// DeleteRegion deletes a region (admin only)
func (h *Handler) DeleteRegion(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid region id")
	}

	if err := h.db.DeleteRegion(c.Context(), id); err != nil {
		if errors.Is(err, database.ErrRegionNotFound) {
			return Error(c, fiber.StatusNotFound, "region not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to delete region")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "region deleted successfully",
	})
}

// validateBoundary checks a boundary ring. Empty is allowed (no fence yet);
// a non-empty ring needs at least 3 vertices with plausible coordinates.
func validateBoundary(boundary [][2]float64) string {
	if len(boundary) == 0 {
		return ""
	}
	if len(boundary) < 3 {
		return "boundary must have at least 3 vertices"
	}
	for _, v := range boundary {
		lng, lat := v[0], v[1]
		if lng < -180 || lng > 180 || lat < -90 || lat > 90 {
			return "boundary vertices must be [lng, lat] pairs in valid ranges"
		}
	}
	return ""
}
