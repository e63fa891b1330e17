package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/nomadland/nomadland/internal/database"
	"github.com/nomadland/nomadland/internal/geo"
	"github.com/nomadland/nomadland/internal/middleware"
	"github.com/nomadland/nomadland/internal/models"
)

// ListMyMaps returns the current user's personal maps
func (h *Handler) ListMyMaps(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	params := &models.MapListParams{
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 50
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	maps, total, err := h.db.ListMapsByUser(c.Context(), userID, params)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to list maps")
	}

	return SuccessWithMeta(c, maps, total, params.Limit, params.Offset)
}

// GetMap returns a map with its points. Owners always see their maps;
// others only when the map is public.
func (h *Handler) GetMap(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid map id")
	}

	m, err := h.db.GetMapByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrMapNotFound) {
			return Error(c, fiber.StatusNotFound, "map not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get map")
	}

	if !m.IsPublic && m.UserID != middleware.GetUserID(c) {
		return Error(c, fiber.StatusNotFound, "map not found")
	}

	return h.respondWithPoints(c, m)
}

// GetSharedMap returns a map by its share token, regardless of visibility
func (h *Handler) GetSharedMap(c *fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return Error(c, fiber.StatusBadRequest, "share token is required")
	}

	m, err := h.db.GetMapByShareToken(c.Context(), token)
	if err != nil {
		if errors.Is(err, database.ErrMapNotFound) {
			return Error(c, fiber.StatusNotFound, "map not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get map")
	}

	return h.respondWithPoints(c, m)
}

// GetMapByRegion returns a map's points grouped by region. Points are
// assigned to their stored region; points without one are matched against
// region boundaries, and anything left over lands in an "elsewhere" bucket.
func (h *Handler) GetMapByRegion(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid map id")
	}

	m, err := h.db.GetMapByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrMapNotFound) {
			return Error(c, fiber.StatusNotFound, "map not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get map")
	}

	if !m.IsPublic && m.UserID != middleware.GetUserID(c) {
		return Error(c, fiber.StatusNotFound, "map not found")
	}

	points, err := h.db.ListMapPoints(c.Context(), m.ID)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to list map points")
	}

	regions, err := h.db.ListRegionBoundaries(c.Context())
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to load region boundaries")
	}

	groups := groupPointsByRegion(points, regions)

	return Success(c, fiber.Map{
		"map":    m,
		"groups": groups,
	})
}

// CreateMap creates a new personal map
func (h *Handler) CreateMap(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req models.CreateMapRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name == "" {
		return Error(c, fiber.StatusBadRequest, "name is required")
	}

	m, err := h.db.CreateMap(c.Context(), userID, &req)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to create map")
	}

	return Created(c, m)
}

// UpdateMap updates a personal map (owner only)
func (h *Handler) UpdateMap(c *fiber.Ctx) error {
	m, ok, err := h.ownedMap(c)
	if !ok {
		return err
	}

	var req models.UpdateMapRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name != nil && *req.Name == "" {
		return Error(c, fiber.StatusBadRequest, "name cannot be empty")
	}

	updated, err := h.db.UpdateMap(c.Context(), m.ID, &req)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to update map")
	}

	return Success(c, updated)
}

// ShareMap generates (or rotates) a share token for a map (owner only)
func (h *Handler) ShareMap(c *fiber.Ctx) error {
	m, ok, err := h.ownedMap(c)
	if !ok {
		return err
	}

	token := uuid.NewString()
	if err := h.db.SetMapShareToken(c.Context(), m.ID, &token); err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to share map")
	}

	return Success(c, fiber.Map{
		"share_token": token,
	})
}

// UnshareMap revokes a map's share token (owner only)
func (h *Handler) UnshareMap(c *fiber.Ctx) error {
	m, ok, err := h.ownedMap(c)
	if !ok {
		return err
	}

	if err := h.db.SetMapShareToken(c.Context(), m.ID, nil); err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to unshare map")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "share link revoked",
	})
}

// DeleteMap deletes a personal map (owner only)
func (h *Handler) DeleteMap(c *fiber.Ctx) error {
	m, ok, err := h.ownedMap(c)
	if !ok {
		return err
	}

	if err := h.db.DeleteMap(c.Context(), m.ID); err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to delete map")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "map deleted successfully",
	})
}

// AddMapPoint adds a point to a map (owner only)
func (h *Handler) AddMapPoint(c *fiber.Ctx) error {
	m, ok, err := h.ownedMap(c)
	if !ok {
		return err
	}

	var req models.AddMapPointRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if _, err := h.db.GetPointByID(c.Context(), req.PointID); err != nil {
		if errors.Is(err, database.ErrPointNotFound) {
			return Error(c, fiber.StatusNotFound, "point not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get point")
	}

	if err := h.db.AddPointToMap(c.Context(), m.ID, req.PointID); err != nil {
		if errors.Is(err, database.ErrMapPointExists) {
			return Error(c, fiber.StatusConflict, "point is already in this map")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to add point to map")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "point added to map",
	})
}

// RemoveMapPoint removes a point from a map (owner only)
func (h *Handler) RemoveMapPoint(c *fiber.Ctx) error {
	m, ok, err := h.ownedMap(c)
	if !ok {
		return err
	}

	pointID, convErr := strconv.Atoi(c.Params("pointId"))
	if convErr != nil {
		return Error(c, fiber.StatusBadRequest, "invalid point id")
	}

	if err := h.db.RemovePointFromMap(c.Context(), m.ID, pointID); err != nil {
		if errors.Is(err, database.ErrMapPointNotFound) {
			return Error(c, fiber.StatusNotFound, "point not in map")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to remove point from map")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "point removed from map",
	})
}

// ownedMap loads the map in :id and verifies the current user owns it.
// When ok is false, err is the fiber response already written.
func (h *Handler) ownedMap(c *fiber.Ctx) (*models.PersonalMap, bool, error) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return nil, false, Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return nil, false, Error(c, fiber.StatusBadRequest, "invalid map id")
	}

	m, err := h.db.GetMapByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrMapNotFound) {
			return nil, false, Error(c, fiber.StatusNotFound, "map not found")
		}
		return nil, false, Error(c, fiber.StatusInternalServerError, "failed to get map")
	}

	if m.UserID != userID {
		return nil, false, Error(c, fiber.StatusForbidden, "you do not own this map")
	}

	return m, true, nil
}

func (h *Handler) respondWithPoints(c *fiber.Ctx, m *models.PersonalMap) error {
	points, err := h.db.ListMapPoints(c.Context(), m.ID)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to list map points")
	}

	return Success(c, &models.PersonalMapWithPoints{
		PersonalMap: *m,
		Points:      points,
	})
}

// groupPointsByRegion buckets points by their stored region, falling back to
// boundary containment for points without one. Points matching no region go
// into a final group with a nil region.
func groupPointsByRegion(points []*models.PointWithRating, regions []*models.Region) []*models.MapRegionGroup {
	byRegion := make(map[int]*models.MapRegionGroup)
	order := []*models.MapRegionGroup{}
	var elsewhere *models.MapRegionGroup

	groupFor := func(region *models.Region) *models.MapRegionGroup {
		if g, ok := byRegion[region.ID]; ok {
			return g
		}
		id := region.ID
		name := region.Name
		g := &models.MapRegionGroup{
			RegionID:   &id,
			RegionName: &name,
			Points:     []*models.PointWithRating{},
		}
		byRegion[region.ID] = g
		order = append(order, g)
		return g
	}

	regionByID := make(map[int]*models.Region, len(regions))
	for _, r := range regions {
		regionByID[r.ID] = r
	}

	for _, p := range points {
		var region *models.Region
		if p.RegionID != nil {
			region = regionByID[*p.RegionID]
		}
		if region == nil {
			loc := geo.Point{Lat: p.Latitude, Lng: p.Longitude}
			for _, r := range regions {
				if geo.IsInside(loc, r.Boundary) {
					region = r
					break
				}
			}
		}

		if region != nil {
			g := groupFor(region)
			g.Points = append(g.Points, p)
			continue
		}

		if elsewhere == nil {
			elsewhere = &models.MapRegionGroup{Points: []*models.PointWithRating{}}
		}
		elsewhere.Points = append(elsewhere.Points, p)
	}

	if elsewhere != nil {
		order = append(order, elsewhere)
	}
	return order
}
