package models

import (
	"time"
)

// Region represents a geographic region that points and events belong to.
// Boundary is an ordered ring of [lng, lat] vertex pairs; the ring is
// implicitly closed (the first vertex is not repeated at the end). An empty
// boundary means the region has no geographic fence yet.
type Region struct {
	ID          int          `json:"id"`
	Name        string       `json:"name"`
	Slug        string       `json:"slug"`
	Country     string       `json:"country"`
	Description *string      `json:"description,omitempty"`
	Boundary    [][2]float64 `json:"boundary"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// RegionWithStats includes aggregated statistics
type RegionWithStats struct {
	Region
	PointCount int `json:"point_count"`
	EventCount int `json:"event_count"`
	UserCount  int `json:"user_count"`
}

// CreateRegionRequest is the request body for creating a region
type CreateRegionRequest struct {
	Name        string       `json:"name"`
	Slug        string       `json:"slug"`
	Country     string       `json:"country"`
	Description *string      `json:"description,omitempty"`
	Boundary    [][2]float64 `json:"boundary,omitempty"`
}

// UpdateRegionRequest is the request body for updating a region
type UpdateRegionRequest struct {
	Name        *string       `json:"name,omitempty"`
	Slug        *string       `json:"slug,omitempty"`
	Country     *string       `json:"country,omitempty"`
	Description *string       `json:"description,omitempty"`
	Boundary    *[][2]float64 `json:"boundary,omitempty"`
}

// RegionListParams contains parameters for listing regions
type RegionListParams struct {
	Limit   int
	Offset  int
	Search  string
	Country string
}
