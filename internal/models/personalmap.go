package models

import (
	"time"
)

// PersonalMap is a user-owned collection of points of interest
type PersonalMap struct {
	ID          int       `json:"id"`
	UserID      int       `json:"user_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	IsPublic    bool      `json:"is_public"`
	ShareToken  *string   `json:"share_token,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PersonalMapWithPoints includes the collected points
type PersonalMapWithPoints struct {
	PersonalMap
	Points []*PointWithRating `json:"points"`
}

// MapRegionGroup is one bucket of a collection grouped by region.
// RegionID is nil for points that fall inside no known region boundary.
type MapRegionGroup struct {
	RegionID   *int               `json:"region_id,omitempty"`
	RegionName *string            `json:"region_name,omitempty"`
	Points     []*PointWithRating `json:"points"`
}

// CreateMapRequest is the request body for creating a personal map
type CreateMapRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	IsPublic    bool    `json:"is_public"`
}

// UpdateMapRequest is the request body for updating a personal map
type UpdateMapRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsPublic    *bool   `json:"is_public,omitempty"`
}

// AddMapPointRequest is the request body for adding a point to a map
type AddMapPointRequest struct {
	PointID int `json:"point_id"`
}

// MapListParams contains parameters for listing a user's maps
type MapListParams struct {
	Limit  int
	Offset int
}
