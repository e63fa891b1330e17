package models

import (
	"time"
)

// PointStatus is the moderation state of a point of interest
type PointStatus string

const (
	PointStatusPending  PointStatus = "pending"
	PointStatusActive   PointStatus = "active"
	PointStatusRejected PointStatus = "rejected"
)

// PointCategories is the fixed set of accepted point categories
var PointCategories = []string{
	"nature", "food", "culture", "viewpoint", "camping", "beach", "other",
}

// IsValidPointCategory reports whether category is one of the accepted values
func IsValidPointCategory(category string) bool {
	for _, c := range PointCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Point represents a community-submitted point of interest
type Point struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	Description *string     `json:"description,omitempty"`
	Category    string      `json:"category"`
	Latitude    float64     `json:"latitude"`
	Longitude   float64     `json:"longitude"`
	RegionID    *int        `json:"region_id,omitempty"`
	ImageURL    *string     `json:"image_url,omitempty"`
	Status      PointStatus `json:"status"`
	CreatedBy   *int        `json:"created_by,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// PointWithRating includes the review aggregate
type PointWithRating struct {
	Point
	AverageRating *float64 `json:"average_rating,omitempty"`
	ReviewCount   int      `json:"review_count"`
}

// CreatePointRequest is the request body for creating a point
type CreatePointRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Category    string  `json:"category"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	RegionID    *int    `json:"region_id,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
}

// UpdatePointRequest is the request body for updating a point
type UpdatePointRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	RegionID    *int     `json:"region_id,omitempty"`
	ImageURL    *string  `json:"image_url,omitempty"`
}

// PointListParams contains parameters for listing points
type PointListParams struct {
	Limit    int
	Offset   int
	Search   string
	Category string
	RegionID int
	Status   string
	// CreatedBy restricts results to a single submitter (0 = no filter)
	CreatedBy int
}
