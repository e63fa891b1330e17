package models

import (
	"time"
)

// Review is a user's rating and comment on a point of interest.
// Each user has at most one review per point; submitting again replaces it.
type Review struct {
	ID        int       `json:"id"`
	PointID   int       `json:"point_id"`
	UserID    int       `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReviewWithAuthor includes the reviewer's public profile
type ReviewWithAuthor struct {
	Review
	Author *UserPublic `json:"author,omitempty"`
}

// CreateReviewRequest is the request body for creating or replacing a review
type CreateReviewRequest struct {
	Rating  int     `json:"rating"`
	Comment *string `json:"comment,omitempty"`
}

// ReviewListParams contains parameters for listing reviews
type ReviewListParams struct {
	Limit  int
	Offset int
}
