package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/nomadland/nomadland/internal/models"
)

var ErrReviewNotFound = errors.New("review not found")

// ListReviewsByPoint returns a paginated list of reviews for a point,
// newest first, with each reviewer's public profile.
func (db *DB) ListReviewsByPoint(ctx context.Context, pointID int, params *models.ReviewListParams) ([]*models.ReviewWithAuthor, int, error) {
	var total int
	err := db.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM reviews WHERE point_id = $1", pointID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT
			r.id, r.point_id, r.user_id, r.rating, r.comment, r.created_at, r.updated_at,
			u.id, u.username, u.bio, u.avatar_url, u.created_at
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.point_id = $1
		ORDER BY r.created_at DESC
		LIMIT $2 OFFSET $3
	`, pointID, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var reviews []*models.ReviewWithAuthor
	for rows.Next() {
		r := &models.ReviewWithAuthor{Author: &models.UserPublic{}}
		err := rows.Scan(
			&r.ID, &r.PointID, &r.UserID, &r.Rating, &r.Comment, &r.CreatedAt, &r.UpdatedAt,
			&r.Author.ID, &r.Author.Username, &r.Author.Bio, &r.Author.AvatarURL, &r.Author.CreatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		reviews = append(reviews, r)
	}
	return reviews, total, nil
}

// UpsertReview creates a user's review of a point, or replaces their
// earlier one (one review per user per point).
func (db *DB) UpsertReview(ctx context.Context, pointID, userID int, req *models.CreateReviewRequest) (*models.Review, error) {
	r := &models.Review{}
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO reviews (point_id, user_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT unique_user_point_review
		DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment, updated_at = NOW()
		RETURNING id, point_id, user_id, rating, comment, created_at, updated_at
	`, pointID, userID, req.Rating, req.Comment).Scan(
		&r.ID, &r.PointID, &r.UserID, &r.Rating, &r.Comment, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetReviewByID retrieves a review by ID
func (db *DB) GetReviewByID(ctx context.Context, id int) (*models.Review, error) {
	r := &models.Review{}
	err := db.Pool.QueryRow(ctx, `
		SELECT id, point_id, user_id, rating, comment, created_at, updated_at
		FROM reviews WHERE id = $1
	`, id).Scan(&r.ID, &r.PointID, &r.UserID, &r.Rating, &r.Comment, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return r, nil
}

// DeleteReview deletes a review by ID
func (db *DB) DeleteReview(ctx context.Context, id int) error {
	result, err := db.Pool.Exec(ctx, "DELETE FROM reviews WHERE id = $1", id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrReviewNotFound
	}
	return nil
}
