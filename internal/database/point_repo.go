package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/nomadland/nomadland/internal/models"
)

var ErrPointNotFound = errors.New("point not found")

const pointColumns = `p.id, p.name, p.description, p.category, p.latitude, p.longitude,
	p.region_id, p.image_url, p.status, p.created_by, p.created_at, p.updated_at`

const pointRatingColumns = pointColumns + `,
	(SELECT AVG(rating)::FLOAT FROM reviews WHERE point_id = p.id) as average_rating,
	COALESCE((SELECT COUNT(*) FROM reviews WHERE point_id = p.id), 0) as review_count`

func scanPointWithRating(row pgx.Row) (*models.PointWithRating, error) {
	p := &models.PointWithRating{}
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Category,
		&p.Latitude,
		&p.Longitude,
		&p.RegionID,
		&p.ImageURL,
		&p.Status,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.AverageRating,
		&p.ReviewCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPointNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListPoints returns a paginated list of points with optional filtering
func (db *DB) ListPoints(ctx context.Context, params *models.PointListParams) ([]*models.PointWithRating, int, error) {
	var whereClauses []string
	var args []interface{}
	argIndex := 1

	if params.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(LOWER(p.name) LIKE LOWER($%d) OR LOWER(COALESCE(p.description, '')) LIKE LOWER($%d))",
			argIndex, argIndex,
		))
		args = append(args, "%"+params.Search+"%")
		argIndex++
	}
	if params.Category != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("p.category = $%d", argIndex))
		args = append(args, params.Category)
		argIndex++
	}
	if params.RegionID != 0 {
		whereClauses = append(whereClauses, fmt.Sprintf("p.region_id = $%d", argIndex))
		args = append(args, params.RegionID)
		argIndex++
	}
	if params.CreatedBy != 0 {
		whereClauses = append(whereClauses, fmt.Sprintf("p.created_by = $%d", argIndex))
		args = append(args, params.CreatedBy)
		argIndex++
	}
	if params.Status != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("p.status = $%d", argIndex))
		args = append(args, params.Status)
		argIndex++
	} else {
		whereClauses = append(whereClauses, "p.status = 'active'")
	}

	whereClause := "WHERE " + strings.Join(whereClauses, " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM points p %s", whereClause)
	if err := db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM points p
		%s
		ORDER BY p.created_at DESC
		LIMIT $%d OFFSET $%d
	`, pointRatingColumns, whereClause, argIndex, argIndex+1)
	args = append(args, params.Limit, params.Offset)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var points []*models.PointWithRating
	for rows.Next() {
		p, err := scanPointWithRating(rows)
		if err != nil {
			return nil, 0, err
		}
		points = append(points, p)
	}
	return points, total, nil
}

// GetPointByID retrieves a point by ID with its rating aggregate
func (db *DB) GetPointByID(ctx context.Context, id int) (*models.PointWithRating, error) {
	query := fmt.Sprintf("SELECT %s FROM points p WHERE p.id = $1", pointRatingColumns)
	return scanPointWithRating(db.Pool.QueryRow(ctx, query, id))
}

// CreatePoint creates a new point of interest
func (db *DB) CreatePoint(ctx context.Context, req *models.CreatePointRequest, createdBy int, status models.PointStatus) (*models.Point, error) {
	p := &models.Point{}
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO points (name, description, category, latitude, longitude, region_id, image_url, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, name, description, category, latitude, longitude, region_id, image_url, status, created_by, created_at, updated_at
	`, req.Name, req.Description, req.Category, req.Latitude, req.Longitude,
		req.RegionID, req.ImageURL, status, createdBy).Scan(
		&p.ID, &p.Name, &p.Description, &p.Category, &p.Latitude, &p.Longitude,
		&p.RegionID, &p.ImageURL, &p.Status, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpdatePoint updates an existing point
func (db *DB) UpdatePoint(ctx context.Context, id int, req *models.UpdatePointRequest) (*models.Point, error) {
	var setClauses []string
	var args []interface{}
	argIndex := 1

	if req.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argIndex))
		args = append(args, *req.Name)
		argIndex++
	}
	if req.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argIndex))
		args = append(args, *req.Description)
		argIndex++
	}
	if req.Category != nil {
		setClauses = append(setClauses, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, *req.Category)
		argIndex++
	}
	if req.Latitude != nil {
		setClauses = append(setClauses, fmt.Sprintf("latitude = $%d", argIndex))
		args = append(args, *req.Latitude)
		argIndex++
	}
	if req.Longitude != nil {
		setClauses = append(setClauses, fmt.Sprintf("longitude = $%d", argIndex))
		args = append(args, *req.Longitude)
		argIndex++
	}
	if req.RegionID != nil {
		setClauses = append(setClauses, fmt.Sprintf("region_id = $%d", argIndex))
		args = append(args, *req.RegionID)
		argIndex++
	}
	if req.ImageURL != nil {
		setClauses = append(setClauses, fmt.Sprintf("image_url = $%d", argIndex))
		args = append(args, *req.ImageURL)
		argIndex++
	}

	if len(setClauses) == 0 {
		existing, err := db.GetPointByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &existing.Point, nil
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE points SET %s
		WHERE id = $%d
		RETURNING id, name, description, category, latitude, longitude, region_id, image_url, status, created_by, created_at, updated_at
	`, strings.Join(setClauses, ", "), argIndex)

	p := &models.Point{}
	err := db.Pool.QueryRow(ctx, query, args...).Scan(
		&p.ID, &p.Name, &p.Description, &p.Category, &p.Latitude, &p.Longitude,
		&p.RegionID, &p.ImageURL, &p.Status, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPointNotFound
		}
		return nil, err
	}
	return p, nil
}

// SetPointStatus updates the moderation status of a point
func (db *DB) SetPointStatus(ctx context.Context, id int, status models.PointStatus) error {
	result, err := db.Pool.Exec(ctx,
		"UPDATE points SET status = $1, updated_at = NOW() WHERE id = $2", status, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrPointNotFound
	}
	return nil
}

// DeletePoint deletes a point by ID
func (db *DB) DeletePoint(ctx context.Context, id int) error {
	result, err := db.Pool.Exec(ctx, "DELETE FROM points WHERE id = $1", id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrPointNotFound
	}
	return nil
}
