package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/nomadland/nomadland/internal/models"
)

var (
	ErrRegionNotFound = errors.New("region not found")
	ErrRegionExists   = errors.New("region already exists")
)

// scanBoundary decodes the JSONB boundary column into a vertex ring
func scanBoundary(raw []byte, r *models.Region) error {
	if len(raw) == 0 {
		r.Boundary = [][2]float64{}
		return nil
	}
	if err := json.Unmarshal(raw, &r.Boundary); err != nil {
		return fmt.Errorf("failed to decode region boundary: %w", err)
	}
	return nil
}

// ListRegions returns a paginated list of regions with optional filtering
func (db *DB) ListRegions(ctx context.Context, params *models.RegionListParams) ([]*models.RegionWithStats, int, error) {
	// Build the WHERE clause
	var whereClauses []string
	var args []interface{}
	argIndex := 1

	if params.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(LOWER(name) LIKE LOWER($%d) OR LOWER(country) LIKE LOWER($%d))",
			argIndex, argIndex,
		))
		args = append(args, "%"+params.Search+"%")
		argIndex++
	}

	if params.Country != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("LOWER(country) = LOWER($%d)", argIndex))
		args = append(args, params.Country)
		argIndex++
	}

	whereClause := ""
	if len(whereClauses) > 0 {
		whereClause = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	// Get total count
	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM regions %s", whereClause)
	err := db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	// Get regions with stats
	query := fmt.Sprintf(`
		SELECT
			r.id, r.name, r.slug, r.country, r.description, r.boundary, r.created_at, r.updated_at,
			COALESCE((SELECT COUNT(*) FROM points WHERE region_id = r.id), 0) as point_count,
			COALESCE((SELECT COUNT(*) FROM events WHERE region_id = r.id), 0) as event_count,
			COALESCE((SELECT COUNT(*) FROM users WHERE home_region_id = r.id), 0) as user_count
		FROM regions r
		%s
		ORDER BY r.country ASC, r.name ASC
		LIMIT $%d OFFSET $%d
	`, whereClause, argIndex, argIndex+1)

	args = append(args, params.Limit, params.Offset)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var regions []*models.RegionWithStats
	for rows.Next() {
		r := &models.RegionWithStats{}
		var boundary []byte
		err := rows.Scan(
			&r.ID,
			&r.Name,
			&r.Slug,
			&r.Country,
			&r.Description,
			&boundary,
			&r.CreatedAt,
			&r.UpdatedAt,
			&r.PointCount,
			&r.EventCount,
			&r.UserCount,
		)
		if err != nil {
			return nil, 0, err
		}
		if err := scanBoundary(boundary, &r.Region); err != nil {
			return nil, 0, err
		}
		regions = append(regions, r)
	}

	return regions, total, nil
}

// GetRegionByID retrieves a region by ID with stats
func (db *DB) GetRegionByID(ctx context.Context, id int) (*models.RegionWithStats, error) {
	return db.getRegion(ctx, "r.id = $1", id)
}

// GetRegionBySlug retrieves a region by its slug with stats
func (db *DB) GetRegionBySlug(ctx context.Context, slug string) (*models.RegionWithStats, error) {
	return db.getRegion(ctx, "r.slug = $1", slug)
}

func (db *DB) getRegion(ctx context.Context, where string, arg interface{}) (*models.RegionWithStats, error) {
	r := &models.RegionWithStats{}
	var boundary []byte

	query := fmt.Sprintf(`
		SELECT
			r.id, r.name, r.slug, r.country, r.description, r.boundary, r.created_at, r.updated_at,
			COALESCE((SELECT COUNT(*) FROM points WHERE region_id = r.id), 0) as point_count,
			COALESCE((SELECT COUNT(*) FROM events WHERE region_id = r.id), 0) as event_count,
			COALESCE((SELECT COUNT(*) FROM users WHERE home_region_id = r.id), 0) as user_count
		FROM regions r
		WHERE %s
	`, where)

	err := db.Pool.QueryRow(ctx, query, arg).Scan(
		&r.ID,
		&r.Name,
		&r.Slug,
		&r.Country,
		&r.Description,
		&boundary,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.PointCount,
		&r.EventCount,
		&r.UserCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRegionNotFound
		}
		return nil, err
	}

	if err := scanBoundary(boundary, &r.Region); err != nil {
		return nil, err
	}
	return r, nil
}

// CreateRegion creates a new region
func (db *DB) CreateRegion(ctx context.Context, req *models.CreateRegionRequest) (*models.Region, error) {
	boundary, err := json.Marshal(req.Boundary)
	if err != nil {
		return nil, fmt.Errorf("failed to encode boundary: %w", err)
	}

	r := &models.Region{}
	var rawBoundary []byte
	err = db.Pool.QueryRow(ctx, `
		INSERT INTO regions (name, slug, country, description, boundary)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, slug, country, description, boundary, created_at, updated_at
	`, req.Name, req.Slug, req.Country, req.Description, boundary).Scan(
		&r.ID, &r.Name, &r.Slug, &r.Country, &r.Description, &rawBoundary, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return nil, ErrRegionExists
		}
		return nil, err
	}

	if err := scanBoundary(rawBoundary, r); err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateRegion updates an existing region
func (db *DB) UpdateRegion(ctx context.Context, id int, req *models.UpdateRegionRequest) (*models.Region, error) {
	var setClauses []string
	var args []interface{}
	argIndex := 1

	if req.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argIndex))
		args = append(args, *req.Name)
		argIndex++
	}
	if req.Slug != nil {
		setClauses = append(setClauses, fmt.Sprintf("slug = $%d", argIndex))
		args = append(args, *req.Slug)
		argIndex++
	}
	if req.Country != nil {
		setClauses = append(setClauses, fmt.Sprintf("country = $%d", argIndex))
		args = append(args, *req.Country)
		argIndex++
	}
	if req.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argIndex))
		args = append(args, *req.Description)
		argIndex++
	}
	if req.Boundary != nil {
		boundary, err := json.Marshal(*req.Boundary)
		if err != nil {
			return nil, fmt.Errorf("failed to encode boundary: %w", err)
		}
		setClauses = append(setClauses, fmt.Sprintf("boundary = $%d", argIndex))
		args = append(args, boundary)
		argIndex++
	}

	if len(setClauses) == 0 {
		region, err := db.GetRegionByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &region.Region, nil
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE regions SET %s
		WHERE id = $%d
		RETURNING id, name, slug, country, description, boundary, created_at, updated_at
	`, strings.Join(setClauses, ", "), argIndex)

	r := &models.Region{}
	var rawBoundary []byte
	err := db.Pool.QueryRow(ctx, query, args...).Scan(
		&r.ID, &r.Name, &r.Slug, &r.Country, &r.Description, &rawBoundary, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRegionNotFound
		}
		return nil, err
	}

	if err := scanBoundary(rawBoundary, r); err != nil {
		return nil, err
	}
	return r, nil
}

// DeleteRegion deletes a region by ID
func (db *DB) DeleteRegion(ctx context.Context, id int) error {
	result, err := db.Pool.Exec(ctx, "DELETE FROM regions WHERE id = $1", id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrRegionNotFound
	}
	return nil
}

// ListRegionBoundaries returns id, name and boundary for every region that
// has one. Used for grouping map collections by region membership.
func (db *DB) ListRegionBoundaries(ctx context.Context) ([]*models.Region, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, name, slug, country, boundary, created_at, updated_at
		FROM regions
		WHERE jsonb_array_length(boundary) >= 3
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regions []*models.Region
	for rows.Next() {
		r := &models.Region{}
		var boundary []byte
		if err := rows.Scan(&r.ID, &r.Name, &r.Slug, &r.Country, &boundary, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		if err := scanBoundary(boundary, r); err != nil {
			return nil, err
		}
		regions = append(regions, r)
	}
	return regions, nil
}
