package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/nomadland/nomadland/internal/models"
)

var (
	ErrMapNotFound      = errors.New("map not found")
	ErrMapPointExists   = errors.New("point already in map")
	ErrMapPointNotFound = errors.New("point not in map")
)

const mapColumns = `id, user_id, name, description, is_public, share_token, created_at, updated_at`

func scanMap(row pgx.Row) (*models.PersonalMap, error) {
	m := &models.PersonalMap{}
	err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.Name,
		&m.Description,
		&m.IsPublic,
		&m.ShareToken,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMapNotFound
		}
		return nil, err
	}
	return m, nil
}

// ListMapsByUser returns a paginated list of a user's personal maps
func (db *DB) ListMapsByUser(ctx context.Context, userID int, params *models.MapListParams) ([]*models.PersonalMap, int, error) {
	var total int
	err := db.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM personal_maps WHERE user_id = $1", userID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := db.Pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM personal_maps
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3
	`, mapColumns), userID, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var maps []*models.PersonalMap
	for rows.Next() {
		m, err := scanMap(rows)
		if err != nil {
			return nil, 0, err
		}
		maps = append(maps, m)
	}
	return maps, total, nil
}

// GetMapByID retrieves a personal map by ID
func (db *DB) GetMapByID(ctx context.Context, id int) (*models.PersonalMap, error) {
	return scanMap(db.Pool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM personal_maps WHERE id = $1", mapColumns), id))
}

// GetMapByShareToken retrieves a personal map by its share token
func (db *DB) GetMapByShareToken(ctx context.Context, token string) (*models.PersonalMap, error) {
	return scanMap(db.Pool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM personal_maps WHERE share_token = $1", mapColumns), token))
}

// CreateMap creates a new personal map
func (db *DB) CreateMap(ctx context.Context, userID int, req *models.CreateMapRequest) (*models.PersonalMap, error) {
	return scanMap(db.Pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO personal_maps (user_id, name, description, is_public)
		VALUES ($1, $2, $3, $4)
		RETURNING %s
	`, mapColumns), userID, req.Name, req.Description, req.IsPublic))
}

// UpdateMap updates a personal map's fields
func (db *DB) UpdateMap(ctx context.Context, id int, req *models.UpdateMapRequest) (*models.PersonalMap, error) {
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
	if req.IsPublic != nil {
		setClauses = append(setClauses, fmt.Sprintf("is_public = $%d", argIndex))
		args = append(args, *req.IsPublic)
		argIndex++
	}

	if len(setClauses) == 0 {
		return db.GetMapByID(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE personal_maps SET %s WHERE id = $%d RETURNING %s",
		strings.Join(setClauses, ", "), argIndex, mapColumns)
	return scanMap(db.Pool.QueryRow(ctx, query, args...))
}

// SetMapShareToken stores (or clears, with nil) a map's share token
func (db *DB) SetMapShareToken(ctx context.Context, id int, token *string) error {
	result, err := db.Pool.Exec(ctx,
		"UPDATE personal_maps SET share_token = $1, updated_at = NOW() WHERE id = $2",
		token, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrMapNotFound
	}
	return nil
}

// DeleteMap deletes a personal map by ID
func (db *DB) DeleteMap(ctx context.Context, id int) error {
	result, err := db.Pool.Exec(ctx, "DELETE FROM personal_maps WHERE id = $1", id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrMapNotFound
	}
	return nil
}

// AddPointToMap adds a point to a map's collection
func (db *DB) AddPointToMap(ctx context.Context, mapID, pointID int) error {
	result, err := db.Pool.Exec(ctx, `
		INSERT INTO map_points (map_id, point_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, mapID, pointID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrMapPointExists
	}
	return nil
}

// RemovePointFromMap removes a point from a map's collection
func (db *DB) RemovePointFromMap(ctx context.Context, mapID, pointID int) error {
	result, err := db.Pool.Exec(ctx,
		"DELETE FROM map_points WHERE map_id = $1 AND point_id = $2", mapID, pointID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrMapPointNotFound
	}
	return nil
}

// ListMapPoints returns all points in a map's collection with ratings
func (db *DB) ListMapPoints(ctx context.Context, mapID int) ([]*models.PointWithRating, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM points p
		JOIN map_points mp ON mp.point_id = p.id
		WHERE mp.map_id = $1
		ORDER BY mp.added_at ASC
	`, pointRatingColumns)

	rows, err := db.Pool.Query(ctx, query, mapID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []*models.PointWithRating
	for rows.Next() {
		p, err := scanPointWithRating(rows)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}
