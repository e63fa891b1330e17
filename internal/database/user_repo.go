package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nomadland/nomadland/internal/models"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrEmailExists    = errors.New("email already registered")
	ErrUsernameExists = errors.New("username already taken")

	ErrVerificationNotFound = errors.New("verification token not found")
)

const userColumns = `id, email, password_hash, username, bio, avatar_url, home_region_id,
	languages, role, email_verified, created_at, updated_at, last_login_at`

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Username,
		&u.Bio,
		&u.AvatarURL,
		&u.HomeRegionID,
		&u.Languages,
		&u.Role,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// CreateUser creates a new user account
func (db *DB) CreateUser(ctx context.Context, req *models.RegisterRequest, passwordHash string) (*models.User, error) {
	languages := req.Languages
	if languages == nil {
		languages = []string{}
	}

	row := db.Pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO users (email, password_hash, username, home_region_id, languages)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING %s
	`, userColumns), req.Email, passwordHash, req.Username, req.HomeRegionID, languages)

	u, err := scanUser(row)
	if err != nil {
		if strings.Contains(err.Error(), "users_email_key") {
			return nil, ErrEmailExists
		}
		if strings.Contains(err.Error(), "users_username_key") {
			return nil, ErrUsernameExists
		}
		return nil, err
	}
	return u, nil
}

// GetUserByID retrieves a user by ID
func (db *DB) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	row := db.Pool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM users WHERE id = $1", userColumns), id)
	return scanUser(row)
}

// GetUserByEmail retrieves a user by email
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := db.Pool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM users WHERE LOWER(email) = LOWER($1)", userColumns), email)
	return scanUser(row)
}

// UpdateUser updates a user's profile fields
func (db *DB) UpdateUser(ctx context.Context, id int, req *models.UpdateUserRequest) (*models.User, error) {
	var setClauses []string
	var args []interface{}
	argIndex := 1

	if req.Username != nil {
		setClauses = append(setClauses, fmt.Sprintf("username = $%d", argIndex))
		args = append(args, *req.Username)
		argIndex++
	}
	if req.Bio != nil {
		setClauses = append(setClauses, fmt.Sprintf("bio = $%d", argIndex))
		args = append(args, *req.Bio)
		argIndex++
	}
	if req.AvatarURL != nil {
		setClauses = append(setClauses, fmt.Sprintf("avatar_url = $%d", argIndex))
		args = append(args, *req.AvatarURL)
		argIndex++
	}
	if req.HomeRegionID != nil {
		setClauses = append(setClauses, fmt.Sprintf("home_region_id = $%d", argIndex))
		args = append(args, *req.HomeRegionID)
		argIndex++
	}
	if req.Languages != nil {
		setClauses = append(setClauses, fmt.Sprintf("languages = $%d", argIndex))
		args = append(args, *req.Languages)
		argIndex++
	}

	if len(setClauses) == 0 {
		return db.GetUserByID(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d RETURNING %s",
		strings.Join(setClauses, ", "), argIndex, userColumns)

	u, err := scanUser(db.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		if strings.Contains(err.Error(), "users_username_key") {
			return nil, ErrUsernameExists
		}
		return nil, err
	}
	return u, nil
}

// UpdateUserPassword replaces a user's password hash
func (db *DB) UpdateUserPassword(ctx context.Context, id int, passwordHash string) error {
	result, err := db.Pool.Exec(ctx,
		"UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2",
		passwordHash, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateUserLastLogin records a successful login
func (db *DB) UpdateUserLastLogin(ctx context.Context, id int) error {
	_, err := db.Pool.Exec(ctx,
		"UPDATE users SET last_login_at = NOW() WHERE id = $1", id)
	return err
}

// SetEmailVerified marks a user's email address as verified
func (db *DB) SetEmailVerified(ctx context.Context, id int) error {
	result, err := db.Pool.Exec(ctx,
		"UPDATE users SET email_verified = TRUE, updated_at = NOW() WHERE id = $1", id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// GetUserStats returns aggregate activity counts for a user
func (db *DB) GetUserStats(ctx context.Context, id int) (*models.UserStats, error) {
	stats := &models.UserStats{}
	err := db.Pool.QueryRow(ctx, `
		SELECT
			COALESCE((SELECT COUNT(*) FROM points WHERE created_by = $1), 0),
			COALESCE((SELECT COUNT(*) FROM reviews WHERE user_id = $1), 0),
			COALESCE((SELECT COUNT(*) FROM events WHERE created_by = $1), 0),
			COALESCE((SELECT COUNT(*) FROM personal_maps WHERE user_id = $1), 0)
	`, id).Scan(&stats.PointsAdded, &stats.ReviewsWritten, &stats.EventsHosted, &stats.MapsCreated)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// GetServiceStats returns site-wide entity counts for the admin dashboard
func (db *DB) GetServiceStats(ctx context.Context) (*models.ServiceStats, error) {
	stats := &models.ServiceStats{}
	err := db.Pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM regions),
			(SELECT COUNT(*) FROM points),
			(SELECT COUNT(*) FROM points WHERE status = 'pending'),
			(SELECT COUNT(*) FROM reviews),
			(SELECT COUNT(*) FROM personal_maps),
			(SELECT COUNT(*) FROM events),
			(SELECT COUNT(*) FROM events WHERE status = 'pending'),
			(SELECT COUNT(*) FROM event_rsvps)
	`).Scan(
		&stats.Users, &stats.Regions,
		&stats.Points, &stats.PendingPoints,
		&stats.Reviews, &stats.Maps,
		&stats.Events, &stats.PendingEvents,
		&stats.RSVPs,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// AdminListUsers returns a paginated list of users (admin only)
func (db *DB) AdminListUsers(ctx context.Context, params *models.UserListParams) ([]*models.User, int, error) {
	var whereClauses []string
	var args []interface{}
	argIndex := 1

	if params.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(LOWER(email) LIKE LOWER($%d) OR LOWER(COALESCE(username, '')) LIKE LOWER($%d))",
			argIndex, argIndex,
		))
		args = append(args, "%"+params.Search+"%")
		argIndex++
	}
	if params.Role != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("role = $%d", argIndex))
		args = append(args, params.Role)
		argIndex++
	}

	whereClause := ""
	if len(whereClauses) > 0 {
		whereClause = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM users %s", whereClause)
	if err := db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM users %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, userColumns, whereClause, argIndex, argIndex+1)
	args = append(args, params.Limit, params.Offset)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, nil
}

// AdminUpdateUser updates any user's fields (admin only)
func (db *DB) AdminUpdateUser(ctx context.Context, id int, req *models.AdminUpdateUserRequest, passwordHash *string) (*models.User, error) {
	var setClauses []string
	var args []interface{}
	argIndex := 1

	if req.Email != nil {
		setClauses = append(setClauses, fmt.Sprintf("email = $%d", argIndex))
		args = append(args, *req.Email)
		argIndex++
	}
	if req.Username != nil {
		setClauses = append(setClauses, fmt.Sprintf("username = $%d", argIndex))
		args = append(args, *req.Username)
		argIndex++
	}
	if req.Role != nil {
		setClauses = append(setClauses, fmt.Sprintf("role = $%d", argIndex))
		args = append(args, *req.Role)
		argIndex++
	}
	if req.EmailVerified != nil {
		setClauses = append(setClauses, fmt.Sprintf("email_verified = $%d", argIndex))
		args = append(args, *req.EmailVerified)
		argIndex++
	}
	if passwordHash != nil {
		setClauses = append(setClauses, fmt.Sprintf("password_hash = $%d", argIndex))
		args = append(args, *passwordHash)
		argIndex++
	}

	if len(setClauses) == 0 {
		return db.GetUserByID(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d RETURNING %s",
		strings.Join(setClauses, ", "), argIndex, userColumns)

	u, err := scanUser(db.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		if strings.Contains(err.Error(), "users_email_key") {
			return nil, ErrEmailExists
		}
		if strings.Contains(err.Error(), "users_username_key") {
			return nil, ErrUsernameExists
		}
		return nil, err
	}
	return u, nil
}

// DeleteUser deletes a user by ID (admin only)
func (db *DB) DeleteUser(ctx context.Context, id int) error {
	result, err := db.Pool.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// CreateEmailVerification stores a fresh verification token for a user,
// replacing any earlier tokens.
func (db *DB) CreateEmailVerification(ctx context.Context, userID int, token string, expiresAt time.Time) error {
	if _, err := db.Pool.Exec(ctx,
		"DELETE FROM email_verifications WHERE user_id = $1", userID); err != nil {
		return err
	}
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO email_verifications (user_id, token, expires_at)
		VALUES ($1, $2, $3)
	`, userID, token, expiresAt)
	return err
}

// ConsumeEmailVerification looks up an unexpired token, deletes it, and
// returns the user it belonged to.
func (db *DB) ConsumeEmailVerification(ctx context.Context, token string) (int, error) {
	var userID int
	err := db.Pool.QueryRow(ctx, `
		DELETE FROM email_verifications
		WHERE token = $1 AND expires_at > NOW()
		RETURNING user_id
	`, token).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrVerificationNotFound
		}
		return 0, err
	}
	return userID, nil
}
