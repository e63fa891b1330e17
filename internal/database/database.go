package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/nomadland/nomadland/internal/config"
)

// DB wraps the connection pool
type DB struct {
	Pool *pgxpool.Pool
}

// Connect creates a new database connection pool
func Connect(databaseURL string) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database URL: %w", err)
	}

	// Configure pool
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	log.Println("Database connected successfully")
	return &DB{Pool: pool}, nil
}

// Close closes the database connection pool
func (db *DB) Close() {
	db.Pool.Close()
}

// RunMigrations runs all database migrations
func RunMigrations(db *DB) error {
	ctx := context.Background()

	// Create migrations table if it doesn't exist
	_, err := db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	// Run each migration
	for version, migration := range migrations {
		// Check if migration already applied
		var exists bool
		err := db.Pool.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)",
			version,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check migration %d: %w", version, err)
		}

		if exists {
			continue
		}

		// Apply migration
		log.Printf("Applying migration %d...", version)
		_, err = db.Pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", version, err)
		}

		// Record migration
		_, err = db.Pool.Exec(ctx,
			"INSERT INTO schema_migrations (version) VALUES ($1)",
			version,
		)
		if err != nil {
			return fmt.Errorf("failed to record migration %d: %w", version, err)
		}

		log.Printf("Migration %d applied successfully", version)
	}

	return nil
}

// EnsureAdminUser creates the admin user if it doesn't exist
func EnsureAdminUser(db *DB, cfg *config.Config) error {
	if cfg.AdminPassword == "" {
		log.Println("ADMIN_PASSWORD not set, skipping admin user creation")
		return nil
	}

	ctx := context.Background()

	// Check if admin exists
	var exists bool
	err := db.Pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)",
		cfg.AdminEmail,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check for admin user: %w", err)
	}

	if exists {
		log.Println("Admin user already exists")
		return nil
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	// Create admin user
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO users (email, password_hash, username, role, email_verified)
		VALUES ($1, $2, 'admin', 'admin', true)
	`, cfg.AdminEmail, string(hashedPassword))
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	log.Printf("Admin user created: %s", cfg.AdminEmail)
	return nil
}

// migrations is an ordered map of migration version to SQL
var migrations = map[int]string{
	1: migration001,
	2: migration002,
	3: migration003,
}

const migration001 = `
-- Regions table
-- boundary is an ordered ring of [lng, lat] pairs stored as JSONB
CREATE TABLE IF NOT EXISTS regions (
    id SERIAL PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    slug VARCHAR(100) UNIQUE NOT NULL,
    country VARCHAR(100) NOT NULL,
    description TEXT,
    boundary JSONB NOT NULL DEFAULT '[]',
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);

-- Users table
CREATE TABLE IF NOT EXISTS users (
    id SERIAL PRIMARY KEY,
    email VARCHAR(255) UNIQUE NOT NULL,
    password_hash VARCHAR(255) NOT NULL,
    username VARCHAR(50) UNIQUE,
    bio TEXT,
    avatar_url VARCHAR(500),
    home_region_id INT REFERENCES regions(id),
    languages TEXT[] NOT NULL DEFAULT '{}',
    role VARCHAR(20) DEFAULT 'user',
    email_verified BOOLEAN DEFAULT FALSE,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW(),
    last_login_at TIMESTAMP
);

-- Points of interest table
CREATE TABLE IF NOT EXISTS points (
    id SERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    description TEXT,
    category VARCHAR(50) NOT NULL,
    latitude DECIMAL(10, 8) NOT NULL,
    longitude DECIMAL(11, 8) NOT NULL,
    region_id INT REFERENCES regions(id),
    image_url VARCHAR(500),
    status VARCHAR(20) DEFAULT 'active',
    created_by INT REFERENCES users(id),
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);

-- Reviews table (one review per user per point)
CREATE TABLE IF NOT EXISTS reviews (
    id SERIAL PRIMARY KEY,
    point_id INT REFERENCES points(id) ON DELETE CASCADE,
    user_id INT REFERENCES users(id) ON DELETE CASCADE,
    rating INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
    comment TEXT,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW(),
    CONSTRAINT unique_user_point_review UNIQUE (point_id, user_id)
);

-- Personal map collections
CREATE TABLE IF NOT EXISTS personal_maps (
    id SERIAL PRIMARY KEY,
    user_id INT REFERENCES users(id) ON DELETE CASCADE,
    name VARCHAR(255) NOT NULL,
    description TEXT,
    is_public BOOLEAN DEFAULT FALSE,
    share_token VARCHAR(64) UNIQUE,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);

-- Map-Point junction
CREATE TABLE IF NOT EXISTS map_points (
    map_id INT REFERENCES personal_maps(id) ON DELETE CASCADE,
    point_id INT REFERENCES points(id) ON DELETE CASCADE,
    added_at TIMESTAMP DEFAULT NOW(),
    PRIMARY KEY (map_id, point_id)
);

-- Create indexes
CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
CREATE INDEX IF NOT EXISTS idx_points_region ON points(region_id);
CREATE INDEX IF NOT EXISTS idx_points_category ON points(category);
CREATE INDEX IF NOT EXISTS idx_points_created_by ON points(created_by);
CREATE INDEX IF NOT EXISTS idx_points_status ON points(status);
CREATE INDEX IF NOT EXISTS idx_reviews_point ON reviews(point_id);
CREATE INDEX IF NOT EXISTS idx_reviews_user ON reviews(user_id);
CREATE INDEX IF NOT EXISTS idx_personal_maps_user ON personal_maps(user_id);
CREATE INDEX IF NOT EXISTS idx_personal_maps_token ON personal_maps(share_token);
CREATE INDEX IF NOT EXISTS idx_map_points_point ON map_points(point_id);
`

const migration002 = `
-- Migration 002: Recurring community events

-- Event templates
-- start_date/end_date bound the recurrence window at day precision;
-- repeat is one of none/daily/weekly/monthly; repeat_days holds weekday
-- numbers (Sunday=0) and is only meaningful for weekly repeats.
CREATE TABLE IF NOT EXISTS events (
    id SERIAL PRIMARY KEY,
    title VARCHAR(255) NOT NULL,
    description TEXT,
    image_url VARCHAR(500),
    cost VARCHAR(100),
    language VARCHAR(10) NOT NULL DEFAULT 'en',
    region_id INT REFERENCES regions(id),
    created_by INT REFERENCES users(id),
    status VARCHAR(20) DEFAULT 'active',
    start_date DATE NOT NULL,
    end_date DATE NOT NULL,
    event_time VARCHAR(5),
    all_day BOOLEAN DEFAULT FALSE,
    repeat VARCHAR(10) NOT NULL DEFAULT 'none',
    repeat_days INT[] NOT NULL DEFAULT '{}',
    latitude DECIMAL(10, 8) NOT NULL,
    longitude DECIMAL(11, 8) NOT NULL,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW(),
    CONSTRAINT event_date_order CHECK (end_date >= start_date)
);

-- Per-date occurrence overrides, at most one per calendar date
CREATE TABLE IF NOT EXISTS event_overrides (
    id SERIAL PRIMARY KEY,
    event_id INT REFERENCES events(id) ON DELETE CASCADE,
    date DATE NOT NULL,
    cancelled BOOLEAN DEFAULT FALSE,
    title VARCHAR(255),
    description TEXT,
    cost VARCHAR(100),
    event_time VARCHAR(5),
    latitude DECIMAL(10, 8),
    longitude DECIMAL(11, 8),
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW(),
    CONSTRAINT unique_event_override_date UNIQUE (event_id, date)
);

-- RSVPs are to the template, not to a single occurrence
CREATE TABLE IF NOT EXISTS event_rsvps (
    event_id INT REFERENCES events(id) ON DELETE CASCADE,
    user_id INT REFERENCES users(id) ON DELETE CASCADE,
    created_at TIMESTAMP DEFAULT NOW(),
    PRIMARY KEY (event_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_events_region ON events(region_id);
CREATE INDEX IF NOT EXISTS idx_events_language ON events(language);
CREATE INDEX IF NOT EXISTS idx_events_dates ON events(start_date, end_date);
CREATE INDEX IF NOT EXISTS idx_events_created_by ON events(created_by);
CREATE INDEX IF NOT EXISTS idx_events_status ON events(status);
CREATE INDEX IF NOT EXISTS idx_event_overrides_event ON event_overrides(event_id);
CREATE INDEX IF NOT EXISTS idx_event_rsvps_user ON event_rsvps(user_id);
`

const migration003 = `
-- Migration 003: Email verification tokens

CREATE TABLE IF NOT EXISTS email_verifications (
    id SERIAL PRIMARY KEY,
    user_id INT REFERENCES users(id) ON DELETE CASCADE,
    token VARCHAR(64) UNIQUE NOT NULL,
    expires_at TIMESTAMP NOT NULL,
    created_at TIMESTAMP DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_email_verifications_token ON email_verifications(token);
CREATE INDEX IF NOT EXISTS idx_email_verifications_user ON email_verifications(user_id);
`
