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
	ErrEventNotFound    = errors.New("event not found")
	ErrOverrideNotFound = errors.New("event override not found")
	ErrAlreadyRSVPd     = errors.New("already RSVP'd to this event")
	ErrNotRSVPd         = errors.New("no RSVP to remove")
)

const eventColumns = `e.id, e.title, e.description, e.image_url, e.cost, e.language,
	e.region_id, e.created_by, e.status, e.start_date, e.end_date, e.event_time,
	e.all_day, e.repeat, e.repeat_days, e.latitude, e.longitude, e.created_at, e.updated_at,
	COALESCE((SELECT COUNT(*) FROM event_rsvps WHERE event_id = e.id), 0) as rsvp_count`

func scanEvent(row pgx.Row) (*models.Event, error) {
	e := &models.Event{}
	err := row.Scan(
		&e.ID,
		&e.Title,
		&e.Description,
		&e.ImageURL,
		&e.Cost,
		&e.Language,
		&e.RegionID,
		&e.CreatedBy,
		&e.Status,
		&e.StartDate,
		&e.EndDate,
		&e.Time,
		&e.AllDay,
		&e.Repeat,
		&e.RepeatDays,
		&e.Latitude,
		&e.Longitude,
		&e.CreatedAt,
		&e.UpdatedAt,
		&e.RSVPCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if e.RepeatDays == nil {
		e.RepeatDays = []int{}
	}
	return e, nil
}

// ListEventTemplates loads the event templates matching the coarse filters:
// status, region, languages, and date-range overlap with [From, To]. The
// caller expands each template into concrete instances in memory.
func (db *DB) ListEventTemplates(ctx context.Context, params *models.EventListParams) ([]*models.Event, error) {
	whereClauses := []string{"e.start_date <= $1", "e.end_date >= $2"}
	args := []interface{}{params.To, params.From}
	argIndex := 3

	if params.Status != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("e.status = $%d", argIndex))
		args = append(args, params.Status)
		argIndex++
	} else {
		whereClauses = append(whereClauses, "e.status = 'active'")
	}
	if params.RegionID != 0 {
		whereClauses = append(whereClauses, fmt.Sprintf("e.region_id = $%d", argIndex))
		args = append(args, params.RegionID)
		argIndex++
	}
	if len(params.Languages) > 0 {
		whereClauses = append(whereClauses, fmt.Sprintf("e.language = ANY($%d)", argIndex))
		args = append(args, params.Languages)
		argIndex++
	}
	if params.CreatedBy != 0 {
		whereClauses = append(whereClauses, fmt.Sprintf("e.created_by = $%d", argIndex))
		args = append(args, params.CreatedBy)
		argIndex++
	}

	query := fmt.Sprintf(`
		SELECT %s FROM events e
		WHERE %s
		ORDER BY e.start_date ASC
	`, eventColumns, strings.Join(whereClauses, " AND "))

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	if err := db.attachOverrides(ctx, events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetEventByID retrieves an event template with its overrides
func (db *DB) GetEventByID(ctx context.Context, id int) (*models.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM events e WHERE e.id = $1", eventColumns)
	e, err := scanEvent(db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := db.attachOverrides(ctx, []*models.Event{e}); err != nil {
		return nil, err
	}
	return e, nil
}

// attachOverrides loads the overrides for a batch of events in one query
func (db *DB) attachOverrides(ctx context.Context, events []*models.Event) error {
	if len(events) == 0 {
		return nil
	}

	ids := make([]int, len(events))
	byID := make(map[int]*models.Event, len(events))
	for i, e := range events {
		ids[i] = e.ID
		byID[e.ID] = e
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT id, event_id, date, cancelled, title, description, cost, event_time, latitude, longitude
		FROM event_overrides
		WHERE event_id = ANY($1)
		ORDER BY event_id, date
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		ov := &models.EventOverride{}
		err := rows.Scan(
			&ov.ID, &ov.EventID, &ov.Date, &ov.Cancelled,
			&ov.Title, &ov.Description, &ov.Cost, &ov.Time,
			&ov.Latitude, &ov.Longitude,
		)
		if err != nil {
			return err
		}
		if e, ok := byID[ov.EventID]; ok {
			e.Overrides = append(e.Overrides, ov)
		}
	}
	return nil
}

// CreateEvent creates a new event template
func (db *DB) CreateEvent(ctx context.Context, e *models.Event) (*models.Event, error) {
	repeatDays := e.RepeatDays
	if repeatDays == nil {
		repeatDays = []int{}
	}

	out := &models.Event{RepeatDays: []int{}, Overrides: nil}
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO events (title, description, image_url, cost, language, region_id,
			created_by, status, start_date, end_date, event_time, all_day, repeat,
			repeat_days, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, title, description, image_url, cost, language, region_id,
			created_by, status, start_date, end_date, event_time, all_day, repeat,
			repeat_days, latitude, longitude, created_at, updated_at
	`, e.Title, e.Description, e.ImageURL, e.Cost, e.Language, e.RegionID,
		e.CreatedBy, e.Status, e.StartDate, e.EndDate, e.Time, e.AllDay, e.Repeat,
		repeatDays, e.Latitude, e.Longitude,
	).Scan(
		&out.ID, &out.Title, &out.Description, &out.ImageURL, &out.Cost, &out.Language,
		&out.RegionID, &out.CreatedBy, &out.Status, &out.StartDate, &out.EndDate,
		&out.Time, &out.AllDay, &out.Repeat, &out.RepeatDays, &out.Latitude,
		&out.Longitude, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if out.RepeatDays == nil {
		out.RepeatDays = []int{}
	}
	return out, nil
}

// UpdateEvent applies a partial update to an event template. Date, repeat
// and location fields arrive pre-validated from the handler.
func (db *DB) UpdateEvent(ctx context.Context, id int, e *models.Event, fields []string) (*models.Event, error) {
	var setClauses []string
	var args []interface{}
	argIndex := 1

	add := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIndex))
		args = append(args, value)
		argIndex++
	}

	for _, f := range fields {
		switch f {
		case "title":
			add("title", e.Title)
		case "description":
			add("description", e.Description)
		case "image_url":
			add("image_url", e.ImageURL)
		case "cost":
			add("cost", e.Cost)
		case "language":
			add("language", e.Language)
		case "region_id":
			add("region_id", e.RegionID)
		case "status":
			add("status", e.Status)
		case "start_date":
			add("start_date", e.StartDate)
		case "end_date":
			add("end_date", e.EndDate)
		case "event_time":
			add("event_time", e.Time)
		case "all_day":
			add("all_day", e.AllDay)
		case "repeat":
			add("repeat", e.Repeat)
		case "repeat_days":
			add("repeat_days", e.RepeatDays)
		case "latitude":
			add("latitude", e.Latitude)
		case "longitude":
			add("longitude", e.Longitude)
		}
	}

	if len(setClauses) == 0 {
		return db.GetEventByID(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE events e SET %s
		WHERE e.id = $%d
		RETURNING %s
	`, strings.Join(setClauses, ", "), argIndex, eventColumns)

	updated, err := scanEvent(db.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, err
	}
	if err := db.attachOverrides(ctx, []*models.Event{updated}); err != nil {
		return nil, err
	}
	return updated, nil
}

// SetEventStatus updates the lifecycle status of an event template
func (db *DB) SetEventStatus(ctx context.Context, id int, status models.EventStatus) error {
	result, err := db.Pool.Exec(ctx,
		"UPDATE events SET status = $1, updated_at = NOW() WHERE id = $2", status, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

// DeleteEvent deletes an event template and its overrides
func (db *DB) DeleteEvent(ctx context.Context, id int) error {
	result, err := db.Pool.Exec(ctx, "DELETE FROM events WHERE id = $1", id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

// UpsertEventOverride creates or replaces the override for one calendar date
func (db *DB) UpsertEventOverride(ctx context.Context, ov *models.EventOverride) (*models.EventOverride, error) {
	out := &models.EventOverride{}
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO event_overrides (event_id, date, cancelled, title, description, cost, event_time, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT ON CONSTRAINT unique_event_override_date
		DO UPDATE SET cancelled = EXCLUDED.cancelled, title = EXCLUDED.title,
			description = EXCLUDED.description, cost = EXCLUDED.cost,
			event_time = EXCLUDED.event_time, latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude, updated_at = NOW()
		RETURNING id, event_id, date, cancelled, title, description, cost, event_time, latitude, longitude
	`, ov.EventID, ov.Date, ov.Cancelled, ov.Title, ov.Description, ov.Cost,
		ov.Time, ov.Latitude, ov.Longitude).Scan(
		&out.ID, &out.EventID, &out.Date, &out.Cancelled,
		&out.Title, &out.Description, &out.Cost, &out.Time,
		&out.Latitude, &out.Longitude,
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteEventOverride removes the override for one calendar date
func (db *DB) DeleteEventOverride(ctx context.Context, eventID int, date time.Time) error {
	result, err := db.Pool.Exec(ctx,
		"DELETE FROM event_overrides WHERE event_id = $1 AND date = $2", eventID, date)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrOverrideNotFound
	}
	return nil
}

// AddRSVP records a user's RSVP to an event template
func (db *DB) AddRSVP(ctx context.Context, eventID, userID int) error {
	result, err := db.Pool.Exec(ctx, `
		INSERT INTO event_rsvps (event_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, eventID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAlreadyRSVPd
	}
	return nil
}

// ListRSVPEmails returns the email addresses of every user RSVP'd to an
// event, used to notify attendees when a template is cancelled
func (db *DB) ListRSVPEmails(ctx context.Context, eventID int) ([]string, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT u.email FROM event_rsvps r
		JOIN users u ON u.id = r.user_id
		WHERE r.event_id = $1
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

// RemoveRSVP removes a user's RSVP from an event template
func (db *DB) RemoveRSVP(ctx context.Context, eventID, userID int) error {
	result, err := db.Pool.Exec(ctx,
		"DELETE FROM event_rsvps WHERE event_id = $1 AND user_id = $2", eventID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotRSVPd
	}
	return nil
}
