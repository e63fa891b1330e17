package models

import (
	"time"
)

// RepeatRule is how an event template recurs between its start and end dates
type RepeatRule string

const (
	RepeatNone    RepeatRule = "none"
	RepeatDaily   RepeatRule = "daily"
	RepeatWeekly  RepeatRule = "weekly"
	RepeatMonthly RepeatRule = "monthly"
)

// IsValidRepeatRule reports whether r is an accepted repeat rule
func IsValidRepeatRule(r RepeatRule) bool {
	switch r {
	case RepeatNone, RepeatDaily, RepeatWeekly, RepeatMonthly:
		return true
	}
	return false
}

// EventStatus is the moderation/lifecycle state of an event template
type EventStatus string

const (
	EventStatusPending   EventStatus = "pending"
	EventStatusActive    EventStatus = "active"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusRejected  EventStatus = "rejected"
)

// Event is a stored event template. StartDate and EndDate bound the
// recurrence window at calendar-day precision (midnight UTC); Time is an
// optional "HH:MM" wall-clock string used only for ordering and display.
// RepeatDays holds weekday numbers (Sunday=0) and is meaningful only when
// Repeat is weekly.
type Event struct {
	ID          int         `json:"id"`
	Title       string      `json:"title"`
	Description *string     `json:"description,omitempty"`
	ImageURL    *string     `json:"image_url,omitempty"`
	Cost        *string     `json:"cost,omitempty"`
	Language    string      `json:"language"`
	RegionID    *int        `json:"region_id,omitempty"`
	CreatedBy   *int        `json:"created_by,omitempty"`
	Status      EventStatus `json:"status"`

	StartDate  time.Time  `json:"start_date"`
	EndDate    time.Time  `json:"end_date"`
	Time       *string    `json:"time,omitempty"`
	AllDay     bool       `json:"all_day"`
	Repeat     RepeatRule `json:"repeat"`
	RepeatDays []int      `json:"repeat_days,omitempty"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	Overrides []*EventOverride `json:"overrides,omitempty"`
	RSVPCount int              `json:"rsvp_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EventOverride is a per-date patch on one generated occurrence of a
// template. At most one override exists per calendar date. Nil fields leave
// the template value in place; Cancelled removes the occurrence entirely.
type EventOverride struct {
	ID          int       `json:"id"`
	EventID     int       `json:"event_id"`
	Date        time.Time `json:"date"`
	Cancelled   bool      `json:"cancelled"`
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Cost        *string   `json:"cost,omitempty"`
	Time        *string   `json:"time,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
}

// EventInstance is one concrete calendar-dated occurrence of a template,
// computed per query and never persisted.
type EventInstance struct {
	TemplateID  int         `json:"template_id"`
	Date        time.Time   `json:"date"`
	Title       string      `json:"title"`
	Description *string     `json:"description,omitempty"`
	ImageURL    *string     `json:"image_url,omitempty"`
	Cost        *string     `json:"cost,omitempty"`
	Language    string      `json:"language"`
	RegionID    *int        `json:"region_id,omitempty"`
	CreatedBy   *int        `json:"created_by,omitempty"`
	Status      EventStatus `json:"status"`
	Time        *string     `json:"time,omitempty"`
	AllDay      bool        `json:"all_day"`
	Latitude    float64     `json:"latitude"`
	Longitude   float64     `json:"longitude"`
	RSVPCount   int         `json:"rsvp_count"`
}

// CreateEventRequest is the request body for creating an event template.
// Dates are "YYYY-MM-DD" strings, parsed and validated by the handler.
type CreateEventRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty"`
	Cost        *string    `json:"cost,omitempty"`
	Language    string     `json:"language"`
	RegionID    *int       `json:"region_id,omitempty"`
	StartDate   string     `json:"start_date"`
	EndDate     string     `json:"end_date"`
	Time        *string    `json:"time,omitempty"`
	AllDay      bool       `json:"all_day"`
	Repeat      RepeatRule `json:"repeat"`
	RepeatDays  []int      `json:"repeat_days,omitempty"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
}

// UpdateEventRequest is the request body for updating an event template
type UpdateEventRequest struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	ImageURL    *string     `json:"image_url,omitempty"`
	Cost        *string     `json:"cost,omitempty"`
	Language    *string     `json:"language,omitempty"`
	RegionID    *int        `json:"region_id,omitempty"`
	StartDate   *string     `json:"start_date,omitempty"`
	EndDate     *string     `json:"end_date,omitempty"`
	Time        *string     `json:"time,omitempty"`
	AllDay      *bool       `json:"all_day,omitempty"`
	Repeat      *RepeatRule `json:"repeat,omitempty"`
	RepeatDays  *[]int      `json:"repeat_days,omitempty"`
	Latitude    *float64    `json:"latitude,omitempty"`
	Longitude   *float64    `json:"longitude,omitempty"`
	Status      *EventStatus `json:"status,omitempty"`
}

// UpsertOverrideRequest is the request body for setting a per-date override
type UpsertOverrideRequest struct {
	Cancelled   bool     `json:"cancelled"`
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Cost        *string  `json:"cost,omitempty"`
	Time        *string  `json:"time,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// EventListParams contains the coarse SQL-side filters for an instance query.
// From/To are the query window; templates whose [StartDate, EndDate] overlaps
// it are loaded and expanded in memory.
type EventListParams struct {
	From      time.Time
	To        time.Time
	RegionID  int
	Languages []string
	CreatedBy int
	Status    string
}
