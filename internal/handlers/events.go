package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/nomadland/nomadland/internal/database"
	"github.com/nomadland/nomadland/internal/middleware"
	"github.com/nomadland/nomadland/internal/models"
	"github.com/nomadland/nomadland/internal/schedule"
	"github.com/nomadland/nomadland/internal/services"
)

const dateLayout = "2006-01-02"

var timeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ListEventInstances expands every matching event template into its dated
// occurrences within the requested window and returns them sorted by date,
// then start time.
func (h *Handler) ListEventInstances(c *fiber.Ctx) error {
	from, err := time.Parse(dateLayout, c.Query("from"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "from is required (YYYY-MM-DD)")
	}
	to, err := time.Parse(dateLayout, c.Query("to"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "to is required (YYYY-MM-DD)")
	}
	if to.Before(from) {
		return Error(c, fiber.StatusBadRequest, "to must not be before from")
	}

	maxWindow := time.Duration(h.cfg.MaxEventWindowDays) * 24 * time.Hour
	if to.Sub(from) > maxWindow {
		return Error(c, fiber.StatusBadRequest,
			fmt.Sprintf("window must not exceed %d days", h.cfg.MaxEventWindowDays))
	}

	params := &models.EventListParams{
		From:     from,
		To:       to,
		RegionID: c.QueryInt("region_id", 0),
	}
	if langs := c.Query("languages"); langs != "" {
		for _, l := range strings.Split(langs, ",") {
			if l = strings.TrimSpace(l); l != "" {
				params.Languages = append(params.Languages, l)
			}
		}
	}

	key := h.eventCache.Key(params)
	if instances, ok := h.eventCache.Get(c.Context(), key); ok {
		return Success(c, instances)
	}

	templates, err := h.db.ListEventTemplates(c.Context(), params)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to list events")
	}

	instances := []*models.EventInstance{}
	for _, tmpl := range templates {
		instances = append(instances, schedule.Expand(tmpl, from, to)...)
	}
	schedule.SortInstances(instances)

	h.eventCache.Set(c.Context(), key, instances)

	return Success(c, instances)
}

// GetEvent returns a single event template with its overrides
func (h *Handler) GetEvent(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid event id")
	}

	event, err := h.db.GetEventByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrEventNotFound) {
			return Error(c, fiber.StatusNotFound, "event not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get event")
	}

	// Hide unmoderated events from regular users, except their own
	if event.Status != models.EventStatusActive {
		isOwner := event.CreatedBy != nil && *event.CreatedBy == middleware.GetUserID(c)
		if !isOwner && middleware.GetUserRole(c) == models.RoleUser {
			return Error(c, fiber.StatusNotFound, "event not found")
		}
	}

	return Success(c, event)
}

// CreateEvent creates a new event template. Regular users' events start in
// pending status; moderator and admin submissions go live immediately.
func (h *Handler) CreateEvent(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req models.CreateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.Title == "" {
		return Error(c, fiber.StatusBadRequest, "title is required")
	}
	if req.Language == "" {
		return Error(c, fiber.StatusBadRequest, "language is required")
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "start_date must be YYYY-MM-DD")
	}
	endDate, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "end_date must be YYYY-MM-DD")
	}

	event := &models.Event{
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Cost:        req.Cost,
		Language:    req.Language,
		RegionID:    req.RegionID,
		CreatedBy:   &userID,
		Status:      models.EventStatusPending,
		StartDate:   schedule.Day(startDate),
		EndDate:     schedule.Day(endDate),
		Time:        req.Time,
		AllDay:      req.AllDay,
		Repeat:      req.Repeat,
		RepeatDays:  req.RepeatDays,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	}
	if event.Repeat == "" {
		event.Repeat = models.RepeatNone
	}
	if event.RepeatDays == nil {
		event.RepeatDays = []int{}
	}
	if middleware.GetUserRole(c) != models.RoleUser {
		event.Status = models.EventStatusActive
	}

	if msg := h.validateEvent(c, event); msg != "" {
		return Error(c, fiber.StatusBadRequest, msg)
	}

	created, err := h.db.CreateEvent(c.Context(), event)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to create event")
	}

	h.eventCache.Invalidate(c.Context())

	return Created(c, created)
}

// UpdateEvent applies a partial update to an event template. Only the owner
// or a moderator may edit; status changes need moderator privileges.
func (h *Handler) UpdateEvent(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid event id")
	}

	event, err := h.db.GetEventByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrEventNotFound) {
			return Error(c, fiber.StatusNotFound, "event not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get event")
	}

	if !canModify(c, event.CreatedBy) {
		return Error(c, fiber.StatusForbidden, "you can only edit your own events")
	}

	var req models.UpdateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	prevStatus := event.Status

	var fields []string
	patch := func(field string, apply func()) {
		apply()
		fields = append(fields, field)
	}

	if req.Title != nil {
		if *req.Title == "" {
			return Error(c, fiber.StatusBadRequest, "title cannot be empty")
		}
		patch("title", func() { event.Title = *req.Title })
	}
	if req.Description != nil {
		patch("description", func() { event.Description = req.Description })
	}
	if req.ImageURL != nil {
		patch("image_url", func() { event.ImageURL = req.ImageURL })
	}
	if req.Cost != nil {
		patch("cost", func() { event.Cost = req.Cost })
	}
	if req.Language != nil {
		if *req.Language == "" {
			return Error(c, fiber.StatusBadRequest, "language cannot be empty")
		}
		patch("language", func() { event.Language = *req.Language })
	}
	if req.RegionID != nil {
		patch("region_id", func() { event.RegionID = req.RegionID })
	}
	if req.StartDate != nil {
		d, err := time.Parse(dateLayout, *req.StartDate)
		if err != nil {
			return Error(c, fiber.StatusBadRequest, "start_date must be YYYY-MM-DD")
		}
		patch("start_date", func() { event.StartDate = schedule.Day(d) })
	}
	if req.EndDate != nil {
		d, err := time.Parse(dateLayout, *req.EndDate)
		if err != nil {
			return Error(c, fiber.StatusBadRequest, "end_date must be YYYY-MM-DD")
		}
		patch("end_date", func() { event.EndDate = schedule.Day(d) })
	}
	if req.Time != nil {
		patch("event_time", func() { event.Time = req.Time })
	}
	if req.AllDay != nil {
		patch("all_day", func() { event.AllDay = *req.AllDay })
	}
	if req.Repeat != nil {
		patch("repeat", func() { event.Repeat = *req.Repeat })
	}
	if req.RepeatDays != nil {
		patch("repeat_days", func() { event.RepeatDays = *req.RepeatDays })
	}
	if req.Latitude != nil {
		patch("latitude", func() { event.Latitude = *req.Latitude })
	}
	if req.Longitude != nil {
		patch("longitude", func() { event.Longitude = *req.Longitude })
	}
	if req.Status != nil {
		if middleware.GetUserRole(c) == models.RoleUser {
			return Error(c, fiber.StatusForbidden, "moderator access required to change status")
		}
		switch *req.Status {
		case models.EventStatusPending, models.EventStatusActive,
			models.EventStatusCancelled, models.EventStatusRejected:
		default:
			return Error(c, fiber.StatusBadRequest, "invalid status")
		}
		patch("status", func() { event.Status = *req.Status })
	}

	if msg := h.validateEvent(c, event); msg != "" {
		return Error(c, fiber.StatusBadRequest, msg)
	}

	updated, err := h.db.UpdateEvent(c.Context(), id, event, fields)
	if err != nil {
		if errors.Is(err, database.ErrEventNotFound) {
			return Error(c, fiber.StatusNotFound, "event not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to update event")
	}

	h.eventCache.Invalidate(c.Context())

	if prevStatus != models.EventStatusCancelled && updated.Status == models.EventStatusCancelled {
		h.notifyEventCancelled(updated)
	}

	return Success(c, updated)
}

// DeleteEvent deletes an event template and all of its overrides and RSVPs
func (h *Handler) DeleteEvent(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid event id")
	}

	event, err := h.db.GetEventByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrEventNotFound) {
			return Error(c, fiber.StatusNotFound, "event not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get event")
	}

	if !canModify(c, event.CreatedBy) {
		return Error(c, fiber.StatusForbidden, "you can only delete your own events")
	}

	if err := h.db.DeleteEvent(c.Context(), id); err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to delete event")
	}

	h.eventCache.Invalidate(c.Context())

	return c.JSON(fiber.Map{
		"success": true,
		"message": "event deleted successfully",
	})
}

// UpsertEventOverride sets the per-date patch for one occurrence. The date
// must fall on a generated occurrence of the template.
func (h *Handler) UpsertEventOverride(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid event id")
	}

	date, err := time.Parse(dateLayout, c.Params("date"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "override date must be YYYY-MM-DD")
	}
	date = schedule.Day(date)

	event, err := h.db.GetEventByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrEventNotFound) {
			return Error(c, fiber.StatusNotFound, "event not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get event")
	}

	if !canModify(c, event.CreatedBy) {
		return Error(c, fiber.StatusForbidden, "you can only edit your own events")
	}

	var req models.UpsertOverrideRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.Time != nil && !timeRegex.MatchString(*req.Time) {
		return Error(c, fiber.StatusBadRequest, "time must be HH:MM")
	}
	if req.Latitude != nil && (*req.Latitude < -90 || *req.Latitude > 90) {
		return Error(c, fiber.StatusBadRequest, "latitude must be between -90 and 90")
	}
	if req.Longitude != nil && (*req.Longitude < -180 || *req.Longitude > 180) {
		return Error(c, fiber.StatusBadRequest, "longitude must be between -180 and 180")
	}

	// The override must target a date the template actually generates.
	// Existing overrides are ignored here so a cancelled occurrence can be
	// re-overridden.
	if !templateOccursOn(event, date) {
		return Error(c, fiber.StatusUnprocessableEntity, "event has no occurrence on that date")
	}

	ov := &models.EventOverride{
		EventID:     id,
		Date:        date,
		Cancelled:   req.Cancelled,
		Title:       req.Title,
		Description: req.Description,
		Cost:        req.Cost,
		Time:        req.Time,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	}

	saved, err := h.db.UpsertEventOverride(c.Context(), ov)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to save override")
	}

	h.eventCache.Invalidate(c.Context())

	if req.Cancelled && !dateAlreadyCancelled(event, date) {
		h.notifyOccurrenceCancelled(event, date)
	}

	return Success(c, saved)
}

// DeleteEventOverride removes the per-date patch, restoring the template's
// values for that occurrence
func (h *Handler) DeleteEventOverride(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid event id")
	}

	date, err := time.Parse(dateLayout, c.Params("date"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "override date must be YYYY-MM-DD")
	}

	event, err := h.db.GetEventByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrEventNotFound) {
			return Error(c, fiber.StatusNotFound, "event not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get event")
	}

	if !canModify(c, event.CreatedBy) {
		return Error(c, fiber.StatusForbidden, "you can only edit your own events")
	}

	if err := h.db.DeleteEventOverride(c.Context(), id, schedule.Day(date)); err != nil {
		if errors.Is(err, database.ErrOverrideNotFound) {
			return Error(c, fiber.StatusNotFound, "no override on that date")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to delete override")
	}

	h.eventCache.Invalidate(c.Context())

	return c.JSON(fiber.Map{
		"success": true,
		"message": "override removed",
	})
}

// RSVPEvent records the current user's RSVP on an event template
func (h *Handler) RSVPEvent(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid event id")
	}

	event, err := h.db.GetEventByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrEventNotFound) {
			return Error(c, fiber.StatusNotFound, "event not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get event")
	}

	if event.Status != models.EventStatusActive {
		return Error(c, fiber.StatusBadRequest, "event is not active")
	}

	if err := h.db.AddRSVP(c.Context(), id, userID); err != nil {
		if errors.Is(err, database.ErrAlreadyRSVPd) {
			return Error(c, fiber.StatusConflict, "already RSVP'd to this event")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to RSVP")
	}

	h.eventCache.Invalidate(c.Context())

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "RSVP recorded",
	})
}

// UnRSVPEvent removes the current user's RSVP
func (h *Handler) UnRSVPEvent(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid event id")
	}

	if err := h.db.RemoveRSVP(c.Context(), id, userID); err != nil {
		if errors.Is(err, database.ErrNotRSVPd) {
			return Error(c, fiber.StatusNotFound, "no RSVP to remove")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to remove RSVP")
	}

	h.eventCache.Invalidate(c.Context())

	return c.JSON(fiber.Map{
		"success": true,
		"message": "RSVP removed",
	})
}

// RegionEventsICS serves a region's upcoming events as an iCalendar feed
func (h *Handler) RegionEventsICS(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid region id")
	}

	region, err := h.db.GetRegionByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrRegionNotFound) {
			return Error(c, fiber.StatusNotFound, "region not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get region")
	}

	from := schedule.Day(time.Now().UTC())
	to := from.AddDate(0, 0, h.cfg.MaxEventWindowDays)

	templates, err := h.db.ListEventTemplates(c.Context(), &models.EventListParams{
		From:     from,
		To:       to,
		RegionID: region.ID,
	})
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to list events")
	}

	feed, err := services.BuildRegionFeed(&region.Region, templates, from, to)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to build calendar feed")
	}

	c.Set(fiber.HeaderContentType, "text/calendar; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s-events.ics"`, region.Slug))
	return c.SendString(feed)
}

// notifyEventCancelled emails every RSVP'd attendee about a template-level
// cancellation. Failures are logged; cancellation itself has already
// succeeded.
func (h *Handler) notifyEventCancelled(event *models.Event) {
	when := fmt.Sprintf("%s to %s",
		event.StartDate.Format(dateLayout), event.EndDate.Format(dateLayout))
	h.sendCancellationEmails(event, when)
}

// notifyOccurrenceCancelled emails attendees about a single cancelled date
func (h *Handler) notifyOccurrenceCancelled(event *models.Event, date time.Time) {
	h.sendCancellationEmails(event, date.Format(dateLayout))
}

func (h *Handler) sendCancellationEmails(event *models.Event, when string) {
	if !h.emailService.IsConfigured() {
		return
	}

	emails, err := h.db.ListRSVPEmails(context.Background(), event.ID)
	if err != nil {
		log.Printf("Failed to load RSVP emails for event %d: %v", event.ID, err)
		return
	}
	if len(emails) == 0 {
		return
	}

	title := event.Title
	go func() {
		for _, to := range emails {
			if err := h.emailService.SendEventCancelledEmail(to, title, when); err != nil {
				log.Printf("Failed to send cancellation email to %s: %v", to, err)
			}
		}
	}()
}

// dateAlreadyCancelled reports whether the stored overrides already cancel
// the given date, so repeated cancellation writes don't re-notify.
func dateAlreadyCancelled(event *models.Event, date time.Time) bool {
	for _, ov := range event.Overrides {
		if ov.Cancelled && schedule.SameDay(ov.Date, date) {
			return true
		}
	}
	return false
}

// validateEvent checks the cross-field rules shared by create and update
func (h *Handler) validateEvent(c *fiber.Ctx, e *models.Event) string {
	if e.EndDate.Before(e.StartDate) {
		return "end_date must not be before start_date"
	}
	if !models.IsValidRepeatRule(e.Repeat) {
		return "repeat must be one of none, daily, weekly, monthly"
	}
	if e.Repeat == models.RepeatWeekly {
		if len(e.RepeatDays) == 0 {
			return "weekly events need at least one repeat day"
		}
		seen := map[int]bool{}
		for _, d := range e.RepeatDays {
			if d < 0 || d > 6 {
				return "repeat days must be weekday numbers 0 (Sunday) through 6 (Saturday)"
			}
			if seen[d] {
				return "repeat days must not contain duplicates"
			}
			seen[d] = true
		}
	}
	if e.Time != nil && !timeRegex.MatchString(*e.Time) {
		return "time must be HH:MM"
	}
	if e.Latitude < -90 || e.Latitude > 90 {
		return "latitude must be between -90 and 90"
	}
	if e.Longitude < -180 || e.Longitude > 180 {
		return "longitude must be between -180 and 180"
	}
	if e.RegionID != nil {
		if msg := h.checkRegionMembership(c, *e.RegionID, e.Latitude, e.Longitude); msg != "" {
			return msg
		}
	}
	return ""
}

// templateOccursOn reports whether the template generates an occurrence on
// the given date, ignoring any existing overrides.
func templateOccursOn(e *models.Event, date time.Time) bool {
	bare := *e
	bare.Overrides = nil
	for _, inst := range schedule.Expand(&bare, date, date) {
		if schedule.SameDay(inst.Date, date) {
			return true
		}
	}
	return false
}
