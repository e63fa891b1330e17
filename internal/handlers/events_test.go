package handlers

import (
	"testing"
	"time"

	"github.com/nomadland/nomadland/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTemplateOccursOn(t *testing.T) {
	weekly := &models.Event{
		Title:      "Hike",
		StartDate:  date(2026, time.March, 1),
		EndDate:    date(2026, time.March, 31),
		Repeat:     models.RepeatWeekly,
		RepeatDays: []int{1}, // Mondays
	}

	if !templateOccursOn(weekly, date(2026, time.March, 2)) {
		t.Error("March 2 2026 is a Monday inside the range, expected an occurrence")
	}
	if templateOccursOn(weekly, date(2026, time.March, 3)) {
		t.Error("March 3 2026 is a Tuesday, expected no occurrence")
	}
	if templateOccursOn(weekly, date(2026, time.April, 6)) {
		t.Error("April 6 2026 is past the end date, expected no occurrence")
	}
}

func TestTemplateOccursOnIgnoresCancellation(t *testing.T) {
	// A cancelled occurrence is still a valid override target, otherwise it
	// could never be un-cancelled by replacing the override.
	tmpl := &models.Event{
		Title:     "Dinner",
		StartDate: date(2026, time.March, 1),
		EndDate:   date(2026, time.March, 7),
		Repeat:    models.RepeatDaily,
		Overrides: []*models.EventOverride{
			{EventID: 1, Date: date(2026, time.March, 4), Cancelled: true},
		},
	}

	if !templateOccursOn(tmpl, date(2026, time.March, 4)) {
		t.Error("cancelled date should still count as a generated occurrence")
	}
}

func TestTimeRegex(t *testing.T) {
	valid := []string{"00:00", "09:30", "12:05", "23:59"}
	for _, v := range valid {
		if !timeRegex.MatchString(v) {
			t.Errorf("%q should be a valid time", v)
		}
	}

	invalid := []string{"24:00", "9:30", "12:60", "12:5", "noon", "12-30", ""}
	for _, v := range invalid {
		if timeRegex.MatchString(v) {
			t.Errorf("%q should not be a valid time", v)
		}
	}
}
