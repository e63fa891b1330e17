// Package schedule turns stored event templates into the concrete calendar
// occurrences that fall inside a queried date window. All arithmetic is at
// calendar-day granularity: dates are normalized to midnight UTC and the
// optional "HH:MM" time string is carried only for ordering and display.
package schedule

import (
	"sort"
	"time"

	"github.com/nomadland/nomadland/internal/models"
)

// Day truncates t to midnight UTC, discarding the wall-clock portion.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

// Expand enumerates the occurrences of tmpl inside [from, to] (inclusive,
// calendar days), applies the template's per-date overrides, and returns the
// result sorted ascending by date, ties broken by time string (a missing
// time sorts before any timed entry).
//
// Degenerate inputs yield an empty list rather than an error: a window that
// misses the template entirely, an inverted window, or a weekly rule with no
// repeat days all expand to nothing. Validating those combinations is the
// creation workflow's job, not the expander's.
//
// Expand never mutates tmpl and holds no state between calls; identical
// inputs always produce identical output.
func Expand(tmpl *models.Event, from, to time.Time) []*models.EventInstance {
	start := Day(from)
	end := Day(to)
	if ts := Day(tmpl.StartDate); ts.After(start) {
		start = ts
	}
	if te := Day(tmpl.EndDate); te.Before(end) {
		end = te
	}
	if start.After(end) {
		return nil
	}

	var instances []*models.EventInstance

	switch tmpl.Repeat {
	case models.RepeatDaily:
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			instances = append(instances, newInstance(tmpl, d))
		}

	case models.RepeatWeekly:
		wanted := make(map[time.Weekday]bool, len(tmpl.RepeatDays))
		for _, wd := range tmpl.RepeatDays {
			if wd >= 0 && wd <= 6 {
				wanted[time.Weekday(wd)] = true
			}
		}
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if wanted[d.Weekday()] {
				instances = append(instances, newInstance(tmpl, d))
			}
		}

	case models.RepeatMonthly:
		instances = expandMonthly(tmpl, start, end)

	default: // none
		ts, te := Day(tmpl.StartDate), Day(tmpl.EndDate)
		if !ts.Equal(te) {
			// Multi-day event: one all-day occurrence per spanned day.
			for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
				inst := newInstance(tmpl, d)
				inst.AllDay = true
				instances = append(instances, inst)
			}
		} else if !ts.Before(start) && !ts.After(end) {
			instances = append(instances, newInstance(tmpl, ts))
		}
	}

	instances = applyOverrides(tmpl, instances)
	sortInstances(instances)
	return instances
}

// expandMonthly emits one occurrence per month on the template's anchor
// day-of-month, clamped to the last day of shorter months. The anchor is
// re-applied from the template each month, so a template anchored on the
// 31st emits Jan 31, Feb 28 (29 in leap years), Mar 31.
func expandMonthly(tmpl *models.Event, start, end time.Time) []*models.EventInstance {
	anchor := Day(tmpl.StartDate).Day()

	var instances []*models.EventInstance
	year, month := start.Year(), start.Month()
	for {
		d := dateClamped(year, month, anchor)
		if d.After(end) {
			break
		}
		if !d.Before(start) {
			instances = append(instances, newInstance(tmpl, d))
		}
		// Advance to the 1st of the next month, then re-apply the anchor.
		next := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
		year, month = next.Year(), next.Month()
	}
	return instances
}

// dateClamped builds the UTC date year/month/day, pulling day back to the
// month's last day when the month is too short for it.
func dateClamped(year int, month time.Month, day int) time.Time {
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year int, month time.Month) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// newInstance snapshots every descriptive field of the template onto a fresh
// occurrence dated d. Overrides patch the copy afterwards; the template is
// never touched.
func newInstance(tmpl *models.Event, d time.Time) *models.EventInstance {
	return &models.EventInstance{
		TemplateID:  tmpl.ID,
		Date:        d,
		Title:       tmpl.Title,
		Description: tmpl.Description,
		ImageURL:    tmpl.ImageURL,
		Cost:        tmpl.Cost,
		Language:    tmpl.Language,
		RegionID:    tmpl.RegionID,
		CreatedBy:   tmpl.CreatedBy,
		Status:      tmpl.Status,
		Time:        tmpl.Time,
		AllDay:      tmpl.AllDay,
		Latitude:    tmpl.Latitude,
		Longitude:   tmpl.Longitude,
		RSVPCount:   tmpl.RSVPCount,
	}
}

// applyOverrides walks the template's overrides and patches or removes the
// occurrence whose date matches (calendar-day equality). Overrides dated
// outside the generated set are silently ignored.
func applyOverrides(tmpl *models.Event, instances []*models.EventInstance) []*models.EventInstance {
	for _, ov := range tmpl.Overrides {
		idx := -1
		for i, inst := range instances {
			if SameDay(inst.Date, ov.Date) {
				idx = i
				break
			}
		}
		if idx == -1 {
			continue
		}

		if ov.Cancelled {
			instances = append(instances[:idx], instances[idx+1:]...)
			continue
		}

		inst := instances[idx]
		if ov.Title != nil {
			inst.Title = *ov.Title
		}
		if ov.Description != nil {
			inst.Description = ov.Description
		}
		if ov.Cost != nil {
			inst.Cost = ov.Cost
		}
		if ov.Time != nil {
			inst.Time = ov.Time
		}
		if ov.Latitude != nil {
			inst.Latitude = *ov.Latitude
		}
		if ov.Longitude != nil {
			inst.Longitude = *ov.Longitude
		}
	}
	return instances
}

// SortInstances orders instances ascending by date, ties broken by time
// string; an absent time sorts as the empty string, before any timed entry.
// Callers merging instances from several templates re-apply this after
// concatenating.
func SortInstances(instances []*models.EventInstance) {
	sortInstances(instances)
}

func sortInstances(instances []*models.EventInstance) {
	sort.SliceStable(instances, func(i, j int) bool {
		if !instances[i].Date.Equal(instances[j].Date) {
			return instances[i].Date.Before(instances[j].Date)
		}
		return timeKey(instances[i]) < timeKey(instances[j])
	})
}

func timeKey(inst *models.EventInstance) string {
	if inst.Time == nil {
		return ""
	}
	return *inst.Time
}
