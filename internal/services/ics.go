package services

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/nomadland/nomadland/internal/models"
	"github.com/nomadland/nomadland/internal/schedule"
)

var rruleWeekdays = []rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

// BuildRegionFeed renders a region's events inside [from, to] as an ICS
// calendar. Clean daily/weekly templates without overrides become a single
// VEVENT with an RRULE; everything else (monthly clamping, overridden or
// multi-day templates) is flattened into one VEVENT per occurrence so the
// subscriber sees exactly what the API returns.
func BuildRegionFeed(region *models.Region, events []*models.Event, from, to time.Time) (string, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//NomadLand//Events//EN")
	cal.SetXWRCalName(fmt.Sprintf("NomadLand – %s", region.Name))

	for _, e := range events {
		if canUseRRule(e) {
			if err := addRecurringEvent(cal, e); err != nil {
				return "", err
			}
			continue
		}

		for _, inst := range schedule.Expand(e, from, to) {
			addInstanceEvent(cal, inst)
		}
	}

	return cal.Serialize(), nil
}

// canUseRRule reports whether the template round-trips into a plain RRULE:
// daily or weekly repeats with no per-date overrides.
func canUseRRule(e *models.Event) bool {
	if len(e.Overrides) > 0 {
		return false
	}
	switch e.Repeat {
	case models.RepeatDaily:
		return true
	case models.RepeatWeekly:
		return len(e.RepeatDays) > 0
	}
	return false
}

// addRecurringEvent emits one VEVENT with an RRULE covering the template's
// whole recurrence window.
func addRecurringEvent(cal *ics.Calendar, e *models.Event) error {
	opt := rrule.ROption{
		Dtstart: eventStart(e, schedule.Day(e.StartDate)),
		Until:   schedule.Day(e.EndDate).Add(24*time.Hour - time.Second),
	}
	switch e.Repeat {
	case models.RepeatDaily:
		opt.Freq = rrule.DAILY
	case models.RepeatWeekly:
		opt.Freq = rrule.WEEKLY
		for _, wd := range e.RepeatDays {
			if wd >= 0 && wd <= 6 {
				opt.Byweekday = append(opt.Byweekday, rruleWeekdays[wd])
			}
		}
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return fmt.Errorf("failed to build RRULE for event %d: %w", e.ID, err)
	}

	ev := cal.AddEvent(fmt.Sprintf("event-%d@nomadland", e.ID))
	ev.SetSummary(e.Title)
	if e.Description != nil {
		ev.SetDescription(*e.Description)
	}
	ev.SetGeo(e.Latitude, e.Longitude)
	if e.AllDay {
		ev.SetAllDayStartAt(schedule.Day(e.StartDate))
	} else {
		ev.SetStartAt(eventStart(e, schedule.Day(e.StartDate)))
	}
	ev.AddRrule(rule.String())
	return nil
}

// addInstanceEvent emits one VEVENT for a single expanded occurrence
func addInstanceEvent(cal *ics.Calendar, inst *models.EventInstance) {
	uid := fmt.Sprintf("event-%d-%s@nomadland", inst.TemplateID, inst.Date.Format("20060102"))
	ev := cal.AddEvent(uid)
	ev.SetSummary(inst.Title)
	if inst.Description != nil {
		ev.SetDescription(*inst.Description)
	}
	ev.SetGeo(inst.Latitude, inst.Longitude)
	if inst.AllDay || inst.Time == nil {
		ev.SetAllDayStartAt(inst.Date)
	} else {
		ev.SetStartAt(instanceStart(inst))
	}
}

// eventStart combines a calendar day with the template's wall-clock time
func eventStart(e *models.Event, day time.Time) time.Time {
	return combineTime(day, e.Time)
}

func instanceStart(inst *models.EventInstance) time.Time {
	return combineTime(inst.Date, inst.Time)
}

// combineTime applies an optional "HH:MM" string to a midnight-UTC day
func combineTime(day time.Time, clock *string) time.Time {
	if clock == nil {
		return day
	}
	t, err := time.Parse("15:04", *clock)
	if err != nil {
		return day
	}
	return day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
}
