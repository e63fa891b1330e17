package schedule

import (
	"reflect"
	"testing"
	"time"

	"github.com/nomadland/nomadland/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strptr(s string) *string { return &s }

func template(repeat models.RepeatRule, start, end time.Time) *models.Event {
	return &models.Event{
		ID:        42,
		Title:     "Beach cleanup",
		Language:  "en",
		Status:    models.EventStatusActive,
		StartDate: start,
		EndDate:   end,
		Repeat:    repeat,
		Latitude:  32.08,
		Longitude: 34.78,
	}
}

func dates(instances []*models.EventInstance) []time.Time {
	out := make([]time.Time, len(instances))
	for i, inst := range instances {
		out[i] = inst.Date
	}
	return out
}

func TestExpandSingleDayInRange(t *testing.T) {
	tmpl := template(models.RepeatNone, date(2025, 3, 10), date(2025, 3, 10))

	got := Expand(tmpl, date(2025, 3, 1), date(2025, 3, 31))
	if len(got) != 1 {
		t.Fatalf("expected 1 instance, got %d", len(got))
	}
	if !got[0].Date.Equal(date(2025, 3, 10)) {
		t.Errorf("instance date = %v, want 2025-03-10", got[0].Date)
	}
	if got[0].TemplateID != 42 || got[0].Title != "Beach cleanup" {
		t.Errorf("instance did not carry template fields: %+v", got[0])
	}
}

func TestExpandSingleDayOutOfRange(t *testing.T) {
	tmpl := template(models.RepeatNone, date(2025, 3, 10), date(2025, 3, 10))

	if got := Expand(tmpl, date(2025, 4, 1), date(2025, 4, 30)); len(got) != 0 {
		t.Errorf("expected no instances, got %d", len(got))
	}
}

func TestExpandMultiDayEventIsAllDayPerDay(t *testing.T) {
	// A 3-day festival: one all-day occurrence per spanned day, even though
	// the template itself is not flagged all-day.
	tmpl := template(models.RepeatNone, date(2025, 3, 10), date(2025, 3, 12))
	tmpl.AllDay = false
	tmpl.Time = strptr("10:00")

	got := Expand(tmpl, date(2025, 3, 1), date(2025, 3, 31))
	if len(got) != 3 {
		t.Fatalf("expected 3 instances, got %d", len(got))
	}
	for i, inst := range got {
		if !inst.Date.Equal(date(2025, 3, 10+i)) {
			t.Errorf("instance %d date = %v", i, inst.Date)
		}
		if !inst.AllDay {
			t.Errorf("instance %d should be flagged all-day", i)
		}
	}
}

func TestExpandMultiDayClippedByWindow(t *testing.T) {
	tmpl := template(models.RepeatNone, date(2025, 3, 10), date(2025, 3, 20))

	got := Expand(tmpl, date(2025, 3, 15), date(2025, 3, 17))
	want := []time.Time{date(2025, 3, 15), date(2025, 3, 16), date(2025, 3, 17)}
	if !reflect.DeepEqual(dates(got), want) {
		t.Errorf("dates = %v, want %v", dates(got), want)
	}
}

func TestExpandDaily(t *testing.T) {
	tmpl := template(models.RepeatDaily, date(2025, 3, 1), date(2025, 3, 5))

	got := Expand(tmpl, date(2025, 2, 1), date(2025, 4, 1))
	if len(got) != 5 {
		t.Fatalf("expected 5 instances, got %d", len(got))
	}
	for i, inst := range got {
		if !inst.Date.Equal(date(2025, 3, 1+i)) {
			t.Errorf("instance %d date = %v", i, inst.Date)
		}
	}
}

func TestExpandWeekly(t *testing.T) {
	// Mondays and Thursdays of March 2025.
	tmpl := template(models.RepeatWeekly, date(2025, 3, 1), date(2025, 3, 31))
	tmpl.RepeatDays = []int{1, 4}

	got := Expand(tmpl, date(2025, 3, 1), date(2025, 3, 31))

	want := []time.Time{
		date(2025, 3, 3), date(2025, 3, 6),
		date(2025, 3, 10), date(2025, 3, 13),
		date(2025, 3, 17), date(2025, 3, 20),
		date(2025, 3, 24), date(2025, 3, 27),
		date(2025, 3, 31),
	}
	if !reflect.DeepEqual(dates(got), want) {
		t.Errorf("dates = %v, want %v", dates(got), want)
	}
	for _, inst := range got {
		wd := int(inst.Date.Weekday())
		if wd != 1 && wd != 4 {
			t.Errorf("unexpected weekday %d on %v", wd, inst.Date)
		}
	}
}

func TestExpandWeeklyEmptyRepeatDays(t *testing.T) {
	tmpl := template(models.RepeatWeekly, date(2025, 3, 1), date(2025, 3, 31))

	if got := Expand(tmpl, date(2025, 3, 1), date(2025, 3, 31)); len(got) != 0 {
		t.Errorf("weekly rule with no repeat days should expand to nothing, got %d", len(got))
	}
}

func TestExpandMonthlyClampsShortMonths(t *testing.T) {
	// Anchored on the 31st: February clamps to its last day, later months
	// return to the 31st.
	tmpl := template(models.RepeatMonthly, date(2025, 1, 31), date(2025, 12, 31))

	got := Expand(tmpl, date(2025, 1, 1), date(2025, 4, 30))
	want := []time.Time{
		date(2025, 1, 31), date(2025, 2, 28), date(2025, 3, 31), date(2025, 4, 30),
	}
	if !reflect.DeepEqual(dates(got), want) {
		t.Errorf("dates = %v, want %v", dates(got), want)
	}
}

func TestExpandMonthlyLeapFebruary(t *testing.T) {
	tmpl := template(models.RepeatMonthly, date(2024, 1, 31), date(2024, 3, 31))

	got := Expand(tmpl, date(2024, 2, 1), date(2024, 2, 29))
	want := []time.Time{date(2024, 2, 29)}
	if !reflect.DeepEqual(dates(got), want) {
		t.Errorf("dates = %v, want %v", dates(got), want)
	}
}

func TestExpandMonthlyMidMonthAnchor(t *testing.T) {
	// Window opens after the anchor day: the first month contributes nothing.
	tmpl := template(models.RepeatMonthly, date(2025, 1, 10), date(2025, 6, 30))

	got := Expand(tmpl, date(2025, 3, 15), date(2025, 5, 31))
	want := []time.Time{date(2025, 4, 10), date(2025, 5, 10)}
	if !reflect.DeepEqual(dates(got), want) {
		t.Errorf("dates = %v, want %v", dates(got), want)
	}
}

func TestExpandCancellationOverride(t *testing.T) {
	tmpl := template(models.RepeatDaily, date(2025, 3, 1), date(2025, 3, 5))
	tmpl.Overrides = []*models.EventOverride{
		{EventID: 42, Date: date(2025, 3, 3), Cancelled: true},
	}

	got := Expand(tmpl, date(2025, 3, 1), date(2025, 3, 31))
	want := []time.Time{
		date(2025, 3, 1), date(2025, 3, 2), date(2025, 3, 4), date(2025, 3, 5),
	}
	if !reflect.DeepEqual(dates(got), want) {
		t.Errorf("dates = %v, want %v", dates(got), want)
	}
}

func TestExpandFieldOverride(t *testing.T) {
	tmpl := template(models.RepeatDaily, date(2025, 3, 1), date(2025, 3, 5))
	tmpl.Time = strptr("09:00")
	tmpl.Overrides = []*models.EventOverride{
		{EventID: 42, Date: date(2025, 3, 3), Time: strptr("18:00")},
	}

	got := Expand(tmpl, date(2025, 3, 1), date(2025, 3, 31))
	if len(got) != 5 {
		t.Fatalf("expected 5 instances, got %d", len(got))
	}
	for _, inst := range got {
		want := "09:00"
		if inst.Date.Equal(date(2025, 3, 3)) {
			want = "18:00"
		}
		if inst.Time == nil || *inst.Time != want {
			t.Errorf("instance %v time = %v, want %q", inst.Date, inst.Time, want)
		}
		if inst.Title != "Beach cleanup" {
			t.Errorf("instance %v title changed unexpectedly", inst.Date)
		}
	}
	if tmpl.Time == nil || *tmpl.Time != "09:00" {
		t.Error("template was mutated by expansion")
	}
}

func TestExpandOverrideOutsideWindowIgnored(t *testing.T) {
	tmpl := template(models.RepeatDaily, date(2025, 3, 1), date(2025, 3, 5))
	tmpl.Overrides = []*models.EventOverride{
		{EventID: 42, Date: date(2025, 7, 1), Title: strptr("never seen")},
	}

	got := Expand(tmpl, date(2025, 3, 1), date(2025, 3, 31))
	if len(got) != 5 {
		t.Fatalf("expected 5 instances, got %d", len(got))
	}
	for _, inst := range got {
		if inst.Title != "Beach cleanup" {
			t.Errorf("override outside the generated set leaked into %v", inst.Date)
		}
	}
}

func TestExpandLocationOverride(t *testing.T) {
	lat, lng := 32.70, 35.30
	tmpl := template(models.RepeatDaily, date(2025, 3, 1), date(2025, 3, 2))
	tmpl.Overrides = []*models.EventOverride{
		{EventID: 42, Date: date(2025, 3, 2), Latitude: &lat, Longitude: &lng},
	}

	got := Expand(tmpl, date(2025, 3, 1), date(2025, 3, 31))
	if len(got) != 2 {
		t.Fatalf("expected 2 instances, got %d", len(got))
	}
	if got[0].Latitude != 32.08 || got[0].Longitude != 34.78 {
		t.Errorf("first instance location changed: %v,%v", got[0].Latitude, got[0].Longitude)
	}
	if got[1].Latitude != 32.70 || got[1].Longitude != 35.30 {
		t.Errorf("second instance location not overridden: %v,%v", got[1].Latitude, got[1].Longitude)
	}
}

func TestExpandInvertedWindow(t *testing.T) {
	tmpl := template(models.RepeatDaily, date(2025, 3, 1), date(2025, 3, 31))

	if got := Expand(tmpl, date(2025, 3, 20), date(2025, 3, 10)); len(got) != 0 {
		t.Errorf("inverted window should expand to nothing, got %d", len(got))
	}
}

func TestExpandIdempotent(t *testing.T) {
	tmpl := template(models.RepeatWeekly, date(2025, 3, 1), date(2025, 3, 31))
	tmpl.RepeatDays = []int{0, 2, 5}
	tmpl.Time = strptr("14:30")
	tmpl.Overrides = []*models.EventOverride{
		{EventID: 42, Date: date(2025, 3, 5), Cancelled: true},
		{EventID: 42, Date: date(2025, 3, 8), Cost: strptr("free")},
	}

	first := Expand(tmpl, date(2025, 3, 1), date(2025, 3, 31))
	second := Expand(tmpl, date(2025, 3, 1), date(2025, 3, 31))
	if !reflect.DeepEqual(first, second) {
		t.Error("two expansions of identical inputs differ")
	}
}

func TestSortInstancesMissingTimeFirst(t *testing.T) {
	sameDay := date(2025, 3, 10)
	instances := []*models.EventInstance{
		{TemplateID: 1, Date: sameDay, Time: strptr("14:30")},
		{TemplateID: 2, Date: date(2025, 3, 9)},
		{TemplateID: 3, Date: sameDay}, // no time, sorts before timed entries
		{TemplateID: 4, Date: sameDay, Time: strptr("09:00")},
	}

	SortInstances(instances)

	order := make([]int, len(instances))
	for i, inst := range instances {
		order[i] = inst.TemplateID
	}
	want := []int{2, 3, 4, 1}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("sort order = %v, want %v", order, want)
	}
}
