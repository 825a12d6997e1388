package models

import (
	"sort"
	"time"
)

// DateLayout is the calendar date format activities are stored with.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatDateForDisplay renders a stored date like "Mon, Jan 1, 2024". Dates
// that don't parse are returned unchanged.
func FormatDateForDisplay(s string) string {
	d, err := ParseDate(s)
	if err != nil {
		return s
	}
	return d.Format("Mon, Jan 2, 2006")
}

// IsDateInPast reports whether the calendar date lies before today's date in
// now's location.
func IsDateInPast(s string, now time.Time) bool {
	d, err := time.ParseInLocation(DateLayout, s, now.Location())
	if err != nil {
		return false
	}
	y, m, day := now.Date()
	today := time.Date(y, m, day, 0, 0, 0, 0, now.Location())
	return d.Before(today)
}

// SortActivitiesByDateDesc orders activities newest date first. The sort is
// stable so activities on the same date keep their relative order.
func SortActivitiesByDateDesc(activities []Activity) {
	sort.SliceStable(activities, func(i, j int) bool {
		return compareDates(activities[i].Date, activities[j].Date) > 0
	})
}

func compareDates(a, b string) int {
	ta, errA := ParseDate(a)
	tb, errB := ParseDate(b)
	switch {
	case errA == nil && errB == nil:
		return ta.Compare(tb)
	case errA == nil:
		return 1
	case errB == nil:
		return -1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// GroupActivitiesByDate buckets activities by their date, preserving order
// within each bucket.
func GroupActivitiesByDate(activities []Activity) map[string][]Activity {
	groups := make(map[string][]Activity)
	for _, a := range activities {
		groups[a.Date] = append(groups[a.Date], a)
	}
	return groups
}

// FilterActivitiesOnDate keeps the activities scheduled on date.
func FilterActivitiesOnDate(activities []Activity, date string) []Activity {
	out := []Activity{}
	for _, a := range activities {
		if a.Date == date {
			out = append(out, a)
		}
	}
	return out
}
