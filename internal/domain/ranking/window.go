package ranking

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Window kinds.
const (
	KindOverall  = "overall"
	KindWeek     = "week"
	KindMonth    = "month"
	KindCategory = "category"
)

var (
	// ErrInvalidWeek is returned for week keys not of the form 2026-W35.
	ErrInvalidWeek = errors.New("invalid week, want YYYY-Www")
	// ErrInvalidMonth is returned for month keys not of the form 2026-08.
	ErrInvalidMonth = errors.New("invalid month, want YYYY-MM")
)

var weekPattern = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)

// Window identifies the slice of ratings a leaderboard covers:
// all time, one ISO week, one calendar month, or one category.
type Window struct {
	Kind string // Kind is one of overall, week, month, category
	Key  string // Key is the week/month/category identifier, empty for overall
}

// Overall returns the all-time window.
func Overall() Window {
	return Window{Kind: KindOverall}
}

// WeekOf returns the window for the ISO week containing t.
func WeekOf(t time.Time) Window {
	year, week := t.UTC().ISOWeek()
	return Window{Kind: KindWeek, Key: fmt.Sprintf("%04d-W%02d", year, week)}
}

// MonthOf returns the window for the calendar month containing t.
func MonthOf(t time.Time) Window {
	return Window{Kind: KindMonth, Key: t.UTC().Format("2006-01")}
}

// Category returns the window for a single rating category.
func Category(category string) Window {
	return Window{Kind: KindCategory, Key: category}
}

// ParseWeek parses a week key like "2026-W35" into a week window.
func ParseWeek(s string) (Window, error) {
	m := weekPattern.FindStringSubmatch(s)
	if m == nil {
		return Window{}, ErrInvalidWeek
	}

	year, _ := strconv.Atoi(m[1])
	week, _ := strconv.Atoi(m[2])

	if week < 1 || week > isoWeeksInYear(year) {
		return Window{}, ErrInvalidWeek
	}

	return Window{Kind: KindWeek, Key: fmt.Sprintf("%04d-W%02d", year, week)}, nil
}

// ParseMonth parses a month key like "2026-08" into a month window.
func ParseMonth(s string) (Window, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Window{}, ErrInvalidMonth
	}
	return MonthOf(t), nil
}

// String renders the window as a cache key suffix, e.g. "overall",
// "week:2026-W35", "month:2026-08", "category:billing".
func (w Window) String() string {
	if w.Kind == KindOverall {
		return KindOverall
	}
	return w.Kind + ":" + w.Key
}

// Bounds returns the UTC half-open time interval [from, to) the window
// covers. ok is false for windows without a time bound (overall, category).
func (w Window) Bounds() (from, to time.Time, ok bool) {
	switch w.Kind {
	case KindWeek:
		m := weekPattern.FindStringSubmatch(w.Key)
		if m == nil {
			return time.Time{}, time.Time{}, false
		}
		year, _ := strconv.Atoi(m[1])
		week, _ := strconv.Atoi(m[2])
		from = isoWeekStart(year, week)
		return from, from.AddDate(0, 0, 7), true
	case KindMonth:
		t, err := time.Parse("2006-01", w.Key)
		if err != nil {
			return time.Time{}, time.Time{}, false
		}
		from = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 1, 0), true
	default:
		return time.Time{}, time.Time{}, false
	}
}

// isoWeekStart returns the Monday starting the given ISO week, in UTC.
func isoWeekStart(year, week int) time.Time {
	// January 4th is always inside ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	week1Monday := jan4.AddDate(0, 0, -(weekday - 1))
	return week1Monday.AddDate(0, 0, (week-1)*7)
}

// isoWeeksInYear returns 52 or 53 depending on the year.
func isoWeeksInYear(year int) int {
	// December 28th is always inside the last ISO week of its year.
	_, week := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return week
}
