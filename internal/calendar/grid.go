// Package calendar builds month day grids. Grid construction is pure date
// arithmetic: no I/O, no clock access, deterministic for a given
// (year, month, week start, location).
package calendar

import (
	"fmt"
	"time"

	"mediacal/internal/model"
)

// WeekStart selects which weekday opens each grid row.
type WeekStart string

const (
	WeekStartMonday WeekStart = "monday"
	WeekStartSunday WeekStart = "sunday"
)

// ParseWeekStart maps a config string to a WeekStart, defaulting to monday.
func ParseWeekStart(s string) WeekStart {
	if s == string(WeekStartSunday) {
		return WeekStartSunday
	}
	return WeekStartMonday
}

func (w WeekStart) weekday() time.Weekday {
	if w == WeekStartSunday {
		return time.Sunday
	}
	return time.Monday
}

// Builder produces month grids for one week-start convention and one
// display timezone.
type Builder struct {
	weekStart WeekStart
	loc       *time.Location
}

// NewBuilder constructs a Builder. loc defines day boundaries and must be
// the same location the media index groups with.
func NewBuilder(weekStart WeekStart, loc *time.Location) *Builder {
	if loc == nil {
		loc = time.Local
	}
	return &Builder{weekStart: weekStart, loc: loc}
}

// Location returns the display timezone the builder lays days out in.
func (b *Builder) Location() *time.Location {
	return b.loc
}

// WeekStart returns the configured week-start convention.
func (b *Builder) WeekStart() WeekStart {
	return b.weekStart
}

// Build produces the day grid for (year, month).
//
// The grid always covers complete weeks: leading days from the previous
// month and trailing days from the next month pad the in-month block so
// len(Days) is a multiple of 7. The in-month days form one contiguous run
// ordered 1..N, with N following the proleptic Gregorian rules (leap years
// handled by time.Date normalization).
//
// month outside 1..12 is a contract violation and panics.
func (b *Builder) Build(year int, month time.Month) model.CalendarMonth {
	if month < time.January || month > time.December {
		panic(fmt.Sprintf("calendar: invalid month %d", month))
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, b.loc)
	// Weekday offset from the configured week start to the month's first day.
	lead := (int(first.Weekday()) - int(b.weekStart.weekday()) + 7) % 7
	// Day 0 of the next month normalizes to the last day of this month.
	daysInMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, b.loc).Day()

	total := lead + daysInMonth
	if rem := total % 7; rem != 0 {
		total += 7 - rem
	}

	days := make([]model.CalendarDay, 0, total)
	for i := 0; i < total; i++ {
		// Relying on time.Date normalization keeps leading/trailing days
		// correct across month and year boundaries.
		date := time.Date(year, month, 1-lead+i, 0, 0, 0, 0, b.loc)
		days = append(days, model.CalendarDay{
			Key:            model.DayKeyOf(date, b.loc),
			Date:           date,
			DayNumber:      date.Day(),
			InCurrentMonth: date.Month() == month && date.Year() == year,
		})
	}

	return model.CalendarMonth{Year: year, Month: month, Days: days}
}

// WeekdaySymbols returns the seven weekday labels rotated so the configured
// week start comes first.
func (b *Builder) WeekdaySymbols() []string {
	base := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	start := int(b.weekStart.weekday())
	out := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		out = append(out, base[(start+i)%7])
	}
	return out
}

// NextMonth and PreviousMonth step a (year, month) pair, rolling the year
// at the December/January boundary.
func NextMonth(year int, month time.Month) (int, time.Month) {
	t := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}

func PreviousMonth(year int, month time.Month) (int, time.Month) {
	t := time.Date(year, month-1, 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}
