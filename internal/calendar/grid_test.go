package calendar

import (
	"testing"
	"time"
)

func TestBuildProducesCompleteWeeks(t *testing.T) {
	t.Parallel()

	b := NewBuilder(WeekStartMonday, time.UTC)
	for year := 1999; year <= 2031; year++ {
		for month := time.January; month <= time.December; month++ {
			grid := b.Build(year, month)
			if len(grid.Days)%7 != 0 {
				t.Fatalf("%04d-%02d: len(days) = %d, want multiple of 7", year, month, len(grid.Days))
			}
			if len(grid.Days) < 28 || len(grid.Days) > 42 {
				t.Fatalf("%04d-%02d: len(days) = %d, want 28..42", year, month, len(grid.Days))
			}
		}
	}
}

func TestBuildInMonthBlockContiguousAndOrdered(t *testing.T) {
	t.Parallel()

	b := NewBuilder(WeekStartMonday, time.UTC)
	for year := 2020; year <= 2026; year++ {
		for month := time.January; month <= time.December; month++ {
			grid := b.Build(year, month)
			want := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()

			first, last := -1, -1
			for i, d := range grid.Days {
				if !d.InCurrentMonth {
					continue
				}
				if first == -1 {
					first = i
				} else if i != last+1 {
					t.Fatalf("%04d-%02d: in-month block not contiguous at index %d", year, month, i)
				}
				last = i
			}
			got := last - first + 1
			if got != want {
				t.Fatalf("%04d-%02d: in-month block length = %d, want %d", year, month, got, want)
			}
			for n := 0; n < got; n++ {
				if grid.Days[first+n].DayNumber != n+1 {
					t.Fatalf("%04d-%02d: day %d has number %d, want %d",
						year, month, first+n, grid.Days[first+n].DayNumber, n+1)
				}
			}
		}
	}
}

func TestBuildLeapFebruary(t *testing.T) {
	t.Parallel()

	b := NewBuilder(WeekStartMonday, time.UTC)

	cases := []struct {
		year int
		want int
	}{
		{2024, 29},
		{2023, 28},
		{2000, 29}, // divisible by 400
		{1900, 28}, // divisible by 100 but not 400
	}
	for _, tc := range cases {
		grid := b.Build(tc.year, time.February)
		got := 0
		for _, d := range grid.Days {
			if d.InCurrentMonth {
				got++
			}
		}
		if got != tc.want {
			t.Fatalf("february %d: in-month days = %d, want %d", tc.year, got, tc.want)
		}
	}
}

func TestBuildWeekStartConventions(t *testing.T) {
	t.Parallel()

	// June 2025 starts on a Sunday.
	monday := NewBuilder(WeekStartMonday, time.UTC).Build(2025, time.June)
	if monday.Days[0].Key.String() != "2025-05-26" {
		t.Fatalf("monday grid starts at %s, want 2025-05-26", monday.Days[0].Key)
	}

	sunday := NewBuilder(WeekStartSunday, time.UTC).Build(2025, time.June)
	if sunday.Days[0].Key.String() != "2025-06-01" {
		t.Fatalf("sunday grid starts at %s, want 2025-06-01", sunday.Days[0].Key)
	}
}

func TestBuildDeterministic(t *testing.T) {
	t.Parallel()

	b := NewBuilder(WeekStartMonday, time.UTC)
	a := b.Build(2024, time.February)
	c := b.Build(2024, time.February)
	if len(a.Days) != len(c.Days) {
		t.Fatalf("grid lengths differ: %d vs %d", len(a.Days), len(c.Days))
	}
	for i := range a.Days {
		if a.Days[i].Key != c.Days[i].Key {
			t.Fatalf("day %d differs: %s vs %s", i, a.Days[i].Key, c.Days[i].Key)
		}
	}
}

func TestBuildPanicsOnInvalidMonth(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for month 13")
		}
	}()
	NewBuilder(WeekStartMonday, time.UTC).Build(2024, time.Month(13))
}

func TestWeekdaySymbols(t *testing.T) {
	t.Parallel()

	got := NewBuilder(WeekStartMonday, time.UTC).WeekdaySymbols()
	want := []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("monday symbols[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	got = NewBuilder(WeekStartSunday, time.UTC).WeekdaySymbols()
	if got[0] != "Sun" || got[6] != "Sat" {
		t.Fatalf("sunday symbols = %v, want Sun..Sat", got)
	}
}

func TestNextPreviousMonthYearRollover(t *testing.T) {
	t.Parallel()

	year, month := NextMonth(2024, time.December)
	if year != 2025 || month != time.January {
		t.Fatalf("next of 2024-12 = %d-%d, want 2025-1", year, month)
	}

	year, month = PreviousMonth(2025, time.January)
	if year != 2024 || month != time.December {
		t.Fatalf("previous of 2025-01 = %d-%d, want 2024-12", year, month)
	}

	year, month = NextMonth(2024, time.May)
	if year != 2024 || month != time.June {
		t.Fatalf("next of 2024-05 = %d-%d, want 2024-6", year, month)
	}
}
