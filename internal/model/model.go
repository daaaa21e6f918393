package model

import (
	"fmt"
	"time"
)

// MediaType classifies a library asset. Only the two types the calendar
// cares about exist here; everything else is filtered out at the gateway.
type MediaType string

const (
	MediaTypeVideo     MediaType = "video"
	MediaTypeLivePhoto MediaType = "livePhoto"
)

// MediaItem is the denormalized record of a single library asset.
//
// The core never constructs these from scratch and never mutates them; the
// media library gateway is the only producer. Heavier asset handles
// (thumbnails, playable URLs) are resolved lazily by the presentation layer
// using AssetID.
type MediaItem struct {
	// AssetID is the stable, library-assigned identifier of the asset.
	AssetID string `json:"asset_id"`

	// Date is the capture timestamp.
	Date time.Time `json:"date"`

	Type MediaType `json:"type"`

	// Duration is the playback length in seconds; set only for videos.
	Duration *float64 `json:"duration,omitempty"`
}

// DayKey identifies one calendar day (a timestamp truncated to day
// granularity in the display timezone). It is the grouping key for media
// aggregation and the storage key for per-day preferences.
type DayKey struct {
	Year  int
	Month time.Month
	Day   int
}

// DayKeyOf truncates t to day granularity in loc.
func DayKeyOf(t time.Time, loc *time.Location) DayKey {
	local := t.In(loc)
	return DayKey{Year: local.Year(), Month: local.Month(), Day: local.Day()}
}

// ParseDayKey parses the "2006-01-02" form produced by String.
func ParseDayKey(s string) (DayKey, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return DayKey{}, fmt.Errorf("parse day key %q: %w", s, err)
	}
	return DayKey{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

func (k DayKey) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", k.Year, int(k.Month), k.Day)
}

// Time returns midnight of the day in loc.
func (k DayKey) Time(loc *time.Location) time.Time {
	return time.Date(k.Year, k.Month, k.Day, 0, 0, 0, 0, loc)
}

func (k DayKey) IsZero() bool {
	return k == DayKey{}
}

// MarshalText / UnmarshalText let DayKey act as a JSON string and map key.
func (k DayKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *DayKey) UnmarshalText(b []byte) error {
	parsed, err := ParseDayKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// CalendarDay is one cell of a month grid. Instances are rebuilt whenever a
// grid is built and are never persisted. MediaCount is the only field that
// changes after construction, and only as a result of aggregation.
type CalendarDay struct {
	Key            DayKey    `json:"date"`
	Date           time.Time `json:"-"`
	DayNumber      int       `json:"day_number"`
	InCurrentMonth bool      `json:"in_current_month"`
	MediaCount     int       `json:"media_count"`
}

func (d CalendarDay) HasMedia() bool {
	return d.MediaCount > 0
}

// CalendarMonth is a full day grid for one month, including the leading and
// trailing adjacent-month days needed to complete every week.
type CalendarMonth struct {
	Year  int           `json:"year"`
	Month time.Month    `json:"month"`
	Days  []CalendarDay `json:"days"`
}

// FindDay returns the grid day matching k, if present.
func (m CalendarMonth) FindDay(k DayKey) (CalendarDay, bool) {
	for _, d := range m.Days {
		if d.Key == k {
			return d, true
		}
	}
	return CalendarDay{}, false
}

// Span returns the first and last day shown in the grid. Aggregation covers
// this full span so adjacent-month filler days also get accurate counts.
func (m CalendarMonth) Span() (first, last DayKey) {
	if len(m.Days) == 0 {
		return DayKey{}, DayKey{}
	}
	return m.Days[0].Key, m.Days[len(m.Days)-1].Key
}

// PreferredMedia records the user's chosen asset for one day. At most one
// per day; overwritten on re-selection.
type PreferredMedia struct {
	Day     DayKey `json:"day"`
	AssetID string `json:"asset_id"`
}

// PinnedMedia marks an asset for retention independent of any day.
type PinnedMedia struct {
	AssetID  string    `json:"asset_id"`
	PinnedAt time.Time `json:"pinned_at"`
}

// DayMedia is a MediaItem merged with the user's per-day annotations, as
// handed to the presentation layer.
type DayMedia struct {
	MediaItem
	Preferred bool `json:"preferred"`
	Pinned    bool `json:"pinned"`
}
