// Package mediaindex groups media library records by calendar day.
package mediaindex

import (
	"time"

	"mediacal/internal/model"
)

// Index holds one aggregation window's worth of media items grouped by day.
//
// Grouping truncates each item's timestamp to day granularity in the same
// location the grid builder uses; mixing locations here would shift items
// across midnight relative to the grid.
//
// Index is not safe for concurrent use; the view model serializes access.
type Index struct {
	loc   *time.Location
	byDay map[model.DayKey][]model.MediaItem
}

// New returns an empty index grouping in loc.
func New(loc *time.Location) *Index {
	if loc == nil {
		loc = time.Local
	}
	return &Index{
		loc:   loc,
		byDay: make(map[model.DayKey][]model.MediaItem),
	}
}

// Rebuild replaces the index contents with items. Per-day order is arrival
// order from the gateway; no further sort contract is offered.
func (x *Index) Rebuild(items []model.MediaItem) {
	x.byDay = make(map[model.DayKey][]model.MediaItem, len(items))
	for _, item := range items {
		key := model.DayKeyOf(item.Date, x.loc)
		x.byDay[key] = append(x.byDay[key], item)
	}
}

// CountFor returns the number of items grouped to day.
func (x *Index) CountFor(day model.DayKey) int {
	return len(x.byDay[day])
}

// ItemsFor returns the items grouped to day in arrival order. The returned
// slice is a copy; callers may not mutate index state through it.
func (x *Index) ItemsFor(day model.DayKey) []model.MediaItem {
	items := x.byDay[day]
	if len(items) == 0 {
		return nil
	}
	out := make([]model.MediaItem, len(items))
	copy(out, items)
	return out
}
