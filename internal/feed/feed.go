// Package feed renders a month's media summary as an iCalendar feed, so
// external calendar clients can subscribe to "what was captured when".
package feed

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"mediacal/internal/model"
)

// ItemsFunc resolves the media recorded for one day. The view model's
// MediaItems (with a day key adapter) or a raw index lookup both fit.
type ItemsFunc func(day model.DayKey) []model.MediaItem

// Calendar builds an ICS calendar with one all-day event per in-month day
// that has media. Filler days from adjacent months are skipped; they appear
// in their own month's feed.
func Calendar(month model.CalendarMonth, loc *time.Location, itemsFor ItemsFunc) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//mediacal//media calendar//EN")

	now := time.Now()

	for _, day := range month.Days {
		if !day.InCurrentMonth {
			continue
		}
		items := itemsFor(day.Key)
		if len(items) == 0 {
			continue
		}

		event := cal.AddEvent(fmt.Sprintf("%s-media@mediacal", day.Key))
		event.SetDtStampTime(now)
		event.SetAllDayStartAt(day.Key.Time(loc))
		event.SetAllDayEndAt(day.Key.Time(loc).AddDate(0, 0, 1))
		event.SetSummary(Summary(items))
	}

	return cal
}

// Summary describes a day's media as e.g. "3 videos, 1 live photo".
func Summary(items []model.MediaItem) string {
	videos, livePhotos := 0, 0
	for _, item := range items {
		switch item.Type {
		case model.MediaTypeLivePhoto:
			livePhotos++
		default:
			videos++
		}
	}

	switch {
	case videos > 0 && livePhotos > 0:
		return fmt.Sprintf("%s, %s", plural(videos, "video"), plural(livePhotos, "live photo"))
	case livePhotos > 0:
		return plural(livePhotos, "live photo")
	default:
		return plural(videos, "video")
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
