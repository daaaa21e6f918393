package feed

import (
	"strings"
	"testing"
	"time"

	"mediacal/internal/calendar"
	"mediacal/internal/mediaindex"
	"mediacal/internal/model"
)

func TestCalendarEmitsOneEventPerDayWithMedia(t *testing.T) {
	t.Parallel()

	month := calendar.NewBuilder(calendar.WeekStartMonday, time.UTC).Build(2024, time.June)

	idx := mediaindex.New(time.UTC)
	idx.Rebuild([]model.MediaItem{
		{AssetID: "a", Date: time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC), Type: model.MediaTypeVideo},
		{AssetID: "b", Date: time.Date(2024, time.June, 15, 11, 0, 0, 0, time.UTC), Type: model.MediaTypeLivePhoto},
		{AssetID: "c", Date: time.Date(2024, time.June, 20, 9, 0, 0, 0, time.UTC), Type: model.MediaTypeVideo},
		// Outside June; must not appear in June's feed.
		{AssetID: "d", Date: time.Date(2024, time.May, 30, 9, 0, 0, 0, time.UTC), Type: model.MediaTypeVideo},
	})

	body := Calendar(month, time.UTC, idx.ItemsFor).Serialize()

	if got := strings.Count(body, "BEGIN:VEVENT"); got != 2 {
		t.Fatalf("event count = %d, want 2\n%s", got, body)
	}
	if !strings.Contains(body, "2024-06-15-media@mediacal") {
		t.Fatalf("feed missing june 15 event:\n%s", body)
	}
	if !strings.Contains(body, "1 video, 1 live photo") {
		t.Fatalf("feed missing mixed summary:\n%s", body)
	}
}

func TestCalendarEmptyMonth(t *testing.T) {
	t.Parallel()

	month := calendar.NewBuilder(calendar.WeekStartMonday, time.UTC).Build(2024, time.June)
	idx := mediaindex.New(time.UTC)

	body := Calendar(month, time.UTC, idx.ItemsFor).Serialize()
	if strings.Contains(body, "BEGIN:VEVENT") {
		t.Fatalf("empty month produced events:\n%s", body)
	}
	if !strings.Contains(body, "BEGIN:VCALENDAR") {
		t.Fatalf("feed is not a calendar:\n%s", body)
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()

	video := model.MediaItem{Type: model.MediaTypeVideo}
	live := model.MediaItem{Type: model.MediaTypeLivePhoto}

	cases := []struct {
		name  string
		items []model.MediaItem
		want  string
	}{
		{"single video", []model.MediaItem{video}, "1 video"},
		{"two videos", []model.MediaItem{video, video}, "2 videos"},
		{"single live photo", []model.MediaItem{live}, "1 live photo"},
		{"mixed", []model.MediaItem{video, video, live}, "2 videos, 1 live photo"},
	}
	for _, tc := range cases {
		if got := Summary(tc.items); got != tc.want {
			t.Fatalf("%s: summary = %q, want %q", tc.name, got, tc.want)
		}
	}
}
