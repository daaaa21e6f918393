package library

import (
	"context"
	"time"

	"mediacal/internal/model"
)

// MockGateway generates a deterministic spread of media items for any
// requested range. This is suitable for:
//   - local development without a media library on disk
//   - demo mode (the -demo flag)
//
// Every third day gets one video, every ninth day additionally gets a live
// photo, so month views always have something to show.
type MockGateway struct {
	loc *time.Location
}

// NewMockGateway constructs a MockGateway producing items in loc.
func NewMockGateway(loc *time.Location) *MockGateway {
	if loc == nil {
		loc = time.Local
	}
	return &MockGateway{loc: loc}
}

// FetchMedia implements Gateway.
func (g *MockGateway) FetchMedia(ctx context.Context, start, end time.Time) ([]model.MediaItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	day := model.DayKeyOf(start, g.loc).Time(g.loc)
	last := model.DayKeyOf(end, g.loc).Time(g.loc)

	items := make([]model.MediaItem, 0)
	for !day.After(last) {
		if day.Day()%3 == 0 {
			dur := float64(10 + day.Day())
			items = append(items, model.MediaItem{
				AssetID:  "mock-video-" + day.Format(time.DateOnly),
				Date:     day.Add(10 * time.Hour),
				Type:     model.MediaTypeVideo,
				Duration: &dur,
			})
		}
		if day.Day()%9 == 0 {
			items = append(items, model.MediaItem{
				AssetID: "mock-live-" + day.Format(time.DateOnly),
				Date:    day.Add(18 * time.Hour),
				Type:    model.MediaTypeLivePhoto,
			})
		}
		day = day.AddDate(0, 0, 1)
	}

	return items, nil
}
