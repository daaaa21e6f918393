package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mediacal/internal/model"
)

func touch(t *testing.T, path string, at time.Time) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if err := os.Chtimes(path, at, at); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

func fetchAll(t *testing.T, g Gateway, start, end time.Time) map[string]model.MediaItem {
	t.Helper()
	items, err := g.FetchMedia(context.Background(), start, end)
	if err != nil {
		t.Fatalf("fetch media: %v", err)
	}
	byID := make(map[string]model.MediaItem, len(items))
	for _, item := range items {
		byID[item.AssetID] = item
	}
	return byID
}

func TestFSGatewayClassifiesMedia(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	at := time.Date(2024, time.June, 10, 14, 0, 0, 0, time.UTC)

	touch(t, filepath.Join(root, "clip.mp4"), at)
	touch(t, filepath.Join(root, "standalone.mov"), at)
	touch(t, filepath.Join(root, "moment.heic"), at)
	touch(t, filepath.Join(root, "moment.mov"), at) // motion half of the live photo
	touch(t, filepath.Join(root, "notes.txt"), at)  // not media
	touch(t, filepath.Join(root, "photo.jpg"), at)  // still image without motion pair

	byID := fetchAll(t, NewFSGateway([]string{root}, time.UTC),
		at.AddDate(0, 0, -1), at.AddDate(0, 0, 1))

	if len(byID) != 3 {
		t.Fatalf("len(items) = %d, want 3 (%v)", len(byID), byID)
	}
	if got := byID["clip.mp4"].Type; got != model.MediaTypeVideo {
		t.Fatalf("clip.mp4 type = %q, want video", got)
	}
	if got := byID["standalone.mov"].Type; got != model.MediaTypeVideo {
		t.Fatalf("standalone.mov type = %q, want video", got)
	}
	live, ok := byID["moment.heic"]
	if !ok {
		t.Fatalf("live photo missing; items = %v", byID)
	}
	if live.Type != model.MediaTypeLivePhoto {
		t.Fatalf("moment.heic type = %q, want livePhoto", live.Type)
	}
	if _, ok := byID["moment.mov"]; ok {
		t.Fatal("live photo motion half reported as separate asset")
	}
	if _, ok := byID["photo.jpg"]; ok {
		t.Fatal("still image without motion pair reported as media")
	}
}

func TestFSGatewayFiltersByDayRangeInclusive(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	touch(t, filepath.Join(root, "before.mp4"), time.Date(2024, time.June, 9, 23, 0, 0, 0, time.UTC))
	touch(t, filepath.Join(root, "first.mp4"), time.Date(2024, time.June, 10, 0, 30, 0, 0, time.UTC))
	touch(t, filepath.Join(root, "last.mp4"), time.Date(2024, time.June, 12, 23, 30, 0, 0, time.UTC))
	touch(t, filepath.Join(root, "after.mp4"), time.Date(2024, time.June, 13, 1, 0, 0, 0, time.UTC))

	byID := fetchAll(t, NewFSGateway([]string{root}, time.UTC),
		time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC),
		time.Date(2024, time.June, 12, 12, 0, 0, 0, time.UTC))

	if len(byID) != 2 {
		t.Fatalf("len(items) = %d, want 2 (%v)", len(byID), byID)
	}
	if _, ok := byID["first.mp4"]; !ok {
		t.Fatal("item on range start day excluded; range must be inclusive")
	}
	if _, ok := byID["last.mp4"]; !ok {
		t.Fatal("item on range end day excluded; range must be inclusive")
	}
}

func TestFSGatewayWalksSubdirectories(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	at := time.Date(2024, time.June, 10, 14, 0, 0, 0, time.UTC)
	touch(t, filepath.Join(root, "2024", "06", "nested.mp4"), at)

	byID := fetchAll(t, NewFSGateway([]string{root}, time.UTC),
		at.AddDate(0, 0, -1), at.AddDate(0, 0, 1))

	want := filepath.Join("2024", "06", "nested.mp4")
	if _, ok := byID[want]; !ok {
		t.Fatalf("nested asset missing; items = %v", byID)
	}
}

func TestFSGatewayMissingRootIsUnavailable(t *testing.T) {
	t.Parallel()

	g := NewFSGateway([]string{filepath.Join(t.TempDir(), "nope")}, time.UTC)
	_, err := g.FetchMedia(context.Background(),
		time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, ErrLibraryUnavailable) {
		t.Fatalf("fetch error = %v, want ErrLibraryUnavailable", err)
	}
}

func TestMockGatewayIsDeterministic(t *testing.T) {
	t.Parallel()

	g := NewMockGateway(time.UTC)
	start := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC)

	first, err := g.FetchMedia(context.Background(), start, end)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	second, err := g.FetchMedia(context.Background(), start, end)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if len(first) == 0 {
		t.Fatal("mock gateway returned no items for a full month")
	}
	if len(first) != len(second) {
		t.Fatalf("mock gateway not deterministic: %d vs %d items", len(first), len(second))
	}
	for _, item := range first {
		if item.Type == model.MediaTypeVideo && item.Duration == nil {
			t.Fatalf("mock video %s has no duration", item.AssetID)
		}
	}
}
