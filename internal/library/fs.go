package library

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	appLog "mediacal/internal/log"
	"mediacal/internal/model"
)

// FSGateway scans local directories for media assets.
//
// Classification rules:
//   - .mp4 / .m4v files are videos.
//   - a .mov with an image sibling of the same basename (.heic/.jpg/.jpeg)
//     is the motion half of a live photo; the pair is reported once, as a
//     live photo identified by the image's path.
//   - a .mov without such a sibling is a plain video.
//   - everything else is excluded at the source.
//
// The capture timestamp is the file's modification time; asset IDs are
// root-relative paths, which stay stable as long as files are not moved.
type FSGateway struct {
	roots []string
	loc   *time.Location
}

var imageExts = map[string]bool{
	".heic": true,
	".jpg":  true,
	".jpeg": true,
}

var videoExts = map[string]bool{
	".mp4": true,
	".m4v": true,
	".mov": true,
}

// NewFSGateway constructs a gateway over the given root directories. loc is
// the display timezone used for the inclusive day-range filter.
func NewFSGateway(roots []string, loc *time.Location) *FSGateway {
	if loc == nil {
		loc = time.Local
	}
	return &FSGateway{roots: roots, loc: loc}
}

// FetchMedia implements Gateway.
func (g *FSGateway) FetchMedia(ctx context.Context, start, end time.Time) ([]model.MediaItem, error) {
	startDay := model.DayKeyOf(start, g.loc).Time(g.loc)
	// Inclusive upper bound at day granularity.
	endDay := model.DayKeyOf(end, g.loc).Time(g.loc).AddDate(0, 0, 1)

	items := make([]model.MediaItem, 0)

	for _, root := range g.roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if _, err := os.Stat(root); err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return nil, ErrPermissionDenied
			}
			appLog.Error("library root unavailable", err, "root", root)
			return nil, ErrLibraryUnavailable
		}

		rootItems, err := g.scanRoot(ctx, root, startDay, endDay)
		if err != nil {
			return nil, err
		}
		items = append(items, rootItems...)
	}

	appLog.Debug("library fetch complete",
		"roots", len(g.roots),
		"items", len(items),
		"start", startDay.Format(time.DateOnly),
		"end", end.In(g.loc).Format(time.DateOnly),
	)

	return items, nil
}

// scanRoot walks one root collecting classified media entries in range.
func (g *FSGateway) scanRoot(ctx context.Context, root string, startDay, endDay time.Time) ([]model.MediaItem, error) {
	type entry struct {
		rel     string
		modTime time.Time
	}

	// Keyed by path without extension so live-photo halves can be paired.
	images := make(map[string]entry)
	movs := make(map[string]entry)
	videos := make([]entry, 0)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return ErrPermissionDenied
			}
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if !imageExts[ext] && !videoExts[ext] {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			// File vanished mid-walk; skip it.
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}

		e := entry{rel: rel, modTime: info.ModTime()}
		stem := strings.TrimSuffix(path, filepath.Ext(path))

		switch {
		case imageExts[ext]:
			images[stem] = e
		case ext == ".mov":
			movs[stem] = e
		default:
			videos = append(videos, e)
		}
		return nil
	})
	if walkErr != nil {
		if errors.Is(walkErr, ErrPermissionDenied) || errors.Is(walkErr, context.Canceled) {
			return nil, walkErr
		}
		appLog.Error("library scan failed", walkErr, "root", root)
		return nil, ErrLibraryUnavailable
	}

	inRange := func(t time.Time) bool {
		local := t.In(g.loc)
		return !local.Before(startDay) && local.Before(endDay)
	}

	items := make([]model.MediaItem, 0)

	// Live photos: image + paired .mov, identified by the image.
	for stem, img := range images {
		if _, ok := movs[stem]; !ok {
			continue
		}
		delete(movs, stem)
		if !inRange(img.modTime) {
			continue
		}
		items = append(items, model.MediaItem{
			AssetID: img.rel,
			Date:    img.modTime.In(g.loc),
			Type:    model.MediaTypeLivePhoto,
		})
	}

	// Unpaired .mov files are plain videos.
	for _, mov := range movs {
		videos = append(videos, mov)
	}

	for _, v := range videos {
		if !inRange(v.modTime) {
			continue
		}
		// Duration would require container parsing; left unset for
		// filesystem assets. The presentation layer probes lazily.
		items = append(items, model.MediaItem{
			AssetID: v.rel,
			Date:    v.modTime.In(g.loc),
			Type:    model.MediaTypeVideo,
		})
	}

	return items, nil
}
