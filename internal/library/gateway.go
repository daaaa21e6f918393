// Package library abstracts the device-local media store.
package library

import (
	"context"
	"errors"
	"time"

	"mediacal/internal/model"
)

var (
	// ErrPermissionDenied means library access must be re-granted by the
	// user. Callers surface it; nothing here retries it.
	ErrPermissionDenied = errors.New("media library access denied")

	// ErrLibraryUnavailable is a transient failure; callers may retry on
	// the next explicit refresh.
	ErrLibraryUnavailable = errors.New("media library unavailable")
)

// Gateway fetches media records for a date range. This allows a mock
// implementation for development/tests and a filesystem-backed one for real
// libraries.
//
// FetchMedia returns only video and live-photo assets whose capture day
// falls inside [start, end] (inclusive at day granularity). No ordering is
// guaranteed; consumers must not rely on library order.
type Gateway interface {
	FetchMedia(ctx context.Context, start, end time.Time) ([]model.MediaItem, error)
}
