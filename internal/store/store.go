// Package store provides SQLite-backed persistence for per-day preferred
// media and pinned assets.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"mediacal/internal/model"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")

	// ErrUnavailable indicates the underlying store cannot be reached or
	// was never initialized. Writes failing with it were not committed.
	ErrUnavailable = errors.New("preference store unavailable")
)

// Store persists preferred-media and pin state in SQLite. Writes commit
// synchronously before returning, so a successful call survives a crash
// immediately after it.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens (creating if needed) a SQLite store at the given path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: storage path is required", ErrUnavailable)
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite db: %v", ErrUnavailable, err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%w: ping sqlite db: %v", ErrUnavailable, err)
	}
	if err := migrate(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%w: run migrations: %v", ErrUnavailable, err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS preferred_media (
			day_key TEXT PRIMARY KEY,
			asset_id TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS pinned_media (
			asset_id TEXT PRIMARY KEY,
			pinned_at INTEGER NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return ErrUnavailable
	}
	return nil
}

// GetPreferred returns the preferred asset for day, or ErrNotFound when the
// user has not chosen one.
func (s *Store) GetPreferred(ctx context.Context, day model.DayKey) (string, error) {
	if err := s.ready(ctx); err != nil {
		return "", err
	}

	var assetID string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT asset_id FROM preferred_media WHERE day_key = ?`, day.String(),
	).Scan(&assetID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get preferred for %s: %w", day, err)
	}
	return assetID, nil
}

// SetPreferred records assetID as the preferred item for day, replacing any
// previous choice (last-write-wins, no history).
func (s *Store) SetPreferred(ctx context.Context, day model.DayKey, assetID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(assetID) == "" {
		return fmt.Errorf("asset id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO preferred_media (day_key, asset_id, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(day_key) DO UPDATE SET asset_id = excluded.asset_id, updated_at = excluded.updated_at`,
		day.String(), assetID, toMillis(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("set preferred for %s: %w", day, err)
	}
	return nil
}

// ClearPreferred removes the preferred choice for day, if any.
func (s *Store) ClearPreferred(ctx context.Context, day model.DayKey) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM preferred_media WHERE day_key = ?`, day.String(),
	); err != nil {
		return fmt.Errorf("clear preferred for %s: %w", day, err)
	}
	return nil
}

// Pin marks assetID as pinned. Pinning an already-pinned asset is a no-op
// that keeps the original pin time (set semantics).
func (s *Store) Pin(ctx context.Context, assetID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(assetID) == "" {
		return fmt.Errorf("asset id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT OR IGNORE INTO pinned_media (asset_id, pinned_at) VALUES (?, ?)`,
		assetID, toMillis(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("pin %s: %w", assetID, err)
	}
	return nil
}

// Unpin removes assetID from the pinned set. Unpinning an unpinned asset is
// a no-op.
func (s *Store) Unpin(ctx context.Context, assetID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM pinned_media WHERE asset_id = ?`, assetID,
	); err != nil {
		return fmt.Errorf("unpin %s: %w", assetID, err)
	}
	return nil
}

// Pins returns every pinned asset ordered by pin time.
func (s *Store) Pins(ctx context.Context) ([]model.PinnedMedia, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT asset_id, pinned_at FROM pinned_media ORDER BY pinned_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list pins: %w", err)
	}
	defer rows.Close()

	pins := make([]model.PinnedMedia, 0)
	for rows.Next() {
		var assetID string
		var pinnedAt int64
		if err := rows.Scan(&assetID, &pinnedAt); err != nil {
			return nil, fmt.Errorf("scan pin: %w", err)
		}
		pins = append(pins, model.PinnedMedia{AssetID: assetID, PinnedAt: fromMillis(pinnedAt)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pins: %w", err)
	}
	return pins, nil
}
