package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaultConfigOnFirstRun(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "conf", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != "127.0.0.1:8080" {
		t.Fatalf("listen = %q, want default", cfg.Listen)
	}
	if cfg.WeekStart != "monday" {
		t.Fatalf("week_start = %q, want monday", cfg.WeekStart)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat created config: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("config perms = %o, want 0600", perm)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	in := &Config{
		Listen:       "0.0.0.0:9090",
		Timezone:     "Asia/Seoul",
		WeekStart:    "sunday",
		RefreshCron:  "*/5 * * * *",
		LibraryRoots: []string{"/media/camera"},
		DBPath:       "/var/lib/mediacal/prefs.db",
	}
	if err := Save(path, in); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.Listen != in.Listen || out.Timezone != in.Timezone || out.WeekStart != in.WeekStart {
		t.Fatalf("round trip mismatch: %+v", out)
	}
	if len(out.LibraryRoots) != 1 || out.LibraryRoots[0] != "/media/camera" {
		t.Fatalf("library_roots = %v", out.LibraryRoots)
	}
	if out.DBPath != in.DBPath {
		t.Fatalf("db_path = %q, want %q", out.DBPath, in.DBPath)
	}
}

func TestNormalizeFallsBackOnUnknownWeekStart(t *testing.T) {
	t.Parallel()

	cfg := &Config{WeekStart: "wednesday"}
	cfg.Normalize()
	if cfg.WeekStart != "monday" {
		t.Fatalf("week_start = %q, want monday fallback", cfg.WeekStart)
	}
	if cfg.RefreshCron == "" || cfg.DBPath == "" || cfg.Timezone == "" {
		t.Fatalf("normalize left zero values: %+v", cfg)
	}
}

func TestLoadRejectsEmptyPath(t *testing.T) {
	t.Parallel()

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}
