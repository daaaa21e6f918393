package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"mediacal/internal/calendar"
	"mediacal/internal/config"
	"mediacal/internal/library"
	appLog "mediacal/internal/log"
	"mediacal/internal/store"
	"mediacal/internal/viewmodel"
	"mediacal/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	logLevel   string
	demo       bool
	once       bool
}

func main() {
	flags := parseFlags()
	appLog.SetLevel(appLog.ParseLevel(flags.logLevel))
	appLog.Info("mediacal starting", "version", "0.1.0-dev")

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"week_start", conf.WeekStart,
		"refresh", conf.RefreshCron,
		"library_roots", len(conf.LibraryRoots),
		"db_path", conf.DBPath,
		"demo", flags.demo,
		"once", flags.once,
	)

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		appLog.Error("invalid timezone", err, "timezone", conf.Timezone)
		os.Exit(1)
	}

	prefs, err := store.Open(conf.DBPath)
	if err != nil {
		appLog.Error("failed to open preference store", err, "db_path", conf.DBPath)
		os.Exit(1)
	}
	defer prefs.Close()

	var gateway library.Gateway
	if flags.demo || len(conf.LibraryRoots) == 0 {
		if !flags.demo {
			appLog.Warn("no library roots configured; using mock media gateway")
		}
		gateway = library.NewMockGateway(loc)
	} else {
		gateway = library.NewFSGateway(conf.LibraryRoots, loc)
	}

	builder := calendar.NewBuilder(calendar.ParseWeekStart(conf.WeekStart), loc)
	vm := viewmodel.New(viewmodel.Deps{
		Builder:     builder,
		Gateway:     gateway,
		Preferences: prefs,
	})

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if flags.once {
		if err := runOnce(ctx, vm); err != nil {
			appLog.Error("single-shot aggregation failed", err)
			os.Exit(1)
		}
		return
	}

	// Initial load for the current month.
	vm.RefreshMediaData(ctx)

	// Periodic re-aggregation keeps counts in sync as the library changes.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(conf.RefreshCron, func() {
		appLog.Debug("scheduled refresh triggered", "cron", conf.RefreshCron)
		vm.RefreshMediaData(ctx)
	}); err != nil {
		appLog.Error("invalid refresh cron expression", err, "cron", conf.RefreshCron)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:    conf.Listen,
		Handler: web.NewServer(conf, vm).Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			appLog.Error("HTTP shutdown failed", err)
		}
	}()

	appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		appLog.Error("HTTP server failed", err)
		os.Exit(1)
	}

	appLog.Info("mediacal exiting")
}

// runOnce performs a single aggregation for the current month and prints
// the resulting snapshot as JSON to stdout.
func runOnce(ctx context.Context, vm *viewmodel.ViewModel) error {
	done := make(chan viewmodel.Snapshot, 1)
	cancel := vm.Subscribe(func(s viewmodel.Snapshot) {
		if !s.Loading {
			select {
			case done <- s:
			default:
			}
		}
	})
	defer cancel()

	vm.RefreshMediaData(ctx)

	select {
	case snap := <-done:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/mediacal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.BoolVar(&cfg.demo, "demo", false, "Use the mock media gateway instead of scanning library roots")
	flag.BoolVar(&cfg.once, "once", false, "Run one aggregation for the current month, print JSON, and exit")

	flag.Parse()

	return cfg
}
