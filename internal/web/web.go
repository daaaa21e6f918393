// Package web exposes the calendar engine over HTTP for the presentation
// layer.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"mediacal/internal/config"
	"mediacal/internal/feed"
	appLog "mediacal/internal/log"
	"mediacal/internal/model"
	"mediacal/internal/store"
	"mediacal/internal/viewmodel"
)

// Server provides HTTP APIs over the calendar view model and the
// preference/pin store.
type Server struct {
	cfg *config.Config
	vm  *viewmodel.ViewModel
	mux *http.ServeMux

	// In-memory cache for /calendar.ics responses so calendar clients
	// polling the feed do not re-serialize on every request.
	feedMu    sync.RWMutex
	feedCache *feedCache
}

type feedCache struct {
	body      string
	monthKey  string
	updatedAt time.Time
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, vm *viewmodel.ViewModel) *Server {
	s := &Server{
		cfg: cfg,
		vm:  vm,
		mux: http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured. Empty
// credentials count as disabled.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health stays reachable for probes without credentials.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="mediacal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/calendar", s.handleCalendar)
	s.mux.HandleFunc("/api/calendar/next", s.handleNavigate)
	s.mux.HandleFunc("/api/calendar/previous", s.handleNavigate)
	s.mux.HandleFunc("/api/calendar/today", s.handleNavigate)
	s.mux.HandleFunc("/api/refresh", s.handleRefresh)
	s.mux.HandleFunc("/api/select", s.handleSelect)
	s.mux.HandleFunc("/api/day", s.handleDay)
	s.mux.HandleFunc("/api/day/preferred", s.handlePreferred)
	s.mux.HandleFunc("/api/pins", s.handlePins)
	s.mux.HandleFunc("/calendar.ics", s.handleFeed)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// dayDTO is the JSON shape of one grid cell.
type dayDTO struct {
	Date           string `json:"date"`
	DayNumber      int    `json:"day_number"`
	InCurrentMonth bool   `json:"in_current_month"`
	MediaCount     int    `json:"media_count"`
	HasMedia       bool   `json:"has_media"`
	Today          bool   `json:"today"`
	Selected       bool   `json:"selected"`
}

// calendarResponse is the JSON response shape for /api/calendar.
type calendarResponse struct {
	Year           int      `json:"year"`
	Month          int      `json:"month"`
	WeekStart      string   `json:"week_start"`
	WeekdaySymbols []string `json:"weekday_symbols"`
	Days           []dayDTO `json:"days"`
	Selected       string   `json:"selected,omitempty"`
	Loading        bool     `json:"loading"`
	LastError      string   `json:"last_error,omitempty"`
}

func (s *Server) calendarResponse() calendarResponse {
	snap := s.vm.Snapshot()

	resp := calendarResponse{
		Year:           snap.Month.Year,
		Month:          int(snap.Month.Month),
		WeekStart:      s.cfg.WeekStart,
		WeekdaySymbols: s.vm.WeekdaySymbols(),
		Days:           make([]dayDTO, 0, len(snap.Month.Days)),
		Loading:        snap.Loading,
		LastError:      snap.LastError,
	}
	if snap.Selected != nil {
		resp.Selected = snap.Selected.Key.String()
	}

	for _, day := range snap.Month.Days {
		resp.Days = append(resp.Days, dayDTO{
			Date:           day.Key.String(),
			DayNumber:      day.DayNumber,
			InCurrentMonth: day.InCurrentMonth,
			MediaCount:     day.MediaCount,
			HasMedia:       day.HasMedia(),
			Today:          s.vm.IsToday(day.Date),
			Selected:       snap.Selected != nil && snap.Selected.Key == day.Key,
		})
	}
	return resp
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.calendarResponse())
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// Navigation outlives the HTTP request; the aggregation goroutine must
	// not die with the connection.
	ctx := context.WithoutCancel(r.Context())

	switch {
	case strings.HasSuffix(r.URL.Path, "/next"):
		s.vm.GoToNextMonth(ctx)
	case strings.HasSuffix(r.URL.Path, "/previous"):
		s.vm.GoToPreviousMonth(ctx)
	default:
		s.vm.GoToToday(ctx)
	}

	writeJSON(w, http.StatusOK, s.calendarResponse())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.vm.RefreshMediaData(context.WithoutCancel(r.Context()))
	writeJSON(w, http.StatusOK, s.calendarResponse())
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	raw := r.URL.Query().Get("date")
	if raw == "" {
		s.vm.ClearSelection()
		writeJSON(w, http.StatusOK, s.calendarResponse())
		return
	}

	day, err := model.ParseDayKey(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date; want YYYY-MM-DD")
		return
	}
	s.vm.SelectDay(day)
	writeJSON(w, http.StatusOK, s.calendarResponse())
}

func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	day, err := model.ParseDayKey(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date; want YYYY-MM-DD")
		return
	}

	items := s.vm.MediaItems(r.Context(), day)
	writeJSON(w, http.StatusOK, map[string]any{
		"date":  day.String(),
		"items": items,
	})
}

func (s *Server) handlePreferred(w http.ResponseWriter, r *http.Request) {
	day, err := model.ParseDayKey(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date; want YYYY-MM-DD")
		return
	}

	switch r.Method {
	case http.MethodPut, http.MethodPost:
		asset := r.URL.Query().Get("asset")
		if asset == "" {
			writeError(w, http.StatusBadRequest, "asset is required")
			return
		}
		if err := s.vm.SetPreferred(r.Context(), day, asset); err != nil {
			s.writeStoreError(w, "set preferred failed", err)
			return
		}
		writeJSON(w, http.StatusOK, model.PreferredMedia{Day: day, AssetID: asset})
	case http.MethodDelete:
		if err := s.vm.ClearPreferred(r.Context(), day); err != nil {
			s.writeStoreError(w, "clear preferred failed", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handlePins(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		pins, err := s.vm.Pins(r.Context())
		if err != nil {
			s.writeStoreError(w, "list pins failed", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"pins": pins})
	case http.MethodPost, http.MethodDelete:
		asset := r.URL.Query().Get("asset")
		if asset == "" {
			writeError(w, http.StatusBadRequest, "asset is required")
			return
		}
		var err error
		if r.Method == http.MethodPost {
			err = s.vm.Pin(r.Context(), asset)
		} else {
			err = s.vm.Unpin(r.Context(), asset)
		}
		if err != nil {
			s.writeStoreError(w, "pin update failed", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleFeed serves the current month's media summary as an ICS calendar.
// Responses are cached briefly per month; calendar clients tend to poll.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	const feedCacheTTL = 30 * time.Second

	snap := s.vm.Snapshot()
	monthKey := fmt.Sprintf("%04d-%02d", snap.Month.Year, int(snap.Month.Month))
	now := time.Now()

	s.feedMu.RLock()
	fc := s.feedCache
	s.feedMu.RUnlock()
	if fc != nil && fc.monthKey == monthKey && now.Sub(fc.updatedAt) < feedCacheTTL {
		writeICS(w, fc.body)
		return
	}

	cal := feed.Calendar(snap.Month, s.vm.Location(), func(day model.DayKey) []model.MediaItem {
		items := s.vm.MediaItems(r.Context(), day)
		out := make([]model.MediaItem, 0, len(items))
		for _, item := range items {
			out = append(out, item.MediaItem)
		}
		return out
	})
	body := cal.Serialize()

	s.feedMu.Lock()
	s.feedCache = &feedCache{body: body, monthKey: monthKey, updatedAt: time.Now()}
	s.feedMu.Unlock()

	writeICS(w, body)
}

func (s *Server) writeStoreError(w http.ResponseWriter, msg string, err error) {
	appLog.Error(msg, err)
	if errors.Is(err, store.ErrUnavailable) {
		writeError(w, http.StatusServiceUnavailable, "preference store unavailable")
		return
	}
	writeError(w, http.StatusInternalServerError, msg)
}

func writeICS(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to encode JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
