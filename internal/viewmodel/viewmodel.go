// Package viewmodel orchestrates the calendar's navigation state and the
// asynchronous media aggregation pipeline behind it.
package viewmodel

import (
	"context"
	"errors"
	"sync"
	"time"

	"mediacal/internal/calendar"
	"mediacal/internal/library"
	appLog "mediacal/internal/log"
	"mediacal/internal/mediaindex"
	"mediacal/internal/model"
	"mediacal/internal/store"
)

// PreferenceStore is the slice of the persistent store the view model
// consumes. The SQLite store satisfies it; tests substitute an in-memory
// fake.
type PreferenceStore interface {
	GetPreferred(ctx context.Context, day model.DayKey) (string, error)
	SetPreferred(ctx context.Context, day model.DayKey, assetID string) error
	ClearPreferred(ctx context.Context, day model.DayKey) error
	Pin(ctx context.Context, assetID string) error
	Unpin(ctx context.Context, assetID string) error
	Pins(ctx context.Context) ([]model.PinnedMedia, error)
}

// Snapshot is an immutable view of the current state, handed to subscribers
// after every transition and available on demand via ViewModel.Snapshot.
type Snapshot struct {
	Month    model.CalendarMonth `json:"month"`
	Selected *model.CalendarDay  `json:"selected,omitempty"`
	Loading  bool                `json:"loading"`

	// LastError describes the most recent aggregation failure, empty after
	// a successful load. Counts shown alongside it are last-known values.
	LastError string `json:"last_error,omitempty"`
}

// Deps are the collaborators a ViewModel is constructed with.
type Deps struct {
	Builder     *calendar.Builder
	Gateway     library.Gateway
	Preferences PreferenceStore

	// Now is the clock used for the initial month and IsToday. Defaults to
	// time.Now.
	Now func() time.Time
}

// ViewModel is the single logical owner of calendar state. All mutation
// happens under mu; aggregation runs off the calling goroutine and applies
// its result only if it is still the current one.
type ViewModel struct {
	builder *calendar.Builder
	gateway library.Gateway
	prefs   PreferenceStore
	now     func() time.Time
	loc     *time.Location

	mu       sync.Mutex
	month    model.CalendarMonth
	selected model.DayKey
	hasSel   bool
	loading  bool
	lastErr  string
	index    *mediaindex.Index

	// gen identifies the current aggregation. Every navigation or refresh
	// bumps it; a completion carrying an older gen is stale and discarded.
	gen uint64

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// New constructs a ViewModel in the Idle state showing the current
// real-world month with no media loaded. Call RefreshMediaData to populate
// counts.
func New(d Deps) *ViewModel {
	if d.Now == nil {
		d.Now = time.Now
	}
	vm := &ViewModel{
		builder: d.Builder,
		gateway: d.Gateway,
		prefs:   d.Preferences,
		now:     d.Now,
		loc:     d.Builder.Location(),
		subs:    make(map[int]func(Snapshot)),
	}
	vm.index = mediaindex.New(vm.loc)

	today := vm.now().In(vm.loc)
	vm.month = vm.builder.Build(today.Year(), today.Month())
	return vm
}

// Subscribe registers fn to receive a Snapshot after every state
// transition. The returned cancel function unregisters it. Callbacks run on
// the transitioning goroutine and must not call back into the ViewModel's
// mutating operations.
func (vm *ViewModel) Subscribe(fn func(Snapshot)) (cancel func()) {
	vm.subMu.Lock()
	id := vm.nextSub
	vm.nextSub++
	vm.subs[id] = fn
	vm.subMu.Unlock()

	return func() {
		vm.subMu.Lock()
		delete(vm.subs, id)
		vm.subMu.Unlock()
	}
}

func (vm *ViewModel) notify(s Snapshot) {
	vm.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(vm.subs))
	for _, fn := range vm.subs {
		fns = append(fns, fn)
	}
	vm.subMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// Snapshot returns the current state.
func (vm *ViewModel) Snapshot() Snapshot {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.snapshotLocked()
}

func (vm *ViewModel) snapshotLocked() Snapshot {
	s := Snapshot{
		Month:     cloneMonth(vm.month),
		Loading:   vm.loading,
		LastError: vm.lastErr,
	}
	if vm.hasSel {
		if day, ok := vm.month.FindDay(vm.selected); ok {
			s.Selected = &day
		}
	}
	return s
}

func cloneMonth(m model.CalendarMonth) model.CalendarMonth {
	out := m
	out.Days = make([]model.CalendarDay, len(m.Days))
	copy(out.Days, m.Days)
	return out
}

// GoToNextMonth navigates one month forward and re-aggregates.
func (vm *ViewModel) GoToNextMonth(ctx context.Context) {
	vm.mu.Lock()
	year, month := calendar.NextMonth(vm.month.Year, vm.month.Month)
	vm.navigateLocked(ctx, year, month)
}

// GoToPreviousMonth navigates one month back and re-aggregates.
func (vm *ViewModel) GoToPreviousMonth(ctx context.Context) {
	vm.mu.Lock()
	year, month := calendar.PreviousMonth(vm.month.Year, vm.month.Month)
	vm.navigateLocked(ctx, year, month)
}

// GoToToday jumps to the current real-world month and re-aggregates.
func (vm *ViewModel) GoToToday(ctx context.Context) {
	vm.mu.Lock()
	today := vm.now().In(vm.loc)
	vm.navigateLocked(ctx, today.Year(), today.Month())
}

// navigateLocked rebuilds the grid for (year, month) and kicks off
// aggregation. The caller must hold mu; it is released here.
func (vm *ViewModel) navigateLocked(ctx context.Context, year int, month time.Month) {
	// Grid construction is cheap and synchronous; the month updates
	// immediately, only the counts arrive later.
	vm.month = vm.builder.Build(year, month)

	// Selection survives navigation only if the same date is still on the
	// grid (adjacent-month filler days often are).
	if vm.hasSel {
		if _, ok := vm.month.FindDay(vm.selected); !ok {
			vm.hasSel = false
			vm.selected = model.DayKey{}
		}
	}

	vm.startAggregationLocked(ctx)
}

// RefreshMediaData re-runs aggregation for the displayed month without
// touching the grid. Existing counts stay visible until the fresh result
// lands.
func (vm *ViewModel) RefreshMediaData(ctx context.Context) {
	vm.mu.Lock()
	vm.startAggregationLocked(ctx)
}

// startAggregationLocked supersedes any in-flight aggregation and starts a
// new one for the grid's full visible span. The caller must hold mu; it is
// released here.
func (vm *ViewModel) startAggregationLocked(ctx context.Context) {
	vm.gen++
	gen := vm.gen
	vm.loading = true

	first, last := vm.month.Span()
	start := first.Time(vm.loc)
	end := last.Time(vm.loc)
	year, month := vm.month.Year, vm.month.Month

	snap := vm.snapshotLocked()
	vm.mu.Unlock()
	vm.notify(snap)

	appLog.Debug("aggregation started",
		"year", year, "month", int(month), "gen", gen,
		"span_start", first.String(), "span_end", last.String(),
	)

	// Fire and forget: a superseded fetch is not aborted, its result is
	// simply ignored on arrival.
	go vm.aggregate(ctx, gen, start, end)
}

func (vm *ViewModel) aggregate(ctx context.Context, gen uint64, start, end time.Time) {
	items, err := vm.gateway.FetchMedia(ctx, start, end)

	vm.mu.Lock()
	if gen != vm.gen {
		// A newer navigation or refresh superseded this fetch; applying it
		// would show counts for a month that is no longer selected.
		current := vm.gen
		vm.mu.Unlock()
		appLog.Debug("stale aggregation discarded", "gen", gen, "current", current)
		return
	}

	vm.loading = false
	if err != nil {
		// Counts keep their last-known values; only the error surfaces.
		vm.lastErr = err.Error()
		snap := vm.snapshotLocked()
		vm.mu.Unlock()
		if errors.Is(err, library.ErrPermissionDenied) {
			appLog.Warn("media library permission denied; aggregation skipped")
		} else {
			appLog.Error("media aggregation failed", err)
		}
		vm.notify(snap)
		return
	}

	vm.lastErr = ""
	vm.index.Rebuild(items)
	for i := range vm.month.Days {
		vm.month.Days[i].MediaCount = vm.index.CountFor(vm.month.Days[i].Key)
	}

	snap := vm.snapshotLocked()
	vm.mu.Unlock()

	appLog.Debug("aggregation applied", "gen", gen, "items", len(items))
	vm.notify(snap)
}

// SelectDay sets the selected day by date. It is synchronous, legal in any
// state, and has no effect on loading or aggregation.
func (vm *ViewModel) SelectDay(day model.DayKey) {
	vm.mu.Lock()
	vm.selected = day
	vm.hasSel = true
	snap := vm.snapshotLocked()
	vm.mu.Unlock()
	vm.notify(snap)
}

// ClearSelection drops the selected day, if any.
func (vm *ViewModel) ClearSelection() {
	vm.mu.Lock()
	vm.selected = model.DayKey{}
	vm.hasSel = false
	snap := vm.snapshotLocked()
	vm.mu.Unlock()
	vm.notify(snap)
}

// IsToday reports whether t falls on the current real-world day.
func (vm *ViewModel) IsToday(t time.Time) bool {
	return model.DayKeyOf(t, vm.loc) == model.DayKeyOf(vm.now(), vm.loc)
}

// WeekdaySymbols returns the seven weekday labels in configured week-start
// order.
func (vm *ViewModel) WeekdaySymbols() []string {
	return vm.builder.WeekdaySymbols()
}

// Location returns the display timezone.
func (vm *ViewModel) Location() *time.Location {
	return vm.loc
}

// MediaItems returns the loaded media for day merged with preference and
// pin annotations, in gateway arrival order. It never fails: when nothing
// is loaded, nothing exists, or the store is unreachable, it returns the
// items it can (annotations default to false) or an empty slice.
func (vm *ViewModel) MediaItems(ctx context.Context, day model.DayKey) []model.DayMedia {
	vm.mu.Lock()
	items := vm.index.ItemsFor(day)
	vm.mu.Unlock()

	if len(items) == 0 {
		return []model.DayMedia{}
	}

	preferredID := ""
	if id, err := vm.prefs.GetPreferred(ctx, day); err == nil {
		preferredID = id
	} else if !errors.Is(err, store.ErrNotFound) {
		appLog.Warn("preferred lookup failed", "day", day.String(), "err", err)
	}

	pinned := make(map[string]bool)
	if pins, err := vm.prefs.Pins(ctx); err == nil {
		for _, p := range pins {
			pinned[p.AssetID] = true
		}
	} else {
		appLog.Warn("pin lookup failed", "err", err)
	}

	out := make([]model.DayMedia, 0, len(items))
	for _, item := range items {
		out = append(out, model.DayMedia{
			MediaItem: item,
			Preferred: item.AssetID == preferredID,
			Pinned:    pinned[item.AssetID],
		})
	}
	return out
}

// SetPreferred persists assetID as the preferred item for day. Failures
// surface to the caller; nothing is dropped silently.
func (vm *ViewModel) SetPreferred(ctx context.Context, day model.DayKey, assetID string) error {
	return vm.prefs.SetPreferred(ctx, day, assetID)
}

// ClearPreferred removes a day's preferred choice.
func (vm *ViewModel) ClearPreferred(ctx context.Context, day model.DayKey) error {
	return vm.prefs.ClearPreferred(ctx, day)
}

// Pin and Unpin delegate to the persistent pin set.
func (vm *ViewModel) Pin(ctx context.Context, assetID string) error {
	return vm.prefs.Pin(ctx, assetID)
}

func (vm *ViewModel) Unpin(ctx context.Context, assetID string) error {
	return vm.prefs.Unpin(ctx, assetID)
}

// Pins returns the persisted pin set.
func (vm *ViewModel) Pins(ctx context.Context) ([]model.PinnedMedia, error) {
	return vm.prefs.Pins(ctx)
}
