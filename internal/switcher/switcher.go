// Package switcher ties the backend, the MRU list, the icon cache and the
// popup together and runs the event loop.
package switcher

import (
	"fmt"

	"github.com/bryanchriswhite/alttab/internal/icon"
	"github.com/bryanchriswhite/alttab/internal/logger"
	"github.com/bryanchriswhite/alttab/internal/mru"
	"github.com/bryanchriswhite/alttab/internal/registry"
	"github.com/bryanchriswhite/alttab/internal/window"
)

// Popup draws the switcher.
type Popup interface {
	// Show maps the popup with the given tiles.
	Show(records []window.Record, selected int) error
	// Select moves the highlight.
	Select(selected int)
	Redraw()
	Hide()
	// Window is the popup's own X window, None while hidden.
	Window() window.ID
	// TileAt maps popup coordinates to a tile index, -1 for none.
	TileAt(x, y int) int
}

// Config wires a Switcher.
type Config struct {
	Conn     window.Conn
	Backend  window.Backend
	MRU      *mru.List
	Icons    *icon.Cache
	Registry registry.Options
	Policy   window.Filter
	// Viewport returns the active screen area for the screen policy.
	Viewport func() window.Geometry
	Popup    Popup
	// Status receives a snapshot after every state change.
	Status func(Status)
}

// Switcher is the context object: it owns the backend, the MRU list, the
// icon cache and the policy. All methods must be called from the loop
// goroutine.
type Switcher struct {
	conn     window.Conn
	backend  window.Backend
	mru      *mru.List
	icons    *icon.Cache
	reg      *registry.Registry
	policy   window.Filter
	viewport func() window.Geometry
	popup    Popup
	status   func(Status)
	calls    chan func()

	shown bool
	// own is the last popup window, kept after hiding because events
	// about it may still be queued.
	own window.ID
}

// New creates a Switcher.
func New(cfg Config) *Switcher {
	list := cfg.MRU
	if list == nil {
		list = mru.New()
	}
	opts := cfg.Registry
	if opts.Files == nil {
		opts.Files = cfg.Icons
	}
	return &Switcher{
		conn:     cfg.Conn,
		backend:  cfg.Backend,
		mru:      list,
		icons:    cfg.Icons,
		reg:      registry.New(cfg.Backend, list, opts),
		policy:   cfg.Policy,
		viewport: cfg.Viewport,
		popup:    cfg.Popup,
		status:   cfg.Status,
		calls:    make(chan func(), 16),
	}
}

// Start runs backend setup and seeds the MRU list with the active window.
func (s *Switcher) Start() error {
	if err := s.backend.Startup(); err != nil {
		return fmt.Errorf("failed to start %s backend: %w", s.backend.Kind(), err)
	}
	if active, ok := s.backend.ActiveWindow(); ok {
		s.mru.Touch(active, true, true)
		s.watch(active)
	}
	s.publish()
	return nil
}

// Shown reports whether the popup is up.
func (s *Switcher) Shown() bool {
	return s.shown
}

// MRU returns the recency list.
func (s *Switcher) MRU() *mru.List {
	return s.mru
}

// Backend returns the active backend.
func (s *Switcher) Backend() window.Backend {
	return s.backend
}

// Policy returns the eligibility policy.
func (s *Switcher) Policy() window.Filter {
	return s.policy
}

// SetPolicy replaces the eligibility policy; it applies from the next
// invocation on.
func (s *Switcher) SetPolicy(f window.Filter) {
	s.policy = f
	logger.WithComponent("switcher").Info().
		Str("desktops", string(f.Desktops)).
		Str("screens", string(f.Screens)).
		Bool("ignore_skip_taskbar", f.IgnoreSkipTaskbar).
		Msg("Eligibility policy updated")
	s.publish()
}

func (s *Switcher) filter() window.Filter {
	f := s.policy
	if s.viewport != nil {
		f.Viewport = s.viewport()
	}
	return f
}

// EnumerateCurrent rebuilds the registry and returns the windows in
// display order.
func (s *Switcher) EnumerateCurrent(dir registry.Direction) ([]window.Record, error) {
	recs, err := s.reg.Build(s.filter(), dir)
	if err != nil {
		return nil, err
	}
	for _, r := range recs {
		s.watch(r.ID)
	}
	return recs, nil
}

// Cycle shows the popup on the first press and moves the selection on
// later ones. It returns the selected index.
func (s *Switcher) Cycle(dir registry.Direction) (int, error) {
	log := logger.WithComponent("switcher")

	if s.shown {
		idx := s.reg.Cycle(dir)
		if s.popup != nil {
			s.popup.Select(idx)
		}
		return idx, nil
	}

	recs, err := s.EnumerateCurrent(dir)
	if err != nil {
		return -1, err
	}
	if len(recs) == 0 {
		log.Debug().Msg("Cycle: no windows")
		return -1, nil
	}
	if s.popup != nil {
		if err := s.popup.Show(recs, s.reg.Selected()); err != nil {
			s.reg.Close()
			return -1, fmt.Errorf("failed to show popup: %w", err)
		}
	}
	s.shown = true
	return s.reg.Selected(), nil
}

// Commit focuses the selected window.
func (s *Switcher) Commit() error {
	rec, err := s.reg.Commit()
	if err != nil {
		return err
	}
	logger.WithComponent("switcher").Debug().Stringer("id", rec.ID).Str("title", rec.Title).Msg("Commit")
	return nil
}

// Hide takes the popup down, focuses the selection and drops the
// registry. A failed focus is logged; the MRU list stays as it was.
func (s *Switcher) Hide() {
	if !s.shown {
		return
	}
	if s.popup != nil {
		s.popup.Hide()
	}
	if err := s.Commit(); err != nil {
		logger.WithComponent("switcher").Warn().Err(err).Msg("Hide: commit failed")
	}
	s.reg.Close()
	s.shown = false
}

// Dump logs the state at info level.
func (s *Switcher) Dump() {
	st := s.Snapshot()
	logger.WithComponent("switcher").Info().
		Str("backend", string(st.Backend)).
		Bool("shown", st.Shown).
		Int("mru", len(st.MRU)).
		Int("tombstones", st.Tombstones).
		Int("registry", len(st.Windows)).
		Int("selected", st.Selected).
		Int("icon_apps", st.Icons.Apps).
		Int("icons_decoded", st.IconsDecoded).
		Str("desktops", string(st.Policy.Desktops)).
		Str("screens", string(st.Policy.Screens)).
		Msg("State dump")
}

func directionOf(backward bool) registry.Direction {
	if backward {
		return registry.Backward
	}
	return registry.Forward
}
