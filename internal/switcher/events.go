package switcher

import (
	"github.com/bryanchriswhite/alttab/internal/logger"
	"github.com/bryanchriswhite/alttab/internal/window"
)

// Event is something the X server reported. The transport translates
// protocol events into these.
type Event interface {
	event()
}

// PropertyEvent reports a changed property.
type PropertyEvent struct {
	Window window.ID
	Atom   string
}

// FocusMode mirrors the X focus event modes.
type FocusMode int

const (
	FocusNormal FocusMode = iota
	FocusGrab
	FocusUngrab
	FocusWhileGrabbed
)

// FocusEvent reports a FocusIn (In set) or FocusOut.
type FocusEvent struct {
	Window window.ID
	Mode   FocusMode
	In     bool
}

// DestroyEvent reports a destroyed window.
type DestroyEvent struct {
	Window window.ID
}

// CreateEvent reports a new child of the root.
type CreateEvent struct {
	Window window.ID
}

// KeyEvent reports the grabbed chord; Backward is set when the backward
// modifier was held too.
type KeyEvent struct {
	Backward bool
}

// ReleaseEvent reports the release of the held modifier.
type ReleaseEvent struct{}

// ButtonEvent reports a pointer button on the popup.
type ButtonEvent struct {
	X, Y  int
	Press bool
}

// ExposeEvent asks for a redraw of the popup.
type ExposeEvent struct{}

func (PropertyEvent) event() {}
func (FocusEvent) event()    {}
func (DestroyEvent) event()  {}
func (CreateEvent) event()   {}
func (KeyEvent) event()      {}
func (ReleaseEvent) event()  {}
func (ButtonEvent) event()   {}
func (ExposeEvent) event()   {}

// OnForeignEvent dispatches one event. The MRU handlers are cheap and
// idempotent and never enumerate windows.
func (s *Switcher) OnForeignEvent(ev Event) error {
	switch e := ev.(type) {
	case PropertyEvent:
		s.onProperty(e)
	case FocusEvent:
		s.onFocus(e)
	case DestroyEvent:
		s.onDestroy(e)
	case CreateEvent:
		s.onCreate(e)
	case KeyEvent:
		dir := directionOf(e.Backward)
		if _, err := s.Cycle(dir); err != nil {
			return err
		}
	case ReleaseEvent:
		if s.shown {
			s.Hide()
		}
	case ButtonEvent:
		s.onButton(e)
	case ExposeEvent:
		if s.shown && s.popup != nil {
			s.popup.Redraw()
		}
	}
	s.publish()
	return nil
}

// onProperty follows _NET_ACTIVE_WINDOW on the root.
func (s *Switcher) onProperty(e PropertyEvent) {
	if e.Window != s.conn.Root() || e.Atom != window.ActiveWindowProperty {
		return
	}
	active, ok := s.backend.ActiveWindow()
	if !ok || s.ignored(active) {
		return
	}
	if !s.policy.Taskbar(s.backend.SkipInTaskbar(active)) {
		return
	}
	s.touchActive(active)
}

// onFocus follows the input focus when the WM does not publish the active
// window.
func (s *Switcher) onFocus(e FocusEvent) {
	if s.backend.Kind() == window.KindEWMH || !e.In {
		return
	}
	if e.Mode == FocusGrab || e.Mode == FocusUngrab {
		return
	}
	if s.ignored(e.Window) {
		return
	}
	s.touchActive(e.Window)
}

func (s *Switcher) onDestroy(e DestroyEvent) {
	if e.Window == window.None || e.Window == s.ownWindow() {
		return
	}
	if s.mru.Remove(e.Window) {
		logger.WithComponent("switcher").Debug().Stringer("id", e.Window).Msg("onDestroy: forgot window")
	}
}

// onCreate clears a tombstone left by an earlier window with the same id.
func (s *Switcher) onCreate(e CreateEvent) {
	s.mru.Revive(e.Window)
	s.watch(e.Window)
}

func (s *Switcher) onButton(e ButtonEvent) {
	if !s.shown || s.popup == nil {
		return
	}
	idx := s.popup.TileAt(e.X, e.Y)
	if idx < 0 {
		return
	}
	if e.Press {
		if s.reg.Select(idx) == nil {
			s.popup.Select(idx)
		}
		return
	}
	if s.reg.Select(idx) == nil {
		s.Hide()
	}
}

// ignored filters our own popup, which may already be destroyed, and the
// window already at the head.
func (s *Switcher) ignored(win window.ID) bool {
	if win == window.None || win == s.ownWindow() {
		return true
	}
	head, ok := s.mru.Head()
	return ok && head == win
}

func (s *Switcher) touchActive(win window.ID) {
	s.mru.Touch(win, true, true)
	s.watch(win)
	logger.WithComponent("switcher").Trace().Stringer("id", win).Msg("active window changed")
}

// watch asks for destroy notifications on win, and for focus changes when
// focus events drive the MRU list.
func (s *Switcher) watch(win window.ID) {
	if win == window.None {
		return
	}
	focus := s.backend.Kind() != window.KindEWMH
	if err := s.conn.WatchWindow(win, focus); err != nil {
		logger.WithComponent("switcher").Trace().Err(err).Stringer("id", win).Msg("watch: failed")
	}
}

func (s *Switcher) ownWindow() window.ID {
	if s.popup != nil {
		if w := s.popup.Window(); w != window.None {
			s.own = w
		}
	}
	return s.own
}
