package window

import (
	"fmt"

	"github.com/bryanchriswhite/alttab/internal/logger"
)

// Unlimited disables the recursion depth limit of the raw X walk.
const Unlimited = -1

// RawXBackend enumerates viewable windows by walking the window tree. It is
// used when no window manager runs at all.
type RawXBackend struct {
	conn     Conn
	kind     Kind
	maxDepth int
	// titleOnly restricts names to WM_NAME, as pre-EWMH managers set nothing
	// else reliably.
	titleOnly bool
	records   []Record
	component string
}

// NewRawXBackend creates the backend for sessions without a window manager.
// Only the root's direct children are considered unless maxDepth says
// otherwise.
func NewRawXBackend(conn Conn, maxDepth int) *RawXBackend {
	if maxDepth == 0 {
		maxDepth = 1
	}
	return &RawXBackend{conn: conn, kind: KindNone, maxDepth: maxDepth, component: "rawx"}
}

// Kind returns KindNone.
func (b *RawXBackend) Kind() Kind {
	return b.kind
}

// MaxDepth returns the effective recursion limit.
func (b *RawXBackend) MaxDepth() int {
	return b.maxDepth
}

// Probe always succeeds: any X server has a window tree.
func (b *RawXBackend) Probe() bool {
	return true
}

// Startup logs the walk parameters.
func (b *RawXBackend) Startup() error {
	logger.WithComponent(b.component).Info().
		Str("kind", string(b.kind)).
		Int("max_depth", b.maxDepth).
		Msg("Raw X backend ready")
	return nil
}

// Enumerate walks the tree from the root. Desktops are unknown here, so only
// the screen policy can exclude anything.
func (b *RawXBackend) Enumerate(filter Filter) ([]Record, error) {
	log := logger.WithComponent(b.component)

	records := make([]Record, 0, 16)
	skipped := 0
	var walk func(win ID, depth int)
	walk = func(win ID, depth int) {
		if depth != 0 {
			if ok, err := b.conn.Viewable(win); err == nil && ok {
				rec := b.record(win)
				rec.Depth = depth
				if filter.Allows(rec) {
					rec.Index = len(records)
					records = append(records, rec)
				} else {
					skipped++
				}
			}
		}
		if b.maxDepth != Unlimited && depth >= b.maxDepth {
			return
		}
		children, err := b.conn.Children(win)
		if err != nil {
			log.Debug().Err(err).Stringer("win", win).Msg("Enumerate: can't get window tree")
			return
		}
		for _, child := range children {
			walk(child, depth+1)
		}
	}
	walk(b.conn.Root(), 0)

	log.Debug().
		Int("eligible", len(records)).
		Int("skipped", skipped).
		Msg("Enumerate: summary")

	b.records = records
	return records, nil
}

func (b *RawXBackend) record(win ID) Record {
	if !b.titleOnly {
		return newRecord(b.conn, win)
	}
	rec := Record{ID: win, Desktop: DesktopUnknown}
	if p, err := b.conn.Property(win, atomWMName); err == nil {
		rec.Title = p.String()
	}
	rec.Class = Class(b.conn, win)
	if g, err := b.conn.Geometry(win); err == nil {
		rec.Geometry = g
	}
	return rec
}

// SetFocus sends the EWMH activate request for managers that honor it
// without advertising EWMH, then raises and focuses the window directly.
func (b *RawXBackend) SetFocus(index int) error {
	rec, err := recordAt(b.records, index)
	if err != nil {
		return err
	}
	if _, err := b.conn.Geometry(rec.ID); err != nil {
		return fmt.Errorf("window %s is gone: %w", rec.ID, err)
	}
	if err := activate(b.conn, rec.ID, true); err != nil {
		return fmt.Errorf("failed to focus window %s: %w", rec.ID, err)
	}
	return nil
}

// ActiveWindow returns the window holding the input focus.
func (b *RawXBackend) ActiveWindow() (ID, bool) {
	win, err := b.conn.InputFocus()
	if err != nil || win == None || win == b.conn.Root() {
		return None, false
	}
	return win, true
}

// SkipInTaskbar is never set without a window manager.
func (b *RawXBackend) SkipInTaskbar(win ID) bool {
	return false
}
