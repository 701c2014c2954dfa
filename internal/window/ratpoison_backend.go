package window

import (
	"fmt"
	"strings"

	"github.com/bryanchriswhite/alttab/internal/logger"
	"github.com/bryanchriswhite/alttab/internal/ratpoison"
)

// SwitcherName is the WM_NAME of the switcher popup.
const SwitcherName = "alttab"

// RatpoisonBackend enumerates and focuses windows through the ratpoison
// controller. Groups map onto desktops.
type RatpoisonBackend struct {
	conn   Conn
	exec   ratpoison.Executor
	client *ratpoison.Client

	// LookPath locates the controller; replaced in tests.
	LookPath func() (string, error)

	records []Record
}

// NewRatpoisonBackend creates a ratpoison backend. The controller is
// located by Probe.
func NewRatpoisonBackend(conn Conn, exec ratpoison.Executor) *RatpoisonBackend {
	return &RatpoisonBackend{
		conn:     conn,
		exec:     exec,
		LookPath: ratpoison.Locate,
	}
}

// Kind returns KindRatpoison.
func (b *RatpoisonBackend) Kind() Kind {
	return KindRatpoison
}

// Client returns the controller client, nil before a successful probe.
func (b *RatpoisonBackend) Client() *ratpoison.Client {
	return b.client
}

// Probe checks that ratpoison names itself on the root window and that
// its controller is installed.
func (b *RatpoisonBackend) Probe() bool {
	log := logger.WithComponent("ratpoison")

	p, err := b.conn.Property(b.conn.Root(), atomNetWMName)
	if err != nil {
		log.Debug().Err(err).Msg("Probe: no root _NET_WM_NAME")
		return false
	}
	name := p.String()
	if !strings.Contains(strings.ToLower(name), "ratpoison") {
		log.Debug().Str("wm", name).Msg("Probe: not ratpoison")
		return false
	}
	path, err := b.LookPath()
	if err != nil {
		log.Warn().Err(err).Msg("Probe: ratpoison is running but its executable is missing")
		return false
	}
	b.client = ratpoison.NewClient(b.exec, path)
	log.Debug().Str("path", path).Msg("Probe: ratpoison detected")
	return true
}

// Startup keeps ratpoison from framing the switcher popup. Failing to do
// so is cosmetic.
func (b *RatpoisonBackend) Startup() error {
	log := logger.WithComponent("ratpoison")
	if b.client == nil {
		path, err := b.LookPath()
		if err != nil {
			return err
		}
		b.client = ratpoison.NewClient(b.exec, path)
	}
	added, err := b.client.Unmanage(SwitcherName)
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("Startup: unmanage registration failed")
	case added:
		log.Debug().Msg("Startup: registered in unmanaged list")
	default:
		log.Debug().Msg("Startup: already in unmanaged list")
	}
	log.Info().Str("path", b.client.Path()).Msg("Ratpoison backend ready")
	return nil
}

// Enumerate queries the current group only when the desktop policy allows
// nothing else, and every group otherwise. A failing controller gives an
// empty list; unparseable output is returned as an error.
func (b *RatpoisonBackend) Enumerate(filter Filter) ([]Record, error) {
	b.records = nil
	if b.client == nil {
		return nil, nil
	}

	if filter.Desktops == DesktopsCurrent {
		rows, err := b.client.Windows()
		if err != nil {
			return nil, b.enumerateError(err)
		}
		b.records = b.collect(rows, filter, DesktopUnknown)
		return b.records, nil
	}

	log := logger.WithComponent("ratpoison")
	groups, err := b.client.Groups()
	if err != nil {
		return nil, b.enumerateError(err)
	}
	current := DesktopUnknown
	for _, g := range groups {
		if g.Current {
			current = Desktop(g.Number)
		}
	}
	filter = filter.WithCurrent(current)

	var records []Record
	for _, g := range groups {
		rows, err := b.client.WindowsInGroup(g.Number)
		if err != nil {
			if ratpoison.IsProtocolError(err) {
				b.restoreGroup(current)
				return nil, err
			}
			log.Warn().Err(err).Int("group", g.Number).Msg("Enumerate: group query failed")
			continue
		}
		for _, rec := range b.collect(rows, filter, Desktop(g.Number)) {
			rec.Index = len(records)
			records = append(records, rec)
		}
	}
	b.restoreGroup(current)

	log.Debug().
		Int("groups", len(groups)).
		Int("eligible", len(records)).
		Uint32("current_group", uint32(current)).
		Msg("Enumerate: summary")

	b.records = records
	return records, nil
}

func (b *RatpoisonBackend) enumerateError(err error) error {
	if ratpoison.IsProtocolError(err) {
		return err
	}
	logger.WithComponent("ratpoison").Warn().Err(err).Msg("Enumerate: can't exec ratpoison")
	return nil
}

func (b *RatpoisonBackend) restoreGroup(current Desktop) {
	if !current.Known() {
		return
	}
	if err := b.client.SelectGroup(int(current)); err != nil {
		logger.WithComponent("ratpoison").Warn().Err(err).Msg("Enumerate: can't restore current group")
	}
}

func (b *RatpoisonBackend) collect(rows []ratpoison.Window, filter Filter, desktop Desktop) []Record {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		win := ID(row.XID)
		rec := Record{
			ID:        win,
			BackendID: row.Number,
			Title:     row.Title,
			Class:     Class(b.conn, win),
			Desktop:   desktop,
		}
		if rec.Title == "" {
			rec.Title = Title(b.conn, win)
		}
		if g, err := b.conn.Geometry(win); err == nil {
			rec.Geometry = g
		}
		if !filter.Allows(rec) {
			continue
		}
		rec.Index = len(records)
		records = append(records, rec)
	}
	return records
}

// SetFocus selects the window by its ratpoison number, switching groups
// first when the window was found in a specific one.
func (b *RatpoisonBackend) SetFocus(index int) error {
	rec, err := recordAt(b.records, index)
	if err != nil {
		return err
	}
	if b.client == nil {
		return fmt.Errorf("ratpoison controller not located")
	}
	group := -1
	if rec.Desktop.Known() {
		group = int(rec.Desktop)
	}
	if err := b.client.Select(group, rec.BackendID); err != nil {
		return fmt.Errorf("failed to select window %d: %w", rec.BackendID, err)
	}
	return nil
}

// ActiveWindow asks ratpoison for the current window, falling back to the
// X input focus.
func (b *RatpoisonBackend) ActiveWindow() (ID, bool) {
	if b.client != nil {
		if rows, err := b.client.Windows(); err == nil {
			for _, row := range rows {
				if row.Current() {
					return ID(row.XID), true
				}
			}
		}
	}
	win, err := b.conn.InputFocus()
	if err != nil || win == None || win == b.conn.Root() {
		return None, false
	}
	return win, true
}

// SkipInTaskbar is not part of the ratpoison protocol.
func (b *RatpoisonBackend) SkipInTaskbar(win ID) bool {
	return false
}
