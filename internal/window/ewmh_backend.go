package window

import (
	"fmt"
	"strings"
	"time"

	"github.com/bryanchriswhite/alttab/internal/logger"
)

const (
	// DesktopSwitchTimeout caps the wait for the WM to acknowledge a
	// desktop switch before the window is activated anyway.
	DesktopSwitchTimeout = 200 * time.Millisecond
	// DesktopSwitchPoll is the interval between current desktop reads.
	DesktopSwitchPoll = 10 * time.Millisecond
)

// EWMHFeatures describes the detected EWMH window manager.
type EWMHFeatures struct {
	WMName string `json:"wm_name"`
	// TryStackingListFirst is cleared for the rest of the session the first
	// time _NET_CLIENT_LIST_STACKING turns out to be absent.
	TryStackingListFirst bool `json:"try_stacking_list_first"`
}

// EWMHBackend talks to window managers implementing Extended Window Manager
// Hints.
type EWMHBackend struct {
	conn     Conn
	features EWMHFeatures
	records  []Record

	// Sleep and the poll constants are fields so tests can run the
	// desktop switch wait without real delays.
	Sleep        func(time.Duration)
	PollTimeout  time.Duration
	PollInterval time.Duration
}

// NewEWMHBackend creates an EWMH backend on conn.
func NewEWMHBackend(conn Conn) *EWMHBackend {
	return &EWMHBackend{
		conn:         conn,
		features:     EWMHFeatures{TryStackingListFirst: true},
		Sleep:        time.Sleep,
		PollTimeout:  DesktopSwitchTimeout,
		PollInterval: DesktopSwitchPoll,
	}
}

// Kind returns KindEWMH.
func (b *EWMHBackend) Kind() Kind {
	return KindEWMH
}

// Features returns what was detected so far.
func (b *EWMHBackend) Features() EWMHFeatures {
	return b.features
}

// WMName returns the name published by the EWMH supporting window, or "".
func WMName(conn Conn) string {
	var check ID
	for _, name := range []string{atomNetSupportingCheck, atomWinSupportingCheck} {
		if v, ok := firstCardinal(conn, conn.Root(), name); ok && v != 0 {
			check = ID(v)
			break
		}
	}
	if check == None {
		return ""
	}
	return Title(conn, check)
}

// Probe succeeds when a client list can be fetched at all. A WM calling
// itself ratpoison is left to the ratpoison backend.
func (b *EWMHBackend) Probe() bool {
	log := logger.WithComponent("ewmh")

	b.features.WMName = WMName(b.conn)
	if strings.Contains(strings.ToLower(b.features.WMName), "ratpoison") {
		log.Debug().Str("wm", b.features.WMName).Msg("Probe: ratpoison advertises EWMH, declining")
		return false
	}
	if _, err := b.clientList(); err != nil {
		log.Debug().Err(err).Msg("Probe: no client list")
		return false
	}
	log.Debug().Str("wm", b.features.WMName).Msg("Probe: EWMH window manager detected")
	return true
}

// Startup has nothing to prepare; root property events are selected by the
// transport.
func (b *EWMHBackend) Startup() error {
	logger.WithComponent("ewmh").Info().
		Str("wm", b.features.WMName).
		Bool("stacking_list", b.features.TryStackingListFirst).
		Msg("EWMH backend ready")
	return nil
}

// clientList prefers the stacking ordered list and falls back to the plain
// client lists. The stacking fallback is sticky.
func (b *EWMHBackend) clientList() ([]ID, error) {
	root := b.conn.Root()
	if b.features.TryStackingListFirst {
		p, err := b.conn.Property(root, atomNetClientStacking)
		if err == nil {
			return p.Windows(), nil
		}
		b.features.TryStackingListFirst = false
		logger.WithComponent("ewmh").Debug().Err(err).
			Msg("clientList: no stacking list, using plain client list from now on")
	}
	for _, name := range []string{atomNetClientList, atomWinClientList} {
		if p, err := b.conn.Property(root, name); err == nil {
			return p.Windows(), nil
		}
	}
	return nil, ErrNoClientList
}

// CurrentDesktop reads _NET_CURRENT_DESKTOP, then _WIN_WORKSPACE.
func (b *EWMHBackend) CurrentDesktop() Desktop {
	if v, ok := firstCardinal(b.conn, b.conn.Root(), atomNetCurrentDesktop, atomWinWorkspace); ok {
		return Desktop(v)
	}
	return DesktopUnknown
}

// DesktopOf reads _NET_WM_DESKTOP, then _WIN_WORKSPACE.
func (b *EWMHBackend) DesktopOf(win ID) Desktop {
	if v, ok := firstCardinal(b.conn, win, atomNetWMDesktop, atomWinWorkspace); ok {
		return Desktop(v)
	}
	return DesktopUnknown
}

// SkipInTaskbar looks for _NET_WM_STATE_SKIP_TASKBAR in _NET_WM_STATE.
func (b *EWMHBackend) SkipInTaskbar(win ID) bool {
	skip, err := b.conn.Atom(atomNetStateSkipTaskbr)
	if err != nil {
		return false
	}
	p, err := b.conn.Property(win, atomNetWMState)
	if err != nil {
		return false
	}
	for _, a := range p.Cardinals() {
		if a == skip {
			return true
		}
	}
	return false
}

// ActiveWindow reads _NET_ACTIVE_WINDOW from the root.
func (b *EWMHBackend) ActiveWindow() (ID, bool) {
	v, ok := firstCardinal(b.conn, b.conn.Root(), atomNetActiveWindow)
	if !ok || v == 0 {
		return None, false
	}
	return ID(v), true
}

// Enumerate lists the eligible clients.
func (b *EWMHBackend) Enumerate(filter Filter) ([]Record, error) {
	log := logger.WithComponent("ewmh")

	clients, err := b.clientList()
	if err != nil {
		b.records = nil
		return nil, err
	}

	filter = filter.WithCurrent(b.CurrentDesktop())
	records := make([]Record, 0, len(clients))
	skipped := 0
	for _, win := range clients {
		if !filter.Taskbar(b.SkipInTaskbar(win)) {
			skipped++
			continue
		}
		rec := newRecord(b.conn, win)
		rec.Desktop = b.DesktopOf(win)
		if !filter.Allows(rec) {
			skipped++
			continue
		}
		rec.Index = len(records)
		records = append(records, rec)
	}

	log.Debug().
		Int("clients", len(clients)).
		Int("eligible", len(records)).
		Int("skipped", skipped).
		Uint32("current_desktop", uint32(filter.Current)).
		Msg("Enumerate: summary")

	b.records = records
	return records, nil
}

// SetFocus switches to the record's desktop when needed, then activates it.
func (b *EWMHBackend) SetFocus(index int) error {
	rec, err := recordAt(b.records, index)
	if err != nil {
		return err
	}
	if _, err := b.conn.Geometry(rec.ID); err != nil {
		return fmt.Errorf("window %s is gone: %w", rec.ID, err)
	}

	current := b.CurrentDesktop()
	if rec.Desktop.Known() && rec.Desktop != DesktopAll && current.Known() && rec.Desktop != current {
		b.switchDesktop(rec.Desktop)
	}

	if err := activate(b.conn, rec.ID, true); err != nil {
		return fmt.Errorf("failed to activate window %s: %w", rec.ID, err)
	}
	return nil
}

// switchDesktop requests a desktop change and waits, bounded by
// PollTimeout, for the WM to report it. It never fails: activation follows
// either way.
func (b *EWMHBackend) switchDesktop(target Desktop) bool {
	log := logger.WithComponent("ewmh")

	if err := b.conn.SendClientMessage(b.conn.Root(), atomNetCurrentDesktop, uint32(target), 0); err != nil {
		log.Warn().Err(err).Uint32("desktop", uint32(target)).Msg("switchDesktop: request failed")
		return false
	}
	interval := b.PollInterval
	if interval <= 0 {
		interval = DesktopSwitchPoll
	}
	for waited := time.Duration(0); waited < b.PollTimeout; waited += interval {
		if b.CurrentDesktop() == target {
			return true
		}
		b.Sleep(interval)
	}
	if b.CurrentDesktop() == target {
		return true
	}
	log.Debug().
		Uint32("desktop", uint32(target)).
		Dur("timeout", b.PollTimeout).
		Msg("switchDesktop: WM did not confirm, activating anyway")
	return false
}
