package window

// Property names shared by the backends.
const (
	atomNetWMName          = "_NET_WM_NAME"
	atomWMName             = "WM_NAME"
	atomWMClass            = "WM_CLASS"
	atomNetActiveWindow    = "_NET_ACTIVE_WINDOW"
	atomNetCurrentDesktop  = "_NET_CURRENT_DESKTOP"
	atomWinWorkspace       = "_WIN_WORKSPACE"
	atomNetWMDesktop       = "_NET_WM_DESKTOP"
	atomNetClientStacking  = "_NET_CLIENT_LIST_STACKING"
	atomNetClientList      = "_NET_CLIENT_LIST"
	atomWinClientList      = "_WIN_CLIENT_LIST"
	atomNetWMState         = "_NET_WM_STATE"
	atomNetStateSkipTaskbr = "_NET_WM_STATE_SKIP_TASKBAR"
	atomNetSupportingCheck = "_NET_SUPPORTING_WM_CHECK"
	atomWinSupportingCheck = "_WIN_SUPPORTING_WM_CHECK"
)

// ActiveWindowProperty is the root property whose changes drive the MRU
// list on EWMH window managers.
const ActiveWindowProperty = atomNetActiveWindow

// Title returns the UTF-8 name of win, falling back to WM_NAME.
func Title(conn Conn, win ID) string {
	if p, err := conn.Property(win, atomNetWMName); err == nil {
		if s := p.String(); s != "" {
			return s
		}
	}
	if p, err := conn.Property(win, atomWMName); err == nil {
		return p.String()
	}
	return ""
}

// Class returns the WM_CLASS instance and class of win.
func Class(conn Conn, win ID) []string {
	p, err := conn.Property(win, atomWMClass)
	if err != nil {
		return nil
	}
	out := make([]string, 0, 2)
	for _, s := range p.Strings() {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// firstCardinal reads the first 32-bit value of the first property in names
// that is present.
func firstCardinal(conn Conn, win ID, names ...string) (uint32, bool) {
	for _, name := range names {
		p, err := conn.Property(win, name)
		if err != nil {
			continue
		}
		if v, ok := p.Cardinal(); ok {
			return v, true
		}
	}
	return 0, false
}

// newRecord collects the common per-window fields.
func newRecord(conn Conn, win ID) Record {
	rec := Record{
		ID:      win,
		Title:   Title(conn, win),
		Class:   Class(conn, win),
		Desktop: DesktopUnknown,
	}
	if g, err := conn.Geometry(win); err == nil {
		rec.Geometry = g
	}
	return rec
}

// activate asks an EWMH WM to activate win, then raises it and gives it
// the input focus if it is viewable. Order matters for some WMs.
func activate(conn Conn, win ID, viaEWMH bool) error {
	if viaEWMH {
		// source indication 2: pager
		if err := conn.SendClientMessage(win, atomNetActiveWindow, 2, 0, 0); err != nil {
			return err
		}
	}
	if err := conn.Raise(win); err != nil {
		return err
	}
	// SetInputFocus on an unviewable window is a BadMatch.
	if ok, err := conn.Viewable(win); err == nil && ok {
		return conn.SetInputFocus(win)
	}
	return nil
}
