package window

import "fmt"

// DesktopMode selects which desktops contribute windows.
type DesktopMode string

const (
	DesktopsCurrent   DesktopMode = "current"
	DesktopsAll       DesktopMode = "all"
	DesktopsNoSpecial DesktopMode = "nospecial"
	DesktopsNoCurrent DesktopMode = "nocurrent"
)

// ScreenMode selects which screens contribute windows.
type ScreenMode string

const (
	ScreensCurrent ScreenMode = "current"
	ScreensAll     ScreenMode = "all"
)

// ParseDesktopMode validates a config value.
func ParseDesktopMode(s string) (DesktopMode, error) {
	switch m := DesktopMode(s); m {
	case DesktopsCurrent, DesktopsAll, DesktopsNoSpecial, DesktopsNoCurrent:
		return m, nil
	}
	return "", fmt.Errorf("unknown desktops mode %q (use current, all, nospecial or nocurrent)", s)
}

// ParseScreenMode validates a config value.
func ParseScreenMode(s string) (ScreenMode, error) {
	switch m := ScreenMode(s); m {
	case ScreensCurrent, ScreensAll:
		return m, nil
	}
	return "", fmt.Errorf("unknown screens mode %q (use current or all)", s)
}

// Filter decides whether a window shows up in the switcher. It is a plain
// value: the caller fills in the policy and the viewport, the backend fills
// in the current desktop with WithCurrent.
type Filter struct {
	Desktops          DesktopMode `json:"desktops"`
	Screens           ScreenMode  `json:"screens"`
	IgnoreSkipTaskbar bool        `json:"ignore_skip_taskbar"`

	// Current is the desktop the WM reports as current.
	Current Desktop `json:"current"`
	// Viewport is the active screen area. An empty viewport disables the
	// screen check.
	Viewport Geometry `json:"viewport"`
}

// WithCurrent returns a copy of f with the current desktop set.
func (f Filter) WithCurrent(d Desktop) Filter {
	f.Current = d
	return f
}

// Desktop applies the desktop policy. Unknown desktops on either side
// always pass.
func (f Filter) Desktop(d Desktop) bool {
	switch f.Desktops {
	case DesktopsAll:
		return true
	case DesktopsNoSpecial:
		return d != DesktopAll
	case DesktopsNoCurrent:
		if !d.Known() || !f.Current.Known() {
			return true
		}
		return d != f.Current && d != DesktopAll
	default:
		if !d.Known() || !f.Current.Known() {
			return true
		}
		return d == f.Current || d == DesktopAll
	}
}

// Screen applies the screen policy. Windows with unknown geometry pass.
func (f Filter) Screen(g Geometry) bool {
	if f.Screens != ScreensCurrent || f.Viewport.Empty() || g.Empty() {
		return true
	}
	return g.Overlaps(f.Viewport)
}

// Taskbar applies the skip-taskbar policy.
func (f Filter) Taskbar(skip bool) bool {
	return f.IgnoreSkipTaskbar || !skip
}

// Allows combines the desktop and screen checks for r.
func (f Filter) Allows(r Record) bool {
	return f.Desktop(r.Desktop) && f.Screen(r.Geometry)
}
