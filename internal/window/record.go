package window

import (
	"fmt"
	"image"
)

// ID is a foreign X window identifier.
type ID uint32

// None is the zero window.
const None ID = 0

func (id ID) String() string {
	return fmt.Sprintf("0x%x", uint32(id))
}

// Desktop is a desktop/workspace number as reported by the window manager.
type Desktop uint32

const (
	// DesktopUnknown marks a record whose backend could not report a desktop.
	// WMs use 0, 1, 0xFFFFFFFF and MaxInt inconsistently, so the marker must
	// differ from all of them.
	DesktopUnknown Desktop = 0xdead

	// DesktopAll is the EWMH "sticky" desktop (-1).
	DesktopAll Desktop = 0xFFFFFFFF
)

// Known reports whether d carries a real value.
func (d Desktop) Known() bool {
	return d != DesktopUnknown
}

// Geometry is a window rectangle in root coordinates.
type Geometry struct {
	X      int `json:"x" mapstructure:"x"`
	Y      int `json:"y" mapstructure:"y"`
	Width  int `json:"width" mapstructure:"width"`
	Height int `json:"height" mapstructure:"height"`
}

// Empty reports whether g has no area.
func (g Geometry) Empty() bool {
	return g.Width <= 0 || g.Height <= 0
}

// Overlaps reports whether g and o share at least one pixel.
func (g Geometry) Overlaps(o Geometry) bool {
	if g.Empty() || o.Empty() {
		return false
	}
	return g.X < o.X+o.Width && o.X < g.X+g.Width &&
		g.Y < o.Y+o.Height && o.Y < g.Y+g.Height
}

// Record is one eligible window in a switcher invocation.
type Record struct {
	ID        ID       `json:"id"`
	BackendID int      `json:"backend_id,omitempty"` // ratpoison window number
	Title     string   `json:"title"`
	Class     []string `json:"class,omitempty"` // WM_CLASS instance and class
	Depth     int      `json:"depth,omitempty"` // raw X recursion depth
	Desktop   Desktop  `json:"desktop"`
	Geometry  Geometry `json:"geometry"`
	Order     int      `json:"order"`

	// Index is the position in the backend's own enumeration, used for
	// Backend.SetFocus after the registry reordered the records.
	Index int `json:"-"`

	Icon image.Image `json:"-"`
	// IconOwned is set when Icon was produced for this record alone
	// (monochrome hint conversion) and must be dropped at hide time.
	IconOwned bool `json:"-"`
}

// ReleaseIcon drops an icon that belongs to this record only.
func (r *Record) ReleaseIcon() {
	if r.IconOwned {
		r.Icon = nil
		r.IconOwned = false
	}
}
