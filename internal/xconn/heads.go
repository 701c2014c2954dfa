package xconn

import (
	"fmt"

	xgbxinerama "github.com/BurntSushi/xgb/xinerama"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xinerama"
	"github.com/BurntSushi/xgbutil/xrect"

	"github.com/bryanchriswhite/alttab/internal/logger"
	"github.com/bryanchriswhite/alttab/internal/window"
)

// ViewportMode selects which screen area counts as "current".
type ViewportMode string

const (
	// ViewportFocus is the head holding the focused window.
	ViewportFocus ViewportMode = "focus"
	// ViewportPointer is the head under the pointer.
	ViewportPointer ViewportMode = "pointer"
	// ViewportTotal is the whole root window.
	ViewportTotal ViewportMode = "total"
)

// ParseViewportMode validates a config value.
func ParseViewportMode(s string) (ViewportMode, error) {
	switch m := ViewportMode(s); m {
	case ViewportFocus, ViewportPointer, ViewportTotal:
		return m, nil
	case "":
		return ViewportFocus, nil
	}
	return "", fmt.Errorf("unknown viewport mode %q (use focus, pointer or total)", s)
}

// Heads returns the physical monitors, or the root window alone when
// Xinerama is not available.
func (c *Conn) Heads() []window.Geometry {
	screen := c.X.Screen()
	whole := []window.Geometry{{Width: int(screen.WidthInPixels), Height: int(screen.HeightInPixels)}}

	if err := xgbxinerama.Init(c.X.Conn()); err != nil {
		logger.WithComponent("xconn").Debug().Err(err).Msg("Heads: no Xinerama, using root")
		return whole
	}
	heads, err := xinerama.PhysicalHeads(c.X)
	if err != nil || len(heads) == 0 {
		return whole
	}
	out := make([]window.Geometry, len(heads))
	for i, h := range heads {
		out[i] = geometryOf(h)
	}
	return out
}

// Viewport returns the screen area for mode.
func (c *Conn) Viewport(mode ViewportMode) window.Geometry {
	heads := c.Heads()
	switch mode {
	case ViewportTotal:
		screen := c.X.Screen()
		return window.Geometry{Width: int(screen.WidthInPixels), Height: int(screen.HeightInPixels)}
	case ViewportPointer:
		ptr, err := xproto.QueryPointer(c.X.Conn(), c.root).Reply()
		if err != nil {
			return heads[0]
		}
		return headAt(heads, int(ptr.RootX), int(ptr.RootY))
	default:
		focus, err := c.InputFocus()
		if err != nil || focus == window.None || focus == c.Root() {
			return heads[0]
		}
		g, err := c.Geometry(focus)
		if err != nil {
			return heads[0]
		}
		return headOverlapping(heads, g)
	}
}

// ViewportFunc binds mode for the switcher.
func (c *Conn) ViewportFunc(mode ViewportMode) func() window.Geometry {
	return func() window.Geometry {
		return c.Viewport(mode)
	}
}

func headAt(heads []window.Geometry, x, y int) window.Geometry {
	for _, h := range heads {
		if x >= h.X && x < h.X+h.Width && y >= h.Y && y < h.Y+h.Height {
			return h
		}
	}
	return heads[0]
}

// headOverlapping picks the head sharing the largest area with g.
func headOverlapping(heads []window.Geometry, g window.Geometry) window.Geometry {
	target := rectOf(g)
	best, bestArea := heads[0], 0
	for _, h := range heads {
		if area := xrect.IntersectArea(rectOf(h), target); area > bestArea {
			best, bestArea = h, area
		}
	}
	return best
}

func rectOf(g window.Geometry) xrect.Rect {
	return xrect.New(g.X, g.Y, g.Width, g.Height)
}

func geometryOf(r xrect.Rect) window.Geometry {
	return window.Geometry{X: r.X(), Y: r.Y(), Width: r.Width(), Height: r.Height()}
}
