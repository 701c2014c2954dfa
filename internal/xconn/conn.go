// Package xconn is the X11 transport: it implements window.Conn, delivers
// events to the switcher loop and reads window icons and screen heads.
package xconn

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xprop"

	"github.com/bryanchriswhite/alttab/internal/logger"
	"github.com/bryanchriswhite/alttab/internal/window"
)

// Conn is a connection to the X server.
type Conn struct {
	X    *xgbutil.XUtil
	root xproto.Window
}

// Open connects to the display named by $DISPLAY.
func Open() (*Conn, error) {
	X, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}
	keybind.Initialize(X)

	c := &Conn{X: X, root: X.RootWin()}
	logger.WithComponent("xconn").Debug().
		Stringer("root", window.ID(c.root)).
		Uint16("width", X.Screen().WidthInPixels).
		Uint16("height", X.Screen().HeightInPixels).
		Msg("Connected to X server")
	return c, nil
}

// Close closes the connection.
func (c *Conn) Close() {
	c.X.Conn().Close()
}

// XConn returns the raw protocol connection.
func (c *Conn) XConn() *xgb.Conn {
	return c.X.Conn()
}

// Screen returns the default screen.
func (c *Conn) Screen() *xproto.ScreenInfo {
	return c.X.Screen()
}

func (c *Conn) Root() window.ID {
	return window.ID(c.root)
}

func (c *Conn) Atom(name string) (uint32, error) {
	a, err := xprop.Atm(c.X, name)
	if err != nil {
		return 0, fmt.Errorf("failed to intern %s: %w", name, err)
	}
	return uint32(a), nil
}

func (c *Conn) Property(win window.ID, name string) (*window.Property, error) {
	atom, err := xprop.Atm(c.X, name)
	if err != nil {
		return nil, fmt.Errorf("failed to intern %s: %w", name, err)
	}
	reply, err := xproto.GetProperty(
		c.X.Conn(),
		false,
		xproto.Window(win),
		atom,
		xproto.GetPropertyTypeAny,
		0,
		(1<<32)-1,
	).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get %s on %s: %w", name, win, err)
	}
	if reply.Format == 0 {
		return nil, fmt.Errorf("%w: %s on %s", window.ErrNoProperty, name, win)
	}

	typeName, err := xprop.AtomName(c.X, reply.Type)
	if err != nil {
		typeName = ""
	}
	return &window.Property{Type: typeName, Format: reply.Format, Value: reply.Value}, nil
}

func (c *Conn) Children(win window.ID) ([]window.ID, error) {
	tree, err := xproto.QueryTree(c.X.Conn(), xproto.Window(win)).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to query tree of %s: %w", win, err)
	}
	out := make([]window.ID, len(tree.Children))
	for i, child := range tree.Children {
		out[i] = window.ID(child)
	}
	return out, nil
}

func (c *Conn) Viewable(win window.ID) (bool, error) {
	attrs, err := xproto.GetWindowAttributes(c.X.Conn(), xproto.Window(win)).Reply()
	if err != nil {
		return false, fmt.Errorf("failed to get attributes of %s: %w", win, err)
	}
	return attrs.MapState == xproto.MapStateViewable, nil
}

func (c *Conn) Geometry(win window.ID) (window.Geometry, error) {
	geom, err := xproto.GetGeometry(c.X.Conn(), xproto.Drawable(win)).Reply()
	if err != nil {
		return window.Geometry{}, fmt.Errorf("failed to get geometry of %s: %w", win, err)
	}
	g := window.Geometry{
		X:      int(geom.X),
		Y:      int(geom.Y),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}
	if xproto.Window(win) == c.root {
		return g, nil
	}

	// Reparenting WMs put clients inside frames, so translate to the root.
	tr, err := xproto.TranslateCoordinates(c.X.Conn(), xproto.Window(win), c.root, 0, 0).Reply()
	if err != nil {
		return g, nil
	}
	g.X, g.Y = int(tr.DstX), int(tr.DstY)
	return g, nil
}

func (c *Conn) InputFocus() (window.ID, error) {
	reply, err := xproto.GetInputFocus(c.X.Conn()).Reply()
	if err != nil {
		return window.None, fmt.Errorf("failed to get input focus: %w", err)
	}
	return window.ID(reply.Focus), nil
}

func (c *Conn) SendClientMessage(win window.ID, msgType string, data ...uint32) error {
	args := make([]interface{}, len(data))
	for i, d := range data {
		args[i] = int(d)
	}
	if err := ewmh.ClientEvent(c.X, xproto.Window(win), msgType, args...); err != nil {
		return fmt.Errorf("failed to send %s for %s: %w", msgType, win, err)
	}
	return nil
}

func (c *Conn) Raise(win window.ID) error {
	err := xproto.ConfigureWindowChecked(
		c.X.Conn(),
		xproto.Window(win),
		xproto.ConfigWindowStackMode,
		[]uint32{xproto.StackModeAbove},
	).Check()
	if err != nil {
		return fmt.Errorf("failed to raise %s: %w", win, err)
	}
	return nil
}

func (c *Conn) SetInputFocus(win window.ID) error {
	err := xproto.SetInputFocusChecked(
		c.X.Conn(),
		xproto.InputFocusPointerRoot,
		xproto.Window(win),
		xproto.TimeCurrentTime,
	).Check()
	if err != nil {
		return fmt.Errorf("failed to focus %s: %w", win, err)
	}
	return nil
}

func (c *Conn) WatchWindow(win window.ID, focus bool) error {
	mask := uint32(xproto.EventMaskStructureNotify)
	if focus {
		mask |= xproto.EventMaskFocusChange
	}
	err := xproto.ChangeWindowAttributesChecked(
		c.X.Conn(),
		xproto.Window(win),
		xproto.CwEventMask,
		[]uint32{mask},
	).Check()
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", win, err)
	}
	return nil
}

// WatchRoot subscribes to root property changes and to creation and
// destruction of top-level windows.
func (c *Conn) WatchRoot() error {
	err := xproto.ChangeWindowAttributesChecked(
		c.X.Conn(),
		c.root,
		xproto.CwEventMask,
		[]uint32{xproto.EventMaskPropertyChange | xproto.EventMaskSubstructureNotify},
	).Check()
	if err != nil {
		return fmt.Errorf("failed to watch root window: %w", err)
	}
	return nil
}

var _ window.Conn = (*Conn)(nil)
