// Package windowtest provides in-memory stand-ins for the X connection and
// the window manager backends.
package windowtest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/bryanchriswhite/alttab/internal/window"
)

// ErrBadWindow is returned for windows the fake does not know.
var ErrBadWindow = errors.New("BadWindow")

// DefaultRoot is the root window id of a new FakeConn.
const DefaultRoot window.ID = 0x100

// ClientMessage is a recorded SendClientMessage call.
type ClientMessage struct {
	Window window.ID
	Type   string
	Data   []uint32
}

// FakeConn is an in-memory window.Conn.
type FakeConn struct {
	mu sync.Mutex

	RootID   window.ID
	atoms    map[string]uint32
	props    map[window.ID]map[string]*window.Property
	children map[window.ID][]window.ID
	viewable map[window.ID]bool
	geometry map[window.ID]window.Geometry
	focus    window.ID

	Messages []ClientMessage
	Raised   []window.ID
	Focused  []window.ID
	Watched  map[window.ID]bool

	// OnClientMessage runs after a message is recorded, with the lock
	// released, so it may change properties the way a WM would.
	OnClientMessage func(ClientMessage)
}

// NewFakeConn creates a connection with just a root window.
func NewFakeConn() *FakeConn {
	c := &FakeConn{
		RootID:   DefaultRoot,
		atoms:    make(map[string]uint32),
		props:    make(map[window.ID]map[string]*window.Property),
		children: make(map[window.ID][]window.ID),
		viewable: make(map[window.ID]bool),
		geometry: make(map[window.ID]window.Geometry),
		Watched:  make(map[window.ID]bool),
	}
	c.geometry[c.RootID] = window.Geometry{Width: 1920, Height: 1080}
	c.viewable[c.RootID] = true
	return c
}

// AddWindow creates win as a viewable child of parent.
func (c *FakeConn) AddWindow(parent, win window.ID, geom window.Geometry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.children[parent] = append(c.children[parent], win)
	c.viewable[win] = true
	c.geometry[win] = geom
}

// DestroyWindow forgets win and its properties.
func (c *FakeConn) DestroyWindow(win window.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.geometry, win)
	delete(c.viewable, win)
	delete(c.props, win)
	for parent, kids := range c.children {
		out := kids[:0]
		for _, k := range kids {
			if k != win {
				out = append(out, k)
			}
		}
		c.children[parent] = out
	}
}

// SetViewable changes the map state of win.
func (c *FakeConn) SetViewable(win window.ID, viewable bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewable[win] = viewable
}

// SetFocus sets what InputFocus reports.
func (c *FakeConn) SetFocus(win window.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.focus = win
}

func (c *FakeConn) setProp(win window.ID, name string, p *window.Property) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.props[win] == nil {
		c.props[win] = make(map[string]*window.Property)
	}
	c.props[win][name] = p
}

// SetCardinals stores a format 32 CARDINAL property.
func (c *FakeConn) SetCardinals(win window.ID, name string, values ...uint32) {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		xgb.Put32(buf[4*i:], v)
	}
	c.setProp(win, name, &window.Property{Type: "CARDINAL", Format: 32, Value: buf})
}

// SetWindows stores a WINDOW list property.
func (c *FakeConn) SetWindows(win window.ID, name string, ids ...window.ID) {
	values := make([]uint32, len(ids))
	for i, id := range ids {
		values[i] = uint32(id)
	}
	c.SetCardinals(win, name, values...)
}

// SetAtoms stores an ATOM list property, interning the names.
func (c *FakeConn) SetAtoms(win window.ID, name string, atoms ...string) {
	values := make([]uint32, len(atoms))
	for i, a := range atoms {
		values[i], _ = c.Atom(a)
	}
	c.SetCardinals(win, name, values...)
}

// SetString stores a format 8 text property.
func (c *FakeConn) SetString(win window.ID, name, value string) {
	c.setProp(win, name, &window.Property{Type: "UTF8_STRING", Format: 8, Value: []byte(value)})
}

// SetClass stores WM_CLASS.
func (c *FakeConn) SetClass(win window.ID, instance, class string) {
	c.setProp(win, "WM_CLASS", &window.Property{
		Type:   "STRING",
		Format: 8,
		Value:  []byte(instance + "\x00" + class + "\x00"),
	})
}

// DeleteProperty removes a property.
func (c *FakeConn) DeleteProperty(win window.ID, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.props[win], name)
}

// MessagesOfType returns the recorded client messages of one type.
func (c *FakeConn) MessagesOfType(msgType string) []ClientMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []ClientMessage
	for _, m := range c.Messages {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

func (c *FakeConn) Root() window.ID {
	return c.RootID
}

func (c *FakeConn) Atom(name string) (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if a, ok := c.atoms[name]; ok {
		return a, nil
	}
	a := uint32(len(c.atoms) + 1000)
	c.atoms[name] = a
	return a, nil
}

// AtomName reverses Atom.
func (c *FakeConn) AtomName(atom uint32) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, a := range c.atoms {
		if a == atom {
			return name
		}
	}
	return ""
}

func (c *FakeConn) Property(win window.ID, name string) (*window.Property, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.props[win][name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%s on %s: %w", name, win, window.ErrNoProperty)
}

func (c *FakeConn) Children(win window.ID) ([]window.ID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.geometry[win]; !ok {
		return nil, ErrBadWindow
	}
	return append([]window.ID(nil), c.children[win]...), nil
}

func (c *FakeConn) Viewable(win window.ID) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.viewable[win]
	if !ok {
		return false, ErrBadWindow
	}
	return v, nil
}

func (c *FakeConn) Geometry(win window.ID) (window.Geometry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.geometry[win]
	if !ok {
		return window.Geometry{}, ErrBadWindow
	}
	return g, nil
}

func (c *FakeConn) InputFocus() (window.ID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focus, nil
}

func (c *FakeConn) SendClientMessage(win window.ID, msgType string, data ...uint32) error {
	msg := ClientMessage{Window: win, Type: msgType, Data: append([]uint32(nil), data...)}
	c.mu.Lock()
	c.Messages = append(c.Messages, msg)
	hook := c.OnClientMessage
	c.mu.Unlock()
	if hook != nil {
		hook(msg)
	}
	return nil
}

func (c *FakeConn) Raise(win window.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.geometry[win]; !ok {
		return ErrBadWindow
	}
	c.Raised = append(c.Raised, win)
	return nil
}

func (c *FakeConn) SetInputFocus(win window.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.viewable[win] {
		return errors.New("BadMatch")
	}
	c.focus = win
	c.Focused = append(c.Focused, win)
	return nil
}

func (c *FakeConn) WatchWindow(win window.ID, focus bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Watched[win] = focus
	return nil
}
