package window

import (
	"errors"
	"strings"

	"github.com/BurntSushi/xgb"
)

// ErrNoProperty is returned by Conn.Property when the window does not carry
// the requested property.
var ErrNoProperty = errors.New("no such property")

// Conn is the slice of the X protocol the backends need. internal/xconn
// implements it on top of xgb/xgbutil; tests use windowtest.FakeConn.
type Conn interface {
	// Root returns the root window of the default screen.
	Root() ID

	// Atom interns name.
	Atom(name string) (uint32, error)

	// Property reads a whole property of any type.
	Property(win ID, name string) (*Property, error)

	// Children lists the direct children of win in stacking order.
	Children(win ID) ([]ID, error)

	// Viewable reports whether win and all its ancestors are mapped.
	Viewable(win ID) (bool, error)

	// Geometry returns win's rectangle in root coordinates.
	Geometry(win ID) (Geometry, error)

	// InputFocus returns the window holding the keyboard focus.
	InputFocus() (ID, error)

	// SendClientMessage sends a 32-bit format client message about win to
	// the root window with substructure redirect/notify masks.
	SendClientMessage(win ID, msgType string, data ...uint32) error

	Raise(win ID) error
	SetInputFocus(win ID) error

	// WatchWindow subscribes to structure (destroy) events on win and,
	// when focus is set, to focus change events too.
	WatchWindow(win ID, focus bool) error
}

// Property is a raw property value.
type Property struct {
	Type   string
	Format byte
	Value  []byte
}

// Cardinals decodes a format 32 property.
func (p *Property) Cardinals() []uint32 {
	if p == nil || p.Format != 32 {
		return nil
	}
	out := make([]uint32, 0, len(p.Value)/4)
	for i := 0; i+4 <= len(p.Value); i += 4 {
		out = append(out, xgb.Get32(p.Value[i:]))
	}
	return out
}

// Cardinal returns the first 32-bit value.
func (p *Property) Cardinal() (uint32, bool) {
	v := p.Cardinals()
	if len(v) == 0 {
		return 0, false
	}
	return v[0], true
}

// Windows decodes a WINDOW list property.
func (p *Property) Windows() []ID {
	nums := p.Cardinals()
	out := make([]ID, len(nums))
	for i, n := range nums {
		out[i] = ID(n)
	}
	return out
}

// String decodes a single text property, dropping trailing NULs.
func (p *Property) String() string {
	if p == nil || p.Format != 8 {
		return ""
	}
	return strings.TrimRight(string(p.Value), "\x00")
}

// Strings decodes a NUL separated string list such as WM_CLASS.
func (p *Property) Strings() []string {
	s := p.String()
	if s == "" {
		return nil
	}
	return strings.Split(s, "\x00")
}
