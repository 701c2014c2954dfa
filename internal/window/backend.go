package window

import (
	"errors"
	"fmt"
)

var (
	// ErrBadIndex is returned by SetFocus for an index outside the last
	// enumeration.
	ErrBadIndex = errors.New("window index out of range")

	// ErrNoClientList is returned when an EWMH WM does not publish any
	// client list property.
	ErrNoClientList = errors.New("no client list")
)

// Kind identifies a backend variant.
type Kind string

const (
	KindAuto      Kind = "auto"
	KindNone      Kind = "none"
	KindEWMH      Kind = "ewmh"
	KindRatpoison Kind = "ratpoison"
	KindLegacy    Kind = "legacy"
)

// ParseKind converts a config value into a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindAuto, KindNone, KindEWMH, KindRatpoison, KindLegacy:
		return k, nil
	case "":
		return KindAuto, nil
	}
	return "", fmt.Errorf("unknown window manager kind %q (use auto, none, ewmh, ratpoison or legacy)", s)
}

// Backend is the capability set every window manager flavor implements.
type Backend interface {
	// Kind returns the backend variant.
	Kind() Kind

	// Probe cheaply checks whether the protocol is usable in this session.
	Probe() bool

	// Startup performs one-time setup after the backend was selected.
	Startup() error

	// Enumerate returns the eligible windows for one switcher invocation.
	// The returned slice is remembered for SetFocus.
	Enumerate(filter Filter) ([]Record, error)

	// SetFocus activates the record at index of the last enumeration.
	SetFocus(index int) error

	// ActiveWindow returns the window the WM considers active.
	ActiveWindow() (ID, bool)

	// SkipInTaskbar reports whether win asks to be hidden from task lists.
	SkipInTaskbar(win ID) bool
}

// recordAt is shared index validation for SetFocus implementations.
func recordAt(records []Record, index int) (Record, error) {
	if index < 0 || index >= len(records) {
		return Record{}, fmt.Errorf("%w: %d of %d", ErrBadIndex, index, len(records))
	}
	return records[index], nil
}
