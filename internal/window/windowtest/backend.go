package windowtest

import (
	"fmt"

	"github.com/bryanchriswhite/alttab/internal/window"
)

// FakeBackend reports a fixed window set. Records keep their order; the
// eligibility filter is applied like the real backends do.
type FakeBackend struct {
	KindValue window.Kind
	Records   []window.Record
	Active    window.ID
	Skip      map[window.ID]bool

	EnumerateErr error
	FocusErr     error

	// Focused records the ids passed through SetFocus.
	Focused     []window.ID
	Enumerated  int
	LastFilter  window.Filter
	StartupDone bool

	last []window.Record
}

// NewFakeBackend creates an EWMH-flavored fake with the given windows.
func NewFakeBackend(records ...window.Record) *FakeBackend {
	return &FakeBackend{
		KindValue: window.KindEWMH,
		Records:   records,
		Skip:      make(map[window.ID]bool),
	}
}

// Rec builds a record with an unknown desktop.
func Rec(id window.ID, title string) window.Record {
	return window.Record{ID: id, Title: title, Desktop: window.DesktopUnknown}
}

func (b *FakeBackend) Kind() window.Kind {
	return b.KindValue
}

func (b *FakeBackend) Probe() bool {
	return true
}

func (b *FakeBackend) Startup() error {
	b.StartupDone = true
	return nil
}

func (b *FakeBackend) Enumerate(filter window.Filter) ([]window.Record, error) {
	b.Enumerated++
	b.LastFilter = filter
	if b.EnumerateErr != nil {
		b.last = nil
		return nil, b.EnumerateErr
	}
	out := make([]window.Record, 0, len(b.Records))
	for _, r := range b.Records {
		if !filter.Taskbar(b.Skip[r.ID]) || !filter.Allows(r) {
			continue
		}
		r.Index = len(out)
		out = append(out, r)
	}
	b.last = out
	return append([]window.Record(nil), out...), nil
}

func (b *FakeBackend) SetFocus(index int) error {
	if index < 0 || index >= len(b.last) {
		return fmt.Errorf("%w: %d", window.ErrBadIndex, index)
	}
	if b.FocusErr != nil {
		return b.FocusErr
	}
	id := b.last[index].ID
	b.Focused = append(b.Focused, id)
	b.Active = id
	return nil
}

func (b *FakeBackend) ActiveWindow() (window.ID, bool) {
	return b.Active, b.Active != window.None
}

func (b *FakeBackend) SkipInTaskbar(win window.ID) bool {
	return b.Skip[win]
}

// Remove drops a window from the reported set.
func (b *FakeBackend) Remove(id window.ID) {
	out := b.Records[:0]
	for _, r := range b.Records {
		if r.ID != id {
			out = append(out, r)
		}
	}
	b.Records = out
}
