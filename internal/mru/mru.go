// Package mru keeps windows in most recently used order across switcher
// invocations.
package mru

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/bryanchriswhite/alttab/internal/logger"
	"github.com/bryanchriswhite/alttab/internal/window"
)

// MaxTombstones bounds the memory of destroyed ids.
const MaxTombstones = 1024

// Entry is one window in recency order.
type Entry struct {
	ID window.ID `json:"id"`
	// Seq is the value of the touch counter when the entry was last
	// inserted or moved.
	Seq uint64 `json:"seq"`
}

// List is an ordered set of window ids. The front is the most recently
// activated window. Insert, move and remove are O(1).
//
// Ids removed on a destroy notification are remembered as tombstones until
// the id is touched again, so a backend still reporting a dead window
// cannot bring it back.
type List struct {
	entries    *orderedmap.OrderedMap[window.ID, uint64]
	tombstones *orderedmap.OrderedMap[window.ID, struct{}]
	seq        uint64
}

// New creates an empty list.
func New() *List {
	return &List{
		entries:    orderedmap.New[window.ID, uint64](),
		tombstones: orderedmap.New[window.ID, struct{}](),
	}
}

// Touch inserts id at the head or the tail. An id already present moves
// there only when move is set; otherwise nothing changes. It reports
// whether the order changed.
func (l *List) Touch(id window.ID, toHead, move bool) bool {
	if id == window.None {
		return false
	}
	log := logger.WithComponent("mru")

	if _, present := l.entries.Get(id); present {
		if !move {
			return false
		}
		l.seq++
		l.entries.Set(id, l.seq)
		if toHead {
			_ = l.entries.MoveToFront(id)
		} else {
			_ = l.entries.MoveToBack(id)
		}
		log.Trace().Stringer("id", id).Bool("head", toHead).Msg("Touch: moved")
		return true
	}

	l.tombstones.Delete(id)
	l.seq++
	l.entries.Set(id, l.seq)
	if toHead {
		_ = l.entries.MoveToFront(id)
	}
	log.Trace().Stringer("id", id).Bool("head", toHead).Msg("Touch: inserted")
	return true
}

// Remove forgets id after its window was destroyed.
func (l *List) Remove(id window.ID) bool {
	if id == window.None {
		return false
	}
	_, present := l.entries.Delete(id)
	l.tombstones.Set(id, struct{}{})
	for l.tombstones.Len() > MaxTombstones {
		l.tombstones.Delete(l.tombstones.Oldest().Key)
	}
	logger.WithComponent("mru").Trace().Stringer("id", id).Bool("present", present).Msg("Remove")
	return present
}

// Revive clears the tombstone of an id the server handed out again.
func (l *List) Revive(id window.ID) {
	l.tombstones.Delete(id)
}

// Removed reports whether id was destroyed and not seen alive since.
func (l *List) Removed(id window.ID) bool {
	_, ok := l.tombstones.Get(id)
	return ok
}

// Contains reports whether id is in the list.
func (l *List) Contains(id window.ID) bool {
	_, ok := l.entries.Get(id)
	return ok
}

// Head returns the most recently activated window.
func (l *List) Head() (window.ID, bool) {
	p := l.entries.Oldest()
	if p == nil {
		return window.None, false
	}
	return p.Key, true
}

// Len returns the number of windows.
func (l *List) Len() int {
	return l.entries.Len()
}

// Tombstones returns the number of remembered destroyed ids.
func (l *List) Tombstones() int {
	return l.tombstones.Len()
}

// IDs returns the ids from most to least recent.
func (l *List) IDs() []window.ID {
	out := make([]window.ID, 0, l.entries.Len())
	for p := l.entries.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Key)
	}
	return out
}

// Entries returns the ids with their touch counters, most recent first.
func (l *List) Entries() []Entry {
	out := make([]Entry, 0, l.entries.Len())
	for p := l.entries.Oldest(); p != nil; p = p.Next() {
		out = append(out, Entry{ID: p.Key, Seq: p.Value})
	}
	return out
}

// Positions maps every id to its distance from the head.
func (l *List) Positions() map[window.ID]int {
	out := make(map[window.ID]int, l.entries.Len())
	i := 0
	for p := l.entries.Oldest(); p != nil; p = p.Next() {
		out[p.Key] = i
		i++
	}
	return out
}
