// Package registry builds the per-invocation list of switchable windows
// and orders it by recency.
package registry

import (
	"fmt"
	"image"
	"sort"

	"github.com/bryanchriswhite/alttab/internal/icon"
	"github.com/bryanchriswhite/alttab/internal/logger"
	"github.com/bryanchriswhite/alttab/internal/mru"
	"github.com/bryanchriswhite/alttab/internal/window"
)

// Direction is the cycling direction.
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// IconMode selects where icons come from.
type IconMode string

const (
	// IconsX11 uses icons published by the windows only.
	IconsX11 IconMode = "x11"
	// IconsFallback uses icon files when a window publishes none.
	IconsFallback IconMode = "fallback"
	// IconsSize uses an icon file when it fits the target size better.
	IconsSize IconMode = "size"
	// IconsFiles uses icon files only.
	IconsFiles IconMode = "files"
	// IconsNone draws no icons.
	IconsNone IconMode = "none"
)

// ParseIconMode validates a config value.
func ParseIconMode(s string) (IconMode, error) {
	switch m := IconMode(s); m {
	case IconsX11, IconsFallback, IconsSize, IconsFiles, IconsNone:
		return m, nil
	}
	return "", fmt.Errorf("unknown icon source %q (use x11, fallback, size, files or none)", s)
}

// WindowIcons reads icons published on windows.
type WindowIcons interface {
	// EmbeddedIcon returns the _NET_WM_ICON image closest to target.
	EmbeddedIcon(win window.ID, target icon.Target) (image.Image, bool)
	// HintsIcon returns the WM_HINTS icon pixmap. owned is set when the
	// image was converted for this call and belongs to the caller.
	HintsIcon(win window.ID) (img image.Image, owned bool, ok bool)
}

// Options configures a Registry.
type Options struct {
	Mode IconMode
	// Files is the icon file cache; nil disables file icons.
	Files *icon.Cache
	// Window reads window icons; nil disables them.
	Window WindowIcons
	Target icon.Target
}

// Registry holds the eligible windows of one switcher invocation. It is
// rebuilt by Build and emptied by Close; the MRU list outlives it.
type Registry struct {
	backend window.Backend
	mru     *mru.List
	opts    Options

	records  []window.Record
	selected int
}

// New creates an empty registry.
func New(backend window.Backend, list *mru.List, opts Options) *Registry {
	if opts.Mode == "" {
		opts.Mode = IconsSize
	}
	return &Registry{backend: backend, mru: list, opts: opts, selected: -1}
}

// Build enumerates the backend, attaches icons, orders the windows by the
// MRU list and picks the initial selection. Windows the MRU list has not
// seen are appended to its tail in enumeration order. Windows destroyed
// since they were last seen alive are left out.
func (r *Registry) Build(filter window.Filter, dir Direction) ([]window.Record, error) {
	log := logger.WithComponent("registry")
	r.Close()

	recs, err := r.backend.Enumerate(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate windows: %w", err)
	}

	records := make([]window.Record, 0, len(recs))
	for _, rec := range recs {
		if r.mru.Removed(rec.ID) {
			log.Debug().Stringer("id", rec.ID).Str("title", rec.Title).Msg("Build: skipping destroyed window")
			continue
		}
		r.resolveIcon(&rec)
		records = append(records, rec)
	}

	for _, rec := range records {
		if !r.mru.Contains(rec.ID) {
			r.mru.Touch(rec.ID, false, false)
		}
	}
	positions := r.mru.Positions()
	for i := range records {
		records[i].Order = positions[records[i].ID]
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Order < records[j].Order })
	for i := range records {
		records[i].Order = i
	}

	r.records = records
	r.selected = initialSelection(len(records), dir)

	log.Debug().
		Int("windows", len(records)).
		Int("selected", r.selected).
		Str("direction", dir.String()).
		Msg("Build: done")
	return records, nil
}

// initialSelection skips the current window: forward lands on the
// previous one, backward on the least recent.
func initialSelection(n int, dir Direction) int {
	switch {
	case n == 0:
		return -1
	case n == 1:
		return 0
	case dir == Backward:
		return n - 1
	default:
		return 1
	}
}

func (r *Registry) resolveIcon(rec *window.Record) {
	mode := r.opts.Mode
	if mode == IconsNone {
		return
	}
	if mode != IconsFiles && r.opts.Window != nil {
		if img, ok := r.opts.Window.EmbeddedIcon(rec.ID, r.opts.Target); ok {
			rec.Icon = img
		} else if img, owned, ok := r.opts.Window.HintsIcon(rec.ID); ok {
			rec.Icon, rec.IconOwned = img, owned
		}
	}
	if r.opts.Files == nil || mode == IconsX11 {
		return
	}
	if mode == IconsFallback && rec.Icon != nil {
		return
	}

	for _, name := range rec.Class {
		cand, ok := r.opts.Files.Candidate(name)
		if !ok {
			continue
		}
		if mode == IconsSize && rec.Icon != nil {
			b := rec.Icon.Bounds()
			if !icon.Fits(cand, b.Dx(), b.Dy(), r.opts.Target) {
				continue
			}
		}
		img, _, ok := r.opts.Files.Lookup(name)
		if !ok {
			continue
		}
		rec.ReleaseIcon()
		rec.Icon = img
		return
	}
}

// Entries returns the windows in display order.
func (r *Registry) Entries() []window.Record {
	return r.records
}

// Len returns the number of windows.
func (r *Registry) Len() int {
	return len(r.records)
}

// Selected returns the selected display index, -1 when empty.
func (r *Registry) Selected() int {
	return r.selected
}

// Select moves the selection to index.
func (r *Registry) Select(index int) error {
	if index < 0 || index >= len(r.records) {
		return fmt.Errorf("%w: %d of %d", window.ErrBadIndex, index, len(r.records))
	}
	r.selected = index
	return nil
}

// Cycle moves the selection one step, wrapping around.
func (r *Registry) Cycle(dir Direction) int {
	n := len(r.records)
	if n == 0 {
		return -1
	}
	if dir == Backward {
		r.selected = (r.selected - 1 + n) % n
	} else {
		r.selected = (r.selected + 1) % n
	}
	return r.selected
}

// Commit focuses the selected window and moves it to the MRU head. A
// failed focus leaves the MRU list alone.
func (r *Registry) Commit() (window.Record, error) {
	if r.selected < 0 || r.selected >= len(r.records) {
		return window.Record{}, fmt.Errorf("%w: nothing selected", window.ErrBadIndex)
	}
	rec := r.records[r.selected]
	if err := r.backend.SetFocus(rec.Index); err != nil {
		return rec, fmt.Errorf("failed to focus %q: %w", rec.Title, err)
	}
	r.mru.Touch(rec.ID, true, true)
	logger.WithComponent("registry").Debug().
		Stringer("id", rec.ID).
		Str("title", rec.Title).
		Msg("Commit: focused")
	return rec, nil
}

// Close releases icons owned by the records and empties the registry.
func (r *Registry) Close() {
	for i := range r.records {
		r.records[i].ReleaseIcon()
	}
	r.records = nil
	r.selected = -1
}
