package registry

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanchriswhite/alttab/internal/icon"
	"github.com/bryanchriswhite/alttab/internal/mru"
	"github.com/bryanchriswhite/alttab/internal/window"
	"github.com/bryanchriswhite/alttab/internal/window/windowtest"
)

func order(recs []window.Record) []window.ID {
	out := make([]window.ID, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func threeWindows() *windowtest.FakeBackend {
	return windowtest.NewFakeBackend(
		windowtest.Rec(1, "W1"),
		windowtest.Rec(2, "W2"),
		windowtest.Rec(3, "W3"),
	)
}

func TestFirstSeenWindowsKeepEnumerationOrder(t *testing.T) {
	backend := threeWindows()
	list := mru.New()
	reg := New(backend, list, Options{Mode: IconsNone})

	recs, err := reg.Build(window.Filter{}, Forward)
	require.NoError(t, err)
	assert.Equal(t, []window.ID{1, 2, 3}, order(recs))
	assert.Equal(t, []window.ID{1, 2, 3}, list.IDs())
	for i, r := range recs {
		assert.Equal(t, i, r.Order)
	}
}

func TestCommitMovesWindowToFront(t *testing.T) {
	backend := threeWindows()
	list := mru.New()
	reg := New(backend, list, Options{Mode: IconsNone})

	_, err := reg.Build(window.Filter{}, Forward)
	require.NoError(t, err)
	require.NoError(t, reg.Select(2))
	rec, err := reg.Commit()
	require.NoError(t, err)
	assert.Equal(t, window.ID(3), rec.ID)
	assert.Equal(t, []window.ID{3}, backend.Focused)

	head, _ := list.Head()
	assert.Equal(t, window.ID(3), head)

	reg.Close()
	recs, err := reg.Build(window.Filter{}, Forward)
	require.NoError(t, err)
	assert.Equal(t, []window.ID{3, 1, 2}, order(recs))
}

func TestFailedCommitLeavesMRU(t *testing.T) {
	backend := threeWindows()
	list := mru.New()
	reg := New(backend, list, Options{Mode: IconsNone})

	_, err := reg.Build(window.Filter{}, Forward)
	require.NoError(t, err)
	backend.FocusErr = errors.New("BadWindow")

	_, err = reg.Commit()
	require.Error(t, err)
	assert.Equal(t, []window.ID{1, 2, 3}, list.IDs())
}

func TestCommitUsesBackendIndex(t *testing.T) {
	backend := threeWindows()
	list := mru.New()
	list.Touch(3, true, true)
	reg := New(backend, list, Options{Mode: IconsNone})

	recs, err := reg.Build(window.Filter{}, Forward)
	require.NoError(t, err)
	assert.Equal(t, []window.ID{3, 1, 2}, order(recs))
	assert.Equal(t, 1, reg.Selected())

	rec, err := reg.Commit()
	require.NoError(t, err)
	assert.Equal(t, window.ID(1), rec.ID)
	assert.Equal(t, []window.ID{1}, backend.Focused)
}

func TestInitialSelection(t *testing.T) {
	backend := threeWindows()
	reg := New(backend, mru.New(), Options{Mode: IconsNone})

	_, err := reg.Build(window.Filter{}, Forward)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Selected())
	assert.Equal(t, 2, reg.Cycle(Forward))
	assert.Equal(t, 0, reg.Cycle(Forward), "wraps")
	assert.Equal(t, 2, reg.Cycle(Backward))

	_, err = reg.Build(window.Filter{}, Backward)
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Selected())

	backend.Records = backend.Records[:1]
	_, err = reg.Build(window.Filter{}, Forward)
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Selected())

	backend.Records = nil
	_, err = reg.Build(window.Filter{}, Forward)
	require.NoError(t, err)
	assert.Equal(t, -1, reg.Selected())
	assert.Equal(t, -1, reg.Cycle(Forward))
	_, err = reg.Commit()
	assert.ErrorIs(t, err, window.ErrBadIndex)
}

func TestDestroyedWindowNeverReturns(t *testing.T) {
	backend := threeWindows()
	list := mru.New()
	reg := New(backend, list, Options{Mode: IconsNone})

	_, err := reg.Build(window.Filter{}, Forward)
	require.NoError(t, err)
	reg.Close()

	list.Remove(2)

	// The backend still reports W2.
	recs, err := reg.Build(window.Filter{}, Forward)
	require.NoError(t, err)
	assert.Equal(t, []window.ID{1, 3}, order(recs))
	assert.False(t, list.Contains(2))

	// Seen alive again: brand new, tail priority.
	list.Touch(2, false, true)
	recs, err = reg.Build(window.Filter{}, Forward)
	require.NoError(t, err)
	assert.Equal(t, []window.ID{1, 3, 2}, order(recs))
}

func TestEnumerateErrorEmptiesRegistry(t *testing.T) {
	backend := threeWindows()
	reg := New(backend, mru.New(), Options{Mode: IconsNone})
	_, err := reg.Build(window.Filter{}, Forward)
	require.NoError(t, err)

	backend.EnumerateErr = window.ErrNoClientList
	_, err = reg.Build(window.Filter{}, Forward)
	assert.ErrorIs(t, err, window.ErrNoClientList)
	assert.Equal(t, 0, reg.Len())
}

type fakeIcons struct {
	embedded map[window.ID]image.Image
	hints    map[window.ID]image.Image
}

func (f *fakeIcons) EmbeddedIcon(win window.ID, _ icon.Target) (image.Image, bool) {
	img, ok := f.embedded[win]
	return img, ok
}

func (f *fakeIcons) HintsIcon(win window.ID) (image.Image, bool, bool) {
	img, ok := f.hints[win]
	return img, ok, ok
}

func iconCache(t *testing.T, size int) *icon.Cache {
	t.Helper()
	fs := afero.NewMemMapFs()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, size, size))))
	require.NoError(t, afero.WriteFile(fs, "/icons/xterm.png", buf.Bytes(), 0o644))

	c := icon.NewCache(fs, icon.Target{Width: 32, Height: 32}, false)
	c.Offer(icon.Candidate{App: "xterm", Path: "/icons/xterm.png", Width: size, Height: size})
	return c
}

func TestIconModes(t *testing.T) {
	small := image.NewRGBA(image.Rect(0, 0, 16, 16))
	mono := image.NewRGBA(image.Rect(0, 0, 20, 20))
	win := &fakeIcons{
		embedded: map[window.ID]image.Image{1: small},
		hints:    map[window.ID]image.Image{2: mono},
	}
	newBackend := func() *windowtest.FakeBackend {
		r1 := windowtest.Rec(1, "xterm")
		r1.Class = []string{"xterm", "XTerm"}
		r2 := windowtest.Rec(2, "xclock")
		r2.Class = []string{"xclock", "XClock"}
		r3 := windowtest.Rec(3, "other")
		r3.Class = []string{"foo", "XTerm"}
		return windowtest.NewFakeBackend(r1, r2, r3)
	}
	build := func(mode IconMode) []window.Record {
		reg := New(newBackend(), mru.New(), Options{
			Mode:   mode,
			Files:  iconCache(t, 32),
			Window: win,
			Target: icon.Target{Width: 32, Height: 32},
		})
		recs, err := reg.Build(window.Filter{}, Forward)
		require.NoError(t, err)
		return recs
	}
	size := func(r window.Record) int {
		if r.Icon == nil {
			return 0
		}
		return r.Icon.Bounds().Dx()
	}

	recs := build(IconsX11)
	assert.Equal(t, []int{16, 20, 0}, []int{size(recs[0]), size(recs[1]), size(recs[2])})
	assert.True(t, recs[1].IconOwned)

	recs = build(IconsFallback)
	assert.Equal(t, []int{16, 20, 32}, []int{size(recs[0]), size(recs[1]), size(recs[2])})

	recs = build(IconsSize)
	assert.Equal(t, []int{32, 20, 32}, []int{size(recs[0]), size(recs[1]), size(recs[2])})

	recs = build(IconsFiles)
	assert.Equal(t, []int{32, 0, 32}, []int{size(recs[0]), size(recs[1]), size(recs[2])})

	recs = build(IconsNone)
	assert.Equal(t, []int{0, 0, 0}, []int{size(recs[0]), size(recs[1]), size(recs[2])})
}

func TestCloseReleasesOwnedIcons(t *testing.T) {
	win := &fakeIcons{hints: map[window.ID]image.Image{1: image.NewRGBA(image.Rect(0, 0, 8, 8))}}
	reg := New(threeWindows(), mru.New(), Options{Mode: IconsX11, Window: win})
	recs, err := reg.Build(window.Filter{}, Forward)
	require.NoError(t, err)
	require.True(t, recs[0].IconOwned)

	reg.Close()
	assert.Nil(t, recs[0].Icon)
	assert.False(t, recs[0].IconOwned)
	assert.Nil(t, reg.Entries())
}

func TestParseIconMode(t *testing.T) {
	m, err := ParseIconMode("fallback")
	require.NoError(t, err)
	assert.Equal(t, IconsFallback, m)
	_, err = ParseIconMode("svg")
	assert.Error(t, err)
}
