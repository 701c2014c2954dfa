package window_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanchriswhite/alttab/internal/window"
	"github.com/bryanchriswhite/alttab/internal/window/windowtest"
)

// tree builds root -> 0x10 (viewable) -> 0x11 (viewable) -> 0x12 (viewable)
// plus an unmapped 0x20 under the root.
func tree(t *testing.T) *windowtest.FakeConn {
	t.Helper()
	conn := windowtest.NewFakeConn()
	root := conn.Root()
	geom := window.Geometry{Width: 100, Height: 100}
	conn.AddWindow(root, 0x10, geom)
	conn.AddWindow(0x10, 0x11, geom)
	conn.AddWindow(0x11, 0x12, geom)
	conn.AddWindow(root, 0x20, geom)
	conn.SetViewable(0x20, false)
	conn.SetString(0x10, "WM_NAME", "frame")
	conn.SetString(0x11, "_NET_WM_NAME", "utf8 client")
	conn.SetString(0x11, "WM_NAME", "client")
	return conn
}

func ids(recs []window.Record) []window.ID {
	out := make([]window.ID, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestRawXDefaultsToTopLevel(t *testing.T) {
	b := window.NewRawXBackend(tree(t), 0)
	assert.Equal(t, 1, b.MaxDepth())

	recs, err := b.Enumerate(window.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []window.ID{0x10}, ids(recs))
	assert.Equal(t, 1, recs[0].Depth)
	assert.Equal(t, window.DesktopUnknown, recs[0].Desktop)
}

func TestRawXDepthLimit(t *testing.T) {
	b := window.NewRawXBackend(tree(t), 2)
	recs, err := b.Enumerate(window.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []window.ID{0x10, 0x11}, ids(recs))
	assert.Equal(t, "utf8 client", recs[1].Title)
}

func TestLegacyWalksEverythingWithPlainNames(t *testing.T) {
	b := window.NewLegacyBackend(tree(t), 0)
	assert.Equal(t, window.KindLegacy, b.Kind())
	assert.Equal(t, window.Unlimited, b.MaxDepth())

	recs, err := b.Enumerate(window.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []window.ID{0x10, 0x11, 0x12}, ids(recs))
	assert.Equal(t, "client", recs[1].Title)
	assert.Equal(t, 3, recs[2].Depth)
}

func TestRawXSetFocus(t *testing.T) {
	conn := tree(t)
	b := window.NewRawXBackend(conn, 0)
	_, err := b.Enumerate(window.Filter{})
	require.NoError(t, err)

	require.NoError(t, b.SetFocus(0))
	assert.Len(t, conn.MessagesOfType("_NET_ACTIVE_WINDOW"), 1)
	assert.Equal(t, []window.ID{0x10}, conn.Raised)
	assert.Equal(t, []window.ID{0x10}, conn.Focused)

	id, ok := b.ActiveWindow()
	assert.True(t, ok)
	assert.Equal(t, window.ID(0x10), id)
}

func TestRawXSetFocusSkipsUnviewable(t *testing.T) {
	conn := tree(t)
	b := window.NewRawXBackend(conn, 0)
	_, err := b.Enumerate(window.Filter{})
	require.NoError(t, err)

	conn.SetViewable(0x10, false)
	require.NoError(t, b.SetFocus(0))
	assert.Equal(t, []window.ID{0x10}, conn.Raised)
	assert.Empty(t, conn.Focused)
}
