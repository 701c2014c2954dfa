package window_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanchriswhite/alttab/internal/window"
	"github.com/bryanchriswhite/alttab/internal/window/windowtest"
)

func newEWMHConn(t *testing.T) *windowtest.FakeConn {
	t.Helper()
	conn := windowtest.NewFakeConn()
	root := conn.Root()
	for i, id := range []window.ID{0x1, 0x2, 0x3} {
		conn.AddWindow(root, id, window.Geometry{X: 10 * i, Y: 10, Width: 200, Height: 100})
		conn.SetString(id, "_NET_WM_NAME", "win "+id.String())
		conn.SetCardinals(id, "_NET_WM_DESKTOP", 0)
	}
	conn.SetCardinals(root, "_NET_CURRENT_DESKTOP", 0)
	return conn
}

func TestEWMHStackingListFallbackIsSticky(t *testing.T) {
	conn := newEWMHConn(t)
	root := conn.Root()
	conn.SetWindows(root, "_NET_CLIENT_LIST", 0x1, 0x2, 0x3)

	b := window.NewEWMHBackend(conn)
	require.True(t, b.Probe())
	assert.False(t, b.Features().TryStackingListFirst)

	// A stacking list showing up later is not consulted again.
	conn.SetWindows(root, "_NET_CLIENT_LIST_STACKING", 0x3, 0x2, 0x1)
	recs, err := b.Enumerate(window.Filter{})
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, window.ID(0x1), recs[0].ID)
	assert.Equal(t, window.ID(0x3), recs[2].ID)
}

func TestEWMHPrefersStackingList(t *testing.T) {
	conn := newEWMHConn(t)
	root := conn.Root()
	conn.SetWindows(root, "_NET_CLIENT_LIST", 0x1, 0x2, 0x3)
	conn.SetWindows(root, "_NET_CLIENT_LIST_STACKING", 0x3, 0x1)

	b := window.NewEWMHBackend(conn)
	recs, err := b.Enumerate(window.Filter{})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, window.ID(0x3), recs[0].ID)
	assert.True(t, b.Features().TryStackingListFirst)
}

func TestEWMHLegacyPropertyNames(t *testing.T) {
	conn := windowtest.NewFakeConn()
	root := conn.Root()
	conn.AddWindow(root, 0x1, window.Geometry{Width: 10, Height: 10})
	conn.AddWindow(root, 0x2, window.Geometry{Width: 10, Height: 10})
	conn.SetWindows(root, "_WIN_CLIENT_LIST", 0x1, 0x2)
	conn.SetCardinals(root, "_WIN_WORKSPACE", 2)
	conn.SetCardinals(0x1, "_WIN_WORKSPACE", 2)
	conn.SetCardinals(0x2, "_WIN_WORKSPACE", 3)

	b := window.NewEWMHBackend(conn)
	require.True(t, b.Probe())
	assert.Equal(t, window.Desktop(2), b.CurrentDesktop())

	recs, err := b.Enumerate(window.Filter{Desktops: window.DesktopsCurrent})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, window.ID(0x1), recs[0].ID)
	assert.Equal(t, window.Desktop(2), recs[0].Desktop)
}

func TestEWMHProbeFailsWithoutClientList(t *testing.T) {
	conn := windowtest.NewFakeConn()
	b := window.NewEWMHBackend(conn)
	assert.False(t, b.Probe())

	_, err := b.Enumerate(window.Filter{})
	assert.ErrorIs(t, err, window.ErrNoClientList)
}

func TestEWMHProbeDeclinesRatpoison(t *testing.T) {
	conn := newEWMHConn(t)
	root := conn.Root()
	conn.SetWindows(root, "_NET_CLIENT_LIST", 0x1)
	conn.AddWindow(root, 0x50, window.Geometry{Width: 1, Height: 1})
	conn.SetWindows(root, "_NET_SUPPORTING_WM_CHECK", 0x50)
	conn.SetString(0x50, "_NET_WM_NAME", "ratpoison")

	b := window.NewEWMHBackend(conn)
	assert.False(t, b.Probe())
	assert.Equal(t, "ratpoison", b.Features().WMName)
}

func TestEWMHUnknownDesktopIsKept(t *testing.T) {
	conn := newEWMHConn(t)
	root := conn.Root()
	conn.SetWindows(root, "_NET_CLIENT_LIST", 0x1, 0x2)
	conn.SetCardinals(root, "_NET_CURRENT_DESKTOP", 1)
	conn.DeleteProperty(0x2, "_NET_WM_DESKTOP")

	b := window.NewEWMHBackend(conn)
	recs, err := b.Enumerate(window.Filter{Desktops: window.DesktopsCurrent})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, window.ID(0x2), recs[0].ID)
	assert.Equal(t, window.DesktopUnknown, recs[0].Desktop)
}

func TestEWMHSkipTaskbar(t *testing.T) {
	conn := newEWMHConn(t)
	root := conn.Root()
	conn.SetWindows(root, "_NET_CLIENT_LIST", 0x1, 0x2)
	conn.SetAtoms(0x2, "_NET_WM_STATE", "_NET_WM_STATE_ABOVE", "_NET_WM_STATE_SKIP_TASKBAR")

	b := window.NewEWMHBackend(conn)
	assert.True(t, b.SkipInTaskbar(0x2))
	assert.False(t, b.SkipInTaskbar(0x1))

	recs, err := b.Enumerate(window.Filter{})
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	recs, err = b.Enumerate(window.Filter{IgnoreSkipTaskbar: true})
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestEWMHSetFocusSwitchesDesktopFirst(t *testing.T) {
	conn := newEWMHConn(t)
	root := conn.Root()
	conn.SetWindows(root, "_NET_CLIENT_LIST", 0x1, 0x2)
	conn.SetCardinals(0x2, "_NET_WM_DESKTOP", 3)
	conn.OnClientMessage = func(m windowtest.ClientMessage) {
		if m.Type == "_NET_CURRENT_DESKTOP" {
			conn.SetCardinals(root, "_NET_CURRENT_DESKTOP", m.Data[0])
		}
	}

	b := window.NewEWMHBackend(conn)
	sleeps := 0
	b.Sleep = func(time.Duration) { sleeps++ }

	recs, err := b.Enumerate(window.Filter{Desktops: window.DesktopsAll})
	require.NoError(t, err)
	require.Len(t, recs, 2)

	require.NoError(t, b.SetFocus(1))
	assert.Equal(t, 0, sleeps)
	require.Len(t, conn.Messages, 2)
	assert.Equal(t, "_NET_CURRENT_DESKTOP", conn.Messages[0].Type)
	assert.Equal(t, uint32(3), conn.Messages[0].Data[0])
	assert.Equal(t, "_NET_ACTIVE_WINDOW", conn.Messages[1].Type)
	assert.Equal(t, window.ID(0x2), conn.Messages[1].Window)
	assert.Equal(t, uint32(2), conn.Messages[1].Data[0])
	assert.Equal(t, []window.ID{0x2}, conn.Raised)
	assert.Equal(t, []window.ID{0x2}, conn.Focused)
}

func TestEWMHSetFocusActivatesWhenDesktopNeverConverges(t *testing.T) {
	conn := newEWMHConn(t)
	root := conn.Root()
	conn.SetWindows(root, "_NET_CLIENT_LIST", 0x1, 0x2)
	conn.SetCardinals(0x2, "_NET_WM_DESKTOP", 3)

	b := window.NewEWMHBackend(conn)
	var slept time.Duration
	b.Sleep = func(d time.Duration) { slept += d }

	_, err := b.Enumerate(window.Filter{Desktops: window.DesktopsAll})
	require.NoError(t, err)

	require.NoError(t, b.SetFocus(1))
	assert.Equal(t, window.DesktopSwitchTimeout, slept)
	assert.Len(t, conn.MessagesOfType("_NET_ACTIVE_WINDOW"), 1)
}

func TestEWMHSetFocusStickySkipsDesktopSwitch(t *testing.T) {
	conn := newEWMHConn(t)
	root := conn.Root()
	conn.SetWindows(root, "_NET_CLIENT_LIST", 0x1)
	conn.SetCardinals(0x1, "_NET_WM_DESKTOP", uint32(window.DesktopAll))

	b := window.NewEWMHBackend(conn)
	_, err := b.Enumerate(window.Filter{})
	require.NoError(t, err)
	require.NoError(t, b.SetFocus(0))
	assert.Empty(t, conn.MessagesOfType("_NET_CURRENT_DESKTOP"))
}

func TestEWMHSetFocusFailsForGoneWindow(t *testing.T) {
	conn := newEWMHConn(t)
	root := conn.Root()
	conn.SetWindows(root, "_NET_CLIENT_LIST", 0x1, 0x2)

	b := window.NewEWMHBackend(conn)
	_, err := b.Enumerate(window.Filter{})
	require.NoError(t, err)

	conn.DestroyWindow(0x2)
	assert.Error(t, b.SetFocus(1))
	assert.Empty(t, conn.MessagesOfType("_NET_ACTIVE_WINDOW"))

	assert.ErrorIs(t, b.SetFocus(7), window.ErrBadIndex)
}

func TestEWMHActiveWindow(t *testing.T) {
	conn := newEWMHConn(t)
	b := window.NewEWMHBackend(conn)

	_, ok := b.ActiveWindow()
	assert.False(t, ok)

	conn.SetWindows(conn.Root(), "_NET_ACTIVE_WINDOW", 0x2)
	id, ok := b.ActiveWindow()
	assert.True(t, ok)
	assert.Equal(t, window.ID(0x2), id)
}
