package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterDesktopModes(t *testing.T) {
	tests := []struct {
		name    string
		mode    DesktopMode
		current Desktop
		desktop Desktop
		want    bool
	}{
		{"current same", DesktopsCurrent, 1, 1, true},
		{"current other", DesktopsCurrent, 1, 2, false},
		{"current sticky", DesktopsCurrent, 1, DesktopAll, true},
		{"current unknown window", DesktopsCurrent, 1, DesktopUnknown, true},
		{"current unknown current", DesktopsCurrent, DesktopUnknown, 2, true},
		{"current zero is real", DesktopsCurrent, 1, 0, false},
		{"all", DesktopsAll, 1, 5, true},
		{"nospecial other", DesktopsNoSpecial, 1, 5, true},
		{"nospecial sticky", DesktopsNoSpecial, 1, DesktopAll, false},
		{"nocurrent same", DesktopsNoCurrent, 1, 1, false},
		{"nocurrent other", DesktopsNoCurrent, 1, 2, true},
		{"nocurrent unknown", DesktopsNoCurrent, 1, DesktopUnknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Filter{Desktops: tt.mode}.WithCurrent(tt.current)
			assert.Equal(t, tt.want, f.Desktop(tt.desktop))
		})
	}
}

func TestFilterScreen(t *testing.T) {
	f := Filter{Screens: ScreensCurrent, Viewport: Geometry{X: 0, Y: 0, Width: 1920, Height: 1080}}

	assert.True(t, f.Screen(Geometry{X: 100, Y: 100, Width: 300, Height: 200}))
	assert.True(t, f.Screen(Geometry{X: 1900, Y: 0, Width: 300, Height: 200}), "partial overlap counts")
	assert.False(t, f.Screen(Geometry{X: 1920, Y: 0, Width: 300, Height: 200}))
	assert.True(t, f.Screen(Geometry{}), "unknown geometry passes")

	f.Screens = ScreensAll
	assert.True(t, f.Screen(Geometry{X: 5000, Y: 0, Width: 10, Height: 10}))

	f = Filter{Screens: ScreensCurrent}
	assert.True(t, f.Screen(Geometry{X: 5000, Y: 0, Width: 10, Height: 10}), "no viewport disables the check")
}

func TestFilterTaskbar(t *testing.T) {
	assert.True(t, Filter{}.Taskbar(false))
	assert.False(t, Filter{}.Taskbar(true))
	assert.True(t, Filter{IgnoreSkipTaskbar: true}.Taskbar(true))
}

func TestParseModes(t *testing.T) {
	m, err := ParseDesktopMode("nospecial")
	require.NoError(t, err)
	assert.Equal(t, DesktopsNoSpecial, m)

	_, err = ParseDesktopMode("everywhere")
	assert.Error(t, err)

	s, err := ParseScreenMode("all")
	require.NoError(t, err)
	assert.Equal(t, ScreensAll, s)

	k, err := ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindAuto, k)

	_, err = ParseKind("kwin")
	assert.Error(t, err)
}

func TestDesktopUnknownDiffersFromRealValues(t *testing.T) {
	for _, d := range []Desktop{0, 1, DesktopAll, 0x7FFFFFFF} {
		assert.True(t, d.Known(), "desktop %d", d)
	}
	assert.False(t, DesktopUnknown.Known())
}

func TestRecordReleaseIcon(t *testing.T) {
	r := Record{IconOwned: true}
	r.ReleaseIcon()
	assert.Nil(t, r.Icon)
	assert.False(t, r.IconOwned)
}
