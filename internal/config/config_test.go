package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanchriswhite/alttab/internal/registry"
	"github.com/bryanchriswhite/alttab/internal/window"
	"github.com/bryanchriswhite/alttab/internal/xconn"
)

const path = "/home/user/.config/alttab/config.yaml"

func TestCreatesDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	m, err := NewManagerFs(fs, path)
	require.NoError(t, err)

	exists, err := afero.Exists(fs, path)
	require.NoError(t, err)
	assert.True(t, exists)

	cfg, err := m.Get()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, window.KindAuto, cfg.Kind())
	assert.Equal(t, registry.IconsSize, cfg.IconMode())
	assert.Equal(t, xconn.ViewportFocus, cfg.ViewportMode())
}

func TestReadsExistingFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, path, []byte(`
window_manager: ratpoison
desktops: all
icon:
  source: x11
  width: 48
`), 0o644))

	m, err := NewManagerFs(fs, path)
	require.NoError(t, err)
	cfg, err := m.Get()
	require.NoError(t, err)

	assert.Equal(t, window.KindRatpoison, cfg.Kind())
	assert.Equal(t, registry.IconsX11, cfg.IconMode())
	assert.Equal(t, 48, cfg.Icon.Width)
	assert.Equal(t, 32, cfg.Icon.Height, "missing keys keep defaults")

	f, err := cfg.Filter()
	require.NoError(t, err)
	assert.Equal(t, window.DesktopsAll, f.Desktops)
	assert.Equal(t, window.ScreensCurrent, f.Screens)
	assert.Equal(t, window.DesktopUnknown, f.Current)
}

func TestRejectsInvalidFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, path, []byte("screens: some\n"), 0o644))

	_, err := NewManagerFs(fs, path)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSetPersistsAndValidates(t *testing.T) {
	fs := afero.NewMemMapFs()
	m, err := NewManagerFs(fs, path)
	require.NoError(t, err)

	require.NoError(t, m.Set("ignore_skip_taskbar", "true"))
	require.NoError(t, m.Set("max_depth", "-1"))
	require.NoError(t, m.Set("icon.extra_dirs", "/opt/icons:/srv/icons"))

	reloaded, err := NewManagerFs(fs, path)
	require.NoError(t, err)
	cfg, err := reloaded.Get()
	require.NoError(t, err)
	assert.True(t, cfg.IgnoreSkipTaskbar)
	assert.Equal(t, window.Unlimited, cfg.MaxDepth)
	assert.Equal(t, []string{"/opt/icons", "/srv/icons"}, cfg.Icon.ExtraDirs)

	assert.Error(t, m.Set("tile.width", "wide"))
	assert.ErrorIs(t, m.Set("desktops", "some"), ErrInvalid)
	assert.ErrorIs(t, m.Set("colors.frame", "blue"), ErrInvalid)

	v, ok := m.Lookup("desktops")
	require.True(t, ok)
	assert.Equal(t, "current", v, "a rejected value is rolled back")
}

func TestTheme(t *testing.T) {
	theme, err := Defaults().Theme()
	require.NoError(t, err)
	assert.Equal(t, uint8(0xbe), theme.Foreground.R)
}

func TestDefaultPath(t *testing.T) {
	env := map[string]string{"XDG_CONFIG_HOME": "/xdg", "HOME": "/home/u"}
	p, err := DefaultPath(func(k string) string { return env[k] })
	require.NoError(t, err)
	assert.Equal(t, "/xdg/alttab/config.yaml", p)

	delete(env, "XDG_CONFIG_HOME")
	p, err = DefaultPath(func(k string) string { return env[k] })
	require.NoError(t, err)
	assert.Equal(t, "/home/u/.config/alttab/config.yaml", p)
}
