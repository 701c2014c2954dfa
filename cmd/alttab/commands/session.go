package commands

import (
	"os"

	"github.com/spf13/afero"

	"github.com/bryanchriswhite/alttab/internal/config"
	"github.com/bryanchriswhite/alttab/internal/icon"
	"github.com/bryanchriswhite/alttab/internal/logger"
	"github.com/bryanchriswhite/alttab/internal/ratpoison"
	"github.com/bryanchriswhite/alttab/internal/registry"
	"github.com/bryanchriswhite/alttab/internal/window"
	"github.com/bryanchriswhite/alttab/internal/xconn"
)

// selectBackend picks the window manager backend for cfg.
func selectBackend(conn *xconn.Conn, cfg *config.Config) window.Backend {
	return window.Select(conn, cfg.Kind(), window.SelectOptions{
		MaxDepth: cfg.MaxDepth,
		Executor: ratpoison.ExecRunner{Timeout: ratpoison.DefaultTimeout},
		LookPath: ratpoison.Locate,
	})
}

// scanIcons builds the icon file cache. It is skipped when no mode uses
// icon files.
func scanIcons(cfg *config.Config) *icon.Cache {
	mode := cfg.IconMode()
	if mode == registry.IconsX11 || mode == registry.IconsNone {
		return nil
	}
	cache := icon.NewCache(afero.NewOsFs(), cfg.IconTarget(), cfg.Icon.PreferNewer)
	stats := cache.Scan(icon.Roots(os.Getenv, cfg.Icon.Theme, cfg.Icon.ExtraDirs))
	logger.WithComponent("icon").Info().
		Int("roots", stats.Roots).
		Int("files", stats.Files).
		Int("apps", stats.Apps).
		Msg("Icon cache ready")
	return cache
}

// registryOptions wires icon sources for cfg.
func registryOptions(conn *xconn.Conn, cfg *config.Config, cache *icon.Cache) registry.Options {
	opts := registry.Options{
		Mode:   cfg.IconMode(),
		Target: cfg.IconTarget(),
		Window: xconn.NewIcons(conn),
	}
	if cache != nil {
		opts.Files = cache
	}
	return opts
}
