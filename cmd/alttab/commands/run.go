package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bryanchriswhite/alttab/internal/api"
	"github.com/bryanchriswhite/alttab/internal/config"
	"github.com/bryanchriswhite/alttab/internal/display"
	"github.com/bryanchriswhite/alttab/internal/icon"
	"github.com/bryanchriswhite/alttab/internal/logger"
	"github.com/bryanchriswhite/alttab/internal/ratpoison"
	"github.com/bryanchriswhite/alttab/internal/switcher"
	"github.com/bryanchriswhite/alttab/internal/xconn"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the switcher",
	Long: `Grab the switcher keys and run until interrupted.

Send SIGUSR1 to log the MRU list, the registry and icon cache counts and
the active policy. Edits to the config file update the window policy
without a restart.`,
	Example: `  # Start with defaults
  alttab run

  # Force the EWMH backend and list windows from all desktops
  alttab run --wm ewmh --desktops all

  # Serve the state on localhost:7070
  alttab run --status-addr localhost:7070 -v`,
	RunE: runSwitcher,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runSwitcher(cmd *cobra.Command, args []string) error {
	mgr, cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.WithComponent("main")

	conn, err := xconn.Open()
	if err != nil {
		return err
	}
	defer conn.Close()

	backend := selectBackend(conn, cfg)
	icons := scanIcons(cfg)
	theme, err := cfg.Theme()
	if err != nil {
		return err
	}
	viewport := conn.ViewportFunc(cfg.ViewportMode())
	policy, err := cfg.Filter()
	if err != nil {
		return err
	}

	popup := display.NewPopup(conn.XConn(), conn.Screen(), display.Config{
		TileWidth:  cfg.Tile.Width,
		TileHeight: cfg.Tile.Height,
		Theme:      theme,
		Viewport:   viewport,
	})

	var status *api.Server
	var sw *switcher.Switcher
	swCfg := switcher.Config{
		Conn:     conn,
		Backend:  backend,
		Icons:    icons,
		Registry: registryOptions(conn, cfg, icons),
		Policy:   policy,
		Viewport: viewport,
		Popup:    popup,
	}
	if cfg.StatusAddr != "" {
		status = api.NewServer(func() []icon.Candidate {
			return iconList(sw, icons)
		})
		swCfg.Status = status.Update
	}
	sw = switcher.New(swCfg)

	if err := sw.Start(); err != nil {
		return err
	}
	src, err := xconn.NewSource(conn, cfg.KeyBindings())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if status != nil {
		go func() {
			if err := status.Start(cfg.StatusAddr); err != nil {
				log.Error().Err(err).Msg("Status server failed")
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			_ = status.Shutdown(shutdownCtx)
		}()
	}

	mgr.Watch(func(c *config.Config) {
		f, err := c.Filter()
		if err != nil {
			return
		}
		sw.Do(func() { sw.SetPolicy(f) })
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGUSR1)
	defer signal.Stop(sigChan)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigChan:
				if sig == syscall.SIGUSR1 {
					sw.Do(sw.Dump)
					continue
				}
				log.Info().Str("signal", sig.String()).Msg("Shutting down")
				cancel()
				return
			}
		}
	}()

	log.Info().
		Str("backend", string(backend.Kind())).
		Str("config", mgr.Path()).
		Msg("alttab is running")

	if err := sw.Run(ctx, src); err != nil {
		if ratpoison.IsProtocolError(err) {
			logger.Fatal(fmt.Sprintf("ratpoison output could not be parsed: %v", err))
		}
		return err
	}
	return nil
}

// iconList reads the icon cache on the loop goroutine.
func iconList(sw *switcher.Switcher, icons *icon.Cache) []icon.Candidate {
	if sw == nil || icons == nil {
		return nil
	}
	res := make(chan []icon.Candidate, 1)
	sw.Do(func() { res <- icons.Candidates() })
	select {
	case list := <-res:
		return list
	case <-time.After(time.Second):
		return nil
	}
}
