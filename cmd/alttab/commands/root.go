package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bryanchriswhite/alttab/internal/config"
	"github.com/bryanchriswhite/alttab/internal/logger"
)

var (
	cfgFile string
	verbose int
	rootCmd = &cobra.Command{
		Use:   "alttab",
		Short: "alttab - task switcher for X11 window managers",
		Long: `alttab is an alt-tab style window switcher for X11.

It keeps windows in most recently used order, works with EWMH window
managers, ratpoison and window managers without any hints, and shows
application icons taken from the windows or from icon themes.

Running alttab without a subcommand starts the switcher.`,
		SilenceUsage: true,
		RunE:         runSwitcher,
	}
)

// flagKeys maps persistent flags onto config keys.
var flagKeys = map[string]string{
	"log-level":           "log_level",
	"wm":                  "window_manager",
	"desktops":            "desktops",
	"screens":             "screens",
	"viewport":            "viewport",
	"ignore-skip-taskbar": "ignore_skip_taskbar",
	"max-depth":           "max_depth",
	"icons":               "icon.source",
	"status-addr":         "status_addr",
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/alttab/config.yaml)")
	flags.CountVarP(&verbose, "verbose", "v", "increase verbosity (-v debug, -vv trace)")
	flags.String("log-level", "", "log level (trace, debug, info, warn, error)")
	flags.String("wm", "", "window manager backend (auto, none, ewmh, ratpoison, legacy)")
	flags.String("desktops", "", "desktops to list (current, all, nospecial, nocurrent)")
	flags.String("screens", "", "screens to list (current, all)")
	flags.String("viewport", "", "current screen source (focus, pointer, total)")
	flags.Bool("ignore-skip-taskbar", false, "list windows that ask to be skipped by task bars")
	flags.Int("max-depth", 0, "window tree depth for the raw X backends (-1 unlimited)")
	flags.String("icons", "", "icon source (x11, fallback, size, files, none)")
	flags.String("status-addr", "", "listen address for the status server")
}

// loadConfig reads the config file, applies flags given on the command line
// and initializes logging.
func loadConfig(cmd *cobra.Command) (*config.Manager, *config.Config, error) {
	mgr, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	v := mgr.Viper()
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || !f.Changed || bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(key, f)
	})
	if bindErr != nil {
		return nil, nil, fmt.Errorf("failed to bind flags: %w", bindErr)
	}

	cfg, err := mgr.Get()
	if err != nil {
		return nil, nil, err
	}
	logger.Init(logger.VerbosityLevel(verbose, cfg.LogLevel), cfg.LogPretty)
	return mgr, cfg, nil
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
