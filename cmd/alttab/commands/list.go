package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bryanchriswhite/alttab/internal/mru"
	"github.com/bryanchriswhite/alttab/internal/registry"
	"github.com/bryanchriswhite/alttab/internal/window"
	"github.com/bryanchriswhite/alttab/internal/xconn"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the windows the switcher would show",
	Long: `Enumerate windows once with the configured backend and policy and
print them in switcher order.

Without a running switcher there is no MRU history, so the order is the
backend's own order.`,
	Example: `  # List windows in table format (default)
  alttab list

  # List windows from every desktop as JSON
  alttab list --desktops all --format json`,
	RunE: runList,
}

var listFormat string

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format (table or json)")
}

func runList(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	conn, err := xconn.Open()
	if err != nil {
		return err
	}
	defer conn.Close()

	backend := selectBackend(conn, cfg)
	if err := backend.Startup(); err != nil {
		return fmt.Errorf("failed to start %s backend: %w", backend.Kind(), err)
	}
	filter, err := cfg.Filter()
	if err != nil {
		return err
	}
	filter.Viewport = conn.Viewport(cfg.ViewportMode())

	reg := registry.New(backend, mru.New(), registry.Options{Mode: registry.IconsNone})
	recs, err := reg.Build(filter, registry.Forward)
	if err != nil {
		return err
	}

	switch listFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(recs)
	case "table":
		return printWindowsTable(recs)
	default:
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", listFormat)
	}
}

func printWindowsTable(recs []window.Record) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tDESKTOP\tCLASS\tGEOMETRY\tTITLE")
	fmt.Fprintln(w, "--\t-------\t-----\t--------\t-----")

	for _, r := range recs {
		desktop := "?"
		switch {
		case r.Desktop == window.DesktopAll:
			desktop = "all"
		case r.Desktop.Known():
			desktop = fmt.Sprint(uint32(r.Desktop))
		}
		g := r.Geometry
		fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d+%d+%d\t%s\n",
			r.ID, desktop, strings.Join(r.Class, "."), g.Width, g.Height, g.X, g.Y, r.Title)
	}
	return nil
}
