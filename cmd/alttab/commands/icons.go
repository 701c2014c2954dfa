package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/bryanchriswhite/alttab/internal/icon"
)

var iconsCmd = &cobra.Command{
	Use:   "icons",
	Short: "Scan icon directories and show the chosen icons",
	Long: `Scan the icon theme and pixmap directories the way the switcher does and
print the best icon file per application.`,
	Example: `  # Show every application with an icon
  alttab icons

  # Show which file would be used for a WM_CLASS
  alttab icons --class Firefox`,
	RunE: runIcons,
}

var (
	iconsClass  string
	iconsFormat string
)

func init() {
	rootCmd.AddCommand(iconsCmd)

	iconsCmd.Flags().StringVarP(&iconsClass, "class", "c", "", "look up a single WM_CLASS name")
	iconsCmd.Flags().StringVarP(&iconsFormat, "format", "f", "table", "output format (table or json)")
}

func runIcons(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	cache := icon.NewCache(afero.NewOsFs(), cfg.IconTarget(), cfg.Icon.PreferNewer)
	stats := cache.Scan(icon.Roots(os.Getenv, cfg.Icon.Theme, cfg.Icon.ExtraDirs))

	if iconsClass != "" {
		img, cand, ok := cache.Lookup(iconsClass)
		if !ok {
			if cand.Path != "" {
				return fmt.Errorf("icon for %q could not be decoded: %s", iconsClass, cand.Path)
			}
			return fmt.Errorf("no icon for %q", iconsClass)
		}
		b := img.Bounds()
		fmt.Printf("%s: %s (%dx%d, decoded %dx%d)\n", iconsClass, cand.Path, cand.Width, cand.Height, b.Dx(), b.Dy())
		return nil
	}

	cands := cache.Candidates()
	switch iconsFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string]interface{}{"stats": stats, "icons": cands})
	case "table":
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		defer w.Flush()
		fmt.Fprintln(w, "APP\tSIZE\tPATH")
		fmt.Fprintln(w, "---\t----\t----")
		for _, c := range cands {
			fmt.Fprintf(w, "%s\t%dx%d\t%s\n", c.App, c.Width, c.Height, c.Path)
		}
		fmt.Fprintf(w, "\n%d apps from %d files in %d directories (%d rejected)\n",
			stats.Apps, stats.Files, stats.Dirs, stats.Rejected)
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", iconsFormat)
	}
}
