package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bryanchriswhite/alttab/internal/window"
	"github.com/bryanchriswhite/alttab/internal/xconn"
)

var backendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Show the detected window manager backend",
	Long: `Probe the window manager the way the switcher does at startup and print
the backend that would be used.`,
	RunE: runBackend,
}

func init() {
	rootCmd.AddCommand(backendCmd)
}

func runBackend(cmd *cobra.Command, args []string) error {
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
	fmt.Printf("Backend:        %s\n", backend.Kind())
	if name := window.WMName(conn); name != "" {
		fmt.Printf("Window manager: %s\n", name)
	}
	if b, ok := backend.(*window.EWMHBackend); ok {
		f := b.Features()
		fmt.Printf("Stacking list:  %t\n", f.TryStackingListFirst)
	}
	fmt.Printf("Heads:          %d\n", len(conn.Heads()))
	return nil
}
