package icon

import (
	"path/filepath"
	"strings"
)

// DefaultTheme is the fallback theme every icon theme inherits from.
const DefaultTheme = "hicolor"

// Root is a directory to scan.
type Root struct {
	Dir string `json:"dir"`
	// Themed roots follow the freedesktop layout <size>/<context>/<name>;
	// other roots are flat pixmap directories.
	Themed bool `json:"themed"`
	// Detect decides Themed at scan time by looking for index.theme.
	Detect   bool `json:"detect,omitempty"`
	Priority int  `json:"priority"`
}

// Roots lists the scan roots, oldest first: system pixmaps, the system
// data dirs from least to most preferred, the user's data dir and
// ~/.icons, then extra. getenv is os.Getenv outside tests.
func Roots(getenv func(string) string, theme string, extra []string) []Root {
	if theme == "" {
		theme = DefaultTheme
	}
	themes := []string{DefaultTheme}
	if theme != DefaultTheme {
		themes = append(themes, theme)
	}

	var roots []Root
	seen := make(map[string]bool)
	add := func(dir string, themed, detect bool) {
		if dir == "" {
			return
		}
		dir = filepath.Clean(dir)
		if seen[dir] {
			return
		}
		seen[dir] = true
		roots = append(roots, Root{Dir: dir, Themed: themed, Detect: detect, Priority: len(roots)})
	}
	addBase := func(base string) {
		add(filepath.Join(base, "pixmaps"), false, false)
		for _, th := range themes {
			add(filepath.Join(base, "icons", th), true, false)
		}
	}

	add("/usr/share/pixmaps", false, false)

	dataDirs := getenv("XDG_DATA_DIRS")
	if dataDirs == "" {
		dataDirs = "/usr/local/share:/usr/share"
	}
	dirs := strings.Split(dataDirs, ":")
	for i := len(dirs) - 1; i >= 0; i-- {
		if dirs[i] != "" {
			addBase(dirs[i])
		}
	}
	for _, th := range themes {
		add(filepath.Join("/usr/share/icons", th), true, false)
	}

	home := getenv("HOME")
	dataHome := getenv("XDG_DATA_HOME")
	if dataHome == "" && home != "" {
		dataHome = filepath.Join(home, ".local", "share")
	}
	if dataHome != "" {
		for _, th := range themes {
			add(filepath.Join(dataHome, "icons", th), true, false)
		}
	}
	if home != "" {
		for _, th := range themes {
			add(filepath.Join(home, ".icons", th), true, false)
		}
	}

	for _, dir := range extra {
		add(dir, false, true)
	}
	return roots
}
