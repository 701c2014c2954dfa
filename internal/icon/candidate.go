// Package icon finds application icons in freedesktop icon themes and
// legacy pixmap directories.
package icon

import (
	"path"
	"regexp"
	"strconv"
	"strings"
)

// Candidate is one icon file for an application.
type Candidate struct {
	App    string `json:"app"`
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	// Priority orders scan roots; later roots have higher priority and
	// count as newer.
	Priority int `json:"priority"`
}

// Target is the configured icon size.
type Target struct {
	Width  int
	Height int
}

// rank scores a height: icons at or above the target beat smaller ones,
// then the closest wins.
func rank(size, target int) (below int, dist int) {
	d := size - target
	if d < 0 {
		return 1, -d
	}
	return 0, d
}

// Better reports whether c should replace cur. Height decides first, the
// width next. Equal fitness goes to the newer root when preferNewer is
// set and to the older one otherwise, then to the smaller path, so the
// winner among a set of candidates does not depend on the order they were
// found in.
func Better(c, cur Candidate, t Target, preferNewer bool) bool {
	cb, cd := rank(c.Height, t.Height)
	ub, ud := rank(cur.Height, t.Height)
	if cb != ub {
		return cb < ub
	}
	if cd != ud {
		return cd < ud
	}
	cb, cd = rank(c.Width, t.Width)
	ub, ud = rank(cur.Width, t.Width)
	if cb != ub {
		return cb < ub
	}
	if cd != ud {
		return cd < ud
	}
	if c.Priority != cur.Priority {
		if preferNewer {
			return c.Priority > cur.Priority
		}
		return c.Priority < cur.Priority
	}
	return c.Path < cur.Path
}

// Fits reports whether c is strictly closer to the target than an icon of
// the given size.
func Fits(c Candidate, width, height int, t Target) bool {
	cb, cd := rank(c.Height, t.Height)
	ub, ud := rank(height, t.Height)
	if cb != ub {
		return cb < ub
	}
	if cd != ud {
		return cd < ud
	}
	cb, cd = rank(c.Width, t.Width)
	ub, ud = rank(width, t.Width)
	if cb != ub {
		return cb < ub
	}
	return cd < ud
}

// genericSuffixes are cut from file names so e.g. "firefox-esr.png" serves
// the "firefox" class.
var genericSuffixes = []string{"-color", "-esr", "-im6"}

// NormalizeName turns an icon file name into the application key:
// lower case, no extension, nothing after the first dot, no generic
// suffix.
func NormalizeName(filename string) string {
	return stripSuffixes(stem(filename))
}

// stem lower-cases the base name and cuts the extension and anything after
// the first remaining dot.
func stem(filename string) string {
	name := strings.ToLower(path.Base(filename))
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	return name
}

func stripSuffixes(name string) string {
	for _, sfx := range genericSuffixes {
		if i := strings.Index(name, sfx); i > 0 {
			name = name[:i]
		}
	}
	return name
}

// Key lower-cases an application class for lookups.
func Key(class string) string {
	return strings.ToLower(class)
}

// ParseDirSize reads a theme size directory such as "48x48" or "48x48@2".
func ParseDirSize(dir string) (w, h int, ok bool) {
	dir, _, _ = strings.Cut(dir, "@")
	ws, hs, found := strings.Cut(dir, "x")
	if !found {
		return 0, 0, false
	}
	w, err := strconv.Atoi(ws)
	if err != nil || w <= 0 {
		return 0, 0, false
	}
	h, err = strconv.Atoi(hs)
	if err != nil || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

var (
	flatWxH  = regexp.MustCompile(`^(.+?)_(\d+)x(\d+)$`)
	flatDash = regexp.MustCompile(`^(.+?)-(\d+)$`)
	flatNum  = regexp.MustCompile(`^(.*[^\d])(\d+)$`)
)

// ParseFlatName reads a size hint from a pixmap file name without its
// extension: "name_WWxHH", "name-NN" or "nameNN". ok is false when the
// name carries no hint; name is then the input.
func ParseFlatName(base string) (name string, w, h int, ok bool) {
	if m := flatWxH.FindStringSubmatch(base); m != nil {
		w, _ = strconv.Atoi(m[2])
		h, _ = strconv.Atoi(m[3])
		if w > 0 && h > 0 {
			return m[1], w, h, true
		}
	}
	for _, re := range []*regexp.Regexp{flatDash, flatNum} {
		if m := re.FindStringSubmatch(base); m != nil {
			n, _ := strconv.Atoi(m[2])
			// Version numbers like "python3" are not sizes.
			if n >= 8 {
				return m[1], n, n, true
			}
		}
	}
	return base, 0, 0, false
}
