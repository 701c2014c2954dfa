package icon

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/afero"

	"github.com/bryanchriswhite/alttab/internal/logger"
)

// Entry is the best candidate found for one application.
type Entry struct {
	Candidate

	decoded image.Image
	err     error
	loaded  bool
}

// Decoded reports whether the image was loaded already.
func (e *Entry) Decoded() bool {
	return e.loaded && e.err == nil
}

// Stats summarizes a scan.
type Stats struct {
	Roots    int `json:"roots"`
	Dirs     int `json:"dirs"`
	Files    int `json:"files"`
	Rejected int `json:"rejected"`
	Apps     int `json:"apps"`
}

// Cache maps lower-cased application names to their best icon. Images
// are decoded on first lookup and kept for the life of the process. A
// Cache is owned by one goroutine.
type Cache struct {
	fs          afero.Fs
	target      Target
	preferNewer bool
	entries     map[string]*Entry
	stats       Stats
}

// NewCache creates an empty cache reading from fs.
func NewCache(fs afero.Fs, target Target, preferNewer bool) *Cache {
	return &Cache{
		fs:          fs,
		target:      target,
		preferNewer: preferNewer,
		entries:     make(map[string]*Entry),
	}
}

// Target returns the configured icon size.
func (c *Cache) Target() Target {
	return c.target
}

// Stats returns the counters of all scans so far.
func (c *Cache) Stats() Stats {
	s := c.stats
	s.Apps = len(c.entries)
	return s
}

// Len returns the number of applications with an icon.
func (c *Cache) Len() int {
	return len(c.entries)
}

// DecodedCount returns how many icons were loaded so far.
func (c *Cache) DecodedCount() int {
	n := 0
	for _, e := range c.entries {
		if e.Decoded() {
			n++
		}
	}
	return n
}

// Scan walks roots and keeps the best candidate per application. Missing
// roots are skipped.
func (c *Cache) Scan(roots []Root) Stats {
	log := logger.WithComponent("icon")

	for _, root := range roots {
		themed := root.Themed
		if root.Detect {
			if ok, _ := afero.Exists(c.fs, filepath.Join(root.Dir, "index.theme")); ok {
				themed = true
			}
		}
		if ok, _ := afero.DirExists(c.fs, root.Dir); !ok {
			log.Trace().Str("dir", root.Dir).Msg("Scan: no such root")
			continue
		}
		c.stats.Roots++

		err := afero.Walk(c.fs, root.Dir, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				log.Debug().Err(err).Str("path", p).Msg("Scan: skipping unreadable path")
				return nil
			}
			if info.IsDir() {
				c.stats.Dirs++
				return nil
			}
			c.stats.Files++

			var cand Candidate
			var ok bool
			if themed {
				cand, ok = themedCandidate(p)
			} else {
				cand, ok = c.flatCandidate(p)
			}
			if !ok {
				c.stats.Rejected++
				return nil
			}
			cand.Priority = root.Priority
			c.offer(cand)
			return nil
		})
		if err != nil {
			log.Warn().Err(err).Str("dir", root.Dir).Msg("Scan: walk failed")
		}
	}

	stats := c.Stats()
	log.Debug().
		Int("roots", stats.Roots).
		Int("dirs", stats.Dirs).
		Int("files", stats.Files).
		Int("rejected", stats.Rejected).
		Int("apps", stats.Apps).
		Msg("Scan: summary")
	return stats
}

// Offer considers one candidate. It reports whether it became the best.
func (c *Cache) Offer(cand Candidate) bool {
	return c.offer(cand)
}

func (c *Cache) offer(cand Candidate) bool {
	if cand.App == "" {
		return false
	}
	cur, ok := c.entries[cand.App]
	if ok && !Better(cand, cur.Candidate, c.target, c.preferNewer) {
		return false
	}
	c.entries[cand.App] = &Entry{Candidate: cand}
	return true
}

// themedCandidate accepts <size>/apps/<name> and apps/<size>/<name>.
func themedCandidate(p string) (Candidate, bool) {
	if _, ok := formatFor(p); !ok {
		return Candidate{}, false
	}
	parent := filepath.Base(filepath.Dir(p))
	grand := filepath.Base(filepath.Dir(filepath.Dir(p)))

	var w, h int
	var ok bool
	switch {
	case parent == "apps":
		w, h, ok = ParseDirSize(grand)
	case grand == "apps":
		if w, h, ok = ParseDirSize(parent); !ok {
			if n, err := strconv.Atoi(parent); err == nil && n > 0 {
				w, h, ok = n, n, true
			}
		}
	}
	if !ok {
		return Candidate{}, false
	}
	return Candidate{App: NormalizeName(p), Path: p, Width: w, Height: h}, true
}

// flatCandidate reads the size from the file name, or from the image
// header when the name has no hint.
func (c *Cache) flatCandidate(p string) (Candidate, bool) {
	f, ok := formatFor(p)
	if !ok {
		return Candidate{}, false
	}
	name, w, h, ok := ParseFlatName(stem(p))
	if !ok {
		cfg, err := c.decodeConfig(p, f)
		if err != nil {
			logger.WithComponent("icon").Trace().Err(err).Str("path", p).Msg("flatCandidate: no size")
			return Candidate{}, false
		}
		w, h = cfg.Width, cfg.Height
	}
	return Candidate{App: stripSuffixes(name), Path: p, Width: w, Height: h}, true
}

func (c *Cache) decodeConfig(p string, f Format) (image.Config, error) {
	file, err := c.fs.Open(p)
	if err != nil {
		return image.Config{}, err
	}
	defer file.Close()
	return f.DecodeConfig(file)
}

// Candidate returns the best candidate for an application class without
// decoding it.
func (c *Cache) Candidate(class string) (Candidate, bool) {
	e, ok := c.entries[Key(class)]
	if !ok {
		return Candidate{}, false
	}
	return e.Candidate, true
}

// Lookup returns the decoded icon for an application class. A file that
// failed to decode is not retried.
func (c *Cache) Lookup(class string) (image.Image, Candidate, bool) {
	e, ok := c.entries[Key(class)]
	if !ok {
		return nil, Candidate{}, false
	}
	if !e.loaded {
		e.decoded, e.err = c.decode(e.Path)
		e.loaded = true
		if e.err != nil {
			logger.WithComponent("icon").Warn().Err(e.err).Str("path", e.Path).Msg("Lookup: can't load icon")
		}
	}
	if e.err != nil {
		return nil, e.Candidate, false
	}
	return e.decoded, e.Candidate, true
}

func (c *Cache) decode(p string) (image.Image, error) {
	f, ok := formatFor(p)
	if !ok {
		return nil, fmt.Errorf("%s: %w", p, ErrUnsupported)
	}
	file, err := c.fs.Open(p)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, err := f.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", p, err)
	}
	return img, nil
}

// Candidates lists the chosen candidates sorted by application.
func (c *Cache) Candidates() []Candidate {
	out := make([]Candidate, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.Candidate)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].App < out[j].App })
	return out
}
