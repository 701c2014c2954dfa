package icon

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writeFile(t *testing.T, fs afero.Fs, path string, data []byte) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, data, 0o644))
}

func TestBetterPrefersAtOrAboveTarget(t *testing.T) {
	target := Target{Width: 32, Height: 32}
	c := func(size int) Candidate { return Candidate{Width: size, Height: size, Path: "p"} }

	assert.True(t, Better(c(48), c(24), target, false), "above beats below")
	assert.True(t, Better(c(32), c(48), target, false), "exact beats above")
	assert.True(t, Better(c(48), c(64), target, false), "closer above wins")
	assert.True(t, Better(c(24), c(16), target, false), "closer below wins")
	assert.False(t, Better(c(16), c(256), target, false))
}

func TestBetterTieBreak(t *testing.T) {
	target := Target{Width: 32, Height: 32}
	old := Candidate{Width: 32, Height: 32, Path: "/b", Priority: 1}
	newer := Candidate{Width: 32, Height: 32, Path: "/a", Priority: 2}

	assert.True(t, Better(newer, old, target, true))
	assert.False(t, Better(newer, old, target, false))
	assert.True(t, Better(old, newer, target, false))
}

func TestSelectionIsOrderIndependent(t *testing.T) {
	cands := []Candidate{
		{App: "xterm", Path: "/p/xterm_16x16.png", Width: 16, Height: 16, Priority: 0},
		{App: "xterm", Path: "/t/48x48/apps/xterm.png", Width: 48, Height: 48, Priority: 1},
		{App: "xterm", Path: "/u/48x48/apps/xterm.png", Width: 48, Height: 48, Priority: 3},
		{App: "xterm", Path: "/t/64x64/apps/xterm.png", Width: 64, Height: 64, Priority: 1},
		{App: "xterm", Path: "/t/24x24/apps/xterm.png", Width: 24, Height: 24, Priority: 1},
		{App: "xterm", Path: "/t/48x48/apps/xterm-color.png", Width: 48, Height: 48, Priority: 1},
	}
	target := Target{Width: 40, Height: 40}

	for _, preferNewer := range []bool{false, true} {
		var want string
		rng := rand.New(rand.NewSource(1))
		for i := 0; i < 30; i++ {
			c := NewCache(afero.NewMemMapFs(), target, preferNewer)
			perm := rng.Perm(len(cands))
			for _, j := range perm {
				c.Offer(cands[j])
			}
			got, ok := c.Candidate("XTerm")
			require.True(t, ok)
			if want == "" {
				want = got.Path
			}
			require.Equal(t, want, got.Path, "permutation %v", perm)
		}
		if preferNewer {
			assert.Equal(t, "/u/48x48/apps/xterm.png", want)
		} else {
			assert.Equal(t, "/t/48x48/apps/xterm-color.png", want)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "firefox", NormalizeName("/x/Firefox-ESR.png"))
	assert.Equal(t, "display", NormalizeName("display-im6.q16.png"))
	assert.Equal(t, "xterm", NormalizeName("xterm-color_48x48.png"))
	assert.Equal(t, "org", NormalizeName("org.gnome.Nautilus.png"))
}

func TestParseNames(t *testing.T) {
	w, h, ok := ParseDirSize("48x48@2")
	require.True(t, ok)
	assert.Equal(t, []int{48, 48}, []int{w, h})
	_, _, ok = ParseDirSize("scalable")
	assert.False(t, ok)

	name, w, h, ok := ParseFlatName("xterm_32x48")
	require.True(t, ok)
	assert.Equal(t, "xterm", name)
	assert.Equal(t, []int{32, 48}, []int{w, h})

	name, w, _, ok = ParseFlatName("gvim-48")
	require.True(t, ok)
	assert.Equal(t, "gvim", name)
	assert.Equal(t, 48, w)

	name, w, _, ok = ParseFlatName("mini-term16")
	require.True(t, ok)
	assert.Equal(t, "mini-term", name)
	assert.Equal(t, 16, w)

	name, _, _, ok = ParseFlatName("python3")
	assert.False(t, ok, "small trailing numbers are versions")
	assert.Equal(t, "python3", name)
}

func TestScanAndLookup(t *testing.T) {
	fs := afero.NewMemMapFs()
	data := pngBytes(t, 4, 4)
	writeFile(t, fs, "/usr/share/icons/hicolor/16x16/apps/xterm.png", data)
	writeFile(t, fs, "/usr/share/icons/hicolor/32x32/apps/xterm.png", data)
	writeFile(t, fs, "/usr/share/icons/hicolor/32x32/actions/edit.png", data)
	writeFile(t, fs, "/usr/share/icons/hicolor/32x32/apps/notes.txt", []byte("x"))
	writeFile(t, fs, "/usr/share/icons/hicolor/scalable/apps/xterm.svg", []byte("<svg/>"))
	writeFile(t, fs, "/usr/share/icons/hicolor/apps/48/gimp.png", data)
	writeFile(t, fs, "/usr/share/pixmaps/gvim-32.png", data)
	writeFile(t, fs, "/usr/share/pixmaps/feh.png", pngBytes(t, 30, 30))
	writeFile(t, fs, "/usr/share/pixmaps/broken.png", []byte("not a png"))

	roots := Roots(func(k string) string {
		if k == "XDG_DATA_DIRS" {
			return "/usr/share"
		}
		return ""
	}, "", nil)
	c := NewCache(fs, Target{Width: 32, Height: 32}, false)
	stats := c.Scan(roots)

	assert.Equal(t, 4, stats.Apps)
	assert.Equal(t, 4, stats.Rejected, "actions, txt, svg and the unreadable pixmap")

	cand, ok := c.Candidate("XTerm")
	require.True(t, ok)
	assert.Equal(t, "/usr/share/icons/hicolor/32x32/apps/xterm.png", cand.Path)

	cand, ok = c.Candidate("feh")
	require.True(t, ok)
	assert.Equal(t, 30, cand.Height, "size from the image header")

	cand, ok = c.Candidate("gimp")
	require.True(t, ok)
	assert.Equal(t, 48, cand.Width)

	assert.Equal(t, 0, c.DecodedCount())
	img, _, ok := c.Lookup("xterm")
	require.True(t, ok)
	assert.Equal(t, 4, img.Bounds().Dx())
	assert.Equal(t, 1, c.DecodedCount())

	_, _, ok = c.Lookup("nonexistent")
	assert.False(t, ok)
}

func TestLookupRemembersDecodeFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	c := NewCache(fs, Target{Width: 32, Height: 32}, false)
	require.True(t, c.Offer(Candidate{App: "bad", Path: "/x/bad.png", Width: 32, Height: 32}))

	_, _, ok := c.Lookup("bad")
	assert.False(t, ok)

	// The file showing up later does not matter.
	writeFile(t, fs, "/x/bad.png", pngBytes(t, 2, 2))
	_, _, ok = c.Lookup("bad")
	assert.False(t, ok)
}

func TestRootsOrder(t *testing.T) {
	env := map[string]string{
		"HOME":          "/home/u",
		"XDG_DATA_DIRS": "/opt/share:/usr/share",
	}
	roots := Roots(func(k string) string { return env[k] }, "Papirus", []string{"/extra"})

	var dirs []string
	for i, r := range roots {
		assert.Equal(t, i, r.Priority)
		dirs = append(dirs, r.Dir)
	}
	assert.Equal(t, []string{
		"/usr/share/pixmaps",
		"/usr/share/icons/hicolor",
		"/usr/share/icons/Papirus",
		"/opt/share/pixmaps",
		"/opt/share/icons/hicolor",
		"/opt/share/icons/Papirus",
		"/home/u/.local/share/icons/hicolor",
		"/home/u/.local/share/icons/Papirus",
		"/home/u/.icons/hicolor",
		"/home/u/.icons/Papirus",
		"/extra",
	}, dirs)
	assert.True(t, roots[len(roots)-1].Detect)
}
