package display

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/bryanchriswhite/alttab/internal/window"
)

const (
	// Gap is the space between tiles and around the row.
	Gap = 8
	// FrameWidth is the width of the selection frame.
	FrameWidth = 2
	// MinTileWidth keeps shrunk tiles usable.
	MinTileWidth = 24
)

// Theme holds the popup colors.
type Theme struct {
	Background color.RGBA
	Foreground color.RGBA
	Frame      color.RGBA
}

// DefaultTheme matches the classic look.
var DefaultTheme = Theme{
	Background: color.RGBA{0x00, 0x00, 0x00, 0xff},
	Foreground: color.RGBA{0xbe, 0xbe, 0xbe, 0xff},
	Frame:      color.RGBA{0xa0, 0xab, 0xab, 0xff},
}

// ParseColor reads "#rrggbb".
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q, want #rrggbb", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// Layout places n tiles in a single row.
type Layout struct {
	N          int
	TileWidth  int
	TileHeight int
	Width      int
	Height     int
}

// ComputeLayout sizes the popup for n tiles of the configured size,
// shrinking tiles when the row does not fit maxWidth.
func ComputeLayout(n, tileWidth, tileHeight, maxWidth int) Layout {
	l := Layout{N: n, TileWidth: tileWidth, TileHeight: tileHeight}
	if n <= 0 {
		return l
	}
	if maxWidth > 0 {
		if fit := (maxWidth - Gap*(n+1)) / n; fit < l.TileWidth {
			l.TileWidth = fit
		}
	}
	if l.TileWidth < MinTileWidth {
		l.TileWidth = MinTileWidth
	}
	l.Width = n*l.TileWidth + (n+1)*Gap
	l.Height = l.TileHeight + 2*Gap
	return l
}

// Tile returns the rectangle of tile i.
func (l Layout) Tile(i int) image.Rectangle {
	x := Gap + i*(l.TileWidth+Gap)
	return image.Rect(x, Gap, x+l.TileWidth, Gap+l.TileHeight)
}

// TileAt maps popup coordinates to a tile index, -1 for the gaps.
func (l Layout) TileAt(x, y int) int {
	p := image.Pt(x, y)
	for i := 0; i < l.N; i++ {
		if p.In(l.Tile(i)) {
			return i
		}
	}
	return -1
}

// Center places the popup in the middle of viewport.
func (l Layout) Center(viewport window.Geometry) image.Point {
	return image.Pt(
		viewport.X+(viewport.Width-l.Width)/2,
		viewport.Y+(viewport.Height-l.Height)/2,
	)
}

// Render draws all tiles and highlights the selected one.
func Render(records []window.Record, selected int, l Layout, theme Theme) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, l.Width, l.Height))
	xdraw.Draw(img, img.Bounds(), image.NewUniform(theme.Background), image.Point{}, xdraw.Src)

	face := basicfont.Face7x13
	lineHeight := face.Metrics().Height.Ceil()

	for i, rec := range records {
		if i >= l.N {
			break
		}
		tile := l.Tile(i)
		inner := tile.Inset(FrameWidth + 2)
		if inner.Empty() {
			continue
		}

		lines := wrap(face, rec.Title, inner.Dx(), 2)
		textHeight := len(lines) * lineHeight
		iconArea := image.Rect(inner.Min.X, inner.Min.Y, inner.Max.X, inner.Max.Y-textHeight)
		if rec.Icon != nil && !iconArea.Empty() {
			drawIcon(img, iconArea, rec.Icon)
		}
		drawLines(img, face, lines, image.Rect(inner.Min.X, inner.Max.Y-textHeight, inner.Max.X, inner.Max.Y), theme.Foreground)

		if i == selected {
			drawFrame(img, tile, FrameWidth, theme.Frame)
		}
	}
	return img
}

// drawIcon scales src down to fit area, keeping the aspect ratio, and
// centers it. Icons are never enlarged.
func drawIcon(dst *image.RGBA, area image.Rectangle, src image.Image) {
	sb := src.Bounds()
	w, h := sb.Dx(), sb.Dy()
	if w == 0 || h == 0 {
		return
	}
	if w > area.Dx() || h > area.Dy() {
		if w*area.Dy() > h*area.Dx() {
			w, h = area.Dx(), h*area.Dx()/w
		} else {
			w, h = w*area.Dy()/h, area.Dy()
		}
	}
	x := area.Min.X + (area.Dx()-w)/2
	y := area.Min.Y + (area.Dy()-h)/2
	xdraw.CatmullRom.Scale(dst, image.Rect(x, y, x+w, y+h), src, sb, xdraw.Over, nil)
}

func drawFrame(dst *image.RGBA, r image.Rectangle, width int, c color.RGBA) {
	u := image.NewUniform(c)
	for _, edge := range []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width),
		image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+width, r.Max.Y),
		image.Rect(r.Max.X-width, r.Min.Y, r.Max.X, r.Max.Y),
	} {
		xdraw.Draw(dst, edge, u, image.Point{}, xdraw.Src)
	}
}

func drawLines(dst *image.RGBA, face font.Face, lines []string, area image.Rectangle, c color.RGBA) {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(c), Face: face}
	m := face.Metrics()
	y := area.Min.Y + m.Ascent.Ceil()
	for _, line := range lines {
		w := d.MeasureString(line).Ceil()
		d.Dot = fixed.P(area.Min.X+(area.Dx()-w)/2, y)
		d.DrawString(line)
		y += m.Height.Ceil()
	}
}

// wrap breaks s into at most maxLines lines no wider than width. Words
// longer than a line are cut; the last line is truncated with "..".
func wrap(face font.Face, s string, width, maxLines int) []string {
	fits := func(t string) bool {
		return font.MeasureString(face, t).Ceil() <= width
	}

	var lines []string
	line := ""
	words := strings.Fields(s)
	for len(words) > 0 {
		w := words[0]
		candidate := w
		if line != "" {
			candidate = line + " " + w
		}
		switch {
		case fits(candidate):
			line = candidate
			words = words[1:]
		case line != "":
			lines = append(lines, line)
			line = ""
		default:
			r := []rune(w)
			cut := len(r)
			for cut > 1 && !fits(string(r[:cut])) {
				cut--
			}
			lines = append(lines, string(r[:cut]))
			words[0] = string(r[cut:])
		}
		if len(lines) == maxLines {
			break
		}
	}
	if line != "" && len(lines) < maxLines {
		lines = append(lines, line)
		line = ""
	}
	if (len(words) > 0 || line != "") && len(lines) > 0 {
		last := []rune(lines[len(lines)-1])
		for len(last) > 0 && !fits(string(last)+"..") {
			last = last[:len(last)-1]
		}
		lines[len(lines)-1] = string(last) + ".."
	}
	return lines
}
