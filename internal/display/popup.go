// Package display draws the switcher popup.
package display

import (
	"fmt"
	"image"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/bryanchriswhite/alttab/internal/logger"
	"github.com/bryanchriswhite/alttab/internal/switcher"
	"github.com/bryanchriswhite/alttab/internal/window"
)

// WindowName is the popup's title and WM_CLASS.
const WindowName = "alttab"

// Config sizes and colors the popup.
type Config struct {
	TileWidth  int
	TileHeight int
	Theme      Theme
	// Viewport returns the area to center on.
	Viewport func() window.Geometry
}

// Popup is an override-redirect window showing one tile per window.
type Popup struct {
	conn   *xgb.Conn
	screen *xproto.ScreenInfo
	cfg    Config

	win      xproto.Window
	gc       xproto.Gcontext
	layout   Layout
	records  []window.Record
	selected int
}

// NewPopup creates a popup on the given connection. The X window is only
// created by Show.
func NewPopup(conn *xgb.Conn, screen *xproto.ScreenInfo, cfg Config) *Popup {
	if cfg.TileWidth <= 0 {
		cfg.TileWidth = 112
	}
	if cfg.TileHeight <= 0 {
		cfg.TileHeight = 128
	}
	return &Popup{conn: conn, screen: screen, cfg: cfg, selected: -1}
}

func (p *Popup) viewport() window.Geometry {
	if p.cfg.Viewport != nil {
		if v := p.cfg.Viewport(); !v.Empty() {
			return v
		}
	}
	return window.Geometry{Width: int(p.screen.WidthInPixels), Height: int(p.screen.HeightInPixels)}
}

// Show creates and maps the popup window.
func (p *Popup) Show(records []window.Record, selected int) error {
	log := logger.WithComponent("display")

	if p.win != 0 {
		p.Hide()
	}
	vp := p.viewport()
	p.layout = ComputeLayout(len(records), p.cfg.TileWidth, p.cfg.TileHeight, vp.Width)
	p.records = records
	p.selected = selected
	pos := p.layout.Center(vp)

	wid, err := xproto.NewWindowId(p.conn)
	if err != nil {
		return fmt.Errorf("failed to create window ID: %w", err)
	}
	mask := uint32(xproto.CwBackPixel | xproto.CwOverrideRedirect | xproto.CwEventMask)
	values := []uint32{
		0x000000,
		1,
		xproto.EventMaskExposure | xproto.EventMaskButtonPress | xproto.EventMaskButtonRelease,
	}
	err = xproto.CreateWindowChecked(
		p.conn,
		p.screen.RootDepth,
		wid,
		p.screen.Root,
		int16(pos.X), int16(pos.Y),
		uint16(p.layout.Width), uint16(p.layout.Height),
		0,
		xproto.WindowClassInputOutput,
		p.screen.RootVisual,
		mask,
		values,
	).Check()
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	p.win = wid

	if err := p.setProperty("_NET_WM_NAME", "UTF8_STRING", WindowName); err != nil {
		log.Debug().Err(err).Msg("Show: failed to set window title")
	}
	if err := p.setProperty("WM_NAME", "STRING", WindowName); err != nil {
		log.Debug().Err(err).Msg("Show: failed to set window name")
	}
	if err := p.setProperty("WM_CLASS", "STRING", WindowName+"\x00"+WindowName+"\x00"); err != nil {
		log.Debug().Err(err).Msg("Show: failed to set window class")
	}

	gc, err := xproto.NewGcontextId(p.conn)
	if err != nil {
		p.destroy()
		return fmt.Errorf("failed to create graphics context ID: %w", err)
	}
	if err := xproto.CreateGCChecked(p.conn, gc, xproto.Drawable(wid), 0, nil).Check(); err != nil {
		p.destroy()
		return fmt.Errorf("failed to create GC: %w", err)
	}
	p.gc = gc

	if err := xproto.MapWindowChecked(p.conn, wid).Check(); err != nil {
		p.destroy()
		return fmt.Errorf("failed to map window: %w", err)
	}
	p.Redraw()

	log.Debug().
		Int("tiles", len(records)).
		Int("tile_width", p.layout.TileWidth).
		Int("width", p.layout.Width).
		Stringer("window_id", window.ID(wid)).
		Msg("Popup shown")
	return nil
}

// Select moves the highlight and repaints.
func (p *Popup) Select(selected int) {
	p.selected = selected
	p.Redraw()
}

// Redraw repaints the whole popup.
func (p *Popup) Redraw() {
	if p.win == 0 {
		return
	}
	img := Render(p.records, p.selected, p.layout, p.cfg.Theme)
	if err := p.putImage(img); err != nil {
		logger.WithComponent("display").Warn().Err(err).Msg("Redraw failed")
	}
}

// Hide destroys the popup window.
func (p *Popup) Hide() {
	p.destroy()
	p.records = nil
	p.selected = -1
}

func (p *Popup) destroy() {
	if p.gc != 0 {
		xproto.FreeGC(p.conn, p.gc)
		p.gc = 0
	}
	if p.win != 0 {
		xproto.DestroyWindow(p.conn, p.win)
		p.conn.Sync()
		p.win = 0
	}
}

// Window returns the popup window, None while hidden.
func (p *Popup) Window() window.ID {
	return window.ID(p.win)
}

// TileAt maps popup coordinates to a tile index.
func (p *Popup) TileAt(x, y int) int {
	if p.win == 0 {
		return -1
	}
	return p.layout.TileAt(x, y)
}

func (p *Popup) setProperty(name, typeName, value string) error {
	prop, err := p.atom(name)
	if err != nil {
		return err
	}
	typ, err := p.atom(typeName)
	if err != nil {
		return err
	}
	return xproto.ChangePropertyChecked(
		p.conn,
		xproto.PropModeReplace,
		p.win,
		prop,
		typ,
		8,
		uint32(len(value)),
		[]byte(value),
	).Check()
}

func (p *Popup) atom(name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(p.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to intern %s: %w", name, err)
	}
	return reply.Atom, nil
}

// putImage sends img to the popup window in the server's pixmap format.
func (p *Popup) putImage(img *image.RGBA) error {
	depth := p.screen.RootDepth
	bpp, pad, err := pixmapFormat(xproto.Setup(p.conn).PixmapFormats, depth)
	if err != nil {
		return err
	}
	data, err := encodeZPixmap(img, bpp, pad, depth)
	if err != nil {
		return err
	}

	b := img.Bounds()
	if b.Empty() {
		return nil
	}
	// PutImage requests are limited in size, so send bands of rows.
	stride := len(data) / b.Dy()
	rows := maxRequestBytes / stride
	if rows < 1 {
		rows = 1
	}
	for y := 0; y < b.Dy(); y += rows {
		n := rows
		if y+n > b.Dy() {
			n = b.Dy() - y
		}
		err := xproto.PutImageChecked(
			p.conn,
			xproto.ImageFormatZPixmap,
			xproto.Drawable(p.win),
			p.gc,
			uint16(b.Dx()), uint16(n),
			0, int16(y),
			0,
			depth,
			data[y*stride:(y+n)*stride],
		).Check()
		if err != nil {
			return fmt.Errorf("failed to put image: %w", err)
		}
	}
	p.conn.Sync()
	return nil
}

// maxRequestBytes stays below the core protocol's 256 KiB request limit.
const maxRequestBytes = 200 * 1024

func pixmapFormat(formats []xproto.Format, depth byte) (bitsPerPixel, scanlinePad int, err error) {
	for _, f := range formats {
		if f.Depth == depth {
			return int(f.BitsPerPixel), int(f.ScanlinePad), nil
		}
	}
	return 0, 0, fmt.Errorf("no pixmap format for depth %d", depth)
}

// encodeZPixmap converts RGBA to the BGRx layout of 24 and 32 bit visuals,
// padding each scanline.
func encodeZPixmap(img *image.RGBA, bitsPerPixel, scanlinePad int, depth byte) ([]byte, error) {
	bytesPerPixel := bitsPerPixel / 8
	if bytesPerPixel != 3 && bytesPerPixel != 4 {
		return nil, fmt.Errorf("unsupported bytes per pixel: %d", bytesPerPixel)
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	padBytes := scanlinePad / 8
	if padBytes == 0 {
		padBytes = 1
	}
	stride := (w*bytesPerPixel + padBytes - 1) / padBytes * padBytes

	data := make([]byte, stride*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			dst := y*stride + x*bytesPerPixel
			data[dst] = img.Pix[src+2]
			data[dst+1] = img.Pix[src+1]
			data[dst+2] = img.Pix[src]
			if bytesPerPixel == 4 && depth == 32 {
				data[dst+3] = img.Pix[src+3]
			}
		}
	}
	return data, nil
}

var _ switcher.Popup = (*Popup)(nil)
