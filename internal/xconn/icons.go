package xconn

import (
	"image"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xgraphics"

	"github.com/bryanchriswhite/alttab/internal/icon"
	"github.com/bryanchriswhite/alttab/internal/logger"
	"github.com/bryanchriswhite/alttab/internal/registry"
	"github.com/bryanchriswhite/alttab/internal/window"
)

// Icons reads icons published on client windows.
type Icons struct {
	conn *Conn
}

// NewIcons creates an icon reader on c.
func NewIcons(c *Conn) *Icons {
	return &Icons{conn: c}
}

// EmbeddedIcon converts the _NET_WM_ICON entry closest to target.
func (i *Icons) EmbeddedIcon(win window.ID, target icon.Target) (image.Image, bool) {
	icons, err := ewmh.WmIconGet(i.conn.X, xproto.Window(win))
	if err != nil || len(icons) == 0 {
		return nil, false
	}
	best := pickEwmhIcon(icons, target)
	img := xgraphics.NewEwmhIcon(i.conn.X, &icons[best])
	return img, true
}

// pickEwmhIcon ranks the published sizes the same way icon files are
// ranked; the first of equal sizes wins.
func pickEwmhIcon(icons []ewmh.WmIcon, target icon.Target) int {
	best := -1
	var cur icon.Candidate
	for idx, ic := range icons {
		cand := icon.Candidate{Width: int(ic.Width), Height: int(ic.Height), Priority: -idx}
		if best < 0 || icon.Better(cand, cur, target, true) {
			best, cur = idx, cand
		}
	}
	return best
}

// HintsIcon converts the WM_HINTS icon pixmap and mask. Monochrome pixmaps
// are expanded to full depth, so the result always belongs to the caller.
func (i *Icons) HintsIcon(win window.ID) (image.Image, bool, bool) {
	hints, err := icccm.WmHintsGet(i.conn.X, xproto.Window(win))
	if err != nil || hints.Flags&icccm.HintIconPixmap == 0 || hints.IconPixmap == 0 {
		return nil, false, false
	}
	mask := xproto.Pixmap(0)
	if hints.Flags&icccm.HintIconMask != 0 {
		mask = hints.IconMask
	}
	img, err := xgraphics.NewIcccmIcon(i.conn.X, hints.IconPixmap, mask)
	if err != nil {
		logger.WithComponent("xconn").Debug().Err(err).Stringer("id", win).Msg("HintsIcon: conversion failed")
		return nil, false, false
	}
	return img, true, true
}

var _ registry.WindowIcons = (*Icons)(nil)
