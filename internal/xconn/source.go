package xconn

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xprop"

	"github.com/bryanchriswhite/alttab/internal/logger"
	"github.com/bryanchriswhite/alttab/internal/switcher"
	"github.com/bryanchriswhite/alttab/internal/window"
)

// Keys describes the grabbed chords.
type Keys struct {
	// Main is the forward chord, e.g. "Mod1-Tab".
	Main string
	// Modifier is the keysym polled to detect release, e.g. "Alt_L".
	Modifier string
	// Backward is the extra modifier that reverses the direction, e.g.
	// "Shift".
	Backward string
}

// Source delivers translated X events to the switcher loop.
type Source struct {
	conn *Conn

	modKeys      []xproto.Keycode
	backwardMask uint16
}

// NewSource grabs the configured keys on the root window and starts
// watching it.
func NewSource(c *Conn, keys Keys) (*Source, error) {
	log := logger.WithComponent("xconn")

	if err := c.WatchRoot(); err != nil {
		return nil, err
	}

	mainMods, mainCodes, err := keybind.ParseString(c.X, keys.Main)
	if err != nil {
		return nil, fmt.Errorf("invalid key %q: %w", keys.Main, err)
	}
	s := &Source{conn: c}

	chords := []string{keys.Main}
	if keys.Backward != "" {
		chord := keys.Backward + "-" + keys.Main
		backMods, _, err := keybind.ParseString(c.X, chord)
		if err != nil {
			return nil, fmt.Errorf("invalid backward modifier %q: %w", keys.Backward, err)
		}
		s.backwardMask = backMods &^ mainMods
		chords = append(chords, chord)
	}

	for _, chord := range chords {
		mods, codes, err := keybind.ParseString(c.X, chord)
		if err != nil {
			return nil, fmt.Errorf("invalid key %q: %w", chord, err)
		}
		for _, code := range codes {
			if err := keybind.GrabChecked(c.X, c.root, mods, code); err != nil {
				return nil, fmt.Errorf("failed to grab %q, is another switcher running?: %w", chord, err)
			}
		}
	}

	s.modKeys = keybind.StrToKeycodes(c.X, keys.Modifier)
	if len(s.modKeys) == 0 {
		return nil, fmt.Errorf("modifier keysym %q has no keycode", keys.Modifier)
	}

	log.Info().
		Str("main", keys.Main).
		Str("modifier", keys.Modifier).
		Str("backward", keys.Backward).
		Int("keycodes", len(mainCodes)).
		Msg("Grabbed keys")
	return s, nil
}

// Next blocks until an event the switcher understands arrives.
func (s *Source) Next() (switcher.Event, error) {
	for {
		ev, xerr := s.conn.X.Conn().WaitForEvent()
		if ev == nil && xerr == nil {
			return nil, errors.New("X connection closed")
		}
		if xerr != nil {
			// Requests on windows that vanished meanwhile fail routinely.
			logger.WithComponent("xconn").Trace().Str("error", xerr.Error()).Msg("X error")
			continue
		}
		if out, ok := s.translate(ev); ok {
			return out, nil
		}
	}
}

func (s *Source) translate(ev xgb.Event) (switcher.Event, bool) {
	return translate(ev, s.conn.root, s.backwardMask, func(a xproto.Atom) string {
		name, err := xprop.AtomName(s.conn.X, a)
		if err != nil {
			return ""
		}
		return name
	})
}

// translate maps protocol events onto switcher events.
func translate(ev xgb.Event, root xproto.Window, backwardMask uint16, atomName func(xproto.Atom) string) (switcher.Event, bool) {
	switch e := ev.(type) {
	case xproto.PropertyNotifyEvent:
		if e.Window != root {
			return nil, false
		}
		return switcher.PropertyEvent{Window: window.ID(e.Window), Atom: atomName(e.Atom)}, true
	case xproto.FocusInEvent:
		return switcher.FocusEvent{Window: window.ID(e.Event), Mode: focusMode(e.Mode), In: true}, true
	case xproto.FocusOutEvent:
		return switcher.FocusEvent{Window: window.ID(e.Event), Mode: focusMode(e.Mode)}, true
	case xproto.DestroyNotifyEvent:
		return switcher.DestroyEvent{Window: window.ID(e.Window)}, true
	case xproto.CreateNotifyEvent:
		if e.Parent != root {
			return nil, false
		}
		return switcher.CreateEvent{Window: window.ID(e.Window)}, true
	case xproto.KeyPressEvent:
		return switcher.KeyEvent{Backward: backwardMask != 0 && e.State&backwardMask != 0}, true
	case xproto.ButtonPressEvent:
		return switcher.ButtonEvent{X: int(e.EventX), Y: int(e.EventY), Press: true}, true
	case xproto.ButtonReleaseEvent:
		return switcher.ButtonEvent{X: int(e.EventX), Y: int(e.EventY)}, true
	case xproto.ExposeEvent:
		if e.Count != 0 {
			return nil, false
		}
		return switcher.ExposeEvent{}, true
	}
	return nil, false
}

func focusMode(mode byte) switcher.FocusMode {
	switch mode {
	case xproto.NotifyModeGrab:
		return switcher.FocusGrab
	case xproto.NotifyModeUngrab:
		return switcher.FocusUngrab
	case xproto.NotifyModeWhileGrabbed:
		return switcher.FocusWhileGrabbed
	}
	return switcher.FocusNormal
}

// ModifierHeld reads the keymap and reports whether any keycode of the
// modifier keysym is down.
func (s *Source) ModifierHeld() (bool, error) {
	reply, err := xproto.QueryKeymap(s.conn.X.Conn()).Reply()
	if err != nil {
		return false, fmt.Errorf("failed to query keymap: %w", err)
	}
	return anyPressed(reply.Keys, s.modKeys), nil
}

func anyPressed(keys []byte, codes []xproto.Keycode) bool {
	for _, code := range codes {
		i := int(code) / 8
		if i < len(keys) && keys[i]&(1<<(uint(code)%8)) != 0 {
			return true
		}
	}
	return false
}

var _ switcher.Source = (*Source)(nil)
