package window

import (
	"github.com/bryanchriswhite/alttab/internal/logger"
	"github.com/bryanchriswhite/alttab/internal/ratpoison"
)

// SelectOptions carries what the backends need besides the connection.
type SelectOptions struct {
	// MaxDepth is the raw X recursion limit; 0 keeps each backend's default.
	MaxDepth int
	// Executor runs the ratpoison controller. Nil means os/exec.
	Executor ratpoison.Executor
	// LookPath overrides controller lookup.
	LookPath func() (string, error)
}

// Select picks the backend for this session. With KindAuto the protocols
// are probed in order EWMH, ratpoison, legacy; legacy always works. Any
// other kind is used as is, whatever its probe says.
func Select(conn Conn, kind Kind, opts SelectOptions) Backend {
	log := logger.WithComponent("window")

	exec := opts.Executor
	if exec == nil {
		exec = ratpoison.ExecRunner{}
	}
	newRatpoison := func() *RatpoisonBackend {
		b := NewRatpoisonBackend(conn, exec)
		if opts.LookPath != nil {
			b.LookPath = opts.LookPath
		}
		return b
	}

	switch kind {
	case KindNone:
		return NewRawXBackend(conn, opts.MaxDepth)
	case KindEWMH:
		b := NewEWMHBackend(conn)
		if !b.Probe() {
			log.Warn().Msg("Select: EWMH forced but probe failed")
		}
		return b
	case KindRatpoison:
		b := newRatpoison()
		if !b.Probe() {
			log.Warn().Msg("Select: ratpoison forced but probe failed")
		}
		return b
	case KindLegacy:
		return NewLegacyBackend(conn, opts.MaxDepth)
	}

	if b := NewEWMHBackend(conn); b.Probe() {
		log.Info().Str("wm", b.Features().WMName).Msg("Select: using EWMH backend")
		return b
	}
	if b := newRatpoison(); b.Probe() {
		log.Info().Msg("Select: using ratpoison backend")
		return b
	}
	log.Info().Msg("Select: unknown window manager, using legacy backend")
	return NewLegacyBackend(conn, opts.MaxDepth)
}
