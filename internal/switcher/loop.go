package switcher

import (
	"context"
	"fmt"
	"time"

	"github.com/bryanchriswhite/alttab/internal/logger"
	"github.com/bryanchriswhite/alttab/internal/ratpoison"
)

// ReleasePollInterval is how often the modifier state is read while the
// popup is shown. The release event is not delivered reliably in every
// configuration, so the loop polls instead of waiting for it.
const ReleasePollInterval = 10 * time.Millisecond

// Source delivers X events and keyboard state.
type Source interface {
	// Next blocks until the next event.
	Next() (Event, error)
	// ModifierHeld reports whether the switcher modifier is still down.
	ModifierHeld() (bool, error)
}

// Do queues fn to run on the loop goroutine.
func (s *Switcher) Do(fn func()) {
	s.calls <- fn
}

// Run processes events until ctx is done or the source fails. It blocks
// while the popup is hidden and polls the modifier every
// ReleasePollInterval while it is shown. Unparseable controller output
// ends the loop with an error.
func (s *Switcher) Run(ctx context.Context, src Source) error {
	log := logger.WithComponent("switcher")

	events := make(chan Event, 64)
	errs := make(chan error, 1)
	go func() {
		for {
			ev, err := src.Next()
			if err != nil {
				errs <- err
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	var ticker *time.Ticker
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	log.Info().Str("backend", string(s.backend.Kind())).Msg("Event loop started")
	for {
		var tick <-chan time.Time
		switch {
		case s.shown && ticker == nil:
			ticker = time.NewTicker(ReleasePollInterval)
			tick = ticker.C
		case s.shown:
			tick = ticker.C
		case ticker != nil:
			ticker.Stop()
			ticker = nil
		}

		select {
		case <-ctx.Done():
			log.Info().Msg("Event loop stopped")
			return nil
		case err := <-errs:
			return fmt.Errorf("event source failed: %w", err)
		case fn := <-s.calls:
			fn()
		case ev := <-events:
			if err := s.OnForeignEvent(ev); err != nil {
				if ratpoison.IsProtocolError(err) {
					return err
				}
				log.Warn().Err(err).Msg("Event handling failed")
			}
		case <-tick:
			held, err := src.ModifierHeld()
			if err != nil {
				log.Debug().Err(err).Msg("Keymap query failed")
				continue
			}
			if !held {
				s.Hide()
				s.publish()
			}
		}
	}
}
