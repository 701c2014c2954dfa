package switcher

import (
	"time"

	"github.com/bryanchriswhite/alttab/internal/icon"
	"github.com/bryanchriswhite/alttab/internal/mru"
	"github.com/bryanchriswhite/alttab/internal/window"
)

// Status is a copy of the switcher state safe to hand to other goroutines.
type Status struct {
	Backend      window.Kind     `json:"backend"`
	Shown        bool            `json:"shown"`
	MRU          []mru.Entry     `json:"mru"`
	Tombstones   int             `json:"tombstones"`
	Windows      []window.Record `json:"windows"`
	Selected     int             `json:"selected"`
	Icons        icon.Stats      `json:"icons"`
	IconsDecoded int             `json:"icons_decoded"`
	Policy       window.Filter   `json:"policy"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Snapshot copies the current state.
func (s *Switcher) Snapshot() Status {
	st := Status{
		Backend:    s.backend.Kind(),
		Shown:      s.shown,
		MRU:        s.mru.Entries(),
		Tombstones: s.mru.Tombstones(),
		Selected:   s.reg.Selected(),
		Policy:     s.policy,
		UpdatedAt:  time.Now(),
	}
	if entries := s.reg.Entries(); len(entries) > 0 {
		st.Windows = make([]window.Record, len(entries))
		copy(st.Windows, entries)
	}
	if s.icons != nil {
		st.Icons = s.icons.Stats()
		st.IconsDecoded = s.icons.DecodedCount()
	}
	return st
}

func (s *Switcher) publish() {
	if s.status != nil {
		s.status(s.Snapshot())
	}
}
