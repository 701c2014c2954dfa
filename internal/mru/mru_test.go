package mru

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanchriswhite/alttab/internal/window"
)

func TestTouchHeadMoveIsReverseChronological(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		l := New()
		var touched []window.ID
		for i := 0; i < 40; i++ {
			id := window.ID(rng.Intn(10) + 1)
			l.Touch(id, true, true)
			touched = append(touched, id)
		}

		// Distinct ids, most recent first.
		var want []window.ID
		seen := map[window.ID]bool{}
		for i := len(touched) - 1; i >= 0; i-- {
			if !seen[touched[i]] {
				seen[touched[i]] = true
				want = append(want, touched[i])
			}
		}
		require.Equal(t, want, l.IDs(), "round %d", round)
	}
}

func TestTouchTailAndNoMove(t *testing.T) {
	l := New()
	l.Touch(1, false, true)
	l.Touch(2, false, true)
	l.Touch(3, false, true)
	assert.Equal(t, []window.ID{1, 2, 3}, l.IDs())

	assert.False(t, l.Touch(2, true, false), "present without move is a no-op")
	assert.Equal(t, []window.ID{1, 2, 3}, l.IDs())

	assert.True(t, l.Touch(3, true, true))
	assert.Equal(t, []window.ID{3, 1, 2}, l.IDs())

	assert.True(t, l.Touch(3, false, true))
	assert.Equal(t, []window.ID{1, 2, 3}, l.IDs(), "untouched windows keep their relative order")

	head, ok := l.Head()
	require.True(t, ok)
	assert.Equal(t, window.ID(1), head)
}

func TestTouchIgnoresNone(t *testing.T) {
	l := New()
	assert.False(t, l.Touch(window.None, true, true))
	assert.Equal(t, 0, l.Len())

	_, ok := l.Head()
	assert.False(t, ok)
}

func TestRemoveLeavesTombstone(t *testing.T) {
	l := New()
	l.Touch(1, true, true)
	l.Touch(2, true, true)

	assert.True(t, l.Remove(1))
	assert.False(t, l.Contains(1))
	assert.True(t, l.Removed(1))
	assert.False(t, l.Remove(9))
	assert.True(t, l.Removed(9))

	// Touching again treats the id as new.
	l.Touch(1, false, false)
	assert.False(t, l.Removed(1))
	assert.Equal(t, []window.ID{2, 1}, l.IDs())

	l.Revive(9)
	assert.False(t, l.Removed(9))
}

func TestTombstonesAreBounded(t *testing.T) {
	l := New()
	for i := 1; i <= MaxTombstones+10; i++ {
		l.Remove(window.ID(i))
	}
	assert.Equal(t, MaxTombstones, l.Tombstones())
	assert.False(t, l.Removed(1), "oldest tombstones go first")
	assert.True(t, l.Removed(window.ID(MaxTombstones+10)))
}

func TestPositionsAndEntries(t *testing.T) {
	l := New()
	l.Touch(10, true, true)
	l.Touch(20, true, true)
	l.Touch(30, false, true)

	assert.Equal(t, map[window.ID]int{20: 0, 10: 1, 30: 2}, l.Positions())

	entries := l.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, window.ID(20), entries[0].ID)
	assert.Greater(t, entries[0].Seq, entries[1].Seq)
}
