package trigger

import (
	"math/rand"
	"sort"

	"github.com/lumacue/lumacue-core/internal/show"
)

// Cursor tracks the advancer's position across the active playlists. It
// lives for the process lifetime of the trigger subsystem; the playlist
// snapshot is passed in fresh on every trigger so edits take effect on
// the next press.
//
// Cursor is not safe for concurrent use; the advancer serialises access
// through its trigger lock.
type Cursor struct {
	rand *rand.Rand

	playlistIdx int
	seqIdx      int

	// shuffle state: the current permutation and the sorted id set it
	// was generated from, used to detect membership changes.
	shuffled   []string
	shuffleSet []string
}

// NewCursor creates a cursor. src may be nil for a time-seeded source;
// tests pass a fixed seed.
func NewCursor(src rand.Source) *Cursor {
	if src == nil {
		src = rand.NewSource(rand.Int63())
	}
	return &Cursor{rand: rand.New(src)}
}

// Next selects the next sequence ID from playlists.
//
// Cycle playlists advance a monotonic index, wrapping to the start and
// moving on to the next active playlist when exhausted. Shuffle playlists
// consume a random permutation one id per trigger, reshuffling when first
// used, when the playlist's id set changes, or after a full pass.
//
// Returns false when no playlist yields a sequence.
func (c *Cursor) Next(playlists []show.Playlist) (string, bool) {
	if len(playlists) == 0 {
		return "", false
	}
	if c.playlistIdx >= len(playlists) {
		c.playlistIdx = 0
	}

	// Bounded walk: one attempt per playlist plus one so a wrap on
	// exhaustion can land back on the same playlist.
	for attempts := 0; attempts <= len(playlists); attempts++ {
		pl := &playlists[c.playlistIdx]

		if len(pl.Entries) == 0 {
			c.nextPlaylist(len(playlists))
			continue
		}

		switch pl.Mode {
		case show.ModeShuffle:
			if id, ok := c.nextShuffled(pl, len(playlists)); ok {
				return id, true
			}
		default:
			if c.seqIdx >= len(pl.Entries) {
				// Exhausted: wrap and move to the next active playlist
				c.nextPlaylist(len(playlists))
				continue
			}
			id := pl.Entries[c.seqIdx]
			c.seqIdx++
			return id, true
		}
	}
	return "", false
}

// nextShuffled consumes one id from the current permutation, generating a
// fresh one when needed.
func (c *Cursor) nextShuffled(pl *show.Playlist, playlistCount int) (string, bool) {
	if c.shuffled == nil || c.setChanged(pl.Entries) {
		c.reshuffle(pl.Entries)
	}

	if c.seqIdx >= len(c.shuffled) {
		// Pass complete: move on and force a reshuffle next time round
		c.shuffled = nil
		c.shuffleSet = nil
		c.nextPlaylist(playlistCount)
		return "", false
	}

	id := c.shuffled[c.seqIdx]
	c.seqIdx++
	return id, true
}

// reshuffle generates a new permutation of entries and resets the cursor.
func (c *Cursor) reshuffle(entries []string) {
	c.shuffled = append([]string(nil), entries...)
	c.rand.Shuffle(len(c.shuffled), func(i, j int) {
		c.shuffled[i], c.shuffled[j] = c.shuffled[j], c.shuffled[i]
	})

	c.shuffleSet = append([]string(nil), entries...)
	sort.Strings(c.shuffleSet)
	c.seqIdx = 0
}

// setChanged reports whether entries differ in size or identity from the
// set the current permutation was generated from.
func (c *Cursor) setChanged(entries []string) bool {
	if len(entries) != len(c.shuffleSet) {
		return true
	}
	sorted := append([]string(nil), entries...)
	sort.Strings(sorted)
	for i, id := range sorted {
		if id != c.shuffleSet[i] {
			return true
		}
	}
	return false
}

// nextPlaylist wraps the playlist index and resets the per-playlist state.
func (c *Cursor) nextPlaylist(count int) {
	c.playlistIdx = (c.playlistIdx + 1) % count
	c.seqIdx = 0
	c.shuffled = nil
	c.shuffleSet = nil
}
