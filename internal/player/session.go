package player

import (
	"sort"

	"github.com/lumacue/lumacue-core/internal/dmx"
	"github.com/lumacue/lumacue-core/internal/fixture"
	"github.com/lumacue/lumacue-core/internal/show"
)

// entry is one scheduled event. targets records the exact addresses the
// fire touched so the clear zeroes those and nothing else.
type entry struct {
	event   show.Event
	targets map[int]int
}

// session walks a time-ordered event list against an elapsed-time value
// supplied by the caller. It owns no clock and no goroutine: advance is a
// pure step function of elapsed time, which keeps the firing logic
// deterministic under test while the player's tick loop supplies real
// audio positions.
type session struct {
	entries  []*entry
	patched  map[string]fixture.PatchedFixture
	universe *dmx.Universe
	logger   Logger

	next   int      // index of the first unfired entry
	active []*entry // fired but not yet cleared
}

// newSession sorts events by time (stable, so simultaneous events fire in
// source order) and discards events strictly before startOffset, which
// supports resuming mid-sequence.
func newSession(events []show.Event, patched map[string]fixture.PatchedFixture, universe *dmx.Universe, startOffset float64, logger Logger) *session {
	entries := make([]*entry, 0, len(events))
	for _, e := range events {
		entries = append(entries, &entry{event: e})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].event.Time < entries[j].event.Time
	})

	s := &session{
		entries:  entries,
		patched:  patched,
		universe: universe,
		logger:   logger,
	}
	s.skipBefore(startOffset)
	return s
}

// skipBefore discards entries with time strictly before offset.
func (s *session) skipBefore(offset float64) {
	for s.next < len(s.entries) && s.entries[s.next].event.Time < offset {
		s.next++
	}
}

// advance fires every unfired event with time <= elapsed and clears every
// active event whose time+duration <= elapsed. It returns true when the
// event list is exhausted and the active set is empty.
//
// Calling advance repeatedly with the same elapsed value is a no-op, so a
// frozen clock (pause) cannot re-fire anything.
func (s *session) advance(elapsed float64) bool {
	for s.next < len(s.entries) && s.entries[s.next].event.Time <= elapsed {
		s.fire(s.entries[s.next])
		s.next++
	}

	remaining := s.active[:0]
	for _, en := range s.active {
		if en.event.Time+en.event.EffectiveDuration() <= elapsed {
			s.clear(en)
		} else {
			remaining = append(remaining, en)
		}
	}
	s.active = remaining

	return s.next >= len(s.entries) && len(s.active) == 0
}

// fire resolves the entry's fixture and applies its channel values.
// Unknown fixture IDs are logged and skipped, never fatal: a sequence
// authored against a since-unpatched fixture must not abort playback.
func (s *session) fire(en *entry) {
	pf, ok := s.patched[en.event.FixtureID]
	if !ok {
		s.logger.Warn("event fixture not patched, skipping",
			"fixture_id", en.event.FixtureID,
			"time", en.event.Time,
		)
		return
	}

	en.targets = resolveEvent(&en.event, pf)
	if en.targets == nil {
		return
	}

	s.universe.SetMany(en.targets)
	s.active = append(s.active, en)
}

// clear zeroes exactly the addresses the entry's fire touched.
func (s *session) clear(en *entry) {
	zeros := make(map[int]int, len(en.targets))
	for addr := range en.targets {
		zeros[addr] = 0
	}
	s.universe.SetMany(zeros)
}

// seek repositions the session at offset: every currently lit event is
// cleared and the cursor is rebuilt so events before offset are skipped
// and events at or after it are pending again.
func (s *session) seek(offset float64) {
	for _, en := range s.active {
		s.clear(en)
	}
	s.active = s.active[:0]

	s.next = 0
	for _, en := range s.entries {
		en.targets = nil
	}
	s.skipBefore(offset)
}

// stop clears every currently lit event so no channel is left stuck on.
func (s *session) stop() {
	for _, en := range s.active {
		s.clear(en)
	}
	s.active = s.active[:0]
}
