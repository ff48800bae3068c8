package player

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lumacue/lumacue-core/internal/audio"
	"github.com/lumacue/lumacue-core/internal/dmx"
	"github.com/lumacue/lumacue-core/internal/fixture"
	"github.com/lumacue/lumacue-core/internal/show"
)

// stubOutput is a no-device audio backend.
type stubOutput struct {
	loadErr  error
	duration time.Duration
}

func (s *stubOutput) Load(string) (time.Duration, error) {
	if s.loadErr != nil {
		return 0, s.loadErr
	}
	return s.duration, nil
}
func (s *stubOutput) Play(time.Duration) error { return nil }
func (s *stubOutput) Pause() error             { return nil }
func (s *stubOutput) Resume() error            { return nil }
func (s *stubOutput) Stop() error              { return nil }
func (s *stubOutput) Close() error             { return nil }

// testClock is a settable clock shared with the transport.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// stubRepo serves sequences and songs from maps. Only the read methods
// the player uses are populated; the rest satisfy the interface.
type stubRepo struct {
	sequences map[string]*show.Sequence
	songs     map[string]*show.Song
}

func (r *stubRepo) GetSong(_ context.Context, id string) (*show.Song, error) {
	if s, ok := r.songs[id]; ok {
		return s, nil
	}
	return nil, show.ErrSongNotFound
}

func (r *stubRepo) GetSequence(_ context.Context, id string) (*show.Sequence, error) {
	if s, ok := r.sequences[id]; ok {
		return s, nil
	}
	return nil, show.ErrSequenceNotFound
}

func (r *stubRepo) ListSongs(context.Context) ([]show.Song, error) { return nil, nil }
func (r *stubRepo) CreateSong(context.Context, *show.Song) error   { return nil }
func (r *stubRepo) DeleteSong(context.Context, string) error       { return nil }
func (r *stubRepo) GetSequenceBySong(context.Context, string) (*show.Sequence, error) {
	return nil, show.ErrSequenceNotFound
}
func (r *stubRepo) ListSequences(context.Context) ([]show.Sequence, error) { return nil, nil }
func (r *stubRepo) SaveSequence(context.Context, *show.Sequence) error     { return nil }
func (r *stubRepo) DeleteSequence(context.Context, string) error           { return nil }
func (r *stubRepo) GetPlaylist(context.Context, string) (*show.Playlist, error) {
	return nil, show.ErrPlaylistNotFound
}
func (r *stubRepo) ListPlaylists(context.Context) ([]show.Playlist, error)       { return nil, nil }
func (r *stubRepo) ListActivePlaylists(context.Context) ([]show.Playlist, error) { return nil, nil }
func (r *stubRepo) SavePlaylist(context.Context, *show.Playlist) error           { return nil }
func (r *stubRepo) DeletePlaylist(context.Context, string) error                 { return nil }

// fixedLookup is a static patched-fixture table.
type fixedLookup map[string]fixture.PatchedFixture

func (l fixedLookup) Snapshot() map[string]fixture.PatchedFixture {
	out := make(map[string]fixture.PatchedFixture, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

type harness struct {
	player    *Player
	universe  *dmx.Universe
	transport *audio.Transport
	clock     *testClock
}

func newHarness(t *testing.T, events []show.Event) *harness {
	t.Helper()

	clock := &testClock{now: time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)}
	out := &stubOutput{duration: 3 * time.Minute}
	transport := audio.NewTransport(out, audio.TransportConfig{Clock: clock.Now})
	universe := dmx.NewUniverse()

	repo := &stubRepo{
		sequences: map[string]*show.Sequence{
			"seq-1": {ID: "seq-1", SongID: "song-1", Events: events},
		},
		songs: map[string]*show.Song{
			"song-1": {ID: "song-1", FilePath: "/songs/song-1.mp3"},
		},
	}

	lookup := fixedLookup{
		"fx-1": {FixtureID: "fx-1", StartAddress: 1, Channels: []fixture.ChannelRole{fixture.RoleDimmer}},
		"fx-2": {FixtureID: "fx-2", StartAddress: 10, Channels: []fixture.ChannelRole{fixture.RoleDimmer}},
	}

	p := New(universe, transport, repo, lookup, Config{
		TickInterval: time.Millisecond,
	})
	t.Cleanup(p.Stop)

	return &harness{player: p, universe: universe, transport: transport, clock: clock}
}

// waitFor polls until check passes or the deadline hits.
func waitFor(t *testing.T, what string, check func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if check() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestPlayerFiresEventsAgainstAudioClock(t *testing.T) {
	h := newHarness(t, []show.Event{
		{FixtureID: "fx-1", Kind: show.KindDimmer, Time: 0, Duration: 60, Value: 100},
		{FixtureID: "fx-2", Kind: show.KindDimmer, Time: 5, Duration: 60, Value: 50},
	})

	if err := h.player.Play(context.Background(), show.PlayRequest{SequenceID: "seq-1"}); err != nil {
		t.Fatalf("Play() error: %v", err)
	}

	waitFor(t, "first event", func() bool { return h.universe.Get(1) == 255 })
	if got := h.universe.Get(10); got != 0 {
		t.Errorf("fx-2 channel = %d before its time, want 0", got)
	}

	// The second event fires only once the audio clock reaches 5s
	h.clock.Advance(5 * time.Second)
	waitFor(t, "second event", func() bool { return h.universe.Get(10) == 128 })
}

func TestPlayerPauseFreezesEventFiring(t *testing.T) {
	h := newHarness(t, []show.Event{
		{FixtureID: "fx-2", Kind: show.KindDimmer, Time: 2, Duration: 60, Value: 100},
	})

	if err := h.player.Play(context.Background(), show.PlayRequest{SequenceID: "seq-1"}); err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	if err := h.player.Pause(); err != nil {
		t.Fatalf("Pause() error: %v", err)
	}

	// Wall time passes but the audio clock is frozen: nothing may fire
	h.clock.Advance(10 * time.Second)
	time.Sleep(20 * time.Millisecond)
	if got := h.universe.Get(10); got != 0 {
		t.Errorf("fx-2 channel = %d while paused, want 0", got)
	}

	// After resume the event fires (position picks up at ~0s, advance to 2s)
	if err := h.player.Resume(); err != nil {
		t.Fatalf("Resume() error: %v", err)
	}
	h.clock.Advance(2 * time.Second)
	waitFor(t, "event after resume", func() bool { return h.universe.Get(10) == 255 })
}

func TestPlayerSeekSkipsEarlierEvents(t *testing.T) {
	h := newHarness(t, []show.Event{
		{FixtureID: "fx-1", Kind: show.KindDimmer, Time: 1, Duration: 1, Value: 100},
		{FixtureID: "fx-2", Kind: show.KindDimmer, Time: 10, Duration: 60, Value: 100},
	})

	if err := h.player.Play(context.Background(), show.PlayRequest{SequenceID: "seq-1"}); err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	if err := h.player.Seek(9 * time.Second); err != nil {
		t.Fatalf("Seek() error: %v", err)
	}

	// Event at 1s is strictly before the seek target and must not fire
	h.clock.Advance(1500 * time.Millisecond)
	waitFor(t, "post-seek event", func() bool { return h.universe.Get(10) == 255 })
	if got := h.universe.Get(1); got != 0 {
		t.Errorf("fx-1 channel = %d after seek past it, want 0", got)
	}
}

func TestPlayerStopClearsChannelsAndIsIdempotent(t *testing.T) {
	h := newHarness(t, []show.Event{
		{FixtureID: "fx-1", Kind: show.KindDimmer, Time: 0, Duration: 60, Value: 100},
	})

	if err := h.player.Play(context.Background(), show.PlayRequest{SequenceID: "seq-1"}); err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	waitFor(t, "event fired", func() bool { return h.universe.Get(1) == 255 })

	h.player.Stop()
	if got := h.universe.Get(1); got != 0 {
		t.Errorf("channel = %d after Stop, want 0", got)
	}
	if s := h.player.Status(); s.IsPlaying {
		t.Error("Status().IsPlaying = true after Stop")
	}

	h.player.Stop() // idempotent
}

func TestPlayerFinishesWhenTrackEnds(t *testing.T) {
	h := newHarness(t, []show.Event{
		{FixtureID: "fx-1", Kind: show.KindDimmer, Time: 0, Duration: 1, Value: 100},
	})

	if err := h.player.Play(context.Background(), show.PlayRequest{SequenceID: "seq-1"}); err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	waitFor(t, "event fired", func() bool { return h.universe.Get(1) == 255 })

	// Events exhaust mid-track: still playing until the audio runs out
	h.clock.Advance(2 * time.Second)
	waitFor(t, "event cleared", func() bool { return h.universe.Get(1) == 0 })
	if s := h.player.Status(); !s.IsPlaying {
		t.Error("Status().IsPlaying = false with audio still running")
	}

	// Past the 3m track duration the session ends on its own
	h.clock.Advance(4 * time.Minute)
	waitFor(t, "session finished", func() bool { return !h.player.Status().IsPlaying })
	if pos := h.transport.Position(); pos != 0 {
		t.Errorf("transport position = %v after finish, want 0", pos)
	}
}

func TestPlayerConcurrentPlaysLeaveOneSession(t *testing.T) {
	h := newHarness(t, []show.Event{
		{FixtureID: "fx-1", Kind: show.KindDimmer, Time: 0, Duration: 60, Value: 100},
	})

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := h.player.Play(ctx, show.PlayRequest{SequenceID: "seq-1"}); err != nil {
				t.Errorf("Play() error: %v", err)
			}
		}()
	}
	wg.Wait()

	if s := h.player.Status(); !s.IsPlaying {
		t.Error("Status().IsPlaying = false after concurrent starts")
	}
	waitFor(t, "event fired", func() bool { return h.universe.Get(1) == 255 })

	h.player.Stop()
	if got := h.universe.Get(1); got != 0 {
		t.Errorf("channel = %d after Stop, want 0", got)
	}
	if s := h.player.Status(); s.IsPlaying {
		t.Error("Status().IsPlaying = true after Stop")
	}
}

func TestPlayerNewPlayStopsPrevious(t *testing.T) {
	h := newHarness(t, []show.Event{
		{FixtureID: "fx-1", Kind: show.KindDimmer, Time: 0, Duration: 60, Value: 100},
	})

	ctx := context.Background()
	if err := h.player.Play(ctx, show.PlayRequest{SequenceID: "seq-1"}); err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	waitFor(t, "event fired", func() bool { return h.universe.Get(1) == 255 })

	// Second start: prior session's lit channel must be cleared first
	req := show.PlayRequest{Ephemeral: &show.EphemeralSequence{
		Events:    []show.Event{{FixtureID: "fx-2", Kind: show.KindDimmer, Time: 0, Duration: 60, Value: 100}},
		AudioPath: "/songs/other.mp3",
	}}
	if err := h.player.Play(ctx, req); err != nil {
		t.Fatalf("second Play() error: %v", err)
	}

	if got := h.universe.Get(1); got != 0 {
		t.Errorf("fx-1 channel = %d after replacing session, want 0", got)
	}
	waitFor(t, "ephemeral event", func() bool { return h.universe.Get(10) == 255 })
}

func TestPlayerFailedLoadLeavesNoPartialState(t *testing.T) {
	clock := &testClock{now: time.Now()}
	out := &stubOutput{loadErr: audio.ErrLoadFailed}
	transport := audio.NewTransport(out, audio.TransportConfig{Clock: clock.Now})
	universe := dmx.NewUniverse()
	repo := &stubRepo{
		sequences: map[string]*show.Sequence{
			"seq-1": {ID: "seq-1", SongID: "song-1", Events: nil},
		},
		songs: map[string]*show.Song{
			"song-1": {ID: "song-1", FilePath: "/songs/broken.mp3"},
		},
	}

	p := New(universe, transport, repo, fixedLookup{}, Config{})

	err := p.Play(context.Background(), show.PlayRequest{SequenceID: "seq-1"})
	if !errors.Is(err, audio.ErrLoadFailed) {
		t.Fatalf("Play() = %v, want ErrLoadFailed", err)
	}

	s := p.Status()
	if s.IsPlaying || s.IsPaused {
		t.Errorf("Status() = %+v after failed load, want stopped", s)
	}
	if err := p.Pause(); !errors.Is(err, ErrNothingPlaying) {
		t.Errorf("Pause() = %v, want ErrNothingPlaying", err)
	}
}

func TestPlayerValidatesRequest(t *testing.T) {
	h := newHarness(t, nil)

	if err := h.player.Play(context.Background(), show.PlayRequest{}); !errors.Is(err, show.ErrInvalidPlayRequest) {
		t.Errorf("Play() empty request = %v, want ErrInvalidPlayRequest", err)
	}
}

func TestPlayerStatusProgress(t *testing.T) {
	h := newHarness(t, []show.Event{
		{FixtureID: "fx-1", Kind: show.KindDimmer, Time: 0, Duration: 1, Value: 100},
	})

	if err := h.player.Play(context.Background(), show.PlayRequest{SequenceID: "seq-1"}); err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	h.clock.Advance(90 * time.Second) // half of the 3 minute track

	s := h.player.Status()
	if !s.IsPlaying {
		t.Error("IsPlaying = false")
	}
	if s.SequenceID != "seq-1" || s.SongID != "song-1" {
		t.Errorf("identity = %q/%q, want seq-1/song-1", s.SequenceID, s.SongID)
	}
	if s.Position != 90 {
		t.Errorf("Position = %v, want 90", s.Position)
	}
	if s.Progress != 0.5 {
		t.Errorf("Progress = %v, want 0.5", s.Progress)
	}
}

func TestPlayerBlackoutAndChannelAccess(t *testing.T) {
	h := newHarness(t, nil)

	h.player.SetChannel(5, 200)
	if got := h.player.GetChannel(5); got != 200 {
		t.Errorf("GetChannel(5) = %d, want 200", got)
	}

	h.player.Blackout()
	if got := h.player.GetChannel(5); got != 0 {
		t.Errorf("GetChannel(5) = %d after blackout, want 0", got)
	}
}
