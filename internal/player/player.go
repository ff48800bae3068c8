package player

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lumacue/lumacue-core/internal/audio"
	"github.com/lumacue/lumacue-core/internal/dmx"
	"github.com/lumacue/lumacue-core/internal/fixture"
	"github.com/lumacue/lumacue-core/internal/show"
)

// DefaultTickInterval is the scheduler resolution. 10 ms is fine enough
// that event firing lands within one DMX frame of its authored time.
const DefaultTickInterval = 10 * time.Millisecond

// Logger is the logging interface the player needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Broadcaster receives playback status changes for streaming to clients.
// The WebSocket hub satisfies it.
type Broadcaster interface {
	BroadcastPlayback(status Status)
}

// PatchedLookup supplies the patched-fixture snapshot a session resolves
// events against. *fixture.Registry satisfies it.
type PatchedLookup interface {
	Snapshot() map[string]fixture.PatchedFixture
}

type nopBroadcaster struct{}

func (nopBroadcaster) BroadcastPlayback(Status) {}

// Config tunes the player.
type Config struct {
	// TickInterval is the scheduler resolution. Zero means DefaultTickInterval.
	TickInterval time.Duration

	// Logger receives playback lifecycle events. Nil means discard.
	Logger Logger

	// Broadcaster receives status changes. Nil means discard.
	Broadcaster Broadcaster
}

// Player drives sequence playback: it owns the single live
// PlaybackSession, walks its events against the audio transport's clock,
// and writes the resulting channel values into the universe.
//
// At most one session is live at a time. Starting a new one fully stops
// the previous scheduling loop before the new one begins, so two
// schedulers can never race on the universe.
type Player struct {
	universe  *dmx.Universe
	transport *audio.Transport
	repo      show.Repository
	lookup    PatchedLookup
	tick      time.Duration
	logger    Logger
	broadcast Broadcaster

	// startMu serialises Play end to end so two concurrent starts can
	// never interleave between stopping the prior loop and installing
	// the new session.
	startMu sync.Mutex

	mu         sync.Mutex
	sess       *session
	sequenceID string
	songID     string
	stopCh     chan struct{}
	doneCh     chan struct{}
}

// New creates a player over the given universe, transport, show
// repository, and patched-fixture lookup.
func New(universe *dmx.Universe, transport *audio.Transport, repo show.Repository, lookup PatchedLookup, cfg Config) *Player {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}
	if cfg.Broadcaster == nil {
		cfg.Broadcaster = nopBroadcaster{}
	}

	return &Player{
		universe:  universe,
		transport: transport,
		repo:      repo,
		lookup:    lookup,
		tick:      cfg.TickInterval,
		logger:    cfg.Logger,
		broadcast: cfg.Broadcaster,
	}
}

// SetBroadcaster replaces the status broadcaster. Used at startup when
// the broadcaster (the WebSocket hub) is constructed after the player.
func (p *Player) SetBroadcaster(b Broadcaster) {
	if b == nil {
		b = nopBroadcaster{}
	}
	p.mu.Lock()
	p.broadcast = b
	p.mu.Unlock()
}

// MultiBroadcaster fans status changes out to several broadcasters.
func MultiBroadcaster(bs ...Broadcaster) Broadcaster {
	return multiBroadcaster(bs)
}

type multiBroadcaster []Broadcaster

func (m multiBroadcaster) BroadcastPlayback(status Status) {
	for _, b := range m {
		b.BroadcastPlayback(status)
	}
}

// Play starts playback for req, stopping any live session first. A failed
// audio load aborts the start and leaves no partial state: no audio
// playing and no scheduling loop running.
func (p *Player) Play(ctx context.Context, req show.PlayRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	events, audioPath, sequenceID, songID, err := p.resolveRequest(ctx, req)
	if err != nil {
		return err
	}

	p.startMu.Lock()
	defer p.startMu.Unlock()

	// Fully stop the prior session before touching shared state
	p.Stop()

	if err := p.transport.Load(audioPath); err != nil {
		return fmt.Errorf("loading audio: %w", err)
	}

	offset := req.StartOffset
	if offset < 0 {
		offset = 0
	}

	// One patched-fixture snapshot per session: repatching mid-playback
	// must not shift addresses under a running sequence.
	sess := newSession(events, p.lookup.Snapshot(), p.universe, offset.Seconds(), p.logger)

	if err := p.transport.Play(offset); err != nil {
		return fmt.Errorf("starting audio: %w", err)
	}

	p.mu.Lock()
	p.sess = sess
	p.sequenceID = sequenceID
	p.songID = songID
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	go p.loop(sess, p.stopCh, p.doneCh)
	status := p.statusLocked()
	broadcast := p.broadcast
	p.mu.Unlock()

	p.logger.Info("playback started",
		"sequence_id", sequenceID,
		"song_id", songID,
		"offset", offset,
		"events", len(events),
	)
	broadcast.BroadcastPlayback(status)
	return nil
}

// resolveRequest turns a PlayRequest into its event list and audio path.
func (p *Player) resolveRequest(ctx context.Context, req show.PlayRequest) (events []show.Event, audioPath, sequenceID, songID string, err error) {
	if req.Ephemeral != nil {
		return req.Ephemeral.Events, req.Ephemeral.AudioPath, "", "", nil
	}

	seq, err := p.repo.GetSequence(ctx, req.SequenceID)
	if err != nil {
		return nil, "", "", "", fmt.Errorf("fetching sequence: %w", err)
	}
	song, err := p.repo.GetSong(ctx, seq.SongID)
	if err != nil {
		return nil, "", "", "", fmt.Errorf("fetching song: %w", err)
	}
	return seq.Events, song.FilePath, seq.ID, song.ID, nil
}

// loop is the scheduling tick. Each tick it reads the audio position and
// advances the session by it; the session never moves while the transport
// is paused because the position is frozen.
func (p *Player) loop(sess *session, stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		p.mu.Lock()
		if p.sess != sess {
			p.mu.Unlock()
			return
		}
		if p.transport.IsPaused() {
			p.mu.Unlock()
			continue
		}

		complete := sess.advance(p.transport.Position().Seconds())
		p.mu.Unlock()

		if complete {
			duration := p.transport.Duration()
			if duration > 0 && p.transport.Position() >= duration {
				p.finish(sess)
				return
			}
		}
	}
}

// finish ends a session whose events are exhausted and whose audio track
// has run out, so status reporting does not claim playback forever. A
// concurrent Stop that already detached the session wins.
func (p *Player) finish(sess *session) {
	p.mu.Lock()
	if p.sess != sess {
		p.mu.Unlock()
		return
	}
	broadcast := p.broadcast
	p.sess = nil
	p.sequenceID = ""
	p.songID = ""
	p.mu.Unlock()

	p.transport.Stop() //nolint:errcheck // Stop is best effort at track end

	p.logger.Info("playback finished")
	broadcast.BroadcastPlayback(Status{})
}

// Pause freezes playback: audio and the scheduler clock stop in lockstep.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sess == nil {
		return ErrNothingPlaying
	}
	if err := p.transport.Pause(); err != nil {
		return err
	}

	p.logger.Info("playback paused", "position", p.transport.Position())
	go p.broadcast.BroadcastPlayback(p.statusLocked())
	return nil
}

// Resume continues paused playback.
func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sess == nil {
		return ErrNothingPlaying
	}
	if err := p.transport.Resume(); err != nil {
		return fmt.Errorf("%w: %v", ErrNotPaused, err)
	}

	p.logger.Info("playback resumed", "position", p.transport.Position())
	go p.broadcast.BroadcastPlayback(p.statusLocked())
	return nil
}

// Seek moves the live session to pos: audio restarts there and the
// scheduler skips every event before it. Channels lit by events that are
// no longer active are cleared.
func (p *Player) Seek(pos time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sess == nil {
		return ErrNothingPlaying
	}
	if err := p.transport.Seek(pos); err != nil {
		return err
	}
	p.sess.seek(pos.Seconds())

	p.logger.Info("playback seeked", "position", pos)
	go p.broadcast.BroadcastPlayback(p.statusLocked())
	return nil
}

// Stop halts the live session: the scheduling loop is joined, every lit
// event channel is cleared, and the audio transport is reset. Idempotent.
func (p *Player) Stop() {
	p.mu.Lock()
	if p.sess == nil {
		p.mu.Unlock()
		return
	}
	sess := p.sess
	stop, done := p.stopCh, p.doneCh
	broadcast := p.broadcast
	p.sess = nil
	p.sequenceID = ""
	p.songID = ""
	p.mu.Unlock()

	close(stop)
	<-done

	// Loop has exited; safe to touch the session
	sess.stop()
	p.transport.Stop() //nolint:errcheck // Stop is best effort on teardown

	p.logger.Info("playback stopped")
	broadcast.BroadcastPlayback(Status{})
}

// Status returns the current playback status.
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statusLocked()
}

func (p *Player) statusLocked() Status {
	s := Status{
		IsPlaying:  p.sess != nil && !p.transport.IsPaused(),
		IsPaused:   p.sess != nil && p.transport.IsPaused(),
		SequenceID: p.sequenceID,
		SongID:     p.songID,
	}
	if p.sess != nil {
		s.Position = p.transport.Position().Seconds()
		s.Duration = p.transport.Duration().Seconds()
		if s.Duration > 0 {
			s.Progress = s.Position / s.Duration
			if s.Progress > 1 {
				s.Progress = 1
			}
		}
	}
	return s
}

// Blackout zeroes every channel in the universe. It does not stop a
// running session; subsequent event fires will relight their channels.
func (p *Player) Blackout() {
	p.universe.ClearAll()
	p.logger.Info("blackout")
}

// SetChannel writes a single channel value, bypassing sequence playback
// (live preview).
func (p *Player) SetChannel(address, value int) {
	p.universe.Set(address, value)
}

// GetChannel reads a single channel value.
func (p *Player) GetChannel(address int) int {
	return p.universe.Get(address)
}

// SetChannels writes a batch of channel values atomically (live preview).
func (p *Player) SetChannels(values map[int]int) {
	p.universe.SetMany(values)
}

// MasterDimmer sets the dimmer channel of every patched fixture to the
// given 0-100 level. Fixtures without a dimmer role are unaffected.
func (p *Player) MasterDimmer(value float64) {
	scaled := scaleDimmer(value)
	targets := make(map[int]int)
	for _, pf := range p.lookup.Snapshot() {
		if addr, ok := pf.AddressOf(fixture.RoleDimmer); ok {
			targets[addr] = scaled
		}
	}
	p.universe.SetMany(targets)
	p.logger.Info("master dimmer", "value", value, "fixtures", len(targets))
}

// MasterColor sets the colour channels of every patched fixture to c.
// Colour roles a fixture does not have are dropped per fixture.
func (p *Player) MasterColor(c show.Color) {
	targets := make(map[int]int)
	for _, pf := range p.lookup.Snapshot() {
		for _, rc := range []struct {
			role  fixture.ChannelRole
			value int
		}{
			{fixture.RoleRed, c.R},
			{fixture.RoleGreen, c.G},
			{fixture.RoleBlue, c.B},
			{fixture.RoleWhite, c.W},
		} {
			if addr, ok := pf.AddressOf(rc.role); ok {
				targets[addr] = rc.value
			}
		}
	}
	p.universe.SetMany(targets)
	p.logger.Info("master color", "r", c.R, "g", c.G, "b", c.B, "w", c.W)
}
