package audio

import (
	"fmt"
	"sync"
	"time"
)

// state is the transport's playback state.
type state int

const (
	stateStopped state = iota
	statePlaying
	statePaused
)

// Logger is the logging interface the transport needs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

// TransportConfig tunes the transport.
type TransportConfig struct {
	// Clock supplies the current time. Nil means time.Now.
	// Tests inject a manual clock here.
	Clock func() time.Time

	// Logger receives state transitions. Nil means discard.
	Logger Logger
}

// Transport plays one audio track at a time with accurate position
// tracking under pause, resume, and seek.
//
// Position arithmetic lives entirely here, against an injected monotonic
// clock, so the sequence scheduler can trust Position() regardless of how
// the device backend buffers samples. While playing the position is
// now - startedAt - pauseTotal + offset; while paused it is frozen at the
// pause instant; while stopped it is the pending offset for the next Play.
type Transport struct {
	out    Output
	clock  func() time.Time
	logger Logger

	mu            sync.Mutex
	state         state
	trackPath     string
	duration      time.Duration
	offset        time.Duration // offset passed to the running Play
	startedAt     time.Time
	pauseStart    time.Time
	pauseTotal    time.Duration
	pendingOffset time.Duration // position reported while stopped
}

// NewTransport creates a transport over out.
func NewTransport(out Output, cfg TransportConfig) *Transport {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}
	return &Transport{
		out:    out,
		clock:  cfg.Clock,
		logger: cfg.Logger,
	}
}

// Load decodes the file at path and makes it the current track.
// Any running playback is stopped first. A failed load leaves no track
// loaded; the caller must not start sequence playback after a failed load.
func (t *Transport) Load(path string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != stateStopped {
		t.out.Stop() //nolint:errcheck // Replacing the track regardless
		t.resetLocked()
	}

	duration, err := t.out.Load(path)
	if err != nil {
		t.trackPath = ""
		t.duration = 0
		return fmt.Errorf("loading %s: %w", path, err)
	}

	t.trackPath = path
	t.duration = duration
	t.pendingOffset = 0
	t.logger.Debug("track loaded", "path", path, "duration", duration)
	return nil
}

// Play begins playback at offset into the current track.
// Restarts from offset if already playing.
func (t *Transport) Play(offset time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.trackPath == "" {
		return ErrNotLoaded
	}
	if offset < 0 {
		offset = 0
	}

	if err := t.out.Play(offset); err != nil {
		return fmt.Errorf("starting playback: %w", err)
	}

	t.state = statePlaying
	t.offset = offset
	t.startedAt = t.clock()
	t.pauseTotal = 0
	t.pauseStart = time.Time{}
	t.pendingOffset = offset
	return nil
}

// Pause suspends playback, freezing the reported position.
func (t *Transport) Pause() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != statePlaying {
		return ErrNotPlaying
	}

	if err := t.out.Pause(); err != nil {
		return err
	}

	t.state = statePaused
	t.pauseStart = t.clock()
	return nil
}

// Resume continues playback. The time spent paused is accumulated into
// pauseTotal so the position picks up exactly where Pause froze it.
func (t *Transport) Resume() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != statePaused {
		return ErrNotPaused
	}

	if err := t.out.Resume(); err != nil {
		return err
	}

	t.pauseTotal += t.clock().Sub(t.pauseStart)
	t.pauseStart = time.Time{}
	t.state = statePlaying
	return nil
}

// Stop halts playback and resets all timing state. Idempotent.
func (t *Transport) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == stateStopped {
		return nil
	}

	err := t.out.Stop()
	t.resetLocked()
	return err
}

// Seek moves playback to pos. While playing the output is restarted from
// pos; while paused the transport repositions but stays frozen at the new
// offset; while stopped only the pending offset for the next Play is
// updated.
func (t *Transport) Seek(pos time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if pos < 0 {
		pos = 0
	}
	if t.duration > 0 && pos > t.duration {
		pos = t.duration
	}

	if t.state == stateStopped {
		t.pendingOffset = pos
		return nil
	}

	if t.state == statePaused {
		if err := t.out.Play(pos); err != nil {
			return fmt.Errorf("seeking to %v: %w", pos, err)
		}
		if err := t.out.Pause(); err != nil {
			return fmt.Errorf("seeking to %v: %w", pos, err)
		}
		t.offset = pos
		t.startedAt = t.pauseStart
		t.pauseTotal = 0
		t.pendingOffset = pos
		return nil
	}

	if err := t.out.Play(pos); err != nil {
		return fmt.Errorf("seeking to %v: %w", pos, err)
	}

	t.state = statePlaying
	t.offset = pos
	t.startedAt = t.clock()
	t.pauseTotal = 0
	t.pauseStart = time.Time{}
	t.pendingOffset = pos
	return nil
}

// Position returns the current playback position.
func (t *Transport) Position() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.positionLocked()
}

func (t *Transport) positionLocked() time.Duration {
	switch t.state {
	case statePlaying:
		return t.clock().Sub(t.startedAt) - t.pauseTotal + t.offset
	case statePaused:
		return t.pauseStart.Sub(t.startedAt) - t.pauseTotal + t.offset
	default:
		return t.pendingOffset
	}
}

// Duration returns the length of the loaded track, or 0 if none.
func (t *Transport) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.duration
}

// IsPlaying reports whether the transport is actively playing
// (paused counts as not playing).
func (t *Transport) IsPlaying() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == statePlaying
}

// IsPaused reports whether the transport is paused.
func (t *Transport) IsPaused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == statePaused
}

// TrackPath returns the path of the loaded track, or "".
func (t *Transport) TrackPath() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.trackPath
}

// Close stops playback and releases the output device.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.resetLocked()
	t.trackPath = ""
	t.duration = 0
	return t.out.Close()
}

func (t *Transport) resetLocked() {
	t.state = stateStopped
	t.offset = 0
	t.startedAt = time.Time{}
	t.pauseStart = time.Time{}
	t.pauseTotal = 0
	t.pendingOffset = 0
}
