package audio

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// manualClock is a settable clock for deterministic position tests.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeOutput records backend calls without touching a real device.
type fakeOutput struct {
	mu       sync.Mutex
	loadErr  error
	playErr  error
	duration time.Duration
	plays    []time.Duration
	paused   bool
	stopped  bool
}

func (f *fakeOutput) Load(path string) (time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return 0, f.loadErr
	}
	return f.duration, nil
}

func (f *fakeOutput) Play(offset time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.playErr != nil {
		return f.playErr
	}
	f.plays = append(f.plays, offset)
	f.paused = false
	f.stopped = false
	return nil
}

func (f *fakeOutput) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = true
	return nil
}

func (f *fakeOutput) Resume() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = false
	return nil
}

func (f *fakeOutput) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return nil
}

func (f *fakeOutput) Close() error { return nil }

func newTestTransport(t *testing.T) (*Transport, *fakeOutput, *manualClock) {
	t.Helper()

	out := &fakeOutput{duration: 3 * time.Minute}
	clock := newManualClock()
	tr := NewTransport(out, TransportConfig{Clock: clock.Now})

	if err := tr.Load("/songs/test.mp3"); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	return tr, out, clock
}

func TestPlayPositionAdvances(t *testing.T) {
	tr, _, clock := newTestTransport(t)

	if err := tr.Play(0); err != nil {
		t.Fatalf("Play() error: %v", err)
	}

	clock.Advance(1500 * time.Millisecond)
	if got := tr.Position(); got != 1500*time.Millisecond {
		t.Errorf("Position() = %v, want 1.5s", got)
	}
}

func TestPlayFromOffset(t *testing.T) {
	tr, out, clock := newTestTransport(t)

	if err := tr.Play(30 * time.Second); err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	if len(out.plays) != 1 || out.plays[0] != 30*time.Second {
		t.Errorf("output plays = %v, want [30s]", out.plays)
	}

	clock.Advance(2 * time.Second)
	if got := tr.Position(); got != 32*time.Second {
		t.Errorf("Position() = %v, want 32s", got)
	}
}

func TestPauseFreezesPosition(t *testing.T) {
	tr, out, clock := newTestTransport(t)

	if err := tr.Play(0); err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	clock.Advance(600 * time.Millisecond)

	if err := tr.Pause(); err != nil {
		t.Fatalf("Pause() error: %v", err)
	}
	if !out.paused {
		t.Error("output not paused")
	}

	// Position must not move while paused even across a long gap
	clock.Advance(5 * time.Second)
	if got := tr.Position(); got != 600*time.Millisecond {
		t.Errorf("Position() while paused = %v, want 600ms", got)
	}
}

func TestResumeExcludesPauseTime(t *testing.T) {
	tr, _, clock := newTestTransport(t)

	if err := tr.Play(0); err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	clock.Advance(600 * time.Millisecond)
	if err := tr.Pause(); err != nil {
		t.Fatalf("Pause() error: %v", err)
	}

	clock.Advance(5 * time.Second)
	if err := tr.Resume(); err != nil {
		t.Fatalf("Resume() error: %v", err)
	}

	// Immediately after resume the position is still ~0.6s
	if got := tr.Position(); got != 600*time.Millisecond {
		t.Errorf("Position() after resume = %v, want 600ms", got)
	}

	// And it advances normally from there
	clock.Advance(400 * time.Millisecond)
	if got := tr.Position(); got != time.Second {
		t.Errorf("Position() = %v, want 1s", got)
	}
}

func TestMultiplePauseCycles(t *testing.T) {
	tr, _, clock := newTestTransport(t)

	if err := tr.Play(0); err != nil {
		t.Fatalf("Play() error: %v", err)
	}

	for i := 0; i < 3; i++ {
		clock.Advance(time.Second)
		if err := tr.Pause(); err != nil {
			t.Fatalf("Pause() error: %v", err)
		}
		clock.Advance(10 * time.Second)
		if err := tr.Resume(); err != nil {
			t.Fatalf("Resume() error: %v", err)
		}
	}

	if got := tr.Position(); got != 3*time.Second {
		t.Errorf("Position() after 3 pause cycles = %v, want 3s", got)
	}
}

func TestStopResetsState(t *testing.T) {
	tr, out, clock := newTestTransport(t)

	if err := tr.Play(10 * time.Second); err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	clock.Advance(5 * time.Second)

	if err := tr.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if !out.stopped {
		t.Error("output not stopped")
	}
	if got := tr.Position(); got != 0 {
		t.Errorf("Position() after stop = %v, want 0", got)
	}
	if tr.IsPlaying() {
		t.Error("IsPlaying() = true after stop")
	}

	// Stop is idempotent
	if err := tr.Stop(); err != nil {
		t.Errorf("second Stop() error: %v", err)
	}
}

func TestSeekWhilePlaying(t *testing.T) {
	tr, out, clock := newTestTransport(t)

	if err := tr.Play(0); err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	clock.Advance(10 * time.Second)

	if err := tr.Seek(60 * time.Second); err != nil {
		t.Fatalf("Seek() error: %v", err)
	}

	// Output restarted at the new offset
	if len(out.plays) != 2 || out.plays[1] != 60*time.Second {
		t.Errorf("output plays = %v, want second play at 60s", out.plays)
	}

	clock.Advance(time.Second)
	if got := tr.Position(); got != 61*time.Second {
		t.Errorf("Position() after seek = %v, want 61s", got)
	}
}

func TestSeekWhileStoppedSetsPendingOffset(t *testing.T) {
	tr, out, _ := newTestTransport(t)

	if err := tr.Seek(45 * time.Second); err != nil {
		t.Fatalf("Seek() error: %v", err)
	}
	if len(out.plays) != 0 {
		t.Errorf("output plays = %v, want none while stopped", out.plays)
	}
	if got := tr.Position(); got != 45*time.Second {
		t.Errorf("Position() = %v, want pending 45s", got)
	}
}

func TestSeekResetsAccumulatedPause(t *testing.T) {
	tr, _, clock := newTestTransport(t)

	if err := tr.Play(0); err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	clock.Advance(time.Second)
	if err := tr.Pause(); err != nil {
		t.Fatalf("Pause() error: %v", err)
	}
	clock.Advance(time.Minute)
	if err := tr.Resume(); err != nil {
		t.Fatalf("Resume() error: %v", err)
	}

	if err := tr.Seek(20 * time.Second); err != nil {
		t.Fatalf("Seek() error: %v", err)
	}

	clock.Advance(time.Second)
	if got := tr.Position(); got != 21*time.Second {
		t.Errorf("Position() = %v, want 21s", got)
	}
}

func TestSeekWhilePausedStaysPaused(t *testing.T) {
	tr, out, clock := newTestTransport(t)

	if err := tr.Play(0); err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	clock.Advance(5 * time.Second)
	if err := tr.Pause(); err != nil {
		t.Fatalf("Pause() error: %v", err)
	}

	if err := tr.Seek(30 * time.Second); err != nil {
		t.Fatalf("Seek() error: %v", err)
	}

	// Frozen at the new offset, output still suspended
	out.mu.Lock()
	paused := out.paused
	out.mu.Unlock()
	if !paused {
		t.Error("output resumed by Seek while paused")
	}
	clock.Advance(time.Minute)
	if got := tr.Position(); got != 30*time.Second {
		t.Errorf("Position() while paused = %v, want 30s", got)
	}

	// Resume keeps none of the pre-seek pause time
	if err := tr.Resume(); err != nil {
		t.Fatalf("Resume() error: %v", err)
	}
	clock.Advance(2 * time.Second)
	if got := tr.Position(); got != 32*time.Second {
		t.Errorf("Position() after resume = %v, want 32s", got)
	}
}

func TestSeekClampsToDuration(t *testing.T) {
	tr, _, _ := newTestTransport(t)

	if err := tr.Seek(time.Hour); err != nil {
		t.Fatalf("Seek() error: %v", err)
	}
	if got := tr.Position(); got != 3*time.Minute {
		t.Errorf("Position() = %v, want clamped to 3m duration", got)
	}
}

func TestPlayWithoutLoad(t *testing.T) {
	out := &fakeOutput{}
	tr := NewTransport(out, TransportConfig{Clock: newManualClock().Now})

	if err := tr.Play(0); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Play() without load = %v, want ErrNotLoaded", err)
	}
}

func TestLoadFailure(t *testing.T) {
	out := &fakeOutput{loadErr: ErrLoadFailed}
	tr := NewTransport(out, TransportConfig{Clock: newManualClock().Now})

	if err := tr.Load("/songs/bad.mp3"); !errors.Is(err, ErrLoadFailed) {
		t.Fatalf("Load() = %v, want ErrLoadFailed", err)
	}

	// A failed load must leave nothing playable
	if err := tr.Play(0); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Play() after failed load = %v, want ErrNotLoaded", err)
	}
}

func TestPauseResumeStateErrors(t *testing.T) {
	tr, _, _ := newTestTransport(t)

	if err := tr.Pause(); !errors.Is(err, ErrNotPlaying) {
		t.Errorf("Pause() while stopped = %v, want ErrNotPlaying", err)
	}
	if err := tr.Resume(); !errors.Is(err, ErrNotPaused) {
		t.Errorf("Resume() while stopped = %v, want ErrNotPaused", err)
	}

	if err := tr.Play(0); err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	if err := tr.Resume(); !errors.Is(err, ErrNotPaused) {
		t.Errorf("Resume() while playing = %v, want ErrNotPaused", err)
	}
}
