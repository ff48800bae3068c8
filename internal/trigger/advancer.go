package trigger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lumacue/lumacue-core/internal/show"
)

// Defaults for the button loop.
const (
	DefaultPollInterval = 20 * time.Millisecond
	DefaultDebounce     = 50 * time.Millisecond
	DefaultCooldown     = 2 * time.Second

	// settleHold is how long the trigger lock is held after issuing a
	// start, so playback state settles before a double-press can race it.
	settleHold = 250 * time.Millisecond
)

// Logger is the logging interface the advancer needs.
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

// Starter starts playback of a selected sequence. *player.Player
// satisfies it.
type Starter interface {
	Play(ctx context.Context, req show.PlayRequest) error
}

// PlaylistSource supplies the active playlists on each trigger.
// show.Repository satisfies it.
type PlaylistSource interface {
	ListActivePlaylists(ctx context.Context) ([]show.Playlist, error)
}

// Notifier is told about each successful advance, after playback has
// started. *mqtt.StatusPublisher satisfies it.
type Notifier interface {
	NotifyAdvance(sequenceID string)
}

type nopNotifier struct{}

func (nopNotifier) NotifyAdvance(string) {}

// Config tunes the advancer.
type Config struct {
	// PollInterval is the input sampling interval. Zero means DefaultPollInterval.
	PollInterval time.Duration

	// Debounce is the settle time before a press is accepted. Zero means DefaultDebounce.
	Debounce time.Duration

	// Cooldown is the minimum gap between successful triggers. Zero means DefaultCooldown.
	Cooldown time.Duration

	// Clock supplies the current time. Nil means time.Now.
	Clock func() time.Time

	// Logger receives trigger events. Nil means discard.
	Logger Logger

	// Notifier receives advance notifications. Nil means discard.
	Notifier Notifier
}

// buttonState is the press state machine's position.
type buttonState int

const (
	stateIdle buttonState = iota
	stateDebounceWait
	stateArmed
)

// Advancer turns physical button presses into playlist advances.
//
// The press state machine is Idle -> DebounceWait -> Armed -> Idle: a
// detected press is re-sampled after the debounce interval, a confirmed
// press fires at most one trigger, and the input must release before the
// machine re-arms, so a held button cannot repeat-trigger.
type Advancer struct {
	input     Input
	playlists PlaylistSource
	starter   Starter
	cursor    *Cursor

	poll     time.Duration
	debounce time.Duration
	cooldown time.Duration
	clock    func() time.Time
	logger   Logger
	notify   Notifier

	// triggerMu guards playback start against re-entrant presses. A
	// press that finds it held is dropped, never queued.
	triggerMu sync.Mutex

	stateMu     sync.Mutex
	lastTrigger time.Time
}

// New creates an advancer reading presses from input, selecting sequences
// from playlists via cursor, and starting them on starter.
func New(input Input, playlists PlaylistSource, starter Starter, cursor *Cursor, cfg Config) *Advancer {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}
	if cfg.Notifier == nil {
		cfg.Notifier = nopNotifier{}
	}

	return &Advancer{
		input:     input,
		playlists: playlists,
		starter:   starter,
		cursor:    cursor,
		poll:      cfg.PollInterval,
		debounce:  cfg.Debounce,
		cooldown:  cfg.Cooldown,
		clock:     cfg.Clock,
		logger:    cfg.Logger,
		notify:    cfg.Notifier,
	}
}

// Run polls the input until ctx is cancelled.
func (a *Advancer) Run(ctx context.Context) {
	a.logger.Info("button trigger loop started",
		"poll", a.poll, "debounce", a.debounce, "cooldown", a.cooldown)

	state := stateIdle
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("button trigger loop stopped")
			return
		case <-time.After(a.poll):
		}

		switch state {
		case stateIdle:
			if a.input.Pressed() {
				state = stateDebounceWait
			}

		case stateDebounceWait:
			// Re-sample after the debounce interval; a bounce that
			// released in the meantime goes back to idle.
			select {
			case <-ctx.Done():
				return
			case <-time.After(a.debounce):
			}
			if a.input.Pressed() {
				state = stateArmed
			} else {
				state = stateIdle
			}

		case stateArmed:
			if err := a.Trigger(ctx); err != nil {
				a.logger.Warn("trigger dropped", "reason", err)
			}
			// Wait for physical release before re-arming
			for a.input.Pressed() {
				select {
				case <-ctx.Done():
					return
				case <-time.After(a.poll):
				}
			}
			state = stateIdle
		}
	}
}

// Trigger performs one playlist advance: cooldown check, non-blocking
// lock acquisition, sequence selection, playback start. A press inside
// the cooldown window or while another trigger holds the lock is dropped.
func (a *Advancer) Trigger(ctx context.Context) error {
	if since := a.clock().Sub(a.lastTriggerTime()); since < a.cooldown {
		return fmt.Errorf("%w: %v since last", ErrCooldown, since)
	}

	if !a.triggerMu.TryLock() {
		return ErrTriggerInProgress
	}
	defer a.triggerMu.Unlock()

	playlists, err := a.playlists.ListActivePlaylists(ctx)
	if err != nil {
		return fmt.Errorf("fetching active playlists: %w", err)
	}

	sequenceID, ok := a.cursor.Next(playlists)
	if !ok {
		return ErrNoPlaylists
	}

	a.logger.Info("advancing playlist", "sequence_id", sequenceID)
	if err := a.starter.Play(ctx, show.PlayRequest{SequenceID: sequenceID}); err != nil {
		return fmt.Errorf("starting sequence %s: %w", sequenceID, err)
	}

	a.setLastTrigger(a.clock())
	a.notify.NotifyAdvance(sequenceID)

	// Keep the lock briefly so playback state settles before another
	// press can race the start.
	select {
	case <-ctx.Done():
	case <-time.After(settleHold):
	}
	return nil
}

func (a *Advancer) lastTriggerTime() time.Time {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	return a.lastTrigger
}

func (a *Advancer) setLastTrigger(t time.Time) {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	a.lastTrigger = t
}
