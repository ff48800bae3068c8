package dmx

import (
	"sync"
	"time"
)

const (
	// DataBaud is the DMX512 line rate: 250 kbit/s.
	DataBaud = 250000

	// DefaultBreakBaud synthesises the BREAK: one zero byte at 96000 baud
	// holds the line low for ~93 us, clearing the 88 us protocol minimum.
	DefaultBreakBaud = 96000

	// DefaultFramePeriod gives the full-universe maximum of ~44 frames/s.
	DefaultFramePeriod = time.Second / 44

	// mabDelay is the Mark-After-Break idle before the start code.
	// The protocol minimum is 8 us; scheduling jitter makes the actual
	// gap longer, which receivers tolerate.
	mabDelay = 12 * time.Microsecond

	// stopTimeout bounds how long Stop waits for the loop to exit.
	stopTimeout = 2 * time.Second
)

// Logger is the logging interface the transmitter needs.
// *logging.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// TransmitterConfig tunes the frame loop.
type TransmitterConfig struct {
	// FramePeriod is the interval between frames. Zero means DefaultFramePeriod.
	FramePeriod time.Duration

	// BreakBaud is the reduced baud used for the BREAK byte.
	// Zero means DefaultBreakBaud.
	BreakBaud int

	// Logger receives per-tick transmission errors. Nil means discard.
	Logger Logger
}

// Transmitter continuously emits DMX512 frames from a Universe snapshot at
// a fixed rate, regardless of what produced the latest channel values.
//
// The wire frame per tick is: BREAK (zero byte at reduced baud),
// Mark-After-Break, then the 0x00 start code and all 512 channel bytes at
// 250 kbit/s 8N2. Write errors on a tick are logged and skipped; the next
// tick simply tries again.
type Transmitter struct {
	universe *Universe
	line     Line
	period   time.Duration
	breakBd  int
	logger   Logger

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// NewTransmitter creates a transmitter reading from universe and writing
// to line. The universe stays fully usable even if line is a NopLine.
func NewTransmitter(universe *Universe, line Line, cfg TransmitterConfig) *Transmitter {
	if cfg.FramePeriod <= 0 {
		cfg.FramePeriod = DefaultFramePeriod
	}
	if cfg.BreakBaud <= 0 {
		cfg.BreakBaud = DefaultBreakBaud
	}
	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}

	return &Transmitter{
		universe: universe,
		line:     line,
		period:   cfg.FramePeriod,
		breakBd:  cfg.BreakBaud,
		logger:   cfg.Logger,
	}
}

// Start launches the frame loop. Calling Start on a running transmitter
// is a no-op.
func (t *Transmitter) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return
	}
	t.running = true
	t.stop = make(chan struct{})
	t.done = make(chan struct{})

	go t.loop(t.stop, t.done)
}

// Stop signals the frame loop to exit and waits for it, bounded by
// stopTimeout. Safe to call multiple times.
func (t *Transmitter) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	stop, done := t.stop, t.done
	t.mu.Unlock()

	close(stop)

	select {
	case <-done:
	case <-time.After(stopTimeout):
		t.logger.Warn("dmx transmit loop did not stop within timeout")
	}
}

// loop holds a steady frame cadence using an absolute schedule rather than
// sleeping a fixed interval, so transmission time does not accumulate as
// drift. If a tick overruns its slot (slow serial write, scheduler stall)
// the schedule resynchronises to now instead of bursting to catch up.
func (t *Transmitter) loop(stop, done chan struct{}) {
	defer close(done)

	next := time.Now()
	for {
		select {
		case <-stop:
			return
		default:
		}

		t.transmitFrame()

		next = next.Add(t.period)
		wait := time.Until(next)
		if wait < 0 {
			t.logger.Debug("dmx frame overrun", "behind", -wait)
			next = time.Now()
			continue
		}

		select {
		case <-stop:
			return
		case <-time.After(wait):
		}
	}
}

// transmitFrame writes one complete DMX512 frame. The universe snapshot is
// taken first so the frame is internally consistent even while producers
// keep writing.
func (t *Transmitter) transmitFrame() {
	snapshot := t.universe.Snapshot()

	// BREAK: a zero byte at the reduced rate holds TX low past 88 us.
	if err := t.line.SetBaud(t.breakBd); err != nil {
		t.logger.Error("setting break baud", "error", err)
		return
	}
	if _, err := t.line.Write([]byte{0x00}); err != nil {
		t.logger.Error("writing break", "error", err)
		return
	}
	if err := t.line.Drain(); err != nil {
		t.logger.Error("draining break", "error", err)
		return
	}

	// Mark-After-Break, then back to the data rate.
	if err := t.line.SetBaud(DataBaud); err != nil {
		t.logger.Error("setting data baud", "error", err)
		return
	}
	time.Sleep(mabDelay)

	frame := make([]byte, 1+NumChannels)
	frame[0] = StartCode
	copy(frame[1:], snapshot[:])

	if _, err := t.line.Write(frame); err != nil {
		t.logger.Error("writing frame", "error", err)
		return
	}
	if err := t.line.Drain(); err != nil {
		t.logger.Error("draining frame", "error", err)
	}
}
