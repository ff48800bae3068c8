package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// Output is the audio device backend the Transport drives. The Transport
// owns all position arithmetic; an Output only needs to start, suspend,
// and halt sample delivery.
type Output interface {
	// Load decodes the file at path and returns the track duration.
	Load(path string) (time.Duration, error)

	// Play starts sample delivery from offset into the loaded track.
	Play(offset time.Duration) error

	// Pause suspends sample delivery without losing position.
	Pause() error

	// Resume continues sample delivery after Pause.
	Resume() error

	// Stop halts sample delivery. The loaded track stays loaded.
	Stop() error

	// Close releases the loaded track and the device.
	Close() error
}

// speakerOnce guards global speaker initialisation: the beep speaker is a
// process-wide device and must be initialised exactly once.
var speakerOnce sync.Once

// BeepOutput plays mp3 and wav files through the beep speaker.
type BeepOutput struct {
	sampleRate beep.SampleRate

	mu       sync.Mutex
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
}

// NewBeepOutput initialises the speaker at sampleRate with a buffer of
// bufferMS milliseconds and returns an Output over it.
func NewBeepOutput(sampleRate, bufferMS int) (*BeepOutput, error) {
	sr := beep.SampleRate(sampleRate)

	var initErr error
	speakerOnce.Do(func() {
		initErr = speaker.Init(sr, sr.N(time.Duration(bufferMS)*time.Millisecond))
	})
	if initErr != nil {
		return nil, fmt.Errorf("initialising speaker: %w", initErr)
	}

	return &BeepOutput{sampleRate: sr}, nil
}

// Load decodes the file at path. Supported formats: mp3, wav.
func (o *BeepOutput) Load(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	default:
		f.Close()
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		f.Close()
		return 0, fmt.Errorf("%w: decoding %s: %v", ErrLoadFailed, filepath.Base(path), err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	// Replace any previously loaded track
	speaker.Clear()
	if o.streamer != nil {
		o.streamer.Close() //nolint:errcheck // Best effort on replace
	}
	o.streamer = streamer
	o.format = format
	o.ctrl = nil

	return format.SampleRate.D(streamer.Len()), nil
}

// Play starts delivery from offset. Any prior playback is cleared first.
func (o *BeepOutput) Play(offset time.Duration) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.streamer == nil {
		return ErrNotLoaded
	}

	speaker.Clear()

	pos := o.format.SampleRate.N(offset)
	if pos < 0 {
		pos = 0
	}
	if pos > o.streamer.Len() {
		pos = o.streamer.Len()
	}
	if err := o.streamer.Seek(pos); err != nil {
		return fmt.Errorf("seeking to %v: %w", offset, err)
	}

	// Resample when the track's rate differs from the device rate
	var stream beep.Streamer = o.streamer
	if o.format.SampleRate != o.sampleRate {
		stream = beep.Resample(4, o.format.SampleRate, o.sampleRate, o.streamer)
	}

	o.ctrl = &beep.Ctrl{Streamer: stream}
	speaker.Play(o.ctrl)
	return nil
}

// Pause suspends sample delivery.
func (o *BeepOutput) Pause() error {
	o.mu.Lock()
	ctrl := o.ctrl
	o.mu.Unlock()

	if ctrl == nil {
		return ErrNotPlaying
	}

	speaker.Lock()
	ctrl.Paused = true
	speaker.Unlock()
	return nil
}

// Resume continues sample delivery after Pause.
func (o *BeepOutput) Resume() error {
	o.mu.Lock()
	ctrl := o.ctrl
	o.mu.Unlock()

	if ctrl == nil {
		return ErrNotPaused
	}

	speaker.Lock()
	ctrl.Paused = false
	speaker.Unlock()
	return nil
}

// Stop halts delivery. The track stays loaded for the next Play.
func (o *BeepOutput) Stop() error {
	o.mu.Lock()
	o.ctrl = nil
	o.mu.Unlock()

	speaker.Clear()
	return nil
}

// Close halts delivery and releases the loaded track.
func (o *BeepOutput) Close() error {
	speaker.Clear()

	o.mu.Lock()
	defer o.mu.Unlock()

	o.ctrl = nil
	if o.streamer != nil {
		err := o.streamer.Close()
		o.streamer = nil
		return err
	}
	return nil
}

// NopOutput is an Output with no audio device behind it. Load still
// stats the file so missing tracks are caught, but reports zero
// duration; playback operations succeed silently. Used when the speaker
// cannot be initialised so the rest of the controller keeps working.
type NopOutput struct{}

// Load checks the file exists and reports zero duration.
func (NopOutput) Load(path string) (time.Duration, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return 0, nil
}

func (NopOutput) Play(time.Duration) error { return nil }
func (NopOutput) Pause() error             { return nil }
func (NopOutput) Resume() error            { return nil }
func (NopOutput) Stop() error              { return nil }
func (NopOutput) Close() error             { return nil }
