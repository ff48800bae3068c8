package audio

import "errors"

// Domain errors for the audio package.
var (
	// ErrNotLoaded is returned when playback is requested before a
	// successful Load.
	ErrNotLoaded = errors.New("audio: no track loaded")

	// ErrLoadFailed is returned when a file cannot be decoded.
	ErrLoadFailed = errors.New("audio: load failed")

	// ErrNotPlaying is returned by Pause when nothing is playing.
	ErrNotPlaying = errors.New("audio: not playing")

	// ErrNotPaused is returned by Resume when playback is not paused.
	ErrNotPaused = errors.New("audio: not paused")

	// ErrUnsupportedFormat is returned for file types the decoder
	// does not handle.
	ErrUnsupportedFormat = errors.New("audio: unsupported format")
)
