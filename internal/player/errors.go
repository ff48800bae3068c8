package player

import "errors"

// Domain errors for the player package.
var (
	// ErrNothingPlaying is returned by Pause/Resume/Seek when no
	// playback session is live.
	ErrNothingPlaying = errors.New("player: nothing playing")

	// ErrNotPaused is returned by Resume when playback is not paused.
	ErrNotPaused = errors.New("player: not paused")
)
