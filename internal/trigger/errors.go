package trigger

import "errors"

// Domain errors for the trigger package.
var (
	// ErrCooldown is returned when a press lands inside the cooldown
	// window after the previous successful trigger.
	ErrCooldown = errors.New("trigger: within cooldown")

	// ErrTriggerInProgress is returned when a press arrives while a
	// previous trigger is still starting playback. The press is dropped,
	// never queued.
	ErrTriggerInProgress = errors.New("trigger: already in progress")

	// ErrNoPlaylists is returned when no active playlist yields a
	// sequence to play.
	ErrNoPlaylists = errors.New("trigger: no active playlists")
)
