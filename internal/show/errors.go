package show

import "errors"

// Domain errors for the show package.
var (
	// ErrSongNotFound is returned when a song ID does not exist.
	ErrSongNotFound = errors.New("show: song not found")

	// ErrSequenceNotFound is returned when a sequence ID does not exist.
	ErrSequenceNotFound = errors.New("show: sequence not found")

	// ErrPlaylistNotFound is returned when a playlist ID does not exist.
	ErrPlaylistNotFound = errors.New("show: playlist not found")

	// ErrInvalidSequence is returned when sequence validation fails.
	ErrInvalidSequence = errors.New("show: invalid sequence")

	// ErrInvalidPlaylist is returned when playlist validation fails.
	ErrInvalidPlaylist = errors.New("show: invalid playlist")

	// ErrInvalidPlayRequest is returned when a play request names neither
	// or both of a persisted sequence and ephemeral events.
	ErrInvalidPlayRequest = errors.New("show: invalid play request")
)
