package player

// Status describes the current playback state for API and WebSocket
// consumers. Position and Duration are seconds.
type Status struct {
	IsPlaying  bool    `json:"is_playing"`
	IsPaused   bool    `json:"is_paused"`
	SequenceID string  `json:"sequence_id,omitempty"`
	SongID     string  `json:"song_id,omitempty"`
	Position   float64 `json:"position"`
	Duration   float64 `json:"duration"`
	Progress   float64 `json:"progress"`
}
