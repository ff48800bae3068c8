package show

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventKind classifies a lighting event's payload.
type EventKind string

// Event kinds supported by the resolver.
const (
	KindDimmer   EventKind = "dimmer"
	KindColor    EventKind = "color"
	KindPosition EventKind = "position"
)

// DefaultEventDuration applies when an event carries no explicit duration.
const DefaultEventDuration = 2.0

// Event is one timed lighting action within a sequence. Time and Duration
// are seconds relative to sequence start. Events are immutable once
// scheduled.
type Event struct {
	FixtureID string    `json:"fixture_id"`
	Kind      EventKind `json:"kind"`
	Time      float64   `json:"time"`
	Duration  float64   `json:"duration,omitempty"`

	// Value is the dimmer level 0-100 for KindDimmer events.
	Value float64 `json:"value,omitempty"`

	// Color is the payload for KindColor events.
	Color *Color `json:"color,omitempty"`

	// Position is the payload for KindPosition events.
	Position *Position `json:"position,omitempty"`
}

// EffectiveDuration returns the event's duration, applying the default
// when none was authored.
func (e *Event) EffectiveDuration() float64 {
	if e.Duration <= 0 {
		return DefaultEventDuration
	}
	return e.Duration
}

// Validate checks the event for errors.
func (e *Event) Validate() error {
	if e.FixtureID == "" {
		return fmt.Errorf("%w: missing fixture id", ErrInvalidSequence)
	}
	if e.Time < 0 {
		return fmt.Errorf("%w: negative time", ErrInvalidSequence)
	}
	switch e.Kind {
	case KindDimmer, KindColor, KindPosition:
		return nil
	default:
		return fmt.Errorf("%w: unknown event kind %q", ErrInvalidSequence, e.Kind)
	}
}

// Color is an RGBW payload. It unmarshals from either an
// {"r":..,"g":..,"b":..,"w":..} object or a "#RRGGBB" hex string; a
// malformed payload defaults to black rather than failing, and a missing
// white component defaults to 0.
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
	W int `json:"w,omitempty"`
}

// UnmarshalJSON accepts both the object and hex-string forms.
func (c *Color) UnmarshalJSON(data []byte) error {
	var hex string
	if err := json.Unmarshal(data, &hex); err == nil {
		parsed, ok := ParseHexColor(hex)
		if !ok {
			*c = Color{}
			return nil
		}
		*c = parsed
		return nil
	}

	type plain Color
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("parsing color: %w", err)
	}
	*c = Color(p)
	return nil
}

// ParseHexColor parses a "#RRGGBB" string. White is always 0 in the hex
// form. Returns false for anything that is not 6 hex digits after the #.
func ParseHexColor(s string) (Color, bool) {
	if len(s) != 7 || s[0] != '#' {
		return Color{}, false
	}

	var r, g, b int
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return Color{}, false
	}
	return Color{R: r, G: g, B: b}, true
}

// Position is a pan/tilt payload in raw DMX values.
type Position struct {
	Pan  int `json:"pan"`
	Tilt int `json:"tilt"`
}

// Song is an uploaded audio track.
type Song struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	FilePath  string    `json:"file_path"`
	Duration  int64     `json:"duration_ms"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Sequence ties a time-ordered list of lighting events to one song.
// The player sorts its own copy of Events before playback; storage order
// is preserved as authored.
type Sequence struct {
	ID        string    `json:"id"`
	SongID    string    `json:"song_id"`
	Name      string    `json:"name"`
	Events    []Event   `json:"events"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the sequence and every event in it.
func (s *Sequence) Validate() error {
	if s.SongID == "" {
		return fmt.Errorf("%w: missing song id", ErrInvalidSequence)
	}
	for i := range s.Events {
		if err := s.Events[i].Validate(); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}
	return nil
}

// PlaylistMode selects how the advancer walks a playlist.
type PlaylistMode string

const (
	// ModeCycle walks entries in fixed order, wrapping at the end.
	ModeCycle PlaylistMode = "cycle"

	// ModeShuffle consumes a fresh random permutation once per pass.
	ModeShuffle PlaylistMode = "shuffle"
)

// Playlist is an ordered set of sequence IDs advanced by the hardware
// trigger. Only active playlists participate in advancing.
type Playlist struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Mode      PlaylistMode `json:"mode"`
	Active    bool         `json:"active"`
	Entries   []string     `json:"entries"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Validate checks the playlist for errors.
func (p *Playlist) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidPlaylist)
	}
	switch p.Mode {
	case ModeCycle, ModeShuffle:
		return nil
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidPlaylist, p.Mode)
	}
}

// PlayRequest names what to play: either a persisted sequence by ID or an
// ephemeral one-off (live preview) carrying its own events and audio path.
// Exactly one of SequenceID and Ephemeral is set.
type PlayRequest struct {
	SequenceID  string
	Ephemeral   *EphemeralSequence
	StartOffset time.Duration
}

// EphemeralSequence is an unpersisted sequence for one-off playback.
type EphemeralSequence struct {
	Events    []Event
	AudioPath string
}

// Validate checks that the request names exactly one source.
func (r *PlayRequest) Validate() error {
	if (r.SequenceID == "") == (r.Ephemeral == nil) {
		return fmt.Errorf("%w: exactly one of sequence id or ephemeral events required", ErrInvalidPlayRequest)
	}
	return nil
}
