package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/lumacue/lumacue-core/internal/audio"
	"github.com/lumacue/lumacue-core/internal/player"
	"github.com/lumacue/lumacue-core/internal/show"
)

// playRequest is the JSON body for POST /playback/play. Either a
// persisted sequence_id or inline events with an audio_path.
type playRequest struct {
	SequenceID  string       `json:"sequence_id,omitempty"`
	Events      []show.Event `json:"events,omitempty"`
	AudioPath   string       `json:"audio_path,omitempty"`
	StartOffset float64      `json:"start_offset,omitempty"`
}

type seekRequest struct {
	Position float64 `json:"position"`
}

// handlePlaybackStatus returns the current playback status.
func (s *Server) handlePlaybackStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.player.Status())
}

// handlePlay starts playback of a persisted sequence or an ephemeral
// one-off carried in the request body.
func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	var body playRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	req := show.PlayRequest{
		SequenceID:  body.SequenceID,
		StartOffset: time.Duration(body.StartOffset * float64(time.Second)),
	}
	if len(body.Events) > 0 || body.AudioPath != "" {
		req.Ephemeral = &show.EphemeralSequence{
			Events:    body.Events,
			AudioPath: body.AudioPath,
		}
	}

	if err := s.player.Play(r.Context(), req); err != nil {
		switch {
		case errors.Is(err, show.ErrInvalidPlayRequest):
			writeBadRequest(w, err.Error())
		case errors.Is(err, show.ErrSequenceNotFound), errors.Is(err, show.ErrSongNotFound):
			writeNotFound(w, err.Error())
		case errors.Is(err, audio.ErrLoadFailed), errors.Is(err, audio.ErrUnsupportedFormat):
			writeBadRequest(w, err.Error())
		default:
			s.logger.Error("starting playback", "error", err)
			writeInternalError(w, "failed to start playback")
		}
		return
	}

	writeJSON(w, http.StatusOK, s.player.Status())
}

// handlePause pauses playback, freezing the reported position.
func (s *Server) handlePause(w http.ResponseWriter, _ *http.Request) {
	if err := s.player.Pause(); err != nil {
		writePlaybackError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.player.Status())
}

// handleResume resumes paused playback.
func (s *Server) handleResume(w http.ResponseWriter, _ *http.Request) {
	if err := s.player.Resume(); err != nil {
		writePlaybackError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.player.Status())
}

// handleStop stops playback and clears any lit channels.
func (s *Server) handleStop(w http.ResponseWriter, _ *http.Request) {
	s.player.Stop()
	writeJSON(w, http.StatusOK, s.player.Status())
}

// handleSeek repositions playback to the given position in seconds.
func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	var body seekRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if body.Position < 0 {
		writeBadRequest(w, "position must not be negative")
		return
	}

	if err := s.player.Seek(time.Duration(body.Position * float64(time.Second))); err != nil {
		writePlaybackError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.player.Status())
}

// writePlaybackError maps player errors to HTTP responses.
func writePlaybackError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, player.ErrNothingPlaying):
		writeConflict(w, err.Error())
	case errors.Is(err, player.ErrNotPaused), errors.Is(err, audio.ErrNotPaused), errors.Is(err, audio.ErrNotPlaying):
		writeConflict(w, err.Error())
	default:
		writeInternalError(w, err.Error())
	}
}
