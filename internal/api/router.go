package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Playback control
		r.Route("/playback", func(r chi.Router) {
			r.Get("/", s.handlePlaybackStatus)
			r.Get("/status", s.handlePlaybackStatus)
			r.Post("/play", s.handlePlay)
			r.Post("/pause", s.handlePause)
			r.Post("/resume", s.handleResume)
			r.Post("/stop", s.handleStop)
			r.Post("/seek", s.handleSeek)
		})

		// Direct channel access
		r.Route("/channels", func(r chi.Router) {
			r.Get("/", s.handleGetChannels)
			r.Put("/", s.handleSetChannels)
			r.Post("/blackout", s.handleBlackout)
			r.Post("/master-dimmer", s.handleMasterDimmer)
			r.Post("/master-color", s.handleMasterColor)
			r.Get("/{address}", s.handleGetChannel)
			r.Put("/{address}", s.handleSetChannel)
		})

		// Fixture library
		r.Route("/fixtures", func(r chi.Router) {
			r.Get("/", s.handleListFixtures)
			r.Post("/", s.handleCreateFixture)
			r.Get("/{id}", s.handleGetFixture)
			r.Put("/{id}", s.handleUpdateFixture)
			r.Delete("/{id}", s.handleDeleteFixture)
		})

		// Patches
		r.Route("/patches", func(r chi.Router) {
			r.Get("/", s.handleListPatches)
			r.Post("/", s.handleCreatePatch)
			r.Delete("/{id}", s.handleDeletePatch)
		})

		// Songs
		r.Route("/songs", func(r chi.Router) {
			r.Get("/", s.handleListSongs)
			r.Post("/", s.handleCreateSong)
			r.Get("/{id}", s.handleGetSong)
			r.Delete("/{id}", s.handleDeleteSong)
		})

		// Sequences
		r.Route("/sequences", func(r chi.Router) {
			r.Get("/", s.handleListSequences)
			r.Put("/", s.handleSaveSequence)
			r.Get("/{id}", s.handleGetSequence)
			r.Delete("/{id}", s.handleDeleteSequence)
		})

		// Playlists
		r.Route("/playlists", func(r chi.Router) {
			r.Get("/", s.handleListPlaylists)
			r.Put("/", s.handleSavePlaylist)
			r.Get("/{id}", s.handleGetPlaylist)
			r.Delete("/{id}", s.handleDeletePlaylist)
		})

		// WebSocket
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
