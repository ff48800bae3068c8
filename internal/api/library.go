package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lumacue/lumacue-core/internal/fixture"
	"github.com/lumacue/lumacue-core/internal/show"
)

// Fixture endpoints

func (s *Server) handleListFixtures(w http.ResponseWriter, r *http.Request) {
	fixtures, err := s.fixtures.ListFixtures(r.Context())
	if err != nil {
		s.logger.Error("listing fixtures", "error", err)
		writeInternalError(w, "failed to list fixtures")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"fixtures": fixtures})
}

func (s *Server) handleGetFixture(w http.ResponseWriter, r *http.Request) {
	f, err := s.fixtures.GetFixture(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, fixture.ErrFixtureNotFound) {
			writeNotFound(w, "fixture not found")
			return
		}
		s.logger.Error("fetching fixture", "error", err)
		writeInternalError(w, "failed to fetch fixture")
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleCreateFixture(w http.ResponseWriter, r *http.Request) {
	var f fixture.Fixture
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if err := f.Validate(); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.fixtures.CreateFixture(r.Context(), &f); err != nil {
		if errors.Is(err, fixture.ErrFixtureExists) {
			writeConflict(w, "fixture already exists")
			return
		}
		s.logger.Error("creating fixture", "error", err)
		writeInternalError(w, "failed to create fixture")
		return
	}

	s.reloadRegistry(r)
	writeJSON(w, http.StatusCreated, f)
}

func (s *Server) handleUpdateFixture(w http.ResponseWriter, r *http.Request) {
	var f fixture.Fixture
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	f.ID = chi.URLParam(r, "id")
	if err := f.Validate(); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.fixtures.UpdateFixture(r.Context(), &f); err != nil {
		if errors.Is(err, fixture.ErrFixtureNotFound) {
			writeNotFound(w, "fixture not found")
			return
		}
		s.logger.Error("updating fixture", "error", err)
		writeInternalError(w, "failed to update fixture")
		return
	}

	s.reloadRegistry(r)
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleDeleteFixture(w http.ResponseWriter, r *http.Request) {
	if err := s.fixtures.DeleteFixture(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, fixture.ErrFixtureNotFound) {
			writeNotFound(w, "fixture not found")
			return
		}
		s.logger.Error("deleting fixture", "error", err)
		writeInternalError(w, "failed to delete fixture")
		return
	}

	s.reloadRegistry(r)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Patch endpoints

func (s *Server) handleListPatches(w http.ResponseWriter, r *http.Request) {
	patches, err := s.fixtures.ListPatches(r.Context())
	if err != nil {
		s.logger.Error("listing patches", "error", err)
		writeInternalError(w, "failed to list patches")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"patches": patches})
}

func (s *Server) handleCreatePatch(w http.ResponseWriter, r *http.Request) {
	var p fixture.Patch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	f, err := s.fixtures.GetFixture(r.Context(), p.FixtureID)
	if err != nil {
		if errors.Is(err, fixture.ErrFixtureNotFound) {
			writeBadRequest(w, "patch references unknown fixture")
			return
		}
		s.logger.Error("fetching fixture for patch", "error", err)
		writeInternalError(w, "failed to create patch")
		return
	}
	if err := p.Validate(f); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.fixtures.CreatePatch(r.Context(), &p); err != nil {
		s.logger.Error("creating patch", "error", err)
		writeInternalError(w, "failed to create patch")
		return
	}

	s.reloadRegistry(r)
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleDeletePatch(w http.ResponseWriter, r *http.Request) {
	if err := s.fixtures.DeletePatch(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, fixture.ErrPatchNotFound) {
			writeNotFound(w, "patch not found")
			return
		}
		s.logger.Error("deleting patch", "error", err)
		writeInternalError(w, "failed to delete patch")
		return
	}

	s.reloadRegistry(r)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Song endpoints

func (s *Server) handleListSongs(w http.ResponseWriter, r *http.Request) {
	songs, err := s.shows.ListSongs(r.Context())
	if err != nil {
		s.logger.Error("listing songs", "error", err)
		writeInternalError(w, "failed to list songs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"songs": songs})
}

func (s *Server) handleGetSong(w http.ResponseWriter, r *http.Request) {
	song, err := s.shows.GetSong(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, show.ErrSongNotFound) {
			writeNotFound(w, "song not found")
			return
		}
		s.logger.Error("fetching song", "error", err)
		writeInternalError(w, "failed to fetch song")
		return
	}
	writeJSON(w, http.StatusOK, song)
}

func (s *Server) handleCreateSong(w http.ResponseWriter, r *http.Request) {
	var song show.Song
	if err := json.NewDecoder(r.Body).Decode(&song); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if song.ID == "" {
		song.ID = uuid.NewString()
	}
	if song.Name == "" || song.FilePath == "" {
		writeBadRequest(w, "name and file_path are required")
		return
	}

	if err := s.shows.CreateSong(r.Context(), &song); err != nil {
		s.logger.Error("creating song", "error", err)
		writeInternalError(w, "failed to create song")
		return
	}
	writeJSON(w, http.StatusCreated, song)
}

func (s *Server) handleDeleteSong(w http.ResponseWriter, r *http.Request) {
	if err := s.shows.DeleteSong(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, show.ErrSongNotFound) {
			writeNotFound(w, "song not found")
			return
		}
		s.logger.Error("deleting song", "error", err)
		writeInternalError(w, "failed to delete song")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Sequence endpoints

func (s *Server) handleListSequences(w http.ResponseWriter, r *http.Request) {
	sequences, err := s.shows.ListSequences(r.Context())
	if err != nil {
		s.logger.Error("listing sequences", "error", err)
		writeInternalError(w, "failed to list sequences")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sequences": sequences})
}

func (s *Server) handleGetSequence(w http.ResponseWriter, r *http.Request) {
	seq, err := s.shows.GetSequence(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, show.ErrSequenceNotFound) {
			writeNotFound(w, "sequence not found")
			return
		}
		s.logger.Error("fetching sequence", "error", err)
		writeInternalError(w, "failed to fetch sequence")
		return
	}
	writeJSON(w, http.StatusOK, seq)
}

func (s *Server) handleSaveSequence(w http.ResponseWriter, r *http.Request) {
	var seq show.Sequence
	if err := json.NewDecoder(r.Body).Decode(&seq); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if seq.ID == "" {
		seq.ID = uuid.NewString()
	}
	if err := seq.Validate(); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.shows.SaveSequence(r.Context(), &seq); err != nil {
		s.logger.Error("saving sequence", "error", err)
		writeInternalError(w, "failed to save sequence")
		return
	}
	writeJSON(w, http.StatusOK, seq)
}

func (s *Server) handleDeleteSequence(w http.ResponseWriter, r *http.Request) {
	if err := s.shows.DeleteSequence(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, show.ErrSequenceNotFound) {
			writeNotFound(w, "sequence not found")
			return
		}
		s.logger.Error("deleting sequence", "error", err)
		writeInternalError(w, "failed to delete sequence")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Playlist endpoints

func (s *Server) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := s.shows.ListPlaylists(r.Context())
	if err != nil {
		s.logger.Error("listing playlists", "error", err)
		writeInternalError(w, "failed to list playlists")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"playlists": playlists})
}

func (s *Server) handleGetPlaylist(w http.ResponseWriter, r *http.Request) {
	pl, err := s.shows.GetPlaylist(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, show.ErrPlaylistNotFound) {
			writeNotFound(w, "playlist not found")
			return
		}
		s.logger.Error("fetching playlist", "error", err)
		writeInternalError(w, "failed to fetch playlist")
		return
	}
	writeJSON(w, http.StatusOK, pl)
}

func (s *Server) handleSavePlaylist(w http.ResponseWriter, r *http.Request) {
	var pl show.Playlist
	if err := json.NewDecoder(r.Body).Decode(&pl); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if pl.ID == "" {
		pl.ID = uuid.NewString()
	}
	if err := pl.Validate(); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.shows.SavePlaylist(r.Context(), &pl); err != nil {
		s.logger.Error("saving playlist", "error", err)
		writeInternalError(w, "failed to save playlist")
		return
	}
	writeJSON(w, http.StatusOK, pl)
}

func (s *Server) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	if err := s.shows.DeletePlaylist(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, show.ErrPlaylistNotFound) {
			writeNotFound(w, "playlist not found")
			return
		}
		s.logger.Error("deleting playlist", "error", err)
		writeInternalError(w, "failed to delete playlist")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// reloadRegistry refreshes the patched-fixture cache after a fixture or
// patch mutation, so playback picks up the change on the next start.
func (s *Server) reloadRegistry(r *http.Request) {
	if s.registry == nil {
		return
	}
	if err := s.registry.Reload(r.Context()); err != nil {
		s.logger.Warn("reloading fixture registry", "error", err)
	}
}
