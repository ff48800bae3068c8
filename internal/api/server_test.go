package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lumacue/lumacue-core/internal/audio"
	"github.com/lumacue/lumacue-core/internal/dmx"
	"github.com/lumacue/lumacue-core/internal/fixture"
	"github.com/lumacue/lumacue-core/internal/infrastructure/config"
	"github.com/lumacue/lumacue-core/internal/infrastructure/logging"
	"github.com/lumacue/lumacue-core/internal/player"
	"github.com/lumacue/lumacue-core/internal/show"
)

// setupTestDB creates an in-memory SQLite database with the full schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	schema := `
		CREATE TABLE fixtures (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			manufacturer TEXT NOT NULL DEFAULT '',
			model TEXT NOT NULL DEFAULT '',
			channels TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE TABLE patches (
			id TEXT PRIMARY KEY,
			fixture_id TEXT NOT NULL REFERENCES fixtures(id) ON DELETE CASCADE,
			label TEXT NOT NULL DEFAULT '',
			start_address INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE TABLE songs (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			file_path TEXT NOT NULL,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE TABLE sequences (
			id TEXT PRIMARY KEY,
			song_id TEXT NOT NULL REFERENCES songs(id) ON DELETE CASCADE,
			name TEXT NOT NULL DEFAULT '',
			events TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE TABLE playlists (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			mode TEXT NOT NULL DEFAULT 'cycle',
			active INTEGER NOT NULL DEFAULT 1,
			entries TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	return db
}

type testEnv struct {
	server   *Server
	router   http.Handler
	universe *dmx.Universe
	fixtures fixture.Repository
	shows    show.Repository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	fixtures := fixture.NewSQLiteRepository(db)
	shows := show.NewSQLiteRepository(db)
	registry := fixture.NewRegistry(fixtures)

	universe := dmx.NewUniverse()
	transport := audio.NewTransport(audio.NopOutput{}, audio.TransportConfig{})
	p := player.New(universe, transport, shows, registry, player.Config{})
	t.Cleanup(p.Stop)

	srv, err := New(Deps{
		Config:   config.APIConfig{Host: "127.0.0.1", Port: 0},
		WS:       config.WebSocketConfig{MaxMessageSize: 4096, PingInterval: 30, PongTimeout: 60},
		Logger:   logging.Default(),
		Player:   p,
		Universe: universe,
		Fixtures: fixtures,
		Registry: registry,
		Shows:    shows,
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	return &testEnv{
		server:   srv,
		router:   srv.buildRouter(),
		universe: universe,
		fixtures: fixtures,
		shows:    shows,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshalling request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}

	var body map[string]string
	decodeBody(t, rec, &body)
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestChannelEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/api/v1/channels/10", map[string]int{"value": 200})
	if rec.Code != http.StatusOK {
		t.Fatalf("set channel status %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/v1/channels/10", nil)
	var got map[string]int
	decodeBody(t, rec, &got)
	if got["value"] != 200 {
		t.Errorf("channel 10 value %d, want 200", got["value"])
	}

	// Out-of-range values clamp rather than error
	rec = env.do(t, http.MethodPut, "/api/v1/channels/10", map[string]int{"value": 999})
	var clamped map[string]int
	decodeBody(t, rec, &clamped)
	if clamped["value"] != 255 {
		t.Errorf("clamped value %d, want 255", clamped["value"])
	}

	rec = env.do(t, http.MethodPost, "/api/v1/channels/blackout", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("blackout status %d", rec.Code)
	}
	if v := env.universe.Get(10); v != 0 {
		t.Errorf("channel 10 after blackout: %d, want 0", v)
	}
}

func TestChannelAddressValidation(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{
		"/api/v1/channels/0",
		"/api/v1/channels/513",
		"/api/v1/channels/abc",
	} {
		rec := env.do(t, http.MethodGet, path, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", path, rec.Code)
		}
	}
}

func TestBulkSetChannels(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/api/v1/channels", map[string]any{
		"channels": map[string]int{"1": 255, "10": 128, "512": 64},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("bulk set status %d: %s", rec.Code, rec.Body.String())
	}
	for addr, want := range map[int]int{1: 255, 10: 128, 512: 64} {
		if got := env.universe.Get(addr); got != want {
			t.Errorf("channel %d = %d, want %d", addr, got, want)
		}
	}

	rec = env.do(t, http.MethodPut, "/api/v1/channels", map[string]any{
		"channels": map[string]int{"0": 100},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("out-of-range address status %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodPut, "/api/v1/channels", map[string]any{
		"channels": map[string]int{},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty map status %d, want 400", rec.Code)
	}
}

func TestMasterOperations(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/fixtures", map[string]any{
		"id":       "fx-1",
		"name":     "LED Par",
		"channels": []string{"dimmer", "red", "green", "blue"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create fixture status %d: %s", rec.Code, rec.Body.String())
	}
	rec = env.do(t, http.MethodPost, "/api/v1/patches", map[string]any{
		"fixture_id":    "fx-1",
		"start_address": 1,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create patch status %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/v1/channels/master-dimmer", map[string]float64{"value": 50})
	if rec.Code != http.StatusOK {
		t.Fatalf("master dimmer status %d: %s", rec.Code, rec.Body.String())
	}
	if got := env.universe.Get(1); got != 128 {
		t.Errorf("dimmer channel = %d, want 128", got)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/channels/master-dimmer", map[string]float64{"value": 101})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("over-range dimmer status %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/channels/master-color", map[string]any{
		"color": map[string]int{"r": 10, "g": 20, "b": 30},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("master colour status %d: %s", rec.Code, rec.Body.String())
	}
	for addr, want := range map[int]int{2: 10, 3: 20, 4: 30} {
		if got := env.universe.Get(addr); got != want {
			t.Errorf("channel %d = %d, want %d", addr, got, want)
		}
	}
}

func TestFixtureAndPatchLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/fixtures", map[string]any{
		"id":       "fx-1",
		"name":     "LED Par",
		"channels": []string{"dimmer", "red", "green", "blue"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create fixture status %d: %s", rec.Code, rec.Body.String())
	}

	// Duplicate create conflicts
	rec = env.do(t, http.MethodPost, "/api/v1/fixtures", map[string]any{
		"id":       "fx-1",
		"name":     "LED Par",
		"channels": []string{"dimmer"},
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate fixture status %d, want 409", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/patches", map[string]any{
		"id":            "patch-1",
		"fixture_id":    "fx-1",
		"start_address": 1,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create patch status %d: %s", rec.Code, rec.Body.String())
	}

	// Patch that would run past channel 512 is rejected
	rec = env.do(t, http.MethodPost, "/api/v1/patches", map[string]any{
		"fixture_id":    "fx-1",
		"start_address": 511,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("overflowing patch status %d, want 400", rec.Code)
	}

	// Patch against an unknown fixture is rejected
	rec = env.do(t, http.MethodPost, "/api/v1/patches", map[string]any{
		"fixture_id":    "nope",
		"start_address": 1,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("orphan patch status %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/fixtures/fx-1", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get fixture status %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/v1/fixtures/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing fixture status %d, want 404", rec.Code)
	}
}

func TestPlaybackValidation(t *testing.T) {
	env := newTestEnv(t)

	// Neither a sequence ID nor events
	rec := env.do(t, http.MethodPost, "/api/v1/playback/play", map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty play status %d, want 400", rec.Code)
	}

	// Unknown persisted sequence
	rec = env.do(t, http.MethodPost, "/api/v1/playback/play", map[string]any{
		"sequence_id": "missing",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown sequence status %d, want 404", rec.Code)
	}

	// Pause with nothing playing
	rec = env.do(t, http.MethodPost, "/api/v1/playback/pause", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("pause idle status %d, want 409", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/playback/seek", map[string]float64{"position": -1})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative seek status %d, want 400", rec.Code)
	}
}

func TestEphemeralPlayback(t *testing.T) {
	env := newTestEnv(t)

	audioPath := filepath.Join(t.TempDir(), "preview.wav")
	if err := os.WriteFile(audioPath, []byte("stub"), 0o600); err != nil {
		t.Fatalf("writing stub audio: %v", err)
	}

	rec := env.do(t, http.MethodPost, "/api/v1/playback/play", map[string]any{
		"audio_path": audioPath,
		"events": []map[string]any{
			{"fixture_id": "fx-1", "kind": "dimmer", "time": 0, "value": 100},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("ephemeral play status %d: %s", rec.Code, rec.Body.String())
	}

	var status player.Status
	decodeBody(t, rec, &status)
	if !status.IsPlaying {
		t.Error("status not playing after ephemeral play")
	}

	rec = env.do(t, http.MethodPost, "/api/v1/playback/stop", nil)
	decodeBody(t, rec, &status)
	if status.IsPlaying {
		t.Error("status still playing after stop")
	}
}

func TestPlaybackStatusEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/playback/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status endpoint %d", rec.Code)
	}

	var status player.Status
	decodeBody(t, rec, &status)
	if status.IsPlaying || status.IsPaused {
		t.Errorf("idle status reports playback: %+v", status)
	}
}

func TestSequenceValidationOnSave(t *testing.T) {
	env := newTestEnv(t)

	// Missing song id
	rec := env.do(t, http.MethodPut, "/api/v1/sequences", map[string]any{
		"name":   "bad",
		"events": []any{},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid sequence status %d, want 400", rec.Code)
	}
}

func TestPlaylistLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/api/v1/playlists", map[string]any{
		"id":      "pl-1",
		"name":    "Friday",
		"mode":    "cycle",
		"active":  true,
		"entries": []string{"seq-1", "seq-2"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("save playlist status %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/v1/playlists/pl-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get playlist status %d", rec.Code)
	}
	var pl show.Playlist
	decodeBody(t, rec, &pl)
	if pl.Mode != show.ModeCycle || len(pl.Entries) != 2 {
		t.Errorf("unexpected playlist: %+v", pl)
	}

	rec = env.do(t, http.MethodPut, "/api/v1/playlists", map[string]any{
		"name": "Broken",
		"mode": "random",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid mode status %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "/api/v1/playlists/pl-1", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("delete playlist status %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/v1/playlists/pl-1", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("deleted playlist status %d, want 404", rec.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/health", nil)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("response missing X-Request-ID header")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-ID"); got != "fixed-id" {
		t.Errorf("X-Request-ID %q, want fixed-id", got)
	}
}
