package show

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Repository defines persistence for songs, sequences, and playlists.
type Repository interface {
	// GetSong retrieves a song by ID.
	// Returns ErrSongNotFound if the song does not exist.
	GetSong(ctx context.Context, id string) (*Song, error)

	// ListSongs retrieves all songs ordered by name.
	ListSongs(ctx context.Context) ([]Song, error)

	// CreateSong inserts a new song.
	CreateSong(ctx context.Context, s *Song) error

	// DeleteSong removes a song and, via cascade, its sequences.
	DeleteSong(ctx context.Context, id string) error

	// GetSequence retrieves a sequence by ID.
	// Returns ErrSequenceNotFound if the sequence does not exist.
	GetSequence(ctx context.Context, id string) (*Sequence, error)

	// GetSequenceBySong retrieves the sequence attached to a song.
	GetSequenceBySong(ctx context.Context, songID string) (*Sequence, error)

	// ListSequences retrieves all sequences.
	ListSequences(ctx context.Context) ([]Sequence, error)

	// SaveSequence inserts or replaces a sequence.
	SaveSequence(ctx context.Context, s *Sequence) error

	// DeleteSequence removes a sequence by ID.
	DeleteSequence(ctx context.Context, id string) error

	// GetPlaylist retrieves a playlist by ID.
	// Returns ErrPlaylistNotFound if the playlist does not exist.
	GetPlaylist(ctx context.Context, id string) (*Playlist, error)

	// ListPlaylists retrieves all playlists ordered by name.
	ListPlaylists(ctx context.Context) ([]Playlist, error)

	// ListActivePlaylists retrieves active playlists ordered by name.
	// The trigger advancer walks these.
	ListActivePlaylists(ctx context.Context) ([]Playlist, error)

	// SavePlaylist inserts or replaces a playlist.
	SavePlaylist(ctx context.Context, p *Playlist) error

	// DeletePlaylist removes a playlist by ID.
	DeletePlaylist(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetSong retrieves a song by ID.
func (r *SQLiteRepository) GetSong(ctx context.Context, id string) (*Song, error) {
	query := `
		SELECT id, name, file_path, duration_ms, created_at, updated_at
		FROM songs
		WHERE id = ?`

	s, err := scanSong(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSongNotFound
		}
		return nil, fmt.Errorf("querying song by id: %w", err)
	}
	return s, nil
}

// ListSongs retrieves all songs ordered by name.
func (r *SQLiteRepository) ListSongs(ctx context.Context) ([]Song, error) {
	query := `
		SELECT id, name, file_path, duration_ms, created_at, updated_at
		FROM songs
		ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying songs: %w", err)
	}
	defer rows.Close()

	var songs []Song
	for rows.Next() {
		s, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning song: %w", err)
		}
		songs = append(songs, *s)
	}
	return songs, rows.Err()
}

// CreateSong inserts a new song.
func (r *SQLiteRepository) CreateSong(ctx context.Context, s *Song) error {
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	query := `
		INSERT INTO songs (id, name, file_path, duration_ms, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.Name,
		s.FilePath,
		s.Duration,
		s.CreatedAt.Format(time.RFC3339),
		s.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting song: %w", err)
	}
	return nil
}

// DeleteSong removes a song by ID.
func (r *SQLiteRepository) DeleteSong(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM songs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting song: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return ErrSongNotFound
	}
	return nil
}

// GetSequence retrieves a sequence by ID.
func (r *SQLiteRepository) GetSequence(ctx context.Context, id string) (*Sequence, error) {
	query := `
		SELECT id, song_id, name, events, created_at, updated_at
		FROM sequences
		WHERE id = ?`

	s, err := scanSequence(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSequenceNotFound
		}
		return nil, fmt.Errorf("querying sequence by id: %w", err)
	}
	return s, nil
}

// GetSequenceBySong retrieves the sequence attached to a song.
func (r *SQLiteRepository) GetSequenceBySong(ctx context.Context, songID string) (*Sequence, error) {
	query := `
		SELECT id, song_id, name, events, created_at, updated_at
		FROM sequences
		WHERE song_id = ?
		LIMIT 1`

	s, err := scanSequence(r.db.QueryRowContext(ctx, query, songID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSequenceNotFound
		}
		return nil, fmt.Errorf("querying sequence by song: %w", err)
	}
	return s, nil
}

// ListSequences retrieves all sequences.
func (r *SQLiteRepository) ListSequences(ctx context.Context) ([]Sequence, error) {
	query := `
		SELECT id, song_id, name, events, created_at, updated_at
		FROM sequences
		ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying sequences: %w", err)
	}
	defer rows.Close()

	var sequences []Sequence
	for rows.Next() {
		s, err := scanSequence(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning sequence: %w", err)
		}
		sequences = append(sequences, *s)
	}
	return sequences, rows.Err()
}

// SaveSequence inserts or replaces a sequence.
func (r *SQLiteRepository) SaveSequence(ctx context.Context, s *Sequence) error {
	if err := s.Validate(); err != nil {
		return err
	}

	eventsJSON, err := json.Marshal(s.Events)
	if err != nil {
		return fmt.Errorf("marshalling events: %w", err)
	}

	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	query := `
		INSERT INTO sequences (id, song_id, name, events, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			song_id = excluded.song_id,
			name = excluded.name,
			events = excluded.events,
			updated_at = excluded.updated_at`

	_, err = r.db.ExecContext(ctx, query,
		s.ID,
		s.SongID,
		s.Name,
		string(eventsJSON),
		s.CreatedAt.Format(time.RFC3339),
		s.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving sequence: %w", err)
	}
	return nil
}

// DeleteSequence removes a sequence by ID.
func (r *SQLiteRepository) DeleteSequence(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sequences WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting sequence: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return ErrSequenceNotFound
	}
	return nil
}

// GetPlaylist retrieves a playlist by ID.
func (r *SQLiteRepository) GetPlaylist(ctx context.Context, id string) (*Playlist, error) {
	query := `
		SELECT id, name, mode, active, entries, created_at, updated_at
		FROM playlists
		WHERE id = ?`

	p, err := scanPlaylist(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlaylistNotFound
		}
		return nil, fmt.Errorf("querying playlist by id: %w", err)
	}
	return p, nil
}

// ListPlaylists retrieves all playlists ordered by name.
func (r *SQLiteRepository) ListPlaylists(ctx context.Context) ([]Playlist, error) {
	return r.queryPlaylists(ctx, `
		SELECT id, name, mode, active, entries, created_at, updated_at
		FROM playlists
		ORDER BY name`)
}

// ListActivePlaylists retrieves active playlists ordered by name.
func (r *SQLiteRepository) ListActivePlaylists(ctx context.Context) ([]Playlist, error) {
	return r.queryPlaylists(ctx, `
		SELECT id, name, mode, active, entries, created_at, updated_at
		FROM playlists
		WHERE active = 1
		ORDER BY name`)
}

func (r *SQLiteRepository) queryPlaylists(ctx context.Context, query string) ([]Playlist, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying playlists: %w", err)
	}
	defer rows.Close()

	var playlists []Playlist
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning playlist: %w", err)
		}
		playlists = append(playlists, *p)
	}
	return playlists, rows.Err()
}

// SavePlaylist inserts or replaces a playlist.
func (r *SQLiteRepository) SavePlaylist(ctx context.Context, p *Playlist) error {
	if err := p.Validate(); err != nil {
		return err
	}

	entriesJSON, err := json.Marshal(p.Entries)
	if err != nil {
		return fmt.Errorf("marshalling entries: %w", err)
	}

	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	query := `
		INSERT INTO playlists (id, name, mode, active, entries, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			mode = excluded.mode,
			active = excluded.active,
			entries = excluded.entries,
			updated_at = excluded.updated_at`

	_, err = r.db.ExecContext(ctx, query,
		p.ID,
		p.Name,
		string(p.Mode),
		boolToInt(p.Active),
		string(entriesJSON),
		p.CreatedAt.Format(time.RFC3339),
		p.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving playlist: %w", err)
	}
	return nil
}

// DeletePlaylist removes a playlist by ID.
func (r *SQLiteRepository) DeletePlaylist(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM playlists WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting playlist: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return ErrPlaylistNotFound
	}
	return nil
}

// scanner abstracts over sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSong(s scanner) (*Song, error) {
	var song Song
	var createdAt, updatedAt string

	if err := s.Scan(&song.ID, &song.Name, &song.FilePath, &song.Duration, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	song.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	song.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &song, nil
}

func scanSequence(s scanner) (*Sequence, error) {
	var seq Sequence
	var eventsJSON, createdAt, updatedAt string

	if err := s.Scan(&seq.ID, &seq.SongID, &seq.Name, &eventsJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(eventsJSON), &seq.Events); err != nil {
		return nil, fmt.Errorf("unmarshalling events: %w", err)
	}

	seq.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	seq.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &seq, nil
}

func scanPlaylist(s scanner) (*Playlist, error) {
	var p Playlist
	var active int
	var entriesJSON, createdAt, updatedAt string

	if err := s.Scan(&p.ID, &p.Name, (*string)(&p.Mode), &active, &entriesJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(entriesJSON), &p.Entries); err != nil {
		return nil, fmt.Errorf("unmarshalling entries: %w", err)
	}

	p.Active = active != 0
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
