package fixture

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for fixture and patch persistence.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// GetFixture retrieves a fixture by ID.
	// Returns ErrFixtureNotFound if the fixture does not exist.
	GetFixture(ctx context.Context, id string) (*Fixture, error)

	// ListFixtures retrieves all fixtures ordered by name.
	ListFixtures(ctx context.Context) ([]Fixture, error)

	// CreateFixture inserts a new fixture.
	// Returns ErrFixtureExists if a fixture with the same ID already exists.
	CreateFixture(ctx context.Context, f *Fixture) error

	// UpdateFixture modifies an existing fixture.
	// Returns ErrFixtureNotFound if the fixture does not exist.
	UpdateFixture(ctx context.Context, f *Fixture) error

	// DeleteFixture removes a fixture and, via cascade, its patches.
	// Returns ErrFixtureNotFound if the fixture does not exist.
	DeleteFixture(ctx context.Context, id string) error

	// GetPatch retrieves a patch by ID.
	// Returns ErrPatchNotFound if the patch does not exist.
	GetPatch(ctx context.Context, id string) (*Patch, error)

	// ListPatches retrieves all patches ordered by start address.
	ListPatches(ctx context.Context) ([]Patch, error)

	// CreatePatch inserts a new patch.
	CreatePatch(ctx context.Context, p *Patch) error

	// DeletePatch removes a patch by ID.
	// Returns ErrPatchNotFound if the patch does not exist.
	DeletePatch(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetFixture retrieves a fixture by ID.
func (r *SQLiteRepository) GetFixture(ctx context.Context, id string) (*Fixture, error) {
	query := `
		SELECT id, name, manufacturer, model, channels, created_at, updated_at
		FROM fixtures
		WHERE id = ?`

	f, err := scanFixture(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFixtureNotFound
		}
		return nil, fmt.Errorf("querying fixture by id: %w", err)
	}
	return f, nil
}

// ListFixtures retrieves all fixtures ordered by name.
func (r *SQLiteRepository) ListFixtures(ctx context.Context) ([]Fixture, error) {
	query := `
		SELECT id, name, manufacturer, model, channels, created_at, updated_at
		FROM fixtures
		ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying fixtures: %w", err)
	}
	defer rows.Close()

	var fixtures []Fixture
	for rows.Next() {
		f, err := scanFixture(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning fixture: %w", err)
		}
		fixtures = append(fixtures, *f)
	}
	return fixtures, rows.Err()
}

// CreateFixture inserts a new fixture.
func (r *SQLiteRepository) CreateFixture(ctx context.Context, f *Fixture) error {
	if err := f.Validate(); err != nil {
		return err
	}

	channelsJSON, err := json.Marshal(f.Channels)
	if err != nil {
		return fmt.Errorf("marshalling channels: %w", err)
	}

	now := time.Now().UTC()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now

	query := `
		INSERT INTO fixtures (id, name, manufacturer, model, channels, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		f.ID,
		f.Name,
		f.Manufacturer,
		f.Model,
		string(channelsJSON),
		f.CreatedAt.Format(time.RFC3339),
		f.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrFixtureExists
		}
		return fmt.Errorf("inserting fixture: %w", err)
	}
	return nil
}

// UpdateFixture modifies an existing fixture.
func (r *SQLiteRepository) UpdateFixture(ctx context.Context, f *Fixture) error {
	if err := f.Validate(); err != nil {
		return err
	}

	channelsJSON, err := json.Marshal(f.Channels)
	if err != nil {
		return fmt.Errorf("marshalling channels: %w", err)
	}

	f.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE fixtures SET
			name = ?, manufacturer = ?, model = ?, channels = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		f.Name,
		f.Manufacturer,
		f.Model,
		string(channelsJSON),
		f.UpdatedAt.Format(time.RFC3339),
		f.ID,
	)
	if err != nil {
		return fmt.Errorf("updating fixture: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return ErrFixtureNotFound
	}
	return nil
}

// DeleteFixture removes a fixture by ID.
func (r *SQLiteRepository) DeleteFixture(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM fixtures WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting fixture: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return ErrFixtureNotFound
	}
	return nil
}

// GetPatch retrieves a patch by ID.
func (r *SQLiteRepository) GetPatch(ctx context.Context, id string) (*Patch, error) {
	query := `
		SELECT id, fixture_id, label, start_address, created_at
		FROM patches
		WHERE id = ?`

	p, err := scanPatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPatchNotFound
		}
		return nil, fmt.Errorf("querying patch by id: %w", err)
	}
	return p, nil
}

// ListPatches retrieves all patches ordered by start address.
func (r *SQLiteRepository) ListPatches(ctx context.Context) ([]Patch, error) {
	query := `
		SELECT id, fixture_id, label, start_address, created_at
		FROM patches
		ORDER BY start_address`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying patches: %w", err)
	}
	defer rows.Close()

	var patches []Patch
	for rows.Next() {
		p, err := scanPatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning patch: %w", err)
		}
		patches = append(patches, *p)
	}
	return patches, rows.Err()
}

// CreatePatch inserts a new patch. The fixture must exist; the patched
// address block is validated against the fixture's channel count.
func (r *SQLiteRepository) CreatePatch(ctx context.Context, p *Patch) error {
	f, err := r.GetFixture(ctx, p.FixtureID)
	if err != nil {
		return err
	}
	if err := p.Validate(f); err != nil {
		return err
	}

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO patches (id, fixture_id, label, start_address, created_at)
		VALUES (?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		p.ID,
		p.FixtureID,
		p.Label,
		p.StartAddress,
		p.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting patch: %w", err)
	}
	return nil
}

// DeletePatch removes a patch by ID.
func (r *SQLiteRepository) DeletePatch(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM patches WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting patch: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return ErrPatchNotFound
	}
	return nil
}

// scanner abstracts over sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanFixture(s scanner) (*Fixture, error) {
	var f Fixture
	var channelsJSON, createdAt, updatedAt string

	if err := s.Scan(&f.ID, &f.Name, &f.Manufacturer, &f.Model, &channelsJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(channelsJSON), &f.Channels); err != nil {
		return nil, fmt.Errorf("unmarshalling channels: %w", err)
	}

	f.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	f.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &f, nil
}

func scanPatch(s scanner) (*Patch, error) {
	var p Patch
	var createdAt string

	if err := s.Scan(&p.ID, &p.FixtureID, &p.Label, &p.StartAddress, &createdAt); err != nil {
		return nil, err
	}

	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &p, nil
}

// isUniqueConstraintError checks if an error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
