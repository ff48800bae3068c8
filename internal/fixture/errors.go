package fixture

import "errors"

// Domain errors for the fixture package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, fixture.ErrFixtureNotFound) {
//	    // handle not found case
//	}
var (
	// ErrFixtureNotFound is returned when a fixture ID does not exist.
	ErrFixtureNotFound = errors.New("fixture: not found")

	// ErrFixtureExists is returned when creating a fixture with an ID that already exists.
	ErrFixtureExists = errors.New("fixture: already exists")

	// ErrInvalidFixture is returned when fixture validation fails.
	ErrInvalidFixture = errors.New("fixture: invalid")

	// ErrPatchNotFound is returned when a patch ID does not exist.
	ErrPatchNotFound = errors.New("fixture: patch not found")

	// ErrInvalidPatch is returned when patch validation fails.
	ErrInvalidPatch = errors.New("fixture: invalid patch")
)
