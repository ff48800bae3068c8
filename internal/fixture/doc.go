// Package fixture manages lighting fixture definitions and their DMX
// address patches.
//
// A Fixture is an ordered list of channel roles (dimmer, red, pan, ...).
// A Patch binds a fixture to a contiguous start address in the universe.
// The Registry caches the resolved PatchedFixture lookup in memory so the
// playback hot path never queries the database.
package fixture
