package fixture

import (
	"context"
	"fmt"
	"sync"
)

// Registry is an in-memory cache of patched fixtures keyed by fixture ID.
//
// The sequence player resolves every fired event against this lookup, so
// it must not touch the database on the hot path. Reload rebuilds the
// cache from the repository; callers reload after any fixture or patch
// mutation.
//
// One patch per fixture is assumed. If the database holds more than one,
// the lowest start address wins.
type Registry struct {
	repo Repository

	mu      sync.RWMutex
	patched map[string]PatchedFixture
}

// NewRegistry creates a registry over repo. Call Reload before first use.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:    repo,
		patched: make(map[string]PatchedFixture),
	}
}

// Reload rebuilds the cache from the repository.
func (r *Registry) Reload(ctx context.Context) error {
	fixtures, err := r.repo.ListFixtures(ctx)
	if err != nil {
		return fmt.Errorf("loading fixtures: %w", err)
	}

	patches, err := r.repo.ListPatches(ctx)
	if err != nil {
		return fmt.Errorf("loading patches: %w", err)
	}

	byID := make(map[string]Fixture, len(fixtures))
	for _, f := range fixtures {
		byID[f.ID] = f
	}

	patched := make(map[string]PatchedFixture, len(patches))
	for _, p := range patches {
		f, ok := byID[p.FixtureID]
		if !ok {
			continue
		}
		if _, exists := patched[p.FixtureID]; exists {
			// ListPatches orders by start address, so the first wins.
			continue
		}
		patched[p.FixtureID] = PatchedFixture{
			PatchID:      p.ID,
			FixtureID:    p.FixtureID,
			Label:        p.Label,
			StartAddress: p.StartAddress,
			Channels:     append([]ChannelRole(nil), f.Channels...),
		}
	}

	r.mu.Lock()
	r.patched = patched
	r.mu.Unlock()
	return nil
}

// Lookup returns the patched fixture for fixtureID, or false if the
// fixture is not patched.
func (r *Registry) Lookup(fixtureID string) (PatchedFixture, bool) {
	r.mu.RLock()
	pf, ok := r.patched[fixtureID]
	r.mu.RUnlock()
	return pf, ok
}

// Snapshot returns a copy of the whole lookup table. The sequence player
// takes one snapshot per playback session so mid-playback repatching
// cannot shift addresses under a running sequence.
func (r *Registry) Snapshot() map[string]PatchedFixture {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]PatchedFixture, len(r.patched))
	for id, pf := range r.patched {
		out[id] = pf
	}
	return out
}

// Count returns the number of patched fixtures in the cache.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.patched)
}
