package fixture

import (
	"time"

	"github.com/lumacue/lumacue-core/internal/dmx"
)

// ChannelRole is the semantic meaning of one DMX address within a fixture:
// its position in the fixture's channel list determines the address offset.
type ChannelRole string

// Channel roles supported by the event resolver.
const (
	RoleDimmer ChannelRole = "dimmer"
	RoleRed    ChannelRole = "red"
	RoleGreen  ChannelRole = "green"
	RoleBlue   ChannelRole = "blue"
	RoleWhite  ChannelRole = "white"
	RolePan    ChannelRole = "pan"
	RoleTilt   ChannelRole = "tilt"
)

// knownRoles is the set of roles accepted by fixture validation.
var knownRoles = map[ChannelRole]bool{
	RoleDimmer: true,
	RoleRed:    true,
	RoleGreen:  true,
	RoleBlue:   true,
	RoleWhite:  true,
	RolePan:    true,
	RoleTilt:   true,
}

// Fixture describes a lighting device model: an ordered list of channel
// roles, one per DMX address the device occupies.
type Fixture struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Manufacturer string        `json:"manufacturer,omitempty"`
	Model        string        `json:"model,omitempty"`
	Channels     []ChannelRole `json:"channels"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Validate checks the fixture definition for errors.
func (f *Fixture) Validate() error {
	if f.Name == "" {
		return ErrInvalidFixture
	}
	if len(f.Channels) == 0 || len(f.Channels) > dmx.NumChannels {
		return ErrInvalidFixture
	}
	for _, role := range f.Channels {
		if !knownRoles[role] {
			return ErrInvalidFixture
		}
	}
	return nil
}

// Patch assigns a fixture a contiguous block of DMX addresses starting at
// StartAddress. The patch layer guarantees patched ranges do not overlap.
type Patch struct {
	ID           string    `json:"id"`
	FixtureID    string    `json:"fixture_id"`
	Label        string    `json:"label,omitempty"`
	StartAddress int       `json:"start_address"`
	CreatedAt    time.Time `json:"created_at"`
}

// Validate checks the patch against the fixture it addresses: the whole
// channel block must fit inside the universe.
func (p *Patch) Validate(f *Fixture) error {
	if p.FixtureID == "" {
		return ErrInvalidPatch
	}
	if p.StartAddress < 1 || p.StartAddress > dmx.NumChannels {
		return ErrInvalidPatch
	}
	if f != nil && p.StartAddress+len(f.Channels)-1 > dmx.NumChannels {
		return ErrInvalidPatch
	}
	return nil
}

// PatchedFixture is the resolved combination of a fixture and its patch,
// the read-only lookup the sequence player uses to translate role-typed
// event payloads into concrete DMX addresses.
type PatchedFixture struct {
	PatchID      string        `json:"patch_id"`
	FixtureID    string        `json:"fixture_id"`
	Label        string        `json:"label,omitempty"`
	StartAddress int           `json:"start_address"`
	Channels     []ChannelRole `json:"channels"`
}

// AddressOf returns the absolute DMX address for role, or false if the
// fixture has no channel with that role. The first matching channel wins.
func (pf *PatchedFixture) AddressOf(role ChannelRole) (int, bool) {
	for i, r := range pf.Channels {
		if r == role {
			return pf.StartAddress + i, true
		}
	}
	return 0, false
}
