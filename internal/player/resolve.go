package player

import (
	"math"

	"github.com/lumacue/lumacue-core/internal/fixture"
	"github.com/lumacue/lumacue-core/internal/show"
)

// resolveEvent translates a role-typed event payload into concrete DMX
// address-value pairs for the patched fixture pf.
//
// Role mapping:
//
//	dimmer   -> dimmer channel, value scaled 0-100 to 0-255
//	color    -> red/green/blue/white channels from {r,g,b,w}
//	position -> pan/tilt channels from {pan,tilt}
//
// Roles the fixture does not have are skipped, so a color event against an
// RGB-only fixture simply drops the white component. Returns nil when the
// event resolves to no addresses at all.
func resolveEvent(e *show.Event, pf fixture.PatchedFixture) map[int]int {
	targets := make(map[int]int, 4)

	switch e.Kind {
	case show.KindDimmer:
		if addr, ok := pf.AddressOf(fixture.RoleDimmer); ok {
			targets[addr] = scaleDimmer(e.Value)
		}

	case show.KindColor:
		var c show.Color
		if e.Color != nil {
			c = *e.Color
		}
		for _, rc := range []struct {
			role  fixture.ChannelRole
			value int
		}{
			{fixture.RoleRed, c.R},
			{fixture.RoleGreen, c.G},
			{fixture.RoleBlue, c.B},
			{fixture.RoleWhite, c.W},
		} {
			if addr, ok := pf.AddressOf(rc.role); ok {
				targets[addr] = rc.value
			}
		}

	case show.KindPosition:
		var p show.Position
		if e.Position != nil {
			p = *e.Position
		}
		if addr, ok := pf.AddressOf(fixture.RolePan); ok {
			targets[addr] = p.Pan
		}
		if addr, ok := pf.AddressOf(fixture.RoleTilt); ok {
			targets[addr] = p.Tilt
		}
	}

	if len(targets) == 0 {
		return nil
	}
	return targets
}

// scaleDimmer maps a 0-100 dimmer level onto 0-255.
func scaleDimmer(value float64) int {
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	return int(math.Round(value * 255 / 100))
}
