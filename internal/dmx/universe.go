package dmx

import "sync"

const (
	// NumChannels is the number of channels in a DMX512 universe.
	NumChannels = 512

	// StartCode is the null start code preceding dimmer data in every frame.
	StartCode = 0x00
)

// Universe holds the current value of every channel in a single DMX512
// universe. It is written by sequence playback and the live-preview API and
// read by the transmitter on every frame tick.
//
// All methods are safe for concurrent use. Writes are defensively clamped
// rather than rejected: out-of-range addresses are ignored on Set and read
// as 0, and values are clamped to [0,255].
type Universe struct {
	mu       sync.RWMutex
	channels [NumChannels]byte
}

// NewUniverse returns a Universe with all channels at 0.
func NewUniverse() *Universe {
	return &Universe{}
}

// Set writes value to the channel at address (1-based, [1,512]).
// Out-of-range addresses are no-ops. Values are clamped to [0,255].
func (u *Universe) Set(address, value int) {
	if address < 1 || address > NumChannels {
		return
	}

	u.mu.Lock()
	u.channels[address-1] = clampValue(value)
	u.mu.Unlock()
}

// Get returns the current value of the channel at address,
// or 0 for out-of-range addresses.
func (u *Universe) Get(address int) int {
	if address < 1 || address > NumChannels {
		return 0
	}

	u.mu.RLock()
	v := u.channels[address-1]
	u.mu.RUnlock()
	return int(v)
}

// SetMany applies a batch of address-value pairs under a single lock
// acquisition, so the transmitter never observes a partially applied batch.
// Out-of-range addresses within the batch are skipped.
func (u *Universe) SetMany(values map[int]int) {
	u.mu.Lock()
	for address, value := range values {
		if address < 1 || address > NumChannels {
			continue
		}
		u.channels[address-1] = clampValue(value)
	}
	u.mu.Unlock()
}

// ClearAll zeroes every channel in one atomic step (blackout).
func (u *Universe) ClearAll() {
	u.mu.Lock()
	u.channels = [NumChannels]byte{}
	u.mu.Unlock()
}

// Snapshot returns a copy of all 512 channel values, taken under the lock.
// The transmitter calls this once per frame tick.
func (u *Universe) Snapshot() [NumChannels]byte {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.channels
}

func clampValue(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
