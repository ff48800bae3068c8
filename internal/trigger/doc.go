// Package trigger advances playlists from a physical push button.
//
// A GPIO input is polled through a small state machine: a detected press
// is re-sampled after a debounce interval, a confirmed press fires at
// most one trigger, and the line must release before the machine re-arms.
// Each trigger picks the next sequence from the active playlists through
// a Cursor (fixed order for cycle playlists, one-per-pass permutations
// for shuffle playlists) and hands it to the playback starter. A cooldown
// window and a non-blocking trigger lock drop rapid or overlapping
// presses instead of queueing them.
package trigger
