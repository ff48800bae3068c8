// Package audio provides the playback transport the sequence scheduler
// runs against.
//
// The Transport is a thin real-time clock over an Output backend: it
// tracks start and pause timestamps and accumulated pause time so that
// Position() stays accurate across pause, resume, and seek without
// consulting the device. The default backend decodes mp3 and wav files
// through the beep speaker.
package audio
