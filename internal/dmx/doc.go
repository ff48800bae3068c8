// Package dmx implements the DMX512 output side of LumaCue Core: the
// 512-channel universe register and the fixed-rate serial frame transmitter.
//
// A DMX512 frame on the wire is a BREAK (line held low for at least 88 us),
// a short Mark-After-Break, then 513 bytes at 250 kbit/s 8N2: the 0x00
// start code followed by all 512 channel values. Standard UARTs cannot
// generate the BREAK directly, so the transmitter synthesises it by writing
// a zero byte at a reduced baud rate before switching back to 250 kbit/s.
//
// The transmit loop is deliberately independent of whatever writes channel
// values: it snapshots the Universe on every tick and emits a frame at
// ~44 Hz whether or not anything changed.
package dmx
