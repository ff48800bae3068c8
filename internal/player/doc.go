// Package player is the sequence playback scheduler: it walks a
// time-ordered list of lighting events against the audio transport's
// clock, firing each event's channel writes when its start time is
// reached and zeroing exactly the channels it touched when its duration
// elapses.
//
// The firing logic lives in a session whose advance method is a pure
// function of elapsed time; the Player supplies real audio positions on a
// 10 ms tick and handles start/pause/resume/seek/stop around it. One
// session is live at a time, and stopping always clears lit channels so
// nothing is left stuck on.
package player
