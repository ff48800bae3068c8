// Package show holds the show data model: songs, timed lighting event
// sequences, and trigger-advanced playlists, with SQLite persistence.
//
// The playback side of the system treats everything here as read-only
// snapshots; mutation happens only through the Repository.
package show
