// Package database provides SQLite connection management and schema
// migrations for LumaCue Core.
//
// The database holds fixture definitions, the patch table, songs,
// sequences, playlists, and persisted settings. SQLite is used with WAL
// mode and a single connection because the controller is a single-writer
// system.
//
// Migrations are embedded SQL files applied in version order, each in its
// own transaction, tracked in a schema_migrations table.
package database
