// Package api provides the HTTP REST API and WebSocket server for the
// lighting controller.
//
// It exposes playback control, direct channel access, and the show
// library (fixtures, patches, songs, sequences, playlists) to front-end
// clients, and streams playback status and live channel values over
// WebSocket.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
