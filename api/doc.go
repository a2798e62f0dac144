// Package api provides HTTP REST API handlers for the memory match game.
//
// The api package implements:
//   - Session management endpoints
//   - Card selection, pause and level progression
//   - Save, load and saved game catalog endpoints
//   - Preference profile endpoints
//   - WebSocket upgrade handling
//   - Static file serving
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create new session ({"profile", "player_name", "level"})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get specific session
//   - DELETE /api/sessions/{id} - Delete session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current game state
//   - POST /api/sessions/{id}/select - Flip a card ({"position": N})
//   - POST /api/sessions/{id}/pause - Pause the clock and input
//   - POST /api/sessions/{id}/resume - Resume a paused game
//   - POST /api/sessions/{id}/restart - Start the level again
//   - POST /api/sessions/{id}/next-level - Advance after completing a level
//   - GET /api/sessions/{id}/history - Move history (?page=N&limit=N&order=asc|desc)
//   - POST /api/sessions/{id}/save - Save the game ({"format": "txt|xml|json"}, optional)
//
// Saved Games:
//   - GET /api/saves - Catalog of saved games, unreadable files included
//   - POST /api/saves/load - Resume a save ({"file_name", "fallback"})
//   - GET /api/saves/{file} - Catalog entry for one save
//   - GET /api/saves/{file}/raw - The file as stored, as text/plain
//   - POST /api/saves/{file}/export - Copy the file to the export directory
//   - POST /api/saves/{file}/convert - Rewrite the save in another format
//   - DELETE /api/saves/{file} - Delete a save
//
// Preferences:
//   - GET /api/preferences - Default profile
//   - PUT /api/preferences - Update the default profile
//   - GET /api/profiles - All stored profiles
//
// A card selection that the game ignores (paused, settling, out of range,
// already face up) is not an HTTP error. The response carries
// "accepted": false and a message.
//
// Restart and next level replace the session with a new ID. The response
// includes "previous_session_id" and WebSocket watchers of the old ID are
// moved to the new one.
//
// Usage:
//
//	server := api.NewServer(gameService, hub)
//	http.ListenAndServe(":8080", server)
//
// Error Handling:
//
// Errors are returned as JSON with a status code derived from the error:
//
//	{"error": "error message"}
//
// Missing sessions and save files map to 404, bad names and formats to 400,
// corrupt save files to 422 and out-of-order level changes to 409.
package api
