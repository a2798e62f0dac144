// Package mcp provides a Model Context Protocol server for the memory match game.
//
// The mcp package implements:
//   - MCP server for AI agent integration
//   - Tool definitions for game operations
//   - A thin proxy that forwards every tool call to the REST API
//
// MCP Tools:
//
// The package exposes the following tools for AI agents:
//   - create_session, list_sessions, get_session: session management
//   - game_state: board rendered as text ([##] face down, [NN] image, [  ] matched)
//   - select_card: flip the card at a position
//   - pause_game, resume_game: stop and restart the clock
//   - restart_game, next_level: replace the session with a fresh game
//   - move_history: paginated move log
//   - save_game, list_saves, load_game, delete_save, convert_save: saved games
//   - get_preferences: default player preferences
//   - game_instructions: rules and strategy
//
// Transport Modes:
//
// The server supports two transport modes:
//   - Stdio: Direct stdio communication for local MCP clients
//   - HTTP: the /mcp endpoint mounted by the serve command
//
// The settle delay applies to MCP players too. select_card reports how long
// the pending pair takes to resolve; agents call game_state afterwards to see
// the outcome.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
