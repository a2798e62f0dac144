// Package service provides the business logic layer for the memory game.
//
// The service package implements:
//   - Multi-session game management
//   - Preference profiles applied to new games
//   - Card selection with a rejection reason for ignored input
//   - Saving, loading and converting games in txt, xml and json
//   - Move history pagination
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles live session creation, replacement and persistence.
// SaveCatalog enumerates and manages save files across every format.
// PreferencesManager loads and stores player preference profiles.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Each session owns its own engine instance. Restart and
// NextLevel build a new engine and swap it into the session manager, so the
// session ID changes to the new game's ID.
//
// Usage:
//
//	registry, _ := storage.NewRegistry("data", "exports")
//	sessionMgr := session.NewManagerWithPersistence(registry)
//	prefsMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, catalog.New(registry), prefsMgr)
//
//	// Create a new session from the default profile
//	info, err := gameService.CreateSession(ctx, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Flip two cards; the pair settles after the engine's settle delay
//	gameService.SelectCard(ctx, info.ID, 0)
//	gameService.SelectCard(ctx, info.ID, 5)
//
//	// Save in the game's own format
//	saved, err := gameService.SaveGame(ctx, info.ID, "")
//
// Loading:
//
// LoadGame restores a save file as a live session under the save's session
// ID, replacing any live session with that ID. With fallback set, a file that
// cannot be read starts a fresh level 1 game and reports a Notice instead of
// failing.
package service
