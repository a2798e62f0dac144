// Package session provides live session management for the memory game.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Session lifecycle management (start, replace, close)
//   - Saving and restoring sessions through a SessionPersistence
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// Each service.Session wraps its own engine instance together with creation
// and last access times.
//
// Session Identifiers:
//
// A session's ID is its engine's session ID ("game_" followed by a UUID),
// which is also the stem of its save files. Lookups are case-insensitive.
// Restarting a game or advancing a level produces a new engine and therefore
// a new ID; Replace swaps it in and closes the old engine.
//
// Persistence:
//
// storage.Registry satisfies SessionPersistence. Save writes a snapshot in
// the requested format; Load restores a save file as a started session,
// closing any live session with the same ID. SaveAllSessions pauses and saves
// every unfinished game in its own save format and is called on shutdown.
//
// Usage:
//
//	registry, _ := storage.NewRegistry("data", "exports")
//	manager := session.NewManagerWithPersistence(registry)
//
//	sess, err := manager.Create(&engine.GameConfig{PlayerName: "Ana", Level: 1})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	path, err := manager.Save(sess.ID, storage.FormatXML)
//	restored, err := manager.Load(filepath.Base(path))
package session
