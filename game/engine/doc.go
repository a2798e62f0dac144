// Package engine provides the core game logic for the Memory Match Game.
//
// The engine package implements the game mechanics including:
//   - Deck generation and shuffling per difficulty level
//   - The turn state machine (first card, second card, resolving, completed)
//   - Scoring, move history and level completion
//   - Pause and resume with elapsed time accounting
//   - Snapshots for persistence and restoring games from them
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. Card is a single tile, Snapshot is the
// serializable state of a session and GameState is the live view handed to
// transports.
//
// Usage:
//
//	game, err := engine.NewEngine(&engine.GameConfig{PlayerName: "Ana", Level: 1})
//	if err != nil {
//		log.Fatal(err)
//	}
//	game.Start()
//
//	// Flip two cards; the outcome applies after the settle delay
//	game.Select(0)
//	game.Select(5)
//	state := game.GetState()
//
// Game Rules:
//
// Levels 1, 2 and 3 use 4x4, 5x5 and 6x6 grids. Odd grids drop the leftover
// cell, so level 2 plays 12 pairs. Each pair found is worth 10 points times
// the level. After the second card is picked both stay face up for the settle
// delay (one second by default) before a match is scored or the cards turn
// back down. Pausing while a pair is settling defers its effects until the
// game resumes. A level is complete when every card is matched.
package engine
