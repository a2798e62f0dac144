// Package storage persists game snapshots as save files.
//
// Three codecs encode the same snapshot fields:
//   - Text: line oriented [GAME_INFO], [CARDS] and [MOVE_HISTORY] sections
//   - XML: a gameState document with gameInfo, cards and moveHistory children
//   - JSON: an object with gameInfo, cards and moveHistory members
//
// Each codec is wrapped by a FileStore that owns its own directory
// (saved_games_txt, saved_games_xml, saved_games_json) and names files
// <sessionId>.<ext>, so one session may exist in all three formats at once.
//
// A Registry maps format tags to stores and routes file names by their
// extension. It is built once at startup and handed to the layers that need
// persistence:
//
//	registry, err := storage.NewRegistry("./data", "./exports")
//	if err != nil {
//		log.Fatal(err)
//	}
//	path, err := registry.Save(game.Snapshot(), storage.FormatXML)
//	snapshot, err := registry.Load(filepath.Base(path))
//
// Errors are reported with the sentinels ErrParse, ErrIO, ErrNotFound,
// ErrInvalidName and ErrUnsupportedFormat so callers can fall back to a fresh
// game with errors.Is.
//
// Elapsed time is stored in whole milliseconds and timestamps use the local
// TimestampLayout with second precision. Snapshots holding finer values lose
// that precision on save.
package storage
