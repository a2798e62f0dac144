package session

import (
	"github.com/wricardo/memory-match-game/game/engine"
	"github.com/wricardo/memory-match-game/game/storage"
)

// SessionPersistence defines the interface for persisting game snapshots.
// storage.Registry implements it.
type SessionPersistence interface {
	// Save writes a snapshot in a format and returns the file path
	Save(snapshot *engine.Snapshot, format storage.Format) (string, error)

	// Load reads a snapshot by file name; the extension picks the format
	Load(fileName string) (*engine.Snapshot, error)

	// Delete removes a save file, reporting false if it did not exist
	Delete(fileName string) (bool, error)
}
