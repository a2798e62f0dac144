// Package catalog lists saved games across every save format.
package catalog

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/wricardo/memory-match-game/game/engine"
	"github.com/wricardo/memory-match-game/game/storage"
)

// SavedGameRecord describes one save file. Snapshot is nil when the file
// could not be loaded, and Err says why.
type SavedGameRecord struct {
	FileName string           `json:"file_name"`
	Format   storage.Format   `json:"format"`
	Snapshot *engine.Snapshot `json:"snapshot,omitempty"`
	Err      error            `json:"-"`
}

// Readable reports whether the snapshot loaded
func (r SavedGameRecord) Readable() bool {
	return r.Snapshot != nil
}

// DisplayName is the one line label used in save lists
func (r SavedGameRecord) DisplayName() string {
	if r.Snapshot == nil {
		return r.FileName
	}
	return fmt.Sprintf("%s - Level %d - Score %d - %s [.%s]",
		r.Snapshot.DisplayPlayerName(),
		r.Snapshot.Level,
		r.Snapshot.Score,
		r.Snapshot.SaveTimestamp.Format(storage.TimestampLayout),
		r.Format)
}

// Summary is the multi line description used in detail views
func (r SavedGameRecord) Summary() string {
	if r.Snapshot == nil {
		return "Could not load saved game"
	}

	s := r.Snapshot
	var b strings.Builder
	fmt.Fprintf(&b, "Player: %s\n", s.DisplayPlayerName())
	fmt.Fprintf(&b, "Level: %d\n", s.Level)
	fmt.Fprintf(&b, "Score: %d\n", s.Score)
	fmt.Fprintf(&b, "Time: %s\n", engine.FormatElapsed(s.ElapsedTime))
	fmt.Fprintf(&b, "Pairs: %d/%d\n", engine.CountMatchedPairs(s.Cards), len(s.Cards)/2)
	fmt.Fprintf(&b, "Completed: %t\n", s.Completed)
	fmt.Fprintf(&b, "Date: %s\n", s.SaveTimestamp.Format(storage.TimestampLayout))
	fmt.Fprintf(&b, "Format: %s", strings.ToUpper(string(r.Format)))
	return b.String()
}

// Catalog enumerates saves through a storage registry
type Catalog struct {
	registry *storage.Registry
}

// New creates a catalog over registry
func New(registry *storage.Registry) *Catalog {
	return &Catalog{registry: registry}
}

// ListAll loads every save of every format. A file that fails to load is
// still listed with a nil snapshot, and a format whose directory cannot be
// read is skipped with a warning. Records are ordered newest first, with
// unreadable files last.
func (c *Catalog) ListAll() []SavedGameRecord {
	records := []SavedGameRecord{}

	for _, format := range c.registry.Formats() {
		names, err := c.registry.List(format)
		if err != nil {
			log.Printf("Warning: failed to list %s saves: %v", format, err)
			continue
		}

		for _, name := range names {
			record := SavedGameRecord{FileName: name, Format: format}
			snapshot, err := c.registry.Load(name)
			if err != nil {
				log.Printf("Warning: failed to load saved game %s: %v", name, err)
				record.Err = err
			} else {
				record.Snapshot = snapshot
			}
			records = append(records, record)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].Snapshot, records[j].Snapshot
		switch {
		case a == nil || b == nil:
			return a != nil && b == nil
		case !a.SaveTimestamp.Equal(b.SaveTimestamp):
			return a.SaveTimestamp.After(b.SaveTimestamp)
		default:
			return records[i].FileName < records[j].FileName
		}
	})
	return records
}

// Get returns the record for a single file
func (c *Catalog) Get(fileName string) (SavedGameRecord, error) {
	store, err := c.registry.StoreFor(fileName)
	if err != nil {
		return SavedGameRecord{}, err
	}
	if !store.Exists(fileName) {
		return SavedGameRecord{}, fmt.Errorf("%w: %s", storage.ErrNotFound, fileName)
	}

	record := SavedGameRecord{FileName: fileName, Format: store.Format()}
	snapshot, err := store.Load(fileName)
	if err != nil {
		record.Err = err
	} else {
		record.Snapshot = snapshot
	}
	return record, nil
}

// Load returns the snapshot stored in a file
func (c *Catalog) Load(fileName string) (*engine.Snapshot, error) {
	return c.registry.Load(fileName)
}

// Delete removes a save. A missing file is (false, nil); an unsupported
// extension or an I/O failure is returned as the error.
func (c *Catalog) Delete(fileName string) (bool, error) {
	deleted, err := c.registry.Delete(fileName)
	if err != nil {
		if !errors.Is(err, storage.ErrUnsupportedFormat) {
			log.Printf("Error deleting saved game %s: %v", fileName, err)
		}
		return false, err
	}
	return deleted, nil
}

// ReadRaw returns a save's contents as stored
func (c *Catalog) ReadRaw(fileName string) (string, error) {
	return c.registry.ReadRaw(fileName)
}

// Export copies a save to the export directory
func (c *Catalog) Export(fileName string) (string, error) {
	return c.registry.Export(fileName)
}

// Convert rewrites a save in another format and returns the new path
func (c *Catalog) Convert(fileName string, format storage.Format) (string, error) {
	return c.registry.Convert(fileName, format)
}
