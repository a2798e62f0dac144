package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/memory-match-game/game/engine"
	"github.com/wricardo/memory-match-game/game/storage"
)

// validSnapshot returns a level 1 game with pair 1 found
func validSnapshot(t *testing.T, format storage.Format) *engine.Snapshot {
	t.Helper()
	eng, err := engine.NewEngine(&engine.GameConfig{PlayerName: "Ana", Level: 1, SaveFormat: string(format)})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	s := eng.Snapshot()
	for _, i := range pairIndexes(s.Cards, 1) {
		s.Cards[i].Flipped = true
		s.Cards[i].Matched = true
	}
	s.Score = 10
	s.MoveHistory = []string{"Flipped card at position 0", "Flipped card at position 1", "Pair found: 1 (+10 points)"}
	return s
}

func pairIndexes(cards []engine.Card, pairID int) []int {
	var idx []int
	for i, card := range cards {
		if card.PairID == pairID {
			idx = append(idx, i)
		}
	}
	return idx
}

// writeSave encodes a snapshot into dir/<session id>.<format>
func writeSave(t *testing.T, dir string, s *engine.Snapshot, format storage.Format) string {
	t.Helper()
	codec, err := codecFor("x." + string(format))
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, s.SessionID+"."+string(format))
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create save: %v", err)
	}
	defer f.Close()

	if err := codec.Encode(f, s); err != nil {
		t.Fatalf("Failed to encode save: %v", err)
	}
	return path
}

func TestValidateSave_ValidSave(t *testing.T) {
	for _, format := range storage.Formats {
		t.Run(string(format), func(t *testing.T) {
			dir := t.TempDir()
			s := validSnapshot(t, format)
			path := writeSave(t, dir, s, format)

			result := validateSave(path)
			if !result.Valid {
				t.Fatalf("Expected valid save, but got errors: %v", result.Errors)
			}
			if result.File != filepath.Base(path) {
				t.Errorf("Expected file name %s, got %s", filepath.Base(path), result.File)
			}

			joined := strings.Join(result.Errors, "\n")
			for _, want := range []string{"✓ Player: Ana", "✓ Pairs: 1/8 matched", "✓ Moves: 3"} {
				if !strings.Contains(joined, want) {
					t.Errorf("Expected %q in report, got:\n%s", want, joined)
				}
			}
		})
	}
}

func TestValidateSave_InvalidGames(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(s *engine.Snapshot)
		expected string
	}{
		{
			name: "half matched pair",
			mutate: func(s *engine.Snapshot) {
				s.Cards[pairIndexes(s.Cards, 2)[0]].Matched = true
				s.Cards[pairIndexes(s.Cards, 2)[0]].Flipped = true
			},
			expected: "Pair 2 is only half matched",
		},
		{
			name: "pair with different images",
			mutate: func(s *engine.Snapshot) {
				s.Cards[pairIndexes(s.Cards, 3)[0]].ImageID = 17
			},
			expected: "Pair 3 shows different images",
		},
		{
			name: "matched card face down",
			mutate: func(s *engine.Snapshot) {
				s.Cards[pairIndexes(s.Cards, 1)[0]].Flipped = false
			},
			expected: "is matched but face down",
		},
		{
			name: "too many face up cards",
			mutate: func(s *engine.Snapshot) {
				s.Cards[pairIndexes(s.Cards, 2)[0]].Flipped = true
				s.Cards[pairIndexes(s.Cards, 3)[0]].Flipped = true
				s.Cards[pairIndexes(s.Cards, 4)[0]].Flipped = true
			},
			expected: "3 unmatched cards are face up",
		},
		{
			name: "completed with cards left",
			mutate: func(s *engine.Snapshot) {
				s.Completed = true
			},
			expected: "Marked completed but unmatched cards remain",
		},
		{
			name: "all matched but not completed",
			mutate: func(s *engine.Snapshot) {
				for i := range s.Cards {
					s.Cards[i].Matched = true
					s.Cards[i].Flipped = true
				}
				s.Score = 80
			},
			expected: "not marked completed",
		},
		{
			name: "score not a multiple of ten",
			mutate: func(s *engine.Snapshot) {
				s.Score = 15
			},
			expected: "is not a multiple of 10",
		},
		{
			name: "score below matched pairs",
			mutate: func(s *engine.Snapshot) {
				s.Score = 0
			},
			expected: "lower than the 10 points",
		},
		{
			name: "level out of range",
			mutate: func(s *engine.Snapshot) {
				s.Level = 4
			},
			expected: "Level must be between 1 and 3",
		},
		{
			name: "card count does not fit level",
			mutate: func(s *engine.Snapshot) {
				s.Level = 2
			},
			expected: "Level 2 needs 24 cards, got 16",
		},
		{
			name: "format tag does not match extension",
			mutate: func(s *engine.Snapshot) {
				s.SaveFormat = "xml"
			},
			expected: `Save format tag "xml" does not match the .json extension`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSnapshot(t, storage.FormatJSON)
			tt.mutate(s)
			path := writeSave(t, t.TempDir(), s, storage.FormatJSON)

			result := validateSave(path)
			if result.Valid {
				t.Fatal("Expected invalid save")
			}

			found := false
			for _, err := range result.Errors {
				if strings.Contains(err, tt.expected) {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("Expected error containing %q, got: %v", tt.expected, result.Errors)
			}
		})
	}
}

func TestValidateSave_SessionIDMismatch(t *testing.T) {
	dir := t.TempDir()
	s := validSnapshot(t, storage.FormatText)
	path := writeSave(t, dir, s, storage.FormatText)

	renamed := filepath.Join(dir, "renamed.txt")
	if err := os.Rename(path, renamed); err != nil {
		t.Fatal(err)
	}

	result := validateSave(renamed)
	if result.Valid {
		t.Fatal("Expected invalid save")
	}
	if !strings.Contains(strings.Join(result.Errors, "\n"), `does not match the file name "renamed"`) {
		t.Errorf("Expected session ID error, got: %v", result.Errors)
	}
}

func TestValidateSave_UnreadableFiles(t *testing.T) {
	dir := t.TempDir()

	corrupt := filepath.Join(dir, "corrupt.json")
	if err := os.WriteFile(corrupt, []byte(`{"gameInfo": {`), 0644); err != nil {
		t.Fatal(err)
	}
	unsupported := filepath.Join(dir, "game.yaml")
	if err := os.WriteFile(unsupported, []byte("level: 1"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path     string
		expected string
	}{
		{corrupt, "Cannot decode"},
		{unsupported, "Unsupported file"},
		{filepath.Join(dir, "missing.xml"), "Failed to read file"},
	}

	for _, tt := range tests {
		t.Run(filepath.Base(tt.path), func(t *testing.T) {
			result := validateSave(tt.path)
			if result.Valid {
				t.Fatal("Expected invalid result")
			}
			if len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], tt.expected) {
				t.Errorf("Expected %q, got: %v", tt.expected, result.Errors)
			}
		})
	}
}

func TestCollectFiles(t *testing.T) {
	dataDir := t.TempDir()
	for _, format := range []storage.Format{storage.FormatJSON, storage.FormatText} {
		dir := filepath.Join(dataDir, storage.DirName(format))
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		writeSave(t, dir, validSnapshot(t, format), format)
	}

	// Files with other extensions in a format directory are ignored
	stray := filepath.Join(dataDir, storage.DirName(storage.FormatJSON), "notes.txt")
	if err := os.WriteFile(stray, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	single := writeSave(t, t.TempDir(), validSnapshot(t, storage.FormatXML), storage.FormatXML)

	files, err := collectFiles([]string{dataDir, single})
	if err != nil {
		t.Fatalf("collectFiles failed: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("Expected 3 files, got %d: %v", len(files), files)
	}

	if _, err := collectFiles([]string{filepath.Join(dataDir, "nope")}); err == nil {
		t.Error("Expected error for a missing path")
	}
}
