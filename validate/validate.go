// Command validate checks saved game files. Arguments are save files or data
// directories holding saved_games_<format> folders (default ../data). It checks:
//   - The file decodes with the codec its extension selects
//   - Card count matches the level's board
//   - Card ids, positions and pairs are consistent, and pairs share an image
//   - Pairs are matched together and at most two unmatched cards are face up
//   - The completed flag agrees with the board
//   - Score is a multiple of 10 and covers the matched pairs
//   - Save format tag and session id agree with the file name
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/memory-match-game/game/engine"
	"github.com/wricardo/memory-match-game/game/storage"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// codecFor picks the codec from a file extension
func codecFor(path string) (storage.Codec, error) {
	format, err := storage.ParseFormat(filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	switch format {
	case storage.FormatText:
		return storage.NewTextCodec(), nil
	case storage.FormatXML:
		return storage.NewXMLCodec(), nil
	default:
		return storage.NewJSONCodec(), nil
	}
}

// validateSave decodes a single save file and checks the game it describes
func validateSave(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	codec, err := codecFor(filePath)
	if err != nil {
		result.fail("Unsupported file: %v", err)
		return result
	}

	f, err := os.Open(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}
	defer f.Close()

	stem := strings.TrimSuffix(result.File, filepath.Ext(result.File))
	snapshot, err := codec.Decode(f, stem)
	if err != nil {
		result.fail("Cannot decode: %v", err)
		return result
	}

	validateSnapshot(&result, snapshot, codec.Format(), stem)

	// Add informational data
	if result.Valid {
		result.info("Player: %s", snapshot.DisplayPlayerName())
		result.info("Level: %d, Score: %d, Time: %s", snapshot.Level, snapshot.Score, engine.FormatElapsed(snapshot.ElapsedTime))
		result.info("Pairs: %d/%d matched", engine.CountMatchedPairs(snapshot.Cards), len(snapshot.Cards)/2)
		result.info("Moves: %d", len(snapshot.MoveHistory))
		result.info("Theme: %s", snapshot.ThemeName)
	}

	return result
}

// validateSnapshot checks the board and bookkeeping of a decoded save
func validateSnapshot(result *ValidationResult, s *engine.Snapshot, format storage.Format, stem string) {
	if !engine.IsValidLevel(s.Level) {
		result.fail("Level must be between %d and %d, got %d", engine.MinLevel, engine.MaxLevel, s.Level)
	} else if want := engine.PairCountForLevel(s.Level) * 2; len(s.Cards) != want {
		result.fail("Level %d needs %d cards, got %d", s.Level, want, len(s.Cards))
	}

	if err := engine.ValidateDeck(s.Cards); err != nil {
		result.fail("Invalid deck: %v", err)
	}

	validatePairs(result, s.Cards)

	allMatched := engine.AllMatched(s.Cards)
	if s.Completed && !allMatched {
		result.fail("Marked completed but unmatched cards remain")
	}
	if !s.Completed && allMatched && len(s.Cards) > 0 {
		result.fail("Every pair is matched but the game is not marked completed")
	}

	if s.Score < 0 {
		result.fail("Score cannot be negative, got %d", s.Score)
	} else if s.Score%engine.PointsPerLevel != 0 {
		result.fail("Score %d is not a multiple of %d", s.Score, engine.PointsPerLevel)
	}
	if engine.IsValidLevel(s.Level) {
		earned := engine.CountMatchedPairs(s.Cards) * engine.PointsForLevel(s.Level)
		if s.Score < earned {
			result.fail("Score %d is lower than the %d points the matched pairs earned", s.Score, earned)
		}
	}

	if !engine.IsValidSaveFormat(s.SaveFormat) {
		result.fail("Unknown save format tag %q", s.SaveFormat)
	} else if s.SaveFormat != string(format) {
		result.fail("Save format tag %q does not match the .%s extension", s.SaveFormat, format)
	}

	if s.SessionID != stem {
		result.fail("Session ID %q does not match the file name %q", s.SessionID, stem)
	}
}

// validatePairs checks that each pair shares an image and is matched as a unit
func validatePairs(result *ValidationResult, cards []engine.Card) {
	byPair := make(map[int][]engine.Card)
	for _, card := range cards {
		byPair[card.PairID] = append(byPair[card.PairID], card)
	}

	pairIDs := make([]int, 0, len(byPair))
	for id := range byPair {
		pairIDs = append(pairIDs, id)
	}
	sort.Ints(pairIDs)

	faceUp := 0
	for _, id := range pairIDs {
		pair := byPair[id]
		if len(pair) != 2 {
			// Reported by ValidateDeck
			continue
		}
		if pair[0].ImageID != pair[1].ImageID {
			result.fail("Pair %d shows different images (%d and %d)", id, pair[0].ImageID, pair[1].ImageID)
		}
		if pair[0].Matched != pair[1].Matched {
			result.fail("Pair %d is only half matched", id)
		}
		for _, card := range pair {
			if card.Matched && !card.Flipped {
				result.fail("Card %d is matched but face down", card.ID)
			}
			if card.Flipped && !card.Matched {
				faceUp++
			}
		}
	}

	if faceUp > 2 {
		result.fail("%d unmatched cards are face up, at most 2 allowed", faceUp)
	}
}

// collectFiles expands data directories into the save files they hold.
// Other arguments are taken as files.
func collectFiles(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		for _, format := range storage.Formats {
			matches, err := filepath.Glob(filepath.Join(path, storage.DirName(format), "*."+string(format)))
			if err != nil {
				return nil, err
			}
			files = append(files, matches...)
		}
	}
	return files, nil
}

// main validates every save named on the command line, printing a concise
// report and exiting with non-zero status if any are invalid.
func main() {
	paths := os.Args[1:]
	if len(paths) == 0 {
		paths = []string{"../data"}
	}

	files, err := collectFiles(paths)
	if err != nil {
		fmt.Printf("Error finding save files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Println("No save files found")
		return
	}

	allValid := true
	for _, file := range files {
		result := validateSave(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All saved games are valid!")
	} else {
		fmt.Println("❌ Some saved games have errors")
		os.Exit(1)
	}
}
