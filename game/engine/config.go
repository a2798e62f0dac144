package engine

import (
	"fmt"
	"log"
	"strings"
)

// levelEdges maps a difficulty level to its grid edge size
var levelEdges = map[int]int{
	1: 4,
	2: 5,
	3: 6,
}

// EdgeForLevel returns the grid edge size for a level.
// Unknown levels fall back to DefaultEdgeSize.
func EdgeForLevel(level int) int {
	if edge, ok := levelEdges[level]; ok {
		return edge
	}
	log.Printf("Warning: unknown level %d, using %dx%d grid", level, DefaultEdgeSize, DefaultEdgeSize)
	return DefaultEdgeSize
}

// PairCountForLevel returns how many pairs a deck holds for a level.
// Odd grids drop the leftover cell, so level 2 has 12 pairs on a 5x5 grid.
func PairCountForLevel(level int) int {
	edge := EdgeForLevel(level)
	return (edge * edge) / 2
}

// PointsForLevel returns the points awarded for one match at a level
func PointsForLevel(level int) int {
	return PointsPerLevel * level
}

// IsValidLevel reports whether level is within MinLevel..MaxLevel
func IsValidLevel(level int) bool {
	return level >= MinLevel && level <= MaxLevel
}

// IsValidSaveFormat reports whether format is a known save format tag
func IsValidSaveFormat(format string) bool {
	for _, f := range SaveFormats {
		if f == format {
			return true
		}
	}
	return false
}

// ValidateGameConfig validates a game configuration
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is required")
	}
	if !IsValidLevel(config.Level) {
		return fmt.Errorf("config validation: level must be between %d and %d, got %d", MinLevel, MaxLevel, config.Level)
	}
	if config.StartingScore < 0 {
		return fmt.Errorf("config validation: starting_score must not be negative, got %d", config.StartingScore)
	}
	if config.SaveFormat != "" && !IsValidSaveFormat(config.SaveFormat) {
		return fmt.Errorf("config validation: save_format must be one of %s, got %q",
			strings.Join(SaveFormats, ", "), config.SaveFormat)
	}
	if strings.ContainsAny(config.SessionID, `/\`) {
		return fmt.Errorf("config validation: session_id must not contain path separators")
	}
	return nil
}

// NormalizeGameConfig returns a copy of config with defaults filled in.
// An out of range level is recovered to MinLevel.
func NormalizeGameConfig(config *GameConfig) *GameConfig {
	normalized := GameConfig{
		Level:        MinLevel,
		SoundEnabled: true,
		ThemeName:    DefaultThemeName,
		SaveFormat:   DefaultSaveFormat,
	}
	if config == nil {
		return &normalized
	}

	normalized = *config
	if !IsValidLevel(normalized.Level) {
		log.Printf("Warning: level %d out of range, starting at level %d", normalized.Level, MinLevel)
		normalized.Level = MinLevel
	}
	if normalized.StartingScore < 0 {
		normalized.StartingScore = 0
	}
	if normalized.ThemeName == "" {
		normalized.ThemeName = DefaultThemeName
	}
	if !IsValidSaveFormat(normalized.SaveFormat) {
		normalized.SaveFormat = DefaultSaveFormat
	}
	return &normalized
}

// ValidateDeck checks the pair and position invariants of a card sequence
func ValidateDeck(cards []Card) error {
	if len(cards)%2 != 0 {
		return fmt.Errorf("deck validation: card count must be even, got %d", len(cards))
	}

	pairs := make(map[int]int)
	ids := make(map[int]bool)
	positions := make([]bool, len(cards))
	for _, card := range cards {
		if ids[card.ID] {
			return fmt.Errorf("deck validation: duplicate card id %d", card.ID)
		}
		ids[card.ID] = true

		if card.Position < 0 || card.Position >= len(cards) || positions[card.Position] {
			return fmt.Errorf("deck validation: position %d is out of range or repeated", card.Position)
		}
		positions[card.Position] = true
		pairs[card.PairID]++
	}

	for pairID, count := range pairs {
		if count != 2 {
			return fmt.Errorf("deck validation: pair %d appears %d times, expected 2", pairID, count)
		}
	}
	return nil
}
