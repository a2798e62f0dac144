package engine

import (
	"strings"
	"testing"
)

func TestEdgeForLevel(t *testing.T) {
	tests := []struct {
		level int
		edge  int
		pairs int
	}{
		{1, 4, 8},
		{2, 5, 12},
		{3, 6, 18},
		{0, 4, 8},
		{9, 4, 8},
	}

	for _, test := range tests {
		if got := EdgeForLevel(test.level); got != test.edge {
			t.Errorf("EdgeForLevel(%d): expected %d, got %d", test.level, test.edge, got)
		}
		if got := PairCountForLevel(test.level); got != test.pairs {
			t.Errorf("PairCountForLevel(%d): expected %d, got %d", test.level, test.pairs, got)
		}
	}
}

func TestPointsForLevel(t *testing.T) {
	for level := MinLevel; level <= MaxLevel; level++ {
		if got := PointsForLevel(level); got != 10*level {
			t.Errorf("PointsForLevel(%d): expected %d, got %d", level, 10*level, got)
		}
	}
}

func TestValidateGameConfig_ValidConfig(t *testing.T) {
	if err := ValidateGameConfig(createTestConfig()); err != nil {
		t.Errorf("Expected valid config, got error: %v", err)
	}
}

func TestValidateGameConfig_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*GameConfig)
		errMsg string
	}{
		{"level too low", func(c *GameConfig) { c.Level = 0 }, "level must be between"},
		{"level too high", func(c *GameConfig) { c.Level = 4 }, "level must be between"},
		{"negative score", func(c *GameConfig) { c.StartingScore = -5 }, "starting_score"},
		{"unknown format", func(c *GameConfig) { c.SaveFormat = "yaml" }, "save_format"},
		{"path in session", func(c *GameConfig) { c.SessionID = `a\b` }, "session_id"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := createTestConfig()
			test.modify(config)

			err := ValidateGameConfig(config)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), test.errMsg) {
				t.Errorf("Expected error containing %q, got %v", test.errMsg, err)
			}
		})
	}

	if err := ValidateGameConfig(nil); err == nil {
		t.Error("Expected error for nil config")
	}
}

func TestNormalizeGameConfig(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		config := NormalizeGameConfig(nil)
		if config.Level != MinLevel || !config.SoundEnabled {
			t.Errorf("Unexpected defaults: %+v", config)
		}
	})

	t.Run("fills blanks and recovers level", func(t *testing.T) {
		input := &GameConfig{Level: 12, StartingScore: -3, SaveFormat: "yaml"}
		config := NormalizeGameConfig(input)

		if config.Level != MinLevel {
			t.Errorf("Expected level %d, got %d", MinLevel, config.Level)
		}
		if config.StartingScore != 0 {
			t.Errorf("Expected score 0, got %d", config.StartingScore)
		}
		if config.ThemeName != DefaultThemeName || config.SaveFormat != DefaultSaveFormat {
			t.Errorf("Expected default theme and format, got %q and %q", config.ThemeName, config.SaveFormat)
		}
		if input.Level != 12 {
			t.Error("Normalize must not modify its input")
		}
	})
}

func TestValidateDeck(t *testing.T) {
	t.Run("generated decks are valid", func(t *testing.T) {
		for level := MinLevel; level <= MaxLevel; level++ {
			if err := ValidateDeck(BuildDeck(level, nil)); err != nil {
				t.Errorf("Level %d deck invalid: %v", level, err)
			}
		}
	})

	tests := []struct {
		name   string
		modify func([]Card) []Card
	}{
		{"odd count", func(c []Card) []Card { return c[:len(c)-1] }},
		{"duplicate id", func(c []Card) []Card { c[1].ID = c[0].ID; return c }},
		{"repeated position", func(c []Card) []Card { c[1].Position = c[0].Position; return c }},
		{"position out of range", func(c []Card) []Card { c[0].Position = len(c); return c }},
		{"pair appears three times", func(c []Card) []Card {
			c[0].PairID, c[1].PairID, c[2].PairID, c[3].PairID = 1, 1, 1, 2
			return c
		}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cards := test.modify(BuildDeck(1, nil))
			if err := ValidateDeck(cards); err == nil {
				t.Error("Expected deck validation error")
			}
		})
	}
}
