package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/wricardo/memory-match-game/game/engine"
)

type jsonGameState struct {
	GameInfo    json.RawMessage `json:"gameInfo,omitempty"`
	Cards       *[]jsonCard     `json:"cards"`
	MoveHistory *[]string       `json:"moveHistory"`
}

type jsonGameInfo struct {
	PlayerName    string `json:"playerName"`
	Score         int    `json:"score"`
	TimeElapsed   int64  `json:"timeElapsed"`
	Level         int    `json:"level"`
	GameID        string `json:"gameId"`
	SaveDate      string `json:"saveDate"`
	GameCompleted bool   `json:"gameCompleted"`
	SoundEnabled  bool   `json:"soundEnabled"`
	ThemeName     string `json:"themeName"`
	SaveFormat    string `json:"saveFormat"`
}

type jsonCard struct {
	ID       int  `json:"id"`
	ImageID  int  `json:"imageId"`
	PairID   int  `json:"pairId"`
	Position int  `json:"position"`
	Flipped  bool `json:"flipped"`
	Matched  bool `json:"matched"`
}

// JSONCodec reads and writes the gameInfo/cards/moveHistory JSON object.
// Text that is not valid UTF-8 is refused on encode.
type JSONCodec struct{}

// NewJSONCodec returns the JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

func (c *JSONCodec) Format() Format    { return FormatJSON }
func (c *JSONCodec) Extension() string { return ".json" }

// Encode writes the snapshot as indented JSON
func (c *JSONCodec) Encode(w io.Writer, s *engine.Snapshot) error {
	if s == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}
	if err := checkText(FormatJSON, s, utf8.ValidString); err != nil {
		return err
	}

	info, err := json.Marshal(jsonGameInfo{
		PlayerName:    s.PlayerName,
		Score:         s.Score,
		TimeElapsed:   elapsedToMillis(s.ElapsedTime),
		Level:         s.Level,
		GameID:        s.SessionID,
		SaveDate:      formatTimestamp(s.SaveTimestamp),
		GameCompleted: s.Completed,
		SoundEnabled:  s.SoundEnabled,
		ThemeName:     s.ThemeName,
		SaveFormat:    s.SaveFormat,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal game info: %w", err)
	}

	cards := make([]jsonCard, 0, len(s.Cards))
	for _, card := range s.Cards {
		cards = append(cards, jsonCard{
			ID:       card.ID,
			ImageID:  card.ImageID,
			PairID:   card.PairID,
			Position: card.Position,
			Flipped:  card.Flipped,
			Matched:  card.Matched,
		})
	}
	moves := make([]string, 0, len(s.MoveHistory))
	moves = append(moves, s.MoveHistory...)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(jsonGameState{
		GameInfo:    info,
		Cards:       &cards,
		MoveHistory: &moves,
	}); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}

// Decode parses a JSON save file
func (c *JSONCodec) Decode(r io.Reader, stem string) (*engine.Snapshot, error) {
	var doc jsonGameState
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, parseError(FormatJSON, stem, err)
	}
	if doc.Cards == nil {
		return nil, parseError(FormatJSON, stem, fmt.Errorf("missing cards array"))
	}
	if doc.MoveHistory == nil {
		return nil, parseError(FormatJSON, stem, fmt.Errorf("missing moveHistory array"))
	}

	defaults := defaultSnapshot(stem)
	info := jsonGameInfo{
		Level:        defaults.Level,
		GameID:       defaults.SessionID,
		SoundEnabled: defaults.SoundEnabled,
		ThemeName:    defaults.ThemeName,
		SaveFormat:   defaults.SaveFormat,
	}
	if len(doc.GameInfo) > 0 && string(doc.GameInfo) != "null" {
		if err := json.Unmarshal(doc.GameInfo, &info); err != nil {
			return nil, parseError(FormatJSON, stem, fmt.Errorf("gameInfo: %w", err))
		}
	}

	s := &engine.Snapshot{
		PlayerName:    info.PlayerName,
		Score:         info.Score,
		ElapsedTime:   millisToElapsed(info.TimeElapsed),
		Level:         info.Level,
		SessionID:     info.GameID,
		SaveTimestamp: parseTimestamp(info.SaveDate, stem),
		Completed:     info.GameCompleted,
		SoundEnabled:  info.SoundEnabled,
		ThemeName:     info.ThemeName,
		SaveFormat:    info.SaveFormat,
		Cards:         make([]engine.Card, 0, len(*doc.Cards)),
		MoveHistory:   make([]string, 0, len(*doc.MoveHistory)),
	}
	for _, card := range *doc.Cards {
		s.Cards = append(s.Cards, engine.Card{
			ID:       card.ID,
			ImageID:  card.ImageID,
			PairID:   card.PairID,
			Position: card.Position,
			Flipped:  card.Flipped,
			Matched:  card.Matched,
		})
	}
	s.MoveHistory = append(s.MoveHistory, *doc.MoveHistory...)

	fillDefaults(s, stem)
	return s, nil
}
