package storage

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/wricardo/memory-match-game/game/engine"
)

type xmlGameState struct {
	XMLName     xml.Name        `xml:"gameState"`
	GameInfo    xmlGameInfo     `xml:"gameInfo"`
	Cards       *xmlCards       `xml:"cards"`
	MoveHistory *xmlMoveHistory `xml:"moveHistory"`
}

type xmlGameInfo struct {
	PlayerName    string `xml:"playerName"`
	Score         int    `xml:"score"`
	TimeElapsed   int64  `xml:"timeElapsed"`
	Level         int    `xml:"level"`
	GameID        string `xml:"gameId"`
	SaveDate      string `xml:"saveDate"`
	GameCompleted bool   `xml:"gameCompleted"`
	SoundEnabled  bool   `xml:"soundEnabled"`
	ThemeName     string `xml:"themeName"`
	SaveFormat    string `xml:"saveFormat"`
}

type xmlCards struct {
	Card []xmlCard `xml:"card"`
}

type xmlCard struct {
	ID       int  `xml:"id"`
	ImageID  int  `xml:"imageId"`
	PairID   int  `xml:"pairId"`
	Position int  `xml:"position"`
	Flipped  bool `xml:"flipped"`
	Matched  bool `xml:"matched"`
}

type xmlMoveHistory struct {
	Move []string `xml:"move"`
}

// XMLCodec reads and writes the gameState XML document.
// Text holding characters XML 1.0 cannot carry, such as most control
// characters or invalid UTF-8, is refused on encode.
type XMLCodec struct{}

// NewXMLCodec returns the XML codec
func NewXMLCodec() *XMLCodec {
	return &XMLCodec{}
}

func (c *XMLCodec) Format() Format    { return FormatXML }
func (c *XMLCodec) Extension() string { return ".xml" }

// Encode writes the snapshot as an indented XML document
func (c *XMLCodec) Encode(w io.Writer, s *engine.Snapshot) error {
	if s == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}
	if err := checkText(FormatXML, s, validXMLText); err != nil {
		return err
	}

	doc := xmlGameState{
		GameInfo: xmlGameInfo{
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
		},
		Cards:       &xmlCards{Card: make([]xmlCard, 0, len(s.Cards))},
		MoveHistory: &xmlMoveHistory{Move: make([]string, 0, len(s.MoveHistory))},
	}
	for _, card := range s.Cards {
		doc.Cards.Card = append(doc.Cards.Card, xmlCard{
			ID:       card.ID,
			ImageID:  card.ImageID,
			PairID:   card.PairID,
			Position: card.Position,
			Flipped:  card.Flipped,
			Matched:  card.Matched,
		})
	}
	doc.MoveHistory.Move = append(doc.MoveHistory.Move, s.MoveHistory...)

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode xml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Decode parses an XML save file
func (c *XMLCodec) Decode(r io.Reader, stem string) (*engine.Snapshot, error) {
	defaults := defaultSnapshot(stem)
	doc := xmlGameState{
		GameInfo: xmlGameInfo{
			Level:        defaults.Level,
			GameID:       defaults.SessionID,
			SoundEnabled: defaults.SoundEnabled,
			ThemeName:    defaults.ThemeName,
			SaveFormat:   defaults.SaveFormat,
		},
	}

	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, parseError(FormatXML, stem, err)
	}
	if doc.Cards == nil {
		return nil, parseError(FormatXML, stem, fmt.Errorf("missing cards element"))
	}
	if doc.MoveHistory == nil {
		return nil, parseError(FormatXML, stem, fmt.Errorf("missing moveHistory element"))
	}

	info := doc.GameInfo
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
		Cards:         make([]engine.Card, 0, len(doc.Cards.Card)),
		MoveHistory:   make([]string, 0, len(doc.MoveHistory.Move)),
	}
	for _, card := range doc.Cards.Card {
		s.Cards = append(s.Cards, engine.Card{
			ID:       card.ID,
			ImageID:  card.ImageID,
			PairID:   card.PairID,
			Position: card.Position,
			Flipped:  card.Flipped,
			Matched:  card.Matched,
		})
	}
	s.MoveHistory = append(s.MoveHistory, doc.MoveHistory.Move...)

	fillDefaults(s, stem)
	return s, nil
}
