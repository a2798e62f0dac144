package storage

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/wricardo/memory-match-game/game/engine"
)

var (
	ErrParse             = errors.New("save file is corrupt or incomplete")
	ErrIO                = errors.New("save file i/o failed")
	ErrNotFound          = errors.New("save file not found")
	ErrInvalidName       = errors.New("invalid save file name")
	ErrUnsupportedFormat = errors.New("no handler for save format")
)

// TimestampLayout is the save date layout shared by every codec
const TimestampLayout = "2006-01-02 15:04:05"

// Format is a save format tag, also used as the file extension
type Format string

const (
	FormatText Format = "txt"
	FormatXML  Format = "xml"
	FormatJSON Format = "json"
)

// Formats lists the supported formats in display order
var Formats = []Format{FormatText, FormatXML, FormatJSON}

// ParseFormat accepts a format tag with or without a leading dot, in any case
func ParseFormat(s string) (Format, error) {
	tag := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	for _, f := range Formats {
		if f == tag {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Codec converts snapshots to and from one save format
type Codec interface {
	Format() Format
	// Extension includes the leading dot
	Extension() string
	Encode(w io.Writer, snapshot *engine.Snapshot) error
	// Decode reads a snapshot. stem is the file name without extension and
	// becomes the session id when the file does not carry one.
	Decode(r io.Reader, stem string) (*engine.Snapshot, error)
}

// formatTimestamp renders t in local time
func formatTimestamp(t time.Time) string {
	return t.In(time.Local).Format(TimestampLayout)
}

// parseTimestamp reads a local timestamp. An empty or malformed value falls
// back to the current time.
func parseTimestamp(value, stem string) time.Time {
	if value == "" {
		return time.Now().Truncate(time.Second)
	}
	t, err := time.ParseInLocation(TimestampLayout, value, time.Local)
	if err != nil {
		log.Printf("Warning: save %s has unreadable date %q, using current time", stem, value)
		return time.Now().Truncate(time.Second)
	}
	return t
}

func elapsedToMillis(d time.Duration) int64 {
	return d.Milliseconds()
}

func millisToElapsed(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// defaultSnapshot holds the values used for fields a save file omits
func defaultSnapshot(stem string) *engine.Snapshot {
	return &engine.Snapshot{
		Level:         engine.MinLevel,
		SessionID:     stem,
		SaveTimestamp: time.Now().Truncate(time.Second),
		SoundEnabled:  true,
		ThemeName:     engine.DefaultThemeName,
		SaveFormat:    engine.DefaultSaveFormat,
		Cards:         []engine.Card{},
		MoveHistory:   []string{},
	}
}

// fillDefaults repairs decoded values that are present but empty
func fillDefaults(s *engine.Snapshot, stem string) {
	if s.SessionID == "" {
		s.SessionID = stem
	}
	if s.ThemeName == "" {
		s.ThemeName = engine.DefaultThemeName
	}
	if s.SaveFormat == "" {
		s.SaveFormat = engine.DefaultSaveFormat
	}
	if s.Cards == nil {
		s.Cards = []engine.Card{}
	}
	if s.MoveHistory == nil {
		s.MoveHistory = []string{}
	}
}

func parseError(format Format, stem string, err error) error {
	return fmt.Errorf("%w: %s %s: %v", ErrParse, format, stem, err)
}

// checkText rejects a snapshot whose free text the format would rewrite on
// encode, so a save never differs from the game it came from.
func checkText(format Format, s *engine.Snapshot, valid func(string) bool) error {
	fields := []struct{ name, value string }{
		{"player name", s.PlayerName},
		{"game id", s.SessionID},
		{"theme name", s.ThemeName},
		{"save format", s.SaveFormat},
	}
	for _, f := range fields {
		if !valid(f.value) {
			return fmt.Errorf("%s %q cannot be stored as %s", f.name, f.value, format)
		}
	}
	for i, move := range s.MoveHistory {
		if !valid(move) {
			return fmt.Errorf("move %d %q cannot be stored as %s", i, move, format)
		}
	}
	return nil
}

// validXMLText reports whether s is UTF-8 made of XML 1.0 characters only
func validXMLText(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		switch {
		case r == 0x09 || r == 0x0A || r == 0x0D:
		case r >= 0x20 && r <= 0xD7FF:
		case r >= 0xE000 && r <= 0xFFFD:
		case r >= 0x10000 && r <= 0x10FFFF:
		default:
			return false
		}
	}
	return true
}
