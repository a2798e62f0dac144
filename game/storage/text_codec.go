package storage

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/wricardo/memory-match-game/game/engine"
)

const (
	sectionGameInfo    = "[GAME_INFO]"
	sectionCards       = "[CARDS]"
	sectionMoveHistory = "[MOVE_HISTORY]"
	cardSeparator      = "---"

	// emptyLine stands for an empty move, since blank lines are skipped
	emptyLine = `\e`
)

// TextCodec reads and writes the line oriented key=value format.
// Values escape backslash, newline, carriage return and tab.
type TextCodec struct{}

// NewTextCodec returns the plain text codec
func NewTextCodec() *TextCodec {
	return &TextCodec{}
}

func (c *TextCodec) Format() Format    { return FormatText }
func (c *TextCodec) Extension() string { return ".txt" }

// Encode writes the snapshot as a text save file
func (c *TextCodec) Encode(w io.Writer, s *engine.Snapshot) error {
	if s == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# Memory Match save file\n")
	fmt.Fprintf(bw, "# Format: TXT\n")
	fmt.Fprintf(bw, "# Date: %s\n\n", formatTimestamp(time.Now()))

	fmt.Fprintln(bw, sectionGameInfo)
	writeKey(bw, "PLAYER_NAME", escapeValue(s.PlayerName))
	writeKey(bw, "SCORE", strconv.Itoa(s.Score))
	writeKey(bw, "TIME_ELAPSED", strconv.FormatInt(elapsedToMillis(s.ElapsedTime), 10))
	writeKey(bw, "LEVEL", strconv.Itoa(s.Level))
	writeKey(bw, "GAME_ID", escapeValue(s.SessionID))
	writeKey(bw, "SAVE_DATE", formatTimestamp(s.SaveTimestamp))
	writeKey(bw, "GAME_COMPLETED", strconv.FormatBool(s.Completed))
	writeKey(bw, "SOUND_ENABLED", strconv.FormatBool(s.SoundEnabled))
	writeKey(bw, "THEME_NAME", escapeValue(s.ThemeName))
	writeKey(bw, "SAVE_FORMAT", escapeValue(s.SaveFormat))
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, sectionCards)
	for _, card := range s.Cards {
		writeKey(bw, "CARD_ID", strconv.Itoa(card.ID))
		writeKey(bw, "IMAGE_ID", strconv.Itoa(card.ImageID))
		writeKey(bw, "PAIR_ID", strconv.Itoa(card.PairID))
		writeKey(bw, "POSITION", strconv.Itoa(card.Position))
		writeKey(bw, "FLIPPED", strconv.FormatBool(card.Flipped))
		writeKey(bw, "MATCHED", strconv.FormatBool(card.Matched))
		fmt.Fprintln(bw, cardSeparator)
	}
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, sectionMoveHistory)
	for _, move := range s.MoveHistory {
		fmt.Fprintln(bw, escapeLine(move))
	}

	return bw.Flush()
}

func writeKey(w io.Writer, key, value string) {
	fmt.Fprintf(w, "%s=%s\n", key, value)
}

// Decode parses a text save file
func (c *TextCodec) Decode(r io.Reader, stem string) (*engine.Snapshot, error) {
	s := defaultSnapshot(stem)

	var (
		section     string
		seenCards   bool
		seenHistory bool
		card        *engine.Card
		lineNo      int
	)
	flushCard := func() {
		if card != nil {
			s.Cards = append(s.Cards, *card)
			card = nil
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// Moves are written escaped, so only a truly empty line is blank there
		if section != sectionMoveHistory && strings.TrimSpace(line) == "" {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			flushCard()
			section = line
			switch section {
			case sectionCards:
				seenCards = true
			case sectionMoveHistory:
				seenHistory = true
			}
			continue
		}

		switch section {
		case sectionGameInfo:
			if err := applyGameInfo(s, line); err != nil {
				return nil, parseError(FormatText, stem, fmt.Errorf("line %d: %w", lineNo, err))
			}
		case sectionCards:
			if line == cardSeparator {
				flushCard()
				continue
			}
			if card == nil {
				card = &engine.Card{}
			}
			if err := applyCardField(card, line); err != nil {
				return nil, parseError(FormatText, stem, fmt.Errorf("line %d: %w", lineNo, err))
			}
		case sectionMoveHistory:
			move, err := unescapeLine(line)
			if err != nil {
				return nil, parseError(FormatText, stem, fmt.Errorf("line %d: %w", lineNo, err))
			}
			s.MoveHistory = append(s.MoveHistory, move)
		default:
			return nil, parseError(FormatText, stem, fmt.Errorf("line %d: data outside of a section", lineNo))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, parseError(FormatText, stem, err)
	}
	flushCard()

	if !seenCards {
		return nil, parseError(FormatText, stem, fmt.Errorf("missing %s section", sectionCards))
	}
	if !seenHistory {
		return nil, parseError(FormatText, stem, fmt.Errorf("missing %s section", sectionMoveHistory))
	}

	fillDefaults(s, stem)
	return s, nil
}

func splitKey(line string) (string, string, error) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", fmt.Errorf("expected KEY=value, got %q", line)
	}
	return key, value, nil
}

func applyGameInfo(s *engine.Snapshot, line string) error {
	key, raw, err := splitKey(line)
	if err != nil {
		return err
	}

	switch key {
	case "PLAYER_NAME", "GAME_ID", "THEME_NAME", "SAVE_FORMAT":
		value, err := unescapeValue(raw)
		if err != nil {
			return err
		}
		switch key {
		case "PLAYER_NAME":
			s.PlayerName = value
		case "GAME_ID":
			s.SessionID = value
		case "THEME_NAME":
			s.ThemeName = value
		case "SAVE_FORMAT":
			s.SaveFormat = value
		}
	case "SCORE":
		s.Score, err = strconv.Atoi(raw)
	case "TIME_ELAPSED":
		var ms int64
		ms, err = strconv.ParseInt(raw, 10, 64)
		s.ElapsedTime = millisToElapsed(ms)
	case "LEVEL":
		s.Level, err = strconv.Atoi(raw)
	case "SAVE_DATE":
		s.SaveTimestamp = parseTimestamp(raw, s.SessionID)
	case "GAME_COMPLETED":
		s.Completed, err = strconv.ParseBool(raw)
	case "SOUND_ENABLED":
		s.SoundEnabled, err = strconv.ParseBool(raw)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func applyCardField(card *engine.Card, line string) error {
	key, raw, err := splitKey(line)
	if err != nil {
		return err
	}

	switch key {
	case "CARD_ID":
		card.ID, err = strconv.Atoi(raw)
	case "IMAGE_ID":
		card.ImageID, err = strconv.Atoi(raw)
	case "PAIR_ID":
		card.PairID, err = strconv.Atoi(raw)
	case "POSITION":
		card.Position, err = strconv.Atoi(raw)
	case "FLIPPED":
		card.Flipped, err = strconv.ParseBool(raw)
	case "MATCHED":
		card.Matched, err = strconv.ParseBool(raw)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

var valueEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\r", `\r`, "\t", `\t`)

func escapeValue(s string) string {
	return valueEscaper.Replace(s)
}

// escapeLine escapes a move so it survives as one history line. Lines that
// would read as blank, a comment or a section header get a guard escape.
func escapeLine(s string) string {
	escaped := escapeValue(s)
	switch {
	case escaped == "":
		return emptyLine
	case escaped[0] == '#' || escaped[0] == '[':
		return `\` + escaped
	case escaped[0] == ' ':
		return `\s` + escaped[1:]
	}
	return escaped
}

func unescapeLine(s string) (string, error) {
	if s == emptyLine {
		return "", nil
	}
	return unescapeValue(s)
}

func unescapeValue(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			continue
		}
		i++
		if i == len(s) {
			return "", fmt.Errorf("dangling escape in %q", s)
		}
		switch s[i] {
		case '\\':
			b.WriteByte('\\')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 's':
			b.WriteByte(' ')
		case '#', '[':
			b.WriteByte(s[i])
		default:
			return "", fmt.Errorf("unknown escape \\%c in %q", s[i], s)
		}
	}
	return b.String(), nil
}
