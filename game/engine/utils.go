package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewSessionID generates a unique session identifier usable as a file stem
func NewSessionID() string {
	return "game_" + uuid.NewString()
}

// AllMatched reports whether every card in a non-empty deck is matched
func AllMatched(cards []Card) bool {
	if len(cards) == 0 {
		return false
	}
	for _, card := range cards {
		if !card.Matched {
			return false
		}
	}
	return true
}

// CountMatchedPairs counts the pairs already found
func CountMatchedPairs(cards []Card) int {
	matched := 0
	for _, card := range cards {
		if card.Matched {
			matched++
		}
	}
	return matched / 2
}

// FormatElapsed formats a duration as MM:SS
func FormatElapsed(d time.Duration) string {
	ms := d.Milliseconds()
	minutes := ms / 60000
	seconds := (ms / 1000) % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// Clone returns a deep copy of the snapshot
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}

	clone := *s
	if s.Cards != nil {
		clone.Cards = make([]Card, len(s.Cards))
		copy(clone.Cards, s.Cards)
	}
	if s.MoveHistory != nil {
		clone.MoveHistory = make([]string, len(s.MoveHistory))
		copy(clone.MoveHistory, s.MoveHistory)
	}
	return &clone
}

// Summary returns a short description for saved game lists
func (s *Snapshot) Summary() string {
	return fmt.Sprintf("Level: %d, Score: %d, Time: %s", s.Level, s.Score, FormatElapsed(s.ElapsedTime))
}

// DisplayPlayerName returns the player name or AnonymousPlayer when empty
func (s *Snapshot) DisplayPlayerName() string {
	if s.PlayerName == "" {
		return AnonymousPlayer
	}
	return s.PlayerName
}
