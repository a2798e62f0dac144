package engine

import (
	"encoding/json"
	"testing"
	"time"
)

func TestPhaseConstants(t *testing.T) {
	tests := []struct {
		phase    Phase
		expected string
	}{
		{PhaseIdle, "idle"},
		{PhaseAwaitingFirstCard, "awaiting_first_card"},
		{PhaseAwaitingSecondCard, "awaiting_second_card"},
		{PhaseResolving, "resolving"},
		{PhaseCompleted, "completed"},
	}

	for _, test := range tests {
		if string(test.phase) != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, string(test.phase))
		}
	}
}

func TestGameConstants(t *testing.T) {
	tests := []struct {
		name     string
		actual   int
		expected int
	}{
		{"MinLevel", MinLevel, 1},
		{"MaxLevel", MaxLevel, 3},
		{"DefaultEdgeSize", DefaultEdgeSize, 4},
		{"PointsPerLevel", PointsPerLevel, 10},
		{"ImagePaletteSize", ImagePaletteSize, 18},
	}

	for _, test := range tests {
		if test.actual != test.expected {
			t.Errorf("%s: expected %d, got %d", test.name, test.expected, test.actual)
		}
	}

	if DefaultSettleDelay != time.Second {
		t.Errorf("DefaultSettleDelay: expected 1s, got %v", DefaultSettleDelay)
	}
}

func TestCardJSONMarshaling(t *testing.T) {
	card := Card{ID: 7, ImageID: 4, PairID: 4, Position: 12, Flipped: true}

	data, err := json.Marshal(card)
	if err != nil {
		t.Fatalf("Failed to marshal card: %v", err)
	}

	expected := `{"id":7,"image_id":4,"pair_id":4,"position":12,"flipped":true,"matched":false}`
	if string(data) != expected {
		t.Errorf("Expected %s, got %s", expected, string(data))
	}
}

func TestCardIsPairOf(t *testing.T) {
	a := Card{ID: 0, PairID: 1}
	b := Card{ID: 1, PairID: 1}
	c := Card{ID: 2, PairID: 2}

	if !a.IsPairOf(b) {
		t.Error("Expected cards with the same pair ID to match")
	}
	if a.IsPairOf(c) {
		t.Error("Expected cards with different pair IDs not to match")
	}
}

func TestGameStateJSONMarshaling(t *testing.T) {
	state := GameState{
		Snapshot: Snapshot{
			PlayerName:  "Ana",
			Score:       20,
			ElapsedTime: 95 * time.Second,
			Level:       1,
			Cards:       []Card{{ID: 0, PairID: 1}, {ID: 1, PairID: 1, Position: 1}},
			MoveHistory: []string{"Flipped card at position 0"},
			SessionID:   "game_x",
		},
		ElapsedMs: 95000,
		Phase:     PhaseAwaitingSecondCard,
		Selected:  []int{0},
		GridSize:  4,
	}

	data, err := json.Marshal(state)
	if err != nil {
		t.Fatalf("Failed to marshal game state: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal game state: %v", err)
	}

	// Embedded snapshot fields are flattened
	if decoded["player_name"] != "Ana" {
		t.Errorf("Expected flattened player_name, got %v", decoded["player_name"])
	}
	if decoded["elapsed_ms"] != float64(95000) {
		t.Errorf("Expected elapsed_ms 95000, got %v", decoded["elapsed_ms"])
	}
	if decoded["phase"] != "awaiting_second_card" {
		t.Errorf("Expected phase awaiting_second_card, got %v", decoded["phase"])
	}
	if _, ok := decoded["ElapsedTime"]; ok {
		t.Error("Duration field should not be serialized directly")
	}
}

func TestSnapshotHelpers(t *testing.T) {
	t.Run("Summary", func(t *testing.T) {
		snapshot := &Snapshot{Level: 2, Score: 120, ElapsedTime: 185 * time.Second}
		if got := snapshot.Summary(); got != "Level: 2, Score: 120, Time: 03:05" {
			t.Errorf("Unexpected summary: %q", got)
		}
	})

	t.Run("DisplayPlayerName", func(t *testing.T) {
		if got := (&Snapshot{}).DisplayPlayerName(); got != AnonymousPlayer {
			t.Errorf("Expected %s, got %s", AnonymousPlayer, got)
		}
		if got := (&Snapshot{PlayerName: "Luis"}).DisplayPlayerName(); got != "Luis" {
			t.Errorf("Expected Luis, got %s", got)
		}
	})

	t.Run("Clone", func(t *testing.T) {
		original := &Snapshot{
			Cards:       []Card{{ID: 0, PairID: 1}},
			MoveHistory: []string{"a"},
		}
		clone := original.Clone()
		clone.Cards[0].Matched = true
		clone.MoveHistory[0] = "b"

		if original.Cards[0].Matched || original.MoveHistory[0] != "a" {
			t.Error("Clone must not share slices with the original")
		}
		if (*Snapshot)(nil).Clone() != nil {
			t.Error("Clone of nil should be nil")
		}
	})
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		elapsed  time.Duration
		expected string
	}{
		{0, "00:00"},
		{59*time.Second + 999*time.Millisecond, "00:59"},
		{61 * time.Second, "01:01"},
		{100 * time.Minute, "100:00"},
	}

	for _, test := range tests {
		if got := FormatElapsed(test.elapsed); got != test.expected {
			t.Errorf("FormatElapsed(%v): expected %s, got %s", test.elapsed, test.expected, got)
		}
	}
}
