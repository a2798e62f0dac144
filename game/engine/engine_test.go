package engine

import (
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 5, 17, 10, 30, 0, 0, time.Local)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func createTestConfig() *GameConfig {
	return &GameConfig{
		PlayerName:   "Tester",
		Level:        1,
		SoundEnabled: true,
		ThemeName:    "azul",
		SaveFormat:   "xml",
	}
}

// newTestEngine returns a started engine with a manual scheduler and a fixed clock
func newTestEngine(t *testing.T, config *GameConfig) (*GameEngine, *ManualScheduler, *testClock) {
	t.Helper()

	scheduler := &ManualScheduler{}
	clock := newTestClock()
	engine, err := NewEngine(config,
		WithScheduler(scheduler),
		WithClock(clock.Now),
		WithRand(rand.New(rand.NewPCG(1, 2))),
	)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	engine.Start()
	return engine, scheduler, clock
}

// findPair returns the positions of both cards of a pair
func findPair(state *GameState, pairID int) (int, int) {
	first, second := -1, -1
	for _, card := range state.Cards {
		if card.PairID != pairID {
			continue
		}
		if first == -1 {
			first = card.Position
		} else {
			second = card.Position
		}
	}
	return first, second
}

// findMismatch returns positions of two unmatched cards from different pairs
func findMismatch(state *GameState) (int, int) {
	for _, a := range state.Cards {
		if a.Matched {
			continue
		}
		for _, b := range state.Cards {
			if !b.Matched && a.PairID != b.PairID {
				return a.Position, b.Position
			}
		}
	}
	return -1, -1
}

func TestNewEngine(t *testing.T) {
	config := createTestConfig()
	engine, err := NewEngine(config)
	if err != nil {
		t.Fatalf("Failed to create new engine: %v", err)
	}
	defer engine.Close()

	if engine.GetPhase() != PhaseIdle {
		t.Errorf("Expected idle phase before start, got %s", engine.GetPhase())
	}
	if engine.GetScore() != 0 {
		t.Errorf("Expected initial score 0, got %d", engine.GetScore())
	}
	if engine.GetLevel() != 1 {
		t.Errorf("Expected level 1, got %d", engine.GetLevel())
	}
	if !strings.HasPrefix(engine.SessionID(), "game_") {
		t.Errorf("Expected generated session ID, got %q", engine.SessionID())
	}

	state := engine.GetState()
	if len(state.Cards) != 16 {
		t.Errorf("Expected 16 cards, got %d", len(state.Cards))
	}
	if state.ThemeName != "azul" || state.SaveFormat != "xml" || !state.SoundEnabled {
		t.Errorf("Preferences not carried into state: %+v", state.Snapshot)
	}
	if len(state.MoveHistory) != 0 {
		t.Errorf("Expected empty move history, got %v", state.MoveHistory)
	}

	engine.Start()
	if engine.GetPhase() != PhaseAwaitingFirstCard {
		t.Errorf("Expected awaiting first card after start, got %s", engine.GetPhase())
	}
}

func TestNewEngineDefaults(t *testing.T) {
	engine, err := NewEngine(nil)
	if err != nil {
		t.Fatalf("Failed to create engine with defaults: %v", err)
	}
	defer engine.Close()

	state := engine.GetState()
	if state.Level != 1 {
		t.Errorf("Expected default level 1, got %d", state.Level)
	}
	if state.ThemeName != DefaultThemeName {
		t.Errorf("Expected default theme %s, got %s", DefaultThemeName, state.ThemeName)
	}
	if state.SaveFormat != DefaultSaveFormat {
		t.Errorf("Expected default save format %s, got %s", DefaultSaveFormat, state.SaveFormat)
	}
	if !state.SoundEnabled {
		t.Error("Expected sound enabled by default")
	}
}

func TestNewEngineRejectsBadSessionID(t *testing.T) {
	config := createTestConfig()
	config.SessionID = "../escape"
	if _, err := NewEngine(config); err == nil {
		t.Error("Expected error for session ID with path separator")
	}
}

func TestSelectFirstCard(t *testing.T) {
	engine, scheduler, _ := newTestEngine(t, createTestConfig())
	defer engine.Close()

	if !engine.Select(0) {
		t.Fatal("Expected first selection to be accepted")
	}
	if engine.GetPhase() != PhaseAwaitingSecondCard {
		t.Errorf("Expected awaiting second card, got %s", engine.GetPhase())
	}

	state := engine.GetState()
	if !state.Cards[0].Flipped {
		t.Error("Expected card 0 to be flipped")
	}
	if len(state.MoveHistory) != 1 || state.MoveHistory[0] != "Flipped card at position 0" {
		t.Errorf("Unexpected move history: %v", state.MoveHistory)
	}
	if scheduler.Pending() != 0 {
		t.Error("No resolution should be scheduled after one card")
	}
}

func TestMatchAwardsPoints(t *testing.T) {
	engine, scheduler, _ := newTestEngine(t, createTestConfig())
	defer engine.Close()

	a, b := findPair(engine.GetState(), 3)
	engine.Select(a)
	engine.Select(b)

	if engine.GetPhase() != PhaseResolving {
		t.Fatalf("Expected resolving phase, got %s", engine.GetPhase())
	}
	if engine.GetScore() != 0 {
		t.Error("Score must not change before the settle delay elapses")
	}
	if delays := scheduler.Delays(); len(delays) != 1 || delays[0] != DefaultSettleDelay {
		t.Errorf("Expected one settle delay of %v, got %v", DefaultSettleDelay, delays)
	}

	scheduler.Flush()

	if engine.GetScore() != 10 {
		t.Errorf("Expected score 10, got %d", engine.GetScore())
	}
	if engine.GetPhase() != PhaseAwaitingFirstCard {
		t.Errorf("Expected awaiting first card, got %s", engine.GetPhase())
	}

	state := engine.GetState()
	history := state.MoveHistory
	if len(history) != 3 {
		t.Fatalf("Expected 3 history entries, got %d: %v", len(history), history)
	}
	if history[2] != "Pair found: 3 (+10 points)" {
		t.Errorf("Unexpected pair entry: %q", history[2])
	}
	for _, card := range state.Cards {
		if card.PairID == 3 && !card.Matched {
			t.Errorf("Card %d of pair 3 should be matched", card.ID)
		}
	}
}

func TestMatchPointsScaleWithLevel(t *testing.T) {
	for level := 1; level <= 3; level++ {
		config := createTestConfig()
		config.Level = level
		engine, scheduler, _ := newTestEngine(t, config)

		a, b := findPair(engine.GetState(), 1)
		engine.Select(a)
		engine.Select(b)
		scheduler.Flush()

		if got, want := engine.GetScore(), 10*level; got != want {
			t.Errorf("Level %d: expected score %d, got %d", level, want, got)
		}
		engine.Close()
	}
}

func TestMismatchTurnsCardsDown(t *testing.T) {
	engine, scheduler, _ := newTestEngine(t, createTestConfig())
	defer engine.Close()

	a, b := findMismatch(engine.GetState())
	engine.Select(a)
	engine.Select(b)

	state := engine.GetState()
	if !state.PendingResolution {
		t.Error("Expected pending resolution")
	}

	scheduler.Flush()

	state = engine.GetState()
	if state.Score != 0 {
		t.Errorf("Expected score 0 after mismatch, got %d", state.Score)
	}
	for _, card := range state.Cards {
		if card.Flipped || card.Matched {
			t.Errorf("Card at %d should be face down and unmatched", card.Position)
		}
	}
	last := engine.GetLastMove()
	if !strings.HasPrefix(last, "Mismatch: ") {
		t.Errorf("Expected mismatch entry, got %q", last)
	}
	if engine.GetPhase() != PhaseAwaitingFirstCard {
		t.Errorf("Expected awaiting first card, got %s", engine.GetPhase())
	}
}

func TestIgnoredSelections(t *testing.T) {
	engine, scheduler, _ := newTestEngine(t, createTestConfig())
	defer engine.Close()

	t.Run("Out of range", func(t *testing.T) {
		if engine.Select(-1) || engine.Select(99) {
			t.Error("Out of range selections should be ignored")
		}
	})

	t.Run("Same card twice", func(t *testing.T) {
		engine.Select(0)
		if engine.Select(0) {
			t.Error("Reselecting the first card should be ignored")
		}
		if engine.GetPhase() != PhaseAwaitingSecondCard {
			t.Errorf("Expected to keep waiting for a second card, got %s", engine.GetPhase())
		}
	})

	t.Run("While resolving", func(t *testing.T) {
		state := engine.GetState()
		other := -1
		for _, card := range state.Cards {
			if card.Position != 0 {
				other = card.Position
				break
			}
		}
		engine.Select(other)
		historyLen := len(engine.GetMoveHistory())

		for _, card := range engine.GetState().Cards {
			if engine.Select(card.Position) {
				t.Fatalf("Selection at %d accepted while resolving", card.Position)
			}
		}
		if len(engine.GetMoveHistory()) != historyLen {
			t.Error("Ignored selections must not be logged")
		}
		scheduler.Flush()
	})

	t.Run("Matched card", func(t *testing.T) {
		a, b := findPair(engine.GetState(), 2)
		engine.Select(a)
		engine.Select(b)
		scheduler.Flush()

		if engine.Select(a) {
			t.Error("Selecting a matched card should be ignored")
		}
	})

	t.Run("While paused", func(t *testing.T) {
		engine.Pause()
		defer engine.Resume()

		x, _ := findMismatch(engine.GetState())
		if engine.Select(x) {
			t.Error("Selections while paused should be ignored")
		}
	})
}

func TestIdleIgnoresSelection(t *testing.T) {
	engine, err := NewEngine(createTestConfig())
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	defer engine.Close()

	if engine.Select(0) {
		t.Error("Selections before start should be ignored")
	}
	if engine.CanSelect(0) {
		t.Error("CanSelect should be false while idle")
	}
}

// solve plays every pair of the current deck
func solve(engine *GameEngine, scheduler *ManualScheduler) {
	state := engine.GetState()
	for pairID := 1; pairID <= state.TotalPairs; pairID++ {
		a, b := findPair(state, pairID)
		engine.Select(a)
		engine.Select(b)
		scheduler.Flush()
	}
}

func TestCompletion(t *testing.T) {
	engine, scheduler, clock := newTestEngine(t, createTestConfig())
	defer engine.Close()

	var completions int
	clock.Advance(90 * time.Second)
	solve(engine, scheduler)

	state := engine.GetState()
	if !state.Completed || state.Phase != PhaseCompleted {
		t.Fatalf("Expected completed game, got phase %s completed=%v", state.Phase, state.Completed)
	}
	if state.Score != 80 {
		t.Errorf("Expected score 80, got %d", state.Score)
	}
	for _, move := range state.MoveHistory {
		if strings.HasPrefix(move, "Level 1 completed") {
			completions++
		}
	}
	if completions != 1 {
		t.Errorf("Expected exactly one completion entry, got %d", completions)
	}
	if engine.GetLastMove() != "Level 1 completed with 80 points" {
		t.Errorf("Unexpected completion entry: %q", engine.GetLastMove())
	}

	// The clock stops once the level is complete
	elapsed := engine.GetElapsed()
	clock.Advance(time.Hour)
	if engine.GetElapsed() != elapsed {
		t.Error("Elapsed time must not accrue after completion")
	}

	for _, card := range state.Cards {
		if engine.Select(card.Position) {
			t.Fatal("Completed game must ignore selections")
		}
	}
	if engine.Pause() {
		t.Error("Completed game cannot be paused")
	}
}

func TestRestartAndNextLevel(t *testing.T) {
	engine, scheduler, _ := newTestEngine(t, createTestConfig())

	if _, err := engine.NextLevel(); err != ErrNotCompleted {
		t.Errorf("Expected ErrNotCompleted, got %v", err)
	}

	solve(engine, scheduler)

	next, err := engine.NextLevel()
	if err != nil {
		t.Fatalf("Failed to advance level: %v", err)
	}
	defer next.Close()

	if next.GetLevel() != 2 {
		t.Errorf("Expected level 2, got %d", next.GetLevel())
	}
	if next.GetScore() != 80 {
		t.Errorf("Expected cumulative score 80, got %d", next.GetScore())
	}
	if next.SessionID() == engine.SessionID() {
		t.Error("Next level must be a new session")
	}
	if len(next.GetState().Cards) != 24 {
		t.Errorf("Expected 24 cards at level 2, got %d", len(next.GetState().Cards))
	}

	restarted, err := next.Restart()
	if err != nil {
		t.Fatalf("Failed to restart: %v", err)
	}
	defer restarted.Close()

	if restarted.GetLevel() != 2 || restarted.GetScore() != 0 {
		t.Errorf("Restart should keep level and reset score, got level %d score %d",
			restarted.GetLevel(), restarted.GetScore())
	}
	state := restarted.GetState()
	if state.PlayerName != "Tester" || state.ThemeName != "azul" {
		t.Error("Restart should preserve player preferences")
	}
}

func TestNextLevelAtMaxLevel(t *testing.T) {
	config := createTestConfig()
	config.Level = MaxLevel
	engine, scheduler, _ := newTestEngine(t, config)
	defer engine.Close()

	solve(engine, scheduler)

	if _, err := engine.NextLevel(); err != ErrMaxLevelReached {
		t.Errorf("Expected ErrMaxLevelReached, got %v", err)
	}
}

func TestSettleDelayOption(t *testing.T) {
	engine, err := NewEngine(&GameConfig{PlayerName: "Ana"}, WithSettleDelay(250*time.Millisecond))
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	if engine.SettleDelay() != 250*time.Millisecond {
		t.Errorf("Expected 250ms settle delay, got %v", engine.SettleDelay())
	}

	restarted, err := engine.Restart()
	if err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	defer restarted.Close()
	if restarted.SettleDelay() != 250*time.Millisecond {
		t.Errorf("Restarted game lost its settle delay: %v", restarted.SettleDelay())
	}

	defaults, _ := NewEngine(&GameConfig{PlayerName: "Ana"})
	if defaults.SettleDelay() != DefaultSettleDelay {
		t.Errorf("Expected default settle delay, got %v", defaults.SettleDelay())
	}
}
