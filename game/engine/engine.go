package engine

import (
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"
)

var (
	ErrNotCompleted    = errors.New("game is not completed")
	ErrMaxLevelReached = errors.New("already at the highest level")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// Engine provides the main interface for game operations
type Engine interface {
	// Lifecycle
	Start()
	Close()
	Restart() (*GameEngine, error)
	NextLevel() (*GameEngine, error)

	// Turn operations
	Select(position int) bool
	CanSelect(position int) bool
	Pause() bool
	Resume() bool

	// Game state
	GetState() *GameState
	GetPhase() Phase
	GetScore() int
	GetLevel() int
	GetElapsed() time.Duration
	IsPaused() bool
	IsCompleted() bool
	SessionID() string

	// History
	GetMoveHistory() []string
	GetLastMove() string

	// Persistence
	Snapshot() *Snapshot
	SetPreferences(soundEnabled bool, themeName, saveFormat string)
}

// Option customizes a GameEngine
type Option func(*GameEngine)

// WithScheduler sets the scheduler used for the settle delay
func WithScheduler(scheduler Scheduler) Option {
	return func(e *GameEngine) { e.scheduler = scheduler }
}

// WithClock sets the time source for elapsed time and timestamps
func WithClock(now func() time.Time) Option {
	return func(e *GameEngine) { e.now = now }
}

// WithSettleDelay sets how long a pair stays visible before resolution
func WithSettleDelay(d time.Duration) Option {
	return func(e *GameEngine) { e.settleDelay = d }
}

// WithRand sets the random source for deck shuffling
func WithRand(rng *rand.Rand) Option {
	return func(e *GameEngine) { e.rng = rng }
}

// WithObserver registers a callback invoked after every state change.
// It runs outside the engine lock and may call back into the engine.
func WithObserver(fn func(Event)) Option {
	return func(e *GameEngine) { e.observer = fn }
}

// GameEngine implements the Engine interface
type GameEngine struct {
	mu sync.Mutex

	config *GameConfig
	state  *Snapshot
	opts   []Option

	phase        Phase
	paused       bool
	closed       bool
	selected     []int
	pendingMatch bool
	settleDue    bool
	timer        Timer
	resolveGen   int
	message      string

	elapsed      time.Duration
	runningSince time.Time

	scheduler   Scheduler
	now         func() time.Time
	settleDelay time.Duration
	rng         *rand.Rand
	observer    func(Event)
}

func newGameEngine(opts []Option) *GameEngine {
	e := &GameEngine{
		opts:        opts,
		phase:       PhaseIdle,
		scheduler:   RealScheduler{},
		now:         time.Now,
		settleDelay: DefaultSettleDelay,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewEngine builds a fresh deck for the configured level and returns an idle game
func NewEngine(config *GameConfig, opts ...Option) (*GameEngine, error) {
	cfg := NormalizeGameConfig(config)
	if err := ValidateGameConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.SessionID == "" {
		cfg.SessionID = NewSessionID()
	}

	e := newGameEngine(opts)
	e.config = cfg
	e.state = &Snapshot{
		PlayerName:    cfg.PlayerName,
		Score:         cfg.StartingScore,
		Level:         cfg.Level,
		Cards:         BuildDeck(cfg.Level, e.rng),
		MoveHistory:   []string{},
		SessionID:     cfg.SessionID,
		SaveTimestamp: e.now().Truncate(time.Second),
		SoundEnabled:  cfg.SoundEnabled,
		ThemeName:     cfg.ThemeName,
		SaveFormat:    cfg.SaveFormat,
	}
	e.message = fmt.Sprintf("Level %d: find all %d pairs!", cfg.Level, len(e.state.Cards)/2)

	return e, nil
}

// RestoreEngine rebuilds an idle game from a snapshot (used for persistence loading)
func RestoreEngine(snapshot *Snapshot, opts ...Option) (*GameEngine, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("%w: snapshot cannot be nil", ErrInvalidSnapshot)
	}
	if err := ValidateDeck(snapshot.Cards); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if len(snapshot.Cards) == 0 {
		return nil, fmt.Errorf("%w: snapshot has no cards", ErrInvalidSnapshot)
	}

	state := snapshot.Clone()
	if !IsValidLevel(state.Level) {
		log.Printf("Warning: restored session %s has level %d, using level %d", state.SessionID, state.Level, MinLevel)
		state.Level = MinLevel
	}
	if state.SessionID == "" {
		state.SessionID = NewSessionID()
	}

	e := newGameEngine(opts)
	e.state = state
	e.elapsed = state.ElapsedTime
	e.config = &GameConfig{
		SessionID:    state.SessionID,
		PlayerName:   state.PlayerName,
		Level:        state.Level,
		SoundEnabled: state.SoundEnabled,
		ThemeName:    state.ThemeName,
		SaveFormat:   state.SaveFormat,
	}

	var faceUp []int
	for _, card := range state.Cards {
		if card.Flipped && !card.Matched {
			faceUp = append(faceUp, card.Position)
		}
	}
	switch {
	case len(faceUp) <= 2:
		e.selected = faceUp
	default:
		log.Printf("Warning: restored session %s has %d face-up cards, turning them down", state.SessionID, len(faceUp))
		for i := range state.Cards {
			if !state.Cards[i].Matched {
				state.Cards[i].Flipped = false
			}
		}
	}
	e.message = fmt.Sprintf("Welcome back! Level %d, score %d", state.Level, state.Score)

	return e, nil
}

// Start leaves the idle state. It is a no-op if the game already started.
func (e *GameEngine) Start() {
	e.mu.Lock()
	if e.phase != PhaseIdle || e.closed {
		e.mu.Unlock()
		return
	}

	if e.state.Completed || AllMatched(e.state.Cards) {
		e.state.Completed = true
		e.phase = PhaseCompleted
		e.mu.Unlock()
		return
	}

	e.startClock()
	switch len(e.selected) {
	case 0:
		e.phase = PhaseAwaitingFirstCard
	case 1:
		e.phase = PhaseAwaitingSecondCard
	default:
		e.enterResolving()
	}
	e.mu.Unlock()
}

// Close cancels any pending resolution and stops the clock
func (e *GameEngine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true
	e.stopClock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// Restart closes this game and returns a fresh one at the same level with score 0
func (e *GameEngine) Restart() (*GameEngine, error) {
	e.mu.Lock()
	cfg := *e.config
	e.mu.Unlock()

	cfg.SessionID = ""
	cfg.StartingScore = 0
	e.Close()
	return NewEngine(&cfg, e.opts...)
}

// NextLevel closes this completed game and returns a fresh game one level up,
// carrying the cumulative score
func (e *GameEngine) NextLevel() (*GameEngine, error) {
	e.mu.Lock()
	if e.phase != PhaseCompleted {
		e.mu.Unlock()
		return nil, ErrNotCompleted
	}
	if e.state.Level >= MaxLevel {
		e.mu.Unlock()
		return nil, ErrMaxLevelReached
	}
	cfg := *e.config
	cfg.SessionID = ""
	cfg.Level = e.state.Level + 1
	cfg.StartingScore = e.state.Score
	e.mu.Unlock()

	e.Close()
	return NewEngine(&cfg, e.opts...)
}

// Select flips the card at position. It returns false when the input is ignored.
func (e *GameEngine) Select(position int) bool {
	e.mu.Lock()
	events := e.selectCard(position)
	e.mu.Unlock()

	e.notify(events)
	return len(events) > 0
}

// CanSelect reports whether selecting position would be accepted
func (e *GameEngine) CanSelect(position int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canSelect(position)
}

// Pause suspends the game. A pending resolution still fires but its effects
// wait until Resume.
func (e *GameEngine) Pause() bool {
	e.mu.Lock()
	if e.paused || e.closed || e.phase == PhaseIdle || e.phase == PhaseCompleted {
		e.mu.Unlock()
		return false
	}

	e.paused = true
	e.stopClock()
	e.message = "Game paused"
	events := []Event{e.event(EventPaused, e.message, 0)}
	e.mu.Unlock()

	e.notify(events)
	return true
}

// Resume continues a paused game and applies any resolution that settled meanwhile
func (e *GameEngine) Resume() bool {
	e.mu.Lock()
	if !e.paused || e.closed {
		e.mu.Unlock()
		return false
	}

	e.paused = false
	e.startClock()
	e.message = "Game resumed"
	events := []Event{e.event(EventResumed, e.message, 0)}
	if e.settleDue {
		events = append(events, e.resolve()...)
	}
	e.mu.Unlock()

	e.notify(events)
	return true
}

// GetState returns a copy of the live game state
func (e *GameEngine) GetState() *GameState {
	e.mu.Lock()
	defer e.mu.Unlock()

	elapsed := e.elapsedNow()
	snapshot := e.state.Clone()
	snapshot.ElapsedTime = elapsed.Truncate(time.Millisecond)

	selected := make([]int, len(e.selected))
	copy(selected, e.selected)

	return &GameState{
		Snapshot:          *snapshot,
		ElapsedMs:         elapsed.Milliseconds(),
		Phase:             e.phase,
		Paused:            e.paused,
		PendingResolution: e.phase == PhaseResolving,
		Selected:          selected,
		GridSize:          EdgeForLevel(e.state.Level),
		MatchedPairs:      CountMatchedPairs(e.state.Cards),
		TotalPairs:        len(e.state.Cards) / 2,
		Message:           e.message,
	}
}

// SettleDelay returns how long a selected pair stays visible before it resolves
func (e *GameEngine) SettleDelay() time.Duration {
	return e.settleDelay
}

// GetPhase returns the current turn phase
func (e *GameEngine) GetPhase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// GetScore returns the current score
func (e *GameEngine) GetScore() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Score
}

// GetLevel returns the current level
func (e *GameEngine) GetLevel() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Level
}

// GetElapsed returns the accrued play time
func (e *GameEngine) GetElapsed() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.elapsedNow()
}

// IsPaused returns whether the game is paused
func (e *GameEngine) IsPaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// IsCompleted returns whether every pair has been found
func (e *GameEngine) IsCompleted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase == PhaseCompleted
}

// SessionID returns the immutable session identifier
func (e *GameEngine) SessionID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.SessionID
}

// GetMoveHistory returns a copy of the move log
func (e *GameEngine) GetMoveHistory() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	history := make([]string, len(e.state.MoveHistory))
	copy(history, e.state.MoveHistory)
	return history
}

// GetLastMove returns the last move entry, or "" if no moves
func (e *GameEngine) GetLastMove() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.state.MoveHistory) == 0 {
		return ""
	}
	return e.state.MoveHistory[len(e.state.MoveHistory)-1]
}

// Snapshot returns a value copy of the game stamped with the current time
func (e *GameEngine) Snapshot() *Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := e.state.Clone()
	snapshot.ElapsedTime = e.elapsedNow().Truncate(time.Millisecond)
	snapshot.SaveTimestamp = e.now().Truncate(time.Second)
	return snapshot
}

// SetPreferences updates the pass-through preference fields
func (e *GameEngine) SetPreferences(soundEnabled bool, themeName, saveFormat string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.SoundEnabled = soundEnabled
	e.config.SoundEnabled = soundEnabled
	if themeName != "" {
		e.state.ThemeName = themeName
		e.config.ThemeName = themeName
	}
	if IsValidSaveFormat(saveFormat) {
		e.state.SaveFormat = saveFormat
		e.config.SaveFormat = saveFormat
	}
}

// enterResolving computes the outcome now and schedules its application
func (e *GameEngine) enterResolving() {
	first, _ := e.cardAt(e.selected[0])
	second, _ := e.cardAt(e.selected[1])

	e.phase = PhaseResolving
	e.pendingMatch = first.IsPairOf(*second)
	e.resolveGen++

	gen := e.resolveGen
	e.timer = e.scheduler.AfterFunc(e.settleDelay, func() {
		e.settle(gen)
	})
}

// settle is the scheduled callback that ends the Resolving phase
func (e *GameEngine) settle(gen int) {
	e.mu.Lock()
	if e.closed || gen != e.resolveGen || e.phase != PhaseResolving {
		e.mu.Unlock()
		return
	}
	e.timer = nil

	if e.paused {
		e.settleDue = true
		e.mu.Unlock()
		return
	}

	events := e.resolve()
	e.mu.Unlock()

	e.notify(events)
}

// notify delivers events to the observer outside the lock
func (e *GameEngine) notify(events []Event) {
	if e.observer == nil {
		return
	}
	for _, ev := range events {
		e.observer(ev)
	}
}

func (e *GameEngine) startClock() {
	if e.runningSince.IsZero() {
		e.runningSince = e.now()
	}
}

func (e *GameEngine) stopClock() {
	if !e.runningSince.IsZero() {
		e.elapsed += e.now().Sub(e.runningSince)
		e.runningSince = time.Time{}
	}
}

func (e *GameEngine) elapsedNow() time.Duration {
	if e.runningSince.IsZero() {
		return e.elapsed
	}
	return e.elapsed + e.now().Sub(e.runningSince)
}

func (e *GameEngine) event(eventType EventType, message string, points int) Event {
	return Event{
		Type:      eventType,
		SessionID: e.state.SessionID,
		Message:   message,
		Points:    points,
		Timestamp: e.now(),
	}
}
