package engine

import "time"

// Phase represents the turn state of a game
type Phase string

const (
	PhaseIdle               Phase = "idle"
	PhaseAwaitingFirstCard  Phase = "awaiting_first_card"
	PhaseAwaitingSecondCard Phase = "awaiting_second_card"
	PhaseResolving          Phase = "resolving"
	PhaseCompleted          Phase = "completed"

	// Level and scoring constants
	MinLevel         = 1
	MaxLevel         = 3
	DefaultEdgeSize  = 4
	PointsPerLevel   = 10
	ImagePaletteSize = 18

	// DefaultSettleDelay is how long both selected cards stay visible
	// before a match or mismatch is applied.
	DefaultSettleDelay = 1000 * time.Millisecond

	// Preference defaults applied when a session or a save omits them
	DefaultThemeName  = "guinda"
	DefaultSaveFormat = "json"
	AnonymousPlayer   = "Anonymous"
)

// SaveFormats lists the save format tags a session may carry
var SaveFormats = []string{"txt", "xml", "json"}

// Card represents a single tile on the board
type Card struct {
	ID       int  `json:"id"`
	ImageID  int  `json:"image_id"`
	PairID   int  `json:"pair_id"`
	Position int  `json:"position"`
	Flipped  bool `json:"flipped"`
	Matched  bool `json:"matched"`
}

// IsPairOf reports whether both cards belong to the same pair
func (c Card) IsPairOf(other Card) bool {
	return c.PairID == other.PairID
}

// Snapshot is the serializable state of a session at a point in time.
// It is a value copy; mutating it never affects the live game.
type Snapshot struct {
	PlayerName    string        `json:"player_name"`
	Score         int           `json:"score"`
	ElapsedTime   time.Duration `json:"-"`
	Level         int           `json:"level"`
	Cards         []Card        `json:"cards"`
	MoveHistory   []string      `json:"move_history"`
	SessionID     string        `json:"session_id"`
	SaveTimestamp time.Time     `json:"save_timestamp"`
	Completed     bool          `json:"completed"`
	SoundEnabled  bool          `json:"sound_enabled"`
	ThemeName     string        `json:"theme_name"`
	SaveFormat    string        `json:"save_format"`
}

// GameState is the live view of a game returned to transports
type GameState struct {
	Snapshot
	ElapsedMs         int64  `json:"elapsed_ms"`
	Phase             Phase  `json:"phase"`
	Paused            bool   `json:"paused"`
	PendingResolution bool   `json:"pending_resolution"`
	Selected          []int  `json:"selected"`
	GridSize          int    `json:"grid_size"`
	MatchedPairs      int    `json:"matched_pairs"`
	TotalPairs        int    `json:"total_pairs"`
	Message           string `json:"message"`
}

// GameConfig carries everything needed to start a fresh game
type GameConfig struct {
	SessionID     string `json:"session_id,omitempty"`
	PlayerName    string `json:"player_name"`
	Level         int    `json:"level"`
	StartingScore int    `json:"starting_score"`
	SoundEnabled  bool   `json:"sound_enabled"`
	ThemeName     string `json:"theme_name"`
	SaveFormat    string `json:"save_format"`
}

// EventType identifies what changed in a game
type EventType string

const (
	EventFlip      EventType = "flip"
	EventMatch     EventType = "match"
	EventMismatch  EventType = "mismatch"
	EventCompleted EventType = "completed"
	EventPaused    EventType = "paused"
	EventResumed   EventType = "resumed"
)

// Event is emitted to the observer after each state change
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	Message   string    `json:"message"`
	Points    int       `json:"points,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
