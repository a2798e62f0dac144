package service

import (
	"time"

	"github.com/wricardo/memory-match-game/game/engine"
)

// CreateSessionRequest describes a new game. Empty fields come from the
// preference profile.
type CreateSessionRequest struct {
	Profile    string `json:"profile,omitempty"`
	PlayerName string `json:"player_name,omitempty"`
	Level      int    `json:"level,omitempty"`
}

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string            `json:"id"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	Summary        string            `json:"summary"`
	GameState      *engine.GameState `json:"game_state"`
	Restored       bool              `json:"restored,omitempty"`
	Notice         string            `json:"notice,omitempty"`
}

// SelectResult contains the result of a card selection
type SelectResult struct {
	Accepted  bool              `json:"accepted"`
	Position  int               `json:"position"`
	GameState *engine.GameState `json:"game_state"`
	Message   string            `json:"message"`
	// SettleDelayMs is how long until a pending pair resolves, or 0
	SettleDelayMs int64 `json:"settle_delay_ms,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []string `json:"moves"`
	TotalMoves  int      `json:"total_moves"`
	Page        int      `json:"page"`
	PageSize    int      `json:"page_size"`
	TotalPages  int      `json:"total_pages"`
	HasNext     bool     `json:"has_next"`
	HasPrevious bool     `json:"has_previous"`
}

// SaveResult describes a written save file
type SaveResult struct {
	FileName string `json:"file_name"`
	Path     string `json:"path"`
	Format   string `json:"format"`
}

// SavedGameInfo is a catalog entry as returned to clients
type SavedGameInfo struct {
	FileName    string           `json:"file_name"`
	Format      string           `json:"format"`
	DisplayName string           `json:"display_name"`
	Summary     string           `json:"summary"`
	Readable    bool             `json:"readable"`
	Error       string           `json:"error,omitempty"`
	Snapshot    *engine.Snapshot `json:"snapshot,omitempty"`
}

// Preferences are the player settings applied to new games
type Preferences struct {
	PlayerName   string `json:"player_name"`
	SoundEnabled bool   `json:"sound_enabled"`
	ThemeName    string `json:"theme_name"`
	SaveFormat   string `json:"save_format"`
}

// ProfileInfo provides information about a stored preference profile
type ProfileInfo struct {
	Filename   string `json:"filename"`
	ProfileID  string `json:"profile_id"` // The identifier to use for session creation
	PlayerName string `json:"player_name"`
	ThemeName  string `json:"theme_name"`
	SaveFormat string `json:"save_format"`
	IsDefault  bool   `json:"is_default"`
}
