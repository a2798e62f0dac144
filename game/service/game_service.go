package service

import (
	"context"
	"time"

	"github.com/wricardo/memory-match-game/game/catalog"
	"github.com/wricardo/memory-match-game/game/engine"
	"github.com/wricardo/memory-match-game/game/storage"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, req *CreateSessionRequest) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	SelectCard(ctx context.Context, sessionID string, position int) (*SelectResult, error)
	Pause(ctx context.Context, sessionID string) (*engine.GameState, error)
	Resume(ctx context.Context, sessionID string) (*engine.GameState, error)
	Restart(ctx context.Context, sessionID string) (*SessionInfo, error)
	NextLevel(ctx context.Context, sessionID string) (*SessionInfo, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Saved Games
	SaveGame(ctx context.Context, sessionID, format string) (*SaveResult, error)
	LoadGame(ctx context.Context, fileName string, fallback bool) (*SessionInfo, error)
	ListSavedGames(ctx context.Context) ([]*SavedGameInfo, error)
	GetSavedGame(ctx context.Context, fileName string) (*SavedGameInfo, error)
	ReadSavedGame(ctx context.Context, fileName string) (string, error)
	ExportSavedGame(ctx context.Context, fileName string) (string, error)
	DeleteSavedGame(ctx context.Context, fileName string) (bool, error)
	ConvertSavedGame(ctx context.Context, fileName, format string) (*SaveResult, error)

	// Preferences
	GetPreferences(ctx context.Context) (*Preferences, error)
	UpdatePreferences(ctx context.Context, prefs *Preferences) (*Preferences, error)
	ListProfiles(ctx context.Context) ([]*ProfileInfo, error)
}

// SessionManager defines live session storage operations
type SessionManager interface {
	Create(config *engine.GameConfig) (*Session, error)
	Replace(id string, eng *engine.GameEngine) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string, format storage.Format) (string, error)
	Load(fileName string) (*Session, error)
	SaveAllSessions() error
}

// SaveCatalog enumerates and manages save files across formats
type SaveCatalog interface {
	ListAll() []catalog.SavedGameRecord
	Get(fileName string) (catalog.SavedGameRecord, error)
	Delete(fileName string) (bool, error)
	ReadRaw(fileName string) (string, error)
	Export(fileName string) (string, error)
	Convert(fileName string, format storage.Format) (string, error)
}

// PreferencesManager handles player preference profiles
type PreferencesManager interface {
	LoadProfile(name string) (*Preferences, error)
	ListProfiles() ([]*ProfileInfo, error)
	GetDefault() *Preferences
	SaveProfile(name string, prefs *Preferences) error
	DefaultProfileName() string
}

// Session represents an active game
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
