package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/wricardo/memory-match-game/game/catalog"
	"github.com/wricardo/memory-match-game/game/engine"
	"github.com/wricardo/memory-match-game/game/storage"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	saves    SaveCatalog
	prefs    PreferencesManager
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, saves SaveCatalog, prefs PreferencesManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		saves:    saves,
		prefs:    prefs,
	}
}

// CreateSession starts a new game using the requested or default preference profile
func (s *gameServiceImpl) CreateSession(ctx context.Context, req *CreateSessionRequest) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req == nil {
		req = &CreateSessionRequest{}
	}

	prefs, err := s.profile(req.Profile)
	if err != nil {
		return nil, err
	}

	config := gameConfigFromPreferences(prefs)
	if req.PlayerName != "" {
		config.PlayerName = req.PlayerName
	}
	if req.Level != 0 {
		config.Level = req.Level
	}

	sess, err := s.sessions.Create(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return sessionInfo(sess), nil
}

// profile loads a named preference profile, or the default when name is empty
func (s *gameServiceImpl) profile(name string) (*Preferences, error) {
	if name == "" {
		return s.prefs.GetDefault(), nil
	}

	prefs, err := s.prefs.LoadProfile(name)
	if err != nil {
		profiles, listErr := s.prefs.ListProfiles()
		if listErr == nil && len(profiles) > 0 {
			var ids []string
			for _, p := range profiles {
				ids = append(ids, p.ProfileID)
			}
			return nil, fmt.Errorf("profile '%s' not found. Available profiles: %v", name, ids)
		}
		return nil, fmt.Errorf("failed to load profile %s: %w", name, err)
	}
	return prefs, nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession closes and removes a live session. Save files are untouched.
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// SelectCard flips the card at position
func (s *gameServiceImpl) SelectCard(ctx context.Context, sessionID string, position int) (*SelectResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	accepted := sess.Engine.Select(position)
	state := sess.Engine.GetState()

	result := &SelectResult{
		Accepted:  accepted,
		Position:  position,
		GameState: state,
		Message:   state.Message,
	}
	if !accepted {
		result.Message = selectionRejection(state, position)
	}
	if state.PendingResolution {
		result.SettleDelayMs = sess.Engine.SettleDelay().Milliseconds()
	}
	return result, nil
}

// selectionRejection explains why a selection was ignored
func selectionRejection(state *engine.GameState, position int) string {
	switch {
	case state.Phase == engine.PhaseCompleted:
		return "Level complete, start a new game or advance to the next level"
	case state.Paused:
		return "Game is paused"
	case state.Phase == engine.PhaseResolving:
		return "Wait for the current pair to settle"
	}

	var card *engine.Card
	for i := range state.Cards {
		if state.Cards[i].Position == position {
			card = &state.Cards[i]
			break
		}
	}
	switch {
	case card == nil:
		return fmt.Sprintf("Position %d is outside the board (0-%d)", position, len(state.Cards)-1)
	case card.Matched:
		return fmt.Sprintf("Card at position %d is already matched", position)
	case card.Flipped:
		return fmt.Sprintf("Card at position %d is already face up", position)
	}
	return fmt.Sprintf("Card at position %d cannot be selected now", position)
}

// Pause suspends a game
func (s *gameServiceImpl) Pause(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	sess.Engine.Pause()
	return sess.Engine.GetState(), nil
}

// Resume continues a paused game
func (s *gameServiceImpl) Resume(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	sess.Engine.Resume()
	return sess.Engine.GetState(), nil
}

// Restart replaces a game with a fresh one at the same level
func (s *gameServiceImpl) Restart(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	next, err := sess.Engine.Restart()
	if err != nil {
		return nil, fmt.Errorf("failed to restart game: %w", err)
	}
	replaced, err := s.sessions.Replace(sessionID, next)
	if err != nil {
		return nil, err
	}
	return sessionInfo(replaced), nil
}

// NextLevel replaces a completed game with one a level up, keeping the score
func (s *gameServiceImpl) NextLevel(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	next, err := sess.Engine.NextLevel()
	if err != nil {
		return nil, err
	}
	replaced, err := s.sessions.Replace(sessionID, next)
	if err != nil {
		return nil, err
	}
	return sessionInfo(replaced), nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return sess.Engine.GetState(), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	moves := []string{}
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = append(moves, history[start:end]...)
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// SaveGame writes a game to disk. An empty format uses the game's own save format.
func (s *gameServiceImpl) SaveGame(ctx context.Context, sessionID, format string) (*SaveResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	if format == "" {
		format = sess.Engine.GetState().SaveFormat
	}
	f, err := storage.ParseFormat(format)
	if err != nil {
		return nil, err
	}

	path, err := s.sessions.Save(sess.ID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to save game: %w", err)
	}
	log.Printf("Saved game %s as %s", sess.ID, f)

	return &SaveResult{
		FileName: filepath.Base(path),
		Path:     path,
		Format:   string(f),
	}, nil
}

// LoadGame restores a save as a live session. With fallback set, a save that
// cannot be loaded yields a fresh level 1 game instead of an error.
func (s *gameServiceImpl) LoadGame(ctx context.Context, fileName string, fallback bool) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Load(fileName)
	if err == nil {
		info := sessionInfo(sess)
		info.Restored = true
		return info, nil
	}
	if !fallback {
		return nil, fmt.Errorf("failed to load %s: %w", fileName, err)
	}

	log.Printf("Warning: failed to load %s, starting a new game: %v", fileName, err)
	config := gameConfigFromPreferences(s.prefs.GetDefault())
	config.Level = engine.MinLevel
	fresh, createErr := s.sessions.Create(config)
	if createErr != nil {
		return nil, fmt.Errorf("failed to create fallback session: %w", createErr)
	}

	info := sessionInfo(fresh)
	info.Notice = fmt.Sprintf("Could not load %s, started a new game", fileName)
	return info, nil
}

// ListSavedGames returns every save across formats, unreadable ones included
func (s *gameServiceImpl) ListSavedGames(ctx context.Context) ([]*SavedGameInfo, error) {
	records := s.saves.ListAll()
	result := make([]*SavedGameInfo, 0, len(records))
	for _, record := range records {
		result = append(result, savedGameInfo(record))
	}
	return result, nil
}

// GetSavedGame returns one catalog entry
func (s *gameServiceImpl) GetSavedGame(ctx context.Context, fileName string) (*SavedGameInfo, error) {
	record, err := s.saves.Get(fileName)
	if err != nil {
		return nil, err
	}
	return savedGameInfo(record), nil
}

// ReadSavedGame returns a save file's raw contents
func (s *gameServiceImpl) ReadSavedGame(ctx context.Context, fileName string) (string, error) {
	return s.saves.ReadRaw(fileName)
}

// ExportSavedGame copies a save into the export directory
func (s *gameServiceImpl) ExportSavedGame(ctx context.Context, fileName string) (string, error) {
	return s.saves.Export(fileName)
}

// DeleteSavedGame removes a save file. It reports false when the file does
// not exist and an error when the file could not be removed.
func (s *gameServiceImpl) DeleteSavedGame(ctx context.Context, fileName string) (bool, error) {
	if _, err := storage.ParseFormat(filepath.Ext(fileName)); err != nil {
		return false, err
	}
	return s.saves.Delete(fileName)
}

// ConvertSavedGame rewrites a save in another format
func (s *gameServiceImpl) ConvertSavedGame(ctx context.Context, fileName, format string) (*SaveResult, error) {
	f, err := storage.ParseFormat(format)
	if err != nil {
		return nil, err
	}

	path, err := s.saves.Convert(fileName, f)
	if err != nil {
		return nil, fmt.Errorf("failed to convert %s: %w", fileName, err)
	}
	return &SaveResult{
		FileName: filepath.Base(path),
		Path:     path,
		Format:   string(f),
	}, nil
}

// GetPreferences returns the default preference profile
func (s *gameServiceImpl) GetPreferences(ctx context.Context) (*Preferences, error) {
	prefs := *s.prefs.GetDefault()
	return &prefs, nil
}

// UpdatePreferences stores the default profile and applies it to live games
func (s *gameServiceImpl) UpdatePreferences(ctx context.Context, prefs *Preferences) (*Preferences, error) {
	if prefs == nil {
		return nil, errors.New("preferences cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.prefs.SaveProfile(s.prefs.DefaultProfileName(), prefs); err != nil {
		return nil, err
	}

	updated := s.prefs.GetDefault()
	for _, sess := range s.sessions.List() {
		sess.Engine.SetPreferences(updated.SoundEnabled, updated.ThemeName, updated.SaveFormat)
	}

	result := *updated
	return &result, nil
}

// ListProfiles returns the stored preference profiles
func (s *gameServiceImpl) ListProfiles(ctx context.Context) ([]*ProfileInfo, error) {
	return s.prefs.ListProfiles()
}

func gameConfigFromPreferences(prefs *Preferences) *engine.GameConfig {
	return &engine.GameConfig{
		PlayerName:   prefs.PlayerName,
		Level:        engine.MinLevel,
		SoundEnabled: prefs.SoundEnabled,
		ThemeName:    prefs.ThemeName,
		SaveFormat:   prefs.SaveFormat,
	}
}

func sessionInfo(sess *Session) *SessionInfo {
	state := sess.Engine.GetState()
	return &SessionInfo{
		ID:             sess.ID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		Summary:        state.Summary(),
		GameState:      state,
	}
}

func savedGameInfo(record catalog.SavedGameRecord) *SavedGameInfo {
	info := &SavedGameInfo{
		FileName:    record.FileName,
		Format:      string(record.Format),
		DisplayName: record.DisplayName(),
		Summary:     record.Summary(),
		Readable:    record.Readable(),
		Snapshot:    record.Snapshot,
	}
	if record.Err != nil {
		info.Error = record.Err.Error()
	}
	return info
}
