package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/memory-match-game/game/engine"
	"github.com/wricardo/memory-match-game/game/service"
)

var (
	ErrProfileNotFound    = errors.New("profile not found")
	ErrInvalidPreferences = errors.New("invalid preferences")
)

// DefaultProfile is the profile file used when no profile is named
const DefaultProfile = "preferences"

// Themes lists the accepted theme names
var Themes = []string{"guinda", "azul"}

// Manager handles preference profile loading and caching
type Manager struct {
	configDir      string
	defaultName    string
	defaultProfile *service.Preferences
	profiles       map[string]*service.Preferences
	mu             sync.RWMutex
}

// NewManager creates a new preferences manager, creating configDir if needed
func NewManager(configDir string) (*Manager, error) {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	m := &Manager{
		configDir:   configDir,
		defaultName: DefaultProfile,
		profiles:    make(map[string]*service.Preferences),
	}

	if err := m.loadDefaultProfile(); err != nil {
		return nil, fmt.Errorf("failed to load default profile: %w", err)
	}

	return m, nil
}

// LoadProfile loads a profile by name
func (m *Manager) LoadProfile(name string) (*service.Preferences, error) {
	name = strings.TrimSuffix(name, ".json")
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("%w: bad profile name %q", ErrInvalidPreferences, name)
	}

	m.mu.RLock()
	if prefs, exists := m.profiles[name]; exists {
		m.mu.RUnlock()
		return copyPreferences(prefs), nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if prefs, exists := m.profiles[name]; exists {
		return copyPreferences(prefs), nil
	}

	data, err := os.ReadFile(filepath.Join(m.configDir, name+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}

	// Fields missing from the file keep their defaults
	prefs := DefaultPreferences()
	if err := json.Unmarshal(data, prefs); err != nil {
		return nil, fmt.Errorf("%w: failed to parse profile %s: %v", ErrInvalidPreferences, name, err)
	}
	if err := ValidatePreferences(prefs); err != nil {
		return nil, err
	}

	m.profiles[name] = prefs
	return copyPreferences(prefs), nil
}

// ListProfiles returns information about all stored profiles
func (m *Manager) ListProfiles() ([]*service.ProfileInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	defaultName := m.DefaultProfileName()
	var profiles []*service.ProfileInfo

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".json")
		prefs, err := m.LoadProfile(name)
		if err != nil {
			log.Printf("Warning: skipping profile %s: %v", entry.Name(), err)
			continue
		}

		profiles = append(profiles, &service.ProfileInfo{
			Filename:   entry.Name(),
			ProfileID:  name,
			PlayerName: prefs.PlayerName,
			ThemeName:  prefs.ThemeName,
			SaveFormat: prefs.SaveFormat,
			IsDefault:  name == defaultName,
		})
	}

	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].ProfileID < profiles[j].ProfileID
	})
	return profiles, nil
}

// GetDefault returns a copy of the default profile
func (m *Manager) GetDefault() *service.Preferences {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyPreferences(m.defaultProfile)
}

// DefaultProfileName returns the name of the profile GetDefault reads
func (m *Manager) DefaultProfileName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultName
}

// SetDefault makes a stored profile the default
func (m *Manager) SetDefault(name string) error {
	prefs, err := m.LoadProfile(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultName = strings.TrimSuffix(name, ".json")
	m.defaultProfile = prefs
	return nil
}

// RefreshCache drops cached profiles and reloads the default from disk
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.profiles = make(map[string]*service.Preferences)
	m.mu.Unlock()

	return m.loadDefaultProfile()
}

// SaveProfile validates and writes a profile to disk
func (m *Manager) SaveProfile(name string, prefs *service.Preferences) error {
	if prefs == nil {
		return fmt.Errorf("%w: preferences cannot be nil", ErrInvalidPreferences)
	}
	name = strings.TrimSuffix(name, ".json")
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: bad profile name %q", ErrInvalidPreferences, name)
	}

	stored := copyPreferences(prefs)
	stored.SaveFormat = strings.ToLower(stored.SaveFormat)
	if err := ValidatePreferences(stored); err != nil {
		return err
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	if err := os.WriteFile(filepath.Join(m.configDir, name+".json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write profile file: %w", err)
	}

	m.mu.Lock()
	m.profiles[name] = stored
	if name == m.defaultName {
		m.defaultProfile = stored
	}
	m.mu.Unlock()

	return nil
}

// loadDefaultProfile loads the default profile, falling back to built-in
// defaults when the file is missing or unreadable
func (m *Manager) loadDefaultProfile() error {
	name := m.DefaultProfileName()

	prefs, err := m.LoadProfile(name)
	if err != nil {
		if !errors.Is(err, ErrProfileNotFound) {
			log.Printf("Warning: could not load profile %s, using defaults: %v", name, err)
		}
		prefs = DefaultPreferences()
	}

	m.mu.Lock()
	m.defaultProfile = prefs
	m.mu.Unlock()
	return nil
}

// DefaultPreferences returns the settings used before any profile is saved
func DefaultPreferences() *service.Preferences {
	return &service.Preferences{
		PlayerName:   "",
		SoundEnabled: true,
		ThemeName:    engine.DefaultThemeName,
		SaveFormat:   engine.DefaultSaveFormat,
	}
}

// ValidatePreferences checks the theme and save format
func ValidatePreferences(prefs *service.Preferences) error {
	if prefs == nil {
		return fmt.Errorf("%w: preferences cannot be nil", ErrInvalidPreferences)
	}
	if !IsValidTheme(prefs.ThemeName) {
		return fmt.Errorf("%w: theme must be one of %s, got %q",
			ErrInvalidPreferences, strings.Join(Themes, ", "), prefs.ThemeName)
	}
	if !engine.IsValidSaveFormat(prefs.SaveFormat) {
		return fmt.Errorf("%w: save format must be one of %s, got %q",
			ErrInvalidPreferences, strings.Join(engine.SaveFormats, ", "), prefs.SaveFormat)
	}
	return nil
}

// IsValidTheme reports whether theme is a known theme name
func IsValidTheme(theme string) bool {
	for _, t := range Themes {
		if t == theme {
			return true
		}
	}
	return false
}

func copyPreferences(prefs *service.Preferences) *service.Preferences {
	c := *prefs
	return &c
}
