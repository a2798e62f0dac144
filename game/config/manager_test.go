package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wricardo/memory-match-game/game/service"
)

func createTestConfigDir(t *testing.T) string {
	dir, err := os.MkdirTemp("", "config-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	return dir
}

func createValidPreferences() *service.Preferences {
	return &service.Preferences{
		PlayerName:   "Ana",
		SoundEnabled: false,
		ThemeName:    "azul",
		SaveFormat:   "xml",
	}
}

func writeProfileFile(t *testing.T, dir, name string, data []byte) {
	path := filepath.Join(dir, name+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write profile file: %v", err)
	}
}

func writeProfile(t *testing.T, dir, name string, prefs *service.Preferences) {
	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal profile: %v", err)
	}
	writeProfileFile(t, dir, name, data)
}

func TestNewManager(t *testing.T) {
	t.Run("existing default profile", func(t *testing.T) {
		dir := createTestConfigDir(t)
		defer os.RemoveAll(dir)

		writeProfile(t, dir, DefaultProfile, createValidPreferences())

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		prefs := manager.GetDefault()
		if prefs.PlayerName != "Ana" || prefs.ThemeName != "azul" || prefs.SaveFormat != "xml" {
			t.Errorf("Expected stored profile as default, got %+v", prefs)
		}
	})

	t.Run("creates missing directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "config")

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if _, err := os.Stat(dir); err != nil {
			t.Errorf("Expected config dir to be created: %v", err)
		}

		prefs := manager.GetDefault()
		if prefs.PlayerName != "" || !prefs.SoundEnabled || prefs.ThemeName != "guinda" || prefs.SaveFormat != "json" {
			t.Errorf("Expected built-in defaults, got %+v", prefs)
		}
	})

	t.Run("corrupt default profile falls back", func(t *testing.T) {
		dir := t.TempDir()
		writeProfileFile(t, dir, DefaultProfile, []byte("{not json"))

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("NewManager should succeed with a corrupt profile, got %v", err)
		}
		if manager.GetDefault().ThemeName != "guinda" {
			t.Error("Expected built-in defaults")
		}
	})
}

func TestManager_LoadProfile(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)

	writeProfile(t, dir, "ana", createValidPreferences())
	writeProfileFile(t, dir, "partial", []byte(`{"player_name": "Luis"}`))
	writeProfileFile(t, dir, "badtheme", []byte(`{"theme_name": "rosa"}`))
	writeProfileFile(t, dir, "badformat", []byte(`{"save_format": "yaml"}`))

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	tests := []struct {
		name    string
		profile string
		wantErr error
	}{
		{"load by name", "ana", nil},
		{"load with extension", "ana.json", nil},
		{"missing fields keep defaults", "partial", nil},
		{"missing profile", "nope", ErrProfileNotFound},
		{"invalid theme", "badtheme", ErrInvalidPreferences},
		{"invalid save format", "badformat", ErrInvalidPreferences},
		{"path traversal", "../ana", ErrInvalidPreferences},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefs, err := manager.LoadProfile(tt.profile)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if prefs == nil {
				t.Fatal("Expected preferences")
			}
		})
	}

	partial, _ := manager.LoadProfile("partial")
	if partial.PlayerName != "Luis" || !partial.SoundEnabled || partial.ThemeName != "guinda" || partial.SaveFormat != "json" {
		t.Errorf("Expected defaults for missing fields, got %+v", partial)
	}
}

func TestManager_SaveProfile(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	t.Run("save default profile", func(t *testing.T) {
		prefs := createValidPreferences()
		prefs.SaveFormat = "TXT"
		if err := manager.SaveProfile(manager.DefaultProfileName(), prefs); err != nil {
			t.Fatalf("Failed to save profile: %v", err)
		}

		if _, err := os.Stat(filepath.Join(dir, "preferences.json")); err != nil {
			t.Errorf("Expected preferences.json to be written: %v", err)
		}
		if got := manager.GetDefault(); got.SaveFormat != "txt" || got.PlayerName != "Ana" {
			t.Errorf("Expected default to be updated, got %+v", got)
		}
	})

	t.Run("reject invalid preferences", func(t *testing.T) {
		prefs := createValidPreferences()
		prefs.ThemeName = "rosa"
		if err := manager.SaveProfile("other", prefs); !errors.Is(err, ErrInvalidPreferences) {
			t.Errorf("Expected ErrInvalidPreferences, got %v", err)
		}
		if err := manager.SaveProfile("other", nil); !errors.Is(err, ErrInvalidPreferences) {
			t.Errorf("Expected ErrInvalidPreferences for nil, got %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "other.json")); !os.IsNotExist(err) {
			t.Error("Invalid profile should not be written")
		}
	})

	t.Run("persisted across managers", func(t *testing.T) {
		reopened, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to reopen manager: %v", err)
		}
		if got := reopened.GetDefault(); got.PlayerName != "Ana" || got.SaveFormat != "txt" {
			t.Errorf("Expected saved profile after reopen, got %+v", got)
		}
	})
}

func TestManager_GetDefaultReturnsCopy(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	prefs := manager.GetDefault()
	prefs.ThemeName = "azul"

	if manager.GetDefault().ThemeName != "guinda" {
		t.Error("Mutating the returned preferences should not change the default")
	}
}

func TestManager_ListProfiles(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, DefaultProfile, createValidPreferences())
	writeProfile(t, dir, "luis", &service.Preferences{PlayerName: "Luis", ThemeName: "guinda", SaveFormat: "json"})
	writeProfileFile(t, dir, "broken", []byte("{"))
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	profiles, err := manager.ListProfiles()
	if err != nil {
		t.Fatalf("Failed to list profiles: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("Expected 2 valid profiles, got %d", len(profiles))
	}

	if profiles[0].ProfileID != "luis" || profiles[0].IsDefault {
		t.Errorf("Unexpected first profile: %+v", profiles[0])
	}
	if profiles[1].ProfileID != DefaultProfile || !profiles[1].IsDefault {
		t.Errorf("Unexpected second profile: %+v", profiles[1])
	}
	if profiles[1].Filename != "preferences.json" || profiles[1].PlayerName != "Ana" {
		t.Errorf("Unexpected profile details: %+v", profiles[1])
	}
}

func TestManager_SetDefault(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "luis", &service.Preferences{PlayerName: "Luis", ThemeName: "azul", SaveFormat: "txt"})

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if err := manager.SetDefault("luis"); err != nil {
		t.Fatalf("Failed to set default: %v", err)
	}
	if manager.DefaultProfileName() != "luis" {
		t.Errorf("Expected default profile luis, got %s", manager.DefaultProfileName())
	}
	if manager.GetDefault().PlayerName != "Luis" {
		t.Error("Expected default preferences to switch")
	}

	if err := manager.SetDefault("missing"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("Expected ErrProfileNotFound, got %v", err)
	}
}

func TestManager_RefreshCache(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, DefaultProfile, createValidPreferences())

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	// Edit the file behind the manager's back
	updated := createValidPreferences()
	updated.PlayerName = "Edited"
	writeProfile(t, dir, DefaultProfile, updated)

	if manager.GetDefault().PlayerName != "Ana" {
		t.Error("Expected cached profile before refresh")
	}
	if err := manager.RefreshCache(); err != nil {
		t.Fatalf("Failed to refresh cache: %v", err)
	}
	if manager.GetDefault().PlayerName != "Edited" {
		t.Errorf("Expected refreshed profile, got %q", manager.GetDefault().PlayerName)
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "ana", createValidPreferences())

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 40)

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := manager.LoadProfile("ana"); err != nil {
				errs <- err
			}
		}()
		go func() {
			defer wg.Done()
			manager.GetDefault()
			if _, err := manager.ListProfiles(); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent access error: %v", err)
	}
}

func TestValidatePreferences(t *testing.T) {
	tests := []struct {
		name    string
		prefs   *service.Preferences
		wantErr bool
	}{
		{"defaults", DefaultPreferences(), false},
		{"azul theme", &service.Preferences{ThemeName: "azul", SaveFormat: "txt"}, false},
		{"empty theme", &service.Preferences{SaveFormat: "txt"}, true},
		{"unknown format", &service.Preferences{ThemeName: "azul", SaveFormat: "csv"}, true},
		{"nil", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePreferences(tt.prefs)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePreferences() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
