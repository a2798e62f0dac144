// Package config provides player preference management for the memory game.
//
// The config package handles:
//   - Loading preference profiles from JSON files
//   - Validation of theme names and save formats
//   - Default profile management
//   - Profile discovery and listing
//
// Profile Format:
//
// Profiles are stored as JSON files in the config directory. The default
// profile is preferences.json. Each profile defines:
//   - player_name: name shown in saves and summaries (empty means Anonymous)
//   - sound_enabled: whether the UI plays sounds
//   - theme_name: guinda or azul
//   - save_format: default save format, one of txt, xml or json
//
// Fields missing from a profile keep their built-in defaults (sound on,
// theme guinda, format json). When no default profile exists the built-in
// defaults are used until SaveProfile writes one.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Current defaults for new games
//	prefs := manager.GetDefault()
//
//	// Update and persist
//	prefs.ThemeName = "azul"
//	err = manager.SaveProfile(manager.DefaultProfileName(), prefs)
//
//	// List stored profiles
//	profiles, err := manager.ListProfiles()
package config
