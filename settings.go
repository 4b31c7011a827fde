package main

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// ExportSettings contains PDF export configuration
type ExportSettings struct {
	Profile         string `json:"profile"`
	FallbackEnabled bool   `json:"fallbackEnabled"`
	OpenAfterExport bool   `json:"openAfterExport"`
}

// AutosaveSettings contains draft autosave configuration
type AutosaveSettings struct {
	Enabled      bool `json:"enabled"`
	DelaySeconds int  `json:"delaySeconds"`
	KeepDrafts   int  `json:"keepDrafts"`
}

// UISettings contains UI configuration
type UISettings struct {
	Theme       string `json:"theme"`
	ShowPreview bool   `json:"showPreview"`
}

// Settings is the main configuration structure
type Settings struct {
	Export   ExportSettings   `json:"export"`
	Autosave AutosaveSettings `json:"autosave"`
	UI       UISettings       `json:"ui"`
}

// DefaultSettings returns the default configuration
func DefaultSettings() *Settings {
	return &Settings{
		Export: ExportSettings{
			Profile:         "a4-portrait",
			FallbackEnabled: true,
			OpenAfterExport: false,
		},
		Autosave: AutosaveSettings{
			Enabled:      true,
			DelaySeconds: 2,
			KeepDrafts:   20,
		},
		UI: UISettings{
			Theme:       "clair",
			ShowPreview: true,
		},
	}
}

// SettingsManager handles configuration persistence
type SettingsManager struct {
	settings    *Settings
	settingsDir string
	configFile  string
}

// NewSettingsManager creates a SettingsManager rooted in the user
// settings directory
func NewSettingsManager() *SettingsManager {
	return newSettingsManagerAt(getSettingsDir())
}

func newSettingsManagerAt(dir string) *SettingsManager {
	return &SettingsManager{
		settings:    DefaultSettings(),
		settingsDir: dir,
		configFile:  filepath.Join(dir, "settings.json"),
	}
}

// Load reads settings from disk or creates defaults
func (sm *SettingsManager) Load() error {
	if err := os.MkdirAll(sm.settingsDir, 0755); err != nil {
		return err
	}

	data, err := os.ReadFile(sm.configFile)
	if err != nil {
		if os.IsNotExist(err) {
			return sm.Save()
		}
		return err
	}

	var loaded Settings
	if err := json.Unmarshal(data, &loaded); err != nil {
		return err
	}

	sm.settings = &loaded
	return nil
}

// Save writes current settings to disk
func (sm *SettingsManager) Save() error {
	if err := os.MkdirAll(sm.settingsDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(sm.settings, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(sm.configFile, data, 0644)
}

// Get returns the current settings
func (sm *SettingsManager) Get() *Settings {
	return sm.settings
}

// Dir returns the settings directory path
func (sm *SettingsManager) Dir() string {
	return sm.settingsDir
}

// Update replaces the settings and saves to disk
func (sm *SettingsManager) Update(newSettings *Settings) error {
	sm.settings = newSettings
	return sm.Save()
}

// UpdateExport updates export settings
func (sm *SettingsManager) UpdateExport(export ExportSettings) error {
	sm.settings.Export = export
	return sm.Save()
}

// UpdateAutosave updates autosave settings
func (sm *SettingsManager) UpdateAutosave(autosave AutosaveSettings) error {
	sm.settings.Autosave = autosave
	return sm.Save()
}

// ResetToDefaults resets all settings to defaults
func (sm *SettingsManager) ResetToDefaults() error {
	sm.settings = DefaultSettings()
	return sm.Save()
}
