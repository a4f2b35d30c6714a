package config

import (
	"sync"

	"github.com/lwcdev-io/lwcdev/internal/models"
)

// LoadSettings loads workspace settings from .lwcdev/settings.yaml.
// If the file doesn't exist, returns default settings.
func LoadSettings(workspace string) (*models.Settings, error) {
	return LoadYAMLOrDefault(WorkspaceSettingsFile(workspace), models.NewSettings)
}

// SaveSettings saves workspace settings to .lwcdev/settings.yaml.
func SaveSettings(workspace string, settings *models.Settings) error {
	return SaveYAML(WorkspaceSettingsFile(workspace), settings)
}

// SettingsStore caches the workspace settings in memory and writes every
// mutation back immediately.
type SettingsStore struct {
	workspace string

	mu       sync.Mutex
	settings *models.Settings
}

// NewSettingsStore loads the settings once and returns a store bound to the
// workspace.
func NewSettingsStore(workspace string) (*SettingsStore, error) {
	settings, err := LoadSettings(workspace)
	if err != nil {
		return nil, err
	}
	return &SettingsStore{workspace: workspace, settings: settings}, nil
}

// AutoOpen reports the auto-open-on-switch preference.
func (s *SettingsStore) AutoOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.AutoOpen
}

// SetAutoOpen mutates and persists the auto-open preference.
func (s *SettingsStore) SetAutoOpen(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.AutoOpen = enabled
	return SaveSettings(s.workspace, s.settings)
}

// PreviewPort returns the configured preview server port.
func (s *SettingsStore) PreviewPort() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings.PreviewPort <= 0 {
		return models.NewSettings().PreviewPort
	}
	return s.settings.PreviewPort
}
