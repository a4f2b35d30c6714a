// Package models defines the persisted configuration structures.
package models

// Settings represents workspace-scoped preview settings.
// This corresponds to <workspace>/.lwcdev/settings.yaml.
type Settings struct {
	Version     int  `yaml:"version"`
	AutoOpen    bool `yaml:"auto_open"`
	PreviewPort int  `yaml:"preview_port"`
}

// NewSettings creates settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Version:     1,
		AutoOpen:    true,
		PreviewPort: 3333,
	}
}
