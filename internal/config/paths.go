// Package config handles configuration loading, saving, and path management.
package config

import (
	"os"
	"path/filepath"
)

const (
	// WorkspaceMarkerFile identifies an SFDX workspace root.
	WorkspaceMarkerFile = "sfdx-project.json"

	// WorkspaceDirName is the per-workspace lwcdev directory.
	WorkspaceDirName = ".lwcdev"

	// GlobalDirName is the global lwcdev directory under the user's home.
	GlobalDirName = ".lwcdev"

	// SettingsFileName is the workspace settings file.
	SettingsFileName = "settings.yaml"

	// LogsDirName holds per-workspace log files.
	LogsDirName = "logs"

	// TemplatesDirName holds materialized runtime project templates.
	TemplatesDirName = "templates"
)

// Source and destination tree layout (fixed, not configurable).
var (
	sourceRootSegments  = []string{"force-app", "main", "default", "lwc"}
	runtimeDestSegments = []string{"src", "modules", "c"}
)

// IsWorkspace reports whether path is the root of a recognized SFDX
// workspace.
func IsWorkspace(path string) bool {
	_, err := os.Stat(filepath.Join(path, WorkspaceMarkerFile))
	return err == nil
}

// SourceRoot returns the component source tree root inside a workspace.
func SourceRoot(workspace string) string {
	return filepath.Join(append([]string{workspace}, sourceRootSegments...)...)
}

// RuntimeModulesDir returns the destination tree root inside the runtime
// project.
func RuntimeModulesDir(projectRoot string) string {
	return filepath.Join(append([]string{projectRoot}, runtimeDestSegments...)...)
}

// WorkspaceDir returns a workspace's .lwcdev/ directory.
func WorkspaceDir(workspace string) string {
	return filepath.Join(workspace, WorkspaceDirName)
}

// WorkspaceSettingsFile returns the path to a workspace's settings.yaml.
func WorkspaceSettingsFile(workspace string) string {
	return filepath.Join(WorkspaceDir(workspace), SettingsFileName)
}

// WorkspaceLogsDir returns a workspace's log directory.
func WorkspaceLogsDir(workspace string) string {
	return filepath.Join(WorkspaceDir(workspace), LogsDirName)
}

// ServerErrorLogFile returns the file classified server errors are appended
// to.
func ServerErrorLogFile(workspace string) string {
	return filepath.Join(WorkspaceLogsDir(workspace), "server-errors.log")
}

// GlobalDir returns the path to the global lwcdev directory (~/.lwcdev/).
func GlobalDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, GlobalDirName), nil
}

// TemplatesDir returns the template cache directory (~/.lwcdev/templates/).
func TemplatesDir() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, TemplatesDirName), nil
}

// TemplateCacheDir returns the materialization directory for one template
// version (~/.lwcdev/templates/lwc-preview-<version>/).
func TemplateCacheDir(version string) (string, error) {
	dir, err := TemplatesDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "lwc-preview-"+version), nil
}

// EnsureWorkspaceDir creates the workspace's .lwcdev/ directory structure.
func EnsureWorkspaceDir(workspace string) error {
	if err := os.MkdirAll(WorkspaceDir(workspace), 0o755); err != nil {
		return err
	}
	return os.MkdirAll(WorkspaceLogsDir(workspace), 0o755)
}
