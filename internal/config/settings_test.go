package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadSettingsDefaults(t *testing.T) {
	workspace := t.TempDir()

	settings, err := LoadSettings(workspace)
	if err != nil {
		t.Fatal(err)
	}
	if !settings.AutoOpen {
		t.Error("default AutoOpen = false, want true")
	}
	if settings.PreviewPort != 3333 {
		t.Errorf("default PreviewPort = %d, want 3333", settings.PreviewPort)
	}
}

func TestSettingsStoreRoundTrip(t *testing.T) {
	workspace := t.TempDir()

	store, err := NewSettingsStore(workspace)
	if err != nil {
		t.Fatal(err)
	}
	if !store.AutoOpen() {
		t.Error("AutoOpen = false before toggle, want default true")
	}

	if err := store.SetAutoOpen(false); err != nil {
		t.Fatal(err)
	}

	// The mutation must be persisted immediately and survive a reload.
	reloaded, err := NewSettingsStore(workspace)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.AutoOpen() {
		t.Error("AutoOpen = true after persisted toggle, want false")
	}
}

func TestSettingsStorePortFallback(t *testing.T) {
	workspace := t.TempDir()
	if err := SaveYAML(WorkspaceSettingsFile(workspace), map[string]any{
		"version":      1,
		"auto_open":    true,
		"preview_port": 0,
	}); err != nil {
		t.Fatal(err)
	}

	store, err := NewSettingsStore(workspace)
	if err != nil {
		t.Fatal(err)
	}
	if got := store.PreviewPort(); got != 3333 {
		t.Errorf("PreviewPort = %d with zero configured, want default 3333", got)
	}
}

func TestIsWorkspace(t *testing.T) {
	dir := t.TempDir()
	if IsWorkspace(dir) {
		t.Error("IsWorkspace = true without marker file")
	}

	if err := os.WriteFile(filepath.Join(dir, WorkspaceMarkerFile), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !IsWorkspace(dir) {
		t.Error("IsWorkspace = false with marker file")
	}
}

func TestSourceAndDestRoots(t *testing.T) {
	src := SourceRoot("/ws")
	if !strings.HasSuffix(src, filepath.Join("force-app", "main", "default", "lwc")) {
		t.Errorf("SourceRoot = %q", src)
	}

	dest := RuntimeModulesDir("/rt")
	if !strings.HasSuffix(dest, filepath.Join("src", "modules", "c")) {
		t.Errorf("RuntimeModulesDir = %q", dest)
	}
}

func TestAppendServerError(t *testing.T) {
	workspace := t.TempDir()

	if err := AppendServerError(workspace, "lwc_compilation", "Unexpected token", "LWC1007: Unexpected token"); err != nil {
		t.Fatal(err)
	}
	if err := AppendServerError(workspace, "generic", "boom", ""); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(ServerErrorLogFile(workspace))
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.Contains(content, "category: lwc_compilation") {
		t.Errorf("log missing first entry: %q", content)
	}
	if !strings.Contains(content, "category: generic") {
		t.Errorf("log missing appended entry: %q", content)
	}
}
