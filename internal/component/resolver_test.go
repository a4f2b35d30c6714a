package component

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantName   string
		wantModule string
	}{
		{
			name:       "component js file",
			path:       "/ws/force-app/main/default/lwc/helloWorld/helloWorld.js",
			wantName:   "helloWorld",
			wantModule: "c/helloWorld",
		},
		{
			name:       "component directory",
			path:       "/ws/force-app/main/default/lwc/card",
			wantName:   "card",
			wantModule: "c/card",
		},
		{
			name:       "relative path",
			path:       "force-app/main/default/lwc/nav/nav.html",
			wantName:   "nav",
			wantModule: "c/nav",
		},
		{
			name:     "no marker segment",
			path:     "/ws/force-app/main/default/aura/comp/comp.js",
			wantName: "",
		},
		{
			name:     "marker is final segment",
			path:     "/ws/force-app/main/default/lwc",
			wantName: "",
		},
		{
			name:     "marker final after trailing slash",
			path:     "/ws/force-app/main/default/lwc/",
			wantName: "",
		},
		{
			name:       "last marker occurrence wins",
			path:       "/lwc/outer/force-app/main/default/lwc/inner/inner.js",
			wantName:   "inner",
			wantModule: "c/inner",
		},
		{
			name:     "empty path",
			path:     "",
			wantName: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := Resolve(tt.path)
			if tt.wantName == "" {
				if id != nil {
					t.Errorf("Resolve(%q) = %+v, want nil", tt.path, id)
				}
				return
			}
			if id == nil {
				t.Fatalf("Resolve(%q) = nil, want name %q", tt.path, tt.wantName)
			}
			if id.Name != tt.wantName {
				t.Errorf("Resolve(%q).Name = %q, want %q", tt.path, id.Name, tt.wantName)
			}
			if id.ModulePath != tt.wantModule {
				t.Errorf("Resolve(%q).ModulePath = %q, want %q", tt.path, id.ModulePath, tt.wantModule)
			}
		})
	}
}

func TestResolveIdempotentUnderNormalization(t *testing.T) {
	raw := "/ws//force-app/main/default/lwc/hello/../hello/hello.js"
	clean := filepath.Clean(raw)

	a := Resolve(raw)
	b := Resolve(clean)
	if a == nil || b == nil {
		t.Fatalf("Resolve returned nil for %q / %q", raw, clean)
	}
	if a.Name != b.Name {
		t.Errorf("name differs under normalization: %q vs %q", a.Name, b.Name)
	}
}

func TestResolveDir(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "file inside component",
			path: "/ws/force-app/main/default/lwc/hello/hello.js",
			want: "/ws/force-app/main/default/lwc/hello",
		},
		{
			name: "nested template dir",
			path: "/ws/force-app/main/default/lwc/hello/templates/extra.html",
			want: "/ws/force-app/main/default/lwc/hello",
		},
		{
			name: "component dir itself",
			path: "/ws/force-app/main/default/lwc/hello",
			want: "/ws/force-app/main/default/lwc/hello",
		},
		{
			name: "no marker",
			path: "/ws/src/other/file.js",
			want: "",
		},
		{
			name: "marker final segment",
			path: "/ws/force-app/main/default/lwc",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveDir(tt.path)
			if got != tt.want {
				t.Errorf("ResolveDir(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestIsComplete(t *testing.T) {
	dir := t.TempDir()

	writeFile := func(name string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if IsComplete(dir, "hello") {
		t.Error("IsComplete = true with no files")
	}

	writeFile("hello.html")
	if IsComplete(dir, "hello") {
		t.Error("IsComplete = true with only .html")
	}

	writeFile("hello.js")
	if !IsComplete(dir, "hello") {
		t.Error("IsComplete = false with both .html and .js")
	}

	if IsComplete(dir, "") {
		t.Error("IsComplete = true for empty name")
	}
	if IsComplete("", "hello") {
		t.Error("IsComplete = true for empty dir")
	}
}

func TestIsCompleteIgnoresDirectories(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "hello.html"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "hello.js"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if IsComplete(dir, "hello") {
		t.Error("IsComplete = true when .html is a directory")
	}
}
