package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeProject(t *testing.T, goMod, canopyYAML string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte(goMod), 0o644); err != nil {
		t.Fatal(err)
	}
	if canopyYAML != "" {
		if err := os.WriteFile(filepath.Join(dir, "canopy.yaml"), []byte(canopyYAML), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestLoadOptional_Missing(t *testing.T) {
	cfg, err := LoadOptional(t.TempDir())
	if err != nil {
		t.Fatalf("LoadOptional failed: %v", err)
	}
	if cfg.App.Name != "" || cfg.Viewport.Width != 0 {
		t.Errorf("expected empty config, got %+v", cfg)
	}
}

func TestLoadOptional_Invalid(t *testing.T) {
	dir := writeProject(t, "module example.com/demo\n", "app: [not, a, mapping]\n")
	if _, err := LoadOptional(dir); err == nil {
		t.Error("expected a parse error")
	}
}

func TestResolve_Defaults(t *testing.T) {
	dir := writeProject(t, "module example.com/apps/demo/v2\n\ngo 1.24.0\n", "")

	r, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if r.ModulePath != "example.com/apps/demo/v2" {
		t.Errorf("expected module path example.com/apps/demo/v2, got %q", r.ModulePath)
	}
	if r.AppName != "demo" {
		t.Errorf("expected app name demo, got %q", r.AppName)
	}
	if r.Viewport.Width != DefaultViewportWidth || r.Viewport.Height != DefaultViewportHeight {
		t.Errorf("expected default viewport, got %+v", r.Viewport)
	}
}

func TestResolve_ConfigOverrides(t *testing.T) {
	yaml := "app:\n  name: Demo App\nviewport:\n  width: 375\n  height: 667\n"
	dir := writeProject(t, "module example.com/demo\n", yaml)

	r, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if r.AppName != "Demo App" {
		t.Errorf("expected app name Demo App, got %q", r.AppName)
	}
	if r.Viewport.Width != 375 || r.Viewport.Height != 667 {
		t.Errorf("expected viewport 375x667, got %+v", r.Viewport)
	}
}

func TestResolve_PartialViewport(t *testing.T) {
	dir := writeProject(t, "module example.com/demo\n", "viewport:\n  width: 1024\n")

	r, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if r.Viewport.Width != 1024 || r.Viewport.Height != DefaultViewportHeight {
		t.Errorf("expected 1024x%g, got %+v", DefaultViewportHeight, r.Viewport)
	}
}

func TestResolve_NegativeViewport(t *testing.T) {
	dir := writeProject(t, "module example.com/demo\n", "viewport:\n  width: -5\n")

	_, err := Resolve(dir)
	if err == nil || !strings.Contains(err.Error(), "must not be negative") {
		t.Errorf("expected a negative viewport error, got %v", err)
	}
}

func TestResolve_NoGoMod(t *testing.T) {
	if _, err := Resolve(t.TempDir()); err == nil {
		t.Error("expected an error without go.mod")
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/demo\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "internal", "ui")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(nested); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(oldWD) })

	got, err := FindProjectRoot()
	if err != nil {
		t.Fatalf("FindProjectRoot failed: %v", err)
	}
	gotReal, err := filepath.EvalSymlinks(got)
	if err != nil {
		t.Fatal(err)
	}
	wantReal, err := filepath.EvalSymlinks(root)
	if err != nil {
		t.Fatal(err)
	}
	if gotReal != wantReal {
		t.Errorf("expected root %s, got %s", wantReal, gotReal)
	}
}

func TestDefaultAppName(t *testing.T) {
	tests := []struct {
		modulePath string
		dir        string
		want       string
	}{
		{"example.com/apps/demo", "/tmp/elsewhere", "demo"},
		{"example.com/apps/demo/v3", "/tmp/elsewhere", "demo"},
		{"demo", "/tmp/elsewhere", "demo"},
	}

	for _, tt := range tests {
		if got := defaultAppName(tt.modulePath, tt.dir); got != tt.want {
			t.Errorf("defaultAppName(%q, %q) = %q, want %q", tt.modulePath, tt.dir, got, tt.want)
		}
	}
}
