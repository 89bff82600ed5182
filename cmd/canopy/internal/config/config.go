// Package config loads the optional canopy.yaml project configuration and
// resolves defaults from the surrounding Go module.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"

	"github.com/go-canopy/canopy/pkg/geometry"
)

// Default viewport used when neither canopy.yaml nor the caller supplies
// one.
const (
	DefaultViewportWidth  = 800.0
	DefaultViewportHeight = 600.0
)

// Config represents the optional canopy.yaml configuration.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Viewport ViewportConfig `yaml:"viewport"`
}

// AppConfig contains application metadata.
type AppConfig struct {
	Name string `yaml:"name,omitempty"`
}

// ViewportConfig contains the default viewport for tools that mount the
// project's trees.
type ViewportConfig struct {
	Width  float64 `yaml:"width,omitempty"`
	Height float64 `yaml:"height,omitempty"`
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Root       string
	ModulePath string
	AppName    string
	Viewport   geometry.Size
}

// LoadOptional reads canopy.yaml if present.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, "canopy.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read canopy.yaml: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse canopy.yaml: %w", err)
	}

	return &cfg, nil
}

// Resolve loads canopy.yaml (if present) and resolves defaults.
func Resolve(dir string) (*Resolved, error) {
	modulePath, err := modulePath(dir)
	if err != nil {
		return nil, err
	}

	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}

	appName := strings.TrimSpace(cfg.App.Name)
	if appName == "" {
		appName = defaultAppName(modulePath, dir)
	}

	width := cfg.Viewport.Width
	height := cfg.Viewport.Height
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("viewport dimensions must not be negative (got %gx%g)", width, height)
	}
	if width == 0 {
		width = DefaultViewportWidth
	}
	if height == 0 {
		height = DefaultViewportHeight
	}

	return &Resolved{
		Root:       dir,
		ModulePath: modulePath,
		AppName:    appName,
		Viewport:   geometry.Size{Width: width, Height: height},
	}, nil
}

// FindProjectRoot walks up from the current directory to find go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a Go module (no go.mod found)")
		}
		dir = parent
	}
}

func modulePath(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return "", fmt.Errorf("failed to read go.mod: %w", err)
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return "", fmt.Errorf("could not determine module path from go.mod")
	}
	return path, nil
}

func defaultAppName(modulePath, dir string) string {
	base := filepath.Base(dir)
	modName, _, ok := module.SplitPathVersion(modulePath)
	if ok {
		parts := strings.Split(modName, "/")
		if len(parts) > 0 {
			base = parts[len(parts)-1]
		}
	}
	if base == "" {
		return "canopy_app"
	}
	return base
}
