package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-canopy/canopy/cmd/canopy/internal/config"
	"github.com/go-canopy/canopy/cmd/canopy/internal/scene"
	"github.com/go-canopy/canopy/pkg/core"
	"github.com/go-canopy/canopy/pkg/geometry"
	"github.com/go-canopy/canopy/pkg/host/hosttest"
)

func init() {
	RegisterCommand(&Command{
		Name:  "inspect",
		Short: "Mount a scene file and print its layout",
		Long: `Mount a scene file on the recording host and print the resulting tree.

Each line shows a node's tag and its frame in the parent's coordinate
space ([left top width height]). Text nodes are measured with the bundled
face, so the output is stable across machines.

The viewport is taken from --viewport, then the scene file, then
canopy.yaml in the enclosing project, then the 800x600 default.

Examples:
  canopy inspect scene.yaml
  canopy inspect scene.yaml --viewport 375x667`,
		Usage: "canopy inspect <scene.yaml> [--viewport WxH]",
		Run:   runInspect,
	})
}

func runInspect(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("scene file is required\n\nUsage: canopy inspect <scene.yaml> [--viewport WxH]")
	}

	path := args[0]
	var viewportFlag string
	for i := 1; i < len(args); i++ {
		switch args[i] {
		case "--viewport":
			if i+1 < len(args) {
				viewportFlag = args[i+1]
				i++
			} else {
				return fmt.Errorf("--viewport requires a WxH value")
			}
		default:
			if strings.HasPrefix(args[i], "--viewport=") {
				viewportFlag = strings.TrimPrefix(args[i], "--viewport=")
				continue
			}
			return fmt.Errorf("unknown flag %q", args[i])
		}
	}

	report, err := inspectScene(path, viewportFlag)
	if err != nil {
		return err
	}
	fmt.Print(report)
	return nil
}

// inspectScene loads a scene file, mounts it on a recording host at the
// resolved viewport, and returns the printable layout report.
func inspectScene(path, viewportFlag string) (string, error) {
	s, err := scene.Load(path)
	if err != nil {
		return "", err
	}

	viewport, err := resolveViewport(viewportFlag, s)
	if err != nil {
		return "", err
	}

	root, err := s.Descriptor()
	if err != nil {
		return "", err
	}

	h := hosttest.New()
	r, err := core.Mount(h, h.Container(), root, core.WithViewport(viewport))
	if err != nil {
		return "", fmt.Errorf("failed to mount scene: %w", err)
	}
	defer r.Unmount()

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%gx%g)\n", path, viewport.Width, viewport.Height)
	b.WriteString(h.TreeString())
	return b.String(), nil
}

// resolveViewport picks the viewport for an inspect run. Precedence: the
// --viewport flag, the scene file, canopy.yaml in the enclosing project,
// then the package default.
func resolveViewport(flag string, s *scene.Scene) (geometry.Size, error) {
	if flag != "" {
		return parseViewport(flag)
	}
	if s.Viewport != nil && s.Viewport.Width > 0 && s.Viewport.Height > 0 {
		return geometry.Size{Width: s.Viewport.Width, Height: s.Viewport.Height}, nil
	}
	if root, err := config.FindProjectRoot(); err == nil {
		if r, err := config.Resolve(root); err == nil {
			return r.Viewport, nil
		}
	}
	return geometry.Size{Width: config.DefaultViewportWidth, Height: config.DefaultViewportHeight}, nil
}

// parseViewport parses a WxH value such as "375x667".
func parseViewport(s string) (geometry.Size, error) {
	w, h, ok := strings.Cut(s, "x")
	if !ok {
		return geometry.Size{}, fmt.Errorf("invalid viewport %q (expected WxH, e.g. 375x667)", s)
	}
	width, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
	if err != nil {
		return geometry.Size{}, fmt.Errorf("invalid viewport width %q", w)
	}
	height, err := strconv.ParseFloat(strings.TrimSpace(h), 64)
	if err != nil {
		return geometry.Size{}, fmt.Errorf("invalid viewport height %q", h)
	}
	if width <= 0 || height <= 0 {
		return geometry.Size{}, fmt.Errorf("viewport dimensions must be positive (got %gx%g)", width, height)
	}
	return geometry.Size{Width: width, Height: height}, nil
}
