package scene

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-canopy/canopy/pkg/core"
	"github.com/go-canopy/canopy/pkg/geometry"
	"github.com/go-canopy/canopy/pkg/layout"
)

func TestParseDimension(t *testing.T) {
	tests := []struct {
		in   string
		want layout.Dimension
	}{
		{"", layout.Auto()},
		{"auto", layout.Auto()},
		{"fill", layout.Fill()},
		{"240", layout.Px(240)},
		{"240px", layout.Px(240)},
		{"12.5", layout.Px(12.5)},
		{"50%", layout.Percent(50)},
		{"30vw", layout.VW(30)},
		{"45vh", layout.VH(45)},
		{" 16px ", layout.Px(16)},
	}

	for _, tt := range tests {
		got, err := ParseDimension(tt.in)
		if err != nil {
			t.Errorf("ParseDimension(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDimension(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseDimension_Invalid(t *testing.T) {
	for _, in := range []string{"abc", "12qq", "%", "px", "12 px"} {
		if _, err := ParseDimension(in); err == nil {
			t.Errorf("ParseDimension(%q) should fail", in)
		}
	}
}

func TestParse_FullTree(t *testing.T) {
	src := `
viewport:
  width: 640
  height: 480
root:
  tag: box
  style:
    direction: column
    width: 50%
    height: fill
    gap: 8
    padding: 16
    justify: center
    align: stretch
  children:
    - tag: text
      content: Hello
      font: mono
      style:
        grow: 1
    - tag: image
      source: logo.png
      width: 64
      height: 32
`
	s, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if s.Viewport == nil || s.Viewport.Width != 640 || s.Viewport.Height != 480 {
		t.Fatalf("expected viewport 640x480, got %+v", s.Viewport)
	}

	d, err := s.Descriptor()
	if err != nil {
		t.Fatalf("Descriptor failed: %v", err)
	}

	if d.Tag() != "box" {
		t.Fatalf("expected box root, got %q", d.Tag())
	}
	box := d.Props().(core.BoxProps)
	want := layout.Style{
		Width:     layout.Percent(50),
		Height:    layout.Fill(),
		Direction: layout.DirectionColumn,
		Gap:       8,
		Padding:   geometry.EdgeInsetsAll(16),
		Justify:   layout.JustifyCenter,
		Align:     layout.AlignStretch,
	}
	if box.Style != want {
		t.Errorf("expected style %+v, got %+v", want, box.Style)
	}

	kids := d.Children()
	if len(kids) != 2 {
		t.Fatalf("expected 2 children, got %d", len(kids))
	}

	text := kids[0].Props().(core.TextProps)
	if text.Content != "Hello" || text.FontFamily != "mono" {
		t.Errorf("expected text Hello/mono, got %q/%q", text.Content, text.FontFamily)
	}
	if text.Style.Grow != 1 {
		t.Errorf("expected grow 1, got %g", text.Style.Grow)
	}

	img := kids[1].Props().(core.ImageProps)
	if img.Source != "logo.png" || img.Width != 64 || img.Height != 32 {
		t.Errorf("expected logo.png 64x32, got %q %gx%g", img.Source, img.Width, img.Height)
	}
}

func TestParse_PaddingSides(t *testing.T) {
	src := `
root:
  tag: box
  style:
    padding:
      left: 1
      top: 2
      right: 3
`
	s, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	d, err := s.Descriptor()
	if err != nil {
		t.Fatalf("Descriptor failed: %v", err)
	}

	got := d.Props().(core.BoxProps).Style.Padding
	want := geometry.EdgeInsetsOnly(1, 2, 3, 0)
	if got != want {
		t.Errorf("expected padding %+v, got %+v", want, got)
	}
}

func TestParse_LenientEnums(t *testing.T) {
	src := `
root:
  tag: box
  style:
    direction: Column
    justify: space-between
    align: STRETCH
`
	s, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	d, err := s.Descriptor()
	if err != nil {
		t.Fatalf("Descriptor failed: %v", err)
	}

	style := d.Props().(core.BoxProps).Style
	if style.Direction != layout.DirectionColumn {
		t.Errorf("expected column, got %v", style.Direction)
	}
	if style.Justify != layout.JustifySpaceBetween {
		t.Errorf("expected space_between, got %v", style.Justify)
	}
	if style.Align != layout.AlignStretch {
		t.Errorf("expected stretch, got %v", style.Align)
	}
}

func TestParse_Keys(t *testing.T) {
	src := `
root:
  tag: box
  children:
    - tag: text
      key: greeting
      content: hi
`
	s, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	d, err := s.Descriptor()
	if err != nil {
		t.Fatalf("Descriptor failed: %v", err)
	}

	if key := d.Children()[0].Key(); key != "greeting" {
		t.Errorf("expected key greeting, got %v", key)
	}
}

func TestDescriptor_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			"unknown tag",
			"root:\n  tag: circle\n",
			"unknown tag",
		},
		{
			"missing tag",
			"root:\n  content: hi\n",
			"missing a tag",
		},
		{
			"text with children",
			"root:\n  tag: text\n  content: hi\n  children:\n    - tag: box\n",
			"cannot have children",
		},
		{
			"bad direction",
			"root:\n  tag: box\n  style:\n    direction: diagonal\n",
			"unknown direction",
		},
		{
			"no root",
			"viewport:\n  width: 10\n  height: 10\n",
			"no root node",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse([]byte(tt.src))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			_, err = s.Descriptor()
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %q", tt.want, err)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			"bad dimension",
			"root:\n  tag: box\n  style:\n    width: wide\n",
			"invalid dimension",
		},
		{
			"dimension sequence",
			"root:\n  tag: box\n  style:\n    width: [1, 2]\n",
			"must be a scalar",
		},
		{
			"bad padding",
			"root:\n  tag: box\n  style:\n    padding: thick\n",
			"invalid padding",
		},
		{
			"negative viewport",
			"viewport:\n  width: -1\n  height: 10\nroot:\n  tag: box\n",
			"must not be negative",
		},
		{
			"not yaml",
			"{{{{",
			"failed to parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %q", tt.want, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	if err := os.WriteFile(path, []byte("root:\n  tag: box\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Root == nil || s.Root.Tag != "box" {
		t.Errorf("expected a box root, got %+v", s.Root)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
