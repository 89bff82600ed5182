// Package scene loads declarative tree descriptions from YAML and converts
// them into descriptor trees that can be mounted on any host adapter.
//
// A scene file describes a static tree of primitives:
//
//	viewport:
//	  width: 800
//	  height: 600
//	root:
//	  tag: box
//	  style:
//	    direction: column
//	    padding: 16
//	    gap: 8
//	  children:
//	    - tag: text
//	      content: Hello
//	    - tag: image
//	      source: logo.png
//	      width: 64
//	      height: 64
//
// Styles use the same compact forms the layout package prints: dimensions
// are "240", "240px", "50%", "30vw", "40vh", "fill" or "auto", and enum
// fields accept the lowercase names ("column", "space_between", "stretch").
package scene

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/go-canopy/canopy/pkg/core"
	"github.com/go-canopy/canopy/pkg/geometry"
	"github.com/go-canopy/canopy/pkg/layout"
)

// Scene is the top-level structure of a scene file.
type Scene struct {
	Viewport *ViewportSpec `yaml:"viewport,omitempty"`
	Root     *Node         `yaml:"root"`
}

// ViewportSpec sets the viewport the scene is laid out against. It is
// optional; when absent the caller decides (flag, project config, or
// size-to-content).
type ViewportSpec struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Node is one element of the scene tree. Tag selects the primitive; the
// remaining fields apply only to the primitives that use them (content and
// font to text, source and the natural size to image, children to box).
type Node struct {
	Tag      string     `yaml:"tag"`
	Key      string     `yaml:"key,omitempty"`
	Content  string     `yaml:"content,omitempty"`
	Font     string     `yaml:"font,omitempty"`
	Source   string     `yaml:"source,omitempty"`
	Width    float64    `yaml:"width,omitempty"`
	Height   float64    `yaml:"height,omitempty"`
	Style    *StyleSpec `yaml:"style,omitempty"`
	Children []*Node    `yaml:"children,omitempty"`
}

// StyleSpec is the YAML form of layout.Style. Enum fields are parsed
// leniently: case-insensitive, with hyphens accepted in place of
// underscores.
type StyleSpec struct {
	Width     Dim     `yaml:"width,omitempty"`
	Height    Dim     `yaml:"height,omitempty"`
	Grow      float64 `yaml:"grow,omitempty"`
	Shrink    float64 `yaml:"shrink,omitempty"`
	Direction string  `yaml:"direction,omitempty"`
	Gap       float64 `yaml:"gap,omitempty"`
	Padding   Insets  `yaml:"padding,omitempty"`
	Justify   string  `yaml:"justify,omitempty"`
	Align     string  `yaml:"align,omitempty"`
}

// Load reads and parses a scene file.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse parses scene file contents.
func Parse(data []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scene: %w", err)
	}
	if s.Viewport != nil && (s.Viewport.Width < 0 || s.Viewport.Height < 0) {
		return nil, fmt.Errorf("viewport dimensions must not be negative (got %gx%g)", s.Viewport.Width, s.Viewport.Height)
	}
	return &s, nil
}

// Descriptor converts the scene into a descriptor tree ready for mounting.
func (s *Scene) Descriptor() (*core.Descriptor, error) {
	if s.Root == nil {
		return nil, fmt.Errorf("scene has no root node")
	}
	return s.Root.descriptor()
}

func (n *Node) descriptor() (*core.Descriptor, error) {
	style, err := n.Style.toStyle()
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", n.describe(), err)
	}

	kids := make([]any, 0, len(n.Children))
	for i, c := range n.Children {
		if c == nil {
			return nil, fmt.Errorf("child %d of %q is empty", i, n.describe())
		}
		d, err := c.descriptor()
		if err != nil {
			return nil, err
		}
		kids = append(kids, d)
	}

	var d *core.Descriptor
	switch n.Tag {
	case "box":
		d = core.El("box", core.BoxProps{Style: style}, kids...)
	case "text":
		if len(kids) > 0 {
			return nil, fmt.Errorf("text node %q cannot have children", n.describe())
		}
		d = core.El("text", core.TextProps{Content: n.Content, FontFamily: n.Font, Style: style})
	case "image":
		if len(kids) > 0 {
			return nil, fmt.Errorf("image node %q cannot have children", n.describe())
		}
		d = core.El("image", core.ImageProps{Source: n.Source, Width: n.Width, Height: n.Height, Style: style})
	case "":
		return nil, fmt.Errorf("node %q is missing a tag", n.describe())
	default:
		return nil, fmt.Errorf("unknown tag %q (expected box, text, or image)", n.Tag)
	}

	if n.Key != "" {
		d = d.WithKey(n.Key)
	}
	return d, nil
}

// describe names a node for error messages, preferring whatever identifying
// field the node carries.
func (n *Node) describe() string {
	switch {
	case n.Key != "":
		return n.Key
	case n.Content != "":
		return n.Content
	case n.Source != "":
		return n.Source
	case n.Tag != "":
		return n.Tag
	}
	return "node"
}

func (s *StyleSpec) toStyle() (layout.Style, error) {
	if s == nil {
		return layout.Style{}, nil
	}
	st := layout.Style{
		Width:   s.Width.Dimension,
		Height:  s.Height.Dimension,
		Grow:    s.Grow,
		Shrink:  s.Shrink,
		Gap:     s.Gap,
		Padding: s.Padding.EdgeInsets,
	}
	var err error
	if st.Direction, err = parseDirection(s.Direction); err != nil {
		return layout.Style{}, err
	}
	if st.Justify, err = parseJustify(s.Justify); err != nil {
		return layout.Style{}, err
	}
	if st.Align, err = parseAlign(s.Align); err != nil {
		return layout.Style{}, err
	}
	return st, nil
}

// Dim wraps layout.Dimension with YAML unmarshalling from the compact
// scalar forms. A bare number means pixels.
type Dim struct {
	layout.Dimension
}

func (d *Dim) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("dimension must be a scalar such as \"240\", \"50%%\" or \"fill\"")
	}
	dim, err := ParseDimension(value.Value)
	if err != nil {
		return err
	}
	d.Dimension = dim
	return nil
}

// ParseDimension converts the textual form of a dimension back into a
// layout.Dimension. It accepts everything Dimension.String produces, plus
// bare numbers (pixels) and the empty string (auto).
func ParseDimension(s string) (layout.Dimension, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "auto":
		return layout.Auto(), nil
	case "fill":
		return layout.Fill(), nil
	}

	units := []struct {
		suffix string
		make   func(float64) layout.Dimension
	}{
		{"px", layout.Px},
		{"%", layout.Percent},
		{"vw", layout.VW},
		{"vh", layout.VH},
	}
	for _, u := range units {
		if !strings.HasSuffix(s, u.suffix) {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, u.suffix), 64)
		if err != nil {
			return layout.Dimension{}, fmt.Errorf("invalid dimension %q", s)
		}
		return u.make(v), nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return layout.Dimension{}, fmt.Errorf("invalid dimension %q", s)
	}
	return layout.Px(v), nil
}

// Insets wraps geometry.EdgeInsets with YAML unmarshalling from either a
// single number (all four sides) or a mapping of left, top, right and
// bottom, each defaulting to zero.
type Insets struct {
	geometry.EdgeInsets
}

func (in *Insets) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		v, err := strconv.ParseFloat(strings.TrimSpace(value.Value), 64)
		if err != nil {
			return fmt.Errorf("invalid padding %q", value.Value)
		}
		in.EdgeInsets = geometry.EdgeInsetsAll(v)
		return nil
	case yaml.MappingNode:
		var sides struct {
			Left   float64 `yaml:"left"`
			Top    float64 `yaml:"top"`
			Right  float64 `yaml:"right"`
			Bottom float64 `yaml:"bottom"`
		}
		if err := value.Decode(&sides); err != nil {
			return fmt.Errorf("invalid padding: %w", err)
		}
		in.EdgeInsets = geometry.EdgeInsetsOnly(sides.Left, sides.Top, sides.Right, sides.Bottom)
		return nil
	default:
		return fmt.Errorf("padding must be a number or a mapping of sides")
	}
}

func parseDirection(s string) (layout.Direction, error) {
	switch normalizeEnum(s) {
	case "", "row":
		return layout.DirectionRow, nil
	case "column":
		return layout.DirectionColumn, nil
	case "stack":
		return layout.DirectionStack, nil
	}
	return 0, fmt.Errorf("unknown direction %q (expected row, column, or stack)", s)
}

func parseJustify(s string) (layout.Justify, error) {
	switch normalizeEnum(s) {
	case "", "start":
		return layout.JustifyStart, nil
	case "end":
		return layout.JustifyEnd, nil
	case "center":
		return layout.JustifyCenter, nil
	case "space_between":
		return layout.JustifySpaceBetween, nil
	case "space_around":
		return layout.JustifySpaceAround, nil
	case "space_evenly":
		return layout.JustifySpaceEvenly, nil
	}
	return 0, fmt.Errorf("unknown justify %q (expected start, end, center, space_between, space_around, or space_evenly)", s)
}

func parseAlign(s string) (layout.Align, error) {
	switch normalizeEnum(s) {
	case "", "start":
		return layout.AlignStart, nil
	case "end":
		return layout.AlignEnd, nil
	case "center":
		return layout.AlignCenter, nil
	case "stretch":
		return layout.AlignStretch, nil
	}
	return 0, fmt.Errorf("unknown align %q (expected start, end, center, or stretch)", s)
}

func normalizeEnum(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
}
