// Package layout implements the two-pass box layout engine: a post-order
// measure pass that computes content sizes, and a pre-order arrange pass
// that assigns each node a final frame. Dirty nodes propagate up to the
// nearest layout boundary, and boundaries are flushed through an Owner at
// most once per scheduling tick.
package layout

import (
	"fmt"

	"github.com/go-canopy/canopy/pkg/geometry"
)

// Unit identifies how a Dimension value is interpreted.
// UnitAuto is the zero value: size to content.
type Unit int

const (
	// UnitAuto sizes the node to its content.
	UnitAuto Unit = iota
	// UnitPx is an absolute size in pixels.
	UnitPx
	// UnitPercent is a percentage of the parent's content box (0-100).
	UnitPercent
	// UnitFill expands into the remaining space of the parent's main axis,
	// shared proportionally with other fill nodes.
	UnitFill
	// UnitVW is a percentage of the viewport width (0-100).
	UnitVW
	// UnitVH is a percentage of the viewport height (0-100).
	UnitVH
)

// String returns a human-readable representation of the unit.
func (u Unit) String() string {
	switch u {
	case UnitAuto:
		return "auto"
	case UnitPx:
		return "px"
	case UnitPercent:
		return "percent"
	case UnitFill:
		return "fill"
	case UnitVW:
		return "vw"
	case UnitVH:
		return "vh"
	default:
		return fmt.Sprintf("Unit(%d)", int(u))
	}
}

// Dimension is one sizing rule for a single axis.
type Dimension struct {
	Unit  Unit
	Value float64
}

// Auto sizes to content. This is the zero value of Dimension.
func Auto() Dimension {
	return Dimension{}
}

// Px returns an absolute pixel dimension.
func Px(v float64) Dimension {
	return Dimension{Unit: UnitPx, Value: v}
}

// Percent returns a dimension relative to the parent's content box.
// The value is in percent (0-100).
func Percent(v float64) Dimension {
	return Dimension{Unit: UnitPercent, Value: v}
}

// Fill expands into the remaining space of the parent's main axis. Under a
// parent whose axis is not definitely sized, Fill falls back to content
// size.
func Fill() Dimension {
	return Dimension{Unit: UnitFill}
}

// VW returns a dimension relative to the viewport width (0-100).
func VW(v float64) Dimension {
	return Dimension{Unit: UnitVW, Value: v}
}

// VH returns a dimension relative to the viewport height (0-100).
func VH(v float64) Dimension {
	return Dimension{Unit: UnitVH, Value: v}
}

// String returns a human-readable representation of the dimension.
func (d Dimension) String() string {
	switch d.Unit {
	case UnitAuto:
		return "auto"
	case UnitPx:
		return fmt.Sprintf("%gpx", d.Value)
	case UnitPercent:
		return fmt.Sprintf("%g%%", d.Value)
	case UnitFill:
		return "fill"
	case UnitVW:
		return fmt.Sprintf("%gvw", d.Value)
	case UnitVH:
		return fmt.Sprintf("%gvh", d.Value)
	default:
		return fmt.Sprintf("Dimension(%d,%g)", int(d.Unit), d.Value)
	}
}

// Direction is the arrangement mode of a container's children.
// DirectionRow is the zero value.
type Direction int

const (
	// DirectionRow lays out children horizontally.
	DirectionRow Direction = iota
	// DirectionColumn lays out children vertically.
	DirectionColumn
	// DirectionStack overlays children on top of each other.
	DirectionStack
)

// String returns a human-readable representation of the direction.
func (d Direction) String() string {
	switch d {
	case DirectionRow:
		return "row"
	case DirectionColumn:
		return "column"
	case DirectionStack:
		return "stack"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Justify controls how children are positioned along the main axis.
type Justify int

const (
	// JustifyStart places children at the start of the main axis.
	JustifyStart Justify = iota
	// JustifyEnd places children at the end of the main axis.
	JustifyEnd
	// JustifyCenter centers children along the main axis.
	JustifyCenter
	// JustifySpaceBetween distributes free space evenly between children.
	// No space before the first or after the last child.
	JustifySpaceBetween
	// JustifySpaceAround distributes free space evenly, with half-sized
	// spaces at the start and end.
	JustifySpaceAround
	// JustifySpaceEvenly distributes free space evenly, including equal
	// space before the first and after the last child.
	JustifySpaceEvenly
)

// String returns a human-readable representation of the justification.
func (j Justify) String() string {
	switch j {
	case JustifyStart:
		return "start"
	case JustifyEnd:
		return "end"
	case JustifyCenter:
		return "center"
	case JustifySpaceBetween:
		return "space_between"
	case JustifySpaceAround:
		return "space_around"
	case JustifySpaceEvenly:
		return "space_evenly"
	default:
		return fmt.Sprintf("Justify(%d)", int(j))
	}
}

// Align controls how children are positioned along the cross axis.
type Align int

const (
	// AlignStart places children at the start of the cross axis.
	AlignStart Align = iota
	// AlignEnd places children at the end of the cross axis.
	AlignEnd
	// AlignCenter centers children along the cross axis.
	AlignCenter
	// AlignStretch stretches auto-sized children to fill the cross axis.
	AlignStretch
)

// String returns a human-readable representation of the alignment.
func (a Align) String() string {
	switch a {
	case AlignStart:
		return "start"
	case AlignEnd:
		return "end"
	case AlignCenter:
		return "center"
	case AlignStretch:
		return "stretch"
	default:
		return fmt.Sprintf("Align(%d)", int(a))
	}
}

// Style holds the declarative sizing and arrangement rules for one node.
// The zero value is an auto-sized row container with no gap or padding.
type Style struct {
	Width  Dimension
	Height Dimension

	// Grow is the weight for claiming surplus main-axis space. Zero keeps
	// the measured size. Fill dimensions imply a weight of 1 unless Grow
	// overrides it.
	Grow float64
	// Shrink is the weight for absorbing main-axis overflow, scaled by the
	// node's base size. Zero keeps the measured size even when siblings
	// overflow the container.
	Shrink float64

	Direction Direction
	// Gap is the spacing between adjacent children on the main axis.
	Gap     float64
	Padding geometry.EdgeInsets
	Justify Justify
	Align   Align
}

// StylePatch is a partial style override. Nil fields leave the base style
// untouched.
type StylePatch struct {
	Width     *Dimension
	Height    *Dimension
	Grow      *float64
	Shrink    *float64
	Direction *Direction
	Gap       *float64
	Padding   *geometry.EdgeInsets
	Justify   *Justify
	Align     *Align
}

// IsZero reports whether the patch overrides nothing.
func (p StylePatch) IsZero() bool {
	return p == StylePatch{}
}

// Apply merges the patch over a base style and returns the result.
func (p StylePatch) Apply(s Style) Style {
	if p.Width != nil {
		s.Width = *p.Width
	}
	if p.Height != nil {
		s.Height = *p.Height
	}
	if p.Grow != nil {
		s.Grow = *p.Grow
	}
	if p.Shrink != nil {
		s.Shrink = *p.Shrink
	}
	if p.Direction != nil {
		s.Direction = *p.Direction
	}
	if p.Gap != nil {
		s.Gap = *p.Gap
	}
	if p.Padding != nil {
		s.Padding = *p.Padding
	}
	if p.Justify != nil {
		s.Justify = *p.Justify
	}
	if p.Align != nil {
		s.Align = *p.Align
	}
	return s
}
