package core

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/go-canopy/canopy/pkg/layout"
)

// Builtin primitive tags. Hosts may register additional tags with
// RegisterTag.
const (
	TagBox   = "box"
	TagText  = "text"
	TagImage = "image"
)

// Styled is implemented by prop types that carry a layout style. The
// reconciler reads it to feed the layout tree; prop types without it layout
// with the zero style.
type Styled interface {
	LayoutStyle() layout.Style
}

// BoxProps configures a box primitive, a plain container.
type BoxProps struct {
	Style layout.Style
}

// LayoutStyle returns the box's layout style.
func (p BoxProps) LayoutStyle() layout.Style { return p.Style }

// TextProps configures a text primitive.
type TextProps struct {
	Content    string
	FontFamily string
	Style      layout.Style
}

// LayoutStyle returns the text node's layout style.
func (p TextProps) LayoutStyle() layout.Style { return p.Style }

// ImageProps configures an image primitive. Width and Height describe the
// source's intrinsic pixel size and feed measurement when the style leaves
// the corresponding dimension auto.
type ImageProps struct {
	Source string
	Width  float64
	Height float64
	Style  layout.Style
}

// LayoutStyle returns the image's layout style.
func (p ImageProps) LayoutStyle() layout.Style { return p.Style }

var (
	tagMu       sync.RWMutex
	tagRegistry = map[string]reflect.Type{}
)

func init() {
	tagRegistry[TagBox] = reflect.TypeOf(BoxProps{})
	tagRegistry[TagText] = reflect.TypeOf(TextProps{})
	tagRegistry[TagImage] = reflect.TypeOf(ImageProps{})
}

// RegisterTag registers a primitive tag with the prop type taken from the
// given prototype value. Descriptors for the tag must carry props of exactly
// that type. Registering an already registered tag panics.
func RegisterTag(tag string, prototype any) {
	if tag == "" {
		panic("canopy: RegisterTag called with an empty tag")
	}
	if prototype == nil {
		panic("canopy: RegisterTag called with a nil prototype")
	}
	tagMu.Lock()
	defer tagMu.Unlock()
	if _, exists := tagRegistry[tag]; exists {
		panic(fmt.Sprintf("canopy: tag %q already registered", tag))
	}
	tagRegistry[tag] = reflect.TypeOf(prototype)
}

// TagRegistered reports whether a primitive tag is known.
func TagRegistered(tag string) bool {
	tagMu.RLock()
	defer tagMu.RUnlock()
	_, ok := tagRegistry[tag]
	return ok
}

// checkProps validates props against the tag's registered prop type. Nil
// props are replaced by the type's zero value, so El(TagBox, nil) works.
func checkProps(tag string, props any) any {
	tagMu.RLock()
	want, ok := tagRegistry[tag]
	tagMu.RUnlock()
	if !ok {
		panic(fmt.Sprintf("canopy: unknown tag %q", tag))
	}
	if props == nil {
		return reflect.Zero(want).Interface()
	}
	if got := reflect.TypeOf(props); got != want {
		panic(fmt.Sprintf("canopy: tag %q wants props of type %s, got %s", tag, want, got))
	}
	return props
}

// styleOf extracts the layout style carried by a descriptor: the prop
// style when the prop type implements Styled, overlaid with the
// descriptor's style patch.
func styleOf(d *Descriptor) layout.Style {
	var s layout.Style
	if styled, ok := d.props.(Styled); ok {
		s = styled.LayoutStyle()
	}
	if d.style != nil {
		s = d.style.Apply(s)
	}
	return s
}
