// Package text provides deterministic text measurement for layout and for
// headless hosts, backed by golang.org/x/image font faces.
package text

import (
	"errors"
	"math"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/go-canopy/canopy/pkg/geometry"
)

// Line represents a single measured line of text.
type Line struct {
	Text  string
	Width float64
}

// Layout contains measured text metrics.
type Layout struct {
	Text       string
	Size       geometry.Size
	Ascent     float64
	Descent    float64
	LineHeight float64
	Lines      []Line
}

// Measurer resolves font faces by family name and measures text with them.
// The empty family maps to a bundled fixed-width bitmap face, which keeps
// measurements identical across platforms.
type Measurer struct {
	mu    sync.RWMutex
	faces map[string]font.Face
}

// NewMeasurer creates a measurer with the bundled default face registered.
func NewMeasurer() *Measurer {
	m := &Measurer{faces: make(map[string]font.Face)}
	m.faces[""] = basicfont.Face7x13
	return m
}

// RegisterFace registers a font face under a family name.
func (m *Measurer) RegisterFace(name string, face font.Face) error {
	if name == "" {
		return errors.New("face name required")
	}
	if face == nil {
		return errors.New("face required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faces[name] = face
	return nil
}

// face resolves a family name, falling back to the default face.
func (m *Measurer) face(family string) font.Face {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if f, ok := m.faces[family]; ok {
		return f
	}
	return m.faces[""]
}

// MeasureString returns the advance width of a single-line string.
func (m *Measurer) MeasureString(content, family string) float64 {
	return fixedToFloat(font.MeasureString(m.face(family), content))
}

// LayoutText measures content, wrapping at maxWidth when maxWidth is
// positive and finite. A non-positive or infinite maxWidth disables
// wrapping; explicit newlines always break.
func (m *Measurer) LayoutText(content, family string, maxWidth float64) *Layout {
	face := m.face(family)
	metrics := face.Metrics()
	ascent := fixedToFloat(metrics.Ascent)
	descent := fixedToFloat(metrics.Descent)
	lineHeight := fixedToFloat(metrics.Height)
	if lineHeight <= 0 {
		lineHeight = ascent + descent
	}
	measure := func(s string) float64 {
		return fixedToFloat(font.MeasureString(face, s))
	}
	lines := breakLines(content, maxWidth, measure)
	maxLineWidth := 0.0
	for _, line := range lines {
		maxLineWidth = math.Max(maxLineWidth, line.Width)
	}
	return &Layout{
		Text:       content,
		Size:       geometry.Size{Width: maxLineWidth, Height: lineHeight * float64(len(lines))},
		Ascent:     ascent,
		Descent:    descent,
		LineHeight: lineHeight,
		Lines:      lines,
	}
}

// breakLines splits content on explicit newlines and wraps each paragraph.
func breakLines(content string, maxWidth float64, measure func(string) float64) []Line {
	if maxWidth < 0 || math.IsInf(maxWidth, 0) {
		maxWidth = 0
	}
	paragraphs := strings.Split(content, "\n")
	lines := make([]Line, 0, len(paragraphs))
	for _, paragraph := range paragraphs {
		if paragraph == "" {
			lines = append(lines, Line{})
			continue
		}
		if maxWidth == 0 {
			lines = append(lines, Line{Text: paragraph, Width: measure(paragraph)})
			continue
		}
		for _, line := range wrapParagraph(paragraph, maxWidth, measure) {
			lines = append(lines, Line{Text: line, Width: measure(line)})
		}
	}
	if len(lines) == 0 {
		lines = []Line{{}}
	}
	return lines
}

// wrapParagraph greedily fills lines up to maxWidth, preferring to break at
// whitespace. A single glyph wider than maxWidth still occupies a line.
func wrapParagraph(content string, maxWidth float64, measure func(string) float64) []string {
	var lines []string
	start := 0
	for start < len(content) {
		lastBreak := -1
		lastFit := -1
		for i := start; i < len(content); {
			r, size := utf8.DecodeRuneInString(content[i:])
			next := i + size
			if measure(content[start:next]) > maxWidth {
				break
			}
			lastFit = next
			if unicode.IsSpace(r) {
				lastBreak = next
			}
			i = next
		}
		if lastFit == -1 {
			_, size := utf8.DecodeRuneInString(content[start:])
			lastFit = start + size
		}
		cut := lastFit
		if lastFit < len(content) && lastBreak > start && lastBreak < lastFit {
			cut = lastBreak
		}
		lines = append(lines, strings.TrimRightFunc(content[start:cut], unicode.IsSpace))
		start = cut
		for start < len(content) {
			r, size := utf8.DecodeRuneInString(content[start:])
			if !unicode.IsSpace(r) {
				break
			}
			start += size
		}
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
