package testing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-canopy/canopy/pkg/core"
)

// TestingT is the subset of *testing.T used by MatchesFile, allowing
// test doubles to intercept failures.
type TestingT interface {
	Helper()
	Fatalf(format string, args ...any)
	Errorf(format string, args ...any)
	Name() string
}

// Snapshot captures the mounted tree structure: components, primitives and
// their committed layout frames.
type Snapshot struct {
	Viewport [2]float64 `json:"viewport"`
	Scene    *SceneNode `json:"scene"`
}

// SceneNode represents a node in the serialized tree.
type SceneNode struct {
	ID       string       `json:"id"`
	Kind     string       `json:"kind"`
	Text     string       `json:"text,omitempty"`
	Size     [2]float64   `json:"size"`
	Offset   [2]float64   `json:"offset"`
	Children []*SceneNode `json:"children,omitempty"`
}

// CaptureSnapshot captures the current tree. Components serialize with zero
// size and offset; only primitives carry frames.
func (t *TreeTester) CaptureSnapshot() *Snapshot {
	snap := &Snapshot{}
	if t.root == nil {
		return snap
	}
	viewport := t.root.Viewport()
	snap.Viewport = [2]float64{viewport.Width, viewport.Height}
	if tree := t.root.Tree(); tree.Valid() {
		counter := &kindCounter{}
		snap.Scene = captureSceneNode(tree, counter)
	}
	return snap
}

// MatchesFile compares this snapshot against a golden file. On mismatch it
// reports a diff and instructions for updating. When CANOPY_UPDATE_SNAPSHOTS=1
// is set, the file is silently updated instead.
func (s *Snapshot) MatchesFile(t TestingT, path string) {
	t.Helper()

	if os.Getenv("CANOPY_UPDATE_SNAPSHOTS") == "1" {
		if err := s.UpdateFile(path); err != nil {
			t.Fatalf("failed to update snapshot: %v", err)
		}
		return
	}

	expected, err := loadSnapshot(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("snapshot file missing: %s\n\nTo create: CANOPY_UPDATE_SNAPSHOTS=1 go test -run %s", path, t.Name())
			return
		}
		t.Fatalf("failed to load snapshot: %v", err)
		return
	}

	if diff := s.Diff(expected); diff != "" {
		t.Errorf("snapshot mismatch: %s\n%s\n\nTo update: CANOPY_UPDATE_SNAPSHOTS=1 go test -run %s", path, diff, t.Name())
	}
}

// UpdateFile writes this snapshot to the given path, creating directories
// as needed.
func (s *Snapshot) UpdateFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := marshalSnapshot(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Diff returns a unified diff between this snapshot and other. Returns
// empty string if equal.
func (s *Snapshot) Diff(other *Snapshot) string {
	a, _ := marshalSnapshot(s)
	b, _ := marshalSnapshot(other)
	if bytes.Equal(a, b) {
		return ""
	}
	return unifiedDiff(string(b), string(a))
}

// --- Internal ---

// kindCounter assigns stable IDs like "box#0", "box#1".
type kindCounter struct {
	counts map[string]int
}

func (c *kindCounter) next(kind string) string {
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	n := c.counts[kind]
	c.counts[kind] = n + 1
	return fmt.Sprintf("%s#%d", kind, n)
}

func captureSceneNode(n core.TreeNode, counter *kindCounter) *SceneNode {
	kind := n.Tag()
	if kind == "" {
		kind = n.ComponentName()
	}
	if kind == "" {
		kind = "provider"
	}

	node := &SceneNode{
		ID:   counter.next(kind),
		Kind: kind,
	}
	if d := n.Descriptor(); d != nil {
		if p, ok := d.Props().(core.TextProps); ok {
			node.Text = p.Content
		}
	}
	if frame, ok := n.Frame(); ok {
		node.Size = [2]float64{round2(frame.Width()), round2(frame.Height())}
		node.Offset = [2]float64{round2(frame.Left), round2(frame.Top)}
	}

	for _, child := range n.Children() {
		node.Children = append(node.Children, captureSceneNode(child, counter))
	}
	return node
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func loadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("invalid snapshot JSON: %w", err)
	}
	return &snap, nil
}

func marshalSnapshot(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// unifiedDiff produces a simple line-oriented diff.
func unifiedDiff(expected, actual string) string {
	expectedLines := strings.Split(expected, "\n")
	actualLines := strings.Split(actual, "\n")

	var buf strings.Builder
	buf.WriteString("--- expected\n+++ actual\n")

	maxLen := len(expectedLines)
	if len(actualLines) > maxLen {
		maxLen = len(actualLines)
	}

	for i := 0; i < maxLen; i++ {
		var e, a string
		if i < len(expectedLines) {
			e = expectedLines[i]
		}
		if i < len(actualLines) {
			a = actualLines[i]
		}
		if e != a {
			if i < len(expectedLines) {
				fmt.Fprintf(&buf, "-%s\n", e)
			}
			if i < len(actualLines) {
				fmt.Fprintf(&buf, "+%s\n", a)
			}
		}
	}

	return buf.String()
}
