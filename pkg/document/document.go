// Package document serializes scenes to and from the on-disk JSON format.
// The canonical form is flat: every node in one map keyed by id, plus the
// root id list, so tools can patch individual nodes without walking a tree.
// A nested form mirroring the graph structure is also supported for
// hand-authored fixtures and exports meant for humans.
//
// Export and Import are total inverses over committed content: previews and
// all transient editor state are dropped on export, and Import rebuilds the
// scene atomically, so a malformed file never yields a half-loaded scene.
package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/mvetre/atrium/pkg/scene"
)

// FormatVersion is written into every saved document.
const FormatVersion = 1

// ErrFormat wraps all structural problems in a loaded document.
var ErrFormat = errors.New("invalid document")

// WireNode is the flat-form serialization of one node.
type WireNode struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Name     string          `json:"name,omitempty"`
	Visible  *bool           `json:"visible,omitempty"`  // absent means true
	Opacity  *float64        `json:"opacity,omitempty"`  // absent means 100
	ParentID string          `json:"parentId,omitempty"` // absent only on roots
	Children []string        `json:"childIds,omitempty"`
	Metadata map[string]any  `json:"metadata,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// Document is the flat on-disk form.
type Document struct {
	Version     int                 `json:"version"`
	Nodes       map[string]WireNode `json:"nodes"`
	RootNodeIDs []string            `json:"rootNodeIds"`
}

// Export snapshots the committed content of a scene into a flat document.
// Preview subtrees and editor state never appear in the output.
func Export(s *scene.Scene) (*Document, error) {
	doc := &Document{
		Version:     FormatVersion,
		Nodes:       make(map[string]WireNode),
		RootNodeIDs: []string{string(s.Root())},
	}
	if err := exportSubtree(s.GetNode(s.Root()), doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func exportSubtree(h *scene.Handle, doc *Document) error {
	if h.Data().Editor.Preview {
		return nil
	}
	wn, err := toWire(h)
	if err != nil {
		return err
	}
	doc.Nodes[wn.ID] = wn
	for _, child := range h.Children() {
		if err := exportSubtree(child, doc); err != nil {
			return err
		}
	}
	return nil
}

// ToWire serializes one node to its flat wire form. Preview children are
// omitted from the child list.
func ToWire(h *scene.Handle) WireNode {
	wn, err := toWire(h)
	if err != nil {
		// Only UnknownData with hand-corrupted raw bytes can fail here.
		return WireNode{ID: string(h.ID())}
	}
	return wn
}

func toWire(h *scene.Handle) (WireNode, error) {
	n := h.Data()
	raw, err := encodeData(n.Data)
	if err != nil {
		return WireNode{}, fmt.Errorf("export %s: %w", n.ID.Short(), err)
	}
	wn := WireNode{
		ID:       string(n.ID),
		Type:     typeTag(n),
		Name:     n.Name,
		ParentID: string(n.ParentID),
		Metadata: n.Metadata,
		Data:     raw,
	}
	if !n.Visible {
		v := false
		wn.Visible = &v
	}
	if n.Opacity != scene.DefaultOpacity {
		o := n.Opacity
		wn.Opacity = &o
	}
	for _, child := range h.Children() {
		if child.Data().Editor.Preview {
			continue
		}
		wn.Children = append(wn.Children, string(child.ID()))
	}
	return wn, nil
}

// typeTag returns the wire type string, preserving the original tag for
// kinds this build does not know.
func typeTag(n scene.Node) string {
	if u, ok := n.Data.(scene.UnknownData); ok && u.Type != "" {
		return u.Type
	}
	return n.Kind.String()
}

// Import rebuilds a scene from a flat document. The whole file is validated
// before any scene state exists, so failure leaves nothing behind.
func Import(doc *Document) (*scene.Scene, error) {
	if doc == nil || len(doc.Nodes) == 0 {
		return nil, fmt.Errorf("%w: no nodes", ErrFormat)
	}
	if len(doc.RootNodeIDs) != 1 {
		return nil, fmt.Errorf("%w: expected exactly one root, got %d", ErrFormat, len(doc.RootNodeIDs))
	}

	nodes := make(map[scene.NodeID]*scene.Node, len(doc.Nodes))
	for id, wn := range doc.Nodes {
		if id != wn.ID {
			return nil, fmt.Errorf("%w: node keyed %q declares id %q", ErrFormat, id, wn.ID)
		}
		n, err := toNode(wn)
		if err != nil {
			return nil, err
		}
		nodes[n.ID] = n
	}
	fillDerivedChildren(nodes)

	s, err := scene.Restore(scene.NodeID(doc.RootNodeIDs[0]), nodes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return s, nil
}

func toNode(wn WireNode) (*scene.Node, error) {
	if wn.ID == "" {
		return nil, fmt.Errorf("%w: node with empty id", ErrFormat)
	}
	kind, data, err := decodeData(wn.Type, wn.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: node %s: %v", ErrFormat, wn.ID, err)
	}
	n := &scene.Node{
		ID:       scene.NodeID(wn.ID),
		Kind:     kind,
		Name:     wn.Name,
		Visible:  true,
		Opacity:  scene.DefaultOpacity,
		ParentID: scene.NodeID(wn.ParentID),
		Metadata: wn.Metadata,
		Data:     data,
	}
	if wn.Visible != nil {
		n.Visible = *wn.Visible
	}
	if wn.Opacity != nil {
		n.Opacity = *wn.Opacity
	}
	for _, c := range wn.Children {
		n.Children = append(n.Children, scene.NodeID(c))
	}
	return n, nil
}

// fillDerivedChildren reconstructs child lists from parent pointers for
// nodes that omit childIds, a convenience for hand-authored documents.
// Derived siblings are ordered by id; explicit lists are left untouched.
func fillDerivedChildren(nodes map[scene.NodeID]*scene.Node) {
	derived := make(map[scene.NodeID][]scene.NodeID)
	for id, n := range nodes {
		if n.ParentID.IsZero() {
			continue
		}
		parent, ok := nodes[n.ParentID]
		if !ok || parent.Children != nil {
			continue
		}
		derived[n.ParentID] = append(derived[n.ParentID], id)
	}
	for pid, kids := range derived {
		sort.Slice(kids, func(i, j int) bool { return kids[i] < kids[j] })
		nodes[pid].Children = kids
	}
}

// Marshal serializes a scene to indented flat-form JSON.
func Marshal(s *scene.Scene) ([]byte, error) {
	doc, err := Export(s)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Unmarshal parses flat-form JSON and rebuilds the scene.
func Unmarshal(data []byte) (*scene.Scene, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return Import(&doc)
}
