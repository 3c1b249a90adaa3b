package document

import (
	"encoding/json"
	"fmt"

	"github.com/mvetre/atrium/pkg/scene"
)

// NestedNode is the tree-form serialization of one node. Parent/child links
// are implied by containment, so the form carries no ids for wiring, only
// stable ids for cross-references.
type NestedNode struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Name     string          `json:"name,omitempty"`
	Visible  *bool           `json:"visible,omitempty"`
	Opacity  *float64        `json:"opacity,omitempty"`
	Metadata map[string]any  `json:"metadata,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	Children []*NestedNode   `json:"children,omitempty"`
}

// NestedDocument wraps the tree form.
type NestedDocument struct {
	Version int         `json:"version"`
	Root    *NestedNode `json:"root"`
}

// ExportNested snapshots committed content as a tree. Same content rules as
// Export: previews and editor state are dropped.
func ExportNested(s *scene.Scene) (*NestedDocument, error) {
	root, err := exportNested(s.GetNode(s.Root()))
	if err != nil {
		return nil, err
	}
	return &NestedDocument{Version: FormatVersion, Root: root}, nil
}

func exportNested(h *scene.Handle) (*NestedNode, error) {
	n := h.Data()
	raw, err := encodeData(n.Data)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", n.ID.Short(), err)
	}
	nn := &NestedNode{
		ID:       string(n.ID),
		Type:     typeTag(n),
		Name:     n.Name,
		Metadata: n.Metadata,
		Data:     raw,
	}
	if !n.Visible {
		v := false
		nn.Visible = &v
	}
	if n.Opacity != scene.DefaultOpacity {
		o := n.Opacity
		nn.Opacity = &o
	}
	for _, child := range h.Children() {
		if child.Data().Editor.Preview {
			continue
		}
		cn, err := exportNested(child)
		if err != nil {
			return nil, err
		}
		nn.Children = append(nn.Children, cn)
	}
	return nn, nil
}

// ImportNested flattens a tree-form document and rebuilds the scene. Nodes
// without ids get fresh ones, so hand-authored fixtures may omit them.
func ImportNested(doc *NestedDocument) (*scene.Scene, error) {
	if doc == nil || doc.Root == nil {
		return nil, fmt.Errorf("%w: no root", ErrFormat)
	}
	flat := &Document{
		Version:     FormatVersion,
		Nodes:       make(map[string]WireNode),
		RootNodeIDs: nil,
	}
	rootID, err := flatten(doc.Root, "", flat)
	if err != nil {
		return nil, err
	}
	flat.RootNodeIDs = []string{rootID}
	return Import(flat)
}

func flatten(nn *NestedNode, parentID string, flat *Document) (string, error) {
	id := nn.ID
	if id == "" {
		id = string(scene.NewID(scene.ParseNodeKind(nn.Type)))
	}
	if _, dup := flat.Nodes[id]; dup {
		return "", fmt.Errorf("%w: duplicate id %q", ErrFormat, id)
	}
	wn := WireNode{
		ID:       id,
		Type:     nn.Type,
		Name:     nn.Name,
		Visible:  nn.Visible,
		Opacity:  nn.Opacity,
		ParentID: parentID,
		Metadata: nn.Metadata,
		Data:     nn.Data,
	}
	// Reserve the slot before recursing so duplicate detection sees it.
	flat.Nodes[id] = wn
	for _, child := range nn.Children {
		cid, err := flatten(child, id, flat)
		if err != nil {
			return "", err
		}
		wn.Children = append(wn.Children, cid)
	}
	flat.Nodes[id] = wn
	return id, nil
}
