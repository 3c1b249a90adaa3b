package scene

import (
	"fmt"
	"sort"

	"github.com/mvetre/atrium/pkg/spatial"
)

// Scene owns the document tree and keeps its derived indexes in sync. The
// tree (parent/children links) is authoritative for structure; the flat id
// index and the spatial grid index are caches maintained by every mutation
// path. All operations are synchronous and atomic from the caller's view.
type Scene struct {
	root   NodeID
	nodes  map[NodeID]*Node
	index  *spatial.Index
	dirty  map[NodeID]bool // level ids whose committed geometry changed
	staged map[NodeID]bool // preview ids in the Pending state
}

// New creates a scene holding only a root site node. The spatial index uses
// the default grid cell size.
func New() *Scene {
	return NewWithCellSize(spatial.DefaultCellSize)
}

// NewWithCellSize creates a scene whose spatial index uses the given grid
// cell edge in world units. Non-positive sizes fall back to the default.
func NewWithCellSize(cellSize float64) *Scene {
	if cellSize <= 0 {
		cellSize = spatial.DefaultCellSize
	}
	s := &Scene{
		nodes:  make(map[NodeID]*Node),
		index:  spatial.NewIndex(cellSize),
		dirty:  make(map[NodeID]bool),
		staged: make(map[NodeID]bool),
	}
	root := &Node{
		ID:      NewID(KindSite),
		Kind:    KindSite,
		Name:    "site",
		Visible: true,
		Opacity: DefaultOpacity,
		Data:    SiteData{},
	}
	s.nodes[root.ID] = root
	s.root = root.ID
	return s
}

// Root returns the id of the root site node.
func (s *Scene) Root() NodeID { return s.root }

// NodeCount returns the total number of nodes, previews included.
func (s *Scene) NodeCount() int { return len(s.nodes) }

// Draft is the input to CreateNode. Nil optional fields receive defaults:
// Visible true, Opacity 100.
type Draft struct {
	Kind     NodeKind
	Name     string
	Visible  *bool
	Opacity  *float64
	Metadata map[string]any
	Preview  bool
	Data     NodeData
}

// CreateNode validates the draft, assigns a fresh id and inserts the node as
// a child of parentID. Committed nodes are appended to the parent's child
// list; preview nodes are prepended so interactive hit tests see them first.
// Fails with ErrNotFound if the parent does not exist and ErrInvalidParent
// if the parent kind does not accept children of the draft kind.
func (s *Scene) CreateNode(parentID NodeID, d Draft) (NodeID, error) {
	parent, ok := s.nodes[parentID]
	if !ok {
		return ZeroID, fmt.Errorf("create %s under %s: %w", d.Kind, parentID.Short(), ErrNotFound)
	}
	if !CanParent(parent.Kind, d.Kind) {
		return ZeroID, fmt.Errorf("create %s under %s: %w", d.Kind, parent.Kind, ErrInvalidParent)
	}
	data, err := ValidateData(d.Kind, d.Data)
	if err != nil {
		return ZeroID, err
	}

	n := &Node{
		ID:       NewID(d.Kind),
		Kind:     d.Kind,
		Name:     d.Name,
		Visible:  true,
		Opacity:  DefaultOpacity,
		ParentID: parentID,
		Metadata: d.Metadata,
		Editor:   EditorState{Preview: d.Preview, CanPlace: true},
		Data:     data,
	}
	if d.Visible != nil {
		n.Visible = *d.Visible
	}
	if d.Opacity != nil {
		if *d.Opacity < 0 || *d.Opacity > 100 {
			return ZeroID, validationErr(d.Kind, "opacity", "must be in [0,100], got %g", *d.Opacity)
		}
		n.Opacity = *d.Opacity
	}

	s.nodes[n.ID] = n
	if d.Preview {
		parent.Children = append([]NodeID{n.ID}, parent.Children...)
		s.staged[n.ID] = true
	} else {
		parent.Children = append(parent.Children, n.ID)
		s.syncDerived(n)
	}
	return n.ID, nil
}

// Patch describes a shallow merge applied by UpdateNode. Nil fields are left
// untouched; id and kind never change.
type Patch struct {
	Name     *string
	Visible  *bool
	Opacity  *float64
	CanPlace *bool
	ParentID *NodeID        // reparent; rejected if it would create a cycle
	Metadata map[string]any // merged key by key
	Data     NodeData       // replaces the kind payload, re-validated
	// InteriorSide updates the derived classification on a wall. This is the
	// field room detection writes back through; it never touches geometry.
	InteriorSide *InteriorSide
}

// UpdateNode shallow-merges the patch into the node. Fails with ErrNotFound
// for an absent id, ErrCycle if reparenting would make the node its own
// ancestor, and ValidationError for malformed payloads.
func (s *Scene) UpdateNode(id NodeID, p Patch) error {
	n, ok := s.nodes[id]
	if !ok {
		return fmt.Errorf("update %s: %w", id.Short(), ErrNotFound)
	}

	// Validate everything before mutating any state.
	var newData NodeData
	if p.Data != nil {
		d, err := ValidateData(n.Kind, p.Data)
		if err != nil {
			return err
		}
		newData = d
	}
	if p.Opacity != nil && (*p.Opacity < 0 || *p.Opacity > 100) {
		return validationErr(n.Kind, "opacity", "must be in [0,100], got %g", *p.Opacity)
	}
	if p.InteriorSide != nil {
		if n.Kind != KindWall {
			return validationErr(n.Kind, "interiorSide", "only walls carry a classification")
		}
		if !ValidInteriorSides[*p.InteriorSide] {
			return validationErr(n.Kind, "interiorSide", "unknown value %q", *p.InteriorSide)
		}
	}
	var newParent *Node
	if p.ParentID != nil && *p.ParentID != n.ParentID {
		if id == s.root {
			return fmt.Errorf("update %s: the root cannot be reparented: %w", id.Short(), ErrInvalidParent)
		}
		np, ok := s.nodes[*p.ParentID]
		if !ok {
			return fmt.Errorf("reparent %s under %s: %w", id.Short(), p.ParentID.Short(), ErrNotFound)
		}
		if !CanParent(np.Kind, n.Kind) {
			return fmt.Errorf("reparent %s under %s: %w", n.Kind, np.Kind, ErrInvalidParent)
		}
		for anc := np; anc != nil; anc = s.nodes[anc.ParentID] {
			if anc.ID == id {
				return fmt.Errorf("reparent %s under %s: %w", id.Short(), np.ID.Short(), ErrCycle)
			}
			if anc.ParentID.IsZero() {
				break
			}
		}
		newParent = np
	}

	geometryChanged := newData != nil || newParent != nil
	if geometryChanged {
		// Old placements leave their level before links change; the whole
		// subtree may move levels with its ancestor.
		for _, cid := range s.subtree(id) {
			s.unsyncDerived(s.nodes[cid])
		}
	}

	if p.Name != nil {
		n.Name = *p.Name
	}
	if p.Visible != nil {
		n.Visible = *p.Visible
	}
	if p.Opacity != nil {
		n.Opacity = *p.Opacity
	}
	if p.CanPlace != nil {
		n.Editor.CanPlace = *p.CanPlace
	}
	for k, v := range p.Metadata {
		if n.Metadata == nil {
			n.Metadata = make(map[string]any)
		}
		n.Metadata[k] = v
	}
	if newData != nil {
		n.Data = newData
	}
	if p.InteriorSide != nil {
		wd := n.Data.(WallData)
		wd.InteriorSide = *p.InteriorSide
		n.Data = wd
	}
	if newParent != nil {
		old := s.nodes[n.ParentID]
		old.Children = removeID(old.Children, id)
		newParent.Children = append(newParent.Children, id)
		n.ParentID = newParent.ID
	}

	if geometryChanged {
		for _, cid := range s.subtree(id) {
			s.syncDerived(s.nodes[cid])
		}
	}
	return nil
}

// DeleteNode removes the node and all descendants from the tree and every
// derived index. Deleting an unknown id is a no-op, so duplicate cleanup
// calls from interactive preview teardown stay safe.
func (s *Scene) DeleteNode(id NodeID) {
	n, ok := s.nodes[id]
	if !ok || id == s.root {
		return
	}
	ids := s.subtree(id)
	if parent, ok := s.nodes[n.ParentID]; ok {
		parent.Children = removeID(parent.Children, id)
	}
	// Unsync before any node is removed: levelOf needs the parent chain.
	for _, cid := range ids {
		s.unsyncDerived(s.nodes[cid])
	}
	for _, cid := range ids {
		delete(s.staged, cid)
		delete(s.nodes, cid)
	}
}

// GetNode returns a handle bound to the id, or nil if the id is absent.
func (s *Scene) GetNode(id NodeID) *Handle {
	if _, ok := s.nodes[id]; !ok {
		return nil
	}
	return &Handle{s: s, id: id}
}

// Handle is a bound reference to a node offering snapshot and convenience
// mutation accessors.
type Handle struct {
	s  *Scene
	id NodeID
}

// ID returns the bound node id.
func (h *Handle) ID() NodeID { return h.id }

// Data returns a snapshot of the node's current state. The snapshot's slices
// and maps are copies; mutating them does not affect the scene.
func (h *Handle) Data() Node {
	n := h.s.nodes[h.id]
	if n == nil {
		return Node{}
	}
	snap := *n
	snap.Children = append([]NodeID(nil), n.Children...)
	if n.Metadata != nil {
		snap.Metadata = make(map[string]any, len(n.Metadata))
		for k, v := range n.Metadata {
			snap.Metadata[k] = v
		}
	}
	return snap
}

// Parent returns a handle to the parent, or nil for the root.
func (h *Handle) Parent() *Handle {
	n := h.s.nodes[h.id]
	if n == nil || n.ParentID.IsZero() {
		return nil
	}
	return h.s.GetNode(n.ParentID)
}

// Children returns handles to the node's children in document order.
func (h *Handle) Children() []*Handle {
	n := h.s.nodes[h.id]
	if n == nil {
		return nil
	}
	out := make([]*Handle, 0, len(n.Children))
	for _, cid := range n.Children {
		out = append(out, &Handle{s: h.s, id: cid})
	}
	return out
}

// Update applies a patch to the bound node.
func (h *Handle) Update(p Patch) error { return h.s.UpdateNode(h.id, p) }

// Delete removes the bound node and its descendants.
func (h *Handle) Delete() { h.s.DeleteNode(h.id) }

// ---------------------------------------------------------------------------
// Derived-index synchronization
// ---------------------------------------------------------------------------

// collidable reports whether a kind participates in spatial queries.
var collidable = map[NodeKind]bool{
	KindWall:   true,
	KindColumn: true,
	KindItem:   true,
}

// syncDerived installs a committed node into the spatial index and marks its
// level for room re-detection. Preview nodes are excluded from all derived
// state; nodes outside any level (site decorations) and non-collidable kinds
// only produce the dirty mark where relevant.
func (s *Scene) syncDerived(n *Node) {
	if n.Editor.Preview {
		return
	}
	levelID := s.levelOf(n.ID)
	if levelID.IsZero() {
		return
	}
	if collidable[n.Kind] {
		if b, ok := s.levelBounds(n); ok {
			s.index.Insert(string(levelID), string(n.ID), b)
		}
	}
	if n.Kind == KindWall || n.Kind == KindGroup {
		s.dirty[levelID] = true
	}
}

// unsyncDerived removes a node from the spatial index and marks its level.
func (s *Scene) unsyncDerived(n *Node) {
	if n.Editor.Preview {
		return
	}
	levelID := s.levelOf(n.ID)
	if levelID.IsZero() {
		return
	}
	if collidable[n.Kind] {
		s.index.Remove(string(levelID), string(n.ID))
	}
	if n.Kind == KindWall || n.Kind == KindGroup {
		s.dirty[levelID] = true
	}
}

// Query returns ids of committed nodes on the level whose bounds intersect
// the box, in sorted order.
func (s *Scene) Query(levelID NodeID, b spatial.Bounds) []NodeID {
	ids := s.index.Query(string(levelID), b)
	out := make([]NodeID, len(ids))
	for i, id := range ids {
		out[i] = NodeID(id)
	}
	return out
}

// RebuildSpatialIndex constructs a fresh index from the current tree. The
// result must be query-equivalent to the incrementally maintained index at
// any point in time; callers may also swap it in to recover from suspected
// drift.
func (s *Scene) RebuildSpatialIndex() *spatial.Index {
	return s.rebuildIndex(s.index.CellSize())
}

// GridCellSize returns the spatial index cell edge in world units.
func (s *Scene) GridCellSize() float64 {
	return s.index.CellSize()
}

// SetGridCellSize reindexes the committed tree into a fresh grid with the
// given cell edge. Queries are unaffected beyond bucket granularity.
func (s *Scene) SetGridCellSize(size float64) {
	s.index = s.rebuildIndex(size)
}

func (s *Scene) rebuildIndex(cellSize float64) *spatial.Index {
	ix := spatial.NewIndex(cellSize)
	s.walk(s.root, func(n *Node) bool {
		if n.Editor.Preview {
			return false
		}
		if collidable[n.Kind] {
			if levelID := s.levelOf(n.ID); !levelID.IsZero() {
				if b, ok := s.levelBounds(n); ok {
					ix.Insert(string(levelID), string(n.ID), b)
				}
			}
		}
		return true
	})
	return ix
}

// DirtyLevels drains the set of level ids whose committed wall geometry
// changed since the last call, in sorted order. Room detection consumers
// re-run per returned level; the fingerprint check makes redundant runs
// cheap, so over-reporting is harmless.
func (s *Scene) DirtyLevels() []NodeID {
	out := make([]NodeID, 0, len(s.dirty))
	for id := range s.dirty {
		out = append(out, id)
	}
	s.dirty = make(map[NodeID]bool)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MarkLevelDirty queues a level for room re-detection regardless of tracked
// changes, e.g. after a document load.
func (s *Scene) MarkLevelDirty(levelID NodeID) {
	if n, ok := s.nodes[levelID]; ok && n.Kind == KindLevel {
		s.dirty[levelID] = true
	}
}

// ---------------------------------------------------------------------------
// Internal helpers
// ---------------------------------------------------------------------------

// levelOf walks the parent chain to the enclosing level, or zero when the
// node sits outside any level.
func (s *Scene) levelOf(id NodeID) NodeID {
	for n := s.nodes[id]; n != nil; n = s.nodes[n.ParentID] {
		if n.Kind == KindLevel {
			return n.ID
		}
		if n.ParentID.IsZero() {
			break
		}
	}
	return ZeroID
}

// subtree returns the ids of the node and all descendants, depth first.
func (s *Scene) subtree(id NodeID) []NodeID {
	var out []NodeID
	var visit func(NodeID)
	visit = func(cur NodeID) {
		n, ok := s.nodes[cur]
		if !ok {
			return
		}
		out = append(out, cur)
		for _, cid := range n.Children {
			visit(cid)
		}
	}
	visit(id)
	return out
}

// walk traverses depth first in document order. The visitor returning false
// prunes the subtree.
func (s *Scene) walk(id NodeID, visit func(*Node) bool) {
	n, ok := s.nodes[id]
	if !ok {
		return
	}
	if !visit(n) {
		return
	}
	for _, cid := range n.Children {
		s.walk(cid, visit)
	}
}

func removeID(ids []NodeID, id NodeID) []NodeID {
	for i := range ids {
		if ids[i] == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
