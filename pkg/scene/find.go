package scene

// Filter selects nodes for Find. Zero-valued fields are ignored. Preview
// nodes are excluded unless IncludePreviews is set.
type Filter struct {
	Kinds           []NodeKind // empty means any kind
	LevelID         NodeID     // restrict to descendants of this level
	BuildingID      NodeID     // restrict to descendants of this building
	SiteID          NodeID     // restrict to descendants of this site
	Predicate       func(Node) bool
	IncludePreviews bool
}

// Find returns handles to every node matching the filter, in deterministic
// document order (depth first along children arrays). Results reflect the
// tree at call time; nothing is cached across mutations.
func (s *Scene) Find(f Filter) []*Handle {
	kindSet := map[NodeKind]bool{}
	for _, k := range f.Kinds {
		kindSet[k] = true
	}
	var out []*Handle
	s.walk(s.root, func(n *Node) bool {
		if n.Editor.Preview && !f.IncludePreviews {
			return false // preview subtrees are invisible wholesale
		}
		if len(kindSet) > 0 && !kindSet[n.Kind] {
			return true
		}
		if !f.LevelID.IsZero() && !s.hasAncestor(n.ID, f.LevelID, KindLevel) {
			return true
		}
		if !f.BuildingID.IsZero() && !s.hasAncestor(n.ID, f.BuildingID, KindBuilding) {
			return true
		}
		if !f.SiteID.IsZero() && !s.hasAncestor(n.ID, f.SiteID, KindSite) {
			return true
		}
		if f.Predicate != nil && !f.Predicate(*n) {
			return true
		}
		out = append(out, &Handle{s: s, id: n.ID})
		return true
	})
	return out
}

// hasAncestor walks the parent chain looking for the given ancestor id of
// the given kind. Ancestry is computed, never stored redundantly on nodes.
func (s *Scene) hasAncestor(id, ancestorID NodeID, kind NodeKind) bool {
	for n := s.nodes[id]; n != nil; n = s.nodes[n.ParentID] {
		if n.ID == ancestorID && n.Kind == kind {
			return true
		}
		if n.ParentID.IsZero() {
			break
		}
	}
	return false
}
