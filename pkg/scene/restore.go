package scene

import "fmt"

// Restore builds a Scene from a deserialized node set. It verifies the
// invariants a live scene guarantees: ids are unique and match map keys,
// every non-root node has exactly one parent that lists it as a child, the
// structure is acyclic and fully reachable from the root, and payloads match
// their kinds. Only then does it construct the scene, so a malformed document
// never produces a partially installed graph. Editor-transient state is
// reset; loaded nodes are always committed.
func Restore(rootID NodeID, nodes map[NodeID]*Node) (*Scene, error) {
	root, ok := nodes[rootID]
	if !ok {
		return nil, fmt.Errorf("restore: root %s: %w", rootID.Short(), ErrNotFound)
	}
	if root.Kind != KindSite {
		return nil, validationErr(root.Kind, "kind", "document root must be a site node")
	}
	if !root.ParentID.IsZero() {
		return nil, validationErr(root.Kind, "parentId", "root must not have a parent")
	}

	childCount := make(map[NodeID]int, len(nodes))
	for id, n := range nodes {
		if n.ID != id {
			return nil, validationErr(n.Kind, "id", "map key %s does not match node id %s", id.Short(), n.ID.Short())
		}
		if id != rootID {
			parent, ok := nodes[n.ParentID]
			if !ok {
				return nil, fmt.Errorf("restore: parent %s of %s: %w", n.ParentID.Short(), id.Short(), ErrNotFound)
			}
			if !CanParent(parent.Kind, n.Kind) {
				return nil, fmt.Errorf("restore: %s under %s: %w", n.Kind, parent.Kind, ErrInvalidParent)
			}
		}
		for _, cid := range n.Children {
			c, ok := nodes[cid]
			if !ok {
				return nil, fmt.Errorf("restore: child %s of %s: %w", cid.Short(), id.Short(), ErrNotFound)
			}
			if c.ParentID != id {
				return nil, validationErr(c.Kind, "parentId", "%s is listed under %s but points at %s",
					cid.Short(), id.Short(), c.ParentID.Short())
			}
			childCount[cid]++
		}
		data, err := ValidateData(n.Kind, n.Data)
		if err != nil {
			return nil, err
		}
		n.Data = data
		if n.Opacity < 0 || n.Opacity > 100 {
			return nil, validationErr(n.Kind, "opacity", "must be in [0,100], got %g", n.Opacity)
		}
	}
	for id := range nodes {
		if id == rootID {
			continue
		}
		if childCount[id] != 1 {
			return nil, validationErr(nodes[id].Kind, "children",
				"node %s appears in %d child lists, want 1", id.Short(), childCount[id])
		}
	}

	// Reachability from the root rules out cycles among the child links;
	// with parent/child consistency already checked, reaching every node is
	// equivalent to acyclicity.
	reached := 0
	seen := make(map[NodeID]bool, len(nodes))
	var visit func(NodeID) error
	visit = func(id NodeID) error {
		if seen[id] {
			return fmt.Errorf("restore: node %s reached twice: %w", id.Short(), ErrCycle)
		}
		seen[id] = true
		reached++
		for _, cid := range nodes[id].Children {
			if err := visit(cid); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(rootID); err != nil {
		return nil, err
	}
	if reached != len(nodes) {
		return nil, fmt.Errorf("restore: %d of %d nodes unreachable from root: %w",
			len(nodes)-reached, len(nodes), ErrCycle)
	}

	s := New()
	delete(s.nodes, s.root)
	s.root = rootID
	for id, n := range nodes {
		n.Editor = EditorState{CanPlace: true}
		s.nodes[id] = n
	}
	s.walk(s.root, func(n *Node) bool {
		s.syncDerived(n)
		return true
	})
	return s, nil
}
