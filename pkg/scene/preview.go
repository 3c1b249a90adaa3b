package scene

import "fmt"

// Interactive placement is a two-phase commit. StagePreview creates a node
// in the Pending state; Commit or Discard resolve it, and both resolutions
// are terminal. Pending nodes never reach persistence, collision queries or
// room detection.

// StagePreview inserts an uncommitted preview node under parentID and
// returns its id. The node is prepended to the parent's children so hit
// tests see it first.
func (s *Scene) StagePreview(parentID NodeID, d Draft) (NodeID, error) {
	d.Preview = true
	return s.CreateNode(parentID, d)
}

// Commit promotes a Pending preview to a committed node and returns its
// final id. The node enters the spatial index and its level is queued for
// room re-detection. Committing an id that is not Pending fails with
// ErrNotFound.
func (s *Scene) Commit(previewID NodeID) (NodeID, error) {
	if !s.staged[previewID] {
		return ZeroID, fmt.Errorf("commit %s: no pending preview: %w", previewID.Short(), ErrNotFound)
	}
	n := s.nodes[previewID]
	delete(s.staged, previewID)
	n.Editor.Preview = false
	s.syncDerived(n)
	for _, cid := range s.subtree(previewID) {
		if cid == previewID {
			continue
		}
		c := s.nodes[cid]
		delete(s.staged, cid)
		c.Editor.Preview = false
		s.syncDerived(c)
	}
	return n.ID, nil
}

// Discard removes a Pending preview without any residual effect. Discarding
// an id that is not Pending is a no-op.
func (s *Scene) Discard(previewID NodeID) {
	if !s.staged[previewID] {
		return
	}
	s.DeleteNode(previewID)
}

// IsPending reports whether the id names a staged, unresolved preview.
func (s *Scene) IsPending(id NodeID) bool { return s.staged[id] }
