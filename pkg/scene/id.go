package scene

import (
	"strings"

	"github.com/google/uuid"
)

// NewID generates a globally unique identifier for a node of the given kind,
// e.g. "wall_3f29ab41c0d2". The suffix is drawn from a random UUID, so
// collisions are practically impossible within a document's lifetime. IDs
// are immutable after creation.
func NewID(kind NodeKind) NodeID {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return NodeID(kind.String() + "_" + suffix)
}
