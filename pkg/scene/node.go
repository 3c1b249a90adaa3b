package scene

// NodeKind enumerates the node types of the scene graph.
type NodeKind int

const (
	KindSite NodeKind = iota // document root
	KindBuilding
	KindLevel
	KindWall
	KindDoor
	KindWindow
	KindColumn
	KindRoof
	KindStair
	KindStairSegment
	KindItem
	KindZone
	KindGroup
	KindImage
	KindScan
	KindLandscape
	KindProperty
	KindTerrain
	KindEnvironment
	KindUnknown // node kind from a newer document, carried opaquely
)

var kindNames = map[NodeKind]string{
	KindSite:         "site",
	KindBuilding:     "building",
	KindLevel:        "level",
	KindWall:         "wall",
	KindDoor:         "door",
	KindWindow:       "window",
	KindColumn:       "column",
	KindRoof:         "roof",
	KindStair:        "stair",
	KindStairSegment: "stairsegment",
	KindItem:         "item",
	KindZone:         "zone",
	KindGroup:        "group",
	KindImage:        "image",
	KindScan:         "scan",
	KindLandscape:    "landscape",
	KindProperty:     "property",
	KindTerrain:      "terrain",
	KindEnvironment:  "environment",
	KindUnknown:      "unknown",
}

func (k NodeKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseNodeKind maps a wire type tag to a NodeKind. Unrecognized tags map to
// KindUnknown so documents written by newer editors still load.
func ParseNodeKind(s string) NodeKind {
	for k, name := range kindNames {
		if name == s && k != KindUnknown {
			return k
		}
	}
	return KindUnknown
}

// EditorState holds transient flags used only during interactive editing.
// It is never persisted and never feeds derived computations.
type EditorState struct {
	Preview  bool // staged placement, not yet committed
	CanPlace bool // current placement is geometrically valid
}

// Node is the atomic element of the scene graph. Geometric fields are always
// expressed in the coordinate space of the immediate parent; world
// coordinates are derived by composing frames along the parent chain.
type Node struct {
	ID       NodeID
	Kind     NodeKind
	Name     string
	Visible  bool
	Opacity  float64 // 0-100
	ParentID NodeID  // zero only for the root
	Children []NodeID
	Metadata map[string]any
	Editor   EditorState
	Data     NodeData
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}
