package document

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/mvetre/atrium/pkg/scene"
)

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

// buildHouse makes a scene with a building, a level, two walls (one hosting
// a door), and a zone, returning the scene and the wall that hosts the door.
func buildHouse(t *testing.T) (*scene.Scene, scene.NodeID) {
	t.Helper()
	s := scene.New()
	mustCreate := func(parent scene.NodeID, d scene.Draft) scene.NodeID {
		t.Helper()
		id, err := s.CreateNode(parent, d)
		if err != nil {
			t.Fatalf("create %v: %v", d.Kind, err)
		}
		return id
	}
	building := mustCreate(s.Root(), scene.Draft{Kind: scene.KindBuilding, Name: "house"})
	level := mustCreate(building, scene.Draft{Kind: scene.KindLevel, Name: "ground"})
	wall := mustCreate(level, scene.Draft{Kind: scene.KindWall, Data: scene.WallData{
		Start: scene.Vec2{X: 0, Y: 0}, End: scene.Vec2{X: 5, Y: 0}, Thickness: 0.2,
	}})
	mustCreate(wall, scene.Draft{Kind: scene.KindDoor, Data: scene.DoorData{
		Position: scene.Vec2{X: 2, Y: 0}, Width: 0.9, Swing: "left",
	}})
	mustCreate(level, scene.Draft{Kind: scene.KindWall, Data: scene.WallData{
		Start: scene.Vec2{X: 5, Y: 0}, End: scene.Vec2{X: 5, Y: 5}, Thickness: 0.2,
	}})
	mustCreate(level, scene.Draft{
		Kind:     scene.KindZone,
		Name:     "kitchen",
		Metadata: map[string]any{"color": "#aabbcc"},
		Data: scene.ZoneData{
			Outline:  []scene.Vec2{{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 3, Y: 3}},
			Category: "kitchen",
		},
	})
	return s, wall
}

func mustMarshal(t *testing.T, s *scene.Scene) []byte {
	t.Helper()
	data, err := Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func mustUnmarshal(t *testing.T, data []byte) *scene.Scene {
	t.Helper()
	s, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return s
}

// ---------------------------------------------------------------------------
// Flat round-trip
// ---------------------------------------------------------------------------

func TestFlatRoundTrip(t *testing.T) {
	s, wall := buildHouse(t)
	restored := mustUnmarshal(t, mustMarshal(t, s))

	if got, want := restored.NodeCount(), s.NodeCount(); got != want {
		t.Fatalf("node count: got %d, want %d", got, want)
	}

	h := restored.GetNode(wall)
	if h == nil {
		t.Fatalf("wall %s missing after round trip", wall)
	}
	wd, ok := h.Data().Data.(scene.WallData)
	if !ok {
		t.Fatalf("wall payload lost: %T", h.Data().Data)
	}
	if wd.End != (scene.Vec2{X: 5, Y: 0}) || wd.Thickness != 0.2 {
		t.Errorf("wall geometry changed: %+v", wd)
	}
	children := h.Children()
	if len(children) != 1 {
		t.Fatalf("wall children: got %d, want 1", len(children))
	}
	dd, ok := children[0].Data().Data.(scene.DoorData)
	if !ok || dd.Swing != "left" {
		t.Errorf("door payload changed: %+v", children[0].Data().Data)
	}
}

func TestRoundTripPreservesChildOrder(t *testing.T) {
	s := scene.New()
	building, _ := s.CreateNode(s.Root(), scene.Draft{Kind: scene.KindBuilding})
	var levels []scene.NodeID
	for _, name := range []string{"basement", "ground", "attic"} {
		id, err := s.CreateNode(building, scene.Draft{Kind: scene.KindLevel, Name: name})
		if err != nil {
			t.Fatalf("create level %s: %v", name, err)
		}
		levels = append(levels, id)
	}

	restored := mustUnmarshal(t, mustMarshal(t, s))
	got := restored.GetNode(building).Children()
	if len(got) != len(levels) {
		t.Fatalf("levels: got %d, want %d", len(got), len(levels))
	}
	for i, h := range got {
		if h.ID() != levels[i] {
			t.Errorf("child %d: got %s, want %s", i, h.ID(), levels[i])
		}
	}
}

func TestRoundTripPreservesVisibilityAndOpacity(t *testing.T) {
	s, _ := buildHouse(t)
	vis := false
	op := 35.0
	id, err := s.CreateNode(s.Root(), scene.Draft{
		Kind: scene.KindBuilding, Name: "ghost", Visible: &vis, Opacity: &op,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	restored := mustUnmarshal(t, mustMarshal(t, s))
	n := restored.GetNode(id).Data()
	if n.Visible {
		t.Error("visibility flag lost")
	}
	if n.Opacity != 35.0 {
		t.Errorf("opacity: got %v, want 35", n.Opacity)
	}
}

// ---------------------------------------------------------------------------
// Preview exclusion
// ---------------------------------------------------------------------------

func TestExportSkipsPreviews(t *testing.T) {
	s, _ := buildHouse(t)
	before := s.NodeCount()
	_, err := s.StagePreview(s.Root(), scene.Draft{Kind: scene.KindBuilding, Name: "draft"})
	if err != nil {
		t.Fatalf("stage: %v", err)
	}

	restored := mustUnmarshal(t, mustMarshal(t, s))
	if got := restored.NodeCount(); got != before {
		t.Errorf("restored node count: got %d, want %d (preview leaked)", got, before)
	}
}

// ---------------------------------------------------------------------------
// Forward compatibility
// ---------------------------------------------------------------------------

func TestUnknownKindSurvivesRoundTrip(t *testing.T) {
	payload := json.RawMessage(`{"beam":"holo","lumens":900}`)
	doc := &Document{
		Version: FormatVersion,
		Nodes: map[string]WireNode{
			"site_root": {ID: "site_root", Type: "site", Children: []string{"holo_1"}},
			"holo_1":    {ID: "holo_1", Type: "hologram", ParentID: "site_root", Data: payload},
		},
		RootNodeIDs: []string{"site_root"},
	}
	s, err := Import(doc)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	h := s.GetNode("holo_1")
	if h == nil {
		t.Fatal("unknown node dropped on import")
	}
	if h.Data().Kind != scene.KindUnknown {
		t.Fatalf("kind: got %v, want unknown", h.Data().Kind)
	}

	out, err := Export(s)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	wn, ok := out.Nodes["holo_1"]
	if !ok {
		t.Fatal("unknown node dropped on export")
	}
	if wn.Type != "hologram" {
		t.Errorf("type tag: got %q, want %q", wn.Type, "hologram")
	}
	if string(wn.Data) != string(payload) {
		t.Errorf("payload: got %s, want %s", wn.Data, payload)
	}
}

// ---------------------------------------------------------------------------
// Rejection
// ---------------------------------------------------------------------------

func TestImportRejectsMalformedDocuments(t *testing.T) {
	site := WireNode{ID: "site_root", Type: "site"}
	cases := []struct {
		name string
		doc  Document
	}{
		{"no nodes", Document{Version: 1, RootNodeIDs: []string{"x"}}},
		{"two roots", Document{
			Version:     1,
			Nodes:       map[string]WireNode{"site_root": site},
			RootNodeIDs: []string{"site_root", "site_root"},
		}},
		{"dangling parent", Document{
			Version: 1,
			Nodes: map[string]WireNode{
				"site_root": {ID: "site_root", Type: "site", Children: []string{"b1"}},
				"b1":        {ID: "b1", Type: "building", ParentID: "ghost"},
			},
			RootNodeIDs: []string{"site_root"},
		}},
		{"key id mismatch", Document{
			Version:     1,
			Nodes:       map[string]WireNode{"other": site},
			RootNodeIDs: []string{"site_root"},
		}},
		{"unreachable node", Document{
			Version: 1,
			Nodes: map[string]WireNode{
				"site_root": {ID: "site_root", Type: "site"},
				"b1":        {ID: "b1", Type: "building", ParentID: "b2", Children: []string{"b2"}},
				"b2":        {ID: "b2", Type: "building", ParentID: "b1", Children: []string{"b1"}},
			},
			RootNodeIDs: []string{"site_root"},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Import(&tc.doc); !errors.Is(err, ErrFormat) {
				t.Errorf("got %v, want ErrFormat", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Nested form
// ---------------------------------------------------------------------------

func TestNestedRoundTrip(t *testing.T) {
	s, wall := buildHouse(t)
	doc, err := ExportNested(s)
	if err != nil {
		t.Fatalf("export nested: %v", err)
	}
	restored, err := ImportNested(doc)
	if err != nil {
		t.Fatalf("import nested: %v", err)
	}
	if got, want := restored.NodeCount(), s.NodeCount(); got != want {
		t.Fatalf("node count: got %d, want %d", got, want)
	}
	if restored.GetNode(wall) == nil {
		t.Errorf("wall %s missing after nested round trip", wall)
	}
}

func TestNestedImportGeneratesMissingIDs(t *testing.T) {
	doc := &NestedDocument{
		Version: FormatVersion,
		Root: &NestedNode{
			Type: "site",
			Children: []*NestedNode{
				{Type: "building", Name: "main", Children: []*NestedNode{
					{Type: "level", Name: "ground"},
				}},
			},
		},
	}
	s, err := ImportNested(doc)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if got := s.NodeCount(); got != 3 {
		t.Errorf("node count: got %d, want 3", got)
	}
}

// ---------------------------------------------------------------------------
// Hand-authored convenience
// ---------------------------------------------------------------------------

func TestImportDerivesChildrenFromParentIDs(t *testing.T) {
	doc := &Document{
		Version: FormatVersion,
		Nodes: map[string]WireNode{
			"site_root": {ID: "site_root", Type: "site"},
			"b1":        {ID: "b1", Type: "building", ParentID: "site_root"},
			"l1":        {ID: "l1", Type: "level", ParentID: "b1"},
		},
		RootNodeIDs: []string{"site_root"},
	}
	s, err := Import(doc)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if s.GetNode("l1") == nil {
		t.Error("derived child missing")
	}
}
