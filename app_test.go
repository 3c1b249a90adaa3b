package main

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/mvetre/atrium/pkg/config"
	"github.com/mvetre/atrium/pkg/scene"
)

// cornerPlan is a small plan used where tests only need a populated scene:
// two walls meeting at a corner, one with a door.
const cornerPlan = `
(building "test"
  (level "ground"
    (wall :from (vec2 0 0) :to (vec2 4 0) :thickness 0.2
      (door :at 1.0 :width 0.9))
    (wall :from (vec2 4 0) :to (vec2 4 3) :thickness 0.2)))
`

// squarePlan closes a 6x6 outline so room detection has something to find.
const squarePlan = `
(building "test"
  (level "ground"
    (wall :from (vec2 0 0) :to (vec2 6 0) :thickness 0.2)
    (wall :from (vec2 6 0) :to (vec2 6 6) :thickness 0.2)
    (wall :from (vec2 6 6) :to (vec2 0 6) :thickness 0.2)
    (wall :from (vec2 0 6) :to (vec2 0 0) :thickness 0.2)))
`

func evaluateOK(t *testing.T, app *App, source string) EvalResult {
	t.Helper()
	result := app.Evaluate(source)
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}
	return result
}

// TestE2EStudioExample exercises the full pipeline: plan source → engine →
// scene → tessellate → meshes. This is the same path the Wails Evaluate
// binding takes, without the Wails runtime.
func TestE2EStudioExample(t *testing.T) {
	if testing.Short() {
		t.Skip("tessellates a full example plan")
	}
	app := NewApp(nil)

	source, err := os.ReadFile("examples/studio.atrium")
	if err != nil {
		t.Fatalf("failed to read studio.atrium: %v", err)
	}

	result := evaluateOK(t, app, string(source))

	// 6 walls, 1 column, 3 items, 2 zones.
	if len(result.Meshes) != 12 {
		t.Fatalf("expected 12 meshes, got %d", len(result.Meshes))
	}

	seen := map[string]bool{}
	for _, m := range result.Meshes {
		if m.NodeID == "" {
			t.Error("mesh without a node id")
		}
		if seen[m.NodeID] {
			t.Errorf("duplicate mesh for node %s", m.NodeID)
		}
		seen[m.NodeID] = true
		if len(m.Vertices) == 0 || len(m.Normals) == 0 || len(m.Indices) == 0 {
			t.Errorf("node %s: empty geometry", m.NodeID)
		}
		if m.Color == "" {
			t.Errorf("node %s: no color assigned", m.NodeID)
		}
	}
}

// TestEvaluateErrorKeepsScene verifies that a failed evaluation does not
// discard the last good scene.
func TestEvaluateErrorKeepsScene(t *testing.T) {
	app := NewApp(nil)
	evaluateOK(t, app, cornerPlan)
	before := app.scene.NodeCount()

	result := app.Evaluate(`(building "broken" (level "l" (wall :from (vec2 0 0) :to (vec2 1 0) :thickness -1)))`)
	if len(result.Errors) == 0 {
		t.Fatal("expected eval errors for negative wall thickness")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected no meshes on error, got %d", len(result.Meshes))
	}
	if app.scene.NodeCount() != before {
		t.Errorf("scene changed on failed evaluation: %d -> %d nodes", before, app.scene.NodeCount())
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	app := NewApp(nil)
	evaluateOK(t, app, cornerPlan)

	saved, err := app.SaveDocument()
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	fresh := NewApp(nil)
	if err := fresh.LoadDocument(saved); err != nil {
		t.Fatalf("load: %v", err)
	}
	resaved, err := fresh.SaveDocument()
	if err != nil {
		t.Fatalf("resave: %v", err)
	}
	if saved != resaved {
		t.Error("document changed across a save/load/save cycle")
	}
}

func TestLoadRejectsMalformedDocument(t *testing.T) {
	app := NewApp(nil)
	evaluateOK(t, app, cornerPlan)
	before := app.scene.NodeCount()

	if err := app.LoadDocument("{not json"); err == nil {
		t.Error("expected error for malformed JSON")
	}
	if err := app.LoadDocument(`{"version":1,"nodes":{},"rootNodeIds":[]}`); err == nil {
		t.Error("expected error for document without a root")
	}
	if app.scene.NodeCount() != before {
		t.Error("failed load must leave the scene untouched")
	}
}

func TestCreateUpdateDeleteNode(t *testing.T) {
	app := NewApp(nil)
	root := string(app.scene.Root())

	buildingID, err := app.CreateNode(root, NodeDraft{Type: "building", Name: "b"})
	if err != nil {
		t.Fatalf("create building: %v", err)
	}
	levelID, err := app.CreateNode(buildingID, NodeDraft{Type: "level", Name: "ground"})
	if err != nil {
		t.Fatalf("create level: %v", err)
	}
	wallID, err := app.CreateNode(levelID, NodeDraft{
		Type: "wall",
		Data: json.RawMessage(`{"start":{"x":0,"y":0},"end":{"x":4,"y":0},"thickness":0.2}`),
	})
	if err != nil {
		t.Fatalf("create wall: %v", err)
	}

	wn, err := app.GetNode(wallID)
	if err != nil {
		t.Fatalf("get wall: %v", err)
	}
	if wn.Type != "wall" || wn.ParentID != levelID {
		t.Errorf("unexpected wire node: type %q parent %q", wn.Type, wn.ParentID)
	}

	name := "south wall"
	if err := app.UpdateNode(wallID, NodePatch{Name: &name}); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if err := app.UpdateNode(wallID, NodePatch{
		Type: "wall",
		Data: json.RawMessage(`{"start":{"x":0,"y":0},"end":{"x":5,"y":0},"thickness":0.3}`),
	}); err != nil {
		t.Fatalf("update geometry: %v", err)
	}
	wn, err = app.GetNode(wallID)
	if err != nil {
		t.Fatalf("get wall after update: %v", err)
	}
	if wn.Name != "south wall" {
		t.Errorf("name = %q, want \"south wall\"", wn.Name)
	}
	var wd scene.WallData
	if err := json.Unmarshal(wn.Data, &wd); err != nil {
		t.Fatalf("decode wall data: %v", err)
	}
	if wd.End.X != 5 || wd.Thickness != 0.3 {
		t.Errorf("geometry not updated: end.x=%g thickness=%g", wd.End.X, wd.Thickness)
	}

	app.DeleteNode(levelID)
	if _, err := app.GetNode(wallID); err == nil {
		t.Error("wall should be gone after deleting its level")
	}
}

func TestCreateWallAppliesConfiguredDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.Walls.Thickness = 0.3
	cfg.Walls.Height = 3.0
	app := NewApp(cfg)
	root := string(app.scene.Root())

	buildingID, err := app.CreateNode(root, NodeDraft{Type: "building", Name: "b"})
	if err != nil {
		t.Fatalf("create building: %v", err)
	}
	levelID, err := app.CreateNode(buildingID, NodeDraft{Type: "level", Name: "ground"})
	if err != nil {
		t.Fatalf("create level: %v", err)
	}
	wallID, err := app.CreateNode(levelID, NodeDraft{
		Type: "wall",
		Data: json.RawMessage(`{"start":{"x":0,"y":0},"end":{"x":4,"y":0}}`),
	})
	if err != nil {
		t.Fatalf("create wall without thickness: %v", err)
	}

	wn, err := app.GetNode(wallID)
	if err != nil {
		t.Fatalf("get wall: %v", err)
	}
	var wd scene.WallData
	if err := json.Unmarshal(wn.Data, &wd); err != nil {
		t.Fatalf("decode wall data: %v", err)
	}
	if wd.Thickness != 0.3 || wd.Height != 3.0 {
		t.Errorf("defaults not applied: thickness=%g height=%g", wd.Thickness, wd.Height)
	}
}

func TestEditorGridAndSnapSettings(t *testing.T) {
	cfg := config.Default()
	cfg.Editor.GridCellSize = 0.5
	cfg.Editor.SnapStep = 0.25
	app := NewApp(cfg)

	if got := app.scene.GridCellSize(); got != 0.5 {
		t.Errorf("scene grid cell size = %v, want 0.5", got)
	}

	// Evaluated and loaded scenes keep the configured grid.
	evaluateOK(t, app, cornerPlan)
	if got := app.scene.GridCellSize(); got != 0.5 {
		t.Errorf("evaluated scene grid cell size = %v, want 0.5", got)
	}
	saved, err := app.SaveDocument()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := app.LoadDocument(saved); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := app.scene.GridCellSize(); got != 0.5 {
		t.Errorf("loaded scene grid cell size = %v, want 0.5", got)
	}

	p := app.SnapPoint(1.13, -0.68)
	if p[0] != 1.25 || p[1] != -0.75 {
		t.Errorf("SnapPoint(1.13,-0.68) = %v, want [1.25 -0.75]", p)
	}
}

func TestCreateNodeRejectsBadInput(t *testing.T) {
	app := NewApp(nil)
	root := string(app.scene.Root())

	if _, err := app.CreateNode(root, NodeDraft{Type: "level"}); err == nil {
		t.Error("level directly under the site root should be rejected")
	}
	if _, err := app.CreateNode("no-such-node", NodeDraft{Type: "building"}); err == nil {
		t.Error("unknown parent id should be rejected")
	}
}

func TestPreviewLifecycle(t *testing.T) {
	app := NewApp(nil)
	evaluateOK(t, app, cornerPlan)
	levels := app.scene.Find(scene.Filter{Kinds: []scene.NodeKind{scene.KindLevel}})
	if len(levels) != 1 {
		t.Fatalf("expected 1 level, got %d", len(levels))
	}
	levelID := string(levels[0].ID())

	wallData := json.RawMessage(`{"start":{"x":0,"y":3},"end":{"x":4,"y":3},"thickness":0.2}`)
	previewID, err := app.StagePreview(levelID, NodeDraft{Type: "wall", Data: wallData})
	if err != nil {
		t.Fatalf("stage: %v", err)
	}

	saved, err := app.SaveDocument()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if strings.Contains(saved, previewID) {
		t.Error("staged preview leaked into the saved document")
	}

	committedID, err := app.CommitPreview(previewID)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	saved, err = app.SaveDocument()
	if err != nil {
		t.Fatalf("save after commit: %v", err)
	}
	if !strings.Contains(saved, committedID) {
		t.Error("committed wall missing from the saved document")
	}

	discardID, err := app.StagePreview(levelID, NodeDraft{Type: "wall", Data: wallData})
	if err != nil {
		t.Fatalf("stage second preview: %v", err)
	}
	app.DiscardPreview(discardID)
	if _, err := app.GetNode(discardID); err == nil {
		t.Error("discarded preview still present")
	}
}

func TestQueryRegion(t *testing.T) {
	app := NewApp(nil)
	evaluateOK(t, app, cornerPlan)
	levels := app.scene.Find(scene.Filter{Kinds: []scene.NodeKind{scene.KindLevel}})
	levelID := string(levels[0].ID())

	hits := app.QueryRegion(levelID, 1, -1, 3, 1)
	if len(hits) != 1 {
		t.Fatalf("expected 1 wall across the bottom span, got %d", len(hits))
	}
	if hits := app.QueryRegion(levelID, 10, 10, 20, 20); len(hits) != 0 {
		t.Errorf("expected no hits far from the geometry, got %d", len(hits))
	}
}

func TestDetectRoomsAfterEvaluate(t *testing.T) {
	app := NewApp(nil)
	evaluateOK(t, app, squarePlan)

	updates := app.DetectRooms()
	if len(updates) != 4 {
		t.Fatalf("expected 4 wall updates for a closed square, got %d", len(updates))
	}
	for _, u := range updates {
		if u.Side != string(scene.SideFront) {
			t.Errorf("wall %s: side %q, want %q", u.NodeID, u.Side, scene.SideFront)
		}
	}

	// Nothing changed, so a second pass has nothing to report.
	if updates := app.DetectRooms(); len(updates) != 0 {
		t.Errorf("expected no updates on an unchanged scene, got %d", len(updates))
	}
}

func TestDetectRoomsAfterLoad(t *testing.T) {
	app := NewApp(nil)
	evaluateOK(t, app, squarePlan)
	saved, err := app.SaveDocument()
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	fresh := NewApp(nil)
	if err := fresh.LoadDocument(saved); err != nil {
		t.Fatalf("load: %v", err)
	}
	if updates := fresh.DetectRooms(); len(updates) != 4 {
		t.Errorf("expected 4 updates after loading an undetected document, got %d", len(updates))
	}
}
