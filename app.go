package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/mvetre/atrium/pkg/config"
	"github.com/mvetre/atrium/pkg/document"
	"github.com/mvetre/atrium/pkg/engine"
	"github.com/mvetre/atrium/pkg/kernel"
	"github.com/mvetre/atrium/pkg/kernel/sdfx"
	"github.com/mvetre/atrium/pkg/rooms"
	"github.com/mvetre/atrium/pkg/scene"
	"github.com/mvetre/atrium/pkg/spatial"
	"github.com/mvetre/atrium/pkg/tessellate"
)

// colorPalette assigns distinct colors to meshes in document order.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App is the Wails backend. It owns the live scene and exposes editing,
// persistence, plan evaluation and room detection to the frontend. All
// bindings serialize through one mutex; the scene itself is not safe for
// concurrent use.
type App struct {
	ctx context.Context

	mu       sync.Mutex
	scene    *scene.Scene
	detector *rooms.Detector

	engine *engine.Engine
	kernel kernel.Kernel
	cfg    *config.Config
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	NodeID   string    `json:"nodeId"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result of a plan evaluation or re-render.
type EvalResult struct {
	Meshes []MeshData      `json:"meshes"`
	Errors []EvalErrorData `json:"errors"`
}

// RoomUpdate reports one wall whose interior-side classification changed.
type RoomUpdate struct {
	NodeID string `json:"nodeId"`
	Side   string `json:"side"`
}

// NewApp creates an App with an empty scene and the sdfx kernel.
func NewApp(cfg *config.Config) *App {
	if cfg == nil {
		cfg = config.Default()
	}
	eng := engine.NewEngine()
	eng.Timeout = cfg.EvalTimeout()
	eng.WallThickness = cfg.Walls.Thickness
	eng.WallHeight = cfg.Walls.Height
	eng.CellSize = cfg.Editor.GridCellSize
	return &App{
		scene:    scene.NewWithCellSize(cfg.Editor.GridCellSize),
		detector: rooms.NewDetector(roomParams(cfg)),
		engine:   eng,
		kernel:   sdfx.New(),
		cfg:      cfg,
	}
}

func roomParams(cfg *config.Config) rooms.Params {
	p := rooms.DefaultParams()
	p.Resolution = cfg.Rooms.Resolution
	p.Margin = cfg.Rooms.Margin
	p.MaxGridDim = cfg.Rooms.MaxGridDim
	return p
}

// startup is called by Wails on app startup. The context is saved so Wails
// runtime methods can be called later.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// ---------------------------------------------------------------------------
// Plan evaluation
// ---------------------------------------------------------------------------

// Evaluate runs plan source, replaces the current scene on success, and
// returns meshes for the new scene. On eval errors the current scene is
// kept and only the errors are returned.
func (a *App) Evaluate(source string) EvalResult {
	s, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		log.Printf("evaluate: fatal: %v", err)
		return EvalResult{Meshes: []MeshData{}, Errors: []EvalErrorData{{Message: err.Error()}}}
	}
	if len(evalErrs) > 0 {
		result := EvalResult{Meshes: []MeshData{}, Errors: []EvalErrorData{}}
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return result
	}

	a.mu.Lock()
	a.scene = s
	a.detector.Reset()
	a.mu.Unlock()
	return a.Render()
}

// Render tessellates the current scene for the viewer.
func (a *App) Render() EvalResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	result := EvalResult{Meshes: []MeshData{}, Errors: []EvalErrorData{}}
	meshes, err := tessellate.Tessellate(a.scene, a.kernel)
	if err != nil {
		log.Printf("tessellate: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: "tessellation failed: " + err.Error()})
		return result
	}
	for i, m := range meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			NodeID:   m.NodeID,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}
	return result
}

// ---------------------------------------------------------------------------
// Persistence
// ---------------------------------------------------------------------------

// SaveDocument serializes the committed scene to flat-form JSON.
func (a *App) SaveDocument() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	data, err := document.Marshal(a.scene)
	if err != nil {
		return "", fmt.Errorf("save: %w", err)
	}
	return string(data), nil
}

// LoadDocument replaces the scene with one parsed from flat-form JSON. A
// malformed document leaves the current scene untouched.
func (a *App) LoadDocument(data string) error {
	s, err := document.Unmarshal([]byte(data))
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	a.mu.Lock()
	s.SetGridCellSize(a.cfg.Editor.GridCellSize)
	a.scene = s
	a.detector.Reset()
	for _, h := range s.Find(scene.Filter{Kinds: []scene.NodeKind{scene.KindLevel}}) {
		s.MarkLevelDirty(h.ID())
	}
	a.mu.Unlock()
	return nil
}

// ---------------------------------------------------------------------------
// Editing
// ---------------------------------------------------------------------------

// NodeDraft is the wire form of a node creation request.
type NodeDraft struct {
	Type     string          `json:"type"`
	Name     string          `json:"name,omitempty"`
	Metadata map[string]any  `json:"metadata,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// CreateNode adds a committed node under the given parent and returns the
// new node's id.
func (a *App) CreateNode(parentID string, draft NodeDraft) (string, error) {
	return a.create(parentID, draft, false)
}

// StagePreview adds a preview node under the given parent. Previews are
// invisible to persistence, spatial queries and room detection until
// committed.
func (a *App) StagePreview(parentID string, draft NodeDraft) (string, error) {
	return a.create(parentID, draft, true)
}

func (a *App) create(parentID string, draft NodeDraft, preview bool) (string, error) {
	kind, data, err := document.DecodePayload(draft.Type, draft.Data)
	if err != nil {
		return "", err
	}
	// Newly drawn walls pick up the configured defaults for anything the
	// frontend leaves zero.
	if wd, ok := data.(scene.WallData); ok {
		if wd.Thickness == 0 {
			wd.Thickness = a.cfg.Walls.Thickness
		}
		if wd.Height == 0 {
			wd.Height = a.cfg.Walls.Height
		}
		data = wd
	}
	d := scene.Draft{
		Kind:     kind,
		Name:     draft.Name,
		Metadata: draft.Metadata,
		Preview:  preview,
		Data:     data,
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	id, err := a.scene.CreateNode(scene.NodeID(parentID), d)
	if err != nil {
		return "", err
	}
	return string(id), nil
}

// CommitPreview finalizes a staged preview and returns its id.
func (a *App) CommitPreview(previewID string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id, err := a.scene.Commit(scene.NodeID(previewID))
	if err != nil {
		return "", err
	}
	return string(id), nil
}

// DiscardPreview drops a staged preview. Unknown ids are a no-op.
func (a *App) DiscardPreview(previewID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scene.Discard(scene.NodeID(previewID))
}

// NodePatch is the wire form of a node update request. Absent fields are
// left unchanged.
type NodePatch struct {
	Name     *string         `json:"name,omitempty"`
	Visible  *bool           `json:"visible,omitempty"`
	Opacity  *float64        `json:"opacity,omitempty"`
	ParentID *string         `json:"parentId,omitempty"`
	Metadata map[string]any  `json:"metadata,omitempty"`
	Type     string          `json:"type,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// UpdateNode applies a partial update to a node.
func (a *App) UpdateNode(id string, patch NodePatch) error {
	p := scene.Patch{
		Name:     patch.Name,
		Visible:  patch.Visible,
		Opacity:  patch.Opacity,
		Metadata: patch.Metadata,
	}
	if patch.ParentID != nil {
		pid := scene.NodeID(*patch.ParentID)
		p.ParentID = &pid
	}
	if len(patch.Data) > 0 {
		_, data, err := document.DecodePayload(patch.Type, patch.Data)
		if err != nil {
			return err
		}
		p.Data = data
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.scene.UpdateNode(scene.NodeID(id), p)
}

// DeleteNode removes a node and its descendants. Unknown ids are a no-op.
func (a *App) DeleteNode(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scene.DeleteNode(scene.NodeID(id))
}

// GetNode returns one node in wire form, or an error if it does not exist.
func (a *App) GetNode(id string) (document.WireNode, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	h := a.scene.GetNode(scene.NodeID(id))
	if h == nil {
		return document.WireNode{}, fmt.Errorf("node %s: %w", id, scene.ErrNotFound)
	}
	return document.ToWire(h), nil
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// SnapPoint rounds a world-space point to the configured editing snap step.
// The frontend calls it while placing or dragging geometry.
func (a *App) SnapPoint(x, y float64) []float64 {
	step := a.cfg.Editor.SnapStep
	return []float64{math.Round(x/step) * step, math.Round(y/step) * step}
}

// QueryRegion returns the ids of collidable nodes on a level whose bounds
// intersect the given axis-aligned box.
func (a *App) QueryRegion(levelID string, minX, minY, maxX, maxY float64) []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	ids := a.scene.Query(scene.NodeID(levelID), spatial.NewBounds(minX, minY, maxX, maxY))
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

// ---------------------------------------------------------------------------
// Room detection
// ---------------------------------------------------------------------------

// DetectRooms re-runs room detection on every level with geometry changes
// since the last pass, applies the classification updates, and reports them.
func (a *App) DetectRooms() []RoomUpdate {
	a.mu.Lock()
	defer a.mu.Unlock()

	updates := []RoomUpdate{}
	for _, levelID := range a.scene.DirtyLevels() {
		deltas := a.detector.Process(a.scene, levelID)
		rooms.Apply(a.scene, deltas)
		for _, d := range deltas {
			updates = append(updates, RoomUpdate{NodeID: string(d.NodeID), Side: string(d.Side)})
		}
	}
	return updates
}
