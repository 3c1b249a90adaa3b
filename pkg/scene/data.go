package scene

import "encoding/json"

// ---------------------------------------------------------------------------
// Structure
// ---------------------------------------------------------------------------

// SiteData is the payload of the document root.
type SiteData struct {
	Address string `json:"address,omitempty"`
}

func (SiteData) nodeData() {}

// BuildingData groups the levels of one building.
type BuildingData struct {
	Lot string `json:"lot,omitempty"`
}

func (BuildingData) nodeData() {}

// LevelData positions one floor vertically within its building.
type LevelData struct {
	Elevation float64 `json:"elevation"` // bottom of the level, world units
	Height    float64 `json:"height"`    // floor-to-ceiling
}

func (LevelData) nodeData() {}

// GroupData is a transformable container. Children are expressed in the
// group's local frame; rotation applies before translation.
type GroupData struct {
	Translation Vec2    `json:"translation"`
	Rotation    float64 `json:"rotation"` // radians
}

func (GroupData) nodeData() {}

// ---------------------------------------------------------------------------
// Linear elements
// ---------------------------------------------------------------------------

// WallData is a straight wall segment between two points in the parent frame.
// The wall defines a local frame for its children (doors, windows): origin at
// Start, x axis along the segment.
type WallData struct {
	Start     Vec2    `json:"start"`
	End       Vec2    `json:"end"`
	Thickness float64 `json:"thickness"`
	Height    float64 `json:"height,omitempty"`
	// InteriorSide is derived by room detection; it is the only wall field
	// that pass may write.
	InteriorSide InteriorSide `json:"interiorSide,omitempty"`
}

func (WallData) nodeData() {}

// RoofData is a ridge line with symmetric slopes to either side.
type RoofData struct {
	Start Vec2    `json:"start"` // ridge start, parent frame
	End   Vec2    `json:"end"`
	Width float64 `json:"width"` // total horizontal span across the ridge
	Rise  float64 `json:"rise"`  // ridge height above the eaves
}

func (RoofData) nodeData() {}

// StairSegmentData is one straight run of a stair.
type StairSegmentData struct {
	Start Vec2    `json:"start"`
	End   Vec2    `json:"end"`
	Width float64 `json:"width"`
	Steps int     `json:"steps"`
}

func (StairSegmentData) nodeData() {}

// ---------------------------------------------------------------------------
// Wall-hosted openings
// ---------------------------------------------------------------------------

// DoorData is an opening hosted by a wall. Position is in the wall's local
// frame: x is the distance along the wall from its start, y is normally zero.
type DoorData struct {
	Position Vec2    `json:"position"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height,omitempty"`
	Swing    string  `json:"swing,omitempty"` // "left", "right", "double"
}

func (DoorData) nodeData() {}

// WindowData is a glazed opening hosted by a wall, same frame as DoorData.
type WindowData struct {
	Position Vec2    `json:"position"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height,omitempty"`
	Sill     float64 `json:"sill,omitempty"` // bottom of the opening above the floor
}

func (WindowData) nodeData() {}

// ---------------------------------------------------------------------------
// Placeable elements
// ---------------------------------------------------------------------------

// ColumnData is a free-standing structural column.
type ColumnData struct {
	Position Vec2    `json:"position"` // center, parent frame
	Size     Vec2    `json:"size"`     // footprint
	Rotation float64 `json:"rotation,omitempty"`
	Round    bool    `json:"round,omitempty"`
}

func (ColumnData) nodeData() {}

// ItemData is a catalog item (furniture, fixture) placed on a level.
type ItemData struct {
	Position Vec2    `json:"position"` // center, parent frame
	Size     Vec2    `json:"size"`
	Rotation float64 `json:"rotation,omitempty"`
	Catalog  string  `json:"catalog,omitempty"` // catalog asset reference
}

func (ItemData) nodeData() {}

// StairData anchors a stair assembly; its segments are child nodes.
type StairData struct {
	Position Vec2    `json:"position"`
	Rotation float64 `json:"rotation,omitempty"`
}

func (StairData) nodeData() {}

// ---------------------------------------------------------------------------
// Areas and annotations
// ---------------------------------------------------------------------------

// ZoneData is a named polygonal area on a level.
type ZoneData struct {
	Outline  []Vec2 `json:"outline"`
	Category string `json:"category,omitempty"`
}

func (ZoneData) nodeData() {}

// ImageData is a reference image laid under the plan.
type ImageData struct {
	Position Vec2    `json:"position"`
	Size     Vec2    `json:"size"`
	Rotation float64 `json:"rotation,omitempty"`
	URL      string  `json:"url,omitempty"`
}

func (ImageData) nodeData() {}

// ScanData is an imported point-cloud or mesh scan anchor.
type ScanData struct {
	Position Vec2    `json:"position"`
	Rotation float64 `json:"rotation,omitempty"`
	URL      string  `json:"url,omitempty"`
}

func (ScanData) nodeData() {}

// LandscapeData is a planted or paved outdoor area on the site.
type LandscapeData struct {
	Outline []Vec2 `json:"outline"`
	Surface string `json:"surface,omitempty"`
}

func (LandscapeData) nodeData() {}

// PropertyData is the legal parcel boundary.
type PropertyData struct {
	Outline []Vec2 `json:"outline"`
}

func (PropertyData) nodeData() {}

// TerrainData is the ground surface extent.
type TerrainData struct {
	Size Vec2 `json:"size"`
}

func (TerrainData) nodeData() {}

// EnvironmentData selects sky/lighting presets for the viewer.
type EnvironmentData struct {
	Preset string `json:"preset,omitempty"`
}

func (EnvironmentData) nodeData() {}

// ---------------------------------------------------------------------------
// Forward compatibility
// ---------------------------------------------------------------------------

// UnknownData carries the raw payload of a node kind this build does not
// know, so such nodes round-trip through load/save untouched.
type UnknownData struct {
	Type string          `json:"-"` // original wire type tag
	Raw  json.RawMessage `json:"-"`
}

func (UnknownData) nodeData() {}
