package document

import (
	"encoding/json"
	"fmt"

	"github.com/mvetre/atrium/pkg/scene"
)

// encodeData serializes a node payload to its wire JSON. Unknown payloads
// write back the raw bytes they were loaded with.
func encodeData(d scene.NodeData) (json.RawMessage, error) {
	if d == nil {
		return nil, nil
	}
	if u, ok := d.(scene.UnknownData); ok {
		return u.Raw, nil
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode node data: %w", err)
	}
	// Payloads with no set fields serialize as {}; drop them entirely.
	if string(raw) == "{}" {
		return nil, nil
	}
	return raw, nil
}

// DecodePayload parses a wire payload for the given type tag. Tags this
// build does not know come back as KindUnknown with the raw bytes
// preserved, so documents written by newer editors survive a load/save
// cycle.
func DecodePayload(typeTag string, raw json.RawMessage) (scene.NodeKind, scene.NodeData, error) {
	return decodeData(typeTag, raw)
}

func decodeData(typeTag string, raw json.RawMessage) (scene.NodeKind, scene.NodeData, error) {
	kind := scene.ParseNodeKind(typeTag)
	if kind == scene.KindUnknown {
		return kind, scene.UnknownData{Type: typeTag, Raw: append(json.RawMessage(nil), raw...)}, nil
	}
	if len(raw) == 0 {
		return kind, nil, nil
	}

	var target scene.NodeData
	switch kind {
	case scene.KindSite:
		target = &scene.SiteData{}
	case scene.KindBuilding:
		target = &scene.BuildingData{}
	case scene.KindLevel:
		target = &scene.LevelData{}
	case scene.KindGroup:
		target = &scene.GroupData{}
	case scene.KindWall:
		target = &scene.WallData{}
	case scene.KindRoof:
		target = &scene.RoofData{}
	case scene.KindStair:
		target = &scene.StairData{}
	case scene.KindStairSegment:
		target = &scene.StairSegmentData{}
	case scene.KindDoor:
		target = &scene.DoorData{}
	case scene.KindWindow:
		target = &scene.WindowData{}
	case scene.KindColumn:
		target = &scene.ColumnData{}
	case scene.KindItem:
		target = &scene.ItemData{}
	case scene.KindZone:
		target = &scene.ZoneData{}
	case scene.KindImage:
		target = &scene.ImageData{}
	case scene.KindScan:
		target = &scene.ScanData{}
	case scene.KindLandscape:
		target = &scene.LandscapeData{}
	case scene.KindProperty:
		target = &scene.PropertyData{}
	case scene.KindTerrain:
		target = &scene.TerrainData{}
	case scene.KindEnvironment:
		target = &scene.EnvironmentData{}
	default:
		return kind, nil, fmt.Errorf("decode %q payload: unhandled kind", typeTag)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return kind, nil, fmt.Errorf("decode %q payload: %w", typeTag, err)
	}
	return kind, deref(target), nil
}

// deref converts the pointer decode target back to the value form the scene
// stores.
func deref(d scene.NodeData) scene.NodeData {
	switch v := d.(type) {
	case *scene.SiteData:
		return *v
	case *scene.BuildingData:
		return *v
	case *scene.LevelData:
		return *v
	case *scene.GroupData:
		return *v
	case *scene.WallData:
		return *v
	case *scene.RoofData:
		return *v
	case *scene.StairData:
		return *v
	case *scene.StairSegmentData:
		return *v
	case *scene.DoorData:
		return *v
	case *scene.WindowData:
		return *v
	case *scene.ColumnData:
		return *v
	case *scene.ItemData:
		return *v
	case *scene.ZoneData:
		return *v
	case *scene.ImageData:
		return *v
	case *scene.ScanData:
		return *v
	case *scene.LandscapeData:
		return *v
	case *scene.PropertyData:
		return *v
	case *scene.TerrainData:
		return *v
	case *scene.EnvironmentData:
		return *v
	}
	return d
}
