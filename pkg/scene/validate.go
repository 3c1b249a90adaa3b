package scene

import "math"

// DefaultOpacity is applied when a draft does not specify one.
const DefaultOpacity = 100.0

func kindSet(kinds ...NodeKind) map[NodeKind]bool {
	m := make(map[NodeKind]bool, len(kinds))
	for _, k := range kinds {
		m[k] = true
	}
	return m
}

// allowedChildren defines which node kinds may appear under which parents.
// Kinds absent from the map accept no children.
var allowedChildren = map[NodeKind]map[NodeKind]bool{
	KindSite: kindSet(KindBuilding, KindLandscape, KindProperty, KindTerrain,
		KindEnvironment, KindImage, KindScan),
	KindBuilding: kindSet(KindLevel),
	KindLevel: kindSet(KindWall, KindColumn, KindRoof, KindStair, KindItem,
		KindZone, KindGroup, KindImage, KindScan),
	KindGroup: kindSet(KindWall, KindColumn, KindItem, KindZone, KindGroup),
	KindWall:  kindSet(KindDoor, KindWindow),
	KindStair: kindSet(KindStairSegment),
}

// CanParent reports whether a node of kind child may be created under a node
// of kind parent. Unknown kinds are accepted anywhere a group child would be,
// so foreign documents keep their structure.
func CanParent(parent, child NodeKind) bool {
	if child == KindUnknown || parent == KindUnknown {
		return true
	}
	return allowedChildren[parent][child]
}

// ValidateData checks that data matches the node kind, that required fields
// are present and well-formed, and fills defaults for optional fields. It
// returns the (possibly defaulted) payload or a ValidationError naming the
// offending field. Structurally wrong input is rejected, never coerced.
func ValidateData(kind NodeKind, data NodeData) (NodeData, error) {
	if data == nil {
		data = defaultData(kind)
		if data == nil {
			return nil, validationErr(kind, "data", "payload is required")
		}
	}
	switch kind {
	case KindSite:
		if d, ok := data.(SiteData); ok {
			return d, nil
		}
	case KindBuilding:
		if d, ok := data.(BuildingData); ok {
			return d, nil
		}
	case KindLevel:
		if d, ok := data.(LevelData); ok {
			if d.Height < 0 {
				return nil, validationErr(kind, "height", "must be non-negative, got %g", d.Height)
			}
			if d.Height == 0 {
				d.Height = 2.8
			}
			return d, nil
		}
	case KindWall:
		if d, ok := data.(WallData); ok {
			if !isFinite(d.Start.X, d.Start.Y, d.End.X, d.End.Y) {
				return nil, validationErr(kind, "start/end", "endpoints must be finite")
			}
			if d.Thickness <= 0 {
				return nil, validationErr(kind, "thickness", "must be positive, got %g", d.Thickness)
			}
			if d.InteriorSide != SideUnset && !ValidInteriorSides[d.InteriorSide] {
				return nil, validationErr(kind, "interiorSide", "unknown value %q", d.InteriorSide)
			}
			return d, nil
		}
	case KindDoor:
		if d, ok := data.(DoorData); ok {
			if d.Width <= 0 {
				return nil, validationErr(kind, "width", "must be positive, got %g", d.Width)
			}
			if d.Height == 0 {
				d.Height = 2.0
			}
			return d, nil
		}
	case KindWindow:
		if d, ok := data.(WindowData); ok {
			if d.Width <= 0 {
				return nil, validationErr(kind, "width", "must be positive, got %g", d.Width)
			}
			if d.Height == 0 {
				d.Height = 1.2
			}
			return d, nil
		}
	case KindColumn:
		if d, ok := data.(ColumnData); ok {
			if d.Size.X <= 0 || d.Size.Y <= 0 {
				return nil, validationErr(kind, "size", "must be positive, got %gx%g", d.Size.X, d.Size.Y)
			}
			return d, nil
		}
	case KindRoof:
		if d, ok := data.(RoofData); ok {
			if d.Width <= 0 {
				return nil, validationErr(kind, "width", "must be positive, got %g", d.Width)
			}
			return d, nil
		}
	case KindStair:
		if d, ok := data.(StairData); ok {
			return d, nil
		}
	case KindStairSegment:
		if d, ok := data.(StairSegmentData); ok {
			if d.Width <= 0 {
				return nil, validationErr(kind, "width", "must be positive, got %g", d.Width)
			}
			if d.Steps < 0 {
				return nil, validationErr(kind, "steps", "must be non-negative, got %d", d.Steps)
			}
			return d, nil
		}
	case KindItem:
		if d, ok := data.(ItemData); ok {
			if d.Size.X <= 0 || d.Size.Y <= 0 {
				return nil, validationErr(kind, "size", "must be positive, got %gx%g", d.Size.X, d.Size.Y)
			}
			return d, nil
		}
	case KindZone:
		if d, ok := data.(ZoneData); ok {
			if len(d.Outline) < 3 {
				return nil, validationErr(kind, "outline", "needs at least 3 points, got %d", len(d.Outline))
			}
			return d, nil
		}
	case KindGroup:
		if d, ok := data.(GroupData); ok {
			return d, nil
		}
	case KindImage:
		if d, ok := data.(ImageData); ok {
			if d.Size.X <= 0 || d.Size.Y <= 0 {
				return nil, validationErr(kind, "size", "must be positive, got %gx%g", d.Size.X, d.Size.Y)
			}
			return d, nil
		}
	case KindScan:
		if d, ok := data.(ScanData); ok {
			return d, nil
		}
	case KindLandscape:
		if d, ok := data.(LandscapeData); ok {
			if len(d.Outline) < 3 {
				return nil, validationErr(kind, "outline", "needs at least 3 points, got %d", len(d.Outline))
			}
			return d, nil
		}
	case KindProperty:
		if d, ok := data.(PropertyData); ok {
			if len(d.Outline) < 3 {
				return nil, validationErr(kind, "outline", "needs at least 3 points, got %d", len(d.Outline))
			}
			return d, nil
		}
	case KindTerrain:
		if d, ok := data.(TerrainData); ok {
			if d.Size.X <= 0 || d.Size.Y <= 0 {
				return nil, validationErr(kind, "size", "must be positive, got %gx%g", d.Size.X, d.Size.Y)
			}
			return d, nil
		}
	case KindEnvironment:
		if d, ok := data.(EnvironmentData); ok {
			return d, nil
		}
	case KindUnknown:
		if d, ok := data.(UnknownData); ok {
			return d, nil
		}
	}
	return nil, validationErr(kind, "data", "payload type %T does not match kind", data)
}

// defaultData returns a zero payload for kinds that need no required fields.
func defaultData(kind NodeKind) NodeData {
	switch kind {
	case KindSite:
		return SiteData{}
	case KindBuilding:
		return BuildingData{}
	case KindLevel:
		return LevelData{}
	case KindGroup:
		return GroupData{}
	case KindStair:
		return StairData{}
	case KindScan:
		return ScanData{}
	case KindEnvironment:
		return EnvironmentData{}
	}
	return nil
}

func isFinite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
