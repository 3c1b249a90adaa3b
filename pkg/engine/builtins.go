package engine

import (
	"fmt"
	"math"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/mvetre/atrium/pkg/scene"
)

// defaultWallThickness applies to plan walls that omit :thickness when the
// engine has no configured wall defaults.
const defaultWallThickness = 0.2

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms plan source before passing it to zygomys. It
// performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: stair-segment -> stair_segment
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus
		// operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec2 wraps a scene.Vec2.
type sexpVec2 struct {
	vec scene.Vec2
}

func (v *sexpVec2) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec2 %.2f %.2f)", v.vec.X, v.vec.Y)
}
func (v *sexpVec2) Type() *zygo.RegisteredType { return nil }

// planNode is a draft subtree produced by a DSL form. Inner forms return
// these; the outermost building form registers the finished tree with the
// builder.
type planNode struct {
	kind     scene.NodeKind
	name     string
	data     scene.NodeData
	children []*planNode
}

// sexpPlan wraps a planNode so it can flow between builtins.
type sexpPlan struct {
	node *planNode
}

func (p *sexpPlan) SexpString(ps *zygo.PrintState) string {
	if p.node.name != "" {
		return fmt.Sprintf("(%s %q)", p.node.kind, p.node.name)
	}
	return fmt.Sprintf("(%s)", p.node.kind)
}
func (p *sexpPlan) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value; treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toBool extracts a bool from a Sexp.
func toBool(s zygo.Sexp) (bool, error) {
	if b, ok := s.(*zygo.SexpBool); ok {
		return b.Val, nil
	}
	return false, fmt.Errorf("expected bool, got %T (%s)", s, s.SexpString(nil))
}

// toVec2 extracts a Vec2 from a sexpVec2.
func toVec2(s zygo.Sexp) (scene.Vec2, error) {
	if v, ok := s.(*sexpVec2); ok {
		return v.vec, nil
	}
	return scene.Vec2{}, fmt.Errorf("expected vec2, got %T (%s)", s, s.SexpString(nil))
}

// toWallOffset reads a position in the host wall's frame. A bare number is
// the along-wall offset from the wall's start; a vec2 is taken verbatim.
func toWallOffset(s zygo.Sexp) (scene.Vec2, error) {
	if f, err := toFloat64(s); err == nil {
		return scene.Vec2{X: f}, nil
	}
	if v, ok := s.(*sexpVec2); ok {
		return v.vec, nil
	}
	return scene.Vec2{}, fmt.Errorf("expected offset or vec2, got %T (%s)", s, s.SexpString(nil))
}

// toVec2List extracts a slice of Vec2 from a Lisp list or array of vec2.
func toVec2List(s zygo.Sexp) ([]scene.Vec2, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]scene.Vec2, 0, len(items))
	for i, item := range items {
		v, err := toVec2(item)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// toPlan extracts a planNode from a sexpPlan.
func toPlan(s zygo.Sexp) (*planNode, error) {
	if p, ok := s.(*sexpPlan); ok {
		return p.node, nil
	}
	return nil, fmt.Errorf("expected plan form, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// ---------------------------------------------------------------------------
// Builder
// ---------------------------------------------------------------------------

// builder accumulates the building trees a plan registers. One builder
// serves one evaluation.
type builder struct {
	buildings []*planNode

	wallThickness float64
	wallHeight    float64
	cellSize      float64
}

// newBuilder creates a builder carrying the engine's configured defaults.
func (e *Engine) newBuilder() *builder {
	b := &builder{
		wallThickness: e.WallThickness,
		wallHeight:    e.WallHeight,
		cellSize:      e.CellSize,
	}
	if b.wallThickness <= 0 {
		b.wallThickness = defaultWallThickness
	}
	return b
}

// newScene creates an empty scene sized to the builder's grid settings.
func (b *builder) newScene() *scene.Scene {
	return scene.NewWithCellSize(b.cellSize)
}

// materialize turns the accumulated plan trees into a fresh scene. Creation
// failures surface as eval errors rather than aborting the whole run, so a
// plan with one bad wall still shows the rest.
func (b *builder) materialize() (*scene.Scene, []EvalError) {
	s := b.newScene()
	var errs []EvalError
	for _, building := range b.buildings {
		errs = append(errs, create(s, s.Root(), building)...)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return s, nil
}

func create(s *scene.Scene, parent scene.NodeID, pn *planNode) []EvalError {
	id, err := s.CreateNode(parent, scene.Draft{
		Kind: pn.kind,
		Name: pn.name,
		Data: pn.data,
	})
	if err != nil {
		return []EvalError{{Message: fmt.Sprintf("%s %q: %v", pn.kind, pn.name, err)}}
	}
	var errs []EvalError
	for _, child := range pn.children {
		errs = append(errs, create(s, id, child)...)
	}
	return errs
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the plan DSL builtins into a zygomys
// environment. Inner forms (level, wall, door, ...) return draft subtrees;
// the outermost building form registers its tree with the builder, and
// materialization happens after the program finishes.
//
// Source code must be preprocessed with preprocessSource() before evaluation
// so that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// collectChildren gathers trailing plan forms, restricted to the kinds
	// the parent accepts.
	collectChildren := func(form string, args []zygo.Sexp, allowed ...scene.NodeKind) ([]*planNode, error) {
		ok := make(map[scene.NodeKind]bool, len(allowed))
		for _, k := range allowed {
			ok[k] = true
		}
		var out []*planNode
		for i, a := range args {
			pn, err := toPlan(a)
			if err != nil {
				return nil, fmt.Errorf("%s: child %d: %w", form, i, err)
			}
			if !ok[pn.kind] {
				return nil, fmt.Errorf("%s: child %d: %s not allowed here", form, i, pn.kind)
			}
			out = append(out, pn)
		}
		return out, nil
	}

	// -----------------------------------------------------------------------
	// (vec2 1.5 2)
	// -----------------------------------------------------------------------
	env.AddFunction("vec2", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("vec2 requires exactly 2 arguments, got %d", len(args))
		}
		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec2: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec2: y: %w", err)
		}
		return &sexpVec2{vec: scene.Vec2{X: x, Y: y}}, nil
	})

	// -----------------------------------------------------------------------
	// (building "house" :lot "12a" (level ...) ...)
	// -----------------------------------------------------------------------
	env.AddFunction("building", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		pn := &planNode{kind: scene.KindBuilding}

		rest := pa.positional
		if len(rest) > 0 {
			if s, err := toString(rest[0]); err == nil {
				pn.name = s
				rest = rest[1:]
			}
		}
		bd := scene.BuildingData{}
		if v, ok := pa.kw["lot"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("building: lot: %w", err)
			}
			bd.Lot = s
		}
		pn.data = bd

		children, err := collectChildren("building", rest, scene.KindLevel)
		if err != nil {
			return zygo.SexpNull, err
		}
		pn.children = children

		b.buildings = append(b.buildings, pn)
		return &sexpPlan{node: pn}, nil
	})

	// -----------------------------------------------------------------------
	// (level "ground" :elevation 0 :height 2.8 (wall ...) ...)
	// -----------------------------------------------------------------------
	env.AddFunction("level", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		pn := &planNode{kind: scene.KindLevel}

		rest := pa.positional
		if len(rest) > 0 {
			if s, err := toString(rest[0]); err == nil {
				pn.name = s
				rest = rest[1:]
			}
		}
		ld := scene.LevelData{}
		if v, ok := pa.kw["elevation"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("level: elevation: %w", err)
			}
			ld.Elevation = f
		}
		if v, ok := pa.kw["height"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("level: height: %w", err)
			}
			ld.Height = f
		}
		pn.data = ld

		children, err := collectChildren("level", rest,
			scene.KindWall, scene.KindColumn, scene.KindRoof, scene.KindStair,
			scene.KindItem, scene.KindZone, scene.KindGroup)
		if err != nil {
			return zygo.SexpNull, err
		}
		pn.children = children
		return &sexpPlan{node: pn}, nil
	})

	// -----------------------------------------------------------------------
	// (wall :from (vec2 0 0) :to (vec2 8 0) :thickness 0.2 :height 2.8
	//       (door ...) (window ...))
	// -----------------------------------------------------------------------
	env.AddFunction("wall", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		wd := scene.WallData{Thickness: b.wallThickness, Height: b.wallHeight}

		if v, ok := pa.kw["from"]; ok {
			p, err := toVec2(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("wall: from: %w", err)
			}
			wd.Start = p
		}
		if v, ok := pa.kw["to"]; ok {
			p, err := toVec2(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("wall: to: %w", err)
			}
			wd.End = p
		}
		if v, ok := pa.kw["thickness"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("wall: thickness: %w", err)
			}
			wd.Thickness = f
		}
		if v, ok := pa.kw["height"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("wall: height: %w", err)
			}
			wd.Height = f
		}

		children, err := collectChildren("wall", pa.positional,
			scene.KindDoor, scene.KindWindow)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpPlan{node: &planNode{kind: scene.KindWall, data: wd, children: children}}, nil
	})

	// -----------------------------------------------------------------------
	// (door :at 2.0 :width 0.9 :height 2.1 :swing "left")
	// Positions are in the host wall's frame: a bare number is the offset
	// along the wall from its start point.
	// -----------------------------------------------------------------------
	env.AddFunction("door", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		dd := scene.DoorData{Width: 0.9}

		if v, ok := pa.kw["at"]; ok {
			p, err := toWallOffset(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("door: at: %w", err)
			}
			dd.Position = p
		}
		if v, ok := pa.kw["width"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("door: width: %w", err)
			}
			dd.Width = f
		}
		if v, ok := pa.kw["height"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("door: height: %w", err)
			}
			dd.Height = f
		}
		if v, ok := pa.kw["swing"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("door: swing: %w", err)
			}
			dd.Swing = s
		}
		return &sexpPlan{node: &planNode{kind: scene.KindDoor, data: dd}}, nil
	})

	// -----------------------------------------------------------------------
	// (window :at 5.0 :width 1.2 :height 1.2 :sill 0.9)
	// -----------------------------------------------------------------------
	env.AddFunction("window", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		wd := scene.WindowData{Width: 1.2}

		if v, ok := pa.kw["at"]; ok {
			p, err := toWallOffset(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("window: at: %w", err)
			}
			wd.Position = p
		}
		if v, ok := pa.kw["width"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("window: width: %w", err)
			}
			wd.Width = f
		}
		if v, ok := pa.kw["height"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("window: height: %w", err)
			}
			wd.Height = f
		}
		if v, ok := pa.kw["sill"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("window: sill: %w", err)
			}
			wd.Sill = f
		}
		return &sexpPlan{node: &planNode{kind: scene.KindWindow, data: wd}}, nil
	})

	// -----------------------------------------------------------------------
	// (column :at (vec2 4 4) :size (vec2 0.3 0.3) :rotate 45 :round true)
	// Rotation is given in degrees.
	// -----------------------------------------------------------------------
	env.AddFunction("column", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		cd := scene.ColumnData{Size: scene.Vec2{X: 0.3, Y: 0.3}}

		if v, ok := pa.kw["at"]; ok {
			p, err := toVec2(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("column: at: %w", err)
			}
			cd.Position = p
		}
		if v, ok := pa.kw["size"]; ok {
			p, err := toVec2(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("column: size: %w", err)
			}
			cd.Size = p
		}
		if v, ok := pa.kw["rotate"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("column: rotate: %w", err)
			}
			cd.Rotation = f * math.Pi / 180
		}
		if v, ok := pa.kw["round"]; ok {
			r, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("column: round: %w", err)
			}
			cd.Round = r
		}
		return &sexpPlan{node: &planNode{kind: scene.KindColumn, data: cd}}, nil
	})

	// -----------------------------------------------------------------------
	// (item :at (vec2 1 1) :size (vec2 2 0.9) :rotate 90 :catalog "sofa")
	// -----------------------------------------------------------------------
	env.AddFunction("item", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		id := scene.ItemData{Size: scene.Vec2{X: 1, Y: 1}}

		if v, ok := pa.kw["at"]; ok {
			p, err := toVec2(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("item: at: %w", err)
			}
			id.Position = p
		}
		if v, ok := pa.kw["size"]; ok {
			p, err := toVec2(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("item: size: %w", err)
			}
			id.Size = p
		}
		if v, ok := pa.kw["rotate"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("item: rotate: %w", err)
			}
			id.Rotation = f * math.Pi / 180
		}
		if v, ok := pa.kw["catalog"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("item: catalog: %w", err)
			}
			id.Catalog = s
		}
		return &sexpPlan{node: &planNode{kind: scene.KindItem, data: id}}, nil
	})

	// -----------------------------------------------------------------------
	// (zone "kitchen" :outline (list (vec2 0 0) ...) :category "kitchen")
	// -----------------------------------------------------------------------
	env.AddFunction("zone", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		pn := &planNode{kind: scene.KindZone}
		zd := scene.ZoneData{}

		if len(pa.positional) > 0 {
			if s, err := toString(pa.positional[0]); err == nil {
				pn.name = s
			}
		}
		if v, ok := pa.kw["outline"]; ok {
			pts, err := toVec2List(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("zone: outline: %w", err)
			}
			zd.Outline = pts
		}
		if v, ok := pa.kw["category"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("zone: category: %w", err)
			}
			zd.Category = s
		}
		pn.data = zd
		return &sexpPlan{node: pn}, nil
	})

	// -----------------------------------------------------------------------
	// (roof :from (vec2 0 0) :to (vec2 8 0) :width 6 :rise 1.5)
	// -----------------------------------------------------------------------
	env.AddFunction("roof", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		rd := scene.RoofData{}

		if v, ok := pa.kw["from"]; ok {
			p, err := toVec2(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("roof: from: %w", err)
			}
			rd.Start = p
		}
		if v, ok := pa.kw["to"]; ok {
			p, err := toVec2(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("roof: to: %w", err)
			}
			rd.End = p
		}
		if v, ok := pa.kw["width"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("roof: width: %w", err)
			}
			rd.Width = f
		}
		if v, ok := pa.kw["rise"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("roof: rise: %w", err)
			}
			rd.Rise = f
		}
		return &sexpPlan{node: &planNode{kind: scene.KindRoof, data: rd}}, nil
	})

	// -----------------------------------------------------------------------
	// (group :at (vec2 10 0) :rotate 90 (wall ...) ...)
	// Children are expressed in the group's local frame; rotation is given
	// in degrees.
	// -----------------------------------------------------------------------
	env.AddFunction("group", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		pn := &planNode{kind: scene.KindGroup}
		gd := scene.GroupData{}

		rest := pa.positional
		if len(rest) > 0 {
			if s, err := toString(rest[0]); err == nil {
				pn.name = s
				rest = rest[1:]
			}
		}
		if v, ok := pa.kw["at"]; ok {
			p, err := toVec2(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("group: at: %w", err)
			}
			gd.Translation = p
		}
		if v, ok := pa.kw["rotate"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("group: rotate: %w", err)
			}
			gd.Rotation = f * math.Pi / 180
		}
		pn.data = gd

		children, err := collectChildren("group", rest,
			scene.KindWall, scene.KindColumn, scene.KindItem, scene.KindZone, scene.KindGroup)
		if err != nil {
			return zygo.SexpNull, err
		}
		pn.children = children
		return &sexpPlan{node: pn}, nil
	})
}
