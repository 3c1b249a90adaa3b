package sdfx

import (
	"math"
	"testing"
)

func TestBox(t *testing.T) {
	k := New()
	box := k.Box(4, 0.2, 2.8)
	mesh, err := k.ToMesh(box)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	if mesh.VertexCount() == 0 {
		t.Fatal("expected non-zero vertex count")
	}
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.Indices) != mesh.TriangleCount()*3 {
		t.Fatalf("indices length %d != triCount*3 %d", len(mesh.Indices), mesh.TriangleCount()*3)
	}
}

func TestBoxBoundingBoxIsCornerOrigin(t *testing.T) {
	k := New()
	box := k.Box(4, 0.2, 2.8)
	min, max := box.BoundingBox()

	const tol = 0.01
	expectMin := [3]float64{0, 0, 0}
	expectMax := [3]float64{4, 0.2, 2.8}
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-expectMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected %f", i, min[i], expectMin[i])
		}
		if math.Abs(max[i]-expectMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected %f", i, max[i], expectMax[i])
		}
	}
}

func TestCylinderBaseAtZero(t *testing.T) {
	k := New()
	cyl := k.Cylinder(2.8, 0.15, 32)
	min, max := cyl.BoundingBox()

	const tol = 0.01
	if math.Abs(min[2]) > tol {
		t.Errorf("cylinder base z = %f, expected 0", min[2])
	}
	if math.Abs(max[2]-2.8) > tol {
		t.Errorf("cylinder top z = %f, expected 2.8", max[2])
	}
}

func TestExtrude(t *testing.T) {
	k := New()
	outline := [][2]float64{{0, 0}, {3, 0}, {3, 2}, {0, 2}}
	solid, err := k.Extrude(outline, 2.8)
	if err != nil {
		t.Fatalf("Extrude failed: %v", err)
	}
	min, max := solid.BoundingBox()
	const tol = 0.1
	if math.Abs(min[2]) > tol || math.Abs(max[2]-2.8) > tol {
		t.Errorf("extrusion z range [%f, %f], expected [0, 2.8]", min[2], max[2])
	}
	mesh, err := k.ToMesh(solid)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("extrusion mesh is empty")
	}
}

func TestExtrudeRejectsDegenerate(t *testing.T) {
	k := New()
	if _, err := k.Extrude([][2]float64{{0, 0}, {1, 1}}, 2.8); err == nil {
		t.Fatal("expected error for 2-point outline")
	}
}

// verticesWithin counts mesh vertices inside an axis-aligned box.
func verticesWithin(vertices []float32, min, max [3]float64) int {
	n := 0
	for i := 0; i+2 < len(vertices); i += 3 {
		x, y, z := float64(vertices[i]), float64(vertices[i+1]), float64(vertices[i+2])
		if x > min[0] && x < max[0] && y > min[1] && y < max[1] && z > min[2] && z < max[2] {
			n++
		}
	}
	return n
}

func TestDifferenceCutsOpening(t *testing.T) {
	k := New()

	wall := k.Box(4, 0.2, 2.8)
	wallMesh, err := k.ToMesh(wall)
	if err != nil {
		t.Fatalf("ToMesh(wall) failed: %v", err)
	}

	// Doorway through the slab, overcut in y so both faces open.
	opening := k.Translate(k.Box(0.9, 0.4, 2.1), 2, -0.1, 0)
	cut := k.Difference(wall, opening)
	cutMesh, err := k.ToMesh(cut)
	if err != nil {
		t.Fatalf("ToMesh(cut) failed: %v", err)
	}
	if cutMesh.IsEmpty() {
		t.Fatal("cut mesh is empty")
	}

	// Sample a box inside the doorway, inset from the jambs and lintel so
	// their new surfaces fall outside it. The plain slab's faces pass
	// through it; after the cut no surface may remain there.
	boxMin := [3]float64{2.1, -0.3, 0.1}
	boxMax := [3]float64{2.8, 0.5, 2.0}
	if n := verticesWithin(wallMesh.Vertices, boxMin, boxMax); n == 0 {
		t.Fatal("plain wall has no surface in the doorway span; sample box is wrong")
	}
	if n := verticesWithin(cutMesh.Vertices, boxMin, boxMax); n != 0 {
		t.Errorf("doorway still contains %d surface vertices after the cut", n)
	}
}

func TestUnion(t *testing.T) {
	k := New()
	a := k.Box(2, 2, 2)
	b := k.Translate(k.Box(2, 2, 2), 1, 0, 0)
	mesh, err := k.ToMesh(k.Union(a, b))
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("union mesh is empty")
	}
}

func TestIntersection(t *testing.T) {
	k := New()
	a := k.Box(2, 2, 2)
	b := k.Translate(k.Box(2, 2, 2), 1, 0, 0)
	mesh, err := k.ToMesh(k.Intersection(a, b))
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("intersection mesh is empty")
	}
}

func TestTranslate(t *testing.T) {
	k := New()
	box := k.Box(1, 1, 1)
	translated := k.Translate(box, 10, 20, 30)

	min, max := translated.BoundingBox()
	const tol = 0.05
	expectMin := [3]float64{10, 20, 30}
	expectMax := [3]float64{11, 21, 31}
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-expectMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected ~%f", i, min[i], expectMin[i])
		}
		if math.Abs(max[i]-expectMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected ~%f", i, max[i], expectMax[i])
		}
	}
}

func TestRotateZ(t *testing.T) {
	k := New()
	// A long wall along X rotated a quarter turn should extend along Y.
	box := k.Box(4, 0.2, 2.8)
	rotated := k.RotateZ(box, math.Pi/2)
	min, max := rotated.BoundingBox()

	xExtent := max[0] - min[0]
	yExtent := max[1] - min[1]

	const tol = 0.1
	if math.Abs(xExtent-0.2) > tol {
		t.Errorf("rotated X extent = %f, expected ~0.2", xExtent)
	}
	if math.Abs(yExtent-4) > tol {
		t.Errorf("rotated Y extent = %f, expected ~4", yExtent)
	}
}
