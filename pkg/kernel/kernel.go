// Package kernel defines the abstract geometry kernel interface used to
// turn plan elements into solids for the 3D viewer. Implementations provide
// solid modeling and boolean operations behind this interface so backends
// can be swapped without changing the tessellator.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid
	// Extrude sweeps a closed 2D outline (x,y pairs, implicitly closed)
	// vertically by height, base at z=0.
	Extrude(outline [][2]float64, height float64) (Solid, error)

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	RotateZ(s Solid, radians float64) Solid

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
