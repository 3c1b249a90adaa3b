// Package scene defines the building document model for Atrium.
// The scene graph is an owned tree of typed nodes (site, building, level,
// wall, door, ...) with a flat id index and parent-relative coordinates.
package scene
