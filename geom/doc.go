// Package geom provides the geometric primitives used by the locator.
//
// # Types
//
//   - Point: a 3-D position (gonum r3.Vec). 1-D and 2-D meshes leave the
//     unused coordinates at zero.
//   - Box: an axis-aligned bounding box.
//   - Filter: an optionally inflated Box used to cull boundary nodes that
//     cannot interact with the local partition.
//
// # Usage
//
//	box := geom.Box{Min: geom.Pt(0, 0, 0), Max: geom.Pt(1, 1, 0)}
//	f, err := geom.NewFilter(box, []float64{0.1, 0.1})
//	if f.Contains(p) { ... }
package geom
