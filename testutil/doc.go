// Package testutil provides testing utilities for geomsearch.
//
// This package is intended for use in tests and benchmarks only.
// It provides seeded random generators, synthetic contact meshes and an
// exhaustive nearest-node reference search.
//
// # Synthetic Meshes
//
//	m := testutil.Scenario()                  // the three-master/two-slave example
//	m := testutil.Strip(100, 0.1, 0.5)        // one element layer between two boundaries
//	m := testutil.Grid(rng, testutil.GridOptions{NX: 20, NY: 5, Jitter: 0.2})
//
// All generated meshes tag MasterBoundary and SlaveBoundary.
//
// # Exact Search (Ground Truth)
//
//	want := testutil.BruteForce(m, testutil.MasterBoundary, testutil.SlaveBoundary)
package testutil
