// Package geomsearch pairs the nodes of two boundaries of a partitioned mesh.
//
// For every node on a slave boundary, a Locator finds the nearest node on a
// master boundary and reports the distance and a reference to that node.
// This is the primitive behind node-to-node contact and interface coupling.
//
// # Quick Start
//
//	m, _ := mesh.LoadYAMLFile("contact.yaml")
//	loc, err := geomsearch.New(m, 1, 2) // master boundary 1, slave boundary 2
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := loc.FindNodes(); err != nil {
//	    log.Fatal(err)
//	}
//	d, err := loc.Distance(42)
//	n, err := loc.NearestNode(42)
//
// # Lifecycle
//
// The first FindNodes builds the neighborhoods: boundary nodes are culled
// with the inflated processor bounding box, each slave node gets at most
// PatchSize candidate master nodes, and elements needed to resolve
// off-partition candidates are registered with the mesh for ghosting.
// Every later FindNodes only re-runs the nearest-node match over the cached
// neighborhoods, which is cheap enough to call every time step while the
// geometry moves. Call Reinit when the mesh topology changes.
//
//	for step := range steps {
//	    moveNodes(m)
//	    loc.FindNodes() // refresh, neighborhoods reused
//	}
//	refine(m)
//	loc.Reinit() // full rebuild
//
// # Accuracy
//
// The search is deliberately approximate: only candidates inside the patch
// are considered. MaxPatchRatio reports how full the fullest patch was; a
// value of 1.0 means some neighborhoods were truncated and a larger patch
// size may find closer nodes. The locator logs a throttled warning when the
// ratio reaches WithPatchWarnThreshold.
//
// # Restart
//
// Snapshot writes the neighborhoods and the last match to a compressed
// checkpoint keyed by Name. Restore loads it into a Locator for the same
// boundary pair, re-registers the ghost elements and skips the build.
//
// # Concurrency
//
// Neighborhood construction and matching split the slave nodes into
// disjoint chunks that run in parallel (WithWorkers, WithChunkSize). A
// Locator itself is not safe for concurrent use, and the mesh must not be
// mutated while FindNodes runs.
package geomsearch
