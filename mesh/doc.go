// Package mesh defines the mesh collaborator consumed by the locator and an
// in-memory reference implementation.
//
// The locator never owns mesh storage, partitioning or ghost exchange. It
// reads boundary tags, coordinates and node/element adjacency through the
// Mesh interface and hands back the ids of elements it needs ghosted.
//
// Memory is a single-process implementation used by tests, examples and the
// CLI. LoadYAML builds one from a fixture file:
//
//	processor: 0
//	patch_size: 4
//	inflation: [0.1, 0.1]
//	nodes:
//	  - {id: 0, x: 0, y: 0}
//	  - {id: 1, x: 1, y: 0, partition: 1}
//	elements:
//	  - {id: 0, nodes: [0, 1, 3, 2]}
//	boundaries:
//	  1: [0, 1]
//	  2: [2, 3]
package mesh
