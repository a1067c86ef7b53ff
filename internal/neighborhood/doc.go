// Package neighborhood builds, for every slave node, a bounded list of
// candidate master nodes.
//
// The list only bounds the search space of the nearest-node match; it is
// not ranked and does not promise to contain the global nearest master.
// Two strategies are available:
//
//   - Adjacency: breadth-first expansion through node/element adjacency
//     starting at the slave node, collecting master nodes in traversal order
//     until the patch size is reached or the connected region is exhausted.
//   - Proximity: the patch-size nearest trial master nodes by distance.
//
// Slave nodes are split into disjoint chunks that run concurrently, each
// into a private partial result. Partials are merged by key-disjoint union.
//
// Ghost requests are returned as data. Registering them with the mesh is
// the caller's job.
package neighborhood
