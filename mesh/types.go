package mesh

import (
	"fmt"
	"iter"

	"github.com/hupe1980/geomsearch/geom"
)

// NodeID identifies a mesh node. Ids are stable across time steps.
type NodeID uint32

// ElemID identifies a mesh element.
type ElemID uint32

// BoundaryID identifies a named boundary (side set / node set).
type BoundaryID int32

// PartitionID identifies the processor that owns a node or element.
type PartitionID uint32

// Node is a mesh node with its owning partition.
type Node struct {
	ID        NodeID
	Point     geom.Point
	Partition PartitionID
}

// String returns a string representation of the Node.
func (n Node) String() string {
	return fmt.Sprintf("Node(%d@%d:(%g,%g,%g))", n.ID, n.Partition, n.Point.X, n.Point.Y, n.Point.Z)
}

// BoundaryNode pairs a node with one boundary tag.
// A node on several boundaries is reported once per tag.
type BoundaryNode struct {
	Node     NodeID
	Boundary BoundaryID
}

// Topology is the read-only adjacency view used while building
// neighborhoods. Implementations must be safe for concurrent reads.
type Topology interface {
	// Node returns the node with the given id.
	Node(id NodeID) (Node, bool)

	// NodeElems returns the elements connected to a node.
	NodeElems(id NodeID) []ElemID

	// ElemNodes returns the nodes of an element.
	ElemNodes(id ElemID) []NodeID

	// ElemPartition returns the partition that owns an element.
	ElemPartition(id ElemID) PartitionID

	// ProcessorID returns the local partition.
	ProcessorID() PartitionID
}

// Mesh is the collaborator the locator consumes.
type Mesh interface {
	Topology

	// BoundaryIDs returns every boundary id known to the mesh.
	BoundaryIDs() []BoundaryID

	// BoundaryNodes iterates over all boundary-tagged nodes.
	BoundaryNodes() iter.Seq[BoundaryNode]

	// ProcessorBoundingBox returns the bounding box of the local partition.
	ProcessorBoundingBox() geom.Box

	// GhostedBoundaryInflation returns the per-axis inflation applied to the
	// processor bounding box. An empty slice disables bounding box filtering.
	GhostedBoundaryInflation() []float64

	// PatchSize returns the maximum number of candidates per slave node.
	PatchSize() int

	// AddGhostedElem requests that an element be ghosted onto this partition.
	AddGhostedElem(id ElemID)
}
