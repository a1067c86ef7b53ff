package mesh

import (
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/geomsearch/geom"
)

// DefaultPatchSize is the patch size used when none is configured.
const DefaultPatchSize = 40

var (
	// ErrDuplicateID is returned when a node or element id is added twice.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrUnknownNode is returned when an element or boundary references a
	// node that was never added.
	ErrUnknownNode = errors.New("unknown node")
)

type element struct {
	nodes     []NodeID
	partition PartitionID
}

// Memory is an in-memory Mesh for a single process.
//
// Mutating methods are not safe for concurrent use. Reads are safe once the
// mesh is fully assembled.
type Memory struct {
	processor PartitionID
	patchSize int
	inflation []float64

	nodes      map[NodeID]Node
	elems      map[ElemID]element
	nodeElems  map[NodeID][]ElemID
	boundaries map[BoundaryID]*roaring.Bitmap
	ghosted    *roaring.Bitmap
}

// NewMemory creates an empty mesh seen from the given processor.
func NewMemory(processor PartitionID) *Memory {
	return &Memory{
		processor:  processor,
		patchSize:  DefaultPatchSize,
		nodes:      make(map[NodeID]Node),
		elems:      make(map[ElemID]element),
		nodeElems:  make(map[NodeID][]ElemID),
		boundaries: make(map[BoundaryID]*roaring.Bitmap),
		ghosted:    roaring.New(),
	}
}

// AddNode adds a node.
func (m *Memory) AddNode(n Node) error {
	if _, ok := m.nodes[n.ID]; ok {
		return fmt.Errorf("node %d: %w", n.ID, ErrDuplicateID)
	}
	m.nodes[n.ID] = n
	return nil
}

// AddElem adds an element owned by partition and connected to nodes.
func (m *Memory) AddElem(id ElemID, partition PartitionID, nodes ...NodeID) error {
	if _, ok := m.elems[id]; ok {
		return fmt.Errorf("element %d: %w", id, ErrDuplicateID)
	}
	for _, n := range nodes {
		if _, ok := m.nodes[n]; !ok {
			return fmt.Errorf("element %d references node %d: %w", id, n, ErrUnknownNode)
		}
	}
	m.elems[id] = element{nodes: slices.Clone(nodes), partition: partition}
	for _, n := range nodes {
		m.nodeElems[n] = append(m.nodeElems[n], id)
	}
	return nil
}

// Tag adds nodes to a boundary, creating the boundary if needed.
func (m *Memory) Tag(boundary BoundaryID, nodes ...NodeID) error {
	for _, n := range nodes {
		if _, ok := m.nodes[n]; !ok {
			return fmt.Errorf("boundary %d references node %d: %w", boundary, n, ErrUnknownNode)
		}
	}
	bm, ok := m.boundaries[boundary]
	if !ok {
		bm = roaring.New()
		m.boundaries[boundary] = bm
	}
	for _, n := range nodes {
		bm.Add(uint32(n))
	}
	return nil
}

// MoveNode changes the coordinates of an existing node.
// Topology is unchanged, so a locator can refresh without a rebuild.
func (m *Memory) MoveNode(id NodeID, p geom.Point) error {
	n, ok := m.nodes[id]
	if !ok {
		return fmt.Errorf("node %d: %w", id, ErrUnknownNode)
	}
	n.Point = p
	m.nodes[id] = n
	return nil
}

// SetPatchSize sets the patch size reported by PatchSize.
func (m *Memory) SetPatchSize(k int) { m.patchSize = k }

// SetInflation sets the ghosted boundary inflation.
func (m *Memory) SetInflation(inflation ...float64) { m.inflation = slices.Clone(inflation) }

// GhostedElems returns the ids registered through AddGhostedElem, ascending.
func (m *Memory) GhostedElems() []ElemID {
	out := make([]ElemID, 0, m.ghosted.GetCardinality())
	it := m.ghosted.Iterator()
	for it.HasNext() {
		out = append(out, ElemID(it.Next()))
	}
	return out
}

// NumNodes returns the number of nodes.
func (m *Memory) NumNodes() int { return len(m.nodes) }

// NumElems returns the number of elements.
func (m *Memory) NumElems() int { return len(m.elems) }

// Node implements Topology.
func (m *Memory) Node(id NodeID) (Node, bool) {
	n, ok := m.nodes[id]
	return n, ok
}

// NodeElems implements Topology.
func (m *Memory) NodeElems(id NodeID) []ElemID { return m.nodeElems[id] }

// ElemNodes implements Topology.
func (m *Memory) ElemNodes(id ElemID) []NodeID { return m.elems[id].nodes }

// ElemPartition implements Topology.
func (m *Memory) ElemPartition(id ElemID) PartitionID { return m.elems[id].partition }

// ProcessorID implements Topology.
func (m *Memory) ProcessorID() PartitionID { return m.processor }

// BoundaryIDs implements Mesh. Ids are returned in ascending order.
func (m *Memory) BoundaryIDs() []BoundaryID {
	ids := make([]BoundaryID, 0, len(m.boundaries))
	for id := range m.boundaries {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// BoundaryNodes implements Mesh. Boundaries are visited in ascending id
// order and nodes within a boundary in ascending id order.
func (m *Memory) BoundaryNodes() iter.Seq[BoundaryNode] {
	return func(yield func(BoundaryNode) bool) {
		for _, b := range m.BoundaryIDs() {
			it := m.boundaries[b].Iterator()
			for it.HasNext() {
				if !yield(BoundaryNode{Node: NodeID(it.Next()), Boundary: b}) {
					return
				}
			}
		}
	}
}

// ProcessorBoundingBox implements Mesh. The box covers every node of the
// elements owned by this processor, or the owned nodes when the processor
// owns no element.
func (m *Memory) ProcessorBoundingBox() geom.Box {
	box := geom.EmptyBox()
	ownsElem := false
	for _, e := range m.elems {
		if e.partition != m.processor {
			continue
		}
		ownsElem = true
		for _, n := range e.nodes {
			box = box.Extend(m.nodes[n].Point)
		}
	}
	if ownsElem {
		return box
	}
	for _, n := range m.nodes {
		if n.Partition == m.processor {
			box = box.Extend(n.Point)
		}
	}
	return box
}

// GhostedBoundaryInflation implements Mesh.
func (m *Memory) GhostedBoundaryInflation() []float64 { return m.inflation }

// PatchSize implements Mesh.
func (m *Memory) PatchSize() int { return m.patchSize }

// AddGhostedElem implements Mesh.
func (m *Memory) AddGhostedElem(id ElemID) { m.ghosted.Add(uint32(id)) }

// Compile time check to ensure Memory satisfies the Mesh interface.
var _ Mesh = (*Memory)(nil)
