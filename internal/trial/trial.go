// Package trial selects the master and slave boundary nodes a partition
// has to consider.
package trial

import (
	"errors"
	"fmt"
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/geomsearch/geom"
	"github.com/hupe1980/geomsearch/mesh"
)

// ErrUnknownNode is returned when a boundary references a node the mesh
// cannot resolve.
var ErrUnknownNode = errors.New("boundary node not found in mesh")

// Source is the part of the mesh needed to collect trial nodes.
type Source interface {
	Node(id mesh.NodeID) (mesh.Node, bool)
	BoundaryNodes() iter.Seq[mesh.BoundaryNode]
}

// Set holds the trial master and slave node ids.
type Set struct {
	Masters *roaring.Bitmap
	Slaves  *roaring.Bitmap
}

// Collect gathers the boundary nodes tagged master or slave that pass the
// filter. A node tagged with both boundaries is recorded in both sets.
func Collect(src Source, master, slave mesh.BoundaryID, f geom.Filter) (*Set, error) {
	s := &Set{
		Masters: roaring.New(),
		Slaves:  roaring.New(),
	}

	for bn := range src.BoundaryNodes() {
		if bn.Boundary != master && bn.Boundary != slave {
			continue
		}
		n, ok := src.Node(bn.Node)
		if !ok {
			return nil, fmt.Errorf("boundary %d node %d: %w", bn.Boundary, bn.Node, ErrUnknownNode)
		}
		if !f.Contains(n.Point) {
			continue
		}
		if bn.Boundary == master {
			s.Masters.Add(uint32(bn.Node))
		}
		if bn.Boundary == slave {
			s.Slaves.Add(uint32(bn.Node))
		}
	}

	s.Masters.RunOptimize()
	s.Slaves.RunOptimize()

	return s, nil
}

// SlaveIDs returns the trial slave ids in ascending order.
func (s *Set) SlaveIDs() []mesh.NodeID { return toIDs(s.Slaves) }

// MasterIDs returns the trial master ids in ascending order.
func (s *Set) MasterIDs() []mesh.NodeID { return toIDs(s.Masters) }

// IsMaster reports whether id is a trial master node.
func (s *Set) IsMaster(id mesh.NodeID) bool { return s.Masters.Contains(uint32(id)) }

func toIDs(b *roaring.Bitmap) []mesh.NodeID {
	out := make([]mesh.NodeID, 0, b.GetCardinality())
	it := b.Iterator()
	for it.HasNext() {
		out = append(out, mesh.NodeID(it.Next()))
	}
	return out
}
