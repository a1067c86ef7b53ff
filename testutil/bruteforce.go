package testutil

import (
	"math"

	"github.com/hupe1980/geomsearch/geom"
	"github.com/hupe1980/geomsearch/mesh"
)

// Match is a reference nearest-node result.
type Match struct {
	Node     mesh.NodeID
	Distance float64
}

// BruteForce computes the exact nearest master node of every slave node
// over all boundary nodes of m, ignoring partitions and filters. Ties go to
// the lowest master id.
func BruteForce(m mesh.Mesh, master, slave mesh.BoundaryID) map[mesh.NodeID]Match {
	var masters, slaves []mesh.Node
	for bn := range m.BoundaryNodes() {
		n, ok := m.Node(bn.Node)
		if !ok {
			continue
		}
		switch bn.Boundary {
		case master:
			masters = append(masters, n)
		case slave:
			slaves = append(slaves, n)
		}
	}

	out := make(map[mesh.NodeID]Match, len(slaves))
	for _, s := range slaves {
		best := Match{Distance: math.Inf(1)}
		found := false
		for _, c := range masters {
			d := geom.Distance(s.Point, c.Point)
			if !found || d < best.Distance || (d == best.Distance && c.ID < best.Node) {
				best = Match{Node: c.ID, Distance: d}
				found = true
			}
		}
		if found {
			out[s.ID] = best
		}
	}
	return out
}

// NearestAmong returns the nearest of candidates to p with the lowest-id
// tie-break.
func NearestAmong(m mesh.Topology, p geom.Point, candidates []mesh.NodeID) (Match, bool) {
	best := Match{Distance: math.Inf(1)}
	found := false
	for _, id := range candidates {
		n, ok := m.Node(id)
		if !ok {
			continue
		}
		d := geom.Distance(p, n.Point)
		if !found || d < best.Distance || (d == best.Distance && id < best.Node) {
			best = Match{Node: id, Distance: d}
			found = true
		}
	}
	return best, found
}
