package testutil

import (
	"fmt"

	"github.com/hupe1980/geomsearch/geom"
	"github.com/hupe1980/geomsearch/mesh"
)

// Boundary ids tagged by every generated mesh.
const (
	MasterBoundary mesh.BoundaryID = 1
	SlaveBoundary  mesh.BoundaryID = 2
)

// Scenario returns the reference contact example:
//
//	slaves:   3 (0,0.1)          4 (1.5,0.1)
//	masters:  0 (0,0)   1 (1,0)   2 (2,0)
//
// Element 0 is the quad 0-1-4-3 and element 1 the triangle 1-2-4.
// Slave 4 is equidistant from masters 1 and 2.
func Scenario() *mesh.Memory {
	m := mesh.NewMemory(0)
	pts := []geom.Point{
		geom.Pt(0, 0, 0), geom.Pt(1, 0, 0), geom.Pt(2, 0, 0),
		geom.Pt(0, 0.1, 0), geom.Pt(1.5, 0.1, 0),
	}
	for i, p := range pts {
		must(m.AddNode(mesh.Node{ID: mesh.NodeID(i), Point: p}))
	}
	must(m.AddElem(0, 0, 0, 1, 4, 3))
	must(m.AddElem(1, 0, 1, 2, 4))
	must(m.Tag(MasterBoundary, 0, 1, 2))
	must(m.Tag(SlaveBoundary, 3, 4))
	return m
}

// Strip returns a single layer of quads between a master row at y=0 and a
// slave row at y=gap. Master i sits at (i,0), slave i at (i+shift,gap).
// Master ids are 0..n-1, slave ids n..2n-1, element i joins columns i and
// i+1.
func Strip(n int, gap, shift float64) *mesh.Memory {
	m := mesh.NewMemory(0)
	for i := range n {
		must(m.AddNode(mesh.Node{ID: mesh.NodeID(i), Point: geom.Pt(float64(i), 0, 0)}))
	}
	for i := range n {
		must(m.AddNode(mesh.Node{ID: mesh.NodeID(n + i), Point: geom.Pt(float64(i)+shift, gap, 0)}))
	}
	for i := 0; i+1 < n; i++ {
		must(m.AddElem(mesh.ElemID(i), 0,
			mesh.NodeID(i), mesh.NodeID(i+1), mesh.NodeID(n+i+1), mesh.NodeID(n+i)))
	}
	for i := range n {
		must(m.Tag(MasterBoundary, mesh.NodeID(i)))
		must(m.Tag(SlaveBoundary, mesh.NodeID(n+i)))
	}
	return m
}

// GridOptions configures Grid.
type GridOptions struct {
	// NX and NY are the number of quads along x and y.
	NX, NY int
	// Jitter moves every node by up to this amount along x and y.
	Jitter float64
	// Split assigns elements with column index >= Split, and the nodes
	// whose column index is >= Split, to partition 1. Zero keeps the whole
	// mesh on partition 0.
	Split int
	// Processor is the local partition of the returned mesh.
	Processor mesh.PartitionID
}

// Grid returns a structured quad mesh of unit cells with the bottom row
// tagged master and the top row tagged slave. Node (i,j) has id
// j*(NX+1)+i and element (i,j) has id j*NX+i.
func Grid(rng *RNG, opts GridOptions) *mesh.Memory {
	if opts.NX <= 0 || opts.NY <= 0 {
		panic(fmt.Sprintf("testutil: invalid grid %dx%d", opts.NX, opts.NY))
	}

	m := mesh.NewMemory(opts.Processor)
	cols := opts.NX + 1
	owner := func(i int) mesh.PartitionID {
		if opts.Split > 0 && i >= opts.Split {
			return 1
		}
		return 0
	}

	for j := 0; j <= opts.NY; j++ {
		for i := 0; i <= opts.NX; i++ {
			p := geom.Pt(float64(i), float64(j), 0)
			if rng != nil {
				p = rng.Jitter(p, opts.Jitter)
			}
			must(m.AddNode(mesh.Node{ID: mesh.NodeID(j*cols + i), Point: p, Partition: owner(i)}))
		}
	}

	for j := 0; j < opts.NY; j++ {
		for i := 0; i < opts.NX; i++ {
			n0 := mesh.NodeID(j*cols + i)
			must(m.AddElem(mesh.ElemID(j*opts.NX+i), owner(i), n0, n0+1, n0+mesh.NodeID(cols)+1, n0+mesh.NodeID(cols)))
		}
	}

	for i := 0; i <= opts.NX; i++ {
		must(m.Tag(MasterBoundary, mesh.NodeID(i)))
		must(m.Tag(SlaveBoundary, mesh.NodeID(opts.NY*cols+i)))
	}
	return m
}

func must(err error) {
	if err != nil {
		panic(fmt.Sprintf("testutil: %v", err))
	}
}
