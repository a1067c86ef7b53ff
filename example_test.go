package geomsearch_test

import (
	"fmt"
	"log"

	"github.com/hupe1980/geomsearch"
	"github.com/hupe1980/geomsearch/geom"
	"github.com/hupe1980/geomsearch/mesh"
)

// Example pairs two slave nodes with the nearest of three master nodes.
func Example() {
	m := mesh.NewMemory(0)
	for _, n := range []mesh.Node{
		{ID: 0, Point: geom.Pt(0, 0, 0)},
		{ID: 1, Point: geom.Pt(1, 0, 0)},
		{ID: 2, Point: geom.Pt(2, 0, 0)},
		{ID: 3, Point: geom.Pt(0, 0.1, 0)},
		{ID: 4, Point: geom.Pt(1.5, 0.1, 0)},
	} {
		if err := m.AddNode(n); err != nil {
			log.Fatal(err)
		}
	}
	_ = m.AddElem(0, 0, 0, 1, 4, 3)
	_ = m.AddElem(1, 0, 1, 2, 4)
	_ = m.Tag(1, 0, 1, 2)
	_ = m.Tag(2, 3, 4)

	loc, err := geomsearch.New(m, 1, 2)
	if err != nil {
		log.Fatal(err)
	}
	if err := loc.FindNodes(); err != nil {
		log.Fatal(err)
	}

	for match := range loc.All() {
		fmt.Printf("%d -> %d (%.4f)\n", match.Slave, match.Node.ID, match.Distance)
	}
	// Output:
	// 3 -> 0 (0.1000)
	// 4 -> 1 (0.5099)
}

// ExampleLocator_FindNodes shows the refresh cycle of a moving mesh.
func ExampleLocator_FindNodes() {
	m := mesh.NewMemory(0)
	_ = m.AddNode(mesh.Node{ID: 0, Point: geom.Pt(0, 0, 0)})
	_ = m.AddNode(mesh.Node{ID: 1, Point: geom.Pt(1, 0, 0)})
	_ = m.AddNode(mesh.Node{ID: 2, Point: geom.Pt(0, 1, 0)})
	_ = m.AddElem(0, 0, 0, 1, 2)
	_ = m.Tag(1, 0, 1)
	_ = m.Tag(2, 2)

	loc, _ := geomsearch.New(m, 1, 2)
	_ = loc.FindNodes()
	n, _ := loc.NearestNode(2)
	fmt.Println("before:", n.ID)

	// The slave node slides over master node 1.
	_ = m.MoveNode(2, geom.Pt(1, 0.2, 0))
	_ = loc.FindNodes()
	n, _ = loc.NearestNode(2)
	d, _ := loc.Distance(2)
	fmt.Printf("after: %d %.1f\n", n.ID, d)
	// Output:
	// before: 0
	// after: 1 0.2
}
