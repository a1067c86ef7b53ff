package mesh

import (
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/geomsearch/geom"
	"gopkg.in/yaml.v3"
)

// FileYAML is the YAML fixture layout accepted by LoadYAML.
type FileYAML struct {
	Processor  uint32             `yaml:"processor"`
	PatchSize  int                `yaml:"patch_size,omitempty"`
	Inflation  []float64          `yaml:"inflation,omitempty"`
	Nodes      []NodeYAML         `yaml:"nodes"`
	Elements   []ElementYAML      `yaml:"elements,omitempty"`
	Boundaries map[int32][]uint32 `yaml:"boundaries"`
}

// NodeYAML is a node entry.
type NodeYAML struct {
	ID        uint32  `yaml:"id"`
	X         float64 `yaml:"x"`
	Y         float64 `yaml:"y,omitempty"`
	Z         float64 `yaml:"z,omitempty"`
	Partition uint32  `yaml:"partition,omitempty"`
}

// ElementYAML is an element entry.
type ElementYAML struct {
	ID        uint32   `yaml:"id"`
	Nodes     []uint32 `yaml:"nodes"`
	Partition uint32   `yaml:"partition,omitempty"`
}

// LoadYAMLFile reads a mesh fixture from path.
func LoadYAMLFile(path string) (*Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mesh file: %w", err)
	}
	defer f.Close()

	m, err := LoadYAML(f)
	if err != nil {
		return nil, fmt.Errorf("load mesh file %s: %w", path, err)
	}
	return m, nil
}

// LoadYAML decodes a mesh fixture.
func LoadYAML(r io.Reader) (*Memory, error) {
	var doc FileYAML
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return doc.Build()
}

// Build assembles a Memory mesh from the decoded fixture.
func (doc *FileYAML) Build() (*Memory, error) {
	m := NewMemory(PartitionID(doc.Processor))
	if doc.PatchSize > 0 {
		m.SetPatchSize(doc.PatchSize)
	}
	if len(doc.Inflation) > 0 {
		if err := geom.ValidateInflation(doc.Inflation); err != nil {
			return nil, err
		}
		m.SetInflation(doc.Inflation...)
	}

	for _, n := range doc.Nodes {
		if err := m.AddNode(Node{
			ID:        NodeID(n.ID),
			Point:     geom.Pt(n.X, n.Y, n.Z),
			Partition: PartitionID(n.Partition),
		}); err != nil {
			return nil, err
		}
	}

	for _, e := range doc.Elements {
		nodes := make([]NodeID, len(e.Nodes))
		for i, n := range e.Nodes {
			nodes[i] = NodeID(n)
		}
		if err := m.AddElem(ElemID(e.ID), PartitionID(e.Partition), nodes...); err != nil {
			return nil, err
		}
	}

	for b, ids := range doc.Boundaries {
		nodes := make([]NodeID, len(ids))
		for i, n := range ids {
			nodes[i] = NodeID(n)
		}
		if err := m.Tag(BoundaryID(b), nodes...); err != nil {
			return nil, err
		}
	}

	return m, nil
}
