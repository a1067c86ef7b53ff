package neighborhood

import (
	"errors"
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/geomsearch/geom"
	"github.com/hupe1980/geomsearch/internal/parallel"
	"github.com/hupe1980/geomsearch/internal/queue"
	"github.com/hupe1980/geomsearch/mesh"
)

var (
	// ErrUnknownNode is returned when a slave or candidate id cannot be
	// resolved by the topology.
	ErrUnknownNode = errors.New("node not found in topology")

	// ErrInvalidPatchSize is returned when the patch size is not positive.
	ErrInvalidPatchSize = errors.New("patch size must be positive")

	// ErrUnknownStrategy is returned for unsupported strategy names.
	ErrUnknownStrategy = errors.New("unknown neighborhood strategy")
)

// Strategy selects how candidate master nodes are discovered.
type Strategy uint8

const (
	// Adjacency expands through mesh connectivity.
	Adjacency Strategy = iota
	// Proximity ranks all trial master nodes by distance.
	Proximity
)

func (s Strategy) String() string {
	switch s {
	case Adjacency:
		return "adjacency"
	case Proximity:
		return "proximity"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// ParseStrategy parses a strategy name (case-insensitive).
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "adjacency":
		return Adjacency, nil
	case "proximity":
		return Proximity, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// Config controls a build.
type Config struct {
	// PatchSize bounds the number of candidates per slave node.
	PatchSize int
	// Strategy selects candidate discovery.
	Strategy Strategy
	// Workers bounds concurrent chunks. Non-positive means GOMAXPROCS.
	Workers int
	// ChunkSize is the number of slave nodes per chunk. Non-positive picks
	// one automatically.
	ChunkSize int
}

// Map holds the candidate master nodes of every relevant slave node.
type Map struct {
	// Slaves lists the slave nodes with candidates, in ascending order.
	Slaves []mesh.NodeID
	// Candidates maps a slave node to its non-empty candidate list.
	Candidates map[mesh.NodeID][]mesh.NodeID
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{Candidates: make(map[mesh.NodeID][]mesh.NodeID)}
}

// Len returns the number of slave nodes.
func (m *Map) Len() int { return len(m.Slaves) }

// Neighbors returns the candidates of a slave node.
func (m *Map) Neighbors(id mesh.NodeID) ([]mesh.NodeID, bool) {
	c, ok := m.Candidates[id]
	return c, ok
}

// Result is the output of Build.
type Result struct {
	Map *Map
	// Ghosts holds the ids of off-partition elements adjacent to kept
	// candidates.
	Ghosts *roaring.Bitmap
	// Empty counts slave nodes dropped for having no candidate.
	Empty int
	// Remote counts slave nodes dropped because neither they nor any of
	// their candidates are owned by this partition.
	Remote int
}

// GhostIDs returns the requested ghost elements in ascending order.
func (r *Result) GhostIDs() []mesh.ElemID {
	out := make([]mesh.ElemID, 0, r.Ghosts.GetCardinality())
	it := r.Ghosts.Iterator()
	for it.HasNext() {
		out = append(out, mesh.ElemID(it.Next()))
	}
	return out
}

type builder struct {
	topo    mesh.Topology
	local   mesh.PartitionID
	masters *roaring.Bitmap
	cfg     Config

	// masterNodes is resolved once for the proximity strategy.
	masterNodes []mesh.Node
}

// Build computes the neighborhoods of slaves. masters holds the trial
// master ids. The topology is only read.
func Build(topo mesh.Topology, slaves []mesh.NodeID, masters *roaring.Bitmap, cfg Config) (*Result, error) {
	if cfg.PatchSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPatchSize, cfg.PatchSize)
	}

	b := &builder{
		topo:    topo,
		local:   topo.ProcessorID(),
		masters: masters,
		cfg:     cfg,
	}

	if cfg.Strategy == Proximity {
		b.masterNodes = make([]mesh.Node, 0, masters.GetCardinality())
		it := masters.Iterator()
		for it.HasNext() {
			id := mesh.NodeID(it.Next())
			n, ok := topo.Node(id)
			if !ok {
				return nil, fmt.Errorf("master %d: %w", id, ErrUnknownNode)
			}
			b.masterNodes = append(b.masterNodes, n)
		}
	}

	chunks := parallel.Chunks(len(slaves), cfg.Workers, cfg.ChunkSize)
	parts := make([]*Result, len(chunks))

	err := parallel.ForEach(chunks, cfg.Workers, func(i int, r parallel.Range) error {
		part, err := b.run(slaves[r.Lo:r.Hi])
		if err != nil {
			return err
		}
		parts[i] = part
		return nil
	})
	if err != nil {
		return nil, err
	}

	return merge(parts), nil
}

// merge joins partial results. Chunks cover disjoint, ordered slices of
// the slave list, so keys never collide and Slaves stays ordered.
func merge(parts []*Result) *Result {
	out := &Result{
		Map:    NewMap(),
		Ghosts: roaring.New(),
	}
	for _, p := range parts {
		out.Map.Slaves = append(out.Map.Slaves, p.Map.Slaves...)
		for id, c := range p.Map.Candidates {
			out.Map.Candidates[id] = c
		}
		out.Ghosts.Or(p.Ghosts)
		out.Empty += p.Empty
		out.Remote += p.Remote
	}
	return out
}

type scratch struct {
	seenNodes *roaring.Bitmap
	seenElems *roaring.Bitmap
	frontier  []mesh.NodeID
	next      []mesh.NodeID
	top       *queue.TopK
}

func (b *builder) run(slaves []mesh.NodeID) (*Result, error) {
	part := &Result{
		Map:    NewMap(),
		Ghosts: roaring.New(),
	}
	s := &scratch{
		seenNodes: roaring.New(),
		seenElems: roaring.New(),
	}
	if b.cfg.Strategy == Proximity {
		// The heap never holds more than the trial masters.
		s.top = queue.NewTopK(min(b.cfg.PatchSize, len(b.masterNodes)))
	}

	for _, id := range slaves {
		slave, ok := b.topo.Node(id)
		if !ok {
			return nil, fmt.Errorf("slave %d: %w", id, ErrUnknownNode)
		}

		var candidates []mesh.NodeID
		if b.cfg.Strategy == Proximity {
			candidates = b.proximity(s, slave)
		} else {
			candidates = b.adjacency(s, id)
		}

		if len(candidates) == 0 {
			part.Empty++
			continue
		}

		relevant, err := b.relevant(slave, candidates)
		if err != nil {
			return nil, err
		}
		if !relevant {
			part.Remote++
			continue
		}

		part.Map.Slaves = append(part.Map.Slaves, id)
		part.Map.Candidates[id] = candidates

		addGhosts(b.topo, b.local, candidates, part.Ghosts)
	}

	return part, nil
}

// Ghosts returns the off-partition elements adjacent to the candidates of
// m. It recomputes the ghost request of a map that was not produced by
// Build, such as one loaded from a checkpoint.
func Ghosts(topo mesh.Topology, m *Map) *roaring.Bitmap {
	out := roaring.New()
	local := topo.ProcessorID()
	for _, id := range m.Slaves {
		addGhosts(topo, local, m.Candidates[id], out)
	}
	return out
}

func addGhosts(topo mesh.Topology, local mesh.PartitionID, candidates []mesh.NodeID, dst *roaring.Bitmap) {
	for _, c := range candidates {
		for _, e := range topo.NodeElems(c) {
			if topo.ElemPartition(e) != local {
				dst.Add(uint32(e))
			}
		}
	}
}

// adjacency walks rings of node/element adjacency around the slave node.
// The slave node itself is the first candidate when it is a master node.
func (b *builder) adjacency(s *scratch, slave mesh.NodeID) []mesh.NodeID {
	s.seenNodes.Clear()
	s.seenElems.Clear()

	patch := b.cfg.PatchSize
	var out []mesh.NodeID

	s.seenNodes.Add(uint32(slave))
	if b.masters.Contains(uint32(slave)) {
		out = append(out, slave)
	}

	s.frontier = append(s.frontier[:0], slave)
	for len(s.frontier) > 0 && len(out) < patch {
		s.next = s.next[:0]
		for _, n := range s.frontier {
			for _, e := range b.topo.NodeElems(n) {
				if !s.seenElems.CheckedAdd(uint32(e)) {
					continue
				}
				for _, c := range b.topo.ElemNodes(e) {
					if !s.seenNodes.CheckedAdd(uint32(c)) {
						continue
					}
					if b.masters.Contains(uint32(c)) {
						out = append(out, c)
						if len(out) == patch {
							return out
						}
					}
					s.next = append(s.next, c)
				}
			}
		}
		s.frontier, s.next = s.next, s.frontier
	}

	return out
}

// proximity keeps the patch-size nearest trial masters, nearest first.
func (b *builder) proximity(s *scratch, slave mesh.Node) []mesh.NodeID {
	s.top.Reset()
	for _, m := range b.masterNodes {
		s.top.Offer(queue.Item{Node: m.ID, Distance: geom.SquaredDistance(m.Point, slave.Point)})
	}

	items := s.top.Sorted()
	if len(items) == 0 {
		return nil
	}
	out := make([]mesh.NodeID, len(items))
	for i, it := range items {
		out[i] = it.Node
	}
	return out
}

// relevant reports whether this partition has to track the slave node:
// the slave or one of its candidates must be owned locally.
func (b *builder) relevant(slave mesh.Node, candidates []mesh.NodeID) (bool, error) {
	if slave.Partition == b.local {
		return true, nil
	}
	for _, c := range candidates {
		n, ok := b.topo.Node(c)
		if !ok {
			return false, fmt.Errorf("candidate %d of slave %d: %w", c, slave.ID, ErrUnknownNode)
		}
		if n.Partition == b.local {
			return true, nil
		}
	}
	return false, nil
}
