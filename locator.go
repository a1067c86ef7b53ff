package geomsearch

import (
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/time/rate"

	"github.com/hupe1980/geomsearch/geom"
	"github.com/hupe1980/geomsearch/internal/matcher"
	"github.com/hupe1980/geomsearch/internal/neighborhood"
	"github.com/hupe1980/geomsearch/internal/trial"
	"github.com/hupe1980/geomsearch/mesh"
)

// State is the lifecycle state of a Locator.
type State uint8

const (
	// StateUninitialized means no neighborhoods exist. The next FindNodes
	// builds them.
	StateUninitialized State = iota
	// StateBuilding is held while neighborhoods are computed.
	StateBuilding
	// StateReady means neighborhoods and nearest-node info are available.
	StateReady
)

// String returns a string representation of the State.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateBuilding:
		return "building"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Match is the nearest master node of one slave node.
type Match struct {
	Slave    mesh.NodeID
	Node     mesh.Node
	Distance float64
}

// Locator pairs every node of a slave boundary with its nearest node on a
// master boundary.
//
// Neighborhoods are built once and reused by every later FindNodes, which
// only recomputes distances against the current node coordinates. Call
// Reinit after the mesh topology changes.
//
// A Locator is not safe for concurrent use.
type Locator struct {
	mesh   mesh.Mesh
	master mesh.BoundaryID
	slave  mesh.BoundaryID
	opts   options
	logger *Logger
	warn   *rate.Sometimes

	state         State
	patchSize     int
	neighborhoods *neighborhood.Map
	ghosts        *roaring.Bitmap
	info          map[mesh.NodeID]matcher.Info
	maxPatchRatio float64
}

// New creates a Locator for the given master and slave boundaries of m.
// Both boundaries must exist in m. They may be the same boundary.
func New(m mesh.Mesh, master, slave mesh.BoundaryID, optFns ...Option) (*Locator, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil mesh", ErrInvalidOption)
	}

	ids := m.BoundaryIDs()
	for _, id := range []mesh.BoundaryID{master, slave} {
		if !slices.Contains(ids, id) {
			return nil, &ErrUnknownBoundary{ID: id, Master: master, Slave: slave}
		}
	}

	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	return &Locator{
		mesh:   m,
		master: master,
		slave:  slave,
		opts:   opts,
		logger: opts.logger.WithBoundaries(master, slave),
		warn:   newWarnThrottle(opts.warnInterval),
	}, nil
}

func newWarnThrottle(interval time.Duration) *rate.Sometimes {
	if interval <= 0 {
		return &rate.Sometimes{Every: 1}
	}
	return &rate.Sometimes{First: 1, Interval: interval}
}

// Name returns the restart key of the boundary pair, "<master>to<slave>".
func (l *Locator) Name() string {
	return fmt.Sprintf("%dto%d", l.master, l.slave)
}

// Master returns the master boundary id.
func (l *Locator) Master() mesh.BoundaryID { return l.master }

// Slave returns the slave boundary id.
func (l *Locator) Slave() mesh.BoundaryID { return l.slave }

// State returns the lifecycle state.
func (l *Locator) State() State { return l.state }

// FindNodes computes the nearest master node of every relevant slave node.
//
// The first call (and the first call after Reinit) builds the
// neighborhoods and registers the elements that must be ghosted on the
// mesh. Later calls reuse the neighborhoods and only refresh distances.
// On error the Locator returns to StateUninitialized.
func (l *Locator) FindNodes() error {
	if l.state != StateReady {
		if err := l.build(); err != nil {
			l.reset()
			return err
		}
	}

	if err := l.refresh(); err != nil {
		l.reset()
		return err
	}

	l.state = StateReady
	return nil
}

// Reinit discards all neighborhoods and results and rebuilds them
// immediately.
func (l *Locator) Reinit() error {
	l.reset()
	return l.FindNodes()
}

func (l *Locator) reset() {
	l.state = StateUninitialized
	l.patchSize = 0
	l.neighborhoods = nil
	l.ghosts = nil
	l.info = nil
	l.maxPatchRatio = 0
}

func (l *Locator) resolvePatchSize() (int, error) {
	k := l.opts.patchSize
	if k == 0 {
		k = l.mesh.PatchSize()
	}
	if k <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPatchSize, k)
	}
	return k, nil
}

func (l *Locator) build() error {
	l.state = StateBuilding

	start := time.Now()
	stats, err := l.buildNeighborhoods()
	err = translateError(err)
	d := time.Since(start)

	l.logger.LogBuild(stats, d, err)
	l.opts.metricsCollector.RecordBuild(d, stats, err)

	return err
}

func (l *Locator) buildNeighborhoods() (BuildStats, error) {
	var stats BuildStats

	patch, err := l.resolvePatchSize()
	if err != nil {
		return stats, err
	}
	stats.PatchSize = patch

	filter, err := geom.NewFilter(l.mesh.ProcessorBoundingBox(), l.mesh.GhostedBoundaryInflation())
	if err != nil {
		return stats, err
	}

	set, err := trial.Collect(l.mesh, l.master, l.slave, filter)
	if err != nil {
		return stats, err
	}
	stats.TrialMasters = int(set.Masters.GetCardinality())
	stats.TrialSlaves = int(set.Slaves.GetCardinality())

	res, err := neighborhood.Build(l.mesh, set.SlaveIDs(), set.Masters, neighborhood.Config{
		PatchSize: patch,
		Strategy:  l.opts.strategy,
		Workers:   l.opts.workers,
		ChunkSize: l.opts.chunkSize,
	})
	if err != nil {
		return stats, err
	}

	for _, id := range res.GhostIDs() {
		l.mesh.AddGhostedElem(id)
	}

	stats.Slaves = res.Map.Len()
	stats.Ghosts = int(res.Ghosts.GetCardinality())
	stats.Empty = res.Empty
	stats.Remote = res.Remote

	l.patchSize = patch
	l.neighborhoods = res.Map
	l.ghosts = res.Ghosts

	return stats, nil
}

func (l *Locator) refresh() error {
	start := time.Now()
	res, err := matcher.Match(l.mesh, l.neighborhoods, matcher.Config{
		PatchSize: l.patchSize,
		Workers:   l.opts.workers,
		ChunkSize: l.opts.chunkSize,
	})
	err = translateError(err)
	d := time.Since(start)

	if err != nil {
		l.logger.LogRefresh(0, 0, d, err)
		l.opts.metricsCollector.RecordRefresh(d, 0, 0, err)
		return err
	}

	l.info = res.Info
	l.maxPatchRatio = res.MaxPatchRatio

	l.logger.LogRefresh(len(res.Info), res.MaxPatchRatio, d, nil)
	l.opts.metricsCollector.RecordRefresh(d, len(res.Info), res.MaxPatchRatio, nil)

	if res.MaxPatchRatio >= l.opts.patchWarnThreshold {
		l.warn.Do(func() {
			l.logger.LogPatchExhaustion(res.MaxPatchRatio, l.patchSize)
		})
	}

	return nil
}

func (l *Locator) lookupInfo(id mesh.NodeID) (matcher.Info, error) {
	if l.state != StateReady {
		return matcher.Info{}, ErrNotReady
	}
	info, ok := l.info[id]
	if !ok || !info.Found {
		return matcher.Info{}, fmt.Errorf("slave node %d: %w", id, ErrNotFound)
	}
	return info, nil
}

// Distance returns the distance between a slave node and its nearest
// master node as of the last FindNodes.
func (l *Locator) Distance(id mesh.NodeID) (float64, error) {
	info, err := l.lookupInfo(id)
	if err != nil {
		return 0, err
	}
	return info.Distance, nil
}

// NearestNode returns the nearest master node of a slave node. The node
// is resolved through the mesh, so its coordinates are the current ones.
func (l *Locator) NearestNode(id mesh.NodeID) (mesh.Node, error) {
	info, err := l.lookupInfo(id)
	if err != nil {
		return mesh.Node{}, err
	}
	n, ok := l.mesh.Node(info.Nearest)
	if !ok {
		return mesh.Node{}, fmt.Errorf("%w: master node %d", ErrUnknownNode, info.Nearest)
	}
	return n, nil
}

// Lookup returns the match of a slave node. ok is false when the Locator
// is not ready or the node is not in the result set.
func (l *Locator) Lookup(id mesh.NodeID) (Match, bool) {
	n, err := l.NearestNode(id)
	if err != nil {
		return Match{}, false
	}
	return Match{Slave: id, Node: n, Distance: l.info[id].Distance}, true
}

// All iterates over every match in ascending slave id order.
// It yields nothing when the Locator is not ready.
func (l *Locator) All() iter.Seq[Match] {
	return func(yield func(Match) bool) {
		if l.state != StateReady {
			return
		}
		for _, id := range l.neighborhoods.Slaves {
			m, ok := l.Lookup(id)
			if !ok {
				continue
			}
			if !yield(m) {
				return
			}
		}
	}
}

// SlaveNodes returns the slave nodes in the result set, in ascending order.
func (l *Locator) SlaveNodes() []mesh.NodeID {
	if l.neighborhoods == nil {
		return nil
	}
	return slices.Clone(l.neighborhoods.Slaves)
}

// Neighbors returns the candidate master nodes of a slave node, closest
// first for the proximity strategy and in discovery order otherwise.
func (l *Locator) Neighbors(id mesh.NodeID) ([]mesh.NodeID, bool) {
	if l.neighborhoods == nil {
		return nil, false
	}
	c, ok := l.neighborhoods.Neighbors(id)
	if !ok {
		return nil, false
	}
	return slices.Clone(c), true
}

// MaxPatchRatio returns the largest candidates/patch-size ratio seen by the
// last FindNodes. A value of 1.0 means at least one neighborhood was cut
// off by the patch size.
func (l *Locator) MaxPatchRatio() float64 { return l.maxPatchRatio }

// PatchSize returns the patch size of the current neighborhoods, or zero
// before the first build.
func (l *Locator) PatchSize() int { return l.patchSize }

// GhostedElems returns the element ids this Locator asked the mesh to
// ghost, in ascending order.
func (l *Locator) GhostedElems() []mesh.ElemID {
	if l.ghosts == nil {
		return nil
	}
	out := make([]mesh.ElemID, 0, l.ghosts.GetCardinality())
	it := l.ghosts.Iterator()
	for it.HasNext() {
		out = append(out, mesh.ElemID(it.Next()))
	}
	return out
}
