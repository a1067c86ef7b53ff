// Package matcher selects the nearest candidate master node of every slave
// node in a neighborhood map.
package matcher

import (
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/geomsearch/geom"
	"github.com/hupe1980/geomsearch/internal/neighborhood"
	"github.com/hupe1980/geomsearch/internal/parallel"
	"github.com/hupe1980/geomsearch/mesh"
)

// ErrUnknownNode is returned when a slave or candidate id cannot be resolved.
var ErrUnknownNode = errors.New("node not found in mesh")

// Info is the nearest master node of one slave node.
type Info struct {
	Nearest  mesh.NodeID
	Found    bool
	Distance float64
}

// NoMatch returns the sentinel Info: nothing found, infinite distance.
func NoMatch() Info {
	return Info{Distance: math.Inf(1)}
}

// Result is the output of Match.
type Result struct {
	Info map[mesh.NodeID]Info
	// MaxPatchRatio is the largest candidates/patch-size ratio over all
	// slave nodes. Values at 1.0 mean some neighborhoods were cut off by the
	// patch size.
	MaxPatchRatio float64
}

// Resolver looks up node coordinates.
type Resolver interface {
	Node(id mesh.NodeID) (mesh.Node, bool)
}

// Config controls a match.
type Config struct {
	PatchSize int
	Workers   int
	ChunkSize int
}

// Match scans the candidates of every slave node in nm and keeps the
// nearest one. Equal distances go to the lowest candidate id.
func Match(r Resolver, nm *neighborhood.Map, cfg Config) (*Result, error) {
	chunks := parallel.Chunks(len(nm.Slaves), cfg.Workers, cfg.ChunkSize)
	parts := make([]*Result, len(chunks))

	err := parallel.ForEach(chunks, cfg.Workers, func(i int, rg parallel.Range) error {
		part, err := match(r, nm, nm.Slaves[rg.Lo:rg.Hi], cfg.PatchSize)
		if err != nil {
			return err
		}
		parts[i] = part
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := &Result{Info: make(map[mesh.NodeID]Info, len(nm.Slaves))}
	for _, p := range parts {
		for id, info := range p.Info {
			out.Info[id] = info
		}
		out.MaxPatchRatio = math.Max(out.MaxPatchRatio, p.MaxPatchRatio)
	}
	return out, nil
}

func match(r Resolver, nm *neighborhood.Map, slaves []mesh.NodeID, patchSize int) (*Result, error) {
	part := &Result{Info: make(map[mesh.NodeID]Info, len(slaves))}

	for _, id := range slaves {
		slave, ok := r.Node(id)
		if !ok {
			return nil, fmt.Errorf("slave %d: %w", id, ErrUnknownNode)
		}

		candidates := nm.Candidates[id]
		best := NoMatch()
		for _, c := range candidates {
			n, ok := r.Node(c)
			if !ok {
				return nil, fmt.Errorf("candidate %d of slave %d: %w", c, id, ErrUnknownNode)
			}
			d := geom.Distance(slave.Point, n.Point)
			if !best.Found || d < best.Distance || (d == best.Distance && c < best.Nearest) {
				best = Info{Nearest: c, Found: true, Distance: d}
			}
		}
		part.Info[id] = best

		if patchSize > 0 {
			ratio := float64(len(candidates)) / float64(patchSize)
			part.MaxPatchRatio = math.Max(part.MaxPatchRatio, ratio)
		}
	}

	return part, nil
}
