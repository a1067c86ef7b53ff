package geomsearch

import (
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/hupe1980/geomsearch/checkpoint"
	"github.com/hupe1980/geomsearch/internal/matcher"
	"github.com/hupe1980/geomsearch/internal/neighborhood"
	"github.com/hupe1980/geomsearch/mesh"
)

// Snapshot writes the neighborhoods and nearest-node info to w so a later
// run can Restore them without a rebuild.
func (l *Locator) Snapshot(w io.Writer, c checkpoint.Compression) error {
	if l.state != StateReady {
		return ErrNotReady
	}

	st := &checkpoint.State{
		Name:          l.Name(),
		Master:        l.master,
		Slave:         l.slave,
		PatchSize:     l.patchSize,
		MaxPatchRatio: l.maxPatchRatio,
		Entries:       make([]checkpoint.Entry, 0, l.neighborhoods.Len()),
	}
	for _, id := range l.neighborhoods.Slaves {
		info, ok := l.info[id]
		if !ok {
			info = matcher.NoMatch()
		}
		st.Entries = append(st.Entries, checkpoint.Entry{
			Slave:      id,
			Candidates: l.neighborhoods.Candidates[id],
			Nearest:    info.Nearest,
			Found:      info.Found,
			Distance:   info.Distance,
		})
	}

	if err := checkpoint.Write(w, st, c); err != nil {
		return fmt.Errorf("snapshot %s: %w", l.Name(), err)
	}
	return nil
}

// Restore replaces the state of l with a checkpoint written by Snapshot for
// the same boundary pair. The ghost request is recomputed from the restored
// neighborhoods and registered on the mesh. On success the Locator is
// ready; on error it is left unchanged.
func (l *Locator) Restore(r io.Reader) error {
	st, err := checkpoint.Read(r)
	if err != nil {
		return fmt.Errorf("restore %s: %w", l.Name(), err)
	}
	if st.Name != l.Name() || st.Master != l.master || st.Slave != l.slave {
		return fmt.Errorf("%w: got %q, want %q", ErrNameMismatch, st.Name, l.Name())
	}
	if st.PatchSize <= 0 {
		return fmt.Errorf("restore %s: %w: %d", l.Name(), ErrInvalidPatchSize, st.PatchSize)
	}

	nm := neighborhood.NewMap()
	info := make(map[mesh.NodeID]matcher.Info, len(st.Entries))

	for i, e := range st.Entries {
		if i > 0 && e.Slave <= st.Entries[i-1].Slave {
			return fmt.Errorf("restore %s: %w: slave %d out of order", l.Name(), checkpoint.ErrCorrupt, e.Slave)
		}
		if err := validateEntry(e, st.PatchSize); err != nil {
			return fmt.Errorf("restore %s: %w", l.Name(), err)
		}
		if _, ok := l.mesh.Node(e.Slave); !ok {
			return fmt.Errorf("%w: slave %d", ErrUnknownNode, e.Slave)
		}
		for _, c := range e.Candidates {
			if _, ok := l.mesh.Node(c); !ok {
				return fmt.Errorf("%w: candidate %d of slave %d", ErrUnknownNode, c, e.Slave)
			}
		}

		nm.Slaves = append(nm.Slaves, e.Slave)
		nm.Candidates[e.Slave] = e.Candidates
		info[e.Slave] = matcher.Info{Nearest: e.Nearest, Found: e.Found, Distance: e.Distance}
	}

	ghosts := neighborhood.Ghosts(l.mesh, nm)
	it := ghosts.Iterator()
	for it.HasNext() {
		l.mesh.AddGhostedElem(mesh.ElemID(it.Next()))
	}

	l.patchSize = st.PatchSize
	l.neighborhoods = nm
	l.ghosts = ghosts
	l.info = info
	l.maxPatchRatio = st.MaxPatchRatio
	l.state = StateReady

	l.logger.Info("locator restored from checkpoint",
		"slaves", nm.Len(),
		"ghosts", ghosts.GetCardinality(),
		"patch_size", st.PatchSize,
	)

	return nil
}

// validateEntry checks the invariants FindNodes guarantees for every slave
// in the result set.
func validateEntry(e checkpoint.Entry, patchSize int) error {
	switch {
	case len(e.Candidates) == 0:
		return fmt.Errorf("%w: slave %d has no candidates", checkpoint.ErrCorrupt, e.Slave)
	case len(e.Candidates) > patchSize:
		return fmt.Errorf("%w: slave %d has %d candidates, patch size %d", checkpoint.ErrCorrupt, e.Slave, len(e.Candidates), patchSize)
	case !e.Found:
		return fmt.Errorf("%w: slave %d has no nearest node", checkpoint.ErrCorrupt, e.Slave)
	case math.IsNaN(e.Distance) || math.IsInf(e.Distance, 0) || e.Distance < 0:
		return fmt.Errorf("%w: slave %d has distance %v", checkpoint.ErrCorrupt, e.Slave, e.Distance)
	case !slices.Contains(e.Candidates, e.Nearest):
		return fmt.Errorf("%w: nearest node %d of slave %d is not a candidate", checkpoint.ErrCorrupt, e.Nearest, e.Slave)
	}
	return nil
}
