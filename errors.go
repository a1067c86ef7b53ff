package geomsearch

import (
	"errors"
	"fmt"

	"github.com/hupe1980/geomsearch/internal/matcher"
	"github.com/hupe1980/geomsearch/internal/neighborhood"
	"github.com/hupe1980/geomsearch/internal/trial"
	"github.com/hupe1980/geomsearch/mesh"
)

var (
	// ErrNotReady is returned by queries before the first successful FindNodes.
	ErrNotReady = errors.New("locator not ready: call FindNodes first")

	// ErrNotFound is returned when a node is not in the result set.
	ErrNotFound = errors.New("not found")

	// ErrUnknownNode is returned when the mesh cannot resolve a node id the
	// locator depends on.
	ErrUnknownNode = errors.New("unknown node")

	// ErrInvalidPatchSize is returned when the patch size is not positive.
	ErrInvalidPatchSize = errors.New("patch size must be positive")

	// ErrInvalidOption is returned when an option value is out of range.
	ErrInvalidOption = errors.New("invalid option")

	// ErrNameMismatch is returned when a checkpoint belongs to another
	// boundary pair.
	ErrNameMismatch = errors.New("checkpoint name mismatch")
)

// ErrUnknownBoundary indicates a boundary id the mesh does not know.
type ErrUnknownBoundary struct {
	ID     mesh.BoundaryID
	Master mesh.BoundaryID
	Slave  mesh.BoundaryID
}

func (e *ErrUnknownBoundary) Error() string {
	return fmt.Sprintf("locator for boundaries %d and %d: boundary %d does not exist", e.Master, e.Slave, e.ID)
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, neighborhood.ErrUnknownNode) ||
		errors.Is(err, matcher.ErrUnknownNode) ||
		errors.Is(err, trial.ErrUnknownNode) {
		return fmt.Errorf("%w: %w", ErrUnknownNode, err)
	}
	if errors.Is(err, neighborhood.ErrInvalidPatchSize) {
		return fmt.Errorf("%w: %w", ErrInvalidPatchSize, err)
	}

	return err
}
