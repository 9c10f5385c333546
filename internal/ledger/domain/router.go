package domain

import (
	"errors"
	"fmt"

	registrydomain "github.com/summitgrid/corebank/internal/registry/domain"
)

// Source names one of the four daily charge ledgers.
type Source string

const (
	SourceCompute     Source = "compute"
	SourceInteractive Source = "interactive"
	SourceDisk        Source = "disk"
	SourceArchive     Source = "archive"
)

func (s Source) String() string { return string(s) }

// ErrUnsupportedResourceCategory signals a category outside the routing
// table. When it surfaces on a stored resource it means the registry and
// the router disagree, which is a data problem, not a caller problem.
var ErrUnsupportedResourceCategory = errors.New("unsupported_resource_category")

// routes maps a resource category to the ledgers charged for it.
// Interactive resources burn the same grant through both the batch and
// interactive ledgers, so their route is the union of the two.
var routes = map[registrydomain.ResourceCategory][]Source{
	registrydomain.CategoryCompute:     {SourceCompute},
	registrydomain.CategoryInteractive: {SourceCompute, SourceInteractive},
	registrydomain.CategoryDisk:        {SourceDisk},
	registrydomain.CategoryArchive:     {SourceArchive},
}

// Route returns the ledgers to sum for a resource category, in stable
// order. The returned slice is never empty: an unknown category errors.
func Route(category registrydomain.ResourceCategory) ([]Source, error) {
	sources, ok := routes[category]
	if !ok {
		return nil, fmt.Errorf("category %q: %w", category, ErrUnsupportedResourceCategory)
	}
	out := make([]Source, len(sources))
	copy(out, sources)
	return out, nil
}
