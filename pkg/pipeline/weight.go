package pipeline

import (
	"strings"

	"github.com/sbrg/gds/pkg/algo"
	gdserrors "github.com/sbrg/gds/pkg/errors"
	"github.com/sbrg/gds/pkg/graph"
	"github.com/sbrg/gds/pkg/graphdb"
)

// Weight specs.
const (
	WeightUnit     = "unit"
	WeightHub      = "hub"
	weightProperty = "property:"
)

// ValidateWeight checks a weight spec: "", "unit", "hub" or
// "property:<key>".
func ValidateWeight(spec string) error {
	switch {
	case spec == "", spec == WeightUnit, spec == WeightHub:
		return nil
	case strings.HasPrefix(spec, weightProperty):
		if key := strings.TrimPrefix(spec, weightProperty); graphdb.ValidIdentifier(key) {
			return nil
		}
	}
	return gdserrors.New(gdserrors.ErrCodeInvalidInput,
		"invalid weight %q (must be unit, hub or property:<key>)", spec)
}

// WeightFunc builds the edge weight for spec on g. Unit weights return
// nil, which the algorithms treat as 1 per edge. Property weights fall
// back to 1 for edges without a numeric value.
func WeightFunc(spec string, g *graph.Graph) (algo.WeightFunc, error) {
	if err := ValidateWeight(spec); err != nil {
		return nil, err
	}
	switch {
	case spec == WeightHub:
		return algo.HubPenalty(g), nil
	case strings.HasPrefix(spec, weightProperty):
		return algo.PropertyWeight(strings.TrimPrefix(spec, weightProperty), 1), nil
	}
	return nil, nil
}
