package curve

import (
	"math"
	"sort"

	"github.com/meenmo/curvecal/errs"
)

// bracketOrBoundary returns indices (i, i+1) of the two nodes around t in an
// ascending slice. Targets outside the range get the nearest boundary pair,
// which turns interpolation into linear extrapolation.
//
// times must hold at least two entries.
func bracketOrBoundary(times []float64, t float64) (int, int) {
	// First index with times[i] >= t.
	idx := sort.SearchFloat64s(times, t)
	if idx <= 0 {
		return 0, 1
	}
	if idx >= len(times) {
		return len(times) - 2, len(times) - 1
	}
	return idx - 1, idx
}

// validateNodes checks that times are positive, finite and strictly ascending
// and that there is one value per time.
func validateNodes(name string, times, values []float64) error {
	if len(times) == 0 {
		return errs.InvalidArgument("curve %q: at least one node is required", name)
	}
	if len(times) != len(values) {
		return errs.InvalidArgument("curve %q: %d node times for %d values", name, len(times), len(values))
	}
	prev := 0.0
	for i, t := range times {
		if math.IsNaN(t) || math.IsInf(t, 0) || t <= prev {
			return errs.InvalidArgument("curve %q: node time %d (%v) must be positive and strictly ascending", name, i, t)
		}
		prev = t
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errs.InvalidArgument("curve %q: node value %d is not finite", name, i)
		}
	}
	return nil
}

func cloneFloats(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
