package estimate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// relativeSpread returns (max − min)/|mean| of xs, or +Inf for a zero mean.
func relativeSpread(xs []float64) float64 {
	mean := stat.Mean(xs, nil)
	if mean == 0 || math.IsNaN(mean) {
		return math.Inf(1)
	}

	return (floats.Max(xs) - floats.Min(xs)) / math.Abs(mean)
}

// windowSpread returns the larger relative spread of Rg and I0 over
// trials[i : i+window+1]. ok is false when the window runs past the sweep or
// contains a failed trial or an undefined Rg.
func windowSpread(trials []Trial, i, window int) (float64, bool) {
	if i+window >= len(trials) {
		return 0, false
	}
	rg := make([]float64, 0, window+1)
	i0 := make([]float64, 0, window+1)
	for _, t := range trials[i : i+window+1] {
		if !t.OK() || math.IsNaN(t.Rg) || math.IsNaN(t.I0) {
			return 0, false
		}
		rg = append(rg, t.Rg)
		i0 = append(i0, t.I0)
	}

	return math.Max(relativeSpread(rg), relativeSpread(i0)), true
}

// selection is the verdict of a sweep over its trials.
type selection struct {
	index    int
	fallback bool
	spread   float64
	message  string
}

// selectAlpha picks the smallest α (trials are ascending) with at most
// oscThreshold oscillations and χ² ≤ chi2Factor·best. The fallback is the
// fewest oscillations, smallest α on ties.
func selectAlpha(trials []Trial, o Options) (selection, error) {
	best := math.Inf(1)
	for _, t := range trials {
		if t.OK() && t.Chi2 < best {
			best = t.Chi2
		}
	}
	if math.IsInf(best, 1) {
		return selection{}, fmt.Errorf("%w (%d trials)", ErrNoTrial, len(trials))
	}

	for i, t := range trials {
		if t.OK() && t.Oscillations <= o.oscThreshold && t.Chi2 <= o.chi2Factor*best {
			return selection{
				index:   i,
				message: fmt.Sprintf("smallest alpha with <= %d oscillations and chi2 <= %g x best", o.oscThreshold, o.chi2Factor),
			}, nil
		}
	}

	chosen := -1
	for i, t := range trials {
		if t.OK() && (chosen < 0 || t.Oscillations < trials[chosen].Oscillations) {
			chosen = i
		}
	}

	return selection{
		index:    chosen,
		fallback: true,
		message:  fmt.Sprintf("no alpha met the criteria; fewest oscillations (%d)", trials[chosen].Oscillations),
	}, nil
}

// selectNTerms picks the first window whose spread is within plateauTol,
// else the most stable complete window, else the smallest successful N.
func selectNTerms(trials []Trial, o Options) (selection, error) {
	first := -1
	for i, t := range trials {
		if t.OK() {
			first = i
			break
		}
	}
	if first < 0 {
		return selection{}, fmt.Errorf("%w (%d trials)", ErrNoTrial, len(trials))
	}

	chosen, bestSpread := -1, math.Inf(1)
	for i := range trials {
		s, ok := windowSpread(trials, i, o.plateauWindow)
		if !ok {
			continue
		}
		if s <= o.plateauTol {
			return selection{
				index:   i,
				spread:  s,
				message: fmt.Sprintf("Rg and I0 stable within %g over %d following terms", o.plateauTol, o.plateauWindow),
			}, nil
		}
		if s < bestSpread {
			chosen, bestSpread = i, s
		}
	}
	if chosen >= 0 {
		return selection{
			index:    chosen,
			fallback: true,
			spread:   bestSpread,
			message:  fmt.Sprintf("no plateau within %g; most stable window (spread %.3g)", o.plateauTol, bestSpread),
		}, nil
	}

	return selection{
		index:    first,
		fallback: true,
		spread:   math.NaN(),
		message:  "no complete window; smallest successful term count",
	}, nil
}
