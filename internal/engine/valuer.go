// Package engine implements the delta violation pipeline: position valuation,
// book aggregation, violation detection, and penalty calculation. Everything
// in this package is a pure function over explicit inputs; callers own all
// state and validation.
package engine

import (
	"fmt"
	"math"

	"deltaban/internal/domain"
)

// Contribution returns the signed delta contribution of a single position.
//
// Futures carry unit sensitivity: +qty long, -qty short, with the supplied
// sensitivity ignored. Call options use the caller's sensitivity sign as
// given (long +s, short -s). Put options force the magnitude before assigning
// sign (long -|s|, short +|s|): a long put always contributes non-positive
// delta no matter what sign the caller typed. Calls and puts deliberately
// treat the sensitivity sign differently.
//
// Kind and direction must be pre-validated; an unrecognized value is a caller
// defect and panics.
func Contribution(p domain.Position) float64 {
	var effective float64
	switch p.Kind {
	case domain.KindFuture:
		effective = 1
		if p.Direction == domain.Short {
			effective = -1
		}
	case domain.KindCall:
		effective = p.Sensitivity
		if p.Direction == domain.Short {
			effective = -p.Sensitivity
		}
	case domain.KindPut:
		effective = -math.Abs(p.Sensitivity)
		if p.Direction == domain.Short {
			effective = math.Abs(p.Sensitivity)
		}
	default:
		panic(fmt.Sprintf("engine: unrecognized instrument kind %q", p.Kind))
	}
	if !p.Direction.Valid() {
		panic(fmt.Sprintf("engine: unrecognized direction %q", p.Direction))
	}
	return effective * p.Quantity
}

// Aggregate returns the net delta of a sequence of positions: the sum of each
// position's contribution, recomputed from kind/direction/quantity/sensitivity.
// An empty sequence aggregates to 0.
func Aggregate(positions []domain.Position) float64 {
	var sum float64
	for i := range positions {
		sum += Contribution(positions[i])
	}
	return sum
}
