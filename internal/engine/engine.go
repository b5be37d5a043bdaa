package engine

import (
	"deltaban/internal/domain"
)

// Engine composes the valuation, detection, and penalty stages into a single
// assessment of a session's two books. It is stateless and safe for
// concurrent use.
type Engine struct {
	calc *Calculator
}

// New creates an Engine with the given penalty parameters.
func New(params PenaltyParams) *Engine {
	return &Engine{calc: NewCalculator(params)}
}

// Calculator exposes the engine's penalty calculator for callers that need
// the penalty stage on its own.
func (e *Engine) Calculator() *Calculator {
	return e.calc
}

// NewPosition validates and values a position row. The returned position
// carries its contribution, computed once at creation.
func (e *Engine) NewPosition(kind, direction string, quantity, sensitivity float64) (domain.Position, error) {
	k, err := domain.ParseKind(kind)
	if err != nil {
		return domain.Position{}, err
	}
	d, err := domain.ParseDirection(direction)
	if err != nil {
		return domain.Position{}, err
	}
	p := domain.Position{
		Kind:        k,
		Direction:   d,
		Quantity:    quantity,
		Sensitivity: sensitivity,
	}
	p.Contribution = Contribution(p)
	return p, nil
}

// Assess computes the full outcome for a pair of books at the given
// reference price: both aggregates, the violation classification, and the
// penalty breakdown when a violation exists.
func (e *Engine) Assess(stock string, base, next domain.Book, price float64) domain.Assessment {
	baseDelta := Aggregate(base)
	netDelta := Aggregate(next)

	a := domain.Assessment{
		Stock:     stock,
		Price:     price,
		BaseDelta: baseDelta,
		NetDelta:  netDelta,
		Change:    netDelta - baseDelta,
		Violation: DetectViolation(netDelta, baseDelta),
	}
	if a.Violation.IsViolation {
		p := e.calc.Penalty(a.Violation.Magnitude, price)
		a.Penalty = &p
	}
	return a
}
