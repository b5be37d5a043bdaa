package engine

import (
	"math"

	"deltaban/internal/domain"
)

// Default penalty parameters per the exchange's ban-period rules.
const (
	DefaultPenaltyFloor  = 5000
	DefaultPenaltyCap    = 100000
	DefaultPenaltyRate   = 0.01
	DefaultSurchargeRate = 0.18
)

// PenaltyParams holds the tunable constants of the penalty formula.
type PenaltyParams struct {
	Floor         float64 // minimum penalty after clamping
	Cap           float64 // maximum penalty after clamping
	Rate          float64 // fraction of (magnitude * price) charged
	SurchargeRate float64 // GST rate applied to the clamped penalty
}

// DefaultPenaltyParams returns the standard floor/cap/rate/surcharge values.
func DefaultPenaltyParams() PenaltyParams {
	return PenaltyParams{
		Floor:         DefaultPenaltyFloor,
		Cap:           DefaultPenaltyCap,
		Rate:          DefaultPenaltyRate,
		SurchargeRate: DefaultSurchargeRate,
	}
}

// Calculator computes monetary penalties from a violation magnitude and the
// underlying reference price.
type Calculator struct {
	params PenaltyParams
}

// NewCalculator creates a Calculator with the given parameters.
func NewCalculator(params PenaltyParams) *Calculator {
	return &Calculator{params: params}
}

// Penalty computes the penalty breakdown for a violation magnitude at the
// given reference price:
//
//	raw       = |magnitude| * price * rate
//	clamped   = max(floor, min(cap, raw))
//	surcharge = clamped * surchargeRate
//	total     = clamped + surcharge
//
// The function is total: it never fails, and the floor applies even when raw
// is 0. Callers must only invoke it when a violation actually exists,
// otherwise a floor penalty would be reported for a compliant book.
func (c *Calculator) Penalty(magnitude, price float64) domain.PenaltyResult {
	raw := math.Abs(magnitude) * price * c.params.Rate
	clamped := math.Max(c.params.Floor, math.Min(c.params.Cap, raw))
	surcharge := clamped * c.params.SurchargeRate
	return domain.PenaltyResult{
		Raw:       raw,
		Clamped:   clamped,
		Surcharge: surcharge,
		Total:     clamped + surcharge,
	}
}
