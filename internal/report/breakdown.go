package report

import (
	"fmt"
	"strings"

	"deltaban/internal/domain"
	"deltaban/internal/engine"
)

// Breakdown renders a full assessment as a text report: the delta summary,
// the violation verdict, and the penalty arithmetic step by step.
func Breakdown(a domain.Assessment, params engine.PenaltyParams) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Stock: %s  (price %s)\n", a.Stock, FormatMoney(a.Price))
	fmt.Fprintf(&b, "Base net delta: %s\n", FormatDelta(a.BaseDelta))
	fmt.Fprintf(&b, "New net delta:  %s\n", FormatDelta(a.NetDelta))
	fmt.Fprintf(&b, "Change:         %s\n\n", FormatDelta(a.Change))

	if !a.Violation.IsViolation {
		fmt.Fprintf(&b, "Verdict: %s\n", a.Violation.Reason)
		return b.String()
	}

	fmt.Fprintf(&b, "VIOLATION: %s\n", a.Violation.Reason)
	fmt.Fprintf(&b, "Violation magnitude: %.4f\n\n", a.Violation.Magnitude)

	if a.Penalty != nil {
		b.WriteString(PenaltySteps(a.Violation.Magnitude, a.Price, *a.Penalty, params))
	}
	return b.String()
}

// PenaltySteps renders the penalty arithmetic as the sequence of steps that
// produced it.
func PenaltySteps(magnitude, price float64, p domain.PenaltyResult, params engine.PenaltyParams) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Raw penalty = |%.4f| × %.2f × %.4g = %s\n",
		magnitude, price, params.Rate, FormatMoney(p.Raw))
	fmt.Fprintf(&b, "Clamped to [%s, %s] = %s\n",
		FormatMoney(params.Floor), FormatMoney(params.Cap), FormatMoney(p.Clamped))
	fmt.Fprintf(&b, "GST @ %.0f%% = %s\n", params.SurchargeRate*100, FormatMoney(p.Surcharge))
	fmt.Fprintf(&b, "Total penalty = %s\n", FormatMoney(p.Total))
	return b.String()
}
