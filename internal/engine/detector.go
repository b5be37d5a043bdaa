package engine

import (
	"math"

	"deltaban/internal/domain"
)

// DetectViolation classifies the change from baseDelta to netDelta under the
// ban-period rules, in priority order:
//
//  1. Base exactly zero: any nonzero net delta is a violation (a fresh
//     position was opened); magnitude is |netDelta|.
//  2. Sign flip (strictly one positive, the other negative): always a
//     violation; magnitude is |netDelta - baseDelta|. A net delta of exactly
//     zero is not "opposite" to anything and falls through to rule 3.
//  3. Same sign: a violation only when netDelta > baseDelta. The single
//     comparison covers both sides; for a negative base, moving toward zero
//     counts as an increase under the rule.
//
// Comparisons against zero are exact; tolerance handling, if any, belongs to
// the caller.
func DetectViolation(netDelta, baseDelta float64) domain.ViolationResult {
	if baseDelta == 0 {
		if netDelta == 0 {
			return domain.ViolationResult{Reason: domain.ReasonNoViolation}
		}
		return domain.ViolationResult{
			IsViolation: true,
			Magnitude:   math.Abs(netDelta),
			Reason:      domain.ReasonFromZero,
		}
	}

	signChanged := (netDelta > 0 && baseDelta < 0) || (netDelta < 0 && baseDelta > 0)
	if signChanged {
		reason := domain.ReasonSignChangePosNeg
		if netDelta > 0 {
			reason = domain.ReasonSignChangeNegPos
		}
		return domain.ViolationResult{
			IsViolation: true,
			Magnitude:   math.Abs(netDelta - baseDelta),
			Reason:      reason,
		}
	}

	if netDelta > baseDelta {
		return domain.ViolationResult{
			IsViolation: true,
			Magnitude:   math.Abs(netDelta - baseDelta),
			Reason:      domain.ReasonSameDirection,
		}
	}

	return domain.ViolationResult{Reason: domain.ReasonNoViolation}
}
