package engine

import (
	"math"
	"testing"

	"deltaban/internal/domain"
)

func TestDetectViolation(t *testing.T) {
	tests := []struct {
		name      string
		netDelta  float64
		baseDelta float64
		violation bool
		magnitude float64
		reason    domain.ViolationReason
	}{
		{"both zero", 0, 0, false, 0, domain.ReasonNoViolation},
		{"from zero positive", 42.5, 0, true, 42.5, domain.ReasonFromZero},
		{"from zero negative", -42.5, 0, true, 42.5, domain.ReasonFromZero},
		{"sign change neg to pos", 5, -3, true, 8, domain.ReasonSignChangeNegPos},
		{"sign change pos to neg", -5, 3, true, 8, domain.ReasonSignChangePosNeg},
		{"same sign increase", 10, 4, true, 6, domain.ReasonSameDirection},
		{"same sign decrease", 4, 10, false, 0, domain.ReasonNoViolation},
		{"unchanged positive", 7, 7, false, 0, domain.ReasonNoViolation},
		{"unchanged negative", -7, -7, false, 0, domain.ReasonNoViolation},
		{"negative toward zero", -1, -5, true, 4, domain.ReasonSameDirection},
		{"negative away from zero", -5, -1, false, 0, domain.ReasonNoViolation},
		// Net exactly zero with nonzero base is not a sign change; it falls
		// through to the same-sign comparison.
		{"to zero from positive", 0, 3, false, 0, domain.ReasonNoViolation},
		{"to zero from negative", 0, -3, true, 3, domain.ReasonSameDirection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectViolation(tt.netDelta, tt.baseDelta)
			if got.IsViolation != tt.violation {
				t.Errorf("IsViolation = %v, want %v", got.IsViolation, tt.violation)
			}
			if math.Abs(got.Magnitude-tt.magnitude) > 1e-9 {
				t.Errorf("Magnitude = %v, want %v", got.Magnitude, tt.magnitude)
			}
			if got.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", got.Reason, tt.reason)
			}
		})
	}
}

func TestDetectViolationSignChangeExample(t *testing.T) {
	// Documented sign-change scenario: base -2732.9080 → net +1570.7040.
	got := DetectViolation(1570.7040, -2732.9080)
	if !got.IsViolation {
		t.Fatal("expected violation")
	}
	if math.Abs(got.Magnitude-4303.6120) > 1e-9 {
		t.Errorf("Magnitude = %v, want 4303.6120", got.Magnitude)
	}
	if got.Reason != domain.ReasonSignChangeNegPos {
		t.Errorf("Reason = %q, want %q", got.Reason, domain.ReasonSignChangeNegPos)
	}
}

func TestDetectViolationNeverViolatesOnNoChange(t *testing.T) {
	for _, x := range []float64{-1000, -1, -0.0001, 0.0001, 1, 25.632, 1000} {
		got := DetectViolation(x, x)
		if got.IsViolation {
			t.Errorf("DetectViolation(%v, %v) flagged a violation", x, x)
		}
		if got.Magnitude != 0 {
			t.Errorf("DetectViolation(%v, %v).Magnitude = %v, want 0", x, x, got.Magnitude)
		}
	}
}
