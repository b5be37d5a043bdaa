// Package domain defines the core types shared across the deltaban system:
// instrument kinds, position directions, positions, books, sessions, and the
// results produced by violation detection and penalty calculation.
package domain

import (
	"fmt"
	"time"
)

// Kind identifies the instrument type of a position.
type Kind string

// Recognized instrument kinds.
const (
	KindFuture Kind = "Future"
	KindCall   Kind = "Call Option"
	KindPut    Kind = "Put Option"
)

// Valid reports whether k is one of the recognized instrument kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindFuture, KindCall, KindPut:
		return true
	}
	return false
}

// ParseKind validates a raw kind string at the input boundary.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unrecognized instrument kind %q", s)
	}
	return k, nil
}

// Direction identifies whether a position is long or short.
type Direction string

// Recognized position directions.
const (
	Long  Direction = "Long"
	Short Direction = "Short"
)

// Valid reports whether d is one of the recognized directions.
func (d Direction) Valid() bool {
	return d == Long || d == Short
}

// ParseDirection validates a raw direction string at the input boundary.
func ParseDirection(s string) (Direction, error) {
	d := Direction(s)
	if !d.Valid() {
		return "", fmt.Errorf("unrecognized direction %q", s)
	}
	return d, nil
}

// BookSide distinguishes the two books of a session.
type BookSide string

// The two book sides: base holds the EOD snapshot when the ban started, new
// holds the book after a subsequent trade or modification.
const (
	BaseBook BookSide = "base"
	NewBook  BookSide = "new"
)

// Valid reports whether s is one of the two book sides.
func (s BookSide) Valid() bool {
	return s == BaseBook || s == NewBook
}

// ParseBookSide validates a raw book side string at the input boundary.
func ParseBookSide(s string) (BookSide, error) {
	side := BookSide(s)
	if !side.Valid() {
		return "", fmt.Errorf("unrecognized book side %q", s)
	}
	return side, nil
}

// Position is a single row in a book. Contribution is the signed delta
// contribution computed once when the position is created; a position is never
// mutated in place, only appended to or removed from a book.
type Position struct {
	ID           int64     `json:"id,omitempty"`
	Kind         Kind      `json:"kind"`
	Direction    Direction `json:"direction"`
	Quantity     float64   `json:"quantity"`
	Sensitivity  float64   `json:"sensitivity"`
	Contribution float64   `json:"contribution"`
}

// Book is an ordered sequence of positions. Order is insertion order; it has
// no effect on aggregation but determines which position "remove last" drops.
type Book []Position

// NetDelta returns the sum of the stored contributions of all positions.
// An empty book has net delta 0.
func (b Book) NetDelta() float64 {
	var sum float64
	for i := range b {
		sum += b[i].Contribution
	}
	return sum
}

// Copy returns a value copy of the book. The copy shares no storage with the
// original, so mutating one never affects the other.
func (b Book) Copy() Book {
	if b == nil {
		return nil
	}
	out := make(Book, len(b))
	copy(out, b)
	return out
}

// Session owns the mutable state the interactive clients edit: the security
// under ban, its underlying price, and the two position books. The core engine
// never reads a session directly; books and price are passed in explicitly.
type Session struct {
	ID        int64     `json:"id"`
	Stock     string    `json:"stock"`
	Price     float64   `json:"price"`
	Base      Book      `json:"base"`
	New       Book      `json:"new"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ViolationReason is the enumerated reason code attached to a detection result.
type ViolationReason string

// Reason codes produced by violation detection. The strings are part of the
// reported output and mirror the regulator-facing wording.
const (
	ReasonFromZero         ViolationReason = "From zero to non-zero"
	ReasonSignChangeNegPos ViolationReason = "Sign changed from negative to positive"
	ReasonSignChangePosNeg ViolationReason = "Sign changed from positive to negative"
	ReasonSameDirection    ViolationReason = "Net Delta increased in same direction"
	ReasonNoViolation      ViolationReason = "No violation - Delta decreased or remained same"
)

// ViolationResult classifies the change between the base and new aggregates.
type ViolationResult struct {
	IsViolation bool            `json:"isViolation"`
	Magnitude   float64         `json:"magnitude"`
	Reason      ViolationReason `json:"reason"`
}

// PenaltyResult breaks down a monetary penalty: the raw amount before
// clamping, the clamped amount, the tax surcharge, and the payable total.
type PenaltyResult struct {
	Raw       float64 `json:"raw"`
	Clamped   float64 `json:"clamped"`
	Surcharge float64 `json:"surcharge"`
	Total     float64 `json:"total"`
}

// Assessment is the full computed outcome for a session: both aggregates, the
// violation classification, and the penalty when a violation exists. Penalty
// is nil when there is no violation; the floor must never be reported for a
// compliant book.
type Assessment struct {
	Stock     string          `json:"stock"`
	Price     float64         `json:"price"`
	BaseDelta float64         `json:"baseDelta"`
	NetDelta  float64         `json:"netDelta"`
	Change    float64         `json:"change"`
	Violation ViolationResult `json:"violation"`
	Penalty   *PenaltyResult  `json:"penalty,omitempty"`
}
