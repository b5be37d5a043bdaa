// Package httpapi provides the HTTP REST API for delta assessment sessions,
// serving the same operations as the TUI client in JSON format.
package httpapi

import (
	"time"

	"deltaban/internal/banlist"
	"deltaban/internal/domain"
	"deltaban/internal/store"
)

// CreateSessionRequest creates a new calculator session.
type CreateSessionRequest struct {
	Stock string  `json:"stock"`
	Price float64 `json:"price"`
}

// UpdateSessionRequest changes a session's stock and reference price.
type UpdateSessionRequest struct {
	Stock string  `json:"stock"`
	Price float64 `json:"price"`
}

// AddPositionRequest appends a position to one side of a session's books.
type AddPositionRequest struct {
	Kind        string  `json:"kind"`
	Direction   string  `json:"direction"`
	Quantity    float64 `json:"quantity"`
	Sensitivity float64 `json:"sensitivity"`
}

// PositionJSON is the JSON representation of one position row.
type PositionJSON struct {
	ID           int64   `json:"id,omitempty"`
	Kind         string  `json:"kind"`
	Direction    string  `json:"direction"`
	Quantity     float64 `json:"quantity"`
	Sensitivity  float64 `json:"sensitivity"`
	Contribution float64 `json:"contribution"`
}

// BookJSON pairs a book's rows with its aggregate net delta.
type BookJSON struct {
	Positions []PositionJSON `json:"positions"`
	NetDelta  float64        `json:"netDelta"`
}

// SessionJSON is the JSON representation of a full session.
type SessionJSON struct {
	ID        int64    `json:"id"`
	Stock     string   `json:"stock"`
	Price     float64  `json:"price"`
	Banned    bool     `json:"banned"`
	Base      BookJSON `json:"base"`
	New       BookJSON `json:"new"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
}

// SessionsResponse lists sessions, newest first.
type SessionsResponse struct {
	Sessions []SessionJSON `json:"sessions"`
}

// AssessRequest is the stateless assessment request: both books inline.
type AssessRequest struct {
	Stock string         `json:"stock"`
	Price float64        `json:"price"`
	Base  []PositionJSON `json:"base"`
	New   []PositionJSON `json:"new"`
}

// ViolationJSON is the JSON representation of a violation verdict.
type ViolationJSON struct {
	IsViolation bool    `json:"isViolation"`
	Magnitude   float64 `json:"magnitude"`
	Reason      string  `json:"reason"`
}

// PenaltyJSON is the JSON representation of a penalty computation.
type PenaltyJSON struct {
	Raw       float64 `json:"raw"`
	Clamped   float64 `json:"clamped"`
	Surcharge float64 `json:"surcharge"`
	Total     float64 `json:"total"`
}

// AssessmentJSON is the full assessment response.
type AssessmentJSON struct {
	Stock     string        `json:"stock"`
	Price     float64       `json:"price"`
	Banned    bool          `json:"banned"`
	BaseDelta float64       `json:"baseDelta"`
	NetDelta  float64       `json:"netDelta"`
	Change    float64       `json:"change"`
	Violation ViolationJSON `json:"violation"`
	Penalty   *PenaltyJSON  `json:"penalty,omitempty"`
}

// BanEntryJSON is one banned security.
type BanEntryJSON struct {
	Symbol string `json:"symbol"`
	Since  string `json:"since"`
}

// BanListResponse lists the securities in the ban period.
type BanListResponse struct {
	Entries []BanEntryJSON `json:"entries"`
}

// DatesResponse lists the journal dates that have recorded assessments.
type DatesResponse struct {
	Dates []string `json:"dates"`
}

// JournalRecordJSON is one recorded assessment from the journal.
type JournalRecordJSON struct {
	Stock        string  `json:"stock"`
	Timestamp    int64   `json:"timestamp"`
	Price        float64 `json:"price"`
	BaseDelta    float64 `json:"baseDelta"`
	NetDelta     float64 `json:"netDelta"`
	IsViolation  bool    `json:"isViolation"`
	Magnitude    float64 `json:"magnitude"`
	Reason       string  `json:"reason"`
	PenaltyTotal float64 `json:"penaltyTotal"`
}

// JournalResponse holds one date's recorded assessments.
type JournalResponse struct {
	Date    string              `json:"date"`
	Records []JournalRecordJSON `json:"records"`
}

// convertPosition converts a domain position to JSON.
func convertPosition(p domain.Position) PositionJSON {
	return PositionJSON{
		ID:           p.ID,
		Kind:         string(p.Kind),
		Direction:    string(p.Direction),
		Quantity:     p.Quantity,
		Sensitivity:  p.Sensitivity,
		Contribution: p.Contribution,
	}
}

// convertBook converts a domain book to JSON with its net delta.
func convertBook(b domain.Book) BookJSON {
	positions := make([]PositionJSON, 0, len(b))
	for _, p := range b {
		positions = append(positions, convertPosition(p))
	}
	return BookJSON{Positions: positions, NetDelta: b.NetDelta()}
}

// convertSession converts a domain session to JSON, marking ban status.
func convertSession(sess *domain.Session, banned bool) SessionJSON {
	return SessionJSON{
		ID:        sess.ID,
		Stock:     sess.Stock,
		Price:     sess.Price,
		Banned:    banned,
		Base:      convertBook(sess.Base),
		New:       convertBook(sess.New),
		CreatedAt: sess.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: sess.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// convertAssessment converts a domain assessment to JSON.
func convertAssessment(a domain.Assessment, banned bool) AssessmentJSON {
	out := AssessmentJSON{
		Stock:     a.Stock,
		Price:     a.Price,
		Banned:    banned,
		BaseDelta: a.BaseDelta,
		NetDelta:  a.NetDelta,
		Change:    a.Change,
		Violation: ViolationJSON{
			IsViolation: a.Violation.IsViolation,
			Magnitude:   a.Violation.Magnitude,
			Reason:      string(a.Violation.Reason),
		},
	}
	if a.Penalty != nil {
		out.Penalty = &PenaltyJSON{
			Raw:       a.Penalty.Raw,
			Clamped:   a.Penalty.Clamped,
			Surcharge: a.Penalty.Surcharge,
			Total:     a.Penalty.Total,
		}
	}
	return out
}

// convertBanEntries converts ban-list entries to JSON.
func convertBanEntries(entries []banlist.Entry) []BanEntryJSON {
	out := make([]BanEntryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, BanEntryJSON{
			Symbol: e.Symbol,
			Since:  e.Since.Format("2006-01-02"),
		})
	}
	return out
}

// convertJournalRecords converts journal rows to JSON.
func convertJournalRecords(records []store.AssessmentRecord) []JournalRecordJSON {
	out := make([]JournalRecordJSON, 0, len(records))
	for _, r := range records {
		out = append(out, JournalRecordJSON{
			Stock:        r.Stock,
			Timestamp:    r.Timestamp,
			Price:        r.Price,
			BaseDelta:    r.BaseDelta,
			NetDelta:     r.NetDelta,
			IsViolation:  r.IsViolation,
			Magnitude:    r.Magnitude,
			Reason:       r.Reason,
			PenaltyTotal: r.PenaltyTotal,
		})
	}
	return out
}
