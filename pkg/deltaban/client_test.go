package deltaban

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"deltaban/internal/engine"
	"deltaban/internal/httpapi"
	"deltaban/internal/store"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	dir := t.TempDir()

	sessions, err := store.NewSQLiteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { sessions.Close() })

	srv := httpapi.NewServer(
		engine.New(engine.DefaultPenaltyParams()),
		sessions,
		store.NewParquetJournal(dir),
		nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return NewClient(ts.URL)
}

func TestClientSessionFlow(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	sess, err := c.CreateSession(ctx, "BANDHANBNK", 135.47)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if _, err := c.AddPosition(ctx, sess.ID, "base", httpapi.AddPositionRequest{
		Kind: "Call Option", Direction: "Long", Quantity: 7200, Sensitivity: 0.02323,
	}); err != nil {
		t.Fatalf("AddPosition: %v", err)
	}

	if _, err := c.CopyBaseToNew(ctx, sess.ID); err != nil {
		t.Fatalf("CopyBaseToNew: %v", err)
	}
	if _, err := c.AddPosition(ctx, sess.ID, "new", httpapi.AddPositionRequest{
		Kind: "Future", Direction: "Long", Quantity: 100,
	}); err != nil {
		t.Fatalf("AddPosition(new): %v", err)
	}

	a, err := c.GetAssessment(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetAssessment: %v", err)
	}
	if !a.Violation.IsViolation {
		t.Fatal("adding a long future must violate")
	}
	if math.Abs(a.Violation.Magnitude-100) > 1e-9 {
		t.Errorf("Magnitude = %v, want 100", a.Violation.Magnitude)
	}

	if _, err := c.RecordAssessment(ctx, sess.ID); err != nil {
		t.Fatalf("RecordAssessment: %v", err)
	}
	dates, err := c.GetJournalDates(ctx)
	if err != nil {
		t.Fatalf("GetJournalDates: %v", err)
	}
	if len(dates) != 1 {
		t.Fatalf("journal dates = %v, want one date", dates)
	}
	journal, err := c.GetJournal(ctx, dates[0])
	if err != nil {
		t.Fatalf("GetJournal: %v", err)
	}
	if len(journal.Records) != 1 {
		t.Errorf("journal has %d records, want 1", len(journal.Records))
	}

	if err := c.DeleteSession(ctx, sess.ID); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
}

func TestClientAPIError(t *testing.T) {
	c := newTestClient(t)

	_, err := c.GetSession(context.Background(), 424242)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("GetSession error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != 404 {
		t.Errorf("StatusCode = %d, want 404", apiErr.StatusCode)
	}
}

func TestClientStatelessAssess(t *testing.T) {
	c := newTestClient(t)

	a, err := c.Assess(context.Background(), httpapi.AssessRequest{
		Stock: "KAYNES",
		Price: 1000,
		Base: []httpapi.PositionJSON{
			{Kind: "Put Option", Direction: "Long", Quantity: 100, Sensitivity: 0.5},
		},
		New: nil,
	})
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	// Base -50 to 0 moves toward zero from the same side: still a violation
	// by the same-sign rule semantics (0 > -50).
	if !a.Violation.IsViolation {
		t.Fatal("expected violation when a negative delta rises to zero")
	}
	if math.Abs(a.Violation.Magnitude-50) > 1e-9 {
		t.Errorf("Magnitude = %v, want 50", a.Violation.Magnitude)
	}
}
