package store

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"deltaban/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore(%q): %v", dbPath, err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess, err := s.CreateSession(ctx, "BANDHANBNK", 135.47)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if sess.ID == 0 {
		t.Fatal("CreateSession returned zero ID")
	}

	got, err := s.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Stock != "BANDHANBNK" || got.Price != 135.47 {
		t.Errorf("session = (%q, %v), want (BANDHANBNK, 135.47)", got.Stock, got.Price)
	}
	if len(got.Base) != 0 || len(got.New) != 0 {
		t.Errorf("new session books = (%d, %d) rows, want empty", len(got.Base), len(got.New))
	}

	if err := s.UpdateSession(ctx, sess.ID, "KAYNES", 201.5); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}
	got, err = s.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession after update: %v", err)
	}
	if got.Stock != "KAYNES" || got.Price != 201.5 {
		t.Errorf("session after update = (%q, %v), want (KAYNES, 201.5)", got.Stock, got.Price)
	}

	if err := s.DeleteSession(ctx, sess.ID); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := s.GetSession(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSession after delete returned %v, want ErrNotFound", err)
	}
}

func TestSessionNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetSession(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSession(999) = %v, want ErrNotFound", err)
	}
	if err := s.UpdateSession(ctx, 999, "X", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateSession(999) = %v, want ErrNotFound", err)
	}
	if err := s.DeleteSession(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteSession(999) = %v, want ErrNotFound", err)
	}
	if _, err := s.AppendPosition(ctx, 999, domain.BaseBook, domain.Position{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("AppendPosition(999) = %v, want ErrNotFound", err)
	}
}

func TestBookOperations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess, err := s.CreateSession(ctx, "BANDHANBNK", 135.47)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	rows := []domain.Position{
		{Kind: domain.KindCall, Direction: domain.Long, Quantity: 7200, Sensitivity: 0.02323, Contribution: 167.256},
		{Kind: domain.KindCall, Direction: domain.Short, Quantity: 25200, Sensitivity: 0.00562, Contribution: -141.624},
		{Kind: domain.KindFuture, Direction: domain.Long, Quantity: 100, Contribution: 100},
	}
	for _, p := range rows {
		if _, err := s.AppendPosition(ctx, sess.ID, domain.BaseBook, p); err != nil {
			t.Fatalf("AppendPosition: %v", err)
		}
	}

	got, err := s.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if len(got.Base) != 3 {
		t.Fatalf("base book has %d rows, want 3", len(got.Base))
	}
	// Insertion order is preserved.
	if got.Base[0].Kind != domain.KindCall || got.Base[2].Kind != domain.KindFuture {
		t.Errorf("book order not preserved: %v, %v", got.Base[0].Kind, got.Base[2].Kind)
	}
	if math.Abs(got.Base.NetDelta()-125.632) > 1e-9 {
		t.Errorf("NetDelta = %v, want 125.632", got.Base.NetDelta())
	}

	// Remove last drops the future row.
	if err := s.RemoveLastPosition(ctx, sess.ID, domain.BaseBook); err != nil {
		t.Fatalf("RemoveLastPosition: %v", err)
	}
	got, _ = s.GetSession(ctx, sess.ID)
	if len(got.Base) != 2 {
		t.Fatalf("base book has %d rows after remove-last, want 2", len(got.Base))
	}
	if got.Base[1].Direction != domain.Short {
		t.Errorf("remove-last removed the wrong row")
	}

	// Remove-last on an empty book is a no-op.
	if err := s.RemoveLastPosition(ctx, sess.ID, domain.NewBook); err != nil {
		t.Errorf("RemoveLastPosition on empty book: %v", err)
	}

	// Clear.
	if err := s.ClearBook(ctx, sess.ID, domain.BaseBook); err != nil {
		t.Fatalf("ClearBook: %v", err)
	}
	got, _ = s.GetSession(ctx, sess.ID)
	if len(got.Base) != 0 {
		t.Errorf("base book has %d rows after clear, want 0", len(got.Base))
	}
}

func TestCopyBaseToNew(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess, err := s.CreateSession(ctx, "BANDHANBNK", 135.47)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if _, err := s.AppendPosition(ctx, sess.ID, domain.BaseBook, domain.Position{
		Kind: domain.KindCall, Direction: domain.Long, Quantity: 7200, Sensitivity: 0.02323, Contribution: 167.256,
	}); err != nil {
		t.Fatalf("AppendPosition(base): %v", err)
	}
	// Stale row in the new book must be replaced by the copy.
	if _, err := s.AppendPosition(ctx, sess.ID, domain.NewBook, domain.Position{
		Kind: domain.KindFuture, Direction: domain.Short, Quantity: 50, Contribution: -50,
	}); err != nil {
		t.Fatalf("AppendPosition(new): %v", err)
	}

	if err := s.CopyBaseToNew(ctx, sess.ID); err != nil {
		t.Fatalf("CopyBaseToNew: %v", err)
	}

	got, err := s.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if len(got.New) != 1 {
		t.Fatalf("new book has %d rows after copy, want 1", len(got.New))
	}
	if got.New[0].Kind != domain.KindCall || got.New[0].Quantity != 7200 {
		t.Errorf("copied row = %+v, want the base call position", got.New[0])
	}

	// The copy is by value: removing from new must not touch base.
	if err := s.RemoveLastPosition(ctx, sess.ID, domain.NewBook); err != nil {
		t.Fatalf("RemoveLastPosition: %v", err)
	}
	got, _ = s.GetSession(ctx, sess.ID)
	if len(got.Base) != 1 {
		t.Errorf("base book has %d rows after editing new book, want 1", len(got.Base))
	}
}

func TestListSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, stock := range []string{"A", "B", "C"} {
		if _, err := s.CreateSession(ctx, stock, 100); err != nil {
			t.Fatalf("CreateSession(%s): %v", stock, err)
		}
	}

	sessions, err := s.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("ListSessions returned %d sessions, want 3", len(sessions))
	}
	// Newest first.
	if sessions[0].Stock != "C" || sessions[2].Stock != "A" {
		t.Errorf("ListSessions order = [%s %s %s], want [C B A]",
			sessions[0].Stock, sessions[1].Stock, sessions[2].Stock)
	}
}

func TestParquetJournal(t *testing.T) {
	dir := t.TempDir()
	j := NewParquetJournal(dir)
	ctx := context.Background()

	when := time.Date(2025, 12, 5, 16, 0, 0, 0, time.UTC)
	a := domain.Assessment{
		Stock:     "BANDHANBNK",
		Price:     135.47,
		BaseDelta: 25.632,
		NetDelta:  147.024,
		Change:    121.392,
		Violation: domain.ViolationResult{
			IsViolation: true,
			Magnitude:   121.392,
			Reason:      domain.ReasonSameDirection,
		},
		Penalty: &domain.PenaltyResult{Raw: 164.45, Clamped: 5000, Surcharge: 900, Total: 5900},
	}

	if err := j.Record(ctx, a, when); err != nil {
		t.Fatalf("Record: %v", err)
	}
	// A second record on the same date merges into the same file.
	b := a
	b.Stock = "KAYNES"
	if err := j.Record(ctx, b, when.Add(time.Hour)); err != nil {
		t.Fatalf("Record (second): %v", err)
	}

	dates, err := j.ListDates(ctx)
	if err != nil {
		t.Fatalf("ListDates: %v", err)
	}
	if len(dates) != 1 || dates[0] != "2025-12-05" {
		t.Fatalf("ListDates = %v, want [2025-12-05]", dates)
	}

	records, err := j.LoadByDate(ctx, "2025-12-05")
	if err != nil {
		t.Fatalf("LoadByDate: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("LoadByDate returned %d records, want 2", len(records))
	}
	if records[0].Stock != "BANDHANBNK" || records[1].Stock != "KAYNES" {
		t.Errorf("records out of order: %s, %s", records[0].Stock, records[1].Stock)
	}
	if records[0].PenaltyTotal != 5900 {
		t.Errorf("PenaltyTotal = %v, want 5900", records[0].PenaltyTotal)
	}
	if records[0].Reason != string(domain.ReasonSameDirection) {
		t.Errorf("Reason = %q, want %q", records[0].Reason, domain.ReasonSameDirection)
	}
}

func TestParquetJournalEmpty(t *testing.T) {
	j := NewParquetJournal(t.TempDir())
	ctx := context.Background()

	dates, err := j.ListDates(ctx)
	if err != nil {
		t.Fatalf("ListDates on empty journal: %v", err)
	}
	if len(dates) != 0 {
		t.Errorf("ListDates = %v, want empty", dates)
	}

	records, err := j.LoadByDate(ctx, "2025-01-01")
	if err != nil {
		t.Fatalf("LoadByDate on missing date: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("LoadByDate = %v, want empty", records)
	}
}
