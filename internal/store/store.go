// Package store defines storage interfaces for persisting calculator
// sessions, their position books, and the journal of recorded assessments.
package store

import (
	"context"
	"errors"
	"time"

	"deltaban/internal/domain"
)

// ErrNotFound is returned when a requested session does not exist.
var ErrNotFound = errors.New("store: not found")

// SessionStore persists sessions and the position rows of their two books.
type SessionStore interface {
	// CreateSession inserts a new session with empty books.
	CreateSession(ctx context.Context, stock string, price float64) (*domain.Session, error)

	// GetSession retrieves a session with both books fully loaded.
	GetSession(ctx context.Context, id int64) (*domain.Session, error)

	// ListSessions returns all sessions, books included, newest first.
	ListSessions(ctx context.Context) ([]domain.Session, error)

	// UpdateSession changes a session's stock name and reference price.
	UpdateSession(ctx context.Context, id int64, stock string, price float64) error

	// DeleteSession removes a session and all its positions.
	DeleteSession(ctx context.Context, id int64) error

	// AppendPosition adds a position row to one side of a session's books
	// and returns the stored row with its assigned ID.
	AppendPosition(ctx context.Context, sessionID int64, side domain.BookSide, pos domain.Position) (domain.Position, error)

	// RemoveLastPosition drops the most recently appended row from one side.
	// Removing from an empty book is a no-op.
	RemoveLastPosition(ctx context.Context, sessionID int64, side domain.BookSide) error

	// ClearBook removes all rows from one side.
	ClearBook(ctx context.Context, sessionID int64, side domain.BookSide) error

	// CopyBaseToNew replaces the new book with a value copy of the base book.
	CopyBaseToNew(ctx context.Context, sessionID int64) error
}

// JournalStore persists finalized assessments, grouped by calendar date.
type JournalStore interface {
	// Record appends an assessment to the journal for the date of `when`.
	Record(ctx context.Context, a domain.Assessment, when time.Time) error

	// ListDates returns the sorted dates (YYYY-MM-DD) that have journal data.
	ListDates(ctx context.Context) ([]string, error)

	// LoadByDate returns all recorded assessments for the given date.
	LoadByDate(ctx context.Context, date string) ([]AssessmentRecord, error)
}
