package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"deltaban/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ SessionStore = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	stock      TEXT NOT NULL,
	price      REAL NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS positions (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id   INTEGER NOT NULL,
	side         TEXT NOT NULL,
	kind         TEXT NOT NULL,
	direction    TEXT NOT NULL,
	quantity     REAL NOT NULL,
	sensitivity  REAL NOT NULL,
	contribution REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_positions_session ON positions(session_id, side, id);
`

// SQLiteStore implements SessionStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, runs the
// schema, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateSession inserts a new session with empty books.
func (s *SQLiteStore) CreateSession(ctx context.Context, stock string, price float64) (*domain.Session, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (stock, price, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		stock, price, now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &domain.Session{
		ID:        id,
		Stock:     stock,
		Price:     price,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetSession retrieves a session with both books fully loaded.
func (s *SQLiteStore) GetSession(ctx context.Context, id int64) (*domain.Session, error) {
	var (
		sess                 domain.Session
		createdMS, updatedMS int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, stock, price, created_at, updated_at FROM sessions WHERE id = ?`, id).
		Scan(&sess.ID, &sess.Stock, &sess.Price, &createdMS, &updatedMS)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("selecting session %d: %w", id, err)
	}
	sess.CreatedAt = time.UnixMilli(createdMS).UTC()
	sess.UpdatedAt = time.UnixMilli(updatedMS).UTC()

	if sess.Base, err = s.loadBook(ctx, id, domain.BaseBook); err != nil {
		return nil, err
	}
	if sess.New, err = s.loadBook(ctx, id, domain.NewBook); err != nil {
		return nil, err
	}
	return &sess, nil
}

// ListSessions returns all sessions, books included, newest first.
func (s *SQLiteStore) ListSessions(ctx context.Context) ([]domain.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM sessions ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sessions := make([]domain.Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.GetSession(ctx, id)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, nil
}

// UpdateSession changes a session's stock name and reference price.
func (s *SQLiteStore) UpdateSession(ctx context.Context, id int64, stock string, price float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET stock = ?, price = ?, updated_at = ? WHERE id = ?`,
		stock, price, time.Now().UTC().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("updating session %d: %w", id, err)
	}
	return s.checkExisted(res)
}

// DeleteSession removes a session and all its positions.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM positions WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("deleting positions of session %d: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting session %d: %w", id, err)
	}
	if err := s.checkExisted(res); err != nil {
		return err
	}
	return tx.Commit()
}

// AppendPosition adds a position row to one side of a session's books.
func (s *SQLiteStore) AppendPosition(ctx context.Context, sessionID int64, side domain.BookSide, pos domain.Position) (domain.Position, error) {
	if err := s.touch(ctx, sessionID); err != nil {
		return domain.Position{}, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO positions (session_id, side, kind, direction, quantity, sensitivity, contribution)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, string(side), string(pos.Kind), string(pos.Direction),
		pos.Quantity, pos.Sensitivity, pos.Contribution)
	if err != nil {
		return domain.Position{}, fmt.Errorf("inserting position: %w", err)
	}
	pos.ID, err = res.LastInsertId()
	if err != nil {
		return domain.Position{}, err
	}
	return pos, nil
}

// RemoveLastPosition drops the most recently appended row from one side.
func (s *SQLiteStore) RemoveLastPosition(ctx context.Context, sessionID int64, side domain.BookSide) error {
	if err := s.touch(ctx, sessionID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM positions WHERE id = (
			SELECT id FROM positions WHERE session_id = ? AND side = ? ORDER BY id DESC LIMIT 1
		)`, sessionID, string(side))
	if err != nil {
		return fmt.Errorf("removing last position: %w", err)
	}
	return nil
}

// ClearBook removes all rows from one side.
func (s *SQLiteStore) ClearBook(ctx context.Context, sessionID int64, side domain.BookSide) error {
	if err := s.touch(ctx, sessionID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM positions WHERE session_id = ? AND side = ?`, sessionID, string(side))
	if err != nil {
		return fmt.Errorf("clearing %s book: %w", side, err)
	}
	return nil
}

// CopyBaseToNew replaces the new book with a value copy of the base book.
// The copies are independent rows; later edits to either book never affect
// the other.
func (s *SQLiteStore) CopyBaseToNew(ctx context.Context, sessionID int64) error {
	if err := s.touch(ctx, sessionID); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM positions WHERE session_id = ? AND side = ?`,
		sessionID, string(domain.NewBook)); err != nil {
		return fmt.Errorf("clearing new book: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO positions (session_id, side, kind, direction, quantity, sensitivity, contribution)
		 SELECT session_id, ?, kind, direction, quantity, sensitivity, contribution
		 FROM positions WHERE session_id = ? AND side = ? ORDER BY id`,
		string(domain.NewBook), sessionID, string(domain.BaseBook)); err != nil {
		return fmt.Errorf("copying base book: %w", err)
	}
	return tx.Commit()
}

// loadBook reads one side's positions in insertion order.
func (s *SQLiteStore) loadBook(ctx context.Context, sessionID int64, side domain.BookSide) (domain.Book, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, direction, quantity, sensitivity, contribution
		 FROM positions WHERE session_id = ? AND side = ? ORDER BY id`,
		sessionID, string(side))
	if err != nil {
		return nil, fmt.Errorf("loading %s book: %w", side, err)
	}
	defer rows.Close()

	var book domain.Book
	for rows.Next() {
		var (
			p               domain.Position
			kind, direction string
		)
		if err := rows.Scan(&p.ID, &kind, &direction, &p.Quantity, &p.Sensitivity, &p.Contribution); err != nil {
			return nil, err
		}
		p.Kind = domain.Kind(kind)
		p.Direction = domain.Direction(direction)
		book = append(book, p)
	}
	return book, rows.Err()
}

// touch verifies the session exists and bumps its updated_at timestamp.
func (s *SQLiteStore) touch(ctx context.Context, sessionID int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET updated_at = ? WHERE id = ?`,
		time.Now().UTC().UnixMilli(), sessionID)
	if err != nil {
		return err
	}
	return s.checkExisted(res)
}

// checkExisted maps a zero-row update/delete to ErrNotFound.
func (s *SQLiteStore) checkExisted(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
