package journal

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists entries to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS action_journal (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        ts INTEGER,
        section_id INTEGER,
        train_id INTEGER,
        train TEXT,
        action TEXT,
        actor INTEGER,
        outcome TEXT,
        state TEXT,
        message TEXT
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the entry to the database.
func (s *SQLiteStore) Append(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO action_journal (ts, section_id, train_id, train, action, actor, outcome, state, message)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Time.UnixNano(), e.SectionID, e.TrainID, e.Train, e.Action, e.Actor, e.Outcome, e.State, e.Message)
	return err
}

// Query returns entries matching q in insertion order.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]Entry, error) {
	var args []any
	query := `SELECT ts, section_id, train_id, train, action, actor, outcome, state, message
        FROM action_journal WHERE 1=1`
	if !q.Start.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, q.End.UnixNano())
	}
	if q.SectionID != 0 {
		query += ` AND section_id = ?`
		args = append(args, q.SectionID)
	}
	if q.TrainID != 0 {
		query += ` AND train_id = ?`
		args = append(args, q.TrainID)
	}
	if q.Action != "" {
		query += ` AND action = ?`
		args = append(args, q.Action)
	}
	query += ` ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []Entry
	for rows.Next() {
		var (
			e  Entry
			ts int64
		)
		if err := rows.Scan(&ts, &e.SectionID, &e.TrainID, &e.Train, &e.Action, &e.Actor, &e.Outcome, &e.State, &e.Message); err != nil {
			return nil, err
		}
		e.Time = unixNano(ts)
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
