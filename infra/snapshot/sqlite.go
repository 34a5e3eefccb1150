package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	coresnap "github.com/kilianp07/trackdispatch/core/snapshot"
)

// SQLiteStore keeps a bounded history of snapshots in a SQLite database and
// loads the newest one.
type SQLiteStore struct {
	db   *sql.DB
	keep int
}

// NewSQLiteStore opens or creates the database at path. keep bounds the
// number of rows retained; values below one keep a single snapshot.
func NewSQLiteStore(path string, keep int) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS snapshots (
        seq INTEGER PRIMARY KEY AUTOINCREMENT,
        id TEXT NOT NULL,
        taken_at INTEGER NOT NULL,
        body BLOB NOT NULL
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	if keep < 1 {
		keep = 1
	}
	return &SQLiteStore{db: db, keep: keep}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, snap coresnap.Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `INSERT INTO snapshots (id, taken_at, body) VALUES (?, ?, ?)`,
		snap.ID.String(), snap.TakenAt.UnixNano(), body); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM snapshots WHERE seq NOT IN (SELECT seq FROM snapshots ORDER BY seq DESC LIMIT ?)`, s.keep); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Load(ctx context.Context) (coresnap.Snapshot, bool, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM snapshots ORDER BY seq DESC LIMIT 1`).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return coresnap.Snapshot{}, false, nil
	}
	if err != nil {
		return coresnap.Snapshot{}, false, err
	}
	var snap coresnap.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return coresnap.Snapshot{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, true, nil
}

// Count returns the number of retained snapshots.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&n)
	return n, err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
