package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps situations in a single local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single writer keeps modernc from returning SQLITE_BUSY
	db.SetMaxOpenConns(1)
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS situations (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMP NOT NULL,
			situation_id TEXT NOT NULL,
			emergency_level TEXT NOT NULL,
			record_json TEXT NOT NULL,
			guideline TEXT,
			degraded INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_situations_created ON situations(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) SaveSituation(ctx context.Context, st StoredSituation) error {
	if st.ID == "" {
		return errors.New("save situation: empty id")
	}
	recJSON, err := json.Marshal(st.Situation)
	if err != nil {
		return fmt.Errorf("encode situation %s: %w", st.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO situations(id, created_at, situation_id, emergency_level, record_json, guideline, degraded)
		VALUES(?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET record_json=excluded.record_json, guideline=excluded.guideline, degraded=excluded.degraded`,
		st.ID, st.CreatedAt.UTC(), string(st.Situation.SituationID), string(st.Situation.EmergencyLevel), string(recJSON), st.Guideline, st.Degraded)
	if err != nil {
		return fmt.Errorf("insert situation %s: %w", st.ID, err)
	}
	return nil
}

// RecentSituations returns the newest records first.
func (s *SQLiteStore) RecentSituations(ctx context.Context, limit int) ([]StoredSituation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, created_at, record_json, guideline, degraded FROM situations ORDER BY created_at DESC, id DESC LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query situations: %w", err)
	}
	defer rows.Close()

	var out []StoredSituation
	for rows.Next() {
		st, err := scanSituation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetSituation(ctx context.Context, id string) (StoredSituation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, created_at, record_json, guideline, degraded FROM situations WHERE id=?`, id)
	st, err := scanSituation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredSituation{}, ErrNotFound
	}
	return st, err
}

// PruneBefore deletes records created strictly before t.
func (s *SQLiteStore) PruneBefore(ctx context.Context, t time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM situations WHERE created_at < ?`, t.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune situations: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSituation(sc scanner) (StoredSituation, error) {
	var (
		st        StoredSituation
		recJSON   string
		guideline sql.NullString
	)
	if err := sc.Scan(&st.ID, &st.CreatedAt, &recJSON, &guideline, &st.Degraded); err != nil {
		return StoredSituation{}, err
	}
	if err := json.Unmarshal([]byte(recJSON), &st.Situation); err != nil {
		return StoredSituation{}, fmt.Errorf("decode situation %s: %w", st.ID, err)
	}
	st.Guideline = guideline.String
	return st, nil
}
