package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// InsertRun records a parse attempt and returns its ID.
func (s *Store) InsertRun(run *Run) (int64, error) {
	return insertRunTx(s.db, run)
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertRunTx(ex execer, run *Run) (int64, error) {
	if run.RecordedAt.IsZero() {
		run.RecordedAt = time.Now()
	}
	res, err := ex.Exec(
		`INSERT INTO runs (path, grammar, hash, status, message, node_count, has_error, duration_us, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Path, run.Grammar, run.Hash, run.Status, run.Message,
		run.NodeCount, run.HasError, run.Duration.Microseconds(), run.RecordedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	run.ID = id
	return id, nil
}

// Runs returns recorded runs matching f, newest first.
func (s *Store) Runs(f RunFilter) ([]*Run, error) {
	var (
		where []string
		args  []any
	)
	if f.Path != "" {
		where = append(where, "path = ?")
		args = append(args, f.Path)
	}
	if f.Grammar != "" {
		where = append(where, "grammar = ?")
		args = append(args, f.Grammar)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}

	q := `SELECT id, path, COALESCE(grammar, ''), COALESCE(hash, ''), status, COALESCE(message, ''),
	             node_count, has_error, duration_us, recorded_at
	      FROM runs`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY recorded_at DESC, id DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r := &Run{}
		var durationUS int64
		if err := rows.Scan(&r.ID, &r.Path, &r.Grammar, &r.Hash, &r.Status, &r.Message,
			&r.NodeCount, &r.HasError, &durationUS, &r.RecordedAt); err != nil {
			return nil, fmt.Errorf("runs: scan: %w", err)
		}
		r.Duration = time.Duration(durationUS) * time.Microsecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GrammarStats aggregates runs per grammar, ordered by grammar name.
// Runs that failed before a grammar was resolved are grouped under "".
func (s *Store) GrammarStats() ([]*GrammarStat, error) {
	rows, err := s.db.Query(`
		SELECT COALESCE(grammar, ''),
		       COUNT(*),
		       SUM(CASE WHEN status != 'ok' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN has_error THEN 1 ELSE 0 END),
		       COALESCE(AVG(CASE WHEN status = 'ok' THEN node_count END), 0),
		       MAX(id)
		FROM runs
		GROUP BY COALESCE(grammar, '')
		ORDER BY COALESCE(grammar, '')`)
	if err != nil {
		return nil, fmt.Errorf("grammar stats: %w", err)
	}
	defer rows.Close()

	type pending struct {
		stat   *GrammarStat
		lastID int64
	}
	var all []pending
	for rows.Next() {
		st := &GrammarStat{}
		var lastID int64
		if err := rows.Scan(&st.Grammar, &st.Runs, &st.Failures, &st.WithErrors, &st.AvgNodeCount, &lastID); err != nil {
			return nil, fmt.Errorf("grammar stats: scan: %w", err)
		}
		all = append(all, pending{stat: st, lastID: lastID})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// MAX(recorded_at) comes back from SQLite as text, so look the
	// timestamp up through the newest row instead.
	stats := make([]*GrammarStat, 0, len(all))
	for _, p := range all {
		err := s.db.QueryRow("SELECT recorded_at FROM runs WHERE id = ?", p.lastID).Scan(&p.stat.LastRecorded)
		if err != nil {
			return nil, fmt.Errorf("grammar stats: last recorded: %w", err)
		}
		stats = append(stats, p.stat)
	}
	return stats, nil
}
