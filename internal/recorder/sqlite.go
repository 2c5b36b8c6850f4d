package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rgehrsitz/savingsim/internal/compare"
	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder keeps ranking runs in a SQLite database. Amounts are stored
// as decimal text so replays reproduce the exact figures.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ranking_runs (
			run_id        TEXT PRIMARY KEY,
			kind          TEXT NOT NULL,
			recorded_at   INTEGER NOT NULL,
			contract_name TEXT,
			config_path   TEXT,
			currency      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_recorded ON ranking_runs(recorded_at)`,

		`CREATE TABLE IF NOT EXISTS ranking_entries (
			run_id              TEXT NOT NULL,
			rank                INTEGER NOT NULL,
			code                TEXT,
			name                TEXT,
			description         TEXT,
			currency            TEXT,
			final_surrender     TEXT,
			final_balance       TEXT,
			total_contributions TEXT,
			total_cost          TEXT,
			total_extras        TEXT,
			break_even_year     INTEGER,
			warnings            INTEGER,
			diff_from_best      TEXT,
			diff_pct_from_best  TEXT,
			PRIMARY KEY (run_id, rank)
		)`,

		`CREATE TABLE IF NOT EXISTS ranking_failures (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			code   TEXT,
			name   TEXT,
			error  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_failures_run ON ranking_failures(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRanking stores the run header, every ranked entry and every failure
// in one transaction.
func (r *SQLiteRecorder) RecordRanking(kind string, rs *compare.RankingSet) error {
	if rs == nil || rs.RunID == "" {
		return fmt.Errorf("ranking has no run id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO ranking_runs (run_id, kind, recorded_at, contract_name, config_path, currency)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rs.RunID, kind, r.now().UnixNano(), rs.ContractName, rs.ConfigPath, string(rs.Currency))
	if err != nil {
		return fmt.Errorf("insert run %s: %w", rs.RunID, err)
	}

	for _, e := range rs.Entries {
		_, err = tx.Exec(`INSERT INTO ranking_entries (run_id, rank, code, name, description, currency,
			final_surrender, final_balance, total_contributions, total_cost, total_extras,
			break_even_year, warnings, diff_from_best, diff_pct_from_best)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rs.RunID, e.Rank, e.Code, e.Name, e.Description, string(e.Currency),
			e.FinalSurrender.String(), e.FinalBalance.String(), e.TotalContributions.String(),
			e.TotalCost.String(), e.TotalExtras.String(),
			e.BreakEvenYear, e.Warnings, e.DiffFromBest.String(), e.DiffPctFromBest.String())
		if err != nil {
			return fmt.Errorf("insert entry %s: %w", e.Code, err)
		}
	}

	for _, f := range rs.Failures {
		_, err = tx.Exec(`INSERT INTO ranking_failures (run_id, code, name, error) VALUES (?, ?, ?, ?)`,
			rs.RunID, f.Code, f.Name, f.Error)
		if err != nil {
			return fmt.Errorf("insert failure %s: %w", f.Code, err)
		}
	}

	return tx.Commit()
}

// RecentRuns lists the newest runs first. A limit below one means no limit.
func (r *SQLiteRecorder) RecentRuns(limit int) ([]RunSummary, error) {
	if limit < 1 {
		limit = -1
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT r.run_id, r.kind, r.recorded_at, r.contract_name, r.config_path, r.currency,
			COALESCE(e.name, ''), COALESCE(e.final_surrender, '0'),
			(SELECT COUNT(*) FROM ranking_entries x WHERE x.run_id = r.run_id),
			(SELECT COUNT(*) FROM ranking_failures f WHERE f.run_id = r.run_id)
		FROM ranking_runs r
		LEFT JOIN ranking_entries e ON e.run_id = r.run_id AND e.rank = 1
		ORDER BY r.recorded_at DESC, r.rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			s         RunSummary
			at        int64
			surrender string
		)
		if err := rows.Scan(&s.RunID, &s.Kind, &at, &s.ContractName, &s.ConfigPath, &s.Currency,
			&s.BestName, &surrender, &s.Entries, &s.Failures); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		s.RecordedAt = time.Unix(0, at)
		if s.BestSurrender, err = decimal.NewFromString(surrender); err != nil {
			return nil, fmt.Errorf("run %s: %w", s.RunID, err)
		}
		runs = append(runs, s)
	}
	return runs, rows.Err()
}

// LoadRanking rebuilds a recorded run. Recommendations are regenerated from
// the stored entries.
func (r *SQLiteRecorder) LoadRanking(runID string) (*compare.RankingSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs := &compare.RankingSet{RunID: runID}
	var currency string
	err := r.db.QueryRow(`SELECT contract_name, config_path, currency FROM ranking_runs WHERE run_id = ?`, runID).
		Scan(&rs.ContractName, &rs.ConfigPath, &currency)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", runID, err)
	}
	rs.Currency = domain.Currency(currency)

	rows, err := r.db.Query(`SELECT rank, code, name, description, currency,
			final_surrender, final_balance, total_contributions, total_cost, total_extras,
			break_even_year, warnings, diff_from_best, diff_pct_from_best
		FROM ranking_entries WHERE run_id = ? ORDER BY rank`, runID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e       compare.RankEntry
			cur     string
			amounts [7]string
		)
		if err := rows.Scan(&e.Rank, &e.Code, &e.Name, &e.Description, &cur,
			&amounts[0], &amounts[1], &amounts[2], &amounts[3], &amounts[4],
			&e.BreakEvenYear, &e.Warnings, &amounts[5], &amounts[6]); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Currency = domain.Currency(cur)
		targets := []*decimal.Decimal{
			&e.FinalSurrender, &e.FinalBalance, &e.TotalContributions, &e.TotalCost,
			&e.TotalExtras, &e.DiffFromBest, &e.DiffPctFromBest,
		}
		for i, raw := range amounts {
			if *targets[i], err = decimal.NewFromString(raw); err != nil {
				return nil, fmt.Errorf("entry %s: %w", e.Code, err)
			}
		}
		rs.Entries = append(rs.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	frows, err := r.db.Query(`SELECT code, name, error FROM ranking_failures WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer frows.Close()
	for frows.Next() {
		var f compare.CandidateFailure
		if err := frows.Scan(&f.Code, &f.Name, &f.Error); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		rs.Failures = append(rs.Failures, f)
	}
	if err := frows.Err(); err != nil {
		return nil, err
	}

	rs.Recommendations = compare.GenerateRecommendations(rs)
	return rs, nil
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
