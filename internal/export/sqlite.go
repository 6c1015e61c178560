package export

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/obsidianstack/basketrules/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	started_at   TEXT NOT NULL,
	source       TEXT NOT NULL,
	transactions INTEGER NOT NULL,
	items        INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS itemsets (
	run_id   TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	items    TEXT NOT NULL,
	length   INTEGER NOT NULL,
	support  REAL NOT NULL,
	PRIMARY KEY (run_id, position)
);
CREATE TABLE IF NOT EXISTS rules (
	run_id             TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position           INTEGER NOT NULL,
	antecedents        TEXT NOT NULL,
	consequents        TEXT NOT NULL,
	antecedent_support REAL NOT NULL,
	consequent_support REAL NOT NULL,
	support            REAL NOT NULL,
	confidence         REAL,
	lift               REAL,
	leverage           REAL,
	conviction         REAL,
	zhang              REAL,
	PRIMARY KEY (run_id, position)
);
CREATE INDEX IF NOT EXISTS rules_zhang ON rules (run_id, zhang);
`

// SQLite appends a run to a SQLite database, creating the schema if needed.
type SQLite struct {
	Path string
}

func (s SQLite) Name() string { return "sqlite" }

func (s SQLite) Export(ctx context.Context, run *types.Run) error {
	db, err := OpenDB(s.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	return InsertRun(ctx, db, run)
}

// OpenDB opens the database at path with WAL pragmas and the schema applied.
// ":memory:" is accepted for tests.
func OpenDB(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("export: sqlite: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("export: sqlite: open: %w", err)
	}
	// Each connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	for _, p := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("export: sqlite: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("export: sqlite: schema: %w", err)
	}
	return db, nil
}

// InsertRun writes run, its itemsets and its rules in one transaction.
func InsertRun(ctx context.Context, db *sql.DB, run *types.Run) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("export: sqlite: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, source, transactions, items) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC().Format(time.RFC3339Nano), run.Source, run.Transactions, run.Items,
	); err != nil {
		return fmt.Errorf("export: sqlite: insert run: %w", err)
	}

	itemStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO itemsets (run_id, position, items, length, support) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("export: sqlite: prepare itemsets: %w", err)
	}
	defer itemStmt.Close()
	for i, s := range run.Itemsets {
		if _, err := itemStmt.ExecContext(ctx, run.ID, i, s.Key(), s.Len(), s.Support); err != nil {
			return fmt.Errorf("export: sqlite: insert itemset %d: %w", i, err)
		}
	}

	ruleStmt, err := tx.PrepareContext(ctx, `INSERT INTO rules (
		run_id, position, antecedents, consequents,
		antecedent_support, consequent_support, support,
		confidence, lift, leverage, conviction, zhang
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("export: sqlite: prepare rules: %w", err)
	}
	defer ruleStmt.Close()
	for i, r := range run.Rules {
		if _, err := ruleStmt.ExecContext(ctx, run.ID, i,
			types.JoinItems(r.Antecedents), types.JoinItems(r.Consequents),
			r.AntecedentSupport, r.ConsequentSupport, r.Support,
			nullable(r.Confidence), nullable(r.Lift), nullable(r.Leverage),
			nullable(r.Conviction), nullable(r.Zhang),
		); err != nil {
			return fmt.Errorf("export: sqlite: insert rule %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("export: sqlite: commit: %w", err)
	}
	return nil
}

// ReadRules loads the rules of one run in their original order. NULL
// statistics read back as NaN; infinite conviction is stored as NULL too
// and therefore also reads back as NaN.
func ReadRules(ctx context.Context, db *sql.DB, runID string) ([]types.Rule, error) {
	rows, err := db.QueryContext(ctx, `SELECT
		antecedents, consequents, antecedent_support, consequent_support, support,
		confidence, lift, leverage, conviction, zhang
		FROM rules WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("export: sqlite: query rules: %w", err)
	}
	defer rows.Close()

	var out []types.Rule
	for rows.Next() {
		var (
			r                            types.Rule
			ante, cons                   string
			conf, lift, lev, conv, zhang sql.NullFloat64
		)
		if err := rows.Scan(&ante, &cons, &r.AntecedentSupport, &r.ConsequentSupport, &r.Support,
			&conf, &lift, &lev, &conv, &zhang); err != nil {
			return nil, fmt.Errorf("export: sqlite: scan rule: %w", err)
		}
		r.Antecedents = types.SplitItems(ante)
		r.Consequents = types.SplitItems(cons)
		r.Confidence = fromNull(conf)
		r.Lift = fromNull(lift)
		r.Leverage = fromNull(lev)
		r.Conviction = fromNull(conv)
		r.Zhang = fromNull(zhang)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("export: sqlite: rows: %w", err)
	}
	return out, nil
}

// nullable stores non-finite values as NULL.
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNull(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
