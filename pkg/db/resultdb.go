// Package db persists the run's result tables into a small SQLite artifact
// so downstream tools can query them without re-parsing CSV output.
package db

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/yumyai/degview/pkg/diffexpr"
	"github.com/yumyai/degview/pkg/enrich"

	_ "modernc.org/sqlite"
)

type ResultDB struct {
	sql   *sql.DB
	RunID string
}

// Open creates (or reuses) the artifact database and prepares the schema.
// Every pipeline invocation gets its own run identifier.
func Open(path string) (*ResultDB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open result db: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS contrast_results (
		run_id TEXT NOT NULL,
		gene_id TEXT NOT NULL,
		contrast TEXT NOT NULL,
		effect REAL NOT NULL,
		p_value REAL NOT NULL,
		adj_p REAL NOT NULL,
		call INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS enrichment_terms (
		run_id TEXT NOT NULL,
		term_id TEXT NOT NULL,
		description TEXT NOT NULL,
		source TEXT NOT NULL,
		query TEXT NOT NULL,
		p_value REAL NOT NULL
	);
	`
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create result schema: %w", err)
	}

	return &ResultDB{sql: conn, RunID: uuid.NewString()}, nil
}

func (r *ResultDB) Close() error {
	return r.sql.Close()
}

// SaveContrastResults inserts all fitted results in one transaction.
func (r *ResultDB) SaveContrastResults(results []diffexpr.ContrastResult) error {
	tx, err := r.sql.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stm, err := tx.Prepare(`INSERT INTO contrast_results
		(run_id, gene_id, contrast, effect, p_value, adj_p, call)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare contrast insert: %w", err)
	}
	defer stm.Close()

	for _, res := range results {
		if _, err := stm.Exec(r.RunID, res.GeneID, res.Contrast, res.Effect, res.P, res.AdjP, res.Call); err != nil {
			return fmt.Errorf("insert contrast result for %s/%s: %w", res.GeneID, res.Contrast, err)
		}
	}
	return tx.Commit()
}

// SaveTerms inserts the enrichment terms in one transaction.
func (r *ResultDB) SaveTerms(terms []enrich.Term) error {
	tx, err := r.sql.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stm, err := tx.Prepare(`INSERT INTO enrichment_terms
		(run_id, term_id, description, source, query, p_value)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare term insert: %w", err)
	}
	defer stm.Close()

	for _, t := range terms {
		if _, err := stm.Exec(r.RunID, t.ID, t.Description, t.Source, t.Query, t.P); err != nil {
			return fmt.Errorf("insert term %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

// CountResults reports stored rows for this run, mostly for tests.
func (r *ResultDB) CountResults() (contrasts, terms int, err error) {
	row := r.sql.QueryRow(`SELECT COUNT(*) FROM contrast_results WHERE run_id = ?`, r.RunID)
	if err := row.Scan(&contrasts); err != nil {
		return 0, 0, err
	}
	row = r.sql.QueryRow(`SELECT COUNT(*) FROM enrichment_terms WHERE run_id = ?`, r.RunID)
	if err := row.Scan(&terms); err != nil {
		return 0, 0, err
	}
	return contrasts, terms, nil
}
