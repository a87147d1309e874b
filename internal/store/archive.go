// Package store persists solve artifacts: a flat cut file for inspection
// and restart, and a SQLite archive of solution logs and cuts across runs.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/optistoch/sddp/pkg/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	started_at TIMESTAMP NOT NULL,
	sense      TEXT NOT NULL,
	stages     INTEGER NOT NULL,
	status     TEXT
);
CREATE TABLE IF NOT EXISTS iterations (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	iteration   INTEGER NOT NULL,
	bound       REAL NOT NULL,
	simulated   REAL NOT NULL,
	sim_lower   REAL,
	sim_upper   REAL,
	simulations INTEGER NOT NULL,
	elapsed_ms  REAL NOT NULL,
	PRIMARY KEY (run_id, iteration)
);
CREATE TABLE IF NOT EXISTS cuts (
	run_id       TEXT NOT NULL REFERENCES runs(id),
	stage        INTEGER NOT NULL,
	markov       INTEGER NOT NULL,
	intercept    REAL NOT NULL,
	coefficients TEXT NOT NULL
);
`

// Archive is a SQLite-backed record of solve runs.
type Archive struct {
	db  *sql.DB
	run string
}

// Open creates or opens an archive at path and applies the schema. Use
// ":memory:" for an ephemeral archive.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// One connection keeps writes serialized and makes ":memory:" behave:
	// every pooled connection would otherwise get its own empty database.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close releases the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// RunID returns the identifier of the run begun by BeginRun.
func (a *Archive) RunID() string {
	return a.run
}

// BeginRun registers a new run and returns its identifier.
func (a *Archive) BeginRun(g *core.PolicyGraph) (string, error) {
	id := uuid.NewString()
	_, err := a.db.Exec(
		`INSERT INTO runs (id, started_at, sense, stages) VALUES (?, ?, ?, ?)`,
		id, time.Now().UTC(), g.Sense.String(), len(g.Stages),
	)
	if err != nil {
		return "", fmt.Errorf("store: begin run: %w", err)
	}
	a.run = id
	return id, nil
}

// FinishRun stores the termination status and the graph's solution log and
// cuts for the current run.
func (a *Archive) FinishRun(g *core.PolicyGraph, status string) error {
	if a.run == "" {
		return fmt.Errorf("store: FinishRun without BeginRun")
	}
	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("store: finish run: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE runs SET status = ? WHERE id = ?`, status, a.run); err != nil {
		return fmt.Errorf("store: update run: %w", err)
	}
	for _, rec := range g.Log {
		_, err := tx.Exec(
			`INSERT INTO iterations (run_id, iteration, bound, simulated, sim_lower, sim_upper, simulations, elapsed_ms)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			a.run, rec.Iteration, rec.Bound, rec.Simulated, rec.SimLower, rec.SimUpper,
			rec.Simulations, float64(rec.Elapsed)/float64(time.Millisecond),
		)
		if err != nil {
			return fmt.Errorf("store: insert iteration %d: %w", rec.Iteration, err)
		}
	}
	for _, stage := range g.Stages {
		for _, sp := range stage.Subproblems {
			if sp.Oracle == nil {
				continue
			}
			for _, cut := range sp.Oracle.ActiveCuts() {
				coeffs := make([]string, len(cut.Coefficients))
				for i, c := range cut.Coefficients {
					coeffs[i] = formatFloat(c)
				}
				_, err := tx.Exec(
					`INSERT INTO cuts (run_id, stage, markov, intercept, coefficients) VALUES (?, ?, ?, ?, ?)`,
					a.run, stage.Index, sp.MarkovIndex, cut.Intercept, strings.Join(coeffs, ","),
				)
				if err != nil {
					return fmt.Errorf("store: insert cut: %w", err)
				}
			}
		}
	}
	return tx.Commit()
}

// IterationCount returns the number of logged iterations for a run.
func (a *Archive) IterationCount(runID string) (int, error) {
	var n int
	err := a.db.QueryRow(`SELECT COUNT(*) FROM iterations WHERE run_id = ?`, runID).Scan(&n)
	return n, err
}
