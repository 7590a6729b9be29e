package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"go-data-sentinel/internal/model"
)

// Store is the SQLite-backed audit storage. It implements audit.Store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the audit database and ensures its schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	runsTable := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		pipeline_name TEXT,
		env TEXT,
		started_at DATETIME,
		ended_at DATETIME,
		status TEXT,
		offline INTEGER
	);
	`
	eventsTable := `
	CREATE TABLE IF NOT EXISTS audit_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_id TEXT,
		dedup_key TEXT UNIQUE,
		run_id TEXT,
		pipeline_name TEXT,
		node_name TEXT,
		event_kind TEXT,
		timestamp DATETIME,
		payload TEXT
	);
	`
	reportsTable := `
	CREATE TABLE IF NOT EXISTS validation_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		dataset TEXT,
		fingerprint TEXT,
		verdict TEXT,
		report TEXT,
		created_at DATETIME
	);
	`

	for _, stmt := range []string{runsTable, eventsTable, reportsTable} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun stores a new run record.
func (s *Store) CreateRun(ctx context.Context, run model.Run) error {
	offline := 0
	if run.Offline {
		offline = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, pipeline_name, env, started_at, status, offline) VALUES (?, ?, ?, ?, ?, ?)`,
		run.RunID, run.PipelineName, run.Env, run.StartedAt.UTC(), string(run.Status), offline)
	return err
}

// FinalizeRun applies a terminal status only while the run is still running,
// so two racing node completions cannot both finalize it.
func (s *Store) FinalizeRun(ctx context.Context, runID string, status model.RunStatus, endedAt time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, ended_at = ? WHERE run_id = ? AND status = ?`,
		string(status), endedAt.UTC(), runID, string(model.RunStatusRunning))
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// GetRun fetches one run record.
func (s *Store) GetRun(ctx context.Context, runID string) (model.Run, error) {
	var (
		run     model.Run
		status  string
		endedAt sql.NullTime
		offline int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, pipeline_name, env, started_at, ended_at, status, offline FROM runs WHERE run_id = ?`, runID).
		Scan(&run.RunID, &run.PipelineName, &run.Env, &run.StartedAt, &endedAt, &status, &offline)
	if err != nil {
		return model.Run{}, err
	}
	run.Status = model.RunStatus(status)
	run.Offline = offline == 1
	if endedAt.Valid {
		t := endedAt.Time
		run.EndedAt = &t
	}
	return run, nil
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]model.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, pipeline_name, env, started_at, ended_at, status, offline FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var (
			run     model.Run
			status  string
			endedAt sql.NullTime
			offline int
		)
		if err := rows.Scan(&run.RunID, &run.PipelineName, &run.Env, &run.StartedAt, &endedAt, &status, &offline); err != nil {
			return nil, err
		}
		run.Status = model.RunStatus(status)
		run.Offline = offline == 1
		if endedAt.Valid {
			t := endedAt.Time
			run.EndedAt = &t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// AppendEvent stores one audit event. Duplicate deliveries of the same
// event collapse on the dedup key, so the write is idempotent.
func (s *Store) AppendEvent(ctx context.Context, event model.AuditEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode event payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO audit_events (event_id, dedup_key, run_id, pipeline_name, node_name, event_kind, timestamp, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.EventID, event.DedupKey(), event.RunID, event.PipelineName, event.NodeName,
		string(event.Kind), event.Timestamp.UTC(), string(payload))
	return err
}

// EventsByRun returns a run's audit trail ordered by timestamp.
func (s *Store) EventsByRun(ctx context.Context, runID string) ([]model.AuditEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_id, run_id, pipeline_name, node_name, event_kind, timestamp, payload
		 FROM audit_events WHERE run_id = ? ORDER BY timestamp, id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.AuditEvent
	for rows.Next() {
		var (
			event   model.AuditEvent
			kind    string
			payload string
		)
		if err := rows.Scan(&event.EventID, &event.RunID, &event.PipelineName, &event.NodeName,
			&kind, &event.Timestamp, &payload); err != nil {
			return nil, err
		}
		event.Kind = model.EventKind(kind)
		if payload != "" && payload != "null" {
			if err := json.Unmarshal([]byte(payload), &event.Payload); err != nil {
				return nil, fmt.Errorf("failed to decode event payload: %w", err)
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// SaveReport stores a validation report as JSON alongside its key columns.
func (s *Store) SaveReport(ctx context.Context, report model.ValidationReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO validation_reports (run_id, dataset, fingerprint, verdict, report, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		report.RunID, report.Dataset, report.Fingerprint, string(report.Verdict), string(data), time.Now().UTC())
	return err
}

// ReportsByRun returns the validation reports captured for a run.
func (s *Store) ReportsByRun(ctx context.Context, runID string) ([]model.ValidationReport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT report FROM validation_reports WHERE run_id = ? ORDER BY created_at, id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []model.ValidationReport
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var report model.ValidationReport
		if err := json.Unmarshal([]byte(data), &report); err != nil {
			return nil, fmt.Errorf("failed to decode report: %w", err)
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}
