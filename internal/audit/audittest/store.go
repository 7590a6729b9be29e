// Package audittest provides an in-memory audit store for tests.
package audittest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go-data-sentinel/internal/model"
)

// ErrRunNotFound is returned when a run id is unknown to the store.
var ErrRunNotFound = errors.New("run not found")

// Store is an in-memory audit.Store with the same de-duplication and
// compare-and-set semantics as the SQLite implementation.
type Store struct {
	mu      sync.Mutex
	runs    map[string]model.Run
	events  []model.AuditEvent
	dedup   map[string]bool
	reports []model.ValidationReport

	// FailAppends makes the next N AppendEvent calls fail, for testing
	// the recorder's retry and escalation paths.
	FailAppends int
}

func New() *Store {
	return &Store{
		runs:  make(map[string]model.Run),
		dedup: make(map[string]bool),
	}
}

func (s *Store) CreateRun(ctx context.Context, run model.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.RunID] = run
	return nil
}

func (s *Store) FinalizeRun(ctx context.Context, runID string, status model.RunStatus, endedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return false, ErrRunNotFound
	}
	if run.Status != model.RunStatusRunning {
		return false, nil
	}
	run.Status = status
	run.EndedAt = &endedAt
	s.runs[runID] = run
	return true, nil
}

func (s *Store) GetRun(ctx context.Context, runID string) (model.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return model.Run{}, ErrRunNotFound
	}
	return run, nil
}

func (s *Store) ListRuns(ctx context.Context) ([]model.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	runs := make([]model.Run, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].StartedAt.After(runs[j].StartedAt) })
	return runs, nil
}

func (s *Store) AppendEvent(ctx context.Context, event model.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAppends > 0 {
		s.FailAppends--
		return errors.New("audit store unavailable")
	}
	key := event.DedupKey()
	if s.dedup[key] {
		return nil
	}
	s.dedup[key] = true
	s.events = append(s.events, event)
	return nil
}

func (s *Store) EventsByRun(ctx context.Context, runID string) ([]model.AuditEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var events []model.AuditEvent
	for _, e := range s.events {
		if e.RunID == runID {
			events = append(events, e)
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Timestamp.Before(events[j].Timestamp) })
	return events, nil
}

func (s *Store) SaveReport(ctx context.Context, report model.ValidationReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, report)
	return nil
}

func (s *Store) ReportsByRun(ctx context.Context, runID string) ([]model.ValidationReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var reports []model.ValidationReport
	for _, r := range s.reports {
		if r.RunID == runID {
			reports = append(reports, r)
		}
	}
	return reports, nil
}
