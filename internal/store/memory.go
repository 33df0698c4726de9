package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"vrproute/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu    sync.Mutex
	runs  map[string]model.Run
	order []string // creation order
}

func NewMemory() *Memory {
	return &Memory{runs: map[string]model.Run{}}
}

func (m *Memory) CreateRun(ctx context.Context, run model.Run) (model.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	m.runs[run.ID] = cloneRun(run)
	m.order = append(m.order, run.ID)
	return run, nil
}

func (m *Memory) UpdateRun(ctx context.Context, run model.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[run.ID]; !ok {
		return ErrNotFound
	}
	m.runs[run.ID] = cloneRun(run)
	return nil
}

func (m *Memory) GetRun(ctx context.Context, id string) (model.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[id]
	if !ok {
		return model.Run{}, ErrNotFound
	}
	return cloneRun(r), nil
}

func (m *Memory) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	limit = clampLimit(limit)
	out := make([]model.Run, 0, min(limit, len(m.order)))
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, cloneRun(m.runs[m.order[i]]))
	}
	return out, nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

// cloneRun copies the solution so callers cannot mutate stored state.
func cloneRun(r model.Run) model.Run {
	if r.Solution != nil {
		s := *r.Solution
		s.Trips = append([]model.Trip(nil), s.Trips...)
		r.Solution = &s
	}
	return r
}
