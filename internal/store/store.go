package store

import (
	"context"
	"errors"

	"vrproute/internal/model"
)

// Store is the persistence interface used by the API server.
type Store interface {
	// CreateRun persists a new run, assigning an ID when run.ID is empty.
	CreateRun(ctx context.Context, run model.Run) (model.Run, error)
	// UpdateRun replaces the stored run with the same ID.
	UpdateRun(ctx context.Context, run model.Run) error
	GetRun(ctx context.Context, id string) (model.Run, error)
	// ListRuns returns the newest runs first.
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)
	Ping(ctx context.Context) error
}

var ErrNotFound = errors.New("not found")

const (
	defaultLimit = 50
	maxLimit     = 500
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
