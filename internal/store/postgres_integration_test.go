//go:build postgres_integration

package store

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vrproute/internal/model"
)

func TestPostgresRunLifecycle(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}
	p, err := NewPostgres(dsn)
	require.NoError(t, err)
	defer p.Close()
	require.NoError(t, p.Ping(t.Context()))
	require.NoError(t, p.Migrate(t.Context()))

	run, err := p.CreateRun(t.Context(), model.Run{Status: model.RunPending, Algorithm: "heuristic", Params: model.Params{Capacity: 5, MaxStops: 2}})
	require.NoError(t, err)

	run.Status = model.RunCompleted
	run.Solution = &model.Solution{Cost: 7, Trips: []model.Trip{{Stops: []int{1}, Load: 1, Cost: 7}}}
	require.NoError(t, p.UpdateRun(t.Context(), run))

	got, err := p.GetRun(t.Context(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunCompleted, got.Status)
	assert.Equal(t, 7, got.Solution.Cost)

	runs, err := p.ListRuns(t.Context(), 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
