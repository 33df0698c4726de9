package opt

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vrproute/internal/model"
)

func TestParseAlgorithm(t *testing.T) {
	a, err := ParseAlgorithm("Exhaustive")
	require.NoError(t, err)
	assert.Equal(t, Exhaustive, a)
	a, err = ParseAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, Heuristic, a)
	_, err = ParseAlgorithm("annealing")
	assert.True(t, errors.Is(err, ErrInvalidParams))
}

func TestSolveFourCityCycle(t *testing.T) {
	g := mustGraph(t, complete(4, 3))
	p := model.Params{Capacity: 100, MaxStops: 4}

	exact, err := Solve(context.Background(), g, p, Options{Algorithm: Exhaustive})
	require.NoError(t, err)
	require.NoError(t, Verify(g, p, exact.Solution))
	assert.True(t, exact.Solution.Optimal)
	assert.False(t, exact.Solution.Truncated)
	assert.Positive(t, exact.Stats.Candidates)

	heur, err := Solve(context.Background(), g, p, Options{Algorithm: Heuristic})
	require.NoError(t, err)
	require.NoError(t, Verify(g, p, heur.Solution))
	assert.False(t, heur.Solution.Optimal)

	assert.LessOrEqual(t, exact.Solution.Cost, heur.Solution.Cost)
}

func TestSolvePropertiesOnRandomInstances(t *testing.T) {
	r := rand.New(rand.NewSource(2024))
	p := model.Params{Capacity: 7, MaxStops: 3}
	for round := 0; round < 8; round++ {
		g := mustGraph(t, randomInstance(r, 5+round%2, 0.5))

		var costs = map[string]int{}
		for _, algo := range []Algorithm{Exhaustive, Heuristic} {
			for _, parallel := range []bool{false, true} {
				res, err := Solve(context.Background(), g, p, Options{Algorithm: algo, Parallel: parallel, Workers: 4})
				require.NoError(t, err, "round %d %s parallel=%v", round, algo, parallel)
				require.NoError(t, Verify(g, p, res.Solution))
				costs[string(algo)+map[bool]string{false: "/seq", true: "/par"}[parallel]] = res.Solution.Cost
			}
		}
		assert.Equal(t, costs["exhaustive/seq"], costs["exhaustive/par"], "round %d", round)
		assert.Equal(t, costs["heuristic/seq"], costs["heuristic/par"], "round %d", round)
		assert.LessOrEqual(t, costs["exhaustive/seq"], costs["heuristic/seq"], "round %d", round)
	}
}

func TestSolveHeuristicParallelSameTrips(t *testing.T) {
	r := rand.New(rand.NewSource(99))
	g := mustGraph(t, randomInstance(r, 40, 0.3))
	p := model.Params{Capacity: 15, MaxStops: 8}

	seq, err := Solve(context.Background(), g, p, Options{Algorithm: Heuristic})
	require.NoError(t, err)
	par, err := Solve(context.Background(), g, p, Options{Algorithm: Heuristic, Parallel: true, Workers: 8})
	require.NoError(t, err)

	require.NoError(t, Verify(g, p, par.Solution))
	assert.Equal(t, seq.Solution.Trips, par.Solution.Trips)
	assert.Equal(t, seq.Stats, par.Stats)
}

func TestSolveOverweightCityIsInfeasible(t *testing.T) {
	inst := complete(3, 1)
	inst.Cities[1].Demand = 20
	g := mustGraph(t, inst)
	p := model.Params{Capacity: 10, MaxStops: 3}

	for _, algo := range []Algorithm{Exhaustive, Heuristic} {
		for _, parallel := range []bool{false, true} {
			res, err := Solve(context.Background(), g, p, Options{Algorithm: algo, Parallel: parallel, Workers: 3})
			assert.Nil(t, res)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInfeasible), "%s: %v", algo, err)
			var ie *InfeasibleError
			require.True(t, errors.As(err, &ie))
			assert.Equal(t, []int{2}, ie.Unreached)
		}
	}
}

func TestSolveNoValidRouteIsInfeasible(t *testing.T) {
	g := mustGraph(t, &model.Instance{
		Cities: []model.City{{ID: 1, Demand: 1}},
		Roads:  []model.Road{{From: 0, To: 1, Cost: 1}},
	})
	_, err := Solve(context.Background(), g, model.Params{Capacity: 5, MaxStops: 2}, Options{Algorithm: Exhaustive})
	assert.True(t, errors.Is(err, ErrInfeasible))
	assert.False(t, errors.Is(err, ErrInvalidRoute))
}

func TestSolveNoCities(t *testing.T) {
	g := mustGraph(t, &model.Instance{})
	for _, algo := range []Algorithm{Exhaustive, Heuristic} {
		res, err := Solve(context.Background(), g, model.Params{Capacity: 1, MaxStops: 1}, Options{Algorithm: algo})
		require.NoError(t, err)
		assert.Empty(t, res.Solution.Trips)
		assert.Zero(t, res.Solution.Cost)
	}
}

func TestSolveRejectsBadParams(t *testing.T) {
	g := mustGraph(t, complete(2, 1))
	_, err := Solve(context.Background(), g, model.Params{Capacity: 5, MaxStops: 0}, Options{})
	assert.True(t, errors.Is(err, ErrInvalidParams))
	_, err = Solve(context.Background(), g, model.Params{Capacity: 5, MaxStops: 2}, Options{Algorithm: "tabu"})
	assert.True(t, errors.Is(err, ErrInvalidParams))
}

func TestSolveDeadlineKeepsBestSoFar(t *testing.T) {
	g := mustGraph(t, complete(9, 1))
	p := model.Params{Capacity: 100, MaxStops: 9}

	res, err := Solve(context.Background(), g, p, Options{Algorithm: Exhaustive, TimeLimit: time.Nanosecond})
	require.NoError(t, err)
	assert.True(t, res.Solution.Truncated)
	assert.False(t, res.Solution.Optimal)
	require.NoError(t, Verify(g, p, res.Solution))
}

func TestSolveDeadlineWithNothingFound(t *testing.T) {
	// Only the last city has a road home, so every early candidate of the
	// depth-first walk is invalid.
	inst := complete(9, 1)
	var roads []model.Road
	for _, rd := range inst.Roads {
		if rd.To == 0 && rd.From != 9 {
			continue
		}
		roads = append(roads, rd)
	}
	inst.Roads = roads
	g := mustGraph(t, inst)

	_, err := Solve(context.Background(), g, model.Params{Capacity: 100, MaxStops: 9},
		Options{Algorithm: Exhaustive, TimeLimit: time.Nanosecond})
	assert.True(t, errors.Is(err, ErrTimeLimit))
}

func TestSolveReportsProgress(t *testing.T) {
	g := mustGraph(t, complete(4, 3))
	var (
		mu     sync.Mutex
		phases = map[string]int{}
		last   = -1
	)
	res, err := Solve(context.Background(), g, model.Params{Capacity: 100, MaxStops: 2}, Options{
		Algorithm: Exhaustive,
		Progress: func(pr Progress) {
			mu.Lock()
			defer mu.Unlock()
			phases[pr.Phase]++
			last = pr.Cost
		},
	})
	require.NoError(t, err)
	assert.Positive(t, phases[PhaseReduce])
	assert.Equal(t, res.Solution.Cost, last)
}
