package opt

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vrproute/internal/model"
)

// lineInstance places city i at x = pos[i] and links every pair with the
// distance between them.
func lineInstance(pos []int, skip map[[2]int]bool) *model.Instance {
	inst := &model.Instance{}
	for i := 1; i < len(pos); i++ {
		inst.Cities = append(inst.Cities, model.City{ID: i, Demand: 1})
	}
	for a := range pos {
		for b := range pos {
			if a == b || skip[[2]int{a, b}] {
				continue
			}
			d := pos[a] - pos[b]
			if d < 0 {
				d = -d
			}
			inst.Roads = append(inst.Roads, model.Road{From: a, To: b, Cost: d})
		}
	}
	return inst
}

func TestGreedyTieKeepsFirstNeighbor(t *testing.T) {
	g := mustGraph(t, &model.Instance{
		Cities: []model.City{{ID: 1, Demand: 1}, {ID: 2, Demand: 1}},
		Roads: []model.Road{
			{From: 0, To: 2, Cost: 3},
			{From: 0, To: 1, Cost: 3},
			{From: 1, To: 0, Cost: 1},
			{From: 2, To: 0, Cost: 1},
		},
	})
	trips, err := greedySeed(g, limits{capacity: 1, maxStops: 5})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 2, 0}, {0, 1, 0}}, trips)
}

func TestGreedyCutsTripBackToRoadHome(t *testing.T) {
	g := mustGraph(t, &model.Instance{
		Cities: []model.City{{ID: 1, Demand: 1}, {ID: 2, Demand: 1}, {ID: 3, Demand: 1}},
		Roads: []model.Road{
			{From: 0, To: 1, Cost: 1},
			{From: 1, To: 2, Cost: 1},
			{From: 2, To: 3, Cost: 1},
			{From: 3, To: 0, Cost: 1},
			{From: 1, To: 0, Cost: 1},
			{From: 0, To: 2, Cost: 10},
		},
	})
	trips, err := greedySeed(g, limits{capacity: 10, maxStops: 2})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1, 0}, {0, 2, 3, 0}}, trips)
}

func TestGreedyReportsOverweightCity(t *testing.T) {
	inst := complete(3, 1)
	inst.Cities[2].Demand = 9
	g := mustGraph(t, inst)

	_, err := greedySeed(g, limits{capacity: 5, maxStops: 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInfeasible))
	var ie *InfeasibleError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, []int{3}, ie.Unreached)
	assert.Equal(t, "demand exceeds vehicle capacity", ie.Reason)
}

func TestGreedyReportsUnreachableCity(t *testing.T) {
	g := mustGraph(t, &model.Instance{
		Cities: []model.City{{ID: 1, Demand: 1}, {ID: 2, Demand: 1}},
		Roads: []model.Road{
			{From: 0, To: 1, Cost: 1},
			{From: 1, To: 0, Cost: 1},
		},
	})
	_, err := greedySeed(g, limits{capacity: 5, maxStops: 3})
	var ie *InfeasibleError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, []int{2}, ie.Unreached)
}

func TestTwoOptUncrossesLine(t *testing.T) {
	g := mustGraph(t, lineInstance([]int{0, 1, 3, 2, 4}, nil))
	start := []int{0, 1, 2, 3, 4, 0}

	out, cost, err := ImproveTwoOpt(context.Background(), g, start)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 3, 2, 4, 0}, out)
	assert.Equal(t, 8, cost)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 0}, start, "input must not change")
}

func TestTwoOptSkipsMissingRoads(t *testing.T) {
	g := mustGraph(t, lineInstance([]int{0, 1, 3, 2, 4}, map[[2]int]bool{{1, 3}: true, {2, 4}: true}))

	out, cost, err := ImproveTwoOpt(context.Background(), g, []int{0, 1, 2, 3, 4, 0})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 0}, out)
	assert.Equal(t, 10, cost)
}

func TestTwoOptFixedPoint(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	g := mustGraph(t, randomComplete(r, 9))
	start := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 0}

	once, c1, err := ImproveTwoOpt(context.Background(), g, start)
	require.NoError(t, err)
	twice, c2, err := ImproveTwoOpt(context.Background(), g, once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
	assert.Equal(t, c1, c2)
}

func TestTwoOptParallelMatchesSequential(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for round := 0; round < 10; round++ {
		inst := randomComplete(r, 10)
		// Drop a few roads that the starting tour does not use.
		var kept []model.Road
		for _, rd := range inst.Roads {
			if rd.To != rd.From+1 && rd.To != 0 && r.Float64() < 0.2 {
				continue
			}
			kept = append(kept, rd)
		}
		inst.Roads = kept
		g := mustGraph(t, inst)
		start := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 0}

		seq, sc, err := ImproveTwoOpt(context.Background(), g, start)
		require.NoError(t, err)
		par, pc, err := ImproveTwoOptParallel(context.Background(), g, start, 6)
		require.NoError(t, err)
		assert.Equal(t, seq, par)
		assert.Equal(t, sc, pc)
	}
}

func TestTwoOptRejectsInvalidStart(t *testing.T) {
	g := mustGraph(t, lineInstance([]int{0, 1, 2}, map[[2]int]bool{{2, 0}: true}))
	_, _, err := ImproveTwoOpt(context.Background(), g, []int{0, 1, 2, 0})
	assert.True(t, errors.Is(err, ErrInvalidRoute))
}

func TestSwapCostMatchesMaterializedSwap(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	g := mustGraph(t, randomComplete(r, 7))
	path := []int{0, 3, 1, 6, 2, 7, 4, 5, 0}
	for i := 1; i <= len(path)-3; i++ {
		for j := i + 1; j <= len(path)-2; j++ {
			got, ok := swapCost(g, path, i, j)
			require.True(t, ok)
			want, ok := seqCost(g, twoOptSwap(path, i, j))
			require.True(t, ok)
			assert.Equal(t, want, got, "i=%d j=%d", i, j)
		}
	}
}

func randomComplete(r *rand.Rand, n int) *model.Instance {
	inst := &model.Instance{}
	for i := 1; i <= n; i++ {
		inst.Cities = append(inst.Cities, model.City{ID: i, Demand: 1})
	}
	for a := 0; a <= n; a++ {
		for b := 0; b <= n; b++ {
			if a != b {
				inst.Roads = append(inst.Roads, model.Road{From: a, To: b, Cost: 1 + r.Intn(30)})
			}
		}
	}
	return inst
}
