package opt

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"vrproute/internal/graph"
	"vrproute/internal/model"
)

func mustGraph(t *testing.T, inst *model.Instance) *graph.Graph {
	t.Helper()
	g, err := graph.New(inst)
	require.NoError(t, err)
	return g
}

// complete links every pair of vertices, depot included, with cost
// |a-b|*step + 1 so distinct routes tend to have distinct costs.
func complete(n, step int) *model.Instance {
	inst := &model.Instance{}
	for i := 1; i <= n; i++ {
		inst.Cities = append(inst.Cities, model.City{ID: i, Demand: 1})
	}
	for a := 0; a <= n; a++ {
		for b := 0; b <= n; b++ {
			if a == b {
				continue
			}
			d := a - b
			if d < 0 {
				d = -d
			}
			inst.Roads = append(inst.Roads, model.Road{From: a, To: b, Cost: d*step + 1})
		}
	}
	return inst
}

// randomInstance always links the depot with every city in both
// directions, so the greedy constructor can finish; inter-city roads are
// sparse and asymmetric.
func randomInstance(r *rand.Rand, n int, density float64) *model.Instance {
	inst := &model.Instance{}
	for i := 1; i <= n; i++ {
		inst.Cities = append(inst.Cities, model.City{ID: i, Demand: 1 + r.Intn(4)})
		inst.Roads = append(inst.Roads,
			model.Road{From: 0, To: i, Cost: 5 + r.Intn(20)},
			model.Road{From: i, To: 0, Cost: 5 + r.Intn(20)},
		)
	}
	for a := 1; a <= n; a++ {
		for b := 1; b <= n; b++ {
			if a != b && r.Float64() < density {
				inst.Roads = append(inst.Roads, model.Road{From: a, To: b, Cost: 1 + r.Intn(15)})
			}
		}
	}
	return inst
}

func keys(seqs [][]int) []string {
	out := make([]string, len(seqs))
	for i, s := range seqs {
		out[i] = fmt.Sprint(s)
	}
	sort.Strings(out)
	return out
}
