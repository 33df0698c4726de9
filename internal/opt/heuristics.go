package opt

import (
	"context"
	"sync"
	"sync/atomic"

	"vrproute/internal/graph"
)

// twoOptStats counts the passes and applied swaps of one refinement.
type twoOptStats struct {
	passes int
	swaps  int
	cut    bool
}

// ImproveTwoOpt refines one trip path (depot at both ends) by best
// improvement 2-opt: each pass scans every pair 1 <= i < j <= len-2,
// applies the single cheapest strictly improving reversal of path[i..j],
// and stops once a pass finds none. Reversals that would use a missing
// road are skipped. The input slice is not modified.
func ImproveTwoOpt(ctx context.Context, g *graph.Graph, path []int) ([]int, int, error) {
	out, cost, _, err := improveTwoOpt(ctx, g, path, 1, nil)
	return out, cost, err
}

// ImproveTwoOptParallel is ImproveTwoOpt with each pass scanned by
// workers goroutines. It returns the same route as the sequential form.
func ImproveTwoOptParallel(ctx context.Context, g *graph.Graph, path []int, workers int) ([]int, int, error) {
	out, cost, _, err := improveTwoOpt(ctx, g, path, workers, nil)
	return out, cost, err
}

func improveTwoOpt(ctx context.Context, g *graph.Graph, path []int, workers int, onPass func(cost int)) ([]int, int, twoOptStats, error) {
	var st twoOptStats
	cost, ok := seqCost(g, path)
	if !ok {
		return nil, 0, st, ErrInvalidRoute
	}
	best := append([]int(nil), path...)
	for {
		if ctx.Err() != nil {
			st.cut = true
			break
		}
		st.passes++
		var m swapMove
		if workers > 1 {
			m = scanParallel(g, best, cost, workers)
		} else {
			m = scan(g, best, cost)
		}
		if !m.improved {
			break
		}
		best = twoOptSwap(best, m.i, m.j)
		cost = m.cost
		st.swaps++
		if onPass != nil {
			onPass(cost)
		}
	}
	return best, cost, st, nil
}

// swapMove is the best reversal found in a pass.
type swapMove struct {
	i, j     int
	cost     int
	improved bool
}

// better reports whether a reversal (i, j) at cost c beats m. Equal costs
// go to the lexicographically smaller pair so every scan order agrees.
func (m swapMove) better(i, j, c int) bool {
	if c != m.cost {
		return c < m.cost
	}
	return m.improved && (i < m.i || (i == m.i && j < m.j))
}

func scan(g *graph.Graph, path []int, cost int) swapMove {
	m := swapMove{cost: cost}
	for i := 1; i <= len(path)-3; i++ {
		for j := i + 1; j <= len(path)-2; j++ {
			c, ok := swapCost(g, path, i, j)
			if ok && m.better(i, j, c) {
				m = swapMove{i: i, j: j, cost: c, improved: true}
			}
		}
	}
	return m
}

// scanParallel hands out rows i to workers. The pass-best move is one
// bundle guarded by mu, so the route position, its cost and the improved
// flag always change together.
func scanParallel(g *graph.Graph, path []int, cost, workers int) swapMove {
	rows := len(path) - 3
	if rows < 1 {
		return swapMove{cost: cost}
	}
	var (
		mu   sync.Mutex
		m    = swapMove{cost: cost}
		next atomic.Int64
		wg   sync.WaitGroup
	)
	offer := func(i, j, c int) int {
		mu.Lock()
		defer mu.Unlock()
		if m.better(i, j, c) {
			m = swapMove{i: i, j: j, cost: c, improved: true}
		}
		return m.cost
	}
	for w := 0; w < min(workers, rows); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bound := cost
			for {
				i := int(next.Add(1))
				if i > rows {
					return
				}
				for j := i + 1; j <= len(path)-2; j++ {
					c, ok := swapCost(g, path, i, j)
					if ok && c <= bound {
						bound = offer(i, j, c)
					}
				}
			}
		}()
	}
	wg.Wait()
	return m
}

// swapCost is the directed cost of path with path[i..j] reversed,
// computed without building the new path.
func swapCost(g *graph.Graph, path []int, i, j int) (int, bool) {
	total := 0
	add := func(a, b int) bool {
		c, ok := g.Cost(a, b)
		total += c
		return ok
	}
	for k := 0; k+1 < i; k++ {
		if !add(path[k], path[k+1]) {
			return 0, false
		}
	}
	if !add(path[i-1], path[j]) {
		return 0, false
	}
	for k := j; k > i; k-- {
		if !add(path[k], path[k-1]) {
			return 0, false
		}
	}
	if !add(path[i], path[j+1]) {
		return 0, false
	}
	for k := j + 1; k+1 < len(path); k++ {
		if !add(path[k], path[k+1]) {
			return 0, false
		}
	}
	return total, true
}

func twoOptSwap(ord []int, i, k int) []int {
	out := make([]int, len(ord))
	copy(out, ord[:i])
	// reverse i..k
	pos := i
	for j := k; j >= i; j-- {
		out[pos] = ord[j]
		pos++
	}
	copy(out[pos:], ord[k+1:])
	return out
}
