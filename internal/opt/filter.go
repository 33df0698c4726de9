package opt

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"vrproute/internal/graph"
)

// scored is a candidate route that passed the validity filter.
type scored struct {
	seq  []int
	cost int
}

// filterValid keeps candidates whose every consecutive pair is a road,
// preserving discovery order.
func filterValid(g *graph.Graph, cands [][]int) []scored {
	var out []scored
	for _, seq := range cands {
		if c, ok := seqCost(g, seq); ok {
			out = append(out, scored{seq: seq, cost: c})
		}
	}
	return out
}

// reduce offers every valid route to best in order.
func reduce(valid []scored, best *Best) {
	for _, s := range valid {
		best.Offer(s.seq, s.cost)
	}
}

// filterReduceParallel partitions cands across workers. Each worker keeps
// a local valid set and local minimum; local sets are merged and the
// local minima are offered to the shared record.
func filterReduceParallel(g *graph.Graph, cands [][]int, workers int, best *Best) ([]scored, error) {
	if len(cands) == 0 {
		return nil, nil
	}
	workers = min(max(workers, 1), len(cands))
	var (
		mu    sync.Mutex
		valid []scored
	)
	var eg errgroup.Group
	chunk := (len(cands) + workers - 1) / workers
	for lo := 0; lo < len(cands); lo += chunk {
		part := cands[lo:min(lo+chunk, len(cands))]
		eg.Go(func() error {
			local := filterValid(g, part)
			var top *scored
			for i := range local {
				if top == nil || local[i].cost < top.cost {
					top = &local[i]
				}
			}
			mu.Lock()
			valid = append(valid, local...)
			mu.Unlock()
			if top != nil {
				best.Offer(top.seq, top.cost)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return valid, nil
}
