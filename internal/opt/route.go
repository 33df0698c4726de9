package opt

import (
	"fmt"

	"vrproute/internal/graph"
	"vrproute/internal/model"
)

// limits are the per-trip constraints of a solve.
type limits struct {
	capacity int
	maxStops int
}

func newLimits(p model.Params) limits {
	return limits{capacity: p.Capacity, maxStops: p.MaxStops}
}

// canAdd reports whether a non-depot city fits into a trip that already
// carries load over stops stops.
func (l limits) canAdd(g *graph.Graph, load, stops, city int) bool {
	return load+g.Demand(city) <= l.capacity && stops+1 <= l.maxStops
}

// seqCost sums the directed road costs along seq. ok is false when some
// consecutive pair has no road.
func seqCost(g *graph.Graph, seq []int) (cost int, ok bool) {
	for i := 0; i+1 < len(seq); i++ {
		c, found := g.Cost(seq[i], seq[i+1])
		if !found {
			return 0, false
		}
		cost += c
	}
	return cost, true
}

// RouteCost returns the total cost of a sequence of city ids.
func RouteCost(g *graph.Graph, ids []int) (int, error) {
	seq := make([]int, len(ids))
	for i, id := range ids {
		idx, ok := g.Index(id)
		if !ok {
			return 0, fmt.Errorf("%w: unknown city %d", ErrInvalidRoute, id)
		}
		seq[i] = idx
	}
	for i := 0; i+1 < len(seq); i++ {
		if _, ok := g.Cost(seq[i], seq[i+1]); !ok {
			return 0, fmt.Errorf("%w: %d -> %d", ErrInvalidRoute, ids[i], ids[i+1])
		}
	}
	c, _ := seqCost(g, seq)
	return c, nil
}

// splitTrips turns a flat depot-separated index sequence into trips
// keyed by city id.
func splitTrips(g *graph.Graph, seq []int) []model.Trip {
	var trips []model.Trip
	start := 0
	for i := 1; i < len(seq); i++ {
		if seq[i] != 0 {
			continue
		}
		if i-start > 1 {
			trips = append(trips, makeTrip(g, seq[start:i+1]))
		}
		start = i
	}
	return trips
}

// makeTrip builds a trip from an index path framed by the depot.
func makeTrip(g *graph.Graph, path []int) model.Trip {
	inner := path[1 : len(path)-1]
	t := model.Trip{Stops: g.IDs(inner)}
	for _, c := range inner {
		t.Load += g.Demand(c)
	}
	t.Cost, _ = seqCost(g, path)
	return t
}

// Verify checks sol against every structural rule: each trip starts and
// ends at the depot, every city is visited exactly once, trip limits are
// respected, every leg is a road, and the reported costs add up.
func Verify(g *graph.Graph, p model.Params, sol model.Solution) error {
	seen := make([]bool, g.Len())
	covered, total := 0, 0
	for ti, t := range sol.Trips {
		if len(t.Stops) == 0 {
			return fmt.Errorf("%w: trip %d is empty", ErrInvalidSolution, ti)
		}
		if len(t.Stops) > p.MaxStops {
			return fmt.Errorf("%w: trip %d has %d stops, limit %d", ErrInvalidSolution, ti, len(t.Stops), p.MaxStops)
		}
		load := 0
		for _, id := range t.Stops {
			idx, ok := g.Index(id)
			if !ok || idx == 0 {
				return fmt.Errorf("%w: trip %d visits invalid city %d", ErrInvalidSolution, ti, id)
			}
			if seen[idx] {
				return fmt.Errorf("%w: city %d visited twice", ErrInvalidSolution, id)
			}
			seen[idx] = true
			covered++
			load += g.Demand(idx)
		}
		if load > p.Capacity {
			return fmt.Errorf("%w: trip %d carries %d, capacity %d", ErrInvalidSolution, ti, load, p.Capacity)
		}
		if load != t.Load {
			return fmt.Errorf("%w: trip %d reports load %d, actual %d", ErrInvalidSolution, ti, t.Load, load)
		}
		cost, err := RouteCost(g, t.Path())
		if err != nil {
			return fmt.Errorf("%w: trip %d: %w", ErrInvalidSolution, ti, err)
		}
		if cost != t.Cost {
			return fmt.Errorf("%w: trip %d reports cost %d, actual %d", ErrInvalidSolution, ti, t.Cost, cost)
		}
		total += cost
	}
	if covered != g.Cities() {
		return fmt.Errorf("%w: %d of %d cities covered", ErrInvalidSolution, covered, g.Cities())
	}
	if total != sol.Cost {
		return fmt.Errorf("%w: reported cost %d, actual %d", ErrInvalidSolution, sol.Cost, total)
	}
	return nil
}
