package opt

import (
	"vrproute/internal/graph"
)

// greedySeed builds trips one at a time from a single visited set. Each
// trip repeatedly moves to the cheapest unvisited neighbor that still fits;
// the first neighbor in adjacency order wins a tie. A closed trip is cut
// back to its last city with a road home, and the cut cities go back into
// the pool. Each returned trip is an index path framed by the depot.
func greedySeed(g *graph.Graph, lim limits) ([][]int, error) {
	used := make([]bool, g.Len())
	used[0] = true
	var trips [][]int
	for remaining := g.Cities(); remaining > 0; {
		stops := nextTrip(g, lim, used)
		if len(stops) == 0 {
			return nil, unreachedError(g, lim, used)
		}
		path := make([]int, 0, len(stops)+2)
		path = append(path, 0)
		path = append(path, stops...)
		trips = append(trips, append(path, 0))
		remaining -= len(stops)
	}
	return trips, nil
}

// nextTrip extends one trip from the depot and marks its cities used.
func nextTrip(g *graph.Graph, lim limits, used []bool) []int {
	var stops []int
	cur, load := 0, 0
	for len(stops) < lim.maxStops {
		next, bestCost := -1, 0
		for _, e := range g.Neighbors(cur) {
			if used[e.To] || !lim.canAdd(g, load, len(stops), e.To) {
				continue
			}
			if next < 0 || e.Cost < bestCost {
				next, bestCost = e.To, e.Cost
			}
		}
		if next < 0 {
			break
		}
		stops = append(stops, next)
		used[next] = true
		load += g.Demand(next)
		cur = next
	}
	for len(stops) > 0 {
		last := stops[len(stops)-1]
		if _, ok := g.Cost(last, 0); ok {
			break
		}
		used[last] = false
		stops = stops[:len(stops)-1]
	}
	return stops
}

// unreachedError lists the cities left unused, preferring the capacity
// explanation when it applies.
func unreachedError(g *graph.Graph, lim limits, used []bool) *InfeasibleError {
	e := &InfeasibleError{Reason: "no feasible trip reaches the remaining cities"}
	heavy := false
	for i := 1; i < g.Len(); i++ {
		if used[i] {
			continue
		}
		e.Unreached = append(e.Unreached, g.ID(i))
		if g.Demand(i) > lim.capacity {
			heavy = true
		}
	}
	if heavy {
		e.Reason = "demand exceeds vehicle capacity"
	}
	return e
}

// overweight returns the ids of cities no trip can ever carry.
func overweight(g *graph.Graph, lim limits) []int {
	var ids []int
	for i := 1; i < g.Len(); i++ {
		if g.Demand(i) > lim.capacity {
			ids = append(ids, g.ID(i))
		}
	}
	return ids
}
