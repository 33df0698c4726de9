package opt

import (
	"context"

	"vrproute/internal/graph"
)

// enumeration is what an enumerator hands to the validity filter.
type enumeration struct {
	candidates [][]int
	frames     int64
	truncated  bool
}

// enumerate walks every feasible visit order by depth-first backtracking
// and collects each full-coverage route as a flat, depot-separated index
// sequence. Road existence is not checked here; the filter does that.
func enumerate(ctx context.Context, g *graph.Graph, lim limits) enumeration {
	e := &enumerator{
		ctx:     ctx,
		g:       g,
		lim:     lim,
		visited: make([]bool, g.Len()),
		route:   make([]int, 1, 2*g.Len()+1),
	}
	e.dfs(0, 0, 0)
	return enumeration{candidates: e.out, frames: e.frames, truncated: e.stopped}
}

type enumerator struct {
	ctx     context.Context
	g       *graph.Graph
	lim     limits
	visited []bool
	seen    int
	route   []int
	out     [][]int
	frames  int64
	stopped bool
}

func (e *enumerator) dfs(stops, prev, load int) {
	if e.stopped {
		return
	}
	e.frames++
	if e.frames&1023 == 0 && e.ctx.Err() != nil {
		e.stopped = true
		return
	}
	for c := 0; c < e.g.Len(); c++ {
		if c == prev {
			continue
		}
		if c == 0 {
			e.route = append(e.route, 0)
			if e.seen == e.g.Cities() {
				e.out = append(e.out, append([]int(nil), e.route...))
			} else {
				e.dfs(0, 0, 0)
			}
			e.route = e.route[:len(e.route)-1]
			continue
		}
		if e.visited[c] || !e.lim.canAdd(e.g, load, stops, c) {
			continue
		}
		e.visited[c] = true
		e.seen++
		e.route = append(e.route, c)
		e.dfs(stops+1, c, load+e.g.Demand(c))
		e.route = e.route[:len(e.route)-1]
		e.seen--
		e.visited[c] = false
	}
}
