// Package graph holds the immutable road network a solve runs over.
//
// Cities are addressed by dense indices. Index 0 is always the depot and
// indices 1..n follow the order cities were listed in the instance, so
// iteration order is stable across runs.
package graph

import (
	"errors"
	"fmt"

	"vrproute/internal/model"
)

// ErrInvalid reports an instance that cannot form a graph.
var ErrInvalid = errors.New("graph: invalid instance")

// Edge is an outgoing road from some city, addressed by index.
type Edge struct {
	To   int
	Cost int
}

type arc struct{ from, to int32 }

// Graph is the road network. It is never mutated after New and is safe
// for concurrent readers.
type Graph struct {
	ids    []int
	index  map[int]int
	demand []int
	adj    [][]Edge
	cost   map[arc]int
	roads  int
}

// New builds a graph from inst. The depot is inserted at index 0.
// Duplicate roads keep their first position in the adjacency list and the
// lower of the two costs.
func New(inst *model.Instance) (*Graph, error) {
	if inst == nil {
		return nil, fmt.Errorf("%w: nil instance", ErrInvalid)
	}
	n := len(inst.Cities) + 1
	g := &Graph{
		ids:    make([]int, n),
		index:  make(map[int]int, n),
		demand: make([]int, n),
		adj:    make([][]Edge, n),
		cost:   make(map[arc]int, len(inst.Roads)),
	}
	g.index[model.Depot] = 0
	for i, c := range inst.Cities {
		switch {
		case c.ID == model.Depot:
			return nil, fmt.Errorf("%w: city %d uses reserved depot id 0", ErrInvalid, i+1)
		case c.ID < 0:
			return nil, fmt.Errorf("%w: city %d has negative id %d", ErrInvalid, i+1, c.ID)
		case c.Demand < 0:
			return nil, fmt.Errorf("%w: city %d has negative demand %d", ErrInvalid, c.ID, c.Demand)
		}
		if _, dup := g.index[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate city id %d", ErrInvalid, c.ID)
		}
		g.ids[i+1] = c.ID
		g.index[c.ID] = i + 1
		g.demand[i+1] = c.Demand
	}
	for i, r := range inst.Roads {
		from, ok := g.index[r.From]
		if !ok {
			return nil, fmt.Errorf("%w: road %d starts at unknown city %d", ErrInvalid, i+1, r.From)
		}
		to, ok := g.index[r.To]
		if !ok {
			return nil, fmt.Errorf("%w: road %d ends at unknown city %d", ErrInvalid, i+1, r.To)
		}
		if r.Cost < 0 {
			return nil, fmt.Errorf("%w: road %d has negative cost %d", ErrInvalid, i+1, r.Cost)
		}
		k := arc{int32(from), int32(to)}
		if prev, dup := g.cost[k]; dup {
			if r.Cost < prev {
				g.cost[k] = r.Cost
				for j := range g.adj[from] {
					if g.adj[from][j].To == to {
						g.adj[from][j].Cost = r.Cost
					}
				}
			}
			continue
		}
		g.cost[k] = r.Cost
		g.adj[from] = append(g.adj[from], Edge{To: to, Cost: r.Cost})
		g.roads++
	}
	return g, nil
}

// Len is the number of vertices including the depot.
func (g *Graph) Len() int { return len(g.ids) }

// Cities is the number of non-depot cities.
func (g *Graph) Cities() int { return len(g.ids) - 1 }

// Roads is the number of distinct directed roads.
func (g *Graph) Roads() int { return g.roads }

// ID maps an index back to the city id from the instance.
func (g *Graph) ID(i int) int { return g.ids[i] }

// Index maps a city id to its index.
func (g *Graph) Index(id int) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// Demand returns the package demand of city i. The depot has none.
func (g *Graph) Demand(i int) int { return g.demand[i] }

// Neighbors returns the outgoing roads of i in instance order.
// Callers must not modify the returned slice.
func (g *Graph) Neighbors(i int) []Edge { return g.adj[i] }

// Cost reports the cost of the road from -> to and whether it exists.
func (g *Graph) Cost(from, to int) (int, bool) {
	c, ok := g.cost[arc{int32(from), int32(to)}]
	return c, ok
}

// IDs converts a sequence of indices to city ids.
func (g *Graph) IDs(seq []int) []int {
	out := make([]int, len(seq))
	for i, v := range seq {
		out[i] = g.ids[v]
	}
	return out
}
