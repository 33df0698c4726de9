// Package opt implements the route solvers: an exhaustive enumerator that
// finds the global optimum and a greedy constructor refined by 2-opt.
// Both come in sequential and parallel forms.
package opt

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"vrproute/internal/graph"
	"vrproute/internal/model"
)

// Algorithm selects a solving strategy.
type Algorithm string

const (
	Exhaustive Algorithm = "exhaustive"
	Heuristic  Algorithm = "heuristic"
)

// ParseAlgorithm accepts the algorithm names and a few aliases.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exhaustive", "global", "exact":
		return Exhaustive, nil
	case "heuristic", "local", "greedy", "2opt", "two-opt", "":
		return Heuristic, nil
	}
	return "", fmt.Errorf("%w: unknown algorithm %q", ErrInvalidParams, s)
}

// Progress is reported whenever a solve improves its current answer.
type Progress struct {
	Phase string `json:"phase"`
	Cost  int    `json:"cost"`
	Trip  int    `json:"trip,omitempty"`
}

// Phases reported through Progress.
const (
	PhaseReduce = "reduce"
	PhaseGreedy = "greedy"
	PhaseTwoOpt = "twoopt"
)

// Options tune a solve. The zero value runs the sequential heuristic with
// no time limit.
type Options struct {
	Algorithm Algorithm
	Parallel  bool
	// Workers defaults to runtime.NumCPU when Parallel is set.
	Workers   int
	TimeLimit time.Duration
	// Progress is called serially, possibly from several goroutines.
	Progress func(Progress)
}

// Result is a solution plus how it was obtained.
type Result struct {
	Solution model.Solution
	Stats    model.Stats
	Elapsed  time.Duration
}

// Solve runs the selected algorithm over g. It returns an
// *InfeasibleError when no complete route exists and ErrTimeLimit when
// the deadline passed before anything valid was found. A solve cut short
// after finding something returns it with Truncated set.
func Solve(ctx context.Context, g *graph.Graph, p model.Params, opts Options) (*Result, error) {
	start := time.Now()
	if p.Capacity < 0 || p.MaxStops < 1 {
		return nil, fmt.Errorf("%w: capacity %d, max stops %d", ErrInvalidParams, p.Capacity, p.MaxStops)
	}
	if opts.Algorithm == "" {
		opts.Algorithm = Heuristic
	}
	workers := 1
	if opts.Parallel {
		workers = opts.Workers
		if workers < 1 {
			workers = runtime.NumCPU()
		}
	}
	if opts.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.TimeLimit)
		defer cancel()
	}
	report := serialize(opts.Progress)

	var (
		res *Result
		err error
	)
	switch {
	case g.Cities() == 0:
		res = &Result{Solution: model.Solution{Trips: []model.Trip{}, Optimal: true}}
	case opts.Algorithm == Exhaustive:
		res, err = solveExhaustive(ctx, g, newLimits(p), workers, report)
	case opts.Algorithm == Heuristic:
		res, err = solveHeuristic(ctx, g, newLimits(p), workers, report)
	default:
		err = fmt.Errorf("%w: unknown algorithm %q", ErrInvalidParams, opts.Algorithm)
	}
	if err != nil {
		return nil, err
	}
	res.Elapsed = time.Since(start)
	return res, nil
}

func serialize(fn func(Progress)) func(Progress) {
	if fn == nil {
		return func(Progress) {}
	}
	var mu sync.Mutex
	return func(pr Progress) {
		mu.Lock()
		defer mu.Unlock()
		fn(pr)
	}
}

func solveExhaustive(ctx context.Context, g *graph.Graph, lim limits, workers int, report func(Progress)) (*Result, error) {
	var en enumeration
	if workers > 1 {
		en = enumerateParallel(ctx, g, lim, workers)
	} else {
		en = enumerate(ctx, g, lim)
	}
	st := model.Stats{Frames: en.frames, Candidates: int64(len(en.candidates))}

	best := NewBest(func(cost int) { report(Progress{Phase: PhaseReduce, Cost: cost}) })
	var valid []scored
	if workers > 1 {
		var err error
		if valid, err = filterReduceParallel(g, en.candidates, workers, best); err != nil {
			return nil, err
		}
	} else {
		valid = filterValid(g, en.candidates)
		reduce(valid, best)
	}
	st.Valid = int64(len(valid))

	seq, cost, ok := best.Get()
	if !ok {
		if en.truncated {
			return nil, ErrTimeLimit
		}
		if ids := overweight(g, lim); len(ids) > 0 {
			return nil, &InfeasibleError{Unreached: ids, Reason: "demand exceeds vehicle capacity"}
		}
		if len(en.candidates) == 0 {
			return nil, &InfeasibleError{Reason: "no visit order satisfies the trip limits"}
		}
		return nil, &InfeasibleError{Reason: "every candidate route uses a missing road"}
	}
	trips := splitTrips(g, seq)
	return &Result{
		Solution: model.Solution{Trips: trips, Cost: cost, Optimal: !en.truncated, Truncated: en.truncated},
		Stats:    st,
	}, nil
}

func solveHeuristic(ctx context.Context, g *graph.Graph, lim limits, workers int, report func(Progress)) (*Result, error) {
	paths, err := greedySeed(g, lim)
	if err != nil {
		return nil, err
	}
	st := model.Stats{TripsBuilt: len(paths)}
	seed := 0
	for _, p := range paths {
		c, _ := seqCost(g, p)
		seed += c
	}
	report(Progress{Phase: PhaseGreedy, Cost: seed})

	refined := make([][]int, len(paths))
	tripStats := make([]twoOptStats, len(paths))
	refine := func(ctx context.Context, t, w int) error {
		out, _, ts, err := improveTwoOpt(ctx, g, paths[t], w, func(cost int) {
			report(Progress{Phase: PhaseTwoOpt, Cost: cost, Trip: t + 1})
		})
		if err != nil {
			return fmt.Errorf("refine trip %d: %w", t+1, err)
		}
		refined[t], tripStats[t] = out, ts
		return nil
	}

	if workers > 1 {
		// Trips are disjoint once built, so only refinement runs in parallel.
		eg, gctx := errgroup.WithContext(ctx)
		eg.SetLimit(workers)
		per := max(1, workers/len(paths))
		for t := range paths {
			eg.Go(func() error { return refine(gctx, t, per) })
		}
		err = eg.Wait()
	} else {
		for t := range paths {
			if err = refine(ctx, t, 1); err != nil {
				break
			}
		}
	}
	if err != nil {
		return nil, err
	}

	sol := model.Solution{Trips: make([]model.Trip, len(refined))}
	for t, p := range refined {
		sol.Truncated = sol.Truncated || tripStats[t].cut
		sol.Trips[t] = makeTrip(g, p)
		sol.Cost += sol.Trips[t].Cost
		st.TwoOptPasses += tripStats[t].passes
		st.TwoOptSwaps += tripStats[t].swaps
	}
	return &Result{Solution: sol, Stats: st}, nil
}
