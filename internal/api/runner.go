package api

import (
	"context"
	"errors"
	"log"
	"time"

	"vrproute/internal/graph"
	"vrproute/internal/metrics"
	"vrproute/internal/model"
	"vrproute/internal/opt"
	"vrproute/internal/store"
	"vrproute/internal/sysinfo"
)

// newRun records a pending run for job.
func (s *Server) newRun(ctx context.Context, job *solveJob) (model.Run, error) {
	run := model.Run{
		Status:    model.RunPending,
		Algorithm: string(job.opts.Algorithm),
		Parallel:  job.opts.Parallel,
		Params:    job.params,
		Cities:    len(job.inst.Cities),
		Roads:     len(job.inst.Roads),
		CacheKey:  store.CacheKey(job.inst, job.params, string(job.opts.Algorithm), job.opts.Parallel),
		System:    sysinfo.Get(),
		CreatedAt: time.Now().UTC(),
	}
	if job.opts.Parallel {
		run.Workers = job.opts.Workers
	}
	return s.Store.CreateRun(ctx, run)
}

// execute solves job for run, persists the outcome and publishes it to
// the run's subscribers. The returned run reflects the stored record.
func (s *Server) execute(ctx context.Context, run model.Run, job *solveJob) (model.Run, error) {
	start := time.Now()
	run.Status = model.RunRunning
	if err := s.Store.UpdateRun(ctx, run); err != nil {
		log.Printf("op=run_update run=%s err=%q", run.ID, err)
	}
	s.Broker.Publish(run.ID, Event{Type: EventRunning, Data: map[string]any{"runId": run.ID}})

	res, hit, err := s.solve(ctx, run, job)
	mode := metrics.Mode(job.opts.Parallel)
	finished := time.Now().UTC()
	run.FinishedAt = &finished
	run.ElapsedMs = time.Since(start).Milliseconds()
	if err != nil {
		run.Status = model.RunFailed
		run.Error = err.Error()
		metrics.ObserveSolve(run.Algorithm, mode, "failed", time.Since(start), model.Stats{})
	} else {
		run.Status = model.RunCompleted
		run.CacheHit = hit
		sol := res.Solution
		run.Solution = &sol
		run.Stats = res.Stats
		if !hit {
			metrics.ObserveSolve(run.Algorithm, mode, "completed", res.Elapsed, res.Stats)
		}
	}

	// The request context may already be gone; the outcome is still recorded.
	uctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if uerr := s.Store.UpdateRun(uctx, run); uerr != nil {
		log.Printf("op=run_update run=%s err=%q", run.ID, uerr)
	}

	if err != nil {
		status, _ := statusFor(err)
		data := map[string]any{"runId": run.ID, "error": run.Error, "status": status}
		var ie *opt.InfeasibleError
		if errors.As(err, &ie) {
			data["unreached"] = ie.Unreached
		}
		s.Broker.Publish(run.ID, Event{Type: EventFailed, Data: data})
		log.Printf("op=solve run=%s algo=%s mode=%s cities=%d status=failed dur=%dms err=%q",
			run.ID, run.Algorithm, mode, run.Cities, run.ElapsedMs, err)
		return run, err
	}
	s.Broker.Publish(run.ID, Event{Type: EventCompleted, Data: map[string]any{
		"runId":     run.ID,
		"cost":      run.Solution.Cost,
		"optimal":   run.Solution.Optimal,
		"truncated": run.Solution.Truncated,
		"trips":     len(run.Solution.Trips),
		"elapsedMs": run.ElapsedMs,
		"cacheHit":  run.CacheHit,
	}})
	log.Printf("op=solve run=%s algo=%s mode=%s cities=%d cost=%d cache_hit=%t status=completed dur=%dms",
		run.ID, run.Algorithm, mode, run.Cities, run.Solution.Cost, run.CacheHit, run.ElapsedMs)
	return run, nil
}

// solve consults the result cache before running the solver. Truncated
// answers are not cached since a longer limit may improve them.
func (s *Server) solve(ctx context.Context, run model.Run, job *solveJob) (*opt.Result, bool, error) {
	if c, ok, err := s.Cache.Get(ctx, run.CacheKey); err != nil {
		log.Printf("op=cache_get run=%s err=%q", run.ID, err)
	} else if ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return &opt.Result{Solution: c.Solution, Stats: c.Stats}, true, nil
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	g, err := graph.New(job.inst)
	if err != nil {
		return nil, false, err
	}
	opts := job.opts
	opts.Progress = func(p opt.Progress) {
		s.Broker.Publish(run.ID, Event{Type: EventProgress, Data: map[string]any{
			"phase": p.Phase,
			"cost":  p.Cost,
			"trip":  p.Trip,
		}})
	}

	metrics.ActiveSolves.Inc()
	defer metrics.ActiveSolves.Dec()
	res, err := opt.Solve(ctx, g, job.params, opts)
	if err != nil {
		return nil, false, err
	}
	if !res.Solution.Truncated {
		cached := store.Cached{Solution: res.Solution, Stats: res.Stats}
		if err := s.Cache.Set(ctx, run.CacheKey, cached, s.Cfg.Store.CacheTTL); err != nil {
			log.Printf("op=cache_set run=%s err=%q", run.ID, err)
		}
	}
	return res, false, nil
}

// executeAsync runs job in the background, bound to the server's lifetime
// rather than the request's.
func (s *Server) executeAsync(run model.Run, job *solveJob) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_, _ = s.execute(s.baseCtx, run, job)
	}()
}
