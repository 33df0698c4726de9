package api

import (
	"fmt"
	"strings"
	"time"

	"vrproute/internal/config"
	"vrproute/internal/instance"
	"vrproute/internal/model"
	"vrproute/internal/opt"
)

// SolveRequest is the body of POST /v1/solve. Exactly one of Instance
// and InstanceText must be set; InstanceText uses the file format.
type SolveRequest struct {
	Instance     *model.Instance `json:"instance,omitempty"`
	InstanceText string          `json:"instanceText,omitempty"`
	Capacity     int             `json:"capacity"`
	MaxStops     int             `json:"maxStops"`
	Algorithm    string          `json:"algorithm,omitempty"`
	Parallel     *bool           `json:"parallel,omitempty"`
	Workers      int             `json:"workers,omitempty"`
	TimeLimitMs  int64           `json:"timeLimitMs,omitempty"`
	Async        bool            `json:"async,omitempty"`
}

// solveJob is a validated request with the configured defaults applied.
type solveJob struct {
	inst   *model.Instance
	params model.Params
	opts   opt.Options
}

func validateSolveRequest(req *SolveRequest, def *config.Config) (*solveJob, error) {
	var inst *model.Instance
	switch {
	case req.Instance != nil && req.InstanceText != "":
		return nil, fmt.Errorf("%w: set only one of instance and instanceText", instance.ErrMalformedInput)
	case req.Instance != nil:
		if err := instance.Validate(req.Instance); err != nil {
			return nil, err
		}
		inst = req.Instance
	case strings.TrimSpace(req.InstanceText) != "":
		parsed, err := instance.Parse(strings.NewReader(req.InstanceText))
		if err != nil {
			return nil, err
		}
		inst = parsed
	default:
		return nil, fmt.Errorf("%w: instance or instanceText is required", instance.ErrMalformedInput)
	}
	if req.Capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be > 0", opt.ErrInvalidParams)
	}
	if req.MaxStops <= 0 {
		return nil, fmt.Errorf("%w: maxStops must be > 0", opt.ErrInvalidParams)
	}
	if req.Workers < 0 {
		return nil, fmt.Errorf("%w: workers must be >= 0", opt.ErrInvalidParams)
	}
	if limit := def.Solver.MaxWorkers; limit > 0 && req.Workers > limit {
		return nil, fmt.Errorf("%w: workers must be <= %d", opt.ErrInvalidParams, limit)
	}
	if req.TimeLimitMs < 0 {
		return nil, fmt.Errorf("%w: timeLimitMs must be >= 0", opt.ErrInvalidParams)
	}

	name := req.Algorithm
	if name == "" {
		name = def.Solver.Algorithm
	}
	algo, err := opt.ParseAlgorithm(name)
	if err != nil {
		return nil, err
	}
	job := &solveJob{
		inst:   inst,
		params: model.Params{Capacity: req.Capacity, MaxStops: req.MaxStops},
		opts: opt.Options{
			Algorithm: algo,
			Parallel:  def.Solver.Parallel,
			Workers:   def.Solver.Workers,
			TimeLimit: def.Solver.TimeLimit,
		},
	}
	if req.Parallel != nil {
		job.opts.Parallel = *req.Parallel
	}
	if req.Workers > 0 {
		job.opts.Workers = req.Workers
	}
	if limit := def.Solver.MaxWorkers; limit > 0 && job.opts.Workers > limit {
		job.opts.Workers = limit
	}
	if req.TimeLimitMs > 0 {
		job.opts.TimeLimit = time.Duration(req.TimeLimitMs) * time.Millisecond
	}
	return job, nil
}
