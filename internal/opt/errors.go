package opt

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInfeasible is returned when no complete route can be built.
	ErrInfeasible = errors.New("opt: instance is infeasible")
	// ErrInvalidRoute marks a route that uses a road the graph lacks.
	// Solve never returns it; such routes are discarded.
	ErrInvalidRoute = errors.New("opt: route uses a missing road")
	// ErrTimeLimit is returned when the deadline passed before any valid
	// route was found.
	ErrTimeLimit = errors.New("opt: time limit reached with no solution")
	// ErrInvalidParams rejects non-positive limits or unknown algorithms.
	ErrInvalidParams = errors.New("opt: invalid parameters")
	// ErrInvalidSolution is returned by Verify.
	ErrInvalidSolution = errors.New("opt: invalid solution")
)

// InfeasibleError names the cities no feasible trip could cover.
type InfeasibleError struct {
	Unreached []int
	Reason    string
}

func (e *InfeasibleError) Error() string {
	if len(e.Unreached) == 0 {
		return fmt.Sprintf("%v: %s", ErrInfeasible, e.Reason)
	}
	ids := make([]string, len(e.Unreached))
	for i, id := range e.Unreached {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("%v: %s (cities %s)", ErrInfeasible, e.Reason, strings.Join(ids, ", "))
}

func (e *InfeasibleError) Unwrap() error { return ErrInfeasible }
