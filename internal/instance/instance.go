// Package instance reads problem instances in the whitespace-separated
// text format:
//
//	numCities
//	cityId packageWeight      (numCities times)
//	numRoads
//	sourceId destinationId cost   (numRoads times)
//
// The depot is never listed; it is implied as city 0.
package instance

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"vrproute/internal/graph"
	"vrproute/internal/model"
)

var (
	// ErrInputIO reports a missing or unreadable instance source.
	ErrInputIO = errors.New("instance: input unreadable")
	// ErrMalformedInput reports a token count or type mismatch, or an
	// instance that names cities inconsistently.
	ErrMalformedInput = errors.New("instance: malformed input")
)

// Load opens and parses the instance file at path.
func Load(path string) (*model.Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInputIO, err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

// Parse reads one instance from r and validates it.
func Parse(r io.Reader) (*model.Instance, error) {
	t := &tokens{sc: bufio.NewScanner(r)}
	t.sc.Split(bufio.ScanWords)

	numCities, err := t.count("city count")
	if err != nil {
		return nil, err
	}
	inst := &model.Instance{Cities: make([]model.City, 0, numCities)}
	for i := 0; i < numCities; i++ {
		id, err := t.nextInt(fmt.Sprintf("city %d id", i+1))
		if err != nil {
			return nil, err
		}
		w, err := t.nextInt(fmt.Sprintf("city %d weight", i+1))
		if err != nil {
			return nil, err
		}
		inst.Cities = append(inst.Cities, model.City{ID: id, Demand: w})
	}

	numRoads, err := t.count("road count")
	if err != nil {
		return nil, err
	}
	inst.Roads = make([]model.Road, 0, numRoads)
	for i := 0; i < numRoads; i++ {
		var v [3]int
		for j, what := range [3]string{"source", "destination", "cost"} {
			if v[j], err = t.nextInt(fmt.Sprintf("road %d %s", i+1, what)); err != nil {
				return nil, err
			}
		}
		inst.Roads = append(inst.Roads, model.Road{From: v[0], To: v[1], Cost: v[2]})
	}

	if t.sc.Scan() {
		return nil, fmt.Errorf("%w: unexpected trailing token %q", ErrMalformedInput, t.sc.Text())
	}
	if err := t.sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInputIO, err)
	}
	if err := Validate(inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// Validate checks that inst can be turned into a graph.
func Validate(inst *model.Instance) error {
	if _, err := graph.New(inst); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}
	return nil
}

type tokens struct {
	sc *bufio.Scanner
}

func (t *tokens) nextInt(what string) (int, error) {
	if !t.sc.Scan() {
		if err := t.sc.Err(); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrInputIO, err)
		}
		return 0, fmt.Errorf("%w: missing %s", ErrMalformedInput, what)
	}
	v, err := strconv.Atoi(t.sc.Text())
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q is not an integer", ErrMalformedInput, what, t.sc.Text())
	}
	return v, nil
}

func (t *tokens) count(what string) (int, error) {
	v, err := t.nextInt(what)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: negative %s %d", ErrMalformedInput, what, v)
	}
	return v, nil
}
