// Package report renders solutions for terminals.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"vrproute/internal/model"
)

// Banner announces the size of the instance about to be solved.
func Banner(w io.Writer, cities, roads int) {
	fmt.Fprintf(w, "Starting solver for %d cities and %d roads...\n", cities, roads)
}

// Route joins the trips of sol as "0 -> 1 -> 0 | 0 -> 2 -> 0".
func Route(sol model.Solution) string {
	parts := make([]string, len(sol.Trips))
	for i, t := range sol.Trips {
		path := t.Path()
		ids := make([]string, len(path))
		for j, id := range path {
			ids[j] = fmt.Sprint(id)
		}
		parts[i] = strings.Join(ids, " -> ")
	}
	return strings.Join(parts, " | ")
}

// Write prints the cost, the route and the elapsed time.
func Write(w io.Writer, sol model.Solution, elapsed time.Duration) {
	label := "Lower cost"
	if !sol.Optimal {
		label = "Cost"
	}
	fmt.Fprintf(w, "%s: %d\n", label, sol.Cost)
	if len(sol.Trips) > 0 {
		fmt.Fprintln(w, Route(sol))
	}
	if sol.Truncated {
		fmt.Fprintln(w, "Search stopped at the time limit; result may not be optimal.")
	}
	fmt.Fprintf(w, "Time taken: %d ms\n", elapsed.Milliseconds())
}
