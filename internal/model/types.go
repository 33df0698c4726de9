package model

import "time"

// Depot is the id of the synthetic origin every trip starts and ends at.
const Depot = 0

// City is a delivery point with a package demand.
type City struct {
	ID     int `json:"id"`
	Demand int `json:"demand"`
}

// Road is a directed, costed connection between two cities.
type Road struct {
	From int `json:"from"`
	To   int `json:"to"`
	Cost int `json:"cost"`
}

// Instance is a problem instance as loaded from a file or request body.
// Cities never contains the depot; it is implied.
type Instance struct {
	Cities []City `json:"cities"`
	Roads  []Road `json:"roads"`
}

// Params are the per-vehicle limits applied to every trip.
type Params struct {
	Capacity int `json:"capacity"`
	MaxStops int `json:"maxStops"`
}

// Trip is one depot-to-depot journey. Stops lists the visited cities in
// order and excludes the depot at either end.
type Trip struct {
	Stops []int `json:"stops"`
	Load  int   `json:"load"`
	Cost  int   `json:"cost"`
}

// Path returns the trip as a city sequence framed by the depot.
func (t Trip) Path() []int {
	out := make([]int, 0, len(t.Stops)+2)
	out = append(out, Depot)
	out = append(out, t.Stops...)
	return append(out, Depot)
}

// Solution is the answer returned by either solving strategy.
type Solution struct {
	Trips     []Trip `json:"trips"`
	Cost      int    `json:"cost"`
	Optimal   bool   `json:"optimal"`
	Truncated bool   `json:"truncated,omitempty"`
}

// Stats counts the work a solve performed.
type Stats struct {
	Frames       int64 `json:"frames,omitempty"`
	Candidates   int64 `json:"candidates,omitempty"`
	Valid        int64 `json:"valid,omitempty"`
	TripsBuilt   int   `json:"tripsBuilt,omitempty"`
	TwoOptPasses int   `json:"twoOptPasses,omitempty"`
	TwoOptSwaps  int   `json:"twoOptSwaps,omitempty"`
}

// SysInfo saves the basic system information of the host that ran a solve.
type SysInfo struct {
	Platform string `json:"platform"`
	CPU      string `json:"cpu"`
	RAM      string `json:"ram"`
}

// Run statuses.
const (
	RunPending   = "pending"
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// Run is a persisted solve request and its outcome.
type Run struct {
	ID         string     `json:"id"`
	Status     string     `json:"status"`
	Algorithm  string     `json:"algorithm"`
	Parallel   bool       `json:"parallel"`
	Workers    int        `json:"workers,omitempty"`
	Params     Params     `json:"params"`
	Cities     int        `json:"cities"`
	Roads      int        `json:"roads"`
	CacheKey   string     `json:"cacheKey,omitempty"`
	CacheHit   bool       `json:"cacheHit,omitempty"`
	Solution   *Solution  `json:"solution,omitempty"`
	Stats      Stats      `json:"stats"`
	Error      string     `json:"error,omitempty"`
	ElapsedMs  int64      `json:"elapsedMs"`
	System     SysInfo    `json:"system"`
	CreatedAt  time.Time  `json:"createdAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}
