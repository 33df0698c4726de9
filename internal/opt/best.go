package opt

import "sync"

// Best is the shared best-solution record. Offer is the only way to
// change it and it replaces the held route only on a strictly lower
// cost, so equal-cost offers keep the first one seen.
type Best struct {
	mu        sync.Mutex
	seq       []int
	cost      int
	found     bool
	onImprove func(cost int)
}

// NewBest returns an empty record. onImprove, when set, runs under the
// record's lock after every replacement.
func NewBest(onImprove func(cost int)) *Best {
	return &Best{onImprove: onImprove}
}

// Offer compares and replaces atomically. It reports whether seq became
// the new best. seq must not be modified afterwards.
func (b *Best) Offer(seq []int, cost int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.found && cost >= b.cost {
		return false
	}
	b.seq, b.cost, b.found = seq, cost, true
	if b.onImprove != nil {
		b.onImprove(cost)
	}
	return true
}

// Get returns the current best route and cost. ok is false while no
// route has been offered.
func (b *Best) Get() (seq []int, cost int, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seq, b.cost, b.found
}
