package opt

import (
	"context"
	"math/bits"
	"runtime"
	"sync"

	"vrproute/internal/graph"
)

// bitset is a visited set. A bitset held by a frame is never written;
// children that visit a new city get a copy.
type bitset []uint64

func newBitset(n int) bitset { return make(bitset, (n+63)/64) }

func (b bitset) has(i int) bool { return b[i>>6]&(1<<(uint(i)&63)) != 0 }

func (b bitset) with(i int) bitset {
	out := make(bitset, len(b))
	copy(out, b)
	out[i>>6] |= 1 << (uint(i) & 63)
	return out
}

func (b bitset) count() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return n
}

// pathNode links a frame's last city to its parent's node. Nodes live in
// the frontier arena and are addressed by index.
type pathNode struct {
	parent int32
	city   int32
}

// frame is an immutable snapshot of search state.
type frame struct {
	node    int32
	visited bitset
	stops   int
	prev    int
	load    int
}

// frontier is the shared stack of unexpanded frames plus the arena their
// paths live in. Every field is guarded by mu.
type frontier struct {
	mu       sync.Mutex
	cond     *sync.Cond
	stack    []frame
	arena    []pathNode
	leaves   []int32
	active   int
	frames   int64
	done     bool
	canceled bool
}

func newFrontier(g *graph.Graph) *frontier {
	f := &frontier{arena: []pathNode{{parent: -1, city: 0}}}
	f.cond = sync.NewCond(&f.mu)
	f.stack = append(f.stack, frame{node: 0, visited: newBitset(g.Len())})
	return f
}

// pop hands out the next frame. It blocks while the stack is empty but
// other workers may still push, and returns false once the stack is empty
// with no worker active, or the search was canceled.
func (f *frontier) pop() (frame, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.stack) == 0 && f.active > 0 && !f.done {
		f.cond.Wait()
	}
	if f.done || len(f.stack) == 0 {
		f.done = true
		f.cond.Broadcast()
		return frame{}, false
	}
	fr := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	f.active++
	f.frames++
	return fr, true
}

// child is a worker-local description of one extension of a frame.
type child struct {
	city     int
	visited  bitset
	stops    int
	load     int
	complete bool
}

// push records the expansion of parent in one critical section. Children
// are pushed in reverse so the lowest city index is popped first.
func (f *frontier) push(parent frame, kids []child) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k := len(kids) - 1; k >= 0; k-- {
		c := kids[k]
		idx := int32(len(f.arena))
		f.arena = append(f.arena, pathNode{parent: parent.node, city: int32(c.city)})
		if c.complete {
			continue
		}
		f.stack = append(f.stack, frame{node: idx, visited: c.visited, stops: c.stops, prev: c.city, load: c.load})
	}
	// Leaves are recorded in discovery order.
	base := int32(len(f.arena) - len(kids))
	for k := range kids {
		if kids[k].complete {
			f.leaves = append(f.leaves, base+int32(len(kids)-1-k))
		}
	}
	f.active--
	if len(f.stack) > 0 || f.active == 0 {
		f.cond.Broadcast()
	}
}

// cancel stops the search. A search that already drained its stack is
// complete and stays uncanceled.
func (f *frontier) cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done {
		return
	}
	f.done = true
	f.canceled = true
	f.cond.Broadcast()
}

// path materializes the route ending at node. Only safe once every worker
// has returned.
func (f *frontier) path(node int32) []int {
	n := 0
	for i := node; i >= 0; i = f.arena[i].parent {
		n++
	}
	out := make([]int, n)
	for i := node; i >= 0; i = f.arena[i].parent {
		n--
		out[n] = int(f.arena[i].city)
	}
	return out
}

// enumerateParallel is enumerate with the recursion replaced by the
// shared frontier. Any worker may expand any frame; only the order in
// which candidates are discovered depends on scheduling.
func enumerateParallel(ctx context.Context, g *graph.Graph, lim limits, workers int) enumeration {
	workers = max(1, min(workers, maxEnumWorkers()))
	f := newFrontier(g)
	if ctx.Err() != nil {
		f.cancel()
	}
	stop := context.AfterFunc(ctx, f.cancel)

	all := g.Cities()
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var kids []child
			for {
				fr, ok := f.pop()
				if !ok {
					return
				}
				kids = expand(g, lim, fr, all, kids[:0])
				f.push(fr, kids)
			}
		}()
	}
	wg.Wait()
	stop()

	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]int, len(f.leaves))
	for i, leaf := range f.leaves {
		out[i] = f.path(leaf)
	}
	return enumeration{candidates: out, frames: f.frames, truncated: f.canceled}
}

// maxEnumWorkers bounds the enumerator's goroutines; workers beyond a few
// per processor only contend on the frontier lock.
func maxEnumWorkers() int { return runtime.GOMAXPROCS(0) * 4 }

// expand lists the feasible extensions of fr in city index order.
func expand(g *graph.Graph, lim limits, fr frame, all int, kids []child) []child {
	seen := fr.visited.count()
	for c := 0; c < g.Len(); c++ {
		if c == fr.prev {
			continue
		}
		if c == 0 {
			kids = append(kids, child{city: 0, visited: fr.visited, complete: seen == all})
			continue
		}
		if fr.visited.has(c) || !lim.canAdd(g, fr.load, fr.stops, c) {
			continue
		}
		kids = append(kids, child{
			city:    c,
			visited: fr.visited.with(c),
			stops:   fr.stops + 1,
			load:    fr.load + g.Demand(c),
		})
	}
	return kids
}
