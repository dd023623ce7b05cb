package profiling

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Lightweight per-tick CPU profiler.

type entry struct {
	total time.Duration
	calls int
}

var (
	mu         sync.Mutex
	tickTotals = make(map[string]entry)
	observer   func(name string, d time.Duration)
)

// Track returns a stop function that records the elapsed time under the given name.
// Usage: defer profiling.Track("subsystem.Operation")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		mu.Lock()
		e := tickTotals[name]
		e.total += d
		e.calls++
		tickTotals[name] = e
		obs := observer
		mu.Unlock()
		if obs != nil {
			obs(name, d)
		}
	}
}

// SetObserver installs a callback receiving every tracked duration, used to
// feed metrics. Pass nil to remove it.
func SetObserver(fn func(name string, d time.Duration)) {
	mu.Lock()
	observer = fn
	mu.Unlock()
}

// ResetTick clears current per-tick totals. Call at the start of each tick.
func ResetTick() {
	mu.Lock()
	clear(tickTotals)
	mu.Unlock()
}

// Snapshot returns a copy of current per-tick totals.
func Snapshot() map[string]time.Duration {
	mu.Lock()
	defer mu.Unlock()
	out := make(map[string]time.Duration, len(tickTotals))
	for k, v := range tickTotals {
		out[k] = v.total
	}
	return out
}

// Calls returns how many times name was tracked this tick.
func Calls(name string) int {
	mu.Lock()
	defer mu.Unlock()
	return tickTotals[name].calls
}

// TopN formats the n most expensive entries of the current tick.
// Example: "streaming.Tick:4.2ms, meshing.RebuildSurfaceLists:2.1ms(x3)"
func TopN(n int) string {
	mu.Lock()
	type pair struct {
		name string
		e    entry
	}
	list := make([]pair, 0, len(tickTotals))
	for k, v := range tickTotals {
		list = append(list, pair{name: k, e: v})
	}
	mu.Unlock()

	sort.Slice(list, func(i, j int) bool { return list[i].e.total > list[j].e.total })
	n = min(n, len(list))
	parts := make([]string, 0, n)
	for _, p := range list[:n] {
		s := fmt.Sprintf("%s:%.1fms", p.name, float64(p.e.total.Microseconds())/1000.0)
		if p.e.calls > 1 {
			s += fmt.Sprintf("(x%d)", p.e.calls)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}
