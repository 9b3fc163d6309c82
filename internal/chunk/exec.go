package chunk

import (
	"runtime"
	"sync"
)

// Exec tells a bulk chunk operation how much parallelism it may use.
// Callers already running inside a parallel region mark the context
// Nested so the operation covers its full range on the calling
// goroutine instead of forking again.
type Exec struct {
	workers    int
	inParallel bool
}

// Serial returns a context that runs everything on the calling goroutine.
func Serial() Exec {
	return Exec{workers: 1}
}

// Fork returns a context that forks up to workers goroutines per
// operation and joins before returning. workers <= 0 selects
// GOMAXPROCS.
func Fork(workers int) Exec {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return Exec{workers: workers}
}

// Nested returns a copy of the context marked as already executing
// inside a parallel region.
func (e Exec) Nested() Exec {
	return Exec{workers: e.workers, inParallel: true}
}

// Workers reports how many workers the context may fork.
func (e Exec) Workers() int {
	if e.workers < 1 {
		return 1
	}
	return e.workers
}

// InParallel reports whether the context is already inside a parallel
// region.
func (e Exec) InParallel() bool { return e.inParallel }

// Run applies fn over [0, n), partitioned into one contiguous range per
// worker: worker t covers [t*n/w, (t+1)*n/w). The ranges cover [0, n)
// exactly once with no overlap; Run returns after every range is done.
// A nested or single-worker context calls fn(0, n) directly.
func (e Exec) Run(n int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	w := e.Workers()
	if e.inParallel || w == 1 || n < w {
		fn(0, n)
		return
	}
	var wg sync.WaitGroup
	wg.Add(w)
	for t := 0; t < w; t++ {
		go func(lo, hi int) {
			defer wg.Done()
			if lo < hi {
				fn(lo, hi)
			}
		}(t*n/w, (t+1)*n/w)
	}
	wg.Wait()
}
