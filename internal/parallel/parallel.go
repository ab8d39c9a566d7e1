package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

var maxWorkers atomic.Int64

// SetMaxWorkers caps the number of goroutines For may use. Zero or a negative
// value restores the GOMAXPROCS default; 1 runs every loop on the caller.
func SetMaxWorkers(n int) {
	if n < 0 {
		n = 0
	}
	maxWorkers.Store(int64(n))
}

// MaxWorkers reports the current cap, 0 meaning GOMAXPROCS.
func MaxWorkers() int {
	return int(maxWorkers.Load())
}

func workerCount(n int) int {
	workers := runtime.GOMAXPROCS(0)
	if limit := MaxWorkers(); limit > 0 && limit < workers {
		workers = limit
	}
	if workers > n {
		workers = n
	}
	return workers
}

// For splits [0, n) into contiguous chunks and runs fn on each. Chunks never
// overlap, so fn may write to disjoint regions of a shared slice.
func For(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	workers := workerCount(n)
	if workers <= 1 {
		fn(0, n)
		return
	}
	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
