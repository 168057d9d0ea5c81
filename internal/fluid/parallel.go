package fluid

import (
	"runtime"
	"sync"
)

// minRowsPerWorker keeps small grids on the calling goroutine.
const minRowsPerWorker = 32

// parallelRows calls fn over disjoint [start, end) slices of [lo, hi).
// fn must only write cells in its own rows.
func parallelRows(lo, hi int, fn func(start, end int)) {
	n := hi - lo
	if n <= 0 {
		return
	}
	workers := runtime.GOMAXPROCS(0)
	if n/minRowsPerWorker < workers {
		workers = n / minRowsPerWorker
	}
	if workers <= 1 {
		fn(lo, hi)
		return
	}

	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := lo + w*chunk
		if start >= hi {
			break
		}
		end := start + chunk
		if end > hi {
			end = hi
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
