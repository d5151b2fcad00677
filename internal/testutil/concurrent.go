package testutil

import (
	"errors"
	"sync"
	"sync/atomic"

	domainerrors "soulbound.backend/internal/domain/errors"
)

// ConcurrentResult tracks outcomes of concurrent test operations.
type ConcurrentResult struct {
	Successes int64
	Failures  int64
	Conflicts int64
	Errors    []error
}

// RunConcurrent executes fn in parallel goroutines, released together, and collects results.
func RunConcurrent(goroutines int, fn func(idx int) error) *ConcurrentResult {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		start     = make(chan struct{})
		successes atomic.Int64
		failures  atomic.Int64
		conflicts atomic.Int64
		errs      = make([]error, 0)
	)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			<-start
			err := fn(idx)
			if err == nil {
				successes.Add(1)
				return
			}
			failures.Add(1)
			if errors.Is(err, domainerrors.ErrConflict) {
				conflicts.Add(1)
			}
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}(i)
	}

	close(start)
	wg.Wait()

	return &ConcurrentResult{
		Successes: successes.Load(),
		Failures:  failures.Load(),
		Conflicts: conflicts.Load(),
		Errors:    errs,
	}
}
