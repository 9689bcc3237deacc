package cvgen

import (
	"context"
	"runtime"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one job can run.
	MinPoolSize = 1

	// MaxPoolSize caps concurrent compiler processes. typst is itself
	// multi-threaded, so more than a handful buys nothing.
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for the compiler's own threads.
	cpuDivisor = 2
)

// JobPool bounds how many generation jobs run at once.
type JobPool struct {
	size int
	sem  chan struct{}
}

// NewJobPool creates a pool admitting n concurrent jobs (at least one).
func NewJobPool(n int) *JobPool {
	if n < 1 {
		n = 1
	}
	return &JobPool{size: n, sem: make(chan struct{}, n)}
}

// Acquire blocks until a slot is free or ctx is done.
func (p *JobPool) Acquire(ctx context.Context) error {
	select {
	case p.sem <- struct{}{}:
		return nil
	default:
	}

	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot taken by Acquire.
func (p *JobPool) Release() {
	<-p.sem
}

// Size returns the pool capacity.
func (p *JobPool) Size() int {
	return p.size
}

// InUse returns the number of slots currently held.
func (p *JobPool) InUse() int {
	return len(p.sem)
}

// ResolvePoolSize determines the optimal pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
// Exported for use by servers and CLIs.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs in containers.
	n := runtime.GOMAXPROCS(0) / cpuDivisor

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
