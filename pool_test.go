package cvgen

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestResolvePoolSize(t *testing.T) {
	t.Parallel()

	gomaxprocs := runtime.GOMAXPROCS(0)

	tests := []struct {
		name    string
		workers int
		want    int
	}{
		{
			name:    "explicit takes priority",
			workers: 4,
			want:    4,
		},
		{
			name:    "explicit=1 for sequential",
			workers: 1,
			want:    1,
		},
		{
			name:    "explicit can exceed max",
			workers: 20,
			want:    20,
		},
		{
			name:    "zero uses auto calculation",
			workers: 0,
			want:    min(max(gomaxprocs/cpuDivisor, MinPoolSize), MaxPoolSize),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ResolvePoolSize(tt.workers)
			if got != tt.want {
				t.Errorf("ResolvePoolSize(%d) = %d, want %d", tt.workers, got, tt.want)
			}
		})
	}
}

func TestJobPool(t *testing.T) {
	t.Parallel()

	t.Run("size floor", func(t *testing.T) {
		t.Parallel()

		if got := NewJobPool(0).Size(); got != 1 {
			t.Errorf("NewJobPool(0).Size() = %d, want 1", got)
		}
	})

	t.Run("bounds concurrency", func(t *testing.T) {
		t.Parallel()

		p := NewJobPool(2)
		var running, peak atomic.Int32
		var wg sync.WaitGroup

		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := p.Acquire(context.Background()); err != nil {
					t.Errorf("Acquire() error = %v", err)
					return
				}
				defer p.Release()

				n := running.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				running.Add(-1)
			}()
		}
		wg.Wait()

		if got := peak.Load(); got > 2 {
			t.Errorf("peak concurrency = %d, want <= 2", got)
		}
		if p.InUse() != 0 {
			t.Errorf("InUse() = %d after all releases", p.InUse())
		}
	})

	t.Run("acquire honours context", func(t *testing.T) {
		t.Parallel()

		p := NewJobPool(1)
		if err := p.Acquire(context.Background()); err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
		defer p.Release()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if err := p.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Acquire() on a full pool = %v, want DeadlineExceeded", err)
		}
	})
}
