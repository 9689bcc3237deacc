package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// ---------------------------------------------------------------------------
// TestRecorder - Job accounting
// ---------------------------------------------------------------------------

func TestRecorder(t *testing.T) {
	t.Parallel()

	t.Run("success path", func(t *testing.T) {
		t.Parallel()

		r := New(prometheus.NewRegistry())
		r.JobStarted()
		if got := testutil.ToFloat64(r.JobsActive); got != 1 {
			t.Fatalf("jobs active = %v, want 1", got)
		}

		r.JobSucceeded("keyteo", 2*time.Second)

		if got := testutil.ToFloat64(r.JobsActive); got != 0 {
			t.Errorf("jobs active = %v, want 0", got)
		}
		if got := testutil.ToFloat64(r.JobsCompleted.WithLabelValues("keyteo")); got != 1 {
			t.Errorf("jobs completed = %v, want 1", got)
		}
		if got := testutil.CollectAndCount(r.JobDuration); got != 1 {
			t.Errorf("duration series = %d, want 1", got)
		}
	})

	t.Run("failure path", func(t *testing.T) {
		t.Parallel()

		r := New(prometheus.NewRegistry())
		r.JobStarted()
		r.JobFailed("default", "MISSING_ASSET", time.Millisecond)

		if got := testutil.ToFloat64(r.JobsFailed.WithLabelValues("default", "MISSING_ASSET")); got != 1 {
			t.Errorf("jobs failed = %v, want 1", got)
		}
		if got := testutil.ToFloat64(r.JobsActive); got != 0 {
			t.Errorf("jobs active = %v, want 0", got)
		}
	})

	t.Run("workspaces gauge", func(t *testing.T) {
		t.Parallel()

		r := New(prometheus.NewRegistry())
		r.WorkspaceAcquired()
		r.WorkspaceAcquired()
		r.WorkspaceReleased()

		if got := testutil.ToFloat64(r.WorkspacesActive); got != 1 {
			t.Errorf("workspaces active = %v, want 1", got)
		}
	})

	t.Run("nil recorder is a no-op", func(t *testing.T) {
		t.Parallel()

		var r *Recorder
		r.JobStarted()
		r.JobSucceeded("default", time.Second)
		r.JobFailed("default", "X", time.Second)
		r.WorkspaceAcquired()
		r.WorkspaceReleased()
	})
}
