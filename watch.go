package cvgen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alnah/go-cvgen/internal/watcher"
)

// WatchPolicy decides what a failed re-render does to the watch loop.
type WatchPolicy int

const (
	// WatchStopOnError ends the loop with the first render error.
	WatchStopOnError WatchPolicy = iota
	// WatchContinueOnError reports the error through OnRender and keeps
	// watching.
	WatchContinueOnError
)

func (p WatchPolicy) String() string {
	if p == WatchContinueOnError {
		return "continue"
	}
	return "stop"
}

// WatchOptions configures Watch.
type WatchOptions struct {
	Policy WatchPolicy

	// Debounce is the quiet period after a change before re-rendering.
	// Zero uses the watcher default.
	Debounce time.Duration

	// OnRender is called after every render attempt with either a result
	// or an error.
	OnRender func(*Result, error)
}

var errWatcherClosed = errors.New("file watcher stopped unexpectedly")

// changeSourceFunc starts delivering batches of changed source paths.
type changeSourceFunc func(files []string, debounce time.Duration, onError func(error)) (<-chan []string, func() error, error)

func fsnotifySource(files []string, debounce time.Duration, onError func(error)) (<-chan []string, func() error, error) {
	w, err := watcher.New(watcher.Config{Files: files, Debounce: debounce, OnError: onError})
	if err != nil {
		return nil, nil, err
	}
	changes, err := w.Start()
	if err != nil {
		_ = w.Stop()
		return nil, nil, err
	}
	return changes, w.Stop, nil
}

// Watch resolves and stages req once, renders it, then re-renders whenever
// one of the source files changes. The changed files are copied into the
// workspace again before each render. A profile.png or company_logo.png
// added to the person directory while watching is staged and used from the
// next render on. Template files and content for other languages are fixed
// when the watch starts.
//
// Watch returns nil when ctx is cancelled, after the workspace is removed.
// Under WatchStopOnError it returns the first render error.
func (g *Generator) Watch(ctx context.Context, req Request, opts WatchOptions) error {
	jobID := uuid.NewString()
	log := g.jobLogger(jobID, req).With(zap.Stringer("policy", opts.Policy))
	t := newJobTracker(jobID, g.observers, log)

	if err := g.watch(ctx, t, req, opts, log); err != nil {
		t.enter(StateFailed)
		log.Warn("watch stopped", zap.Error(err))
		return err
	}

	t.enter(StateDone)
	log.Info("watch stopped")
	return nil
}

func (g *Generator) watch(ctx context.Context, t *jobTracker, req Request, opts WatchOptions, log *zap.Logger) error {
	var ws *Workspace
	defer func() {
		t.enter(StateCleaningUp)
		g.releaseWorkspace(ws, log)
	}()

	t.enter(StateResolving)
	assets, err := g.resolver.Resolve(req)
	if err != nil {
		return err
	}

	t.enter(StateStaging)
	ws, err = g.workspaces.Acquire(assets)
	if err != nil {
		return err
	}

	sources := assets.WatchSources()
	changes, stop, err := g.changes(sources, opts.Debounce, func(err error) {
		log.Warn("file watcher error", zap.Error(err))
	})
	if err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}
	defer func() { _ = stop() }()

	log.Info("watching", zap.Strings("sources", sources))

	var batch []string
	for {
		res, rerr := g.renderChanged(ctx, t, ws, batch)
		if ctx.Err() != nil {
			return nil
		}
		if res != nil {
			res.JobID = t.id
		}
		if opts.OnRender != nil {
			opts.OnRender(res, rerr)
		}
		if rerr != nil {
			log.Warn("render failed", zap.Error(rerr))
			if opts.Policy == WatchStopOnError {
				return rerr
			}
		} else {
			log.Info("rendered", zap.String("path", res.Path), zap.Duration("elapsed", res.Duration))
		}

		select {
		case <-ctx.Done():
			return nil
		case b, ok := <-changes:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errWatcherClosed
			}
			log.Debug("sources changed", zap.Strings("paths", b))
			batch = b
		}
	}
}

// renderChanged refreshes the changed sources then renders.
func (g *Generator) renderChanged(ctx context.Context, t *jobTracker, ws *Workspace, changed []string) (*Result, error) {
	variant := ws.Assets.Request.Variant.Name
	start := time.Now()
	g.metrics.JobStarted()

	res, err := g.refreshAndRender(ctx, t, ws, changed)
	elapsed := time.Since(start)
	if err != nil {
		g.metrics.JobFailed(variant, ErrorCode(err), elapsed)
		return nil, err
	}
	res.Duration = elapsed
	g.metrics.JobSucceeded(variant, elapsed)
	return res, nil
}

func (g *Generator) refreshAndRender(ctx context.Context, t *jobTracker, ws *Workspace, changed []string) (*Result, error) {
	for _, p := range changed {
		if err := ws.Refresh(p); err != nil {
			return nil, err
		}
	}
	return g.render(ctx, t, ws)
}
