package cvgen

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alnah/go-cvgen/internal/metrics"
)

// Generator runs generation jobs. Create with NewGenerator; safe for
// concurrent use.
type Generator struct {
	cfg       generatorConfig
	runner    CommandRunner
	log       *zap.Logger
	metrics   *metrics.Recorder
	observers []StateObserver

	resolver   *Resolver
	workspaces *WorkspaceManager
	compiler   *Compiler
	output     *OutputManager

	// changes builds the watch-mode notification source.
	changes changeSourceFunc
}

// NewGenerator creates a Generator. Without options it runs "typst" from
// PATH with a 60s timeout, stages under os.TempDir() and logs nothing.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		cfg: generatorConfig{
			timeout:  defaultTimeout,
			compiler: defaultCompiler,
		},
		log: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.runner == nil {
		g.runner = &ExecRunner{}
	}
	g.resolver = NewResolver(g.log)
	g.workspaces = NewWorkspaceManager(g.cfg.workspaceRoot, g.log, g.metrics)
	g.compiler = NewCompiler(g.cfg.compiler, g.cfg.timeout, g.runner, g.log)
	g.output = &OutputManager{}
	if g.changes == nil {
		g.changes = fsnotifySource
	}

	return g
}

// Workspaces exposes the workspace manager, mainly to report its root.
func (g *Generator) Workspaces() *WorkspaceManager {
	return g.workspaces
}

// Compiler exposes the configured compiler.
func (g *Generator) Compiler() *Compiler {
	return g.compiler
}

// Templates lists the variants renderable from templateDir.
func (g *Generator) Templates(templateDir string) []VariantInfo {
	return ListVariants(templateDir)
}

// Generate renders req and returns where the document was written.
// The compile is bounded by the configured timeout but not cancelled by
// ctx: a one-shot job runs to completion once started.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	jobID := uuid.NewString()
	log := g.jobLogger(jobID, req)
	t := newJobTracker(jobID, g.observers, log)

	start := time.Now()
	g.metrics.JobStarted()

	res, err := g.run(context.WithoutCancel(ctx), t, req, log)
	elapsed := time.Since(start)

	if err != nil {
		t.enter(StateFailed)
		g.metrics.JobFailed(req.Variant.Name, ErrorCode(err), elapsed)
		log.Warn("generation failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		return nil, err
	}

	t.enter(StateDone)
	res.JobID = jobID
	res.Duration = elapsed
	g.metrics.JobSucceeded(req.Variant.Name, elapsed)
	log.Info("generated", zap.String("path", res.Path), zap.Duration("elapsed", elapsed))
	return res, nil
}

// GenerateBytes runs Generate and returns the document's content too.
func (g *Generator) GenerateBytes(ctx context.Context, req Request) ([]byte, *Result, error) {
	res, err := g.Generate(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(res.Path)
	if err != nil {
		return nil, res, fmt.Errorf("reading output: %w", err)
	}
	return data, res, nil
}

// run drives Resolving through CleaningUp. CleaningUp is entered on every
// path, including resolution failures where there is nothing to remove.
func (g *Generator) run(ctx context.Context, t *jobTracker, req Request, log *zap.Logger) (*Result, error) {
	var ws *Workspace
	defer func() {
		t.enter(StateCleaningUp)
		g.releaseWorkspace(ws, log)
	}()

	t.enter(StateResolving)
	assets, err := g.resolver.Resolve(req)
	if err != nil {
		return nil, err
	}

	t.enter(StateStaging)
	ws, err = g.workspaces.Acquire(assets)
	if err != nil {
		return nil, err
	}
	log.Debug("staged", zap.String("workspace", ws.Dir), zap.Strings("skipped", ws.Skipped))

	return g.render(ctx, t, ws)
}

// render compiles inside the workspace then moves the document out.
func (g *Generator) render(ctx context.Context, t *jobTracker, ws *Workspace) (*Result, error) {
	req := ws.Assets.Request

	t.enter(StateCompiling)
	produced := ws.Path(OutputFileName(req.Person, req.Variant.Name, req.Lang))
	_ = os.Remove(produced)
	if _, err := g.compiler.Compile(ctx, ws, produced); err != nil {
		return nil, err
	}

	t.enter(StateFinalizing)
	return g.output.Finalize(produced, req)
}

func (g *Generator) releaseWorkspace(ws *Workspace, log *zap.Logger) {
	if ws == nil {
		return
	}
	if err := ws.Release(); err != nil {
		log.Warn("workspace cleanup failed", zap.String("workspace", ws.Dir), zap.Error(err))
	}
}

func (g *Generator) jobLogger(jobID string, req Request) *zap.Logger {
	return g.log.With(
		zap.String("job_id", jobID),
		zap.String("person", req.Person),
		zap.String("variant", req.Variant.Name),
		zap.String("lang", req.Lang),
	)
}
