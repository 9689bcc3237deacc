package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	cvgen "github.com/alnah/go-cvgen"
	"github.com/alnah/go-cvgen/internal/config"
	"github.com/alnah/go-cvgen/internal/logger"
)

// envPrefix namespaces environment overrides: CVGEN_PATHS_DATA,
// CVGEN_SERVER_PORT, CVGEN_COMPILER_BINARY, ...
const envPrefix = "CVGEN"

// envAliases are shorter names accepted next to the derived ones.
var envAliases = map[string][]string{
	"paths.data":       {"CVGEN_DATA_DIR"},
	"paths.output":     {"CVGEN_OUTPUT_DIR"},
	"paths.templates":  {"CVGEN_TEMPLATES_DIR"},
	"paths.workspace":  {"CVGEN_WORKSPACE_DIR"},
	"compiler.binary":  {"CVGEN_COMPILER"},
	"compiler.timeout": {"CVGEN_TIMEOUT"},
}

// app carries the state shared by every command of one invocation.
type app struct {
	env   *Environment
	v     *viper.Viper
	cfg   *config.Config
	log   *zap.Logger
	quiet bool
}

// newRootCmd builds the command tree. Each call gets its own viper
// instance so tests can run invocations side by side.
func newRootCmd(env *Environment) *cobra.Command {
	a := &app{env: env, v: viper.New(), cfg: config.DefaultConfig(), log: zap.NewNop()}

	root := &cobra.Command{
		Use:   "cvgen",
		Short: "Render CVs to PDF with typst",
		Long: `cvgen renders a person's CV data through typst templates into a PDF.

Each person lives in its own directory under the data root:
  cv_params.toml        personal information
  experiences_<lang>.typ  experiences per language (en, fr, es, de)
  profile.png           optional picture
  company_logo.png      optional logo

Quick Start:
  cvgen create jane-doe                   Scaffold a person
  cvgen files jane-doe                    List the files to edit
  cvgen generate jane-doe --lang fr       Render data/jane-doe to out/jane-doe_default_fr.pdf
  cvgen generate jane-doe --watch         Re-render on every save
  cvgen server                            Serve the HTTP API

Configuration precedence: flags > CVGEN_* environment > --config file > defaults.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.load()
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	})

	pf := root.PersistentFlags()
	pf.String("config", "", "config name or path (e.g. work, ./cvgen.yaml)")
	pf.String("data-dir", "", "root of person directories (default \"data\")")
	pf.String("output-dir", "", "where PDFs are written (default \"out\")")
	pf.String("templates-dir", "", "directory holding template.typ and cv*.typ (default \"templates\")")
	pf.String("compiler", "", "typst binary name or path (default \"typst\")")
	pf.String("log-level", "", "debug, info, warn, error (default \"info\")")
	pf.String("log-format", "", "console or json (default \"console\")")
	pf.BoolVarP(&a.quiet, "quiet", "q", false, "only log errors")

	a.bind(pf, map[string]string{
		"config":          "config",
		"paths.data":      "data-dir",
		"paths.output":    "output-dir",
		"paths.templates": "templates-dir",
		"compiler.binary": "compiler",
		"log.level":       "log-level",
		"log.format":      "log-format",
	})

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	a.v.AutomaticEnv()
	for key, names := range envAliases {
		_ = a.v.BindEnv(append([]string{key, envPrefix + "_" + envKey(key)}, names...)...)
	}

	root.AddCommand(
		newGenerateCmd(a),
		newCreateCmd(a),
		newDeleteCmd(a),
		newListCmd(a),
		newFilesCmd(a),
		newListTemplatesCmd(a),
		newServerCmd(a),
		newDoctorCmd(a),
	)
	return root
}

// envKey derives the environment suffix for a viper key.
func envKey(key string) string {
	return strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

// bind maps viper keys to flags of fs. Errors only occur for nil flags,
// which would be a programming error caught by the tests.
func (a *app) bind(fs *pflag.FlagSet, keys map[string]string) {
	for key, flag := range keys {
		if err := a.v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("binding %s: %v", key, err))
		}
	}
}

// load resolves the effective configuration and builds the logger.
// Precedence: flags > environment > config file > defaults.
func (a *app) load() error {
	cfg := config.DefaultConfig()
	if name := a.v.GetString("config"); name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	a.overlay(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := cfg.Log.Level
	if a.quiet {
		level = "error"
	}
	log, err := logger.New(level, cfg.Log.Format)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	return nil
}

// overlay copies every value set by a flag or the environment onto cfg.
func (a *app) overlay(cfg *config.Config) {
	strs := map[string]*string{
		"paths.data":              &cfg.Paths.Data,
		"paths.output":            &cfg.Paths.Output,
		"paths.templates":         &cfg.Paths.Templates,
		"paths.workspace":         &cfg.Paths.Workspace,
		"compiler.binary":         &cfg.Compiler.Binary,
		"compiler.timeout":        &cfg.Compiler.Timeout,
		"server.shutdown_timeout": &cfg.Server.ShutdownTimeout,
		"log.level":               &cfg.Log.Level,
		"log.format":              &cfg.Log.Format,
		"watch.policy":            &cfg.Watch.Policy,
		"watch.debounce":          &cfg.Watch.Debounce,
	}
	for key, dst := range strs {
		if a.v.IsSet(key) {
			*dst = a.v.GetString(key)
		}
	}

	ints := map[string]*int{
		"server.port":    &cfg.Server.Port,
		"server.workers": &cfg.Server.Workers,
	}
	for key, dst := range ints {
		if a.v.IsSet(key) {
			*dst = a.v.GetInt(key)
		}
	}

	if a.v.IsSet("server.max_upload_bytes") {
		cfg.Server.MaxUploadBytes = a.v.GetInt64("server.max_upload_bytes")
	}
}

// dirs returns the configured roots.
func (a *app) dirs() cvgen.Dirs {
	return cvgen.Dirs{
		Data:      a.cfg.Paths.Data,
		Output:    a.cfg.Paths.Output,
		Templates: a.cfg.Paths.Templates,
	}
}

// generator builds a Generator from the effective configuration.
func (a *app) generator(extra ...cvgen.Option) *cvgen.Generator {
	opts := []cvgen.Option{
		cvgen.WithCompiler(a.cfg.Compiler.Binary),
		cvgen.WithTimeout(a.cfg.CompilerTimeout()),
		cvgen.WithWorkspaceRoot(a.cfg.Paths.Workspace),
		cvgen.WithLogger(a.log),
	}
	if a.env.Runner != nil {
		opts = append(opts, cvgen.WithRunner(a.env.Runner))
	}
	return cvgen.NewGenerator(append(opts, extra...)...)
}

// persons builds a PersonStore on the configured roots.
func (a *app) persons() *cvgen.PersonStore {
	return cvgen.NewPersonStore(a.dirs(), a.log)
}

// exactArgs is cobra.ExactArgs with errors classified as usage errors.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return fmt.Errorf("%w: %v", ErrUsage, err)
		}
		return nil
	}
}

// noArgs is cobra.NoArgs with errors classified as usage errors.
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}
