package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cvgen "github.com/alnah/go-cvgen"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		lang            string
		template        string
		watch           bool
		continueOnError bool
	)

	cmd := &cobra.Command{
		Use:   "generate <person>",
		Short: "Render a person's CV to PDF",
		Long: `Render {data}/<person> with the selected template variant and language.
The PDF is written to {output}/<person>_<variant>_<lang>.pdf and its path
is printed on stdout.

With --watch the document is re-rendered whenever one of its source files
changes, until interrupted.`,
		Example: `  cvgen generate jane-doe
  cvgen generate jane-doe --lang fr --template keyteo
  cvgen generate jane-doe --watch --continue-on-error`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := cvgen.NewRequest(args[0], lang, template, a.dirs())
			if err != nil {
				return err
			}
			gen := a.generator()

			if !watch {
				res, err := gen.Generate(cmd.Context(), req)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.env.Stdout, res.Path)
				return nil
			}

			policy := cvgen.WatchStopOnError
			if continueOnError || a.cfg.ContinueOnError() {
				policy = cvgen.WatchContinueOnError
			}
			a.log.Info("watching", zap.String("person", req.Person), zap.Stringer("policy", policy))

			return gen.Watch(cmd.Context(), req, cvgen.WatchOptions{
				Policy:   policy,
				Debounce: a.cfg.WatchDebounce(),
				OnRender: func(res *cvgen.Result, err error) {
					if err != nil {
						fmt.Fprintf(a.env.Stderr, "render failed: %v%s\n", err, hintFor(err))
						return
					}
					fmt.Fprintln(a.env.Stdout, res.Path)
				},
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&lang, "lang", "l", cvgen.DefaultLanguage,
		"language: "+strings.Join(cvgen.SupportedLanguages(), ", ")+" (aliases such as french accepted)")
	f.StringVarP(&template, "template", "t", cvgen.DefaultVariantName,
		"template variant: "+strings.Join(cvgen.VariantNames(), ", "))
	f.BoolVarP(&watch, "watch", "w", false, "re-render when a source file changes")
	f.BoolVar(&continueOnError, "continue-on-error", false, "keep watching after a failed render")
	f.String("timeout", "", "compiler timeout, e.g. 90s (default \"60s\")")
	a.bind(f, map[string]string{"compiler.timeout": "timeout"})

	return cmd
}
