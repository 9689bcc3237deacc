package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	cvgen "github.com/alnah/go-cvgen"
	"github.com/alnah/go-cvgen/internal/metrics"
	"github.com/alnah/go-cvgen/internal/server"
)

func newServerCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "server",
		Aliases: []string{"serve"},
		Short:   "Serve the HTTP API",
		Long: `Serve the HTTP API:
  POST /generate         {person, lang?, template?} -> application/pdf
  POST /create           {person, name?}
  POST /upload-picture   multipart person + file (PNG or JPEG)
  GET  /templates, /persons, /health, /metrics

Stops gracefully on SIGINT or SIGTERM.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			srv, err := server.New(server.Config{
				Addr:            fmt.Sprintf(":%d", a.cfg.Server.Port),
				Dirs:            a.dirs(),
				ShutdownTimeout: a.cfg.ShutdownTimeout(),
				MaxUploadBytes:  a.cfg.Server.MaxUploadBytes,
			}, server.Deps{
				Generator: a.generator(cvgen.WithMetrics(metrics.New(reg))),
				Persons:   a.persons(),
				Pool:      cvgen.NewJobPool(cvgen.ResolvePoolSize(a.cfg.Server.Workers)),
				Gatherer:  reg,
				Logger:    a.log,
			})
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.IntP("port", "p", 0, "listen port (default 4002)")
	f.Int("workers", 0, "concurrent compiles (default: GOMAXPROCS/2, 1..8)")
	a.bind(f, map[string]string{
		"server.port":    "port",
		"server.workers": "workers",
	})
	return cmd
}
