package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/augment/internal/server"
	"github.com/matzehuels/augment/pkg/observability/prom"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the apply, replay and reverse HTTP API",
		Long: `Serve the HTTP API:

  POST /v1/apply     run a pipeline on one sample, returning its record
  POST /v1/replay    replay a record on a sample
  POST /v1/reverse   undo a record on an augmented sample
  GET  /v1/transforms, /healthz, /version, /metrics

Records are cached in the configured backend, shared with the CLI.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			runner, err := c.newRunner(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := server.New(runner, logger)
			srv.MaxBodyBytes = cfg.Server.MaxBodyBytes
			if cfg.Server.Metrics {
				reg := prometheus.NewRegistry()
				reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
				prom.New(reg).Install()
				srv.Metrics = reg
			}

			printInfo("Listening on %s %s", StyleValue.Render(cfg.Server.Addr), StyleDim.Render("(cache: "+describeBackend(cfg)+")"))
			return srv.ListenAndServe(ctx, cfg.Server.Addr, cfg.Server.ShutdownTimeout)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")

	return cmd
}
