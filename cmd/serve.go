package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/openjournals/ojs-pubmed/metrics"
	"github.com/openjournals/ojs-pubmed/pipeline"
	"github.com/openjournals/ojs-pubmed/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the conversion HTTP service",
	Long: `Serve the conversion over HTTP.

Endpoints:
  POST /v1/convert   multipart upload, field "files"; returns the ArticleSet,
                     or the batch report as JSON with ?report=1
  GET  /healthz      liveness
  GET  /metrics      Prometheus metrics

Examples:
  ojs-pubmed serve --journal tvg --addr :8080
  curl -F files=@a.xml -F files=@b.xml localhost:8080/v1/convert > articleset.xml`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "Listen address")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	p := newPipeline(cfg, logger, pipeline.WithObserver(collector))
	srv := server.New(server.Config{
		Address:         cfg.Server.Addr,
		MaxUploadBytes:  cfg.Server.MaxUploadBytes,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, p, reg, logger)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}
