package main

import (
	"github.com/spf13/cobra"

	"github.com/webforge/crawlkit/internal/httpapi"
	"github.com/webforge/crawlkit/internal/obslog"
)

var serveAddr string

// serveCmd runs the resident HTTP API (`/crawl`, `/spider/*`, `/healthz`,
// `/api/v1/extract`, plus NDJSON and WebSocket streaming) described in
// spec §6's "External Interfaces". The other cmd/crawlkit commands are
// one-shot processes; this is the long-running counterpart that keeps a
// resource.Manager and pipeline.Pipeline warm across requests instead of
// rebuilding them per invocation.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the HTTP API server (crawl, spider control, health, streaming)",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := newRuntime(appConfig)

		cfg := appConfig.HTTP
		if serveAddr != "" {
			cfg.Addr = serveAddr
		}

		srv := httpapi.NewServer(httpapi.Dependencies{
			Resources:   rt.resources,
			Pipeline:    rt.pipeline,
			Headers:     rt.headers,
			GCThreshold: appConfig.Memory.GCThreshold,
		}, cfg)

		obslog.Infof("serving crawlkit HTTP API at %s", cfg.Addr)
		return srv.ListenAndServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides http.addr from config)")
}
