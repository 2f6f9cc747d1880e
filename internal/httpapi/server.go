// Package httpapi exposes the spec's HTTP API surface — batch extraction,
// spider job control, health, and NDJSON/WebSocket streaming — over
// the same resource.Manager/pipeline.Pipeline wiring the CLI commands
// drive, generalized from the teacher's cmd/jsfindcrack one-shot-process
// model into a resident server.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/webforge/crawlkit/internal/config"
	"github.com/webforge/crawlkit/internal/obslog"
	"github.com/webforge/crawlkit/internal/pipeline"
	"github.com/webforge/crawlkit/internal/resource"
	"github.com/webforge/crawlkit/internal/streaming"
)

// Dependencies is everything a request handler needs, assembled once by
// the caller (cmd/crawlkit's `serve` command) the same way runtime.go
// assembles it for the one-shot CLI commands.
type Dependencies struct {
	Resources   *resource.Manager
	Pipeline    *pipeline.Pipeline
	Headers     http.Header
	GCThreshold float64
}

// Server wires Dependencies to the spec's HTTP API routes.
type Server struct {
	rt   Dependencies
	cfg  config.HTTPConfig
	jobs *jobRegistry
	mux  *http.ServeMux
}

func NewServer(rt Dependencies, cfg config.HTTPConfig) *Server {
	s := &Server{rt: rt, cfg: cfg, jobs: newJobRegistry(), mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/crawl", s.handleCrawl)
	s.mux.HandleFunc("/api/v1/extract", s.handleExtract)
	s.mux.HandleFunc("/spider/crawl", s.handleSpiderCrawl)
	s.mux.HandleFunc("/spider/status", s.handleSpiderStatus)
	s.mux.HandleFunc("/spider/control", s.handleSpiderControl)
	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/api/health/detailed", s.handleHealthDetailed)
	s.mux.HandleFunc("/stream/ws", s.handleWebSocket)
}

func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe blocks serving the configured address, mirroring the
// teacher's cmd's blocking top-level run call.
func (s *Server) ListenAndServe() error {
	obslog.Infof("http api listening on %s", s.cfg.Addr)
	return http.ListenAndServe(s.cfg.Addr, s.mux)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWebSocket upgrades to a WebSocket connection and streams a batch
// extraction over it per the spec's `{message_type,data,timestamp}` frame
// contract (C10's WebSocketWriter). The URL list travels as a JSON text
// message sent immediately after the handshake, since the spec leaves the
// request shape for the WS transport unspecified beyond the frame format.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		obslog.Warnf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	var body crawlRequestBody
	if err := conn.ReadJSON(&body); err != nil {
		obslog.Warnf("websocket read of batch request failed: %v", err)
		return
	}
	if len(body.URLs) == 0 {
		return
	}

	stream := streaming.NewStream(streaming.DefaultConfig())
	writer := streaming.NewWebSocketWriter(conn, stream)

	done := make(chan error, 1)
	ctx := r.Context()
	go func() { done <- writer.Run(ctx) }()

	batchErr := streaming.RunBatch(ctx, stream, body.URLs, streaming.BatchConfig{
		Concurrency:   s.cfg.BatchConcurrency,
		PreserveOrder: true,
	}, func(ctx context.Context, rawURL string) (interface{}, error) {
		return s.extractOne(ctx, rawURL)
	})
	stream.Close()
	<-done

	if batchErr != nil {
		obslog.Warnf("websocket batch ended early: %v", batchErr)
	}
}
