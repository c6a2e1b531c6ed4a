// Package debugserver exposes the coordinator's read-only HTTP surface:
// /healthz, /metrics (Prometheus), and /debug/snapshot (a JSON render of
// world.Snapshot), in the same http.ServeMux + wrapped-http.Server shape
// as the teacher's TCPServer, but serving real application data instead
// of the teacher's not-implemented placeholders.
package debugserver

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MirzaSakiroglu/Emergency-Drone-Coordination-System-EDCS/internal/world"
)

// Server is the coordinator's debug/observability HTTP endpoint.
type Server struct {
	addr   string
	world  *world.World
	server *http.Server
}

// New builds a debug server bound to addr, registering reg's collectors
// under /metrics.
func New(addr string, w *world.World, reg *prometheus.Registry) *Server {
	mux := http.NewServeMux()
	s := &Server{
		addr:  addr,
		world: w,
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}

	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/debug/snapshot", s.handleSnapshot)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return s
}

// Start begins serving in the background; ListenAndServe's own error (if
// any, once the listener closes) is discarded the way the teacher's
// TCPServer.Start does, since Stop's Shutdown is the expected cause.
func (s *Server) Start() error {
	go s.server.ListenAndServe()
	return nil
}

// Stop gracefully shuts the HTTP server down.
func (s *Server) Stop() error {
	return s.server.Shutdown(context.Background())
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := s.world.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}
