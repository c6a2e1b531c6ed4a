// Command coordinator runs the emergency drone coordination server: the
// world model, the TCP wire-protocol listener, the survivor spawner, and
// the mission dispatcher, wired together the way drone/main.go wires its
// sensor/gossip/network stack.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MirzaSakiroglu/Emergency-Drone-Coordination-System-EDCS/internal/acceptor"
	"github.com/MirzaSakiroglu/Emergency-Drone-Coordination-System-EDCS/internal/config"
	"github.com/MirzaSakiroglu/Emergency-Drone-Coordination-System-EDCS/internal/debugserver"
	"github.com/MirzaSakiroglu/Emergency-Drone-Coordination-System-EDCS/internal/dispatcher"
	"github.com/MirzaSakiroglu/Emergency-Drone-Coordination-System-EDCS/internal/lifecycle"
	"github.com/MirzaSakiroglu/Emergency-Drone-Coordination-System-EDCS/internal/session"
	"github.com/MirzaSakiroglu/Emergency-Drone-Coordination-System-EDCS/internal/spawner"
	"github.com/MirzaSakiroglu/Emergency-Drone-Coordination-System-EDCS/internal/telemetry"
	"github.com/MirzaSakiroglu/Emergency-Drone-Coordination-System-EDCS/internal/world"
)

func main() {
	var (
		tcpPort       = flag.Int("tcp-port", 0, "TCP port for the drone wire protocol (0 = use config default)")
		debugPort     = flag.Int("debug-port", 0, "HTTP port for /healthz, /metrics, /debug/snapshot (0 = use config default)")
		bindAddr      = flag.String("bind", "", "Bind address (empty = use config default)")
		gridWidth     = flag.Int("grid-width", 0, "Grid width (0 = use config default)")
		gridHeight    = flag.Int("grid-height", 0, "Grid height (0 = use config default)")
		maxConns      = flag.Int("max-connections", 0, "Maximum concurrently open drone sessions (0 = use config default)")
		admissionRate = flag.Float64("admission-rate", 0, "Sustained new-connections/sec cap (0 = use config default)")
		showUsage     = flag.Bool("help", false, "Show usage help")
	)
	flag.Parse()

	if *showUsage {
		printUsage()
		return
	}

	cfg := config.DefaultConfig()
	if *tcpPort > 0 {
		cfg.TCPPort = *tcpPort
	}
	if *debugPort > 0 {
		cfg.DebugPort = *debugPort
	}
	if *bindAddr != "" {
		cfg.BindAddr = *bindAddr
	}
	if *gridWidth > 0 {
		cfg.GridWidth = *gridWidth
	}
	if *gridHeight > 0 {
		cfg.GridHeight = *gridHeight
	}
	if *maxConns > 0 {
		cfg.MaxConnections = *maxConns
	}
	if *admissionRate > 0 {
		cfg.AdmissionRate = *admissionRate
	}

	logger := telemetry.NewLogger("coordinator")
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)

	w := world.New(cfg.GridWidth, cfg.GridHeight, metrics, logger)

	sessionCfg := session.Config{
		MaxFrameSize:         cfg.MaxFrameSize,
		ReadTimeout:          cfg.ReadTimeout,
		StatusUpdateInterval: cfg.StatusUpdateInterval,
		HeartbeatInterval:    cfg.HeartbeatInterval,
	}

	disp := dispatcher.New(w, cfg.DispatchInterval, cfg.MissionExpiry, metrics, logger)
	spawn := spawner.New(w, cfg.MinSpawnGap, cfg.MaxSpawnGap, logger)
	accept := acceptor.New(
		net.JoinHostPort(cfg.BindAddr, fmt.Sprintf("%d", cfg.TCPPort)),
		w, sessionCfg, cfg.AdmissionRate, cfg.AdmissionBurst, cfg.MaxConnections, metrics, logger,
	)
	debugSrv := debugserver.New(net.JoinHostPort(cfg.BindAddr, fmt.Sprintf("%d", cfg.DebugPort)), w, reg)

	group := lifecycle.New(context.Background())
	group.Add(debugSrv)
	group.Add(accept)
	group.Add(lifecycle.FromFuncs(
		func() error { disp.Start(); return nil },
		func() error { disp.Stop(); return nil },
	))
	group.Add(lifecycle.FromFuncs(
		func() error { spawn.Start(); return nil },
		func() error { spawn.Stop(); return nil },
	))

	fmt.Printf("=== Emergency Drone Coordination Server ===\n")
	fmt.Printf("Grid: %dx%d\n", cfg.GridWidth, cfg.GridHeight)
	fmt.Printf("Drone wire protocol: %s:%d\n", cfg.BindAddr, cfg.TCPPort)
	fmt.Printf("Debug/metrics: http://%s:%d\n", cfg.BindAddr, cfg.DebugPort)
	fmt.Printf("Spawn gap: [%v, %v]\n", cfg.MinSpawnGap, cfg.MaxSpawnGap)
	fmt.Printf("Dispatch tick: every %v\n", cfg.DispatchInterval)
	fmt.Printf("Admission cap: %.1f/s burst %d, max %d concurrent\n\n", cfg.AdmissionRate, cfg.AdmissionBurst, cfg.MaxConnections)

	if err := group.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		fmt.Println("\nShutdown signal received, stopping...")
	case <-group.Done():
	}

	shutdownStart := time.Now()
	if err := group.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "error during shutdown: %v\n", err)
	}
	fmt.Printf("Shutdown complete in %v\n", time.Since(shutdownStart))
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `
=== Emergency Drone Coordination Server ===

USAGE:
  %s [options]

EXAMPLES:
  %s -tcp-port=7070 -debug-port=9090
  %s -grid-width=200 -grid-height=200
  %s -max-connections=512 -admission-rate=100

OPTIONS:
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0])

	flag.PrintDefaults()

	fmt.Fprintf(os.Stderr, `
ENDPOINTS (HTTP, debug port):
  GET /healthz          - liveness check
  GET /metrics          - Prometheus metrics
  GET /debug/snapshot    - current world state (drones, survivors)

WIRE PROTOCOL (TCP, drone port):
  Line-delimited JSON, one object per line. See the coordination
  protocol frames: HANDSHAKE, STATUS_UPDATE, ASSIGN_MISSION,
  MISSION_COMPLETE, HEARTBEAT, ERROR.
`)
}
