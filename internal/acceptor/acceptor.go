// Package acceptor runs the coordinator's TCP listener: the raw socket
// accept loop the teacher's network package uses for its UDP server
// (a running flag plus a blocking read loop spun into its own goroutine),
// adapted here to TCP accept and fronted by a token-bucket admission cap
// (spec §4.5) instead of the teacher's unbounded accept.
package acceptor

import (
	"errors"
	"net"
	"sync"

	"golang.org/x/time/rate"

	"github.com/MirzaSakiroglu/Emergency-Drone-Coordination-System-EDCS/internal/session"
	"github.com/MirzaSakiroglu/Emergency-Drone-Coordination-System-EDCS/internal/telemetry"
	"github.com/MirzaSakiroglu/Emergency-Drone-Coordination-System-EDCS/internal/world"
)

// Acceptor owns the listening socket and hands each accepted connection
// off to a new session.Session.
type Acceptor struct {
	addr       string
	world      *world.World
	sessionCfg session.Config
	limiter    *rate.Limiter
	maxConns   int
	metrics    *telemetry.Metrics
	logger     *telemetry.Logger

	mu       sync.Mutex
	running  bool
	listener net.Listener
	stopCh   chan struct{}
	wg       sync.WaitGroup

	connMu sync.Mutex
	connN  int
}

// New constructs an Acceptor bound to addr. rate/burst configure the
// token bucket that caps how fast new connections are admitted; maxConns
// caps how many may be open concurrently.
func New(addr string, w *world.World, sessionCfg session.Config, connRate float64, burst, maxConns int, metrics *telemetry.Metrics, logger *telemetry.Logger) *Acceptor {
	return &Acceptor{
		addr:       addr,
		world:      w,
		sessionCfg: sessionCfg,
		limiter:    rate.NewLimiter(rate.Limit(connRate), burst),
		maxConns:   maxConns,
		metrics:    metrics,
		logger:     logger,
	}
}

// Start opens the listener and begins accepting. It returns once the
// listener is bound; errors from individual accepted connections never
// propagate here.
func (a *Acceptor) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return nil
	}

	ln, err := net.Listen("tcp", a.addr)
	if err != nil {
		return err
	}

	a.listener = ln
	a.running = true
	a.stopCh = make(chan struct{})
	a.wg.Add(1)
	go a.acceptLoop(a.stopCh)
	return nil
}

// Stop closes the listener and blocks until the accept loop has
// returned. Closing the stop channel also makes every session already
// handed off close its connection; Stop does not wait for those sessions
// to finish.
func (a *Acceptor) Stop() error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = false
	close(a.stopCh)
	ln := a.listener
	a.mu.Unlock()

	err := ln.Close()
	a.wg.Wait()
	if a.logger != nil {
		a.logger.LogShutdown("acceptor")
	}
	return err
}

func (a *Acceptor) acceptLoop(stopCh chan struct{}) {
	defer a.wg.Done()

	for {
		conn, err := a.listener.Accept()
		if err != nil {
			select {
			case <-stopCh:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			if a.logger != nil {
				a.logger.LogError("acceptor", err)
			}
			continue
		}

		if !a.admit(conn) {
			conn.Close()
			continue
		}

		go a.serve(conn)
	}
}

// admit applies the admission cap of spec §4.5: a sustained-rate token
// bucket plus a hard ceiling on concurrently open connections.
func (a *Acceptor) admit(conn net.Conn) bool {
	a.connMu.Lock()
	if a.connN >= a.maxConns {
		a.connMu.Unlock()
		if a.metrics != nil {
			a.metrics.ConnectionRejected()
		}
		return false
	}
	a.connN++
	a.connMu.Unlock()

	if !a.limiter.Allow() {
		a.connMu.Lock()
		a.connN--
		a.connMu.Unlock()
		if a.metrics != nil {
			a.metrics.ConnectionRejected()
		}
		return false
	}

	return true
}

func (a *Acceptor) release() {
	a.connMu.Lock()
	a.connN--
	a.connMu.Unlock()
}

func (a *Acceptor) serve(conn net.Conn) {
	defer a.release()
	sess := session.New(conn, a.sessionCfg, a.world, a.logger, a.metrics)
	sess.Run(a.stopCh)
}
