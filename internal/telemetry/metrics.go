package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the coordinator's Prometheus collectors. It stands in for
// the GetStats() maps the teacher returns from every subsystem
// (drone_state.go, tcp_server.go, neighbor_table.go, control.go), rendered
// as proper collectors instead of ad-hoc map[string]interface{} so they
// can be scraped by /metrics instead of polled over the wire protocol.
type Metrics struct {
	SessionsOpen             prometheus.Gauge
	DronesRegistered         prometheus.Gauge
	DronesConnected          prometheus.Gauge
	SurvivorsSpawnedTotal    prometheus.Counter
	SurvivorsRescuedTotal    prometheus.Counter
	MissionsDispatchedTotal  prometheus.Counter
	ProtocolErrorsTotal      prometheus.Counter
	ConnectionsRejectedTotal prometheus.Counter
	DispatchTickDuration     prometheus.Histogram
}

// NewMetrics registers every collector against reg and returns the handle
// used by the world, dispatcher, acceptor, and session packages.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SessionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "edcs_sessions_open",
			Help: "Number of currently open drone sessions.",
		}),
		DronesRegistered: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "edcs_drones_registered",
			Help: "Number of drone records ever created (includes disconnected).",
		}),
		DronesConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "edcs_drones_connected",
			Help: "Number of drones with a live session.",
		}),
		SurvivorsSpawnedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "edcs_survivors_spawned_total",
			Help: "Total survivors spawned.",
		}),
		SurvivorsRescuedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "edcs_survivors_rescued_total",
			Help: "Total survivors archived as HELPED.",
		}),
		MissionsDispatchedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "edcs_missions_dispatched_total",
			Help: "Total ASSIGN_MISSION frames successfully sent.",
		}),
		ProtocolErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "edcs_protocol_errors_total",
			Help: "Total ERROR 400 frames sent to drones.",
		}),
		ConnectionsRejectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "edcs_connections_rejected_total",
			Help: "Total incoming connections closed due to the admission cap.",
		}),
		DispatchTickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "edcs_dispatch_tick_duration_seconds",
			Help:    "Wall time of a single dispatcher tick.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.SessionsOpen,
		m.DronesRegistered,
		m.DronesConnected,
		m.SurvivorsSpawnedTotal,
		m.SurvivorsRescuedTotal,
		m.MissionsDispatchedTotal,
		m.ProtocolErrorsTotal,
		m.ConnectionsRejectedTotal,
		m.DispatchTickDuration,
	)
	return m
}

func (m *Metrics) SessionOpened()      { m.SessionsOpen.Inc() }
func (m *Metrics) SessionClosed()      { m.SessionsOpen.Dec() }
func (m *Metrics) DroneRegistered()    { m.DronesRegistered.Inc(); m.DronesConnected.Inc() }
func (m *Metrics) DroneReconnected()   { m.DronesConnected.Inc() }
func (m *Metrics) DroneDisconnected()  { m.DronesConnected.Dec() }
func (m *Metrics) SurvivorSpawned()    { m.SurvivorsSpawnedTotal.Inc() }
func (m *Metrics) SurvivorRescued()    { m.SurvivorsRescuedTotal.Inc() }
func (m *Metrics) MissionDispatched()  { m.MissionsDispatchedTotal.Inc() }
func (m *Metrics) ProtocolError()      { m.ProtocolErrorsTotal.Inc() }
func (m *Metrics) ConnectionRejected() { m.ConnectionsRejectedTotal.Inc() }
