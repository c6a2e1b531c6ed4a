package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_DroneRegisteredAndDisconnected(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.DroneRegistered()
	if got := testutil.ToFloat64(m.DronesRegistered); got != 1 {
		t.Errorf("DronesRegistered = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.DronesConnected); got != 1 {
		t.Errorf("DronesConnected = %v, want 1", got)
	}

	m.DroneDisconnected()
	if got := testutil.ToFloat64(m.DronesConnected); got != 0 {
		t.Errorf("DronesConnected after disconnect = %v, want 0", got)
	}

	m.DroneReconnected()
	if got := testutil.ToFloat64(m.DronesConnected); got != 1 {
		t.Errorf("DronesConnected after reconnect = %v, want 1", got)
	}
	// Reconnecting must not inflate the ever-registered count.
	if got := testutil.ToFloat64(m.DronesRegistered); got != 1 {
		t.Errorf("DronesRegistered after reconnect = %v, want 1", got)
	}
}

func TestMetrics_SurvivorAndMissionCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.SurvivorSpawned()
	m.SurvivorSpawned()
	m.SurvivorRescued()
	m.MissionDispatched()
	m.ProtocolError()
	m.ConnectionRejected()

	if got := testutil.ToFloat64(m.SurvivorsSpawnedTotal); got != 2 {
		t.Errorf("SurvivorsSpawnedTotal = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.SurvivorsRescuedTotal); got != 1 {
		t.Errorf("SurvivorsRescuedTotal = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.MissionsDispatchedTotal); got != 1 {
		t.Errorf("MissionsDispatchedTotal = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ProtocolErrorsTotal); got != 1 {
		t.Errorf("ProtocolErrorsTotal = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ConnectionsRejectedTotal); got != 1 {
		t.Errorf("ConnectionsRejectedTotal = %v, want 1", got)
	}
}
