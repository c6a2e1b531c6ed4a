package dispatcher

import (
	"sync"
	"testing"
	"time"

	"github.com/MirzaSakiroglu/Emergency-Drone-Coordination-System-EDCS/internal/protocol"
	"github.com/MirzaSakiroglu/Emergency-Drone-Coordination-System-EDCS/internal/world"
)

type recordingWriter struct {
	mu  sync.Mutex
	got []*protocol.Envelope
}

func (r *recordingWriter) Send(env *protocol.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, env)
	return nil
}

func (r *recordingWriter) missions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.got))
	for _, e := range r.got {
		if e.Type == protocol.TypeAssignMission {
			out = append(out, e.MissionID)
		}
	}
	return out
}

// TestNearestDrone exercises P6: the drone minimizing Manhattan distance
// is selected, with ties broken by lowest id.
func TestNearestDrone(t *testing.T) {
	target := world.Coord{X: 5, Y: 5}
	idle := []world.Drone{
		{ID: 3, Coord: world.Coord{X: 0, Y: 0}},  // distance 10
		{ID: 2, Coord: world.Coord{X: 4, Y: 4}},  // distance 2
		{ID: 1, Coord: world.Coord{X: 6, Y: 6}},  // distance 2, lower id ties with 2
	}

	best, idx := nearestDrone(idle, target)
	if best.ID != 1 || idx != 2 {
		t.Fatalf("nearestDrone() = (id=%d, idx=%d), want (id=1, idx=2)", best.ID, idx)
	}
}

func TestTick_AssignsNearestIdleDrone(t *testing.T) {
	w := world.New(10, 10, nil, nil)
	now := time.Now()

	far := &recordingWriter{}
	near := &recordingWriter{}
	w.RegisterDrone(1, far, now)
	w.RegisterDrone(2, near, now)

	// Force deterministic coordinates via a STATUS_UPDATE from each.
	w.UpdateStatus(1, world.Coord{X: 0, Y: 0}, world.DroneIdle, now)
	w.UpdateStatus(2, world.Coord{X: 4, Y: 4}, world.DroneIdle, now)

	if err := w.SpawnSurvivor("S1", world.Coord{X: 5, Y: 5}, now); err != nil {
		t.Fatalf("SpawnSurvivor() error: %v", err)
	}

	d := New(w, time.Hour, 30*time.Second, nil, nil)
	d.tick()

	if len(near.missions()) != 1 {
		t.Fatalf("nearer drone did not receive a mission: %+v", near.got)
	}
	if len(far.missions()) != 0 {
		t.Fatalf("farther drone unexpectedly received a mission: %+v", far.got)
	}
}

func TestTick_SkipsOutstandingMission(t *testing.T) {
	w := world.New(10, 10, nil, nil)
	now := time.Now()
	writer := &recordingWriter{}
	w.RegisterDrone(1, writer, now)

	if err := w.SpawnSurvivor("S1", world.Coord{X: 1, Y: 1}, now); err != nil {
		t.Fatalf("SpawnSurvivor() error: %v", err)
	}

	d := New(w, time.Hour, 30*time.Second, nil, nil)
	d.tick()
	if len(writer.missions()) != 1 {
		t.Fatalf("expected exactly one mission assigned on first tick, got %+v", writer.got)
	}

	// A second tick must not re-dispatch S1: it's already outstanding on
	// drone 1 and no other idle drone exists.
	d.tick()
	if len(writer.missions()) != 1 {
		t.Fatalf("second tick re-dispatched an outstanding mission: %+v", writer.got)
	}
}

func TestStartStop_Idempotent(t *testing.T) {
	w := world.New(5, 5, nil, nil)
	d := New(w, time.Millisecond, 30*time.Second, nil, nil)
	d.Start()
	d.Start() // no-op, must not panic or double-start
	time.Sleep(5 * time.Millisecond)
	d.Stop()
	d.Stop() // no-op, must not panic on double-close
}
