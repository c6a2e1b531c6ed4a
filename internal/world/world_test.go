package world

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MirzaSakiroglu/Emergency-Drone-Coordination-System-EDCS/internal/protocol"
)

type fakeWriter struct {
	mu  sync.Mutex
	got []*protocol.Envelope
	err error
}

func (f *fakeWriter) Send(env *protocol.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.got = append(f.got, env)
	return nil
}

func newTestWorld(w, h int) *World {
	return New(w, h, nil, nil)
}

func TestSpawnSurvivor_OutOfBounds(t *testing.T) {
	w := newTestWorld(10, 10)
	if err := w.SpawnSurvivor("S1", Coord{X: 10, Y: 0}, time.Now()); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("SpawnSurvivor() error = %v, want ErrOutOfBounds", err)
	}
}

// TestCellIndexConsistency exercises P1: every active survivor's id
// appears in its cell's list, and vice versa.
func TestCellIndexConsistency(t *testing.T) {
	w := newTestWorld(10, 10)
	coord := Coord{X: 2, Y: 3}
	if err := w.SpawnSurvivor("S1", coord, time.Now()); err != nil {
		t.Fatalf("SpawnSurvivor() error: %v", err)
	}

	id, ok := w.waitingSurvivorAtCell(coord)
	if !ok || id != "S1" {
		t.Fatalf("waitingSurvivorAtCell() = (%q, %v), want (S1, true)", id, ok)
	}

	active := w.ActiveSurvivorsSnapshot()
	if len(active) != 1 || active[0].ID != "S1" {
		t.Fatalf("ActiveSurvivorsSnapshot() = %+v, want one entry S1", active)
	}
}

// TestAtMostOnceRescue exercises P2: a survivor never sits in both active
// and helped sets, and once helped it does not return to active.
func TestAtMostOnceRescue(t *testing.T) {
	w := newTestWorld(10, 10)
	coord := Coord{X: 1, Y: 1}
	now := time.Now()
	if err := w.SpawnSurvivor("S1", coord, now); err != nil {
		t.Fatalf("SpawnSurvivor() error: %v", err)
	}

	writer := &fakeWriter{}
	w.RegisterDrone(1, writer, now)

	rescued, err := w.UpdateStatus(1, coord, DroneIdle, now)
	if err != nil {
		t.Fatalf("UpdateStatus() error: %v", err)
	}
	if rescued != "S1" {
		t.Fatalf("UpdateStatus() rescuedID = %q, want S1", rescued)
	}

	if active := w.ActiveSurvivorsSnapshot(); len(active) != 0 {
		t.Fatalf("survivor still active after rescue: %+v", active)
	}

	// A second arrival at the same cell must not re-rescue S1 (idempotent).
	rescued2, err := w.UpdateStatus(1, coord, DroneIdle, now)
	if err != nil {
		t.Fatalf("UpdateStatus() second call error: %v", err)
	}
	if rescued2 != "" {
		t.Fatalf("UpdateStatus() rescued an already-helped survivor: %q", rescued2)
	}
}

// TestUniqueAssignment exercises P3: at most one ON_MISSION drone may
// carry a given mission id.
func TestUniqueAssignment(t *testing.T) {
	w := newTestWorld(10, 10)
	now := time.Now()
	w1, w2 := &fakeWriter{}, &fakeWriter{}
	w.RegisterDrone(1, w1, now)
	w.RegisterDrone(2, w2, now)

	target := Coord{X: 5, Y: 5}
	send := func(sess Writer) error {
		return sess.Send(&protocol.Envelope{Type: protocol.TypeAssignMission, MissionID: "S1"})
	}

	ok1, err := w.TryAssign(1, "S1", target, send)
	if err != nil || !ok1 {
		t.Fatalf("TryAssign(1) = (%v, %v), want (true, nil)", ok1, err)
	}

	if w.MissionOutstanding("S1") != true {
		t.Fatal("MissionOutstanding(S1) = false after a successful TryAssign")
	}

	// Drone 1 is no longer IDLE, so a second TryAssign targeting it fails.
	ok2, err := w.TryAssign(1, "S1", target, send)
	if err != ErrDroneNotIdle || ok2 {
		t.Fatalf("TryAssign(1) again = (%v, %v), want (false, ErrDroneNotIdle)", ok2, err)
	}
}

// TestBounds exercises P4: every stored coordinate stays within the grid.
func TestBounds(t *testing.T) {
	w := newTestWorld(5, 5)
	if err := w.SpawnSurvivor("S1", Coord{X: -1, Y: 0}, time.Now()); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("SpawnSurvivor() error = %v, want ErrOutOfBounds", err)
	}
	if _, err := w.UpdateStatus(1, Coord{X: 5, Y: 5}, DroneIdle, time.Now()); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("UpdateStatus() error = %v, want ErrOutOfBounds", err)
	}
}

func TestRegisterDrone_ReconnectClearsDisconnected(t *testing.T) {
	w := newTestWorld(10, 10)
	now := time.Now()
	writer := &fakeWriter{}
	d := w.RegisterDrone(7, writer, now)
	if d.Status != DroneIdle {
		t.Fatalf("new drone status = %v, want IDLE", d.Status)
	}

	w.Disconnect(7)

	d2 := w.RegisterDrone(7, writer, now.Add(time.Second))
	if d2.Status != DroneIdle {
		t.Fatalf("reconnected drone status = %v, want IDLE", d2.Status)
	}
	if d2.Coord != d.Coord {
		t.Fatalf("reconnect changed coord: got %+v, want %+v", d2.Coord, d.Coord)
	}
}

// TestDisconnect_ClearsMissionID exercises invariant 6: a drone that
// disconnects mid-mission and then reconnects comes back IDLE and must
// carry no outstanding mission_id.
func TestDisconnect_ClearsMissionID(t *testing.T) {
	w := newTestWorld(10, 10)
	now := time.Now()
	writer := &fakeWriter{}
	w.RegisterDrone(1, writer, now)

	ok, err := w.TryAssign(1, "S1", Coord{X: 2, Y: 2}, func(sess Writer) error {
		return sess.Send(&protocol.Envelope{Type: protocol.TypeAssignMission, MissionID: "S1"})
	})
	if err != nil || !ok {
		t.Fatalf("TryAssign() = (%v, %v), want (true, nil)", ok, err)
	}

	w.Disconnect(1)

	d := w.RegisterDrone(1, writer, now.Add(time.Second))
	if d.Status != DroneIdle {
		t.Fatalf("reconnected drone status = %v, want IDLE", d.Status)
	}
	if d.MissionID != "" {
		t.Fatalf("reconnected drone MissionID = %q, want empty (invariant 6)", d.MissionID)
	}
}

func TestCompleteMission_IdempotentAfterCellArrival(t *testing.T) {
	w := newTestWorld(10, 10)
	now := time.Now()
	coord := Coord{X: 3, Y: 3}
	if err := w.SpawnSurvivor("S1", coord, now); err != nil {
		t.Fatalf("SpawnSurvivor() error: %v", err)
	}
	writer := &fakeWriter{}
	w.RegisterDrone(1, writer, now)

	rescued, err := w.UpdateStatus(1, coord, DroneIdle, now)
	if err != nil || rescued != "S1" {
		t.Fatalf("UpdateStatus() = (%q, %v), want (S1, nil)", rescued, err)
	}

	// The drone then sends an explicit MISSION_COMPLETE for the same
	// mission; this must be a harmless no-op, not a double-count.
	if err := w.CompleteMission(1, "S1", true, coord, now); err != nil {
		t.Fatalf("CompleteMission() error: %v", err)
	}
}

func TestUpdateStatus_UnknownDrone(t *testing.T) {
	w := newTestWorld(10, 10)
	if _, err := w.UpdateStatus(99, Coord{}, DroneIdle, time.Now()); !errors.Is(err, ErrUnknownDrone) {
		t.Fatalf("UpdateStatus() error = %v, want ErrUnknownDrone", err)
	}
}

func TestTryAssign_RevertsOnSendFailure(t *testing.T) {
	w := newTestWorld(10, 10)
	now := time.Now()
	writer := &fakeWriter{err: errors.New("write failed")}
	w.RegisterDrone(1, writer, now)

	ok, err := w.TryAssign(1, "S1", Coord{X: 1, Y: 1}, func(sess Writer) error {
		return sess.Send(&protocol.Envelope{Type: protocol.TypeAssignMission})
	})
	if ok || err == nil {
		t.Fatalf("TryAssign() = (%v, %v), want (false, error)", ok, err)
	}

	idle := w.IdleDronesSnapshot()
	if len(idle) != 1 || idle[0].Status != DroneIdle {
		t.Fatalf("drone not reverted to IDLE after send failure: %+v", idle)
	}
}
