// Package world implements the concurrent coordination-core model: the
// grid, the survivor/drone registries, the per-cell occupancy index, and
// the locking discipline that keeps them consistent under concurrent
// sessions, the dispatcher, and the spawner.
//
// Lock acquisition order (must never be taken in any other order, and must
// be released in reverse):
//
//	cells[y][x] -> active_survivors -> helped_survivors -> drones -> per-drone
package world

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/MirzaSakiroglu/Emergency-Drone-Coordination-System-EDCS/internal/telemetry"
)

var (
	ErrOutOfBounds  = errors.New("world: coordinate out of bounds")
	ErrUnknownDrone = errors.New("world: unknown drone id")
	ErrDroneNotIdle = errors.New("world: drone is not idle")
)

type cellEntry struct {
	mu  sync.Mutex
	ids []string // ids of active survivors occupying this cell, insertion order
}

type droneEntry struct {
	mu sync.Mutex
	d  Drone
}

// World is the aggregate described in spec §3. Every field it owns is
// reached only through its methods; nothing outside this package ever
// mutates a Survivor or Drone directly.
type World struct {
	width, height int

	cells [][]*cellEntry // cells[y][x]

	activeMu    sync.RWMutex
	active      map[string]*Survivor
	activeOrder []string // insertion order, for the dispatcher's scan

	helpedMu sync.RWMutex
	helped   map[string]*Survivor

	dronesMu sync.RWMutex
	drones   map[int]*droneEntry

	metrics *telemetry.Metrics
	logger  *telemetry.Logger
}

// New constructs an empty World of the given dimensions.
func New(width, height int, metrics *telemetry.Metrics, logger *telemetry.Logger) *World {
	cells := make([][]*cellEntry, height)
	for y := range cells {
		row := make([]*cellEntry, width)
		for x := range row {
			row[x] = &cellEntry{}
		}
		cells[y] = row
	}

	return &World{
		width:   width,
		height:  height,
		cells:   cells,
		active:  make(map[string]*Survivor),
		helped:  make(map[string]*Survivor),
		drones:  make(map[int]*droneEntry),
		metrics: metrics,
		logger:  logger,
	}
}

// Dimensions returns the immutable map size.
func (w *World) Dimensions() (width, height int) {
	return w.width, w.height
}

func (w *World) inBounds(c Coord) bool {
	return c.X >= 0 && c.X < w.width && c.Y >= 0 && c.Y < w.height
}

// RandomCoord returns a uniformly chosen in-bounds cell.
func (w *World) RandomCoord() Coord {
	return Coord{X: rand.Intn(w.width), Y: rand.Intn(w.height)}
}

// --- Survivors ---------------------------------------------------------

// SpawnSurvivor inserts a brand new WAITING survivor into both the active
// set and its cell's index. Duplicate ids are tolerated (spec §4.4); the
// caller is expected to prefer unique suffixes.
func (w *World) SpawnSurvivor(id string, coord Coord, now time.Time) error {
	if !w.inBounds(coord) {
		return ErrOutOfBounds
	}

	s := &Survivor{
		ID:            id,
		Coord:         coord,
		DiscoveryTime: now,
		Status:        SurvivorWaiting,
	}

	cell := w.cells[coord.Y][coord.X]
	cell.mu.Lock()
	cell.ids = append(cell.ids, id)
	cell.mu.Unlock()

	w.activeMu.Lock()
	w.active[id] = s
	w.activeOrder = append(w.activeOrder, id)
	w.activeMu.Unlock()

	if w.metrics != nil {
		w.metrics.SurvivorSpawned()
	}
	if w.logger != nil {
		w.logger.LogSurvivorSpawned(id, coord.X, coord.Y)
	}
	return nil
}

// ActiveSurvivorsSnapshot returns a stable-ordered copy of the WAITING
// survivors, for the dispatcher to scan without holding any lock while it
// works.
func (w *World) ActiveSurvivorsSnapshot() []Survivor {
	w.activeMu.RLock()
	defer w.activeMu.RUnlock()

	out := make([]Survivor, 0, len(w.activeOrder))
	for _, id := range w.activeOrder {
		if s, ok := w.active[id]; ok {
			out = append(out, *s)
		}
	}
	return out
}

// archiveSurvivor removes id from the active set and its cell index
// (if still present) and inserts a HELPED copy into the helped set. It is
// idempotent: if id is already gone from active, it is a no-op that
// returns false, matching the Design Notes' requirement that the two
// completion paths (cell-arrival and explicit MISSION_COMPLETE) be
// idempotent with each other.
//
// Caller must not hold the cell, active, or helped locks.
func (w *World) archiveSurvivor(id string, coord Coord, now time.Time) bool {
	w.activeMu.Lock()
	s, ok := w.active[id]
	if !ok {
		w.activeMu.Unlock()
		return false
	}
	delete(w.active, id)
	w.activeMu.Unlock()

	cell := w.cells[s.Coord.Y][s.Coord.X]
	cell.mu.Lock()
	cell.ids = removeID(cell.ids, id)
	cell.mu.Unlock()

	helpedCopy := *s
	helpedCopy.Status = SurvivorHelped
	helpedCopy.HelpedTime = now

	w.helpedMu.Lock()
	w.helped[id] = &helpedCopy
	w.helpedMu.Unlock()

	if w.metrics != nil {
		w.metrics.SurvivorRescued()
	}
	if w.logger != nil {
		w.logger.LogSurvivorRescued(id, coord.X, coord.Y)
	}
	return true
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// waitingSurvivorAtCell returns the lowest (lexicographic) survivor id
// currently occupying coord, per the "pick the one with the smallest id"
// tie-break rule for cell-arrival.
func (w *World) waitingSurvivorAtCell(coord Coord) (string, bool) {
	cell := w.cells[coord.Y][coord.X]
	cell.mu.Lock()
	ids := append([]string(nil), cell.ids...)
	cell.mu.Unlock()

	if len(ids) == 0 {
		return "", false
	}
	sort.Strings(ids)
	return ids[0], true
}

// --- Drones --------------------------------------------------------------

// RegisterDrone implements the handshake binding rule of spec §4.2: create
// the record on first contact at a random in-bounds cell, or rebind the
// session and clear DISCONNECTED on reconnect.
func (w *World) RegisterDrone(id int, sess Writer, now time.Time) Drone {
	w.dronesMu.Lock()
	entry, exists := w.drones[id]
	if !exists {
		entry = &droneEntry{d: Drone{
			ID:     id,
			Coord:  w.RandomCoord(),
			Target: Coord{},
			Status: DroneIdle,
		}}
		w.drones[id] = entry
	}
	w.dronesMu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()
	wasDisconnected := entry.d.Status == DroneDisconnected
	entry.d.session = sess
	entry.d.LastUpdate = now
	if wasDisconnected {
		entry.d.Status = DroneIdle
	}
	if w.metrics != nil {
		switch {
		case !exists:
			w.metrics.DroneRegistered()
		case wasDisconnected:
			w.metrics.DroneReconnected()
		}
	}
	return entry.d
}

func (w *World) lookupDrone(id int) (*droneEntry, bool) {
	w.dronesMu.RLock()
	defer w.dronesMu.RUnlock()
	entry, ok := w.drones[id]
	return entry, ok
}

// UpdateStatus applies a STATUS_UPDATE frame: the cell-arrival shortcut of
// spec §4.2 is evaluated against the new coord first (archiving the
// lowest-id waiting survivor there, if any), then the drone's coord/status/
// last-update are set together under its lock. It returns the id of any
// survivor it archived as a side effect (empty string if none).
func (w *World) UpdateStatus(droneID int, coord Coord, status DroneStatus, now time.Time) (rescuedID string, err error) {
	if !w.inBounds(coord) {
		return "", ErrOutOfBounds
	}

	entry, ok := w.lookupDrone(droneID)
	if !ok {
		return "", ErrUnknownDrone
	}

	survivorID, hasCandidate := w.waitingSurvivorAtCell(coord)

	var archived bool
	if hasCandidate {
		archived = w.archiveSurvivor(survivorID, coord, now)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.d.Coord = coord
	entry.d.LastUpdate = now
	if archived {
		entry.d.Status = DroneIdle
		entry.d.MissionID = ""
	} else {
		entry.d.Status = status
	}

	if archived {
		return survivorID, nil
	}
	return "", nil
}

// CompleteMission applies an explicit MISSION_COMPLETE frame. When success
// is true it performs the same archival as the cell-arrival shortcut,
// keyed by missionID rather than coordinate; a coordinate mismatch between
// the drone and the survivor is logged as a discrepancy but does not block
// archival, since the drone is authoritative (spec §4.2). The call is
// idempotent: completing an already-archived mission is a harmless no-op.
func (w *World) CompleteMission(droneID int, missionID string, success bool, droneCoord Coord, now time.Time) error {
	entry, ok := w.lookupDrone(droneID)
	if !ok {
		return ErrUnknownDrone
	}

	if !success {
		entry.mu.Lock()
		entry.d.Status = DroneIdle
		entry.d.MissionID = ""
		entry.mu.Unlock()
		return nil
	}

	w.activeMu.RLock()
	survivor, stillActive := w.active[missionID]
	w.activeMu.RUnlock()

	if stillActive && survivor.Coord != droneCoord && w.logger != nil {
		w.logger.LogDiscrepancy(droneID, missionID, survivor.Coord.X, survivor.Coord.Y, droneCoord.X, droneCoord.Y)
	}

	if stillActive {
		w.archiveSurvivor(missionID, survivor.Coord, now)
	}
	// If the survivor is no longer active (already archived via the
	// cell-arrival path, or unknown), treat as success: "not found" is a
	// no-op per the Design Notes.

	entry.mu.Lock()
	entry.d.Status = DroneIdle
	entry.d.MissionID = ""
	entry.mu.Unlock()
	return nil
}

// Heartbeat updates only LastUpdate for a HEARTBEAT_RESPONSE frame.
func (w *World) Heartbeat(droneID int, now time.Time) error {
	entry, ok := w.lookupDrone(droneID)
	if !ok {
		return ErrUnknownDrone
	}
	entry.mu.Lock()
	entry.d.LastUpdate = now
	entry.mu.Unlock()
	return nil
}

// Disconnect marks a drone DISCONNECTED while preserving its coord and id,
// called by the session on EOF/I/O error/close. Any outstanding mission is
// abandoned: MissionID is cleared so the drone doesn't come back IDLE with
// a stale mission id on reconnect (invariant 6).
func (w *World) Disconnect(droneID int) {
	entry, ok := w.lookupDrone(droneID)
	if !ok {
		return
	}
	entry.mu.Lock()
	entry.d.Status = DroneDisconnected
	entry.d.MissionID = ""
	entry.d.session = nil
	entry.mu.Unlock()
	if w.metrics != nil {
		w.metrics.DroneDisconnected()
	}
}

// IdleDronesSnapshot returns a copy of every drone currently IDLE.
func (w *World) IdleDronesSnapshot() []Drone {
	w.dronesMu.RLock()
	entries := make([]*droneEntry, 0, len(w.drones))
	for _, e := range w.drones {
		entries = append(entries, e)
	}
	w.dronesMu.RUnlock()

	out := make([]Drone, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if e.d.Status == DroneIdle {
			out = append(out, e.d)
		}
		e.mu.Unlock()
	}
	return out
}

// AssignFunc sends an ASSIGN_MISSION frame to a drone's current session.
// It is invoked while only the drone's own lock is held, never any
// world-wide lock, per spec §4.3/§5.
type AssignFunc func(sess Writer) error

// TryAssign implements the dispatcher's atomic hand-off: verify the drone
// is still IDLE, flip it to ON_MISSION with the given target/mission, and
// invoke send while holding only the per-drone lock. On send failure the
// drone is reverted to IDLE and the survivor is left for a later tick.
func (w *World) TryAssign(droneID int, missionID string, target Coord, send AssignFunc) (bool, error) {
	entry, ok := w.lookupDrone(droneID)
	if !ok {
		return false, ErrUnknownDrone
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.d.Status != DroneIdle {
		return false, ErrDroneNotIdle
	}

	entry.d.Status = DroneOnMission
	entry.d.Target = target
	entry.d.MissionID = missionID

	if err := send(entry.d.session); err != nil {
		entry.d.Status = DroneIdle
		entry.d.Target = Coord{}
		entry.d.MissionID = ""
		return false, err
	}
	if w.metrics != nil {
		w.metrics.MissionDispatched()
	}
	return true, nil
}

// MissionOutstanding reports whether any drone is currently ON_MISSION
// with the given mission id, so the dispatcher can skip survivors that
// already have a drone en route (spec §4.3 step 2).
func (w *World) MissionOutstanding(missionID string) bool {
	w.dronesMu.RLock()
	entries := make([]*droneEntry, 0, len(w.drones))
	for _, e := range w.drones {
		entries = append(entries, e)
	}
	w.dronesMu.RUnlock()

	for _, e := range entries {
		e.mu.Lock()
		match := e.d.Status == DroneOnMission && e.d.MissionID == missionID
		e.mu.Unlock()
		if match {
			return true
		}
	}
	return false
}

// DroneCount returns the number of registered (ever-connected) drones,
// regardless of status.
func (w *World) DroneCount() int {
	w.dronesMu.RLock()
	defer w.dronesMu.RUnlock()
	return len(w.drones)
}

func (w *World) String() string {
	return fmt.Sprintf("World{%dx%d, active=%d, helped=%d, drones=%d}",
		w.width, w.height, len(w.active), len(w.helped), len(w.drones))
}
