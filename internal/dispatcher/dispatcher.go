// Package dispatcher implements the nearest-idle-drone matching loop of
// spec §4.3: a ticker-driven goroutine, in the teacher's SensorGenerator/
// DisseminationSystem idiom, that scans waiting survivors and idle drones
// each tick and hands out ASSIGN_MISSION frames.
package dispatcher

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MirzaSakiroglu/Emergency-Drone-Coordination-System-EDCS/internal/protocol"
	"github.com/MirzaSakiroglu/Emergency-Drone-Coordination-System-EDCS/internal/telemetry"
	"github.com/MirzaSakiroglu/Emergency-Drone-Coordination-System-EDCS/internal/world"
)

// errNoSession guards against assigning a mission to a drone whose
// session has gone away between the idle snapshot and the send attempt
// (e.g. it disconnected this instant); TryAssign reverts the drone to
// IDLE on this error, leaving the survivor for the next tick.
var errNoSession = errors.New("dispatcher: drone has no active session")

// Dispatcher runs the periodic matching tick against one World.
type Dispatcher struct {
	world    *world.World
	interval time.Duration
	// missionExpiry is advertised to the drone in each ASSIGN_MISSION; the
	// dispatcher itself does not currently reclaim expired missions.
	missionExpiry time.Duration
	metrics       *telemetry.Metrics
	logger        *telemetry.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// New constructs a Dispatcher that ticks every interval and stamps each
// ASSIGN_MISSION with an expiry deadline missionExpiry out.
func New(w *world.World, interval, missionExpiry time.Duration, metrics *telemetry.Metrics, logger *telemetry.Logger) *Dispatcher {
	return &Dispatcher{
		world:         w,
		interval:      interval,
		missionExpiry: missionExpiry,
		metrics:       metrics,
		logger:        logger,
	}
}

// Start begins the background dispatch loop. Calling Start twice is a
// no-op.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}
	d.running = true
	d.stopCh = make(chan struct{})
	go d.loop(d.stopCh)
}

// Stop halts the dispatch loop. Calling Stop twice, or before Start, is a
// no-op.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}
	d.running = false
	close(d.stopCh)
}

func (d *Dispatcher) loop(stopCh chan struct{}) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.tick()
		case <-stopCh:
			return
		}
	}
}

// tick implements spec §4.3: rank waiting survivors by discovery time,
// and for each one not already claimed by an outstanding mission, assign
// the Manhattan-nearest idle drone (lowest drone id breaking ties).
func (d *Dispatcher) tick() {
	start := time.Now()
	defer func() {
		if d.metrics != nil {
			d.metrics.DispatchTickDuration.Observe(time.Since(start).Seconds())
		}
	}()

	survivors := d.world.ActiveSurvivorsSnapshot()
	if len(survivors) == 0 {
		return
	}
	sort.Slice(survivors, func(i, j int) bool {
		return survivors[i].DiscoveryTime.Before(survivors[j].DiscoveryTime)
	})

	idle := d.world.IdleDronesSnapshot()

	for _, survivor := range survivors {
		if d.world.MissionOutstanding(survivor.ID) {
			continue
		}
		if len(idle) == 0 {
			break
		}

		best, bestIdx := nearestDrone(idle, survivor.Coord)
		if bestIdx < 0 {
			continue
		}

		missionID := survivor.ID
		target := survivor.Coord
		ok, err := d.world.TryAssign(best.ID, missionID, target, func(sess world.Writer) error {
			if sess == nil {
				return errNoSession
			}
			return sess.Send(&protocol.Envelope{
				Type:      protocol.TypeAssignMission,
				MissionID: missionID,
				Priority:  "high",
				Target:    &protocol.Location{X: target.X, Y: target.Y},
				Expiry:    time.Now().Add(d.missionExpiry).Unix(),
				Checksum:  uuid.NewString(),
			})
		})
		if err != nil {
			if d.logger != nil {
				d.logger.LogError("dispatcher", err)
			}
			continue
		}
		if ok {
			idle = removeDrone(idle, bestIdx)
			if d.logger != nil {
				d.logger.LogMissionAssigned(best.ID, missionID, target.X, target.Y)
			}
		}
	}
}

func nearestDrone(idle []world.Drone, target world.Coord) (world.Drone, int) {
	bestIdx := -1
	bestDist := 0
	var best world.Drone
	for i, dr := range idle {
		dist := manhattan(dr.Coord, target)
		if bestIdx < 0 || dist < bestDist || (dist == bestDist && dr.ID < best.ID) {
			best = dr
			bestDist = dist
			bestIdx = i
		}
	}
	return best, bestIdx
}

func manhattan(a, b world.Coord) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func removeDrone(drones []world.Drone, idx int) []world.Drone {
	return append(drones[:idx], drones[idx+1:]...)
}
