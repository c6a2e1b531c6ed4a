// Package spawner periodically introduces new survivors into the world,
// mirroring the teacher's SensorGenerator: a ticker-driven goroutine with
// a stopCh for clean shutdown, re-armed with a fresh random interval after
// every tick instead of a fixed one (spec §4.4 calls for a uniformly
// random 2-4s gap between spawns, not a constant period).
package spawner

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/MirzaSakiroglu/Emergency-Drone-Coordination-System-EDCS/internal/telemetry"
	"github.com/MirzaSakiroglu/Emergency-Drone-Coordination-System-EDCS/internal/world"
)

// Spawner drives survivor creation for one World.
type Spawner struct {
	world  *world.World
	minGap time.Duration
	maxGap time.Duration
	logger *telemetry.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// New constructs a Spawner that places survivors at a uniformly random
// interval in [minGap, maxGap).
func New(w *world.World, minGap, maxGap time.Duration, logger *telemetry.Logger) *Spawner {
	return &Spawner{
		world:  w,
		minGap: minGap,
		maxGap: maxGap,
		logger: logger,
	}
}

// Start begins the background spawn loop. Calling Start twice is a no-op.
func (s *Spawner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	go s.loop(s.stopCh)
}

// Stop halts the spawn loop. Calling Stop twice, or before Start, is a
// no-op.
func (s *Spawner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stopCh)
}

func (s *Spawner) loop(stopCh chan struct{}) {
	for {
		timer := time.NewTimer(s.nextGap())
		select {
		case <-timer.C:
			s.spawnOne()
		case <-stopCh:
			timer.Stop()
			return
		}
	}
}

func (s *Spawner) nextGap() time.Duration {
	span := s.maxGap - s.minGap
	if span <= 0 {
		return s.minGap
	}
	return s.minGap + time.Duration(rand.Int63n(int64(span)))
}

// nextID synthesizes a "SURV-dddd" id from a 4-digit zero-padded random
// suffix, per spec §4.4. Duplicate ids are tolerated (the spec only
// requires stability, not uniqueness), but a fresh random draw per spawn
// makes collisions rare in practice.
func nextID() string {
	return fmt.Sprintf("SURV-%04d", rand.Intn(10000))
}

func (s *Spawner) spawnOne() {
	id := nextID()
	coord := s.world.RandomCoord()
	if err := s.world.SpawnSurvivor(id, coord, time.Now()); err != nil && s.logger != nil {
		s.logger.LogError("spawner", err)
	}
}
