package world

import (
	"time"

	"github.com/MirzaSakiroglu/Emergency-Drone-Coordination-System-EDCS/internal/protocol"
)

// Status values for survivors.
type SurvivorStatus string

const (
	SurvivorWaiting SurvivorStatus = "WAITING"
	SurvivorHelped  SurvivorStatus = "HELPED"
)

// Status values for drones.
type DroneStatus string

const (
	DroneIdle         DroneStatus = "IDLE"
	DroneOnMission    DroneStatus = "ON_MISSION"
	DroneDisconnected DroneStatus = "DISCONNECTED"
)

// Coord is an integer grid cell, always validated against the map bounds
// before being stored.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Survivor is immutable except for the WAITING->HELPED transition (and the
// corresponding HelpedTime field). The World exclusively owns Survivor
// records; callers only ever see copies returned by its methods.
type Survivor struct {
	ID            string
	Coord         Coord
	DiscoveryTime time.Time
	Status        SurvivorStatus
	HelpedTime    time.Time
}

// Writer is the minimal interface a session exposes to the rest of the
// world so the dispatcher can push frames without depending on the
// session package (avoids an import cycle and keeps the world package
// free of any wire-format knowledge).
type Writer interface {
	// Send serializes and writes a frame to the drone. Implementations
	// must not block under any world-wide lock; callers hold at most
	// the per-drone lock while calling this.
	Send(env *protocol.Envelope) error
}

// Drone persists across reconnects; only its Session and transient status
// fields change on rebind. The World owns the record; sessions hold only
// the drone ID as a non-owning reference.
type Drone struct {
	ID           int
	Coord        Coord
	Target       Coord
	Status       DroneStatus
	MissionID    string
	Capabilities map[string]interface{}
	LastUpdate   time.Time

	session Writer
}
