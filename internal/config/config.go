package config

import "time"

// CoordinatorConfig is the centralized configuration for one coordinator
// process, in the teacher's DroneConfig layout.
type CoordinatorConfig struct {
	// Network
	TCPPort   int    `json:"tcp_port"`   // drone wire protocol listener
	DebugPort int    `json:"debug_port"` // /metrics, /healthz, /debug/snapshot
	BindAddr  string `json:"bind_addr"`

	// World
	GridWidth  int `json:"grid_width"`
	GridHeight int `json:"grid_height"`

	// Survivor spawning (spec §4.4: uniform random gap in [MinSpawnGap, MaxSpawnGap))
	MinSpawnGap time.Duration `json:"min_spawn_gap"`
	MaxSpawnGap time.Duration `json:"max_spawn_gap"`

	// Dispatch
	DispatchInterval time.Duration `json:"dispatch_interval"`
	MissionExpiry    time.Duration `json:"mission_expiry"`

	// Session
	ReadTimeout          time.Duration `json:"read_timeout"`
	StatusUpdateInterval time.Duration `json:"status_update_interval"`
	HeartbeatInterval    time.Duration `json:"heartbeat_interval"`
	MaxFrameSize         int           `json:"max_frame_size"`

	// Admission control (spec §4.5)
	MaxConnections int     `json:"max_connections"`
	AdmissionRate  float64 `json:"admission_rate"` // new connections/sec sustained
	AdmissionBurst int     `json:"admission_burst"`
}

// DefaultConfig mirrors config.DefaultConfig's role: the values a
// coordinator runs with when no flag overrides them.
func DefaultConfig() *CoordinatorConfig {
	return &CoordinatorConfig{
		TCPPort:              8080,
		DebugPort:            9090,
		BindAddr:             "0.0.0.0",
		GridWidth:            40,
		GridHeight:           30,
		MinSpawnGap:          2 * time.Second,
		MaxSpawnGap:          4 * time.Second,
		DispatchInterval:     1 * time.Second,
		MissionExpiry:        3600 * time.Second,
		ReadTimeout:          5 * time.Second,
		StatusUpdateInterval: 2 * time.Second,
		HeartbeatInterval:    5 * time.Second,
		MaxFrameSize:         8 * 1024,
		MaxConnections:       10,
		AdmissionRate:        50,
		AdmissionBurst:       20,
	}
}
