// Package protocol implements the line-delimited JSON wire format of
// spec §4.1: typed frames, a bounded per-connection decoder, and an
// encoder that appends the LF terminator.
package protocol

// Type is the frame discriminator carried by every message.
type Type string

const (
	TypeHandshake         Type = "HANDSHAKE"
	TypeHandshakeAck      Type = "HANDSHAKE_ACK"
	TypeStatusUpdate      Type = "STATUS_UPDATE"
	TypeAssignMission     Type = "ASSIGN_MISSION"
	TypeMissionComplete   Type = "MISSION_COMPLETE"
	TypeHeartbeat         Type = "HEARTBEAT"
	TypeHeartbeatResponse Type = "HEARTBEAT_RESPONSE"
	TypeError             Type = "ERROR"
)

// Location mirrors the {x,y} object embedded in several frames.
type Location struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Envelope is the outer shape every frame shares: a type tag plus
// whatever fields that type requires, flattened into the same JSON
// object (the wire format has no separate "payload" wrapper).
type Envelope struct {
	Type Type `json:"type"`

	// HANDSHAKE (C->S)
	DroneID      string                 `json:"drone_id,omitempty"`
	Capabilities map[string]interface{} `json:"capabilities,omitempty"`

	// HANDSHAKE_ACK (S->C)
	SessionID string     `json:"session_id,omitempty"`
	Config    *AckConfig `json:"config,omitempty"`

	// STATUS_UPDATE (C->S)
	Timestamp int64     `json:"timestamp,omitempty"`
	Location  *Location `json:"location,omitempty"`
	Status    string    `json:"status,omitempty"`
	Battery   float64   `json:"battery,omitempty"`
	Speed     float64   `json:"speed,omitempty"`

	// ASSIGN_MISSION (S->C)
	MissionID string    `json:"mission_id,omitempty"`
	Priority  string    `json:"priority,omitempty"`
	Target    *Location `json:"target,omitempty"`
	Expiry    int64     `json:"expiry,omitempty"`
	Checksum  string    `json:"checksum,omitempty"`

	// MISSION_COMPLETE (C->S)
	Success bool   `json:"success,omitempty"`
	Details string `json:"details,omitempty"`

	// ERROR (either direction)
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// AckConfig is the config object nested in HANDSHAKE_ACK.
type AckConfig struct {
	StatusUpdateInterval int `json:"status_update_interval"`
	HeartbeatInterval    int `json:"heartbeat_interval"`
}

// ProtocolError is returned by Validate when a frame is missing a
// required field or has an unknown type, and by Decoder.ReadEnvelope for
// unparsable JSON; the session maps it straight to an ERROR 400 frame
// (spec §4.1/§7).
type ProtocolError struct {
	Code    int
	Message string
}

func (e *ProtocolError) Error() string { return e.Message }

func newProtocolError(format string) *ProtocolError {
	return &ProtocolError{Code: 400, Message: format}
}

// Validate checks that e carries every field its Type requires. It does
// not validate coordinate bounds; that is the world's job.
func (e *Envelope) Validate() error {
	switch e.Type {
	case TypeHandshake:
		if e.DroneID == "" {
			return newProtocolError("HANDSHAKE requires drone_id")
		}
		if e.Capabilities == nil {
			return newProtocolError("HANDSHAKE requires capabilities")
		}
	case TypeStatusUpdate:
		if e.DroneID == "" {
			return newProtocolError("STATUS_UPDATE requires drone_id")
		}
		if e.Location == nil {
			return newProtocolError("STATUS_UPDATE requires location")
		}
		if e.Status != "idle" && e.Status != "busy" && e.Status != "charging" {
			return newProtocolError("STATUS_UPDATE requires a valid status")
		}
	case TypeMissionComplete:
		if e.DroneID == "" {
			return newProtocolError("MISSION_COMPLETE requires drone_id")
		}
		if e.MissionID == "" {
			return newProtocolError("MISSION_COMPLETE requires mission_id")
		}
	case TypeHeartbeatResponse:
		if e.DroneID == "" {
			return newProtocolError("HEARTBEAT_RESPONSE requires drone_id")
		}
	case TypeHandshakeAck, TypeAssignMission, TypeHeartbeat, TypeError:
		// server->client or bidirectional frames are not validated on
		// receipt by this side; nothing to check here.
	default:
		return newProtocolError("unknown frame type")
	}
	return nil
}
