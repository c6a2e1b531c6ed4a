// Package session implements the per-connection drone handler of spec
// §4.2: the AWAIT_HANDSHAKE -> REGISTERED -> CLOSED state machine and the
// inbound-frame dispatch that mutates the world model.
package session

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MirzaSakiroglu/Emergency-Drone-Coordination-System-EDCS/internal/protocol"
	"github.com/MirzaSakiroglu/Emergency-Drone-Coordination-System-EDCS/internal/telemetry"
	"github.com/MirzaSakiroglu/Emergency-Drone-Coordination-System-EDCS/internal/world"
)

// state is the session's position in the spec §4.2 state machine.
type state int

const (
	stateAwaitHandshake state = iota
	stateRegistered
	stateClosed
)

// Config carries the tunables a session needs; pulled out of world so
// tests can construct a session without a full coordinator config.
type Config struct {
	MaxFrameSize         int
	ReadTimeout          time.Duration
	StatusUpdateInterval time.Duration
	HeartbeatInterval    time.Duration
}

// DefaultConfig mirrors spec §5's recommended 5s receive timeout.
func DefaultConfig() Config {
	return Config{
		MaxFrameSize:         protocol.DefaultMaxFrameSize,
		ReadTimeout:          5 * time.Second,
		StatusUpdateInterval: 2 * time.Second,
		HeartbeatInterval:    5 * time.Second,
	}
}

// Session is one TCP connection's lifetime, from accept to close.
type Session struct {
	conn    net.Conn
	decoder *protocol.Decoder
	cfg     Config
	world   *world.World
	logger  *telemetry.Logger
	metrics *telemetry.Metrics

	writeMu sync.Mutex // serializes writes onto the same socket

	state     state
	droneID   int
	sessionID string
}

// New wraps an accepted connection. The session owns conn and closes it
// when Run returns, or as soon as Run's stop channel is closed.
func New(conn net.Conn, cfg Config, w *world.World, logger *telemetry.Logger, metrics *telemetry.Metrics) *Session {
	return &Session{
		conn:    conn,
		decoder: protocol.NewDecoder(conn, cfg.MaxFrameSize),
		cfg:     cfg,
		world:   w,
		logger:  logger,
		metrics: metrics,
		state:   stateAwaitHandshake,
	}
}

// Send implements world.Writer: it serializes env and writes it to the
// socket under a write-side mutex, so the dispatcher and the session's own
// reply path never interleave partial frames.
func (s *Session) Send(env *protocol.Envelope) error {
	data, err := protocol.Encode(env)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err = s.conn.Write(data)
	return err
}

func (s *Session) sendError(code int, message string) error {
	if s.metrics != nil {
		s.metrics.ProtocolError()
	}
	if s.logger != nil {
		s.logger.LogProtocolError(s.conn.RemoteAddr().String(), code, message)
	}
	return s.Send(&protocol.Envelope{Type: protocol.TypeError, Code: code, Message: message})
}

// Run drives the session until the connection closes, a fatal framing
// error occurs, or stop is closed. It always marks the bound drone
// DISCONNECTED and closes the socket before returning (spec §4.2
// CLOSED state).
func (s *Session) Run(stop <-chan struct{}) {
	remote := s.conn.RemoteAddr().String()
	if s.logger != nil {
		s.logger.LogSessionOpen(remote)
	}
	if s.metrics != nil {
		s.metrics.SessionOpened()
	}

	defer s.close()

	go func() {
		<-stop
		s.conn.Close()
	}()

	for {
		if s.cfg.ReadTimeout > 0 {
			s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		}

		env, err := s.decoder.ReadEnvelope()
		if err != nil {
			if protoErr, ok := err.(*protocol.ProtocolError); ok {
				// Malformed JSON: non-fatal per spec §4.1, reply and
				// keep the session open.
				s.sendError(protoErr.Code, protoErr.Message)
				continue
			}
			// EOF, timeout against a closed/idle peer, ErrFrameTooLarge,
			// or any other I/O error: all are fatal to the session
			// (spec §7 framing/I-O errors).
			return
		}

		if s.state == stateClosed {
			return
		}

		s.handle(env)
	}
}

func (s *Session) handle(env *protocol.Envelope) {
	switch s.state {
	case stateAwaitHandshake:
		s.handleAwaitHandshake(env)
	case stateRegistered:
		s.handleRegistered(env)
	}
}

func (s *Session) handleAwaitHandshake(env *protocol.Envelope) {
	if env.Type != protocol.TypeHandshake {
		s.sendError(400, "expected HANDSHAKE")
		return
	}
	if err := env.Validate(); err != nil {
		pe := err.(*protocol.ProtocolError)
		s.sendError(pe.Code, pe.Message)
		s.state = stateClosed
		return
	}

	id, err := parseDroneID(env.DroneID)
	if err != nil {
		s.sendError(400, err.Error())
		s.state = stateClosed
		return
	}

	now := time.Now()
	before := s.world.DroneCount()
	s.world.RegisterDrone(id, s, now)
	created := s.world.DroneCount() > before

	s.droneID = id
	s.sessionID = uuid.NewString()
	s.state = stateRegistered

	if s.logger != nil {
		s.logger.LogHandshake(id, created)
	}

	s.Send(&protocol.Envelope{
		Type:      protocol.TypeHandshakeAck,
		SessionID: s.sessionID,
		Config: &protocol.AckConfig{
			StatusUpdateInterval: int(s.cfg.StatusUpdateInterval.Milliseconds()),
			HeartbeatInterval:    int(s.cfg.HeartbeatInterval.Milliseconds()),
		},
	})
}

func (s *Session) handleRegistered(env *protocol.Envelope) {
	switch env.Type {
	case protocol.TypeStatusUpdate:
		s.handleStatusUpdate(env)
	case protocol.TypeMissionComplete:
		s.handleMissionComplete(env)
	case protocol.TypeHeartbeatResponse:
		s.handleHeartbeatResponse(env)
	default:
		s.sendError(400, fmt.Sprintf("unexpected frame type %q", env.Type))
	}
}

func (s *Session) handleStatusUpdate(env *protocol.Envelope) {
	if err := env.Validate(); err != nil {
		pe := err.(*protocol.ProtocolError)
		s.sendError(pe.Code, pe.Message)
		return
	}

	coord := world.Coord{X: env.Location.X, Y: env.Location.Y}
	status := mapDroneStatus(env.Status)
	now := time.Now()

	if s.logger != nil {
		s.logger.LogStatusUpdate(s.droneID, coord.X, coord.Y, env.Status)
	}

	rescuedID, err := s.world.UpdateStatus(s.droneID, coord, status, now)
	if err != nil {
		if err == world.ErrOutOfBounds {
			s.sendError(400, "location out of bounds")
			return
		}
		if err == world.ErrUnknownDrone {
			if s.logger != nil {
				s.logger.LogAnomaly("status_update", "STATUS_UPDATE before HANDSHAKE")
			}
			s.sendError(400, "unknown drone")
			return
		}
		return
	}

	if rescuedID != "" {
		s.Send(&protocol.Envelope{
			Type:      protocol.TypeMissionComplete,
			DroneID:   env.DroneID,
			MissionID: rescuedID,
			Timestamp: now.Unix(),
			Success:   true,
		})
	}
}

func (s *Session) handleMissionComplete(env *protocol.Envelope) {
	if err := env.Validate(); err != nil {
		pe := err.(*protocol.ProtocolError)
		s.sendError(pe.Code, pe.Message)
		return
	}

	now := time.Now()
	droneCoord := world.Coord{}

	// Best-effort: a well-behaved drone will have sent its coord via
	// STATUS_UPDATE already; MISSION_COMPLETE itself has no location
	// field in the wire schema, so we use the world's last-known coord
	// for the discrepancy check rather than failing the request.
	for _, d := range s.world.Snapshot().Drones {
		if d.ID == s.droneID {
			droneCoord = d.Coord
			break
		}
	}

	if err := s.world.CompleteMission(s.droneID, env.MissionID, env.Success, droneCoord, now); err != nil {
		if err == world.ErrUnknownDrone && s.logger != nil {
			s.logger.LogAnomaly("mission_complete", "unknown drone id "+env.DroneID)
		}
		// "Unknown mission id" is reached inside CompleteMission as a
		// harmless no-op per the Design Notes; nothing to send back.
	}
}

func (s *Session) handleHeartbeatResponse(env *protocol.Envelope) {
	if err := env.Validate(); err != nil {
		pe := err.(*protocol.ProtocolError)
		s.sendError(pe.Code, pe.Message)
		return
	}
	if err := s.world.Heartbeat(s.droneID, time.Now()); err != nil && err == world.ErrUnknownDrone && s.logger != nil {
		s.logger.LogAnomaly("heartbeat", "unknown drone id "+env.DroneID)
	}
}

func (s *Session) close() {
	s.state = stateClosed
	if s.droneID != 0 {
		s.world.Disconnect(s.droneID)
	}
	s.conn.Close()
	if s.metrics != nil {
		s.metrics.SessionClosed()
	}
	if s.logger != nil {
		s.logger.LogSessionClose(s.conn.RemoteAddr().String(), s.droneID)
	}
}

func mapDroneStatus(wire string) world.DroneStatus {
	switch wire {
	case "busy":
		return world.DroneOnMission
	case "idle":
		return world.DroneIdle
	default:
		// "charging" is reserved (spec §4.2); treated as idle for now,
		// since no charging-specific state exists in the data model.
		return world.DroneIdle
	}
}

// parseDroneID parses the wire format "D<int>" into its numeric id.
func parseDroneID(wire string) (int, error) {
	if !strings.HasPrefix(wire, "D") {
		return 0, fmt.Errorf("invalid drone_id format %q", wire)
	}
	n, err := strconv.Atoi(strings.TrimPrefix(wire, "D"))
	if err != nil {
		return 0, fmt.Errorf("invalid drone_id format %q", wire)
	}
	return n, nil
}
