// Package telemetry carries the coordinator's ambient observability: a
// thin structured logger in the teacher's own idiom (a fixed keyword
// prefix per event kind, written through the stdlib log package) and a
// small set of Prometheus gauges/counters.
package telemetry

import (
	"fmt"
	"log"
	"os"
	"time"
)

// Logger wraps a stdlib *log.Logger the way the teacher's DroneLogger
// does: one keyword-tagged Printf per event kind, so operators can grep
// the coordinator's stdout for a single category.
type Logger struct {
	logger *log.Logger
}

// NewLogger creates a logger writing to stdout with a fixed prefix,
// mirroring logging.NewDroneLogger's log.New(os.Stdout, prefix, ...) call.
func NewLogger(component string) *Logger {
	return &Logger{
		logger: log.New(os.Stdout, fmt.Sprintf("[%s] ", component), log.LstdFlags|log.Lmicroseconds),
	}
}

func (l *Logger) LogSessionOpen(remote string) {
	l.logger.Printf("SESSION_OPEN: remote=%s opened_at=%d", remote, time.Now().UnixMilli())
}

func (l *Logger) LogSessionClose(remote string, droneID int) {
	l.logger.Printf("SESSION_CLOSE: remote=%s drone=D%d closed_at=%d", remote, droneID, time.Now().UnixMilli())
}

func (l *Logger) LogHandshake(droneID int, created bool) {
	l.logger.Printf("HANDSHAKE: drone=D%d new_record=%t handshaken_at=%d", droneID, created, time.Now().UnixMilli())
}

func (l *Logger) LogStatusUpdate(droneID int, x, y int, status string) {
	l.logger.Printf("STATUS_UPDATE: drone=D%d x=%d y=%d status=%s received_at=%d", droneID, x, y, status, time.Now().UnixMilli())
}

func (l *Logger) LogSurvivorSpawned(id string, x, y int) {
	l.logger.Printf("SURVIVOR_SPAWNED: id=%s x=%d y=%d spawned_at=%d", id, x, y, time.Now().UnixMilli())
}

func (l *Logger) LogSurvivorRescued(id string, x, y int) {
	l.logger.Printf("SURVIVOR_RESCUED: id=%s x=%d y=%d rescued_at=%d", id, x, y, time.Now().UnixMilli())
}

func (l *Logger) LogMissionAssigned(droneID int, missionID string, x, y int) {
	l.logger.Printf("MISSION_ASSIGNED: drone=D%d mission=%s target_x=%d target_y=%d assigned_at=%d",
		droneID, missionID, x, y, time.Now().UnixMilli())
}

func (l *Logger) LogDiscrepancy(droneID int, missionID string, survivorX, survivorY, droneX, droneY int) {
	l.logger.Printf("DISCREPANCY: drone=D%d mission=%s survivor=(%d,%d) drone_coord=(%d,%d) noted_at=%d",
		droneID, missionID, survivorX, survivorY, droneX, droneY, time.Now().UnixMilli())
}

func (l *Logger) LogAnomaly(context string, detail string) {
	l.logger.Printf("ANOMALY: context=%s detail=%s noted_at=%d", context, detail, time.Now().UnixMilli())
}

func (l *Logger) LogProtocolError(remote string, code int, message string) {
	l.logger.Printf("PROTOCOL_ERROR: remote=%s code=%d message=%q logged_at=%d", remote, code, message, time.Now().UnixMilli())
}

func (l *Logger) LogError(operation string, err error) {
	l.logger.Printf("ERROR: operation=%s error=%s occurred_at=%d", operation, err.Error(), time.Now().UnixMilli())
}

func (l *Logger) LogShutdown(component string) {
	l.logger.Printf("SHUTDOWN: component=%s stopped_at=%d", component, time.Now().UnixMilli())
}

func (l *Logger) Printf(format string, args ...interface{}) {
	l.logger.Printf(format, args...)
}
