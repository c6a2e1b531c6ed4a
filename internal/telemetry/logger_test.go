package telemetry

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"
)

func newTestLogger() (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Logger{logger: log.New(&buf, "", 0)}, &buf
}

func TestLogger_TagsEachEventKind(t *testing.T) {
	l, buf := newTestLogger()

	l.LogSessionOpen("127.0.0.1:1234")
	l.LogHandshake(1, true)
	l.LogStatusUpdate(1, 2, 3, "idle")
	l.LogSurvivorSpawned("S1", 1, 1)
	l.LogSurvivorRescued("S1", 1, 1)
	l.LogMissionAssigned(1, "S1", 1, 1)
	l.LogDiscrepancy(1, "S1", 1, 1, 2, 2)
	l.LogAnomaly("status_update", "test")
	l.LogProtocolError("127.0.0.1:1234", 400, "bad frame")
	l.LogError("dispatcher", errors.New("boom"))
	l.LogShutdown("acceptor")
	l.LogSessionClose("127.0.0.1:1234", 1)

	out := buf.String()
	for _, tag := range []string{
		"SESSION_OPEN", "HANDSHAKE", "STATUS_UPDATE", "SURVIVOR_SPAWNED",
		"SURVIVOR_RESCUED", "MISSION_ASSIGNED", "DISCREPANCY", "ANOMALY",
		"PROTOCOL_ERROR", "ERROR", "SHUTDOWN", "SESSION_CLOSE",
	} {
		if !strings.Contains(out, tag) {
			t.Errorf("log output missing tag %q:\n%s", tag, out)
		}
	}
}
