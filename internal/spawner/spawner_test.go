package spawner

import (
	"testing"
	"time"

	"github.com/MirzaSakiroglu/Emergency-Drone-Coordination-System-EDCS/internal/world"
)

func TestSpawner_ProducesSurvivorsWithinGap(t *testing.T) {
	w := world.New(20, 20, nil, nil)
	s := New(w, 5*time.Millisecond, 10*time.Millisecond, nil)

	s.Start()
	defer s.Stop()

	deadline := time.After(200 * time.Millisecond)
	for {
		if len(w.ActiveSurvivorsSnapshot()) > 0 {
			return
		}
		select {
		case <-deadline:
			t.Fatal("no survivor spawned within the deadline")
		case <-time.After(2 * time.Millisecond):
		}
	}
}

func TestSpawner_StartStopIdempotent(t *testing.T) {
	w := world.New(5, 5, nil, nil)
	s := New(w, time.Millisecond, 2*time.Millisecond, nil)
	s.Start()
	s.Start()
	s.Stop()
	s.Stop()
}

func TestNextGap_WithinBounds(t *testing.T) {
	s := New(nil, 2*time.Second, 4*time.Second, nil)
	for i := 0; i < 100; i++ {
		gap := s.nextGap()
		if gap < 2*time.Second || gap >= 4*time.Second {
			t.Fatalf("nextGap() = %v, want within [2s, 4s)", gap)
		}
	}
}
