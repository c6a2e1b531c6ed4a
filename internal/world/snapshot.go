package world

// DroneView and SurvivorView are the read-only tuples the renderer
// consumes (spec §4.6). They are plain values: independent of any further
// world mutation once returned.
type DroneView struct {
	ID     int         `json:"id"`
	Coord  Coord       `json:"coord"`
	Target Coord       `json:"target"`
	Status DroneStatus `json:"status"`
}

type SurvivorView struct {
	ID     string         `json:"id"`
	Coord  Coord          `json:"coord"`
	Status SurvivorStatus `json:"status"`
}

// Snapshot is a point-in-time, lock-free copy of the world for an external
// consumer such as a renderer.
type Snapshot struct {
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	Drones    []DroneView    `json:"drones"`
	Survivors []SurvivorView `json:"survivors"`
}

// Snapshot copies drones and survivors (both active and helped) under
// their respective locks, one collection at a time, and returns a value
// that is safe to read without holding any lock.
func (w *World) Snapshot() Snapshot {
	w.dronesMu.RLock()
	entries := make([]*droneEntry, 0, len(w.drones))
	for _, e := range w.drones {
		entries = append(entries, e)
	}
	w.dronesMu.RUnlock()

	drones := make([]DroneView, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		drones = append(drones, DroneView{
			ID:     e.d.ID,
			Coord:  e.d.Coord,
			Target: e.d.Target,
			Status: e.d.Status,
		})
		e.mu.Unlock()
	}

	w.activeMu.RLock()
	survivors := make([]SurvivorView, 0, len(w.active)+len(w.helped))
	for _, id := range w.activeOrder {
		if s, ok := w.active[id]; ok {
			survivors = append(survivors, SurvivorView{ID: s.ID, Coord: s.Coord, Status: s.Status})
		}
	}
	w.activeMu.RUnlock()

	w.helpedMu.RLock()
	for _, s := range w.helped {
		survivors = append(survivors, SurvivorView{ID: s.ID, Coord: s.Coord, Status: s.Status})
	}
	w.helpedMu.RUnlock()

	return Snapshot{
		Width:     w.width,
		Height:    w.height,
		Drones:    drones,
		Survivors: survivors,
	}
}
