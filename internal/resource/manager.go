package resource

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mohae/deepcopy"

	"github.com/yegors/ground-atc/pkg/types"
)

var (
	ErrRunwayOccupied = errors.New("runway occupied")
	ErrGateOccupied   = errors.New("gate occupied")
	ErrUnknownRunway  = errors.New("unknown runway")
	ErrUnknownGate    = errors.New("unknown gate")
)

// Purpose records why an aircraft holds a runway
type Purpose string

const (
	PurposeLanding  Purpose = "landing"
	PurposeTakeoff  Purpose = "takeoff"
	PurposeCrossing Purpose = "crossing" // no current command requests a crossing
)

// DeniedError reports a refused occupancy request and who holds the resource
type DeniedError struct {
	Resource string
	Occupant types.AircraftID
	err      error
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%v: %s held by %s", e.err, e.Resource, e.Occupant)
}

func (e *DeniedError) Unwrap() error { return e.err }

// RunwaySlot is the occupancy record of one runway
type RunwaySlot struct {
	ID       types.RunwayID     `json:"id"`
	Occupant types.AircraftID   `json:"occupant,omitempty"`
	Purpose  Purpose            `json:"purpose,omitempty"`
	Queue    []types.AircraftID `json:"queue"`              // hold-short aircraft, FIFO
	Eligible types.AircraftID   `json:"eligible,omitempty"` // queue head announced on the last release
}

// GateSlot is the occupancy record of one gate
type GateSlot struct {
	ID       types.GateID     `json:"id"`
	Occupant types.AircraftID `json:"occupant,omitempty"`
}

// Manager arbitrates runway and gate occupancy. It is not safe for concurrent
// use; the owning world state serializes access.
type Manager struct {
	runways map[types.RunwayID]*RunwaySlot
	gates   map[types.GateID]*GateSlot
}

// NewManager creates empty slots for the given runways and gates
func NewManager(runways []types.RunwayID, gates []types.GateID) *Manager {
	m := &Manager{
		runways: make(map[types.RunwayID]*RunwaySlot, len(runways)),
		gates:   make(map[types.GateID]*GateSlot, len(gates)),
	}
	for _, id := range runways {
		m.runways[id] = &RunwaySlot{ID: id, Queue: []types.AircraftID{}}
	}
	for _, id := range gates {
		m.gates[id] = &GateSlot{ID: id}
	}
	return m
}

// TryOccupyRunway grants the runway to ac if it is empty. A conflicting request
// leaves the slot untouched.
func (m *Manager) TryOccupyRunway(id types.RunwayID, ac types.AircraftID, purpose Purpose) error {
	slot, ok := m.runways[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRunway, id)
	}
	if slot.Occupant != "" {
		return &DeniedError{Resource: "runway " + string(id), Occupant: slot.Occupant, err: ErrRunwayOccupied}
	}
	for rid, other := range m.runways {
		if other.Occupant == ac {
			return fmt.Errorf("%s already occupies runway %s", ac, rid)
		}
	}

	slot.Occupant = ac
	slot.Purpose = purpose
	if slot.Eligible == ac {
		slot.Eligible = ""
	}
	slot.Queue = without(slot.Queue, ac)
	return nil
}

// ReleaseRunway clears the runway if ac holds it and reports the head of the
// wait queue as eligible for clearance. The head stays queued until it is
// granted a runway or leaves the queue; nothing is executed on its behalf.
func (m *Manager) ReleaseRunway(id types.RunwayID, ac types.AircraftID) (types.AircraftID, bool) {
	slot, ok := m.runways[id]
	if !ok || slot.Occupant != ac || ac == "" {
		return "", false
	}
	slot.Occupant = ""
	slot.Purpose = ""

	if len(slot.Queue) == 0 {
		slot.Eligible = ""
		return "", false
	}
	slot.Eligible = slot.Queue[0]
	return slot.Eligible, true
}

// EnqueueHoldShort appends ac to the runway's wait queue. Re-enqueueing is a no-op.
func (m *Manager) EnqueueHoldShort(id types.RunwayID, ac types.AircraftID) error {
	slot, ok := m.runways[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRunway, id)
	}
	for _, q := range slot.Queue {
		if q == ac {
			return nil
		}
	}
	slot.Queue = append(slot.Queue, ac)
	return nil
}

// LeaveQueue removes ac from the runway's wait queue and eligibility
func (m *Manager) LeaveQueue(id types.RunwayID, ac types.AircraftID) {
	slot, ok := m.runways[id]
	if !ok {
		return
	}
	slot.Queue = without(slot.Queue, ac)
	if slot.Eligible == ac {
		slot.Eligible = ""
	}
}

// TryOccupyGate grants the gate to ac if it is empty. Gates have no wait queue.
func (m *Manager) TryOccupyGate(id types.GateID, ac types.AircraftID) error {
	if err := m.CheckGate(id, ac); err != nil {
		return err
	}
	m.gates[id].Occupant = ac
	return nil
}

// CheckGate reports whether TryOccupyGate would succeed, without mutating anything
func (m *Manager) CheckGate(id types.GateID, ac types.AircraftID) error {
	slot, ok := m.gates[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGate, id)
	}
	if slot.Occupant != "" {
		return &DeniedError{Resource: "gate " + string(id), Occupant: slot.Occupant, err: ErrGateOccupied}
	}
	for gid, other := range m.gates {
		if other.Occupant == ac {
			return fmt.Errorf("%s already occupies gate %s", ac, gid)
		}
	}
	return nil
}

// ReleaseGate clears the gate if ac holds it
func (m *Manager) ReleaseGate(id types.GateID, ac types.AircraftID) bool {
	slot, ok := m.gates[id]
	if !ok || slot.Occupant != ac || ac == "" {
		return false
	}
	slot.Occupant = ""
	return true
}

// RunwayOccupant returns who holds the runway, "" if nobody
func (m *Manager) RunwayOccupant(id types.RunwayID) types.AircraftID {
	if slot, ok := m.runways[id]; ok {
		return slot.Occupant
	}
	return ""
}

// GateOccupant returns who holds the gate, "" if nobody
func (m *Manager) GateOccupant(id types.GateID) types.AircraftID {
	if slot, ok := m.gates[id]; ok {
		return slot.Occupant
	}
	return ""
}

// Runways returns a deep copy of the runway table sorted by id
func (m *Manager) Runways() []RunwaySlot {
	out := make([]RunwaySlot, 0, len(m.runways))
	for _, slot := range m.runways {
		out = append(out, *deepcopy.Copy(slot).(*RunwaySlot))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Gates returns a copy of the gate table sorted by id
func (m *Manager) Gates() []GateSlot {
	out := make([]GateSlot, 0, len(m.gates))
	for _, slot := range m.gates {
		out = append(out, *slot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func without(q []types.AircraftID, ac types.AircraftID) []types.AircraftID {
	out := q[:0:0]
	for _, id := range q {
		if id != ac {
			out = append(out, id)
		}
	}
	if out == nil {
		out = []types.AircraftID{}
	}
	return out
}
