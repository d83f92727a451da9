package aircraft

import (
	"errors"
	"fmt"

	"github.com/yegors/ground-atc/internal/airport"
	"github.com/yegors/ground-atc/internal/resource"
	"github.com/yegors/ground-atc/pkg/types"
)

// ErrIllegalTransition is returned when a command is not valid from the aircraft's state
var ErrIllegalTransition = errors.New("illegal transition")

// Location names the physical thing the aircraft is on or heading to.
// At most one field is set.
type Location struct {
	Runway types.RunwayID `json:"runway,omitempty"`
	Gate   types.GateID   `json:"gate,omitempty"`
	Node   string         `json:"node,omitempty"`
}

// Env is what the state machine needs from the world to apply a command
type Env struct {
	Airport   *airport.Model
	Resources *resource.Manager
}

// Aircraft is one simulated aircraft
type Aircraft struct {
	ID        types.AircraftID
	State     State
	Held      *State // state to resume while HoldingPosition
	Location  Location
	Progress  float64 // 0..1 through the current maneuver
	Path      []types.Vec2
	Position  types.Vec2
	Heading   float64
	Clearance string // last clearance read back to the aircraft

	readyAnnounced bool
}

// NewAtGate places a parked aircraft at a gate, occupying it
func NewAtGate(id types.AircraftID, gate types.GateID, env Env) (*Aircraft, error) {
	g, ok := env.Airport.Gate(gate)
	if !ok {
		return nil, fmt.Errorf("%w: %s", resource.ErrUnknownGate, gate)
	}
	if err := env.Resources.TryOccupyGate(gate, id); err != nil {
		return nil, err
	}
	a := &Aircraft{ID: id}
	a.parkAt(g, env.Airport)
	return a, nil
}

// NewApproaching creates an arrival on final for a runway
func NewApproaching(id types.AircraftID, runway types.RunwayID, env Env) (*Aircraft, error) {
	r, ok := env.Airport.Runway(runway)
	if !ok {
		return nil, fmt.Errorf("%w: %s", resource.ErrUnknownRunway, runway)
	}
	a := &Aircraft{ID: id}
	a.enter(State{Phase: Approaching, Runway: runway}, Location{},
		[]types.Vec2{env.Airport.ApproachFix(r), r.Threshold})
	return a, nil
}

// Effective returns the state commands are validated against: the remembered
// state while holding, the current state otherwise.
func (a *Aircraft) Effective() State {
	if a.State.Phase == HoldingPosition && a.Held != nil {
		return *a.Held
	}
	return a.State
}

// enter switches to a new state and maneuver, clearing any hold
func (a *Aircraft) enter(s State, loc Location, path []types.Vec2) {
	a.State = s
	a.Held = nil
	a.Location = loc
	a.Path = path
	a.Progress = 0
	a.updatePosition()
}

func (a *Aircraft) parkAt(g *airport.Gate, ap *airport.Model) {
	a.enter(State{Phase: AtGate, Gate: g.ID}, Location{Gate: g.ID}, []types.Vec2{g.Position})
	a.readyAnnounced = false
	if n, ok := ap.Node(g.Node); ok {
		a.Heading = g.Position.HeadingTo(n.Position)
	}
}

// PathLength is the length of the current maneuver path in metres
func (a *Aircraft) PathLength() float64 {
	total := 0.0
	for i := 1; i < len(a.Path); i++ {
		total += a.Path[i-1].DistanceTo(a.Path[i])
	}
	return total
}

// updatePosition derives position and heading from path and progress
func (a *Aircraft) updatePosition() {
	if len(a.Path) == 0 {
		return
	}
	if len(a.Path) == 1 {
		a.Position = a.Path[0]
		return
	}

	target := a.PathLength() * a.Progress
	for i := 1; i < len(a.Path); i++ {
		from, to := a.Path[i-1], a.Path[i]
		seg := from.DistanceTo(to)
		if seg == 0 {
			continue
		}
		if target <= seg || i == len(a.Path)-1 {
			t := target / seg
			if t > 1 {
				t = 1
			}
			a.Position = from.Lerp(to, t)
			a.Heading = from.HeadingTo(to)
			return
		}
		target -= seg
	}
	a.Position = a.Path[len(a.Path)-1]
}
