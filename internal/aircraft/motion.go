package aircraft

import (
	"github.com/yegors/ground-atc/pkg/types"
)

// EventKind names an implicit transition or milestone reached during a tick
type EventKind string

const (
	EventPushbackComplete EventKind = "pushback_complete"
	EventRunwayVacated    EventKind = "runway_vacated"
	EventReadyForPushback EventKind = "ready_for_pushback"
	EventHoldShortReached EventKind = "hold_short_reached"
)

// Event is emitted by Advance
type Event struct {
	Aircraft types.AircraftID `json:"aircraft"`
	Kind     EventKind        `json:"kind"`
	Runway   types.RunwayID   `json:"runway,omitempty"`
	Gate     types.GateID     `json:"gate,omitempty"`
	Eligible types.AircraftID `json:"eligible,omitempty"`
}

// Advance moves the aircraft delta (fraction of the current maneuver) forward,
// clamps progress to [0,1] and performs the implicit transitions that complete
// a maneuver. Holding aircraft and departed aircraft do not move.
func (a *Aircraft) Advance(delta float64, env Env) *Event {
	if !a.State.Phase.Moving() || delta <= 0 {
		return nil
	}

	before := a.Progress
	a.Progress += delta
	if a.Progress > 1 {
		a.Progress = 1
	}
	if a.State.Phase != AtGate {
		a.updatePosition()
	}
	if a.Progress < 1 {
		return nil
	}

	switch a.State.Phase {
	case Pushback:
		return a.completePushback(env)
	case OnRunwayLanding:
		return a.completeRollout(env)
	case AtGate:
		if !a.readyAnnounced {
			a.readyAnnounced = true
			return &Event{Aircraft: a.ID, Kind: EventReadyForPushback, Gate: a.State.Gate}
		}
	case HoldShort:
		if before < 1 {
			return &Event{Aircraft: a.ID, Kind: EventHoldShortReached, Runway: a.State.Runway}
		}
	}
	return nil
}

func (a *Aircraft) completePushback(env Env) *Event {
	gate := a.State.Gate
	g, ok := env.Airport.Gate(gate)
	if !ok {
		return nil
	}
	env.Resources.ReleaseGate(gate, a.ID)

	heading := a.Heading
	a.enter(State{Phase: Taxiing}, Location{Node: g.Node}, []types.Vec2{a.Position})
	a.Progress = 1
	a.Heading = heading
	return &Event{Aircraft: a.ID, Kind: EventPushbackComplete, Gate: gate}
}

func (a *Aircraft) completeRollout(env Env) *Event {
	runway := a.State.Runway
	r, ok := env.Airport.Runway(runway)
	if !ok {
		return nil
	}
	eligible, _ := env.Resources.ReleaseRunway(runway, a.ID)

	heading := a.Heading
	a.enter(State{Phase: Taxiing}, Location{Node: r.ExitNode}, []types.Vec2{a.Position})
	a.Progress = 1
	a.Heading = heading
	return &Event{Aircraft: a.ID, Kind: EventRunwayVacated, Runway: runway, Eligible: eligible}
}

// TurnaroundStages is the sequence an aircraft walks through while parked
var TurnaroundStages = []string{
	"shutdown",
	"deboarding",
	"unloading",
	"refuelling",
	"cleaning",
	"crew_change",
	"maintenance_check",
	"loading",
	"boarding",
	"standby",
}

// TurnaroundStage reports the current stage for a parked aircraft, "" otherwise
func (a *Aircraft) TurnaroundStage() string {
	if a.Effective().Phase != AtGate {
		return ""
	}
	n := len(TurnaroundStages)
	i := int(a.Progress * float64(n-1))
	if i >= n {
		i = n - 1
	}
	return TurnaroundStages[i]
}
