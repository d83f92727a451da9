package aircraft

import (
	"fmt"

	"github.com/yegors/ground-atc/internal/airport"
	"github.com/yegors/ground-atc/internal/command"
	"github.com/yegors/ground-atc/internal/resource"
	"github.com/yegors/ground-atc/pkg/types"
)

// Release records a runway given up as a side effect of a transition
type Release struct {
	Runway   types.RunwayID   `json:"runway"`
	Eligible types.AircraftID `json:"eligible,omitempty"` // head of the hold-short queue, now free to be cleared
}

// Outcome describes an accepted command
type Outcome struct {
	From      State     `json:"from"`
	To        State     `json:"to"`
	Clearance string    `json:"clearance"`
	Releases  []Release `json:"releases,omitempty"`
}

// Apply validates an instruction against the aircraft and the world and, if legal,
// performs it. Every check runs before the first mutation, so a rejected
// instruction leaves the aircraft and the resource tables untouched.
func (a *Aircraft) Apply(in command.Instruction, env Env) (Outcome, error) {
	if in.Aircraft != a.ID {
		return Outcome{}, fmt.Errorf("instruction for %s applied to %s", in.Aircraft, a.ID)
	}
	if a.State.Terminal() {
		return Outcome{}, a.illegal(in, a.State)
	}

	from := a.State
	var (
		out Outcome
		err error
	)

	if in.Kind == command.HoldPosition {
		out = a.holdPosition()
	} else {
		switch cur := a.Effective(); in.Kind {
		case command.Pushback:
			out, err = a.pushback(in, cur, env)
		case command.HoldShort:
			out, err = a.holdShort(in, cur, env)
		case command.TaxiOntoRunway:
			out, err = a.taxiOntoRunway(in, cur, env)
		case command.Takeoff:
			out, err = a.takeoff(in, cur, env)
		case command.Land:
			out, err = a.land(in, cur, env)
		case command.TaxiToGate:
			out, err = a.taxiToGate(in, cur, env)
		default:
			err = fmt.Errorf("%w: unsupported command %s", ErrIllegalTransition, in.Kind)
		}
	}
	if err != nil {
		return Outcome{}, err
	}

	out.From = from
	out.To = a.State
	a.Clearance = out.Clearance
	return out, nil
}

func (a *Aircraft) illegal(in command.Instruction, s State) error {
	return fmt.Errorf("%w: %s not allowed for %s in state %s", ErrIllegalTransition, in.Kind.Token(), a.ID, s)
}

func (a *Aircraft) holdPosition() Outcome {
	if a.State.Phase == HoldingPosition {
		if a.Held != nil {
			a.State = *a.Held
		}
		a.Held = nil
		return Outcome{Clearance: Continue(a.ID)}
	}
	held := a.State
	a.Held = &held
	a.State = State{Phase: HoldingPosition}
	return Outcome{Clearance: HoldPositionClearance(a.ID)}
}

func (a *Aircraft) pushback(in command.Instruction, cur State, env Env) (Outcome, error) {
	if cur.Phase != AtGate || env.Resources.GateOccupant(cur.Gate) != a.ID {
		return Outcome{}, a.illegal(in, cur)
	}
	g, ok := env.Airport.Gate(cur.Gate)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", resource.ErrUnknownGate, cur.Gate)
	}
	node, ok := env.Airport.Node(g.Node)
	if !ok {
		return Outcome{}, fmt.Errorf("gate %s: unknown node %s", g.ID, g.Node)
	}

	a.enter(State{Phase: Pushback, Gate: g.ID}, Location{Gate: g.ID},
		[]types.Vec2{g.Position, node.Position})
	return Outcome{Clearance: PushbackClearance(a.ID, departureRunway(env.Airport, g))}, nil
}

func (a *Aircraft) holdShort(in command.Instruction, cur State, env Env) (Outcome, error) {
	if cur.Phase != Taxiing {
		return Outcome{}, a.illegal(in, cur)
	}
	r, ok := env.Airport.Runway(in.Runway)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", resource.ErrUnknownRunway, in.Runway)
	}
	path, err := a.taxiPath(env.Airport, r.HoldNode)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrIllegalTransition, err)
	}
	if err := env.Resources.EnqueueHoldShort(r.ID, a.ID); err != nil {
		return Outcome{}, err
	}

	a.enter(State{Phase: HoldShort, Runway: r.ID}, Location{Node: r.HoldNode}, path)
	return Outcome{Clearance: HoldShortClearance(a.ID, r.ID)}, nil
}

func (a *Aircraft) taxiOntoRunway(in command.Instruction, cur State, env Env) (Outcome, error) {
	if cur.Phase != Taxiing && cur.Phase != HoldShort {
		return Outcome{}, a.illegal(in, cur)
	}
	r, ok := env.Airport.Runway(in.Runway)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", resource.ErrUnknownRunway, in.Runway)
	}
	path, err := a.taxiPath(env.Airport, r.HoldNode)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrIllegalTransition, err)
	}
	path = append(path, r.Threshold)

	if err := env.Resources.TryOccupyRunway(r.ID, a.ID, resource.PurposeTakeoff); err != nil {
		return Outcome{}, fmt.Errorf("%s denied: %w", in, err)
	}
	if cur.Phase == HoldShort && cur.Runway != r.ID {
		env.Resources.LeaveQueue(cur.Runway, a.ID)
	}

	a.enter(State{Phase: OnRunwayTakeoff, Runway: r.ID}, Location{Runway: r.ID}, path)
	return Outcome{Clearance: LineUpClearance(a.ID, r.ID)}, nil
}

func (a *Aircraft) takeoff(in command.Instruction, cur State, env Env) (Outcome, error) {
	if cur.Phase != OnRunwayTakeoff || cur.Runway != in.Runway ||
		env.Resources.RunwayOccupant(in.Runway) != a.ID {
		return Outcome{}, a.illegal(in, cur)
	}
	r, ok := env.Airport.Runway(in.Runway)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", resource.ErrUnknownRunway, in.Runway)
	}

	rel := Release{Runway: r.ID}
	rel.Eligible, _ = env.Resources.ReleaseRunway(r.ID, a.ID)

	a.enter(State{Phase: Departed}, Location{}, []types.Vec2{r.Threshold, r.End})
	a.Progress = 1
	a.updatePosition()
	return Outcome{Clearance: TakeoffClearance(a.ID, r.ID), Releases: []Release{rel}}, nil
}

func (a *Aircraft) land(in command.Instruction, cur State, env Env) (Outcome, error) {
	if cur.Phase != Approaching {
		return Outcome{}, a.illegal(in, cur)
	}
	r, ok := env.Airport.Runway(in.Runway)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", resource.ErrUnknownRunway, in.Runway)
	}
	exit, ok := env.Airport.Node(r.ExitNode)
	if !ok {
		return Outcome{}, fmt.Errorf("runway %s: unknown exit node %s", r.ID, r.ExitNode)
	}

	if err := env.Resources.TryOccupyRunway(r.ID, a.ID, resource.PurposeLanding); err != nil {
		return Outcome{}, fmt.Errorf("%s denied: %w", in, err)
	}

	path := []types.Vec2{r.Threshold, r.End, exit.Position}
	if a.Position != r.Threshold {
		path = append([]types.Vec2{a.Position}, path...)
	}
	a.enter(State{Phase: OnRunwayLanding, Runway: r.ID}, Location{Runway: r.ID}, path)
	return Outcome{Clearance: LandingClearance(a.ID, r.ID)}, nil
}

func (a *Aircraft) taxiToGate(in command.Instruction, cur State, env Env) (Outcome, error) {
	if cur.Phase != OnRunwayLanding && cur.Phase != Taxiing {
		return Outcome{}, a.illegal(in, cur)
	}
	g, ok := env.Airport.Gate(in.Gate)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", resource.ErrUnknownGate, in.Gate)
	}

	start := a.Location.Node
	if cur.Phase == OnRunwayLanding {
		r, ok := env.Airport.Runway(cur.Runway)
		if !ok {
			return Outcome{}, fmt.Errorf("%w: %s", resource.ErrUnknownRunway, cur.Runway)
		}
		start = r.ExitNode
	}
	via, err := env.Airport.Path(start, g.Node)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrIllegalTransition, err)
	}

	if err := env.Resources.TryOccupyGate(g.ID, a.ID); err != nil {
		return Outcome{}, fmt.Errorf("%s denied: %w", in, err)
	}

	var releases []Release
	if cur.Phase == OnRunwayLanding {
		rel := Release{Runway: cur.Runway}
		rel.Eligible, _ = env.Resources.ReleaseRunway(cur.Runway, a.ID)
		releases = append(releases, rel)
	}

	a.parkAt(g, env.Airport)
	return Outcome{Clearance: TaxiToGateClearance(a.ID, g.ID, via), Releases: releases}, nil
}

// taxiPath routes from the aircraft's current position through the taxiway graph to node
func (a *Aircraft) taxiPath(ap *airport.Model, node string) ([]types.Vec2, error) {
	if a.Location.Node == "" {
		return nil, fmt.Errorf("%s is not on a taxiway", a.ID)
	}
	route, err := ap.Route(a.Location.Node, node)
	if err != nil {
		return nil, err
	}
	if len(route) > 0 && route[0] != a.Position {
		route = append([]types.Vec2{a.Position}, route...)
	}
	return route, nil
}

// departureRunway picks the runway whose hold point is the shortest taxi from the gate
func departureRunway(ap *airport.Model, g *airport.Gate) types.RunwayID {
	var (
		best     types.RunwayID
		bestDist = -1.0
	)
	for _, id := range ap.RunwayIDs() {
		r, _ := ap.Runway(id)
		route, err := ap.Route(g.Node, r.HoldNode)
		if err != nil {
			continue
		}
		d := 0.0
		for i := 1; i < len(route); i++ {
			d += route[i-1].DistanceTo(route[i])
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = id, d
		}
	}
	return best
}
