package aircraft

import (
	"errors"
	"reflect"
	"testing"

	"github.com/yegors/ground-atc/internal/airport"
	"github.com/yegors/ground-atc/internal/command"
	"github.com/yegors/ground-atc/internal/resource"
	"github.com/yegors/ground-atc/pkg/types"
)

func newEnv() Env {
	ap := airport.Default()
	return Env{Airport: ap, Resources: resource.NewManager(ap.RunwayIDs(), ap.GateIDs())}
}

func atGate(t *testing.T, env Env, id types.AircraftID, gate types.GateID) *Aircraft {
	t.Helper()
	a, err := NewAtGate(id, gate, env)
	if err != nil {
		t.Fatalf("NewAtGate(%s, %s): %v", id, gate, err)
	}
	return a
}

// taxiing returns an aircraft that has pushed back from gate and is waiting on the taxiway
func taxiing(t *testing.T, env Env, id types.AircraftID, gate types.GateID) *Aircraft {
	t.Helper()
	a := atGate(t, env, id, gate)
	apply(t, a, env, command.Instruction{Kind: command.Pushback, Aircraft: id})
	if ev := a.Advance(1, env); ev == nil || ev.Kind != EventPushbackComplete {
		t.Fatalf("pushback did not complete: %+v", ev)
	}
	return a
}

func landing(t *testing.T, env Env, id types.AircraftID, runway types.RunwayID) *Aircraft {
	t.Helper()
	a, err := NewApproaching(id, runway, env)
	if err != nil {
		t.Fatal(err)
	}
	apply(t, a, env, command.Instruction{Kind: command.Land, Aircraft: id, Runway: runway})
	return a
}

func apply(t *testing.T, a *Aircraft, env Env, in command.Instruction) Outcome {
	t.Helper()
	out, err := a.Apply(in, env)
	if err != nil {
		t.Fatalf("Apply(%s): %v", in, err)
	}
	return out
}

type worldCopy struct {
	aircraft Aircraft
	path     []types.Vec2
	runways  []resource.RunwaySlot
	gates    []resource.GateSlot
}

func capture(a *Aircraft, env Env) worldCopy {
	return worldCopy{
		aircraft: *a,
		path:     append([]types.Vec2(nil), a.Path...),
		runways:  env.Resources.Runways(),
		gates:    env.Resources.Gates(),
	}
}

func assertUnchanged(t *testing.T, before worldCopy, a *Aircraft, env Env) {
	t.Helper()
	after := capture(a, env)
	if !reflect.DeepEqual(before, after) {
		t.Errorf("rejected command mutated state:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestPushbackCompletesToTaxiing(t *testing.T) {
	env := newEnv()
	a := atGate(t, env, "UAL123", "1")

	out := apply(t, a, env, command.Instruction{Kind: command.Pushback, Aircraft: "UAL123"})
	if a.State != (State{Phase: Pushback, Gate: "1"}) {
		t.Fatalf("state = %s", a.State)
	}
	if out.Clearance != "United 123, pushback approved, expect runway 9 for departure." {
		t.Errorf("clearance = %q", out.Clearance)
	}
	if env.Resources.GateOccupant("1") != "UAL123" {
		t.Error("gate released before pushback completed")
	}

	if ev := a.Advance(0.5, env); ev != nil {
		t.Errorf("unexpected event halfway: %+v", ev)
	}
	ev := a.Advance(0.6, env)
	if ev == nil || ev.Kind != EventPushbackComplete || ev.Gate != "1" {
		t.Fatalf("event = %+v", ev)
	}
	if a.State.Phase != Taxiing || a.Location != (Location{Node: "P1"}) {
		t.Errorf("after pushback: %s at %+v", a.State, a.Location)
	}
	if env.Resources.GateOccupant("1") != "" {
		t.Error("gate still occupied after pushback")
	}
}

func TestRunwayScenario(t *testing.T) {
	env := newEnv()
	ual := taxiing(t, env, "UAL123", "1")
	dal := taxiing(t, env, "DAL456", "2")

	apply(t, ual, env, command.Instruction{Kind: command.TaxiOntoRunway, Aircraft: "UAL123", Runway: "27"})
	if ual.State != (State{Phase: OnRunwayTakeoff, Runway: "27"}) {
		t.Fatalf("UAL123 state = %s", ual.State)
	}
	if env.Resources.RunwayOccupant("27") != "UAL123" {
		t.Fatal("runway 27 occupant not recorded")
	}

	before := capture(dal, env)
	_, err := dal.Apply(command.Instruction{Kind: command.TaxiOntoRunway, Aircraft: "DAL456", Runway: "27"}, env)
	if !errors.Is(err, resource.ErrRunwayOccupied) {
		t.Fatalf("tor DAL456 27 error = %v, want ErrRunwayOccupied", err)
	}
	assertUnchanged(t, before, dal, env)

	apply(t, dal, env, command.Instruction{Kind: command.HoldShort, Aircraft: "DAL456", Runway: "27"})

	out := apply(t, ual, env, command.Instruction{Kind: command.Takeoff, Aircraft: "UAL123", Runway: "27"})
	if ual.State.Phase != Departed {
		t.Errorf("UAL123 state = %s", ual.State)
	}
	if len(out.Releases) != 1 || out.Releases[0] != (Release{Runway: "27", Eligible: "DAL456"}) {
		t.Errorf("releases = %+v", out.Releases)
	}
	if env.Resources.RunwayOccupant("27") != "" {
		t.Error("runway 27 not cleared")
	}
	if got := env.Resources.Runways()[0].Eligible; got != "DAL456" {
		t.Errorf("eligible = %q", got)
	}
	if dal.State != (State{Phase: HoldShort, Runway: "27"}) {
		t.Errorf("eligible aircraft was moved automatically: %s", dal.State)
	}

	apply(t, dal, env, command.Instruction{Kind: command.TaxiOntoRunway, Aircraft: "DAL456", Runway: "27"})
	if env.Resources.RunwayOccupant("27") != "DAL456" {
		t.Error("DAL456 not on runway 27")
	}
}

func TestTaxiToGateOccupied(t *testing.T) {
	env := newEnv()
	atGate(t, env, "DAL456", "5")
	ual := landing(t, env, "UAL123", "27")

	before := capture(ual, env)
	_, err := ual.Apply(command.Instruction{Kind: command.TaxiToGate, Aircraft: "UAL123", Gate: "5"}, env)
	if !errors.Is(err, resource.ErrGateOccupied) {
		t.Fatalf("error = %v, want ErrGateOccupied", err)
	}
	assertUnchanged(t, before, ual, env)
	if env.Resources.RunwayOccupant("27") != "UAL123" {
		t.Error("landing runway released by a rejected command")
	}
}

func TestTaxiToGateFromLandingReleasesRunway(t *testing.T) {
	env := newEnv()
	ual := landing(t, env, "UAL123", "27")

	out := apply(t, ual, env, command.Instruction{Kind: command.TaxiToGate, Aircraft: "UAL123", Gate: "6"})
	if ual.State != (State{Phase: AtGate, Gate: "6"}) || ual.Location != (Location{Gate: "6"}) {
		t.Fatalf("state = %s at %+v", ual.State, ual.Location)
	}
	if env.Resources.RunwayOccupant("27") != "" || env.Resources.GateOccupant("6") != "UAL123" {
		t.Error("occupancy not updated")
	}
	if len(out.Releases) != 1 || out.Releases[0].Runway != "27" {
		t.Errorf("releases = %+v", out.Releases)
	}
	if out.Clearance != "United 123, taxi to gate 6 via A1 A2 A3 A4 P6." {
		t.Errorf("clearance = %q", out.Clearance)
	}
}

func TestLandingRolloutVacatesRunway(t *testing.T) {
	env := newEnv()
	ual := landing(t, env, "UAL123", "27")
	dal := taxiing(t, env, "DAL456", "2")
	apply(t, dal, env, command.Instruction{Kind: command.HoldShort, Aircraft: "DAL456", Runway: "27"})

	ev := ual.Advance(1, env)
	if ev == nil || ev.Kind != EventRunwayVacated || ev.Eligible != "DAL456" {
		t.Fatalf("event = %+v", ev)
	}
	if ual.State.Phase != Taxiing || ual.Location.Node != "A1" {
		t.Errorf("after rollout: %s at %+v", ual.State, ual.Location)
	}
	if env.Resources.RunwayOccupant("27") != "" {
		t.Error("runway not released after rollout")
	}
}

func TestIllegalTransitions(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, env Env) *Aircraft
		in    command.Instruction
	}{
		{"pushback while taxiing", func(t *testing.T, env Env) *Aircraft { return taxiing(t, env, "UAL123", "1") },
			command.Instruction{Kind: command.Pushback, Aircraft: "UAL123"}},
		{"takeoff while taxiing", func(t *testing.T, env Env) *Aircraft { return taxiing(t, env, "UAL123", "1") },
			command.Instruction{Kind: command.Takeoff, Aircraft: "UAL123", Runway: "27"}},
		{"land at gate", func(t *testing.T, env Env) *Aircraft { return atGate(t, env, "UAL123", "1") },
			command.Instruction{Kind: command.Land, Aircraft: "UAL123", Runway: "27"}},
		{"hold short at gate", func(t *testing.T, env Env) *Aircraft { return atGate(t, env, "UAL123", "1") },
			command.Instruction{Kind: command.HoldShort, Aircraft: "UAL123", Runway: "27"}},
		{"taxi to gate from gate", func(t *testing.T, env Env) *Aircraft { return atGate(t, env, "UAL123", "1") },
			command.Instruction{Kind: command.TaxiToGate, Aircraft: "UAL123", Gate: "2"}},
		{"taxi onto runway while approaching", func(t *testing.T, env Env) *Aircraft {
			a, _ := NewApproaching("UAL123", "27", env)
			return a
		}, command.Instruction{Kind: command.TaxiOntoRunway, Aircraft: "UAL123", Runway: "27"}},
		{"takeoff from the wrong runway", func(t *testing.T, env Env) *Aircraft {
			a := taxiing(t, env, "UAL123", "1")
			apply(t, a, env, command.Instruction{Kind: command.TaxiOntoRunway, Aircraft: "UAL123", Runway: "27"})
			return a
		}, command.Instruction{Kind: command.Takeoff, Aircraft: "UAL123", Runway: "9"}},
		{"hold short twice", func(t *testing.T, env Env) *Aircraft {
			a := taxiing(t, env, "UAL123", "1")
			apply(t, a, env, command.Instruction{Kind: command.HoldShort, Aircraft: "UAL123", Runway: "27"})
			return a
		}, command.Instruction{Kind: command.HoldShort, Aircraft: "UAL123", Runway: "9"}},
		{"hold position after departure", func(t *testing.T, env Env) *Aircraft {
			a := taxiing(t, env, "UAL123", "1")
			apply(t, a, env, command.Instruction{Kind: command.TaxiOntoRunway, Aircraft: "UAL123", Runway: "27"})
			apply(t, a, env, command.Instruction{Kind: command.Takeoff, Aircraft: "UAL123", Runway: "27"})
			return a
		}, command.Instruction{Kind: command.HoldPosition, Aircraft: "UAL123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newEnv()
			a := tt.setup(t, env)
			before := capture(a, env)
			_, err := a.Apply(tt.in, env)
			if !errors.Is(err, ErrIllegalTransition) {
				t.Fatalf("error = %v, want ErrIllegalTransition", err)
			}
			assertUnchanged(t, before, a, env)
		})
	}
}

func TestHoldPositionAndResume(t *testing.T) {
	env := newEnv()
	a := atGate(t, env, "UAL123", "1")
	apply(t, a, env, command.Instruction{Kind: command.Pushback, Aircraft: "UAL123"})
	a.Advance(0.25, env)

	out := apply(t, a, env, command.Instruction{Kind: command.HoldPosition, Aircraft: "UAL123"})
	if a.State.Phase != HoldingPosition || a.Held == nil || a.Held.Phase != Pushback {
		t.Fatalf("after hp: %s held=%v", a.State, a.Held)
	}
	if out.Clearance != "United 123, hold position." {
		t.Errorf("clearance = %q", out.Clearance)
	}

	pos := a.Position
	if ev := a.Advance(1, env); ev != nil || a.Position != pos || a.Progress != 0.25 {
		t.Fatalf("holding aircraft moved: ev=%+v progress=%v", ev, a.Progress)
	}
	if env.Resources.GateOccupant("1") != "UAL123" {
		t.Error("holding released the gate")
	}

	apply(t, a, env, command.Instruction{Kind: command.HoldPosition, Aircraft: "UAL123"})
	if a.State != (State{Phase: Pushback, Gate: "1"}) || a.Held != nil {
		t.Fatalf("after resume: %s held=%v", a.State, a.Held)
	}
	if a.Progress != 0.25 {
		t.Errorf("resume lost progress: %v", a.Progress)
	}
}

func TestCommandFromHoldLeavesHold(t *testing.T) {
	env := newEnv()
	a := taxiing(t, env, "UAL123", "1")
	apply(t, a, env, command.Instruction{Kind: command.HoldPosition, Aircraft: "UAL123"})

	apply(t, a, env, command.Instruction{Kind: command.TaxiOntoRunway, Aircraft: "UAL123", Runway: "27"})
	if a.State != (State{Phase: OnRunwayTakeoff, Runway: "27"}) || a.Held != nil {
		t.Errorf("state = %s held=%v", a.State, a.Held)
	}
}

func TestTorFromOtherQueueLeavesIt(t *testing.T) {
	env := newEnv()
	a := taxiing(t, env, "UAL123", "1")
	apply(t, a, env, command.Instruction{Kind: command.HoldShort, Aircraft: "UAL123", Runway: "9"})
	apply(t, a, env, command.Instruction{Kind: command.TaxiOntoRunway, Aircraft: "UAL123", Runway: "27"})

	for _, slot := range env.Resources.Runways() {
		if len(slot.Queue) != 0 {
			t.Errorf("runway %s queue = %v", slot.ID, slot.Queue)
		}
	}
}

func TestHoldShortReached(t *testing.T) {
	env := newEnv()
	a := taxiing(t, env, "UAL123", "1")
	apply(t, a, env, command.Instruction{Kind: command.HoldShort, Aircraft: "UAL123", Runway: "27"})

	ev := a.Advance(2, env)
	if ev == nil || ev.Kind != EventHoldShortReached {
		t.Fatalf("event = %+v", ev)
	}
	hold, _ := env.Airport.Node("A5")
	if a.Position.DistanceTo(hold.Position) > 1e-6 || a.Progress != 1 {
		t.Errorf("position = %v progress = %v", a.Position, a.Progress)
	}
	if ev := a.Advance(1, env); ev != nil {
		t.Errorf("event repeated: %+v", ev)
	}
}

func TestTurnaround(t *testing.T) {
	env := newEnv()
	a := atGate(t, env, "UAL123", "1")
	if got := a.TurnaroundStage(); got != "shutdown" {
		t.Errorf("stage = %q", got)
	}
	if ev := a.Advance(0.5, env); ev != nil {
		t.Errorf("event = %+v", ev)
	}
	if ev := a.Advance(0.5, env); ev == nil || ev.Kind != EventReadyForPushback {
		t.Errorf("event = %+v", ev)
	}
	if got := a.TurnaroundStage(); got != "standby" {
		t.Errorf("stage = %q", got)
	}
	if ev := a.Advance(0.5, env); ev != nil {
		t.Errorf("ready announced twice: %+v", ev)
	}
}
