package aircraft

import (
	"fmt"

	"github.com/yegors/ground-atc/pkg/types"
)

// Phase is the coarse state of an aircraft
type Phase string

const (
	AtGate          Phase = "at_gate"
	Pushback        Phase = "pushback"
	Taxiing         Phase = "taxiing"
	HoldShort       Phase = "hold_short"
	OnRunwayTakeoff Phase = "on_runway_takeoff"
	OnRunwayLanding Phase = "on_runway_landing"
	Departed        Phase = "departed"
	Approaching     Phase = "approaching"
	HoldingPosition Phase = "holding_position"
)

// State is a phase together with the runway or gate it refers to
type State struct {
	Phase  Phase          `json:"phase"`
	Runway types.RunwayID `json:"runway,omitempty"`
	Gate   types.GateID   `json:"gate,omitempty"`
}

func (s State) String() string {
	switch s.Phase {
	case AtGate:
		return fmt.Sprintf("AtGate(%s)", s.Gate)
	case Pushback:
		return fmt.Sprintf("Pushback(%s)", s.Gate)
	case Taxiing:
		return "Taxiing"
	case HoldShort:
		return fmt.Sprintf("HoldShort(%s)", s.Runway)
	case OnRunwayTakeoff:
		return fmt.Sprintf("OnRunway(%s, takeoff)", s.Runway)
	case OnRunwayLanding:
		return fmt.Sprintf("OnRunway(%s, landing)", s.Runway)
	case Departed:
		return "Departed"
	case Approaching:
		return fmt.Sprintf("Approaching(%s)", s.Runway)
	case HoldingPosition:
		return "HoldingPosition"
	default:
		return string(s.Phase)
	}
}

// Terminal reports whether no further command can apply
func (s State) Terminal() bool {
	return s.Phase == Departed
}

// Moving reports whether the clock advances progress in this phase
func (p Phase) Moving() bool {
	switch p {
	case AtGate, Pushback, Taxiing, HoldShort, OnRunwayTakeoff, OnRunwayLanding, Approaching:
		return true
	}
	return false
}
