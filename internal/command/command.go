package command

import (
	"fmt"

	"github.com/yegors/ground-atc/pkg/types"
)

// Kind identifies an operator instruction
type Kind int

const (
	Land Kind = iota
	Takeoff
	HoldPosition
	Pushback
	TaxiOntoRunway
	HoldShort
	TaxiToGate
)

// argKind describes what the second argument of a command names
type argKind int

const (
	argNone argKind = iota
	argRunway
	argGate
)

type commandDef struct {
	kind  Kind
	token string
	arg   argKind
	usage string
}

var commands = []commandDef{
	{Land, "l", argRunway, "l <aircraft> <runway>"},
	{Takeoff, "t", argRunway, "t <aircraft> <runway>"},
	{HoldPosition, "hp", argNone, "hp <aircraft>"},
	{Pushback, "p", argNone, "p <aircraft>"},
	{TaxiOntoRunway, "tor", argRunway, "tor <aircraft> <runway>"},
	{HoldShort, "hs", argRunway, "hs <aircraft> <runway>"},
	{TaxiToGate, "t2g", argGate, "t2g <aircraft> <gate>"},
}

var byToken = func() map[string]commandDef {
	m := make(map[string]commandDef, len(commands))
	for _, c := range commands {
		m[c.token] = c
	}
	return m
}()

func (k Kind) String() string {
	switch k {
	case Land:
		return "land"
	case Takeoff:
		return "takeoff"
	case HoldPosition:
		return "hold_position"
	case Pushback:
		return "pushback"
	case TaxiOntoRunway:
		return "taxi_onto_runway"
	case HoldShort:
		return "hold_short"
	case TaxiToGate:
		return "taxi_to_gate"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Token returns the command word for the kind
func (k Kind) Token() string {
	for _, c := range commands {
		if c.kind == k {
			return c.token
		}
	}
	return ""
}

// Instruction is a validated operator command
type Instruction struct {
	Kind     Kind             `json:"kind"`
	Aircraft types.AircraftID `json:"aircraft"`
	Runway   types.RunwayID   `json:"runway,omitempty"`
	Gate     types.GateID     `json:"gate,omitempty"`
}

// String renders the instruction back in command-line form
func (in Instruction) String() string {
	switch {
	case in.Runway != "":
		return fmt.Sprintf("%s %s %s", in.Kind.Token(), in.Aircraft, in.Runway)
	case in.Gate != "":
		return fmt.Sprintf("%s %s %s", in.Kind.Token(), in.Aircraft, in.Gate)
	default:
		return fmt.Sprintf("%s %s", in.Kind.Token(), in.Aircraft)
	}
}

// Usage lists the accepted command forms
func Usage() []string {
	out := make([]string, len(commands))
	for i, c := range commands {
		out[i] = c.usage
	}
	return out
}
