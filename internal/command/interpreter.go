package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yegors/ground-atc/internal/airport"
	"github.com/yegors/ground-atc/pkg/types"
)

var (
	ErrUnknownCommand  = errors.New("unknown command")
	ErrArityMismatch   = errors.New("wrong number of arguments")
	ErrUnknownAircraft = errors.New("unknown aircraft")
	ErrUnknownRunway   = errors.New("unknown runway")
	ErrUnknownGate     = errors.New("unknown gate")
)

// ParseError is returned for any line that cannot be turned into an Instruction
type ParseError struct {
	Line  string
	Token string // offending token
	Hint  string
	err   error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%v: %q", e.err, e.Token)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.err }

// Registry is the read-only view of the world the interpreter resolves names against
type Registry interface {
	HasAircraft(id types.AircraftID) bool
	Airport() *airport.Model
}

// Interpret parses one operator line. It never mutates the registry.
func Interpret(line string, reg Registry) (Instruction, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Instruction{}, &ParseError{Line: line, err: ErrUnknownCommand, Hint: "empty command"}
	}

	def, ok := byToken[strings.ToLower(fields[0])]
	if !ok {
		return Instruction{}, &ParseError{Line: line, Token: fields[0], err: ErrUnknownCommand,
			Hint: "expected one of l, t, hp, p, tor, hs, t2g"}
	}

	want := 2
	if def.arg == argNone {
		want = 1
	}
	if len(fields)-1 != want {
		return Instruction{}, &ParseError{Line: line, Token: fields[0], err: ErrArityMismatch,
			Hint: "usage: " + def.usage}
	}

	in := Instruction{Kind: def.kind, Aircraft: types.ParseAircraftID(fields[1])}
	if !reg.HasAircraft(in.Aircraft) {
		return Instruction{}, &ParseError{Line: line, Token: fields[1], err: ErrUnknownAircraft}
	}

	ap := reg.Airport()
	switch def.arg {
	case argRunway:
		id := types.RunwayID(strings.ToUpper(fields[2]))
		if _, ok := ap.Runway(id); !ok {
			return Instruction{}, &ParseError{Line: line, Token: fields[2], err: ErrUnknownRunway}
		}
		in.Runway = id
	case argGate:
		id := types.GateID(strings.ToUpper(fields[2]))
		if _, ok := ap.Gate(id); !ok {
			return Instruction{}, &ParseError{Line: line, Token: fields[2], err: ErrUnknownGate}
		}
		in.Gate = id
	}

	return in, nil
}
