package simulation

import (
	"errors"

	"github.com/yegors/ground-atc/internal/aircraft"
	"github.com/yegors/ground-atc/internal/command"
	"github.com/yegors/ground-atc/internal/resource"
)

var (
	// ErrUnknownAircraft is the interpreter's sentinel, so errors.Is matches
	// whether the lookup failed while parsing or while applying.
	ErrUnknownAircraft   = command.ErrUnknownAircraft
	ErrDuplicateAircraft = errors.New("aircraft already exists")
	ErrInvalidAircraft   = errors.New("aircraft needs exactly one of gate or runway")
)

// Category groups command failures for operators and API clients
type Category string

const (
	CategoryParse             Category = "parse"
	CategoryIllegalTransition Category = "illegal_transition"
	CategoryDenied            Category = "denied"
	CategoryInternal          Category = "internal"
)

// Classify maps an error from Execute or Apply to its category
func Classify(err error) Category {
	var pe *command.ParseError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &pe),
		errors.Is(err, command.ErrUnknownAircraft),
		errors.Is(err, command.ErrUnknownRunway),
		errors.Is(err, command.ErrUnknownGate),
		errors.Is(err, resource.ErrUnknownRunway),
		errors.Is(err, resource.ErrUnknownGate):
		return CategoryParse
	case errors.Is(err, aircraft.ErrIllegalTransition):
		return CategoryIllegalTransition
	case errors.Is(err, resource.ErrRunwayOccupied), errors.Is(err, resource.ErrGateOccupied):
		return CategoryDenied
	}
	return CategoryInternal
}
