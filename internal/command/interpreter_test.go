package command

import (
	"errors"
	"testing"

	"github.com/yegors/ground-atc/internal/airport"
	"github.com/yegors/ground-atc/pkg/types"
)

type fakeRegistry struct {
	aircraft map[types.AircraftID]bool
	model    *airport.Model
}

func (f fakeRegistry) HasAircraft(id types.AircraftID) bool { return f.aircraft[id] }
func (f fakeRegistry) Airport() *airport.Model             { return f.model }

func newRegistry() fakeRegistry {
	return fakeRegistry{
		aircraft: map[types.AircraftID]bool{"UAL123": true, "DAL456": true},
		model:    airport.Default(),
	}
}

func TestInterpret(t *testing.T) {
	reg := newRegistry()

	tests := []struct {
		line string
		want Instruction
	}{
		{"l UAL123 27", Instruction{Kind: Land, Aircraft: "UAL123", Runway: "27"}},
		{"t UAL123 9", Instruction{Kind: Takeoff, Aircraft: "UAL123", Runway: "9"}},
		{"hp DAL456", Instruction{Kind: HoldPosition, Aircraft: "DAL456"}},
		{"p UAL123", Instruction{Kind: Pushback, Aircraft: "UAL123"}},
		{"tor UAL123 27", Instruction{Kind: TaxiOntoRunway, Aircraft: "UAL123", Runway: "27"}},
		{"hs DAL456 27", Instruction{Kind: HoldShort, Aircraft: "DAL456", Runway: "27"}},
		{"t2g UAL123 5", Instruction{Kind: TaxiToGate, Aircraft: "UAL123", Gate: "5"}},
		{"  TOR   ual123\t27 ", Instruction{Kind: TaxiOntoRunway, Aircraft: "UAL123", Runway: "27"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := Interpret(tt.line, reg)
			if err != nil {
				t.Fatalf("Interpret(%q): %v", tt.line, err)
			}
			if got != tt.want {
				t.Errorf("Interpret(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestInterpretErrors(t *testing.T) {
	reg := newRegistry()

	tests := []struct {
		line string
		want error
	}{
		{"", ErrUnknownCommand},
		{"x UAL123", ErrUnknownCommand},
		{"land UAL123 27", ErrUnknownCommand},
		{"l UAL123", ErrArityMismatch},
		{"p UAL123 5", ErrArityMismatch},
		{"t2g UAL123", ErrArityMismatch},
		{"l GHOST 9", ErrUnknownAircraft},
		{"tor UAL123 36", ErrUnknownRunway},
		{"t2g UAL123 99", ErrUnknownGate},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, err := Interpret(tt.line, reg)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Interpret(%q) error = %v, want %v", tt.line, err, tt.want)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error is not a *ParseError: %T", err)
			}
			if pe.Error() == "" {
				t.Error("empty error message")
			}
		})
	}
}

func TestInstructionString(t *testing.T) {
	in := Instruction{Kind: TaxiToGate, Aircraft: "UAL123", Gate: "5"}
	if got := in.String(); got != "t2g UAL123 5" {
		t.Errorf("String() = %q", got)
	}
	if got := (Instruction{Kind: HoldPosition, Aircraft: "DAL456"}).String(); got != "hp DAL456" {
		t.Errorf("String() = %q", got)
	}
}
