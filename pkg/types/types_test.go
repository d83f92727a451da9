package types

import (
	"math"
	"testing"
)

func TestHeadingTo(t *testing.T) {
	origin := Vec2{}
	tests := []struct {
		name string
		to   Vec2
		want float64
	}{
		{"north", Vec2{0, 10}, 0},
		{"east", Vec2{10, 0}, 90},
		{"south", Vec2{0, -10}, 180},
		{"west", Vec2{-10, 0}, 270},
		{"same point", Vec2{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := origin.HeadingTo(tt.to); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("HeadingTo(%v) = %v, want %v", tt.to, got, tt.want)
			}
		})
	}
}

func TestParseAircraftID(t *testing.T) {
	if got := ParseAircraftID("  ual123 "); got != "UAL123" {
		t.Errorf("ParseAircraftID = %q", got)
	}
}

func TestLerp(t *testing.T) {
	got := Vec2{0, 0}.Lerp(Vec2{10, 20}, 0.5)
	if got != (Vec2{5, 10}) {
		t.Errorf("Lerp = %v", got)
	}
}
