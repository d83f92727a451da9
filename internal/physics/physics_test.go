package physics

import (
	"math"
	"testing"

	"github.com/yegors/ground-atc/pkg/types"
)

func TestHeadingToVector(t *testing.T) {
	tests := []struct {
		heading float64
		want    types.Vec2
	}{
		{0, types.Vec2{X: 0, Y: 100}},
		{90, types.Vec2{X: 100, Y: 0}},
		{270, types.Vec2{X: -100, Y: 0}},
	}
	for _, tt := range tests {
		got := HeadingToVector(tt.heading, 100)
		if math.Abs(got.X-tt.want.X) > 1e-9 || math.Abs(got.Y-tt.want.Y) > 1e-9 {
			t.Errorf("HeadingToVector(%v) = %v, want %v", tt.heading, got, tt.want)
		}
	}
}

func TestRunwayNumber(t *testing.T) {
	tests := map[float64]int{
		270:   27,
		90:    9,
		3:     36,
		358:   36,
		184.6: 18,
		-10:   35,
	}
	for heading, want := range tests {
		if got := RunwayNumber(heading); got != want {
			t.Errorf("RunwayNumber(%v) = %d, want %d", heading, got, want)
		}
	}
}

func TestTrueToMagnetic(t *testing.T) {
	if got := TrueToMagnetic(5, 10); got != 355 {
		t.Errorf("TrueToMagnetic(5, 10) = %v, want 355", got)
	}
	if got := TrueToMagnetic(270, -10); got != 280 {
		t.Errorf("TrueToMagnetic(270, -10) = %v, want 280", got)
	}
}

func TestLocalToGeodetic(t *testing.T) {
	lat, lon := LocalToGeodetic(45, -73, types.Vec2{})
	if lat != 45 || lon != -73 {
		t.Fatalf("origin moved: %v %v", lat, lon)
	}
	lat, _ = LocalToGeodetic(45, -73, types.Vec2{Y: MetresPerDegLat})
	if math.Abs(lat-46) > 1e-9 {
		t.Errorf("one degree north = %v", lat)
	}
}
