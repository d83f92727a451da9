package types

import (
	"math"
	"strings"
)

// AircraftID is an upper-cased callsign such as "UAL123"
type AircraftID string

// ParseAircraftID normalizes operator input into an AircraftID
func ParseAircraftID(s string) AircraftID {
	return AircraftID(strings.ToUpper(strings.TrimSpace(s)))
}

// RunwayID names a runway, e.g. "27"
type RunwayID string

// GateID names a gate, e.g. "5"
type GateID string

// Vec2 is a point or displacement on the airport plane in metres.
// X grows east, Y grows north.
type Vec2 struct {
	X float64 `json:"x" toml:"x" yaml:"x"`
	Y float64 `json:"y" toml:"y" yaml:"y"`
}

func (v Vec2) Add(o Vec2) Vec2           { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2           { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(k float64) Vec2      { return Vec2{v.X * k, v.Y * k} }
func (v Vec2) Len() float64              { return math.Hypot(v.X, v.Y) }
func (v Vec2) DistanceTo(o Vec2) float64 { return o.Sub(v).Len() }

// Lerp interpolates between v and o; t=0 yields v, t=1 yields o.
func (v Vec2) Lerp(o Vec2, t float64) Vec2 {
	return Vec2{v.X + (o.X-v.X)*t, v.Y + (o.Y-v.Y)*t}
}

// Unit returns the vector scaled to length 1, or the zero vector.
func (v Vec2) Unit() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return v.Scale(1 / l)
}

// HeadingTo returns the compass heading (0 = north, clockwise) from v to o in degrees.
func (v Vec2) HeadingTo(o Vec2) float64 {
	d := o.Sub(v)
	if d.X == 0 && d.Y == 0 {
		return 0
	}
	return NormalizeHeading(math.Atan2(d.X, d.Y) * 180 / math.Pi)
}

// NormalizeHeading wraps h into [0, 360).
func NormalizeHeading(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}
