package clock

import (
	"context"
	"time"

	"github.com/yegors/ground-atc/internal/aircraft"
)

// Rates converts simulated time into maneuver progress
type Rates struct {
	Pushback   time.Duration // gate to pushback node
	Rollout    time.Duration // threshold to exit node after touchdown
	Approach   time.Duration // approach fix to threshold
	Turnaround time.Duration // full turnaround at the gate
	TaxiSpeed  float64       // metres per second on taxiways and line-up
}

// DefaultRates are used when the configuration leaves a rate unset
func DefaultRates() Rates {
	return Rates{
		Pushback:   20 * time.Second,
		Rollout:    30 * time.Second,
		Approach:   90 * time.Second,
		Turnaround: 5 * time.Minute,
		TaxiSpeed:  10,
	}
}

// Delta is the progress fraction a gains over elapsed in its current phase.
// Distance-based phases divide by the current path length.
func (r Rates) Delta(a *aircraft.Aircraft, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	switch a.State.Phase {
	case aircraft.AtGate:
		return fraction(elapsed, r.Turnaround)
	case aircraft.Pushback:
		return fraction(elapsed, r.Pushback)
	case aircraft.OnRunwayLanding:
		return fraction(elapsed, r.Rollout)
	case aircraft.Approaching:
		return fraction(elapsed, r.Approach)
	case aircraft.Taxiing, aircraft.HoldShort, aircraft.OnRunwayTakeoff:
		length := a.PathLength()
		if length <= 0 || r.TaxiSpeed <= 0 {
			return 1
		}
		return r.TaxiSpeed * elapsed.Seconds() / length
	}
	return 0
}

func fraction(elapsed, total time.Duration) float64 {
	if total <= 0 {
		return 1
	}
	return float64(elapsed) / float64(total)
}

// Tick advances every aircraft in fleet by elapsed simulated time and returns
// the implicit transitions that fired, in fleet order.
func Tick(fleet []*aircraft.Aircraft, env aircraft.Env, rates Rates, elapsed time.Duration) []aircraft.Event {
	var events []aircraft.Event
	for _, a := range fleet {
		if ev := a.Advance(rates.Delta(a, elapsed), env); ev != nil {
			events = append(events, *ev)
		}
	}
	return events
}

// Clock drives a callback at a fixed wall-clock period, scaled to simulated time
type Clock struct {
	Period time.Duration
	Scale  float64
}

// New returns a clock. Non-positive values fall back to 100ms and real time.
func New(period time.Duration, scale float64) *Clock {
	if period <= 0 {
		period = 100 * time.Millisecond
	}
	if scale <= 0 {
		scale = 1
	}
	return &Clock{Period: period, Scale: scale}
}

// Step is the simulated time covered by one period
func (c *Clock) Step() time.Duration {
	return time.Duration(float64(c.Period) * c.Scale)
}

// Run calls fn once per period until ctx is done
func (c *Clock) Run(ctx context.Context, fn func(elapsed time.Duration)) {
	ticker := time.NewTicker(c.Period)
	defer ticker.Stop()

	step := c.Step()
	for {
		select {
		case <-ticker.C:
			fn(step)
		case <-ctx.Done():
			return
		}
	}
}
