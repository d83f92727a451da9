package simulation

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/yegors/ground-atc/internal/aircraft"
	"github.com/yegors/ground-atc/pkg/types"
)

// SpawnOptions controls automatic arrivals
type SpawnOptions struct {
	Enabled     bool
	Interval    time.Duration // simulated time between attempts
	MaxArrivals int           // aircraft on approach at once
	Seed        int64         // 0 = seed from the wall clock
}

type spawner struct {
	opts    SpawnOptions
	rng     *rand.Rand
	elapsed time.Duration
}

func newSpawner(opts SpawnOptions) *spawner {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &spawner{opts: opts, rng: rand.New(rand.NewSource(seed))}
}

// due accumulates simulated time and reports whether an attempt should be made
func (sp *spawner) due(elapsed time.Duration) bool {
	if !sp.opts.Enabled || sp.opts.Interval <= 0 {
		return false
	}
	sp.elapsed += elapsed
	if sp.elapsed < sp.opts.Interval {
		return false
	}
	sp.elapsed -= sp.opts.Interval
	return true
}

// callsign picks an unused airline callsign, numbered 100..399
func (sp *spawner) callsign(taken func(types.AircraftID) bool) (types.AircraftID, bool) {
	for range 20 {
		airline := aircraft.Airlines[sp.rng.Intn(len(aircraft.Airlines))]
		id := types.AircraftID(fmt.Sprintf("%s%d", airline.ICAO, 100+sp.rng.Intn(300)))
		if !taken(id) {
			return id, true
		}
	}
	return "", false
}

func (sp *spawner) runway(ids []types.RunwayID) types.RunwayID {
	return ids[sp.rng.Intn(len(ids))]
}
