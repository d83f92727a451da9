package simulation

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/yegors/ground-atc/internal/aircraft"
	"github.com/yegors/ground-atc/internal/airport"
	"github.com/yegors/ground-atc/internal/resource"
	"github.com/yegors/ground-atc/pkg/types"
)

// Stats are the session counters shown on the display
type Stats struct {
	Commands   int `json:"commands"`
	Departures int `json:"departures"`
	Arrivals   int `json:"arrivals"`
	Denials    int `json:"denials"`
	Rejections int `json:"rejections"`
	Spawned    int `json:"spawned"`
}

// AirportView is the static topology sent with every snapshot
type AirportView struct {
	ICAO        string            `json:"icao"`
	Name        string            `json:"name"`
	Reference   airport.Reference `json:"reference"`
	Declination float64           `json:"declination"`
	Nodes       []airport.Node    `json:"nodes"`
	Edges       []airport.Edge    `json:"edges"`
	Runways     []airport.Runway  `json:"runways"`
	Gates       []airport.Gate    `json:"gates"`
}

func newAirportView(m *airport.Model) AirportView {
	v := AirportView{
		ICAO:        m.ICAO,
		Name:        m.Name,
		Reference:   m.Reference,
		Declination: m.Declination,
		Nodes:       m.Nodes(),
		Edges:       m.Edges(),
	}
	for _, id := range m.RunwayIDs() {
		r, _ := m.Runway(id)
		v.Runways = append(v.Runways, *r)
	}
	for _, id := range m.GateIDs() {
		g, _ := m.Gate(id)
		v.Gates = append(v.Gates, *g)
	}
	return v
}

// AircraftView is one aircraft as the renderer sees it
type AircraftView struct {
	ID         types.AircraftID `json:"id"`
	State      aircraft.Phase   `json:"state"`
	Label      string           `json:"label"`
	Runway     types.RunwayID   `json:"runway,omitempty"`
	Gate       types.GateID     `json:"gate,omitempty"`
	Node       string           `json:"node,omitempty"`
	Held       *aircraft.State  `json:"held,omitempty"`
	Position   types.Vec2       `json:"position"`
	Latitude   float64          `json:"latitude"`
	Longitude  float64          `json:"longitude"`
	Heading    float64          `json:"heading"`
	Progress   float64          `json:"progress"`
	Turnaround string           `json:"turnaround,omitempty"`
	Clearance  string           `json:"clearance,omitempty"`
}

// View is an immutable, point-in-time copy of the world. It is never modified
// after publication, so any number of readers may hold it.
type View struct {
	Sequence       uint64                `json:"sequence"`
	SimTimeSeconds float64               `json:"sim_time_seconds"`
	Airport        *AirportView          `json:"airport"`
	Aircraft       []AircraftView        `json:"aircraft"`
	Runways        []resource.RunwaySlot `json:"runways"`
	Gates          []resource.GateSlot   `json:"gates"`
	Stats          Stats                 `json:"stats"`
	Radio          []RadioMessage        `json:"radio"`

	once    sync.Once
	encoded []byte
	err     error
}

// JSON returns the encoded view; repeated calls return the same bytes
func (v *View) JSON() ([]byte, error) {
	v.once.Do(func() {
		v.encoded, v.err = json.Marshal(v)
	})
	return v.encoded, v.err
}

// Find looks up one aircraft in the view
func (v *View) Find(id types.AircraftID) (AircraftView, bool) {
	i := sort.Search(len(v.Aircraft), func(i int) bool { return v.Aircraft[i].ID >= id })
	if i < len(v.Aircraft) && v.Aircraft[i].ID == id {
		return v.Aircraft[i], true
	}
	return AircraftView{}, false
}

// Count returns the number of aircraft in each phase
func (v *View) Count() map[aircraft.Phase]int {
	out := make(map[aircraft.Phase]int)
	for _, a := range v.Aircraft {
		out[a.State]++
	}
	return out
}

func newAircraftView(a *aircraft.Aircraft, m *airport.Model) AircraftView {
	lat, lon := m.Geodetic(a.Position)
	v := AircraftView{
		ID:         a.ID,
		State:      a.State.Phase,
		Label:      a.State.String(),
		Runway:     a.Location.Runway,
		Gate:       a.Location.Gate,
		Node:       a.Location.Node,
		Position:   a.Position,
		Latitude:   lat,
		Longitude:  lon,
		Heading:    a.Heading,
		Progress:   a.Progress,
		Turnaround: a.TurnaroundStage(),
		Clearance:  a.Clearance,
	}
	if a.Held != nil {
		held := *a.Held
		v.Held = &held
	}
	return v
}
