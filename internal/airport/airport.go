package airport

import (
	"fmt"
	"sort"
	"time"

	"github.com/yegors/ground-atc/internal/physics"
	"github.com/yegors/ground-atc/pkg/types"
)

// ApproachDistance is how far out on the extended centreline an arrival starts its final (3 NM).
const ApproachDistance = 3 * physics.NauticalMileInM

// Reference is the geodetic anchor of the local airport plane
type Reference struct {
	Latitude    float64 `json:"latitude" toml:"latitude" yaml:"latitude"`
	Longitude   float64 `json:"longitude" toml:"longitude" yaml:"longitude"`
	ElevationFt float64 `json:"elevation_ft" toml:"elevation_ft" yaml:"elevation_ft"`
}

// Node is a taxiway graph vertex
type Node struct {
	ID       string     `json:"id"`
	Position types.Vec2 `json:"position"`
}

// Edge is an undirected taxiway segment between two nodes
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Runway is a single runway strip used in one direction
type Runway struct {
	ID              types.RunwayID `json:"id"`
	Threshold       types.Vec2     `json:"threshold"`
	End             types.Vec2     `json:"end"`
	HoldNode        string         `json:"hold_node"` // taxiway node at the hold-short line
	ExitNode        string         `json:"exit_node"` // taxiway node where landing traffic vacates
	TrueHeading     float64        `json:"true_heading"`
	MagneticHeading float64        `json:"magnetic_heading"`
	Length          float64        `json:"length_m"`
}

// Gate is a parking stand attached to the taxiway graph
type Gate struct {
	ID       types.GateID `json:"id"`
	Position types.Vec2   `json:"position"`
	Node     string       `json:"node"` // taxiway node reached at the end of pushback
}

// Model is an immutable airport topology
type Model struct {
	ICAO        string
	Name        string
	Reference   Reference
	Declination float64 // degrees, +East

	nodes   map[string]*Node
	edges   []Edge
	adj     map[string][]string
	runways map[types.RunwayID]*Runway
	gates   map[types.GateID]*Gate
}

// Build validates a layout and turns it into a Model
func Build(l Layout) (*Model, error) {
	m := &Model{
		ICAO:      l.ICAO,
		Name:      l.Name,
		Reference: l.Reference,
		nodes:     make(map[string]*Node, len(l.Nodes)),
		adj:       make(map[string][]string, len(l.Nodes)),
		runways:   make(map[types.RunwayID]*Runway, len(l.Runways)),
		gates:     make(map[types.GateID]*Gate, len(l.Gates)),
	}

	if l.MagneticVariation != nil {
		m.Declination = *l.MagneticVariation
	} else {
		m.Declination = physics.CalculateMagneticVariation(
			l.Reference.Latitude, l.Reference.Longitude, l.Reference.ElevationFt, time.Now().UTC())
	}

	for _, n := range l.Nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("node with empty id")
		}
		if _, dup := m.nodes[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node: %s", n.ID)
		}
		m.nodes[n.ID] = &Node{ID: n.ID, Position: types.Vec2{X: n.X, Y: n.Y}}
	}

	for _, e := range l.Edges {
		if _, ok := m.nodes[e.From]; !ok {
			return nil, fmt.Errorf("edge %s-%s: unknown node %s", e.From, e.To, e.From)
		}
		if _, ok := m.nodes[e.To]; !ok {
			return nil, fmt.Errorf("edge %s-%s: unknown node %s", e.From, e.To, e.To)
		}
		if e.From == e.To {
			return nil, fmt.Errorf("edge %s-%s: self loop", e.From, e.To)
		}
		m.edges = append(m.edges, Edge{From: e.From, To: e.To})
		m.adj[e.From] = append(m.adj[e.From], e.To)
		m.adj[e.To] = append(m.adj[e.To], e.From)
	}

	for _, r := range l.Runways {
		id := types.RunwayID(r.ID)
		if id == "" {
			return nil, fmt.Errorf("runway with empty id")
		}
		if _, dup := m.runways[id]; dup {
			return nil, fmt.Errorf("duplicate runway: %s", id)
		}
		if _, ok := m.nodes[r.HoldNode]; !ok {
			return nil, fmt.Errorf("runway %s: unknown hold node %q", id, r.HoldNode)
		}
		if _, ok := m.nodes[r.ExitNode]; !ok {
			return nil, fmt.Errorf("runway %s: unknown exit node %q", id, r.ExitNode)
		}
		length := r.Threshold.DistanceTo(r.End)
		if length == 0 {
			return nil, fmt.Errorf("runway %s: threshold and end coincide", id)
		}
		trueHeading := r.Threshold.HeadingTo(r.End)
		m.runways[id] = &Runway{
			ID:              id,
			Threshold:       r.Threshold,
			End:             r.End,
			HoldNode:        r.HoldNode,
			ExitNode:        r.ExitNode,
			TrueHeading:     trueHeading,
			MagneticHeading: physics.TrueToMagnetic(trueHeading, m.Declination),
			Length:          length,
		}
	}

	for _, g := range l.Gates {
		id := types.GateID(g.ID)
		if id == "" {
			return nil, fmt.Errorf("gate with empty id")
		}
		if _, dup := m.gates[id]; dup {
			return nil, fmt.Errorf("duplicate gate: %s", id)
		}
		if _, ok := m.nodes[g.Node]; !ok {
			return nil, fmt.Errorf("gate %s: unknown node %q", id, g.Node)
		}
		m.gates[id] = &Gate{ID: id, Position: g.Position, Node: g.Node}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks that the model can be operated: at least one runway and gate,
// and every gate connected to every runway through the taxiway graph.
func (m *Model) Validate() error {
	if len(m.runways) == 0 {
		return fmt.Errorf("airport has no runways")
	}
	if len(m.gates) == 0 {
		return fmt.Errorf("airport has no gates")
	}

	for _, g := range m.sortedGates() {
		for _, r := range m.sortedRunways() {
			if _, err := m.Path(g.Node, r.HoldNode); err != nil {
				return fmt.Errorf("gate %s cannot reach runway %s hold point: %w", g.ID, r.ID, err)
			}
			if _, err := m.Path(r.ExitNode, g.Node); err != nil {
				return fmt.Errorf("runway %s exit cannot reach gate %s: %w", r.ID, g.ID, err)
			}
		}
	}
	return nil
}

// Runway looks up a runway by id
func (m *Model) Runway(id types.RunwayID) (*Runway, bool) {
	r, ok := m.runways[id]
	return r, ok
}

// Gate looks up a gate by id
func (m *Model) Gate(id types.GateID) (*Gate, bool) {
	g, ok := m.gates[id]
	return g, ok
}

// Node looks up a taxiway node by id
func (m *Model) Node(id string) (*Node, bool) {
	n, ok := m.nodes[id]
	return n, ok
}

// RunwayIDs returns all runway ids in sorted order
func (m *Model) RunwayIDs() []types.RunwayID {
	ids := make([]types.RunwayID, 0, len(m.runways))
	for id := range m.runways {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// GateIDs returns all gate ids in sorted order
func (m *Model) GateIDs() []types.GateID {
	ids := make([]types.GateID, 0, len(m.gates))
	for id := range m.gates {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Nodes returns all taxiway nodes sorted by id
func (m *Model) Nodes() []Node {
	out := make([]Node, 0, len(m.nodes))
	for _, n := range m.nodes {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Edges returns the taxiway segments in declaration order
func (m *Model) Edges() []Edge {
	return append([]Edge(nil), m.edges...)
}

// ApproachFix is the point on the extended centreline where an arrival starts its final
func (m *Model) ApproachFix(r *Runway) types.Vec2 {
	dir := r.End.Sub(r.Threshold).Unit()
	return r.Threshold.Sub(dir.Scale(ApproachDistance))
}

// Geodetic converts a local position to latitude/longitude around the reference point
func (m *Model) Geodetic(p types.Vec2) (float64, float64) {
	return physics.LocalToGeodetic(m.Reference.Latitude, m.Reference.Longitude, p)
}

func (m *Model) sortedRunways() []*Runway {
	out := make([]*Runway, 0, len(m.runways))
	for _, id := range m.RunwayIDs() {
		out = append(out, m.runways[id])
	}
	return out
}

func (m *Model) sortedGates() []*Gate {
	out := make([]*Gate, 0, len(m.gates))
	for _, id := range m.GateIDs() {
		out = append(out, m.gates[id])
	}
	return out
}
