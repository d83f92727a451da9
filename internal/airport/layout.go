package airport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/yegors/ground-atc/pkg/types"
)

// Layout is the on-disk description of an airport (TOML or YAML)
type Layout struct {
	ICAO              string       `toml:"icao" yaml:"icao"`
	Name              string       `toml:"name" yaml:"name"`
	Reference         Reference    `toml:"reference" yaml:"reference"`
	MagneticVariation *float64     `toml:"magnetic_variation" yaml:"magnetic_variation"` // Overrides the WMM declination when set
	Nodes             []NodeSpec   `toml:"nodes" yaml:"nodes"`
	Edges             []EdgeSpec   `toml:"edges" yaml:"edges"`
	Runways           []RunwaySpec `toml:"runways" yaml:"runways"`
	Gates             []GateSpec   `toml:"gates" yaml:"gates"`
}

type NodeSpec struct {
	ID string  `toml:"id" yaml:"id"`
	X  float64 `toml:"x" yaml:"x"`
	Y  float64 `toml:"y" yaml:"y"`
}

type EdgeSpec struct {
	From string `toml:"from" yaml:"from"`
	To   string `toml:"to" yaml:"to"`
}

type RunwaySpec struct {
	ID        string     `toml:"id" yaml:"id"`
	Threshold types.Vec2 `toml:"threshold" yaml:"threshold"`
	End       types.Vec2 `toml:"end" yaml:"end"`
	HoldNode  string     `toml:"hold_node" yaml:"hold_node"`
	ExitNode  string     `toml:"exit_node" yaml:"exit_node"`
}

type GateSpec struct {
	ID       string     `toml:"id" yaml:"id"`
	Position types.Vec2 `toml:"position" yaml:"position"`
	Node     string     `toml:"node" yaml:"node"`
}

// LoadFile reads a layout file, choosing the decoder from the extension, and builds the model
func LoadFile(path string) (*Model, error) {
	layout, err := ReadLayout(path)
	if err != nil {
		return nil, err
	}
	m, err := Build(*layout)
	if err != nil {
		return nil, fmt.Errorf("invalid airport layout %s: %w", path, err)
	}
	return m, nil
}

// ReadLayout decodes a layout file without building it
func ReadLayout(path string) (*Layout, error) {
	var layout Layout

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, &layout); err != nil {
			return nil, fmt.Errorf("failed to decode airport layout: %w", err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read airport layout: %w", err)
		}
		if err := yaml.Unmarshal(data, &layout); err != nil {
			return nil, fmt.Errorf("failed to unmarshal airport layout: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported airport layout format: %s", path)
	}

	return &layout, nil
}

// Default returns the built-in two-runway airport.
//
// Runway 27 lies along y=0 and is served by taxiway A (y=150); runway 9 lies along
// y=600 and is served by taxiway B (y=450). The apron sits between them at y=300
// with gates 1..6 on its south side.
func Default() *Model {
	m, err := Build(DefaultLayout())
	if err != nil {
		panic(fmt.Sprintf("built-in airport layout is invalid: %v", err))
	}
	return m
}

// DefaultLayout is the layout behind Default
func DefaultLayout() Layout {
	l := Layout{
		ICAO:      "CYYZ",
		Name:      "Ground ATC Field",
		Reference: Reference{Latitude: 43.6777, Longitude: -79.6248, ElevationFt: 569},
	}

	xs := []float64{-1400, -700, 0, 700, 1400}
	for i, x := range xs {
		l.Nodes = append(l.Nodes,
			NodeSpec{ID: fmt.Sprintf("A%d", i+1), X: x, Y: 150},
			NodeSpec{ID: fmt.Sprintf("B%d", i+1), X: x, Y: 450},
		)
		if i > 0 {
			l.Edges = append(l.Edges,
				EdgeSpec{From: fmt.Sprintf("A%d", i), To: fmt.Sprintf("A%d", i+1)},
				EdgeSpec{From: fmt.Sprintf("B%d", i), To: fmt.Sprintf("B%d", i+1)},
			)
		}
	}

	apron := []float64{-750, -450, -150, 150, 450, 750}
	for i, x := range apron {
		id := fmt.Sprintf("P%d", i+1)
		l.Nodes = append(l.Nodes, NodeSpec{ID: id, X: x, Y: 300})
		l.Gates = append(l.Gates, GateSpec{
			ID:       fmt.Sprintf("%d", i+1),
			Position: types.Vec2{X: x, Y: 240},
			Node:     id,
		})
	}
	l.Nodes = append(l.Nodes, NodeSpec{ID: "C", X: 0, Y: 300})
	l.Edges = append(l.Edges,
		EdgeSpec{From: "P1", To: "P2"},
		EdgeSpec{From: "P2", To: "P3"},
		EdgeSpec{From: "P3", To: "C"},
		EdgeSpec{From: "C", To: "P4"},
		EdgeSpec{From: "P4", To: "P5"},
		EdgeSpec{From: "P5", To: "P6"},
		EdgeSpec{From: "A2", To: "P1"},
		EdgeSpec{From: "P1", To: "B2"},
		EdgeSpec{From: "A4", To: "P6"},
		EdgeSpec{From: "P6", To: "B4"},
		EdgeSpec{From: "A3", To: "C"},
		EdgeSpec{From: "C", To: "B3"},
	)

	l.Runways = []RunwaySpec{
		{ID: "27", Threshold: types.Vec2{X: 1500, Y: 0}, End: types.Vec2{X: -1500, Y: 0}, HoldNode: "A5", ExitNode: "A1"},
		{ID: "9", Threshold: types.Vec2{X: -1500, Y: 600}, End: types.Vec2{X: 1500, Y: 600}, HoldNode: "B1", ExitNode: "B5"},
	}
	return l
}
