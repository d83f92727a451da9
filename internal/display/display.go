// Package display renders snapshots as a text dashboard for the simulator's terminal.
package display

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/yegors/ground-atc/internal/aircraft"
	"github.com/yegors/ground-atc/internal/simulation"
	"github.com/yegors/ground-atc/pkg/logger"
)

const clearScreen = "\033[H\033[2J"

// Source provides the latest snapshot
type Source interface {
	Snapshot() *simulation.View
}

// Options configures the dashboard
type Options struct {
	Refresh     time.Duration
	RadioLines  int
	ClearScreen bool
}

// Display periodically redraws the latest snapshot
type Display struct {
	src    Source
	out    io.Writer
	opts   Options
	last   uint64
	drawn  bool
	logger *logger.Logger
}

// New creates a display writing to out
func New(src Source, out io.Writer, opts Options, log *logger.Logger) *Display {
	if opts.Refresh <= 0 {
		opts.Refresh = 500 * time.Millisecond
	}
	return &Display{src: src, out: out, opts: opts, logger: log.Named("display")}
}

// Run redraws whenever a newer snapshot is published, until ctx is done
func (d *Display) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.opts.Refresh)
	defer ticker.Stop()

	d.Draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.Draw()
		}
	}
}

// Draw writes the current snapshot if it changed since the last draw.
// It reports whether anything was written.
func (d *Display) Draw() bool {
	v := d.src.Snapshot()
	if v == nil || (d.drawn && v.Sequence == d.last) {
		return false
	}
	d.last, d.drawn = v.Sequence, true

	var b strings.Builder
	if d.opts.ClearScreen {
		b.WriteString(clearScreen)
	}
	b.WriteString(Render(v, d.opts.RadioLines))
	b.WriteString("\n")
	if _, err := io.WriteString(d.out, b.String()); err != nil {
		d.logger.Warn("Failed to draw dashboard", logger.Error(err))
	}
	return true
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	towerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	pilotStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
)

var phaseColors = map[aircraft.Phase]lipgloss.Color{
	aircraft.AtGate:          "244",
	aircraft.Pushback:        "208",
	aircraft.Taxiing:         "46",
	aircraft.HoldShort:       "226",
	aircraft.OnRunwayTakeoff: "196",
	aircraft.OnRunwayLanding: "196",
	aircraft.Approaching:     "75",
	aircraft.HoldingPosition: "214",
	aircraft.Departed:        "237",
}

// Render formats a view as the dashboard text
func Render(v *simulation.View, radioLines int) string {
	sections := []string{
		renderHeader(v),
		renderPhaseCounts(v),
		boxStyle.Render(renderAircraft(v)),
		lipgloss.JoinHorizontal(lipgloss.Top,
			boxStyle.Render(renderRunways(v)),
			" ",
			boxStyle.Render(renderGates(v)),
		),
	}
	if radioLines > 0 {
		sections = append(sections, boxStyle.Render(renderRadio(v, radioLines)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderHeader(v *simulation.View) string {
	name := "Ground ATC"
	if v.Airport != nil {
		name = fmt.Sprintf("%s %s", v.Airport.ICAO, v.Airport.Name)
	}
	st := v.Stats
	return titleStyle.Render(name) + "  " + dimStyle.Render(fmt.Sprintf(
		"T+%s  seq %d  cmds %d  dep %d  arr %d  denied %d  rejected %d",
		FormatSimTime(v.SimTimeSeconds), v.Sequence,
		st.Commands, st.Departures, st.Arrivals, st.Denials, st.Rejections))
}

var phaseOrder = []aircraft.Phase{
	aircraft.Approaching, aircraft.OnRunwayLanding, aircraft.AtGate, aircraft.Pushback,
	aircraft.Taxiing, aircraft.HoldShort, aircraft.OnRunwayTakeoff, aircraft.HoldingPosition,
	aircraft.Departed,
}

func renderPhaseCounts(v *simulation.View) string {
	counts := v.Count()
	var parts []string
	for _, p := range phaseOrder {
		if n := counts[p]; n > 0 {
			parts = append(parts, lipgloss.NewStyle().Foreground(phaseColors[p]).Render(fmt.Sprintf("%s %d", p, n)))
		}
	}
	if len(parts) == 0 {
		return dimStyle.Render("no traffic")
	}
	return strings.Join(parts, "  ")
}

func renderAircraft(v *simulation.View) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-8s %-24s %-6s %5s  %s", "FLIGHT", "STATE", "NODE", "PROG", "NOTE")))
	if len(v.Aircraft) == 0 {
		b.WriteString("\n" + dimStyle.Render("no aircraft"))
		return b.String()
	}
	for _, a := range v.Aircraft {
		label := a.Label
		if a.Held != nil {
			label = "Hold(" + a.Held.String() + ")"
		}
		note := a.Turnaround
		if a.State == aircraft.Approaching || a.State == aircraft.Departed {
			note = ""
		}
		line := fmt.Sprintf("%-8s %-24s %-6s %4.0f%%  %s", a.ID, label, a.Node, a.Progress*100, note)
		style := lipgloss.NewStyle().Foreground(phaseColors[a.State])
		b.WriteString("\n" + style.Render(line))
	}
	return b.String()
}

func renderRunways(v *simulation.View) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-4s %-10s %-9s %s", "RWY", "OCCUPANT", "PURPOSE", "HOLDING")))
	for _, r := range v.Runways {
		occupant := string(r.Occupant)
		if occupant == "" {
			occupant = "-"
		}
		queue := make([]string, len(r.Queue))
		for i, id := range r.Queue {
			queue[i] = string(id)
			if id == r.Eligible {
				queue[i] = "*" + queue[i]
			}
		}
		b.WriteString(fmt.Sprintf("\n%-4s %-10s %-9s %s", r.ID, occupant, r.Purpose, strings.Join(queue, " ")))
	}
	return b.String()
}

func renderGates(v *simulation.View) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-5s %s", "GATE", "OCCUPANT")))
	for _, g := range v.Gates {
		occupant := string(g.Occupant)
		if occupant == "" {
			occupant = dimStyle.Render("free")
		}
		b.WriteString(fmt.Sprintf("\n%-5s %s", g.ID, occupant))
	}
	return b.String()
}

func renderRadio(v *simulation.View, lines int) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("RADIO"))
	msgs := v.Radio
	if len(msgs) > lines {
		msgs = msgs[len(msgs)-lines:]
	}
	for _, m := range msgs {
		style := pilotStyle
		if m.From == simulation.Tower {
			style = towerStyle
		}
		b.WriteString(fmt.Sprintf("\n%s %s %s",
			dimStyle.Render(FormatSimTime(m.SimTimeSeconds)),
			style.Render(fmt.Sprintf("%-6s", m.From)),
			m.Text))
	}
	return b.String()
}

// FormatSimTime renders simulated seconds as h:mm:ss
func FormatSimTime(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second)).Truncate(time.Second)
	h := int(d / time.Hour)
	m := int(d%time.Hour) / int(time.Minute)
	s := int(d%time.Minute) / int(time.Second)
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
