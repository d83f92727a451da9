package simulation

import (
	"github.com/yegors/ground-atc/internal/aircraft"
	"github.com/yegors/ground-atc/pkg/types"
)

// Tower is the sender of every controller transmission
const Tower = "TWR"

// RadioMessage is one transmission on the ground frequency
type RadioMessage struct {
	SimTimeSeconds float64 `json:"sim_time_seconds"`
	From           string  `json:"from"`
	Text           string  `json:"text"`
}

// radioLog keeps the last size messages in order
type radioLog struct {
	size     int
	messages []RadioMessage
}

func newRadioLog(size int) *radioLog {
	return &radioLog{size: size}
}

func (r *radioLog) add(m RadioMessage) {
	if r.size <= 0 {
		return
	}
	r.messages = append(r.messages, m)
	if over := len(r.messages) - r.size; over > 0 {
		r.messages = append(r.messages[:0:0], r.messages[over:]...)
	}
}

func (r *radioLog) snapshot() []RadioMessage {
	return append([]RadioMessage{}, r.messages...)
}

// pilotReport is what an aircraft says when it reaches a milestone on its own
func pilotReport(ev aircraft.Event) string {
	who := aircraft.Spoken(ev.Aircraft)
	switch ev.Kind {
	case aircraft.EventPushbackComplete:
		return who + ", pushback complete, ready to taxi."
	case aircraft.EventRunwayVacated:
		return who + ", clear of runway " + string(ev.Runway) + "."
	case aircraft.EventReadyForPushback:
		return who + ", gate " + string(ev.Gate) + ", ready for pushback."
	case aircraft.EventHoldShortReached:
		return who + ", holding short runway " + string(ev.Runway) + "."
	}
	return ""
}

func onFinal(id types.AircraftID, r types.RunwayID) string {
	return aircraft.Spoken(id) + ", on final runway " + string(r) + "."
}
