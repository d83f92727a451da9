package aircraft

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/yegors/ground-atc/pkg/types"
)

// Airline is a callsign prefix and its radio telephony designator
type Airline struct {
	ICAO      string
	IATA      string
	Telephony string
}

// Airlines known to the phraseology and the arrival spawner
var Airlines = []Airline{
	{"AAL", "AA", "American"},
	{"DAL", "DL", "Delta"},
	{"UAL", "UA", "United"},
	{"BAW", "BA", "Speedbird"},
	{"AFR", "AF", "Airfrance"},
	{"DLH", "LH", "Lufthansa"},
	{"UAE", "EK", "Emirates"},
	{"QFA", "QF", "Qantas"},
	{"ASA", "AS", "Alaska"},
	{"SWA", "WN", "Southwest"},
	{"AIC", "AI", "Air India"},
}

var telephony = func() map[string]string {
	m := make(map[string]string, 2*len(Airlines))
	for _, a := range Airlines {
		m[a.ICAO] = a.Telephony
		m[a.IATA] = a.Telephony
	}
	return m
}()

// Spoken renders a callsign the way a controller says it: "UAL123" -> "United 123".
// Unknown prefixes are read as written.
func Spoken(id types.AircraftID) string {
	s := string(id)
	i := strings.IndexFunc(s, unicode.IsDigit)
	if i <= 0 {
		return s
	}
	if name, ok := telephony[s[:i]]; ok {
		return name + " " + s[i:]
	}
	return s
}

func LandingClearance(id types.AircraftID, r types.RunwayID) string {
	return fmt.Sprintf("%s, cleared to land runway %s.", Spoken(id), r)
}

func TakeoffClearance(id types.AircraftID, r types.RunwayID) string {
	return fmt.Sprintf("%s, runway %s, cleared for takeoff.", Spoken(id), r)
}

func HoldPositionClearance(id types.AircraftID) string {
	return fmt.Sprintf("%s, hold position.", Spoken(id))
}

func Continue(id types.AircraftID) string {
	return fmt.Sprintf("%s, continue.", Spoken(id))
}

func PushbackClearance(id types.AircraftID, expect types.RunwayID) string {
	if expect == "" {
		return fmt.Sprintf("%s, pushback approved.", Spoken(id))
	}
	return fmt.Sprintf("%s, pushback approved, expect runway %s for departure.", Spoken(id), expect)
}

func LineUpClearance(id types.AircraftID, r types.RunwayID) string {
	return fmt.Sprintf("%s, taxi directly to runway %s, line up and wait.", Spoken(id), r)
}

func HoldShortClearance(id types.AircraftID, r types.RunwayID) string {
	return fmt.Sprintf("%s, hold short of runway %s.", Spoken(id), r)
}

func TaxiToGateClearance(id types.AircraftID, g types.GateID, via []string) string {
	if len(via) == 0 {
		return fmt.Sprintf("%s, taxi to gate %s.", Spoken(id), g)
	}
	return fmt.Sprintf("%s, taxi to gate %s via %s.", Spoken(id), g, strings.Join(via, " "))
}

// RunwayClear tells the head of a hold-short queue that it may be cleared next
func RunwayClear(id types.AircraftID, r types.RunwayID) string {
	return fmt.Sprintf("%s, runway %s is clear, expect clearance.", Spoken(id), r)
}
