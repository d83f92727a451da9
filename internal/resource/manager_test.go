package resource

import (
	"errors"
	"reflect"
	"testing"

	"github.com/yegors/ground-atc/pkg/types"
)

func newTestManager() *Manager {
	return NewManager([]types.RunwayID{"27", "9"}, []types.GateID{"1", "5"})
}

func TestRunwayMutualExclusion(t *testing.T) {
	m := newTestManager()

	if err := m.TryOccupyRunway("27", "UAL123", PurposeTakeoff); err != nil {
		t.Fatalf("first occupy: %v", err)
	}

	err := m.TryOccupyRunway("27", "DAL456", PurposeTakeoff)
	if !errors.Is(err, ErrRunwayOccupied) {
		t.Fatalf("second occupy error = %v, want ErrRunwayOccupied", err)
	}
	var denied *DeniedError
	if !errors.As(err, &denied) || denied.Occupant != "UAL123" {
		t.Errorf("denied error = %#v", err)
	}
	if got := m.RunwayOccupant("27"); got != "UAL123" {
		t.Errorf("occupant after denial = %q", got)
	}

	if err := m.TryOccupyRunway("9", "UAL123", PurposeTakeoff); err == nil {
		t.Error("aircraft occupying two runways was allowed")
	}
}

func TestReleaseRunwayServesQueueInOrder(t *testing.T) {
	m := newTestManager()
	must(t, m.TryOccupyRunway("27", "UAL123", PurposeTakeoff))
	must(t, m.EnqueueHoldShort("27", "DAL456"))
	must(t, m.EnqueueHoldShort("27", "AAL789"))
	must(t, m.EnqueueHoldShort("27", "DAL456")) // duplicate ignored

	next, ok := m.ReleaseRunway("27", "UAL123")
	if !ok || next != "DAL456" {
		t.Fatalf("first release = %q %v, want DAL456", next, ok)
	}
	if m.RunwayOccupant("27") != "" {
		t.Error("runway not cleared on release")
	}

	must(t, m.TryOccupyRunway("27", "DAL456", PurposeTakeoff))
	next, ok = m.ReleaseRunway("27", "DAL456")
	if !ok || next != "AAL789" {
		t.Fatalf("second release = %q %v, want AAL789", next, ok)
	}

	must(t, m.TryOccupyRunway("27", "AAL789", PurposeTakeoff))
	if next, ok = m.ReleaseRunway("27", "AAL789"); ok {
		t.Errorf("release with empty queue reported %q", next)
	}
}

func TestEligibleStaysQueuedUntilGranted(t *testing.T) {
	m := newTestManager()
	must(t, m.TryOccupyRunway("27", "CCC3", PurposeTakeoff))
	must(t, m.EnqueueHoldShort("27", "AAA1"))
	if next, _ := m.ReleaseRunway("27", "CCC3"); next != "AAA1" {
		t.Fatalf("eligible = %q, want AAA1", next)
	}

	// another aircraft takes the runway before AAA1 is cleared
	must(t, m.TryOccupyRunway("27", "DDD4", PurposeTakeoff))
	must(t, m.EnqueueHoldShort("27", "BBB2"))
	if got := m.Runways()[0].Queue; !reflect.DeepEqual(got, []types.AircraftID{"AAA1", "BBB2"}) {
		t.Fatalf("queue = %v, want [AAA1 BBB2]", got)
	}

	next, ok := m.ReleaseRunway("27", "DDD4")
	if !ok || next != "AAA1" {
		t.Fatalf("second release = %q %v, want AAA1", next, ok)
	}
	slot := m.Runways()[0]
	if slot.Eligible != "AAA1" || !reflect.DeepEqual(slot.Queue, []types.AircraftID{"AAA1", "BBB2"}) {
		t.Errorf("slot = %+v", slot)
	}

	must(t, m.TryOccupyRunway("27", "AAA1", PurposeTakeoff))
	slot = m.Runways()[0]
	if slot.Eligible != "" || !reflect.DeepEqual(slot.Queue, []types.AircraftID{"BBB2"}) {
		t.Errorf("after grant slot = %+v", slot)
	}
}

func TestReleaseByNonOccupantIsIgnored(t *testing.T) {
	m := newTestManager()
	must(t, m.TryOccupyRunway("27", "UAL123", PurposeLanding))
	if _, ok := m.ReleaseRunway("27", "DAL456"); ok {
		t.Error("non-occupant released the runway")
	}
	if m.RunwayOccupant("27") != "UAL123" {
		t.Error("occupant changed")
	}
	if m.ReleaseGate("1", "UAL123") {
		t.Error("released an empty gate")
	}
}

func TestGates(t *testing.T) {
	m := newTestManager()
	must(t, m.TryOccupyGate("5", "DAL456"))

	if err := m.TryOccupyGate("5", "UAL123"); !errors.Is(err, ErrGateOccupied) {
		t.Fatalf("error = %v, want ErrGateOccupied", err)
	}
	if err := m.TryOccupyGate("1", "DAL456"); err == nil {
		t.Error("aircraft occupying two gates was allowed")
	}
	if err := m.TryOccupyGate("42", "UAL123"); !errors.Is(err, ErrUnknownGate) {
		t.Errorf("error = %v, want ErrUnknownGate", err)
	}
	if !m.ReleaseGate("5", "DAL456") {
		t.Fatal("release failed")
	}
	must(t, m.TryOccupyGate("5", "UAL123"))
}

func TestTablesAreCopies(t *testing.T) {
	m := newTestManager()
	must(t, m.TryOccupyRunway("9", "UAL123", PurposeLanding))
	must(t, m.EnqueueHoldShort("9", "DAL456"))

	runways := m.Runways()
	want := []RunwaySlot{
		{ID: "27", Queue: []types.AircraftID{}},
		{ID: "9", Occupant: "UAL123", Purpose: PurposeLanding, Queue: []types.AircraftID{"DAL456"}},
	}
	if !reflect.DeepEqual(runways, want) {
		t.Fatalf("Runways() = %+v", runways)
	}

	runways[1].Queue[0] = "MUTATED"
	if got := m.Runways()[1].Queue[0]; got != "DAL456" {
		t.Errorf("copy aliases manager state: %q", got)
	}
}

func TestLeaveQueue(t *testing.T) {
	m := newTestManager()
	must(t, m.EnqueueHoldShort("27", "A"))
	must(t, m.EnqueueHoldShort("27", "B"))
	m.LeaveQueue("27", "A")
	if got := m.Runways()[0].Queue; !reflect.DeepEqual(got, []types.AircraftID{"B"}) {
		t.Errorf("queue = %v", got)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
