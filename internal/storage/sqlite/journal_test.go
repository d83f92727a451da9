package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/yegors/ground-atc/internal/simulation"
	"github.com/yegors/ground-atc/pkg/logger"
)

func openTestStorage(t *testing.T, maxRows int) *JournalStorage {
	t.Helper()
	s, err := NewJournalStorage(filepath.Join(t.TempDir(), "journal.db"), maxRows, logger.NewNop())
	if err != nil {
		t.Fatalf("NewJournalStorage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCommandsRoundTrip(t *testing.T) {
	s := openTestStorage(t, 100)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)

	recs := []*simulation.CommandRecord{
		{ID: "c1", Line: "p UAL123", Aircraft: "UAL123", Command: "p", Accepted: true, SimTimeSeconds: 1.5, CreatedAt: created},
		{ID: "c2", Line: "XX nope", Category: simulation.CategoryParse, Message: "unknown aircraft", SimTimeSeconds: 2, CreatedAt: created.Add(time.Second)},
		{ID: "c3", Line: "t DAL456 9", Aircraft: "DAL456", Command: "t", Category: simulation.CategoryIllegalTransition, Message: "illegal", SimTimeSeconds: 3, CreatedAt: created.Add(2 * time.Second)},
	}
	for _, r := range recs {
		if err := s.SaveCommand(ctx, r); err != nil {
			t.Fatalf("SaveCommand(%s): %v", r.ID, err)
		}
	}

	got, err := s.ListCommands(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListCommands: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d commands, want 3", len(got))
	}
	if got[0].ID != "c3" || got[2].ID != "c1" {
		t.Errorf("order = %s,%s,%s, want newest first", got[0].ID, got[1].ID, got[2].ID)
	}
	first := got[2]
	if !first.Accepted || first.Aircraft != "UAL123" || first.Command != "pb" || first.SimTimeSeconds != 1.5 {
		t.Errorf("c1 = %+v", first)
	}
	if !first.CreatedAt.Equal(created) {
		t.Errorf("created_at = %v, want %v", first.CreatedAt, created)
	}
	if got[1].Category != simulation.CategoryParse || got[1].Aircraft != "" {
		t.Errorf("c2 = %+v", got[1])
	}

	t.Run("filter by aircraft", func(t *testing.T) {
		got, err := s.ListCommands(ctx, "DAL456", 10)
		if err != nil {
			t.Fatalf("ListCommands: %v", err)
		}
		if len(got) != 1 || got[0].ID != "c3" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("limit", func(t *testing.T) {
		got, err := s.ListCommands(ctx, "", 2)
		if err != nil {
			t.Fatalf("ListCommands: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("got %d, want 2", len(got))
		}
	})

	t.Run("duplicate id", func(t *testing.T) {
		if err := s.SaveCommand(ctx, recs[0]); err == nil {
			t.Error("expected error for duplicate id")
		}
	})
}

func TestClearancesRoundTrip(t *testing.T) {
	s := openTestStorage(t, 100)
	ctx := context.Background()
	now := time.Now().UTC()

	recs := []*simulation.ClearanceRecord{
		{CommandID: "c1", Aircraft: "UAL123", Text: "United 123, pushback approved.", FromState: "AtGate", ToState: "Pushback", Gate: "1", SimTimeSeconds: 1, CreatedAt: now},
		{CommandID: "c2", Aircraft: "UAL123", Text: "United 123, taxi to runway 9.", FromState: "Taxiing", ToState: "Taxiing", Runway: "9", SimTimeSeconds: 40, CreatedAt: now},
		{CommandID: "c3", Aircraft: "DAL456", Text: "Delta 456, pushback approved.", FromState: "AtGate", ToState: "Pushback", Gate: "2", SimTimeSeconds: 41, CreatedAt: now},
	}
	for _, r := range recs {
		if err := s.SaveClearance(ctx, r); err != nil {
			t.Fatalf("SaveClearance(%s): %v", r.CommandID, err)
		}
	}

	got, err := s.ListClearances(ctx, "UAL123", 0)
	if err != nil {
		t.Fatalf("ListClearances: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d clearances, want 2", len(got))
	}
	if got[0].CommandID != "c2" || got[0].Runway != "9" || got[0].Gate != "" {
		t.Errorf("newest = %+v", got[0])
	}
	if got[1].Gate != "1" || got[1].FromState != "AtGate" || got[1].ToState != "Pushback" {
		t.Errorf("oldest = %+v", got[1])
	}
}

func TestLimitCapsToMax(t *testing.T) {
	tests := []struct {
		max, in, want int
	}{
		{max: 500, in: 0, want: 500},
		{max: 500, in: -1, want: 500},
		{max: 500, in: 20, want: 20},
		{max: 500, in: 1000, want: 500},
		{max: 0, in: 0, want: -1},
		{max: 0, in: 7, want: 7},
	}
	for _, tt := range tests {
		s := &JournalStorage{maxRowsInAPI: tt.max}
		if got := s.limit(tt.in); got != tt.want {
			t.Errorf("limit(%d) with max %d = %d, want %d", tt.in, tt.max, got, tt.want)
		}
	}
}
