package simulation

import (
	"context"
	"time"

	"github.com/yegors/ground-atc/pkg/logger"
	"github.com/yegors/ground-atc/pkg/types"
)

// CommandRecord is one operator line, accepted or not
type CommandRecord struct {
	ID             string           `json:"id"`
	Line           string           `json:"line"`
	Aircraft       types.AircraftID `json:"aircraft,omitempty"`
	Command        string           `json:"command,omitempty"`
	Accepted       bool             `json:"accepted"`
	Category       Category         `json:"category,omitempty"`
	Message        string           `json:"message,omitempty"`
	SimTimeSeconds float64          `json:"sim_time_seconds"`
	CreatedAt      time.Time        `json:"created_at"`
}

// ClearanceRecord is the clearance issued for an accepted command
type ClearanceRecord struct {
	CommandID      string           `json:"command_id"`
	Aircraft       types.AircraftID `json:"aircraft"`
	Text           string           `json:"text"`
	FromState      string           `json:"from_state"`
	ToState        string           `json:"to_state"`
	Runway         types.RunwayID   `json:"runway,omitempty"`
	Gate           types.GateID     `json:"gate,omitempty"`
	SimTimeSeconds float64          `json:"sim_time_seconds"`
	CreatedAt      time.Time        `json:"created_at"`
}

// Journal persists the command history
type Journal interface {
	SaveCommand(ctx context.Context, rec *CommandRecord) error
	SaveClearance(ctx context.Context, rec *ClearanceRecord) error
}

type journalEntry struct {
	command   *CommandRecord
	clearance *ClearanceRecord
}

const journalWriteTimeout = 5 * time.Second

// enqueue hands entries to the journal writer without blocking
func (s *Service) enqueue(entries []journalEntry) {
	if s.journalCh == nil {
		return
	}
	for _, e := range entries {
		select {
		case s.journalCh <- e:
		default:
			s.logger.Warn("Journal buffer full, dropping entry", logger.Int("buffer", cap(s.journalCh)))
		}
	}
}

func (s *Service) journalLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case e := <-s.journalCh:
			s.write(e)
		case <-ctx.Done():
			for {
				select {
				case e := <-s.journalCh:
					s.write(e)
				default:
					return
				}
			}
		}
	}
}

func (s *Service) write(e journalEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
	defer cancel()

	if e.command != nil {
		if err := s.journal.SaveCommand(ctx, e.command); err != nil {
			s.logger.Error("Failed to journal command", logger.String("id", e.command.ID), logger.Error(err))
		}
	}
	if e.clearance != nil {
		if err := s.journal.SaveClearance(ctx, e.clearance); err != nil {
			s.logger.Error("Failed to journal clearance", logger.String("command_id", e.clearance.CommandID), logger.Error(err))
		}
	}
}
