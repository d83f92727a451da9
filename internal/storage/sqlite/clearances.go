package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/yegors/ground-atc/internal/simulation"
	"github.com/yegors/ground-atc/pkg/types"
)

// SaveClearance stores a clearance issued for an accepted command
func (s *JournalStorage) SaveClearance(ctx context.Context, rec *simulation.ClearanceRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO clearances
		(command_id, aircraft, text, from_state, to_state, runway, gate, sim_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.CommandID,
		string(rec.Aircraft),
		rec.Text,
		rec.FromState,
		rec.ToState,
		string(rec.Runway),
		string(rec.Gate),
		rec.SimTimeSeconds,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert clearance: %w", err)
	}
	return nil
}

// ListClearances returns the most recent clearances, newest first
func (s *JournalStorage) ListClearances(ctx context.Context, aircraft types.AircraftID, limit int) ([]*simulation.ClearanceRecord, error) {
	query := `SELECT command_id, aircraft, text, from_state, to_state, runway, gate, sim_time, created_at
		FROM clearances`
	args := []any{}
	if aircraft != "" {
		query += ` WHERE aircraft = ?`
		args = append(args, string(aircraft))
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, s.limit(limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query clearances: %w", err)
	}
	defer rows.Close()

	records := []*simulation.ClearanceRecord{}
	for rows.Next() {
		var rec simulation.ClearanceRecord
		var aircraftID string
		var fromState, toState, runway, gate sql.NullString
		var createdAt string

		if err := rows.Scan(
			&rec.CommandID,
			&aircraftID,
			&rec.Text,
			&fromState,
			&toState,
			&runway,
			&gate,
			&rec.SimTimeSeconds,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan clearance: %w", err)
		}

		rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		rec.Aircraft = types.AircraftID(aircraftID)
		rec.FromState = fromState.String
		rec.ToState = toState.String
		rec.Runway = types.RunwayID(runway.String)
		rec.Gate = types.GateID(gate.String)

		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read clearances: %w", err)
	}
	return records, nil
}
