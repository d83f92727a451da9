package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/yegors/ground-atc/internal/simulation"
	"github.com/yegors/ground-atc/pkg/types"
)

var _ simulation.Journal = (*JournalStorage)(nil)

// SaveCommand stores one operator command
func (s *JournalStorage) SaveCommand(ctx context.Context, rec *simulation.CommandRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO commands
		(id, line, aircraft, command, accepted, category, message, sim_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Line,
		string(rec.Aircraft),
		rec.Command,
		boolToInt(rec.Accepted),
		string(rec.Category),
		rec.Message,
		rec.SimTimeSeconds,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert command: %w", err)
	}
	return nil
}

// ListCommands returns the most recent commands, newest first. An empty
// aircraft lists commands for every aircraft.
func (s *JournalStorage) ListCommands(ctx context.Context, aircraft types.AircraftID, limit int) ([]*simulation.CommandRecord, error) {
	query := `SELECT id, line, aircraft, command, accepted, category, message, sim_time, created_at
		FROM commands`
	args := []any{}
	if aircraft != "" {
		query += ` WHERE aircraft = ?`
		args = append(args, string(aircraft))
	}
	query += ` ORDER BY rowid DESC LIMIT ?`
	args = append(args, s.limit(limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query commands: %w", err)
	}
	defer rows.Close()

	records := []*simulation.CommandRecord{}
	for rows.Next() {
		var rec simulation.CommandRecord
		var aircraftID, command, category, message sql.NullString
		var accepted int
		var createdAt string

		if err := rows.Scan(
			&rec.ID,
			&rec.Line,
			&aircraftID,
			&command,
			&accepted,
			&category,
			&message,
			&rec.SimTimeSeconds,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan command: %w", err)
		}

		rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		rec.Aircraft = types.AircraftID(aircraftID.String)
		rec.Command = command.String
		rec.Category = simulation.Category(category.String)
		rec.Message = message.String
		rec.Accepted = accepted != 0

		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read commands: %w", err)
	}
	return records, nil
}
