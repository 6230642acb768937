package persistence

import (
	"context"
	"fmt"

	"github.com/intervsched/scheduler/internal/scheduling/domain"
	"github.com/intervsched/scheduler/internal/shared/infrastructure/database"
)

// PostgresLoadRepository resolves interviewer load counters from a
// `interviewer_load` table (SPEC_FULL §4.7).
type PostgresLoadRepository struct {
	conn database.Connection
}

// NewPostgresLoadRepository constructs a repository over an open connection.
func NewPostgresLoadRepository(conn database.Connection) *PostgresLoadRepository {
	return &PostgresLoadRepository{conn: conn}
}

// LoadCounters returns current_load/last2w_load for the given interviewer
// ids, defaulting missing ids to {0, 0}.
func (r *PostgresLoadRepository) LoadCounters(ctx context.Context, interviewerIDs []string) (map[string]domain.LoadCounters, error) {
	result := make(map[string]domain.LoadCounters, len(interviewerIDs))
	for _, id := range interviewerIDs {
		result[id] = domain.LoadCounters{}
	}
	if len(interviewerIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT interviewer_id, current_load, last2w_load
		FROM interviewer_load
		WHERE interviewer_id = ANY($1)
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, interviewerIDs)
	if err != nil {
		return nil, fmt.Errorf("query interviewer_load: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var counters domain.LoadCounters
		if err := rows.Scan(&id, &counters.CurrentLoad, &counters.Last2wLoad); err != nil {
			return nil, fmt.Errorf("scan interviewer_load row: %w", err)
		}
		result[id] = counters
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interviewer_load rows: %w", err)
	}

	return result, nil
}
