package store

import (
	"context"
	"time"

	"github.com/Harshitk-cp/maestro/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ExecutionStore struct {
	db *pgxpool.Pool
}

func NewExecutionStore(db *pgxpool.Pool) *ExecutionStore {
	return &ExecutionStore{db: db}
}

// Create appends one execution record. Records are immutable; there is no
// update path.
func (s *ExecutionStore) Create(ctx context.Context, e *domain.AgentExecution) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO agent_executions
		   (agent_id, instance_id, organization_id, user_message, response, duration_ms,
		    success, tools_used, error_message)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at`,
		e.AgentID, e.InstanceID, e.OrganizationID, e.UserMessage, e.Response,
		e.DurationMs, e.Success, e.ToolsUsed, e.ErrorMessage,
	).Scan(&e.ID, &e.CreatedAt)
}

func (s *ExecutionStore) ListByScopeSince(ctx context.Context, scope domain.Scope, since time.Time) ([]domain.AgentExecution, error) {
	rows, err := s.db.Query(ctx,
		`SELECT e.id, e.agent_id, COALESCE(a.name, ''), e.instance_id, e.organization_id,
		        e.user_message, e.response, e.duration_ms, e.success, e.tools_used,
		        e.error_message, e.created_at
		 FROM agent_executions e
		 LEFT JOIN agents a ON a.id = e.agent_id
		 WHERE e.instance_id = $1
		   AND e.organization_id IS NOT DISTINCT FROM $2
		   AND e.created_at >= $3
		 ORDER BY e.created_at ASC`,
		scope.InstanceID, scope.OrganizationID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var executions []domain.AgentExecution
	for rows.Next() {
		var e domain.AgentExecution
		if err := rows.Scan(&e.ID, &e.AgentID, &e.AgentName, &e.InstanceID, &e.OrganizationID,
			&e.UserMessage, &e.Response, &e.DurationMs, &e.Success, &e.ToolsUsed,
			&e.ErrorMessage, &e.CreatedAt); err != nil {
			return nil, err
		}
		executions = append(executions, e)
	}
	return executions, rows.Err()
}
