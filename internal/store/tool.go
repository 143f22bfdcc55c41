package store

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/maestro/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ToolStore struct {
	db *pgxpool.Pool
}

func NewToolStore(db *pgxpool.Pool) *ToolStore {
	return &ToolStore{db: db}
}

func (s *ToolStore) Create(ctx context.Context, t *domain.Tool) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO tools (name, description, type, config, system)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		t.Name, t.Description, t.Type, t.Config, t.System,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *ToolStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tool, error) {
	return s.get(ctx, `WHERE id = $1`, id)
}

func (s *ToolStore) GetByName(ctx context.Context, name string) (*domain.Tool, error) {
	return s.get(ctx, `WHERE name = $1`, name)
}

func (s *ToolStore) get(ctx context.Context, where string, arg any) (*domain.Tool, error) {
	t := &domain.Tool{}
	err := s.db.QueryRow(ctx,
		`SELECT id, name, description, type, config, system, created_at, updated_at
		 FROM tools `+where, arg,
	).Scan(&t.ID, &t.Name, &t.Description, &t.Type, &t.Config, &t.System, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *ToolStore) List(ctx context.Context) ([]domain.Tool, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, description, type, config, system, created_at, updated_at
		 FROM tools ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tools []domain.Tool
	for rows.Next() {
		var t domain.Tool
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Type, &t.Config,
			&t.System, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tools = append(tools, t)
	}
	return tools, rows.Err()
}
