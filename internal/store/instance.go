package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type InstanceStore struct {
	db *pgxpool.Pool
}

func NewInstanceStore(db *pgxpool.Pool) *InstanceStore {
	return &InstanceStore{db: db}
}

func (s *InstanceStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM instances WHERE id = $1)`, id,
	).Scan(&exists)
	return exists, err
}
