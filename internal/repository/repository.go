// Package repository implements the storage interfaces of the outbox,
// reconciler, domains, stats and vault packages on PostgreSQL via pgx.
package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrPoolNil = errors.New("repository: pool is nil")

// Repository is the PostgreSQL backend shared by all services. One instance
// satisfies outbox.Storage, reconciler.Storage, domains.Storage,
// stats.Storage and vault.Storage.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a Repository on an established pool.
func New(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, ErrPoolNil
	}
	return &Repository{pool: pool}, nil
}
