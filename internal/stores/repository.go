package stores

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is a retail location in the catalog.
type Store struct {
	ID        string
	Name      string
	Timezone  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ErrStoreNotFound indicates a missing store row.
var ErrStoreNotFound = errors.New("stores: store not found")

// Repository reads the store catalog from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetStore fetches a store by id.
func (r *Repository) GetStore(ctx context.Context, id string) (Store, error) {
	var s Store
	err := r.pool.QueryRow(ctx, `SELECT id, name, timezone, created_at, updated_at FROM stores WHERE id=$1`, id).
		Scan(&s.ID, &s.Name, &s.Timezone, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Store{}, ErrStoreNotFound
		}
		return Store{}, err
	}
	return s, nil
}
