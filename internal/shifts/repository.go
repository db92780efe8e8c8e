package shifts

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository answers shift state questions for the close workflow. The
// lottery core consumes it only as a gate; shift lifecycle mechanics
// live elsewhere.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// OpenShiftCount counts OPEN shifts for a store, excluding the shift
// currently being closed. Implements lottery.ShiftGate.
func (r *Repository) OpenShiftCount(ctx context.Context, storeID, excludeShiftID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM shifts
WHERE store_id=$1 AND status='OPEN' AND id <> $2`, storeID, excludeShiftID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
