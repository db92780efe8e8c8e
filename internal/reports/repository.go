package reports

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository closes aggregate day summaries after a lottery close. The
// summary upsert-open path runs inside the rollover transaction and is
// owned by the lottery repository; this side only finalises.
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{pool: pool, logger: logger}
}

// CloseDaySummary transitions the day summary for (store, date) from
// OPEN to CLOSED. A summary already closed, or absent, is not an error:
// the status guard simply affects no row. Implements
// lottery.SummaryCloser.
func (r *Repository) CloseDaySummary(ctx context.Context, storeID string, businessDate time.Time, closedBy, excludeShiftID string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE day_summaries
SET status='CLOSED', closed_by=$3, closed_at=NOW(), updated_at=NOW()
WHERE store_id=$1 AND business_date=$2 AND status='OPEN'`, storeID, businessDate, closedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		r.logger.Info("no open day summary to close",
			slog.String("store_id", storeID),
			slog.Time("business_date", businessDate),
			slog.String("excluded_shift", excludeShiftID))
	}
	return nil
}
