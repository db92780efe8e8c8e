package lottery

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luminapos/backoffice/internal/platform/db"
)

// Repository persists the close workflow state in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// querier is satisfied by both pgxpool.Pool and pgx.Tx so day and pack
// queries can run inside or outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil || r.pool == nil {
		return errors.New("lottery: repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// IsSerializationFailure reports whether err is a transaction
// serialization or deadlock abort, the signature of a lost optimistic
// race under repeatable read.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

const selectDayColumns = `SELECT id, store_id, business_date, status, opened_by, opened_at, closed_by, closed_at,
pending_close, pending_close_by, pending_close_at, pending_close_expires_at, summary_id, created_at, updated_at
FROM business_days`

func scanBusinessDay(row pgx.Row) (BusinessDay, error) {
	var day BusinessDay
	var pending []byte
	err := row.Scan(&day.ID, &day.StoreID, &day.BusinessDate, &day.Status, &day.OpenedBy, &day.OpenedAt,
		&day.ClosedBy, &day.ClosedAt, &pending, &day.PendingCloseBy, &day.PendingCloseAt,
		&day.PendingCloseExpiresAt, &day.SummaryID, &day.CreatedAt, &day.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BusinessDay{}, ErrNoDay
		}
		return BusinessDay{}, err
	}
	if len(pending) > 0 {
		var data PendingCloseData
		if err := json.Unmarshal(pending, &data); err != nil {
			return BusinessDay{}, err
		}
		day.PendingClose = &data
	}
	return day, nil
}

// GetLatestDay returns the most recently opened business day for a store.
func (r *Repository) GetLatestDay(ctx context.Context, storeID string) (BusinessDay, error) {
	row := r.pool.QueryRow(ctx, selectDayColumns+` WHERE store_id=$1 ORDER BY opened_at DESC, created_at DESC LIMIT 1`, storeID)
	return scanBusinessDay(row)
}

// CancelPending reverts a pending close to OPEN, clearing the blob, and
// returns the reverted day's id. The status guard makes repeated calls
// idempotent; at most one pending day exists per store.
func (r *Repository) CancelPending(ctx context.Context, storeID string) (string, bool, error) {
	var id string
	err := r.pool.QueryRow(ctx, `UPDATE business_days
SET status='OPEN', pending_close=NULL, pending_close_by=NULL, pending_close_at=NULL, pending_close_expires_at=NULL, updated_at=NOW()
WHERE store_id=$1 AND status='PENDING_CLOSE'
RETURNING id`, storeID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return id, true, nil
}

// RevertExpired bulk-reverts every expired pending close to OPEN. The
// same guard protects it from racing commit's own expiry check.
func (r *Repository) RevertExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE business_days
SET status='OPEN', pending_close=NULL, pending_close_by=NULL, pending_close_at=NULL, pending_close_expires_at=NULL, updated_at=NOW()
WHERE status='PENDING_CLOSE' AND pending_close_expires_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListActivePacks loads ACTIVE packs by id set scoped to the store.
func (r *Repository) ListActivePacks(ctx context.Context, storeID string, packIDs []string) ([]Pack, error) {
	return listActivePacks(ctx, r.pool, storeID, packIDs)
}

func listActivePacks(ctx context.Context, q querier, storeID string, packIDs []string) ([]Pack, error) {
	rows, err := q.Query(ctx, `SELECT id, store_id, pack_number, game_name, game_price, serial_start, serial_end, status, bin_order, activated_at, depleted_at, depleted_by
FROM lottery_packs
WHERE store_id=$1 AND id = ANY($2) AND status='ACTIVE'
ORDER BY bin_order ASC, pack_number ASC`, storeID, packIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	packs := []Pack{}
	for rows.Next() {
		var p Pack
		if err := rows.Scan(&p.ID, &p.StoreID, &p.PackNumber, &p.GameName, &p.GamePrice, &p.SerialStart,
			&p.SerialEnd, &p.Status, &p.BinOrder, &p.ActivatedAt, &p.DepletedAt, &p.DepletedBy); err != nil {
			return nil, err
		}
		packs = append(packs, p)
	}
	return packs, rows.Err()
}

func (r *txRepository) GetLatestDayForUpdate(ctx context.Context, storeID string) (BusinessDay, error) {
	row := r.tx.QueryRow(ctx, selectDayColumns+` WHERE store_id=$1 ORDER BY opened_at DESC, created_at DESC LIMIT 1 FOR UPDATE`, storeID)
	return scanBusinessDay(row)
}

func (r *txRepository) GetPendingDayForUpdate(ctx context.Context, storeID string) (BusinessDay, error) {
	row := r.tx.QueryRow(ctx, selectDayColumns+` WHERE store_id=$1 AND status='PENDING_CLOSE' FOR UPDATE`, storeID)
	return scanBusinessDay(row)
}

func (r *txRepository) InsertBusinessDay(ctx context.Context, day BusinessDay) (BusinessDay, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO business_days (store_id, business_date, status, opened_by, opened_at, summary_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW(),NOW())
RETURNING id, created_at, updated_at`,
		day.StoreID, day.BusinessDate, string(day.Status), day.OpenedBy, day.OpenedAt, day.SummaryID).
		Scan(&day.ID, &day.CreatedAt, &day.UpdatedAt)
	if err != nil {
		return BusinessDay{}, err
	}
	return day, nil
}

func (r *txRepository) MarkPendingClose(ctx context.Context, dayID string, expect DayStatus, data PendingCloseData, by string, at, expiresAt time.Time) (bool, error) {
	blob, err := json.Marshal(data)
	if err != nil {
		return false, err
	}
	tag, err := r.tx.Exec(ctx, `UPDATE business_days
SET status='PENDING_CLOSE', pending_close=$1, pending_close_by=$2, pending_close_at=$3, pending_close_expires_at=$4, updated_at=NOW()
WHERE id=$5 AND status=$6`, blob, by, at, expiresAt, dayID, string(expect))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *txRepository) MarkClosed(ctx context.Context, dayID, closedBy string, at time.Time) (bool, error) {
	tag, err := r.tx.Exec(ctx, `UPDATE business_days
SET status='CLOSED', closed_by=$1, closed_at=$2, pending_close=NULL, pending_close_by=NULL, pending_close_at=NULL, pending_close_expires_at=NULL, updated_at=NOW()
WHERE id=$3 AND status='PENDING_CLOSE'`, closedBy, at, dayID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *txRepository) RevertPending(ctx context.Context, dayID string) (bool, error) {
	tag, err := r.tx.Exec(ctx, `UPDATE business_days
SET status='OPEN', pending_close=NULL, pending_close_by=NULL, pending_close_at=NULL, pending_close_expires_at=NULL, updated_at=NOW()
WHERE id=$1 AND status='PENDING_CLOSE'`, dayID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *txRepository) LatestClosedDayID(ctx context.Context, storeID string) (string, bool, error) {
	var id string
	err := r.tx.QueryRow(ctx, `SELECT id FROM business_days
WHERE store_id=$1 AND status='CLOSED'
ORDER BY closed_at DESC LIMIT 1`, storeID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return id, true, nil
}

func (r *txRepository) DayPackEndings(ctx context.Context, dayID string, packIDs []string) (map[string]string, error) {
	rows, err := r.tx.Query(ctx, `SELECT pack_id, ending_serial FROM day_packs
WHERE day_id=$1 AND pack_id = ANY($2) AND ending_serial IS NOT NULL`, dayID, packIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	endings := make(map[string]string)
	for rows.Next() {
		var packID, ending string
		if err := rows.Scan(&packID, &ending); err != nil {
			return nil, err
		}
		endings[packID] = ending
	}
	return endings, rows.Err()
}

func (r *txRepository) ListActivePacks(ctx context.Context, storeID string, packIDs []string) ([]Pack, error) {
	return listActivePacks(ctx, r.tx, storeID, packIDs)
}

func (r *txRepository) UpsertDayPack(ctx context.Context, dp DayPack) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO day_packs (day_id, pack_id, starting_serial, ending_serial, tickets_sold, sales_amount, entry_method, sold_out, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW())
ON CONFLICT (day_id, pack_id) DO UPDATE SET
starting_serial=EXCLUDED.starting_serial, ending_serial=EXCLUDED.ending_serial,
tickets_sold=EXCLUDED.tickets_sold, sales_amount=EXCLUDED.sales_amount,
entry_method=EXCLUDED.entry_method, sold_out=EXCLUDED.sold_out, updated_at=NOW()`,
		dp.DayID, dp.PackID, dp.StartingSerial, dp.EndingSerial, dp.TicketsSold, dp.SalesAmount, string(dp.EntryMethod), dp.SoldOut)
	return err
}

func (r *txRepository) DepletePack(ctx context.Context, packID, depletedBy string, at time.Time) (bool, error) {
	tag, err := r.tx.Exec(ctx, `UPDATE lottery_packs
SET status='DEPLETED', depleted_at=$2, depleted_by=$3, updated_at=NOW()
WHERE id=$1 AND status='ACTIVE'`, packID, at, depletedBy)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *txRepository) UpsertOpenSummary(ctx context.Context, storeID string, businessDate time.Time) (string, error) {
	var id string
	err := r.tx.QueryRow(ctx, `INSERT INTO day_summaries (store_id, business_date, status, created_at, updated_at)
VALUES ($1,$2,'OPEN',NOW(),NOW())
ON CONFLICT (store_id, business_date) DO UPDATE SET status='OPEN', updated_at=NOW()
RETURNING id`, storeID, businessDate).Scan(&id)
	return id, err
}

func (r *txRepository) FindSummaryID(ctx context.Context, storeID string, businessDate time.Time) (string, bool, error) {
	var id string
	err := r.tx.QueryRow(ctx, `SELECT id FROM day_summaries WHERE store_id=$1 AND business_date=$2`, storeID, businessDate).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return id, true, nil
}

func (r *txRepository) LinkSummary(ctx context.Context, dayID, summaryID string) error {
	_, err := r.tx.Exec(ctx, `UPDATE business_days SET summary_id=$2, updated_at=NOW() WHERE id=$1 AND summary_id IS NULL`, dayID, summaryID)
	return err
}
