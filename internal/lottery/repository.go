package lottery

import (
	"context"
	"time"

	"github.com/luminapos/backoffice/internal/shared"
)

// RepositoryPort abstracts persistence for the close workflow service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListActivePacks(ctx context.Context, storeID string, packIDs []string) ([]Pack, error)
	GetLatestDay(ctx context.Context, storeID string) (BusinessDay, error)
	CancelPending(ctx context.Context, storeID string) (string, bool, error)
	RevertExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// TxRepository exposes the operations executed inside a single close
// transaction. Guarded mutations return whether a row was affected so
// the service can detect lost optimistic-lock races.
type TxRepository interface {
	GetLatestDayForUpdate(ctx context.Context, storeID string) (BusinessDay, error)
	GetPendingDayForUpdate(ctx context.Context, storeID string) (BusinessDay, error)
	InsertBusinessDay(ctx context.Context, day BusinessDay) (BusinessDay, error)
	MarkPendingClose(ctx context.Context, dayID string, expect DayStatus, data PendingCloseData, by string, at, expiresAt time.Time) (bool, error)
	MarkClosed(ctx context.Context, dayID, closedBy string, at time.Time) (bool, error)
	RevertPending(ctx context.Context, dayID string) (bool, error)
	LatestClosedDayID(ctx context.Context, storeID string) (string, bool, error)
	DayPackEndings(ctx context.Context, dayID string, packIDs []string) (map[string]string, error)
	ListActivePacks(ctx context.Context, storeID string, packIDs []string) ([]Pack, error)
	UpsertDayPack(ctx context.Context, dp DayPack) error
	DepletePack(ctx context.Context, packID, depletedBy string, at time.Time) (bool, error)
	UpsertOpenSummary(ctx context.Context, storeID string, businessDate time.Time) (string, error)
	FindSummaryID(ctx context.Context, storeID string, businessDate time.Time) (string, bool, error)
	LinkSummary(ctx context.Context, dayID, summaryID string) error
}

// StoreDirectory resolves store identity and timezone.
type StoreDirectory interface {
	GetStore(ctx context.Context, id string) (StoreRef, error)
}

// ShiftGate reports whether shifts other than the one being closed are
// still open for a store.
type ShiftGate interface {
	OpenShiftCount(ctx context.Context, storeID, excludeShiftID string) (int, error)
}

// SummaryCloser closes the aggregate day summary after a successful
// lottery close. Failures are advisory; the close is already durable.
type SummaryCloser interface {
	CloseDaySummary(ctx context.Context, storeID string, businessDate time.Time, closedBy, excludeShiftID string) error
}

// AuditPort records workflow audit entries.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}
