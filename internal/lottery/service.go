package lottery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/luminapos/backoffice/internal/shared"
)

// ServiceConfig groups the tunable close workflow settings.
type ServiceConfig struct {
	PendingCloseTTL time.Duration
	PrepareTimeout  time.Duration
	CommitTimeout   time.Duration
}

const (
	defaultPendingCloseTTL = time.Hour
	defaultPrepareTimeout  = 5 * time.Second
	defaultCommitTimeout   = 60 * time.Second
)

// Service orchestrates the two-phase lottery business day close.
type Service struct {
	repo      RepositoryPort
	stores    StoreDirectory
	shifts    ShiftGate
	summaries SummaryCloser
	audit     AuditPort
	logger    *slog.Logger
	cfg       ServiceConfig
	now       func() time.Time
}

// NewService builds Service. Zero config values fall back to defaults.
func NewService(repo RepositoryPort, stores StoreDirectory, shifts ShiftGate, summaries SummaryCloser, audit AuditPort, logger *slog.Logger, cfg ServiceConfig) *Service {
	if cfg.PendingCloseTTL <= 0 {
		cfg.PendingCloseTTL = defaultPendingCloseTTL
	}
	if cfg.PrepareTimeout <= 0 {
		cfg.PrepareTimeout = defaultPrepareTimeout
	}
	if cfg.CommitTimeout <= 0 {
		cfg.CommitTimeout = defaultCommitTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		stores:    stores,
		shifts:    shifts,
		summaries: summaries,
		audit:     audit,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// PrepareClose validates a close request, computes the preview, and
// parks it on the business day as PENDING_CLOSE with an expiry. Pack
// and day-pack rows are not touched; only CommitClose mutates them.
func (s *Service) PrepareClose(ctx context.Context, in CloseInput) (PrepareResult, error) {
	if err := in.Validate(); err != nil {
		return PrepareResult{}, err
	}
	store, err := s.lookupStore(ctx, in.StoreID)
	if err != nil {
		return PrepareResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.PrepareTimeout)
	defer cancel()

	packIDs := make([]string, 0, len(in.Closings))
	for _, c := range in.Closings {
		packIDs = append(packIDs, c.PackID)
	}

	// The shift gate and the pack load are independent reads.
	var openShifts int
	var packs []Pack
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		openShifts, err = s.shifts.OpenShiftCount(gctx, in.StoreID, in.ShiftID)
		return err
	})
	g.Go(func() error {
		var err error
		packs, err = s.repo.ListActivePacks(gctx, in.StoreID, packIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return PrepareResult{}, err
	}
	if openShifts > 0 {
		return PrepareResult{}, newErrorf(CodeShiftsStillOpen, "%d shift(s) still open for store", openShifts).
			withDetails(map[string]any{"open_shifts": openShifts})
	}
	packByID, err := indexPacks(packs, packIDs)
	if err != nil {
		return PrepareResult{}, err
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.cfg.PendingCloseTTL)
	var result PrepareResult
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		day, err := tx.GetLatestDayForUpdate(ctx, in.StoreID)
		if errors.Is(err, ErrNoDay) {
			day, err = tx.InsertBusinessDay(ctx, BusinessDay{
				StoreID:      in.StoreID,
				BusinessDate: dateOf(now.In(store.Location())),
				Status:       DayStatusOpen,
				OpenedBy:     &in.UserID,
				OpenedAt:     now,
			})
		}
		if err != nil {
			return err
		}
		if day.Status == DayStatusClosed {
			return newError(CodeDayAlreadyClosed, "business day already closed")
		}

		starting, err := resolveStartingSerials(ctx, tx, in.StoreID, packs)
		if err != nil {
			return err
		}
		bins, total, err := buildBreakdown(in.Closings, packByID, starting)
		if err != nil {
			return err
		}

		pending := PendingCloseData{
			Closings:    in.Closings,
			EntryMethod: in.EntryMethod,
			UserID:      in.UserID,
			ShiftID:     in.ShiftID,
		}
		ok, err := tx.MarkPendingClose(ctx, day.ID, day.Status, pending, in.UserID, now, expiresAt)
		if err != nil {
			return err
		}
		if !ok {
			return newError(CodeConcurrentModification, "business day changed during prepare")
		}

		result = PrepareResult{
			DayID:                 day.ID,
			BusinessDate:          day.BusinessDate,
			Status:                DayStatusPendingClose,
			PendingCloseAt:        now,
			PendingCloseExpiresAt: expiresAt,
			ClosingsCount:         len(in.Closings),
			EstimatedTotal:        total,
			Bins:                  bins,
		}
		return nil
	})
	if err != nil {
		return PrepareResult{}, mapTxError(err)
	}

	s.recordAudit(ctx, in.UserID, "lottery:prepare_close", result.DayID, map[string]any{
		"store_id":        in.StoreID,
		"closings":        len(in.Closings),
		"estimated_total": result.EstimatedTotal,
	})
	return result, nil
}

// CommitClose finalises a pending close: recomputes every closing from
// the stored blob, writes the day packs, depletes sold-out packs, and
// transitions the day to CLOSED. A stale pending close is reverted to
// OPEN and reported as expired instead.
func (s *Service) CommitClose(ctx context.Context, storeID, userID string) (CommitResult, error) {
	if err := validateIDs(idField{"store_id", storeID}, idField{"user_id", userID}); err != nil {
		return CommitResult{}, err
	}
	store, err := s.lookupStore(ctx, storeID)
	if err != nil {
		return CommitResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.CommitTimeout)
	defer cancel()

	now := s.now().UTC()
	var result CommitResult
	var closedDay BusinessDay
	var pendingShift string
	expired := false

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		day, err := tx.GetPendingDayForUpdate(ctx, storeID)
		if errors.Is(err, ErrNoDay) {
			if _, latestErr := tx.GetLatestDayForUpdate(ctx, storeID); errors.Is(latestErr, ErrNoDay) {
				return newError(CodeDayNotFound, "store has no business day")
			} else if latestErr != nil {
				return latestErr
			}
			return newError(CodeDayNotPending, "no close is pending for this store")
		}
		if err != nil {
			return err
		}
		if day.PendingCloseExpiresAt != nil && day.PendingCloseExpiresAt.Before(now) {
			// Self-heal: revert inside this transaction and commit it,
			// then surface the expiry to the caller.
			if _, err := tx.RevertPending(ctx, day.ID); err != nil {
				return err
			}
			expired = true
			return nil
		}
		if day.PendingClose == nil {
			return newError(CodeInvalidClosings, "pending close data missing")
		}
		pending := *day.PendingClose
		pendingShift = pending.ShiftID
		if err := validateClosings(pending.Closings); err != nil {
			return err
		}

		packIDs := make([]string, 0, len(pending.Closings))
		for _, c := range pending.Closings {
			packIDs = append(packIDs, c.PackID)
		}
		packs, err := tx.ListActivePacks(ctx, storeID, packIDs)
		if err != nil {
			return err
		}
		packByID, err := indexPacks(packs, packIDs)
		if err != nil {
			return err
		}
		starting, err := resolveStartingSerials(ctx, tx, storeID, packs)
		if err != nil {
			return err
		}
		bins, total, err := buildBreakdown(pending.Closings, packByID, starting)
		if err != nil {
			return err
		}

		depleted := []DepletedPackInfo{}
		for _, c := range pending.Closings {
			pack := packByID[c.PackID]
			sold := TicketsSold(c.ClosingSerial, starting[pack.ID])
			if c.SoldOut {
				sold = TicketsSoldDepleted(pack.SerialEnd, starting[pack.ID])
			}
			dp := DayPack{
				DayID:          day.ID,
				PackID:         pack.ID,
				StartingSerial: starting[pack.ID],
				EndingSerial:   c.ClosingSerial,
				TicketsSold:    sold,
				SalesAmount:    float64(sold) * pack.GamePrice,
				EntryMethod:    pending.EntryMethod,
				SoldOut:        c.SoldOut,
			}
			if err := tx.UpsertDayPack(ctx, dp); err != nil {
				return err
			}
			if c.SoldOut {
				ok, err := tx.DepletePack(ctx, pack.ID, pending.UserID, now)
				if err != nil {
					return err
				}
				if ok {
					depleted = append(depleted, DepletedPackInfo{
						PackID:     pack.ID,
						StoreID:    storeID,
						PackNumber: pack.PackNumber,
						GameName:   pack.GameName,
					})
				}
			}
		}

		ok, err := tx.MarkClosed(ctx, day.ID, userID, now)
		if err != nil {
			return err
		}
		if !ok {
			return newError(CodeConcurrentModification, "business day changed during commit")
		}

		closedDay = day
		result = CommitResult{
			DayID:           day.ID,
			BusinessDate:    day.BusinessDate,
			ClosedAt:        now,
			ClosingsCreated: len(pending.Closings),
			LotteryTotal:    total,
			Bins:            bins,
			Depleted:        depleted,
		}
		return nil
	})
	if err != nil {
		return CommitResult{}, mapTxError(err)
	}
	if expired {
		return CommitResult{}, newError(CodePendingExpired, "pending close expired; day reverted to open")
	}

	// The close is durable. Summary close and rollover are advisory
	// follow-ups; their failures are logged, never propagated.
	if err := s.summaries.CloseDaySummary(ctx, storeID, closedDay.BusinessDate, userID, pendingShift); err != nil {
		s.logger.Error("close day summary",
			slog.String("store_id", storeID),
			slog.String("day_id", closedDay.ID),
			slog.Any("error", err))
	}
	if err := s.rollover(ctx, closedDay, now, userID, store.Location()); err != nil {
		s.logger.Error("day rollover",
			slog.String("store_id", storeID),
			slog.String("day_id", closedDay.ID),
			slog.Any("error", err))
	}

	s.recordAudit(ctx, userID, "lottery:commit_close", result.DayID, map[string]any{
		"store_id":      storeID,
		"closings":      result.ClosingsCreated,
		"lottery_total": result.LotteryTotal,
		"depleted":      len(result.Depleted),
	})
	return result, nil
}

// CancelClose reverts a pending close to OPEN. It reports whether a
// pending close was actually cancelled; cancelling nothing is not an
// error.
func (s *Service) CancelClose(ctx context.Context, storeID, userID string) (bool, error) {
	if err := validateIDs(idField{"store_id", storeID}, idField{"user_id", userID}); err != nil {
		return false, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.PrepareTimeout)
	defer cancel()

	dayID, cancelled, err := s.repo.CancelPending(ctx, storeID)
	if err != nil {
		return false, err
	}
	if cancelled {
		s.recordAudit(ctx, userID, "lottery:cancel_close", dayID, map[string]any{"store_id": storeID})
	}
	return cancelled, nil
}

// GetDayStatus returns the current day projection, or nil when the
// store has no business day yet.
func (s *Service) GetDayStatus(ctx context.Context, storeID string) (*DayStatusView, error) {
	if err := validateIDs(idField{"store_id", storeID}); err != nil {
		return nil, err
	}
	day, err := s.repo.GetLatestDay(ctx, storeID)
	if errors.Is(err, ErrNoDay) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &DayStatusView{
		DayID:                 day.ID,
		StoreID:               day.StoreID,
		BusinessDate:          day.BusinessDate,
		Status:                day.Status,
		PendingCloseAt:        day.PendingCloseAt,
		PendingCloseExpiresAt: day.PendingCloseExpiresAt,
	}, nil
}

// SweepExpired reverts every expired pending close to OPEN and returns
// the number of days reverted. Safe to run concurrently with itself and
// with CommitClose's own expiry check.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	return s.repo.RevertExpired(ctx, s.now().UTC())
}

func (s *Service) lookupStore(ctx context.Context, storeID string) (StoreRef, error) {
	store, err := s.stores.GetStore(ctx, storeID)
	if err != nil {
		return StoreRef{}, err
	}
	return store, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "business_day",
		EntityID: entityID,
		Meta:     meta,
	}); err != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}

// buildBreakdown bounds-checks every closing and computes the per-bin
// sold counts and amounts. The depletion formula applies only when the
// closing carries the explicit sold-out flag.
func buildBreakdown(closings []PackClosing, packs map[string]Pack, starting map[string]string) ([]BinBreakdown, float64, error) {
	if err := validateSerialBounds(closings, packs, starting); err != nil {
		return nil, 0, err
	}
	bins := make([]BinBreakdown, 0, len(closings))
	var total float64
	for _, c := range closings {
		pack := packs[c.PackID]
		start := starting[pack.ID]
		sold := TicketsSold(c.ClosingSerial, start)
		if c.SoldOut {
			sold = TicketsSoldDepleted(pack.SerialEnd, start)
		}
		amount := float64(sold) * pack.GamePrice
		bins = append(bins, BinBreakdown{
			BinOrder:       pack.BinOrder,
			PackID:         pack.ID,
			PackNumber:     pack.PackNumber,
			GameName:       pack.GameName,
			StartingSerial: start,
			ClosingSerial:  c.ClosingSerial,
			SoldOut:        c.SoldOut,
			TicketsSold:    sold,
			Amount:         amount,
		})
		total += amount
	}
	sort.Slice(bins, func(i, j int) bool {
		if bins[i].BinOrder != bins[j].BinOrder {
			return bins[i].BinOrder < bins[j].BinOrder
		}
		return bins[i].PackNumber < bins[j].PackNumber
	})
	return bins, total, nil
}

func indexPacks(packs []Pack, requested []string) (map[string]Pack, error) {
	byID := make(map[string]Pack, len(packs))
	for _, p := range packs {
		byID[p.ID] = p
	}
	missing := []string{}
	for _, id := range requested {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, newErrorf(CodePackNotFound, "%d pack(s) not found or not active", len(missing)).
			withDetails(map[string]any{"pack_ids": missing})
	}
	return byID, nil
}

type idField struct {
	name  string
	value string
}

// validateIDs checks each id in order, so the first malformed field is
// always the one reported.
func validateIDs(fields ...idField) error {
	for _, f := range fields {
		if err := validate.Var(f.value, "required,uuid"); err != nil {
			return newErrorf(CodeInvalidClosings, "%s must be a UUID", f.name).
				withDetails(map[string]any{f.name: f.value})
		}
	}
	return nil
}

// mapTxError translates a lost optimistic race under repeatable read
// into the workflow conflict code.
func mapTxError(err error) error {
	if IsSerializationFailure(err) {
		return &Error{
			Code:    CodeConcurrentModification,
			Message: fmt.Sprintf("transaction conflict: %v", err),
		}
	}
	return err
}

// dateOf truncates a timestamp to its calendar date. Dates are stored
// timezone-less, so the UTC representation keeps comparisons stable.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
