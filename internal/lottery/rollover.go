package lottery

import (
	"context"
	"time"
)

// rollover opens the next business day after a successful commit. The
// new business date is the calendar date of the close timestamp in the
// store's timezone: everything after the close belongs to the new day.
// A summary row already existing for that date (mid-day close) is
// reused rather than duplicated. All writes share one transaction; a
// failure here never unwinds the committed close.
func (s *Service) rollover(ctx context.Context, closed BusinessDay, closedAt time.Time, userID string, loc *time.Location) error {
	nextDate := dateOf(closedAt.In(loc))
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		summaryID, err := tx.UpsertOpenSummary(ctx, closed.StoreID, nextDate)
		if err != nil {
			return err
		}
		_, err = tx.InsertBusinessDay(ctx, BusinessDay{
			StoreID:      closed.StoreID,
			BusinessDate: nextDate,
			Status:       DayStatusOpen,
			OpenedBy:     &userID,
			OpenedAt:     closedAt,
			SummaryID:    &summaryID,
		})
		if err != nil {
			return err
		}
		if closed.SummaryID == nil {
			id, ok, err := tx.FindSummaryID(ctx, closed.StoreID, dateOf(closed.BusinessDate))
			if err != nil {
				return err
			}
			if ok {
				if err := tx.LinkSummary(ctx, closed.ID, id); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
