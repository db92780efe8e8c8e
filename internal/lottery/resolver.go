package lottery

import "context"

// resolveStartingSerials determines each pack's starting serial for the
// current close. A pack continues from the ending serial it recorded on
// the store's most recently closed business day; packs with no such
// record start from their activation serial. PrepareClose and
// CommitClose both call this so the preview and the committed totals
// cannot diverge.
func resolveStartingSerials(ctx context.Context, tx TxRepository, storeID string, packs []Pack) (map[string]string, error) {
	starting := make(map[string]string, len(packs))
	ids := make([]string, 0, len(packs))
	for _, p := range packs {
		starting[p.ID] = p.SerialStart
		ids = append(ids, p.ID)
	}

	dayID, ok, err := tx.LatestClosedDayID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return starting, nil
	}

	endings, err := tx.DayPackEndings(ctx, dayID, ids)
	if err != nil {
		return nil, err
	}
	for id, ending := range endings {
		starting[id] = ending
	}
	return starting, nil
}
