package services

import (
	"time"

	"lexledger/internal/models"
)

// WarningResult separates the warnings to record from the warnings to
// close. Both go into the same apply batch as the run, so a re-run
// over unchanged data cannot double-send.
type WarningResult struct {
	NewWarnings       []*models.LowBalanceWarning
	ClearedWarningIDs []int64
}

// WarningService is the edge-triggered low balance tracker: a client
// sitting below target run after run gets exactly one warning, and is
// re-armed only when a later run sees the balance back at OK.
type WarningService struct{}

func NewWarningService() *WarningService {
	return &WarningService{}
}

func (s *WarningService) Track(balances []models.ClientBalance, idx *ReferenceIndex,
	existing []*models.LowBalanceWarning, now time.Time) *WarningResult {

	open := make(map[string][]*models.LowBalanceWarning)
	for _, w := range existing {
		if w.ClearedAt == nil {
			open[w.ClientID] = append(open[w.ClientID], w)
		}
	}

	res := &WarningResult{}
	for _, b := range balances {
		switch b.State {
		case models.BalanceOK:
			for _, w := range open[b.ClientID] {
				res.ClearedWarningIDs = append(res.ClearedWarningIDs, w.ID)
			}
		case models.BalanceLow, models.BalanceOverdrawn:
			if len(open[b.ClientID]) > 0 {
				continue // already warned for this episode
			}
			w := &models.LowBalanceWarning{
				ClientID:      b.ClientID,
				Balance:       b.Balance,
				TargetBalance: b.Target,
				WarnedAt:      now,
			}
			if c, ok := idx.ClientsByID[b.ClientID]; ok {
				w.ClientEmail = c.Email
				w.ClientName = c.Name
			}
			res.NewWarnings = append(res.NewWarnings, w)
		}
	}
	return res
}
