package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"lexledger/internal/models"
)

// BalanceService computes authoritative per-client balances from a
// snapshot. All arithmetic is decimal: repeated runs over the same
// data produce identical results.
type BalanceService struct {
	targetMultiplier decimal.Decimal
}

// NewBalanceService takes the multiplier applied to the highest active
// lawyer rate when a client has no explicit target balance.
func NewBalanceService(targetMultiplier decimal.Decimal) *BalanceService {
	if targetMultiplier.Sign() <= 0 {
		targetMultiplier = decimal.NewFromInt(1)
	}
	return &BalanceService{targetMultiplier: targetMultiplier}
}

// Compute returns one ClientBalance per known client plus the gaps
// for records it had to exclude. Payments count only when COMPLETED;
// billed value is hours × the lawyer's current rate, attributed to
// the client owning the entry's matter. fallbackTarget is the firm's
// low balance threshold, used as the default target when no active
// lawyer rate is available to derive one.
func (s *BalanceService) Compute(snap *models.Snapshot, idx *ReferenceIndex, fallbackTarget decimal.Decimal) ([]models.ClientBalance, []ReferenceGap) {
	paid := make(map[string]decimal.Decimal)
	billed := make(map[string]decimal.Decimal)
	var gaps []ReferenceGap

	for _, p := range snap.Payments {
		if p.Status != models.PaymentStatusCompleted {
			continue
		}
		if strings.TrimSpace(p.ClientEmail) == "" {
			// Already flagged by the client sync as EMPTY_PAYMENT_EMAIL.
			continue
		}
		c, ok := idx.ClientByEmail(p.ClientEmail)
		if !ok {
			// New emails are handled by the client sync, which runs
			// before balances; anything still unknown here is a gap.
			gaps = append(gaps, ReferenceGap{
				Kind:   GapUnknownClient,
				Ref:    p.ID,
				Detail: fmt.Sprintf("payment %s references unknown client email %q", p.ID, p.ClientEmail),
			})
			continue
		}
		paid[c.ID] = paid[c.ID].Add(p.Amount.Round(2))
	}

	for _, e := range snap.TimeEntries {
		clientID, ok := idx.EntryClientID(e)
		if !ok {
			gaps = append(gaps, ReferenceGap{
				Kind:   GapUnknownMatter,
				Ref:    fmt.Sprintf("time-entry-%d", e.ID),
				Detail: fmt.Sprintf("time entry on %s references unknown matter %q / client %q", e.Date.Format("2006-01-02"), e.MatterID, e.ClientID),
			})
			continue
		}
		rate, ok := idx.LawyerRates[e.LawyerID]
		if !ok {
			// Contributes zero but is never silently dropped.
			gaps = append(gaps, ReferenceGap{
				Kind:   GapUnknownLawyer,
				Ref:    fmt.Sprintf("time-entry-%d", e.ID),
				Detail: fmt.Sprintf("time entry on %s references unknown lawyer %q", e.Date.Format("2006-01-02"), e.LawyerID),
			})
			continue
		}
		billed[clientID] = billed[clientID].Add(rate.Mul(e.Hours))
	}

	defaultTarget := idx.MaxActiveRate(snap.Lawyers).Mul(s.targetMultiplier).Round(2)
	if defaultTarget.Sign() == 0 {
		defaultTarget = fallbackTarget.Round(2)
	}

	balances := make([]models.ClientBalance, 0, len(snap.Clients))
	for _, c := range snap.Clients {
		target := defaultTarget
		if c.TargetBalance != nil {
			target = c.TargetBalance.Round(2)
		}
		bal := paid[c.ID].Sub(billed[c.ID]).Round(2)
		balances = append(balances, models.ClientBalance{
			ClientID:    c.ID,
			TotalPaid:   paid[c.ID].Round(2),
			TotalBilled: billed[c.ID].Round(2),
			Balance:     bal,
			Target:      target,
			State:       classify(bal, target),
		})
	}
	return balances, gaps
}

func classify(balance, target decimal.Decimal) models.BalanceState {
	switch {
	case balance.Sign() < 0:
		return models.BalanceOverdrawn
	case balance.GreaterThanOrEqual(target):
		return models.BalanceOK
	default:
		return models.BalanceLow
	}
}
