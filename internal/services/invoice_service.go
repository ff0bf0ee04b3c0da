package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"lexledger/internal/models"
)

// InvoiceResult is the outcome of generating one billing month.
type InvoiceResult struct {
	NewInvoices    []*models.Invoice
	DuplicateSkips int
	Gaps           []ReferenceGap
}

// InvoiceService aggregates a calendar month's time entries into one
// DRAFT invoice per client. The (client, month) pair is the guard:
// a month already invoiced for a client is skipped, so running the
// generator twice is a no-op the second time.
type InvoiceService struct{}

func NewInvoiceService() *InvoiceService {
	return &InvoiceService{}
}

// Generate bills the given YYYY-MM month. Rates are resolved at
// generation time; a rate change between entry and invoicing is
// honored deliberately.
func (s *InvoiceService) Generate(snap *models.Snapshot, idx *ReferenceIndex, month string, now time.Time) *InvoiceResult {
	res := &InvoiceResult{}

	invoiced := make(map[string]bool, len(snap.Invoices))
	for _, inv := range snap.Invoices {
		invoiced[inv.ClientID+"|"+inv.Month] = true
	}

	type group struct {
		hours   decimal.Decimal
		amount  decimal.Decimal
		lawyers map[string]bool
		matters map[string]bool
	}
	groups := make(map[string]*group)

	for _, e := range snap.TimeEntries {
		if e.BillingMonth() != month {
			continue
		}
		clientID, ok := idx.EntryClientID(e)
		if !ok {
			res.Gaps = append(res.Gaps, ReferenceGap{
				Kind:   GapUnknownMatter,
				Ref:    fmt.Sprintf("time-entry-%d", e.ID),
				Detail: fmt.Sprintf("time entry on %s has no resolvable client", e.Date.Format("2006-01-02")),
			})
			continue
		}
		rate, ok := idx.LawyerRates[e.LawyerID]
		if !ok {
			res.Gaps = append(res.Gaps, ReferenceGap{
				Kind:   GapUnknownLawyer,
				Ref:    fmt.Sprintf("time-entry-%d", e.ID),
				Detail: fmt.Sprintf("time entry on %s references unknown lawyer %q", e.Date.Format("2006-01-02"), e.LawyerID),
			})
			continue
		}
		g := groups[clientID]
		if g == nil {
			g = &group{lawyers: make(map[string]bool), matters: make(map[string]bool)}
			groups[clientID] = g
		}
		g.hours = g.hours.Add(e.Hours)
		g.amount = g.amount.Add(rate.Mul(e.Hours))
		g.lawyers[e.LawyerID] = true
		if e.MatterID != "" {
			g.matters[e.MatterID] = true
		}
	}

	clientIDs := make([]string, 0, len(groups))
	for id := range groups {
		clientIDs = append(clientIDs, id)
	}
	sort.Strings(clientIDs)

	for _, clientID := range clientIDs {
		if invoiced[clientID+"|"+month] {
			res.DuplicateSkips++
			continue
		}
		g := groups[clientID]
		inv := &models.Invoice{
			ID:          uuid.NewString(),
			ClientID:    clientID,
			Month:       month,
			TotalHours:  g.hours,
			TotalAmount: g.amount.Round(2),
			LawyerIDs:   sortedKeys(g.lawyers),
			MatterIDs:   sortedKeys(g.matters),
			InvoiceDate: now,
			Status:      models.InvoiceStatusDraft,
		}
		if c, ok := idx.ClientsByID[clientID]; ok {
			inv.ClientEmail = c.Email
			inv.ClientName = c.Name
		}
		res.NewInvoices = append(res.NewInvoices, inv)
	}
	return res
}

// PreviousMonth returns the YYYY-MM month before the given time, the
// billing period closed on the invoice day.
func PreviousMonth(now time.Time) string {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return first.AddDate(0, 0, -1).Format("2006-01")
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
