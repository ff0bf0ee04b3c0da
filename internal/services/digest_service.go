package services

import (
	"time"

	"lexledger/internal/models"
)

// Digest is the daily operational summary of one reconciliation run.
// Building it has no ledger side effects.
type Digest struct {
	RunAt             time.Time              `json:"run_at"`
	PaymentsProcessed int                    `json:"payments_processed"`
	ClientsCreated    int                    `json:"clients_created"`
	InvoicesCreated   int                    `json:"invoices_created"`
	WarningsEmitted   int                    `json:"warnings_emitted"`
	WarningsCleared   int                    `json:"warnings_cleared"`
	DuplicateSkips    int                    `json:"duplicate_skips"`
	ClientsOK         int                    `json:"clients_ok"`
	ClientsLow        int                    `json:"clients_low"`
	ClientsOverdrawn  int                    `json:"clients_overdrawn"`
	Balances          []models.ClientBalance `json:"balances"`
	Gaps              []ReferenceGap         `json:"gaps"`
}

type DigestService struct{}

func NewDigestService() *DigestService {
	return &DigestService{}
}

// Build aggregates the other components' outputs for one run. Any of
// sync, warnings or invoices may be nil when that stage didn't run.
func (s *DigestService) Build(runAt time.Time, balances []models.ClientBalance,
	sync *SyncResult, warnings *WarningResult, invoices *InvoiceResult, gaps []ReferenceGap) *Digest {

	d := &Digest{RunAt: runAt, Balances: balances}
	for _, b := range balances {
		switch b.State {
		case models.BalanceOK:
			d.ClientsOK++
		case models.BalanceLow:
			d.ClientsLow++
		case models.BalanceOverdrawn:
			d.ClientsOverdrawn++
		}
	}
	d.Gaps = append(d.Gaps, gaps...)
	if sync != nil {
		d.PaymentsProcessed = sync.PaymentsProcessed
		d.ClientsCreated = len(sync.NewClients)
		d.DuplicateSkips += sync.DuplicateSkips
		d.Gaps = append(d.Gaps, sync.Gaps...)
	}
	if warnings != nil {
		d.WarningsEmitted = len(warnings.NewWarnings)
		d.WarningsCleared = len(warnings.ClearedWarningIDs)
	}
	if invoices != nil {
		d.InvoicesCreated = len(invoices.NewInvoices)
		d.DuplicateSkips += invoices.DuplicateSkips
		d.Gaps = append(d.Gaps, invoices.Gaps...)
	}
	return d
}
