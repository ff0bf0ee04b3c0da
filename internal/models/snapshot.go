package models

// Snapshot is the full ledger state read once at the start of a
// reconciliation run. All computation happens over the snapshot; the
// ledger is only touched again when the run's ApplyBatch is written.
type Snapshot struct {
	Clients             []*Client
	Payments            []*Payment
	TimeEntries         []*TimeEntry
	Lawyers             []*Lawyer
	Matters             []*Matter
	Invoices            []*Invoice
	Warnings            []*LowBalanceWarning
	SettingRows         []SettingRow
	ProcessedPaymentIDs map[string]bool
}

// ApplyBatch collects every mutation a run produced. It is applied in
// one transaction after all reads and computation complete, so a
// mid-run failure leaves the ledger untouched.
type ApplyBatch struct {
	NewClients          []*Client
	TouchedClientIDs    []string
	ProcessedPaymentIDs []string
	NewWarnings         []*LowBalanceWarning
	ClearedWarningIDs   []int64
	NewInvoices         []*Invoice
}

// Empty reports whether applying the batch would write nothing.
func (b *ApplyBatch) Empty() bool {
	return len(b.NewClients) == 0 && len(b.TouchedClientIDs) == 0 &&
		len(b.ProcessedPaymentIDs) == 0 && len(b.NewWarnings) == 0 &&
		len(b.ClearedWarningIDs) == 0 && len(b.NewInvoices) == 0
}
