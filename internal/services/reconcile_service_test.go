package services

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"lexledger/internal/models"
)

// fakeStore keeps the ledgers in memory and mimics the snapshot/apply
// contract: snapshots are copies, applies merge back atomically.
type fakeStore struct {
	snap      *models.Snapshot
	nextWarn  int64
	lockBusy  bool
	locked    bool
	loadErr   error
	applyErr  error
	applies   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{snap: emptySnapshot(), nextWarn: 1}
}

func (f *fakeStore) LoadSnapshot() (*models.Snapshot, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	copied := &models.Snapshot{
		Clients:             append([]*models.Client(nil), f.snap.Clients...),
		Payments:            append([]*models.Payment(nil), f.snap.Payments...),
		TimeEntries:         append([]*models.TimeEntry(nil), f.snap.TimeEntries...),
		Lawyers:             append([]*models.Lawyer(nil), f.snap.Lawyers...),
		Matters:             append([]*models.Matter(nil), f.snap.Matters...),
		Invoices:            append([]*models.Invoice(nil), f.snap.Invoices...),
		Warnings:            append([]*models.LowBalanceWarning(nil), f.snap.Warnings...),
		SettingRows:         append([]models.SettingRow(nil), f.snap.SettingRows...),
		ProcessedPaymentIDs: make(map[string]bool, len(f.snap.ProcessedPaymentIDs)),
	}
	for id := range f.snap.ProcessedPaymentIDs {
		copied.ProcessedPaymentIDs[id] = true
	}
	return copied, nil
}

func (f *fakeStore) Apply(batch *models.ApplyBatch, now time.Time) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.applies++
	f.snap.Clients = append(f.snap.Clients, batch.NewClients...)
	for _, id := range batch.ProcessedPaymentIDs {
		f.snap.ProcessedPaymentIDs[id] = true
	}
	for _, w := range batch.NewWarnings {
		w.ID = f.nextWarn
		f.nextWarn++
		f.snap.Warnings = append(f.snap.Warnings, w)
	}
	for _, id := range batch.ClearedWarningIDs {
		for _, w := range f.snap.Warnings {
			if w.ID == id && w.ClearedAt == nil {
				at := now
				w.ClearedAt = &at
			}
		}
	}
	f.snap.Invoices = append(f.snap.Invoices, batch.NewInvoices...)
	return nil
}

func (f *fakeStore) TryLock() (bool, error) {
	if f.lockBusy {
		return false, nil
	}
	f.locked = true
	return true, nil
}

func (f *fakeStore) Unlock() error {
	f.locked = false
	return nil
}

type fakeNotifier struct {
	alerts  []*models.LowBalanceWarning
	ccs     [][]string
	digests []*Digest
	fail    bool
}

func (n *fakeNotifier) SendLowBalanceAlert(w *models.LowBalanceWarning, _ models.Settings, cc []string) error {
	if n.fail {
		return errors.New("smtp down")
	}
	n.alerts = append(n.alerts, w)
	n.ccs = append(n.ccs, cc)
	return nil
}

func (n *fakeNotifier) SendDailyDigest(recipients []string, d *Digest) error {
	if n.fail {
		return errors.New("smtp down")
	}
	n.digests = append(n.digests, d)
	return nil
}

func newReconciler(store LedgerStore, notifiers ...Notifier) *ReconcileService {
	return NewReconcileService(
		store,
		NewSettingsService(),
		NewSyncService(),
		NewBalanceService(decimal.NewFromInt(1)),
		NewWarningService(),
		NewInvoiceService(),
		NewDigestService(),
		notifiers,
		nil,
	)
}

func TestRunDailySyncEndToEnd(t *testing.T) {
	store := newFakeStore()
	store.snap.Lawyers = []*models.Lawyer{
		lawyer("l1", "l1@firm.com", "300", models.LawyerStatusActive),
	}
	store.snap.Payments = []*models.Payment{
		payment("p1", "client@x.com", "500", models.PaymentStatusCompleted, day(t, "2026-05-01")),
	}
	notifier := &fakeNotifier{}
	svc := newReconciler(store, notifier)

	digest, err := svc.RunDailySync(day(t, "2026-05-02"))
	if err != nil {
		t.Fatalf("RunDailySync: %v", err)
	}
	if digest.PaymentsProcessed != 1 || digest.ClientsCreated != 1 {
		t.Errorf("digest = %d payments, %d clients", digest.PaymentsProcessed, digest.ClientsCreated)
	}
	if len(store.snap.Clients) != 1 {
		t.Fatalf("persisted %d clients", len(store.snap.Clients))
	}
	// Balance 500 ≥ default target 300: no warning.
	if digest.WarningsEmitted != 0 || len(notifier.alerts) != 0 {
		t.Errorf("unexpected warnings: digest=%d alerts=%d", digest.WarningsEmitted, len(notifier.alerts))
	}
	b := balanceFor(t, digest.Balances, store.snap.Clients[0].ID)
	if !b.Balance.Equal(dec(t, "500")) {
		t.Errorf("balance = %s, want 500", b.Balance)
	}
	if store.locked {
		t.Error("run lock not released")
	}
}

// Re-running over unchanged data changes nothing and re-sends nothing.
func TestRunDailySyncIdempotent(t *testing.T) {
	store := newFakeStore()
	store.snap.Clients = []*models.Client{client("c1", "a@x.com", decPtr(t, "2000"))}
	store.snap.Lawyers = []*models.Lawyer{lawyer("l1", "l1@firm.com", "250", models.LawyerStatusActive)}
	store.snap.Matters = []*models.Matter{matter("m1", "c1")}
	store.snap.Payments = []*models.Payment{
		payment("p1", "a@x.com", "1000", models.PaymentStatusCompleted, day(t, "2026-05-01")),
	}
	store.snap.TimeEntries = []*models.TimeEntry{
		entry(1, day(t, "2026-05-03"), "c1", "m1", "l1", "2"), // bills 500, balance 500 < 2000
	}
	notifier := &fakeNotifier{}
	svc := newReconciler(store, notifier)

	first, err := svc.RunDailySync(day(t, "2026-05-04"))
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.WarningsEmitted != 1 || len(notifier.alerts) != 1 {
		t.Fatalf("first run warnings = %d, alerts = %d, want 1/1", first.WarningsEmitted, len(notifier.alerts))
	}
	if got := notifier.ccs[0]; len(got) != 1 || got[0] != "l1@firm.com" {
		t.Errorf("alert cc = %v, want the billing lawyer", got)
	}

	second, err := svc.RunDailySync(day(t, "2026-05-05"))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.WarningsEmitted != 0 || len(notifier.alerts) != 1 {
		t.Errorf("second run re-warned: digest=%d alerts=%d", second.WarningsEmitted, len(notifier.alerts))
	}
	if second.PaymentsProcessed != 0 || second.DuplicateSkips == 0 {
		t.Errorf("second run reprocessed payments: %+v", second)
	}
	a := balanceFor(t, first.Balances, "c1")
	b := balanceFor(t, second.Balances, "c1")
	if !a.Balance.Equal(b.Balance) {
		t.Errorf("balances drifted between runs: %s vs %s", a.Balance, b.Balance)
	}
}

func TestRunDailySyncGeneratesInvoicesOnInvoiceDay(t *testing.T) {
	store := newFakeStore()
	store.snap.SettingRows = []models.SettingRow{
		{Key: models.SettingInvoiceDay, Value: "15"},
	}
	store.snap.Clients = []*models.Client{client("c1", "a@x.com", decPtr(t, "100"))}
	store.snap.Lawyers = []*models.Lawyer{lawyer("l1", "l1@firm.com", "100", models.LawyerStatusActive)}
	store.snap.Matters = []*models.Matter{matter("m1", "c1")}
	store.snap.TimeEntries = []*models.TimeEntry{
		entry(1, day(t, "2026-04-10"), "c1", "m1", "l1", "2"),
	}
	svc := newReconciler(store, &fakeNotifier{})

	// Not the invoice day: nothing billed.
	digest, err := svc.RunDailySync(day(t, "2026-05-14"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if digest.InvoicesCreated != 0 {
		t.Fatalf("invoiced off-schedule: %d", digest.InvoicesCreated)
	}

	// The 15th: previous month (April) is billed once.
	digest, err = svc.RunDailySync(day(t, "2026-05-15"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if digest.InvoicesCreated != 1 {
		t.Fatalf("InvoicesCreated = %d, want 1", digest.InvoicesCreated)
	}
	if inv := store.snap.Invoices[0]; inv.Month != "2026-04" {
		t.Errorf("invoice month = %q, want 2026-04", inv.Month)
	}

	// A repeat of the invoice day hits the (client, month) guard.
	digest, err = svc.RunDailySync(day(t, "2026-05-15"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if digest.InvoicesCreated != 0 || digest.DuplicateSkips != 1 {
		t.Errorf("repeat run: %d created, %d skips", digest.InvoicesCreated, digest.DuplicateSkips)
	}
	if len(store.snap.Invoices) != 1 {
		t.Errorf("persisted %d invoices, want 1", len(store.snap.Invoices))
	}
}

// Without an active lawyer rate, the firm threshold setting decides
// the default target and therefore the warning.
func TestRunDailySyncThresholdSettingDrivesWarnings(t *testing.T) {
	run := func(threshold string) (*Digest, *fakeNotifier) {
		store := newFakeStore()
		store.snap.SettingRows = []models.SettingRow{
			{Key: models.SettingLowBalance, Value: threshold},
		}
		store.snap.Clients = []*models.Client{client("c1", "a@x.com", nil)}
		store.snap.Payments = []*models.Payment{
			payment("p1", "a@x.com", "5", models.PaymentStatusCompleted, day(t, "2026-05-01")),
		}
		notifier := &fakeNotifier{}
		digest, err := newReconciler(store, notifier).RunDailySync(day(t, "2026-05-02"))
		if err != nil {
			t.Fatalf("run with threshold %s: %v", threshold, err)
		}
		return digest, notifier
	}

	if digest, notifier := run("1"); digest.WarningsEmitted != 0 || len(notifier.alerts) != 0 {
		t.Errorf("threshold 1: %d warnings, %d alerts, want none", digest.WarningsEmitted, len(notifier.alerts))
	}
	if digest, notifier := run("999999"); digest.WarningsEmitted != 1 || len(notifier.alerts) != 1 {
		t.Errorf("threshold 999999: %d warnings, %d alerts, want one each", digest.WarningsEmitted, len(notifier.alerts))
	}
}

// A failed apply surfaces the error and the run leaves no trace: no
// persisted state, no notifications, no retained digest, free lock.
func TestRunDailySyncApplyFailureMutatesNothing(t *testing.T) {
	store := newFakeStore()
	store.snap.Clients = []*models.Client{client("c1", "a@x.com", decPtr(t, "2000"))}
	store.snap.Payments = []*models.Payment{
		payment("p1", "a@x.com", "100", models.PaymentStatusCompleted, day(t, "2026-05-01")),
	}
	store.applyErr = errors.New("serialization failure")
	notifier := &fakeNotifier{}
	svc := newReconciler(store, notifier)

	if _, err := svc.RunDailySync(day(t, "2026-05-02")); err == nil {
		t.Fatal("expected the apply error to surface")
	}
	if store.applies != 0 || len(store.snap.Warnings) != 0 || len(store.snap.ProcessedPaymentIDs) != 0 {
		t.Error("failed apply left partial state behind")
	}
	if len(notifier.alerts) != 0 || len(notifier.digests) != 0 {
		t.Error("notifications dispatched for an unpersisted run")
	}
	if svc.LastDigest() != nil {
		t.Error("digest retained for a failed run")
	}
	if store.locked {
		t.Error("lock leaked after failed run")
	}

	store.applyErr = nil
	digest, err := svc.RunDailySync(day(t, "2026-05-03"))
	if err != nil {
		t.Fatalf("retry after transient failure: %v", err)
	}
	if digest.PaymentsProcessed != 1 || digest.WarningsEmitted != 1 {
		t.Errorf("retry digest = %d payments, %d warnings", digest.PaymentsProcessed, digest.WarningsEmitted)
	}
}

func TestRunDailySyncSkipsWhenLockHeld(t *testing.T) {
	store := newFakeStore()
	store.lockBusy = true
	svc := newReconciler(store, &fakeNotifier{})

	if _, err := svc.RunDailySync(day(t, "2026-05-02")); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("err = %v, want ErrRunInProgress", err)
	}
	if store.applies != 0 {
		t.Error("a skipped run must not write")
	}
}

func TestRunDailySyncAbortsOnLoadFailure(t *testing.T) {
	store := newFakeStore()
	store.loadErr = errors.New("ledger table missing")
	svc := newReconciler(store, &fakeNotifier{})

	if _, err := svc.RunDailySync(day(t, "2026-05-02")); err == nil {
		t.Fatal("expected a structural failure")
	}
	if store.applies != 0 {
		t.Error("a failed load must not write")
	}
	if store.locked {
		t.Error("lock leaked after failed run")
	}
}

// A notification failure is logged and swallowed: the persisted
// warning is the source of truth, and the next run must not re-send.
func TestRunDailySyncNotificationFailureDoesNotRollBack(t *testing.T) {
	store := newFakeStore()
	store.snap.Clients = []*models.Client{client("c1", "a@x.com", decPtr(t, "2000"))}
	store.snap.Payments = []*models.Payment{
		payment("p1", "a@x.com", "100", models.PaymentStatusCompleted, day(t, "2026-05-01")),
	}
	notifier := &fakeNotifier{fail: true}
	svc := newReconciler(store, notifier)

	digest, err := svc.RunDailySync(day(t, "2026-05-02"))
	if err != nil {
		t.Fatalf("run must succeed despite notifier failure: %v", err)
	}
	if digest.WarningsEmitted != 1 {
		t.Fatalf("WarningsEmitted = %d, want 1", digest.WarningsEmitted)
	}
	if len(store.snap.Warnings) != 1 {
		t.Fatal("warning not persisted")
	}

	notifier.fail = false
	second, err := svc.RunDailySync(day(t, "2026-05-03"))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.WarningsEmitted != 0 || len(notifier.alerts) != 0 {
		t.Error("recorded warning re-sent after dispatch failure")
	}
}

func TestRunInvoiceGenerationManualTrigger(t *testing.T) {
	store := newFakeStore()
	store.snap.Clients = []*models.Client{client("c1", "a@x.com", nil)}
	store.snap.Lawyers = []*models.Lawyer{lawyer("l1", "", "100", models.LawyerStatusActive)}
	store.snap.Matters = []*models.Matter{matter("m1", "c1")}
	store.snap.TimeEntries = []*models.TimeEntry{
		entry(1, day(t, "2026-04-10"), "c1", "m1", "l1", "3"),
	}
	svc := newReconciler(store, &fakeNotifier{})

	res, err := svc.RunInvoiceGeneration("2026-04", day(t, "2026-05-20"))
	if err != nil {
		t.Fatalf("RunInvoiceGeneration: %v", err)
	}
	if len(res.NewInvoices) != 1 {
		t.Fatalf("created %d invoices", len(res.NewInvoices))
	}

	again, err := svc.RunInvoiceGeneration("2026-04", day(t, "2026-05-21"))
	if err != nil {
		t.Fatalf("second generation: %v", err)
	}
	if len(again.NewInvoices) != 0 || again.DuplicateSkips != 1 {
		t.Errorf("second generation = %d new, %d skips", len(again.NewInvoices), again.DuplicateSkips)
	}
	if len(store.snap.Invoices) != 1 {
		t.Errorf("persisted %d invoices, want 1", len(store.snap.Invoices))
	}
}

func TestDispatchDigestUsesTodaysRun(t *testing.T) {
	store := newFakeStore()
	store.snap.Lawyers = []*models.Lawyer{
		lawyer("l1", "l1@firm.com", "100", models.LawyerStatusActive),
		lawyer("l2", "", "100", models.LawyerStatusInactive),
	}
	store.snap.Payments = []*models.Payment{
		payment("p1", "a@x.com", "500", models.PaymentStatusCompleted, day(t, "2026-05-01")),
	}
	notifier := &fakeNotifier{}
	svc := newReconciler(store, notifier)

	runAt := day(t, "2026-05-02")
	if _, err := svc.RunDailySync(runAt); err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := svc.DispatchDigest(runAt.Add(5 * time.Hour)); err != nil {
		t.Fatalf("DispatchDigest: %v", err)
	}
	if len(notifier.digests) != 1 {
		t.Fatalf("sent %d digests", len(notifier.digests))
	}
	if notifier.digests[0].PaymentsProcessed != 1 {
		t.Error("digest should reuse the morning run's counts")
	}
}

func TestDispatchDigestBuildsFreshWhenNoRunToday(t *testing.T) {
	store := newFakeStore()
	store.snap.Lawyers = []*models.Lawyer{lawyer("l1", "l1@firm.com", "100", models.LawyerStatusActive)}
	store.snap.Clients = []*models.Client{client("c1", "a@x.com", nil)}
	notifier := &fakeNotifier{}
	svc := newReconciler(store, notifier)

	if err := svc.DispatchDigest(day(t, "2026-05-02")); err != nil {
		t.Fatalf("DispatchDigest: %v", err)
	}
	if len(notifier.digests) != 1 {
		t.Fatalf("sent %d digests", len(notifier.digests))
	}
	if notifier.digests[0].PaymentsProcessed != 0 {
		t.Error("fresh digest should carry no run counts")
	}
}
