package services

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"lexledger/internal/models"
)

// ErrRunInProgress is returned when another reconciliation holds the
// run lock. Callers skip; they never wait or retry into a live run.
var ErrRunInProgress = errors.New("reconciliation run already in progress")

// LedgerStore is the persistence surface the engine consumes. The
// engine never talks to storage any other way: one snapshot in, one
// batch out, and an advisory lock serializing runs.
type LedgerStore interface {
	LoadSnapshot() (*models.Snapshot, error)
	Apply(batch *models.ApplyBatch, now time.Time) error
	TryLock() (bool, error)
	Unlock() error
}

// InvoiceRenderer produces a shareable document for a generated
// invoice. Rendering happens after persistence and is best-effort.
type InvoiceRenderer interface {
	Render(inv *models.Invoice) (string, error)
}

// ReconcileService runs one full reconciliation pass:
// snapshot → compute → apply → notify. Persisted state is the source
// of truth; a notification or rendering failure never rolls back the
// ledger write behind it.
type ReconcileService struct {
	store     LedgerStore
	settings  *SettingsService
	syncer    *SyncService
	balances  *BalanceService
	warnings  *WarningService
	invoices  *InvoiceService
	digests   *DigestService
	notifiers []Notifier
	renderer  InvoiceRenderer

	mu         sync.Mutex
	lastDigest *Digest
}

func NewReconcileService(store LedgerStore, settings *SettingsService, syncer *SyncService,
	balances *BalanceService, warnings *WarningService, invoices *InvoiceService,
	digests *DigestService, notifiers []Notifier, renderer InvoiceRenderer) *ReconcileService {
	return &ReconcileService{
		store:     store,
		settings:  settings,
		syncer:    syncer,
		balances:  balances,
		warnings:  warnings,
		invoices:  invoices,
		digests:   digests,
		notifiers: notifiers,
		renderer:  renderer,
	}
}

// RunDailySync is the scheduled reconciliation pass. On the invoice
// day it also closes out the previous month's billing, all in the
// same apply batch.
func (s *ReconcileService) RunDailySync(now time.Time) (*Digest, error) {
	got, err := s.store.TryLock()
	if err != nil {
		return nil, err
	}
	if !got {
		return nil, ErrRunInProgress
	}
	defer func() {
		if err := s.store.Unlock(); err != nil {
			log.Printf("release run lock: %v", err)
		}
	}()

	snap, err := s.store.LoadSnapshot()
	if err != nil {
		return nil, fmt.Errorf("daily sync: %w", err)
	}
	settings := s.settings.Resolve(snap.SettingRows)
	idx := BuildReferenceIndex(snap)

	syncRes := s.syncer.Sync(snap, idx, now)
	snap.Clients = append(snap.Clients, syncRes.NewClients...)

	balances, gaps := s.balances.Compute(snap, idx, settings.LowBalanceThreshold)
	warnRes := s.warnings.Track(balances, idx, snap.Warnings, now)

	var invoiceRes *InvoiceResult
	if settings.AutoGenerateInvoices && now.Day() == settings.InvoiceDay {
		invoiceRes = s.invoices.Generate(snap, idx, PreviousMonth(now), now)
	}

	batch := &models.ApplyBatch{
		NewClients:          syncRes.NewClients,
		ProcessedPaymentIDs: syncRes.ProcessedPaymentIDs,
		NewWarnings:         warnRes.NewWarnings,
		ClearedWarningIDs:   warnRes.ClearedWarningIDs,
	}
	for _, b := range balances {
		batch.TouchedClientIDs = append(batch.TouchedClientIDs, b.ClientID)
	}
	if invoiceRes != nil {
		batch.NewInvoices = invoiceRes.NewInvoices
	}
	if err := s.store.Apply(batch, now); err != nil {
		return nil, fmt.Errorf("daily sync: %w", err)
	}

	// Ledger state is committed; everything below is best-effort.
	if settings.EmailNotifications {
		s.dispatchWarnings(warnRes.NewWarnings, settings, snap, idx)
	}
	if invoiceRes != nil {
		s.renderInvoices(invoiceRes.NewInvoices)
	}

	digest := s.digests.Build(now, balances, syncRes, warnRes, invoiceRes, gaps)
	s.mu.Lock()
	s.lastDigest = digest
	s.mu.Unlock()
	return digest, nil
}

// RunInvoiceGeneration bills one month on demand, outside the daily
// schedule.
func (s *ReconcileService) RunInvoiceGeneration(month string, now time.Time) (*InvoiceResult, error) {
	got, err := s.store.TryLock()
	if err != nil {
		return nil, err
	}
	if !got {
		return nil, ErrRunInProgress
	}
	defer func() {
		if err := s.store.Unlock(); err != nil {
			log.Printf("release run lock: %v", err)
		}
	}()

	snap, err := s.store.LoadSnapshot()
	if err != nil {
		return nil, fmt.Errorf("invoice generation: %w", err)
	}
	idx := BuildReferenceIndex(snap)
	res := s.invoices.Generate(snap, idx, month, now)

	if err := s.store.Apply(&models.ApplyBatch{NewInvoices: res.NewInvoices}, now); err != nil {
		return nil, fmt.Errorf("invoice generation: %w", err)
	}
	s.renderInvoices(res.NewInvoices)
	return res, nil
}

// BalanceReport computes current balances without mutating anything.
func (s *ReconcileService) BalanceReport() ([]models.ClientBalance, []ReferenceGap, error) {
	snap, err := s.store.LoadSnapshot()
	if err != nil {
		return nil, nil, fmt.Errorf("balance report: %w", err)
	}
	settings := s.settings.Resolve(snap.SettingRows)
	idx := BuildReferenceIndex(snap)
	balances, gaps := s.balances.Compute(snap, idx, settings.LowBalanceThreshold)
	return balances, gaps, nil
}

// DispatchDigest sends the daily summary to all active lawyers. It
// reuses the morning run's digest when one exists for today, so the
// email matches what the run actually did.
func (s *ReconcileService) DispatchDigest(now time.Time) error {
	s.mu.Lock()
	digest := s.lastDigest
	s.mu.Unlock()

	snap, err := s.store.LoadSnapshot()
	if err != nil {
		return fmt.Errorf("dispatch digest: %w", err)
	}
	settings := s.settings.Resolve(snap.SettingRows)
	if !settings.EmailNotifications {
		return nil
	}
	if digest == nil || digest.RunAt.YearDay() != now.YearDay() || digest.RunAt.Year() != now.Year() {
		idx := BuildReferenceIndex(snap)
		balances, gaps := s.balances.Compute(snap, idx, settings.LowBalanceThreshold)
		digest = s.digests.Build(now, balances, nil, nil, nil, gaps)
	}

	recipients := activeLawyerEmails(snap.Lawyers)
	for _, n := range s.notifiers {
		if err := n.SendDailyDigest(recipients, digest); err != nil {
			log.Printf("digest dispatch: %v", err)
		}
	}
	return nil
}

// LastDigest returns the most recent run's digest, if any.
func (s *ReconcileService) LastDigest() *Digest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastDigest
}

func (s *ReconcileService) dispatchWarnings(warnings []*models.LowBalanceWarning,
	settings models.Settings, snap *models.Snapshot, idx *ReferenceIndex) {
	for _, w := range warnings {
		cc := assignedLawyerEmails(w.ClientID, snap, idx)
		for _, n := range s.notifiers {
			if err := n.SendLowBalanceAlert(w, settings, cc); err != nil {
				log.Printf("low balance alert for %s: %v", w.ClientID, err)
			}
		}
	}
}

func (s *ReconcileService) renderInvoices(invoices []*models.Invoice) {
	if s.renderer == nil {
		return
	}
	for _, inv := range invoices {
		if path, err := s.renderer.Render(inv); err != nil {
			log.Printf("render invoice %s: %v", inv.ID, err)
		} else {
			log.Printf("invoice %s rendered to %s", inv.ID, path)
		}
	}
}

// assignedLawyerEmails resolves the cc list for a client's alert: the
// lawyers who have billed time to that client.
func assignedLawyerEmails(clientID string, snap *models.Snapshot, idx *ReferenceIndex) []string {
	seen := make(map[string]bool)
	var emails []string
	for _, e := range snap.TimeEntries {
		id, ok := idx.EntryClientID(e)
		if !ok || id != clientID {
			continue
		}
		email, ok := idx.LawyerEmails[e.LawyerID]
		if !ok || seen[email] {
			continue
		}
		seen[email] = true
		emails = append(emails, email)
	}
	return emails
}

func activeLawyerEmails(lawyers []*models.Lawyer) []string {
	var emails []string
	for _, l := range lawyers {
		if l.Status == models.LawyerStatusActive && l.Email != "" {
			emails = append(emails, l.Email)
		}
	}
	return emails
}
