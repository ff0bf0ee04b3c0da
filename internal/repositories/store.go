package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"lexledger/internal/models"
)

// runLockKey identifies the advisory lock serializing reconciliation
// runs across processes.
const runLockKey = 0x4c45584c // "LEXL"

// Store aggregates the per-ledger repositories into the snapshot/apply
// surface the engine consumes.
type Store struct {
	db       *sql.DB
	clients  *ClientRepository
	payments *PaymentRepository
	entries  *TimeEntryRepository
	lawyers  *LawyerRepository
	matters  *MatterRepository
	invoices *InvoiceRepository
	warnings *WarningRepository
	settings *SettingsRepository

	// lockMu guards lockConn: the cron goroutine and the HTTP
	// handlers share one Store.
	lockMu   sync.Mutex
	lockConn *sql.Conn
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:       db,
		clients:  NewClientRepository(db),
		payments: NewPaymentRepository(db),
		entries:  NewTimeEntryRepository(db),
		lawyers:  NewLawyerRepository(db),
		matters:  NewMatterRepository(db),
		invoices: NewInvoiceRepository(db),
		warnings: NewWarningRepository(db),
		settings: NewSettingsRepository(db),
	}
}

func (s *Store) Payments() *PaymentRepository      { return s.payments }
func (s *Store) Invoices() *InvoiceRepository      { return s.invoices }
func (s *Store) Clients() *ClientRepository        { return s.clients }
func (s *Store) TimeEntries() *TimeEntryRepository { return s.entries }

// LoadSnapshot reads every ledger or none: the first failure aborts
// the load so the engine never computes from a partial reference set.
func (s *Store) LoadSnapshot() (*models.Snapshot, error) {
	if err := ValidateSchema(s.db); err != nil {
		return nil, err
	}

	snap := &models.Snapshot{}
	var err error
	if snap.Clients, err = s.clients.List(); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if snap.Payments, err = s.payments.List(); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if snap.TimeEntries, err = s.entries.List(); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if snap.Lawyers, err = s.lawyers.List(); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if snap.Matters, err = s.matters.List(); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if snap.Invoices, err = s.invoices.List(); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if snap.Warnings, err = s.warnings.List(); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if snap.SettingRows, err = s.settings.List(); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if snap.ProcessedPaymentIDs, err = s.payments.ProcessedIDs(); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return snap, nil
}

// Apply writes a run's batch in one transaction.
func (s *Store) Apply(batch *models.ApplyBatch, now time.Time) error {
	if batch.Empty() {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("apply batch: %w", err)
	}
	defer tx.Rollback()

	for _, c := range batch.NewClients {
		if err := s.clients.Insert(tx, c); err != nil {
			return err
		}
	}
	for _, id := range batch.TouchedClientIDs {
		if err := s.clients.Touch(tx, id, now); err != nil {
			return err
		}
	}
	for _, id := range batch.ProcessedPaymentIDs {
		if err := s.payments.MarkProcessed(tx, id); err != nil {
			return err
		}
	}
	for _, w := range batch.NewWarnings {
		if err := s.warnings.Insert(tx, w); err != nil {
			return err
		}
	}
	for _, id := range batch.ClearedWarningIDs {
		if err := s.warnings.Clear(tx, id, now); err != nil {
			return err
		}
	}
	for _, inv := range batch.NewInvoices {
		if err := s.invoices.Insert(tx, inv); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("apply batch: %w", err)
	}
	return nil
}

// TryLock takes the advisory run lock. A false return means another
// run holds it and the caller should skip, not wait.
func (s *Store) TryLock() (bool, error) {
	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return false, fmt.Errorf("run lock: %w", err)
	}
	var got bool
	if err := conn.QueryRowContext(context.Background(),
		`SELECT pg_try_advisory_lock($1)`, runLockKey).Scan(&got); err != nil {
		conn.Close()
		return false, fmt.Errorf("run lock: %w", err)
	}
	if !got {
		conn.Close()
		return false, nil
	}
	s.lockMu.Lock()
	s.lockConn = conn
	s.lockMu.Unlock()
	return true, nil
}

// Unlock releases the advisory lock taken by TryLock. The lock lives
// on a pinned connection, so it must be released on the same one.
func (s *Store) Unlock() error {
	s.lockMu.Lock()
	conn := s.lockConn
	s.lockConn = nil
	s.lockMu.Unlock()
	if conn == nil {
		return nil
	}
	_, err := conn.ExecContext(context.Background(),
		`SELECT pg_advisory_unlock($1)`, runLockKey)
	closeErr := conn.Close()
	if err != nil {
		return fmt.Errorf("run unlock: %w", err)
	}
	return closeErr
}
