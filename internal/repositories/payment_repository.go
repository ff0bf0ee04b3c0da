package repositories

import (
	"database/sql"
	"fmt"

	"lexledger/internal/models"
)

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) List() ([]*models.Payment, error) {
	const q = `
                SELECT id, client_email, amount, currency, date, status, payment_link
                FROM payments
                WHERE id <> ''
                ORDER BY date
        `
	rows, err := r.db.Query(q)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var res []*models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.ClientEmail, &p.Amount, &p.Currency, &p.Date, &p.Status, &p.PaymentLink); err != nil {
			return nil, err
		}
		res = append(res, &p)
	}
	return res, rows.Err()
}

// InsertIfAbsent appends a payment row unless its id already exists.
// The webhook bridge calls this, so replayed processor events are
// harmless. Reports whether a row was written.
func (r *PaymentRepository) InsertIfAbsent(p *models.Payment) (bool, error) {
	const q = `
                INSERT INTO payments (id, client_email, amount, currency, date, status, payment_link)
                VALUES ($1, $2, $3, $4, $5, $6, $7)
                ON CONFLICT (id) DO NOTHING
        `
	res, err := r.db.Exec(q, p.ID, p.ClientEmail, p.Amount, p.Currency, p.Date, p.Status, p.PaymentLink)
	if err != nil {
		return false, fmt.Errorf("insert payment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert payment: %w", err)
	}
	return n > 0, nil
}

// ProcessedIDs returns the persisted idempotency set.
func (r *PaymentRepository) ProcessedIDs() (map[string]bool, error) {
	rows, err := r.db.Query(`SELECT payment_id FROM processed_payments`)
	if err != nil {
		return nil, fmt.Errorf("list processed payments: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

func (r *PaymentRepository) MarkProcessed(tx *sql.Tx, paymentID string) error {
	const q = `
                INSERT INTO processed_payments (payment_id)
                VALUES ($1)
                ON CONFLICT (payment_id) DO NOTHING
        `
	if _, err := tx.Exec(q, paymentID); err != nil {
		return fmt.Errorf("mark payment processed: %w", err)
	}
	return nil
}
