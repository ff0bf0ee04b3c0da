package repositories

import (
	"database/sql"
	"fmt"
	"strings"

	"lexledger/internal/models"
)

type InvoiceRepository struct {
	db *sql.DB
}

func NewInvoiceRepository(db *sql.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

const invoiceColumns = `id, client_id, client_email, client_name, month, total_hours, total_amount, lawyer_ids, matter_ids, invoice_date, status`

func scanInvoice(rows *sql.Rows) (*models.Invoice, error) {
	var inv models.Invoice
	var lawyers, matters string
	if err := rows.Scan(&inv.ID, &inv.ClientID, &inv.ClientEmail, &inv.ClientName, &inv.Month,
		&inv.TotalHours, &inv.TotalAmount, &lawyers, &matters, &inv.InvoiceDate, &inv.Status); err != nil {
		return nil, err
	}
	inv.LawyerIDs = splitIDList(lawyers)
	inv.MatterIDs = splitIDList(matters)
	return &inv, nil
}

func splitIDList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func (r *InvoiceRepository) List() ([]*models.Invoice, error) {
	q := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id <> '' ORDER BY month, client_id`
	rows, err := r.db.Query(q)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var res []*models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, inv)
	}
	return res, rows.Err()
}

func (r *InvoiceRepository) ListByMonth(month string) ([]*models.Invoice, error) {
	q := `SELECT ` + invoiceColumns + ` FROM invoices WHERE month = $1 ORDER BY client_id`
	rows, err := r.db.Query(q, month)
	if err != nil {
		return nil, fmt.Errorf("list invoices by month: %w", err)
	}
	defer rows.Close()

	var res []*models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, inv)
	}
	return res, rows.Err()
}

// Insert relies on the (client_id, month) unique constraint as the
// last line of defense against double invoicing; the generator is
// expected to have skipped existing pairs already.
func (r *InvoiceRepository) Insert(tx *sql.Tx, inv *models.Invoice) error {
	q := `
                INSERT INTO invoices (` + invoiceColumns + `)
                VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
                ON CONFLICT (client_id, month) DO NOTHING
        `
	_, err := tx.Exec(q, inv.ID, inv.ClientID, inv.ClientEmail, inv.ClientName, inv.Month,
		inv.TotalHours, inv.TotalAmount, strings.Join(inv.LawyerIDs, ","), strings.Join(inv.MatterIDs, ","),
		inv.InvoiceDate, inv.Status)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}
