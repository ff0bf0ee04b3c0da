package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"lexledger/internal/models"
)

type ClientRepository struct {
	db *sql.DB
}

func NewClientRepository(db *sql.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// List returns every client row with a non-empty id, header-equivalent
// rows excluded at the source.
func (r *ClientRepository) List() ([]*models.Client, error) {
	const q = `
                SELECT id, email, name, target_balance, status, last_updated
                FROM clients
                WHERE id <> ''
                ORDER BY last_updated DESC
        `
	rows, err := r.db.Query(q)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var res []*models.Client
	for rows.Next() {
		var c models.Client
		var target decimal.NullDecimal
		if err := rows.Scan(&c.ID, &c.Email, &c.Name, &target, &c.Status, &c.LastUpdated); err != nil {
			return nil, err
		}
		if target.Valid {
			c.TargetBalance = &target.Decimal
		}
		res = append(res, &c)
	}
	return res, rows.Err()
}

func (r *ClientRepository) GetByID(id string) (*models.Client, error) {
	const q = `
                SELECT id, email, name, target_balance, status, last_updated
                FROM clients
                WHERE id = $1
        `
	var c models.Client
	var target decimal.NullDecimal
	if err := r.db.QueryRow(q, id).Scan(&c.ID, &c.Email, &c.Name, &target, &c.Status, &c.LastUpdated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	if target.Valid {
		c.TargetBalance = &target.Decimal
	}
	return &c, nil
}

func (r *ClientRepository) Insert(tx *sql.Tx, c *models.Client) error {
	const q = `
                INSERT INTO clients (id, email, name, target_balance, status, last_updated)
                VALUES ($1, $2, $3, $4, $5, $6)
        `
	var target decimal.NullDecimal
	if c.TargetBalance != nil {
		target = decimal.NewNullDecimal(*c.TargetBalance)
	}
	if _, err := tx.Exec(q, c.ID, c.Email, c.Name, target, c.Status, c.LastUpdated); err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

// Touch refreshes last_updated after a balance recomputation.
func (r *ClientRepository) Touch(tx *sql.Tx, id string, at time.Time) error {
	const q = `UPDATE clients SET last_updated = $1 WHERE id = $2`
	if _, err := tx.Exec(q, at, id); err != nil {
		return fmt.Errorf("touch client: %w", err)
	}
	return nil
}
