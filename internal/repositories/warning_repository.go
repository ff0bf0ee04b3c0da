package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"lexledger/internal/models"
)

type WarningRepository struct {
	db *sql.DB
}

func NewWarningRepository(db *sql.DB) *WarningRepository {
	return &WarningRepository{db: db}
}

func (r *WarningRepository) List() ([]*models.LowBalanceWarning, error) {
	const q = `
                SELECT id, client_id, client_email, client_name, balance, target_balance, warned_at, cleared_at
                FROM low_balance_warnings
                WHERE client_id <> ''
                ORDER BY warned_at
        `
	rows, err := r.db.Query(q)
	if err != nil {
		return nil, fmt.Errorf("list warnings: %w", err)
	}
	defer rows.Close()

	var res []*models.LowBalanceWarning
	for rows.Next() {
		var w models.LowBalanceWarning
		var cleared sql.NullTime
		if err := rows.Scan(&w.ID, &w.ClientID, &w.ClientEmail, &w.ClientName, &w.Balance, &w.TargetBalance, &w.WarnedAt, &cleared); err != nil {
			return nil, err
		}
		if cleared.Valid {
			w.ClearedAt = &cleared.Time
		}
		res = append(res, &w)
	}
	return res, rows.Err()
}

func (r *WarningRepository) Insert(tx *sql.Tx, w *models.LowBalanceWarning) error {
	const q = `
                INSERT INTO low_balance_warnings
                        (client_id, client_email, client_name, balance, target_balance, warned_at)
                VALUES ($1, $2, $3, $4, $5, $6)
        `
	if _, err := tx.Exec(q, w.ClientID, w.ClientEmail, w.ClientName, w.Balance, w.TargetBalance, w.WarnedAt); err != nil {
		return fmt.Errorf("insert warning: %w", err)
	}
	return nil
}

// Clear stamps an open warning once the client's balance is back at
// OK, re-arming the edge trigger.
func (r *WarningRepository) Clear(tx *sql.Tx, id int64, at time.Time) error {
	const q = `UPDATE low_balance_warnings SET cleared_at = $1 WHERE id = $2 AND cleared_at IS NULL`
	if _, err := tx.Exec(q, at, id); err != nil {
		return fmt.Errorf("clear warning: %w", err)
	}
	return nil
}
