package repositories

import (
	"database/sql"
	"fmt"

	"lexledger/internal/models"
)

type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) List() ([]models.SettingRow, error) {
	const q = `SELECT key, value, description FROM settings WHERE key <> ''`
	rows, err := r.db.Query(q)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var res []models.SettingRow
	for rows.Next() {
		var row models.SettingRow
		if err := rows.Scan(&row.Key, &row.Value, &row.Description); err != nil {
			return nil, err
		}
		res = append(res, row)
	}
	return res, rows.Err()
}
