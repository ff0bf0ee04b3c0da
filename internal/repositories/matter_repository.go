package repositories

import (
	"database/sql"
	"fmt"

	"lexledger/internal/models"
)

type MatterRepository struct {
	db *sql.DB
}

func NewMatterRepository(db *sql.DB) *MatterRepository {
	return &MatterRepository{db: db}
}

func (r *MatterRepository) List() ([]*models.Matter, error) {
	const q = `
                SELECT id, client_id, client_name, description, value, status, created_at, last_updated
                FROM matters
                WHERE id <> ''
                ORDER BY created_at
        `
	rows, err := r.db.Query(q)
	if err != nil {
		return nil, fmt.Errorf("list matters: %w", err)
	}
	defer rows.Close()

	var res []*models.Matter
	for rows.Next() {
		var m models.Matter
		if err := rows.Scan(&m.ID, &m.ClientID, &m.ClientName, &m.Description, &m.Value, &m.Status, &m.CreatedAt, &m.LastUpdated); err != nil {
			return nil, err
		}
		res = append(res, &m)
	}
	return res, rows.Err()
}
