package repositories

import (
	"database/sql"
	"fmt"

	"lexledger/internal/models"
)

type LawyerRepository struct {
	db *sql.DB
}

func NewLawyerRepository(db *sql.DB) *LawyerRepository {
	return &LawyerRepository{db: db}
}

func (r *LawyerRepository) List() ([]*models.Lawyer, error) {
	const q = `
                SELECT id, name, email, rate, status
                FROM lawyers
                WHERE id <> ''
                ORDER BY name
        `
	rows, err := r.db.Query(q)
	if err != nil {
		return nil, fmt.Errorf("list lawyers: %w", err)
	}
	defer rows.Close()

	var res []*models.Lawyer
	for rows.Next() {
		var l models.Lawyer
		if err := rows.Scan(&l.ID, &l.Name, &l.Email, &l.Rate, &l.Status); err != nil {
			return nil, err
		}
		res = append(res, &l)
	}
	return res, rows.Err()
}
