package repositories

import (
	"database/sql"
	"fmt"

	"lexledger/internal/models"
)

type TimeEntryRepository struct {
	db *sql.DB
}

func NewTimeEntryRepository(db *sql.DB) *TimeEntryRepository {
	return &TimeEntryRepository{db: db}
}

func (r *TimeEntryRepository) List() ([]*models.TimeEntry, error) {
	const q = `
                SELECT id, date, client_id, matter_id, lawyer_id, hours, description
                FROM time_entries
                WHERE lawyer_id <> '' OR client_id <> ''
                ORDER BY date
        `
	rows, err := r.db.Query(q)
	if err != nil {
		return nil, fmt.Errorf("list time entries: %w", err)
	}
	defer rows.Close()

	var res []*models.TimeEntry
	for rows.Next() {
		var e models.TimeEntry
		if err := rows.Scan(&e.ID, &e.Date, &e.ClientID, &e.MatterID, &e.LawyerID, &e.Hours, &e.Description); err != nil {
			return nil, err
		}
		res = append(res, &e)
	}
	return res, rows.Err()
}

func (r *TimeEntryRepository) Insert(e *models.TimeEntry) (int64, error) {
	const q = `
                INSERT INTO time_entries (date, client_id, matter_id, lawyer_id, hours, description)
                VALUES ($1, $2, $3, $4, $5, $6)
                RETURNING id
        `
	var id int64
	if err := r.db.QueryRow(q, e.Date, e.ClientID, e.MatterID, e.LawyerID, e.Hours, e.Description).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert time entry: %w", err)
	}
	return id, nil
}
