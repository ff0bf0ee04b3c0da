package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimeEntry is a single block of billed attorney time. The lawyer's
// rate is looked up by id at billing time, never stored on the entry.
type TimeEntry struct {
	ID          int64           `json:"id"`
	Date        time.Time       `json:"date"`
	ClientID    string          `json:"client_id"`
	MatterID    string          `json:"matter_id"`
	LawyerID    string          `json:"lawyer_id"`
	Hours       decimal.Decimal `json:"hours"`
	Description string          `json:"description"`
}

// BillingMonth returns the calendar month the entry bills to,
// formatted YYYY-MM.
func (e TimeEntry) BillingMonth() string {
	return e.Date.Format("2006-01")
}
