package models

import "github.com/shopspring/decimal"

const (
	LawyerStatusActive   = "ACTIVE"
	LawyerStatusInactive = "INACTIVE"
)

type Lawyer struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Email  string          `json:"email"`
	Rate   decimal.Decimal `json:"rate"`
	Status string          `json:"status"`
}
