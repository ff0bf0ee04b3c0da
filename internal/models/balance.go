package models

import "github.com/shopspring/decimal"

// BalanceState classifies a client's balance against their target.
type BalanceState string

const (
	BalanceOK        BalanceState = "OK"
	BalanceLow       BalanceState = "LOW"
	BalanceOverdrawn BalanceState = "OVERDRAWN"
)

// ClientBalance is the per-client output of one balance computation.
// Derived each run, never a stored source of truth.
type ClientBalance struct {
	ClientID    string          `json:"client_id"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
	TotalBilled decimal.Decimal `json:"total_billed"`
	Balance     decimal.Decimal `json:"balance"`
	Target      decimal.Decimal `json:"target"`
	State       BalanceState    `json:"state"`
}
