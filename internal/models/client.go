package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ClientStatusActive = "ACTIVE"
	ClientStatusPaused = "PAUSED"
)

// Client is a retainer account holder. TargetBalance is nil when the
// firm never set an explicit target; the engine falls back to the
// highest active lawyer rate in that case.
type Client struct {
	ID            string           `json:"id"`
	Email         string           `json:"email"`
	Name          string           `json:"name"`
	TargetBalance *decimal.Decimal `json:"target_balance,omitempty"`
	Status        string           `json:"status"`
	LastUpdated   time.Time        `json:"last_updated"`
}
