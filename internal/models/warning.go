package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LowBalanceWarning records one below-target episode for a client.
// ClearedAt is set once a later run sees the balance back at OK; an
// open warning (ClearedAt nil) suppresses re-alerting while the
// client stays below target.
type LowBalanceWarning struct {
	ID            int64           `json:"id"`
	ClientID      string          `json:"client_id"`
	ClientEmail   string          `json:"client_email"`
	ClientName    string          `json:"client_name"`
	Balance       decimal.Decimal `json:"balance"`
	TargetBalance decimal.Decimal `json:"target_balance"`
	WarnedAt      time.Time       `json:"warned_at"`
	ClearedAt     *time.Time      `json:"cleared_at,omitempty"`
}
