package models

import "github.com/shopspring/decimal"

// Recognized settings ledger keys. Anything else in the settings
// table is ignored.
const (
	SettingBasePaymentURL   = "Payment Link"
	SettingDefaultCurrency  = "Default Currency"
	SettingLowBalance       = "Low Balance Threshold"
	SettingDailySyncTime    = "Daily Sync Time"
	SettingEmailEnabled     = "Email Notifications"
	SettingAutoInvoices     = "Auto Generate Invoices"
	SettingInvoiceDay       = "Invoice Day"
	SettingSummaryEmailTime = "Summary Email Time"
)

// SettingRow is one raw key/value row from the settings ledger.
type SettingRow struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// Settings is the resolved operating configuration. Every field is
// always usable: missing or malformed rows fall back to defaults.
type Settings struct {
	BasePaymentURL       string          `json:"base_payment_url"`
	DefaultCurrency      string          `json:"default_currency"`
	LowBalanceThreshold  decimal.Decimal `json:"low_balance_threshold"`
	DailySyncTime        string          `json:"daily_sync_time"` // HH:MM
	EmailNotifications   bool            `json:"email_notifications"`
	AutoGenerateInvoices bool            `json:"auto_generate_invoices"`
	InvoiceDay           int             `json:"invoice_day"`
	SummaryEmailTime     string          `json:"summary_email_time"` // HH:MM
}
