package services

import (
	"testing"

	"lexledger/internal/models"
)

func TestResolveDefaultsOnEmptyLedger(t *testing.T) {
	cfg := NewSettingsService().Resolve(nil)

	if cfg.DefaultCurrency != "USD" {
		t.Errorf("DefaultCurrency = %q, want USD", cfg.DefaultCurrency)
	}
	if !cfg.LowBalanceThreshold.Equal(dec(t, "1000")) {
		t.Errorf("LowBalanceThreshold = %s, want 1000", cfg.LowBalanceThreshold)
	}
	if cfg.DailySyncTime != "01:00" {
		t.Errorf("DailySyncTime = %q, want 01:00", cfg.DailySyncTime)
	}
	if !cfg.EmailNotifications {
		t.Error("EmailNotifications should default to true")
	}
	if !cfg.AutoGenerateInvoices {
		t.Error("AutoGenerateInvoices should default to true")
	}
	if cfg.InvoiceDay != 1 {
		t.Errorf("InvoiceDay = %d, want 1", cfg.InvoiceDay)
	}
	if cfg.SummaryEmailTime != "06:30" {
		t.Errorf("SummaryEmailTime = %q, want 06:30", cfg.SummaryEmailTime)
	}
	if cfg.BasePaymentURL != "" {
		t.Errorf("BasePaymentURL = %q, want empty", cfg.BasePaymentURL)
	}
}

func TestResolveRecognizedKeys(t *testing.T) {
	rows := []models.SettingRow{
		{Key: models.SettingBasePaymentURL, Value: "https://pay.example.com/firm"},
		{Key: models.SettingDefaultCurrency, Value: "eur"},
		{Key: models.SettingLowBalance, Value: "2500.50"},
		{Key: models.SettingDailySyncTime, Value: "03:15"},
		{Key: models.SettingEmailEnabled, Value: "false"},
		{Key: models.SettingAutoInvoices, Value: "no"},
		{Key: models.SettingInvoiceDay, Value: "15"},
		{Key: models.SettingSummaryEmailTime, Value: "07:45"},
	}
	cfg := NewSettingsService().Resolve(rows)

	if cfg.BasePaymentURL != "https://pay.example.com/firm" {
		t.Errorf("BasePaymentURL = %q", cfg.BasePaymentURL)
	}
	if cfg.DefaultCurrency != "EUR" {
		t.Errorf("DefaultCurrency = %q, want EUR", cfg.DefaultCurrency)
	}
	if !cfg.LowBalanceThreshold.Equal(dec(t, "2500.50")) {
		t.Errorf("LowBalanceThreshold = %s", cfg.LowBalanceThreshold)
	}
	if cfg.DailySyncTime != "03:15" {
		t.Errorf("DailySyncTime = %q", cfg.DailySyncTime)
	}
	if cfg.EmailNotifications {
		t.Error("EmailNotifications should be false")
	}
	if cfg.AutoGenerateInvoices {
		t.Error("AutoGenerateInvoices should be false")
	}
	if cfg.InvoiceDay != 15 {
		t.Errorf("InvoiceDay = %d, want 15", cfg.InvoiceDay)
	}
	if cfg.SummaryEmailTime != "07:45" {
		t.Errorf("SummaryEmailTime = %q", cfg.SummaryEmailTime)
	}
}

func TestResolveIgnoresBadAndUnknownValues(t *testing.T) {
	tests := []struct {
		name string
		rows []models.SettingRow
	}{
		{"unknown key", []models.SettingRow{{Key: "Theme Color", Value: "purple"}}},
		{"empty value keeps default", []models.SettingRow{{Key: models.SettingLowBalance, Value: "   "}}},
		{"malformed threshold", []models.SettingRow{{Key: models.SettingLowBalance, Value: "a lot"}}},
		{"negative threshold", []models.SettingRow{{Key: models.SettingLowBalance, Value: "-50"}}},
		{"bad clock time", []models.SettingRow{{Key: models.SettingDailySyncTime, Value: "25:99"}}},
		{"bad toggle", []models.SettingRow{{Key: models.SettingEmailEnabled, Value: "sometimes"}}},
		{"invoice day out of range", []models.SettingRow{{Key: models.SettingInvoiceDay, Value: "31"}}},
	}

	svc := NewSettingsService()
	defaults := svc.Resolve(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := svc.Resolve(tt.rows)
			if !cfg.LowBalanceThreshold.Equal(defaults.LowBalanceThreshold) ||
				cfg.DailySyncTime != defaults.DailySyncTime ||
				cfg.EmailNotifications != defaults.EmailNotifications ||
				cfg.InvoiceDay != defaults.InvoiceDay {
				t.Errorf("Resolve(%v) deviated from defaults: %+v", tt.rows, cfg)
			}
		})
	}
}
