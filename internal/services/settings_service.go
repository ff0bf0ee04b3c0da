package services

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"lexledger/internal/models"
)

// Settings defaults, applied whenever a recognized key is missing,
// empty, or malformed.
const (
	defaultCurrency    = "USD"
	defaultThreshold   = "1000"
	defaultSyncTime    = "01:00"
	defaultInvoiceDay  = 1
	defaultSummaryTime = "06:30"
)

// SettingsService resolves raw settings ledger rows into a typed
// configuration. It never fails: the result is always usable.
type SettingsService struct{}

func NewSettingsService() *SettingsService {
	return &SettingsService{}
}

func (s *SettingsService) Resolve(rows []models.SettingRow) models.Settings {
	cfg := models.Settings{
		BasePaymentURL:       "",
		DefaultCurrency:      defaultCurrency,
		LowBalanceThreshold:  decimal.RequireFromString(defaultThreshold),
		DailySyncTime:        defaultSyncTime,
		EmailNotifications:   true,
		AutoGenerateInvoices: true,
		InvoiceDay:           defaultInvoiceDay,
		SummaryEmailTime:     defaultSummaryTime,
	}

	for _, row := range rows {
		val := strings.TrimSpace(row.Value)
		if val == "" {
			continue
		}
		switch row.Key {
		case models.SettingBasePaymentURL:
			cfg.BasePaymentURL = val
		case models.SettingDefaultCurrency:
			cfg.DefaultCurrency = strings.ToUpper(val)
		case models.SettingLowBalance:
			if d, err := decimal.NewFromString(val); err == nil && d.Sign() >= 0 {
				cfg.LowBalanceThreshold = d
			}
		case models.SettingDailySyncTime:
			if validClockTime(val) {
				cfg.DailySyncTime = val
			}
		case models.SettingEmailEnabled:
			if b, ok := parseToggle(val); ok {
				cfg.EmailNotifications = b
			}
		case models.SettingAutoInvoices:
			if b, ok := parseToggle(val); ok {
				cfg.AutoGenerateInvoices = b
			}
		case models.SettingInvoiceDay:
			if n, err := strconv.Atoi(val); err == nil && n >= 1 && n <= 28 {
				cfg.InvoiceDay = n
			}
		case models.SettingSummaryEmailTime:
			if validClockTime(val) {
				cfg.SummaryEmailTime = val
			}
		}
		// unrecognized keys fall through untouched
	}
	return cfg
}

func parseToggle(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true", "yes", "1", "on":
		return true, true
	case "false", "no", "0", "off":
		return false, true
	}
	return false, false
}

// validClockTime accepts HH:MM wall-clock strings.
func validClockTime(s string) bool {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return false
	}
	return true
}
