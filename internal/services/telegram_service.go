package services

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"lexledger/internal/models"
)

// TelegramService mirrors warnings and digests into a firm chat so
// the back office sees them without opening email. It is an optional
// second Notifier; email remains the client-facing channel.
type TelegramService struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramService(botToken string, chatID int64) (*TelegramService, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}
	return &TelegramService{bot: bot, chatID: chatID}, nil
}

func (t *TelegramService) SendLowBalanceAlert(w *models.LowBalanceWarning, settings models.Settings, _ []string) error {
	text := fmt.Sprintf("⚠️ Low retainer: %s (%s) at %s %s, target %s %s",
		w.ClientName, w.ClientEmail,
		w.Balance.StringFixed(2), settings.DefaultCurrency,
		w.TargetBalance.StringFixed(2), settings.DefaultCurrency)
	return t.send(text)
}

func (t *TelegramService) SendDailyDigest(_ []string, d *Digest) error {
	text := fmt.Sprintf("Daily summary %s\nPayments: %d | New clients: %d | Invoices: %d | Warnings: %d | Flags: %d",
		d.RunAt.Format("2006-01-02"),
		d.PaymentsProcessed, d.ClientsCreated, d.InvoicesCreated, d.WarningsEmitted, len(d.Gaps))
	return t.send(text)
}

func (t *TelegramService) send(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
