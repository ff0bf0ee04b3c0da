package services

import (
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"lexledger/internal/models"
)

// Notifier is the outbound notification sink. Delivery is best-effort:
// a failed send is logged by the caller and never affects the ledger.
type Notifier interface {
	SendLowBalanceAlert(w *models.LowBalanceWarning, settings models.Settings, cc []string) error
	SendDailyDigest(recipients []string, d *Digest) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) Notifier {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		dialer: dialer,
		from:   fromEmail,
	}
}

func (s *emailService) SendLowBalanceAlert(w *models.LowBalanceWarning, settings models.Settings, cc []string) error {
	if w.ClientEmail == "" {
		return fmt.Errorf("low balance alert for client %s: no email on record", w.ClientID)
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", w.ClientEmail)
	if len(cc) > 0 {
		m.SetHeader("Cc", cc...)
	}
	m.SetHeader("Subject", "Your retainer balance is running low")

	topUp := ""
	if settings.BasePaymentURL != "" {
		topUp = fmt.Sprintf(`<p><a href="%s">Top up your retainer</a></p>`, settings.BasePaymentURL)
	}
	body := fmt.Sprintf(`
                <h3>Low retainer balance</h3>
                <p>Dear %s,</p>
                <p>Your retainer balance is currently <strong>%s %s</strong>,
                below your target of %s %s.</p>
                %s
                <p>Best regards,<br>Your legal team</p>
        `, w.ClientName,
		w.Balance.StringFixed(2), settings.DefaultCurrency,
		w.TargetBalance.StringFixed(2), settings.DefaultCurrency,
		topUp)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send low balance alert: %w", err)
	}
	return nil
}

func (s *emailService) SendDailyDigest(recipients []string, d *Digest) error {
	if len(recipients) == 0 {
		return nil
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", recipients...)
	m.SetHeader("Subject", fmt.Sprintf("Daily retainer summary - %s", d.RunAt.Format("Jan 2, 2006")))
	m.SetBody("text/html", renderDigestHTML(d))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send daily digest: %w", err)
	}
	return nil
}

func renderDigestHTML(d *Digest) string {
	var b strings.Builder
	b.WriteString("<h2>Daily retainer summary</h2>")
	fmt.Fprintf(&b, "<p>Run at %s</p>", d.RunAt.Format("2006-01-02 15:04"))
	b.WriteString("<ul>")
	fmt.Fprintf(&b, "<li>Payments processed: %d</li>", d.PaymentsProcessed)
	fmt.Fprintf(&b, "<li>Clients created: %d</li>", d.ClientsCreated)
	fmt.Fprintf(&b, "<li>Invoices generated: %d</li>", d.InvoicesCreated)
	fmt.Fprintf(&b, "<li>Low balance warnings sent: %d</li>", d.WarningsEmitted)
	fmt.Fprintf(&b, "<li>Warnings cleared: %d</li>", d.WarningsCleared)
	fmt.Fprintf(&b, "<li>Duplicate records skipped: %d</li>", d.DuplicateSkips)
	fmt.Fprintf(&b, "<li>Clients OK / low / overdrawn: %d / %d / %d</li>",
		d.ClientsOK, d.ClientsLow, d.ClientsOverdrawn)
	b.WriteString("</ul>")
	if len(d.Gaps) > 0 {
		b.WriteString("<h3>Data quality flags</h3><ul>")
		for _, g := range d.Gaps {
			fmt.Fprintf(&b, "<li>[%s] %s</li>", g.Kind, g.Detail)
		}
		b.WriteString("</ul>")
	}
	return b.String()
}
