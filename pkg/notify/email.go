// Package notify delivers payment alerts to organizations by email.
package notify

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"ledger_analytics/pkg/config"
	"ledger_analytics/pkg/core/cashflow"
)

var ErrSMTPDisabled = errors.New("smtp is not configured")

// SendFunc delivers a composed message. It matches (*email.Email).Send.
type SendFunc func(e *email.Email, addr string, auth smtp.Auth) error

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    config.SMTPConfig
	logger *logrus.Logger
	send   SendFunc
}

// NewSender creates a new email sender
func NewSender(cfg config.SMTPConfig, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// WithSendFunc replaces the transport, e.g. with a recorder in tests.
func (s *Sender) WithSendFunc(fn SendFunc) *Sender {
	s.send = fn
	return s
}

// SendPaymentAlerts mails one digest listing every alert of an organization.
// An empty alert list sends nothing.
func (s *Sender) SendPaymentAlerts(orgID, to string, alerts []cashflow.PaymentAlert) error {
	if len(alerts) == 0 {
		return nil
	}
	if !s.cfg.Enabled() {
		return ErrSMTPDisabled
	}

	e := BuildAlertEmail(s.cfg.From, to, orgID, alerts)

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	if err := s.send(e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send payment alerts to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"org": orgID, "alerts": len(alerts)}).Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}

// BuildAlertEmail composes the digest. Alerts are listed in the order given.
func BuildAlertEmail(from, to, orgID string, alerts []cashflow.PaymentAlert) *email.Email {
	e := email.NewEmail()
	e.From = from
	e.To = []string{to}
	e.Subject = alertSubject(alerts)
	e.Text = []byte(alertBody(orgID, alerts))
	return e
}

func alertSubject(alerts []cashflow.PaymentAlert) string {
	overdue := 0
	for _, a := range alerts {
		if a.IsPastDue {
			overdue++
		}
	}
	if overdue > 0 {
		return fmt.Sprintf("%d overdue of %d payment alerts", overdue, len(alerts))
	}
	return fmt.Sprintf("%d upcoming payments", len(alerts))
}

func alertBody(orgID string, alerts []cashflow.PaymentAlert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Payment alerts for %s\n\n", orgID)
	for _, a := range alerts {
		fmt.Fprintf(&b, "- %s (%s) %.2f due %s: %s\n",
			a.ItemName, a.Kind, a.Amount, a.DueDate.Format("2006-01-02"), describeDays(a))
	}
	b.WriteString("\nThis message was generated from your recurring cash-flow items.\n")
	return b.String()
}

func describeDays(a cashflow.PaymentAlert) string {
	switch {
	case a.DaysUntil == 0:
		return "due today"
	case a.IsPastDue && a.DaysUntil == -1:
		return "1 day overdue"
	case a.IsPastDue:
		return fmt.Sprintf("%d days overdue", -a.DaysUntil)
	case a.DaysUntil == 1:
		return "in 1 day"
	default:
		return fmt.Sprintf("in %d days", a.DaysUntil)
	}
}
