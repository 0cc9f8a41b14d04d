package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/Dan9191/budget-ledger/internal/config"
	"github.com/Dan9191/budget-ledger/internal/service"
	"github.com/Dan9191/budget-ledger/internal/utils"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	s := &Sender{
		cfg:    cfg,
		logger: logger,
	}
	s.send = s.smtpSend
	return s
}

func (s *Sender) smtpSend(e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	return e.Send(addr, auth)
}

func (s *Sender) deliver(subject, body string) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{s.cfg.NotifyEmail}
	e.Subject = subject
	e.Text = []byte(body + "\nBudget Ledger")

	if err := s.send(e); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", s.cfg.NotifyEmail, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", s.cfg.NotifyEmail, subject)
	return nil
}

// SendRecurringFailures reports recurring transactions that could not be materialized
func (s *Sender) SendRecurringFailures(report *service.ProcessReport) error {
	if len(report.Failures) == 0 {
		return nil
	}
	return s.deliver(
		fmt.Sprintf("%d recurring transaction(s) failed", len(report.Failures)),
		recurringFailuresBody(report),
	)
}

// SendReconciliationNotice reports an adjustment booked while committing staged entries
func (s *Sender) SendReconciliationNotice(accountName string, result *service.CommitResult) error {
	if result.Adjustment == nil {
		return nil
	}
	return s.deliver(
		fmt.Sprintf("Reconciliation adjustment on %s", accountName),
		reconciliationBody(accountName, result, s.cfg.Currency),
	)
}

func recurringFailuresBody(report *service.ProcessReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Processing recurring transactions as of %s created %d transaction(s).\n", report.AsOf, len(report.Processed))
	fmt.Fprintf(&b, "The following templates failed and will be retried on the next run:\n\n")
	for _, f := range report.Failures {
		fmt.Fprintf(&b, "  - %s: %s\n", f.TemplateID, f.Error)
	}
	return b.String()
}

func reconciliationBody(accountName string, result *service.CommitResult, currency string) string {
	return fmt.Sprintf(
		"%d staged transaction(s) were committed to %s.\n"+
			"Expected balance: %s\n"+
			"Reported balance: %s\n"+
			"An adjustment of %s was booked to match the reported balance.\n",
		len(result.Committed), accountName,
		utils.FormatAmount(result.Expected, currency),
		utils.FormatAmount(result.Reported, currency),
		utils.FormatAmount(result.Discrepancy, currency),
	)
}
