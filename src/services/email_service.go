package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"sync"
	"time"

	"github.com/mailgun/mailgun-go/v4"

	"github.com/username/mgscheck/src/config"
	"github.com/username/mgscheck/src/logger"
	"github.com/username/mgscheck/src/models"
)

var ErrNoRecipients = errors.New("no report recipients configured")

// NewReportNotifier picks the notifier configured by NOTIFIER_PROVIDER.
func NewReportNotifier() ReportNotifier {
	if config.Cfg == nil {
		slog.Error("Configuration (config.Cfg) is nil. Report notifier will default to mock.")
		return &MockReportNotifier{}
	}

	provider := config.Cfg.NotifierProvider
	logger.L.Info("Initializing report notifier", "provider", provider)

	switch provider {
	case "mailgun":
		if config.Cfg.MailgunDomain == "" || config.Cfg.MailgunPrivateAPIKey == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("Mailgun configuration incomplete (Domain, API Key, or SenderEmail missing). Falling back to MockReportNotifier.")
			return &MockReportNotifier{Recipients: config.Cfg.ReportRecipients}
		}
		mg := mailgun.NewMailgun(config.Cfg.MailgunDomain, config.Cfg.MailgunPrivateAPIKey)
		logger.L.Info("Mailgun client initialized", "domain", config.Cfg.MailgunDomain)
		return NewMailgunReportNotifier(mg, config.Cfg.SenderEmail, config.Cfg.SenderName, config.Cfg.ReportRecipients)
	default:
		logger.L.Info("Defaulting to MockReportNotifier.")
		return &MockReportNotifier{Recipients: config.Cfg.ReportRecipients}
	}
}

func reportSubject(r models.RunReport) string {
	status := "PASSED"
	if !r.Passed() {
		status = "FAILED"
	}
	return fmt.Sprintf("MGS conformance run %s: %s", r.ID, status)
}

type MailgunReportNotifier struct {
	mg          mailgun.Mailgun
	senderEmail string
	senderName  string
	recipients  []string
	timeout     time.Duration
}

func NewMailgunReportNotifier(mg mailgun.Mailgun, senderEmail, senderName string, recipients []string) *MailgunReportNotifier {
	return &MailgunReportNotifier{
		mg:          mg,
		senderEmail: senderEmail,
		senderName:  senderName,
		recipients:  recipients,
		timeout:     20 * time.Second,
	}
}

func (s *MailgunReportNotifier) SendRunReport(ctx context.Context, report models.RunReport) error {
	if len(s.recipients) == 0 {
		return ErrNoRecipients
	}
	from := fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail)
	summary := report.Summary()

	htmlBody := fmt.Sprintf(`
	<html>
		<body style="font-family: Arial, sans-serif; line-height: 1.6;">
			<p>Conformance run <b>%s</b> finished.</p>
			<pre style="font-family: monospace;">%s</pre>
		</body>
	</html>`, html.EscapeString(report.ID), html.EscapeString(summary))

	message := s.mg.NewMessage(from, reportSubject(report), summary, s.recipients...)
	message.SetHtml(htmlBody)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	resp, id, err := s.mg.Send(ctx, message)
	if err != nil {
		logger.L.Error("Failed to send run report via Mailgun", "error", err, "runId", report.ID, "mailgunResp", resp, "mailgunId", id)
		return fmt.Errorf("mailgun send failed: %w. Response: %s", err, resp)
	}
	logger.L.Info("Run report sent successfully via Mailgun", "runId", report.ID, "recipients", len(s.recipients), "id", id)
	return nil
}

// MockReportNotifier logs reports instead of sending them.
type MockReportNotifier struct {
	Recipients []string

	mu   sync.Mutex
	Sent []models.RunReport
}

func (m *MockReportNotifier) SendRunReport(_ context.Context, report models.RunReport) error {
	m.mu.Lock()
	m.Sent = append(m.Sent, report)
	m.mu.Unlock()
	logger.L.Info("MockReportNotifier: Would send run report.", "to", m.Recipients, "subject", reportSubject(report))
	return nil
}
