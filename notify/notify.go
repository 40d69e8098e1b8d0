// Package notify delivers reminder messages to customers. The SMTP
// implementation is used in production; LogNotifier stands in when no mail
// relay is configured.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// DefaultSubject is the subject line of reminder mails.
const DefaultSubject = "Library loan reminder"

// SMTPNotifier sends one mail per batch through a plain SMTP relay.
type SMTPNotifier struct {
	addr     string
	from     string
	subject  string
	username string
	password string
}

// SMTPOption configures an SMTPNotifier.
type SMTPOption func(*SMTPNotifier)

// WithSubject overrides the mail subject line.
func WithSubject(subject string) SMTPOption {
	return func(n *SMTPNotifier) {
		n.subject = subject
	}
}

// WithCredentials enables PLAIN authentication against the relay.
func WithCredentials(username string, password string) SMTPOption {
	return func(n *SMTPNotifier) {
		n.username = username
		n.password = password
	}
}

// NewSMTPNotifier creates a notifier sending through the relay at addr
// (host:port) with the given sender address.
func NewSMTPNotifier(addr string, from string, options ...SMTPOption) *SMTPNotifier {
	notifier := &SMTPNotifier{
		addr:    addr,
		from:    from,
		subject: DefaultSubject,
	}

	for _, option := range options {
		option(notifier)
	}

	return notifier
}

// Send delivers the message to all recipients in one SMTP transaction.
func (n *SMTPNotifier) Send(ctx context.Context, message string, recipients []string) error {
	if len(recipients) == 0 {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if n.username != "" {
		host := n.addr
		if idx := strings.LastIndex(n.addr, ":"); idx >= 0 {
			host = n.addr[:idx]
		}
		auth = smtp.PlainAuth("", n.username, n.password, host)
	}

	body := buildMessage(n.from, n.subject, message, recipients)

	return smtp.SendMail(n.addr, auth, n.from, recipients, body)
}

// buildMessage renders the RFC 822 mail body for one reminder batch.
func buildMessage(from string, subject string, message string, recipients []string) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(recipients, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	buf.WriteString("\r\n")
	buf.WriteString(message)
	buf.WriteString("\r\n")

	return buf.Bytes()
}

// Logger is the minimal logging surface LogNotifier writes to.
type Logger interface {
	Info(msg string, args ...any)
}

// LogNotifier writes reminder batches to the log instead of sending them.
type LogNotifier struct {
	logger Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send logs the batch and reports success.
func (n *LogNotifier) Send(_ context.Context, message string, recipients []string) error {
	n.logger.Info("reminder batch (mail disabled)",
		"message", message,
		"recipients", strings.Join(recipients, ", "))

	return nil
}
