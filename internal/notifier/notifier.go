package notifier

import (
	"fmt"
	"net/smtp"
	"os"

	"github.com/sirupsen/logrus"
)

// Notifier delivers receipts and reports by email. Delivery is best-effort
// everywhere it is used: a failed send is logged and never bubbles up into
// the transaction that triggered it.
type Notifier interface {
	Send(to, subject, body string) error
}

// SMTPNotifier sends through a plain SMTP relay.
type SMTPNotifier struct {
	Host     string
	Port     string
	From     string
	Username string
	Password string
}

func (n *SMTPNotifier) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", n.From, to, subject, body)

	addr := n.Host + ":" + n.Port
	var auth smtp.Auth
	if n.Username != "" {
		auth = smtp.PlainAuth("", n.Username, n.Password, n.Host)
	}
	return smtp.SendMail(addr, auth, n.From, []string{to}, []byte(msg))
}

// LogNotifier just logs the message. Used when no SMTP relay is configured
// (local development, tests).
type LogNotifier struct{}

func (LogNotifier) Send(to, subject, body string) error {
	logrus.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	}).Info("notifier: email suppressed (no SMTP configured)")
	return nil
}

// FromEnv picks the SMTP notifier when SMTP_HOST is set, the log notifier
// otherwise.
func FromEnv() Notifier {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		return LogNotifier{}
	}
	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "587"
	}
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "no-reply@pharmacy.local"
	}
	return &SMTPNotifier{
		Host:     host,
		Port:     port,
		From:     from,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
	}
}
