// Package mail delivers transactional email.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/application/notification"
	"github.com/shopfront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

var (
	_ notification.Mailer = (*SMTPMailer)(nil)
	_ notification.Mailer = (*LogMailer)(nil)
)

// ErrInvalidRecipient is returned when the recipient is not a valid address
var ErrInvalidRecipient = errors.New("invalid recipient address")

// New returns the mailer selected by cfg.Driver
func New(cfg config.MailConfig, logger *zap.Logger) (notification.Mailer, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "log":
		return NewLogMailer(logger), nil
	case "smtp":
		return NewSMTPMailer(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown mail driver %q", cfg.Driver)
	}
}

// DefaultTimeout bounds one SMTP conversation when none is configured
const DefaultTimeout = 10 * time.Second

// SMTPMailer sends plain-text email through an SMTP relay
type SMTPMailer struct {
	addr    string
	host    string
	from    mail.Address
	auth    smtp.Auth
	timeout time.Duration
	logger  *zap.Logger
	send    func(ctx context.Context, from string, to []string, msg []byte) error
	now     func() time.Time
}

// NewSMTPMailer creates an SMTP mailer. PLAIN auth is used when a username is set.
func NewSMTPMailer(cfg config.MailConfig, logger *zap.Logger) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("mail host is required")
	}
	from, err := mail.ParseAddress(cfg.From)
	if err != nil {
		return nil, fmt.Errorf("invalid mail from address: %w", err)
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	m := &SMTPMailer{
		addr:    net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		host:    cfg.Host,
		from:    *from,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
	m.send = m.deliver
	if cfg.Username != "" {
		m.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return m, nil
}

// Send delivers the email. The whole SMTP conversation is bounded by the
// configured timeout and by ctx.
func (m *SMTPMailer) Send(ctx context.Context, email notification.Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to, err := mail.ParseAddress(email.To)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRecipient, email.To)
	}

	msg := buildMessage(m.from, *to, email.Subject, email.Body, m.now(), m.host)
	if err := m.send(ctx, m.from.Address, []string{to.Address}, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	m.logger.Debug("email delivered", zap.String("to", to.Address), zap.String("subject", email.Subject))
	return nil
}

// deliver runs one SMTP session the way smtp.SendMail does, on a connection
// whose deadline follows the timeout and ctx
func (m *SMTPMailer) deliver(ctx context.Context, from string, to []string, msg []byte) error {
	dialer := net.Dialer{Timeout: m.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", m.addr)
	if err != nil {
		return err
	}
	deadline := time.Now().Add(m.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close()
		return err
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	c, err := smtp.NewClient(conn, m.host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if err := c.Hello("localhost"); err != nil {
		return err
	}
	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
			return err
		}
	}
	if m.auth != nil {
		if ok, _ := c.Extension("AUTH"); !ok {
			return errors.New("smtp server does not support AUTH")
		}
		if err := c.Auth(m.auth); err != nil {
			return err
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func buildMessage(from, to mail.Address, subject, body string, now time.Time, host string) []byte {
	var buf bytes.Buffer
	header := func(k, v string) {
		buf.WriteString(k)
		buf.WriteString(": ")
		buf.WriteString(v)
		buf.WriteString("\r\n")
	}
	header("From", from.String())
	header("To", to.String())
	header("Subject", mime.QEncoding.Encode("utf-8", subject))
	header("Date", now.Format(time.RFC1123Z))
	header("Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), host))
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="utf-8"`)
	header("Content-Transfer-Encoding", "8bit")
	buf.WriteString("\r\n")

	// SMTP requires CRLF line endings in the body
	body = strings.ReplaceAll(body, "\r\n", "\n")
	buf.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	if !strings.HasSuffix(body, "\n") {
		buf.WriteString("\r\n")
	}
	return buf.Bytes()
}

// LogMailer writes email to the log instead of sending it. Used in development.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a new LogMailer
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the email
func (m *LogMailer) Send(_ context.Context, email notification.Email) error {
	m.logger.Info("email (log driver)",
		zap.String("to", email.To),
		zap.String("subject", email.Subject),
		zap.String("body", email.Body))
	return nil
}
