package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// Secure opens the connection with TLS (implicit TLS, port 465). When
	// false, STARTTLS is used if the server offers it.
	Secure      bool
	DialTimeout time.Duration
	TLSConfig   *tls.Config
}

type SMTPMailer struct {
	config SMTPConfig
}

func NewSMTPMailer(config SMTPConfig) *SMTPMailer {
	if config.DialTimeout <= 0 {
		config.DialTimeout = 30 * time.Second
	}
	return &SMTPMailer{config: config}
}

func (m *SMTPMailer) Name() string {
	return "smtp"
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before sending email: %w", err)
	}

	from, to, err := msg.Addresses()
	if err != nil {
		return err
	}

	client, err := m.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if !m.config.Secure {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(m.tlsConfig()); err != nil {
				return fmt.Errorf("failed to start TLS: %w", err)
			}
		}
	}

	if m.config.Username != "" && m.config.Password != "" {
		auth := smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(from.Address); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to.Address); err != nil {
		return fmt.Errorf("failed to set recipient %s: %w", to.Address, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err := w.Write([]byte(BuildMessage(msg))); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}

func (m *SMTPMailer) dial(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(m.config.Host, fmt.Sprintf("%d", m.config.Port))
	dialer := &net.Dialer{Timeout: m.config.DialTimeout}

	var conn net.Conn
	var err error
	if m.config.Secure {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: m.tlsConfig()}
		conn, err = tlsDialer.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SMTP server: %w", err)
	}

	client, err := smtp.NewClient(conn, m.config.Host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to start SMTP session: %w", err)
	}
	return client, nil
}

func (m *SMTPMailer) tlsConfig() *tls.Config {
	if m.config.TLSConfig != nil {
		return m.config.TLSConfig
	}
	return &tls.Config{ServerName: m.config.Host, MinVersion: tls.VersionTLS12}
}

// BuildMessage renders the RFC 5322 message with an HTML body.
func BuildMessage(msg Message) string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("From: %s\r\n", msg.From))
	builder.WriteString(fmt.Sprintf("To: %s\r\n", msg.To))
	builder.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject)))
	builder.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	builder.WriteString("MIME-Version: 1.0\r\n")
	builder.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	builder.WriteString("\r\n")
	builder.WriteString(msg.HTMLBody)

	return builder.String()
}
