// Package mailer defines the outbound mail contract and its SMTP driver.
package mailer

import (
	"context"
	"fmt"
	"net/mail"
)

// Message is one HTML email.
type Message struct {
	From     string
	To       string
	Subject  string
	HTMLBody string
}

// Mailer delivers messages. Implementations must honor ctx cancellation
// before any bytes are sent.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
	Name() string
}

// Addresses parses the sender and recipient, which may carry display names.
func (m Message) Addresses() (*mail.Address, *mail.Address, error) {
	from, err := mail.ParseAddress(m.From)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid from address %q: %w", m.From, err)
	}
	to, err := mail.ParseAddress(m.To)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid to address %q: %w", m.To, err)
	}
	return from, to, nil
}
