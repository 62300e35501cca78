// Package mail sends transactional e-mail over SMTP.
package mail

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"
)

type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

type Message struct {
	To          string
	Subject     string
	HTMLBody    string
	TextBody    string
	Attachments []Attachment
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(m.build(msg)); err != nil {
		return fmt.Errorf("mail: send to %s: %w", msg.To, err)
	}
	return nil
}

func (m *SMTPMailer) build(msg Message) *gomail.Message {
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)

	switch {
	case msg.TextBody != "" && msg.HTMLBody != "":
		gm.SetBody("text/plain", msg.TextBody)
		gm.AddAlternative("text/html", msg.HTMLBody)
	case msg.HTMLBody != "":
		gm.SetBody("text/html", msg.HTMLBody)
	default:
		gm.SetBody("text/plain", msg.TextBody)
	}

	for _, a := range msg.Attachments {
		data := a.Data
		gm.Attach(a.Name,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {a.ContentType}}),
		)
	}
	return gm
}

type noopMailer struct{}

// NewNoop returns a mailer that discards messages.
func NewNoop() Mailer { return noopMailer{} }

func (noopMailer) Send(context.Context, Message) error { return nil }
