// Package mailer sends account emails over SMTP.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

const fromName = "Go Outdoor"

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
}

type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.User,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, fromName)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

var (
	verificationTmpl = template.Must(template.New("verify").Parse(
		`<h1>Selamat Datang di Go Outdoor!</h1>` +
			`<p>Gunakan kode berikut untuk memverifikasi akun Anda:</p>` +
			`<h2>{{.Code}}</h2>` +
			`<p>Kode ini akan kedaluwarsa dalam 15 menit.</p>`))

	resetTmpl = template.Must(template.New("reset").Parse(
		`<h1>Anda Meminta Reset Password</h1>` +
			`<p>Klik link di bawah untuk mengatur ulang password. Link ini hanya berlaku selama 1 jam.</p>` +
			`<a href="{{.Link}}" style="background-color: #007bff; color: white; padding: 10px 15px; text-decoration: none; border-radius: 5px;">Reset Password</a>` +
			`<p>Jika Anda tidak meminta ini, abaikan email ini.</p>`))
)

// Mailer renders the account emails and hands them to a Sender.
type Mailer struct {
	Sender  Sender
	BaseURL string
}

func (m *Mailer) SendVerification(ctx context.Context, email, code string) error {
	body, err := render(verificationTmpl, map[string]string{"Code": code})
	if err != nil {
		return err
	}
	return m.Sender.Send(ctx, Message{To: email, Subject: "Kode Verifikasi Akun", HTML: body})
}

func (m *Mailer) SendPasswordReset(ctx context.Context, email, token string) error {
	link := m.BaseURL + "/reset-password.html?token=" + token
	body, err := render(resetTmpl, map[string]string{"Link": link})
	if err != nil {
		return err
	}
	return m.Sender.Send(ctx, Message{To: email, Subject: "Permintaan Reset Password", HTML: body})
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
