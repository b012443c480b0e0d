package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	pkgerrors "github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/errors"
)

// Config is the per-shop SMTP slice of settings one send needs.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Sender delivers plain-text mail over SMTP with AUTH PLAIN.
type Sender struct {
	// send is swappable for tests; defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSender() *Sender {
	return &Sender{send: smtp.SendMail}
}

// Send delivers one message. Missing SMTP settings surface as
// CONFIGURATION_ERROR; transport failures as DEPENDENCY_ERROR.
func (s *Sender) Send(ctx context.Context, cfg Config, to, subject, body string) error {
	if cfg.Host == "" || cfg.User == "" || cfg.Password == "" {
		return pkgerrors.New(pkgerrors.CodeConfiguration, "smtp settings not configured")
	}
	if to == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient address required")
	}

	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	msg.WriteString(body)

	auth := smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	addr := fmt.Sprintf("%s:%d", cfg.Host, port)

	// smtp.SendMail has no context hook; the deadline check keeps callers from
	// dispatching after their sweep context is gone.
	if err := ctx.Err(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "context done before smtp send")
	}
	if err := s.send(addr, auth, from, []string{to}, []byte(msg.String())); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "smtp send failed")
	}
	return nil
}
