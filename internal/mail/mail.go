package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"personal-calendar/internal/config"
	"personal-calendar/internal/model"
)

// Sender delivers one plain-text message. A nil error means the SMTP server
// accepted it; there is no delivery confirmation.
type Sender interface {
	Send(ctx context.Context, subject, body, to string) error
}

// SMTP sends through an authenticated SMTP relay with STARTTLS.
type SMTP struct {
	cfg config.SMTP
	log *zap.Logger
}

func NewSMTP(cfg config.SMTP, log *zap.Logger) *SMTP {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTP{cfg: cfg, log: log}
}

func (s *SMTP) Send(ctx context.Context, subject, body, to string) error {
	msg, err := s.message(subject, body, to)
	if err != nil {
		return err
	}

	client, err := gomail.NewClient(s.cfg.Host,
		gomail.WithPort(s.cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.cfg.Username),
		gomail.WithPassword(s.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("%w: smtp client: %v", model.ErrMailDelivery, err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", model.ErrMailDelivery, err)
	}
	s.log.Debug("mail sent", zap.String("to", to))
	return nil
}

func (s *SMTP) message(subject, body, to string) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("%w: from address: %v", model.ErrMailDelivery, err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("%w: recipient %q: %v", model.ErrMailDelivery, to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)
	return msg, nil
}

// ErrDisabled is returned by Log. Reminders stay pending until a real
// transport is configured.
var ErrDisabled = fmt.Errorf("%w: smtp disabled", model.ErrMailDelivery)

// Log only records messages and reports them as undelivered. Used when no
// SMTP host is configured.
type Log struct {
	log *zap.Logger
}

func NewLog(log *zap.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) Send(_ context.Context, subject, body, to string) error {
	l.log.Info("mail (not sent, smtp disabled)",
		zap.String("to", to), zap.String("subject", subject), zap.String("body", body))
	return ErrDisabled
}

// New picks the SMTP sender when a host is configured.
func New(cfg config.SMTP, log *zap.Logger) Sender {
	if cfg.Host == "" {
		log.Warn("SMTP_HOST not set, reminders are logged and left pending")
		return NewLog(log)
	}
	return NewSMTP(cfg, log)
}
