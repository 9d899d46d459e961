package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront-auth/internal/config"
	"github.com/spec-kit/storefront-auth/internal/events"
)

// Mailer delivers a single message. Delivery mechanics (SMTP, provider API)
// live behind this seam; the service only builds recipients and bodies.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// MailerService turns auth events into outbound mail, most importantly the
// password recovery link.
type MailerService struct {
	dispatcher events.Dispatcher
	mailer     Mailer
	logger     *zap.Logger
	baseURL    string
	from       string
}

// NewMailerService creates the service. A nil mailer falls back to a
// logging stub, matching the development setup.
func NewMailerService(dispatcher events.Dispatcher, mailer Mailer, logger *zap.Logger, appCfg config.AppConfig, mailCfg config.MailConfig) *MailerService {
	if mailer == nil {
		mailer = &logMailer{logger: logger}
	}
	return &MailerService{
		dispatcher: dispatcher,
		mailer:     mailer,
		logger:     logger,
		baseURL:    strings.TrimRight(appCfg.BaseURL, "/"),
		from:       mailCfg.From,
	}
}

// RegisterHandlers subscribes to events.
func (m *MailerService) RegisterHandlers() {
	if m.dispatcher == nil {
		return
	}
	m.dispatcher.Subscribe(events.EventPasswordResetRequested, m.handlePasswordResetRequested)
	m.dispatcher.Subscribe(events.EventPasswordChanged, m.handlePasswordChanged)
}

// ResetLink builds the recovery URL. The token is the only identifying
// material; no query parameters carry identity.
func (m *MailerService) ResetLink(token string) string {
	return fmt.Sprintf("%s/password-reset/%s", m.baseURL, token)
}

func (m *MailerService) handlePasswordResetRequested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PasswordResetRequestedPayload)
	if !ok {
		return nil
	}

	body := fmt.Sprintf(
		"Someone requested a password reset for your account.\n\n"+
			"Reset your password: %s\n\n"+
			"The link expires at %s. If this wasn't you, ignore this email.",
		m.ResetLink(payload.Token), payload.ExpiresAt.UTC().Format("2006-01-02 15:04 MST"))

	if err := m.mailer.Send(ctx, payload.Email, "Reset your password", body); err != nil {
		m.logger.Error("failed to send reset mail", zap.Error(err), zap.String("event_id", event.ID))
		return err
	}
	return nil
}

func (m *MailerService) handlePasswordChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PasswordChangedPayload)
	if !ok {
		return nil
	}

	body := "Your password was just changed. If this wasn't you, request a new reset immediately."
	if err := m.mailer.Send(ctx, payload.Email, "Your password was changed", body); err != nil {
		m.logger.Error("failed to send password-changed mail", zap.Error(err), zap.String("event_id", event.ID))
		return err
	}
	return nil
}

// logMailer logs instead of sending. The recovery token itself stays out of
// the log line.
type logMailer struct {
	logger *zap.Logger
}

func (l *logMailer) Send(_ context.Context, to, subject, _ string) error {
	l.logger.Info("mail dispatched",
		zap.String("to", to),
		zap.String("subject", subject))
	return nil
}
