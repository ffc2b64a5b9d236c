package email

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/yardline-app/yardline/internal/config"
)

// Module provides email rendering and delivery
var Module = fx.Module("email",
	fx.Provide(
		NewTemplateService,
		NewSender, // Uses Mailgun when configured, otherwise no-op
	),
)

// NewSender creates the appropriate email sender based on configuration.
// Uses Mailgun when configured, otherwise falls back to no-op sender.
func NewSender(log *slog.Logger, cfg *config.Config) Sender {
	if cfg.Email.Enabled && cfg.Email.IsConfigured() {
		mailgunSender := NewMailgunSender(&cfg.Email, log)
		if mailgunSender != nil {
			log.Info("using Mailgun sender",
				slog.String("domain", cfg.Email.MailgunDomain),
				slog.String("from", cfg.Email.FromEmail))
			return mailgunSender
		}
	}

	log.Info("using no-op email sender (Mailgun not configured or email disabled)")
	return &noOpSender{log: log}
}
