package bootstrap

import (
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	appconfig "github.com/wolfman30/smp-leadform/internal/config"
	"github.com/wolfman30/smp-leadform/internal/crm"
	"github.com/wolfman30/smp-leadform/internal/notify"
	"github.com/wolfman30/smp-leadform/pkg/logging"
)

// Email providers accepted in EMAIL_PROVIDER.
const (
	EmailProviderAuto     = "auto"
	EmailProviderSendGrid = "sendgrid"
	EmailProviderSES      = "ses"
	EmailProviderStub     = "stub"
)

// NeedsAWS reports whether any configured integration talks to AWS.
func NeedsAWS(cfg *appconfig.Config) bool {
	if cfg == nil {
		return false
	}
	if cfg.EmailProvider == EmailProviderSES {
		return true
	}
	return cfg.Form.CRM.Enabled && cfg.Form.CRM.Provider == appconfig.CRMProviderSQS
}

// BuildEmailSender picks the lead notification transport. SES needs awsCfg;
// without it the stub sender is used.
func BuildEmailSender(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) notify.EmailSender {
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.EmailProvider {
	case EmailProviderSES:
		if awsCfg == nil {
			logger.Warn("ses email provider selected without aws config; using stub sender")
			break
		}
		logger.Info("lead notifications via ses", "from", cfg.SendGridFromEmail)
		return notify.NewSESSender(sesv2.NewFromConfig(*awsCfg), notify.SESConfig{
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
	case EmailProviderAuto, EmailProviderSendGrid, "":
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sender != nil {
			logger.Info("lead notifications via sendgrid", "from", cfg.SendGridFromEmail)
			return sender
		}
		if cfg.EmailProvider == EmailProviderSendGrid {
			logger.Warn("sendgrid email provider selected without api key; using stub sender")
		}
	case EmailProviderStub:
	default:
		logger.Warn("unknown email provider; using stub sender", "provider", cfg.EmailProvider)
	}
	return notify.NewStubEmailSender(logger)
}

// BuildNotifier returns the lead notifier, or nil when no recipient is set.
func BuildNotifier(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) *notify.Service {
	if cfg.Form.NotificationEmail == "" {
		return nil
	}
	return notify.NewService(BuildEmailSender(cfg, awsCfg, logger), cfg.Form.NotificationEmail, logger)
}

// BuildCRMForwarder wires the optional CRM forward. Failures of the built
// forwarder are logged and never reach the visitor.
func BuildCRMForwarder(cfg *appconfig.Config, awsCfg *aws.Config, client *http.Client, logger *logging.Logger) (crm.Forwarder, error) {
	settings := cfg.Form.CRM
	if !settings.Enabled {
		return crm.Nop{}, nil
	}

	var next crm.Forwarder
	switch settings.Provider {
	case appconfig.CRMProviderNone, "":
		return crm.Nop{}, nil
	case appconfig.CRMProviderWebhook:
		if settings.URL == "" {
			return nil, fmt.Errorf("bootstrap: crm webhook url is required")
		}
		next = crm.NewWebhookForwarder(settings.URL, settings.APIKey, client)
	case appconfig.CRMProviderSQS:
		if awsCfg == nil {
			return nil, fmt.Errorf("bootstrap: crm sqs provider needs aws config")
		}
		if settings.QueueURL == "" {
			return nil, fmt.Errorf("bootstrap: crm sqs queue url is required")
		}
		next = crm.NewSQSForwarder(sqs.NewFromConfig(*awsCfg), settings.QueueURL)
	default:
		return nil, fmt.Errorf("bootstrap: unknown crm provider %q", settings.Provider)
	}
	return crm.NewBestEffort(next, settings.Provider, logger), nil
}
