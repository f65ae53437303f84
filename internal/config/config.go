package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/smp-leadform/internal/form"
)

// WebhookCount is the number of endpoints every submission is posted to.
const WebhookCount = 2

// CRM providers.
const (
	CRMProviderNone    = "none"
	CRMProviderWebhook = "webhook"
	CRMProviderSQS     = "sqs"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	UseMemoryStore     bool
	RedisAddr          string
	RedisPassword      string
	RedisTLS           bool
	SessionTTL         time.Duration
	CORSAllowedOrigins []string
	SubmitRateLimit    float64
	SubmitRateBurst    int
	DispatchTimeout    time.Duration
	FormConfigFile     string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Lead notification email
	EmailProvider     string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	Form FormSettings
}

// FormSettings mirrors the landing page CONFIG object. It can be supplied
// as YAML through FORM_CONFIG_FILE.
type FormSettings struct {
	Endpoints         []string        `yaml:"formEndpoints"`
	NotificationEmail string          `yaml:"notificationEmail"`
	LeadScoring       form.Thresholds `yaml:"leadScoring"`
	UI                UISettings      `yaml:"form"`
	Validation        Validation      `yaml:"validation"`
	CRM               CRMSettings     `yaml:"crm"`
	Redirects         Redirects       `yaml:"redirects"`
	Testing           Testing         `yaml:"testing"`
}

// UISettings are the presentation toggles.
type UISettings struct {
	AutoAdvance              bool   `yaml:"autoAdvance"`
	ShowProgressBar          bool   `yaml:"showProgressBar"`
	EnableKeyboardNavigation bool   `yaml:"enableKeyboardNavigation"`
	PhoneFormat              string `yaml:"phoneFormat"`
}

// Validation holds contact-step validation options.
type Validation struct {
	MinPhoneLength       int      `yaml:"minPhoneLength"`
	RequireAllFields     bool     `yaml:"requireAllFields"`
	EmailDomainBlacklist []string `yaml:"emailDomainBlacklist"`
}

// CRMSettings configures the optional CRM forward.
type CRMSettings struct {
	Enabled  bool   `yaml:"enabled"`
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"apiKey"`
	URL      string `yaml:"url"`
	QueueURL string `yaml:"queueUrl"`
}

// Redirects configures where the visitor goes after submitting.
type Redirects struct {
	AfterSubmit string `yaml:"afterSubmit"`
	WebsiteURL  string `yaml:"websiteUrl"`
}

// Testing configures the A/B variant.
type Testing struct {
	Enabled bool   `yaml:"enabled"`
	Variant string `yaml:"variant"`
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		UseMemoryStore:     getEnvAsBool("USE_MEMORY_STORE", false),
		RedisAddr:          getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisTLS:           getEnvAsBool("REDIS_TLS", false),
		SessionTTL:         getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
		SubmitRateLimit:    getEnvAsFloat("SUBMIT_RATE_LIMIT", 1),
		SubmitRateBurst:    getEnvAsInt("SUBMIT_RATE_BURST", 5),
		DispatchTimeout:    getEnvAsDuration("DISPATCH_TIMEOUT", 0),
		FormConfigFile:     getEnv("FORM_CONFIG_FILE", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "auto"))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Scalp Carolinas"),

		Form: FormSettings{
			Endpoints:         getEnvAsList("FORM_WEBHOOK_URLS", nil),
			NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
			LeadScoring: form.Thresholds{
				Hot:  getEnvAsInt("LEAD_SCORE_HOT", 70),
				Warm: getEnvAsInt("LEAD_SCORE_WARM", 50),
				Cold: getEnvAsInt("LEAD_SCORE_COLD", 0),
			},
			UI: UISettings{
				AutoAdvance:              getEnvAsBool("FORM_AUTO_ADVANCE", true),
				ShowProgressBar:          getEnvAsBool("FORM_SHOW_PROGRESS_BAR", true),
				EnableKeyboardNavigation: getEnvAsBool("FORM_KEYBOARD_NAVIGATION", true),
				PhoneFormat:              strings.ToUpper(getEnv("FORM_PHONE_FORMAT", "US")),
			},
			Validation: Validation{
				MinPhoneLength:       getEnvAsInt("VALIDATION_MIN_PHONE_LENGTH", 10),
				RequireAllFields:     getEnvAsBool("VALIDATION_REQUIRE_ALL_FIELDS", true),
				EmailDomainBlacklist: getEnvAsList("VALIDATION_EMAIL_DOMAIN_BLACKLIST", nil),
			},
			CRM: CRMSettings{
				Enabled:  getEnvAsBool("CRM_ENABLED", false),
				Provider: strings.ToLower(getEnv("CRM_PROVIDER", CRMProviderNone)),
				APIKey:   getEnv("CRM_API_KEY", ""),
				URL:      getEnv("CRM_URL", ""),
				QueueURL: getEnv("CRM_QUEUE_URL", ""),
			},
			Redirects: Redirects{
				AfterSubmit: getEnv("REDIRECT_AFTER_SUBMIT", ""),
				WebsiteURL:  getEnv("WEBSITE_URL", "https://scalpcarolinas.com"),
			},
			Testing: Testing{
				Enabled: getEnvAsBool("AB_TESTING_ENABLED", false),
				Variant: strings.ToUpper(getEnv("AB_TESTING_VARIANT", "A")),
			},
		},
	}
}

// Validate rejects settings the form cannot run with.
func (c *Config) Validate() error {
	var errs []error
	f := c.Form

	if len(f.Endpoints) != WebhookCount {
		errs = append(errs, fmt.Errorf("config: expected %d form endpoints, got %d", WebhookCount, len(f.Endpoints)))
	}
	for _, endpoint := range f.Endpoints {
		if u, err := url.Parse(endpoint); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("config: invalid form endpoint %q", endpoint))
		}
	}
	if f.LeadScoring.Warm > f.LeadScoring.Hot {
		errs = append(errs, fmt.Errorf("config: warm threshold %d above hot threshold %d", f.LeadScoring.Warm, f.LeadScoring.Hot))
	}
	if f.UI.PhoneFormat != "" && f.UI.PhoneFormat != "US" {
		errs = append(errs, fmt.Errorf("config: unsupported phone format %q", f.UI.PhoneFormat))
	}
	if f.CRM.Enabled {
		switch f.CRM.Provider {
		case CRMProviderNone:
		case CRMProviderWebhook:
			if f.CRM.URL == "" {
				errs = append(errs, errors.New("config: crm webhook provider needs a url"))
			}
		case CRMProviderSQS:
			if f.CRM.QueueURL == "" {
				errs = append(errs, errors.New("config: crm sqs provider needs a queue url"))
			}
		default:
			errs = append(errs, fmt.Errorf("config: unknown crm provider %q", f.CRM.Provider))
		}
	}
	if f.Testing.Enabled && f.Testing.Variant != "A" && f.Testing.Variant != "B" {
		errs = append(errs, fmt.Errorf("config: unknown A/B variant %q", f.Testing.Variant))
	}
	return errors.Join(errs...)
}

// Rules returns the validation rules for the contact step.
func (f FormSettings) Rules() form.Rules {
	return form.Rules{
		MinPhoneLength:       f.Validation.MinPhoneLength,
		RequireAllFields:     f.Validation.RequireAllFields,
		EmailDomainBlacklist: f.Validation.EmailDomainBlacklist,
	}
}

// RedirectTarget is where the visitor is sent after a successful submit.
func (f FormSettings) RedirectTarget() string {
	if f.Redirects.AfterSubmit != "" {
		return f.Redirects.AfterSubmit
	}
	return "/thank-you"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping empty entries.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
