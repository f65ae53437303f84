package bootstrap

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"

	appconfig "github.com/wolfman30/smp-leadform/internal/config"
	"github.com/wolfman30/smp-leadform/internal/crm"
	"github.com/wolfman30/smp-leadform/internal/notify"
	"github.com/wolfman30/smp-leadform/internal/session"
	"github.com/wolfman30/smp-leadform/pkg/logging"
)

func testConfig() *appconfig.Config {
	return &appconfig.Config{
		SessionTTL: time.Hour,
		Form: appconfig.FormSettings{
			Endpoints: []string{"http://one.example/hook", "http://two.example/hook"},
		},
	}
}

func TestBuildRedisClientDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.UseMemoryStore = true
	cfg.RedisAddr = "localhost:6379"

	if client := BuildRedisClient(context.Background(), cfg, logging.New("error"), false); client != nil {
		t.Fatalf("expected nil client when memory store is forced")
	}
	if client := BuildRedisClient(context.Background(), nil, nil, false); client != nil {
		t.Fatalf("expected nil client for nil config")
	}
}

func TestBuildRedisClientVerifyFailureReturnsNil(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig()
	cfg.RedisAddr = addr
	if client := BuildRedisClient(context.Background(), cfg, logging.New("error"), true); client != nil {
		t.Fatalf("expected nil client when ping fails")
	}
}

func TestBuildStoresUsesRedisWhenAvailable(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.RedisAddr = mr.Addr()

	client := BuildRedisClient(context.Background(), cfg, logging.New("error"), true)
	if client == nil {
		t.Fatalf("expected redis client")
	}
	defer client.Close()

	stores := BuildStores(cfg, client, logging.New("error"))
	if _, ok := stores.Sessions.(*session.RedisStore); !ok {
		t.Fatalf("expected RedisStore, got %T", stores.Sessions)
	}
	if _, ok := stores.Progress.(*session.RedisProgress); !ok {
		t.Fatalf("expected RedisProgress, got %T", stores.Progress)
	}
}

func TestBuildStoresFallsBackToMemory(t *testing.T) {
	stores := BuildStores(testConfig(), nil, nil)
	if _, ok := stores.Sessions.(*session.MemoryStore); !ok {
		t.Fatalf("expected MemoryStore, got %T", stores.Sessions)
	}
	if _, ok := stores.Progress.(*session.MemoryProgress); !ok {
		t.Fatalf("expected MemoryProgress, got %T", stores.Progress)
	}
}

func TestNeedsAWS(t *testing.T) {
	cfg := testConfig()
	if NeedsAWS(cfg) {
		t.Fatalf("plain config should not need aws")
	}
	cfg.EmailProvider = EmailProviderSES
	if !NeedsAWS(cfg) {
		t.Fatalf("ses provider should need aws")
	}
	cfg.EmailProvider = EmailProviderAuto
	cfg.Form.CRM = appconfig.CRMSettings{Enabled: true, Provider: appconfig.CRMProviderSQS}
	if !NeedsAWS(cfg) {
		t.Fatalf("sqs crm should need aws")
	}
	if NeedsAWS(nil) {
		t.Fatalf("nil config should not need aws")
	}
}

func TestBuildEmailSenderSelection(t *testing.T) {
	awsCfg := aws.Config{Region: "us-east-1"}
	cases := []struct {
		name     string
		provider string
		apiKey   string
		awsCfg   *aws.Config
		want     string
	}{
		{name: "auto with key", provider: EmailProviderAuto, apiKey: "SG.key", want: "*notify.SendGridSender"},
		{name: "auto without key", provider: EmailProviderAuto, want: "*notify.StubEmailSender"},
		{name: "sendgrid without key", provider: EmailProviderSendGrid, want: "*notify.StubEmailSender"},
		{name: "ses", provider: EmailProviderSES, awsCfg: &awsCfg, want: "*notify.SESSender"},
		{name: "ses without aws", provider: EmailProviderSES, want: "*notify.StubEmailSender"},
		{name: "stub", provider: EmailProviderStub, apiKey: "SG.key", want: "*notify.StubEmailSender"},
		{name: "unknown", provider: "pigeon", want: "*notify.StubEmailSender"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.EmailProvider = tc.provider
			cfg.SendGridAPIKey = tc.apiKey
			cfg.SendGridFromEmail = "leads@example.com"

			sender := BuildEmailSender(cfg, tc.awsCfg, logging.New("error"))
			var got string
			switch sender.(type) {
			case *notify.SendGridSender:
				got = "*notify.SendGridSender"
			case *notify.SESSender:
				got = "*notify.SESSender"
			case *notify.StubEmailSender:
				got = "*notify.StubEmailSender"
			default:
				got = "unexpected"
			}
			if got != tc.want {
				t.Fatalf("expected %s, got %T", tc.want, sender)
			}
		})
	}
}

func TestBuildNotifierNeedsRecipient(t *testing.T) {
	cfg := testConfig()
	if n := BuildNotifier(cfg, nil, logging.New("error")); n != nil {
		t.Fatalf("expected nil notifier without recipient")
	}
	cfg.Form.NotificationEmail = "owner@example.com"
	if n := BuildNotifier(cfg, nil, logging.New("error")); n == nil {
		t.Fatalf("expected notifier with recipient")
	}
}

func TestBuildCRMForwarder(t *testing.T) {
	awsCfg := aws.Config{Region: "us-east-1"}
	cases := []struct {
		name     string
		settings appconfig.CRMSettings
		awsCfg   *aws.Config
		wantNop  bool
		wantErr  bool
	}{
		{name: "disabled", settings: appconfig.CRMSettings{Provider: appconfig.CRMProviderWebhook}, wantNop: true},
		{name: "none", settings: appconfig.CRMSettings{Enabled: true, Provider: appconfig.CRMProviderNone}, wantNop: true},
		{name: "webhook", settings: appconfig.CRMSettings{Enabled: true, Provider: appconfig.CRMProviderWebhook, URL: "http://crm.example"}},
		{name: "webhook without url", settings: appconfig.CRMSettings{Enabled: true, Provider: appconfig.CRMProviderWebhook}, wantErr: true},
		{name: "sqs", settings: appconfig.CRMSettings{Enabled: true, Provider: appconfig.CRMProviderSQS, QueueURL: "http://localhost:4566/000000000000/leads"}, awsCfg: &awsCfg},
		{name: "sqs without aws", settings: appconfig.CRMSettings{Enabled: true, Provider: appconfig.CRMProviderSQS, QueueURL: "q"}, wantErr: true},
		{name: "unknown", settings: appconfig.CRMSettings{Enabled: true, Provider: "carrier-pigeon"}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Form.CRM = tc.settings

			fwd, err := BuildCRMForwarder(cfg, tc.awsCfg, http.DefaultClient, logging.New("error"))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			_, isNop := fwd.(crm.Nop)
			if isNop != tc.wantNop {
				t.Fatalf("expected nop=%v, got %T", tc.wantNop, fwd)
			}
			if !tc.wantNop {
				if _, ok := fwd.(*crm.BestEffort); !ok {
					t.Fatalf("expected best-effort wrapper, got %T", fwd)
				}
			}
		})
	}
}

func TestLeadOptions(t *testing.T) {
	cfg := appconfig.Load()
	cfg.Form.UI.AutoAdvance = false
	cfg.Form.Testing = appconfig.Testing{Enabled: true, Variant: "B"}
	cfg.Form.Redirects.AfterSubmit = "/thanks"

	opts := LeadOptions(cfg.Form)
	if opts.AutoAdvance {
		t.Fatalf("expected auto-advance disabled")
	}
	if opts.Variant != "B" {
		t.Fatalf("expected variant B, got %q", opts.Variant)
	}
	if opts.Redirect != "/thanks" {
		t.Fatalf("expected redirect /thanks, got %q", opts.Redirect)
	}
	if !opts.ShowProgressBar {
		t.Fatalf("expected progress bar on by default")
	}
	if opts.WebsiteURL != cfg.Form.Redirects.WebsiteURL || opts.WebsiteURL == "" {
		t.Fatalf("expected website url %q, got %q", cfg.Form.Redirects.WebsiteURL, opts.WebsiteURL)
	}
	if opts.Thresholds != cfg.Form.LeadScoring {
		t.Fatalf("thresholds not copied: %+v", opts.Thresholds)
	}

	cfg.Form.Testing.Enabled = false
	if v := LeadOptions(cfg.Form).Variant; v != "" {
		t.Fatalf("expected no variant when testing disabled, got %q", v)
	}

	cfg.Form.UI.ShowProgressBar = false
	if LeadOptions(cfg.Form).ShowProgressBar {
		t.Fatalf("expected progress bar toggle to carry over")
	}
}

func TestBuildHTTPClientUsesDispatchTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.DispatchTimeout = 7 * time.Second
	if got := BuildHTTPClient(cfg).Timeout; got != 7*time.Second {
		t.Fatalf("expected 7s timeout, got %v", got)
	}
	if BuildHTTPClient(nil) == nil {
		t.Fatalf("expected a client for nil config")
	}
}

func TestBuildLeadServiceRequiresStore(t *testing.T) {
	if _, err := BuildLeadService(nil, LeadDeps{}, nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
	if _, err := BuildLeadService(testConfig(), LeadDeps{}, nil); err == nil {
		t.Fatalf("expected error without session store")
	}
}

func TestBuildLeadServiceStartsSession(t *testing.T) {
	cfg := testConfig()
	svc, err := BuildLeadService(cfg, LeadDeps{
		Stores: BuildStores(cfg, nil, logging.New("error")),
	}, logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer svc.Stop()

	sess, err := svc.Start(context.Background(), url.Values{"utm_source": {"meta"}})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if sess.Step != 1 {
		t.Fatalf("expected step 1, got %d", sess.Step)
	}
	if sess.Answers.UTMSource != "meta" {
		t.Fatalf("expected utm_source captured, got %q", sess.Answers.UTMSource)
	}
}
