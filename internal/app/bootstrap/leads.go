package bootstrap

import (
	"fmt"
	"net/http"

	"github.com/wolfman30/smp-leadform/internal/analytics"
	appconfig "github.com/wolfman30/smp-leadform/internal/config"
	"github.com/wolfman30/smp-leadform/internal/crm"
	"github.com/wolfman30/smp-leadform/internal/dispatch"
	"github.com/wolfman30/smp-leadform/internal/leads"
	"github.com/wolfman30/smp-leadform/internal/notify"
	"github.com/wolfman30/smp-leadform/internal/observability/metrics"
	"github.com/wolfman30/smp-leadform/pkg/logging"
)

// LeadDeps are the collaborators BuildLeadService does not construct itself.
type LeadDeps struct {
	Stores     Stores
	HTTPClient *http.Client
	Metrics    *metrics.FormMetrics
	Notifier   *notify.Service
	CRM        crm.Forwarder
}

// LeadOptions maps the form settings onto service options.
func LeadOptions(f appconfig.FormSettings) leads.Options {
	opts := leads.DefaultOptions()
	opts.Rules = f.Rules()
	opts.Thresholds = f.LeadScoring
	opts.AutoAdvance = f.UI.AutoAdvance
	opts.KeyboardNavigation = f.UI.EnableKeyboardNavigation
	opts.ShowProgressBar = f.UI.ShowProgressBar
	opts.Redirect = f.RedirectTarget()
	opts.WebsiteURL = f.Redirects.WebsiteURL
	if f.Testing.Enabled {
		opts.Variant = f.Testing.Variant
	}
	return opts
}

// BuildHTTPClient returns the client shared by the webhook dispatcher and
// the CRM forwarder.
func BuildHTTPClient(cfg *appconfig.Config) *http.Client {
	if cfg == nil {
		return &http.Client{}
	}
	return &http.Client{Timeout: cfg.DispatchTimeout}
}

// BuildLeadService wires the dispatcher, trackers and stores into the form
// service.
func BuildLeadService(cfg *appconfig.Config, deps LeadDeps, logger *logging.Logger) (*leads.Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if deps.Stores.Sessions == nil {
		return nil, fmt.Errorf("bootstrap: session store is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	client := deps.HTTPClient
	if client == nil {
		client = BuildHTTPClient(cfg)
	}

	dispatcher := dispatch.NewDispatcher(cfg.Form.Endpoints, client, deps.Metrics, logger)
	tracker := analytics.Multi{
		analytics.NewLogTracker(logger),
		analytics.NewMetricsTracker(deps.Metrics),
	}

	svcCfg := leads.Config{
		Store:      deps.Stores.Sessions,
		Progress:   deps.Stores.Progress,
		Dispatcher: dispatcher,
		Tracker:    tracker,
		CRM:        deps.CRM,
		Metrics:    deps.Metrics,
		Options:    LeadOptions(cfg.Form),
		Logger:     logger,
	}
	if deps.Notifier != nil {
		svcCfg.Notifier = deps.Notifier
	}

	names := make([]string, 0, len(cfg.Form.Endpoints))
	for _, ep := range dispatcher.Endpoints() {
		names = append(names, ep.Name)
	}
	logger.Info("lead service configured",
		"endpoints", names,
		"auto_advance", svcCfg.Options.AutoAdvance,
		"variant", svcCfg.Options.Variant,
		"crm_provider", cfg.Form.CRM.Provider,
	)
	return leads.NewService(svcCfg), nil
}
