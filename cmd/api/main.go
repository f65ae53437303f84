package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/smp-leadform/cmd/mainconfig"
	"github.com/wolfman30/smp-leadform/internal/api/router"
	"github.com/wolfman30/smp-leadform/internal/app/bootstrap"
	appconfig "github.com/wolfman30/smp-leadform/internal/config"
	httpmiddleware "github.com/wolfman30/smp-leadform/internal/http/middleware"
	"github.com/wolfman30/smp-leadform/internal/leads"
	"github.com/wolfman30/smp-leadform/internal/observability/metrics"
	"github.com/wolfman30/smp-leadform/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting smp-leadform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()
	metricsHandler, formMetrics := setupMetrics()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}
	stores := bootstrap.BuildStores(cfg, redisClient, logger)

	var awsCfg *aws.Config
	if bootstrap.NeedsAWS(cfg) {
		loaded, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		awsCfg = &loaded
	}

	httpClient := bootstrap.BuildHTTPClient(cfg)
	crmForwarder, err := bootstrap.BuildCRMForwarder(cfg, awsCfg, httpClient, logger)
	if err != nil {
		logger.Error("failed to configure crm", "error", err)
		os.Exit(1)
	}

	svc, err := bootstrap.BuildLeadService(cfg, bootstrap.LeadDeps{
		Stores:     stores,
		HTTPClient: httpClient,
		Metrics:    formMetrics,
		Notifier:   bootstrap.BuildNotifier(cfg, awsCfg, logger),
		CRM:        crmForwarder,
	}, logger)
	if err != nil {
		logger.Error("failed to build lead service", "error", err)
		os.Exit(1)
	}
	defer svc.Stop()

	limiter := httpmiddleware.NewRateLimiter(cfg.SubmitRateLimit, cfg.SubmitRateBurst)
	defer limiter.Stop()

	srv := newServer(cfg, router.New(&router.Config{
		Logger:             logger,
		LeadsHandler:       leads.NewHandler(svc, logger),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		SubmitLimiter:      limiter,
	}))

	// Start server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		logger.Error("server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}

// loadConfig reads the environment, overlays the optional form file and
// validates the result.
func loadConfig() (*appconfig.Config, error) {
	cfg := appconfig.Load()
	if cfg.FormConfigFile != "" {
		if err := cfg.ApplyFormFile(cfg.FormConfigFile); err != nil {
			return nil, fmt.Errorf("load form config %s: %w", cfg.FormConfigFile, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupMetrics registers the form metrics on a private registry and returns
// the handler serving it.
func setupMetrics() (http.Handler, *metrics.FormMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewFormMetrics(reg)
}

func newServer(cfg *appconfig.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
