// Package main implements the entry point for the LuxuryX token factory
// service. It wires the durable store, the template table, the deployment
// registry and the instantiation engine together and serves them over NATS
// request/reply, with an optional Prometheus endpoint.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AEARedGEM/LuxuryX-Token-Factory/access"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/config"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/events"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/factory"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/gateway"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/health"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/metric"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/natsclient"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/registry"
	luxruntime "github.com/AEARedGEM/LuxuryX-Token-Factory/runtime"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/store"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/template"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/types"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "luxfactory"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// CLI flags override config file logging settings when set explicitly.
	logLevel, logFormat := cfg.Log.Level, cfg.Log.Format
	if cliCfg.LogLevel != "" {
		logLevel = cliCfg.LogLevel
	}
	if cliCfg.LogFormat != "" {
		logFormat = cliCfg.LogFormat
	}
	logger := setupLogger(logLevel, logFormat)
	slog.SetDefault(logger)

	slog.Info("Starting LuxuryX token factory",
		"version", Version,
		"build_time", BuildTime,
		"network", cfg.Network,
		"config_path", cliCfg.ConfigPath)

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	ctx := context.Background()

	client, err := connectNATS(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Close(closeCtx)
	}()

	f, acl, metrics, err := buildFactory(ctx, cfg, client, logger)
	if err != nil {
		return err
	}

	monitor := health.NewMonitor()
	monitor.UpdateHealthy("nats", "connected")
	monitor.UpdateHealthy("store", "buckets open")
	metrics.RecordNATSStatus(true)
	client.OnHealthChange(func(healthy bool) {
		metrics.RecordNATSStatus(healthy)
		if healthy {
			monitor.UpdateHealthy("nats", "connected")
		} else {
			monitor.UpdateUnhealthy("nats", "connection lost")
		}
	})

	gw, err := gateway.New(client, f, acl, cfg.Gateway.SubjectPrefix,
		gateway.WithQueueGroup(cfg.Gateway.QueueGroup),
		gateway.WithRequestTimeout(cfg.Gateway.RequestTimeoutDuration()),
		gateway.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}
	if err := gw.Start(ctx); err != nil {
		return fmt.Errorf("start gateway: %w", err)
	}

	monitor.UpdateHealthy("gateway", "subscriptions active")

	metricsServer := startMetricsServer(cfg, metrics, monitor, logger)

	return waitForShutdown(ctx, metricsServer, cliCfg.ShutdownTimeout)
}

// connectNATS creates the client from config and establishes the connection.
func connectNATS(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*natsclient.Client, error) {
	opts := []natsclient.ClientOption{
		natsclient.WithName(appName),
		natsclient.WithTimeout(cfg.NATS.ConnectTimeoutDuration()),
		natsclient.WithClientLogger(logger),
	}
	if cfg.NATS.MaxReconnects != 0 {
		opts = append(opts, natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects))
	}
	if cfg.NATS.Token != "" {
		opts = append(opts, natsclient.WithToken(cfg.NATS.Token))
	}
	if cfg.NATS.TLSCert != "" {
		opts = append(opts, natsclient.WithTLS(cfg.NATS.TLSCert, cfg.NATS.TLSKey, cfg.NATS.TLSCA))
	}

	client, err := natsclient.NewClient(cfg.NATS.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	slog.Info("Connecting to NATS", "url", cfg.NATS.URL)
	connectCtx, cancel := context.WithTimeout(ctx, cfg.NATS.ConnectTimeoutDuration())
	defer cancel()
	if err := client.Connect(connectCtx); err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return client, nil
}

// buildFactory assembles the durable store, access control, template table,
// registry and instantiation engine.
func buildFactory(
	ctx context.Context,
	cfg *config.Config,
	client *natsclient.Client,
	logger *slog.Logger,
) (*factory.Factory, *access.Controller, *metric.Metrics, error) {
	st, err := store.New(ctx, client, store.Buckets{
		Deployments: cfg.Buckets.Deployments,
		Templates:   cfg.Buckets.Templates,
		Meta:        cfg.Buckets.Meta,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open store: %w", err)
	}

	admin, err := bootstrapAdmin(ctx, cfg, st)
	if err != nil {
		return nil, nil, nil, err
	}

	acl, err := access.NewController(admin, access.WithAdminStore(st))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create access controller: %w", err)
	}

	var runtimeOpts []luxruntime.NATSRuntimeOption
	if cfg.Buckets.Delegations != "" {
		runtimeOpts = append(runtimeOpts, luxruntime.WithDelegationsBucket(cfg.Buckets.Delegations))
	}
	rt, err := luxruntime.NewNATSRuntime(ctx, client, runtimeOpts...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create runtime: %w", err)
	}

	metrics := metric.NewMetrics()
	publisher := events.NewNATSPublisher(client, logger)

	table, err := template.New(acl, rt,
		template.WithStore(st),
		template.WithEvents(publisher),
		template.WithMetrics(metrics))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create template table: %w", err)
	}
	if err := table.Load(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("load templates: %w", err)
	}

	reg, err := registry.New(cfg.Network, registry.WithStore(st))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create registry: %w", err)
	}
	if err := reg.Reload(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("reload registry: %w", err)
	}
	slog.Info("Registry loaded", "network", cfg.Network, "deployments", reg.Count())
	metrics.RecordRegistrySize(reg.Count())

	f, err := factory.New(factory.Config{
		Templates: table,
		Registry:  reg,
		Runtime:   rt,
		Guard:     access.NewEntryGuard(),
		Events:    publisher,
		Metrics:   metrics,
		Logger:    logger,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create factory: %w", err)
	}

	return f, acl, metrics, nil
}

// bootstrapAdmin resolves the administrator identity: the durable store wins
// so a transferred admin role survives restarts; the config value seeds the
// very first start.
func bootstrapAdmin(ctx context.Context, cfg *config.Config, st *store.Store) (types.Identity, error) {
	stored, err := st.Admin(ctx)
	if err != nil {
		return "", fmt.Errorf("read stored admin: %w", err)
	}
	if !stored.IsZero() {
		slog.Info("Administrator restored from store", "admin", stored)
		return stored, nil
	}

	if cfg.Admin.IsZero() {
		return "", fmt.Errorf("no administrator: set admin in the config for first start")
	}
	if err := st.SaveAdmin(ctx, cfg.Admin); err != nil {
		return "", fmt.Errorf("persist admin: %w", err)
	}
	slog.Info("Administrator bootstrapped from config", "admin", cfg.Admin)
	return cfg.Admin, nil
}

// startMetricsServer exposes /metrics and /healthz when enabled. Returns nil
// when disabled.
func startMetricsServer(cfg *config.Config, metrics *metric.Metrics, monitor *health.Monitor, logger *slog.Logger) *http.Server {
	if !cfg.Metrics.Enabled {
		return nil
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := metrics.Register(reg); err != nil {
		logger.Error("register metrics", "error", err)
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/healthz", monitor.Handler(appName))

	server := &http.Server{
		Addr:              cfg.Metrics.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("Metrics endpoint listening", "addr", cfg.Metrics.Listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	return server
}

// waitForShutdown blocks until SIGINT/SIGTERM, then shuts down gracefully.
func waitForShutdown(ctx context.Context, metricsServer *http.Server, timeout time.Duration) error {
	signalCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("LuxuryX token factory started")
	<-signalCtx.Done()
	slog.Info("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown", "error", err)
		}
	}

	slog.Info("Shutdown complete")
	return nil
}
