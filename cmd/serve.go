package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"evalgo.org/featureinfo/internal/client"
	"evalgo.org/featureinfo/internal/config"
	"evalgo.org/featureinfo/internal/federation"
	"evalgo.org/featureinfo/internal/metrics"
	"evalgo.org/featureinfo/internal/operations"
	"evalgo.org/featureinfo/internal/registry"
	"evalgo.org/featureinfo/internal/timeseries"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the feature info service",
	Long: `Start the feature info HTTP service.

Routes:
  - GET/POST /get: Resolve an IRI and return its metadata and time-series data
  - GET /status: Readiness of the service
  - POST /refresh: Re-run endpoint discovery
  - GET /health: Liveness
  - GET /metrics: Prometheus metrics

Environment Variables:
  - FIA_CONFIG_FILE: Query configuration document (required)
  - FIA_PORT: Port to listen on (default: 8080)
  - FIA_AUTH_MODE: none, apikey or jwt (default: none)
  - FIA_AUTH_API_KEY: API key for the apikey mode
  - FIA_AUTH_JWT_SECRET: HS256 secret for the jwt mode
  - FIA_STACK_CONFIG_DIR: Directory holding blazegraph.json, ontop.json and postgis.json`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", defaultPort, "Port to listen on")
	serveCmd.Flags().String("auth-mode", "", "Authentication mode: none, apikey or jwt")
	serveCmd.Flags().String("stack-dir", "", "Directory holding the stack endpoint documents")
	serveCmd.Flags().String("blazegraph-url", "", "Graph-store service URL (overrides blazegraph.json)")

	_ = viper.BindPFlag(keyPort, serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag(keyAuthMode, serveCmd.Flags().Lookup("auth-mode"))
	_ = viper.BindPFlag(keyStackDir, serveCmd.Flags().Lookup("stack-dir"))
	_ = viper.BindPFlag(keyBlazegraphURL, serveCmd.Flags().Lookup("blazegraph-url"))
}

// app holds the wired components of the service
type app struct {
	settings settings
	logger   *logrus.Logger
	registry *registry.Registry
	stores   *timeseries.Provider
	service  *federation.Service
	ops      *operations.Registry
	metrics  *prometheus.Registry
}

// buildApp wires every component. A configuration error is logged and leaves
// the service unready instead of preventing startup.
func buildApp(s settings, logger *logrus.Logger) (*app, error) {
	cfg, err := loadQueryConfig(s)
	if err != nil {
		logger.WithError(err).Error("Could not load query configuration, service will report not ready")
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.New(promReg)

	clients := client.NewManager(s.EndpointTimeout, s.Debug, logger)
	executor := client.NewSPARQLClient(clients)

	opts := registry.Options{RootNamespace: s.RootNamespace, Timeout: s.DiscoveryTimeout}
	if cfg != nil {
		opts.DatabaseName = cfg.DatabaseName()
		if s.MappingQueryFile != "" {
			query, err := config.ReadQueryFile(cfg.Source, s.MappingQueryFile)
			if err != nil {
				return nil, fmt.Errorf("mapping query: %w", err)
			}
			opts.MappingQuery = query
		}
	}

	describer := &registry.FileStackDescriber{
		Dir:           s.StackDir,
		GraphStoreURL: s.BlazegraphURL,
		MapperURL:     s.OntopURL,
		RelationalURL: s.PostgresURL,
	}
	reg := registry.New(describer, registry.NewBlazegraphLister(clients), executor, opts, logger)
	reg.SetObserver(collector)

	stores := timeseries.NewProvider(nil, s.Pool, logger)
	svc := federation.NewService(reg, cfg, executor, stores, federation.Options{
		EndpointTimeout: s.EndpointTimeout,
		RequestTimeout:  s.RequestTimeout,
	}, collector, logger)

	return &app{
		settings: s,
		logger:   logger,
		registry: reg,
		stores:   stores,
		service:  svc,
		ops:      operations.NewRegistry(svc, logger),
		metrics:  promReg,
	}, nil
}

func loadQueryConfig(s settings) (*config.Config, error) {
	if s.ConfigFile != "" {
		return config.Load(s.ConfigFile)
	}
	return config.LoadFromEnv()
}

func runServe(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(viper.GetViper())
	if err != nil {
		return err
	}
	logger := newLogger(s.Debug)

	logger.WithFields(logrus.Fields{
		"port":        s.Port,
		"auth_mode":   s.AuthMode,
		"stack_dir":   s.StackDir,
		"config_file": s.ConfigFile,
		"debug":       s.Debug,
	}).Info("Feature info service starting")

	a, err := buildApp(s, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.stores.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Eager discovery; failures leave the service unready until /refresh or the first request.
	if err := a.registry.Discover(ctx); err != nil {
		logger.WithError(err).Error("Initial endpoint discovery failed")
	}

	e := newServer(a.ops, authConfig{Mode: s.AuthMode, APIKey: s.APIKey, JWTSecret: s.JWTSecret}, a.metrics, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("address", fmt.Sprintf(":%d", s.Port)).Info("Starting HTTP server")
		if err := e.Start(fmt.Sprintf(":%d", s.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down service...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Error during graceful shutdown")
	}

	logger.Info("Service stopped")
	return nil
}
