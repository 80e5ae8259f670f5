// Package monitoring exposes OpenTelemetry metrics through a Prometheus endpoint.
package monitoring

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/citewatch/citewatch/pkg/logger"
	"github.com/citewatch/citewatch/pkg/version"
)

const meterName = "github.com/citewatch/citewatch"

type Config struct {
	Enabled bool
	Addr    string
	Path    string
}

func DefaultConfig() *Config {
	return &Config{Enabled: false, Path: "/metrics"}
}

func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Path == "" {
		return fmt.Errorf("monitoring path cannot be empty")
	}
	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("monitoring path must start with '/': %s", c.Path)
	}
	return nil
}

// Service owns the meter provider and the Prometheus registry behind it.
type Service struct {
	meter       metric.Meter
	provider    *sdkmetric.MeterProvider
	registry    *prom.Registry
	config      *Config
	initialized bool
}

func newDisabledService(cfg *Config) *Service {
	return &Service{
		config: cfg,
		meter:  noop.NewMeterProvider().Meter(meterName),
	}
}

// NewService builds a monitoring service. A disabled config yields a no-op meter.
func NewService(ctx context.Context, cfg *Config) (*Service, error) {
	log := logger.FromContext(ctx)
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		log.Debug("Monitoring disabled, using no-op meter")
		return newDisabledService(cfg), nil
	}
	registry := prom.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Prometheus exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	s := &Service{
		meter:       provider.Meter(meterName),
		provider:    provider,
		registry:    registry,
		config:      cfg,
		initialized: true,
	}
	if err := s.registerBuildInfo(); err != nil {
		return nil, err
	}
	log.Debug("Monitoring service initialized", "addr", cfg.Addr, "path", cfg.Path)
	return s, nil
}

func (s *Service) registerBuildInfo() error {
	info := version.Get()
	_, err := s.meter.Int64ObservableGauge(
		"citewatch_build_info",
		metric.WithDescription("Build information of the running binary"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(1, metric.WithAttributes(
				attribute.String("version", info.Version),
				attribute.String("commit", info.CommitHash),
				attribute.String("go_version", info.GoVersion),
			))
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to register build info gauge: %w", err)
	}
	return nil
}

// Meter returns the meter for custom instrumentation
func (s *Service) Meter() metric.Meter {
	return s.meter
}

func (s *Service) IsInitialized() bool {
	return s.initialized
}

// ExporterHandler serves the Prometheus exposition format.
func (s *Service) ExporterHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.initialized {
			w.WriteHeader(http.StatusServiceUnavailable)
			if _, err := w.Write([]byte("Monitoring service not initialized")); err != nil {
				logger.FromContext(r.Context()).Error("Failed to write response", "error", err)
			}
			return
		}
		promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}

// Serve exposes the exporter on the configured address until ctx is done.
func (s *Service) Serve(ctx context.Context) error {
	if !s.initialized {
		return nil
	}
	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	return s.serveOn(ctx, listener)
}

func (s *Service) serveOn(ctx context.Context, listener net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle(s.config.Path, s.ExporterHandler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()
	logger.FromContext(ctx).Info("Serving metrics", "addr", listener.Addr().String(), "path", s.config.Path)
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Service) Shutdown(ctx context.Context) error {
	if s.provider != nil {
		return s.provider.Shutdown(ctx)
	}
	return nil
}
