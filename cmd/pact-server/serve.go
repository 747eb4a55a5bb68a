package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Mindburn-Labs/pact-conformance/pkg/auth"
	"github.com/Mindburn-Labs/pact-conformance/pkg/config"
	"github.com/Mindburn-Labs/pact-conformance/pkg/exchange"
	"github.com/Mindburn-Labs/pact-conformance/pkg/footprint"
	"github.com/Mindburn-Labs/pact-conformance/pkg/limiter"
	"github.com/Mindburn-Labs/pact-conformance/pkg/metrics"
	"github.com/Mindburn-Labs/pact-conformance/pkg/observability"
	"github.com/Mindburn-Labs/pact-conformance/pkg/pact"
	"github.com/Mindburn-Labs/pact-conformance/pkg/server"
	"github.com/Mindburn-Labs/pact-conformance/pkg/tokenclient"
)

const (
	shutdownTimeout = 10 * time.Second
	limiterSweep    = time.Minute
	limiterIdle     = 10 * time.Minute
)

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if strings.EqualFold(cfg.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// serve runs the server until ctx is cancelled, then drains in-flight
// requests. ready, if set, receives the bound address.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger, ready func(addr string)) error {
	slog.SetDefault(logger)

	otelCfg := observability.DefaultConfig()
	otelCfg.ServiceVersion = version
	otelCfg.Enabled = cfg.OTelEnabled
	otelCfg.OTLPEndpoint = cfg.OTLPEndpoint
	telemetry, err := observability.New(ctx, otelCfg)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := telemetry.Shutdown(sctx); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	}()

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(promReg)

	reg := pact.DefaultRegistry()
	v2, v3, err := loadStores(ctx, reg, cfg)
	if err != nil {
		return err
	}
	logger.Info("footprints loaded", "v2", v2.Len(), "v3", v3.Len())

	tokens := tokenclient.New(cfg.ClientID, cfg.ClientSecret,
		tokenclient.WithHTTPClient(outboundClient(cfg, m, metrics.KindToken)),
		tokenclient.WithResolver(tokenclient.RegistryResolver(reg)),
		tokenclient.WithLogger(logger))
	correlator := exchange.NewCorrelator(tokens,
		exchange.WithHTTPClient(outboundClient(cfg, m, metrics.KindEvent)),
		exchange.WithSource(cfg.EventSource),
		exchange.WithCorrelatorLogger(logger))
	svc := exchange.NewService(reg, correlator,
		exchange.WithCatalog(pact.RevisionV2, v2),
		exchange.WithCatalog(pact.RevisionV3, v3),
		exchange.WithTelemetry(telemetry),
		exchange.WithMetrics(m),
		exchange.WithLogger(logger))

	store, closeStore, err := openLimiter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	handler := server.New(server.Options{
		Registry:   reg,
		Exchange:   svc,
		V2:         v2,
		V3:         v3,
		Issuer:     auth.NewIssuer(auth.Credentials{ClientID: cfg.ClientID, ClientSecret: cfg.ClientSecret}, cfg.JWTSecret, cfg.TokenTTL, logger),
		Limiter:    store,
		RatePolicy: limiter.Policy{RPM: cfg.RateLimitRPM, Burst: cfg.RateLimitBurst},
		BaseURL:    cfg.BaseURL,
		Metrics:    m,
		Gatherer:   promReg,
		Logger:     logger,
		Version:    version,
	})

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr(), err)
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("pact server listening", "addr", ln.Addr().String(), "version", version)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	if ready != nil {
		ready(ln.Addr().String())
	}

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func loadStores(ctx context.Context, reg *pact.Registry, cfg *config.Config) (*footprint.Store[footprint.ProductFootprintV2], *footprint.Store[footprint.ProductFootprint], error) {
	p2, _ := reg.Lookup(pact.RevisionV2)
	p3, _ := reg.Lookup(pact.RevisionV3)

	v2, err := loadStore[footprint.ProductFootprintV2](ctx, p2, cfg.SeedV2, cfg)
	if err != nil {
		return nil, nil, err
	}
	v3, err := loadStore[footprint.ProductFootprint](ctx, p3, cfg.SeedV3, cfg)
	if err != nil {
		return nil, nil, err
	}
	return v2, v3, nil
}

func loadStore[T footprint.Record](ctx context.Context, p *pact.Protocol, uri string, cfg *config.Config) (*footprint.Store[T], error) {
	src, err := footprint.OpenSource(ctx, uri, p.Revision, footprint.SourceOptions{
		S3Region:   cfg.S3Region,
		S3Endpoint: cfg.S3Endpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("seed revision %s: %w", p.Revision, err)
	}
	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}
	store, err := footprint.Load[T](ctx, p, src)
	if err != nil {
		return nil, fmt.Errorf("seed revision %s: %w", p.Revision, err)
	}
	return store, nil
}

// outboundClient builds the client for one kind of counterparty call. The
// timeout bounds token fetch and event POST separately.
func outboundClient(cfg *config.Config, m *metrics.Metrics, kind string) *http.Client {
	return &http.Client{
		Timeout:   cfg.OutboundTimeout,
		Transport: observability.WrapTransport(m.InstrumentTransport(kind, http.DefaultTransport)),
	}
}

func openLimiter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (limiter.Store, func(), error) {
	if !cfg.RateLimited() {
		return nil, func() {}, nil
	}
	if cfg.RedisAddr != "" {
		rs, err := limiter.DialRedisStore(ctx, cfg.RedisAddr, "", 0)
		if err != nil {
			return nil, nil, fmt.Errorf("rate limiter: %w", err)
		}
		logger.Info("rate limiting via redis", "addr", cfg.RedisAddr)
		return rs, func() { _ = rs.Close() }, nil
	}

	ms := limiter.NewInMemoryStore()
	sweepCtx, cancel := context.WithCancel(ctx)
	go ms.Run(sweepCtx, limiterSweep, limiterIdle)
	return ms, cancel, nil
}
