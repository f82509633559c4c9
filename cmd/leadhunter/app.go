package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/redis/go-redis/v9"
	"github.com/wolfman30/leadhunter/cmd/mainconfig"
	appconfig "github.com/wolfman30/leadhunter/internal/config"
	"github.com/wolfman30/leadhunter/internal/export"
	"github.com/wolfman30/leadhunter/internal/gateway"
	"github.com/wolfman30/leadhunter/internal/leads"
	"github.com/wolfman30/leadhunter/internal/notify"
	"github.com/wolfman30/leadhunter/internal/observability/metrics"
	"github.com/wolfman30/leadhunter/internal/session"
	"github.com/wolfman30/leadhunter/pkg/logging"
)

// errReported means the failure was already shown to the user as a notice.
var errReported = errors.New("reported")

var errNotLoggedIn = errors.New("not logged in; run `leadhunter login --token <token>` first")

// app is the wiring shared by every API-facing command.
type app struct {
	cfg      *appconfig.Config
	logger   *logging.Logger
	registry *prometheus.Registry
	metrics  *metrics.ClientMetrics
	session  *session.Session
	client   *gateway.Client
	notifier notify.Notifier
	exporter *export.Exporter
	closers  []func() error
}

func newApp(ctx context.Context, cfg *appconfig.Config, stderr io.Writer) (*app, error) {
	logger := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Writer: stderr})
	registry := prometheus.NewRegistry()
	a := &app{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		metrics:  metrics.NewClientMetrics(registry),
		notifier: notify.NewConsoleNotifier(stderr),
	}

	store, err := a.sessionStore()
	if err != nil {
		a.close()
		return nil, err
	}
	a.session, err = session.Open(ctx, store)
	if err != nil {
		a.close()
		return nil, err
	}

	a.client, err = gateway.New(gateway.Config{
		BaseURL:   cfg.APIBaseURL,
		Tokens:    a.session,
		Timeout:   cfg.HTTPTimeout,
		UserAgent: cfg.UserAgent,
		Logger:    logger,
		Metrics:   a.metrics,
	})
	if err != nil {
		a.close()
		return nil, err
	}

	sink, err := a.exportSink(ctx)
	if err != nil {
		a.close()
		return nil, err
	}
	a.exporter = export.NewExporter(sink, export.WithLogger(logger), export.WithMetrics(a.metrics))
	return a, nil
}

func (a *app) sessionStore() (session.Store, error) {
	switch a.cfg.SessionStore {
	case "", "file":
		return session.NewFileStore(a.cfg.SessionFile), nil
	case "memory":
		return session.NewMemoryStore(), nil
	case "redis":
		opts := &redis.Options{Addr: a.cfg.RedisAddr, Password: a.cfg.RedisPassword}
		if a.cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		a.closers = append(a.closers, client.Close)
		return session.NewRedisStore(client, "", a.cfg.SessionTTL), nil
	default:
		return nil, fmt.Errorf("unknown SESSION_STORE %q (want file, redis or memory)", a.cfg.SessionStore)
	}
}

func (a *app) exportSink(ctx context.Context) (export.Sink, error) {
	if a.cfg.ExportS3Bucket == "" {
		return export.NewDirSink(a.cfg.ExportDir), nil
	}
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, a.cfg)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return export.NewS3Sink(mainconfig.NewS3Client(awsCfg, a.cfg), a.cfg.ExportS3Bucket, a.cfg.ExportS3Prefix), nil
}

func (a *app) bounds() leads.Bounds {
	return leads.Bounds{Min: a.cfg.QuantityMin, Max: a.cfg.QuantityMax}
}

func (a *app) requireLogin() error {
	if !a.session.Authenticated() {
		return errNotLoggedIn
	}
	return nil
}

// close pushes the collected metrics when a Pushgateway is configured and
// releases held connections.
func (a *app) close() {
	if a.cfg.PushgatewayURL != "" {
		if err := push.New(a.cfg.PushgatewayURL, "leadhunter_cli").Gatherer(a.registry).Push(); err != nil {
			a.logger.Warn("pushgateway push failed", "url", a.cfg.PushgatewayURL, "error", err)
		}
	}
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.logger.Debug("close failed", "error", err)
		}
	}
	a.closers = nil
}
