// Package history loads the leads previously generated for the current
// session and feeds them to the export pipeline.
package history

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/wolfman30/leadhunter/internal/export"
	"github.com/wolfman30/leadhunter/internal/gateway"
	"github.com/wolfman30/leadhunter/internal/leads"
	"github.com/wolfman30/leadhunter/internal/notify"
	"github.com/wolfman30/leadhunter/internal/observability/metrics"
	"github.com/wolfman30/leadhunter/internal/session"
	"github.com/wolfman30/leadhunter/pkg/logging"
)

// ErrDiscarded is returned by Load when the loader was closed or a newer
// load started before the response arrived.
var ErrDiscarded = errors.New("history: response discarded")

const (
	component       = "history"
	loadFailedTitle = "Falha ao carregar histórico"
)

// View is what the history screen shows.
type View struct {
	Leads   []leads.Lead
	Loading bool
	Loaded  bool
	Err     error
}

// Config wires a Loader.
type Config struct {
	Caller   gateway.Caller
	Tokens   session.TokenSource
	Notifier notify.Notifier
	Exporter *export.Exporter
	Logger   *logging.Logger
	Metrics  *metrics.ClientMetrics
}

// Loader fetches and holds the lead history.
type Loader struct {
	caller   gateway.Caller
	tokens   session.TokenSource
	notifier notify.Notifier
	exporter *export.Exporter
	logger   *logging.Logger
	metrics  *metrics.ClientMetrics

	mu         sync.Mutex
	view       View
	generation uint64
	closed     bool
	cancel     context.CancelFunc
}

// New creates a Loader with an empty view.
func New(cfg Config) *Loader {
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notify.Discard
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	tokens := cfg.Tokens
	if tokens == nil {
		tokens = session.StaticToken("")
	}
	return &Loader{
		caller:   cfg.Caller,
		tokens:   tokens,
		notifier: notifier,
		exporter: cfg.Exporter,
		logger:   logger,
		metrics:  cfg.Metrics,
	}
}

// View returns the current snapshot.
func (l *Loader) View() View {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.view
	out.Leads = append([]leads.Lead(nil), l.view.Leads...)
	return out
}

// Load issues one authenticated GET for the history. Without a token nothing
// is dispatched. Loading is false again whenever Load returns.
func (l *Loader) Load(ctx context.Context) (View, error) {
	if _, ok := l.tokens.Token(); !ok {
		l.notifier.Notify(ctx, notify.Error(loadFailedTitle, "Faça login para ver seu histórico."))
		return l.View(), session.ErrNotAuthenticated
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return View{}, ErrDiscarded
	}
	if l.cancel != nil {
		l.cancel()
	}
	l.generation++
	gen := l.generation
	reqCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.view.Loading = true
	l.view.Err = nil
	l.mu.Unlock()
	defer cancel()

	outcome := l.caller.Call(reqCtx, gateway.Request{
		Endpoint:     gateway.EndpointHistory,
		Method:       http.MethodGet,
		AuthRequired: true,
	})

	found, err := decodeLeads(outcome)

	l.mu.Lock()
	if l.closed || gen != l.generation {
		l.mu.Unlock()
		l.metrics.ObserveDiscarded(component)
		l.logger.Debug("discarding stale history response", "generation", gen)
		return View{}, ErrDiscarded
	}
	l.cancel = nil
	l.view.Loading = false
	if err != nil {
		l.view.Err = err
	} else {
		l.view = View{Leads: found, Loaded: true}
	}
	snapshot := l.view
	snapshot.Leads = append([]leads.Lead(nil), l.view.Leads...)
	l.mu.Unlock()

	if err != nil {
		l.logger.Warn("history load failed", "error", err)
		l.notifier.Notify(ctx, notify.Error(loadFailedTitle, err.Error()))
		return snapshot, err
	}
	if len(found) == 0 {
		l.notifier.Notify(ctx, notify.Info("Histórico vazio", "Nenhum lead encontrado no seu histórico. Comece a gerar leads na página de Busca!"))
	}
	l.logger.Info("history loaded", "leads", len(found))
	return snapshot, nil
}

// decodeLeads runs an Ok payload through the defensive decoder so that a
// malformed body is reported like any other failure.
func decodeLeads(o gateway.Outcome) ([]leads.Lead, error) {
	switch v := o.(type) {
	case gateway.Ok:
		found, err := leads.DecodeList(v.Payload)
		if err != nil {
			return nil, &gateway.Failure{Message: err.Error(), Status: v.Status}
		}
		return found, nil
	case *gateway.Failure:
		return nil, v
	default:
		return nil, &gateway.Failure{Message: "no response"}
	}
}

// ExportCSV writes the loaded history as a full-field CSV.
func (l *Loader) ExportCSV(ctx context.Context) (export.Result, error) {
	return l.export(ctx, export.KindHistoryCSV, "Leads exportados para CSV!")
}

// ExportPDF writes the loaded history as a PDF table.
func (l *Loader) ExportPDF(ctx context.Context) (export.Result, error) {
	return l.export(ctx, export.KindHistoryPDF, "Leads exportados para PDF!")
}

func (l *Loader) export(ctx context.Context, kind export.Kind, success string) (export.Result, error) {
	if l.exporter == nil {
		return export.Result{}, errors.New("history: exporter not configured")
	}
	res, err := l.exporter.Export(ctx, kind, l.View().Leads)
	switch {
	case errors.Is(err, export.ErrNothingToExport):
		l.notifier.Notify(ctx, notify.Info("Nenhum lead para exportar", "Gere alguns leads primeiro."))
		return res, err
	case err != nil:
		l.notifier.Notify(ctx, notify.Error("Erro", err.Error()))
		return res, fmt.Errorf("history: %w", err)
	}
	l.notifier.Notify(ctx, notify.Success("Sucesso", success))
	return res, nil
}

// Close discards any response still in flight and cancels its request.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.generation++
	l.view.Loading = false
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}
