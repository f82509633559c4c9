// Package search drives one lead-generation request at a time: validate the
// configuration, dispatch it, and publish the settled view.
package search

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
	"github.com/wolfman30/leadhunter/pkg/logging"
)

var (
	// ErrInFlight is returned by Submit while an earlier request is pending.
	ErrInFlight = errors.New("search: a request is already in flight")
	// ErrClosed is returned once the orchestrator has been closed.
	ErrClosed = errors.New("search: orchestrator closed")
)

const component = "search"

// State is the lifecycle position of the orchestrator.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSuccess
	StateFailure
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateSuccess:
		return "success"
	case StateFailure:
		return "failure"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// View is a snapshot of what the results screen shows.
type View struct {
	State          State
	Leads          []leads.Lead
	ResultsVisible bool
	Loading        bool
	Notice         *notify.Notice
	Err            error
}

func (v View) clone() View {
	out := v
	out.Leads = append([]leads.Lead(nil), v.Leads...)
	if v.Notice != nil {
		n := *v.Notice
		out.Notice = &n
	}
	return out
}

// Config wires an Orchestrator.
type Config struct {
	Caller   gateway.Caller
	Notifier notify.Notifier
	Exporter *export.Exporter
	Bounds   leads.Bounds
	Logger   *logging.Logger
	Metrics  *metrics.ClientMetrics
}

// Orchestrator owns the search view. All methods are safe for concurrent use.
type Orchestrator struct {
	caller   gateway.Caller
	notifier notify.Notifier
	exporter *export.Exporter
	bounds   leads.Bounds
	logger   *logging.Logger
	metrics  *metrics.ClientMetrics

	mu         sync.Mutex
	view       View
	generation uint64
	closed     bool
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// New creates an idle Orchestrator.
func New(cfg Config) *Orchestrator {
	bounds := cfg.Bounds
	if bounds == (leads.Bounds{}) {
		bounds = leads.DefaultBounds
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notify.Discard
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Orchestrator{
		caller:   cfg.Caller,
		notifier: notifier,
		exporter: cfg.Exporter,
		bounds:   bounds,
		logger:   logger,
		metrics:  cfg.Metrics,
	}
}

// View returns the current snapshot.
func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.view.clone()
}

// Submit validates cfg and dispatches one search request. A validation error
// is returned without touching the network or the view. The returned channel
// delivers the settled view and is then closed; it is closed without a value
// if the response is discarded because the orchestrator was closed.
func (o *Orchestrator) Submit(ctx context.Context, cfg leads.SearchConfig) (<-chan View, error) {
	cfg = cfg.Normalized()
	if err := cfg.Validate(o.bounds); err != nil {
		return nil, err
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil, ErrClosed
	}
	if o.view.State == StateSubmitting {
		o.mu.Unlock()
		return nil, ErrInFlight
	}
	o.generation++
	gen := o.generation
	o.view = View{State: StateSubmitting, Loading: true}
	reqCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.wg.Add(1)
	o.mu.Unlock()

	o.logger.Info("search submitted", "niche", cfg.Niche, "region", cfg.Region, "quantity", cfg.Quantity)

	out := make(chan View, 1)
	go func() {
		defer o.wg.Done()
		defer close(out)
		defer cancel()

		outcome := o.caller.Call(reqCtx, gateway.Request{
			Endpoint:     gateway.EndpointSearch,
			Method:       http.MethodPost,
			Body:         cfg,
			AuthRequired: true,
		})
		if view, ok := o.settle(reqCtx, gen, outcome); ok {
			out <- view
		}
	}()
	return out, nil
}

// settle applies outcome if gen is still current. Loading is cleared on every
// applied path.
func (o *Orchestrator) settle(ctx context.Context, gen uint64, outcome gateway.Outcome) (View, bool) {
	var (
		next   View
		notice notify.Notice
	)
	switch v := outcome.(type) {
	case gateway.Ok:
		found, err := leads.DecodeList(v.Payload)
		if err != nil {
			next = View{State: StateFailure, Err: &gateway.Failure{Message: err.Error(), Status: v.Status}}
			notice = notify.Error("Erro", err.Error())
			break
		}
		next = View{State: StateSuccess, Leads: found, ResultsVisible: true}
		if len(found) == 0 {
			notice = notify.Info("Nenhum lead encontrado", "Tente ajustar o nicho, a região ou os critérios da busca.")
		} else {
			notice = notify.Success("Leads encontrados!", fmt.Sprintf("%d leads qualificados", len(found)))
		}
	case *gateway.Failure:
		next = View{State: StateFailure, Err: v}
		notice = notify.Error("Erro", v.Message)
	default:
		next = View{State: StateFailure, Err: errors.New("search: no response")}
		notice = notify.Error("Erro", "no response")
	}
	next.Notice = &notice

	o.mu.Lock()
	if o.closed || gen != o.generation {
		o.mu.Unlock()
		o.metrics.ObserveDiscarded(component)
		o.logger.Debug("discarding stale search response", "generation", gen)
		return View{}, false
	}
	o.view = next
	o.cancel = nil
	snapshot := o.view.clone()
	o.mu.Unlock()

	if snapshot.Err != nil {
		o.logger.Warn("search failed", "error", snapshot.Err)
	} else {
		o.logger.Info("search completed", "leads", len(snapshot.Leads))
	}
	o.notifier.Notify(ctx, notice)
	return snapshot, true
}

// ExportCSV writes the current results as the short-form CSV.
func (o *Orchestrator) ExportCSV(ctx context.Context) (export.Result, error) {
	if o.exporter == nil {
		return export.Result{}, errors.New("search: exporter not configured")
	}
	current := o.View().Leads
	res, err := o.exporter.Export(ctx, export.KindResultsCSV, current)
	switch {
	case errors.Is(err, export.ErrNothingToExport):
		o.notifier.Notify(ctx, notify.Info("Nenhum lead para exportar", "Gere alguns leads primeiro."))
		return res, err
	case err != nil:
		o.notifier.Notify(ctx, notify.Error("Erro", err.Error()))
		return res, err
	}
	o.notifier.Notify(ctx, notify.Success("Export realizado!", fmt.Sprintf("%d leads exportados para CSV", res.Count)))
	return res, nil
}

// Close tears the orchestrator down. A pending request is cancelled and its
// response, if one still arrives, is discarded. Close waits for the request
// goroutine to exit.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.generation++
	cancel := o.cancel
	o.cancel = nil
	o.view.Loading = false
	if o.view.State == StateSubmitting {
		o.view.State = StateIdle
	}
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	o.wg.Wait()
}
