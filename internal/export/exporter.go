// Package export turns lead collections into CSV or PDF files and hands the
// bytes to a Sink. Serializers never touch the network and never modify
// their input.
package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wolfman30/leadhunter/internal/leads"
	"github.com/wolfman30/leadhunter/internal/observability/metrics"
	"github.com/wolfman30/leadhunter/pkg/logging"
)

// ErrNothingToExport is returned for an empty collection; no file is produced.
var ErrNothingToExport = errors.New("export: nothing to export")

// Kind selects the format and column layout of an export.
type Kind string

const (
	// KindResultsCSV is the short-form CSV of the live search results.
	KindResultsCSV Kind = "results_csv"
	// KindHistoryCSV is the full-field CSV of the lead history.
	KindHistoryCSV Kind = "history_csv"
	// KindHistoryPDF is the tabular PDF of the lead history.
	KindHistoryPDF Kind = "history_pdf"
)

const (
	contentTypeCSV = "text/csv; charset=utf-8"
	contentTypePDF = "application/pdf"
)

// Filename returns the download name for kind. Only the live results name
// carries a date, taken in UTC.
func Filename(kind Kind, now time.Time) string {
	switch kind {
	case KindResultsCSV:
		return "leads-" + now.UTC().Format("2006-01-02") + ".csv"
	case KindHistoryCSV:
		return "leads_historico.csv"
	case KindHistoryPDF:
		return "leads_historico.pdf"
	default:
		return ""
	}
}

// Render produces the file contents and content type for kind.
func Render(kind Kind, rows []leads.Lead) ([]byte, string, error) {
	switch kind {
	case KindResultsCSV:
		data, err := EncodeCSV(rows, ShortColumns)
		return data, contentTypeCSV, err
	case KindHistoryCSV:
		data, err := EncodeCSV(rows, FullColumns)
		return data, contentTypeCSV, err
	case KindHistoryPDF:
		data, err := RenderPDF(rows)
		return data, contentTypePDF, err
	default:
		return nil, "", fmt.Errorf("export: unknown kind %q", kind)
	}
}

// Result describes a written export.
type Result struct {
	Kind     Kind
	Filename string
	Location string
	Count    int
}

// Exporter renders lead collections and writes them through a Sink.
type Exporter struct {
	sink    Sink
	now     func() time.Time
	logger  *logging.Logger
	metrics *metrics.ClientMetrics
}

// Option customizes an Exporter.
type Option func(*Exporter)

// WithClock overrides the clock used for dated filenames.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(e *Exporter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics records export counters.
func WithMetrics(m *metrics.ClientMetrics) Option {
	return func(e *Exporter) {
		e.metrics = m
	}
}

// NewExporter creates an Exporter writing to sink.
func NewExporter(sink Sink, opts ...Option) *Exporter {
	e := &Exporter{sink: sink, now: time.Now, logger: logging.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export renders rows as kind and writes the file. An empty collection is a
// no-op that returns ErrNothingToExport so the caller can tell the user.
func (e *Exporter) Export(ctx context.Context, kind Kind, rows []leads.Lead) (Result, error) {
	if len(rows) == 0 {
		return Result{}, ErrNothingToExport
	}
	if e.sink == nil {
		return Result{}, errors.New("export: sink not configured")
	}

	data, contentType, err := Render(kind, rows)
	if err != nil {
		e.metrics.ObserveExport(string(kind), "error", 0)
		return Result{}, err
	}

	name := Filename(kind, e.now())
	location, err := e.sink.Write(ctx, name, contentType, data)
	if err != nil {
		e.metrics.ObserveExport(string(kind), "error", 0)
		e.logger.Error("export write failed", "kind", kind, "filename", name, "error", err)
		return Result{}, fmt.Errorf("export: write %s: %w", name, err)
	}

	e.metrics.ObserveExport(string(kind), "ok", len(rows))
	e.logger.Info("leads exported", "kind", kind, "location", location, "count", len(rows), "bytes", len(data))
	return Result{Kind: kind, Filename: name, Location: location, Count: len(rows)}, nil
}
