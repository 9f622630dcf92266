package telemetry

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/insightdelivered/bank-parser/internal/models"
	"github.com/insightdelivered/bank-parser/internal/processor"
)

var _ processor.EventLogger = (*MetricsLogger)(nil)

const namespace = "bankparser"

// MetricsLogger turns processing events into Prometheus counters.
type MetricsLogger struct {
	filesReceived  prometheus.Counter
	filesSkipped   prometheus.Counter
	filesProcessed prometheus.Counter
	banks          *prometheus.CounterVec
	extractions    *prometheus.CounterVec
	errors         *prometheus.CounterVec
	movements      prometheus.Counter
	pages          prometheus.Histogram
	consolidations prometheus.Counter
	mismatches     prometheus.Counter
}

// NewMetricsLogger creates the collectors and registers them with reg.
func NewMetricsLogger(reg prometheus.Registerer) (*MetricsLogger, error) {
	m := &MetricsLogger{
		filesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "files_received_total",
			Help: "Statement files received for processing.",
		}),
		filesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "files_skipped_total",
			Help: "Skip events, including hybrid documents sent to the next backend.",
		}),
		filesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "files_processed_total",
			Help: "Statements parsed successfully.",
		}),
		banks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "bank_identifications_total",
			Help: "Bank identification outcomes by bank; unidentified documents use bank=\"none\".",
		}, []string{"bank"}),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "extractions_total",
			Help: "Extraction attempts by backend.",
		}, []string{"extractor"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "errors_total",
			Help: "Processing errors by kind.",
		}, []string{"kind"}),
		movements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "movements_total",
			Help: "Movements extracted across all statements.",
		}),
		pages: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "statement_pages",
			Help:    "Pages per processed statement.",
			Buckets: prometheus.LinearBuckets(1, 2, 10),
		}),
		consolidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "consolidations_total",
			Help: "Consolidated workbooks written.",
		}),
		mismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "validation_mismatches_total",
			Help: "Statements whose printed balances disagree with their movements.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.filesReceived, m.filesSkipped, m.filesProcessed, m.banks, m.extractions,
		m.errors, m.movements, m.pages, m.consolidations, m.mismatches,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *MetricsLogger) FileReceived(string, string) { m.filesReceived.Inc() }

func (m *MetricsLogger) FileSkipped(string, string) { m.filesSkipped.Inc() }

func (m *MetricsLogger) BankIdentified(_, bank string) { m.banks.WithLabelValues(bank).Inc() }

func (m *MetricsLogger) BankNotIdentified(string) { m.banks.WithLabelValues("none").Inc() }

func (m *MetricsLogger) ExtractionStart(_, extractor string) {
	m.extractions.WithLabelValues(extractor).Inc()
}

func (m *MetricsLogger) ExtractionComplete(_ string, pages, movimientos int) {
	m.filesProcessed.Inc()
	m.movements.Add(float64(movimientos))
	m.pages.Observe(float64(pages))
}

func (m *MetricsLogger) FileError(_ string, err error) {
	m.errors.WithLabelValues(errorKind(err)).Inc()
}

func (m *MetricsLogger) ConsolidationStart(int) {}

func (m *MetricsLogger) ConsolidationComplete(string) { m.consolidations.Inc() }

func (m *MetricsLogger) ValidationMismatch(string, string, string, string) { m.mismatches.Inc() }

// errorKind maps the typed errors to a bounded label set.
func errorKind(err error) string {
	var (
		extraction *models.ExtractionError
		parse      *models.ParseError
		format     *models.FormatoInvalidoError
		bank       *models.BancoNoIdentificadoError
		output     *models.OutputError
	)
	switch {
	case errors.As(err, &extraction):
		return "extraction"
	case errors.As(err, &parse):
		return "parse"
	case errors.As(err, &format):
		return "format"
	case errors.As(err, &bank):
		return "bank"
	case errors.As(err, &output):
		return "output"
	default:
		return "other"
	}
}
