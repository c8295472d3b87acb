package observability

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/aretw0/contentgraph/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by lifecycle hooks.
type Metrics struct {
	Requests          *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	Sessions          *prometheus.CounterVec
	Translations      *prometheus.CounterVec
	TranslateDuration prometheus.Histogram
	Descriptors       *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contentgraph_requests_total",
				Help: "Total number of content API requests",
			},
			[]string{"op", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "contentgraph_request_duration_seconds",
				Help:    "Duration of content API requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		Sessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contentgraph_sessions_total",
				Help: "Session open and close events",
			},
			[]string{"event", "result"},
		),
		Translations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contentgraph_translations_total",
				Help: "Total number of translation passes",
			},
			[]string{"result"},
		),
		TranslateDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "contentgraph_translate_duration_seconds",
				Help:    "Duration of translation passes",
				Buckets: prometheus.DefBuckets,
			},
		),
		Descriptors: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "contentgraph_descriptors",
				Help: "Descriptors produced by the last successful translation",
			},
			[]string{"kind"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.Requests, m.RequestDuration, m.Sessions, m.Translations, m.TranslateDuration, m.Descriptors,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks recording every event.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRequest: func(ctx context.Context, e *domain.RequestEvent) {
			status := "error"
			if e.StatusCode != 0 {
				status = strconv.Itoa(e.StatusCode)
			}
			m.Requests.WithLabelValues(e.Op, status).Inc()
			m.RequestDuration.WithLabelValues(e.Op).Observe(e.Duration.Seconds())
		},
		OnSession: func(ctx context.Context, e *domain.SessionEvent) {
			m.Sessions.WithLabelValues(string(e.Type), result(e.Err)).Inc()
		},
		OnTranslate: func(ctx context.Context, e *domain.TranslateEvent) {
			m.Translations.WithLabelValues(result(e.Err)).Inc()
			m.TranslateDuration.Observe(e.Duration.Seconds())
			if e.Err == nil {
				m.Descriptors.WithLabelValues(string(domain.ContentTypeItem)).Set(float64(e.Items))
				m.Descriptors.WithLabelValues(string(domain.ContentTypeSubReference)).Set(float64(e.SubReferences))
			}
		},
	}
}

// LoggingHooks returns lifecycle hooks that log every event.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRequest: func(ctx context.Context, e *domain.RequestEvent) {
			if e.Err != nil {
				logger.Warn("request", "op", e.Op, "method", e.Method, "status", e.StatusCode, "duration", e.Duration, "err", e.Err)
				return
			}
			logger.Debug("request", "op", e.Op, "method", e.Method, "status", e.StatusCode, "duration", e.Duration)
		},
		OnSession: func(ctx context.Context, e *domain.SessionEvent) {
			if e.Err != nil {
				logger.Warn(string(e.Type), "site", e.SiteName, "err", e.Err)
				return
			}
			logger.Info(string(e.Type), "site", e.SiteName)
		},
		OnTranslate: func(ctx context.Context, e *domain.TranslateEvent) {
			if e.Err != nil {
				logger.Error("translate", "site", e.SiteName, "err", e.Err)
				return
			}
			logger.Info("translate", "site", e.SiteName, "items", e.Items, "sub_references", e.SubReferences, "duration", e.Duration)
		},
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
