package metrics

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/mwesox/menuvo-payments/core"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder adapts the pipeline's metrics contract onto a
// prometheus registry. Metric families are created lazily on first use; the
// label set observed on that first call becomes the family's label schema,
// and later calls are normalized against it.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	mu         sync.Mutex
	counters   map[string]*counterFamily
	histograms map[string]*histogramFamily
	gauges     map[string]*gaugeFamily
}

type counterFamily struct {
	vec    *prometheus.CounterVec
	labels []string
}

type histogramFamily struct {
	vec    *prometheus.HistogramVec
	labels []string
}

type gaugeFamily struct {
	vec    *prometheus.GaugeVec
	labels []string
}

func NewPrometheusRecorder(registry *prometheus.Registry) *PrometheusRecorder {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return &PrometheusRecorder{
		registry:   registry,
		counters:   map[string]*counterFamily{},
		histograms: map[string]*histogramFamily{},
		gauges:     map[string]*gaugeFamily{},
	}
}

func (r *PrometheusRecorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *PrometheusRecorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	if r == nil || value <= 0 {
		return
	}
	r.mu.Lock()
	family, ok := r.counters[name]
	if !ok {
		family = &counterFamily{labels: labelNames(tags)}
		family.vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: sanitizeName(name),
			Help: name,
		}, family.labels)
		r.registry.MustRegister(family.vec)
		r.counters[name] = family
	}
	r.mu.Unlock()
	family.vec.With(normalizeLabels(family.labels, tags)).Add(float64(value))
}

func (r *PrometheusRecorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	family, ok := r.histograms[name]
	if !ok {
		family = &histogramFamily{labels: labelNames(tags)}
		family.vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    sanitizeName(name),
			Help:    name,
			Buckets: prometheus.DefBuckets,
		}, family.labels)
		r.registry.MustRegister(family.vec)
		r.histograms[name] = family
	}
	r.mu.Unlock()
	family.vec.With(normalizeLabels(family.labels, tags)).Observe(value)
}

func (r *PrometheusRecorder) SetGauge(_ context.Context, name string, value float64, tags map[string]string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	family, ok := r.gauges[name]
	if !ok {
		family = &gaugeFamily{labels: labelNames(tags)}
		family.vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: sanitizeName(name),
			Help: name,
		}, family.labels)
		r.registry.MustRegister(family.vec)
		r.gauges[name] = family
	}
	r.mu.Unlock()
	family.vec.With(normalizeLabels(family.labels, tags)).Set(value)
}

func labelNames(tags map[string]string) []string {
	if len(tags) == 0 {
		return nil
	}
	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// normalizeLabels squeezes an arbitrary tag map into the family's schema:
// known labels fall back to "" when absent, unknown tags are dropped.
func normalizeLabels(schema []string, tags map[string]string) prometheus.Labels {
	labels := make(prometheus.Labels, len(schema))
	for _, name := range schema {
		labels[name] = tags[name]
	}
	return labels
}

func sanitizeName(name string) string {
	replacer := strings.NewReplacer(".", "_", "-", "_", " ", "_", ":", "_")
	return replacer.Replace(strings.TrimSpace(name))
}

var _ core.MetricsRecorder = (*PrometheusRecorder)(nil)
