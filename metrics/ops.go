package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/mwesox/menuvo-payments/core"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const gaugeQueueDepth = "payments.queue.depth"

// RegisteredTypesLister is satisfied by the handler registry.
type RegisteredTypesLister interface {
	ListRegisteredTypes() []string
}

// OpsConfig wires the operational HTTP surface: the prometheus scrape
// endpoint plus small JSON introspection endpoints for queue depths and
// registered handler types.
type OpsConfig struct {
	Recorder  *PrometheusRecorder
	Queue     core.EventQueue
	Registry  RegisteredTypesLister
	Providers []string
}

type queueDepthEntry struct {
	Provider string `json:"provider"`
	Queue    string `json:"queue"`
	Depth    int    `json:"depth"`
}

// NewOpsHandler returns a mux exposing /metrics, /healthz, /queues and
// /handlers. Scraping /queues refreshes the queue depth gauges as a side
// effect, so prometheus sees current depths without a background poller.
func NewOpsHandler(cfg OpsConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Recorder != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(cfg.Recorder.Registry(), promhttp.HandlerOpts{}))
	}

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/queues", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Queue == nil {
			http.Error(w, "queue not configured", http.StatusServiceUnavailable)
			return
		}
		entries := make([]queueDepthEntry, 0, len(cfg.Providers)*2)
		for _, provider := range cfg.Providers {
			for _, queue := range []string{core.QueueMain, core.QueueDeadLetter} {
				depth, err := cfg.Queue.Depth(r.Context(), core.QueueName(provider, queue))
				if err != nil {
					http.Error(w, err.Error(), http.StatusInternalServerError)
					return
				}
				entries = append(entries, queueDepthEntry{Provider: provider, Queue: queue, Depth: depth})
				if cfg.Recorder != nil {
					cfg.Recorder.SetGauge(r.Context(), gaugeQueueDepth, float64(depth), map[string]string{
						"provider": provider,
						"queue":    queue,
					})
				}
			}
		}
		writeJSON(w, map[string]any{"queues": entries})
	})

	mux.HandleFunc("/handlers", func(w http.ResponseWriter, _ *http.Request) {
		if cfg.Registry == nil {
			http.Error(w, "registry not configured", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, map[string]any{"event_types": cfg.Registry.ListRegisteredTypes()})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(payload)
}
