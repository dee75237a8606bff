package cloudmetrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	signupCompletions     *prometheus.CounterVec
	tokenExchangeFailures *prometheus.CounterVec
	connectedWabas        prometheus.Gauge
	vendorsTotal          prometheus.Gauge
	memoryBytes           prometheus.Gauge
}

func newMetrics(registry *prometheus.Registry) *metrics {
	m := &metrics{
		signupCompletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "console_platform_signup_completions_total",
			Help: "Embedded signup completions by terminal event type.",
		}, []string{"instance_id", "event_type"}),
		tokenExchangeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "console_platform_token_exchange_failures_total",
			Help: "Token exchange failures by stage.",
		}, []string{"instance_id", "stage"}),
		connectedWabas: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "console_platform_connected_wabas",
			Help: "WhatsApp Business accounts currently connected.",
		}),
		vendorsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "console_platform_vendors_total",
			Help: "Vendors registered on this install.",
		}),
		memoryBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "console_platform_memory_bytes",
			Help: "Memory obtained from the OS by the process.",
		}),
	}

	if registry != nil {
		registry.MustRegister(
			m.signupCompletions,
			m.tokenExchangeFailures,
			m.connectedWabas,
			m.vendorsTotal,
			m.memoryBytes,
		)
	}
	return m
}

type Recorder interface {
	RecordSignupCompletion(eventType string)
	RecordTokenExchangeFailure(stage string)
	SetConnectedWabas(count int64)
	SetVendorsTotal(count int64)
	SetMemoryUsage(bytes uint64)
}

type recorder struct {
	metrics    *metrics
	instanceID string
}

type noopRecorder struct{}

func (noopRecorder) RecordSignupCompletion(string)     {}
func (noopRecorder) RecordTokenExchangeFailure(string) {}
func (noopRecorder) SetConnectedWabas(int64)           {}
func (noopRecorder) SetVendorsTotal(int64)             {}
func (noopRecorder) SetMemoryUsage(uint64)             {}

var (
	activeRecorder Recorder = noopRecorder{}
	recorderMu     sync.RWMutex
)

func setRecorder(rec Recorder) {
	if rec == nil {
		return
	}
	recorderMu.Lock()
	activeRecorder = rec
	recorderMu.Unlock()
}

func RecordSignupCompletion(eventType string) {
	recorderMu.RLock()
	rec := activeRecorder
	recorderMu.RUnlock()
	rec.RecordSignupCompletion(eventType)
}

func RecordTokenExchangeFailure(stage string) {
	recorderMu.RLock()
	rec := activeRecorder
	recorderMu.RUnlock()
	rec.RecordTokenExchangeFailure(stage)
}

func SetConnectedWabas(count int64) {
	recorderMu.RLock()
	rec := activeRecorder
	recorderMu.RUnlock()
	rec.SetConnectedWabas(count)
}

func SetVendorsTotal(count int64) {
	recorderMu.RLock()
	rec := activeRecorder
	recorderMu.RUnlock()
	rec.SetVendorsTotal(count)
}

func SetMemoryUsage(bytes uint64) {
	recorderMu.RLock()
	rec := activeRecorder
	recorderMu.RUnlock()
	rec.SetMemoryUsage(bytes)
}

func (r *recorder) RecordSignupCompletion(eventType string) {
	if r == nil || r.metrics == nil {
		return
	}
	r.metrics.signupCompletions.WithLabelValues(r.instance(), normalizeLabel(eventType)).Inc()
}

func (r *recorder) RecordTokenExchangeFailure(stage string) {
	if r == nil || r.metrics == nil {
		return
	}
	r.metrics.tokenExchangeFailures.WithLabelValues(r.instance(), normalizeLabel(stage)).Inc()
}

func (r *recorder) SetConnectedWabas(count int64) {
	if r == nil || r.metrics == nil {
		return
	}
	if count < 0 {
		count = 0
	}
	r.metrics.connectedWabas.Set(float64(count))
}

func (r *recorder) SetVendorsTotal(count int64) {
	if r == nil || r.metrics == nil {
		return
	}
	if count < 0 {
		count = 0
	}
	r.metrics.vendorsTotal.Set(float64(count))
}

func (r *recorder) SetMemoryUsage(bytes uint64) {
	if r == nil || r.metrics == nil {
		return
	}
	r.metrics.memoryBytes.Set(float64(bytes))
}

func (r *recorder) instance() string {
	id := strings.TrimSpace(r.instanceID)
	if id == "" {
		return "unknown"
	}
	return id
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return value
}
