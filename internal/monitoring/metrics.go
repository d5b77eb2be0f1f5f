package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 监控指标
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// 扫描指标
	ScansStarted       prometheus.Counter
	ScanDuration       prometheus.Histogram
	MessagesClassified prometheus.Counter
	MessageErrors      prometheus.Counter

	// 合作记录指标
	DealsCreated prometheus.Counter

	// 分类器指标
	ClassifierErrors prometheus.Counter
	LLMRetries       prometheus.Counter
	LLMParseFailures prometheus.Counter

	// 错误指标
	ErrorsTotal *prometheus.CounterVec
	PanicsTotal prometheus.Counter
}

// NewMetrics 创建监控指标（promauto 自动注册到默认 registry，
// 进程内只应调用一次）
func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nboxie_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nboxie_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		ScansStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nboxie_scans_started_total",
			Help: "Total number of inbox scans started",
		}),
		ScanDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "nboxie_scan_duration_seconds",
			Help:    "Inbox scan duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		}),
		MessagesClassified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nboxie_messages_classified_total",
			Help: "Total number of messages run through a classifier",
		}),
		MessageErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nboxie_message_errors_total",
			Help: "Total number of per-message fetch failures",
		}),
		DealsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nboxie_deals_created_total",
			Help: "Total number of deal records created",
		}),
		ClassifierErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nboxie_classifier_errors_total",
			Help: "Total number of classification failures",
		}),
		LLMRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nboxie_llm_retries_total",
			Help: "Total number of LLM completion retries after malformed output",
		}),
		LLMParseFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nboxie_llm_parse_failures_total",
			Help: "Total number of LLM responses that failed parsing after retry",
		}),
		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nboxie_errors_total",
				Help: "Total number of errors by type",
			},
			[]string{"type", "component"},
		),
		PanicsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nboxie_panics_total",
			Help: "Total number of recovered panics",
		}),
	}
}

// RecordHTTPRequest 记录一次 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordError 记录错误
func (m *Metrics) RecordError(errorType, component string) {
	m.ErrorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordPanic 记录 panic
func (m *Metrics) RecordPanic() {
	m.PanicsTotal.Inc()
}
