package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 监控指标
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Gmail 上游指标
	GmailPagesFetched    prometheus.Counter
	GmailMessagesFetched prometheus.Counter
	GmailMessagesDropped prometheus.Counter
	GmailUpstreamLatency *prometheus.HistogramVec
	GmailUpstreamErrors  *prometheus.CounterVec

	// 业务指标
	MessagesArchived prometheus.Counter
	UsersRegistered  prometheus.Counter

	// 通知指标
	NotificationsSent   prometheus.Counter
	NotificationsFailed prometheus.Counter

	// WebSocket 指标
	WebSocketConnections prometheus.Gauge

	// 错误指标
	ErrorsTotal *prometheus.CounterVec
	PanicsTotal prometheus.Counter
}

// NewMetrics 创建监控指标
func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailbridge_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mailbridge_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		GmailPagesFetched: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "mailbridge_gmail_pages_fetched_total",
				Help: "Total number of Gmail list pages fetched",
			},
		),

		GmailMessagesFetched: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "mailbridge_gmail_messages_fetched_total",
				Help: "Total number of Gmail messages fetched and normalized",
			},
		),

		GmailMessagesDropped: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "mailbridge_gmail_messages_dropped_total",
				Help: "Total number of Gmail messages dropped due to detail fetch failures",
			},
		),

		GmailUpstreamLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mailbridge_gmail_upstream_latency_seconds",
				Help:    "Latency of Gmail API calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		GmailUpstreamErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailbridge_gmail_upstream_errors_total",
				Help: "Total number of Gmail API errors by status code",
			},
			[]string{"status_code"},
		),

		MessagesArchived: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "mailbridge_messages_archived_total",
				Help: "Total number of messages archived",
			},
		),

		UsersRegistered: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "mailbridge_users_registered_total",
				Help: "Total number of registered users",
			},
		),

		NotificationsSent: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "mailbridge_notifications_sent_total",
				Help: "Total number of notification emails sent",
			},
		),

		NotificationsFailed: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "mailbridge_notifications_failed_total",
				Help: "Total number of notification emails that failed to send",
			},
		),

		WebSocketConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "mailbridge_websocket_connections",
				Help: "Number of active WebSocket connections",
			},
		),

		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailbridge_errors_total",
				Help: "Total number of errors by type and component",
			},
			[]string{"error_type", "component"},
		),

		PanicsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "mailbridge_panics_total",
				Help: "Total number of recovered panics",
			},
		),
	}
}

// RecordHTTPRequest 记录一次 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordGmailCall 记录一次 Gmail 上游调用
func (m *Metrics) RecordGmailCall(operation string, duration time.Duration) {
	m.GmailUpstreamLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordError 记录一次错误
func (m *Metrics) RecordError(errorType, component string) {
	m.ErrorsTotal.WithLabelValues(errorType, component).Inc()
}

// Handler 返回 Prometheus 指标的 HTTP Handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}
