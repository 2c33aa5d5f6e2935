// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordLogin(success bool)
	RecordAppointmentCreated()
	RecordAppointmentTransition(to string)
	RecordRequestResolved(status string)
	RecordSnapshotBackup(success bool)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus       *prometheus.CounterVec
	requestLatency   prometheus.Histogram
	logins           *prometheus.CounterVec
	appointments     prometheus.Counter
	transitions      *prometheus.CounterVec
	requestsResolved *prometheus.CounterVec
	snapshotBackups  *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clinica_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "clinica_request_latency_seconds",
			Help:    "APIリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clinica_logins_total",
			Help: "ログイン試行の結果別合計数",
		}, []string{"result"}),
		appointments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clinica_appointments_created_total",
			Help: "作成されたセッション予約の合計数",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clinica_appointment_transitions_total",
			Help: "セッション予約のステータス遷移先別合計数",
		}, []string{"to"}),
		requestsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clinica_requests_resolved_total",
			Help: "受理・却下されたセッション依頼の合計数",
		}, []string{"status"}),
		snapshotBackups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clinica_snapshot_backups_total",
			Help: "スナップショットバックアップの結果別合計数",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.logins,
		c.appointments,
		c.transitions,
		c.requestsResolved,
		c.snapshotBackups,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はAPIリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordLogin はログイン試行の結果を記録する。
func (c *Collector) RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.logins.WithLabelValues(result).Inc()
}

// RecordAppointmentCreated は予約作成を記録する。
func (c *Collector) RecordAppointmentCreated() {
	c.appointments.Inc()
}

// RecordAppointmentTransition は予約のステータス遷移を記録する。
func (c *Collector) RecordAppointmentTransition(to string) {
	c.transitions.WithLabelValues(to).Inc()
}

// RecordRequestResolved は依頼の受理・却下を記録する。
func (c *Collector) RecordRequestResolved(status string) {
	c.requestsResolved.WithLabelValues(status).Inc()
}

// RecordSnapshotBackup はバックアップ実行の結果を記録する。
func (c *Collector) RecordSnapshotBackup(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.snapshotBackups.WithLabelValues(result).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
