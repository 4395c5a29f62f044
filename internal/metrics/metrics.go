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
// ワーカーやサービス層から利用する。
type MetricsCollector interface {
	RecordProvisioning(outcome string, duration time.Duration)
	RecordCompensation(result string)
	RecordBestEffortFailure(record string)
	RecordRiskAssessment(level string)
	RecordOrphansReconciled(count int)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	provisioning         *prometheus.CounterVec
	provisioningDuration prometheus.Histogram
	compensations        *prometheus.CounterVec
	bestEffortFailures   *prometheus.CounterVec
	riskAssessments      *prometheus.CounterVec
	orphansReconciled    prometheus.Counter
	httpStatus           *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		provisioning: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guardlingo_provisioning_total",
			Help: "アカウント作成リクエストの結果別件数",
		}, []string{"outcome"}),
		provisioningDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "guardlingo_provisioning_duration_seconds",
			Help:    "アカウント作成処理の所要時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guardlingo_compensations_total",
			Help: "補償削除の結果別件数",
		}, []string{"result"}),
		bestEffortFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guardlingo_best_effort_failures_total",
			Help: "付随レコード作成の失敗件数",
		}, []string{"record"}),
		riskAssessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guardlingo_risk_assessments_total",
			Help: "文化リスク評価のレベル別件数",
		}, []string{"level"}),
		orphansReconciled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "guardlingo_orphans_reconciled_total",
			Help: "削除した孤立認証アカウントの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guardlingo_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.provisioning,
		c.provisioningDuration,
		c.compensations,
		c.bestEffortFailures,
		c.riskAssessments,
		c.orphansReconciled,
		c.httpStatus,
	)

	return c
}

// RecordProvisioning はアカウント作成の結果と所要時間を記録する。
func (c *Collector) RecordProvisioning(outcome string, duration time.Duration) {
	c.provisioning.WithLabelValues(outcome).Inc()
	c.provisioningDuration.Observe(duration.Seconds())
}

// RecordCompensation は補償削除の結果を記録する。
func (c *Collector) RecordCompensation(result string) {
	c.compensations.WithLabelValues(result).Inc()
}

// RecordBestEffortFailure は付随レコード作成の失敗を記録する。
func (c *Collector) RecordBestEffortFailure(record string) {
	c.bestEffortFailures.WithLabelValues(record).Inc()
}

// RecordRiskAssessment は文化リスク評価の結果レベルを記録する。
func (c *Collector) RecordRiskAssessment(level string) {
	c.riskAssessments.WithLabelValues(level).Inc()
}

// RecordOrphansReconciled は削除した孤立アカウント数を記録する。
func (c *Collector) RecordOrphansReconciled(count int) {
	c.orphansReconciled.Add(float64(count))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
