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
	RecordLogin()
	RecordUserCreated()
	RecordStoryCreated()
	RecordStoryUpdated()
	RecordStoryDeleted()
	RecordHTTPStatus(statusCode int)
	RecordRequestDuration(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	logins          prometheus.Counter
	usersCreated    prometheus.Counter
	storiesCreated  prometheus.Counter
	storiesUpdated  prometheus.Counter
	storiesDeleted  prometheus.Counter
	httpStatus      *prometheus.CounterVec
	requestDuration prometheus.Histogram
}

var _ MetricsCollector = (*Collector)(nil)

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storybook_logins_total",
			Help: "ログイン成功の合計数",
		}),
		usersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storybook_users_created_total",
			Help: "初回ログインで作成されたユーザーの合計数",
		}),
		storiesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storybook_stories_created_total",
			Help: "作成されたストーリーの合計数",
		}),
		storiesUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storybook_stories_updated_total",
			Help: "更新されたストーリーの合計数",
		}),
		storiesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storybook_stories_deleted_total",
			Help: "削除されたストーリーの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storybook_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "storybook_request_duration_seconds",
			Help:    "HTTPリクエスト処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.logins,
		c.usersCreated,
		c.storiesCreated,
		c.storiesUpdated,
		c.storiesDeleted,
		c.httpStatus,
		c.requestDuration,
	)

	return c
}

// RecordLogin はログイン成功を記録する。
func (c *Collector) RecordLogin() {
	c.logins.Inc()
}

// RecordUserCreated は初回ログインでのユーザー作成を記録する。
func (c *Collector) RecordUserCreated() {
	c.usersCreated.Inc()
}

// RecordStoryCreated はストーリー作成を記録する。
func (c *Collector) RecordStoryCreated() {
	c.storiesCreated.Inc()
}

// RecordStoryUpdated はストーリー更新を記録する。
func (c *Collector) RecordStoryUpdated() {
	c.storiesUpdated.Inc()
}

// RecordStoryDeleted はストーリー削除を記録する。
func (c *Collector) RecordStoryDeleted() {
	c.storiesDeleted.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestDuration はリクエスト処理時間を記録する。
func (c *Collector) RecordRequestDuration(duration time.Duration) {
	c.requestDuration.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
