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
// タイマー・共有エンジンやHTTPミドルウェアから利用する。
type MetricsCollector interface {
	RecordSessionStarted()
	RecordSessionCancelled()
	RecordSessionCompleted(duration time.Duration)
	RecordShareCodeIssued(attempts int)
	RecordShareCodeCollision()
	RecordShareCodeExhausted()
	RecordTemplateCloned(workouts int)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	sessionsStarted   prometheus.Counter
	sessionsCancelled prometheus.Counter
	sessionsCompleted prometheus.Counter
	sessionDuration   prometheus.Histogram
	shareIssued       prometheus.Counter
	shareAttempts     prometheus.Histogram
	shareCollisions   prometheus.Counter
	shareExhausted    prometheus.Counter
	templatesCloned   prometheus.Counter
	workoutsCloned    prometheus.Counter
	httpStatus        *prometheus.CounterVec
	requestLatency    prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mpfit_sessions_started_total",
			Help: "開始されたトレーニングセッションの合計数",
		}),
		sessionsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mpfit_sessions_cancelled_total",
			Help: "取り消されたトレーニングセッションの合計数",
		}),
		sessionsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mpfit_sessions_completed_total",
			Help: "完了したトレーニングセッションの合計数",
		}),
		sessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "mpfit_session_duration_seconds",
			Help: "トレーニングセッションの所要時間（秒）",
			// 5分から4時間
			Buckets: []float64{300, 900, 1800, 2700, 3600, 5400, 7200, 14400},
		}),
		shareIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mpfit_share_codes_issued_total",
			Help: "発行された共有コードの合計数",
		}),
		shareAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mpfit_share_code_attempts",
			Help:    "共有コード発行に要した試行回数",
			Buckets: []float64{1, 2, 3, 4, 5, 6},
		}),
		shareCollisions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mpfit_share_code_collisions_total",
			Help: "共有コードの一意制約衝突の合計数",
		}),
		shareExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mpfit_share_code_exhausted_total",
			Help: "再試行上限に達した共有コード発行の合計数",
		}),
		templatesCloned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mpfit_templates_cloned_total",
			Help: "共有コードから複製されたDayの合計数",
		}),
		workoutsCloned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mpfit_workouts_cloned_total",
			Help: "複製されたワークアウトの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mpfit_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mpfit_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.sessionsStarted,
		c.sessionsCancelled,
		c.sessionsCompleted,
		c.sessionDuration,
		c.shareIssued,
		c.shareAttempts,
		c.shareCollisions,
		c.shareExhausted,
		c.templatesCloned,
		c.workoutsCloned,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordSessionStarted はセッション開始を記録する。
func (c *Collector) RecordSessionStarted() {
	c.sessionsStarted.Inc()
}

// RecordSessionCancelled はセッション取消を記録する。
func (c *Collector) RecordSessionCancelled() {
	c.sessionsCancelled.Inc()
}

// RecordSessionCompleted はセッション完了と所要時間を記録する。
// タイマーなしで完了した場合はdurationに0を渡し、ヒストグラムには記録しない。
func (c *Collector) RecordSessionCompleted(duration time.Duration) {
	c.sessionsCompleted.Inc()
	if duration > 0 {
		c.sessionDuration.Observe(duration.Seconds())
	}
}

// RecordShareCodeIssued は共有コードの発行と試行回数を記録する。
func (c *Collector) RecordShareCodeIssued(attempts int) {
	c.shareIssued.Inc()
	c.shareAttempts.Observe(float64(attempts))
}

// RecordShareCodeCollision は共有コードの衝突を記録する。
func (c *Collector) RecordShareCodeCollision() {
	c.shareCollisions.Inc()
}

// RecordShareCodeExhausted は再試行上限到達を記録する。
func (c *Collector) RecordShareCodeExhausted() {
	c.shareExhausted.Inc()
}

// RecordTemplateCloned はテンプレート複製を記録する。
func (c *Collector) RecordTemplateCloned(workouts int) {
	c.templatesCloned.Inc()
	c.workoutsCloned.Add(float64(workouts))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理時間を記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop は何も記録しないMetricsCollector。
type Nop struct{}

func (Nop) RecordSessionStarted()                {}
func (Nop) RecordSessionCancelled()              {}
func (Nop) RecordSessionCompleted(time.Duration) {}
func (Nop) RecordShareCodeIssued(int)            {}
func (Nop) RecordShareCodeCollision()            {}
func (Nop) RecordShareCodeExhausted()            {}
func (Nop) RecordTemplateCloned(int)             {}
func (Nop) RecordHTTPStatus(int)                 {}
func (Nop) RecordRequestLatency(time.Duration)   {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)
