// Package metrics 定义进程内所有Prometheus指标。
package metrics

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 成就授予结果标签
const (
	GrantGranted      = "granted"
	GrantAlreadyOwned = "already_owned"
	GrantUnknown      = "unknown"
	GrantFailed       = "failed"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// achievementGrantsTotal 是被吞掉的授予失败唯一可见的地方
	achievementGrantsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "achievement_grants_total",
			Help: "Achievement grant attempts by outcome",
		},
		[]string{"achievement", "result"},
	)

	rateLimitRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"backend"},
	)
)

// ObserveRequest 记录一次HTTP请求
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveGrant 记录一次成就授予的结果
func ObserveGrant(achievement, result string) {
	achievementGrantsTotal.WithLabelValues(achievement, result).Inc()
}

// ObserveRateLimitRejection 记录一次被限流拒绝的请求
func ObserveRateLimitRejection(backend string) {
	rateLimitRejectionsTotal.WithLabelValues(backend).Inc()
}

// RegisterDBStats 导出连接池统计。同一进程只能调用一次。
func RegisterDBStats(db *sql.DB, name string) error {
	return prometheus.Register(collectors.NewDBStatsCollector(db, name))
}

// Handler 返回 /metrics 的处理器
func Handler() http.Handler {
	return promhttp.Handler()
}
