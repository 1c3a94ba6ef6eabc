package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var histogramBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}

// Collector 持有 HTTP 与内容层面的 Prometheus 指标。
type Collector struct {
	registry       *prometheus.Registry
	requestTotal   *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	postViews      prometheus.Counter
	csvRows        *prometheus.CounterVec
}

// New 创建独立 registry 的 Collector，避免测试中重复注册。
func New() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aura",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Count of processed HTTP requests",
		}, []string{"method", "route", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "aura",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency distribution of HTTP handlers",
			Buckets:   histogramBuckets,
		}, []string{"method", "route", "status"}),
		postViews: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aura",
			Subsystem: "content",
			Name:      "post_views_total",
			Help:      "Number of recorded datalog views",
		}),
		csvRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aura",
			Subsystem: "import",
			Name:      "csv_rows_total",
			Help:      "CSV import rows by model and outcome",
		}, []string{"model", "outcome"}),
	}

	registry.MustRegister(
		c.requestTotal,
		c.requestLatency,
		c.postViews,
		c.csvRows,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Middleware 记录每个请求的次数与耗时，route 使用路由模板避免高基数。
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		labels := prometheus.Labels{
			"method": ctx.Request.Method,
			"route":  route,
			"status": strconv.Itoa(ctx.Writer.Status()),
		}
		c.requestTotal.With(labels).Inc()
		c.requestLatency.With(labels).Observe(time.Since(start).Seconds())
	}
}

// Handler 暴露 /metrics。
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// PostViewed 累计文章浏览次数。
func (c *Collector) PostViewed() {
	if c == nil {
		return
	}
	c.postViews.Inc()
}

// ImportRows 按结果累计 CSV 导入行数。
func (c *Collector) ImportRows(model string, created, updated, skipped, failed int) {
	if c == nil {
		return
	}
	c.csvRows.WithLabelValues(model, "created").Add(float64(created))
	c.csvRows.WithLabelValues(model, "updated").Add(float64(updated))
	c.csvRows.WithLabelValues(model, "skipped").Add(float64(skipped))
	c.csvRows.WithLabelValues(model, "failed").Add(float64(failed))
}
