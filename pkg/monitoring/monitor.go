package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 评分相关指标
	SessionTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ielts_session_transitions_total",
			Help: "Test session state transitions by module and target state",
		},
		[]string{"test_type", "state"},
	)

	RetakeRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ielts_retake_rejections_total",
			Help: "Start or complete calls rejected because the session was already completed",
		},
		[]string{"test_type"},
	)

	UnscorableQuestions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ielts_unscorable_questions_total",
			Help: "Questions scored as zero because their correct answer is missing",
		},
	)

	ModuleBands = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ielts_module_band",
			Help:    "Module bands assigned on completion or grading",
			Buckets: []float64{1, 2, 3, 4, 5, 5.5, 6, 6.5, 7, 7.5, 8, 8.5, 9},
		},
		[]string{"test_type"},
	)

	Materializations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ielts_result_materializations_total",
			Help: "Result materializations by outcome",
		},
		[]string{"outcome"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(SessionTransitions)
		prometheus.MustRegister(RetakeRejections)
		prometheus.MustRegister(UnscorableQuestions)
		prometheus.MustRegister(ModuleBands)
		prometheus.MustRegister(Materializations)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
