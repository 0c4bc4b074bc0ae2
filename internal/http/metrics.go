package http

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metricsHandler exposes the middleware counters on a private registry.
// Values are read from the middlewares at scrape time.
func (s *Server) metricsHandler() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),

		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "carteira_http_requests_total",
			Help: "HTTP requests served.",
		}, func() float64 { return float64(s.tracer.GetMetrics().TotalRequests) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "carteira_http_server_errors_total",
			Help: "HTTP requests answered with a 5xx status.",
		}, func() float64 { return float64(s.tracer.GetMetrics().ServerErrors) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "carteira_http_response_time_avg_microseconds",
			Help: "Mean response time since start.",
		}, func() float64 { return float64(s.tracer.GetMetrics().AverageResponseTime) }),

		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "carteira_ratelimit_rejections_total",
			Help: "Requests rejected by the rate limiter.",
		}, func() float64 { return float64(s.limiter.GetMetrics().TotalHits) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "carteira_ratelimit_clients",
			Help: "Clients tracked by the rate limiter.",
		}, func() float64 { return float64(s.limiter.GetMetrics().ClientCount) }),

		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "carteira_security_suspicious_requests_total",
			Help: "Requests flagged by the suspicious request detector.",
		}, func() float64 { return float64(s.detector.GetMetrics().SuspiciousRequests) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "carteira_security_invalid_ip_total",
			Help: "Unparseable X-Forwarded-For values from trusted proxies.",
		}, func() float64 { return float64(s.detector.GetMetrics().InvalidIPAttempts) }),

		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "carteira_uptime_seconds",
			Help: "Seconds since the server was built.",
		}, func() float64 { return time.Since(s.started).Seconds() }),
	)

	if s.summaryCache != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "carteira_summary_cache_entries",
			Help: "Dashboard summaries held in the cache.",
		}, func() float64 { return float64(s.summaryCache.Size()) }))
	}

	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
