package http

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

// handleMetrics writes counters and gauges in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
		fmt.Fprintf(w, "%s %v\n\n", name, value)
	}

	metric("http_requests_total", "counter", "Total number of HTTP requests", atomic.LoadInt64(&s.requests))
	metric("rate_limit_hits_total", "counter", "Total rate limit hits", s.rateLimiter.totalHits())
	metric("suspicious_requests_total", "counter", "Total suspicious requests detected",
		atomic.LoadInt64(&s.security.suspiciousRequests))
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", s.rateLimiter.activeClients())
	if s.store != nil {
		metric("transactions", "gauge", "Transactions in the store", len(s.store.Transactions()))
		metric("budgets", "gauge", "Budgets in the store", len(s.store.Budgets()))
		metric("goals", "gauge", "Goals in the store", len(s.store.Goals()))
	}
	metric("uptime_seconds", "gauge", "Application uptime in seconds",
		fmt.Sprintf("%.0f", s.now().Sub(s.started).Seconds()))
}
