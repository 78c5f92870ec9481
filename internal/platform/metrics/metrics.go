// Package metrics holds the process wide prometheus collectors
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type collectors struct {
	once sync.Once

	classify       *prometheus.CounterVec
	oracleRequests *prometheus.CounterVec
	oracleSeconds  prometheus.Histogram
	fetchRequests  *prometheus.CounterVec
	fetchConflicts *prometheus.CounterVec
	indexBatches   *prometheus.CounterVec
	indexCommits   *prometheus.CounterVec
}

var m collectors

func (c *collectors) init() {
	c.once.Do(func() {
		c.classify = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gitpulse_classify_total", Help: "Commits classified by resolving stage and category",
		}, []string{"stage", "category"})
		c.oracleRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gitpulse_oracle_requests_total", Help: "Oracle generate calls by outcome",
		}, []string{"outcome"})
		c.oracleSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "gitpulse_oracle_request_seconds", Help: "Oracle generate latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		})
		c.fetchRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gitpulse_fetch_requests_total", Help: "GitHub API responses by endpoint and status",
		}, []string{"endpoint", "status"})
		c.fetchConflicts = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gitpulse_fetch_conflicts_total", Help: "Range conflicts by recovery outcome",
		}, []string{"outcome"})
		c.indexBatches = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gitpulse_index_batches_total", Help: "Indexing batches by final status",
		}, []string{"status"})
		c.indexCommits = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gitpulse_index_commits_total", Help: "Persisted commits by result",
		}, []string{"result"})

		prometheus.MustRegister(
			c.classify,
			c.oracleRequests, c.oracleSeconds,
			c.fetchRequests, c.fetchConflicts,
			c.indexBatches, c.indexCommits,
		)
	})
}

// Classified counts one classification result
func Classified(stage, category string) {
	m.init()
	m.classify.WithLabelValues(stage, category).Inc()
}

// OracleRequest counts one oracle call and observes its latency
func OracleRequest(outcome string, d time.Duration) {
	m.init()
	m.oracleRequests.WithLabelValues(outcome).Inc()
	m.oracleSeconds.Observe(d.Seconds())
}

// FetchResponse counts one GitHub response
func FetchResponse(endpoint string, status int) {
	m.init()
	m.fetchRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
}

// FetchConflict counts a range conflict by outcome (resolved, abandoned)
func FetchConflict(outcome string) {
	m.init()
	m.fetchConflicts.WithLabelValues(outcome).Inc()
}

// IndexBatch counts an indexing batch by status
func IndexBatch(status string) {
	m.init()
	m.indexBatches.WithLabelValues(status).Inc()
}

// IndexCommits adds n persisted commits by result (created, updated, failed, skipped)
func IndexCommits(result string, n int) {
	if n <= 0 {
		return
	}
	m.init()
	m.indexCommits.WithLabelValues(result).Add(float64(n))
}

// Handler exposes the default registry
func Handler() http.Handler {
	m.init()
	return promhttp.Handler()
}
