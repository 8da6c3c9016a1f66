// Package metrics holds the Prometheus collectors of the ledger.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels of a posting attempt.
const (
	OutcomePosted       = "posted"
	OutcomeIdempotent   = "idempotent"
	OutcomeInProgress   = "in_progress"
	OutcomePrevFailed   = "previous_failed"
	OutcomeRejected     = "rejected"
	OutcomeFailed       = "failed"
	OutcomeReversed     = "reversed"
	OutcomeAlreadyRev   = "already_reversed"
	OutcomeRetryCleared = "retry_cleared"
	OutcomeMarkedStuck  = "marked_stuck"
)

// Recorder is what the services report to. A nil *Kernel is a valid no-op recorder.
type Recorder interface {
	ObservePost(outcome string, d time.Duration)
	ObserveReversal(outcome string)
	ObserveOperator(action string)
}

// Kernel groups the posting kernel collectors.
type Kernel struct {
	PostAttempts      *prometheus.CounterVec
	PostDuration      prometheus.Histogram
	Reversals         *prometheus.CounterVec
	OperatorActions   *prometheus.CounterVec
	HTTPRequestsTotal *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// NewKernel creates the collectors and registers them with reg.
func NewKernel(reg prometheus.Registerer) *Kernel {
	k := &Kernel{
		PostAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bizledger_post_attempts_total",
			Help: "Posting attempts by outcome",
		}, []string{"outcome"}),
		PostDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bizledger_post_duration_seconds",
			Help:    "Duration of posting attempts",
			Buckets: prometheus.DefBuckets,
		}),
		Reversals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bizledger_reversals_total",
			Help: "Reversal attempts by outcome",
		}, []string{"outcome"}),
		OperatorActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bizledger_operator_actions_total",
			Help: "Operator recovery actions on posting runs",
		}, []string{"action"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bizledger_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bizledger_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(k.PostAttempts, k.PostDuration, k.Reversals, k.OperatorActions, k.HTTPRequestsTotal, k.HTTPDuration)
	return k
}

func (k *Kernel) ObservePost(outcome string, d time.Duration) {
	if k == nil {
		return
	}
	k.PostAttempts.WithLabelValues(outcome).Inc()
	k.PostDuration.Observe(d.Seconds())
}

func (k *Kernel) ObserveReversal(outcome string) {
	if k == nil {
		return
	}
	k.Reversals.WithLabelValues(outcome).Inc()
}

func (k *Kernel) ObserveOperator(action string) {
	if k == nil {
		return
	}
	k.OperatorActions.WithLabelValues(action).Inc()
}

// GinMiddleware records request counts and latencies by matched route.
func (k *Kernel) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		k.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		k.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
