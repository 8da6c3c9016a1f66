package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestKernelCounters(t *testing.T) {
	k := NewKernel(prometheus.NewRegistry())

	k.ObservePost(OutcomePosted, 10*time.Millisecond)
	k.ObservePost(OutcomePosted, 20*time.Millisecond)
	k.ObservePost(OutcomeInProgress, time.Millisecond)
	k.ObserveReversal(OutcomeAlreadyRev)
	k.ObserveOperator(OutcomeRetryCleared)

	assert.Equal(t, 2.0, testutil.ToFloat64(k.PostAttempts.WithLabelValues(OutcomePosted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(k.PostAttempts.WithLabelValues(OutcomeInProgress)))
	assert.Equal(t, 1.0, testutil.ToFloat64(k.Reversals.WithLabelValues(OutcomeAlreadyRev)))
	assert.Equal(t, 1.0, testutil.ToFloat64(k.OperatorActions.WithLabelValues(OutcomeRetryCleared)))
}

func TestNilKernelIsNoop(t *testing.T) {
	var k *Kernel
	assert.NotPanics(t, func() {
		k.ObservePost(OutcomePosted, time.Second)
		k.ObserveReversal(OutcomeReversed)
		k.ObserveOperator(OutcomeMarkedStuck)
	})
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	k := NewKernel(prometheus.NewRegistry())

	r := gin.New()
	r.Use(k.GinMiddleware())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 2; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/42", nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(k.HTTPRequestsTotal.WithLabelValues("GET", "/items/:id", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(k.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}
