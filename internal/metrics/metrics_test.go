package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPipelineMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPipeline(reg)

	p.JobFinished("statement", "SUCCEEDED")
	p.JobFinished("statement", "SUCCEEDED")
	p.JobFinished("passport", "FAILED")
	p.Fallback("driving_license")
	p.ObserveModelCall("statement", 3*time.Second)

	done := p.Track()
	assert.Equal(t, 1.0, testutil.ToFloat64(p.JobsActive))
	done()
	assert.Equal(t, 0.0, testutil.ToFloat64(p.JobsActive))

	assert.Equal(t, 2.0, testutil.ToFloat64(p.JobsTotal.WithLabelValues("statement", "SUCCEEDED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.JobsTotal.WithLabelValues("passport", "FAILED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.DecodeFallbacks.WithLabelValues("driving_license")))
	assert.Equal(t, 1, testutil.CollectAndCount(p.ModelCallTime))
}

func TestNilPipelineIsNoop(t *testing.T) {
	var p *Pipeline
	p.JobFinished("statement", "FAILED")
	p.Fallback("passport")
	p.ObserveModelCall("statement", time.Second)
	p.Track()()
}
