package metrics_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-lms-client/metrics"
	"github.com/jrsteele09/go-lms-client/token"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.RefreshOutcome(token.Dashboard, metrics.OutcomeSuccess)
	m.RefreshOutcome(token.Dashboard, metrics.OutcomeSuccess)
	m.RefreshJoined(token.Public)
	m.Request("GET", 200, time.Millisecond)
	m.Request("GET", 0, time.Millisecond)

	count, err := testutil.GatherAndCount(reg, "lms_token_refresh_total", "lms_token_refresh_joined_total", "lms_client_requests_total")
	require.NoError(t, err)
	require.Equal(t, 4, count)
}

func TestMetrics_Nil(t *testing.T) {
	var m *metrics.Metrics
	require.NotPanics(t, func() {
		m.RefreshOutcome(token.Public, metrics.OutcomeFailure)
		m.RefreshJoined(token.Public)
		m.Request("POST", 500, time.Second)
	})
}
