package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RemoteOp("Add", "error")
	m.RemoteOp("Add", "error")
	m.RemoteOp("Fetch", "ok")
	m.Fallback("degrade")
	m.Checkout("submitted")
	m.SessionsActive(3)

	require.Equal(t, 2.0, testutil.ToFloat64(m.remoteOps.WithLabelValues("Add", "error")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.remoteOps.WithLabelValues("Fetch", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.fallbacks.WithLabelValues("degrade")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.checkouts.WithLabelValues("submitted")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.sessions))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	require.NotPanics(t, func() {
		m.RemoteOp("Add", "ok")
		m.Fallback("local")
		m.Checkout("failed")
		m.SessionsActive(1)
	})
}

func TestHandler_ExposesRegistry(t *testing.T) {
	reg := NewRegistry()
	New(reg).Checkout("empty")

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	require.True(t, strings.Contains(text, `storefront_cart_checkouts_total{result="empty"} 1`))
	require.True(t, strings.Contains(text, "go_goroutines"))
}
