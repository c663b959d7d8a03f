package metrics_test

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wader/mpowiggle/internal/metrics"
	"go.uber.org/zap"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestExportsCounter(t *testing.T) {
	before := testutil.ToFloat64(metrics.ExportsTotal.WithLabelValues("gif", "succeeded"))
	metrics.ExportsTotal.WithLabelValues("gif", "succeeded").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ExportsTotal.WithLabelValues("gif", "succeeded")))
}

func TestServer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr := freeAddr(t)
	metrics.FramesComposedTotal.Inc()
	metrics.StartServer(ctx, addr, zap.NewNop())

	var resp *http.Response
	var err error
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://" + addr + "/metrics")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), "mpowiggle_frames_composed_total"))
}
