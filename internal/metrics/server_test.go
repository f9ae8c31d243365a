package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerHandlerExposesMetrics(t *testing.T) {
	FramesTotal.WithLabelValues("decoded").Inc()

	s := NewServer("127.0.0.1:0", "")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "gsml3_pipeline_frames_total")
}

func TestCounterVecLabels(t *testing.T) {
	before := testutil.ToFloat64(DecodeErrorsTotal.WithLabelValues("frame_too_short"))
	DecodeErrorsTotal.WithLabelValues("frame_too_short").Inc()
	after := testutil.ToFloat64(DecodeErrorsTotal.WithLabelValues("frame_too_short"))
	assert.Equal(t, before+1, after)
}

func TestStopWithoutStart(t *testing.T) {
	s := NewServer(":0", "/custom")
	assert.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, "/custom", s.path)
}
