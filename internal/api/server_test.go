package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-value/pkg/config"
	"github.com/wonny/aegis-value/pkg/logger"
)

func serverConfig(tickTimeout time.Duration) *config.Config {
	return &config.Config{
		Port:     "0",
		Env:      "test",
		Strategy: config.StrategyConfig{TickTimeout: tickTimeout},
	}
}

func TestNew_TimeoutsFollowTickTimeout(t *testing.T) {
	s := New(serverConfig(2*time.Minute), logger.NewNop(), http.NotFoundHandler())
	assert.Equal(t, 2*time.Minute+writeGrace, s.httpServer.WriteTimeout)
	assert.Equal(t, 2*time.Minute+writeGrace, s.ShutdownTimeout())

	s = New(serverConfig(0), logger.NewNop(), http.NotFoundHandler())
	assert.Equal(t, defaultTickTimeout, s.tickTimeout)
}

func TestServer_SlowTickTimesOut(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
			w.WriteHeader(http.StatusOK)
		}
	})
	s := New(serverConfig(20*time.Millisecond), logger.NewNop(), slow)

	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/strategy/tick", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "tick timed out")
}

func TestServer_ShutdownLogs(t *testing.T) {
	var buf bytes.Buffer
	s := New(serverConfig(time.Minute), logger.NewWithWriter(&buf, "info", "test"), http.NotFoundHandler())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	out := buf.String()
	assert.Contains(t, out, "draining in-flight ticks")
	assert.Contains(t, out, "API server stopped")
	assert.Contains(t, out, `"wait":`)
}
