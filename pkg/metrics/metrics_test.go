package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, r *Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := r.Gatherer().Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metricLoop:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metricLoop
				}
			}
			if m.GetCounter() != nil {
				return m.GetCounter().GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	return 0
}

func TestRecordAbort(t *testing.T) {
	r := New()
	r.RecordAbort("S2", "empty_candidate_set")
	r.RecordAbort("S2", "empty_candidate_set")

	assert.Equal(t, 2.0, counterValue(t, r, "aegis_value_cycle_aborts_total",
		map[string]string{"stage": "S2", "reason": "empty_candidate_set"}))
	assert.Equal(t, 2.0, counterValue(t, r, "aegis_value_cycles_total",
		map[string]string{"result": "aborted"}))
}

func TestRecordScreen(t *testing.T) {
	r := New()
	r.RecordScreen("current_ratio", 12, map[string]int{"degenerate": 3})

	assert.Equal(t, 12.0, counterValue(t, r, "aegis_value_screen_passed",
		map[string]string{"screen": "current_ratio"}))
	assert.Equal(t, 3.0, counterValue(t, r, "aegis_value_screen_excluded_total",
		map[string]string{"screen": "current_ratio", "reason": "degenerate"}))
}

func TestNilRegistrySafe(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.RecordCycle("rebalanced")
		r.RecordAbort("S5", "empty_target")
		r.ObserveStage("S3", time.Now())
		r.RecordScreen("x", 1, nil)
	})
}

func TestHandler(t *testing.T) {
	r := New()
	r.RecordCycle("skipped")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(body), `aegis_value_cycles_total{result="skipped"} 1`)
}

func TestNew_Independent(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}
