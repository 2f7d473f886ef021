package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentHandler_UsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(InstrumentHandler)
	r.HandleFunc("/api/invitations/{code}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/invitations/{code}", "404"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/invitations/ABC234", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/invitations/{code}", "404"))
	assert.Equal(t, before+1, after)
}

func TestRecorders(t *testing.T) {
	RecordAICall("chat", 0, errors.New("boom"))
	RecordCacheLookup("summary", true)
	RecordEvent("session.created", nil)
	RecordJobRun("", true)

	assert.GreaterOrEqual(t, testutil.ToFloat64(aiCalls.WithLabelValues("chat", "error")), 1.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(jobRuns.WithLabelValues("unknown", "true")), 1.0)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "splithub_ai_calls_total"))
}
