package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	assert.Equal(t, "success", Status(nil))
	assert.Equal(t, "error", Status(errors.New("boom")))
}

func TestStepsClassified_Increments(t *testing.T) {
	before := testutil.ToFloat64(StepsClassified.WithLabelValues("critical"))
	StepsClassified.WithLabelValues("critical").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(StepsClassified.WithLabelValues("critical")))
}

func TestHandler_ServesCollectors(t *testing.T) {
	ChunksIndexed.Add(2)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "syfhack_retrieval_chunks_indexed_total")
}
