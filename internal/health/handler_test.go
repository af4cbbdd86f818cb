// AngelaMos | 2026
// handler_test.go

package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northstarhq/northstar/internal/health"
)

func ok(context.Context) error   { return nil }
func down(context.Context) error { return errors.New("connection refused") }

func TestLiveness(t *testing.T) {
	h := health.NewHandler("1.2.3")

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp health.StatusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestLivenessDuringShutdown(t *testing.T) {
	h := health.NewHandler("1.2.3")
	h.SetShutdown(true)

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReadinessAllHealthy(t *testing.T) {
	h := health.NewHandler("1.2.3",
		health.Check{Name: "database", Checker: health.CheckerFunc(ok)},
		health.Check{Name: "redis", Checker: health.CheckerFunc(ok)},
	)

	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp health.ReadinessResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Checks, 2)
	assert.True(t, resp.Checks[0].Healthy)
	assert.True(t, resp.Checks[1].Healthy)
}

func TestReadinessDegradedWhenOneCheckFails(t *testing.T) {
	h := health.NewHandler("1.2.3",
		health.Check{Name: "database", Checker: health.CheckerFunc(ok)},
		health.Check{Name: "redis", Checker: health.CheckerFunc(down)},
	)

	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp health.ReadinessResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.True(t, resp.Checks[0].Healthy)
	assert.False(t, resp.Checks[1].Healthy)
	assert.Equal(t, "redis", resp.Checks[1].Name)
}

func TestReadinessNotReady(t *testing.T) {
	h := health.NewHandler("1.2.3")
	h.SetReady(false)

	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp health.StatusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "not_ready", resp.Status)
}

func TestReadinessMissingChecker(t *testing.T) {
	h := health.NewHandler("1.2.3", health.Check{Name: "database"})

	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp health.ReadinessResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Checks[0].Healthy)
	assert.Equal(t, "checker not configured", resp.Checks[0].Message)
}
