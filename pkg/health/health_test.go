package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func up(context.Context) error { return nil }

func down(msg string) Checker {
	return func(context.Context) error { return errors.New(msg) }
}

func probe(t *testing.T, h *Handler) (int, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp
}

func TestLivenessHandler_AlwaysReturns200(t *testing.T) {
	h := NewHandler()
	h.Register("stripe", down("unreachable"))
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return fixed }

	rec := httptest.NewRecorder()
	h.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"up","timestamp":"2026-03-01T10:00:00Z"}`, rec.Body.String())
}

func TestReadiness_AllHealthy(t *testing.T) {
	h := NewHandler()
	h.Register("stripe", up)
	h.RegisterNonCritical("tracing", up)

	code, resp := probe(t, h)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusUp, resp.Status)
	assert.Len(t, resp.Checks, 2)
}

func TestReadiness_NoCheckers(t *testing.T) {
	code, resp := probe(t, NewHandler())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusUp, resp.Status)
	assert.Empty(t, resp.Checks)
}

func TestReadiness_CriticalDown_Returns503(t *testing.T) {
	h := NewHandler()
	h.Register("stripe", down("invalid api key"))
	h.RegisterNonCritical("tracing", up)

	code, resp := probe(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, StatusDown, resp.Status)
	assert.Equal(t, "invalid api key", resp.Checks["stripe"].Error)
	assert.True(t, resp.Checks["stripe"].Critical)
}

func TestReadiness_NonCriticalDown_Degraded(t *testing.T) {
	h := NewHandler()
	h.Register("stripe", up)
	h.RegisterNonCritical("tracing", down("collector unreachable"))

	code, resp := probe(t, h)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.False(t, resp.Checks["tracing"].Critical)
}

func TestReadiness_CriticalWinsOverDegraded(t *testing.T) {
	h := NewHandler()
	h.RegisterNonCritical("a", down("x"))
	h.Register("b", down("y"))
	h.RegisterNonCritical("c", down("z"))

	code, resp := probe(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, StatusDown, resp.Status)
}

func TestRegister_Overwrites(t *testing.T) {
	h := NewHandler()
	h.Register("stripe", down("old"))
	h.Register("stripe", up)

	_, resp := probe(t, h)
	assert.Equal(t, StatusUp, resp.Checks["stripe"].Status)
}

func TestReadiness_TimeoutReachesChecker(t *testing.T) {
	h := NewHandler()
	h.SetTimeout(20 * time.Millisecond)
	h.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	code, resp := probe(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, context.DeadlineExceeded.Error(), resp.Checks["slow"].Error)
}
