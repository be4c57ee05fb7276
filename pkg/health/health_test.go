package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func probe(h http.HandlerFunc) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec
}

func TestReadyEndpoint_NotReadyByDefault(t *testing.T) {
	h := New()

	rec := probe(h.ReadyEndpoint)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "service is not ready")
}

func TestReadyEndpoint_ReadyWithPassingChecks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New()
	h.AddReadinessCheck("db", time.Second, func(context.Context) error { return nil })
	h.Start(ctx, 10*time.Millisecond)
	defer h.Stop()
	h.SetReady(true)

	waitFor(t, func() bool {
		return probe(h.ReadyEndpoint).Code == http.StatusOK
	})
}

func TestReadyEndpoint_FailingCheck(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New()
	h.AddReadinessCheck("db", time.Second, func(context.Context) error {
		return errors.New("connection refused")
	})
	h.Start(ctx, 10*time.Millisecond)
	defer h.Stop()
	h.SetReady(true)

	waitFor(t, func() bool {
		rec := probe(h.ReadyEndpoint)
		return rec.Code == http.StatusServiceUnavailable
	})

	rec := probe(h.ReadyEndpoint)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestLiveEndpoint_NoChecks(t *testing.T) {
	h := New()

	rec := probe(h.LiveEndpoint)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}
