package outbox

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

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

type pendingFunc func(ctx context.Context) (int, error)

func (f pendingFunc) PendingCount(ctx context.Context) (int, error) { return f(ctx) }

func okPing(context.Context) error { return nil }

func TestHealthChecker(t *testing.T) {
	tests := []struct {
		name        string
		ping        pingFunc
		pending     int
		stats       Stats
		wantHealthy bool
		wantErrors  int
	}{
		{
			name:        "idle relay",
			ping:        okPing,
			wantHealthy: true,
		},
		{
			name:        "recent progress",
			ping:        okPing,
			pending:     4,
			stats:       Stats{Published: 10, LastPublished: time.Now()},
			wantHealthy: true,
		},
		{
			name:        "pending rows with stale progress",
			ping:        okPing,
			pending:     4,
			stats:       Stats{Published: 10, LastPublished: time.Now().Add(-time.Hour)},
			wantHealthy: false,
			wantErrors:  1,
		},
		{
			name:        "database down",
			ping:        func(context.Context) error { return errors.New("connection refused") },
			wantHealthy: false,
			wantErrors:  1,
		},
		{
			name:        "large backlog is reported but not fatal",
			ping:        okPing,
			pending:     5000,
			wantHealthy: true,
			wantErrors:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := tt.stats
			h := NewHealthChecker(tt.ping, pendingFunc(func(context.Context) (int, error) { return tt.pending, nil }),
				nil, func() Stats { return stats }, DefaultUnhealthyLag)

			status := h.Check(context.Background())
			assert.Equal(t, tt.wantHealthy, status.Healthy)
			assert.Len(t, status.Errors, tt.wantErrors)
			assert.Equal(t, stats.Published, status.EventsPublished)
		})
	}
}

func TestHealthChecker_ServeHTTP(t *testing.T) {
	down := NewHealthChecker(pingFunc(func(context.Context) error { return errors.New("down") }),
		pendingFunc(func(context.Context) (int, error) { return 0, nil }), nil, nil, DefaultUnhealthyLag)

	rec := httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.DatabaseConnected)

	up := NewHealthChecker(pingFunc(okPing), pendingFunc(func(context.Context) (int, error) { return 0, nil }), nil, nil, DefaultUnhealthyLag)
	rec = httptest.NewRecorder()
	up.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
