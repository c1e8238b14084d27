package fpl

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ennish0079/fpl-dashboard/internal/platform/resilience"
	"github.com/ennish0079/fpl-dashboard/internal/usecase"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(ClientConfig{
		HTTPClient:     server.Client(),
		BaseURL:        server.URL,
		MaxRetries:     0,
		RequestsPerSec: 1000,
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: true},
	})
}

func TestClient_FetchBootstrap(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bootstrap-static/" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{
			"teams": [{"id": 1, "name": "Arsenal"}, {"id": 2, "name": "Man City"}],
			"element_types": [
				{"id": 3, "singular_name_short": "mid"},
				{"id": 4, "singular_name_short": "FWD"}
			],
			"elements": [
				{"id": 7, "web_name": "Saka", "team": 1, "element_type": 3,
				 "now_cost": 90, "total_points": 45, "selected_by_percent": "38.2"}
			]
		}`))
	}))

	bootstrap, err := client.FetchBootstrap(context.Background())
	require.NoError(t, err)
	require.Len(t, bootstrap.Teams, 2)
	require.Equal(t, []usecase.ExternalPositionType{{ID: 3, ShortName: "MID"}, {ID: 4, ShortName: "FWD"}}, bootstrap.Positions)
	require.Len(t, bootstrap.Players, 1)
	require.Equal(t, "Saka", bootstrap.Players[0].WebName)
	require.Equal(t, 90, bootstrap.Players[0].NowCost)
	require.Equal(t, "38.2", bootstrap.Players[0].SelectedByPercent)
}

func TestClient_FetchPlayerHistory(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/element-summary/7/" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{
			"history": [
				{"round": 1, "total_points": 8, "minutes": 90},
				{"round": 0, "total_points": 0, "minutes": 0},
				{"round": 2, "total_points": 2, "minutes": 60}
			]
		}`))
	}))

	entries, err := client.FetchPlayerHistory(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, 1, entries[0].Gameweek)
	require.Equal(t, 2, entries[1].Gameweek)
}

func TestClient_FetchPlayerHistory_RejectsInvalidID(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	_, err := client.FetchPlayerHistory(context.Background(), 0)
	require.ErrorIs(t, err, usecase.ErrInvalidInput)
}

func TestClient_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"teams": [], "elements": []}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		HTTPClient:     server.Client(),
		BaseURL:        server.URL,
		MaxRetries:     1,
		RequestsPerSec: 1000,
	})

	_, err := client.FetchBootstrap(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(2), calls.Load())
}

func TestClient_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		HTTPClient:     server.Client(),
		BaseURL:        server.URL,
		MaxRetries:     0,
		RequestsPerSec: 1000,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
		},
	})

	_, err := client.FetchBootstrap(context.Background())
	require.Error(t, err)
	require.False(t, errors.Is(err, usecase.ErrDependencyUnavailable))

	_, err = client.FetchBootstrap(context.Background())
	require.ErrorIs(t, err, usecase.ErrDependencyUnavailable)
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		HTTPClient:     server.Client(),
		BaseURL:        server.URL,
		MaxRetries:     3,
		RequestsPerSec: 1000,
	})

	_, err := client.FetchBootstrap(context.Background())
	require.Error(t, err)
	require.Equal(t, int32(1), calls.Load())
}
