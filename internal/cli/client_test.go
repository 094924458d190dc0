package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logtap/logtap/internal/api"
)

func TestLogParamsValues(t *testing.T) {
	params := LogParams{
		Levels: []string{"error", "critical"},
		Query:  "timeout",
		Source: "db",
		Last:   "5m",
		Limit:  50,
	}
	values := params.values()
	assert.Equal(t, "error,critical", values.Get("levels"))
	assert.Equal(t, "timeout", values.Get("q"))
	assert.Equal(t, "db", values.Get("source"))
	assert.Equal(t, "5m", values.Get("last"))
	assert.Equal(t, "50", values.Get("limit"))

	assert.Empty(t, LogParams{}.values())
}

func TestClientGetStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/status", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.StatusResponse{
			Status:        "running",
			Subscriptions: 2,
			APIVersion:    "v1",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	status, err := client.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "running", status.Status)
	assert.Equal(t, 2, status.Subscriptions)
}

func TestClientDecodesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{
			Error: "subscription not found: nope",
			Code:  "SUBSCRIPTION_NOT_FOUND",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.GetSubscription("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUBSCRIPTION_NOT_FOUND")
	assert.Contains(t, err.Error(), "subscription not found")
}

func TestClientOpaqueErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.GetStatus()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestClientTrimsTrailingSlash(t *testing.T) {
	client := NewClient("http://127.0.0.1:5660/")
	assert.Equal(t, "http://127.0.0.1:5660", client.baseURL)
}
