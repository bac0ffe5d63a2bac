package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/AndrewLester/ntpquery/internal/ntptest"
	"github.com/AndrewLester/ntpquery/internal/stats"
	"github.com/AndrewLester/ntpquery/pkg/ntpal"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, behavior ntptest.Behavior) (http.Handler, *ntptest.Server) {
	t.Helper()
	server, err := ntptest.NewServer(time.Date(2019, 1, 1, 0, 56, 4, 0, time.UTC), behavior)
	require.NoError(t, err)
	t.Cleanup(func() { server.Close() })

	registry := prometheus.NewRegistry()
	recorder := stats.NewRecorder(registry)
	client := ntpal.NewClient(ntpal.Config{Server: server.Host(), Port: server.Port(), Timeout: 100 * time.Millisecond})
	client.Status = recorder.Status

	return newReportHandler(client, recorder, registry), server
}

func get(handler http.Handler, target string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, target, nil))
	return recorder
}

func TestQueryHandler(t *testing.T) {
	handler, server := newTestHandler(t, ntptest.Reply)

	response := get(handler, "/query")
	require.Equal(t, http.StatusOK, response.Code)
	assert.Equal(t, "application/json", response.Header().Get("Content-Type"))

	var result ntpal.QueryResult
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &result))
	assert.Equal(t, "2019-01-01T00:56:04.000Z", result.ISO8601)
	assert.Equal(t, int64(1546304164), result.UnixSeconds)
	assert.Equal(t, server.Host(), result.Server)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &fields))
	for _, field := range []string{"timestampMillis", "calendarString", "iso8601", "unixSeconds", "server", "roundTripDelayMillis"} {
		assert.Contains(t, fields, field)
	}
}

func TestQueryHandlerOverrides(t *testing.T) {
	handler, _ := newTestHandler(t, ntptest.Silent)
	other, err := ntptest.NewServer(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), ntptest.Reply)
	require.NoError(t, err)
	defer other.Close()

	response := get(handler, "/query?server="+other.Host()+"&port="+strconv.Itoa(other.Port())+"&timeout=500")
	require.Equal(t, http.StatusOK, response.Code)

	var result ntpal.QueryResult
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &result))
	assert.Equal(t, "2030-01-01T00:00:00.000Z", result.ISO8601)
}

func TestQueryHandlerErrors(t *testing.T) {
	handler, _ := newTestHandler(t, ntptest.Silent)

	tests := map[string]int{
		"/query":                                  http.StatusGatewayTimeout,
		"/query?port=abc":                         http.StatusBadRequest,
		"/query?port=70000":                       http.StatusBadRequest,
		"/query?timeout=-1":                       http.StatusBadRequest,
		"/query?timeout=1.5":                      http.StatusBadRequest,
		"/query?timeout=9223372036854775807":      http.StatusBadRequest,
		"/query?timeout=99999999999999999999":     http.StatusBadRequest,
		"/query?server=host.invalid&timeout=5000": http.StatusBadGateway,
	}

	for target, code := range tests {
		response := get(handler, target)
		assert.Equal(t, code, response.Code, target)

		var body errorResponse
		require.NoError(t, json.Unmarshal(response.Body.Bytes(), &body), target)
		assert.NotEmpty(t, body.Error, target)
	}
}

func TestQueryHandlerExplicitZero(t *testing.T) {
	handler, server := newTestHandler(t, ntptest.Reply)

	for _, target := range []string{"/query?port=0", "/query?timeout=0"} {
		response := get(handler, target)
		assert.Equal(t, http.StatusBadRequest, response.Code, target)
	}
	assert.Equal(t, 0, server.Requests())

	// Empty form fields leave the defaults in place.
	response := get(handler, "/query?server=&port=&timeout=")
	assert.Equal(t, http.StatusOK, response.Code)
	assert.Equal(t, 1, server.Requests())
}

func TestIndexAndMetrics(t *testing.T) {
	handler, server := newTestHandler(t, ntptest.Reply)

	response := get(handler, "/")
	require.Equal(t, http.StatusOK, response.Code)
	assert.Contains(t, response.Body.String(), server.Host())

	assert.Equal(t, http.StatusNotFound, get(handler, "/missing").Code)

	get(handler, "/query")
	response = get(handler, "/metrics")
	require.Equal(t, http.StatusOK, response.Code)
	assert.Contains(t, response.Body.String(), `ntp_query_total{outcome="success"} 1`)
	assert.Contains(t, response.Body.String(), "ntp_query_in_flight 0")
}
