package ntpal

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/AndrewLester/ntpquery/internal/ntptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusRecorder struct {
	mu       sync.Mutex
	statuses []Status
	requests []QueryRequest
}

func (r *statusRecorder) record(status Status, request QueryRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
	r.requests = append(r.requests, request)
}

func TestClientQuery(t *testing.T) {
	server := newServer(t, time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC), ntptest.Reply)

	client := NewClient(Config{Server: server.Host(), Port: server.Port(), Timeout: time.Second})
	recorder := &statusRecorder{}
	client.Status = recorder.record

	result, err := client.Query(context.Background(), Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "2022-05-01T00:00:00.000Z", result.ISO8601)
	assert.Equal(t, server.Host(), result.Server)

	assert.Equal(t, []Status{StatusQuerying, StatusSuccess}, recorder.statuses)
	assert.Equal(t, server.Port(), recorder.requests[0].Port)
}

func TestClientQueryOverridesDefaults(t *testing.T) {
	configured := newServer(t, time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC), ntptest.Reply)
	override := newServer(t, time.Date(2002, 1, 1, 0, 0, 0, 0, time.UTC), ntptest.Reply)

	client := NewClient(Config{Server: configured.Host(), Port: configured.Port(), Timeout: time.Second})

	result, err := client.Query(context.Background(), Overrides{Port: ptr(override.Port())})
	require.NoError(t, err)
	assert.Equal(t, "2002-01-01T00:00:00.000Z", result.ISO8601)
	assert.Equal(t, 0, configured.Requests())
	assert.Equal(t, 1, override.Requests())
}

func TestClientQueryError(t *testing.T) {
	server := newServer(t, time.Time{}, ntptest.Silent)

	client := NewClient(Config{Server: server.Host(), Port: server.Port(), Timeout: 50 * time.Millisecond})
	recorder := &statusRecorder{}
	client.Status = recorder.record

	result, err := client.Query(context.Background(), Overrides{})
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, []Status{StatusQuerying, StatusError}, recorder.statuses)
}

func TestClientQueryWithoutStatus(t *testing.T) {
	client := NewClient(DefaultConfig())
	_, err := client.Query(context.Background(), Overrides{Port: ptr(-1)})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestClientQueryExplicitZeroOverrides(t *testing.T) {
	server := newServer(t, time.Time{}, ntptest.Reply)
	client := NewClient(Config{Server: server.Host(), Port: server.Port(), Timeout: time.Second})

	for _, overrides := range []Overrides{
		{Port: ptr(0)},
		{Timeout: ptr(time.Duration(0))},
	} {
		result, err := client.Query(context.Background(), overrides)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
	assert.Equal(t, 0, server.Requests())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "querying", StatusQuerying.String())
	assert.Equal(t, "success", StatusSuccess.String())
	assert.Equal(t, "error", StatusError.String())
	assert.Equal(t, "unknown", Status(42).String())
}

func TestGetSystemTime(t *testing.T) {
	assert.WithinDuration(t, time.Now(), GetSystemTime(), time.Second)
}
