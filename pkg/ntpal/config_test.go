package ntpal

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ntpal.conf")
	contents := "# local server\nserver time.example.com\n\nport 1123\ntimeout 250\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	config, err := ParseConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Config{Server: "time.example.com", Port: 1123, Timeout: 250 * time.Millisecond}, config)
}

func TestParseConfigDefaults(t *testing.T) {
	config, err := parseConfig(strings.NewReader("server 10.0.0.1\n"))
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", config.Server)
	assert.Equal(t, DefaultPort, config.Port)
	assert.Equal(t, DefaultTimeout, config.Timeout)

	config, err = parseConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)
}

func TestParseConfigErrors(t *testing.T) {
	tests := map[string]string{
		"server":               "server takes exactly one argument",
		"server a b":           "server takes exactly one argument",
		"port":                 "port takes exactly one integer argument",
		"port abc":             "port argument requires an integer value",
		"port 0":               "port must be between 1 and 65535",
		"port 70000":           "port must be between 1 and 65535",
		"timeout -5":           "timeout must be between",
		"driftfile /etc/drift": "invalid command: driftfile",
	}

	for input, want := range tests {
		_, err := parseConfig(strings.NewReader("# header\n" + input + "\n"))
		require.Error(t, err, input)
		assert.Contains(t, err.Error(), "config parse error: line 2: ")
		assert.Contains(t, err.Error(), want)
	}
}

func TestParseConfigMissingFile(t *testing.T) {
	_, err := ParseConfig(filepath.Join(t.TempDir(), "missing.conf"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func ptr[T any](v T) *T {
	return &v
}

func TestOverridesApply(t *testing.T) {
	defaults := DefaultConfig()

	assert.Equal(t, QueryRequest{Server: DefaultServer, Port: 123, Timeout: 5 * time.Second}, Overrides{}.Apply(defaults))

	overrides := Overrides{Server: "time.example.com", Port: ptr(1123), Timeout: ptr(time.Second)}
	assert.Equal(t, QueryRequest{Server: "time.example.com", Port: 1123, Timeout: time.Second}, overrides.Apply(defaults))

	partial := Overrides{Server: "time.example.com"}.Apply(defaults)
	assert.Equal(t, QueryRequest{Server: "time.example.com", Port: 123, Timeout: 5 * time.Second}, partial)

	// Explicit zero and negative values are caller errors, not "unset".
	for _, overrides := range []Overrides{
		{Port: ptr(0)},
		{Timeout: ptr(time.Duration(0))},
		{Port: ptr(-1)},
		{Timeout: ptr(-time.Second)},
	} {
		assert.ErrorIs(t, overrides.Apply(defaults).Validate(), ErrInvalidArgument)
	}
}

func TestMillisTimeout(t *testing.T) {
	timeout, err := MillisTimeout(1500)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, timeout)

	timeout, err = MillisTimeout(MaxTimeoutMillis)
	require.NoError(t, err)
	assert.Positive(t, timeout)

	_, err = MillisTimeout(MaxTimeoutMillis + 1)
	assert.Error(t, err)
	_, err = MillisTimeout(math.MaxInt64)
	assert.Error(t, err)
}
