package ntpal

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultServer  = "pool.ntp.org"
	DefaultPort    = 123
	DefaultTimeout = 5000 * time.Millisecond
)

// MaxTimeoutMillis is the largest millisecond timeout a time.Duration can hold.
const MaxTimeoutMillis = math.MaxInt64 / int64(time.Millisecond)

// MillisTimeout converts a host's millisecond timeout to a Duration. Values
// that would overflow are rejected; the sign is left for Validate to check.
func MillisTimeout(millis int64) (time.Duration, error) {
	if millis > MaxTimeoutMillis || millis < -MaxTimeoutMillis {
		return 0, fmt.Errorf("timeout %dms out of range", millis)
	}
	return time.Duration(millis) * time.Millisecond, nil
}

// Config holds the defaults a host applies to requests that leave fields unset.
type Config struct {
	Server  string
	Port    int
	Timeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Server:  DefaultServer,
		Port:    DefaultPort,
		Timeout: DefaultTimeout,
	}
}

// ParseConfig reads an ntp.conf style file:
//
//	server <address>
//	port <1-65535>
//	timeout <milliseconds>
//
// Commands that are absent keep their DefaultConfig value.
func ParseConfig(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("file at %s could not be read for configuration: %w", path, err)
	}
	defer file.Close()

	return parseConfig(file)
}

func parseConfig(reader io.Reader) (Config, error) {
	config := DefaultConfig()

	scanner := bufio.NewScanner(reader)
	for line := 1; scanner.Scan(); line++ {
		arguments := strings.Fields(scanner.Text())
		if len(arguments) == 0 || strings.HasPrefix(arguments[0], "#") {
			continue
		}

		switch arguments[0] {
		case "server":
			if len(arguments) != 2 {
				return Config{}, configParseError(line, "server takes exactly one argument \"address\"")
			}
			config.Server = arguments[1]
		case "port":
			port, err := integerArgument(arguments, 1, 65535)
			if err != nil {
				return Config{}, configParseError(line, err)
			}
			config.Port = port
		case "timeout":
			millis, err := integerArgument(arguments, 1, 1<<31-1)
			if err != nil {
				return Config{}, configParseError(line, err)
			}
			config.Timeout = time.Duration(millis) * time.Millisecond
		default:
			return Config{}, configParseError(line, "invalid command: ", arguments[0])
		}
	}

	if err := scanner.Err(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func integerArgument(arguments []string, lower, upper int) (int, error) {
	if len(arguments) != 2 {
		return 0, fmt.Errorf("%s takes exactly one integer argument", arguments[0])
	}

	value, err := strconv.Atoi(arguments[1])
	if err != nil {
		return 0, fmt.Errorf("%s argument requires an integer value", arguments[0])
	}
	if value < lower || value > upper {
		return 0, fmt.Errorf("%s must be between %d and %d", arguments[0], lower, upper)
	}

	return value, nil
}

func configParseError(line int, args ...any) error {
	return fmt.Errorf("config parse error: line %d: %s", line, fmt.Sprint(args...))
}
