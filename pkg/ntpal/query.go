package ntpal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/AndrewLester/ntpquery/internal/ntp"
)

// QueryRequest is a fully specified query. Every field must be set; use
// Overrides to fill unset values from a Config.
type QueryRequest struct {
	Server  string        `json:"server"`
	Port    int           `json:"port"`
	Timeout time.Duration `json:"timeout"`
}

// QueryResult is the decoded reply to a successful query.
type QueryResult struct {
	TimestampMillis      float64    `json:"timestampMillis"`
	CalendarString       string     `json:"calendarString"`
	ISO8601              string     `json:"iso8601"`
	UnixSeconds          int64      `json:"unixSeconds"`
	Server               string     `json:"server"`
	Port                 int        `json:"port"`
	RoundTripDelayMillis int64      `json:"roundTripDelayMillis"`
	Header               ntp.Header `json:"header"`

	Sent     time.Time `json:"sent"`     // t1
	Received time.Time `json:"received"` // t4
}

// Overrides are per-call values that take precedence over a Config. An empty
// Server and nil Port or Timeout are unset; a set zero is kept and fails
// validation.
type Overrides struct {
	Server  string         `json:"server,omitempty"`
	Port    *int           `json:"port,omitempty"`
	Timeout *time.Duration `json:"timeout,omitempty"`
}

// Apply returns the request with every unset field taken from defaults.
func (overrides Overrides) Apply(defaults Config) QueryRequest {
	request := QueryRequest{Server: overrides.Server, Port: defaults.Port, Timeout: defaults.Timeout}
	if request.Server == "" {
		request.Server = defaults.Server
	}
	if overrides.Port != nil {
		request.Port = *overrides.Port
	}
	if overrides.Timeout != nil {
		request.Timeout = *overrides.Timeout
	}
	return request
}

func (request QueryRequest) Validate() error {
	switch {
	case request.Server == "":
		return request.fail(ErrInvalidArgument, errors.New("server must not be empty"))
	case request.Port < 1 || request.Port > 65535:
		return request.fail(ErrInvalidArgument, fmt.Errorf("port %d outside [1, 65535]", request.Port))
	case request.Timeout <= 0:
		return request.fail(ErrInvalidArgument, fmt.Errorf("timeout %v must be positive", request.Timeout))
	}
	return nil
}

func (request QueryRequest) address() string {
	return net.JoinHostPort(request.Server, strconv.Itoa(request.Port))
}

// resolver looks up server names. Replaced in tests.
var resolver = net.DefaultResolver

type datagram struct {
	payload  []byte
	received time.Time
	err      error
}

// Query sends one client-mode packet and waits for one reply, the request's
// timeout, or ctx, whichever comes first. The timeout also bounds name
// resolution. It never retries. The socket is closed before Query returns on
// every path.
func Query(ctx context.Context, request QueryRequest) (*QueryResult, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, request.Timeout)
	defer cancel()

	// A connected socket only accepts datagrams from the server.
	dialer := net.Dialer{Resolver: resolver}
	conn, err := dialer.DialContext(queryCtx, "udp", request.address())
	if err != nil {
		return nil, request.abort(ctx, queryCtx, err)
	}
	defer conn.Close()

	debug("Querying", conn.RemoteAddr(), "from", conn.LocalAddr())

	sent := time.Now()
	if _, err := conn.Write(ntp.EncodeClientRequest()); err != nil {
		return nil, request.fail(ErrNetwork, err)
	}

	// Buffered so the reader never blocks once the select below has moved on.
	replies := make(chan datagram, 1)
	go func() {
		packet := make([]byte, ntp.MTU)
		n, err := conn.Read(packet)
		replies <- datagram{payload: packet[:n], received: time.Now(), err: err}
	}()

	select {
	case reply := <-replies:
		if reply.err != nil {
			return nil, request.fail(ErrNetwork, reply.err)
		}
		return decodeReply(request, reply, sent)
	case <-queryCtx.Done():
		return nil, request.abort(ctx, queryCtx, nil)
	}
}

// abort classifies a failure that may have been caused by queryCtx ending.
// Expiry of the request's own timeout is ErrTimeout; the caller's ctx ending
// is ErrNetwork wrapping ctx.Err().
func (request QueryRequest) abort(ctx, queryCtx context.Context, err error) *QueryError {
	switch {
	case ctx.Err() != nil:
		return request.fail(ErrNetwork, ctx.Err())
	case queryCtx.Err() != nil:
		info("No reply from", request.address(), "within", request.Timeout)
		return request.fail(ErrTimeout, nil)
	default:
		return request.fail(ErrNetwork, err)
	}
}

func decodeReply(request QueryRequest, reply datagram, sent time.Time) (*QueryResult, error) {
	header, err := ntp.DecodeHeader(reply.payload)
	if err != nil {
		return nil, request.fail(ErrMalformedResponse, err)
	}
	bundle, err := ntp.DecodeTransmitTimestamp(reply.payload)
	if err != nil {
		return nil, request.fail(ErrMalformedResponse, err)
	}

	delay := reply.received.Sub(sent)
	debug("Reply from", request.address(), "transmit:", bundle.ISO8601, "delay:", delay)

	return &QueryResult{
		TimestampMillis:      bundle.TimestampMillis,
		CalendarString:       bundle.CalendarString,
		ISO8601:              bundle.ISO8601,
		UnixSeconds:          bundle.UnixSeconds,
		Server:               request.Server,
		Port:                 request.Port,
		RoundTripDelayMillis: delay.Milliseconds(),
		Header:               *header,
		Sent:                 sent,
		Received:             reply.received,
	}, nil
}

// Time is the server's Transmit Timestamp.
func (result *QueryResult) Time() time.Time {
	return ntp.MillisToTime(result.TimestampMillis)
}

// RootDelay is the server's round-trip delay to its reference clock.
func (result *QueryResult) RootDelay() time.Duration {
	return ntp.NTPShortToDuration(result.Header.Rootdelay)
}

// RootDispersion is the server's error bound relative to its reference clock.
func (result *QueryResult) RootDispersion() time.Duration {
	return ntp.NTPShortToDuration(result.Header.Rootdisp)
}

// ReferenceTime is when the server's clock was last set or corrected.
func (result *QueryResult) ReferenceTime() time.Time {
	return ntp.NTPTimestampToTime(result.Header.Reftime)
}

// LocalOffset is how far the server's transmit time is ahead of local, ignoring path delay.
func (result *QueryResult) LocalOffset(local time.Time) time.Duration {
	return result.Time().Sub(local)
}
