package ntpal

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/beevik/ntp"
)

// ServerInfo describes a server's synchronization state as reported in one
// full NTP exchange.
type ServerInfo struct {
	Stratum      uint8         `json:"stratum"`
	ReferenceID  string        `json:"referenceId"`
	Leap         uint8         `json:"leap"`
	ClockOffset  time.Duration `json:"clockOffset"`
	RTT          time.Duration `json:"rtt"`
	RootDistance time.Duration `json:"rootDistance"`
	Time         time.Time     `json:"time"`

	// Problem is set when the response is unsuitable for synchronization
	// (kiss-of-death, unsynchronized leap, stratum out of range).
	Problem string `json:"problem,omitempty"`
}

// Inspect performs a complete NTPv4 exchange and reports the server's
// stratum, reference and clock offset. Failures use the same kinds as Query.
func Inspect(request QueryRequest) (*ServerInfo, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	response, err := ntp.QueryWithOptions(request.address(), ntp.QueryOptions{Timeout: request.Timeout})
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, request.fail(ErrTimeout, nil)
		}
		if errors.As(err, &netErr) {
			return nil, request.fail(ErrNetwork, err)
		}
		return nil, request.fail(ErrMalformedResponse, err)
	}

	serverInfo := &ServerInfo{
		Stratum:      response.Stratum,
		ReferenceID:  referenceIDString(response.Stratum, response.ReferenceID),
		Leap:         uint8(response.Leap),
		ClockOffset:  response.ClockOffset,
		RTT:          response.RTT,
		RootDistance: response.RootDistance,
		Time:         response.Time,
	}
	if err := response.Validate(); err != nil {
		serverInfo.Problem = err.Error()
	}

	return serverInfo, nil
}

// Stratum 0 and 1 servers carry a four character code; higher strata carry
// the upstream server's IPv4 address.
func referenceIDString(stratum uint8, refID uint32) string {
	b := []byte{byte(refID >> 24), byte(refID >> 16), byte(refID >> 8), byte(refID)}
	if stratum > 1 {
		return net.IP(b).String()
	}

	code := make([]byte, 0, len(b))
	for _, c := range b {
		if c == 0 {
			break
		}
		code = append(code, c)
	}
	return fmt.Sprintf("%q", code)
}
