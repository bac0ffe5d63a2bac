// Package ntptest provides loopback NTP servers for tests.
package ntptest

import (
	"errors"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AndrewLester/ntpquery/internal/ntp"
	"golang.org/x/net/nettest"
)

type Behavior int

const (
	Reply     Behavior = iota // answer every request in server mode
	Silent                    // read requests, never answer
	Truncated                 // answer with a packet shorter than 48 bytes
)

type Server struct {
	// Transmit is the time placed in the reply's Transmit Timestamp.
	// The zero value means the server's current clock.
	Transmit time.Time
	Behavior Behavior
	Delay    time.Duration

	conn     net.PacketConn
	requests atomic.Int32
	wg       sync.WaitGroup
}

func NewServer(transmit time.Time, behavior Behavior) (*Server, error) {
	s, err := NewUnstartedServer(transmit, behavior)
	if err != nil {
		return nil, err
	}
	s.Start()
	return s, nil
}

// NewUnstartedServer binds a loopback port without serving it, so fields
// such as Delay can be set before Start.
func NewUnstartedServer(transmit time.Time, behavior Behavior) (*Server, error) {
	conn, err := nettest.NewLocalPacketListener("udp")
	if err != nil {
		return nil, err
	}
	return &Server{Transmit: transmit, Behavior: behavior, conn: conn}, nil
}

func (s *Server) Start() {
	s.wg.Add(1)
	go s.serve()
}

func (s *Server) Host() string {
	return s.conn.LocalAddr().(*net.UDPAddr).IP.String()
}

func (s *Server) Port() int {
	return s.conn.LocalAddr().(*net.UDPAddr).Port
}

func (s *Server) Addr() string {
	return net.JoinHostPort(s.Host(), strconv.Itoa(s.Port()))
}

func (s *Server) Requests() int {
	return int(s.requests.Load())
}

func (s *Server) Close() error {
	err := s.conn.Close()
	s.wg.Wait()
	return err
}

func (s *Server) serve() {
	defer s.wg.Done()

	packet := make([]byte, ntp.MTU)
	for {
		n, addr, err := s.conn.ReadFrom(packet)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}
		s.requests.Add(1)

		request, err := ntp.DecodeHeader(packet[:n])
		if err != nil {
			continue
		}
		received := time.Now()

		if s.Delay > 0 {
			time.Sleep(s.Delay)
		}

		switch s.Behavior {
		case Silent:
			continue
		case Truncated:
			s.conn.WriteTo(s.reply(request, received)[:ntp.TransmitTimestampOffset], addr)
		default:
			s.conn.WriteTo(s.reply(request, received), addr)
		}
	}
}

func (s *Server) reply(request *ntp.Header, received time.Time) []byte {
	transmit := s.Transmit
	if transmit.IsZero() {
		transmit = time.Now()
	}

	return ntp.EncodeHeader(ntp.Header{
		Version: request.Version,
		Mode:    ntp.SERVER,
		NtpFieldsEncoded: ntp.NtpFieldsEncoded{
			Stratum:   2,
			Poll:      6,
			Precision: -20,
			Rootdelay: 1 << 14, // 250ms
			Rootdisp:  1 << 13, // 125ms
			Refid:     0x7f000001,
			Reftime:   ntp.TimeToNTPTimestampEncoded(transmit.Add(-time.Minute)),
			Org:       request.Xmt,
			Rec:       ntp.TimeToNTPTimestampEncoded(received),
			Xmt:       ntp.TimeToNTPTimestampEncoded(transmit),
		},
	})
}
