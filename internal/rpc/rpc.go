package rpc

import (
	"context"
	"errors"
	"log"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"github.com/AndrewLester/ntpquery/pkg/ntpal"
)

const MaxRecent = 32

// Record is one query the daemon ran on behalf of a client.
type Record struct {
	Request ntpal.QueryRequest
	Result  *ntpal.QueryResult
	Error   string
	At      time.Time
}

// QueryService is registered with net/rpc under the name "QueryService".
type QueryService struct {
	Client *ntpal.Client

	lock   sync.Mutex
	recent []Record
}

func NewQueryService(client *ntpal.Client) *QueryService {
	return &QueryService{Client: client}
}

// Query runs args against the daemon's configured defaults; fields set in
// args take precedence.
func (s *QueryService) Query(args ntpal.Overrides, reply *ntpal.QueryResult) error {
	result, err := s.Client.Query(context.Background(), args)

	record := Record{Request: args.Apply(s.Client.Config), Result: result, At: time.Now()}
	if err != nil {
		record.Error = err.Error()
	}
	s.remember(record)

	if err != nil {
		return err
	}
	*reply = *result
	return nil
}

// Recent replies with up to args of the most recent records, newest first.
// A non-positive args returns every retained record.
func (s *QueryService) Recent(args int, reply *[]Record) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	n := len(s.recent)
	if args > 0 && args < n {
		n = args
	}

	records := make([]Record, 0, n)
	for i := len(s.recent) - 1; i >= len(s.recent)-n; i-- {
		records = append(records, s.recent[i])
	}
	*reply = records
	return nil
}

func (s *QueryService) remember(record Record) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.recent = append(s.recent, record)
	if len(s.recent) > MaxRecent {
		s.recent = s.recent[len(s.recent)-MaxRecent:]
	}
}

// Listen serves service on a unix socket until the listener fails.
func Listen(socket string, service *QueryService) error {
	err := os.Remove(socket)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	l, err := net.Listen("unix", socket)
	if err != nil {
		return err
	}
	defer l.Close()

	log.Println("RPC listening on", socket)
	return Serve(l, service)
}

// Serve speaks JSON-RPC so overrides set to zero arrive as set; gob would
// drop them.
func Serve(l net.Listener, service *QueryService) error {
	server := rpc.NewServer()
	if err := server.Register(service); err != nil {
		return err
	}

	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go server.ServeCodec(jsonrpc.NewServerCodec(conn))
	}
}
