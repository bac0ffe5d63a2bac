// Package ntpal queries NTP servers with a single client-mode packet and
// reports the server's transmit time and the round-trip delay.
package ntpal

import (
	"context"
)

// Status is a stage in a query's lifecycle as reported to a StatusFunc.
type Status int

const (
	StatusQuerying Status = iota
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusQuerying:
		return "querying"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// StatusFunc observes a query's lifecycle. It is called synchronously from
// Client.Query and must not block for long.
type StatusFunc func(status Status, request QueryRequest)

// Client applies configured defaults to each request before querying.
// A Client holds no per-query state and may be used concurrently.
type Client struct {
	Config Config
	Status StatusFunc
}

func NewClient(config Config) *Client {
	return &Client{Config: config}
}

// Query applies overrides to the client's defaults, giving overrides
// precedence, and runs a single query.
func (c *Client) Query(ctx context.Context, overrides Overrides) (*QueryResult, error) {
	request := overrides.Apply(c.Config)

	c.report(StatusQuerying, request)
	result, err := Query(ctx, request)
	if err != nil {
		info("Query failed:", err)
		c.report(StatusError, request)
		return nil, err
	}

	c.report(StatusSuccess, request)
	return result, nil
}

func (c *Client) report(status Status, request QueryRequest) {
	if c.Status != nil {
		c.Status(status, request)
	}
}
