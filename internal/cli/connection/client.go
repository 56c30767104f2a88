package connection

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"time"

	"github.com/yndnr/dirmesh-go/internal/core/domain"
	"github.com/yndnr/dirmesh-go/internal/protocol"
)

// DefaultTimeout bounds dialing and the whole exchange of one request.
const DefaultTimeout = 10 * time.Second

// Client sends directory requests to one server.
type Client struct {
	addr    string
	timeout time.Duration
	codes   protocol.Codes
	dialer  *net.Dialer
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithCodes sets the status code table the server uses.
func WithCodes(codes protocol.Codes) Option {
	return func(c *Client) {
		c.codes = codes
	}
}

// NewClient creates a client for the server at addr (host:port).
func NewClient(addr string, opts ...Option) *Client {
	c := &Client{
		addr:    addr,
		timeout: DefaultTimeout,
		codes:   protocol.Normalized,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.dialer = &net.Dialer{Timeout: c.timeout}
	return c
}

// Addr returns the server address.
func (c *Client) Addr() string {
	return c.addr
}

// Do performs one request. A non-OK status is reported in the response,
// not as an error; errors mean the exchange itself failed.
func (c *Client) Do(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	conn, err := c.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return protocol.Response{}, fmt.Errorf("dial %s: %w", c.addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return protocol.Response{}, err
		}
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	bw := bufio.NewWriter(conn)
	if err := protocol.WriteRequest(bw, req); err != nil {
		return protocol.Response{}, fmt.Errorf("write %s request: %w", req.Op, err)
	}
	if err := bw.Flush(); err != nil {
		return protocol.Response{}, fmt.Errorf("write %s request: %w", req.Op, err)
	}

	resp, err := protocol.ReadResponse(bufio.NewReader(conn), req.Op, c.codes)
	if err != nil {
		return resp, fmt.Errorf("read %s response: %w", req.Op, err)
	}
	return resp, nil
}

// Register registers id.
func (c *Client) Register(ctx context.Context, id string) (protocol.Response, error) {
	return c.Do(ctx, protocol.Request{Op: domain.OpRegister, Identity: id})
}

// Unregister removes id.
func (c *Client) Unregister(ctx context.Context, id string) (protocol.Response, error) {
	return c.Do(ctx, protocol.Request{Op: domain.OpUnregister, Identity: id})
}

// Connect opens a session for id advertising port. The server records the
// address it sees the request come from.
func (c *Client) Connect(ctx context.Context, id, port string) (protocol.Response, error) {
	return c.Do(ctx, protocol.Request{Op: domain.OpConnect, Identity: id, Port: port})
}

// Disconnect closes the session of id.
func (c *Client) Disconnect(ctx context.Context, id string) (protocol.Response, error) {
	return c.Do(ctx, protocol.Request{Op: domain.OpDisconnect, Identity: id})
}

// Publish adds an entry to the catalog of id.
func (c *Client) Publish(ctx context.Context, id, name, description string) (protocol.Response, error) {
	return c.Do(ctx, protocol.Request{Op: domain.OpPublish, Identity: id, Name: name, Description: description})
}

// Delete removes an entry from the catalog of id.
func (c *Client) Delete(ctx context.Context, id, name string) (protocol.Response, error) {
	return c.Do(ctx, protocol.Request{Op: domain.OpDelete, Identity: id, Name: name})
}

// ListUsers lists the active sessions as seen by id.
func (c *Client) ListUsers(ctx context.Context, id string) (protocol.Response, error) {
	return c.Do(ctx, protocol.Request{Op: domain.OpListUsers, Identity: id})
}

// ListContent lists the catalog of target as seen by id.
func (c *Client) ListContent(ctx context.Context, id, target string) (protocol.Response, error) {
	return c.Do(ctx, protocol.Request{Op: domain.OpListContent, Identity: id, Target: target})
}
