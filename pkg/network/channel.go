package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/nspcc-dev/neond/pkg/wire"
)

// Channel is a per-peer duplex message endpoint over a TCP stream. Its
// read half has exactly one owner, the per-peer reader; its write half
// is safe for concurrent callers and is what the connection table hands
// out to anything that needs to reply to this peer.
type Channel struct {
	addr net.Addr
	conn net.Conn

	writeMu sync.Mutex
}

// NewChannel wraps conn, initially identified by conn.RemoteAddr(); the
// acceptor overrides this with SetAddr once the handshake reveals the
// peer's true dialable port.
func NewChannel(conn net.Conn) *Channel {
	return &Channel{conn: conn, addr: conn.RemoteAddr()}
}

// Addr returns the channel's remote address.
func (c *Channel) Addr() netip.AddrPort {
	ap, err := netip.ParseAddrPort(c.addr.String())
	if err != nil {
		return netip.AddrPort{}
	}
	return ap
}

// SetAddr overrides the address this channel is known by.
func (c *Channel) SetAddr(addr netip.AddrPort) {
	c.addr = net.TCPAddrFromAddrPort(addr)
}

// Read blocks until a full framed message arrives or the stream errors.
// It fails with ErrPeerDisconnected on EOF or a reset, or with ctx's
// error if ctx is canceled first.
func (c *Channel) Read(ctx context.Context) (wire.MessageName, []byte, error) {
	var name wire.MessageName
	var payload []byte
	err := c.runWithCancel(ctx, func() error {
		var readErr error
		name, payload, readErr = wire.ReadMessage(c.conn)
		return readErr
	})
	if err == nil {
		return name, payload, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return wire.MessageName{}, nil, err
	}
	if errors.Is(err, io.EOF) || isClosedOrReset(err) {
		return wire.MessageName{}, nil, fmt.Errorf("%w: %v", ErrPeerDisconnected, err)
	}
	return wire.MessageName{}, nil, err
}

// Write serializes and sends msg. Concurrent writers to the same Channel
// are serialized by writeMu.
func (c *Channel) Write(ctx context.Context, msg wire.Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.runWithCancel(ctx, func() error {
		return wire.WriteMessage(c.conn, msg.Name, msg.Payload)
	})
}

// Close closes the underlying stream.
func (c *Channel) Close() error {
	return c.conn.Close()
}

// runWithCancel runs fn, interrupting the blocking I/O it performs if ctx
// is canceled first by forcing an immediate deadline on the connection.
// If ctx was canceled, its error takes priority over whatever error that
// produced in fn.
func (c *Channel) runWithCancel(ctx context.Context, fn func() error) error {
	if ctx.Done() == nil {
		return fn()
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case <-ctx.Done():
			_ = c.conn.SetDeadline(time.Now())
		case <-stop:
		}
	}()
	err := fn()
	close(stop)
	<-done
	_ = c.conn.SetDeadline(time.Time{})
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func isClosedOrReset(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) || errors.Is(err, net.ErrClosed)
}
