// Package client implements the hag1 TCP client side,
// grounded on tcp_client.py's TcpClient: connect, a background receive
// loop feeding a local callback hub, and idempotent disconnect.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/dhag/Py.HagLib.Socket/internal/fabric"
	"github.com/dhag/Py.HagLib.Socket/internal/imaging"
	"github.com/dhag/Py.HagLib.Socket/internal/protocol"
	"github.com/dhag/Py.HagLib.Socket/internal/transport"
)

// ErrNotConnected is returned by SendData when called before Connect or
// after Disconnect.
var ErrNotConnected = errors.New("client: not connected")

// Client is one outbound hag1 connection. It is safe to call Disconnect
// concurrently with SendData; it is not safe to call Connect again on an
// already-connected Client.
type Client struct {
	// StabilizationDelay is the pause between opening the TCP connection
	// and sending the handshake, to tolerate servers not yet reading
	// Defaults to 500ms if zero.
	StabilizationDelay time.Duration

	hub    *fabric.Hub
	framer *transport.Framer
	codec  imaging.Codec
	logger *slog.Logger

	mu      sync.Mutex
	conn    net.Conn
	userID  uint32
	groupID uint32
	alive   bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New returns a Client dispatching received frames to hub.
func New(hub *fabric.Hub, maxFrameBytes int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		hub:    hub,
		framer: transport.NewFramer(maxFrameBytes),
		codec:  imaging.Default,
		logger: logger,
	}
}

// Connect dials addr, waits out the stabilization delay, sends the
// CONNECT:<user>:<group> handshake, and spawns the background receive
// loop. Returns once the handshake has been written.
func (c *Client) Connect(ctx context.Context, addr string, userID, groupID uint32) error {
	c.mu.Lock()
	if c.alive {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.userID = userID
	c.groupID = groupID
	c.alive = true
	connCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	delay := c.StabilizationDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	time.Sleep(delay)

	handshake := protocol.Text(0, 0, groupID, userID, fmt.Sprintf("CONNECT:%d:%d", userID, groupID))
	if err := c.framer.Send(conn, handshake); err != nil {
		c.logger.Warn("handshake send failed", "error", err)
		c.Disconnect()
		return err
	}

	c.wg.Add(1)
	go c.receiveLoop(connCtx, conn)

	c.logger.Info("connected to server", "addr", addr, "user_id", userID, "group_id", groupID)
	return nil
}

func (c *Client) receiveLoop(ctx context.Context, conn net.Conn) {
	defer c.wg.Done()
	defer c.Disconnect()

	first := true
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		frame, err := c.framer.Recv(conn)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				c.logger.Info("receive loop ended", "error", err)
			}
			return
		}

		if first {
			c.hub.RaiseFirstMessage(frame.ToText())
			first = false
		}

		fabric.Dispatch(c.hub, frame, c.codec)
	}
}

// SendData transmits frame to the server, filling src_group_id from the
// client's group identity when zero and src_user_id when it is the
// wildcard, per the send_data contract. On send failure it logs,
// disconnects, and returns the error.
func (c *Client) SendData(frame *protocol.Frame) error {
	c.mu.Lock()
	conn := c.conn
	alive := c.alive
	userID, groupID := c.userID, c.groupID
	c.mu.Unlock()

	if !alive || conn == nil {
		return ErrNotConnected
	}

	if frame.Header.SrcGroupID == 0 {
		frame.Header.SrcGroupID = groupID
	}
	if frame.Header.SrcUserID == protocol.WildcardID {
		frame.Header.SrcUserID = userID
	}

	if err := c.framer.Send(conn, frame); err != nil {
		c.logger.Warn("send_data failed", "error", err)
		c.Disconnect()
		return err
	}
	return nil
}

// Disconnect tears down the connection and cancels the receive loop.
// Idempotent: calling it more than once, or before Connect, is a no-op.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if !c.alive {
		c.mu.Unlock()
		return
	}
	c.alive = false
	conn := c.conn
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
	}
	c.logger.Info("disconnected from server")
}

// IsAlive reports whether the connection is currently considered live.
func (c *Client) IsAlive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive
}
