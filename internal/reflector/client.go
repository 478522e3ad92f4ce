// Package reflector maintains a UDP session with an M17 reflector: the
// CONN/ACKN handshake, PING/PONG keepalive, and the stream of 54-byte IP
// frames.
package reflector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	log "github.com/kc1awv/m17-core/internal/logger"
	"github.com/kc1awv/m17-core/internal/m17"
	"github.com/kc1awv/m17-core/internal/status"
)

type Event int

const (
	EventNACK Event = iota
)

type Client struct {
	conn       *net.UDPConn
	remote     *net.UDPAddr
	addr       m17.Address
	module     byte
	Designator string

	connected bool
	lastPing  time.Time
	ctx       context.Context
	cancel    context.CancelFunc

	Frames    chan m17.IPFrame
	Events    chan Event
	closeOnce sync.Once
}

// NewClient resolves the reflector, sends CONN, and starts the listener
// and keepalive watchdog.
func NewClient(ctx context.Context, reflectorAddr, callsign string, module byte) (*Client, error) {
	addr, err := m17.NewAddressFromCallsign(callsign)
	if err != nil {
		return nil, fmt.Errorf("bad callsign: %w", err)
	}

	remote, err := net.ResolveUDPAddr("udp", reflectorAddr)
	if err != nil {
		return nil, err
	}

	network := "udp4"
	if remote.IP.To4() == nil {
		network = "udp6"
	}

	conn, err := net.ListenUDP(network, &net.UDPAddr{Port: 0})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)

	c := &Client{
		conn:     conn,
		remote:   remote,
		addr:     addr,
		module:   module,
		lastPing: time.Now(),
		ctx:      ctx,
		cancel:   cancel,
		Frames:   make(chan m17.IPFrame, 100),
		Events:   make(chan Event, 10),
	}

	if err := c.send(m17.BuildCONN(c.addr, c.module)); err != nil {
		log.Error("Error sending CONN", "err", err, "reflector", c.Designator)
		conn.Close()
		cancel()
		return nil, err
	}
	status.RecordControlPacket("CONN")

	go c.listen()
	go c.monitorPing()

	return c, nil
}

// NewTestClient wires a client around an existing socket without the
// handshake, for tests.
func NewTestClient(ctx context.Context, conn *net.UDPConn, remote *net.UDPAddr, addr m17.Address, module byte, designator string) *Client {
	ctx, cancel := context.WithCancel(ctx)
	return &Client{
		conn:       conn,
		remote:     remote,
		addr:       addr,
		module:     module,
		Designator: designator,
		lastPing:   time.Now(),
		ctx:        ctx,
		cancel:     cancel,
		Frames:     make(chan m17.IPFrame, 100),
		Events:     make(chan Event, 10),
	}
}

func (c *Client) Name() string {
	return c.remote.String()
}

func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

// SendFrame transmits one IP frame to the reflector.
func (c *Client) SendFrame(frame m17.IPFrame) error {
	buf := frame.Bytes()
	if err := c.send(buf[:]); err != nil {
		return err
	}
	status.RecordIPFrameSent()
	return nil
}

func (c *Client) send(pkt []byte) error {
	_, err := c.conn.WriteToUDP(pkt, c.remote)
	return err
}

func (c *Client) listen() {
	defer close(c.Frames)

	buf := make([]byte, 512)

	for {
		if c.ctx.Err() != nil {
			return
		}

		deadline := time.Now().Add(5 * time.Second)
		if dl, ok := c.ctx.Deadline(); ok && dl.Before(deadline) {
			deadline = dl
		}
		if err := c.conn.SetReadDeadline(deadline); err != nil {
			log.Error("Failed to set read deadline", "err", err, "reflector", c.Designator)
			return
		}

		n, addr, err := c.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Error("UDP read error", "err", err, "reflector", c.Designator)
			continue
		}

		if c.ctx.Err() != nil {
			return
		}

		if addr.String() != c.remote.String() {
			log.Warn("Ignoring packet from unexpected source", "source", addr.String(), "reflector", c.Designator)
			continue
		}

		data := buf[:n]

		if m17.IsIPFrame(data) {
			frame, err := m17.ParseIPFrame(data)
			if err != nil {
				if errors.Is(err, m17.ErrCRCMismatch) {
					status.RecordCRCFailure()
				}
				log.Warn("Dropping invalid IP frame", "err", err, "reflector", c.Designator)
				continue
			}
			status.RecordIPFrameReceived()
			select {
			case c.Frames <- frame:
			default:
				log.Warn("Frame channel full, dropping stream frame", "reflector", c.Designator)
			}
			continue
		}

		c.handleControlPacket(data)
	}
}

func (c *Client) handleControlPacket(data []byte) {
	pkt, err := m17.ParseControlPacket(data)
	if err != nil {
		log.Warn("Unknown/invalid control packet", "err", err, "reflector", c.Designator)
		return
	}

	switch pkt.Type {
	case m17.CtrlACKN:
		c.connected = true
		c.lastPing = time.Now()
		status.RecordControlPacket("ACKN")
		log.Info("Reflector ACKN: connected", "callsign", c.addr.Callsign(), "reflector", c.Designator)

	case m17.CtrlNACK:
		status.RecordControlPacket("NACK")
		log.Error("Reflector NACK: connection denied", "reflector", c.Designator)
		select {
		case c.Events <- EventNACK:
		default:
		}
		c.Close()

	case m17.CtrlPING:
		c.lastPing = time.Now()
		status.RecordControlPacket("PING")
		log.Debug("Reflector PING -> sending PONG", "from", pkt.From.Callsign(), "reflector", c.Designator)
		if err := c.send(m17.BuildPONG(c.addr)); err != nil {
			log.Warn("Failed to send PONG", "err", err, "reflector", c.Designator)
		} else {
			status.RecordControlPacket("PONG")
		}

	case m17.CtrlDISC:
		status.RecordControlPacket("DISC")
		log.Info("Reflector DISC: disconnected by reflector", "reflector", c.Designator)
		c.Close()

	default:
		log.Warn("Unhandled control packet type", "type", pkt.Type, "reflector", c.Designator)
	}
}

func (c *Client) monitorPing() {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if time.Since(c.lastPing) > 30*time.Second && c.connected {
				log.Warn("No PING from reflector; assuming disconnected", "reflector", c.Designator)
				c.Close()
				return
			}
		}
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		if err := c.send(m17.BuildDISC(c.addr)); err != nil {
			log.Warn("Error sending DISC", "err", err, "reflector", c.Designator)
		}
		c.conn.Close()
		close(c.Events)
	})
}
