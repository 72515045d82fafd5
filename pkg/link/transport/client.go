package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/ipv4"

	"github.com/robotalks/fleetlink/pkg/link/bench"
	"github.com/robotalks/fleetlink/pkg/link/packet"
)

// Client is the agent side of the link, talking to a single coordinator.
type Client struct {
	Config
	Handler PacketHandler
	// Hello is announced on Init and whenever SayHello is called.
	Hello packet.HelloPacket

	conn *net.UDPConn
	link *bench.Benchmark

	sendLock sync.Mutex
	recvLock sync.Mutex
	rxBuf    []byte
	dropped  atomic.Uint64

	ctrlLock   sync.Mutex
	lastCtrl   packet.CtrlPacket
	lastCtrlAt time.Time
	hasCtrl    bool
}

// NewClient creates a Client.
func NewClient(cfg Config, hello packet.HelloPacket) *Client {
	cfg.normalize()
	return &Client{
		Config: cfg,
		Hello:  hello,
		link:   bench.New(cfg.Window),
	}
}

// Init implements Transport.
func (c *Client) Init(ctx context.Context) error {
	c.sendLock.Lock()
	if c.conn != nil {
		c.sendLock.Unlock()
		return nil
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp4", c.hostPort(c.Address))
	if err != nil {
		c.sendLock.Unlock()
		return fmt.Errorf("dial: %w", err)
	}
	udpConn := conn.(*net.UDPConn)
	if err := ipv4.NewConn(udpConn).SetTOS(tosEF); err != nil {
		glog.Warningf("set TOS: %v", err)
	}
	c.recvLock.Lock()
	c.rxBuf = make([]byte, MaxDatagram)
	c.conn = udpConn
	c.recvLock.Unlock()
	c.sendLock.Unlock()

	glog.Infof("link client %s -> %s", udpConn.LocalAddr(), udpConn.RemoteAddr())
	if !c.SayHello() {
		glog.Warning("hello not sent")
	}
	return nil
}

// SayHello announces the agent to the coordinator.
func (c *Client) SayHello() bool {
	hello := c.Hello
	return c.Send(packet.TypeHello, &hello)
}

// LocalAddr returns the local address, nil before Init.
func (c *Client) LocalAddr() net.Addr {
	c.sendLock.Lock()
	defer c.sendLock.Unlock()
	if c.conn == nil {
		return nil
	}
	return c.conn.LocalAddr()
}

// Send implements Transport.
func (c *Client) Send(typ packet.Type, payload packet.Payload) bool {
	c.sendLock.Lock()
	defer c.sendLock.Unlock()
	if c.conn == nil {
		return false
	}
	b, err := packet.Encode(typ, payload)
	if err != nil {
		glog.Errorf("encode %s: %v", typ, err)
		return false
	}
	if _, err := c.conn.Write(b); err != nil {
		glog.V(2).Infof("send %s: %v", typ, err)
		return false
	}
	return true
}

// Update implements Transport. Echoes are sent after the receive lock is
// released so Update never holds both locks.
func (c *Client) Update() {
	for _, echo := range c.receive() {
		if !c.Send(packet.TypeEcho, &echo) {
			glog.V(3).Info("echo not sent")
		}
	}
}

func (c *Client) receive() (echoes []packet.EchoPacket) {
	c.recvLock.Lock()
	defer c.recvLock.Unlock()
	if c.conn == nil {
		return nil
	}
	for {
		if err := c.conn.SetReadDeadline(c.now().Add(c.PollTimeout)); err != nil {
			glog.Errorf("set read deadline: %v", err)
			return
		}
		n, err := c.conn.Read(c.rxBuf)
		if err != nil {
			if !isTimeout(err) {
				// e.g. connection refused while the coordinator is down.
				glog.V(3).Infof("receive: %v", err)
			}
			return
		}
		if ctrl := c.dispatch(c.rxBuf[:n]); ctrl != nil {
			echoes = append(echoes, *packet.EchoOf(ctrl))
		}
	}
}

func (c *Client) dispatch(data []byte) *packet.CtrlPacket {
	frame, err := packet.Decode(data)
	if err != nil {
		c.dropped.Add(1)
		glog.V(3).Infof("drop frame: %v", err)
		return nil
	}
	ctrl, _ := frame.Payload.(*packet.CtrlPacket)
	if ctrl != nil {
		c.link.Feed(int64(ctrl.ID), uint64(ctrl.Time), c.micros())
		c.ctrlLock.Lock()
		c.lastCtrl, c.lastCtrlAt, c.hasCtrl = *ctrl, c.now(), true
		c.ctrlLock.Unlock()
	}
	if c.Handler != nil {
		c.Handler.HandlePacket(c.conn.RemoteAddr(), frame)
	}
	return ctrl
}

// LastCtrl returns the most recently received control packet and the
// local time it arrived.
func (c *Client) LastCtrl() (packet.CtrlPacket, time.Time, bool) {
	c.ctrlLock.Lock()
	defer c.ctrlLock.Unlock()
	return c.lastCtrl, c.lastCtrlAt, c.hasCtrl
}

// Stats implements Transport. Latency is one way and includes the clock
// offset between the nodes.
func (c *Client) Stats() bench.Reading {
	return c.link.Reading()
}

// Dropped returns the number of rejected frames.
func (c *Client) Dropped() uint64 {
	return c.dropped.Load()
}

// Close implements Transport.
func (c *Client) Close() error {
	c.sendLock.Lock()
	defer c.sendLock.Unlock()
	c.recvLock.Lock()
	defer c.recvLock.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
