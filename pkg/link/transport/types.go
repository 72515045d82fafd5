// Package transport moves link frames between the coordinator and its
// agents over UDP.
package transport

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/robotalks/fleetlink/pkg/framework"
	"github.com/robotalks/fleetlink/pkg/link/bench"
	"github.com/robotalks/fleetlink/pkg/link/packet"
)

// Defaults.
const (
	DefaultPort        = 11411
	DefaultMaxPeers    = 4
	DefaultPeerTTL     = 5 * time.Second
	// MinPeerTTL is the shortest peer expiry the ttlmap timer supports.
	MinPeerTTL = time.Millisecond
	DefaultPollTimeout = 200 * time.Microsecond
	DefaultBatchSize   = 8

	// MaxDatagram bounds the receive buffers. Oversized datagrams are
	// truncated and then rejected by the decoder.
	MaxDatagram = 512

	// tosEF is DSCP Expedited Forwarding in the IPv4 TOS byte.
	tosEF = 46 << 2
)

var (
	// ErrNotInitialized is returned by operations requiring Init.
	ErrNotInitialized = errors.New("transport not initialized")
)

// Transport is the role independent link endpoint.
type Transport interface {
	// Init opens the socket. It must be called once before Send/Update.
	Init(ctx context.Context) error
	// Send transmits a frame. It returns false when nothing was sent.
	Send(typ packet.Type, payload packet.Payload) bool
	// Update drains and dispatches received frames without blocking.
	Update()
	// Stats aggregates link benchmarks.
	Stats() bench.Reading
	// Close releases the socket.
	Close() error
}

// PacketHandler is called for every decoded frame.
type PacketHandler interface {
	HandlePacket(from net.Addr, frame packet.Frame)
}

// HandlePacketFunc is func type of PacketHandler.
type HandlePacketFunc func(net.Addr, packet.Frame)

// HandlePacket implements PacketHandler.
func (f HandlePacketFunc) HandlePacket(from net.Addr, frame packet.Frame) {
	f(from, frame)
}

// Config is shared by Server and Client.
type Config struct {
	// Address is the coordinator address dialed by the Client, or the
	// address the Server binds to (empty for all interfaces).
	Address string
	Port    int

	MaxPeers    int
	PeerTTL     time.Duration
	PollTimeout time.Duration
	BatchSize   int
	Window      int

	// Uptime stamps received frames. Defaults to the system clock.
	Uptime *framework.Uptime
}

// DefaultConfig returns the default Config.
func DefaultConfig() Config {
	return Config{
		Port:        DefaultPort,
		MaxPeers:    DefaultMaxPeers,
		PeerTTL:     DefaultPeerTTL,
		PollTimeout: DefaultPollTimeout,
		BatchSize:   DefaultBatchSize,
		Window:      bench.DefaultWindow,
	}
}

func (c *Config) normalize() {
	if c.MaxPeers <= 0 {
		c.MaxPeers = DefaultMaxPeers
	}
	if c.PeerTTL <= 0 {
		c.PeerTTL = DefaultPeerTTL
	} else if c.PeerTTL < MinPeerTTL {
		c.PeerTTL = MinPeerTTL
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = DefaultPollTimeout
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Window <= 0 {
		c.Window = bench.DefaultWindow
	}
	if c.Uptime == nil {
		c.Uptime = framework.NewUptime(framework.SystemClock{})
	}
}

func (c *Config) hostPort(host string) string {
	return net.JoinHostPort(host, strconv.Itoa(c.Port))
}

func (c *Config) now() time.Time {
	return c.Uptime.Clock.Time()
}

func (c *Config) micros() uint64 {
	return uint64(c.Uptime.Micros())
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
