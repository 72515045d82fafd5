package transport

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/fleetlink/pkg/link/packet"
)

const waitFor = 2 * time.Second

func loopbackServer(t *testing.T, maxPeers int) *Server {
	cfg := DefaultConfig()
	cfg.MaxPeers = maxPeers
	return loopbackServerWith(t, cfg)
}

func loopbackServerWith(t *testing.T, cfg Config) *Server {
	cfg.Address, cfg.Port = "127.0.0.1", 0
	s := NewServer(cfg)
	require.NoError(t, s.Init(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func loopbackClient(t *testing.T, s *Server, agentID uint8) *Client {
	cfg := DefaultConfig()
	cfg.Address, cfg.Port = "127.0.0.1", s.LocalAddr().(*net.UDPAddr).Port
	hello := packet.HelloPacket{AgentID: agentID}
	hello.SetHardware("hw-test")
	c := NewClient(cfg, hello)
	require.NoError(t, c.Init(context.Background()))
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSendBeforeInit(t *testing.T) {
	testCases := []struct {
		name      string
		transport Transport
	}{
		{"server", NewServer(DefaultConfig())},
		{"client", NewClient(DefaultConfig(), packet.HelloPacket{})},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.False(t, tc.transport.Send(packet.TypeCtrl, &packet.CtrlPacket{}))
			require.NotPanics(t, tc.transport.Update)
			require.NoError(t, tc.transport.Close())
			require.Zero(t, tc.transport.Stats().Samples)
		})
	}
}

func TestServerSendWithoutPeers(t *testing.T) {
	s := loopbackServer(t, DefaultMaxPeers)
	require.False(t, s.Send(packet.TypeCtrl, &packet.CtrlPacket{ID: 1}))
}

func TestSendAfterClose(t *testing.T) {
	s := loopbackServer(t, DefaultMaxPeers)
	c := loopbackClient(t, s, 1)
	require.NoError(t, c.Close())
	require.False(t, c.Send(packet.TypeState, &packet.StatePacket{}))
	require.NoError(t, s.Close())
	require.False(t, s.Send(packet.TypeCtrl, &packet.CtrlPacket{}))
	require.Nil(t, s.Peers())
}

func TestSendTypeMismatch(t *testing.T) {
	s := loopbackServer(t, DefaultMaxPeers)
	c := loopbackClient(t, s, 1)
	require.False(t, c.Send(packet.TypeCtrl, &packet.StatePacket{}))
}

func TestLoopbackExchange(t *testing.T) {
	s := loopbackServer(t, DefaultMaxPeers)
	var seen atomic.Int32
	s.Handler = HandlePacketFunc(func(from net.Addr, frame packet.Frame) {
		seen.Add(1)
	})
	c := loopbackClient(t, s, 3)

	require.Eventually(t, func() bool {
		s.Update()
		peers := s.Peers()
		return len(peers) == 1 && peers[0].AgentID == 3
	}, waitFor, 5*time.Millisecond)
	require.Equal(t, "hw-test", s.Peers()[0].HardwareID)
	require.Equal(t, c.LocalAddr().String(), s.Peers()[0].Addr)

	require.True(t, s.Send(packet.TypeCtrl, &packet.CtrlPacket{ID: 7, Time: 100, Servo: [2]float32{10, -10}}))
	require.Eventually(t, func() bool {
		c.Update()
		_, _, ok := c.LastCtrl()
		return ok
	}, waitFor, 5*time.Millisecond)
	ctrl, at, _ := c.LastCtrl()
	require.EqualValues(t, 7, ctrl.ID)
	require.Equal(t, [2]float32{10, -10}, ctrl.Servo)
	require.False(t, at.IsZero())
	require.Equal(t, 1, c.Stats().Samples)

	// the echo feeds the coordinator side benchmark.
	require.Eventually(t, func() bool {
		s.Update()
		return s.Stats().Samples == 1
	}, waitFor, 5*time.Millisecond)

	require.True(t, c.Send(packet.TypeState, &packet.StatePacket{Temperature: 21.5}))
	require.Eventually(t, func() bool {
		s.Update()
		st := s.Peers()[0].State
		return st != nil && st.Temperature == 21.5
	}, waitFor, 5*time.Millisecond)
	require.GreaterOrEqual(t, seen.Load(), int32(3))
}

func TestServerDropsGarbage(t *testing.T) {
	s := loopbackServer(t, DefaultMaxPeers)
	conn, err := net.DialUDP("udp4", nil, s.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte{0x55, 1, 2, 3})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		s.Update()
		return s.Dropped() == 1
	}, waitFor, 5*time.Millisecond)
	require.Empty(t, s.Peers())
}

func TestServerMaxPeers(t *testing.T) {
	s := loopbackServer(t, 1)
	loopbackClient(t, s, 1)
	require.Eventually(t, func() bool {
		s.Update()
		return len(s.Peers()) == 1
	}, waitFor, 5*time.Millisecond)
	loopbackClient(t, s, 2)
	require.Eventually(t, func() bool {
		s.Update()
		return s.Dropped() >= 1
	}, waitFor, 5*time.Millisecond)
	peers := s.Peers()
	require.Len(t, peers, 1)
	require.Equal(t, 1, peers[0].AgentID)
}

func TestPeerExpiry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PeerTTL = 100 * time.Millisecond
	s := loopbackServerWith(t, cfg)
	loopbackClient(t, s, 1)
	active := loopbackClient(t, s, 2)
	require.Eventually(t, func() bool {
		s.Update()
		return len(s.Peers()) == 2
	}, waitFor, 5*time.Millisecond)

	talk := func() {
		active.Send(packet.TypeState, &packet.StatePacket{})
		s.Update()
	}
	require.Eventually(t, func() bool {
		talk()
		peers := s.Peers()
		return len(peers) == 1 && peers[0].AgentID == 2
	}, waitFor, 5*time.Millisecond)

	// several TTLs later the talking peer is still there.
	deadline := time.Now().Add(4 * cfg.PeerTTL)
	for time.Now().Before(deadline) {
		talk()
		time.Sleep(5 * time.Millisecond)
	}
	peers := s.Peers()
	require.Len(t, peers, 1)
	require.Equal(t, 2, peers[0].AgentID)
}

func TestServerCloseStopsExpiry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PeerTTL = 20 * time.Millisecond
	s := loopbackServerWith(t, cfg)
	loopbackClient(t, s, 1)
	require.Eventually(t, func() bool {
		s.Update()
		return len(s.Peers()) == 1
	}, waitFor, 5*time.Millisecond)
	require.NoError(t, s.Close())
	time.Sleep(3 * cfg.PeerTTL)
	require.Nil(t, s.Peers())
}

func TestShortPeerTTL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PeerTTL = 500 * time.Microsecond
	s := NewServer(cfg)
	require.Equal(t, MinPeerTTL, s.PeerTTL)
	cfg.Address, cfg.Port = "127.0.0.1", 0
	s = NewServer(cfg)
	require.NotPanics(t, func() { require.NoError(t, s.Init(context.Background())) })
	require.NoError(t, s.Close())
}

func TestClientCloseWhileReceiving(t *testing.T) {
	s := loopbackServer(t, DefaultMaxPeers)
	c := loopbackClient(t, s, 1)
	require.Eventually(t, func() bool {
		s.Update()
		return len(s.Peers()) == 1
	}, waitFor, 5*time.Millisecond)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for id := int32(1); ; id++ {
			select {
			case <-stop:
				return
			default:
			}
			s.Send(packet.TypeCtrl, &packet.CtrlPacket{ID: id})
			s.Update()
			time.Sleep(time.Millisecond)
		}
	}()
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			c.Update()
		}
	}()
	require.Eventually(t, func() bool {
		_, _, ok := c.LastCtrl()
		return ok
	}, waitFor, 5*time.Millisecond)

	closed := make(chan error, 1)
	go func() { closed <- c.Close() }()
	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("client close blocked")
	}
	close(stop)
	wg.Wait()
	require.False(t, c.Send(packet.TypeState, &packet.StatePacket{}))
}
