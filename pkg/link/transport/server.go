package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"
	"golang.org/x/net/ipv4"

	"github.com/robotalks/fleetlink/pkg/link/bench"
	"github.com/robotalks/fleetlink/pkg/link/packet"
)

// Server is the coordinator side of the link. It learns agents from
// inbound frames and fans frames out to all of them.
type Server struct {
	Config
	Handler PacketHandler

	conn  *ipv4.PacketConn
	raw   net.PacketConn
	peers atomic.Pointer[peerTable]

	sendLock sync.Mutex
	recvLock sync.Mutex
	rx       []ipv4.Message
	dropped  atomic.Uint64
}

// NewServer creates a Server.
func NewServer(cfg Config) *Server {
	cfg.normalize()
	return &Server{Config: cfg}
}

// Init implements Transport.
func (s *Server) Init(ctx context.Context) error {
	s.sendLock.Lock()
	defer s.sendLock.Unlock()
	s.recvLock.Lock()
	defer s.recvLock.Unlock()
	if s.conn != nil {
		return nil
	}
	lc := net.ListenConfig{Control: reuseAddr}
	raw, err := lc.ListenPacket(ctx, "udp4", s.hostPort(s.Address))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	conn := ipv4.NewPacketConn(raw)
	if err := conn.SetTOS(tosEF); err != nil {
		glog.Warningf("set TOS: %v", err)
	}
	s.rx = make([]ipv4.Message, s.BatchSize)
	for n := range s.rx {
		s.rx[n].Buffers = [][]byte{make([]byte, MaxDatagram)}
	}
	s.raw, s.conn = raw, conn
	s.peers.Store(newPeerTable(s.Config))
	glog.Infof("link server listening on %s", raw.LocalAddr())
	return nil
}

// LocalAddr returns the bound address, nil before Init.
func (s *Server) LocalAddr() net.Addr {
	s.recvLock.Lock()
	defer s.recvLock.Unlock()
	if s.raw == nil {
		return nil
	}
	return s.raw.LocalAddr()
}

// Send implements Transport. The frame goes to every known peer.
func (s *Server) Send(typ packet.Type, payload packet.Payload) bool {
	s.sendLock.Lock()
	defer s.sendLock.Unlock()
	if s.conn == nil {
		return false
	}
	b, err := packet.Encode(typ, payload)
	if err != nil {
		glog.Errorf("encode %s: %v", typ, err)
		return false
	}
	addrs := s.peers.Load().addrs()
	if len(addrs) == 0 {
		return false
	}
	msgs := make([]ipv4.Message, len(addrs))
	for n, addr := range addrs {
		msgs[n].Buffers = [][]byte{b}
		msgs[n].Addr = addr
	}
	for len(msgs) > 0 {
		n, err := s.conn.WriteBatch(msgs, 0)
		if err != nil {
			glog.V(2).Infof("send %s: %v", typ, err)
			return false
		}
		msgs = msgs[n:]
	}
	return true
}

// Update implements Transport.
func (s *Server) Update() {
	s.recvLock.Lock()
	defer s.recvLock.Unlock()
	if s.conn == nil {
		return
	}
	for {
		if err := s.conn.SetReadDeadline(s.now().Add(s.PollTimeout)); err != nil {
			glog.Errorf("set read deadline: %v", err)
			return
		}
		n, err := s.conn.ReadBatch(s.rx, 0)
		if err != nil {
			if !isTimeout(err) {
				glog.V(2).Infof("receive: %v", err)
			}
			return
		}
		if n == 0 {
			return
		}
		for _, msg := range s.rx[:n] {
			s.dispatch(msg.Addr, msg.Buffers[0][:msg.N])
		}
	}
}

func (s *Server) dispatch(from net.Addr, data []byte) {
	frame, err := packet.Decode(data)
	if err != nil {
		s.dropped.Add(1)
		glog.V(3).Infof("drop frame from %v: %v", from, err)
		return
	}
	addr, ok := from.(*net.UDPAddr)
	if !ok {
		return
	}
	stamp := s.micros()
	accepted := s.peers.Load().seen(addr, func(p *peer) {
		switch pkt := frame.Payload.(type) {
		case *packet.HelloPacket:
			if p.agentID != int(pkt.AgentID) {
				glog.Infof("peer %s is agent %d (%s)", addr, pkt.AgentID, pkt.Hardware())
			}
			p.agentID, p.hardware = int(pkt.AgentID), pkt.Hardware()
		case *packet.StatePacket:
			p.state, p.hasState = *pkt, true
		case *packet.EchoPacket:
			p.link.Feed(int64(pkt.ID), uint64(pkt.Time), stamp)
		}
	})
	if !accepted {
		s.dropped.Add(1)
		glog.V(2).Infof("peer table full, drop %s from %v", frame.Type, from)
		return
	}
	if s.Handler != nil {
		s.Handler.HandlePacket(from, frame)
	}
}

// Peers lists the known agents in joining order.
func (s *Server) Peers() []PeerInfo {
	if t := s.peers.Load(); t != nil {
		return t.list()
	}
	return nil
}

// Stats implements Transport: the aggregate of all peer links.
func (s *Server) Stats() bench.Reading {
	peers := s.Peers()
	readings := make([]bench.Reading, len(peers))
	for n, p := range peers {
		readings[n] = p.Link
	}
	return bench.Aggregate(readings...)
}

// Dropped returns the number of rejected frames.
func (s *Server) Dropped() uint64 {
	return s.dropped.Load()
}

// Close implements Transport.
func (s *Server) Close() error {
	s.sendLock.Lock()
	defer s.sendLock.Unlock()
	s.recvLock.Lock()
	defer s.recvLock.Unlock()
	if s.conn == nil {
		return nil
	}
	s.peers.Swap(nil).close()
	err := s.conn.Close()
	s.conn, s.raw = nil, nil
	return err
}
