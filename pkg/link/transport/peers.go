package transport

import (
	"iter"
	"net"
	"sync"
	"time"

	"github.com/ddirect/container/ttlmap"
	"github.com/golang/glog"

	"github.com/robotalks/fleetlink/pkg/link/bench"
	"github.com/robotalks/fleetlink/pkg/link/packet"
)

// PeerInfo describes an agent known to the Server.
type PeerInfo struct {
	Addr string
	// AgentID is -1 until the agent says hello.
	AgentID    int
	HardwareID string
	LastSeen   time.Time
	Link       bench.Reading
	State      *packet.StatePacket
}

type peer struct {
	addr     *net.UDPAddr
	agentID  int
	hardware string
	lastSeen time.Time
	link     *bench.Benchmark
	state    packet.StatePacket
	hasState bool
}

func (p *peer) info() PeerInfo {
	info := PeerInfo{
		Addr:       p.addr.String(),
		AgentID:    p.agentID,
		HardwareID: p.hardware,
		LastSeen:   p.lastSeen,
		Link:       p.link.Reading(),
	}
	if p.hasState {
		st := p.state
		info.State = &st
	}
	return info
}

// peerTable tracks agents learned from inbound frames. Entries are kept
// alive in a ttlmap and dropped once silent for the TTL. Expiry runs on
// wall time; the configured clock only stamps LastSeen.
type peerTable struct {
	maxPeers int
	window   int
	clock    func() time.Time

	lock   sync.Mutex
	peers  map[string]*peer
	order  []string
	alive  *ttlmap.Map[string, struct{}]
	closed bool
}

func newPeerTable(cfg Config) *peerTable {
	t := &peerTable{
		maxPeers: cfg.MaxPeers,
		window:   cfg.Window,
		clock:    cfg.now,
		peers:    make(map[string]*peer),
	}
	t.alive = ttlmap.NewAsync[string, struct{}](cfg.PeerTTL, cfg.PeerTTL/10, t.expire)
	return t
}

// expire is called from the ttlmap timer with the items due for removal.
func (t *peerTable) expire(items iter.Seq[ttlmap.Item[string, struct{}]]) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.closed {
		return
	}
	for item := range items {
		key := item.Key()
		if _, ok := t.peers[key]; !ok {
			continue
		}
		t.remove(key)
		glog.Infof("peer %s expired", key)
	}
}

// seen registers or refreshes the peer at addr and runs fn on it with the
// table locked. It returns false when the table is full.
func (t *peerTable) seen(addr *net.UDPAddr, fn func(*peer)) bool {
	key := addr.String()
	now := t.clock()
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.closed {
		return false
	}
	p, ok := t.peers[key]
	if !ok {
		if len(t.peers) >= t.maxPeers {
			return false
		}
		p = &peer{
			addr:    addr,
			agentID: -1,
			link:    bench.New(t.window),
		}
		t.peers[key] = p
		t.order = append(t.order, key)
		glog.Infof("peer %s joined", key)
	}
	p.lastSeen = now
	t.alive.Set(key, struct{}{})
	if fn != nil {
		fn(p)
	}
	return true
}

func (t *peerTable) remove(key string) {
	delete(t.peers, key)
	for n, k := range t.order {
		if k == key {
			t.order = append(t.order[:n], t.order[n+1:]...)
			break
		}
	}
}

func (t *peerTable) addrs() []*net.UDPAddr {
	t.lock.Lock()
	defer t.lock.Unlock()
	addrs := make([]*net.UDPAddr, 0, len(t.order))
	for _, key := range t.order {
		addrs = append(addrs, t.peers[key].addr)
	}
	return addrs
}

func (t *peerTable) list() []PeerInfo {
	t.lock.Lock()
	defer t.lock.Unlock()
	infos := make([]PeerInfo, 0, len(t.order))
	for _, key := range t.order {
		infos = append(infos, t.peers[key].info())
	}
	return infos
}

// close stops expiry. Deleting every entry stops the ttlmap timer; a
// timer already fired finds the table closed.
func (t *peerTable) close() {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.closed = true
	for _, key := range t.order {
		t.alive.Delete(key)
	}
}
