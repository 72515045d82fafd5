package node

import (
	"context"
	"sync"
	"time"

	"github.com/robotalks/fleetlink/pkg/bridge/msgs"
	"github.com/robotalks/fleetlink/pkg/link/bench"
	"github.com/robotalks/fleetlink/pkg/link/packet"
	"github.com/robotalks/fleetlink/pkg/link/transport"
)

type sentFrame struct {
	typ     packet.Type
	payload packet.Payload
}

type fakeLink struct {
	lock    sync.Mutex
	sent    []sentFrame
	reading bench.Reading
	peers   []transport.PeerInfo
	hellos  int

	ctrl   packet.CtrlPacket
	ctrlAt time.Time
	gotCtl bool
}

func (l *fakeLink) Init(ctx context.Context) error { return nil }

func (l *fakeLink) Send(typ packet.Type, payload packet.Payload) bool {
	l.lock.Lock()
	defer l.lock.Unlock()
	switch p := payload.(type) {
	case *packet.CtrlPacket:
		c := *p
		payload = &c
	case *packet.StatePacket:
		s := *p
		payload = &s
	}
	l.sent = append(l.sent, sentFrame{typ: typ, payload: payload})
	return true
}

func (l *fakeLink) frames(typ packet.Type) []packet.Payload {
	l.lock.Lock()
	defer l.lock.Unlock()
	var res []packet.Payload
	for _, f := range l.sent {
		if f.typ == typ {
			res = append(res, f.payload)
		}
	}
	return res
}

func (l *fakeLink) Stats() bench.Reading { return l.reading }
func (l *fakeLink) Peers() []transport.PeerInfo { return l.peers }
func (l *fakeLink) Dropped() uint64 { return 0 }
func (l *fakeLink) Update() {}
func (l *fakeLink) Close() error { return nil }
func (l *fakeLink) SayHello() bool {
	l.hellos++
	return true
}

func (l *fakeLink) LastCtrl() (packet.CtrlPacket, time.Time, bool) {
	return l.ctrl, l.ctrlAt, l.gotCtl
}

type fakeReporter struct {
	stats  []*msgs.LinkStats
	states []*msgs.State
}

func (r *fakeReporter) PublishStats(m *msgs.LinkStats) { r.stats = append(r.stats, m) }
func (r *fakeReporter) PublishState(m *msgs.State) { r.states = append(r.states, m) }
