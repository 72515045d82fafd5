package node

import (
	"io"
	"net"
	"os"

	"github.com/golang/glog"

	"github.com/robotalks/fleetlink/pkg/bridge/msgs"
	"github.com/robotalks/fleetlink/pkg/env"
	fx "github.com/robotalks/fleetlink/pkg/framework"
	"github.com/robotalks/fleetlink/pkg/link/bench"
	"github.com/robotalks/fleetlink/pkg/link/packet"
	"github.com/robotalks/fleetlink/pkg/link/transport"
)

// CoordinatorLink is the coordinator side of the transport.
type CoordinatorLink interface {
	Send(typ packet.Type, payload packet.Payload) bool
	Stats() bench.Reading
	Peers() []transport.PeerInfo
	Dropped() uint64
}

// Coordinator streams control packets to the agents and reports the
// link.
type Coordinator struct {
	Link     CoordinatorLink
	Uptime   *fx.Uptime
	Cadences env.Cadences
	Out      io.Writer
	Reporter Reporter

	ctrl packet.CtrlPacket
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(link CoordinatorLink, uptime *fx.Uptime, cadences env.Cadences) *Coordinator {
	return &Coordinator{Link: link, Uptime: uptime, Cadences: cadences, Out: os.Stdout}
}

// Ctrl returns the last control packet.
func (c *Coordinator) Ctrl() packet.CtrlPacket {
	return c.ctrl
}

// AddToLoop implements LoopAdder.
func (c *Coordinator) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvSense, fx.ControlFunc(c.takeSetpoints))
	loop.AddPeriodic(fx.PrLvControl, c.Cadences.Ctrl, fx.ControlFunc(c.emitCtrl))
	loop.AddPeriodic(fx.PrLvReport, c.Cadences.Summary, fx.ControlFunc(c.summary))
	loop.AddPeriodic(fx.PrLvReport, c.Cadences.Peers, fx.ControlFunc(c.listPeers))
}

func (c *Coordinator) takeSetpoints(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mc fx.MessageProcessingContext) {
		if sp, ok := mc.CurrentMessage().(*msgs.Setpoint); ok {
			sp.Apply(&c.ctrl)
			mc.MessageTaken()
		}
	}))
	return nil
}

func (c *Coordinator) emitCtrl(cc fx.ControlContext) error {
	c.ctrl.ID++
	c.ctrl.Time = c.Uptime.Micros()
	if !c.Link.Send(packet.TypeCtrl, &c.ctrl) {
		glog.V(3).Infof("ctrl %d not sent", c.ctrl.ID)
	}
	return nil
}

func (c *Coordinator) summary(cc fx.ControlContext) error {
	r := c.Link.Stats()
	printSummary(c.Out, r)
	if c.Reporter != nil {
		c.Reporter.PublishStats(msgs.NewLinkStats("coordinator", r, c.Link.Dropped()).AddPeers(cc.Time(), c.Link.Peers()...))
	}
	return nil
}

func (c *Coordinator) listPeers(cc fx.ControlContext) error {
	printPeers(c.Out, c.Link.Peers())
	return nil
}

// HandlePacket implements transport.PacketHandler, forwarding agent
// states to the Reporter.
func (c *Coordinator) HandlePacket(from net.Addr, frame packet.Frame) {
	st, ok := frame.Payload.(*packet.StatePacket)
	if !ok || c.Reporter == nil {
		return
	}
	agentID := -1
	for _, p := range c.Link.Peers() {
		if p.Addr == from.String() {
			agentID = p.AgentID
			break
		}
	}
	c.Reporter.PublishState(msgs.NewState(agentID, st))
}
