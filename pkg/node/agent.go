package node

import (
	"io"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/fleetlink/pkg/actuator"
	"github.com/robotalks/fleetlink/pkg/bridge/msgs"
	"github.com/robotalks/fleetlink/pkg/env"
	fx "github.com/robotalks/fleetlink/pkg/framework"
	"github.com/robotalks/fleetlink/pkg/link/bench"
	"github.com/robotalks/fleetlink/pkg/link/packet"
)

// AgentLink is the agent side of the transport.
type AgentLink interface {
	SayHello() bool
	LastCtrl() (packet.CtrlPacket, time.Time, bool)
	Stats() bench.Reading
	Dropped() uint64
}

// Agent drives the outputs and keeps the coordinator aware of it.
type Agent struct {
	Link     AgentLink
	Rig      *actuator.Rig
	Uptime   *fx.Uptime
	Mode     string
	ArmESC   bool
	Cadences env.Cadences
	Out      io.Writer
	Reporter Reporter

	following bool
}

// NewAgent creates an Agent.
func NewAgent(link AgentLink, rig *actuator.Rig, uptime *fx.Uptime, conf *env.Config) *Agent {
	return &Agent{
		Link:     link,
		Rig:      rig,
		Uptime:   uptime,
		Mode:     conf.Actuation,
		ArmESC:   conf.ArmESC,
		Cadences: conf.Cadences,
		Out:      os.Stdout,
	}
}

// Arm arms the outputs used by the mode.
func (a *Agent) Arm() error {
	var errs fx.AggregatedError
	switch a.Mode {
	case env.ActuationPattern:
		errs.Add(a.Rig.ArmServos(true))
	case env.ActuationFollow:
		errs.Add(a.Rig.ArmServos(true), a.Rig.ArmESCs(a.ArmESC))
	}
	return errs.Aggregate()
}

// AddToLoop implements LoopAdder.
func (a *Agent) AddToLoop(loop *fx.Loop) {
	if a.Mode != env.ActuationOff {
		loop.AddPeriodic(fx.PrLvAcuate, a.Cadences.Actuation, fx.ControlFunc(a.actuate))
	}
	loop.AddPeriodic(fx.PrLvReport, a.Cadences.Hello, fx.ControlFunc(a.hello))
	loop.AddPeriodic(fx.PrLvReport, a.Cadences.Summary, fx.ControlFunc(a.summary))
}

func (a *Agent) actuate(cc fx.ControlContext) error {
	switch a.Mode {
	case env.ActuationPattern:
		return a.Rig.ApplyPattern(a.Uptime.Since())
	case env.ActuationFollow:
		ctrl, at, ok := a.Link.LastCtrl()
		if !ok || cc.Time().Sub(at) > a.Cadences.CtrlTimeout {
			if a.following {
				glog.Warning("control lost, neutral")
				a.following = false
			}
			return a.Rig.Neutral()
		}
		if !a.following {
			glog.Infof("following control from %d", ctrl.ID)
			a.following = true
		}
		return a.Rig.ApplyCtrl(&ctrl)
	}
	return nil
}

func (a *Agent) hello(cc fx.ControlContext) error {
	if !a.Link.SayHello() {
		glog.V(2).Info("hello not sent")
	}
	return nil
}

func (a *Agent) summary(cc fx.ControlContext) error {
	r := a.Link.Stats()
	printSummary(a.Out, r)
	if a.Reporter != nil {
		a.Reporter.PublishStats(msgs.NewLinkStats("agent", r, a.Link.Dropped()))
	}
	return nil
}
