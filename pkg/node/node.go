// Package node assembles a coordinator or agent from its configuration
// and runs its tasks.
package node

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/golang/glog"

	"github.com/robotalks/fleetlink/pkg/actuator"
	"github.com/robotalks/fleetlink/pkg/bridge/mqtt"
	"github.com/robotalks/fleetlink/pkg/bridge/msgs"
	"github.com/robotalks/fleetlink/pkg/env"
	fx "github.com/robotalks/fleetlink/pkg/framework"
	"github.com/robotalks/fleetlink/pkg/identity"
	"github.com/robotalks/fleetlink/pkg/link/packet"
	"github.com/robotalks/fleetlink/pkg/link/transport"
	"github.com/robotalks/fleetlink/pkg/netrole"
	"github.com/robotalks/fleetlink/pkg/sensors"
)

// Node is a booted coordinator or agent. It is created once and shared
// by all tasks.
type Node struct {
	Config   *env.Config
	Role     netrole.Role
	Hardware Hardware
	Clock    fx.Clock
	Uptime   *fx.Uptime

	Negotiator *netrole.Negotiator
	Identity   *identity.Resolver
	AgentID    uint8

	Transport transport.Transport
	Server    *transport.Server
	Client    *transport.Client

	Sensors *sensors.Producer
	Rig     *actuator.Rig
	Bridge  *mqtt.Bridge

	Coordinator *Coordinator
	Agent       *Agent
}

// New creates a Node on the system clock.
func New(conf *env.Config) (*Node, error) {
	clock := fx.SystemClock{}
	return NewWith(conf, clock, NewHardware(conf, clock))
}

// NewWith creates a Node on the given clock and hardware.
func NewWith(conf *env.Config, clock fx.Clock, hw Hardware) (*Node, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	role, _ := conf.NodeRole()
	netConf, _ := conf.NetworkConfig()
	n := &Node{
		Config:     conf,
		Role:       role,
		Hardware:   hw,
		Clock:      clock,
		Uptime:     fx.NewUptime(clock),
		Negotiator: netrole.NewNegotiator(netConf, hw.AP, hw.Station),
		Identity:   identity.NewResolver(hw.Store),
	}
	if conf.AgentID >= 0 {
		n.Identity.WithOverride(uint8(conf.AgentID))
	}
	return n, nil
}

// MustNew creates a Node or fails.
func MustNew(conf *env.Config) *Node {
	n, err := New(conf)
	if err != nil {
		log.Fatalln(err)
	}
	return n
}

// Boot resolves the identity, sets the network up and opens the
// transport.
func (n *Node) Boot(ctx context.Context) error {
	if n.Role == netrole.RoleAgent {
		id, err := n.Identity.AgentID()
		if err != nil {
			return fmt.Errorf("agent id: %w", err)
		}
		n.AgentID = id
		glog.Infof("agent %d", id)
	}
	if err := n.Negotiator.Setup(ctx, n.Role, n.AgentID); err != nil {
		return fmt.Errorf("network: %w", err)
	}

	tconf := n.Config.TransportConfig()
	tconf.Uptime = n.Uptime
	switch n.Role {
	case netrole.RoleCoordinator:
		n.Server = transport.NewServer(tconf)
		n.Transport = n.Server
		n.Coordinator = NewCoordinator(n.Server, n.Uptime, n.Config.Cadences)
		n.Server.Handler = n.Coordinator
	case netrole.RoleAgent:
		if tconf.Address == "" {
			tconf.Address = n.Negotiator.Coordinator.String()
		}
		hello := packet.HelloPacket{AgentID: n.AgentID}
		hello.SetHardware(env.HardwareID())
		n.Client = transport.NewClient(tconf, hello)
		n.Transport = n.Client

		n.Sensors = sensors.NewProducer()
		n.Sensors.Init(n.Hardware.IMU, n.Hardware.Barometer)
		n.Rig = actuator.NewRig(n.Hardware.PWM)
		n.Rig.Init()
		n.Agent = NewAgent(n.Client, n.Rig, n.Uptime, n.Config)
		if err := n.Agent.Arm(); err != nil {
			glog.Errorf("arm: %v", err)
		}
	}

	if url := n.Config.MQTTBrokerURL; url != "" {
		if err := n.setupBridge(url); err != nil {
			return fmt.Errorf("bridge: %w", err)
		}
	}
	return n.Transport.Init(ctx)
}

// MustBoot boots the Node or fails.
func (n *Node) MustBoot(ctx context.Context) *Node {
	if err := n.Boot(ctx); err != nil {
		log.Fatalln(err)
	}
	return n
}

func (n *Node) setupBridge(url string) error {
	info := mqtt.NodeInfo{
		Ref: mqtt.NodeRef{Role: string(n.Role), ID: n.Config.ID()},
		Meta: mqtt.NodeMeta{
			Description: "fleetlink " + string(n.Role),
			AgentID:     -1,
			Port:        n.Config.Port,
			Labels:      map[string]string{"hardware": n.Config.Hardware},
		},
	}
	if n.Role == netrole.RoleAgent {
		info.Meta.AgentID = int(n.AgentID)
		info.Meta.Labels["actuation"] = n.Config.Actuation
	}
	if addr, err := n.Negotiator.LocalAddress(n.Role, n.AgentID); err == nil {
		info.Meta.Address = addr.String()
	}
	bridge, err := mqtt.NewBridge(url, info)
	if err != nil {
		return err
	}
	bridge.AcceptSetpoints = n.Role == netrole.RoleCoordinator
	n.Bridge = bridge
	if n.Coordinator != nil {
		n.Coordinator.Reporter = bridge
	}
	if n.Agent != nil {
		n.Agent.Reporter = bridge
	}
	return nil
}

// AddToLoop implements LoopAdder.
func (n *Node) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(fx.Pinned(&NetworkPump{
		Transport: n.Transport,
		Clock:     n.Clock,
		Yield:     n.Config.Cadences.PumpYield,
	}))
	if n.Coordinator != nil {
		loop.Add(n.Coordinator)
	}
	if n.Agent != nil {
		telemetry := NewTelemetryProducer(n.Client, n.Sensors, n.Clock,
			n.Config.Cadences.TelemetryPoll, n.Config.Cadences.Telemetry)
		if n.Bridge != nil {
			telemetry.OnState = func(st *packet.StatePacket) {
				n.Bridge.PublishState(msgs.NewState(int(n.AgentID), st))
			}
		}
		loop.AddRunnable(telemetry)
		loop.Add(n.Agent)
	}
	if n.Bridge != nil {
		loop.Add(n.Bridge)
	}
}

// NewLoop creates the main loop of the Node.
func (n *Node) NewLoop() *fx.Loop {
	return fx.NewLoopWithClock(n.Clock).Add(n)
}

// Name returns the name of the Node.
func (n *Node) Name() string {
	if n.Role == netrole.RoleAgent {
		return string(n.Role) + "-" + strconv.Itoa(int(n.AgentID))
	}
	return string(n.Role)
}

// Close releases the transport.
func (n *Node) Close() error {
	if n.Transport == nil {
		return nil
	}
	return n.Transport.Close()
}
