package mqtt

import (
	"github.com/golang/glog"

	"github.com/robotalks/fleetlink/pkg/bridge/msgs"
	fx "github.com/robotalks/fleetlink/pkg/framework"
)

// Bridge publishes the link of a node to MQTT and, on the coordinator,
// feeds setpoints from the broker into the loop.
type Bridge struct {
	*Presence
	// AcceptSetpoints subscribes the setpoint topic when added to a loop.
	AcceptSetpoints bool
}

// NewBridge creates a Bridge announcing the node.
func NewBridge(brokerURL string, info NodeInfo) (*Bridge, error) {
	p, err := NewPresence(brokerURL, info)
	if err != nil {
		return nil, err
	}
	return &Bridge{Presence: p}, nil
}

// PublishStats publishes the link summary.
func (b *Bridge) PublishStats(stats *msgs.LinkStats) {
	b.publish(TopicStats, stats)
}

// PublishState publishes agent telemetry.
func (b *Bridge) PublishState(state *msgs.State) {
	b.publish(TopicState, state)
}

func (b *Bridge) publish(kind string, msg fx.Message) {
	if _, err := b.Queue.PubMsg(b.Info.Ref.Topic(kind), msg); err != nil {
		glog.Errorf("publish %s: %v", kind, err)
	}
}

// SubscribeSetpoints posts every Setpoint received for this node to ctl.
func (b *Bridge) SubscribeSetpoints(ctl fx.LoopControl) *Subscription {
	return b.Queue.Sub(b.Info.Ref.Topic(TopicSetpoint), func(topic string, payload []byte) {
		msg, err := msgs.DecodeMessage(payload)
		if err != nil {
			glog.Warningf("%s: bad message: %v", topic, err)
			return
		}
		sp, ok := msg.(*msgs.Setpoint)
		if !ok {
			glog.Warningf("%s: unexpected %T", topic, msg)
			return
		}
		glog.V(1).Infof("setpoint servo=%v throttle=%v", sp.Servo, sp.Throttle)
		ctl.PostMessage(sp)
		ctl.TriggerNext()
	})
}

// AddToLoop implements LoopAdder.
func (b *Bridge) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(fx.NamedRun("mqtt", b.Presence))
	if b.AcceptSetpoints {
		b.SubscribeSetpoints(loop)
	}
}
