// Package joystick streams setpoints from a joystick to a coordinator.
package joystick

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/fleetlink/pkg/bridge/mqtt"
	"github.com/robotalks/fleetlink/pkg/bridge/msgs"
	fx "github.com/robotalks/fleetlink/pkg/framework"
	"github.com/robotalks/fleetlink/pkg/joystick/device"
)

// Publisher delivers setpoints.
type Publisher interface {
	PublishSetpoint(*msgs.Setpoint) error
}

// QueuePublisher publishes setpoints to a coordinator over MQTT.
type QueuePublisher struct {
	Queue  *mqtt.Queue
	Target mqtt.NodeRef
}

// PublishSetpoint implements Publisher.
func (p *QueuePublisher) PublishSetpoint(sp *msgs.Setpoint) error {
	_, err := p.Queue.PubMsg(p.Target.Topic(mqtt.TopicSetpoint), sp)
	return err
}

// Controller reads a joystick and publishes the setpoints.
type Controller struct {
	Publisher   Publisher
	DeviceIndex int
	Verbose     bool
	Rate        time.Duration
	Mapping     Mapping

	// Open opens the device, by index or detection when negative.
	Open func(index int) (device.Device, error)

	eventCh     chan device.Event
	device      device.Device
	deviceTimer <-chan time.Time

	servo    [2]float32
	throttle [2]float32
	changed  bool
}

// NewController creates a Controller.
func NewController(pub Publisher) *Controller {
	return &Controller{
		Publisher:   pub,
		DeviceIndex: defaultConfig.DeviceIndex,
		Verbose:     defaultConfig.Verbose,
		Rate:        defaultConfig.Rate,
		Mapping:     defaultConfig.Mapping,
		Open:        openDevice,
	}
}

func openDevice(index int) (device.Device, error) {
	if index >= 0 {
		return device.Open(index)
	}
	return device.DetectAndOpen(0)
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(fx.NamedRun("joystick", c))
	loop.AddController(fx.PrLvControl, c)
	loop.AddPeriodic(fx.PrLvAcuate, c.Rate, fx.ControlFunc(c.publish))
}

// Run implements Runnable.
func (c *Controller) Run(ctx context.Context) error {
	defer func() {
		if c.device != nil {
			c.device.Close()
		}
	}()
	loopCtl := fx.LoopCtlFrom(ctx)
	c.deviceTimer = time.After(0)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.deviceTimer:
			c.deviceTimer = nil
			js, err := c.Open(c.DeviceIndex)
			if err != nil {
				glog.Warningf("open joystick: %v", err)
			} else if js == nil {
				glog.V(1).Info("no joystick detected")
			}
			if err == nil && js != nil {
				glog.Infof("joystick %d %q opened: %d axes, %d buttons",
					js.Index(), js.Name(), js.AxisCount(), js.ButtonCount())
				c.device, c.eventCh = js, make(chan device.Event, 1)
				go c.pollJoystick(c.device, c.eventCh)
			} else {
				c.deviceTimer = time.After(time.Second)
			}
		case ev, ok := <-c.eventCh:
			if ok {
				loopCtl.PostMessage(&eventMsg{event: ev})
			} else {
				loopCtl.PostMessage(&eventMsg{lost: true})
				c.device.Close()
				c.device, c.eventCh = nil, nil
				c.deviceTimer = time.After(time.Second)
			}
			loopCtl.TriggerNext()
		}
	}
}

// Control implements Controller.
func (c *Controller) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		msg, ok := mctx.CurrentMessage().(*eventMsg)
		if !ok {
			return
		}
		mctx.MessageTaken()
		if msg.lost {
			glog.Warning("joystick lost, neutral")
			c.servo, c.throttle, c.changed = [2]float32{}, [2]float32{}, true
			return
		}
		if axis, ok := msg.event.(device.AxisEvent); ok {
			if c.Mapping.Apply(axis, &c.servo, &c.throttle) {
				c.changed = true
			}
		}
	}))
	return nil
}

// Setpoint returns the current setpoint.
func (c *Controller) Setpoint() *msgs.Setpoint {
	return msgs.NewSetpoint(c.servo, c.throttle)
}

func (c *Controller) publish(cc fx.ControlContext) error {
	if !c.changed {
		return nil
	}
	c.changed = false
	return c.Publisher.PublishSetpoint(c.Setpoint())
}

func (c *Controller) pollJoystick(dev device.Device, ch chan<- device.Event) {
	defer close(ch)
	for {
		ev, err := dev.ReadEvent()
		if err != nil {
			glog.Errorf("joystick read: %v", err)
			return
		}
		if c.Verbose {
			var prefix string
			if ev.IsInit() {
				prefix = "[INIT] "
			}
			switch evt := ev.(type) {
			case device.AxisEvent:
				glog.Infof(prefix+"axis %d: %d", evt.Index(), evt.Value())
			case device.ButtonEvent:
				glog.Infof(prefix+"button %d: %v", evt.Index(), evt.Pressed())
			}
		}
		ch <- ev
	}
}

type eventMsg struct {
	event device.Event
	lost  bool
}

func (m *eventMsg) NewMessage() fx.Message { return &eventMsg{} }
