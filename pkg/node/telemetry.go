package node

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/fleetlink/pkg/framework"
	"github.com/robotalks/fleetlink/pkg/link/packet"
	"github.com/robotalks/fleetlink/pkg/link/transport"
	"github.com/robotalks/fleetlink/pkg/sensors"
)

// TelemetryProducer samples the sensors and sends the state at its
// cadence. The state packet is only touched by this task.
type TelemetryProducer struct {
	Transport transport.Transport
	Producer  *sensors.Producer
	Clock     framework.Clock
	Poll      time.Duration
	// OnState is called with every state sent.
	OnState func(*packet.StatePacket)

	cadence *framework.Cadence
}

// NewTelemetryProducer creates a TelemetryProducer.
func NewTelemetryProducer(t transport.Transport, p *sensors.Producer, clock framework.Clock, poll, period time.Duration) *TelemetryProducer {
	return &TelemetryProducer{
		Transport: t,
		Producer:  p,
		Clock:     clock,
		Poll:      poll,
		cadence:   framework.NewCadence(period),
	}
}

// Name implements Named.
func (p *TelemetryProducer) Name() string { return "telemetry" }

// Tick sends the state if the cadence is due at now.
func (p *TelemetryProducer) Tick(now time.Time) bool {
	if !p.cadence.Due(now) {
		return false
	}
	state := p.Producer.StatePacketGen()
	if p.Transport.Send(packet.TypeState, state) {
		glog.V(2).Infof("state sent: accel=%v alt=%.2f", state.Accel, state.Altitude)
	} else {
		glog.Warning("state not sent")
	}
	if p.OnState != nil {
		p.OnState(state)
	}
	return true
}

// Run implements Runnable.
func (p *TelemetryProducer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		p.Tick(p.Clock.Time())
		p.Clock.Sleep(p.Poll)
	}
}
