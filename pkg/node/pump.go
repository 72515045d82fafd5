package node

import (
	"context"
	"time"

	"github.com/robotalks/fleetlink/pkg/framework"
	"github.com/robotalks/fleetlink/pkg/link/transport"
)

// NetworkPump keeps draining the transport.
type NetworkPump struct {
	Transport transport.Transport
	Clock     framework.Clock
	Yield     time.Duration
}

// Name implements Named.
func (p *NetworkPump) Name() string { return "pump" }

// Run implements Runnable.
func (p *NetworkPump) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		p.Transport.Update()
		p.Clock.Sleep(p.Yield)
	}
}
