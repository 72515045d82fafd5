package node

import (
	"fmt"
	"io"

	"github.com/robotalks/fleetlink/pkg/bridge/msgs"
	"github.com/robotalks/fleetlink/pkg/link/bench"
	"github.com/robotalks/fleetlink/pkg/link/transport"
)

// Reporter receives link summaries and telemetry, e.g. the MQTT bridge.
type Reporter interface {
	PublishStats(*msgs.LinkStats)
	PublishState(*msgs.State)
}

func printSummary(w io.Writer, r bench.Reading) {
	fmt.Fprintf(w, "fps=%f, latency=%f, packet_lost=%d\n", r.FPS, r.Latency, r.Lost)
}

func printPeers(w io.Writer, peers []transport.PeerInfo) {
	for n, p := range peers {
		fmt.Fprintf(w, "[+] Device %d | HW: %s | IP: %s | agent %d\n", n, p.HardwareID, p.Addr, p.AgentID)
	}
}
