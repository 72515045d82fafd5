package node

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/fleetlink/pkg/env"
	fx "github.com/robotalks/fleetlink/pkg/framework"
	"github.com/robotalks/fleetlink/pkg/identity"
	"github.com/robotalks/fleetlink/pkg/netrole"
	"github.com/robotalks/fleetlink/pkg/sim"
)

func newTestNode(t *testing.T, modify func(*env.Config)) *Node {
	conf := env.NewConfig()
	conf.Address, conf.Port = "127.0.0.1", 0
	modify(conf)
	clock := fx.SystemClock{}
	n, err := NewWith(conf, clock, SimHardware(clock))
	require.NoError(t, err)
	return n
}

func TestBootLoopback(t *testing.T) {
	ctx := context.Background()
	coord := newTestNode(t, func(c *env.Config) { c.Role = "coordinator" })
	require.NoError(t, coord.Boot(ctx))
	defer coord.Close()
	require.NotNil(t, coord.Coordinator)
	require.Nil(t, coord.Agent)
	require.Equal(t, "192.168.4.1", coord.Hardware.AP.(*sim.AccessPoint).Config().Address.String())
	port := coord.Server.LocalAddr().(*net.UDPAddr).Port

	agent := newTestNode(t, func(c *env.Config) {
		c.Role, c.Port, c.AgentID = "agent", port, 2
	})
	require.NoError(t, agent.Boot(ctx))
	defer agent.Close()
	require.Equal(t, uint8(2), agent.AgentID)
	require.Equal(t, "agent-2", agent.Name())
	require.Equal(t, "192.168.4.3", agent.Hardware.Station.(*sim.Station).Config().Address.String())
	require.True(t, agent.Sensors.IMUEnabled())
	require.True(t, agent.Rig.XServo.Armed())

	require.Eventually(t, func() bool {
		coord.Server.Update()
		peers := coord.Server.Peers()
		return len(peers) == 1 && peers[0].AgentID == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBootUnprovisionedAgent(t *testing.T) {
	n := newTestNode(t, func(c *env.Config) { c.Role = string(netrole.RoleAgent) })
	err := n.Boot(context.Background())
	require.ErrorIs(t, err, identity.ErrNotProvisioned)
	require.NoError(t, n.Close())
}

func TestNewInvalidConfig(t *testing.T) {
	conf := env.NewConfig()
	conf.Actuation = "spin"
	_, err := New(conf)
	require.Error(t, err)
}
