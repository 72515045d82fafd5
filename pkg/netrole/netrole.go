// Package netrole brings up the wireless network for the role of a node.
package netrole

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/golang/glog"
)

// Role is the part a node plays on the link.
type Role string

// Roles.
const (
	RoleCoordinator Role = "coordinator"
	RoleAgent       Role = "agent"
)

// ParseRole parses a role name.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleCoordinator, RoleAgent:
		return r, nil
	}
	return "", fmt.Errorf("invalid role %q", s)
}

// Defaults of the network topology.
var (
	DefaultCoordinator = net.IPv4(192, 168, 4, 1)
	DefaultGateway     = net.IPv4(192, 168, 4, 0)
	DefaultSubnet      = net.IPv4(255, 255, 255, 0)
)

// Default settings.
const (
	DefaultSSID          = "fleetlink"
	DefaultMaxPeers      = 4
	DefaultRetryInterval = 500 * time.Millisecond
)

// APConfig configures the network hosted by the coordinator.
type APConfig struct {
	SSID       string
	Passphrase string
	Address    net.IP
	Gateway    net.IP
	Subnet     net.IP
	MaxPeers   int
}

// StationConfig configures an agent joining the network.
type StationConfig struct {
	SSID       string
	Passphrase string
	Address    net.IP
	Gateway    net.IP
	Subnet     net.IP
}

// AccessPoint hosts the network.
type AccessPoint interface {
	Host(ctx context.Context, conf APConfig) error
}

// Station joins the network.
type Station interface {
	Join(ctx context.Context, conf StationConfig) error
	Associated() bool
}

// Config is the network settings shared by both roles.
type Config struct {
	SSID          string
	Passphrase    string
	Coordinator   net.IP
	Gateway       net.IP
	Subnet        net.IP
	MaxPeers      int
	RetryInterval time.Duration
}

// DefaultConfig returns the default topology.
func DefaultConfig() Config {
	return Config{
		SSID:          DefaultSSID,
		Coordinator:   DefaultCoordinator,
		Gateway:       DefaultGateway,
		Subnet:        DefaultSubnet,
		MaxPeers:      DefaultMaxPeers,
		RetryInterval: DefaultRetryInterval,
	}
}

// AgentAddress derives the static address of an agent: the gateway with
// the host octet replaced by agentID+1.
func AgentAddress(gateway net.IP, agentID uint8) (net.IP, error) {
	gw := gateway.To4()
	if gw == nil {
		return nil, fmt.Errorf("gateway %v is not IPv4", gateway)
	}
	host := int(agentID) + 1
	if host > 254 {
		return nil, fmt.Errorf("agent id %d out of range", agentID)
	}
	return net.IPv4(gw[0], gw[1], gw[2], byte(host)), nil
}

// Negotiator sets the node up for its role.
type Negotiator struct {
	Config
	AP      AccessPoint
	Station Station
}

// NewNegotiator creates a Negotiator.
func NewNegotiator(conf Config, ap AccessPoint, station Station) *Negotiator {
	if conf.RetryInterval <= 0 {
		conf.RetryInterval = DefaultRetryInterval
	}
	if conf.MaxPeers <= 0 {
		conf.MaxPeers = DefaultMaxPeers
	}
	return &Negotiator{Config: conf, AP: ap, Station: station}
}

// LocalAddress returns the address the node takes in the role.
func (n *Negotiator) LocalAddress(role Role, agentID uint8) (net.IP, error) {
	switch role {
	case RoleCoordinator:
		return n.Coordinator, nil
	case RoleAgent:
		addr, err := AgentAddress(n.Gateway, agentID)
		if err != nil {
			return nil, err
		}
		if addr.Equal(n.Coordinator) {
			return nil, fmt.Errorf("agent id %d collides with coordinator %v", agentID, n.Coordinator)
		}
		return addr, nil
	}
	return nil, fmt.Errorf("invalid role %q", role)
}

// Setup hosts or joins the network. For agents it blocks until the
// station is associated; only ctx ends the wait.
func (n *Negotiator) Setup(ctx context.Context, role Role, agentID uint8) error {
	addr, err := n.LocalAddress(role, agentID)
	if err != nil {
		return err
	}
	if role == RoleCoordinator {
		return n.AP.Host(ctx, APConfig{
			SSID:       n.SSID,
			Passphrase: n.Passphrase,
			Address:    addr,
			Gateway:    n.Gateway,
			Subnet:     n.Subnet,
			MaxPeers:   n.MaxPeers,
		})
	}

	if err := n.Station.Join(ctx, StationConfig{
		SSID:       n.SSID,
		Passphrase: n.Passphrase,
		Address:    addr,
		Gateway:    n.Gateway,
		Subnet:     n.Subnet,
	}); err != nil {
		return err
	}
	ticker := time.NewTicker(n.RetryInterval)
	defer ticker.Stop()
	for attempts := 1; !n.Station.Associated(); attempts++ {
		glog.V(1).Infof("waiting for association with %s (%d)", n.SSID, attempts)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	glog.Infof("associated with %s as %v", n.SSID, addr)
	return nil
}
