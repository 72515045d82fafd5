// Package env provides the configuration of link nodes from environment
// variables and command line flags.
package env

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robotalks/fleetlink/pkg/link/transport"
	"github.com/robotalks/fleetlink/pkg/netrole"
)

// Hardware backends.
const (
	HardwareSim  = "sim"
	HardwareHost = "host"
)

// Actuation modes of agents.
const (
	ActuationPattern = "pattern"
	ActuationFollow  = "follow"
	ActuationOff     = "off"
)

// Cadences are the periods of the node tasks.
type Cadences struct {
	Ctrl          time.Duration
	Summary       time.Duration
	Peers         time.Duration
	Telemetry     time.Duration
	TelemetryPoll time.Duration
	Actuation     time.Duration
	Hello         time.Duration
	CtrlTimeout   time.Duration
	PumpYield     time.Duration
}

// Config provides all options of a link node.
type Config struct {
	Role     string
	NodeID   string
	Hardware string

	// AgentID is written to the identity store when not negative.
	AgentID        int
	IdentityPath   string
	IdentityOffset int64

	SSID        string
	Passphrase  string
	Coordinator string
	Gateway     string
	Subnet      string
	MaxPeers    int

	// Address overrides the address to bind (coordinator) or dial (agent).
	Address     string
	Port        int
	PollTimeout time.Duration
	PeerTTL     time.Duration
	Window      int

	Cadences  Cadences
	Actuation string
	ArmESC    bool

	// MQTTBrokerURL enables the telemetry bridge.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
}

var defaultConfig = Config{
	Role:         string(netrole.RoleAgent),
	Hardware:     HardwareSim,
	AgentID:      -1,
	IdentityPath: "/var/lib/fleetlink/eeprom",
	SSID:         netrole.DefaultSSID,
	Coordinator:  netrole.DefaultCoordinator.String(),
	Gateway:      netrole.DefaultGateway.String(),
	Subnet:       netrole.DefaultSubnet.String(),
	MaxPeers:     netrole.DefaultMaxPeers,
	Port:         transport.DefaultPort,
	PollTimeout:  transport.DefaultPollTimeout,
	PeerTTL:      transport.DefaultPeerTTL,
	Window:       100,
	Cadences: Cadences{
		Ctrl:          20 * time.Millisecond,
		Summary:       5 * time.Second,
		Peers:         500 * time.Millisecond,
		Telemetry:     500 * time.Millisecond,
		TelemetryPoll: 10 * time.Millisecond,
		Actuation:     10 * time.Millisecond,
		Hello:         time.Second,
		CtrlTimeout:   500 * time.Millisecond,
		PumpYield:     time.Millisecond,
	},
	Actuation: ActuationPattern,
}

func init() {
	loadEnv(&defaultConfig, os.Getenv)
}

func loadEnv(c *Config, getenv func(string) string) {
	str := func(name string, v *string) {
		if val := getenv(name); val != "" {
			*v = val
		}
	}
	str("FLEETLINK_ROLE", &c.Role)
	str("FLEETLINK_NODE_ID", &c.NodeID)
	str("FLEETLINK_HARDWARE", &c.Hardware)
	str("FLEETLINK_ID_STORE", &c.IdentityPath)
	str("FLEETLINK_SSID", &c.SSID)
	str("FLEETLINK_PASSPHRASE", &c.Passphrase)
	str("FLEETLINK_COORDINATOR", &c.Coordinator)
	str("FLEETLINK_ADDRESS", &c.Address)
	str("FLEETLINK_ACTUATION", &c.Actuation)
	str("FLEETLINK_MQTT_URL", &c.MQTTBrokerURL)
	if val := getenv("FLEETLINK_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.Port = port
		}
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	SetupFlagSet(flag.CommandLine, &defaultConfig)
}

// SetupFlagSet binds the options of c to fs.
func SetupFlagSet(fs *flag.FlagSet, c *Config) {
	fs.StringVar(&c.Role, "role", c.Role, "Node role: coordinator or agent")
	fs.StringVar(&c.NodeID, "id", c.NodeID, "Node ID, machine id by default")
	fs.StringVar(&c.Hardware, "hardware", c.Hardware, "Hardware backend: sim or host")
	fs.IntVar(&c.AgentID, "write-agent-id", c.AgentID, "Provision the agent id before reading it")
	fs.StringVar(&c.IdentityPath, "id-store", c.IdentityPath, "Identity store file")
	fs.Int64Var(&c.IdentityOffset, "id-offset", c.IdentityOffset, "Offset of the agent id in the identity store")
	fs.StringVar(&c.SSID, "ssid", c.SSID, "Wireless network name")
	fs.StringVar(&c.Passphrase, "passphrase", c.Passphrase, "Wireless network passphrase")
	fs.StringVar(&c.Coordinator, "coordinator", c.Coordinator, "Coordinator address")
	fs.StringVar(&c.Gateway, "gateway", c.Gateway, "Network gateway")
	fs.StringVar(&c.Subnet, "subnet", c.Subnet, "Network subnet mask")
	fs.IntVar(&c.MaxPeers, "max-peers", c.MaxPeers, "Maximum number of agents")
	fs.StringVar(&c.Address, "addr", c.Address, "Address to bind or dial instead of the derived one")
	fs.IntVar(&c.Port, "port", c.Port, "Link UDP port")
	fs.DurationVar(&c.PollTimeout, "poll-timeout", c.PollTimeout, "Receive poll timeout")
	fs.DurationVar(&c.PeerTTL, "peer-ttl", c.PeerTTL, "Forget agents silent for this long")
	fs.IntVar(&c.Window, "window", c.Window, "Benchmark window size")
	fs.DurationVar(&c.Cadences.Ctrl, "ctrl-period", c.Cadences.Ctrl, "Control command period")
	fs.DurationVar(&c.Cadences.Summary, "summary-period", c.Cadences.Summary, "Link summary period")
	fs.DurationVar(&c.Cadences.Peers, "peers-period", c.Cadences.Peers, "Peer listing period")
	fs.DurationVar(&c.Cadences.Telemetry, "telemetry-period", c.Cadences.Telemetry, "Telemetry period")
	fs.DurationVar(&c.Cadences.Actuation, "actuation-period", c.Cadences.Actuation, "Actuation period")
	fs.DurationVar(&c.Cadences.CtrlTimeout, "ctrl-timeout", c.Cadences.CtrlTimeout, "Return to neutral without control for this long")
	fs.StringVar(&c.Actuation, "actuation", c.Actuation, "Agent actuation: pattern, follow or off")
	fs.BoolVar(&c.ArmESC, "arm-esc", c.ArmESC, "Arm the ESCs in follow mode")
	fs.StringVar(&c.MQTTBrokerURL, "mqtt", c.MQTTBrokerURL, "MQTT broker URL, bridge disabled when empty")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NodeRole parses the role.
func (c *Config) NodeRole() (netrole.Role, error) {
	return netrole.ParseRole(c.Role)
}

// ID returns the node id, the machine id when not configured.
func (c *Config) ID() string {
	if c.NodeID != "" {
		return c.NodeID
	}
	return MachineID()
}

// Validate checks the options.
func (c *Config) Validate() error {
	if _, err := c.NodeRole(); err != nil {
		return err
	}
	switch c.Hardware {
	case HardwareSim, HardwareHost:
	default:
		return fmt.Errorf("invalid hardware %q", c.Hardware)
	}
	switch c.Actuation {
	case ActuationPattern, ActuationFollow, ActuationOff:
	default:
		return fmt.Errorf("invalid actuation %q", c.Actuation)
	}
	if c.AgentID > 254 {
		return fmt.Errorf("agent id %d out of range", c.AgentID)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.PeerTTL < transport.MinPeerTTL {
		return fmt.Errorf("peer ttl %v below %v", c.PeerTTL, transport.MinPeerTTL)
	}
	if _, err := c.NetworkConfig(); err != nil {
		return err
	}
	return nil
}

func parseIPv4(name, s string) (net.IP, error) {
	ip := net.ParseIP(strings.TrimSpace(s)).To4()
	if ip == nil {
		return nil, fmt.Errorf("invalid %s %q", name, s)
	}
	return ip, nil
}

// NetworkConfig builds the role negotiator settings.
func (c *Config) NetworkConfig() (netrole.Config, error) {
	conf := netrole.DefaultConfig()
	conf.SSID, conf.Passphrase, conf.MaxPeers = c.SSID, c.Passphrase, c.MaxPeers
	var err error
	if conf.Coordinator, err = parseIPv4("coordinator", c.Coordinator); err != nil {
		return conf, err
	}
	if conf.Gateway, err = parseIPv4("gateway", c.Gateway); err != nil {
		return conf, err
	}
	if conf.Subnet, err = parseIPv4("subnet", c.Subnet); err != nil {
		return conf, err
	}
	return conf, nil
}

// TransportConfig builds the link transport settings.
func (c *Config) TransportConfig() transport.Config {
	conf := transport.DefaultConfig()
	conf.Port = c.Port
	conf.MaxPeers = c.MaxPeers
	conf.PollTimeout = c.PollTimeout
	conf.PeerTTL = c.PeerTTL
	conf.Window = c.Window
	conf.Address = c.Address
	return conf
}
