package joystick

import (
	"flag"
	"time"
)

// Config defines the configurations for the controller.
type Config struct {
	DeviceIndex int
	Verbose     bool
	// Target is the ID of the coordinator receiving setpoints.
	Target string
	// Rate limits how often setpoints are published.
	Rate time.Duration
	Mapping
}

var defaultConfig = Config{
	DeviceIndex: -1,
	Rate:        50 * time.Millisecond,
	Mapping:     DefaultMapping,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.IntVar(&defaultConfig.DeviceIndex, "device", defaultConfig.DeviceIndex, "Device index, -1 for auto detection.")
	flag.BoolVar(&defaultConfig.Verbose, "verbose", defaultConfig.Verbose, "Print Joystick events.")
	flag.StringVar(&defaultConfig.Target, "target", defaultConfig.Target, "Coordinator ID.")
	flag.DurationVar(&defaultConfig.Rate, "rate", defaultConfig.Rate, "Minimum interval between setpoints.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewController creates a controller using the config.
func (c *Config) NewController(pub Publisher) *Controller {
	ctl := NewController(pub)
	ctl.DeviceIndex = c.DeviceIndex
	ctl.Verbose = c.Verbose
	ctl.Rate = c.Rate
	ctl.Mapping = c.Mapping
	return ctl
}
