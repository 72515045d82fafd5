package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

const appID = "fleetlink"

// MachineID retrieves the unique ID identifying the machine, falling back
// to the host name when the machine has no ID.
func MachineID() string {
	id, err := machineid.ID()
	if err == nil {
		return id
	}
	glog.Warningf("machine id unavailable: %v", err)
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "unknown"
}

// HardwareID is the application specific hardware identifier announced
// by agents. It doesn't expose the raw machine id.
func HardwareID() string {
	id, err := machineid.ProtectedID(appID)
	if err != nil {
		return MachineID()
	}
	return id
}
