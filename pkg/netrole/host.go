package netrole

import (
	"context"
	"net"

	"github.com/golang/glog"
)

// InterfaceStation treats the node as associated once its address is
// configured on a local interface. Association itself is carried out by
// the system network manager.
type InterfaceStation struct {
	// Addrs lists local addresses, net.InterfaceAddrs by default.
	Addrs func() ([]net.Addr, error)

	address net.IP
}

// Join implements Station.
func (s *InterfaceStation) Join(ctx context.Context, conf StationConfig) error {
	s.address = conf.Address
	glog.Infof("joining %s as %v", conf.SSID, conf.Address)
	return nil
}

// Associated implements Station.
func (s *InterfaceStation) Associated() bool {
	addrsFn := s.Addrs
	if addrsFn == nil {
		addrsFn = net.InterfaceAddrs
	}
	addrs, err := addrsFn()
	if err != nil {
		glog.Warningf("list interface addresses: %v", err)
		return false
	}
	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok && ipNet.IP.Equal(s.address) {
			return true
		}
	}
	return false
}

// InterfaceAccessPoint expects the access point to be run by the system
// (e.g. hostapd) and only reports the settings.
type InterfaceAccessPoint struct{}

// Host implements AccessPoint.
func (InterfaceAccessPoint) Host(ctx context.Context, conf APConfig) error {
	glog.Infof("hosting %s at %v/%v, up to %d peers", conf.SSID, conf.Address, net.IPMask(conf.Subnet.To4()), conf.MaxPeers)
	return nil
}
