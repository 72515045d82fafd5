package sim

import (
	"context"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/fleetlink/pkg/identity"
	"github.com/robotalks/fleetlink/pkg/netrole"
)

// Station associates after a number of polls.
type Station struct {
	// Polls before association succeeds.
	Polls int

	conf  netrole.StationConfig
	polls int
	lock  sync.Mutex
}

// Join implements netrole.Station.
func (s *Station) Join(ctx context.Context, conf netrole.StationConfig) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.conf, s.polls = conf, 0
	glog.Infof("sim: joining %s as %v", conf.SSID, conf.Address)
	return nil
}

// Associated implements netrole.Station.
func (s *Station) Associated() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.polls++
	return s.polls > s.Polls
}

// Config returns the last joined config.
func (s *Station) Config() netrole.StationConfig {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.conf
}

// AccessPoint records the hosted network.
type AccessPoint struct {
	conf netrole.APConfig
	lock sync.Mutex
}

// Host implements netrole.AccessPoint.
func (a *AccessPoint) Host(ctx context.Context, conf netrole.APConfig) error {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.conf = conf
	glog.Infof("sim: hosting %s at %v", conf.SSID, conf.Address)
	return nil
}

// Config returns the hosted config.
func (a *AccessPoint) Config() netrole.APConfig {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.conf
}

// Store is an in-memory identity store.
type Store struct {
	ID          uint8
	Provisioned bool
	lock        sync.Mutex
}

// ReadID implements identity.Store.
func (s *Store) ReadID() (uint8, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if !s.Provisioned {
		return 0, identity.ErrNotProvisioned
	}
	return s.ID, nil
}

// WriteID implements identity.Store.
func (s *Store) WriteID(id uint8) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.ID, s.Provisioned = id, true
	return nil
}
