// Package identity resolves the persistent agent id of a node.
package identity

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/golang/glog"
)

var (
	// ErrNotProvisioned indicates no id was ever written to the store.
	ErrNotProvisioned = errors.New("agent id not provisioned")
)

// Store is a byte addressable non-volatile store holding the id.
type Store interface {
	ReadID() (uint8, error)
	WriteID(uint8) error
}

// FileStore keeps the id as one byte at Offset of the file at Path,
// the way it sits in the EEPROM of a node.
type FileStore struct {
	Path   string
	Offset int64
}

// ReadID implements Store.
func (s *FileStore) ReadID() (uint8, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, ErrNotProvisioned
		}
		return 0, err
	}
	defer f.Close()
	var b [1]byte
	if _, err := f.ReadAt(b[:], s.Offset); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, ErrNotProvisioned
		}
		return 0, err
	}
	return b[0], nil
}

// WriteID implements Store.
func (s *FileStore) WriteID(id uint8) error {
	f, err := os.OpenFile(s.Path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteAt([]byte{id}, s.Offset); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Resolver reads the agent id once and caches it.
type Resolver struct {
	Store Store
	// Override is written to the store before the first read when set.
	Override *uint8

	once sync.Once
	id   uint8
	err  error
}

// NewResolver creates a Resolver over store.
func NewResolver(store Store) *Resolver {
	return &Resolver{Store: store}
}

// WithOverride provisions id on first use.
func (r *Resolver) WithOverride(id uint8) *Resolver {
	r.Override = &id
	return r
}

// AgentID returns the persisted id.
func (r *Resolver) AgentID() (uint8, error) {
	r.once.Do(func() {
		if r.Override != nil {
			if err := r.Store.WriteID(*r.Override); err != nil {
				r.err = fmt.Errorf("provision agent id: %w", err)
				return
			}
			glog.Infof("agent id %d provisioned", *r.Override)
		}
		r.id, r.err = r.Store.ReadID()
	})
	return r.id, r.err
}
