package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	s := &FileStore{Path: filepath.Join(t.TempDir(), "eeprom"), Offset: 4}
	_, err := s.ReadID()
	require.Equal(t, ErrNotProvisioned, err)

	require.NoError(t, s.WriteID(3))
	id, err := s.ReadID()
	require.NoError(t, err)
	require.EqualValues(t, 3, id)

	data, err := os.ReadFile(s.Path)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 0, 3}, data)
}

func TestFileStoreShortFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eeprom")
	require.NoError(t, os.WriteFile(path, []byte{1}, 0644))
	_, err := (&FileStore{Path: path, Offset: 2}).ReadID()
	require.Equal(t, ErrNotProvisioned, err)
}

type countingStore struct {
	id     uint8
	reads  int
	writes int
}

func (s *countingStore) ReadID() (uint8, error) {
	s.reads++
	return s.id, nil
}

func (s *countingStore) WriteID(id uint8) error {
	s.writes++
	s.id = id
	return nil
}

func TestResolver(t *testing.T) {
	testCases := []struct {
		name     string
		stored   uint8
		override *uint8
		expect   uint8
		writes   int
	}{
		{"stored", 2, nil, 2, 0},
		{"override", 2, func() *uint8 { v := uint8(7); return &v }(), 7, 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := &countingStore{id: tc.stored}
			r := NewResolver(store)
			r.Override = tc.override
			for i := 0; i < 3; i++ {
				id, err := r.AgentID()
				require.NoError(t, err)
				require.Equal(t, tc.expect, id)
			}
			require.Equal(t, 1, store.reads)
			require.Equal(t, tc.writes, store.writes)
		})
	}
}
