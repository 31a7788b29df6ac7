package snapshot

import (
	"encoding/binary"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vecdb/internal/adapter/store"
	"vecdb/internal/domain"
)

func TestRoundTrip(t *testing.T) {
	region := store.NewMemoryStore().Meta()
	want := domain.Snapshot{
		Owner:      domain.IdentityPtr("alice"),
		Controller: domain.IdentityPtr("controller-1"),
		InstanceID: uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
	}
	require.NoError(t, Serialize(region, want))

	got, err := Restore(region)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRoundTripNilIdentities(t *testing.T) {
	region := store.NewMemoryStore().Meta()
	require.NoError(t, Serialize(region, domain.Snapshot{}))

	got, err := Restore(region)
	require.NoError(t, err)
	assert.Nil(t, got.Owner)
	assert.Nil(t, got.Controller)
}

func TestLayout(t *testing.T) {
	region := store.NewMemoryStore().Meta()
	require.NoError(t, Serialize(region, domain.Snapshot{Owner: domain.IdentityPtr("x")}))

	var header [4]byte
	_, err := region.ReadAt(header[:], 0)
	require.NoError(t, err)
	size := binary.LittleEndian.Uint32(header[:])

	body := make([]byte, size)
	_, err = region.ReadAt(body, 4)
	require.NoError(t, err)

	extra := make([]byte, 1)
	_, err = region.ReadAt(extra, 4+int64(size))
	assert.Error(t, err, "nothing should follow the first snapshot")
}

func TestOverwriteWithShorterSnapshot(t *testing.T) {
	region := store.NewMemoryStore().Meta()
	require.NoError(t, Serialize(region, domain.Snapshot{
		Owner:      domain.IdentityPtr("a-rather-long-owner-identity"),
		Controller: domain.IdentityPtr("a-rather-long-controller-identity"),
	}))
	require.NoError(t, Serialize(region, domain.Snapshot{Owner: domain.IdentityPtr("b")}))

	got, err := Restore(region)
	require.NoError(t, err)
	require.NotNil(t, got.Owner)
	assert.Equal(t, domain.Identity("b"), *got.Owner)
	assert.Nil(t, got.Controller)
}

func TestRestoreEmptyRegion(t *testing.T) {
	_, err := Restore(store.NewMemoryStore().Meta())
	assert.ErrorIs(t, err, domain.ErrNoSnapshot)
}

func TestRestoreCorrupt(t *testing.T) {
	cases := map[string][]byte{
		"short prefix":   {0x01, 0x00},
		"zero length":    {0, 0, 0, 0},
		"truncated body": {0x10, 0, 0, 0, 0x81},
		"huge length":    {0xff, 0xff, 0xff, 0xff},
		"bad encoding":   {0x01, 0, 0, 0, 0xc1},
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			region := store.NewMemoryStore().Meta()
			_, err := region.WriteAt(raw, 0)
			require.NoError(t, err)

			_, err = Restore(region)
			assert.ErrorIs(t, err, domain.ErrCorruptSnapshot)
		})
	}
}
