package engine

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"heartystore/internal/layout"
	"heartystore/internal/store"
)

func TestScenarioA_BasicPutGet(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, Init(base, 0))

	oid, err := Put(base, 0, []byte("hello"))
	require.NoError(t, err)

	got, err := Get(base, 0, oid)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got)
}

func TestScenarioB_TooLarge(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, Init(base, 0))

	payload := make([]byte, store.BlockSize+1)
	_, err := Put(base, 0, payload)
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestScenarioC_ReplicaSync(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, Init(base, 1))

	oid1, err := Put(base, 1, []byte("abc"))
	require.NoError(t, err)

	replicaID, err := Replicate(base, 1)
	require.NoError(t, err)

	oid2, err := Put(base, 1, []byte("de"))
	require.NoError(t, err)

	requireDataFilesEqual(t, base, 1, replicaID)

	got1, err := Get(base, replicaID, oid1)
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), got1)

	got2, err := Get(base, replicaID, oid2)
	require.NoError(t, err)
	require.Equal(t, []byte("de"), got2)
}

func TestScenarioD_HACreationAndParity(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, Init(base, 1))
	require.NoError(t, Init(base, 2))
	require.NoError(t, Init(base, 3))

	_, err := Put(base, 1, []byte("X"))
	require.NoError(t, err)
	_, err = Put(base, 2, []byte("YY"))
	require.NoError(t, err)
	_, err = Put(base, 3, []byte("ZZZ"))
	require.NoError(t, err)

	groupID, err := HACreate(base, []uint32{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, uint32(1), groupID)

	requireParityMatches(t, base, groupID, []uint32{1, 2, 3})
}

func TestScenarioE_DegradedRead(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, Init(base, 1))
	require.NoError(t, Init(base, 2))
	require.NoError(t, Init(base, 3))

	_, err := Put(base, 1, []byte("X"))
	require.NoError(t, err)
	oidYY, err := Put(base, 2, []byte("YY"))
	require.NoError(t, err)
	_, err = Put(base, 3, []byte("ZZZ"))
	require.NoError(t, err)

	_, err = HACreate(base, []uint32{1, 2, 3})
	require.NoError(t, err)

	require.NoError(t, Destroy(base, 2))

	got, err := Get(base, 2, oidYY)
	require.NoError(t, err)
	require.Equal(t, []byte("YY"), got)

	entries, err := List(base)
	require.NoError(t, err)
	entry := findEntry(t, entries, 2)
	require.Contains(t, entry.Status, "destroyed")
	require.Contains(t, entry.Status, "ha-group=1")
}

func TestScenarioF_GroupTeardown(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, Init(base, 1))
	require.NoError(t, Init(base, 2))
	require.NoError(t, Init(base, 3))

	_, err := Put(base, 1, []byte("X"))
	require.NoError(t, err)
	_, err = Put(base, 2, []byte("YY"))
	require.NoError(t, err)
	_, err = Put(base, 3, []byte("ZZZ"))
	require.NoError(t, err)

	_, err = HACreate(base, []uint32{1, 2, 3})
	require.NoError(t, err)

	require.NoError(t, Destroy(base, 2))
	require.NoError(t, Destroy(base, 3))

	require.False(t, layout.GroupExists(base, 1))

	c, err := store.Open(base, 1)
	require.NoError(t, err)
	desc, _, err := c.LoadDescriptors()
	require.NoError(t, err)
	require.Equal(t, int32(-1), desc.HAGroupID)

	require.False(t, layout.StoreExists(base, 2))
	require.False(t, layout.StoreExists(base, 3))
}

func TestBoundary_ZeroByteObject(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, Init(base, 0))

	oid, err := Put(base, 0, []byte{})
	require.NoError(t, err)

	got, err := Get(base, 0, oid)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestBoundary_ExactBlockSize(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, Init(base, 0))

	payload := bytes.Repeat([]byte{0xAB}, store.BlockSize)
	oid, err := Put(base, 0, payload)
	require.NoError(t, err)

	got, err := Get(base, 0, oid)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestBoundary_NoSpace(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, Init(base, 0))

	for i := 0; i < store.NumBlocks; i++ {
		_, err := Put(base, 0, []byte("x"))
		require.NoError(t, err)
	}

	_, err := Put(base, 0, []byte("one too many"))
	require.ErrorIs(t, err, ErrNoSpace)
}

func TestPutToDestroyedStandaloneStore(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, Init(base, 0))
	require.NoError(t, Destroy(base, 0))
	require.False(t, layout.StoreExists(base, 0))

	_, err := Put(base, 0, []byte("x"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPutToDestroyedHAMember(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, Init(base, 1))
	require.NoError(t, Init(base, 2))
	_, err := Put(base, 1, []byte("a"))
	require.NoError(t, err)
	_, err = Put(base, 2, []byte("b"))
	require.NoError(t, err)

	_, err = HACreate(base, []uint32{1, 2})
	require.NoError(t, err)

	require.NoError(t, Destroy(base, 1))

	_, err = Put(base, 1, []byte("c"))
	require.ErrorIs(t, err, ErrDestroyed)
}

func findEntry(t *testing.T, entries []Entry, id uint32) Entry {
	t.Helper()
	for _, e := range entries {
		if e.StoreID == id {
			return e
		}
	}
	t.Fatalf("no entry for store %d", id)
	return Entry{}
}

func requireDataFilesEqual(t *testing.T, base string, a, b uint32) {
	t.Helper()
	pa := layout.StorePaths(base, a)
	pb := layout.StorePaths(base, b)
	da, err := os.ReadFile(pa.Data)
	require.NoError(t, err)
	db, err := os.ReadFile(pb.Data)
	require.NoError(t, err)
	require.True(t, bytes.Equal(da, db), "data files for stores %d and %d differ", a, b)
}

func requireParityMatches(t *testing.T, base string, groupID uint32, members []uint32) {
	t.Helper()
	paths := layout.GroupPaths(base, groupID)
	parity, err := os.ReadFile(paths.Parity)
	require.NoError(t, err)

	want := make([]byte, len(parity))
	for _, id := range members {
		data, err := os.ReadFile(layout.StorePaths(base, id).Data)
		require.NoError(t, err)
		for i := range want {
			want[i] ^= data[i]
		}
	}
	require.True(t, bytes.Equal(want, parity), "parity does not match XOR of members")
}
